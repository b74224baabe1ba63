package archive

import (
	"strings"
	"time"

	"github.com/BaSui01/agenthub/agent/declarative"
)

// Descriptor defaults written for every exported agent and knowledge base.
const (
	defaultTemperature    = 0
	defaultTopP           = 1
	defaultMaxTokens      = 4096
	defaultTopK           = 10
	defaultScoreThreshold = 0.5

	// nullMethod stands in for a blank HTTP method inside a function ID.
	nullMethod = "null"
)

// TimeLayout is the createTime format of metadata.json.
const TimeLayout = "2006-01-02 15:04:05"

// Metadata is the archive-level metadata.json record.
type Metadata struct {
	Agent      string    `json:"agent"`
	Version    string    `json:"version"`
	Author     string    `json:"author"`
	CreateTime Timestamp `json:"createTime"`
}

// Timestamp encodes a time as TimeLayout in local time. The zero value encodes as null.
type Timestamp struct {
	time.Time
}

// MarshalJSON implements json.Marshaler.
func (t Timestamp) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return []byte("null"), nil
	}
	return []byte(`"` + t.Format(TimeLayout) + `"`), nil
}

// UnmarshalJSON implements json.Unmarshaler.
func (t *Timestamp) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	if s == "" || s == "null" {
		t.Time = time.Time{}
		return nil
	}
	parsed, err := time.ParseInLocation(TimeLayout, s, time.Local)
	if err != nil {
		return err
	}
	t.Time = parsed
	return nil
}

type agentDescriptor struct {
	ID               string        `json:"id"`
	Name             string        `json:"name"`
	Description      string        `json:"description"`
	Prompt           string        `json:"prompt"`
	Type             string        `json:"type,omitempty"`
	Mode             string        `json:"mode,omitempty"`
	ModelID          string        `json:"modelId,omitempty"`
	Temperature      int           `json:"temperature"`
	TopP             int           `json:"topP"`
	MaxTokens        int           `json:"maxTokens"`
	TTSModelID       string        `json:"ttsModelId,omitempty"`
	SubAgentIDs      []string      `json:"subAgentIds,omitempty"`
	KnowledgeBaseIDs []string      `json:"knowledgeBaseIds,omitempty"`
	FunctionList     []functionRef `json:"functionList,omitempty"`
}

type functionRef struct {
	ToolID     string `json:"toolId"`
	FunctionID string `json:"functionId"`
	Mode       string `json:"mode,omitempty"`
}

type toolDescriptor struct {
	Name        string `json:"name"`
	SchemaType  int    `json:"schemaType"`
	Description string `json:"description"`
	SchemaStr   string `json:"schemaStr"`
	APIKeyType  string `json:"apiKeyType,omitempty"`
	APIKey      string `json:"apiKey,omitempty"`
	AutoAgent   bool   `json:"autoAgent"`
}

type modelDescriptor struct {
	DeepThink    bool   `json:"deepThink"`
	BaseURL      string `json:"baseUrl"`
	FieldMapping string `json:"fieldMapping,omitempty"`
	APIKey       string `json:"apiKey"`
	Provider     string `json:"provider,omitempty"`
	Name         string `json:"name"`
	Alias        string `json:"alias"`
	Type         string `json:"type"`
	AutoAgent    bool   `json:"autoAgent"`
	ToolInvoke   bool   `json:"toolInvoke"`
}

type knowledgeBaseDescriptor struct {
	ID               string  `json:"id"`
	Name             string  `json:"name"`
	Description      string  `json:"description"`
	EmbeddingModelID string  `json:"embeddingModelId"`
	TopK             int     `json:"topK"`
	ScoreThreshold   float64 `json:"scoreThreshold"`
}

func newAgentDescriptor(id string, node *declarative.AgentNode) *agentDescriptor {
	return &agentDescriptor{
		ID:          id,
		Name:        node.Name,
		Description: node.Description,
		Prompt:      node.Prompt,
		Type:        string(node.Type),
		Mode:        string(node.Mode),
		Temperature: defaultTemperature,
		TopP:        defaultTopP,
		MaxTokens:   defaultMaxTokens,
	}
}

func newModelDescriptor(m *declarative.ModelSpec) *modelDescriptor {
	return &modelDescriptor{
		BaseURL:    m.BaseURL,
		APIKey:     m.APIKey,
		Name:       m.Name,
		Alias:      m.EffectiveAlias(),
		Type:       string(m.Type),
		ToolInvoke: true,
	}
}

func (d *modelDescriptor) spec() *declarative.ModelSpec {
	m := &declarative.ModelSpec{
		Name:    d.Name,
		Alias:   d.Alias,
		BaseURL: d.BaseURL,
		APIKey:  d.APIKey,
		Type:    declarative.ParseModelType(d.Type),
	}
	m.Alias = m.EffectiveAlias()
	return m
}

func newToolDescriptor(t declarative.ToolSpec, schema string) *toolDescriptor {
	return &toolDescriptor{
		Name:        t.Name,
		SchemaType:  t.SchemaType.Code(),
		Description: t.Description,
		SchemaStr:   schema,
		APIKeyType:  string(t.APIKeyType),
		APIKey:      t.APIKey,
		AutoAgent:   t.AutoAgent,
	}
}

func defaultDocumentMetadata(fileName string) DocumentMetadata {
	return DocumentMetadata{Name: stem(fileName), Separator: DefaultSeparator}
}
