package declarative

import "strings"

// Placeholder tokens substituted for blank secrets and endpoints.
const (
	EndpointPlaceholder = "{{<ENDPOINT>}}"
	APIKeyPlaceholder   = "{{<APIKEY>}}"
)

// AgentNode is one agent in a definition tree.
// A node owns its specs and sub-agents; the tree has no back-references.
// This struct is designed to be deserialized from YAML or JSON files.
type AgentNode struct {
	Name        string        `yaml:"name" json:"name"`
	Description string        `yaml:"description,omitempty" json:"description,omitempty"`
	Type        AgentType     `yaml:"type,omitempty" json:"type,omitempty"`
	Mode        ExecutionMode `yaml:"mode,omitempty" json:"mode,omitempty"`
	Prompt      string        `yaml:"prompt,omitempty" json:"prompt,omitempty"`

	Model          *ModelSpec          `yaml:"model,omitempty" json:"model,omitempty"`
	Tools          []ToolSpec          `yaml:"tools,omitempty" json:"tools,omitempty"`
	KnowledgeBases []KnowledgeBaseSpec `yaml:"knowledge_bases,omitempty" json:"knowledge_bases,omitempty"`

	SubAgents []*AgentNode `yaml:"sub_agents,omitempty" json:"sub_agents,omitempty"`
}

// ModelSpec binds an agent or knowledge base to a model endpoint.
type ModelSpec struct {
	Name    string    `yaml:"name" json:"name"`
	Alias   string    `yaml:"alias,omitempty" json:"alias,omitempty"`
	BaseURL string    `yaml:"base_url,omitempty" json:"base_url,omitempty"`
	APIKey  string    `yaml:"api_key,omitempty" json:"api_key,omitempty"`
	Type    ModelType `yaml:"type,omitempty" json:"type,omitempty"`
}

// EffectiveAlias returns Alias, or Name when Alias is blank.
func (m *ModelSpec) EffectiveAlias() string {
	if strings.TrimSpace(m.Alias) == "" {
		return m.Name
	}
	return m.Alias
}

// ToolSpec binds an agent to a tool described by an external schema document.
type ToolSpec struct {
	Name           string         `yaml:"name" json:"name"`
	SchemaType     SchemaType     `yaml:"schema_type,omitempty" json:"schema_type,omitempty"`
	Description    string         `yaml:"description,omitempty" json:"description,omitempty"`
	SchemaFileName string         `yaml:"schema_file,omitempty" json:"schema_file,omitempty"`
	APIKeyType     APIKeyType     `yaml:"api_key_type,omitempty" json:"api_key_type,omitempty"`
	APIKey         string         `yaml:"api_key,omitempty" json:"api_key,omitempty"`
	AutoAgent      bool           `yaml:"auto_agent,omitempty" json:"auto_agent,omitempty"`
	Functions      []FunctionSpec `yaml:"functions,omitempty" json:"functions,omitempty"`
}

// FunctionSpec is one callable operation of a tool.
type FunctionSpec struct {
	Name string `yaml:"name" json:"name"`
	// HTTPMethod is empty when the schema does not name one.
	HTTPMethod string        `yaml:"method,omitempty" json:"method,omitempty"`
	Mode       ExecutionMode `yaml:"mode,omitempty" json:"mode,omitempty"`
}

// KnowledgeBaseSpec binds an agent to a document collection.
type KnowledgeBaseSpec struct {
	Name        string     `yaml:"name" json:"name"`
	Description string     `yaml:"description,omitempty" json:"description,omitempty"`
	Model       *ModelSpec `yaml:"model,omitempty" json:"model,omitempty"`
	Documents   []string   `yaml:"documents,omitempty" json:"documents,omitempty"`
}

// Walk visits n and its descendants depth-first, parents before children.
// Returning false from fn skips the node's subtree.
func (n *AgentNode) Walk(fn func(node *AgentNode, depth int) bool) {
	n.walk(fn, 1)
}

func (n *AgentNode) walk(fn func(*AgentNode, int) bool, depth int) {
	if n == nil || !fn(n, depth) {
		return
	}
	for _, child := range n.SubAgents {
		child.walk(fn, depth+1)
	}
}

// Count returns the number of nodes in the tree rooted at n.
func (n *AgentNode) Count() int {
	total := 0
	n.Walk(func(*AgentNode, int) bool {
		total++
		return true
	})
	return total
}
