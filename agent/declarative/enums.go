package declarative

import (
	"strconv"
	"strings"
)

// label binds an enum value to the names it is known by in documents and archives.
type label[T ~string] struct {
	value       T
	name        string
	description string
}

// labelTable is an ordered, closed set of enum labels.
type labelTable[T ~string] []label[T]

// parse matches s against descriptions first, then codes, then upper-case names.
func (t labelTable[T]) parse(s string) T {
	for _, l := range t {
		if l.description == s {
			return l.value
		}
	}
	for _, l := range t {
		if string(l.value) == s {
			return l.value
		}
	}
	for _, l := range t {
		if l.name == s {
			return l.value
		}
	}
	var zero T
	return zero
}

func (t labelTable[T]) lookup(v T) (label[T], bool) {
	for _, l := range t {
		if l.value == v {
			return l, true
		}
	}
	return label[T]{}, false
}

func (t labelTable[T]) description(v T) string {
	if l, ok := t.lookup(v); ok {
		return l.description
	}
	return string(v)
}

func (t labelTable[T]) descriptions() []string {
	out := make([]string, len(t))
	for i, l := range t {
		out[i] = l.description
	}
	return out
}

func (t labelTable[T]) codes() []string {
	out := make([]string, len(t))
	for i, l := range t {
		out[i] = string(l.value)
	}
	return out
}

// =============================================================================
// AgentType
// =============================================================================

// AgentType is the dispatch style of an agent node.
type AgentType string

const (
	AgentTypeGeneral    AgentType = "GENERAL"
	AgentTypeDistribute AgentType = "DISTRIBUTE"
	AgentTypeReflection AgentType = "REFLECTION"
)

var agentTypes = labelTable[AgentType]{
	{AgentTypeGeneral, "GENERAL", "普通"},
	{AgentTypeDistribute, "DISTRIBUTE", "分发"},
	{AgentTypeReflection, "REFLECTION", "反思"},
}

// ParseAgentType resolves a description, code, or name. Unknown input yields "".
func ParseAgentType(s string) AgentType { return agentTypes.parse(s) }

// Description returns the dialect label, e.g. "普通".
func (t AgentType) Description() string { return agentTypes.description(t) }

// AgentTypeAllowedValues lists the dialect labels.
func AgentTypeAllowedValues() []string { return agentTypes.descriptions() }

// =============================================================================
// ExecutionMode
// =============================================================================

// ExecutionMode controls how an agent or function runs relative to its siblings.
type ExecutionMode string

const (
	ExecutionModeParallel ExecutionMode = "PARALLEL"
	ExecutionModeSerial   ExecutionMode = "SERIAL"
	ExecutionModeReject   ExecutionMode = "REJECT"
)

var executionModes = labelTable[ExecutionMode]{
	{ExecutionModeParallel, "PARALLEL", "并行"},
	{ExecutionModeSerial, "SERIAL", "串行"},
	{ExecutionModeReject, "REJECT", "拒绝"},
}

// ParseExecutionMode resolves a description, code, or name. Unknown input yields "".
func ParseExecutionMode(s string) ExecutionMode { return executionModes.parse(s) }

// Description returns the dialect label, e.g. "并行".
func (m ExecutionMode) Description() string { return executionModes.description(m) }

// ExecutionModeAllowedValues lists the dialect labels.
func ExecutionModeAllowedValues() []string { return executionModes.descriptions() }

// =============================================================================
// ModelType
// =============================================================================

// ModelType classifies a model binding. Its string form is the wire code.
type ModelType string

const (
	ModelTypeLLM       ModelType = "LLM"
	ModelTypeEmbedding ModelType = "embedding"
	ModelTypeASR       ModelType = "asr"
	ModelTypeTTS       ModelType = "tts"
	ModelTypeImage     ModelType = "image"
)

var modelTypes = labelTable[ModelType]{
	{ModelTypeLLM, "LLM", "大语言模型"},
	{ModelTypeEmbedding, "EMBEDDING", "嵌入模型"},
	{ModelTypeASR, "ASR", "语音识别"},
	{ModelTypeTTS, "TTS", "文本转语音"},
	{ModelTypeImage, "IMAGE", "图像模型"},
}

// ParseModelType resolves a description, code, or name. Unknown input yields "".
func ParseModelType(s string) ModelType { return modelTypes.parse(s) }

// Description returns the human label, e.g. "嵌入模型".
func (m ModelType) Description() string { return modelTypes.description(m) }

// ModelTypeAllowedValues lists the wire codes.
func ModelTypeAllowedValues() []string { return modelTypes.codes() }

// =============================================================================
// SchemaType
// =============================================================================

// SchemaType is the protocol a tool schema is written in.
type SchemaType string

const (
	SchemaTypeOpenAPI3         SchemaType = "OPEN_API3"
	SchemaTypeJSONRPC          SchemaType = "JSON_RPC"
	SchemaTypeOpenTool         SchemaType = "OpenTool"
	SchemaTypeOpenToolExternal SchemaType = "OPEN_TOOL"
	SchemaTypeMCP              SchemaType = "MCP"
)

var schemaTypes = labelTable[SchemaType]{
	{SchemaTypeOpenAPI3, "OPEN_API3", "OPEN_API3"},
	{SchemaTypeJSONRPC, "JSON_RPC", "JSON_RPC"},
	{SchemaTypeOpenTool, "OpenTool", "OpenTool"},
	{SchemaTypeOpenToolExternal, "OPEN_TOOL", "OPEN_TOOL"},
	{SchemaTypeMCP, "MCP", "MCP"},
}

// Archive integer codes.
var schemaTypeCodes = map[SchemaType]int{
	SchemaTypeOpenAPI3:         1,
	SchemaTypeJSONRPC:          2,
	SchemaTypeOpenToolExternal: 4,
	SchemaTypeMCP:              5,
	SchemaTypeOpenTool:         6,
}

// ParseSchemaType resolves a description or name, or a decimal archive code.
func ParseSchemaType(s string) SchemaType {
	if v := schemaTypes.parse(s); v != "" {
		return v
	}
	if code, err := strconv.Atoi(strings.TrimSpace(s)); err == nil {
		return SchemaTypeFromCode(code)
	}
	return ""
}

// SchemaTypeFromCode maps an archive integer code back to a SchemaType.
func SchemaTypeFromCode(code int) SchemaType {
	for t, c := range schemaTypeCodes {
		if c == code {
			return t
		}
	}
	return ""
}

// Code returns the archive integer code, or 0 when unset.
func (s SchemaType) Code() int { return schemaTypeCodes[s] }

// Description returns the dialect label.
func (s SchemaType) Description() string { return schemaTypes.description(s) }

// SchemaTypeAllowedValues lists the dialect labels.
func SchemaTypeAllowedValues() []string { return schemaTypes.descriptions() }

// =============================================================================
// APIKeyType
// =============================================================================

// APIKeyType is the HTTP authorization scheme of a tool key.
type APIKeyType string

const (
	APIKeyTypeBearer APIKeyType = "Bearer"
	APIKeyTypeBasic  APIKeyType = "Basic"
)

var apiKeyTypes = labelTable[APIKeyType]{
	{APIKeyTypeBearer, "BEARER", "Bearer认证"},
	{APIKeyTypeBasic, "BASIC", "Basic认证"},
}

// ParseAPIKeyType resolves a description, code, or name. Unknown input yields "".
func ParseAPIKeyType(s string) APIKeyType { return apiKeyTypes.parse(s) }

// Description returns the human label, e.g. "Bearer认证".
func (k APIKeyType) Description() string { return apiKeyTypes.description(k) }

// APIKeyTypeAllowedValues lists the human labels.
func APIKeyTypeAllowedValues() []string { return apiKeyTypes.descriptions() }
