// =============================================================================
// 📦 测试数据工厂 - Agent 定义树
// =============================================================================
// 提供预定义的 Agent 定义树与对应资产，用于解析、校验、归档测试
// =============================================================================
package fixtures

import (
	"github.com/BaSui01/agenthub/agent/declarative"
)

// =============================================================================
// 🤖 模型与工具
// =============================================================================

// ChatModel 返回一个 LLM 模型绑定
func ChatModel() *declarative.ModelSpec {
	return &declarative.ModelSpec{
		Name:    "gpt-4o",
		Alias:   "main",
		BaseURL: "https://api.example.com/v1",
		APIKey:  "sk-test",
		Type:    declarative.ModelTypeLLM,
	}
}

// EmbeddingModel 返回知识库使用的嵌入模型绑定
func EmbeddingModel() *declarative.ModelSpec {
	return &declarative.ModelSpec{
		Name:    "bge-m3",
		Alias:   "bge-m3",
		BaseURL: "https://embed.example.com",
		APIKey:  "sk-embed",
		Type:    declarative.ModelTypeEmbedding,
	}
}

// SpeechModel 返回 TTS 模型绑定
func SpeechModel() *declarative.ModelSpec {
	return &declarative.ModelSpec{
		Name:    "voice",
		Alias:   "voice",
		BaseURL: declarative.EndpointPlaceholder,
		APIKey:  declarative.APIKeyPlaceholder,
		Type:    declarative.ModelTypeTTS,
	}
}

// WeatherTool 返回带两个方法的工具绑定
func WeatherTool() declarative.ToolSpec {
	return declarative.ToolSpec{
		Name:           "weather",
		SchemaType:     declarative.SchemaTypeOpenAPI3,
		Description:    "forecast lookup",
		SchemaFileName: "weather.json",
		APIKeyType:     declarative.APIKeyTypeBearer,
		APIKey:         "tool-key",
		Functions: []declarative.FunctionSpec{
			{Name: "/forecast", HTTPMethod: "get", Mode: declarative.ExecutionModeParallel},
			{Name: "/alerts", Mode: declarative.ExecutionModeSerial},
		},
	}
}

// FAQKnowledgeBase 返回带两个文档的知识库绑定
func FAQKnowledgeBase() declarative.KnowledgeBaseSpec {
	return declarative.KnowledgeBaseSpec{
		Name:        "faq",
		Description: "frequently asked questions",
		Model:       EmbeddingModel(),
		Documents:   []string{"intro.md", "pricing.md"},
	}
}

// =============================================================================
// 🌳 Agent 树
// =============================================================================

// MinimalTree 返回能通过 StrictExport 的最小树
func MinimalTree() *declarative.AgentNode {
	return &declarative.AgentNode{
		Name:   "Solo",
		Type:   declarative.AgentTypeGeneral,
		Mode:   declarative.ExecutionModeParallel,
		Prompt: "answer briefly",
	}
}

// DispatcherTree 返回两层树：分发 Agent 与两个共享模型、工具、知识库的子 Agent
func DispatcherTree() *declarative.AgentNode {
	return &declarative.AgentNode{
		Name:           "Dispatcher",
		Description:    "routes questions",
		Type:           declarative.AgentTypeDistribute,
		Mode:           declarative.ExecutionModeSerial,
		Prompt:         "route every question",
		Model:          ChatModel(),
		Tools:          []declarative.ToolSpec{WeatherTool()},
		KnowledgeBases: []declarative.KnowledgeBaseSpec{FAQKnowledgeBase()},
		SubAgents: []*declarative.AgentNode{
			{
				Name:           "Forecaster",
				Type:           declarative.AgentTypeGeneral,
				Mode:           declarative.ExecutionModeParallel,
				Prompt:         "forecast",
				Model:          ChatModel(),
				Tools:          []declarative.ToolSpec{WeatherTool()},
				KnowledgeBases: []declarative.KnowledgeBaseSpec{FAQKnowledgeBase()},
			},
			{
				Name:  "Narrator",
				Type:  declarative.AgentTypeReflection,
				Mode:  declarative.ExecutionModeReject,
				Model: SpeechModel(),
			},
		},
	}
}

// =============================================================================
// 📄 资产
// =============================================================================

// WeatherSchema 是 WeatherTool 引用的 schema 文稿
const WeatherSchema = `{"openapi":"3.0.0","info":{"title":"weather","version":"1"}}`

// DocumentContents 返回 FAQKnowledgeBase 引用的文档内容
func DocumentContents() map[string][]byte {
	return map[string][]byte{
		"intro.md":   []byte("# Intro\n\nWelcome."),
		"pricing.md": []byte("# Pricing\n\nFree."),
	}
}
