package markdown

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/BaSui01/agenthub/agent/declarative"
	"github.com/BaSui01/agenthub/types"
)

// Any tree whose names are single tokens and whose model fields are filled in
// survives Generate followed by ParseSource unchanged, up to line breaks in
// descriptions, which are folded into spaces.

func genModel() *rapid.Generator[*declarative.ModelSpec] {
	return rapid.Custom(func(t *rapid.T) *declarative.ModelSpec {
		return &declarative.ModelSpec{
			Name:    rapid.StringMatching(`[a-z][a-z0-9-]{0,10}`).Draw(t, "modelName"),
			Alias:   rapid.StringMatching(`[a-z][a-z0-9-]{0,10}`).Draw(t, "modelAlias"),
			BaseURL: rapid.StringMatching(`https://[a-z]{3,10}\.com/v1`).Draw(t, "baseURL"),
			APIKey:  rapid.StringMatching(`sk-[a-z0-9]{4,12}`).Draw(t, "apiKey"),
			Type: rapid.SampledFrom([]declarative.ModelType{
				declarative.ModelTypeLLM, declarative.ModelTypeEmbedding, declarative.ModelTypeASR,
				declarative.ModelTypeTTS, declarative.ModelTypeImage,
			}).Draw(t, "modelType"),
		}
	})
}

func genOptionalText() *rapid.Generator[string] {
	return rapid.OneOf(
		rapid.Just(""),
		rapid.StringMatching(`[a-z]([a-z ]{0,20}[a-z])?`),
		rapid.StringMatching(`[a-z]{1,6}(\n|\r\n)(## |- 模式: )?[a-z]{1,6}`),
	)
}

func genMode() *rapid.Generator[declarative.ExecutionMode] {
	return rapid.SampledFrom([]declarative.ExecutionMode{
		declarative.ExecutionModeParallel, declarative.ExecutionModeSerial, declarative.ExecutionModeReject,
	})
}

func genTool() *rapid.Generator[declarative.ToolSpec] {
	return rapid.Custom(func(t *rapid.T) declarative.ToolSpec {
		tool := declarative.ToolSpec{
			Name:        rapid.StringMatching(`[a-z][a-z_]{0,10}`).Draw(t, "toolName"),
			Description: genOptionalText().Draw(t, "toolDescription"),
			SchemaType: rapid.SampledFrom([]declarative.SchemaType{
				"", declarative.SchemaTypeOpenAPI3, declarative.SchemaTypeJSONRPC, declarative.SchemaTypeOpenTool,
				declarative.SchemaTypeOpenToolExternal, declarative.SchemaTypeMCP,
			}).Draw(t, "schemaType"),
			SchemaFileName: rapid.OneOf(rapid.Just(""), rapid.StringMatching(`[a-z]{1,8}\.(json|yaml)`)).Draw(t, "schemaFile"),
			APIKeyType: rapid.SampledFrom([]declarative.APIKeyType{
				"", declarative.APIKeyTypeBearer, declarative.APIKeyTypeBasic,
			}).Draw(t, "apiKeyType"),
			APIKey:    rapid.OneOf(rapid.Just(""), rapid.StringMatching(`[A-Za-z0-9]{1,12}`)).Draw(t, "toolKey"),
			AutoAgent: rapid.Bool().Draw(t, "autoAgent"),
		}
		n := rapid.IntRange(0, 2).Draw(t, "functionCount")
		for i := 0; i < n; i++ {
			tool.Functions = append(tool.Functions, declarative.FunctionSpec{
				Name:       rapid.StringMatching(`/[a-z]{1,8}`).Draw(t, "functionName"),
				HTTPMethod: rapid.SampledFrom([]string{"", "get", "post", "DELETE"}).Draw(t, "method"),
				Mode:       genMode().Draw(t, "functionMode"),
			})
		}
		return tool
	})
}

func genKnowledgeBase() *rapid.Generator[declarative.KnowledgeBaseSpec] {
	return rapid.Custom(func(t *rapid.T) declarative.KnowledgeBaseSpec {
		kb := declarative.KnowledgeBaseSpec{
			Name:        rapid.StringMatching(`[a-z]{1,8}`).Draw(t, "kbName"),
			Description: genOptionalText().Draw(t, "kbDescription"),
		}
		if rapid.Bool().Draw(t, "kbHasModel") {
			kb.Model = genModel().Draw(t, "kbModel")
		}
		n := rapid.IntRange(0, 2).Draw(t, "docCount")
		for i := 0; i < n; i++ {
			kb.Documents = append(kb.Documents, rapid.StringMatching(`[a-z]{1,8}\.(md|pdf)`).Draw(t, "doc"))
		}
		return kb
	})
}

func genAgent(depth int) *rapid.Generator[*declarative.AgentNode] {
	return rapid.Custom(func(t *rapid.T) *declarative.AgentNode {
		node := &declarative.AgentNode{
			Name:        rapid.StringMatching(`[A-Z][A-Za-z0-9]{0,8}`).Draw(t, "agentName"),
			Description: genOptionalText().Draw(t, "description"),
			Type: rapid.SampledFrom([]declarative.AgentType{
				"", declarative.AgentTypeGeneral, declarative.AgentTypeDistribute, declarative.AgentTypeReflection,
			}).Draw(t, "agentType"),
			Mode: rapid.SampledFrom([]declarative.ExecutionMode{
				"", declarative.ExecutionModeParallel, declarative.ExecutionModeSerial, declarative.ExecutionModeReject,
			}).Draw(t, "agentMode"),
			Prompt: rapid.OneOf(
				rapid.Just(""),
				rapid.StringMatching(`[a-z][a-z ,.]{0,30}[a-z.]`),
				rapid.StringMatching(`[a-z]{1,10}\n[a-z][a-z ]{0,10}\n[a-z]{1,10}`),
			).Draw(t, "prompt"),
		}
		if rapid.Bool().Draw(t, "hasModel") {
			node.Model = genModel().Draw(t, "model")
		}
		for i, n := 0, rapid.IntRange(0, 2).Draw(t, "toolCount"); i < n; i++ {
			node.Tools = append(node.Tools, genTool().Draw(t, "tool"))
		}
		for i, n := 0, rapid.IntRange(0, 2).Draw(t, "kbCount"); i < n; i++ {
			node.KnowledgeBases = append(node.KnowledgeBases, genKnowledgeBase().Draw(t, "kb"))
		}
		if depth < 3 {
			for i, n := 0, rapid.IntRange(0, 2).Draw(t, "childCount"); i < n; i++ {
				node.SubAgents = append(node.SubAgents, genAgent(depth+1).Draw(t, "child"))
			}
		}
		return node
	})
}

func TestProperty_GenerateParseRoundTrip(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		original := genAgent(1).Draw(rt, "tree")
		doc := Generate(original)

		parsed, err := ParseSource([]byte(doc))
		if err != nil {
			rt.Fatalf("parse generated document: %v", err)
		}
		foldDescriptions(original)
		if !assert.ObjectsAreEqual(original, parsed) {
			rt.Fatalf("round trip mismatch\noriginal: %+v\nparsed:   %+v\ndocument:\n%s", original, parsed, doc)
		}
	})
}

func TestProperty_GenerateIsStable(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		tree := genAgent(1).Draw(rt, "tree")
		first := Generate(tree)

		parsed, err := ParseSource([]byte(first))
		require.NoError(rt, err)
		if second := Generate(parsed); second != first {
			rt.Fatalf("generate(parse(generate(x))) differs:\n%s\n---\n%s", first, second)
		}
	})
}

func foldDescriptions(node *declarative.AgentNode) {
	node.Description = oneLine(node.Description)
	for i := range node.Tools {
		node.Tools[i].Description = oneLine(node.Tools[i].Description)
	}
	for i := range node.KnowledgeBases {
		node.KnowledgeBases[i].Description = oneLine(node.KnowledgeBases[i].Description)
	}
	for _, child := range node.SubAgents {
		foldDescriptions(child)
	}
}

func TestProperty_ParseOnlyFailsOnMissingHeading(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		src := rapid.OneOf(
			rapid.StringMatching(`(#{1,3} [A-Za-z]{1,5}\n|> [a-z]{1,5}\n|( {0,4})- [a-z:： ]{0,8}\n|~~~\n|\n){0,12}`),
			rapid.String(),
		).Draw(rt, "src")

		node, err := ParseSource([]byte(src))
		if err != nil {
			if !types.IsCode(err, types.ErrEmptyDocument) {
				rt.Fatalf("unexpected error code for %q: %v", src, err)
			}
			return
		}
		if node == nil {
			rt.Fatalf("nil tree without error for %q", src)
		}
	})
}
