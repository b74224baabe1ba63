package declarative

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ============================================================
// FileTreeLoader tests
// ============================================================

func TestTreeLoader_LoadFile_YAML(t *testing.T) {
	content := `
name: Root
description: routes questions
type: DISTRIBUTE
mode: PARALLEL
prompt: answer briefly
model:
  name: gpt-4o
  alias: main
  base_url: https://api.example.com
  api_key: sk-1
  type: LLM
tools:
  - name: weather
    schema_type: OPEN_API3
    schema_file: weather.json
    api_key_type: Bearer
    auto_agent: true
    functions:
      - name: /forecast
        method: get
        mode: SERIAL
knowledge_bases:
  - name: faq
    model:
      name: bge
      alias: bge
      type: embedding
    documents: [a.md, b.pdf]
sub_agents:
  - name: Child
    type: GENERAL
    mode: SERIAL
`
	path := writeTemp(t, "agent.yaml", content)
	loader := NewTreeLoader()

	node, err := loader.LoadFile(path)
	require.NoError(t, err)

	assert.Equal(t, "Root", node.Name)
	assert.Equal(t, "routes questions", node.Description)
	assert.Equal(t, AgentTypeDistribute, node.Type)
	assert.Equal(t, ExecutionModeParallel, node.Mode)
	require.NotNil(t, node.Model)
	assert.Equal(t, "main", node.Model.Alias)
	assert.Equal(t, ModelTypeLLM, node.Model.Type)

	require.Len(t, node.Tools, 1)
	assert.Equal(t, SchemaTypeOpenAPI3, node.Tools[0].SchemaType)
	assert.Equal(t, APIKeyTypeBearer, node.Tools[0].APIKeyType)
	assert.True(t, node.Tools[0].AutoAgent)
	assert.Equal(t, []FunctionSpec{{Name: "/forecast", HTTPMethod: "get", Mode: ExecutionModeSerial}}, node.Tools[0].Functions)

	require.Len(t, node.KnowledgeBases, 1)
	assert.Equal(t, ModelTypeEmbedding, node.KnowledgeBases[0].Model.Type)
	assert.Equal(t, []string{"a.md", "b.pdf"}, node.KnowledgeBases[0].Documents)

	require.Len(t, node.SubAgents, 1)
	assert.Equal(t, "Child", node.SubAgents[0].Name)
	assert.Equal(t, 2, node.Count())
}

func TestTreeLoader_LoadFile_JSON(t *testing.T) {
	content := `{"name": "Solo", "type": "REFLECTION", "mode": "REJECT"}`
	path := writeTemp(t, "agent.json", content)

	node, err := NewTreeLoader().LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "Solo", node.Name)
	assert.Equal(t, AgentTypeReflection, node.Type)
	assert.Equal(t, ExecutionModeReject, node.Mode)
}

func TestTreeLoader_UnsupportedExtension(t *testing.T) {
	path := writeTemp(t, "agent.toml", "name = 'x'")

	_, err := NewTreeLoader().LoadFile(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported file extension")
}

func TestTreeLoader_MissingFile(t *testing.T) {
	_, err := NewTreeLoader().LoadFile(filepath.Join(t.TempDir(), "none.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "read agent tree file")
}

func TestTreeLoader_InvalidContent(t *testing.T) {
	loader := NewTreeLoader()

	_, err := loader.LoadBytes([]byte("name: [unclosed"), "yaml")
	assert.ErrorContains(t, err, "parse YAML")

	_, err = loader.LoadBytes([]byte("{"), "json")
	assert.ErrorContains(t, err, "parse JSON")

	_, err = loader.LoadBytes([]byte("x"), "xml")
	assert.ErrorContains(t, err, "unsupported format")
}

func TestTreeLoader_MarshalRoundTrip(t *testing.T) {
	loader := NewTreeLoader()
	original := &AgentNode{
		Name: "Root",
		Type: AgentTypeGeneral,
		Mode: ExecutionModeSerial,
		Tools: []ToolSpec{{
			Name:       "search",
			SchemaType: SchemaTypeMCP,
			Functions:  []FunctionSpec{{Name: "query", Mode: ExecutionModeParallel}},
		}},
		SubAgents: []*AgentNode{{Name: "Leaf"}},
	}

	for _, format := range []string{"yaml", "json"} {
		t.Run(format, func(t *testing.T) {
			data, err := loader.Marshal(original, format)
			require.NoError(t, err)

			loaded, err := loader.LoadBytes(data, format)
			require.NoError(t, err)
			assert.Equal(t, original, loaded)
		})
	}

	_, err := loader.Marshal(original, "ini")
	assert.Error(t, err)
}

func TestDetectFormat(t *testing.T) {
	assert.Equal(t, "yaml", DetectFormat("a.YML"))
	assert.Equal(t, "yaml", DetectFormat("a.yaml"))
	assert.Equal(t, "json", DetectFormat("dir/a.json"))
	assert.Equal(t, "", DetectFormat("a.md"))
}

func TestAgentNode_WalkSkipsSubtree(t *testing.T) {
	tree := &AgentNode{Name: "a", SubAgents: []*AgentNode{
		{Name: "b", SubAgents: []*AgentNode{{Name: "c"}}},
		{Name: "d"},
	}}

	var visited []string
	var depths []int
	tree.Walk(func(n *AgentNode, depth int) bool {
		visited = append(visited, n.Name)
		depths = append(depths, depth)
		return n.Name != "b"
	})

	assert.Equal(t, []string{"a", "b", "d"}, visited)
	assert.Equal(t, []int{1, 2, 2}, depths)
}

func TestModelSpec_EffectiveAlias(t *testing.T) {
	assert.Equal(t, "gpt", (&ModelSpec{Name: "gpt", Alias: "  "}).EffectiveAlias())
	assert.Equal(t, "main", (&ModelSpec{Name: "gpt", Alias: "main"}).EffectiveAlias())
}

// ============================================================
// Helpers
// ============================================================

func writeTemp(t *testing.T, name, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}
