package archive_test

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BaSui01/agenthub/agent/archive"
	"github.com/BaSui01/agenthub/agent/declarative"
	"github.com/BaSui01/agenthub/testutil"
	"github.com/BaSui01/agenthub/testutil/fixtures"
	"github.com/BaSui01/agenthub/testutil/mocks"
	"github.com/BaSui01/agenthub/types"
)

// wire shapes as a foreign reader of the archive sees them

type agentJSON struct {
	ID               string   `json:"id"`
	Name             string   `json:"name"`
	Description      string   `json:"description"`
	Prompt           string   `json:"prompt"`
	Type             string   `json:"type"`
	Mode             string   `json:"mode"`
	ModelID          string   `json:"modelId"`
	TTSModelID       string   `json:"ttsModelId"`
	Temperature      int      `json:"temperature"`
	TopP             int      `json:"topP"`
	MaxTokens        int      `json:"maxTokens"`
	SubAgentIDs      []string `json:"subAgentIds"`
	KnowledgeBaseIDs []string `json:"knowledgeBaseIds"`
	FunctionList     []struct {
		ToolID     string `json:"toolId"`
		FunctionID string `json:"functionId"`
		Mode       string `json:"mode"`
	} `json:"functionList"`
}

func decodeEntry[T any](t *testing.T, contents testutil.ZipContents, name string) T {
	t.Helper()
	data, ok := contents.Entries[name]
	require.True(t, ok, "missing entry %s in %v", name, contents.Names)
	var v T
	require.NoError(t, json.Unmarshal(data, &v))
	return v
}

func namesWithPrefix(contents testutil.ZipContents, prefix string) []string {
	var out []string
	for _, n := range contents.Names {
		if strings.HasPrefix(n, prefix) {
			out = append(out, n)
		}
	}
	return out
}

func dispatcherAssets() *mocks.MockAssetStore {
	store := mocks.NewMockAssetStore().WithAsset("weather.json", []byte(fixtures.WeatherSchema))
	for name, data := range fixtures.DocumentContents() {
		store.WithDocument(name, data, nil)
	}
	return store
}

// ============================================================
// Dedup
// ============================================================

func TestExport_SharedToolWrittenOnce(t *testing.T) {
	first := fixtures.WeatherTool()
	first.Functions = first.Functions[:1]
	second := fixtures.WeatherTool()
	second.Functions = second.Functions[1:]

	root := fixtures.MinimalTree()
	root.Tools = []declarative.ToolSpec{first, second}

	res, err := archive.NewExporter(nil, nil).Export(testutil.TestContext(t), root, archive.Metadata{}, dispatcherAssets())
	require.NoError(t, err)

	contents := testutil.ReadZip(t, res.Data)
	assert.Len(t, namesWithPrefix(contents, "tools/"), 1)

	desc := decodeEntry[agentJSON](t, contents, "Solo.json")
	require.Len(t, desc.FunctionList, 2)
	assert.Equal(t, desc.FunctionList[0].ToolID, desc.FunctionList[1].ToolID)
	assert.Equal(t, 1, res.Stats.DedupHits)
}

func TestExport_ModelsAndKnowledgeBasesSharedAcrossTree(t *testing.T) {
	res, err := archive.NewExporter(nil, nil).Export(testutil.TestContext(t), fixtures.DispatcherTree(), archive.Metadata{}, dispatcherAssets())
	require.NoError(t, err)

	contents := testutil.ReadZip(t, res.Data)
	assert.Len(t, namesWithPrefix(contents, "models/"), 3)
	assert.Len(t, namesWithPrefix(contents, "tools/"), 1)
	assert.Len(t, namesWithPrefix(contents, "multiagent/"), 2)

	root := decodeEntry[agentJSON](t, contents, "Dispatcher.json")
	require.Len(t, root.SubAgentIDs, 2)
	forecaster := decodeEntry[agentJSON](t, contents, "multiagent/"+root.SubAgentIDs[0]+".json")
	narrator := decodeEntry[agentJSON](t, contents, "multiagent/"+root.SubAgentIDs[1]+".json")

	assert.Equal(t, root.ModelID, forecaster.ModelID)
	assert.Equal(t, root.KnowledgeBaseIDs, forecaster.KnowledgeBaseIDs)
	assert.Equal(t, root.FunctionList[0].ToolID, forecaster.FunctionList[0].ToolID)

	assert.Empty(t, narrator.ModelID)
	assert.NotEmpty(t, narrator.TTSModelID)

	assert.Equal(t, archive.ExportStats{
		Entries:        13,
		Agents:         3,
		Models:         3,
		Tools:          1,
		KnowledgeBases: 1,
		Documents:      2,
		DedupHits:      4,
	}, res.Stats)
}

// ============================================================
// Descriptor shapes
// ============================================================

func TestExport_DescriptorShapes(t *testing.T) {
	created := time.Date(2025, 9, 28, 11, 43, 0, 0, time.Local)
	meta := archive.Metadata{Version: "1.0.0", Author: "teoan", CreateTime: archive.Timestamp{Time: created}}

	res, err := archive.NewExporter(nil, nil).Export(testutil.TestContext(t), fixtures.DispatcherTree(), meta, dispatcherAssets())
	require.NoError(t, err)
	contents := testutil.ReadZip(t, res.Data)

	assert.JSONEq(t,
		`{"agent":"Dispatcher","version":"1.0.0","author":"teoan","createTime":"2025-09-28 11:43:00"}`,
		string(contents.Entries["metadata.json"]))
	assert.Equal(t, "metadata.json", contents.Names[0])
	assert.Equal(t, "Dispatcher.json", contents.Names[len(contents.Names)-1])

	root := decodeEntry[agentJSON](t, contents, "Dispatcher.json")
	assert.Equal(t, "Dispatcher", root.Name)
	assert.Equal(t, "routes questions", root.Description)
	assert.Equal(t, "DISTRIBUTE", root.Type)
	assert.Equal(t, "SERIAL", root.Mode)
	assert.Equal(t, 0, root.Temperature)
	assert.Equal(t, 1, root.TopP)
	assert.Equal(t, 4096, root.MaxTokens)

	require.Len(t, root.FunctionList, 2)
	assert.Equal(t, base64.StdEncoding.EncodeToString([]byte("get:/forecast")), root.FunctionList[0].FunctionID)
	assert.Equal(t, base64.StdEncoding.EncodeToString([]byte("null:/alerts")), root.FunctionList[1].FunctionID)
	assert.Equal(t, "SERIAL", root.FunctionList[1].Mode)

	toolID := root.FunctionList[0].ToolID
	assert.JSONEq(t, `{
		"name": "weather",
		"schemaType": 1,
		"description": "forecast lookup",
		"schemaStr": `+testutil.MustJSON(fixtures.WeatherSchema)+`,
		"apiKeyType": "Bearer",
		"apiKey": "tool-key",
		"autoAgent": false
	}`, string(contents.Entries["tools/"+toolID+".json"]))

	assert.JSONEq(t, `{
		"deepThink": false,
		"baseUrl": "https://api.example.com/v1",
		"apiKey": "sk-test",
		"name": "gpt-4o",
		"alias": "main",
		"type": "LLM",
		"autoAgent": false,
		"toolInvoke": true
	}`, string(contents.Entries["models/"+root.ModelID+".json"]))

	kbID := root.KnowledgeBaseIDs[0]
	kb := decodeEntry[map[string]any](t, contents, "knowledge_bases/"+kbID+"/metadata.json")
	assert.Equal(t, kbID, kb["id"])
	assert.Equal(t, "faq", kb["name"])
	assert.Equal(t, float64(10), kb["topK"])
	assert.Equal(t, 0.5, kb["scoreThreshold"])
	embeddingID, _ := kb["embeddingModelId"].(string)
	assert.Contains(t, string(contents.Entries["models/"+embeddingID+".json"]), `"type":"embedding"`)

	docs := namesWithPrefix(contents, "knowledge_bases/"+kbID+"/")
	var intro string
	for _, n := range docs {
		if strings.HasSuffix(n, "/intro.md") {
			intro = n
		}
	}
	require.NotEmpty(t, intro, "documents: %v", docs)
	assert.Equal(t, "# Intro\n\nWelcome.", string(contents.Entries[intro]))
	introMeta := strings.TrimSuffix(intro, "intro.md") + "metadata.json"
	assert.JSONEq(t, `{"name":"intro","separator":"\n\n"}`, string(contents.Entries[introMeta]))
}

func TestExport_PreservedDocumentMetadataAndImages(t *testing.T) {
	root := fixtures.MinimalTree()
	root.KnowledgeBases = []declarative.KnowledgeBaseSpec{{
		Name:      "manual",
		Model:     fixtures.EmbeddingModel(),
		Documents: []string{"uploads/guide.md"},
	}}
	store := mocks.NewMockAssetStore().WithDocument("uploads/guide.md", []byte("guide"),
		&archive.DocumentMetadata{Name: "Guide", Separator: "---"},
		archive.Asset{Name: "fig1.png", Data: []byte{0x89, 'P', 'N', 'G'}},
	)

	res, err := archive.NewExporter(nil, nil).Export(testutil.TestContext(t), root, archive.Metadata{}, store)
	require.NoError(t, err)
	contents := testutil.ReadZip(t, res.Data)

	var docDir string
	for _, n := range contents.Names {
		if strings.HasSuffix(n, "/guide.md") {
			docDir = strings.TrimSuffix(n, "guide.md")
		}
	}
	require.NotEmpty(t, docDir)
	assert.JSONEq(t, `{"name":"Guide","separator":"---"}`, string(contents.Entries[docDir+"metadata.json"]))
	assert.Equal(t, []byte{0x89, 'P', 'N', 'G'}, contents.Entries[docDir+"imgs/fig1.png"])
	assert.Equal(t, 1, res.Stats.Images)
}

// ============================================================
// Failures
// ============================================================

func TestExport_StrictValidationFailureWritesNothing(t *testing.T) {
	root := fixtures.DispatcherTree()
	root.SubAgents[0].Tools[0].Functions = nil

	res, err := archive.NewExporter(nil, nil).Export(testutil.TestContext(t), root, archive.Metadata{}, dispatcherAssets())
	require.Error(t, err)
	assert.Nil(t, res)
	assert.True(t, types.IsCode(err, types.ErrValidation))

	var typed *types.Error
	require.True(t, errors.As(err, &typed))
	assert.Equal(t, "Agent[Dispatcher]-->Agent[Forecaster]", typed.Path)
}

func TestExport_NilRoot(t *testing.T) {
	_, err := archive.NewExporter(nil, nil).Export(testutil.TestContext(t), nil, archive.Metadata{}, nil)
	assert.True(t, types.IsCode(err, types.ErrValidation))
}

func TestExport_MissingAssetsAreSkipped(t *testing.T) {
	res, err := archive.NewExporter(nil, nil).Export(testutil.TestContext(t), fixtures.DispatcherTree(), archive.Metadata{}, mocks.NewMockAssetStore())
	require.NoError(t, err)

	assert.Equal(t, 0, res.Stats.Documents)
	assert.Equal(t, 3, res.Stats.MissingAssets)

	contents := testutil.ReadZip(t, res.Data)
	for _, n := range namesWithPrefix(contents, "tools/") {
		assert.Contains(t, string(contents.Entries[n]), `"schemaStr":""`)
	}
}

func TestExport_ReaderFailureAborts(t *testing.T) {
	store := dispatcherAssets().WithReadError(errors.New("disk gone"))

	res, err := archive.NewExporter(nil, nil).Export(testutil.TestContext(t), fixtures.DispatcherTree(), archive.Metadata{}, store)
	assert.Nil(t, res)
	assert.True(t, types.IsCode(err, types.ErrAssetIO))
	assert.Contains(t, err.Error(), "disk gone")
}

func TestExport_CancelledContext(t *testing.T) {
	_, err := archive.NewExporter(nil, nil).Export(testutil.CancelledContext(), fixtures.MinimalTree(), archive.Metadata{}, nil)
	assert.Error(t, err)
}

func TestExportTo(t *testing.T) {
	var buf bytes.Buffer
	stats, err := archive.NewExporter(nil, nil).ExportTo(testutil.TestContext(t), &buf, fixtures.MinimalTree(), archive.Metadata{}, nil)
	require.NoError(t, err)

	contents := testutil.ReadZip(t, buf.Bytes())
	assert.Equal(t, []string{"metadata.json", "Solo.json"}, contents.Names)
	assert.Equal(t, 2, stats.Entries)
}

func TestExport_RootNamedMetadataDoesNotCollide(t *testing.T) {
	root := fixtures.MinimalTree()
	root.Name = "metadata"

	res, err := archive.NewExporter(nil, nil).Export(testutil.TestContext(t), root, archive.Metadata{}, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"metadata.json", "metadata_agent.json"}, testutil.ReadZip(t, res.Data).Names)
}

// ============================================================
// Concurrency
// ============================================================

func TestExport_ConcurrentCallsKeepSeparateDedupTables(t *testing.T) {
	exporter := archive.NewExporter(nil, nil)
	ctx := testutil.TestContext(t)

	const workers = 8
	results := make([]*archive.ExportResult, workers)
	errs := make([]error, workers)

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = exporter.Export(ctx, fixtures.DispatcherTree(), archive.Metadata{}, dispatcherAssets())
		}(i)
	}
	wg.Wait()

	seen := make(map[string]bool)
	for i := 0; i < workers; i++ {
		require.NoError(t, errs[i])
		assert.Equal(t, 3, results[i].Stats.Models)
		assert.Equal(t, 4, results[i].Stats.DedupHits)

		for _, n := range namesWithPrefix(testutil.ReadZip(t, results[i].Data), "models/") {
			assert.False(t, seen[n], "model id %s issued twice", n)
			seen[n] = true
		}
	}
}
