package exchange

import (
	"context"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	promtest "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.uber.org/zap"

	"github.com/BaSui01/agenthub/agent/archive"
	"github.com/BaSui01/agenthub/agent/declarative"
	"github.com/BaSui01/agenthub/agent/markdown"
	"github.com/BaSui01/agenthub/internal/metrics"
	"github.com/BaSui01/agenthub/testutil"
	"github.com/BaSui01/agenthub/testutil/fixtures"
	"github.com/BaSui01/agenthub/testutil/mocks"
	"github.com/BaSui01/agenthub/types"
)

type harness struct {
	svc      *Service
	spans    *tracetest.SpanRecorder
	registry *prometheus.Registry
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	spans := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(spans))
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })

	reg := prometheus.NewRegistry()
	collector := metrics.NewCollector("test", reg, zap.NewNop())

	ids, err := archive.NewSnowflakeGenerator(3)
	require.NoError(t, err)

	return &harness{
		svc: NewService(zap.NewNop(),
			WithMetrics(collector),
			WithTracer(tp.Tracer("exchange-test")),
			WithIDGenerator(ids),
		),
		spans:    spans,
		registry: reg,
	}
}

func (h *harness) spanNamed(t *testing.T, name string) sdktrace.ReadOnlySpan {
	t.Helper()
	for _, s := range h.spans.Ended() {
		if s.Name() == name {
			return s
		}
	}
	t.Fatalf("span %s not recorded", name)
	return nil
}

func sourceAssets() *mocks.MockAssetStore {
	store := mocks.NewMockAssetStore().WithAsset("weather.json", []byte(fixtures.WeatherSchema))
	for name, data := range fixtures.DocumentContents() {
		store.WithDocument(name, data, nil)
	}
	return store
}

func TestService_ParseMarkdown(t *testing.T) {
	h := newHarness(t)
	src := []byte(markdown.Generate(fixtures.DispatcherTree()))

	node, err := h.svc.ParseMarkdown(testutil.TestContext(t), src, declarative.StrictExport)
	require.NoError(t, err)
	assert.Equal(t, "Dispatcher", node.Name)
	assert.Len(t, node.SubAgents, 2)

	span := h.spanNamed(t, "agenthub.parse")
	assert.Equal(t, codes.Unset, span.Status().Code)
	count, err := promtest.GatherAndCount(h.registry, "test_operations_total")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestService_ParseMarkdown_EmptyDocument(t *testing.T) {
	h := newHarness(t)

	_, err := h.svc.ParseMarkdown(testutil.TestContext(t), []byte("plain text, no heading"), declarative.LenientMutate)
	require.Error(t, err)
	assert.True(t, types.IsCode(err, types.ErrEmptyDocument))

	span := h.spanNamed(t, "agenthub.parse")
	assert.Equal(t, codes.Error, span.Status().Code)
}

func TestService_ParseMarkdown_ModeDecidesToolWithoutFunctions(t *testing.T) {
	h := newHarness(t)
	tree := fixtures.MinimalTree()
	tool := fixtures.WeatherTool()
	tool.Functions = nil
	tree.Tools = []declarative.ToolSpec{tool}
	src := []byte(markdown.Generate(tree))

	_, err := h.svc.ParseMarkdown(testutil.TestContext(t), src, declarative.StrictExport)
	require.Error(t, err)
	assert.True(t, types.IsCode(err, types.ErrValidation))

	node, err := h.svc.ParseMarkdown(testutil.TestContext(t), src, declarative.LenientMutate)
	require.NoError(t, err)
	require.Len(t, node.Tools, 1)
	assert.Empty(t, node.Tools[0].Functions)
}

func TestService_GenerateMarkdown(t *testing.T) {
	h := newHarness(t)
	ctx := testutil.TestContext(t)

	out, err := h.svc.GenerateMarkdown(ctx, fixtures.DispatcherTree())
	require.NoError(t, err)
	assert.Equal(t, markdown.Generate(fixtures.DispatcherTree()), out)

	_, err = h.svc.GenerateMarkdown(ctx, nil)
	assert.True(t, types.IsCode(err, types.ErrValidation))
}

func TestService_Validate(t *testing.T) {
	h := newHarness(t)
	ctx := testutil.TestContext(t)

	assert.NoError(t, h.svc.Validate(ctx, fixtures.DispatcherTree(), declarative.StrictExport))

	broken := fixtures.MinimalTree()
	broken.Type = ""
	err := h.svc.Validate(ctx, broken, declarative.StrictExport)
	require.Error(t, err)
	assert.True(t, types.IsCode(err, types.ErrValidation))

	span := h.spanNamed(t, "agenthub.validate")
	assert.NotEmpty(t, span.Attributes())
}

func TestService_ExportImportRoundTrip(t *testing.T) {
	h := newHarness(t)
	ctx := testutil.TestContext(t)
	src := []byte(markdown.Generate(fixtures.DispatcherTree()))

	exported, err := h.svc.ExportMarkdown(ctx, src, archive.Metadata{Version: "1.0", Author: "ops"}, sourceAssets())
	require.NoError(t, err)
	assert.Positive(t, exported.Stats.DedupHits)
	assert.Zero(t, exported.Stats.MissingAssets)

	target := mocks.NewMockAssetStore()
	outcome, err := h.svc.ImportArchive(ctx, exported.Data, target)
	require.NoError(t, err)

	require.NotNil(t, outcome.Metadata)
	assert.Equal(t, "Dispatcher", outcome.Metadata.Agent)
	assert.Equal(t, "ops", outcome.Metadata.Author)
	assert.Equal(t, exported.Stats.Entries, outcome.Entries)
	assert.Equal(t, markdown.Generate(outcome.Root), outcome.Markdown)
	assert.Len(t, outcome.Root.SubAgents, 2)

	// 文档关联透传到底层 writer
	assert.Len(t, target.Attached(), len(fixtures.DocumentContents()))
	kinds, err := promtest.GatherAndCount(h.registry, "test_assets_written_total")
	require.NoError(t, err)
	assert.GreaterOrEqual(t, kinds, 2)

	h.spanNamed(t, "agenthub.export")
	h.spanNamed(t, "agenthub.import")
}

func TestService_ImportArchive_MultiLineDescriptions(t *testing.T) {
	h := newHarness(t)
	ctx := testutil.TestContext(t)
	tree := fixtures.DispatcherTree()
	tree.Description = "first line\n## Injected"
	tree.SubAgents[0].Description = "a\n- 模式: 拒绝"

	exported, err := h.svc.Export(ctx, tree, archive.Metadata{Version: "1.0"}, sourceAssets())
	require.NoError(t, err)
	outcome, err := h.svc.ImportArchive(ctx, exported.Data, mocks.NewMockAssetStore())
	require.NoError(t, err)

	reparsed, err := markdown.ParseSource([]byte(outcome.Markdown))
	require.NoError(t, err)
	assert.Equal(t, "first line ## Injected", reparsed.Description)
	require.Len(t, reparsed.SubAgents, 2)
	assert.Equal(t, "Forecaster", reparsed.SubAgents[0].Name)
	assert.Equal(t, declarative.ExecutionModeParallel, reparsed.SubAgents[0].Mode)
	assert.Equal(t, "a - 模式: 拒绝", reparsed.SubAgents[0].Description)
	assert.Equal(t, "Narrator", reparsed.SubAgents[1].Name)
}

func TestService_ImportArchive_Corrupt(t *testing.T) {
	h := newHarness(t)

	_, err := h.svc.ImportArchive(testutil.TestContext(t), []byte("not a zip"), mocks.NewMockAssetStore())
	require.Error(t, err)
	assert.True(t, types.IsCode(err, types.ErrArchiveFormat))

	span := h.spanNamed(t, "agenthub.import")
	assert.Equal(t, codes.Error, span.Status().Code)
}

func TestService_DefaultsWithoutMetrics(t *testing.T) {
	svc := NewService(nil)
	out, err := svc.GenerateMarkdown(testutil.TestContext(t), fixtures.MinimalTree())
	require.NoError(t, err)
	assert.Contains(t, out, "Solo")
}
