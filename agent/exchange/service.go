package exchange

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/BaSui01/agenthub/agent/archive"
	"github.com/BaSui01/agenthub/agent/declarative"
	"github.com/BaSui01/agenthub/agent/markdown"
	"github.com/BaSui01/agenthub/internal/metrics"
	"github.com/BaSui01/agenthub/internal/telemetry"
	"github.com/BaSui01/agenthub/types"
)

// Operation names used for metrics labels and span names.
const (
	OpParse    = "parse"
	OpGenerate = "generate"
	OpValidate = "validate"
	OpExport   = "export"
	OpImport   = "import"
)

// Service wires parsing, generation and archive exchange to logging,
// metrics and tracing. It is safe for concurrent use.
type Service struct {
	exporter *archive.Exporter
	importer *archive.Importer
	metrics  *metrics.Collector
	tracer   trace.Tracer
	logger   *zap.Logger
}

// Option configures a Service.
type Option func(*serviceOptions)

type serviceOptions struct {
	ids     archive.IDGenerator
	metrics *metrics.Collector
	tracer  trace.Tracer
}

// WithIDGenerator sets the archive ID source. The default is a snowflake node 1.
func WithIDGenerator(ids archive.IDGenerator) Option {
	return func(o *serviceOptions) { o.ids = ids }
}

// WithMetrics records every operation on c.
func WithMetrics(c *metrics.Collector) Option {
	return func(o *serviceOptions) { o.metrics = c }
}

// WithTracer overrides the global tracer.
func WithTracer(t trace.Tracer) Option {
	return func(o *serviceOptions) { o.tracer = t }
}

// NewService creates a Service.
func NewService(logger *zap.Logger, opts ...Option) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	var o serviceOptions
	for _, opt := range opts {
		opt(&o)
	}
	if o.tracer == nil {
		o.tracer = telemetry.Tracer()
	}

	return &Service{
		exporter: archive.NewExporter(o.ids, logger),
		importer: archive.NewImporter(logger),
		metrics:  o.metrics,
		tracer:   o.tracer,
		logger:   logger.With(zap.String("component", "exchange")),
	}
}

// ImportOutcome is an imported archive together with its regenerated document.
type ImportOutcome struct {
	*archive.ImportResult
	Markdown string
}

// =============================================================================
// 🎯 Operations
// =============================================================================

// ParseMarkdown parses src and validates the tree under mode.
func (s *Service) ParseMarkdown(ctx context.Context, src []byte, mode declarative.ValidationMode) (node *declarative.AgentNode, err error) {
	_, done := s.begin(ctx, OpParse, attribute.Int("source.bytes", len(src)), attribute.String("mode", mode.String()))
	defer func() { done(err, agentAttrs(node)...) }()

	node, err = markdown.ParseSource(src)
	if err != nil {
		return nil, err
	}
	if err = declarative.Validate(node, declarative.RootPath(node.Name), mode); err != nil {
		return nil, err
	}
	return node, nil
}

// GenerateMarkdown renders node in the dialect. The tree must pass LenientMutate.
func (s *Service) GenerateMarkdown(ctx context.Context, node *declarative.AgentNode) (out string, err error) {
	_, done := s.begin(ctx, OpGenerate, agentAttrs(node)...)
	defer func() { done(err, attribute.Int("output.bytes", len(out))) }()

	if err = s.validate(node, declarative.LenientMutate); err != nil {
		return "", err
	}
	return markdown.Generate(node), nil
}

// Validate checks node under mode.
func (s *Service) Validate(ctx context.Context, node *declarative.AgentNode, mode declarative.ValidationMode) (err error) {
	_, done := s.begin(ctx, OpValidate, append(agentAttrs(node), attribute.String("mode", mode.String()))...)
	defer func() { done(err) }()

	return s.validate(node, mode)
}

// Export packs a tree into an archive.
func (s *Service) Export(ctx context.Context, root *declarative.AgentNode, meta archive.Metadata, assets archive.AssetReader) (res *archive.ExportResult, err error) {
	ctx, done := s.begin(ctx, OpExport, agentAttrs(root)...)
	defer func() {
		if res == nil {
			done(err)
			return
		}
		done(err,
			attribute.Int("archive.entries", res.Stats.Entries),
			attribute.Int("archive.bytes", len(res.Data)),
			attribute.Int("archive.dedup_hits", res.Stats.DedupHits),
			attribute.Int("archive.missing_assets", res.Stats.MissingAssets),
		)
	}()

	res, err = s.exporter.Export(ctx, root, meta, assets)
	if err != nil {
		return nil, err
	}
	if s.metrics != nil {
		s.metrics.RecordExport(res.Stats.Entries, res.Stats.DedupHits, res.Stats.MissingAssets, len(res.Data))
	}
	if res.Stats.MissingAssets > 0 {
		s.logger.Warn("archive exported with missing assets",
			zap.String("agent", root.Name),
			zap.Int("missing", res.Stats.MissingAssets),
		)
	}
	return res, nil
}

// ExportMarkdown parses a dialect document and exports it.
func (s *Service) ExportMarkdown(ctx context.Context, src []byte, meta archive.Metadata, assets archive.AssetReader) (*archive.ExportResult, error) {
	root, err := s.ParseMarkdown(ctx, src, declarative.StrictExport)
	if err != nil {
		return nil, err
	}
	if meta.Agent == "" {
		meta.Agent = root.Name
	}
	return s.Export(ctx, root, meta, assets)
}

// ImportArchive unpacks data, stores its blobs through writer and renders the
// imported tree back to the dialect.
func (s *Service) ImportArchive(ctx context.Context, data []byte, writer archive.AssetWriter) (out *ImportOutcome, err error) {
	ctx, done := s.begin(ctx, OpImport, attribute.Int("archive.bytes", len(data)))
	defer func() {
		if out == nil {
			done(err)
			return
		}
		done(err, append(agentAttrs(out.Root), attribute.Int("archive.entries", out.Entries))...)
	}()

	res, err := s.importer.Import(ctx, data, s.meter(writer))
	if err != nil {
		return nil, err
	}
	if s.metrics != nil {
		s.metrics.RecordImport(res.Entries, len(data))
	}
	return &ImportOutcome{ImportResult: res, Markdown: markdown.Generate(res.Root)}, nil
}

// =============================================================================
// 🔧 Helpers
// =============================================================================

func (s *Service) validate(node *declarative.AgentNode, mode declarative.ValidationMode) error {
	if node == nil {
		return types.NewError(types.ErrValidation, "agent is missing")
	}
	return declarative.Validate(node, declarative.RootPath(node.Name), mode)
}

// begin opens a span for op. The returned func ends it and records metrics.
func (s *Service) begin(ctx context.Context, op string, attrs ...attribute.KeyValue) (context.Context, func(error, ...attribute.KeyValue)) {
	start := time.Now()
	ctx, span := s.tracer.Start(ctx, "agenthub."+op, trace.WithAttributes(attrs...))

	return ctx, func(err error, extra ...attribute.KeyValue) {
		elapsed := time.Since(start)
		span.SetAttributes(extra...)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			if code := types.GetErrorCode(err); code != "" {
				span.SetAttributes(attribute.String("error.code", string(code)))
			}
			s.logger.Debug("operation failed", zap.String("op", op), zap.Error(err))
		}
		span.End()
		if s.metrics != nil {
			s.metrics.RecordOperation(op, err, elapsed)
		}
	}
}

func agentAttrs(node *declarative.AgentNode) []attribute.KeyValue {
	if node == nil {
		return nil
	}
	return []attribute.KeyValue{
		attribute.String("agent.name", node.Name),
		attribute.Int("agent.count", node.Count()),
	}
}

func (s *Service) meter(w archive.AssetWriter) archive.AssetWriter {
	if s.metrics == nil || w == nil {
		return w
	}
	mw := meteredWriter{AssetWriter: w, metrics: s.metrics}
	if dw, ok := w.(archive.DocumentAssetWriter); ok {
		return meteredDocumentWriter{meteredWriter: mw, attach: dw}
	}
	return mw
}

type meteredWriter struct {
	archive.AssetWriter
	metrics *metrics.Collector
}

func (w meteredWriter) WriteAsset(ctx context.Context, data []byte, suggestedName string, kind archive.AssetKind) (string, error) {
	id, err := w.AssetWriter.WriteAsset(ctx, data, suggestedName, kind)
	if err == nil {
		w.metrics.RecordAssetWrite(string(kind), len(data))
	}
	return id, err
}

type meteredDocumentWriter struct {
	meteredWriter
	attach archive.DocumentAssetWriter
}

func (w meteredDocumentWriter) AttachDocument(ctx context.Context, fileID string, meta archive.DocumentMetadata, imageIDs []string) error {
	return w.attach.AttachDocument(ctx, fileID, meta, imageIDs)
}

var _ archive.DocumentAssetWriter = meteredDocumentWriter{}
