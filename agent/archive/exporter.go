package archive

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"

	"go.uber.org/zap"

	"github.com/BaSui01/agenthub/agent/declarative"
	"github.com/BaSui01/agenthub/types"
)

// ExportStats counts what one export wrote.
type ExportStats struct {
	Entries        int `json:"entries"`
	Agents         int `json:"agents"`
	Models         int `json:"models"`
	Tools          int `json:"tools"`
	KnowledgeBases int `json:"knowledge_bases"`
	Documents      int `json:"documents"`
	Images         int `json:"images"`
	// DedupHits counts resource references served by an already written entry.
	DedupHits int `json:"dedup_hits"`
	// MissingAssets counts documents and schemas the reader did not have.
	MissingAssets int `json:"missing_assets"`
}

// ExportResult is a finished archive.
type ExportResult struct {
	Data  []byte
	Stats ExportStats
}

// Exporter packs agent trees into archives. It is safe for concurrent use.
type Exporter struct {
	ids    IDGenerator
	logger *zap.Logger
}

// NewExporter creates an exporter. A nil ids uses a snowflake generator on node 1.
func NewExporter(ids IDGenerator, logger *zap.Logger) *Exporter {
	if ids == nil {
		ids = defaultIDGenerator()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Exporter{
		ids:    ids,
		logger: logger.With(zap.String("component", "archive_exporter")),
	}
}

// Export validates root under StrictExport and packs it with its assets.
// Nothing is returned unless the whole archive was written.
func (e *Exporter) Export(ctx context.Context, root *declarative.AgentNode, meta Metadata, assets AssetReader) (*ExportResult, error) {
	if root == nil {
		return nil, types.NewError(types.ErrValidation, "agent is missing")
	}
	if err := declarative.Validate(root, declarative.RootPath(root.Name), declarative.StrictExport); err != nil {
		return nil, err
	}
	if meta.Agent == "" {
		meta.Agent = root.Name
	}

	var buf bytes.Buffer
	run := &exportRun{
		ctx:    ctx,
		zw:     zip.NewWriter(&buf),
		assets: assets,
		ids:    e.ids,
		dedup:  newDedupTable(e.ids),
		logger: e.logger,
	}

	if err := run.writeJSON(metadataFile, meta); err != nil {
		return nil, err
	}
	rootPath := declarative.RootPath(root.Name)
	if err := run.agent(root, e.ids.NextID(), rootPath, rootEntry(root.Name)); err != nil {
		return nil, err
	}
	if err := run.zw.Close(); err != nil {
		return nil, fmt.Errorf("finalize archive: %w", err)
	}

	run.stats.DedupHits = run.dedup.hits
	e.logger.Info("agent exported",
		zap.String("agent", root.Name),
		zap.Int("entries", run.stats.Entries),
		zap.Int("agents", run.stats.Agents),
		zap.Int("dedup_hits", run.stats.DedupHits),
	)
	return &ExportResult{Data: buf.Bytes(), Stats: run.stats}, nil
}

// ExportTo exports root and writes the archive to w.
func (e *Exporter) ExportTo(ctx context.Context, w io.Writer, root *declarative.AgentNode, meta Metadata, assets AssetReader) (*ExportStats, error) {
	res, err := e.Export(ctx, root, meta, assets)
	if err != nil {
		return nil, err
	}
	if _, err := w.Write(res.Data); err != nil {
		return nil, fmt.Errorf("write archive: %w", err)
	}
	return &res.Stats, nil
}

// exportRun is the state of a single Export call.
type exportRun struct {
	ctx    context.Context
	zw     *zip.Writer
	assets AssetReader
	ids    IDGenerator
	dedup  *dedupTable
	logger *zap.Logger
	stats  ExportStats
}

func (r *exportRun) agent(node *declarative.AgentNode, id, path, entry string) error {
	if err := r.ctx.Err(); err != nil {
		return err
	}
	desc := newAgentDescriptor(id, node)

	for _, tool := range node.Tools {
		toolID, err := r.tool(tool, path)
		if err != nil {
			return err
		}
		for _, fn := range tool.Functions {
			desc.FunctionList = append(desc.FunctionList, functionRef{
				ToolID:     toolID,
				FunctionID: encodeFunctionID(fn),
				Mode:       string(fn.Mode),
			})
		}
	}

	if node.Model != nil {
		modelID, err := r.model(node.Model)
		if err != nil {
			return err
		}
		if node.Model.Type == declarative.ModelTypeTTS {
			desc.TTSModelID = modelID
		} else {
			desc.ModelID = modelID
		}
	}

	for _, kb := range node.KnowledgeBases {
		kbID, err := r.knowledgeBase(kb, path)
		if err != nil {
			return err
		}
		desc.KnowledgeBaseIDs = append(desc.KnowledgeBaseIDs, kbID)
	}

	for _, child := range node.SubAgents {
		childID := r.ids.NextID()
		desc.SubAgentIDs = append(desc.SubAgentIDs, childID)
		if err := r.agent(child, childID, declarative.ChildPath(path, child.Name), subAgentEntry(childID)); err != nil {
			return err
		}
	}

	r.stats.Agents++
	return r.writeJSON(entry, desc)
}

func (r *exportRun) tool(tool declarative.ToolSpec, path string) (string, error) {
	id, fresh := r.dedup.tool(tool)
	if !fresh {
		return id, nil
	}

	var schema string
	if tool.SchemaFileName != "" {
		data, found, err := r.read(tool.SchemaFileName, path)
		if err != nil {
			return "", err
		}
		if found {
			schema = string(data)
		}
	}

	r.stats.Tools++
	return id, r.writeJSON(toolEntry(id), newToolDescriptor(tool, schema))
}

func (r *exportRun) model(m *declarative.ModelSpec) (string, error) {
	id, fresh := r.dedup.model(m)
	if !fresh {
		return id, nil
	}
	r.stats.Models++
	return id, r.writeJSON(modelEntry(id), newModelDescriptor(m))
}

func (r *exportRun) knowledgeBase(kb declarative.KnowledgeBaseSpec, path string) (string, error) {
	modelID, err := r.model(kb.Model)
	if err != nil {
		return "", err
	}

	id, fresh := r.dedup.knowledgeBase(kb)
	if !fresh {
		return id, nil
	}

	err = r.writeJSON(knowledgeBaseEntry(id), &knowledgeBaseDescriptor{
		ID:               id,
		Name:             kb.Name,
		Description:      kb.Description,
		EmbeddingModelID: modelID,
		TopK:             defaultTopK,
		ScoreThreshold:   defaultScoreThreshold,
	})
	if err != nil {
		return "", err
	}
	r.stats.KnowledgeBases++

	for _, doc := range kb.Documents {
		if err := r.document(id, doc, path); err != nil {
			return "", err
		}
	}
	return id, nil
}

func (r *exportRun) document(kbID, name, path string) error {
	data, found, err := r.read(name, path)
	if err != nil || !found {
		return err
	}

	dir := documentDir(kbID, r.ids.NextID())
	fileName := baseName(name)
	if err := r.write(dir+"/"+fileName, data); err != nil {
		return err
	}

	meta := defaultDocumentMetadata(fileName)
	docReader, rich := r.assets.(DocumentAssetReader)
	if rich {
		stored, err := docReader.DocumentMetadata(r.ctx, name)
		if err != nil {
			return assetError(err, name, path)
		}
		if stored != nil {
			meta = *stored
		}
	}
	if err := r.writeJSON(dir+"/"+metadataFile, meta); err != nil {
		return err
	}
	r.stats.Documents++

	if !rich {
		return nil
	}
	images, err := docReader.DocumentImages(r.ctx, name)
	if err != nil {
		return assetError(err, name, path)
	}
	for _, img := range images {
		if err := r.write(dir+"/"+imagesDir+"/"+baseName(img.Name), img.Data); err != nil {
			return err
		}
		r.stats.Images++
	}
	return nil
}

// read fetches an asset. Unknown names are logged and reported as not found.
func (r *exportRun) read(name, path string) ([]byte, bool, error) {
	if r.assets == nil {
		r.stats.MissingAssets++
		return nil, false, nil
	}
	data, err := r.assets.ReadAsset(r.ctx, name)
	if err == nil {
		return data, true, nil
	}
	if types.IsCode(err, types.ErrAssetNotFound) {
		r.logger.Warn("asset not found, skipped",
			zap.String("asset", name),
			zap.String("path", path),
		)
		r.stats.MissingAssets++
		return nil, false, nil
	}
	return nil, false, assetError(err, name, path)
}

func (r *exportRun) writeJSON(name string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", name, err)
	}
	return r.write(name, data)
}

func (r *exportRun) write(name string, data []byte) error {
	w, err := r.zw.Create(name)
	if err != nil {
		return fmt.Errorf("create entry %s: %w", name, err)
	}
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("write entry %s: %w", name, err)
	}
	r.stats.Entries++
	return nil
}

func assetError(err error, name, path string) error {
	return types.NewError(types.ErrAssetIO, fmt.Sprintf("read asset %q", name)).
		WithPath(path).
		WithCause(err)
}

// encodeFunctionID returns base64(method + ":" + name), using "null" for a blank method.
func encodeFunctionID(fn declarative.FunctionSpec) string {
	method := fn.HTTPMethod
	if method == "" {
		method = nullMethod
	}
	return base64.StdEncoding.EncodeToString([]byte(method + ":" + fn.Name))
}
