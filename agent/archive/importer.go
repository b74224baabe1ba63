package archive

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"go.uber.org/zap"

	"github.com/BaSui01/agenthub/agent/declarative"
	"github.com/BaSui01/agenthub/types"
)

// ImportResult is an unpacked archive.
type ImportResult struct {
	Root *declarative.AgentNode
	// Metadata is nil when the archive has no metadata.json.
	Metadata        *Metadata
	ToolFileIDs     []string
	DocumentFileIDs []string
	ImageFileIDs    []string
	// Entries is the number of zip entries read.
	Entries int
}

// Importer unpacks archives into agent trees. It is safe for concurrent use.
type Importer struct {
	logger *zap.Logger
}

// NewImporter creates an importer.
func NewImporter(logger *zap.Logger) *Importer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Importer{logger: logger.With(zap.String("component", "archive_importer"))}
}

// Import reads every entry of data, stores blobs through writer and rebuilds the tree.
func (im *Importer) Import(ctx context.Context, data []byte, writer AssetWriter) (*ImportResult, error) {
	// Entry names are only routed, never joined onto a filesystem path.
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil && !(errors.Is(err, zip.ErrInsecurePath) && zr != nil) {
		return nil, types.NewError(types.ErrArchiveFormat, "archive is not a readable zip").WithCause(err)
	}

	run := newImportRun(ctx, writer, im.logger)
	for _, f := range zr.File {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if err := run.route(f); err != nil {
			return nil, err
		}
	}
	if run.root == nil {
		return nil, types.NewError(types.ErrArchiveFormat, "archive has no root agent descriptor")
	}

	if err := run.attachDocuments(); err != nil {
		return nil, err
	}
	root, err := run.agent(run.root, declarative.RootPath(run.root.Name), map[string]bool{run.root.ID: true})
	if err != nil {
		return nil, err
	}

	im.logger.Info("agent imported",
		zap.String("agent", root.Name),
		zap.Int("agents", root.Count()),
		zap.Int("tool_files", len(run.result.ToolFileIDs)),
		zap.Int("document_files", len(run.result.DocumentFileIDs)),
	)
	run.result.Root = root
	run.result.Entries = len(zr.File)
	return &run.result, nil
}

type importedTool struct {
	desc       toolDescriptor
	schemaFile string
}

type importedDocument struct {
	fileID   string
	fileName string
	meta     *DocumentMetadata
	imageIDs []string
}

type importedKnowledgeBase struct {
	desc     *knowledgeBaseDescriptor
	docOrder []string
	docs     map[string]*importedDocument
}

func (kb *importedKnowledgeBase) document(id string) *importedDocument {
	doc, ok := kb.docs[id]
	if !ok {
		doc = &importedDocument{}
		kb.docs[id] = doc
		kb.docOrder = append(kb.docOrder, id)
	}
	return doc
}

// importRun holds the lookup tables of a single Import call.
type importRun struct {
	ctx    context.Context
	writer AssetWriter
	logger *zap.Logger

	root      *agentDescriptor
	models    map[string]*modelDescriptor
	tools     map[string]*importedTool
	subAgents map[string]*agentDescriptor
	kbOrder   []string
	kbs       map[string]*importedKnowledgeBase

	result ImportResult
}

func newImportRun(ctx context.Context, writer AssetWriter, logger *zap.Logger) *importRun {
	return &importRun{
		ctx:       ctx,
		writer:    writer,
		logger:    logger,
		models:    make(map[string]*modelDescriptor),
		tools:     make(map[string]*importedTool),
		subAgents: make(map[string]*agentDescriptor),
		kbs:       make(map[string]*importedKnowledgeBase),
	}
}

// =============================================================================
// Phase 1: entries
// =============================================================================

func (r *importRun) route(f *zip.File) error {
	if f.FileInfo().IsDir() || strings.HasSuffix(f.Name, "/") {
		return nil
	}
	parts := splitEntry(f.Name)
	if len(parts) == 0 {
		return nil
	}
	data, err := readEntry(f)
	if err != nil {
		return err
	}

	switch parts[0] {
	case modelsDir:
		if len(parts) != 2 {
			return unexpectedEntry(f.Name)
		}
		var desc modelDescriptor
		if r.decode(f.Name, data, &desc) {
			r.models[stem(parts[1])] = &desc
		}
	case toolsDir:
		if len(parts) != 2 {
			return unexpectedEntry(f.Name)
		}
		return r.tool(f.Name, stem(parts[1]), data)
	case subAgentsDir:
		if len(parts) != 2 {
			return unexpectedEntry(f.Name)
		}
		var desc agentDescriptor
		if r.decode(f.Name, data, &desc) {
			r.subAgents[stem(parts[1])] = &desc
		}
	case knowledgeDir:
		return r.knowledgeEntry(f.Name, parts[1:], data)
	default:
		if len(parts) > 1 {
			return types.NewError(types.ErrArchiveFormat, fmt.Sprintf("unknown directory %q", parts[0]))
		}
		return r.topLevel(parts[0], data)
	}
	return nil
}

func (r *importRun) topLevel(name string, data []byte) error {
	if name == metadataFile {
		var meta Metadata
		if r.decode(name, data, &meta) {
			r.result.Metadata = &meta
		}
		return nil
	}
	if !strings.HasSuffix(name, descriptorExt) {
		r.logger.Debug("ignoring top-level entry", zap.String("entry", name))
		return nil
	}
	if r.root != nil {
		return types.NewError(types.ErrArchiveFormat, fmt.Sprintf("duplicate root agent descriptor %q", name))
	}
	var desc agentDescriptor
	if err := json.Unmarshal(data, &desc); err != nil {
		return types.NewError(types.ErrArchiveFormat, fmt.Sprintf("root agent descriptor %q is malformed", name)).WithCause(err)
	}
	r.root = &desc
	return nil
}

func (r *importRun) tool(entry, id string, data []byte) error {
	var desc toolDescriptor
	if !r.decode(entry, data, &desc) {
		return nil
	}
	tool := &importedTool{desc: desc, schemaFile: schemaFileName(desc.Name, desc.SchemaStr)}
	r.tools[id] = tool

	if desc.SchemaStr == "" {
		return nil
	}
	fileID, err := r.store([]byte(desc.SchemaStr), tool.schemaFile, AssetToolSchema)
	if err != nil {
		return err
	}
	r.result.ToolFileIDs = append(r.result.ToolFileIDs, fileID)
	return nil
}

// knowledgeEntry handles the segments below knowledge_bases/.
func (r *importRun) knowledgeEntry(entry string, parts []string, data []byte) error {
	if len(parts) < 2 {
		return unexpectedEntry(entry)
	}
	kb := r.knowledgeBase(parts[0])

	switch {
	case len(parts) == 2 && parts[1] == metadataFile:
		var desc knowledgeBaseDescriptor
		if r.decode(entry, data, &desc) {
			kb.desc = &desc
		}
	case len(parts) == 3 && parts[2] == metadataFile:
		var meta DocumentMetadata
		if r.decode(entry, data, &meta) {
			kb.document(parts[1]).meta = &meta
		}
	case len(parts) == 3:
		doc := kb.document(parts[1])
		fileID, err := r.store(data, parts[2], AssetDocument)
		if err != nil {
			return err
		}
		doc.fileID, doc.fileName = fileID, parts[2]
		r.result.DocumentFileIDs = append(r.result.DocumentFileIDs, fileID)
	case len(parts) == 4 && parts[2] == imagesDir:
		doc := kb.document(parts[1])
		fileID, err := r.store(data, parts[3], AssetImage)
		if err != nil {
			return err
		}
		doc.imageIDs = append(doc.imageIDs, fileID)
		r.result.ImageFileIDs = append(r.result.ImageFileIDs, fileID)
	default:
		return unexpectedEntry(entry)
	}
	return nil
}

func (r *importRun) knowledgeBase(id string) *importedKnowledgeBase {
	kb, ok := r.kbs[id]
	if !ok {
		kb = &importedKnowledgeBase{docs: make(map[string]*importedDocument)}
		r.kbs[id] = kb
		r.kbOrder = append(r.kbOrder, id)
	}
	return kb
}

// decode unmarshals a resource entry. Malformed entries are logged and skipped.
func (r *importRun) decode(entry string, data []byte, v any) bool {
	if err := json.Unmarshal(data, v); err != nil {
		r.logger.Warn("skipping malformed archive entry",
			zap.String("entry", entry),
			zap.Error(err),
		)
		return false
	}
	return true
}

func (r *importRun) store(data []byte, name string, kind AssetKind) (string, error) {
	if r.writer == nil {
		return "", types.NewError(types.ErrAssetIO, "no asset writer configured")
	}
	id, err := r.writer.WriteAsset(r.ctx, data, name, kind)
	if err != nil {
		return "", types.NewError(types.ErrAssetIO, fmt.Sprintf("write asset %q", name)).WithCause(err)
	}
	return id, nil
}

func readEntry(f *zip.File) ([]byte, error) {
	rc, err := f.Open()
	if err != nil {
		return nil, types.NewError(types.ErrArchiveFormat, fmt.Sprintf("open entry %q", f.Name)).WithCause(err)
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, types.NewError(types.ErrArchiveFormat, fmt.Sprintf("read entry %q", f.Name)).WithCause(err)
	}
	return data, nil
}

func unexpectedEntry(name string) error {
	return types.NewError(types.ErrArchiveFormat, fmt.Sprintf("unexpected archive entry %q", name))
}

// schemaFileName names an imported tool schema after the tool, by content type.
// A tool without a schema has no schema file.
func schemaFileName(toolName, schema string) string {
	if schema == "" {
		return ""
	}
	if json.Valid([]byte(strings.TrimSpace(schema))) {
		return toolName + ".json"
	}
	return toolName + ".yaml"
}

// =============================================================================
// Phase 2: resolution
// =============================================================================

func (r *importRun) attachDocuments() error {
	dw, ok := r.writer.(DocumentAssetWriter)
	if !ok {
		return nil
	}
	for _, kbID := range r.kbOrder {
		kb := r.kbs[kbID]
		for _, docID := range kb.docOrder {
			doc := kb.docs[docID]
			if doc.fileID == "" {
				r.logger.Warn("document metadata without content",
					zap.String("knowledge_base", kbID),
					zap.String("document", docID),
				)
				continue
			}
			meta := defaultDocumentMetadata(doc.fileName)
			if doc.meta != nil {
				meta = *doc.meta
			}
			if err := dw.AttachDocument(r.ctx, doc.fileID, meta, doc.imageIDs); err != nil {
				return types.NewError(types.ErrAssetIO, fmt.Sprintf("attach document %q", doc.fileName)).WithCause(err)
			}
		}
	}
	return nil
}

// agent rebuilds desc and its sub-agents. visiting holds the IDs on the current branch.
func (r *importRun) agent(desc *agentDescriptor, path string, visiting map[string]bool) (*declarative.AgentNode, error) {
	if err := r.ctx.Err(); err != nil {
		return nil, err
	}
	node := &declarative.AgentNode{
		Name:        desc.Name,
		Description: desc.Description,
		Type:        declarative.ParseAgentType(desc.Type),
		Mode:        declarative.ParseExecutionMode(desc.Mode),
		Prompt:      desc.Prompt,
	}

	modelID := desc.ModelID
	if modelID == "" {
		modelID = desc.TTSModelID
	}
	if modelID != "" {
		m, ok := r.models[modelID]
		if !ok {
			return nil, missingReference(path, "modelId", "model", modelID)
		}
		node.Model = m.spec()
	}

	tools, err := r.functions(desc.FunctionList, path)
	if err != nil {
		return nil, err
	}
	node.Tools = tools

	for _, kbID := range desc.KnowledgeBaseIDs {
		kb, err := r.resolveKnowledgeBase(kbID, path)
		if err != nil {
			return nil, err
		}
		node.KnowledgeBases = append(node.KnowledgeBases, kb)
	}

	for _, childID := range desc.SubAgentIDs {
		if visiting[childID] {
			return nil, types.NewError(types.ErrValidation, fmt.Sprintf("sub-agent %s forms a cycle", childID)).
				WithPath(path).
				WithField("subAgentIds")
		}
		childDesc, ok := r.subAgents[childID]
		if !ok {
			return nil, missingReference(path, "subAgentIds", "sub-agent", childID)
		}
		visiting[childID] = true
		child, err := r.agent(childDesc, declarative.ChildPath(path, childDesc.Name), visiting)
		delete(visiting, childID)
		if err != nil {
			return nil, err
		}
		node.SubAgents = append(node.SubAgents, child)
	}
	return node, nil
}

// functions groups refs by tool in first-appearance order.
func (r *importRun) functions(refs []functionRef, path string) ([]declarative.ToolSpec, error) {
	var order []string
	grouped := make(map[string][]functionRef)
	for _, ref := range refs {
		if _, seen := grouped[ref.ToolID]; !seen {
			order = append(order, ref.ToolID)
		}
		grouped[ref.ToolID] = append(grouped[ref.ToolID], ref)
	}

	var tools []declarative.ToolSpec
	for _, toolID := range order {
		imported, ok := r.tools[toolID]
		if !ok {
			return nil, missingReference(path, "functionList.toolId", "tool", toolID)
		}
		d := imported.desc
		tool := declarative.ToolSpec{
			Name:           d.Name,
			SchemaType:     declarative.SchemaTypeFromCode(d.SchemaType),
			Description:    d.Description,
			SchemaFileName: imported.schemaFile,
			APIKeyType:     declarative.ParseAPIKeyType(d.APIKeyType),
			APIKey:         d.APIKey,
			AutoAgent:      d.AutoAgent,
		}
		for _, ref := range grouped[toolID] {
			fn, err := decodeFunctionID(ref.FunctionID)
			if err != nil {
				return nil, types.NewError(types.ErrValidation, err.Error()).
					WithPath(path).
					WithField("functionList.functionId")
			}
			fn.Mode = declarative.ParseExecutionMode(ref.Mode)
			tool.Functions = append(tool.Functions, fn)
		}
		tools = append(tools, tool)
	}
	return tools, nil
}

func (r *importRun) resolveKnowledgeBase(id, path string) (declarative.KnowledgeBaseSpec, error) {
	imported, ok := r.kbs[id]
	if !ok || imported.desc == nil {
		return declarative.KnowledgeBaseSpec{}, missingReference(path, "knowledgeBaseIds", "knowledge base", id)
	}
	m, ok := r.models[imported.desc.EmbeddingModelID]
	if !ok {
		return declarative.KnowledgeBaseSpec{}, missingReference(path, "knowledgeBaseIds.embeddingModelId", "model", imported.desc.EmbeddingModelID)
	}

	kb := declarative.KnowledgeBaseSpec{
		Name:        imported.desc.Name,
		Description: imported.desc.Description,
		Model:       m.spec(),
	}
	for _, docID := range imported.docOrder {
		if doc := imported.docs[docID]; doc.fileName != "" {
			kb.Documents = append(kb.Documents, doc.fileName)
		}
	}
	return kb, nil
}

func missingReference(path, field, kind, id string) error {
	return types.NewError(types.ErrValidation, fmt.Sprintf("%s %q is not in the archive", kind, id)).
		WithPath(path).
		WithField(field)
}

// decodeFunctionID reverses encodeFunctionID; "null" decodes to an empty method.
func decodeFunctionID(id string) (declarative.FunctionSpec, error) {
	raw, err := base64.StdEncoding.DecodeString(id)
	if err != nil {
		return declarative.FunctionSpec{}, fmt.Errorf("function id %q is not base64: %w", id, err)
	}
	method, name, ok := strings.Cut(string(raw), ":")
	if !ok {
		return declarative.FunctionSpec{}, fmt.Errorf("function id %q has no method separator", id)
	}
	method = strings.TrimSpace(method)
	if method == nullMethod {
		method = ""
	}
	return declarative.FunctionSpec{Name: strings.TrimSpace(name), HTTPMethod: method}, nil
}
