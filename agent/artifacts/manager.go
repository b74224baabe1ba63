package artifacts

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"mime"
	"path"
	"sort"
	"sync"
	"time"

	"github.com/docker/go-units"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/BaSui01/agenthub/agent/archive"
	"github.com/BaSui01/agenthub/types"
)

// ArtifactType defines the role a stored file plays.
type ArtifactType string

const (
	ArtifactTypeToolSchema ArtifactType = "tool_schema"
	ArtifactTypeDocument   ArtifactType = "document"
	ArtifactTypeImage      ArtifactType = "image"
	ArtifactTypeFile       ArtifactType = "file"
)

// ParseArtifactType maps a CLI or config string to an ArtifactType.
func ParseArtifactType(s string) (ArtifactType, error) {
	switch t := ArtifactType(s); t {
	case ArtifactTypeToolSchema, ArtifactTypeDocument, ArtifactTypeImage, ArtifactTypeFile:
		return t, nil
	case "schema", "tool":
		return ArtifactTypeToolSchema, nil
	case "doc":
		return ArtifactTypeDocument, nil
	}
	return "", fmt.Errorf("unknown artifact type %q", s)
}

func typeForKind(kind archive.AssetKind) ArtifactType {
	switch kind {
	case archive.AssetToolSchema:
		return ArtifactTypeToolSchema
	case archive.AssetDocument:
		return ArtifactTypeDocument
	case archive.AssetImage:
		return ArtifactTypeImage
	default:
		return ArtifactTypeFile
	}
}

// ArtifactStatus represents the lifecycle status of an artifact.
type ArtifactStatus string

const (
	StatusPending  ArtifactStatus = "pending"
	StatusReady    ArtifactStatus = "ready"
	StatusArchived ArtifactStatus = "archived"
)

// Artifact is one stored file. Several versions may share a Name; lookups by
// name resolve to the highest ready version.
type Artifact struct {
	ID          string         `json:"id"`
	Name        string         `json:"name"`
	Type        ArtifactType   `json:"type"`
	Status      ArtifactStatus `json:"status"`
	MimeType    string         `json:"mime_type,omitempty"`
	Size        int64          `json:"size"`
	Checksum    string         `json:"checksum"`
	StoragePath string         `json:"storage_path"`
	Tags        []string       `json:"tags,omitempty"`
	ParentID    string         `json:"parent_id,omitempty"`
	Version     int            `json:"version"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	ExpiresAt   *time.Time     `json:"expires_at,omitempty"`

	// Document artifacts only.
	DocMetadata *archive.DocumentMetadata `json:"doc_metadata,omitempty"`
	ImageIDs    []string                  `json:"image_ids,omitempty"`
}

func (a *Artifact) clone() *Artifact {
	c := *a
	c.Tags = append([]string(nil), a.Tags...)
	c.ImageIDs = append([]string(nil), a.ImageIDs...)
	if a.DocMetadata != nil {
		meta := *a.DocMetadata
		c.DocMetadata = &meta
	}
	if a.ExpiresAt != nil {
		exp := *a.ExpiresAt
		c.ExpiresAt = &exp
	}
	return &c
}

// ArtifactStore defines the storage interface for artifacts.
type ArtifactStore interface {
	Save(ctx context.Context, artifact *Artifact, data io.Reader) error
	Load(ctx context.Context, artifactID string) (*Artifact, io.ReadCloser, error)
	GetMetadata(ctx context.Context, artifactID string) (*Artifact, error)
	Update(ctx context.Context, artifact *Artifact) error
	Delete(ctx context.Context, artifactID string) error
	List(ctx context.Context, query ArtifactQuery) ([]*Artifact, error)
	Archive(ctx context.Context, artifactID string) error
}

// ArtifactQuery defines query parameters for listing artifacts.
// Results are ordered by creation time, then ID.
type ArtifactQuery struct {
	Name   string         `json:"name,omitempty"`
	Type   ArtifactType   `json:"type,omitempty"`
	Status ArtifactStatus `json:"status,omitempty"`
	Tags   []string       `json:"tags,omitempty"`
	Limit  int            `json:"limit,omitempty"`
	Offset int            `json:"offset,omitempty"`
}

func (q ArtifactQuery) matches(a *Artifact) bool {
	if q.Name != "" && a.Name != q.Name {
		return false
	}
	if q.Type != "" && a.Type != q.Type {
		return false
	}
	if q.Status != "" && a.Status != q.Status {
		return false
	}
	if len(q.Tags) > 0 {
		tagSet := make(map[string]bool, len(a.Tags))
		for _, t := range a.Tags {
			tagSet[t] = true
		}
		for _, t := range q.Tags {
			if !tagSet[t] {
				return false
			}
		}
	}
	return true
}

// page sorts matches and applies Offset and Limit.
func (q ArtifactQuery) page(results []*Artifact) []*Artifact {
	sort.Slice(results, func(i, j int) bool {
		if !results[i].CreatedAt.Equal(results[j].CreatedAt) {
			return results[i].CreatedAt.Before(results[j].CreatedAt)
		}
		return results[i].ID < results[j].ID
	})
	if q.Offset > 0 {
		if q.Offset >= len(results) {
			return nil
		}
		results = results[q.Offset:]
	}
	if q.Limit > 0 && len(results) > q.Limit {
		results = results[:q.Limit]
	}
	return results
}

// Manager is the host asset store: it implements archive.DocumentAssetReader
// and archive.DocumentAssetWriter on top of an ArtifactStore.
type Manager struct {
	store     ArtifactStore
	logger    *zap.Logger
	maxSize   int64
	ttl       time.Duration
	cleanupMu sync.Mutex
	// serializes version assignment per manager
	versionMu sync.Mutex
}

var (
	_ archive.DocumentAssetReader = (*Manager)(nil)
	_ archive.DocumentAssetWriter = (*Manager)(nil)
)

// ManagerConfig configures the artifact manager.
type ManagerConfig struct {
	// MaxSize caps a single artifact in bytes; zero disables the check.
	MaxSize    int64         `json:"max_size"`
	DefaultTTL time.Duration `json:"default_ttl"`
}

// DefaultManagerConfig returns sensible defaults.
func DefaultManagerConfig() ManagerConfig {
	return ManagerConfig{
		MaxSize: 100 * units.MiB,
	}
}

// NewManager creates a new artifact manager.
func NewManager(config ManagerConfig, store ArtifactStore, logger *zap.Logger) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Manager{
		store:   store,
		logger:  logger.With(zap.String("component", "artifact_manager")),
		maxSize: config.MaxSize,
		ttl:     config.DefaultTTL,
	}
}

// Create stores data under name. An existing ready artifact with the same
// name becomes the parent of the new version.
func (m *Manager) Create(ctx context.Context, name string, artifactType ArtifactType, data io.Reader, opts ...CreateOption) (*Artifact, error) {
	options := &createOptions{}
	for _, opt := range opts {
		opt(options)
	}
	if name == "" {
		return nil, types.NewError(types.ErrAssetIO, "artifact name is empty")
	}

	content, err := m.readLimited(name, data)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	artifact := &Artifact{
		ID:        generateArtifactID(),
		Name:      name,
		Type:      artifactType,
		Status:    StatusPending,
		MimeType:  options.mimeType,
		Size:      int64(len(content)),
		Checksum:  computeChecksum(content),
		Tags:      options.tags,
		Version:   1,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if artifact.MimeType == "" {
		artifact.MimeType = detectMimeType(name)
	}
	ttl := m.ttl
	if options.ttl != 0 {
		ttl = options.ttl
	}
	if ttl != 0 {
		expiresAt := now.Add(ttl)
		artifact.ExpiresAt = &expiresAt
	}

	m.versionMu.Lock()
	defer m.versionMu.Unlock()

	if parent, err := m.latest(ctx, name); err == nil {
		artifact.ParentID = parent.ID
		artifact.Version = parent.Version + 1
	} else if !types.IsCode(err, types.ErrAssetNotFound) {
		return nil, err
	}

	if err := m.store.Save(ctx, artifact, bytes.NewReader(content)); err != nil {
		return nil, types.NewError(types.ErrAssetIO, fmt.Sprintf("save artifact %q", name)).WithCause(err)
	}
	artifact.Status = StatusReady
	artifact.UpdatedAt = time.Now()
	if err := m.store.Update(ctx, artifact); err != nil {
		return nil, types.NewError(types.ErrAssetIO, fmt.Sprintf("mark artifact %q ready", name)).WithCause(err)
	}

	m.logger.Debug("artifact created",
		zap.String("id", artifact.ID),
		zap.String("name", name),
		zap.String("type", string(artifactType)),
		zap.Int("version", artifact.Version),
		zap.Int64("size", artifact.Size),
	)
	return artifact, nil
}

func (m *Manager) readLimited(name string, data io.Reader) ([]byte, error) {
	if data == nil {
		return nil, types.NewError(types.ErrAssetIO, fmt.Sprintf("artifact %q has no data", name))
	}
	if m.maxSize > 0 {
		data = io.LimitReader(data, m.maxSize+1)
	}
	content, err := io.ReadAll(data)
	if err != nil {
		return nil, types.NewError(types.ErrAssetIO, fmt.Sprintf("read artifact %q", name)).WithCause(err)
	}
	if m.maxSize > 0 && int64(len(content)) > m.maxSize {
		return nil, types.NewError(types.ErrAssetTooLarge,
			fmt.Sprintf("artifact %q exceeds %s", name, units.BytesSize(float64(m.maxSize))))
	}
	return content, nil
}

// Get retrieves an artifact and its content by ID.
func (m *Manager) Get(ctx context.Context, artifactID string) (*Artifact, io.ReadCloser, error) {
	return m.store.Load(ctx, artifactID)
}

// GetMetadata retrieves artifact metadata without data.
func (m *Manager) GetMetadata(ctx context.Context, artifactID string) (*Artifact, error) {
	return m.store.GetMetadata(ctx, artifactID)
}

// Resolve returns the highest ready version stored under name.
func (m *Manager) Resolve(ctx context.Context, name string) (*Artifact, error) {
	return m.latest(ctx, name)
}

func (m *Manager) latest(ctx context.Context, name string) (*Artifact, error) {
	found, err := m.store.List(ctx, ArtifactQuery{Name: name, Status: StatusReady})
	if err != nil {
		return nil, types.NewError(types.ErrAssetIO, fmt.Sprintf("look up artifact %q", name)).WithCause(err)
	}
	var best *Artifact
	for _, a := range found {
		if best == nil || a.Version > best.Version {
			best = a
		}
	}
	if best == nil {
		return nil, types.NewError(types.ErrAssetNotFound, fmt.Sprintf("no artifact named %q", name))
	}
	return best, nil
}

// Delete removes an artifact.
func (m *Manager) Delete(ctx context.Context, artifactID string) error {
	m.logger.Info("deleting artifact", zap.String("id", artifactID))
	return m.store.Delete(ctx, artifactID)
}

// List lists artifacts matching the query.
func (m *Manager) List(ctx context.Context, query ArtifactQuery) ([]*Artifact, error) {
	return m.store.List(ctx, query)
}

// Archive hides an artifact from name lookups without deleting it.
func (m *Manager) Archive(ctx context.Context, artifactID string) error {
	m.logger.Info("archiving artifact", zap.String("id", artifactID))
	return m.store.Archive(ctx, artifactID)
}

// Cleanup removes expired artifacts.
func (m *Manager) Cleanup(ctx context.Context) (int, error) {
	m.cleanupMu.Lock()
	defer m.cleanupMu.Unlock()

	artifacts, err := m.store.List(ctx, ArtifactQuery{})
	if err != nil {
		return 0, err
	}

	now := time.Now()
	deleted := 0
	for _, artifact := range artifacts {
		if artifact.ExpiresAt == nil || !artifact.ExpiresAt.Before(now) {
			continue
		}
		if err := m.store.Delete(ctx, artifact.ID); err != nil {
			m.logger.Warn("failed to delete expired artifact",
				zap.String("id", artifact.ID),
				zap.Error(err),
			)
			continue
		}
		deleted++
	}

	m.logger.Info("artifact cleanup completed", zap.Int("deleted", deleted))
	return deleted, nil
}

// =============================================================================
// Archive asset interfaces
// =============================================================================

// ReadAsset returns the content of the latest artifact named name.
func (m *Manager) ReadAsset(ctx context.Context, name string) ([]byte, error) {
	artifact, err := m.latest(ctx, name)
	if err != nil {
		return nil, err
	}
	return m.content(ctx, artifact.ID)
}

func (m *Manager) content(ctx context.Context, id string) ([]byte, error) {
	_, rc, err := m.store.Load(ctx, id)
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, types.NewError(types.ErrAssetIO, fmt.Sprintf("read artifact %s", id)).WithCause(err)
	}
	return data, nil
}

// DocumentMetadata returns the metadata attached to a document, or nil.
func (m *Manager) DocumentMetadata(ctx context.Context, name string) (*archive.DocumentMetadata, error) {
	artifact, err := m.latest(ctx, name)
	if err != nil {
		return nil, err
	}
	if artifact.DocMetadata == nil {
		return nil, nil
	}
	meta := *artifact.DocMetadata
	return &meta, nil
}

// DocumentImages returns the images attached to a document in attach order.
func (m *Manager) DocumentImages(ctx context.Context, name string) ([]archive.Asset, error) {
	artifact, err := m.latest(ctx, name)
	if err != nil {
		return nil, err
	}
	images := make([]archive.Asset, 0, len(artifact.ImageIDs))
	for _, id := range artifact.ImageIDs {
		img, err := m.store.GetMetadata(ctx, id)
		if err != nil {
			return nil, err
		}
		data, err := m.content(ctx, id)
		if err != nil {
			return nil, err
		}
		images = append(images, archive.Asset{Name: img.Name, Data: data})
	}
	return images, nil
}

// WriteAsset stores an imported blob and returns its artifact ID.
func (m *Manager) WriteAsset(ctx context.Context, data []byte, suggestedName string, kind archive.AssetKind) (string, error) {
	artifact, err := m.Create(ctx, suggestedName, typeForKind(kind), bytes.NewReader(data))
	if err != nil {
		return "", err
	}
	return artifact.ID, nil
}

// AttachDocument records document metadata and image links on a stored document.
func (m *Manager) AttachDocument(ctx context.Context, fileID string, meta archive.DocumentMetadata, imageIDs []string) error {
	artifact, err := m.store.GetMetadata(ctx, fileID)
	if err != nil {
		return err
	}
	for _, id := range imageIDs {
		if _, err := m.store.GetMetadata(ctx, id); err != nil {
			return err
		}
	}
	artifact.DocMetadata = &meta
	artifact.ImageIDs = append([]string(nil), imageIDs...)
	artifact.UpdatedAt = time.Now()
	if err := m.store.Update(ctx, artifact); err != nil {
		return types.NewError(types.ErrAssetIO, fmt.Sprintf("attach document %s", fileID)).WithCause(err)
	}
	return nil
}

// CreateOption configures artifact creation.
type CreateOption func(*createOptions)

type createOptions struct {
	tags     []string
	mimeType string
	ttl      time.Duration
}

func WithTags(tags ...string) CreateOption {
	return func(o *createOptions) { o.tags = tags }
}

func WithMimeType(mimeType string) CreateOption {
	return func(o *createOptions) { o.mimeType = mimeType }
}

// WithTTL overrides the manager's default TTL; a negative TTL creates an already expired artifact.
func WithTTL(ttl time.Duration) CreateOption {
	return func(o *createOptions) { o.ttl = ttl }
}

func generateArtifactID() string {
	return "art_" + uuid.NewString()
}

func computeChecksum(data []byte) string {
	hash := sha256.Sum256(data)
	return hex.EncodeToString(hash[:])
}

func detectMimeType(name string) string {
	switch ext := path.Ext(name); ext {
	case ".md", ".markdown":
		return "text/markdown"
	case ".yaml", ".yml":
		return "application/yaml"
	default:
		if t := mime.TypeByExtension(ext); t != "" {
			return t
		}
	}
	return "application/octet-stream"
}
