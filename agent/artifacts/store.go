package artifacts

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/BaSui01/agenthub/types"
)

const (
	indexFile    = "index.json"
	dataFile     = "data"
	metadataFile = "metadata.json"
)

// FileStore keeps one directory per artifact under basePath, holding the
// content and a metadata.json copy, plus a global index.json.
type FileStore struct {
	basePath string
	mu       sync.RWMutex
	index    map[string]*Artifact
}

// NewFileStore opens or creates a file-backed store.
func NewFileStore(basePath string) (*FileStore, error) {
	absPath, err := filepath.Abs(basePath)
	if err != nil {
		return nil, fmt.Errorf("resolve base path: %w", err)
	}
	if err := os.MkdirAll(absPath, 0755); err != nil {
		return nil, fmt.Errorf("create base path: %w", err)
	}

	store := &FileStore{
		basePath: absPath,
		index:    make(map[string]*Artifact),
	}
	if err := store.loadIndex(); err != nil {
		return nil, err
	}
	return store, nil
}

func (s *FileStore) Save(ctx context.Context, artifact *Artifact, data io.Reader) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	dir, err := s.artifactDir(artifact.ID)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create artifact dir: %w", err)
	}

	dataPath := filepath.Join(dir, dataFile)
	f, err := os.Create(dataPath + ".tmp")
	if err != nil {
		return fmt.Errorf("create data file: %w", err)
	}
	if _, err := io.Copy(f, data); err != nil {
		f.Close()
		os.Remove(f.Name())
		return fmt.Errorf("write data: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(f.Name())
		return fmt.Errorf("close data file: %w", err)
	}
	if err := os.Rename(f.Name(), dataPath); err != nil {
		os.Remove(f.Name())
		return fmt.Errorf("rename data file: %w", err)
	}

	stored := artifact.clone()
	stored.StoragePath = dataPath
	artifact.StoragePath = dataPath
	return s.put(stored)
}

func (s *FileStore) Load(ctx context.Context, artifactID string) (*Artifact, io.ReadCloser, error) {
	artifact, err := s.GetMetadata(ctx, artifactID)
	if err != nil {
		return nil, nil, err
	}

	file, err := os.Open(artifact.StoragePath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil, notFound(artifactID)
		}
		return nil, nil, fmt.Errorf("open data: %w", err)
	}
	return artifact, file, nil
}

func (s *FileStore) GetMetadata(ctx context.Context, artifactID string) (*Artifact, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	artifact, ok := s.index[artifactID]
	if !ok {
		return nil, notFound(artifactID)
	}
	return artifact.clone(), nil
}

func (s *FileStore) Update(ctx context.Context, artifact *Artifact) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.index[artifact.ID]
	if !ok {
		return notFound(artifact.ID)
	}
	updated := artifact.clone()
	updated.StoragePath = current.StoragePath
	return s.put(updated)
}

func (s *FileStore) Delete(ctx context.Context, artifactID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.index[artifactID]; !ok {
		return notFound(artifactID)
	}
	dir, err := s.artifactDir(artifactID)
	if err != nil {
		return err
	}
	if err := os.RemoveAll(dir); err != nil {
		return fmt.Errorf("delete artifact: %w", err)
	}

	delete(s.index, artifactID)
	return s.saveIndex()
}

func (s *FileStore) List(ctx context.Context, query ArtifactQuery) ([]*Artifact, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var results []*Artifact
	for _, artifact := range s.index {
		if query.matches(artifact) {
			results = append(results, artifact.clone())
		}
	}
	return query.page(results), nil
}

func (s *FileStore) Archive(ctx context.Context, artifactID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	artifact, ok := s.index[artifactID]
	if !ok {
		return notFound(artifactID)
	}
	archived := artifact.clone()
	archived.Status = StatusArchived
	archived.UpdatedAt = time.Now()
	return s.put(archived)
}

// put writes the per-artifact metadata copy and the index. Callers hold mu.
func (s *FileStore) put(artifact *Artifact) error {
	dir, err := s.artifactDir(artifact.ID)
	if err != nil {
		return err
	}
	meta, err := json.MarshalIndent(artifact, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal metadata: %w", err)
	}
	if err := writeFileAtomic(filepath.Join(dir, metadataFile), meta); err != nil {
		return err
	}
	s.index[artifact.ID] = artifact
	return s.saveIndex()
}

// artifactDir rejects IDs that would escape basePath.
func (s *FileStore) artifactDir(id string) (string, error) {
	if id == "" || !filepath.IsLocal(id) || filepath.Base(id) != id {
		return "", types.NewError(types.ErrAssetIO, fmt.Sprintf("invalid artifact id %q", id))
	}
	return filepath.Join(s.basePath, id), nil
}

func (s *FileStore) loadIndex() error {
	data, err := os.ReadFile(filepath.Join(s.basePath, indexFile))
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read index: %w", err)
	}
	if err := json.Unmarshal(data, &s.index); err != nil {
		return fmt.Errorf("decode index: %w", err)
	}
	return nil
}

func (s *FileStore) saveIndex() error {
	data, err := json.MarshalIndent(s.index, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal index: %w", err)
	}
	return writeFileAtomic(filepath.Join(s.basePath, indexFile), data)
}

func writeFileAtomic(path string, data []byte) error {
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("rename temp file: %w", err)
	}
	return nil
}

func notFound(id string) error {
	return types.NewError(types.ErrAssetNotFound, fmt.Sprintf("artifact not found: %s", id))
}
