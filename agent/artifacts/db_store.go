package artifacts

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/BaSui01/agenthub/agent/archive"
)

// artifactRecord is the artifacts table row. Content lives in Data; list
// queries omit it.
type artifactRecord struct {
	ID          string     `gorm:"primaryKey;size:64"`
	Name        string     `gorm:"size:255;not null;index:idx_artifacts_name"`
	Type        string     `gorm:"size:32;not null"`
	Status      string     `gorm:"size:32;not null;index:idx_artifacts_status"`
	MimeType    string     `gorm:"size:128"`
	Size        int64      `gorm:"not null;default:0"`
	Checksum    string     `gorm:"size:64"`
	Data        []byte     `gorm:"not null"`
	DocMetadata string     `gorm:"type:text"` // JSON object
	ImageIDs    string     `gorm:"type:text"` // JSON array
	Tags        string     `gorm:"type:text"` // JSON array
	ParentID    string     `gorm:"size:64"`
	Version     int        `gorm:"not null;default:1"`
	ExpiresAt   *time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (artifactRecord) TableName() string { return "artifacts" }

// DBStore implements ArtifactStore on a gorm database.
type DBStore struct {
	db     *gorm.DB
	logger *zap.Logger
}

// NewDBStore wraps db. The artifacts table must exist; see Migrate.
func NewDBStore(db *gorm.DB, logger *zap.Logger) (*DBStore, error) {
	if db == nil {
		return nil, fmt.Errorf("db cannot be nil")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DBStore{db: db, logger: logger.With(zap.String("component", "artifact_db_store"))}, nil
}

// Migrate creates or updates the artifacts table with gorm AutoMigrate.
func (s *DBStore) Migrate(ctx context.Context) error {
	if err := s.db.WithContext(ctx).AutoMigrate(&artifactRecord{}); err != nil {
		return fmt.Errorf("auto migrate artifacts: %w", err)
	}
	return nil
}

func (s *DBStore) Save(ctx context.Context, artifact *Artifact, data io.Reader) error {
	content, err := io.ReadAll(data)
	if err != nil {
		return fmt.Errorf("read data: %w", err)
	}
	artifact.StoragePath = storagePath(artifact.ID)
	rec, err := toRecord(artifact)
	if err != nil {
		return err
	}
	rec.Data = content
	if err := s.db.WithContext(ctx).Create(rec).Error; err != nil {
		return fmt.Errorf("insert artifact %s: %w", artifact.ID, err)
	}
	return nil
}

func (s *DBStore) Load(ctx context.Context, artifactID string) (*Artifact, io.ReadCloser, error) {
	var rec artifactRecord
	if err := s.db.WithContext(ctx).Where("id = ?", artifactID).Take(&rec).Error; err != nil {
		return nil, nil, s.lookupError(artifactID, err)
	}
	artifact, err := fromRecord(&rec)
	if err != nil {
		return nil, nil, err
	}
	return artifact, io.NopCloser(bytes.NewReader(rec.Data)), nil
}

func (s *DBStore) GetMetadata(ctx context.Context, artifactID string) (*Artifact, error) {
	var rec artifactRecord
	err := s.db.WithContext(ctx).Omit("data").Where("id = ?", artifactID).Take(&rec).Error
	if err != nil {
		return nil, s.lookupError(artifactID, err)
	}
	return fromRecord(&rec)
}

func (s *DBStore) Update(ctx context.Context, artifact *Artifact) error {
	rec, err := toRecord(artifact)
	if err != nil {
		return err
	}
	res := s.db.WithContext(ctx).Model(&artifactRecord{}).
		Where("id = ?", artifact.ID).
		Updates(map[string]any{
			"name":         rec.Name,
			"type":         rec.Type,
			"status":       rec.Status,
			"mime_type":    rec.MimeType,
			"doc_metadata": rec.DocMetadata,
			"image_ids":    rec.ImageIDs,
			"tags":         rec.Tags,
			"parent_id":    rec.ParentID,
			"version":      rec.Version,
			"expires_at":   rec.ExpiresAt,
			"updated_at":   rec.UpdatedAt,
		})
	if res.Error != nil {
		return fmt.Errorf("update artifact %s: %w", artifact.ID, res.Error)
	}
	if res.RowsAffected == 0 {
		return notFound(artifact.ID)
	}
	return nil
}

func (s *DBStore) Delete(ctx context.Context, artifactID string) error {
	res := s.db.WithContext(ctx).Where("id = ?", artifactID).Delete(&artifactRecord{})
	if res.Error != nil {
		return fmt.Errorf("delete artifact %s: %w", artifactID, res.Error)
	}
	if res.RowsAffected == 0 {
		return notFound(artifactID)
	}
	return nil
}

func (s *DBStore) List(ctx context.Context, query ArtifactQuery) ([]*Artifact, error) {
	tx := s.db.WithContext(ctx).Model(&artifactRecord{}).Omit("data")
	if query.Name != "" {
		tx = tx.Where("name = ?", query.Name)
	}
	if query.Type != "" {
		tx = tx.Where("type = ?", string(query.Type))
	}
	if query.Status != "" {
		tx = tx.Where("status = ?", string(query.Status))
	}

	var recs []artifactRecord
	if err := tx.Order("created_at ASC, id ASC").Find(&recs).Error; err != nil {
		return nil, fmt.Errorf("list artifacts: %w", err)
	}

	results := make([]*Artifact, 0, len(recs))
	for i := range recs {
		artifact, err := fromRecord(&recs[i])
		if err != nil {
			return nil, err
		}
		// tags are a JSON column, filtered here
		if query.matches(artifact) {
			results = append(results, artifact)
		}
	}
	return query.page(results), nil
}

func (s *DBStore) Archive(ctx context.Context, artifactID string) error {
	res := s.db.WithContext(ctx).Model(&artifactRecord{}).
		Where("id = ?", artifactID).
		Updates(map[string]any{"status": string(StatusArchived), "updated_at": time.Now()})
	if res.Error != nil {
		return fmt.Errorf("archive artifact %s: %w", artifactID, res.Error)
	}
	if res.RowsAffected == 0 {
		return notFound(artifactID)
	}
	return nil
}

func (s *DBStore) lookupError(id string, err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return notFound(id)
	}
	s.logger.Warn("artifact lookup failed", zap.String("id", id), zap.Error(err))
	return fmt.Errorf("query artifact %s: %w", id, err)
}

func storagePath(id string) string {
	return "db://artifacts/" + id
}

func toRecord(a *Artifact) (*artifactRecord, error) {
	rec := &artifactRecord{
		ID:        a.ID,
		Name:      a.Name,
		Type:      string(a.Type),
		Status:    string(a.Status),
		MimeType:  a.MimeType,
		Size:      a.Size,
		Checksum:  a.Checksum,
		ParentID:  a.ParentID,
		Version:   a.Version,
		ExpiresAt: a.ExpiresAt,
		CreatedAt: a.CreatedAt,
		UpdatedAt: a.UpdatedAt,
	}
	var err error
	if a.DocMetadata != nil {
		if rec.DocMetadata, err = encodeColumn(a.DocMetadata); err != nil {
			return nil, err
		}
	}
	if rec.ImageIDs, err = encodeColumn(a.ImageIDs); err != nil {
		return nil, err
	}
	if rec.Tags, err = encodeColumn(a.Tags); err != nil {
		return nil, err
	}
	return rec, nil
}

func fromRecord(rec *artifactRecord) (*Artifact, error) {
	a := &Artifact{
		ID:          rec.ID,
		Name:        rec.Name,
		Type:        ArtifactType(rec.Type),
		Status:      ArtifactStatus(rec.Status),
		MimeType:    rec.MimeType,
		Size:        rec.Size,
		Checksum:    rec.Checksum,
		StoragePath: storagePath(rec.ID),
		ParentID:    rec.ParentID,
		Version:     rec.Version,
		ExpiresAt:   rec.ExpiresAt,
		CreatedAt:   rec.CreatedAt,
		UpdatedAt:   rec.UpdatedAt,
	}
	if rec.DocMetadata != "" {
		a.DocMetadata = &archive.DocumentMetadata{}
		if err := json.Unmarshal([]byte(rec.DocMetadata), a.DocMetadata); err != nil {
			return nil, fmt.Errorf("decode doc_metadata of %s: %w", rec.ID, err)
		}
	}
	if err := decodeColumn(rec.ImageIDs, &a.ImageIDs); err != nil {
		return nil, fmt.Errorf("decode image_ids of %s: %w", rec.ID, err)
	}
	if err := decodeColumn(rec.Tags, &a.Tags); err != nil {
		return nil, fmt.Errorf("decode tags of %s: %w", rec.ID, err)
	}
	return a, nil
}

func encodeColumn(v any) (string, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("encode column: %w", err)
	}
	if string(data) == "null" {
		return "", nil
	}
	return string(data), nil
}

func decodeColumn(s string, v any) error {
	if s == "" {
		return nil
	}
	return json.Unmarshal([]byte(s), v)
}
