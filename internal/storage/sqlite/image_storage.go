package sqlite

import (
	"context"
	"database/sql"
	"sync"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/chrisroyse/docprov/internal/common"
	"github.com/chrisroyse/docprov/internal/interfaces"
	"github.com/chrisroyse/docprov/internal/models"
)

// ImageStorage implements typed CRUD over the images table.
type ImageStorage struct {
	db     *SQLiteDB
	logger arbor.ILogger
	mu     sync.Mutex
}

var _ interfaces.ImageStorage = (*ImageStorage)(nil)

func NewImageStorage(db *SQLiteDB, logger arbor.ILogger) *ImageStorage {
	return &ImageStorage{db: db, logger: logger}
}

func (s *ImageStorage) Create(ctx context.Context, image *models.Image) (*models.Image, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if image.ID == "" {
		image.ID = common.NewID("img_")
	}
	if image.CreatedAt.IsZero() {
		image.CreatedAt = time.Now().UTC()
	}
	if image.VLMStatus == "" {
		image.VLMStatus = models.VLMStatusPending
	}

	_, err := s.db.db.ExecContext(ctx, `
		INSERT INTO images (
			id, document_id, provenance_id, file_path, page_number,
			vlm_status, vlm_embedding_id, vlm_description, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		image.ID, image.DocumentID, image.ProvenanceID, image.FilePath, image.PageNumber,
		string(image.VLMStatus), image.VLMEmbeddingID, image.VLMDescription,
		image.CreatedAt.Format(time.RFC3339Nano))
	if err != nil {
		return nil, wrapWriteError(err, "failed to insert image")
	}
	return image, nil
}

func (s *ImageStorage) Get(ctx context.Context, id string) (*models.Image, error) {
	row := s.db.db.QueryRowContext(ctx, `
		SELECT id, document_id, provenance_id, file_path, page_number,
		       vlm_status, vlm_embedding_id, vlm_description, created_at
		FROM images WHERE id = ?`, id)
	img, err := scanImage(row)
	if err == sql.ErrNoRows {
		return nil, common.NotFound("image not found")
	}
	if err != nil {
		return nil, common.Internal("failed to scan image", err)
	}
	return img, nil
}

func (s *ImageStorage) ListByDocument(ctx context.Context, documentID string) ([]*models.Image, error) {
	rows, err := s.db.db.QueryContext(ctx, `
		SELECT id, document_id, provenance_id, file_path, page_number,
		       vlm_status, vlm_embedding_id, vlm_description, created_at
		FROM images WHERE document_id = ? ORDER BY page_number ASC`, documentID)
	if err != nil {
		return nil, common.Internal("failed to list images", err)
	}
	defer rows.Close()

	var result []*models.Image
	for rows.Next() {
		var img models.Image
		var status, createdAt string
		if err := rows.Scan(&img.ID, &img.DocumentID, &img.ProvenanceID, &img.FilePath, &img.PageNumber,
			&status, &img.VLMEmbeddingID, &img.VLMDescription, &createdAt); err != nil {
			return nil, common.Internal("failed to scan image row", err)
		}
		img.VLMStatus = models.VLMStatus(status)
		img.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdAt)
		result = append(result, &img)
	}
	return result, rows.Err()
}

func (s *ImageStorage) SetVLMEmbedding(ctx context.Context, id string, embeddingID *string, status models.VLMStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.db.ExecContext(ctx,
		"UPDATE images SET vlm_embedding_id = ?, vlm_status = ? WHERE id = ?",
		embeddingID, string(status), id)
	if err != nil {
		return wrapWriteError(err, "failed to set image vlm embedding")
	}
	return requireRowAffected(res, "image")
}

func scanImage(row *sql.Row) (*models.Image, error) {
	var img models.Image
	var status, createdAt string
	err := row.Scan(&img.ID, &img.DocumentID, &img.ProvenanceID, &img.FilePath, &img.PageNumber,
		&status, &img.VLMEmbeddingID, &img.VLMDescription, &createdAt)
	if err != nil {
		return nil, err
	}
	img.VLMStatus = models.VLMStatus(status)
	img.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdAt)
	return &img, nil
}
