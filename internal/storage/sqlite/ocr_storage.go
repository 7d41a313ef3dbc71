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

// OCRResultStorage implements typed CRUD over the ocr_results table.
type OCRResultStorage struct {
	db     *SQLiteDB
	logger arbor.ILogger
	mu     sync.Mutex
}

var _ interfaces.OCRResultStorage = (*OCRResultStorage)(nil)

func NewOCRResultStorage(db *SQLiteDB, logger arbor.ILogger) *OCRResultStorage {
	return &OCRResultStorage{db: db, logger: logger}
}

func (s *OCRResultStorage) Create(ctx context.Context, result *models.OCRResult) (*models.OCRResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if result.ID == "" {
		result.ID = common.NewID("ocr_")
	}
	if result.CreatedAt.IsZero() {
		result.CreatedAt = time.Now().UTC()
	}

	_, err := s.db.db.ExecContext(ctx, `
		INSERT INTO ocr_results (
			id, document_id, provenance_id, extracted_text, page_count,
			request_id, quality_score, mode, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		result.ID, result.DocumentID, result.ProvenanceID, result.ExtractedText, result.PageCount,
		result.RequestID, result.QualityScore, result.Mode, result.CreatedAt.Format(time.RFC3339Nano))
	if err != nil {
		return nil, wrapWriteError(err, "failed to insert ocr result")
	}
	return result, nil
}

func (s *OCRResultStorage) Get(ctx context.Context, id string) (*models.OCRResult, error) {
	return s.getBy(ctx, "id", id)
}

func (s *OCRResultStorage) GetByDocument(ctx context.Context, documentID string) (*models.OCRResult, error) {
	return s.getBy(ctx, "document_id", documentID)
}

func (s *OCRResultStorage) getBy(ctx context.Context, column, value string) (*models.OCRResult, error) {
	row := s.db.db.QueryRowContext(ctx, `
		SELECT id, document_id, provenance_id, extracted_text, page_count,
		       request_id, quality_score, mode, created_at
		FROM ocr_results WHERE `+column+` = ?`, value)

	var r models.OCRResult
	var createdAt string
	err := row.Scan(&r.ID, &r.DocumentID, &r.ProvenanceID, &r.ExtractedText, &r.PageCount,
		&r.RequestID, &r.QualityScore, &r.Mode, &createdAt)
	if err == sql.ErrNoRows {
		return nil, common.NotFound("ocr result not found")
	}
	if err != nil {
		return nil, common.Internal("failed to scan ocr result", err)
	}
	r.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdAt)
	return &r, nil
}
