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

// ExtractionStorage implements typed CRUD over the extractions table.
type ExtractionStorage struct {
	db     *SQLiteDB
	logger arbor.ILogger
	mu     sync.Mutex
}

var _ interfaces.ExtractionStorage = (*ExtractionStorage)(nil)

func NewExtractionStorage(db *SQLiteDB, logger arbor.ILogger) *ExtractionStorage {
	return &ExtractionStorage{db: db, logger: logger}
}

func (s *ExtractionStorage) Create(ctx context.Context, extraction *models.Extraction) (*models.Extraction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if extraction.ID == "" {
		extraction.ID = common.NewID("ext_")
	}
	if extraction.CreatedAt.IsZero() {
		extraction.CreatedAt = time.Now().UTC()
	}
	if extraction.ContentHash == "" {
		extraction.ContentHash = common.ComputeHash(extraction.Content)
	}

	_, err := s.db.db.ExecContext(ctx, `
		INSERT INTO extractions (id, document_id, provenance_id, content, content_hash, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		extraction.ID, extraction.DocumentID, extraction.ProvenanceID, extraction.Content,
		extraction.ContentHash, extraction.CreatedAt.Format(time.RFC3339Nano))
	if err != nil {
		return nil, wrapWriteError(err, "failed to insert extraction")
	}
	return extraction, nil
}

func (s *ExtractionStorage) Get(ctx context.Context, id string) (*models.Extraction, error) {
	row := s.db.db.QueryRowContext(ctx,
		"SELECT id, document_id, provenance_id, content, content_hash, created_at FROM extractions WHERE id = ?", id)
	e, err := scanExtraction(row)
	if err == sql.ErrNoRows {
		return nil, common.NotFound("extraction not found")
	}
	if err != nil {
		return nil, common.Internal("failed to scan extraction", err)
	}
	return e, nil
}

func (s *ExtractionStorage) ListByDocument(ctx context.Context, documentID string) ([]*models.Extraction, error) {
	rows, err := s.db.db.QueryContext(ctx,
		"SELECT id, document_id, provenance_id, content, content_hash, created_at FROM extractions WHERE document_id = ? ORDER BY created_at ASC", documentID)
	if err != nil {
		return nil, common.Internal("failed to list extractions", err)
	}
	defer rows.Close()

	var result []*models.Extraction
	for rows.Next() {
		var e models.Extraction
		var createdAt string
		if err := rows.Scan(&e.ID, &e.DocumentID, &e.ProvenanceID, &e.Content, &e.ContentHash, &createdAt); err != nil {
			return nil, common.Internal("failed to scan extraction row", err)
		}
		e.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdAt)
		result = append(result, &e)
	}
	return result, rows.Err()
}

func scanExtraction(row *sql.Row) (*models.Extraction, error) {
	var e models.Extraction
	var createdAt string
	err := row.Scan(&e.ID, &e.DocumentID, &e.ProvenanceID, &e.Content, &e.ContentHash, &createdAt)
	if err != nil {
		return nil, err
	}
	e.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdAt)
	return &e, nil
}
