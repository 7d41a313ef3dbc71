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

// EntityStorage implements typed CRUD over the entities table - the raw,
// per-document mentions that the graph builder later resolves into
// KnowledgeNode rows.
type EntityStorage struct {
	db     *SQLiteDB
	logger arbor.ILogger
	mu     sync.Mutex
}

var _ interfaces.EntityStorage = (*EntityStorage)(nil)

func NewEntityStorage(db *SQLiteDB, logger arbor.ILogger) *EntityStorage {
	return &EntityStorage{db: db, logger: logger}
}

func (s *EntityStorage) Create(ctx context.Context, entity *models.Entity) (*models.Entity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if entity.ID == "" {
		entity.ID = common.NewID("entity_")
	}
	if entity.CreatedAt.IsZero() {
		entity.CreatedAt = time.Now().UTC()
	}

	_, err := s.db.db.ExecContext(ctx, `
		INSERT INTO entities (
			id, document_id, entity_type, raw_text, normalized_text,
			confidence, extraction_id, provenance_id, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		entity.ID, entity.DocumentID, string(entity.EntityType), entity.RawText, entity.NormalizedText,
		entity.Confidence, entity.ExtractionID, entity.ProvenanceID, entity.CreatedAt.Format(time.RFC3339Nano))
	if err != nil {
		return nil, wrapWriteError(err, "failed to insert entity")
	}
	return entity, nil
}

func (s *EntityStorage) Get(ctx context.Context, id string) (*models.Entity, error) {
	row := s.db.db.QueryRowContext(ctx, `
		SELECT id, document_id, entity_type, raw_text, normalized_text, confidence,
		       extraction_id, provenance_id, created_at
		FROM entities WHERE id = ?`, id)
	e, err := scanEntity(row)
	if err == sql.ErrNoRows {
		return nil, common.NotFound("entity not found")
	}
	if err != nil {
		return nil, common.Internal("failed to scan entity", err)
	}
	return e, nil
}

func (s *EntityStorage) ListByDocument(ctx context.Context, documentID string) ([]*models.Entity, error) {
	return s.list(ctx, "WHERE document_id = ?", documentID)
}

func (s *EntityStorage) ListAll(ctx context.Context) ([]*models.Entity, error) {
	return s.list(ctx, "", nil)
}

func (s *EntityStorage) list(ctx context.Context, where string, arg interface{}) ([]*models.Entity, error) {
	query := `
		SELECT id, document_id, entity_type, raw_text, normalized_text, confidence,
		       extraction_id, provenance_id, created_at
		FROM entities ` + where

	var rows *sql.Rows
	var err error
	if arg != nil {
		rows, err = s.db.db.QueryContext(ctx, query, arg)
	} else {
		rows, err = s.db.db.QueryContext(ctx, query)
	}
	if err != nil {
		return nil, common.Internal("failed to list entities", err)
	}
	defer rows.Close()

	var result []*models.Entity
	for rows.Next() {
		var e models.Entity
		var typ, createdAt string
		if err := rows.Scan(&e.ID, &e.DocumentID, &typ, &e.RawText, &e.NormalizedText, &e.Confidence,
			&e.ExtractionID, &e.ProvenanceID, &createdAt); err != nil {
			return nil, common.Internal("failed to scan entity row", err)
		}
		e.EntityType = models.EntityType(typ)
		e.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdAt)
		result = append(result, &e)
	}
	return result, rows.Err()
}

func (s *EntityStorage) CountAll(ctx context.Context) (int, error) {
	var n int
	err := s.db.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM entities").Scan(&n)
	if err != nil {
		return 0, common.Internal("failed to count entities", err)
	}
	return n, nil
}

func scanEntity(row *sql.Row) (*models.Entity, error) {
	var e models.Entity
	var typ, createdAt string
	err := row.Scan(&e.ID, &e.DocumentID, &typ, &e.RawText, &e.NormalizedText, &e.Confidence,
		&e.ExtractionID, &e.ProvenanceID, &createdAt)
	if err != nil {
		return nil, err
	}
	e.EntityType = models.EntityType(typ)
	e.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdAt)
	return &e, nil
}
