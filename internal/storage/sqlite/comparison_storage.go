package sqlite

import (
	"context"
	"sync"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/chrisroyse/docprov/internal/common"
	"github.com/chrisroyse/docprov/internal/interfaces"
	"github.com/chrisroyse/docprov/internal/models"
)

// ComparisonStorage implements typed CRUD over the comparisons table.
type ComparisonStorage struct {
	db     *SQLiteDB
	logger arbor.ILogger
	mu     sync.Mutex
}

var _ interfaces.ComparisonStorage = (*ComparisonStorage)(nil)

func NewComparisonStorage(db *SQLiteDB, logger arbor.ILogger) *ComparisonStorage {
	return &ComparisonStorage{db: db, logger: logger}
}

func (s *ComparisonStorage) Create(ctx context.Context, comparison *models.Comparison) (*models.Comparison, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if comparison.ID == "" {
		comparison.ID = common.NewID("cmp_")
	}
	if comparison.CreatedAt.IsZero() {
		comparison.CreatedAt = time.Now().UTC()
	}

	resultJSON, err := marshalJSON(comparison.Result)
	if err != nil {
		return nil, common.Internal("failed to marshal comparison result", err)
	}

	_, err = s.db.db.ExecContext(ctx, `
		INSERT INTO comparisons (id, provenance_id, document_a_id, document_b_id, comparison_type, result, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		comparison.ID, comparison.ProvenanceID, comparison.DocumentAID, comparison.DocumentBID,
		comparison.ComparisonType, resultJSON, comparison.CreatedAt.Format(time.RFC3339Nano))
	if err != nil {
		return nil, wrapWriteError(err, "failed to insert comparison")
	}
	return comparison, nil
}

func (s *ComparisonStorage) ListForDocument(ctx context.Context, documentID string) ([]*models.Comparison, error) {
	rows, err := s.db.db.QueryContext(ctx, `
		SELECT id, provenance_id, document_a_id, document_b_id, comparison_type, result, created_at
		FROM comparisons WHERE document_a_id = ? OR document_b_id = ?`, documentID, documentID)
	if err != nil {
		return nil, common.Internal("failed to list comparisons", err)
	}
	defer rows.Close()

	var result []*models.Comparison
	for rows.Next() {
		var c models.Comparison
		var resultJSON, createdAt string
		if err := rows.Scan(&c.ID, &c.ProvenanceID, &c.DocumentAID, &c.DocumentBID, &c.ComparisonType, &resultJSON, &createdAt); err != nil {
			return nil, common.Internal("failed to scan comparison row", err)
		}
		if err := unmarshalJSONInto(resultJSON, &c.Result); err != nil {
			return nil, common.Internal("failed to unmarshal comparison result", err)
		}
		c.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdAt)
		result = append(result, &c)
	}
	return result, rows.Err()
}
