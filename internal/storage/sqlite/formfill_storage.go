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

// FormFillStorage implements typed CRUD over the form_fills table.
type FormFillStorage struct {
	db     *SQLiteDB
	logger arbor.ILogger
	mu     sync.Mutex
}

var _ interfaces.FormFillStorage = (*FormFillStorage)(nil)

func NewFormFillStorage(db *SQLiteDB, logger arbor.ILogger) *FormFillStorage {
	return &FormFillStorage{db: db, logger: logger}
}

func (s *FormFillStorage) Create(ctx context.Context, fill *models.FormFill) (*models.FormFill, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if fill.ID == "" {
		fill.ID = common.NewID("form_")
	}
	if fill.CreatedAt.IsZero() {
		fill.CreatedAt = time.Now().UTC()
	}

	fieldsJSON, err := marshalJSON(fill.Fields)
	if err != nil {
		return nil, common.Internal("failed to marshal form fields", err)
	}

	_, err = s.db.db.ExecContext(ctx, `
		INSERT INTO form_fills (id, document_id, provenance_id, form_name, fields, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		fill.ID, fill.DocumentID, fill.ProvenanceID, fill.FormName, fieldsJSON, fill.CreatedAt.Format(time.RFC3339Nano))
	if err != nil {
		return nil, wrapWriteError(err, "failed to insert form fill")
	}
	return fill, nil
}

func (s *FormFillStorage) ListByDocument(ctx context.Context, documentID string) ([]*models.FormFill, error) {
	rows, err := s.db.db.QueryContext(ctx,
		"SELECT id, document_id, provenance_id, form_name, fields, created_at FROM form_fills WHERE document_id = ?",
		documentID)
	if err != nil {
		return nil, common.Internal("failed to list form fills", err)
	}
	defer rows.Close()

	var result []*models.FormFill
	for rows.Next() {
		var f models.FormFill
		var fieldsJSON, createdAt string
		if err := rows.Scan(&f.ID, &f.DocumentID, &f.ProvenanceID, &f.FormName, &fieldsJSON, &createdAt); err != nil {
			return nil, common.Internal("failed to scan form fill row", err)
		}
		if err := unmarshalJSONInto(fieldsJSON, &f.Fields); err != nil {
			return nil, common.Internal("failed to unmarshal form fields", err)
		}
		f.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdAt)
		result = append(result, &f)
	}
	return result, rows.Err()
}
