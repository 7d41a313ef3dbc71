package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/chrisroyse/docprov/internal/common"
	"github.com/chrisroyse/docprov/internal/interfaces"
	"github.com/chrisroyse/docprov/internal/models"
)

// DocumentStorage implements typed CRUD over the documents table.
type DocumentStorage struct {
	db     *SQLiteDB
	logger arbor.ILogger
	mu     sync.Mutex
}

var _ interfaces.DocumentStorage = (*DocumentStorage)(nil)

func NewDocumentStorage(db *SQLiteDB, logger arbor.ILogger) *DocumentStorage {
	return &DocumentStorage{db: db, logger: logger}
}

func (s *DocumentStorage) Create(ctx context.Context, spec models.DocumentSpec, provenanceID string) (*models.Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := common.ValidateStruct(spec); err != nil {
		return nil, err
	}
	if !common.ValidateHashFormat(spec.FileHash) {
		return nil, common.Validation("file_hash must be in sha256:<hex> form")
	}

	now := time.Now().UTC()
	d := &models.Document{
		ID:           common.NewID("doc_"),
		FilePath:     spec.FilePath,
		FileName:     spec.FileName,
		FileHash:     spec.FileHash,
		FileSize:     spec.FileSize,
		FileType:     spec.FileType,
		Status:       models.DocumentStatusPending,
		ProvenanceID: provenanceID,
		Title:        spec.Title,
		Author:       spec.Author,
		Subject:      spec.Subject,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	_, err := s.db.db.ExecContext(ctx, `
		INSERT INTO documents (
			id, file_path, file_name, file_hash, file_size, file_type, status,
			page_count, provenance_id, title, author, subject, error_message,
			created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		d.ID, d.FilePath, d.FileName, d.FileHash, d.FileSize, d.FileType, string(d.Status),
		d.PageCount, d.ProvenanceID, d.Title, d.Author, d.Subject, d.ErrorMessage,
		d.CreatedAt.Format(time.RFC3339Nano), d.UpdatedAt.Format(time.RFC3339Nano))
	if err != nil {
		return nil, wrapWriteError(err, "failed to insert document")
	}
	return d, nil
}

func (s *DocumentStorage) Get(ctx context.Context, id string) (*models.Document, error) {
	return s.getBy(ctx, "id = ?", id)
}

func (s *DocumentStorage) GetByPath(ctx context.Context, path string) (*models.Document, error) {
	return s.getBy(ctx, "file_path = ?", path)
}

func (s *DocumentStorage) GetByHash(ctx context.Context, hash string) (*models.Document, error) {
	return s.getBy(ctx, "file_hash = ?", hash)
}

func (s *DocumentStorage) getBy(ctx context.Context, where string, arg interface{}) (*models.Document, error) {
	row := s.db.db.QueryRowContext(ctx, fmt.Sprintf(`
		SELECT id, file_path, file_name, file_hash, file_size, file_type, status,
		       page_count, provenance_id, title, author, subject, error_message,
		       created_at, updated_at
		FROM documents WHERE %s`, where), arg)

	d, err := scanDocument(row)
	if err == sql.ErrNoRows {
		return nil, common.NotFound("document not found")
	}
	if err != nil {
		return nil, common.Internal("failed to scan document", err)
	}
	return d, nil
}

func scanDocument(row *sql.Row) (*models.Document, error) {
	var d models.Document
	var status, createdAt, updatedAt string
	err := row.Scan(&d.ID, &d.FilePath, &d.FileName, &d.FileHash, &d.FileSize, &d.FileType, &status,
		&d.PageCount, &d.ProvenanceID, &d.Title, &d.Author, &d.Subject, &d.ErrorMessage,
		&createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}
	d.Status = models.DocumentStatus(status)
	d.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdAt)
	d.UpdatedAt, _ = time.Parse(time.RFC3339Nano, updatedAt)
	return &d, nil
}

func (s *DocumentStorage) UpdateStatus(ctx context.Context, id string, status models.DocumentStatus, errorMessage *string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.db.ExecContext(ctx,
		`UPDATE documents SET status = ?, error_message = ?, updated_at = ? WHERE id = ?`,
		string(status), errorMessage, time.Now().UTC().Format(time.RFC3339Nano), id)
	if err != nil {
		return wrapWriteError(err, "failed to update document status")
	}
	return requireRowAffected(res, "document")
}

func (s *DocumentStorage) SetPageCount(ctx context.Context, id string, pageCount int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.db.ExecContext(ctx,
		`UPDATE documents SET page_count = ?, updated_at = ? WHERE id = ?`,
		pageCount, time.Now().UTC().Format(time.RFC3339Nano), id)
	if err != nil {
		return wrapWriteError(err, "failed to set page count")
	}
	return requireRowAffected(res, "document")
}

func (s *DocumentStorage) List(ctx context.Context, opts models.ListOptions) ([]*models.Document, error) {
	var conds []string
	var args []interface{}
	if opts.Status != "" {
		conds = append(conds, "status = ?")
		args = append(args, opts.Status)
	}

	query := "SELECT id, file_path, file_name, file_hash, file_size, file_type, status, page_count, provenance_id, title, author, subject, error_message, created_at, updated_at FROM documents"
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY created_at DESC"

	limit := opts.EffectiveLimit(s.db.config.DefaultListLimit)
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}
	if opts.Offset > 0 {
		query += " OFFSET ?"
		args = append(args, opts.Offset)
	}

	rows, err := s.db.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, common.Internal("failed to list documents", err)
	}
	defer rows.Close()

	var result []*models.Document
	for rows.Next() {
		var d models.Document
		var status, createdAt, updatedAt string
		if err := rows.Scan(&d.ID, &d.FilePath, &d.FileName, &d.FileHash, &d.FileSize, &d.FileType, &status,
			&d.PageCount, &d.ProvenanceID, &d.Title, &d.Author, &d.Subject, &d.ErrorMessage,
			&createdAt, &updatedAt); err != nil {
			return nil, common.Internal("failed to scan document row", err)
		}
		d.Status = models.DocumentStatus(status)
		d.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdAt)
		d.UpdatedAt, _ = time.Parse(time.RFC3339Nano, updatedAt)
		result = append(result, &d)
	}
	return result, rows.Err()
}

func (s *DocumentStorage) Count(ctx context.Context) (int, error) {
	var n int
	err := s.db.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM documents").Scan(&n)
	if err != nil {
		return 0, common.Internal("failed to count documents", err)
	}
	return n, nil
}

// requireRowAffected turns a zero-rows-affected UPDATE into NotFound -
// the shared "update targeting an unknown id" contract.
func requireRowAffected(res sql.Result, entity string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return common.Internal("failed to read rows affected", err)
	}
	if n == 0 {
		return common.NotFound(entity + " not found")
	}
	return nil
}
