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

// ChunkStorage implements typed CRUD over the chunks table. Row inserts
// and deletes also drive the chunks_fts shadow table via triggers, so no
// FTS bookkeeping happens here.
type ChunkStorage struct {
	db     *SQLiteDB
	logger arbor.ILogger
	mu     sync.Mutex
}

var _ interfaces.ChunkStorage = (*ChunkStorage)(nil)

func NewChunkStorage(db *SQLiteDB, logger arbor.ILogger) *ChunkStorage {
	return &ChunkStorage{db: db, logger: logger}
}

func (s *ChunkStorage) Create(ctx context.Context, chunk *models.Chunk) (*models.Chunk, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if chunk.ID == "" {
		chunk.ID = common.NewID("chunk_")
	}
	if chunk.CreatedAt.IsZero() {
		chunk.CreatedAt = time.Now().UTC()
	}
	if chunk.TextHash == "" {
		chunk.TextHash = common.ComputeHash(chunk.Content)
	}
	if chunk.EmbeddingStatus == "" {
		chunk.EmbeddingStatus = models.EmbeddingStatusPending
	}

	_, err := s.db.db.ExecContext(ctx, `
		INSERT INTO chunks (
			id, document_id, ocr_result_id, provenance_id, chunk_index, content,
			text_hash, char_start, char_end, page_number, embedding_status, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		chunk.ID, chunk.DocumentID, chunk.OCRResultID, chunk.ProvenanceID, chunk.ChunkIndex, chunk.Content,
		chunk.TextHash, chunk.CharStart, chunk.CharEnd, chunk.PageNumber, string(chunk.EmbeddingStatus),
		chunk.CreatedAt.Format(time.RFC3339Nano))
	if err != nil {
		return nil, wrapWriteError(err, "failed to insert chunk")
	}
	return chunk, nil
}

func (s *ChunkStorage) Get(ctx context.Context, id string) (*models.Chunk, error) {
	row := s.db.db.QueryRowContext(ctx, `
		SELECT id, document_id, ocr_result_id, provenance_id, chunk_index, content,
		       text_hash, char_start, char_end, page_number, embedding_status, created_at
		FROM chunks WHERE id = ?`, id)
	c, err := scanChunk(row)
	if err == sql.ErrNoRows {
		return nil, common.NotFound("chunk not found")
	}
	if err != nil {
		return nil, common.Internal("failed to scan chunk", err)
	}
	return c, nil
}

func (s *ChunkStorage) ListByDocument(ctx context.Context, documentID string) ([]*models.Chunk, error) {
	rows, err := s.db.db.QueryContext(ctx, `
		SELECT id, document_id, ocr_result_id, provenance_id, chunk_index, content,
		       text_hash, char_start, char_end, page_number, embedding_status, created_at
		FROM chunks WHERE document_id = ? ORDER BY chunk_index ASC`, documentID)
	if err != nil {
		return nil, common.Internal("failed to list chunks", err)
	}
	defer rows.Close()

	var result []*models.Chunk
	for rows.Next() {
		c, err := scanChunkRows(rows)
		if err != nil {
			return nil, common.Internal("failed to scan chunk row", err)
		}
		result = append(result, c)
	}
	return result, rows.Err()
}

func (s *ChunkStorage) UpdateEmbeddingStatus(ctx context.Context, id string, status models.EmbeddingStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.db.ExecContext(ctx, `UPDATE chunks SET embedding_status = ? WHERE id = ?`, string(status), id)
	if err != nil {
		return wrapWriteError(err, "failed to update chunk embedding status")
	}
	return requireRowAffected(res, "chunk")
}

func scanChunk(row *sql.Row) (*models.Chunk, error) {
	var c models.Chunk
	var status, createdAt string
	err := row.Scan(&c.ID, &c.DocumentID, &c.OCRResultID, &c.ProvenanceID, &c.ChunkIndex, &c.Content,
		&c.TextHash, &c.CharStart, &c.CharEnd, &c.PageNumber, &status, &createdAt)
	if err != nil {
		return nil, err
	}
	c.EmbeddingStatus = models.EmbeddingStatus(status)
	c.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdAt)
	return &c, nil
}

func scanChunkRows(rows *sql.Rows) (*models.Chunk, error) {
	var c models.Chunk
	var status, createdAt string
	err := rows.Scan(&c.ID, &c.DocumentID, &c.OCRResultID, &c.ProvenanceID, &c.ChunkIndex, &c.Content,
		&c.TextHash, &c.CharStart, &c.CharEnd, &c.PageNumber, &status, &createdAt)
	if err != nil {
		return nil, err
	}
	c.EmbeddingStatus = models.EmbeddingStatus(status)
	c.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdAt)
	return &c, nil
}
