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

// EmbeddingStorage implements typed CRUD over the embeddings table and
// keeps the vec_embeddings virtual table in lockstep - every Embedding row
// has exactly one vector row, created and deleted together.
type EmbeddingStorage struct {
	db     *SQLiteDB
	vec    interfaces.VectorStore
	logger arbor.ILogger
	mu     sync.Mutex
}

var _ interfaces.EmbeddingStorage = (*EmbeddingStorage)(nil)

func NewEmbeddingStorage(db *SQLiteDB, vec interfaces.VectorStore, logger arbor.ILogger) *EmbeddingStorage {
	return &EmbeddingStorage{db: db, vec: vec, logger: logger}
}

func (s *EmbeddingStorage) Create(ctx context.Context, embedding *models.Embedding, vector []float32) (*models.Embedding, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if embedding.OwnerKind() == "" {
		return nil, common.Validation("embedding must set exactly one of chunk_id, image_id, extraction_id")
	}
	if embedding.ID == "" {
		embedding.ID = common.NewID("emb_")
	}
	if embedding.CreatedAt.IsZero() {
		embedding.CreatedAt = time.Now().UTC()
	}
	if embedding.Dimension == 0 {
		embedding.Dimension = len(vector)
	}

	_, err := s.db.db.ExecContext(ctx, `
		INSERT INTO embeddings (
			id, provenance_id, chunk_id, image_id, extraction_id, original_text,
			source_file_id, model_name, dimension, content_hash, duration_ms, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		embedding.ID, embedding.ProvenanceID, embedding.ChunkID, embedding.ImageID, embedding.ExtractionID,
		embedding.OriginalText, embedding.SourceFileID, embedding.ModelName, embedding.Dimension,
		embedding.ContentHash, embedding.DurationMS, embedding.CreatedAt.Format(time.RFC3339Nano))
	if err != nil {
		return nil, wrapWriteError(err, "failed to insert embedding")
	}

	if err := s.vec.Store(ctx, embedding.ID, vector); err != nil {
		return nil, err
	}
	return embedding, nil
}

func (s *EmbeddingStorage) Get(ctx context.Context, id string) (*models.Embedding, error) {
	row := s.db.db.QueryRowContext(ctx, `
		SELECT id, provenance_id, chunk_id, image_id, extraction_id, original_text,
		       source_file_id, model_name, dimension, content_hash, duration_ms, created_at
		FROM embeddings WHERE id = ?`, id)
	e, err := scanEmbedding(row)
	if err == sql.ErrNoRows {
		return nil, common.NotFound("embedding not found")
	}
	if err != nil {
		return nil, common.Internal("failed to scan embedding", err)
	}
	return e, nil
}

func (s *EmbeddingStorage) ListByDocument(ctx context.Context, documentID string) ([]*models.Embedding, error) {
	rows, err := s.db.db.QueryContext(ctx, `
		SELECT e.id, e.provenance_id, e.chunk_id, e.image_id, e.extraction_id, e.original_text,
		       e.source_file_id, e.model_name, e.dimension, e.content_hash, e.duration_ms, e.created_at
		FROM embeddings e
		LEFT JOIN chunks c ON c.id = e.chunk_id
		LEFT JOIN images i ON i.id = e.image_id
		LEFT JOIN extractions x ON x.id = e.extraction_id
		WHERE c.document_id = ? OR i.document_id = ? OR x.document_id = ?`,
		documentID, documentID, documentID)
	if err != nil {
		return nil, common.Internal("failed to list embeddings", err)
	}
	defer rows.Close()

	var result []*models.Embedding
	for rows.Next() {
		var e models.Embedding
		var createdAt string
		if err := rows.Scan(&e.ID, &e.ProvenanceID, &e.ChunkID, &e.ImageID, &e.ExtractionID, &e.OriginalText,
			&e.SourceFileID, &e.ModelName, &e.Dimension, &e.ContentHash, &e.DurationMS, &createdAt); err != nil {
			return nil, common.Internal("failed to scan embedding row", err)
		}
		e.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdAt)
		result = append(result, &e)
	}
	return result, rows.Err()
}

func (s *EmbeddingStorage) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.db.ExecContext(ctx, "DELETE FROM embeddings WHERE id = ?", id)
	if err != nil {
		return wrapWriteError(err, "failed to delete embedding")
	}
	if err := requireRowAffected(res, "embedding"); err != nil {
		return err
	}
	if _, err := s.vec.Delete(ctx, id); err != nil {
		return err
	}
	return nil
}

func scanEmbedding(row *sql.Row) (*models.Embedding, error) {
	var e models.Embedding
	var createdAt string
	err := row.Scan(&e.ID, &e.ProvenanceID, &e.ChunkID, &e.ImageID, &e.ExtractionID, &e.OriginalText,
		&e.SourceFileID, &e.ModelName, &e.Dimension, &e.ContentHash, &e.DurationMS, &createdAt)
	if err != nil {
		return nil, err
	}
	e.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdAt)
	return &e, nil
}
