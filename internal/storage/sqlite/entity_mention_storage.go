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

// EntityMentionStorage implements typed CRUD over the entity_mentions table.
type EntityMentionStorage struct {
	db     *SQLiteDB
	logger arbor.ILogger
	mu     sync.Mutex
}

var _ interfaces.EntityMentionStorage = (*EntityMentionStorage)(nil)

func NewEntityMentionStorage(db *SQLiteDB, logger arbor.ILogger) *EntityMentionStorage {
	return &EntityMentionStorage{db: db, logger: logger}
}

func (s *EntityMentionStorage) Create(ctx context.Context, mention *models.EntityMention) (*models.EntityMention, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if mention.ID == "" {
		mention.ID = common.NewID("mention_")
	}
	if mention.CreatedAt.IsZero() {
		mention.CreatedAt = time.Now().UTC()
	}

	_, err := s.db.db.ExecContext(ctx, `
		INSERT INTO entity_mentions (id, entity_id, chunk_id, page_number, created_at)
		VALUES (?, ?, ?, ?, ?)`,
		mention.ID, mention.EntityID, mention.ChunkID, mention.PageNumber, mention.CreatedAt.Format(time.RFC3339Nano))
	if err != nil {
		return nil, wrapWriteError(err, "failed to insert entity mention")
	}
	return mention, nil
}

func (s *EntityMentionStorage) ListByEntity(ctx context.Context, entityID string) ([]*models.EntityMention, error) {
	rows, err := s.db.db.QueryContext(ctx,
		"SELECT id, entity_id, chunk_id, page_number, created_at FROM entity_mentions WHERE entity_id = ? ORDER BY created_at ASC", entityID)
	if err != nil {
		return nil, common.Internal("failed to list entity mentions", err)
	}
	defer rows.Close()

	var result []*models.EntityMention
	for rows.Next() {
		var m models.EntityMention
		var createdAt string
		if err := rows.Scan(&m.ID, &m.EntityID, &m.ChunkID, &m.PageNumber, &createdAt); err != nil {
			return nil, common.Internal("failed to scan entity mention row", err)
		}
		m.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdAt)
		result = append(result, &m)
	}
	return result, rows.Err()
}
