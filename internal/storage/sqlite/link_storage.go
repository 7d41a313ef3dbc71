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

// NodeEntityLinkStorage implements typed CRUD over the node_entity_links
// table, the many-to-one link from a raw per-document Entity to the
// KnowledgeNode it resolved into.
type NodeEntityLinkStorage struct {
	db     *SQLiteDB
	logger arbor.ILogger
	mu     sync.Mutex
}

var _ interfaces.NodeEntityLinkStorage = (*NodeEntityLinkStorage)(nil)

func NewNodeEntityLinkStorage(db *SQLiteDB, logger arbor.ILogger) *NodeEntityLinkStorage {
	return &NodeEntityLinkStorage{db: db, logger: logger}
}

func (s *NodeEntityLinkStorage) Create(ctx context.Context, link *models.NodeEntityLink) (*models.NodeEntityLink, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if link.ID == "" {
		link.ID = common.NewID("link_")
	}
	if link.CreatedAt.IsZero() {
		link.CreatedAt = time.Now().UTC()
	}

	_, err := s.db.db.ExecContext(ctx, `
		INSERT INTO node_entity_links (
			id, node_id, entity_id, document_id, similarity_score, resolution_method, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		link.ID, link.NodeID, link.EntityID, link.DocumentID, link.SimilarityScore,
		string(link.ResolutionMethod), link.CreatedAt.Format(time.RFC3339Nano))
	if err != nil {
		return nil, wrapWriteError(err, "failed to insert node entity link")
	}
	return link, nil
}

func (s *NodeEntityLinkStorage) GetByEntity(ctx context.Context, entityID string) (*models.NodeEntityLink, error) {
	row := s.db.db.QueryRowContext(ctx, linkSelectColumns+" FROM node_entity_links WHERE entity_id = ?", entityID)
	l, err := scanLink(row)
	if err == sql.ErrNoRows {
		return nil, common.NotFound("node entity link not found")
	}
	if err != nil {
		return nil, common.Internal("failed to scan node entity link", err)
	}
	return l, nil
}

func (s *NodeEntityLinkStorage) ListByNode(ctx context.Context, nodeID string) ([]*models.NodeEntityLink, error) {
	rows, err := s.db.db.QueryContext(ctx, linkSelectColumns+" FROM node_entity_links WHERE node_id = ?", nodeID)
	if err != nil {
		return nil, common.Internal("failed to list node entity links", err)
	}
	defer rows.Close()
	return scanLinkRows(rows)
}

func (s *NodeEntityLinkStorage) ListByDocument(ctx context.Context, documentID string) ([]*models.NodeEntityLink, error) {
	rows, err := s.db.db.QueryContext(ctx, linkSelectColumns+" FROM node_entity_links WHERE document_id = ?", documentID)
	if err != nil {
		return nil, common.Internal("failed to list node entity links", err)
	}
	defer rows.Close()
	return scanLinkRows(rows)
}

// DeleteByDocument removes every link owned by a document and returns the
// removed rows so the caller can decrement the document_count of each
// referenced node (§4.6.6, cleanup_for_document).
func (s *NodeEntityLinkStorage) DeleteByDocument(ctx context.Context, documentID string) ([]*models.NodeEntityLink, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	links, err := s.ListByDocument(ctx, documentID)
	if err != nil {
		return nil, err
	}
	if _, err := s.db.db.ExecContext(ctx, "DELETE FROM node_entity_links WHERE document_id = ?", documentID); err != nil {
		return nil, wrapWriteError(err, "failed to delete node entity links for document")
	}
	return links, nil
}

func (s *NodeEntityLinkStorage) DeleteAll(ctx context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.db.ExecContext(ctx, "DELETE FROM node_entity_links")
	if err != nil {
		return 0, wrapWriteError(err, "failed to delete all node entity links")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, common.Internal("failed to read rows affected", err)
	}
	return int(n), nil
}

const linkSelectColumns = `
	SELECT id, node_id, entity_id, document_id, similarity_score, resolution_method, created_at`

func scanLink(row *sql.Row) (*models.NodeEntityLink, error) {
	var l models.NodeEntityLink
	var method, createdAt string
	err := row.Scan(&l.ID, &l.NodeID, &l.EntityID, &l.DocumentID, &l.SimilarityScore, &method, &createdAt)
	if err != nil {
		return nil, err
	}
	l.ResolutionMethod = models.ResolutionType(method)
	l.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdAt)
	return &l, nil
}

func scanLinkRows(rows *sql.Rows) ([]*models.NodeEntityLink, error) {
	var result []*models.NodeEntityLink
	for rows.Next() {
		var l models.NodeEntityLink
		var method, createdAt string
		if err := rows.Scan(&l.ID, &l.NodeID, &l.EntityID, &l.DocumentID, &l.SimilarityScore, &method, &createdAt); err != nil {
			return nil, common.Internal("failed to scan node entity link row", err)
		}
		l.ResolutionMethod = models.ResolutionType(method)
		l.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdAt)
		result = append(result, &l)
	}
	return result, rows.Err()
}
