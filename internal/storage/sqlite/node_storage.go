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

// KnowledgeNodeStorage implements typed CRUD over the knowledge_nodes
// table, including the document_count decrement-to-delete lifecycle (§4.6.6).
type KnowledgeNodeStorage struct {
	db     *SQLiteDB
	logger arbor.ILogger
	mu     sync.Mutex
}

var _ interfaces.KnowledgeNodeStorage = (*KnowledgeNodeStorage)(nil)

func NewKnowledgeNodeStorage(db *SQLiteDB, logger arbor.ILogger) *KnowledgeNodeStorage {
	return &KnowledgeNodeStorage{db: db, logger: logger}
}

func (s *KnowledgeNodeStorage) Create(ctx context.Context, node *models.KnowledgeNode) (*models.KnowledgeNode, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if node.ID == "" {
		node.ID = common.NewID("node_")
	}
	now := time.Now().UTC()
	if node.CreatedAt.IsZero() {
		node.CreatedAt = now
	}
	node.UpdatedAt = now
	if node.DocumentCount < 1 {
		node.DocumentCount = 1
	}

	aliasesJSON, err := marshalJSON(node.Aliases)
	if err != nil {
		return nil, common.Internal("failed to marshal aliases", err)
	}
	metadataJSON, err := marshalJSON(node.Metadata)
	if err != nil {
		return nil, common.Internal("failed to marshal node metadata", err)
	}

	_, err = s.db.db.ExecContext(ctx, `
		INSERT INTO knowledge_nodes (
			id, entity_type, canonical_name, normalized_name, aliases, document_count,
			mention_count, edge_count, avg_confidence, importance_score, resolution_type,
			metadata, provenance_id, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		node.ID, string(node.EntityType), node.CanonicalName, node.NormalizedName, aliasesJSON,
		node.DocumentCount, node.MentionCount, node.EdgeCount, node.AvgConfidence, node.ImportanceScore,
		string(node.ResolutionType), metadataJSON, node.ProvenanceID,
		node.CreatedAt.Format(time.RFC3339Nano), node.UpdatedAt.Format(time.RFC3339Nano))
	if err != nil {
		return nil, wrapWriteError(err, "failed to insert knowledge node")
	}
	return node, nil
}

func (s *KnowledgeNodeStorage) Get(ctx context.Context, id string) (*models.KnowledgeNode, error) {
	row := s.db.db.QueryRowContext(ctx, nodeSelectColumns+" FROM knowledge_nodes WHERE id = ?", id)
	n, err := scanKnowledgeNode(row)
	if err == sql.ErrNoRows {
		return nil, common.NotFound("knowledge node not found")
	}
	if err != nil {
		return nil, common.Internal("failed to scan knowledge node", err)
	}
	return n, nil
}

func (s *KnowledgeNodeStorage) GetByCanonicalName(ctx context.Context, entityType models.EntityType, name string) (*models.KnowledgeNode, error) {
	row := s.db.db.QueryRowContext(ctx,
		nodeSelectColumns+" FROM knowledge_nodes WHERE entity_type = ? AND normalized_name = ?",
		string(entityType), name)
	n, err := scanKnowledgeNode(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, common.Internal("failed to scan knowledge node", err)
	}
	return n, nil
}

func (s *KnowledgeNodeStorage) Update(ctx context.Context, node *models.KnowledgeNode) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	node.UpdatedAt = time.Now().UTC()
	aliasesJSON, err := marshalJSON(node.Aliases)
	if err != nil {
		return common.Internal("failed to marshal aliases", err)
	}
	metadataJSON, err := marshalJSON(node.Metadata)
	if err != nil {
		return common.Internal("failed to marshal node metadata", err)
	}

	res, err := s.db.db.ExecContext(ctx, `
		UPDATE knowledge_nodes SET
			canonical_name = ?, normalized_name = ?, aliases = ?, document_count = ?,
			mention_count = ?, edge_count = ?, avg_confidence = ?, importance_score = ?,
			resolution_type = ?, metadata = ?, updated_at = ?
		WHERE id = ?`,
		node.CanonicalName, node.NormalizedName, aliasesJSON, node.DocumentCount, node.MentionCount,
		node.EdgeCount, node.AvgConfidence, node.ImportanceScore, string(node.ResolutionType),
		metadataJSON, node.UpdatedAt.Format(time.RFC3339Nano), node.ID)
	if err != nil {
		return wrapWriteError(err, "failed to update knowledge node")
	}
	return requireRowAffected(res, "knowledge node")
}

// DecrementDocumentCount lowers document_count by one. When it reaches
// zero the node and every edge incident to it are deleted (§4.6.6): a node
// with no supporting document has no reason to exist.
func (s *KnowledgeNodeStorage) DecrementDocumentCount(ctx context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.db.BeginTx(ctx, nil)
	if err != nil {
		return false, common.Internal("failed to begin transaction", err)
	}
	defer tx.Rollback()

	var count int
	if err := tx.QueryRowContext(ctx, "SELECT document_count FROM knowledge_nodes WHERE id = ?", id).Scan(&count); err != nil {
		if err == sql.ErrNoRows {
			return false, common.NotFound("knowledge node not found")
		}
		return false, common.Internal("failed to read document count", err)
	}

	count--
	if count <= 0 {
		if _, err := tx.ExecContext(ctx,
			"DELETE FROM knowledge_edges WHERE source_node_id = ? OR target_node_id = ?", id, id); err != nil {
			return false, wrapWriteError(err, "failed to delete incident edges")
		}
		if _, err := tx.ExecContext(ctx, "DELETE FROM node_entity_links WHERE node_id = ?", id); err != nil {
			return false, wrapWriteError(err, "failed to delete node entity links")
		}
		if _, err := tx.ExecContext(ctx, "DELETE FROM knowledge_nodes WHERE id = ?", id); err != nil {
			return false, wrapWriteError(err, "failed to delete knowledge node")
		}
		if err := tx.Commit(); err != nil {
			return false, common.Internal("failed to commit node deletion", err)
		}
		return true, nil
	}

	if _, err := tx.ExecContext(ctx,
		"UPDATE knowledge_nodes SET document_count = ?, updated_at = ? WHERE id = ?",
		count, time.Now().UTC().Format(time.RFC3339Nano), id); err != nil {
		return false, wrapWriteError(err, "failed to decrement document count")
	}
	if err := tx.Commit(); err != nil {
		return false, common.Internal("failed to commit document count decrement", err)
	}
	return false, nil
}

func (s *KnowledgeNodeStorage) List(ctx context.Context, filter interfaces.NodeFilter) ([]*models.KnowledgeNode, error) {
	var conds []string
	var args []interface{}

	if filter.EntityType != nil {
		conds = append(conds, "entity_type = ?")
		args = append(args, string(*filter.EntityType))
	}
	if filter.NameContains != "" {
		conds = append(conds, "LOWER(canonical_name) LIKE ?")
		args = append(args, "%"+strings.ToLower(filter.NameContains)+"%")
	}
	if filter.MinDocumentCount > 0 {
		conds = append(conds, "document_count >= ?")
		args = append(args, filter.MinDocumentCount)
	}

	query := nodeSelectColumns + " FROM knowledge_nodes"
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY importance_score DESC, document_count DESC"
	if filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", filter.Limit)
	}

	rows, err := s.db.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, common.Internal("failed to list knowledge nodes", err)
	}
	defer rows.Close()

	var result []*models.KnowledgeNode
	for rows.Next() {
		n, err := scanKnowledgeNodeRows(rows)
		if err != nil {
			return nil, common.Internal("failed to scan knowledge node row", err)
		}
		result = append(result, n)
	}
	return result, rows.Err()
}

func (s *KnowledgeNodeStorage) DeleteAll(ctx context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.db.ExecContext(ctx, "DELETE FROM knowledge_nodes")
	if err != nil {
		return 0, wrapWriteError(err, "failed to delete all knowledge nodes")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, common.Internal("failed to read rows affected", err)
	}
	return int(n), nil
}

const nodeSelectColumns = `
	SELECT id, entity_type, canonical_name, normalized_name, aliases, document_count,
	       mention_count, edge_count, avg_confidence, importance_score, resolution_type,
	       metadata, provenance_id, created_at, updated_at`

func scanKnowledgeNode(row *sql.Row) (*models.KnowledgeNode, error) {
	var n models.KnowledgeNode
	var entityType, resolutionType, aliasesJSON, metadataJSON, createdAt, updatedAt string
	err := row.Scan(&n.ID, &entityType, &n.CanonicalName, &n.NormalizedName, &aliasesJSON, &n.DocumentCount,
		&n.MentionCount, &n.EdgeCount, &n.AvgConfidence, &n.ImportanceScore, &resolutionType,
		&metadataJSON, &n.ProvenanceID, &createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}
	return finishKnowledgeNode(&n, entityType, resolutionType, aliasesJSON, metadataJSON, createdAt, updatedAt)
}

func scanKnowledgeNodeRows(rows *sql.Rows) (*models.KnowledgeNode, error) {
	var n models.KnowledgeNode
	var entityType, resolutionType, aliasesJSON, metadataJSON, createdAt, updatedAt string
	err := rows.Scan(&n.ID, &entityType, &n.CanonicalName, &n.NormalizedName, &aliasesJSON, &n.DocumentCount,
		&n.MentionCount, &n.EdgeCount, &n.AvgConfidence, &n.ImportanceScore, &resolutionType,
		&metadataJSON, &n.ProvenanceID, &createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}
	return finishKnowledgeNode(&n, entityType, resolutionType, aliasesJSON, metadataJSON, createdAt, updatedAt)
}

func finishKnowledgeNode(n *models.KnowledgeNode, entityType, resolutionType, aliasesJSON, metadataJSON, createdAt, updatedAt string) (*models.KnowledgeNode, error) {
	n.EntityType = models.EntityType(entityType)
	n.ResolutionType = models.ResolutionType(resolutionType)
	if err := unmarshalJSONInto(aliasesJSON, &n.Aliases); err != nil {
		return nil, err
	}
	if err := unmarshalJSONInto(metadataJSON, &n.Metadata); err != nil {
		return nil, err
	}
	n.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdAt)
	n.UpdatedAt, _ = time.Parse(time.RFC3339Nano, updatedAt)
	return n, nil
}
