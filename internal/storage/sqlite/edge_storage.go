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

// KnowledgeEdgeStorage implements typed CRUD over the knowledge_edges table.
type KnowledgeEdgeStorage struct {
	db     *SQLiteDB
	logger arbor.ILogger
	mu     sync.Mutex
}

var _ interfaces.KnowledgeEdgeStorage = (*KnowledgeEdgeStorage)(nil)

func NewKnowledgeEdgeStorage(db *SQLiteDB, logger arbor.ILogger) *KnowledgeEdgeStorage {
	return &KnowledgeEdgeStorage{db: db, logger: logger}
}

func (s *KnowledgeEdgeStorage) Create(ctx context.Context, edge *models.KnowledgeEdge) (*models.KnowledgeEdge, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if edge.Weight <= 0 || edge.Weight > 1 {
		return nil, common.Validation("edge weight must be in (0, 1]")
	}
	if edge.ID == "" {
		edge.ID = common.NewID("edge_")
	}
	now := time.Now().UTC()
	if edge.CreatedAt.IsZero() {
		edge.CreatedAt = now
	}
	edge.UpdatedAt = now
	if edge.EvidenceCount < 1 {
		edge.EvidenceCount = 1
	}

	docIDsJSON, err := marshalJSON(edge.DocumentIDs)
	if err != nil {
		return nil, common.Internal("failed to marshal document_ids", err)
	}
	metadataJSON, err := marshalJSON(edge.Metadata)
	if err != nil {
		return nil, common.Internal("failed to marshal edge metadata", err)
	}

	_, err = s.db.db.ExecContext(ctx, `
		INSERT INTO knowledge_edges (
			id, source_node_id, target_node_id, relationship_type, weight, evidence_count,
			document_ids, valid_from, valid_until, normalized_weight, contradiction_count,
			metadata, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		edge.ID, edge.SourceNodeID, edge.TargetNodeID, string(edge.RelationshipType), edge.Weight,
		edge.EvidenceCount, docIDsJSON, edge.ValidFrom, edge.ValidUntil, edge.NormalizedWeight,
		edge.ContradictionCount, metadataJSON, edge.CreatedAt.Format(time.RFC3339Nano), edge.UpdatedAt.Format(time.RFC3339Nano))
	if err != nil {
		return nil, wrapWriteError(err, "failed to insert knowledge edge")
	}
	return edge, nil
}

func (s *KnowledgeEdgeStorage) Get(ctx context.Context, id string) (*models.KnowledgeEdge, error) {
	row := s.db.db.QueryRowContext(ctx, edgeSelectColumns+" FROM knowledge_edges WHERE id = ?", id)
	e, err := scanKnowledgeEdge(row)
	if err == sql.ErrNoRows {
		return nil, common.NotFound("knowledge edge not found")
	}
	if err != nil {
		return nil, common.Internal("failed to scan knowledge edge", err)
	}
	return e, nil
}

// FindByEndpoints looks up an existing edge between an unordered node pair.
// Edges are stored once in a fixed direction, so both orderings are checked.
func (s *KnowledgeEdgeStorage) FindByEndpoints(ctx context.Context, nodeA, nodeB string, relType models.RelationshipType) (*models.KnowledgeEdge, error) {
	row := s.db.db.QueryRowContext(ctx, edgeSelectColumns+` FROM knowledge_edges
		WHERE relationship_type = ? AND (
			(source_node_id = ? AND target_node_id = ?) OR
			(source_node_id = ? AND target_node_id = ?)
		)`, string(relType), nodeA, nodeB, nodeB, nodeA)
	e, err := scanKnowledgeEdge(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, common.Internal("failed to scan knowledge edge", err)
	}
	return e, nil
}

func (s *KnowledgeEdgeStorage) Update(ctx context.Context, edge *models.KnowledgeEdge) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	edge.UpdatedAt = time.Now().UTC()
	docIDsJSON, err := marshalJSON(edge.DocumentIDs)
	if err != nil {
		return common.Internal("failed to marshal document_ids", err)
	}
	metadataJSON, err := marshalJSON(edge.Metadata)
	if err != nil {
		return common.Internal("failed to marshal edge metadata", err)
	}

	res, err := s.db.db.ExecContext(ctx, `
		UPDATE knowledge_edges SET
			weight = ?, evidence_count = ?, document_ids = ?, valid_from = ?, valid_until = ?,
			normalized_weight = ?, contradiction_count = ?, metadata = ?, updated_at = ?
		WHERE id = ?`,
		edge.Weight, edge.EvidenceCount, docIDsJSON, edge.ValidFrom, edge.ValidUntil,
		edge.NormalizedWeight, edge.ContradictionCount, metadataJSON, edge.UpdatedAt.Format(time.RFC3339Nano), edge.ID)
	if err != nil {
		return wrapWriteError(err, "failed to update knowledge edge")
	}
	return requireRowAffected(res, "knowledge edge")
}

func (s *KnowledgeEdgeStorage) ListForNodes(ctx context.Context, nodeIDs []string) ([]*models.KnowledgeEdge, error) {
	if len(nodeIDs) == 0 {
		return nil, nil
	}
	placeholders := make([]string, len(nodeIDs))
	args := make([]interface{}, 0, len(nodeIDs)*2)
	for i, id := range nodeIDs {
		placeholders[i] = "?"
		args = append(args, id)
	}
	inClause := strings.Join(placeholders, ", ")
	args = append(args, args...) // duplicate for source and target IN clauses

	query := fmt.Sprintf(edgeSelectColumns+` FROM knowledge_edges
		WHERE source_node_id IN (%s) OR target_node_id IN (%s)`, inClause, inClause)

	rows, err := s.db.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, common.Internal("failed to list edges for nodes", err)
	}
	defer rows.Close()
	return scanKnowledgeEdgeRows(rows)
}

func (s *KnowledgeEdgeStorage) ListByRelationshipFilter(ctx context.Context, nodeIDs []string, relTypes []models.RelationshipType) ([]*models.KnowledgeEdge, error) {
	if len(nodeIDs) == 0 {
		return nil, nil
	}
	nodePlaceholders := make([]string, len(nodeIDs))
	args := make([]interface{}, 0, len(nodeIDs)*2+len(relTypes))
	for i, id := range nodeIDs {
		nodePlaceholders[i] = "?"
		args = append(args, id)
	}
	nodeIn := strings.Join(nodePlaceholders, ", ")
	args = append(args, args...)

	query := fmt.Sprintf(edgeSelectColumns+` FROM knowledge_edges
		WHERE (source_node_id IN (%s) OR target_node_id IN (%s))`, nodeIn, nodeIn)

	if len(relTypes) > 0 {
		relPlaceholders := make([]string, len(relTypes))
		for i, rt := range relTypes {
			relPlaceholders[i] = "?"
			args = append(args, string(rt))
		}
		query += fmt.Sprintf(" AND relationship_type IN (%s)", strings.Join(relPlaceholders, ", "))
	}

	rows, err := s.db.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, common.Internal("failed to list filtered edges", err)
	}
	defer rows.Close()
	return scanKnowledgeEdgeRows(rows)
}

func (s *KnowledgeEdgeStorage) DeleteAll(ctx context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.db.ExecContext(ctx, "DELETE FROM knowledge_edges")
	if err != nil {
		return 0, wrapWriteError(err, "failed to delete all knowledge edges")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, common.Internal("failed to read rows affected", err)
	}
	return int(n), nil
}

const edgeSelectColumns = `
	SELECT id, source_node_id, target_node_id, relationship_type, weight, evidence_count,
	       document_ids, valid_from, valid_until, normalized_weight, contradiction_count,
	       metadata, created_at, updated_at`

func scanKnowledgeEdge(row *sql.Row) (*models.KnowledgeEdge, error) {
	var e models.KnowledgeEdge
	var relType, docIDsJSON, metadataJSON, createdAt, updatedAt string
	err := row.Scan(&e.ID, &e.SourceNodeID, &e.TargetNodeID, &relType, &e.Weight, &e.EvidenceCount,
		&docIDsJSON, &e.ValidFrom, &e.ValidUntil, &e.NormalizedWeight, &e.ContradictionCount,
		&metadataJSON, &createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}
	return finishKnowledgeEdge(&e, relType, docIDsJSON, metadataJSON, createdAt, updatedAt)
}

func scanKnowledgeEdgeRows(rows *sql.Rows) ([]*models.KnowledgeEdge, error) {
	var result []*models.KnowledgeEdge
	for rows.Next() {
		var e models.KnowledgeEdge
		var relType, docIDsJSON, metadataJSON, createdAt, updatedAt string
		if err := rows.Scan(&e.ID, &e.SourceNodeID, &e.TargetNodeID, &relType, &e.Weight, &e.EvidenceCount,
			&docIDsJSON, &e.ValidFrom, &e.ValidUntil, &e.NormalizedWeight, &e.ContradictionCount,
			&metadataJSON, &createdAt, &updatedAt); err != nil {
			return nil, common.Internal("failed to scan knowledge edge row", err)
		}
		edge, err := finishKnowledgeEdge(&e, relType, docIDsJSON, metadataJSON, createdAt, updatedAt)
		if err != nil {
			return nil, err
		}
		result = append(result, edge)
	}
	return result, rows.Err()
}

func finishKnowledgeEdge(e *models.KnowledgeEdge, relType, docIDsJSON, metadataJSON, createdAt, updatedAt string) (*models.KnowledgeEdge, error) {
	e.RelationshipType = models.RelationshipType(relType)
	if err := unmarshalJSONInto(docIDsJSON, &e.DocumentIDs); err != nil {
		return nil, err
	}
	if err := unmarshalJSONInto(metadataJSON, &e.Metadata); err != nil {
		return nil, err
	}
	e.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdAt)
	e.UpdatedAt, _ = time.Parse(time.RFC3339Nano, updatedAt)
	return e, nil
}
