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

// ClusterStorage implements typed CRUD over the clusters and
// document_clusters tables.
type ClusterStorage struct {
	db     *SQLiteDB
	logger arbor.ILogger
	mu     sync.Mutex
}

var _ interfaces.ClusterStorage = (*ClusterStorage)(nil)

func NewClusterStorage(db *SQLiteDB, logger arbor.ILogger) *ClusterStorage {
	return &ClusterStorage{db: db, logger: logger}
}

func (s *ClusterStorage) Create(ctx context.Context, cluster *models.Cluster) (*models.Cluster, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if cluster.ID == "" {
		cluster.ID = common.NewID("cluster_")
	}
	if cluster.CreatedAt.IsZero() {
		cluster.CreatedAt = time.Now().UTC()
	}

	_, err := s.db.db.ExecContext(ctx, `
		INSERT INTO clusters (id, provenance_id, label, document_count, created_at)
		VALUES (?, ?, ?, ?, ?)`,
		cluster.ID, cluster.ProvenanceID, cluster.Label, cluster.DocumentCount, cluster.CreatedAt.Format(time.RFC3339Nano))
	if err != nil {
		return nil, wrapWriteError(err, "failed to insert cluster")
	}
	return cluster, nil
}

func (s *ClusterStorage) AssignDocument(ctx context.Context, assignment *models.DocumentClusterAssignment) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if assignment.ID == "" {
		assignment.ID = common.NewID("docclust_")
	}
	if assignment.AssignedAt.IsZero() {
		assignment.AssignedAt = time.Now().UTC()
	}

	_, err := s.db.db.ExecContext(ctx, `
		INSERT INTO document_clusters (id, document_id, cluster_id, similarity_to_centroid, assigned_at)
		VALUES (?, ?, ?, ?, ?)`,
		assignment.ID, assignment.DocumentID, assignment.ClusterID, assignment.SimilarityToCentroid,
		assignment.AssignedAt.Format(time.RFC3339Nano))
	if err != nil {
		return wrapWriteError(err, "failed to insert document cluster assignment")
	}
	return nil
}

func (s *ClusterStorage) ListAssignmentsForDocument(ctx context.Context, documentID string) ([]*models.DocumentClusterAssignment, error) {
	rows, err := s.db.db.QueryContext(ctx,
		"SELECT id, document_id, cluster_id, similarity_to_centroid, assigned_at FROM document_clusters WHERE document_id = ?",
		documentID)
	if err != nil {
		return nil, common.Internal("failed to list document cluster assignments", err)
	}
	defer rows.Close()

	var result []*models.DocumentClusterAssignment
	for rows.Next() {
		var a models.DocumentClusterAssignment
		var assignedAt string
		if err := rows.Scan(&a.ID, &a.DocumentID, &a.ClusterID, &a.SimilarityToCentroid, &assignedAt); err != nil {
			return nil, common.Internal("failed to scan document cluster assignment", err)
		}
		a.AssignedAt, _ = time.Parse(time.RFC3339Nano, assignedAt)
		result = append(result, &a)
	}
	return result, rows.Err()
}

func (s *ClusterStorage) DecrementDocumentCount(ctx context.Context, clusterID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.db.ExecContext(ctx,
		"UPDATE clusters SET document_count = MAX(document_count - 1, 0) WHERE id = ?", clusterID)
	if err != nil {
		return wrapWriteError(err, "failed to decrement cluster document count")
	}
	return requireRowAffected(res, "cluster")
}
