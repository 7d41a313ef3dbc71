package graph

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"

	"github.com/chrisroyse/docprov/internal/common"
	"github.com/chrisroyse/docprov/internal/models"
	"github.com/chrisroyse/docprov/internal/storage/sqlite"
)

// newPathfindTestStore opens a fresh file-backed database for pathfinding
// tests, matching the teacher-style setupTestDB(t) pattern used by the
// sqlite package's own tests.
func newPathfindTestStore(t *testing.T) *sqlite.Store {
	t.Helper()

	tempDir := t.TempDir()
	config := &common.StorageConfig{
		Path:             tempDir + "/test.db",
		BusyTimeoutMS:    5000,
		CacheSizeKB:      2000,
		EmbeddingDim:     4,
		FilesystemRoot:   tempDir,
		DefaultListLimit: 1000,
	}
	store, err := sqlite.Open(arbor.NewLogger(), config, "test")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func createPathfindNode(t *testing.T, ctx context.Context, store *sqlite.Store, name string) *models.KnowledgeNode {
	t.Helper()

	orphanRoot, err := store.Provenance.EnsureOrphanedRoot(ctx)
	require.NoError(t, err)

	prov, err := store.Provenance.Create(ctx, models.ProvenanceSpec{
		Type:        models.ProvenanceKnowledgeGraph,
		SourceType:  "graph_builder",
		ParentID:    &orphanRoot.ID,
		ContentHash: common.ComputeHash(name),
		Processor:   "test-harness",
	})
	require.NoError(t, err)

	node, err := store.Nodes.Create(ctx, &models.KnowledgeNode{
		EntityType:    models.EntityPerson,
		CanonicalName: name,
		ProvenanceID:  prov.ID,
		DocumentCount: 1,
	})
	require.NoError(t, err)
	return node
}

func createPathfindEdge(t *testing.T, ctx context.Context, store *sqlite.Store, a, b *models.KnowledgeNode, relType models.RelationshipType) {
	t.Helper()

	_, err := store.Edges.Create(ctx, &models.KnowledgeEdge{
		SourceNodeID:     a.ID,
		TargetNodeID:     b.ID,
		RelationshipType: relType,
		Weight:           0.9,
		EvidenceCount:    1,
		DocumentIDs:      []string{"doc1"},
	})
	require.NoError(t, err)
}

// TestFindPaths_BoundedBFS exercises S5: a chain A-B-C-D plus a side edge
// B-E. max_hops=1 finds nothing between A and D, max_hops=3 finds the one
// length-3 path, and restricting the walk to co_mentioned edges still finds
// it since the A-B-C-D chain never touches the co_located B-E edge.
func TestFindPaths_BoundedBFS(t *testing.T) {
	store := newPathfindTestStore(t)
	ctx := context.Background()

	a := createPathfindNode(t, ctx, store, "A")
	b := createPathfindNode(t, ctx, store, "B")
	c := createPathfindNode(t, ctx, store, "C")
	d := createPathfindNode(t, ctx, store, "D")
	e := createPathfindNode(t, ctx, store, "E")

	createPathfindEdge(t, ctx, store, a, b, models.RelCoMentioned)
	createPathfindEdge(t, ctx, store, b, c, models.RelCoMentioned)
	createPathfindEdge(t, ctx, store, c, d, models.RelCoMentioned)
	createPathfindEdge(t, ctx, store, b, e, models.RelCoLocated)

	finder := NewPathFinder(store.Nodes, store.Edges)

	tooShort, err := finder.FindPaths(ctx, a.ID, d.ID, FindPathsOptions{MaxHops: 1})
	require.NoError(t, err)
	assert.Empty(t, tooShort.Paths)

	full, err := finder.FindPaths(ctx, a.ID, d.ID, FindPathsOptions{MaxHops: 3})
	require.NoError(t, err)
	require.Len(t, full.Paths, 1)
	assert.Equal(t, []string{a.ID, b.ID, c.ID, d.ID}, full.Paths[0].NodeIDs)

	filtered, err := finder.FindPaths(ctx, a.ID, d.ID, FindPathsOptions{
		MaxHops:            3,
		RelationshipFilter: []models.RelationshipType{models.RelCoMentioned},
	})
	require.NoError(t, err)
	require.Len(t, filtered.Paths, 1)
	assert.Equal(t, []string{a.ID, b.ID, c.ID, d.ID}, filtered.Paths[0].NodeIDs)
}
