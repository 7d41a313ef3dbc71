package graph

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chrisroyse/docprov/internal/common"
	"github.com/chrisroyse/docprov/internal/models"
)

// TestResolveEntities_FuzzyMergesNameVariants exercises S3: three person
// entities from three different documents, each a plausible variant of the
// same name at a different confidence, resolve into exactly one node with
// three document memberships.
func TestResolveEntities_FuzzyMergesNameVariants(t *testing.T) {
	entities := []*models.Entity{
		{ID: "e1", DocumentID: "doc1", EntityType: models.EntityPerson, RawText: "John Smith", NormalizedText: "john smith", Confidence: 0.95},
		{ID: "e2", DocumentID: "doc2", EntityType: models.EntityPerson, RawText: "John D. Smith", NormalizedText: "john d. smith", Confidence: 0.91},
		{ID: "e3", DocumentID: "doc3", EntityType: models.EntityPerson, RawText: "J. Smith", NormalizedText: "j. smith", Confidence: 0.80},
	}

	clusters, stats, err := resolveEntities(entities, models.ResolutionFuzzy, 5000, 0.85)
	require.NoError(t, err)
	require.Len(t, clusters, 1)

	node := clusters[0]
	assert.Equal(t, "John Smith", node.CanonicalName)
	assert.Equal(t, 3, node.DocumentCount())
	assert.Equal(t, 3, node.MentionCount)
	assert.ElementsMatch(t, []string{"e1", "e2", "e3"}, node.EntityIDs)
	assert.Equal(t, 3, stats.totalEntities)
}

// TestResolveEntities_TooManyEntitiesFails exercises S7: fuzzy resolution
// over more tier-1 clusters than the configured pairwise cap fails loud
// with TOO_MANY_ENTITIES rather than silently truncating or running an
// O(n^2) pairwise pass the system was never sized for.
func TestResolveEntities_TooManyEntitiesFails(t *testing.T) {
	const maxPairwise = 5000
	entities := make([]*models.Entity, maxPairwise+1)
	for i := range entities {
		entities[i] = &models.Entity{
			ID:             fmt.Sprintf("e%d", i),
			DocumentID:     "doc1",
			EntityType:     models.EntityPerson,
			RawText:        fmt.Sprintf("Person Number %d", i),
			NormalizedText: fmt.Sprintf("person number %d", i),
			Confidence:     0.9,
		}
	}

	_, _, err := resolveEntities(entities, models.ResolutionFuzzy, maxPairwise, 0.85)
	require.Error(t, err)
	assert.Equal(t, common.CategoryTooManyEntities, common.AsAppError(err).Category)
}
