package graph

import (
	"math"
	"sort"

	"github.com/chrisroyse/docprov/internal/common"
	"github.com/chrisroyse/docprov/internal/models"
)

// entityCluster is an in-memory candidate node: one or more Entity rows
// the resolver has decided name the same real-world thing.
type entityCluster struct {
	EntityType          models.EntityType
	CanonicalName       string
	canonicalConfidence float64
	aliasSet            map[string]struct{}
	EntityIDs           []string
	documentIDs         map[string]struct{}
	MentionCount        int
	confidenceSum       float64
	ResolutionType      models.ResolutionType
}

func newClusterFromEntity(e *models.Entity) *entityCluster {
	return &entityCluster{
		EntityType:          e.EntityType,
		CanonicalName:       e.RawText,
		canonicalConfidence: e.Confidence,
		aliasSet:            map[string]struct{}{},
		EntityIDs:           []string{e.ID},
		documentIDs:         map[string]struct{}{e.DocumentID: {}},
		MentionCount:        1,
		confidenceSum:       e.Confidence,
		ResolutionType:      models.ResolutionTypeExact,
	}
}

func (c *entityCluster) DocumentCount() int { return len(c.documentIDs) }

func (c *entityCluster) AvgConfidence() float64 {
	if c.MentionCount == 0 {
		return 0
	}
	v := c.confidenceSum / float64(c.MentionCount)
	return math.Round(v*10000) / 10000
}

func (c *entityCluster) Aliases() []string {
	aliases := make([]string, 0, len(c.aliasSet))
	for a := range c.aliasSet {
		if a != c.CanonicalName {
			aliases = append(aliases, a)
		}
	}
	sort.Strings(aliases)
	return aliases
}

// absorb merges other into c in place, keeping c's canonical name. Callers
// decide which of two clusters is the absorbing side (higher document_count
// wins per §4.6.2).
func (c *entityCluster) absorb(other *entityCluster) {
	c.aliasSet[other.CanonicalName] = struct{}{}
	for a := range other.aliasSet {
		c.aliasSet[a] = struct{}{}
	}
	c.EntityIDs = append(c.EntityIDs, other.EntityIDs...)
	for d := range other.documentIDs {
		c.documentIDs[d] = struct{}{}
	}
	c.MentionCount += other.MentionCount
	c.confidenceSum += other.confidenceSum
	c.ResolutionType = models.ResolutionTypeFuzzy
}

// resolutionStats accumulates across every type bucket for BuildStats.
type resolutionStats struct {
	totalEntities int
	unmatched     int
}

// resolveEntities runs the two-tier resolution (§4.6.2) over every entity,
// grouped first by entity_type, then by exact normalized_text (tier 1),
// then optionally merged by fuzzy similarity (tier 2, fuzzy mode only).
func resolveEntities(entities []*models.Entity, mode models.ResolutionMode, maxPairwise int, fuzzyThreshold float64) ([]*entityCluster, *resolutionStats, error) {
	byType := map[models.EntityType][]*models.Entity{}
	order := []models.EntityType{}
	for _, e := range entities {
		if _, ok := byType[e.EntityType]; !ok {
			order = append(order, e.EntityType)
		}
		byType[e.EntityType] = append(byType[e.EntityType], e)
	}

	stats := &resolutionStats{totalEntities: len(entities)}
	var all []*entityCluster

	for _, entityType := range order {
		bucket := byType[entityType]
		tier1 := resolveTier1(bucket)

		if mode == models.ResolutionFuzzy {
			if len(tier1) > maxPairwise {
				return nil, nil, common.TooManyEntities(
					"too many tier-1 clusters for pairwise fuzzy resolution in one entity type bucket")
			}
			tier1 = resolveTier2(entityType, tier1, fuzzyThreshold)
		}

		all = append(all, tier1...)
	}

	return all, stats, nil
}

// resolveTier1 groups entities by normalized_text within a single type
// bucket, preserving first-seen order for canonical-name tie-breaking.
func resolveTier1(bucket []*models.Entity) []*entityCluster {
	groups := map[string]*entityCluster{}
	var order []string

	for _, e := range bucket {
		c, ok := groups[e.NormalizedText]
		if !ok {
			groups[e.NormalizedText] = newClusterFromEntity(e)
			order = append(order, e.NormalizedText)
			continue
		}
		c.EntityIDs = append(c.EntityIDs, e.ID)
		c.documentIDs[e.DocumentID] = struct{}{}
		c.MentionCount++
		c.confidenceSum += e.Confidence
		if e.Confidence > c.canonicalConfidence {
			if c.CanonicalName != e.RawText {
				c.aliasSet[c.CanonicalName] = struct{}{}
			}
			c.CanonicalName = e.RawText
			c.canonicalConfidence = e.Confidence
		} else if e.RawText != c.CanonicalName {
			c.aliasSet[e.RawText] = struct{}{}
		}
	}

	result := make([]*entityCluster, 0, len(order))
	for _, key := range order {
		result = append(result, groups[key])
	}
	return result
}

// resolveTier2 performs the O(M^2) pairwise fuzzy merge over a type
// bucket's tier-1 clusters (§4.6.2).
func resolveTier2(entityType models.EntityType, clusters []*entityCluster, threshold float64) []*entityCluster {
	merged := make([]bool, len(clusters))

	for i := 0; i < len(clusters); i++ {
		if merged[i] {
			continue
		}
		for j := i + 1; j < len(clusters); j++ {
			if merged[j] {
				continue
			}
			score := combinedSimilarity(entityType, clusters[i].CanonicalName, clusters[j].CanonicalName)
			if score < threshold {
				continue
			}
			winner, loser := clusters[i], clusters[j]
			if loser.DocumentCount() > winner.DocumentCount() {
				winner, loser = loser, winner
			}
			winner.absorb(loser)
			clusters[i] = winner
			merged[j] = true
		}
	}

	result := make([]*entityCluster, 0, len(clusters))
	for i, c := range clusters {
		if !merged[i] {
			result = append(result, c)
		}
	}
	return result
}
