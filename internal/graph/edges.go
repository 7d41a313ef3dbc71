package graph

import (
	"github.com/chrisroyse/docprov/internal/models"
)

// edgeCandidate is an in-memory edge before node ids are known, keyed by
// cluster index rather than a persisted node id.
type edgeCandidate struct {
	sourceIdx        int
	targetIdx        int
	relationshipType models.RelationshipType
	weight           float64
	evidenceCount    int
	documentIDs      map[string]struct{}
	metadata         map[string]interface{}
}

type edgeKey struct {
	a, b int
	rel  models.RelationshipType
}

// edgeAccumulator coalesces candidates for the same (source, target,
// relationship_type) by incrementing evidence_count and keeping the
// maximum weight (§4.6.4).
type edgeAccumulator struct {
	order []edgeKey
	byKey map[edgeKey]*edgeCandidate
}

func newEdgeAccumulator() *edgeAccumulator {
	return &edgeAccumulator{byKey: map[edgeKey]*edgeCandidate{}}
}

func (acc *edgeAccumulator) add(i, j int, rel models.RelationshipType, weight float64, docIDs map[string]struct{}, metadata map[string]interface{}) {
	if i > j {
		i, j = j, i
	}
	key := edgeKey{i, j, rel}
	existing, ok := acc.byKey[key]
	if !ok {
		merged := map[string]struct{}{}
		for d := range docIDs {
			merged[d] = struct{}{}
		}
		acc.byKey[key] = &edgeCandidate{
			sourceIdx: i, targetIdx: j, relationshipType: rel,
			weight: weight, evidenceCount: 1, documentIDs: merged, metadata: metadata,
		}
		acc.order = append(acc.order, key)
		return
	}
	existing.evidenceCount++
	if weight > existing.weight {
		existing.weight = weight
	}
	for d := range docIDs {
		existing.documentIDs[d] = struct{}{}
	}
	if metadata != nil {
		if existing.metadata == nil {
			existing.metadata = map[string]interface{}{}
		}
		for k, v := range metadata {
			existing.metadata[k] = v
		}
	}
}

func (acc *edgeAccumulator) candidates() []*edgeCandidate {
	result := make([]*edgeCandidate, 0, len(acc.order))
	for _, key := range acc.order {
		result = append(result, acc.byKey[key])
	}
	return result
}

// sharedDocuments returns the intersection of two clusters' document sets.
func sharedDocuments(a, b *entityCluster) map[string]struct{} {
	shared := map[string]struct{}{}
	small, large := a.documentIDs, b.documentIDs
	if len(large) < len(small) {
		small, large = large, small
	}
	for d := range small {
		if _, ok := large[d]; ok {
			shared[d] = struct{}{}
		}
	}
	return shared
}

func capAt1(w float64) float64 {
	if w > 1.0 {
		return 1.0
	}
	return w
}

// generateEdges runs the three additive edge-generation passes - co-mention,
// co-location, and rule-based type pairing, with the extraction-schema and
// cluster-hint overrides layered on top of the rule-based pass (§4.6.4).
func generateEdges(
	clusters []*entityCluster,
	entityByID map[string]*models.Entity,
	chunksByEntity map[string]map[string]struct{},
	clusterHint string,
) []*edgeCandidate {
	acc := newEdgeAccumulator()

	for i := 0; i < len(clusters); i++ {
		for j := i + 1; j < len(clusters); j++ {
			a, b := clusters[i], clusters[j]

			shared := sharedDocuments(a, b)
			if len(shared) > 0 {
				weight := capAt1(float64(len(shared)) / 3.0)
				acc.add(i, j, models.RelCoMentioned, weight, shared, nil)
			}

			if sharedChunks := sharedChunkIDs(a, b, chunksByEntity); len(sharedChunks) > 0 {
				comentionWeight := capAt1(float64(len(shared)) / 3.0)
				weight := capAt1(comentionWeight * 1.5)
				metadata := map[string]interface{}{"shared_chunk_ids": sortedKeys(sharedChunks)}
				acc.add(i, j, models.RelCoLocated, weight, shared, metadata)
			}

			if rule, ok := lookupRule(a.EntityType, b.EntityType); ok {
				weight := rule.Weight
				relType := rule.RelationshipType

				if sameExtraction(a, b, entityByID) {
					weight = 0.90
				}
				if override, ok := clusterHintOverrides[clusterHint]; ok {
					relType = override.RelationshipType
					weight = override.Weight
				}

				acc.add(i, j, relType, weight, shared, nil)
			}
		}
	}

	return acc.candidates()
}

// sharedChunkIDs returns the chunk ids at which entities from both clusters
// co-occur.
func sharedChunkIDs(a, b *entityCluster, chunksByEntity map[string]map[string]struct{}) map[string]struct{} {
	aChunks := map[string]struct{}{}
	for _, eid := range a.EntityIDs {
		for c := range chunksByEntity[eid] {
			aChunks[c] = struct{}{}
		}
	}
	shared := map[string]struct{}{}
	for _, eid := range b.EntityIDs {
		for c := range chunksByEntity[eid] {
			if _, ok := aChunks[c]; ok {
				shared[c] = struct{}{}
			}
		}
	}
	return shared
}

// sameExtraction reports whether both clusters have at least one member
// entity sharing a common non-nil extraction_id - the
// classify_by_extraction_schema signal (§4.6.4).
func sameExtraction(a, b *entityCluster, entityByID map[string]*models.Entity) bool {
	aExtractions := map[string]struct{}{}
	for _, eid := range a.EntityIDs {
		if e := entityByID[eid]; e != nil && e.ExtractionID != nil {
			aExtractions[*e.ExtractionID] = struct{}{}
		}
	}
	for _, eid := range b.EntityIDs {
		if e := entityByID[eid]; e != nil && e.ExtractionID != nil {
			if _, ok := aExtractions[*e.ExtractionID]; ok {
				return true
			}
		}
	}
	return false
}

func sortedKeys(m map[string]struct{}) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sortStrings(keys)
	return keys
}
