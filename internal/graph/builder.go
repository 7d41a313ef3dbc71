// Package graph implements the knowledge-graph builder and resolver (§4.6):
// two-tier cross-document entity resolution, rule-based relationship
// inference, and the read-side query/path-finding engine built on top of
// the resolved node/edge store.
package graph

import (
	"context"
	"fmt"

	"github.com/ternarybob/arbor"

	"github.com/chrisroyse/docprov/internal/common"
	"github.com/chrisroyse/docprov/internal/interfaces"
	"github.com/chrisroyse/docprov/internal/models"
)

// Builder orchestrates graph construction: loading entities, resolving them
// into nodes, generating edges, and persisting the result (§4.6.1).
type Builder struct {
	provenance interfaces.ProvenanceStorage
	entities   interfaces.EntityStorage
	mentions   interfaces.EntityMentionStorage
	nodes      interfaces.KnowledgeNodeStorage
	edges      interfaces.KnowledgeEdgeStorage
	links      interfaces.NodeEntityLinkStorage
	config     common.GraphConfig
	logger     arbor.ILogger
}

func NewBuilder(
	provenance interfaces.ProvenanceStorage,
	entities interfaces.EntityStorage,
	mentions interfaces.EntityMentionStorage,
	nodes interfaces.KnowledgeNodeStorage,
	edges interfaces.KnowledgeEdgeStorage,
	links interfaces.NodeEntityLinkStorage,
	config common.GraphConfig,
	logger arbor.ILogger,
) *Builder {
	return &Builder{
		provenance: provenance, entities: entities, mentions: mentions,
		nodes: nodes, edges: edges, links: links, config: config, logger: logger,
	}
}

// Build runs the six-phase build: provenance row, load, resolve, persist
// nodes+links, generate+persist edges, update node edge counts (§4.6.1).
// It does not write the kg_stats statistics row. With opts.Rebuild, any
// existing graph data is purged first via the caller-supplied cleanup,
// which issues the DeleteAll calls across the link, node and edge storages.
func (b *Builder) Build(ctx context.Context, cleanup *Cleanup, opts BuildOptions) (*BuildStats, error) {
	if opts.Rebuild {
		if _, err := cleanup.DeleteAllGraphData(ctx); err != nil {
			return nil, err
		}
	} else if existing, err := b.nodes.List(ctx, interfaces.NodeFilter{Limit: 1}); err != nil {
		return nil, err
	} else if len(existing) > 0 {
		return nil, common.GraphAlreadyExists("a knowledge graph already exists; pass rebuild=true to replace it")
	}

	entities, err := b.entities.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	if len(entities) == 0 {
		return nil, common.NoEntitiesFound("no entities have been extracted; nothing to build a graph from")
	}

	mode := opts.ResolutionMode
	if mode == "" {
		mode = models.ResolutionFuzzy
	}
	maxPairwise := b.config.MaxEntitiesForPairwise
	if maxPairwise <= 0 {
		maxPairwise = 2000
	}
	threshold := b.config.FuzzyMatchThreshold
	if threshold <= 0 {
		threshold = 0.85
	}

	clusters, stats, err := resolveEntities(entities, mode, maxPairwise, threshold)
	if err != nil {
		return nil, err
	}

	buildProvenanceID, err := b.createBuildProvenance(ctx)
	if err != nil {
		return nil, err
	}

	entityByID := make(map[string]*models.Entity, len(entities))
	for _, e := range entities {
		entityByID[e.ID] = e
	}

	nodeIDs := make([]string, len(clusters))
	crossDocCount, singleDocCount := 0, 0
	chunksByEntity := map[string]map[string]struct{}{}

	for i, c := range clusters {
		node := &models.KnowledgeNode{
			EntityType:      c.EntityType,
			CanonicalName:   c.CanonicalName,
			NormalizedName:  normalizeAbbreviations(c.CanonicalName),
			Aliases:         c.Aliases(),
			DocumentCount:   c.DocumentCount(),
			MentionCount:    c.MentionCount,
			AvgConfidence:   c.AvgConfidence(),
			ResolutionType:  c.ResolutionType,
			Metadata:        map[string]interface{}{},
			ProvenanceID:    buildProvenanceID,
			ImportanceScore: computeImportanceScore(c.DocumentCount(), c.MentionCount),
		}
		created, err := b.nodes.Create(ctx, node)
		if err != nil {
			return nil, fmt.Errorf("creating node for cluster %q: %w", c.CanonicalName, err)
		}
		nodeIDs[i] = created.ID

		if c.DocumentCount() > 1 {
			crossDocCount++
		} else {
			singleDocCount++
		}

		for rank, entityID := range c.EntityIDs {
			link := &models.NodeEntityLink{
				NodeID:           created.ID,
				EntityID:         entityID,
				DocumentID:       entityByID[entityID].DocumentID,
				SimilarityScore:  clusterMemberScore(rank, c),
				ResolutionMethod: c.ResolutionType,
			}
			if _, err := b.links.Create(ctx, link); err != nil {
				return nil, fmt.Errorf("linking entity %s to node %s: %w", entityID, created.ID, err)
			}

			mentionRows, err := b.mentions.ListByEntity(ctx, entityID)
			if err != nil {
				return nil, err
			}
			set := chunksByEntity[entityID]
			if set == nil {
				set = map[string]struct{}{}
				chunksByEntity[entityID] = set
			}
			for _, m := range mentionRows {
				if m.ChunkID != nil {
					set[*m.ChunkID] = struct{}{}
				}
			}
		}
	}

	candidates := generateEdges(clusters, entityByID, chunksByEntity, opts.ClusterHint)
	edgeCount := make([]int, len(clusters))
	for _, cand := range candidates {
		edge := &models.KnowledgeEdge{
			SourceNodeID:     nodeIDs[cand.sourceIdx],
			TargetNodeID:     nodeIDs[cand.targetIdx],
			RelationshipType: cand.relationshipType,
			Weight:           cand.weight,
			EvidenceCount:    cand.evidenceCount,
			DocumentIDs:      sortedKeys(cand.documentIDs),
			Metadata:         cand.metadata,
		}
		applyTemporalInference(edge, clusters[cand.sourceIdx], clusters[cand.targetIdx])
		if _, err := b.edges.Create(ctx, edge); err != nil {
			return nil, fmt.Errorf("creating edge %s -> %s: %w", edge.SourceNodeID, edge.TargetNodeID, err)
		}
		edgeCount[cand.sourceIdx]++
		edgeCount[cand.targetIdx]++
	}

	for i, c := range clusters {
		if edgeCount[i] == 0 {
			continue
		}
		node, err := b.nodes.Get(ctx, nodeIDs[i])
		if err != nil {
			return nil, err
		}
		node.EdgeCount = edgeCount[i]
		node.ImportanceScore = computeImportanceScore(c.DocumentCount(), c.MentionCount+edgeCount[i])
		if err := b.nodes.Update(ctx, node); err != nil {
			return nil, err
		}
	}

	return &BuildStats{
		TotalEntities:       stats.totalEntities,
		ResolvedNodes:       len(clusters),
		CrossDocumentNodes:  crossDocCount,
		SingleDocumentNodes: singleDocCount,
		Unmatched:           stats.unmatched,
		EdgesCreated:        len(candidates),
	}, nil
}

// createBuildProvenance records the graph build itself as a KNOWLEDGE_GRAPH
// provenance row, parented on the synthetic orphaned root since a build
// spans the whole corpus rather than any one document (§4.5, §4.6.1).
func (b *Builder) createBuildProvenance(ctx context.Context) (string, error) {
	root, err := b.provenance.EnsureOrphanedRoot(ctx)
	if err != nil {
		return "", err
	}
	p, err := b.provenance.Create(ctx, models.ProvenanceSpec{
		Type:        models.ProvenanceKnowledgeGraph,
		SourceType:  "graph_builder",
		ParentID:    &root.ID,
		ContentHash: common.ComputeHash(root.ID),
		Processor:   "graph-builder",
	})
	if err != nil {
		return "", err
	}
	return p.ID, nil
}

// clusterMemberScore reports an entity's per-member similarity score within
// its resolved cluster: 1.0 for the canonical member, the cluster's
// resolution-tier confidence for everyone folded in afterward.
func clusterMemberScore(rank int, c *entityCluster) float64 {
	if rank == 0 {
		return 1.0
	}
	if c.ResolutionType == models.ResolutionTypeFuzzy {
		return c.AvgConfidence()
	}
	return 1.0
}

// computeImportanceScore blends cross-document reach with connectivity: two
// nodes seen in the same number of documents but with more edges or
// mentions rank higher. Not specified beyond the node carrying the field;
// this formula is an Open Question decision recorded in the design ledger.
func computeImportanceScore(documentCount, activity int) float64 {
	return float64(documentCount) + 0.1*float64(activity)
}

// applyTemporalInference fills an occurred_at edge's valid_from from a
// date-typed endpoint cluster whose canonical name parses as a date, when
// valid_from is still unset (§4.6.4). valid_until is never set, and an
// already-set valid_from is never narrowed.
func applyTemporalInference(edge *models.KnowledgeEdge, a, b *entityCluster) {
	if edge.RelationshipType != models.RelOccurredAt {
		return
	}
	candidate := ""
	if a.EntityType == models.EntityDate {
		candidate = a.CanonicalName
	} else if b.EntityType == models.EntityDate {
		candidate = b.CanonicalName
	} else {
		return
	}

	parsed, ok := parseCanonicalDate(candidate)
	if !ok {
		return
	}
	if moreSpecific(edge.ValidFrom, parsed) {
		edge.ValidFrom = &parsed
	}
}
