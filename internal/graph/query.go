package graph

import (
	"context"
	"sort"

	"github.com/chrisroyse/docprov/internal/interfaces"
	"github.com/chrisroyse/docprov/internal/models"
)

// Querier serves the read-side of the knowledge graph: filtered node
// listing and corpus-wide statistics (§4.7).
type Querier struct {
	nodes interfaces.KnowledgeNodeStorage
	edges interfaces.KnowledgeEdgeStorage
	links interfaces.NodeEntityLinkStorage
}

func NewQuerier(nodes interfaces.KnowledgeNodeStorage, edges interfaces.KnowledgeEdgeStorage, links interfaces.NodeEntityLinkStorage) *Querier {
	return &Querier{nodes: nodes, edges: edges, links: links}
}

// ListNodes applies the AND-combined node filter and, when requested,
// attaches every edge incident to the matched nodes (§4.7).
func (q *Querier) ListNodes(ctx context.Context, opts ListNodesOptions) (*ListNodesResult, error) {
	filter := interfaces.NodeFilter{
		EntityType:       opts.EntityType,
		NameContains:     opts.EntityName,
		MinDocumentCount: opts.MinDocumentCount,
		Limit:            opts.Limit,
	}
	nodes, err := q.nodes.List(ctx, filter)
	if err != nil {
		return nil, err
	}

	result := &ListNodesResult{Nodes: nodes}
	if !opts.IncludeEdges || len(nodes) == 0 {
		return result, nil
	}

	nodeIDs := make([]string, len(nodes))
	for i, n := range nodes {
		nodeIDs[i] = n.ID
	}
	edges, err := q.edges.ListForNodes(ctx, nodeIDs)
	if err != nil {
		return nil, err
	}
	result.Edges = edges
	return result, nil
}

// Stats computes the corpus-wide summary: totals, per-type breakdowns,
// average connectivity, and the most-connected nodes (§4.7).
func (q *Querier) Stats(ctx context.Context) (*GraphStats, error) {
	nodes, err := q.nodes.List(ctx, interfaces.NodeFilter{})
	if err != nil {
		return nil, err
	}
	nodeIDs := make([]string, len(nodes))
	for i, n := range nodes {
		nodeIDs[i] = n.ID
	}
	edges, err := q.edges.ListForNodes(ctx, nodeIDs)
	if err != nil {
		return nil, err
	}

	stats := &GraphStats{
		TotalNodes:  len(nodes),
		TotalEdges:  len(edges),
		NodesByType: map[models.EntityType]int{},
		EdgesByType: map[models.RelationshipType]int{},
	}

	documentsCovered := map[string]struct{}{}
	for _, n := range nodes {
		stats.NodesByType[n.EntityType]++
		if n.DocumentCount > 1 {
			stats.CrossDocumentNodes++
		} else {
			stats.SingleDocumentNodes++
		}
	}
	for _, e := range edges {
		stats.EdgesByType[e.RelationshipType]++
		for _, d := range e.DocumentIDs {
			documentsCovered[d] = struct{}{}
		}
	}
	stats.DocumentsCovered = len(documentsCovered)

	if len(nodes) > 0 {
		stats.AvgEdgesPerNode = 2 * float64(len(edges)) / float64(len(nodes))
	}

	linkCount, err := q.countLinks(ctx, nodes)
	if err != nil {
		return nil, err
	}
	stats.TotalLinks = linkCount

	sorted := make([]*models.KnowledgeNode, len(nodes))
	copy(sorted, nodes)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].EdgeCount > sorted[j].EdgeCount })
	topK := 10
	if len(sorted) < topK {
		topK = len(sorted)
	}
	stats.MostConnectedNodes = sorted[:topK]

	return stats, nil
}

func (q *Querier) countLinks(ctx context.Context, nodes []*models.KnowledgeNode) (int, error) {
	total := 0
	for _, n := range nodes {
		links, err := q.links.ListByNode(ctx, n.ID)
		if err != nil {
			return 0, err
		}
		total += len(links)
	}
	return total, nil
}
