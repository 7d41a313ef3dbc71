package graph

import (
	"context"

	"github.com/ternarybob/arbor"

	"github.com/chrisroyse/docprov/internal/interfaces"
)

// Cleanup performs graph-data teardown outside of the document-delete
// cascade: a full wipe before a rebuild, or a standalone per-document purge
// when a caller wants graph cleanup without deleting the document itself
// (§4.6.6). The cascade controller's own cleanupGraphForDocument handles the
// transaction-scoped variant that runs inside a document delete; this path
// is for graph-only maintenance and isn't transactional across the three
// tables, matching how the DAL's other non-cascade writes behave.
type Cleanup struct {
	links  interfaces.NodeEntityLinkStorage
	nodes  interfaces.KnowledgeNodeStorage
	edges  interfaces.KnowledgeEdgeStorage
	logger arbor.ILogger
}

func NewCleanup(links interfaces.NodeEntityLinkStorage, nodes interfaces.KnowledgeNodeStorage, edges interfaces.KnowledgeEdgeStorage, logger arbor.ILogger) *Cleanup {
	return &Cleanup{links: links, nodes: nodes, edges: edges, logger: logger}
}

// DeleteAllGraphData drops every edge, link, and node - the full-wipe path
// used ahead of a rebuild (§4.6.6).
func (c *Cleanup) DeleteAllGraphData(ctx context.Context) (CleanupResult, error) {
	edgesDeleted, err := c.edges.DeleteAll(ctx)
	if err != nil {
		return CleanupResult{}, err
	}
	linksDeleted, err := c.links.DeleteAll(ctx)
	if err != nil {
		return CleanupResult{}, err
	}
	nodesDeleted, err := c.nodes.DeleteAll(ctx)
	if err != nil {
		return CleanupResult{}, err
	}
	if c.logger != nil {
		c.logger.Info().
			Int("nodes_deleted", nodesDeleted).
			Int("edges_deleted", edgesDeleted).
			Int("links_deleted", linksDeleted).
			Msg("Deleted all graph data")
	}
	return CleanupResult{NodesDeleted: nodesDeleted, EdgesDeleted: edgesDeleted, LinksDeleted: linksDeleted}, nil
}

// CleanupForDocument removes a single document's node_entity_links and
// decrements the document_count of every node it touched, deleting a node
// (and its incident edges, via DecrementDocumentCount) when it reaches zero
// (§4.6.6). Used outside the document-delete cascade, e.g. a
// "re-extract this document's entities" workflow that needs a clean slate
// without deleting the document itself.
func (c *Cleanup) CleanupForDocument(ctx context.Context, documentID string) (CleanupResult, error) {
	removedLinks, err := c.links.DeleteByDocument(ctx, documentID)
	if err != nil {
		return CleanupResult{}, err
	}

	nodeIDs := map[string]struct{}{}
	for _, l := range removedLinks {
		nodeIDs[l.NodeID] = struct{}{}
	}

	nodesDeleted := 0
	for nodeID := range nodeIDs {
		deleted, err := c.nodes.DecrementDocumentCount(ctx, nodeID)
		if err != nil {
			return CleanupResult{}, err
		}
		if deleted {
			nodesDeleted++
		}
	}

	return CleanupResult{NodesDeleted: nodesDeleted, LinksDeleted: len(removedLinks)}, nil
}
