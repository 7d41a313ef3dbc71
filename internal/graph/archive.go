package graph

import (
	"context"
	"fmt"
	"time"

	"github.com/chrisroyse/docprov/internal/interfaces"
)

// Archiver gathers the subgraph linked to a document - its resolved nodes,
// every edge touching one of those nodes, the links themselves, and the
// document's own entities - and hands it to an external archive writer
// before a destructive operation (§4.6.5). Serializing that payload to JSON
// is out of scope for the core; ArchiveWriter is a thin collaborator
// interface, the same pattern the core uses for OCR and embedding.
type Archiver struct {
	links    interfaces.NodeEntityLinkStorage
	nodes    interfaces.KnowledgeNodeStorage
	edges    interfaces.KnowledgeEdgeStorage
	entities interfaces.EntityStorage
	writer   interfaces.ArchiveWriter
}

func NewArchiver(
	links interfaces.NodeEntityLinkStorage,
	nodes interfaces.KnowledgeNodeStorage,
	edges interfaces.KnowledgeEdgeStorage,
	entities interfaces.EntityStorage,
	writer interfaces.ArchiveWriter,
) *Archiver {
	return &Archiver{links: links, nodes: nodes, edges: edges, entities: entities, writer: writer}
}

// ArchiveDocument writes kg-archive-<document_id>-<timestamp>.json via the
// configured writer. If no nodes are linked to the document, no file is
// written and the caller proceeds straight to the destructive operation.
func (a *Archiver) ArchiveDocument(ctx context.Context, documentID string, at time.Time) error {
	links, err := a.links.ListByDocument(ctx, documentID)
	if err != nil {
		return err
	}
	if len(links) == 0 {
		return nil
	}

	nodeIDs := map[string]struct{}{}
	for _, l := range links {
		nodeIDs[l.NodeID] = struct{}{}
	}

	payload := interfaces.ArchivePayload{DocumentID: documentID, Links: links}
	for nodeID := range nodeIDs {
		node, err := a.nodes.Get(ctx, nodeID)
		if err != nil {
			return err
		}
		payload.Nodes = append(payload.Nodes, node)
	}

	nodeIDList := make([]string, 0, len(nodeIDs))
	for id := range nodeIDs {
		nodeIDList = append(nodeIDList, id)
	}
	edges, err := a.edges.ListForNodes(ctx, nodeIDList)
	if err != nil {
		return err
	}
	payload.Edges = edges

	entities, err := a.entities.ListByDocument(ctx, documentID)
	if err != nil {
		return err
	}
	payload.Entities = entities

	filename := fmt.Sprintf("kg-archive-%s-%d.json", documentID, at.Unix())
	return a.writer.WriteArchive(ctx, filename, payload)
}
