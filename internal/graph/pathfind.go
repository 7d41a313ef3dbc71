package graph

import (
	"context"

	"github.com/chrisroyse/docprov/internal/common"
	"github.com/chrisroyse/docprov/internal/interfaces"
	"github.com/chrisroyse/docprov/internal/models"
)

// PathFinder answers shortest-path queries over the resolved graph via
// bidirectional bounded BFS, returning every shortest path rather than a
// single arbitrary one (§4.7).
type PathFinder struct {
	nodes interfaces.KnowledgeNodeStorage
	edges interfaces.KnowledgeEdgeStorage
}

func NewPathFinder(nodes interfaces.KnowledgeNodeStorage, edges interfaces.KnowledgeEdgeStorage) *PathFinder {
	return &PathFinder{nodes: nodes, edges: edges}
}

type adjacency struct {
	toNode   string
	edgeID   string
	edgeType models.RelationshipType
}

// FindPaths resolves source/target node ids, builds the edge-filtered
// adjacency over every node in the graph, and returns all shortest paths
// found by a bidirectional bounded BFS within MaxHops (§4.7).
func (p *PathFinder) FindPaths(ctx context.Context, sourceNodeID, targetNodeID string, opts FindPathsOptions) (*FindPathsResult, error) {
	if _, err := p.nodes.Get(ctx, sourceNodeID); err != nil {
		return nil, common.SourceEntityNotFound("source node not found: " + sourceNodeID)
	}
	if _, err := p.nodes.Get(ctx, targetNodeID); err != nil {
		return nil, common.TargetEntityNotFound("target node not found: " + targetNodeID)
	}

	result := &FindPathsResult{SourceNodeID: sourceNodeID, TargetNodeID: targetNodeID}
	if sourceNodeID == targetNodeID {
		return result, nil
	}

	maxHops := opts.MaxHops
	if maxHops <= 0 {
		maxHops = 3
	}

	adj, err := p.buildAdjacency(ctx, opts.RelationshipFilter)
	if err != nil {
		return nil, err
	}

	result.Paths = bidirectionalBFS(adj, sourceNodeID, targetNodeID, maxHops)
	return result, nil
}

func (p *PathFinder) buildAdjacency(ctx context.Context, relFilter []models.RelationshipType) (map[string][]adjacency, error) {
	allNodes, err := p.nodes.List(ctx, interfaces.NodeFilter{})
	if err != nil {
		return nil, err
	}
	nodeIDs := make([]string, len(allNodes))
	for i, n := range allNodes {
		nodeIDs[i] = n.ID
	}

	var edges []*models.KnowledgeEdge
	if len(relFilter) > 0 {
		edges, err = p.edges.ListByRelationshipFilter(ctx, nodeIDs, relFilter)
	} else {
		edges, err = p.edges.ListForNodes(ctx, nodeIDs)
	}
	if err != nil {
		return nil, err
	}

	adj := map[string][]adjacency{}
	for _, e := range edges {
		adj[e.SourceNodeID] = append(adj[e.SourceNodeID], adjacency{toNode: e.TargetNodeID, edgeID: e.ID, edgeType: e.RelationshipType})
		adj[e.TargetNodeID] = append(adj[e.TargetNodeID], adjacency{toNode: e.SourceNodeID, edgeID: e.ID, edgeType: e.RelationshipType})
	}
	return adj, nil
}

// bfsFrontier tracks, per visited node on one side of the bidirectional
// search, every path (as a node-id sequence and matching edge-id sequence)
// that reaches it in the fewest hops found so far.
type bfsFrontier struct {
	nodePaths map[string][][]string
	edgePaths map[string][][]string
	depth     map[string]int
}

func newBFSFrontier(start string) *bfsFrontier {
	return &bfsFrontier{
		nodePaths: map[string][][]string{start: {{start}}},
		edgePaths: map[string][][]string{start: {{}}},
		depth:     map[string]int{start: 0},
	}
}

// bidirectionalBFS grows a frontier from each end, one hop per round,
// expanding whichever side currently holds fewer paths, so the two sides'
// depths together never exceed maxHops. It stops as soon as the two
// frontiers meet - the meeting depth is
// then the shortest-path length, and every combination of
// (source-side path, reversed target-side path) through a meeting node is a
// shortest path (§4.7).
func bidirectionalBFS(adj map[string][]adjacency, source, target string, maxHops int) []Path {
	fwd := newBFSFrontier(source)
	bwd := newBFSFrontier(target)

	for hop := 0; hop < maxHops; hop++ {
		if paths := meet(fwd, bwd); len(paths) > 0 {
			return paths
		}

		fwdSize := frontierSize(fwd)
		bwdSize := frontierSize(bwd)
		if fwdSize <= bwdSize {
			expand(adj, fwd, hop+1)
		} else {
			expand(adj, bwd, hop+1)
		}
	}

	return meet(fwd, bwd)
}

func frontierSize(f *bfsFrontier) int {
	total := 0
	for _, paths := range f.nodePaths {
		total += len(paths)
	}
	return total
}

// expand grows a frontier by one hop, adding any newly-reached node at the
// given depth. A node already reached at an earlier depth is not
// re-expanded (shortest-path BFS never needs to revisit it at a greater
// depth), but a node reached at exactly this depth accumulates every path
// that reaches it, preserving path-count completeness.
func expand(adj map[string][]adjacency, f *bfsFrontier, depth int) {
	frontierNodes := make([]string, 0, len(f.depth))
	for n, d := range f.depth {
		if d == depth-1 {
			frontierNodes = append(frontierNodes, n)
		}
	}

	newNodePaths := map[string][][]string{}
	newEdgePaths := map[string][][]string{}

	for _, n := range frontierNodes {
		for _, nbr := range adj[n] {
			if existingDepth, seen := f.depth[nbr.toNode]; seen && existingDepth < depth {
				continue
			}
			for i, path := range f.nodePaths[n] {
				extended := append(append([]string{}, path...), nbr.toNode)
				extendedEdges := append(append([]string{}, f.edgePaths[n][i]...), nbr.edgeID)
				newNodePaths[nbr.toNode] = append(newNodePaths[nbr.toNode], extended)
				newEdgePaths[nbr.toNode] = append(newEdgePaths[nbr.toNode], extendedEdges)
			}
		}
	}

	for node, paths := range newNodePaths {
		f.nodePaths[node] = append(f.nodePaths[node], paths...)
		f.edgePaths[node] = append(f.edgePaths[node], newEdgePaths[node]...)
		if _, seen := f.depth[node]; !seen {
			f.depth[node] = depth
		}
	}
}

// meet checks whether the two frontiers share any node and, if so, builds
// every shortest path through the shallowest shared meeting point(s).
func meet(fwd, bwd *bfsFrontier) []Path {
	minTotal := -1
	var meetingNodes []string

	for node, fd := range fwd.depth {
		bd, ok := bwd.depth[node]
		if !ok {
			continue
		}
		total := fd + bd
		if minTotal == -1 || total < minTotal {
			minTotal = total
			meetingNodes = []string{node}
		} else if total == minTotal {
			meetingNodes = append(meetingNodes, node)
		}
	}

	if minTotal == -1 {
		return nil
	}

	var paths []Path
	for _, node := range meetingNodes {
		for fi, fPath := range fwd.nodePaths[node] {
			for bi, bPath := range bwd.nodePaths[node] {
				nodeIDs := append(append([]string{}, fPath...), reverseStrings(bPath[:len(bPath)-1])...)
				fEdges := fwd.edgePaths[node][fi]
				bEdges := reverseStrings(bwd.edgePaths[node][bi])
				edgeIDs := append(append([]string{}, fEdges...), bEdges...)
				paths = append(paths, Path{NodeIDs: nodeIDs, EdgeIDs: edgeIDs})
			}
		}
	}
	return paths
}

func reverseStrings(s []string) []string {
	out := make([]string, len(s))
	for i, v := range s {
		out[len(s)-1-i] = v
	}
	return out
}
