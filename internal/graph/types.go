// Package graph implements the knowledge-graph builder, resolver, and
// query/path engine (C6-C7): it turns the flat per-document Entity rows
// into a resolved, cross-document graph of KnowledgeNode/KnowledgeEdge rows
// and answers list/stats/path queries against it.
package graph

import (
	"github.com/chrisroyse/docprov/internal/models"
)

// BuildOptions parameterizes a graph build (§4.6.1).
type BuildOptions struct {
	ResolutionMode models.ResolutionMode
	Rebuild        bool
	ClusterHint    string
}

// BuildStats summarizes a completed build (§4.6.2).
type BuildStats struct {
	TotalEntities       int `json:"total_entities"`
	ResolvedNodes       int `json:"resolved_nodes"`
	CrossDocumentNodes  int `json:"cross_document_nodes"`
	SingleDocumentNodes int `json:"single_document_nodes"`
	Unmatched           int `json:"unmatched"`
	EdgesCreated        int `json:"edges_created"`
}

// ListNodesOptions parameterizes list_nodes (§4.7).
type ListNodesOptions struct {
	EntityType       *models.EntityType
	EntityName       string
	MinDocumentCount int
	IncludeEdges     bool
	Limit            int
}

// ListNodesResult is the result of list_nodes.
type ListNodesResult struct {
	Nodes []*models.KnowledgeNode `json:"nodes"`
	Edges []*models.KnowledgeEdge `json:"edges,omitempty"`
}

// FindPathsOptions parameterizes find_paths (§4.7).
type FindPathsOptions struct {
	MaxHops            int
	RelationshipFilter []models.RelationshipType
}

// Path is one shortest path between two nodes.
type Path struct {
	NodeIDs []string `json:"node_ids"`
	EdgeIDs []string `json:"edge_ids"`
}

// FindPathsResult is the result of find_paths: every shortest path found,
// sorted ascending by length (all of equal minimal length, per §4.7).
type FindPathsResult struct {
	SourceNodeID string `json:"source_node_id"`
	TargetNodeID string `json:"target_node_id"`
	Paths        []Path `json:"paths"`
}

// GraphStats is the result of stats() (§4.7).
type GraphStats struct {
	TotalNodes          int                      `json:"total_nodes"`
	TotalEdges          int                      `json:"total_edges"`
	TotalLinks          int                      `json:"total_links"`
	CrossDocumentNodes  int                      `json:"cross_document_nodes"`
	SingleDocumentNodes int                      `json:"single_document_nodes"`
	NodesByType         map[models.EntityType]int `json:"nodes_by_type"`
	EdgesByType         map[models.RelationshipType]int `json:"edges_by_type"`
	DocumentsCovered    int                      `json:"documents_covered"`
	AvgEdgesPerNode     float64                  `json:"avg_edges_per_node"`
	MostConnectedNodes  []*models.KnowledgeNode  `json:"most_connected_nodes"`
}

// CleanupResult is the result of delete_all_graph_data (§4.6.6).
type CleanupResult struct {
	NodesDeleted int `json:"nodes_deleted"`
	EdgesDeleted int `json:"edges_deleted"`
	LinksDeleted int `json:"links_deleted"`
}
