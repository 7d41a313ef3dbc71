package interfaces

import (
	"context"

	"github.com/chrisroyse/docprov/internal/models"
)

// ProvenanceStorage is the C4 provenance graph manager contract.
type ProvenanceStorage interface {
	Create(ctx context.Context, spec models.ProvenanceSpec) (*models.Provenance, error)
	Get(ctx context.Context, id string) (*models.Provenance, error)
	// ChainOf returns the chain from the given provenance leaf to its root, ordered leaf-first.
	ChainOf(ctx context.Context, id string) ([]*models.Provenance, error)
	ChildrenOf(ctx context.Context, id string) ([]*models.Provenance, error)
	// ByRootDocument returns every provenance row under a root document id, ordered by chain_depth ascending.
	ByRootDocument(ctx context.Context, rootDocumentID string) ([]*models.Provenance, error)
	// EnsureOrphanedRoot lazily creates the synthetic ORPHANED_ROOT provenance row on first need.
	EnsureOrphanedRoot(ctx context.Context) (*models.Provenance, error)
}

// DocumentStorage is the typed CRUD contract for Document rows.
type DocumentStorage interface {
	Create(ctx context.Context, spec models.DocumentSpec, provenanceID string) (*models.Document, error)
	Get(ctx context.Context, id string) (*models.Document, error)
	GetByPath(ctx context.Context, path string) (*models.Document, error)
	GetByHash(ctx context.Context, hash string) (*models.Document, error)
	UpdateStatus(ctx context.Context, id string, status models.DocumentStatus, errorMessage *string) error
	SetPageCount(ctx context.Context, id string, pageCount int) error
	List(ctx context.Context, opts models.ListOptions) ([]*models.Document, error)
	Count(ctx context.Context) (int, error)
}

// OCRResultStorage is the typed CRUD contract for OCRResult rows.
type OCRResultStorage interface {
	Create(ctx context.Context, result *models.OCRResult) (*models.OCRResult, error)
	Get(ctx context.Context, id string) (*models.OCRResult, error)
	GetByDocument(ctx context.Context, documentID string) (*models.OCRResult, error)
}

// ChunkStorage is the typed CRUD contract for Chunk rows.
type ChunkStorage interface {
	Create(ctx context.Context, chunk *models.Chunk) (*models.Chunk, error)
	Get(ctx context.Context, id string) (*models.Chunk, error)
	ListByDocument(ctx context.Context, documentID string) ([]*models.Chunk, error)
	UpdateEmbeddingStatus(ctx context.Context, id string, status models.EmbeddingStatus) error
}

// EmbeddingStorage is the typed CRUD contract for Embedding rows.
type EmbeddingStorage interface {
	Create(ctx context.Context, embedding *models.Embedding, vector []float32) (*models.Embedding, error)
	Get(ctx context.Context, id string) (*models.Embedding, error)
	ListByDocument(ctx context.Context, documentID string) ([]*models.Embedding, error)
	Delete(ctx context.Context, id string) error
}

// ImageStorage is the typed CRUD contract for Image rows.
type ImageStorage interface {
	Create(ctx context.Context, image *models.Image) (*models.Image, error)
	Get(ctx context.Context, id string) (*models.Image, error)
	ListByDocument(ctx context.Context, documentID string) ([]*models.Image, error)
	SetVLMEmbedding(ctx context.Context, id string, embeddingID *string, status models.VLMStatus) error
}

// ExtractionStorage is the typed CRUD contract for Extraction rows.
type ExtractionStorage interface {
	Create(ctx context.Context, extraction *models.Extraction) (*models.Extraction, error)
	Get(ctx context.Context, id string) (*models.Extraction, error)
	ListByDocument(ctx context.Context, documentID string) ([]*models.Extraction, error)
}

// EntityStorage is the typed CRUD contract for Entity rows.
type EntityStorage interface {
	Create(ctx context.Context, entity *models.Entity) (*models.Entity, error)
	Get(ctx context.Context, id string) (*models.Entity, error)
	ListByDocument(ctx context.Context, documentID string) ([]*models.Entity, error)
	ListAll(ctx context.Context) ([]*models.Entity, error)
	CountAll(ctx context.Context) (int, error)
}

// EntityMentionStorage is the typed CRUD contract for EntityMention rows.
type EntityMentionStorage interface {
	Create(ctx context.Context, mention *models.EntityMention) (*models.EntityMention, error)
	ListByEntity(ctx context.Context, entityID string) ([]*models.EntityMention, error)
}

// KnowledgeNodeStorage is the typed CRUD contract for KnowledgeNode rows.
type KnowledgeNodeStorage interface {
	Create(ctx context.Context, node *models.KnowledgeNode) (*models.KnowledgeNode, error)
	Get(ctx context.Context, id string) (*models.KnowledgeNode, error)
	GetByCanonicalName(ctx context.Context, entityType models.EntityType, name string) (*models.KnowledgeNode, error)
	Update(ctx context.Context, node *models.KnowledgeNode) error
	// DecrementDocumentCount lowers document_count by one; deletes the node (and incident edges) if it reaches zero.
	DecrementDocumentCount(ctx context.Context, id string) (deleted bool, err error)
	List(ctx context.Context, filter NodeFilter) ([]*models.KnowledgeNode, error)
	DeleteAll(ctx context.Context) (int, error)
}

// NodeFilter parameterizes KnowledgeNodeStorage.List; fields are AND-combined.
type NodeFilter struct {
	EntityType       *models.EntityType
	NameContains     string // case-insensitive substring match against canonical_name
	MinDocumentCount int
	Limit            int
}

// KnowledgeEdgeStorage is the typed CRUD contract for KnowledgeEdge rows.
type KnowledgeEdgeStorage interface {
	Create(ctx context.Context, edge *models.KnowledgeEdge) (*models.KnowledgeEdge, error)
	Get(ctx context.Context, id string) (*models.KnowledgeEdge, error)
	// FindByEndpoints looks up an existing edge between an unordered node pair with the given relationship type.
	FindByEndpoints(ctx context.Context, nodeA, nodeB string, relType models.RelationshipType) (*models.KnowledgeEdge, error)
	Update(ctx context.Context, edge *models.KnowledgeEdge) error
	ListForNodes(ctx context.Context, nodeIDs []string) ([]*models.KnowledgeEdge, error)
	ListByRelationshipFilter(ctx context.Context, nodeIDs []string, relTypes []models.RelationshipType) ([]*models.KnowledgeEdge, error)
	DeleteAll(ctx context.Context) (int, error)
}

// NodeEntityLinkStorage is the typed CRUD contract for NodeEntityLink rows.
type NodeEntityLinkStorage interface {
	Create(ctx context.Context, link *models.NodeEntityLink) (*models.NodeEntityLink, error)
	GetByEntity(ctx context.Context, entityID string) (*models.NodeEntityLink, error)
	ListByNode(ctx context.Context, nodeID string) ([]*models.NodeEntityLink, error)
	ListByDocument(ctx context.Context, documentID string) ([]*models.NodeEntityLink, error)
	DeleteByDocument(ctx context.Context, documentID string) ([]*models.NodeEntityLink, error)
	DeleteAll(ctx context.Context) (int, error)
}

// ClusterStorage is the typed CRUD contract for Cluster and assignment rows.
type ClusterStorage interface {
	Create(ctx context.Context, cluster *models.Cluster) (*models.Cluster, error)
	AssignDocument(ctx context.Context, assignment *models.DocumentClusterAssignment) error
	ListAssignmentsForDocument(ctx context.Context, documentID string) ([]*models.DocumentClusterAssignment, error)
	DecrementDocumentCount(ctx context.Context, clusterID string) error
}

// ComparisonStorage is the typed CRUD contract for Comparison rows.
type ComparisonStorage interface {
	Create(ctx context.Context, comparison *models.Comparison) (*models.Comparison, error)
	ListForDocument(ctx context.Context, documentID string) ([]*models.Comparison, error)
}

// FormFillStorage is the typed CRUD contract for FormFill rows.
type FormFillStorage interface {
	Create(ctx context.Context, fill *models.FormFill) (*models.FormFill, error)
	ListByDocument(ctx context.Context, documentID string) ([]*models.FormFill, error)
}

// UploadedFileStorage is the typed CRUD contract for UploadedFile rows.
type UploadedFileStorage interface {
	Create(ctx context.Context, file *models.UploadedFile) (*models.UploadedFile, error)
	Get(ctx context.Context, id string) (*models.UploadedFile, error)
}
