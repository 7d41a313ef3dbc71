package sqlite

import (
	"context"

	"github.com/ternarybob/arbor"

	"github.com/chrisroyse/docprov/internal/common"
	"github.com/chrisroyse/docprov/internal/interfaces"
)

// Store wires every per-entity data-access object, the vector store
// adapter, the cascade controller, and the forensic verifier onto one
// SQLite connection. It is the single entry point the graph package and
// the CLI depend on.
type Store struct {
	DB *SQLiteDB

	Provenance    *ProvenanceStorage
	Documents     *DocumentStorage
	OCRResults    *OCRResultStorage
	Chunks        *ChunkStorage
	Vectors       *VectorStore
	Embeddings    *EmbeddingStorage
	Images        *ImageStorage
	Extractions   *ExtractionStorage
	Entities      *EntityStorage
	EntityMentions *EntityMentionStorage
	Nodes         *KnowledgeNodeStorage
	Edges         *KnowledgeEdgeStorage
	Links         *NodeEntityLinkStorage
	Clusters      *ClusterStorage
	Comparisons   *ComparisonStorage
	FormFills     *FormFillStorage
	UploadedFiles *UploadedFileStorage

	Cascade  *CascadeController
	Verifier *Verifier
}

var (
	_ interfaces.ProvenanceStorage      = (*ProvenanceStorage)(nil)
	_ interfaces.DocumentStorage        = (*DocumentStorage)(nil)
	_ interfaces.OCRResultStorage       = (*OCRResultStorage)(nil)
	_ interfaces.ChunkStorage           = (*ChunkStorage)(nil)
	_ interfaces.EmbeddingStorage       = (*EmbeddingStorage)(nil)
	_ interfaces.ImageStorage          = (*ImageStorage)(nil)
	_ interfaces.ExtractionStorage      = (*ExtractionStorage)(nil)
	_ interfaces.EntityStorage          = (*EntityStorage)(nil)
	_ interfaces.EntityMentionStorage   = (*EntityMentionStorage)(nil)
	_ interfaces.KnowledgeNodeStorage   = (*KnowledgeNodeStorage)(nil)
	_ interfaces.KnowledgeEdgeStorage   = (*KnowledgeEdgeStorage)(nil)
	_ interfaces.NodeEntityLinkStorage  = (*NodeEntityLinkStorage)(nil)
	_ interfaces.ClusterStorage         = (*ClusterStorage)(nil)
	_ interfaces.ComparisonStorage      = (*ComparisonStorage)(nil)
	_ interfaces.FormFillStorage        = (*FormFillStorage)(nil)
	_ interfaces.UploadedFileStorage    = (*UploadedFileStorage)(nil)
)

// Open creates the SQLite connection (migrating it to the latest schema)
// and wires every collaborator onto it.
func Open(logger arbor.ILogger, config *common.StorageConfig, environment string) (*Store, error) {
	db, err := NewSQLiteDB(logger, config, environment)
	if err != nil {
		return nil, err
	}

	vectors := NewVectorStore(db, logger)

	s := &Store{
		DB: db,

		Provenance:     NewProvenanceStorage(db, logger),
		Documents:      NewDocumentStorage(db, logger),
		OCRResults:     NewOCRResultStorage(db, logger),
		Chunks:         NewChunkStorage(db, logger),
		Vectors:        vectors,
		Embeddings:     NewEmbeddingStorage(db, vectors, logger),
		Images:         NewImageStorage(db, logger),
		Extractions:    NewExtractionStorage(db, logger),
		Entities:       NewEntityStorage(db, logger),
		EntityMentions: NewEntityMentionStorage(db, logger),
		Nodes:          NewKnowledgeNodeStorage(db, logger),
		Edges:          NewKnowledgeEdgeStorage(db, logger),
		Links:          NewNodeEntityLinkStorage(db, logger),
		Clusters:       NewClusterStorage(db, logger),
		Comparisons:    NewComparisonStorage(db, logger),
		FormFills:      NewFormFillStorage(db, logger),
		UploadedFiles:  NewUploadedFileStorage(db, logger),

		Cascade:  NewCascadeController(db, logger),
		Verifier: NewVerifier(db, vectors, logger),
	}

	if _, err := s.Provenance.EnsureOrphanedRoot(context.Background()); err != nil {
		db.Close()
		return nil, err
	}

	return s, nil
}

// Close releases the underlying database connection.
func (s *Store) Close() error {
	return s.DB.Close()
}
