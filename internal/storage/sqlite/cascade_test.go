package sqlite

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chrisroyse/docprov/internal/common"
	"github.com/chrisroyse/docprov/internal/models"
)

// createTestDocument inserts a DOCUMENT provenance row and its owning
// Document row, returning both.
func createTestDocument(t *testing.T, ctx context.Context, store *Store, name string) (*models.Document, *models.Provenance) {
	t.Helper()

	prov, err := store.Provenance.Create(ctx, models.ProvenanceSpec{
		Type:        models.ProvenanceDocument,
		SourceType:  "upload",
		ContentHash: common.ComputeHash(name),
		Processor:   "test-harness",
	})
	require.NoError(t, err)

	doc, err := store.Documents.Create(ctx, models.DocumentSpec{
		FilePath: "/tmp/" + name,
		FileName: name,
		FileHash: common.ComputeHash(name),
		FileSize: 128,
		FileType: "application/pdf",
	}, prov.ID)
	require.NoError(t, err)

	return doc, prov
}

// createTestEntityExtraction inserts an ENTITY_EXTRACTION provenance row
// (child of the document's own provenance) and one Entity row under it.
func createTestEntityExtraction(t *testing.T, ctx context.Context, store *Store, doc *models.Document, docProv *models.Provenance, rawText string) (*models.Entity, *models.Provenance) {
	t.Helper()

	prov, err := store.Provenance.Create(ctx, models.ProvenanceSpec{
		Type:        models.ProvenanceEntityExtraction,
		SourceType:  "entity_extractor",
		ParentID:    &docProv.ID,
		ContentHash: common.ComputeHash(rawText),
		Processor:   "test-harness",
	})
	require.NoError(t, err)

	entity, err := store.Entities.Create(ctx, &models.Entity{
		DocumentID:     doc.ID,
		EntityType:     models.EntityPerson,
		RawText:        rawText,
		NormalizedText: rawText,
		Confidence:     0.95,
		ProvenanceID:   prov.ID,
	})
	require.NoError(t, err)

	return entity, prov
}

// TestCascadeDeleteDocument_RemovesEveryDerivedArtifact exercises S1: a
// document with one OCR result, two chunks, two embeddings (+vectors), one
// image with a vlm_embedding_id, three entities, two knowledge nodes linked
// only to this document, and one edge between them. After delete_document,
// every listed row - including the provenance rows for the document's own
// chain - must be gone.
func TestCascadeDeleteDocument_RemovesEveryDerivedArtifact(t *testing.T) {
	store := setupTestDB(t)
	ctx := context.Background()

	doc, docProv := createTestDocument(t, ctx, store, "s1.pdf")

	ocrProv, err := store.Provenance.Create(ctx, models.ProvenanceSpec{
		Type:        models.ProvenanceOCRResult,
		SourceType:  "ocr_provider",
		ParentID:    &docProv.ID,
		ContentHash: common.ComputeHash("ocr text"),
		Processor:   "test-harness",
	})
	require.NoError(t, err)
	ocr, err := store.OCRResults.Create(ctx, &models.OCRResult{
		DocumentID:    doc.ID,
		ProvenanceID:  ocrProv.ID,
		ExtractedText: "ocr text",
		Mode:          "accurate",
	})
	require.NoError(t, err)

	var chunkIDs, chunkProvIDs, embIDs, embProvIDs []string
	for i := 0; i < 2; i++ {
		chunkProv, err := store.Provenance.Create(ctx, models.ProvenanceSpec{
			Type:        models.ProvenanceChunk,
			SourceType:  "chunker",
			ParentID:    &ocrProv.ID,
			ContentHash: common.ComputeHash("chunk text"),
			Processor:   "test-harness",
		})
		require.NoError(t, err)
		chunk, err := store.Chunks.Create(ctx, &models.Chunk{
			DocumentID:   doc.ID,
			OCRResultID:  ocr.ID,
			ProvenanceID: chunkProv.ID,
			ChunkIndex:   i,
			Content:      "chunk text",
		})
		require.NoError(t, err)
		chunkIDs = append(chunkIDs, chunk.ID)
		chunkProvIDs = append(chunkProvIDs, chunkProv.ID)

		embProv, err := store.Provenance.Create(ctx, models.ProvenanceSpec{
			Type:        models.ProvenanceEmbedding,
			SourceType:  "embedder",
			ParentID:    &chunkProv.ID,
			ContentHash: common.ComputeHash("embedding"),
			Processor:   "test-harness",
		})
		require.NoError(t, err)
		emb, err := store.Embeddings.Create(ctx, &models.Embedding{
			ProvenanceID: embProv.ID,
			ChunkID:      &chunk.ID,
			OriginalText: "chunk text",
			ModelName:    "test-embedder",
		}, []float32{0.1, 0.2, 0.3, 0.4})
		require.NoError(t, err)
		embIDs = append(embIDs, emb.ID)
		embProvIDs = append(embProvIDs, embProv.ID)
	}

	imgProv, err := store.Provenance.Create(ctx, models.ProvenanceSpec{
		Type:        models.ProvenanceImage,
		SourceType:  "image_extractor",
		ParentID:    &docProv.ID,
		ContentHash: common.ComputeHash("image"),
		Processor:   "test-harness",
	})
	require.NoError(t, err)
	image, err := store.Images.Create(ctx, &models.Image{
		DocumentID:   doc.ID,
		ProvenanceID: imgProv.ID,
		FilePath:     "/tmp/page1.png",
	})
	require.NoError(t, err)
	require.NoError(t, store.Images.SetVLMEmbedding(ctx, image.ID, &embIDs[0], models.VLMStatusComplete))

	entity1, entityProv := createTestEntityExtraction(t, ctx, store, doc, docProv, "John Smith")
	entity2, _ := createTestEntityExtraction(t, ctx, store, doc, docProv, "Acme Corp")
	entity3, _ := createTestEntityExtraction(t, ctx, store, doc, docProv, "2024-01-01")

	node1, err := store.Nodes.Create(ctx, &models.KnowledgeNode{
		EntityType:    models.EntityPerson,
		CanonicalName: "John Smith",
		ProvenanceID:  entityProv.ID,
		DocumentCount: 1,
	})
	require.NoError(t, err)
	node2, err := store.Nodes.Create(ctx, &models.KnowledgeNode{
		EntityType:    models.EntityOrganization,
		CanonicalName: "Acme Corp",
		ProvenanceID:  entityProv.ID,
		DocumentCount: 1,
	})
	require.NoError(t, err)

	_, err = store.Links.Create(ctx, &models.NodeEntityLink{
		NodeID: node1.ID, EntityID: entity1.ID, DocumentID: doc.ID,
		SimilarityScore: 1.0, ResolutionMethod: models.ResolutionTypeExact,
	})
	require.NoError(t, err)
	_, err = store.Links.Create(ctx, &models.NodeEntityLink{
		NodeID: node2.ID, EntityID: entity2.ID, DocumentID: doc.ID,
		SimilarityScore: 1.0, ResolutionMethod: models.ResolutionTypeExact,
	})
	require.NoError(t, err)

	edge, err := store.Edges.Create(ctx, &models.KnowledgeEdge{
		SourceNodeID: node1.ID, TargetNodeID: node2.ID,
		RelationshipType: models.RelWorksAt, Weight: 0.9, EvidenceCount: 1,
		DocumentIDs: []string{doc.ID},
	})
	require.NoError(t, err)

	require.NoError(t, store.Cascade.DeleteDocument(ctx, doc.ID))

	_, err = store.Documents.Get(ctx, doc.ID)
	assert.True(t, common.IsNotFound(err))
	_, err = store.OCRResults.Get(ctx, ocr.ID)
	assert.True(t, common.IsNotFound(err))
	for _, id := range chunkIDs {
		_, err := store.Chunks.Get(ctx, id)
		assert.True(t, common.IsNotFound(err))
	}
	for _, id := range embIDs {
		_, err := store.Embeddings.Get(ctx, id)
		assert.True(t, common.IsNotFound(err))
		_, found, err := store.Vectors.Get(ctx, id)
		require.NoError(t, err)
		assert.False(t, found)
	}
	_, err = store.Images.Get(ctx, image.ID)
	assert.True(t, common.IsNotFound(err))
	for _, e := range []*models.Entity{entity1, entity2, entity3} {
		_, err := store.Entities.Get(ctx, e.ID)
		assert.True(t, common.IsNotFound(err))
	}
	_, err = store.Nodes.Get(ctx, node1.ID)
	assert.True(t, common.IsNotFound(err))
	_, err = store.Nodes.Get(ctx, node2.ID)
	assert.True(t, common.IsNotFound(err))
	_, err = store.Edges.Get(ctx, edge.ID)
	assert.True(t, common.IsNotFound(err))

	for _, id := range append(append([]string{docProv.ID, ocrProv.ID, imgProv.ID, entityProv.ID}, chunkProvIDs...), embProvIDs...) {
		_, err := store.Provenance.Get(ctx, id)
		assert.True(t, common.IsNotFound(err), "provenance row %s should have been deleted, not reparented", id)
	}
}

// TestCascadeDeleteDocument_CrossDocumentNodeSurvives exercises S2: a
// knowledge node shared by two documents via dedup survives the deletion of
// one of them, its document_count drops to one, and the provenance row it
// still references gets re-parented onto ORPHANED_ROOT with a "reparented"
// metadata marker instead of being deleted.
func TestCascadeDeleteDocument_CrossDocumentNodeSurvives(t *testing.T) {
	store := setupTestDB(t)
	ctx := context.Background()

	docA, provA := createTestDocument(t, ctx, store, "s2-a.pdf")
	docB, provB := createTestDocument(t, ctx, store, "s2-b.pdf")

	entityA, entityProvA := createTestEntityExtraction(t, ctx, store, docA, provA, "John Smith")
	entityB, _ := createTestEntityExtraction(t, ctx, store, docB, provB, "John Smith")

	node, err := store.Nodes.Create(ctx, &models.KnowledgeNode{
		EntityType:    models.EntityPerson,
		CanonicalName: "John Smith",
		ProvenanceID:  entityProvA.ID,
		DocumentCount: 2,
	})
	require.NoError(t, err)

	_, err = store.Links.Create(ctx, &models.NodeEntityLink{
		NodeID: node.ID, EntityID: entityA.ID, DocumentID: docA.ID,
		SimilarityScore: 1.0, ResolutionMethod: models.ResolutionTypeFuzzy,
	})
	require.NoError(t, err)
	_, err = store.Links.Create(ctx, &models.NodeEntityLink{
		NodeID: node.ID, EntityID: entityB.ID, DocumentID: docB.ID,
		SimilarityScore: 0.91, ResolutionMethod: models.ResolutionTypeFuzzy,
	})
	require.NoError(t, err)

	require.NoError(t, store.Cascade.DeleteDocument(ctx, docA.ID))

	survived, err := store.Nodes.Get(ctx, node.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, survived.DocumentCount)
	reparented, ok := survived.Metadata["reparented"].(map[string]interface{})
	require.True(t, ok, "expected a reparented marker in node metadata, got %#v", survived.Metadata)
	assert.Equal(t, docA.ID, reparented["original_document_id"])

	reparentedProv, err := store.Provenance.Get(ctx, entityProvA.ID)
	require.NoError(t, err)
	require.NotNil(t, reparentedProv.ParentID)
	assert.Equal(t, models.OrphanedRootID(), *reparentedProv.ParentID)
	assert.Equal(t, models.OrphanedRootID(), reparentedProv.RootDocumentID)

	_, err = store.Links.GetByEntity(ctx, entityA.ID)
	assert.True(t, common.IsNotFound(err))
	survivingLink, err := store.Links.GetByEntity(ctx, entityB.ID)
	require.NoError(t, err)
	assert.Equal(t, node.ID, survivingLink.NodeID)
}
