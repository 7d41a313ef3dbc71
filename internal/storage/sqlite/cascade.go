package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/chrisroyse/docprov/internal/common"
	"github.com/chrisroyse/docprov/internal/models"
)

// CascadeController implements delete_document and reset_derived (C5): the
// ordered, single-transaction teardown of a document and everything it
// produced, including the circular images<->embeddings reference and the
// provenance graveyard re-parenting onto the synthetic orphaned root.
type CascadeController struct {
	db     *SQLiteDB
	logger arbor.ILogger
	mu     sync.Mutex
}

func NewCascadeController(db *SQLiteDB, logger arbor.ILogger) *CascadeController {
	return &CascadeController{db: db, logger: logger}
}

// DeleteDocument removes a document and every artifact it produced,
// re-parenting onto ORPHANED_ROOT any provenance row still referenced by a
// surviving cluster or knowledge node (§4.5).
func (c *CascadeController) DeleteDocument(ctx context.Context, documentID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	tx, err := c.db.db.BeginTx(ctx, nil)
	if err != nil {
		return common.Internal("failed to begin delete transaction", err)
	}
	defer tx.Rollback()

	doc, err := c.loadDocument(ctx, tx, documentID)
	if err != nil {
		return err
	}

	if err := c.teardownDerivedArtifacts(ctx, tx, documentID); err != nil {
		return err
	}

	if _, err := tx.ExecContext(ctx, "DELETE FROM documents WHERE id = ?", documentID); err != nil {
		return wrapWriteError(err, "failed to delete document row")
	}

	if err := c.reparentOrDeleteProvenance(ctx, tx, documentID, doc.ProvenanceID); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return common.Internal("failed to commit document deletion", err)
	}
	return nil
}

// ResetDerived removes every downstream artifact of a document (steps 2-12)
// but preserves the Document row and its root DOCUMENT provenance row, so
// the caller can reset status and re-run the pipeline ("retry failed").
func (c *CascadeController) ResetDerived(ctx context.Context, documentID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	tx, err := c.db.db.BeginTx(ctx, nil)
	if err != nil {
		return common.Internal("failed to begin reset transaction", err)
	}
	defer tx.Rollback()

	doc, err := c.loadDocument(ctx, tx, documentID)
	if err != nil {
		return err
	}

	if err := c.teardownDerivedArtifacts(ctx, tx, documentID); err != nil {
		return err
	}

	// Remove non-root provenance left under this document (chain_depth > 0);
	// the root DOCUMENT row at depth 0 survives along with the Document row.
	if _, err := tx.ExecContext(ctx,
		"DELETE FROM provenance WHERE root_document_id = ? AND chain_depth > 0", doc.ProvenanceID); err != nil {
		return wrapWriteError(err, "failed to delete non-root provenance rows")
	}

	if err := tx.Commit(); err != nil {
		return common.Internal("failed to commit derived-artifact reset", err)
	}
	return nil
}

func (c *CascadeController) loadDocument(ctx context.Context, tx *sql.Tx, documentID string) (*models.Document, error) {
	row := tx.QueryRowContext(ctx, "SELECT id, provenance_id FROM documents WHERE id = ?", documentID)
	var d models.Document
	if err := row.Scan(&d.ID, &d.ProvenanceID); err != nil {
		if err == sql.ErrNoRows {
			return nil, common.NotFound("document not found: " + documentID)
		}
		return nil, common.Internal("failed to load document for deletion", err)
	}
	return &d, nil
}

// teardownDerivedArtifacts implements steps 2-12 of the deletion ordering,
// shared by DeleteDocument and ResetDerived.
func (c *CascadeController) teardownDerivedArtifacts(ctx context.Context, tx *sql.Tx, documentID string) error {
	const embeddingsOfDoc = `
		SELECT e.id FROM embeddings e
		LEFT JOIN chunks c ON c.id = e.chunk_id
		LEFT JOIN images im ON im.id = e.image_id
		LEFT JOIN extractions x ON x.id = e.extraction_id
		WHERE c.document_id = ? OR im.document_id = ? OR x.document_id = ?`

	// Step 2: drop the vector rows via a subquery rather than materializing
	// the id list in application memory.
	if _, err := tx.ExecContext(ctx,
		"DELETE FROM vec_embeddings WHERE embedding_id IN ("+embeddingsOfDoc+")",
		documentID, documentID, documentID); err != nil {
		return wrapWriteError(err, "failed to delete vector rows for document")
	}

	// Step 3: break the circular reference on this document's own images.
	if _, err := tx.ExecContext(ctx,
		"UPDATE images SET vlm_embedding_id = NULL WHERE document_id = ?", documentID); err != nil {
		return wrapWriteError(err, "failed to clear vlm_embedding_id on document images")
	}

	// Step 4: images of OTHER documents pointing into this document's
	// embeddings are "orphaned by VLM dedup" - null the reference and flip
	// back to pending so a later pass re-derives the caption.
	affectedRows, err := tx.QueryContext(ctx, `
		SELECT DISTINCT document_id FROM images
		WHERE document_id != ? AND vlm_embedding_id IN (`+embeddingsOfDoc+`)`,
		documentID, documentID, documentID, documentID)
	if err != nil {
		return common.Internal("failed to find VLM-dedup-orphaned images", err)
	}
	var affectedDocs []string
	for affectedRows.Next() {
		var id string
		if err := affectedRows.Scan(&id); err != nil {
			affectedRows.Close()
			return common.Internal("failed to scan affected document id", err)
		}
		affectedDocs = append(affectedDocs, id)
	}
	affectedRows.Close()
	if err := affectedRows.Err(); err != nil {
		return common.Internal("failed to iterate affected documents", err)
	}

	if _, err := tx.ExecContext(ctx, `
		UPDATE images SET vlm_embedding_id = NULL, vlm_status = 'pending'
		WHERE document_id != ? AND vlm_embedding_id IN (`+embeddingsOfDoc+`)`,
		documentID, documentID, documentID, documentID); err != nil {
		return wrapWriteError(err, "failed to reset orphaned VLM embeddings")
	}
	if len(affectedDocs) > 0 {
		c.logger.Info().
			Str("document_id", documentID).
			Strs("affected_documents", affectedDocs).
			Msg("Reset VLM embedding on images orphaned by dedup across documents")
	}

	// Step 5-6: embeddings, then images, for this document.
	if _, err := tx.ExecContext(ctx, "DELETE FROM embeddings WHERE id IN ("+embeddingsOfDoc+")",
		documentID, documentID, documentID); err != nil {
		return wrapWriteError(err, "failed to delete embeddings")
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM images WHERE document_id = ?", documentID); err != nil {
		return wrapWriteError(err, "failed to delete images")
	}

	// Step 7: decrement cluster document counts, then drop the assignments.
	if _, err := tx.ExecContext(ctx, `
		UPDATE clusters SET document_count = MAX(document_count - 1, 0)
		WHERE id IN (SELECT cluster_id FROM document_clusters WHERE document_id = ?)`,
		documentID); err != nil {
		return wrapWriteError(err, "failed to decrement cluster document counts")
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM document_clusters WHERE document_id = ?", documentID); err != nil {
		return wrapWriteError(err, "failed to delete document cluster assignments")
	}

	// Step 8: comparisons mentioning this document on either side.
	if _, err := tx.ExecContext(ctx,
		"DELETE FROM comparisons WHERE document_a_id = ? OR document_b_id = ?", documentID, documentID); err != nil {
		return wrapWriteError(err, "failed to delete comparisons")
	}

	// Step 9: entity-embedding vectors / entity_embeddings for nodes linked
	// to this document. Neither table exists in this schema generation -
	// tolerated exactly like an older-schema gap would be.
	if err := c.execTolerant(ctx, tx, "DELETE FROM entity_embeddings WHERE document_id = ?", documentID); err != nil {
		return err
	}

	// Step 10: knowledge-graph subgraph cleanup for this document.
	if err := c.cleanupGraphForDocument(ctx, tx, documentID); err != nil {
		return err
	}

	// Step 11: entity_extraction_segments (not present in this schema
	// generation, tolerated), entity_mentions before entities (FK order),
	// then entities, chunks, extractions, ocr_results.
	if err := c.execTolerant(ctx, tx,
		"DELETE FROM entity_extraction_segments WHERE document_id = ?", documentID); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `
		DELETE FROM entity_mentions WHERE entity_id IN (SELECT id FROM entities WHERE document_id = ?)`,
		documentID); err != nil {
		return wrapWriteError(err, "failed to delete entity mentions")
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM entities WHERE document_id = ?", documentID); err != nil {
		return wrapWriteError(err, "failed to delete entities")
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM chunks WHERE document_id = ?", documentID); err != nil {
		return wrapWriteError(err, "failed to delete chunks")
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM extractions WHERE document_id = ?", documentID); err != nil {
		return wrapWriteError(err, "failed to delete extractions")
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM ocr_results WHERE document_id = ?", documentID); err != nil {
		return wrapWriteError(err, "failed to delete ocr results")
	}

	// Step 12: the chunks_fts shadow table is kept in sync by the
	// chunks_ad/chunks_au triggers on every chunk delete above, so there is
	// no separate FTS metadata row to recompute here. kg_stats is not
	// touched by document deletion (no code in this module writes to it).
	return nil
}

// cleanupGraphForDocument implements cleanup_for_document (§4.6.6): drop
// this document's node_entity_links, decrement document_count on every node
// that was linked, deleting the node (and its incident edges) if it reaches
// zero.
func (c *CascadeController) cleanupGraphForDocument(ctx context.Context, tx *sql.Tx, documentID string) error {
	rows, err := tx.QueryContext(ctx, "SELECT DISTINCT node_id FROM node_entity_links WHERE document_id = ?", documentID)
	if err != nil {
		return common.Internal("failed to find linked knowledge nodes", err)
	}
	var nodeIDs []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return common.Internal("failed to scan linked node id", err)
		}
		nodeIDs = append(nodeIDs, id)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return common.Internal("failed to iterate linked nodes", err)
	}

	if _, err := tx.ExecContext(ctx, "DELETE FROM node_entity_links WHERE document_id = ?", documentID); err != nil {
		return wrapWriteError(err, "failed to delete node entity links")
	}

	for _, nodeID := range nodeIDs {
		var count int
		if err := tx.QueryRowContext(ctx, "SELECT document_count FROM knowledge_nodes WHERE id = ?", nodeID).Scan(&count); err != nil {
			if err == sql.ErrNoRows {
				continue // already gone via an earlier pass in the same delete
			}
			return common.Internal("failed to read node document count", err)
		}
		count--
		if count <= 0 {
			if _, err := tx.ExecContext(ctx,
				"DELETE FROM knowledge_edges WHERE source_node_id = ? OR target_node_id = ?", nodeID, nodeID); err != nil {
				return wrapWriteError(err, "failed to delete edges incident on removed node")
			}
			if _, err := tx.ExecContext(ctx, "DELETE FROM knowledge_nodes WHERE id = ?", nodeID); err != nil {
				return wrapWriteError(err, "failed to delete knowledge node")
			}
			continue
		}
		if _, err := tx.ExecContext(ctx,
			"UPDATE knowledge_nodes SET document_count = ?, updated_at = ? WHERE id = ?",
			count, time.Now().UTC().Format(time.RFC3339Nano), nodeID); err != nil {
			return wrapWriteError(err, "failed to decrement node document count")
		}
	}
	return nil
}

// reparentOrDeleteProvenance implements step 14: walk every provenance row
// rooted at this document's own provenance id, deepest first, breaking
// self-referential links before attempting deletion, then either deleting
// or re-parenting onto ORPHANED_ROOT.
func (c *CascadeController) reparentOrDeleteProvenance(ctx context.Context, tx *sql.Tx, documentID, rootProvenanceID string) error {
	rows, err := tx.QueryContext(ctx,
		"SELECT id, chain_depth FROM provenance WHERE root_document_id = ? ORDER BY chain_depth DESC",
		rootProvenanceID)
	if err != nil {
		return common.Internal("failed to collect document provenance rows", err)
	}
	type provRow struct {
		id    string
		depth int
	}
	var provRows []provRow
	for rows.Next() {
		var r provRow
		if err := rows.Scan(&r.id, &r.depth); err != nil {
			rows.Close()
			return common.Internal("failed to scan provenance row", err)
		}
		provRows = append(provRows, r)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return common.Internal("failed to iterate provenance rows", err)
	}

	// First pass: null parent_id/source_id for every row so later deletes
	// never trip a self-referential FK within the same chain.
	for _, r := range provRows {
		if _, err := tx.ExecContext(ctx,
			"UPDATE provenance SET parent_id = NULL, source_id = NULL WHERE id = ?", r.id); err != nil {
			return wrapWriteError(err, "failed to null provenance self-references")
		}
	}

	var orphanRoot *models.Provenance
	for _, r := range provRows {
		referenced, err := c.provenanceStillReferenced(ctx, tx, r.id)
		if err != nil {
			return err
		}
		if !referenced {
			if _, err := tx.ExecContext(ctx, "DELETE FROM provenance WHERE id = ?", r.id); err != nil {
				return wrapWriteError(err, "failed to delete provenance row")
			}
			continue
		}

		if orphanRoot == nil {
			orphanRoot, err = c.ensureOrphanedRootTx(ctx, tx)
			if err != nil {
				return err
			}
		}

		if _, err := tx.ExecContext(ctx, `
			UPDATE provenance SET parent_id = ?, source_id = ?, root_document_id = ? WHERE id = ?`,
			orphanRoot.ID, orphanRoot.ID, models.OrphanedRootID(), r.id); err != nil {
			return wrapWriteError(err, "failed to re-parent provenance row onto orphaned root")
		}

		if err := c.markReparentedNodes(ctx, tx, r.id, documentID, rootProvenanceID, orphanRoot.ID); err != nil {
			return err
		}
	}
	return nil
}

func (c *CascadeController) provenanceStillReferenced(ctx context.Context, tx *sql.Tx, provenanceID string) (bool, error) {
	var exists int
	err := tx.QueryRowContext(ctx, `
		SELECT EXISTS(SELECT 1 FROM clusters WHERE provenance_id = ?)
		OR EXISTS(SELECT 1 FROM knowledge_nodes WHERE provenance_id = ?)`,
		provenanceID, provenanceID).Scan(&exists)
	if err != nil {
		return false, common.Internal("failed to check provenance references", err)
	}
	return exists != 0, nil
}

func (c *CascadeController) markReparentedNodes(ctx context.Context, tx *sql.Tx, provenanceID, originalDocumentID, originalRootDocumentID, orphanRootID string) error {
	rows, err := tx.QueryContext(ctx, "SELECT id, metadata FROM knowledge_nodes WHERE provenance_id = ?", provenanceID)
	if err != nil {
		return common.Internal("failed to find knowledge nodes to mark reparented", err)
	}
	type nodeRow struct {
		id       string
		metadata string
	}
	var nodeRows []nodeRow
	for rows.Next() {
		var nr nodeRow
		if err := rows.Scan(&nr.id, &nr.metadata); err != nil {
			rows.Close()
			return common.Internal("failed to scan knowledge node", err)
		}
		nodeRows = append(nodeRows, nr)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return common.Internal("failed to iterate knowledge nodes", err)
	}

	marker := models.ReparentedMarker{
		OriginalDocumentID:     originalDocumentID,
		OriginalRootDocumentID: originalRootDocumentID,
		OrphanedRootID:         orphanRootID,
		ReparentedAt:           time.Now().UTC(),
	}

	for _, nr := range nodeRows {
		var metadata map[string]interface{}
		if err := unmarshalJSONInto(nr.metadata, &metadata); err != nil {
			return common.Internal("failed to unmarshal node metadata", err)
		}
		if metadata == nil {
			metadata = map[string]interface{}{}
		}
		metadata["reparented"] = marker
		updated, err := marshalJSON(metadata)
		if err != nil {
			return common.Internal("failed to marshal reparented metadata", err)
		}
		if _, err := tx.ExecContext(ctx,
			"UPDATE knowledge_nodes SET metadata = ?, updated_at = ? WHERE id = ?",
			updated, time.Now().UTC().Format(time.RFC3339Nano), nr.id); err != nil {
			return wrapWriteError(err, "failed to persist reparented marker")
		}
	}
	return nil
}

// ensureOrphanedRootTx mirrors ProvenanceStorage.EnsureOrphanedRoot but runs
// inside the cascade's own transaction so the graveyard row participates in
// the same atomic commit as the re-parenting it enables.
func (c *CascadeController) ensureOrphanedRootTx(ctx context.Context, tx *sql.Tx) (*models.Provenance, error) {
	var existingID string
	err := tx.QueryRowContext(ctx, "SELECT id FROM provenance WHERE id = ?", models.OrphanedRootID()).Scan(&existingID)
	if err == nil {
		return &models.Provenance{ID: existingID, RootDocumentID: models.OrphanedRootID()}, nil
	}
	if err != sql.ErrNoRows {
		return nil, common.Internal("failed to check for existing orphaned root", err)
	}

	p := &models.Provenance{
		ID:               models.OrphanedRootID(),
		Type:             models.ProvenanceDocument,
		SourceType:       "system",
		RootDocumentID:   models.OrphanedRootID(),
		ChainDepth:       0,
		ParentIDs:        []string{},
		ChainPath:        []models.ProvenanceType{models.ProvenanceDocument},
		ContentHash:      common.ComputeHash(models.OrphanedRootID()),
		Processor:        "system",
		ProcessingParams: map[string]interface{}{},
		CreatedAt:        time.Now().UTC(),
	}
	// insert has no receiver-state dependency - reused here so the graveyard
	// row is written through the exact same column set ProvenanceStorage
	// uses outside a cascade, just scoped to this transaction.
	if err := new(ProvenanceStorage).insert(ctx, tx, p); err != nil {
		return nil, err
	}
	return p, nil
}

// execTolerant runs a write statement, swallowing "no such table" so the
// controller can target schema-generation-specific cleanup tables without
// failing on installations that never had them.
func (c *CascadeController) execTolerant(ctx context.Context, tx *sql.Tx, query string, args ...interface{}) error {
	_, err := tx.ExecContext(ctx, query, args...)
	if err != nil && !IsNoSuchTable(err) {
		return wrapWriteError(err, fmt.Sprintf("failed to execute tolerant cleanup statement: %s", query))
	}
	return nil
}
