package sqlite

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chrisroyse/docprov/internal/common"
	"github.com/chrisroyse/docprov/internal/models"
)

// TestVerifyDatabase_DetectsTamperedHash exercises S8: after manually
// overwriting an OCR result's provenance row with a well-formed but wrong
// content_hash, verify_database reports it invalid and verify_content_hash
// for that row reports format_valid=true, valid=false.
func TestVerifyDatabase_DetectsTamperedHash(t *testing.T) {
	store := setupTestDB(t)
	ctx := context.Background()

	doc, docProv := createTestDocument(t, ctx, store, "s8.pdf")

	ocrProv, err := store.Provenance.Create(ctx, models.ProvenanceSpec{
		Type:        models.ProvenanceOCRResult,
		SourceType:  "ocr_provider",
		ParentID:    &docProv.ID,
		ContentHash: common.ComputeHash("the real extracted text"),
		Processor:   "test-harness",
	})
	require.NoError(t, err)
	_, err = store.OCRResults.Create(ctx, &models.OCRResult{
		DocumentID:    doc.ID,
		ProvenanceID:  ocrProv.ID,
		ExtractedText: "the real extracted text",
		Mode:          "accurate",
	})
	require.NoError(t, err)

	before, err := store.Verifier.VerifyDatabase(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, len(before.Invalid))

	tamperedHash := common.ComputeHash("a completely different payload")
	_, err = store.DB.DB().ExecContext(ctx,
		"UPDATE provenance SET content_hash = ? WHERE id = ?", tamperedHash, ocrProv.ID)
	require.NoError(t, err)

	after, err := store.Verifier.VerifyDatabase(ctx)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, len(after.Invalid), 1)
	assert.Less(t, after.Valid, after.Total)

	result, err := store.Verifier.VerifyContentHash(ctx, ocrProv.ID)
	require.NoError(t, err)
	assert.True(t, result.FormatValid)
	assert.False(t, result.Valid)
	assert.Equal(t, tamperedHash, result.Expected)
}
