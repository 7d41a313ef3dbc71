package interfaces

import (
	"context"

	"github.com/chrisroyse/docprov/internal/models"
)

// OCRMode selects the accuracy/speed tradeoff an OCR provider uses.
type OCRMode string

const (
	OCRModeFast     OCRMode = "fast"
	OCRModeBalanced OCRMode = "balanced"
	OCRModeAccurate OCRMode = "accurate"
)

// OCRResult is the result handed back by an external OCR provider.
type OCRResult struct {
	ExtractedText string
	PageCount     int
	RequestID     string
	QualityScore  float64
}

// OCRProvider is the thin interface the core consumes from an external OCR
// collaborator (out of scope per the distilled spec's Non-goals; the core
// only depends on this contract).
type OCRProvider interface {
	Extract(ctx context.Context, filePath string, mode OCRMode) (*OCRResult, error)
}

// EmbeddingResult is the result handed back by an external embedding runner.
type EmbeddingResult struct {
	Vectors    [][]float32
	DurationMS int64
}

// EmbeddingRunner is the thin interface the core consumes from an external
// embedding-model collaborator.
type EmbeddingRunner interface {
	Embed(ctx context.Context, texts []string, modelName string) (*EmbeddingResult, error)
}

// ChunkPolicy controls chunk sizing for a Chunker call.
type ChunkPolicy struct {
	Size    int
	Overlap int
}

// ChunkResult is one chunk produced by a Chunker call.
type ChunkResult struct {
	Content    string
	CharStart  int
	CharEnd    int
	PageNumber *int
}

// Chunker is the thin interface the core consumes from an external
// document-chunking tokenizer.
type Chunker interface {
	Chunk(ctx context.Context, text string, policy ChunkPolicy) ([]ChunkResult, error)
}

// ArchivePayload is the document-scoped knowledge-graph subgraph snapshot
// handed to an external archive writer ahead of a destructive operation.
type ArchivePayload struct {
	DocumentID string
	Nodes      []*models.KnowledgeNode
	Edges      []*models.KnowledgeEdge
	Links      []*models.NodeEntityLink
	Entities   []*models.Entity
}

// ArchiveWriter is the thin interface the core consumes from an external
// archive-JSON serialization collaborator (out of scope per the distilled
// spec's Non-goals; the core only gathers the payload and hands it off).
type ArchiveWriter interface {
	WriteArchive(ctx context.Context, filename string, payload ArchivePayload) error
}
