package models

import "time"

// OCRResult is the text extracted from a document by an external OCR
// provider, owned by exactly one Document.
type OCRResult struct {
	ID             string
	DocumentID     string
	ProvenanceID   string
	ExtractedText  string
	PageCount      int
	RequestID      string
	QualityScore   float64
	Mode           string // fast, balanced, accurate
	CreatedAt      time.Time
}

// Chunk is a positioned slice of a document's text, the unit that gets
// embedded and searched.
type Chunk struct {
	ID              string
	DocumentID      string
	OCRResultID     string
	ProvenanceID    string
	ChunkIndex      int
	Content         string
	TextHash        string // canonical content field for Chunk hash verification
	CharStart       int
	CharEnd         int
	PageNumber      *int
	EmbeddingStatus EmbeddingStatus
	CreatedAt       time.Time
}

// Embedding is denormalized: it carries the full original text and
// source-file identifiers so a similarity hit is self-describing without
// joining back to the chunk, image, or extraction it came from.
type Embedding struct {
	ID            string
	ProvenanceID  string
	ChunkID       *string
	ImageID       *string
	ExtractionID  *string
	OriginalText  string
	SourceFileID  string
	ModelName     string
	Dimension     int
	ContentHash   string // hash of the base64 encoding of the vector bytes
	DurationMS    int64
	CreatedAt     time.Time
}

// OwnerKind reports which of chunk/image/extraction owns this embedding,
// enforcing the exactly-one-non-null invariant at the call site.
func (e *Embedding) OwnerKind() string {
	switch {
	case e.ChunkID != nil:
		return "chunk"
	case e.ImageID != nil:
		return "image"
	case e.ExtractionID != nil:
		return "extraction"
	default:
		return ""
	}
}

// Image is an extracted image asset. VLMEmbeddingID closes a circular
// reference with Embedding (images.vlm_embedding_id -> embeddings.id,
// embeddings.image_id -> images.id) that the cascade controller must
// break explicitly before either table can be drained.
type Image struct {
	ID               string
	DocumentID       string
	ProvenanceID     string
	FilePath         string
	PageNumber       *int
	VLMStatus        VLMStatus
	VLMEmbeddingID   *string
	VLMDescription   *string
	CreatedAt        time.Time
}

// Extraction is a structured-field extraction (e.g. a form or table) tied
// to a document at its own provenance depth.
type Extraction struct {
	ID           string
	DocumentID   string
	ProvenanceID string
	Content      string
	ContentHash  string
	CreatedAt    time.Time
}
