package models

import "time"

// Entity is a single mention extracted from one document, prior to any
// cross-document resolution.
type Entity struct {
	ID             string
	DocumentID     string
	EntityType     EntityType
	RawText        string
	NormalizedText string
	Confidence     float64
	ExtractionID   *string // groups entities pulled from the same extraction pass
	ProvenanceID   string  // ENTITY_EXTRACTION-typed
	CreatedAt      time.Time
}

// EntityMention is an occurrence of an Entity, tied back to the chunk and
// page it was found on. ChunkID is nil for coreferential mentions that
// were resolved without a direct chunk anchor.
type EntityMention struct {
	ID         string
	EntityID   string
	ChunkID    *string
	PageNumber *int
	CreatedAt  time.Time
}
