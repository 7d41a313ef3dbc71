package models

import "time"

// Provenance is the backbone record of the chain-of-custody graph: every
// artifact in the store carries exactly one, linking it to the artifact
// that produced it and, transitively, back to a root Document.
type Provenance struct {
	ID               string
	Type             ProvenanceType
	SourceType       string
	SourceID         *string // self-reference to the producer provenance, nullable
	ParentID         *string // self-reference, nullable
	ParentIDs        []string
	RootDocumentID   string // a DOCUMENT provenance id, or the synthetic ORPHANED_ROOT
	ChainDepth       int
	ChainPath        []ProvenanceType
	ContentHash      string
	InputHash        string
	FileHash         string
	Processor        string
	ProcessorVersion string
	ProcessingParams map[string]interface{}
	DurationMS       *int64
	QualityScore     *float64
	CreatedAt        time.Time
}

// ProvenanceSpec is the boundary input for creating a new provenance row.
// ChainDepth, ParentIDs and ChainPath are computed by the graph manager,
// not supplied by the caller.
type ProvenanceSpec struct {
	Type             ProvenanceType `validate:"required"`
	SourceType       string         `validate:"required"`
	SourceID         *string
	ParentID         *string
	ContentHash      string `validate:"required"`
	InputHash        string
	FileHash         string
	Processor        string `validate:"required"`
	ProcessorVersion string
	ProcessingParams map[string]interface{}
	DurationMS       *int64
	QualityScore     *float64
}

// IsRoot reports whether this provenance row is itself a root DOCUMENT row.
func (p *Provenance) IsRoot() bool {
	return p.Type == ProvenanceDocument && p.ParentID == nil
}
