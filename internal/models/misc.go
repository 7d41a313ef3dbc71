package models

import "time"

// Cluster groups documents judged similar by an external clustering pass.
type Cluster struct {
	ID            string
	ProvenanceID  string
	Label         string
	DocumentCount int
	CreatedAt     time.Time
}

// DocumentClusterAssignment attaches a Document to a Cluster.
type DocumentClusterAssignment struct {
	ID                   string
	DocumentID           string
	ClusterID            string
	SimilarityToCentroid float64 // NOT NULL in schema
	AssignedAt           time.Time // NOT NULL in schema
}

// Comparison records a computed relationship between two documents (e.g.
// a diff or similarity judgement).
type Comparison struct {
	ID             string
	ProvenanceID   string
	DocumentAID    string
	DocumentBID    string
	ComparisonType string
	Result         map[string]interface{}
	CreatedAt      time.Time
}

// FormFill records a structured form filled from a document's extracted
// fields.
type FormFill struct {
	ID           string
	DocumentID   string
	ProvenanceID string
	FormName     string
	Fields       map[string]interface{}
	CreatedAt    time.Time
}

// UploadedFile tracks a raw file handed to the ingestion pipeline before a
// Document row exists for it.
type UploadedFile struct {
	ID         string
	FilePath   string
	FileHash   string
	FileSize   int64
	UploadedAt time.Time
}
