// Package models defines the entity structs and enums that make up the
// document-provenance data model: one struct per table, independent of
// how it is stored or queried.
package models

import "time"

// Document represents one ingested source file. Its ProvenanceID must
// reference a DOCUMENT-type provenance row, uniquely.
type Document struct {
	ID            string
	FilePath      string
	FileName      string
	FileHash      string
	FileSize      int64
	FileType      string
	Status        DocumentStatus
	PageCount     *int
	ProvenanceID  string
	Title         *string
	Author        *string
	Subject       *string
	ErrorMessage  *string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// DocumentSpec is the boundary input for ingesting a new document.
type DocumentSpec struct {
	FilePath string `validate:"required"`
	FileName string `validate:"required"`
	FileHash string `validate:"required"`
	FileSize int64  `validate:"gte=0"`
	FileType string `validate:"required"`
	Title    *string
	Author   *string
	Subject  *string
}
