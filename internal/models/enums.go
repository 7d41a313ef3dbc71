package models

// ProvenanceType identifies what kind of artifact a provenance row backs.
type ProvenanceType string

const (
	ProvenanceDocument        ProvenanceType = "DOCUMENT"
	ProvenanceOCRResult       ProvenanceType = "OCR_RESULT"
	ProvenanceChunk           ProvenanceType = "CHUNK"
	ProvenanceImage           ProvenanceType = "IMAGE"
	ProvenanceVLMDescription  ProvenanceType = "VLM_DESCRIPTION"
	ProvenanceEmbedding       ProvenanceType = "EMBEDDING"
	ProvenanceExtraction      ProvenanceType = "EXTRACTION"
	ProvenanceFormFill        ProvenanceType = "FORM_FILL"
	ProvenanceEntityExtraction ProvenanceType = "ENTITY_EXTRACTION"
	ProvenanceComparison      ProvenanceType = "COMPARISON"
	ProvenanceClustering      ProvenanceType = "CLUSTERING"
	ProvenanceKnowledgeGraph  ProvenanceType = "KNOWLEDGE_GRAPH"
)

// DocumentStatus tracks a document's processing lifecycle.
type DocumentStatus string

const (
	DocumentStatusPending    DocumentStatus = "pending"
	DocumentStatusProcessing DocumentStatus = "processing"
	DocumentStatusComplete   DocumentStatus = "complete"
	DocumentStatusFailed     DocumentStatus = "failed"
)

// EmbeddingStatus tracks a chunk's embedding progress.
type EmbeddingStatus string

const (
	EmbeddingStatusPending  EmbeddingStatus = "pending"
	EmbeddingStatusComplete EmbeddingStatus = "complete"
	EmbeddingStatusFailed   EmbeddingStatus = "failed"
)

// VLMStatus tracks an image's vision-language captioning progress.
type VLMStatus string

const (
	VLMStatusPending  VLMStatus = "pending"
	VLMStatusComplete VLMStatus = "complete"
	VLMStatusFailed   VLMStatus = "failed"
)

// EntityType enumerates the kinds of entities the extractor recognizes.
type EntityType string

const (
	EntityPerson         EntityType = "person"
	EntityOrganization   EntityType = "organization"
	EntityDate           EntityType = "date"
	EntityAmount         EntityType = "amount"
	EntityCaseNumber     EntityType = "case_number"
	EntityLocation       EntityType = "location"
	EntityStatute        EntityType = "statute"
	EntityExhibit        EntityType = "exhibit"
	EntityMedication     EntityType = "medication"
	EntityDiagnosis      EntityType = "diagnosis"
	EntityMedicalDevice  EntityType = "medical_device"
	EntityOther          EntityType = "other"
)

// RelationshipType enumerates the kinds of edges the knowledge graph carries.
type RelationshipType string

const (
	RelCoMentioned   RelationshipType = "co_mentioned"
	RelCoLocated     RelationshipType = "co_located"
	RelWorksAt       RelationshipType = "works_at"
	RelRepresents    RelationshipType = "represents"
	RelLocatedIn     RelationshipType = "located_in"
	RelFiledIn       RelationshipType = "filed_in"
	RelCites         RelationshipType = "cites"
	RelReferences    RelationshipType = "references"
	RelPartyTo       RelationshipType = "party_to"
	RelRelatedTo     RelationshipType = "related_to"
	RelPrecedes      RelationshipType = "precedes"
	RelOccurredAt    RelationshipType = "occurred_at"
	RelTreatedWith   RelationshipType = "treated_with"
	RelAdministeredVia RelationshipType = "administered_via"
	RelManagedBy     RelationshipType = "managed_by"
	RelInteractsWith RelationshipType = "interacts_with"
	RelSameAs        RelationshipType = "same_as"
	RelParentOf      RelationshipType = "parent_of"
	RelChildOf       RelationshipType = "child_of"
	RelPartOf        RelationshipType = "part_of"
	RelHasPart       RelationshipType = "has_part"
	RelPrecededBy    RelationshipType = "preceded_by"
	RelFollowedBy    RelationshipType = "followed_by"
	RelReferencedIn  RelationshipType = "referenced_in"
	RelSignedBy      RelationshipType = "signed_by"
)

// ResolutionMode selects the entity-resolution strategy used by a graph build.
type ResolutionMode string

const (
	ResolutionExact ResolutionMode = "exact"
	ResolutionFuzzy ResolutionMode = "fuzzy"
)

// ResolutionType records which tier resolved a node.
type ResolutionType string

const (
	ResolutionTypeExact ResolutionType = "exact"
	ResolutionTypeFuzzy ResolutionType = "fuzzy"
)

const orphanedRootID = "ORPHANED_ROOT"

// OrphanedRootID is the sentinel root_document_id used by the synthetic
// orphaned-root provenance row.
func OrphanedRootID() string {
	return orphanedRootID
}
