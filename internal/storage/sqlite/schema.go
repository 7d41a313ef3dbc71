package sqlite

import "fmt"

// schemaV1 returns the DDL for the initial schema. embeddingDim controls
// the vec0 virtual table's vector width (a compile-time constant per the
// vector-extension contract, §6.4).
//
// knowledge_nodes.provenance_id intentionally has no FK constraint in v1:
// the FK is added by migrateV2, matching the invariant that it is "enforced
// by FK from schema version 18 onward" in the system this was distilled
// from - our compact migration set reaches the equivalent state at v2.
func schemaV1(embeddingDim int) string {
	return fmt.Sprintf(`
CREATE TABLE IF NOT EXISTS provenance (
    id TEXT PRIMARY KEY,
    type TEXT NOT NULL CHECK (type IN (
        'DOCUMENT','OCR_RESULT','CHUNK','IMAGE','VLM_DESCRIPTION','EMBEDDING',
        'EXTRACTION','FORM_FILL','ENTITY_EXTRACTION','COMPARISON','CLUSTERING','KNOWLEDGE_GRAPH'
    )),
    source_type TEXT NOT NULL,
    source_id TEXT REFERENCES provenance(id),
    parent_id TEXT REFERENCES provenance(id),
    parent_ids TEXT NOT NULL DEFAULT '[]',
    root_document_id TEXT NOT NULL,
    chain_depth INTEGER NOT NULL DEFAULT 0,
    chain_path TEXT NOT NULL DEFAULT '[]',
    content_hash TEXT NOT NULL,
    input_hash TEXT NOT NULL DEFAULT '',
    file_hash TEXT NOT NULL DEFAULT '',
    processor TEXT NOT NULL,
    processor_version TEXT NOT NULL DEFAULT '',
    processing_params TEXT NOT NULL DEFAULT '{}',
    duration_ms INTEGER,
    quality_score REAL,
    created_at TEXT NOT NULL DEFAULT (strftime('%%Y-%%m-%%dT%%H:%%M:%%fZ', 'now'))
);

CREATE TABLE IF NOT EXISTS documents (
    id TEXT PRIMARY KEY,
    file_path TEXT NOT NULL,
    file_name TEXT NOT NULL,
    file_hash TEXT NOT NULL,
    file_size INTEGER NOT NULL,
    file_type TEXT NOT NULL,
    status TEXT NOT NULL DEFAULT 'pending' CHECK (status IN ('pending','processing','complete','failed')),
    page_count INTEGER,
    provenance_id TEXT NOT NULL UNIQUE REFERENCES provenance(id),
    title TEXT,
    author TEXT,
    subject TEXT,
    error_message TEXT,
    created_at TEXT NOT NULL DEFAULT (strftime('%%Y-%%m-%%dT%%H:%%M:%%fZ', 'now')),
    updated_at TEXT NOT NULL DEFAULT (strftime('%%Y-%%m-%%dT%%H:%%M:%%fZ', 'now'))
);
CREATE INDEX IF NOT EXISTS idx_documents_hash ON documents(file_hash);
CREATE INDEX IF NOT EXISTS idx_documents_path ON documents(file_path);

CREATE TABLE IF NOT EXISTS ocr_results (
    id TEXT PRIMARY KEY,
    document_id TEXT NOT NULL REFERENCES documents(id),
    provenance_id TEXT NOT NULL UNIQUE REFERENCES provenance(id),
    extracted_text TEXT NOT NULL,
    page_count INTEGER NOT NULL DEFAULT 0,
    request_id TEXT NOT NULL DEFAULT '',
    quality_score REAL NOT NULL DEFAULT 0,
    mode TEXT NOT NULL DEFAULT 'balanced',
    created_at TEXT NOT NULL DEFAULT (strftime('%%Y-%%m-%%dT%%H:%%M:%%fZ', 'now'))
);
CREATE INDEX IF NOT EXISTS idx_ocr_results_document ON ocr_results(document_id);

CREATE TABLE IF NOT EXISTS chunks (
    id TEXT PRIMARY KEY,
    document_id TEXT NOT NULL REFERENCES documents(id),
    ocr_result_id TEXT NOT NULL REFERENCES ocr_results(id),
    provenance_id TEXT NOT NULL UNIQUE REFERENCES provenance(id),
    chunk_index INTEGER NOT NULL,
    content TEXT NOT NULL,
    text_hash TEXT NOT NULL,
    char_start INTEGER NOT NULL,
    char_end INTEGER NOT NULL,
    page_number INTEGER,
    embedding_status TEXT NOT NULL DEFAULT 'pending' CHECK (embedding_status IN ('pending','complete','failed')),
    created_at TEXT NOT NULL DEFAULT (strftime('%%Y-%%m-%%dT%%H:%%M:%%fZ', 'now'))
);
CREATE INDEX IF NOT EXISTS idx_chunks_document ON chunks(document_id);

CREATE VIRTUAL TABLE IF NOT EXISTS chunks_fts USING fts5(
    content,
    content='chunks',
    content_rowid='rowid',
    tokenize='porter unicode61'
);
CREATE TRIGGER IF NOT EXISTS chunks_ai AFTER INSERT ON chunks BEGIN
    INSERT INTO chunks_fts(rowid, content) VALUES (new.rowid, new.content);
END;
CREATE TRIGGER IF NOT EXISTS chunks_ad AFTER DELETE ON chunks BEGIN
    INSERT INTO chunks_fts(chunks_fts, rowid, content) VALUES ('delete', old.rowid, old.content);
END;
CREATE TRIGGER IF NOT EXISTS chunks_au AFTER UPDATE ON chunks BEGIN
    INSERT INTO chunks_fts(chunks_fts, rowid, content) VALUES ('delete', old.rowid, old.content);
    INSERT INTO chunks_fts(rowid, content) VALUES (new.rowid, new.content);
END;

CREATE TABLE IF NOT EXISTS images (
    id TEXT PRIMARY KEY,
    document_id TEXT NOT NULL REFERENCES documents(id),
    provenance_id TEXT NOT NULL UNIQUE REFERENCES provenance(id),
    file_path TEXT NOT NULL,
    page_number INTEGER,
    vlm_status TEXT NOT NULL DEFAULT 'pending' CHECK (vlm_status IN ('pending','complete','failed')),
    vlm_embedding_id TEXT,
    vlm_description TEXT,
    created_at TEXT NOT NULL DEFAULT (strftime('%%Y-%%m-%%dT%%H:%%M:%%fZ', 'now'))
);
CREATE INDEX IF NOT EXISTS idx_images_document ON images(document_id);
CREATE INDEX IF NOT EXISTS idx_images_vlm_embedding ON images(vlm_embedding_id);

CREATE TABLE IF NOT EXISTS extractions (
    id TEXT PRIMARY KEY,
    document_id TEXT NOT NULL REFERENCES documents(id),
    provenance_id TEXT NOT NULL UNIQUE REFERENCES provenance(id),
    content TEXT NOT NULL,
    content_hash TEXT NOT NULL,
    created_at TEXT NOT NULL DEFAULT (strftime('%%Y-%%m-%%dT%%H:%%M:%%fZ', 'now'))
);
CREATE INDEX IF NOT EXISTS idx_extractions_document ON extractions(document_id);

-- embeddings.image_id and images.vlm_embedding_id form the circular
-- reference the cascade controller must break explicitly (§4.5); neither
-- side carries ON DELETE CASCADE for that reason.
CREATE TABLE IF NOT EXISTS embeddings (
    id TEXT PRIMARY KEY,
    provenance_id TEXT NOT NULL UNIQUE REFERENCES provenance(id),
    chunk_id TEXT REFERENCES chunks(id),
    image_id TEXT REFERENCES images(id),
    extraction_id TEXT REFERENCES extractions(id),
    original_text TEXT NOT NULL,
    source_file_id TEXT NOT NULL,
    model_name TEXT NOT NULL,
    dimension INTEGER NOT NULL,
    content_hash TEXT NOT NULL,
    duration_ms INTEGER NOT NULL DEFAULT 0,
    created_at TEXT NOT NULL DEFAULT (strftime('%%Y-%%m-%%dT%%H:%%M:%%fZ', 'now')),
    CHECK ((chunk_id IS NOT NULL) + (image_id IS NOT NULL) + (extraction_id IS NOT NULL) = 1)
);
CREATE INDEX IF NOT EXISTS idx_embeddings_chunk ON embeddings(chunk_id);
CREATE INDEX IF NOT EXISTS idx_embeddings_image ON embeddings(image_id);
CREATE INDEX IF NOT EXISTS idx_embeddings_extraction ON embeddings(extraction_id);

CREATE VIRTUAL TABLE IF NOT EXISTS vec_embeddings USING vec0(
    embedding_id TEXT PRIMARY KEY,
    vector FLOAT[%d]
);

CREATE TABLE IF NOT EXISTS entities (
    id TEXT PRIMARY KEY,
    document_id TEXT NOT NULL REFERENCES documents(id),
    entity_type TEXT NOT NULL CHECK (entity_type IN (
        'person','organization','date','amount','case_number','location',
        'statute','exhibit','medication','diagnosis','medical_device','other'
    )),
    raw_text TEXT NOT NULL,
    normalized_text TEXT NOT NULL,
    confidence REAL NOT NULL,
    extraction_id TEXT REFERENCES extractions(id),
    provenance_id TEXT NOT NULL UNIQUE REFERENCES provenance(id),
    created_at TEXT NOT NULL DEFAULT (strftime('%%Y-%%m-%%dT%%H:%%M:%%fZ', 'now'))
);
CREATE INDEX IF NOT EXISTS idx_entities_document ON entities(document_id);
CREATE INDEX IF NOT EXISTS idx_entities_type ON entities(entity_type);
CREATE INDEX IF NOT EXISTS idx_entities_normalized ON entities(entity_type, normalized_text);

CREATE TABLE IF NOT EXISTS entity_mentions (
    id TEXT PRIMARY KEY,
    entity_id TEXT NOT NULL REFERENCES entities(id),
    chunk_id TEXT REFERENCES chunks(id),
    page_number INTEGER,
    created_at TEXT NOT NULL DEFAULT (strftime('%%Y-%%m-%%dT%%H:%%M:%%fZ', 'now'))
);
CREATE INDEX IF NOT EXISTS idx_entity_mentions_entity ON entity_mentions(entity_id);

CREATE TABLE IF NOT EXISTS knowledge_nodes (
    id TEXT PRIMARY KEY,
    entity_type TEXT NOT NULL,
    canonical_name TEXT NOT NULL,
    normalized_name TEXT NOT NULL,
    aliases TEXT NOT NULL DEFAULT '[]',
    document_count INTEGER NOT NULL DEFAULT 1,
    mention_count INTEGER NOT NULL DEFAULT 1,
    edge_count INTEGER NOT NULL DEFAULT 0,
    avg_confidence REAL NOT NULL DEFAULT 0,
    importance_score REAL NOT NULL DEFAULT 0,
    resolution_type TEXT NOT NULL DEFAULT 'exact' CHECK (resolution_type IN ('exact','fuzzy')),
    metadata TEXT NOT NULL DEFAULT '{}',
    provenance_id TEXT NOT NULL,
    created_at TEXT NOT NULL DEFAULT (strftime('%%Y-%%m-%%dT%%H:%%M:%%fZ', 'now')),
    updated_at TEXT NOT NULL DEFAULT (strftime('%%Y-%%m-%%dT%%H:%%M:%%fZ', 'now'))
);
CREATE INDEX IF NOT EXISTS idx_knowledge_nodes_type ON knowledge_nodes(entity_type);
CREATE INDEX IF NOT EXISTS idx_knowledge_nodes_name ON knowledge_nodes(normalized_name);

CREATE TABLE IF NOT EXISTS knowledge_edges (
    id TEXT PRIMARY KEY,
    source_node_id TEXT NOT NULL REFERENCES knowledge_nodes(id),
    target_node_id TEXT NOT NULL REFERENCES knowledge_nodes(id),
    relationship_type TEXT NOT NULL CHECK (relationship_type IN (
        'co_mentioned','co_located','works_at','represents','located_in','filed_in',
        'cites','references','party_to','related_to','precedes','occurred_at',
        'treated_with','administered_via','managed_by','interacts_with','same_as',
        'parent_of','child_of','part_of','has_part'
    )),
    weight REAL NOT NULL CHECK (weight > 0 AND weight <= 1),
    evidence_count INTEGER NOT NULL DEFAULT 1,
    document_ids TEXT NOT NULL DEFAULT '[]',
    valid_from TEXT,
    valid_until TEXT,
    normalized_weight REAL,
    contradiction_count INTEGER NOT NULL DEFAULT 0,
    metadata TEXT NOT NULL DEFAULT '{}',
    created_at TEXT NOT NULL DEFAULT (strftime('%%Y-%%m-%%dT%%H:%%M:%%fZ', 'now')),
    updated_at TEXT NOT NULL DEFAULT (strftime('%%Y-%%m-%%dT%%H:%%M:%%fZ', 'now'))
);
CREATE INDEX IF NOT EXISTS idx_knowledge_edges_source ON knowledge_edges(source_node_id);
CREATE INDEX IF NOT EXISTS idx_knowledge_edges_target ON knowledge_edges(target_node_id);
CREATE INDEX IF NOT EXISTS idx_knowledge_edges_type ON knowledge_edges(relationship_type);

CREATE TABLE IF NOT EXISTS node_entity_links (
    id TEXT PRIMARY KEY,
    node_id TEXT NOT NULL REFERENCES knowledge_nodes(id),
    entity_id TEXT NOT NULL UNIQUE REFERENCES entities(id),
    document_id TEXT NOT NULL REFERENCES documents(id),
    similarity_score REAL NOT NULL DEFAULT 1.0,
    resolution_method TEXT NOT NULL DEFAULT 'exact' CHECK (resolution_method IN ('exact','fuzzy')),
    created_at TEXT NOT NULL DEFAULT (strftime('%%Y-%%m-%%dT%%H:%%M:%%fZ', 'now'))
);
CREATE INDEX IF NOT EXISTS idx_node_entity_links_node ON node_entity_links(node_id);
CREATE INDEX IF NOT EXISTS idx_node_entity_links_document ON node_entity_links(document_id);

CREATE TABLE IF NOT EXISTS clusters (
    id TEXT PRIMARY KEY,
    provenance_id TEXT NOT NULL UNIQUE REFERENCES provenance(id),
    label TEXT NOT NULL,
    document_count INTEGER NOT NULL DEFAULT 0,
    created_at TEXT NOT NULL DEFAULT (strftime('%%Y-%%m-%%dT%%H:%%M:%%fZ', 'now'))
);

CREATE TABLE IF NOT EXISTS document_clusters (
    id TEXT PRIMARY KEY,
    document_id TEXT NOT NULL REFERENCES documents(id),
    cluster_id TEXT NOT NULL REFERENCES clusters(id),
    similarity_to_centroid REAL NOT NULL,
    assigned_at TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_document_clusters_document ON document_clusters(document_id);
CREATE INDEX IF NOT EXISTS idx_document_clusters_cluster ON document_clusters(cluster_id);

CREATE TABLE IF NOT EXISTS comparisons (
    id TEXT PRIMARY KEY,
    provenance_id TEXT NOT NULL UNIQUE REFERENCES provenance(id),
    document_a_id TEXT NOT NULL REFERENCES documents(id),
    document_b_id TEXT NOT NULL REFERENCES documents(id),
    comparison_type TEXT NOT NULL,
    result TEXT NOT NULL DEFAULT '{}',
    created_at TEXT NOT NULL DEFAULT (strftime('%%Y-%%m-%%dT%%H:%%M:%%fZ', 'now'))
);
CREATE INDEX IF NOT EXISTS idx_comparisons_a ON comparisons(document_a_id);
CREATE INDEX IF NOT EXISTS idx_comparisons_b ON comparisons(document_b_id);

CREATE TABLE IF NOT EXISTS form_fills (
    id TEXT PRIMARY KEY,
    document_id TEXT NOT NULL REFERENCES documents(id),
    provenance_id TEXT NOT NULL UNIQUE REFERENCES provenance(id),
    form_name TEXT NOT NULL,
    fields TEXT NOT NULL DEFAULT '{}',
    created_at TEXT NOT NULL DEFAULT (strftime('%%Y-%%m-%%dT%%H:%%M:%%fZ', 'now'))
);
CREATE INDEX IF NOT EXISTS idx_form_fills_document ON form_fills(document_id);

CREATE TABLE IF NOT EXISTS uploaded_files (
    id TEXT PRIMARY KEY,
    file_path TEXT NOT NULL,
    file_hash TEXT NOT NULL,
    file_size INTEGER NOT NULL,
    uploaded_at TEXT NOT NULL DEFAULT (strftime('%%Y-%%m-%%dT%%H:%%M:%%fZ', 'now'))
);

-- Single-row table for graph statistics. It is created here with zero
-- counts and nothing in this module writes to it afterwards: build_graph
-- does not update it, and stats() recomputes its figures from the node,
-- edge and link tables on every call.
CREATE TABLE IF NOT EXISTS kg_stats (
    id INTEGER PRIMARY KEY CHECK (id = 1),
    total_nodes INTEGER NOT NULL DEFAULT 0,
    total_edges INTEGER NOT NULL DEFAULT 0,
    total_links INTEGER NOT NULL DEFAULT 0,
    updated_at TEXT NOT NULL DEFAULT (strftime('%%Y-%%m-%%dT%%H:%%M:%%fZ', 'now'))
);
INSERT OR IGNORE INTO kg_stats (id, total_nodes, total_edges, total_links) VALUES (1, 0, 0, 0);
`, embeddingDim)
}

// expectedTables lists every base table and virtual table the verifier
// checks for after migration (§4.1 step e).
var expectedTables = []string{
	"provenance", "documents", "ocr_results", "chunks", "chunks_fts", "images",
	"extractions", "embeddings", "vec_embeddings", "entities", "entity_mentions",
	"knowledge_nodes", "knowledge_edges", "node_entity_links", "clusters",
	"document_clusters", "comparisons", "form_fills", "uploaded_files", "kg_stats",
}

var expectedIndexes = []string{
	"idx_documents_hash", "idx_documents_path", "idx_ocr_results_document",
	"idx_chunks_document", "idx_images_document", "idx_images_vlm_embedding",
	"idx_extractions_document", "idx_embeddings_chunk", "idx_embeddings_image",
	"idx_embeddings_extraction", "idx_entities_document", "idx_entities_type",
	"idx_entities_normalized", "idx_entity_mentions_entity", "idx_knowledge_nodes_type",
	"idx_knowledge_nodes_name", "idx_knowledge_edges_source", "idx_knowledge_edges_target",
	"idx_knowledge_edges_type", "idx_node_entity_links_node", "idx_node_entity_links_document",
	"idx_document_clusters_document", "idx_document_clusters_cluster",
	"idx_comparisons_a", "idx_comparisons_b", "idx_form_fills_document",
}
