package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/ternarybob/arbor"

	"github.com/chrisroyse/docprov/internal/common"
)

// SchemaVersion is the highest version this engine knows how to reach.
// The engine refuses to operate against a stored version greater than
// this (§4.1: "fail-loud error rather than a silent downgrade").
const SchemaVersion = 3

type migration struct {
	version int
	name    string
	up      func(ctx context.Context, tx *sql.Tx, embeddingDim int) error
}

// MigrationEngine owns the schema_migrations table and the linear sequence
// of numbered forward migrations (C1). schema_migrations holds one row per
// applied migration and the current version is the highest one recorded;
// there is no single-row schema_version table.
type MigrationEngine struct {
	db           *sql.DB
	logger       arbor.ILogger
	embeddingDim int
	migrations   []migration
}

// NewMigrationEngine constructs the engine with its ordered migration list.
func NewMigrationEngine(db *sql.DB, logger arbor.ILogger, embeddingDim int) *MigrationEngine {
	return &MigrationEngine{
		db:           db,
		logger:       logger,
		embeddingDim: embeddingDim,
		migrations: []migration{
			{version: 1, name: "initial_schema", up: migrateV1},
			{version: 2, name: "knowledge_node_provenance_fk", up: migrateV2},
			{version: 3, name: "relationship_type_temporal_expansion", up: migrateV3},
		},
	}
}

// MigrateToLatest reads the current schema version, refuses to proceed if
// it exceeds SchemaVersion, applies every pending migration in order, and
// finally runs the schema verifier (§4.1).
func (e *MigrationEngine) MigrateToLatest(ctx context.Context) error {
	if err := e.createVersionTable(ctx); err != nil {
		return common.SchemaError("failed to create schema_migrations table", err)
	}

	current, err := e.currentVersion(ctx)
	if err != nil {
		return common.SchemaError("failed to read schema version", err)
	}

	if current > SchemaVersion {
		return common.VersionTooNew(fmt.Sprintf(
			"stored schema version %d exceeds supported version %d", current, SchemaVersion))
	}

	for _, m := range e.migrations {
		if m.version <= current {
			continue
		}
		if err := e.apply(ctx, m); err != nil {
			return common.MigrationError(fmt.Sprintf("migration %d (%s) failed", m.version, m.name), err)
		}
		e.logger.Info().Int("version", m.version).Str("name", m.name).Msg("Applied migration")
	}

	return VerifySchema(ctx, e.db)
}

func (e *MigrationEngine) createVersionTable(ctx context.Context) error {
	_, err := e.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			name TEXT NOT NULL,
			applied_at TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%fZ', 'now'))
		)`)
	return err
}

func (e *MigrationEngine) currentVersion(ctx context.Context) (int, error) {
	var version int
	err := e.db.QueryRowContext(ctx, "SELECT COALESCE(MAX(version), 0) FROM schema_migrations").Scan(&version)
	return version, err
}

func (e *MigrationEngine) apply(ctx context.Context, m migration) error {
	tx, err := e.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := m.up(ctx, tx, e.embeddingDim); err != nil {
		return err
	}

	if _, err := tx.ExecContext(ctx,
		"INSERT INTO schema_migrations (version, name) VALUES (?, ?)", m.version, m.name); err != nil {
		return err
	}

	return tx.Commit()
}

// migrateV1 lays down the full initial schema.
func migrateV1(ctx context.Context, tx *sql.Tx, embeddingDim int) error {
	if _, err := tx.ExecContext(ctx, schemaV1(embeddingDim)); err != nil {
		return fmt.Errorf("failed to apply initial schema: %w", err)
	}
	return nil
}

// migrateV2 adds the foreign key from knowledge_nodes.provenance_id to
// provenance(id) (invariant I5: "enforced by FK from schema version 18
// onward" in the system this was distilled from). SQLite cannot ALTER a
// column to add a REFERENCES clause, so the table is recreated: copy rows
// to a temporary name, drop, recreate with the constraint, copy back,
// rebuild indexes.
func migrateV2(ctx context.Context, tx *sql.Tx, _ int) error {
	steps := []string{
		`CREATE TABLE knowledge_nodes_new (
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
			provenance_id TEXT NOT NULL REFERENCES provenance(id),
			created_at TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%fZ', 'now')),
			updated_at TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%fZ', 'now'))
		)`,
		`INSERT INTO knowledge_nodes_new SELECT * FROM knowledge_nodes`,
		`DROP TABLE knowledge_nodes`,
		`ALTER TABLE knowledge_nodes_new RENAME TO knowledge_nodes`,
		`CREATE INDEX idx_knowledge_nodes_type ON knowledge_nodes(entity_type)`,
		`CREATE INDEX idx_knowledge_nodes_name ON knowledge_nodes(normalized_name)`,
	}
	for _, stmt := range steps {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to recreate knowledge_nodes: %w\nstatement: %s", err, stmt)
		}
	}
	return nil
}

// migrateV3 widens the relationship_type CHECK constraint to add the
// temporal/reference relation kinds (preceded_by, followed_by,
// referenced_in, signed_by) that the original rule table grew over time.
// Any existing rows keep their values unchanged; only the constraint widens.
func migrateV3(ctx context.Context, tx *sql.Tx, _ int) error {
	steps := []string{
		`CREATE TABLE knowledge_edges_new (
			id TEXT PRIMARY KEY,
			source_node_id TEXT NOT NULL REFERENCES knowledge_nodes(id),
			target_node_id TEXT NOT NULL REFERENCES knowledge_nodes(id),
			relationship_type TEXT NOT NULL CHECK (relationship_type IN (
				'co_mentioned','co_located','works_at','represents','located_in','filed_in',
				'cites','references','party_to','related_to','precedes','occurred_at',
				'treated_with','administered_via','managed_by','interacts_with','same_as',
				'parent_of','child_of','part_of','has_part',
				'preceded_by','followed_by','referenced_in','signed_by'
			)),
			weight REAL NOT NULL CHECK (weight > 0 AND weight <= 1),
			evidence_count INTEGER NOT NULL DEFAULT 1,
			document_ids TEXT NOT NULL DEFAULT '[]',
			valid_from TEXT,
			valid_until TEXT,
			normalized_weight REAL,
			contradiction_count INTEGER NOT NULL DEFAULT 0,
			metadata TEXT NOT NULL DEFAULT '{}',
			created_at TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%fZ', 'now')),
			updated_at TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%fZ', 'now'))
		)`,
		`INSERT INTO knowledge_edges_new SELECT * FROM knowledge_edges`,
		`DROP TABLE knowledge_edges`,
		`ALTER TABLE knowledge_edges_new RENAME TO knowledge_edges`,
		`CREATE INDEX idx_knowledge_edges_source ON knowledge_edges(source_node_id)`,
		`CREATE INDEX idx_knowledge_edges_target ON knowledge_edges(target_node_id)`,
		`CREATE INDEX idx_knowledge_edges_type ON knowledge_edges(relationship_type)`,
	}
	for _, stmt := range steps {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to recreate knowledge_edges: %w\nstatement: %s", err, stmt)
		}
	}
	return nil
}
