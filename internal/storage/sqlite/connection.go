package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	sqlite_vec "github.com/asg017/sqlite-vec-go-bindings/cgo"
	"github.com/ternarybob/arbor"

	"github.com/chrisroyse/docprov/internal/common"
	_ "github.com/mattn/go-sqlite3"
)

func init() {
	// Registers the vec0 virtual table module against the mattn/go-sqlite3
	// driver. Must run before the first sql.Open("sqlite3", ...) call.
	sqlite_vec.Auto()
}

// SQLiteDB manages the SQLite database connection and the vec0 virtual
// table dimension it was opened with.
type SQLiteDB struct {
	db           *sql.DB
	logger       arbor.ILogger
	config       *common.StorageConfig
	environment  string
}

// NewSQLiteDB opens (creating if absent) the database at config.Path,
// applies pragmas, and migrates the schema to the latest version.
func NewSQLiteDB(logger arbor.ILogger, config *common.StorageConfig, environment string) (*SQLiteDB, error) {
	if config.Path != ":memory:" {
		dir := filepath.Dir(config.Path)
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	if config.ResetOnStartup {
		if environment != "development" {
			logger.Warn().
				Str("environment", environment).
				Msg("reset_on_startup is enabled but environment is not 'development' - ignoring reset request for safety")
		} else if err := resetDatabase(logger, config.Path); err != nil {
			return nil, fmt.Errorf("failed to reset database: %w", err)
		}
	}

	logger.Debug().Str("path", config.Path).Msg("Opening database connection")

	db, err := sql.Open("sqlite3", config.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite does not handle concurrent writers; the store is single-writer
	// by design (§5), so a single connection avoids SQLITE_BUSY entirely.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	s := &SQLiteDB{
		db:          db,
		logger:      logger,
		config:      config,
		environment: environment,
	}

	if err := s.configure(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to configure database: %w", err)
	}

	if err := s.verifyVectorExtension(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to load vector extension: %w", err)
	}

	engine := NewMigrationEngine(db, logger, config.EmbeddingDim)
	if err := engine.MigrateToLatest(context.Background()); err != nil {
		db.Close()
		return nil, err
	}

	logger.Info().Str("path", config.Path).Msg("SQLite database initialized")
	return s, nil
}

// configure sets up SQLite pragmas per §4.1: WAL journal mode, foreign
// keys enforcement, NORMAL synchronous durability, and cache/busy tuning.
func (s *SQLiteDB) configure() error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA synchronous = NORMAL",
		fmt.Sprintf("PRAGMA busy_timeout = %d", s.config.BusyTimeoutMS),
		fmt.Sprintf("PRAGMA cache_size = -%d", s.config.CacheSizeKB),
	}

	for _, pragma := range pragmas {
		if _, err := s.db.Exec(pragma); err != nil {
			return fmt.Errorf("failed to execute %s: %w", pragma, err)
		}
	}

	var journalMode string
	if err := s.db.QueryRow("PRAGMA journal_mode").Scan(&journalMode); err != nil {
		s.logger.Warn().Err(err).Msg("Failed to verify journal mode")
	} else {
		s.logger.Info().
			Str("journal_mode", journalMode).
			Int("busy_timeout_ms", s.config.BusyTimeoutMS).
			Msg("SQLite configuration applied")
	}

	return nil
}

// verifyVectorExtension confirms the vec0 module loaded by querying its
// version function, failing fast rather than surfacing a confusing error
// the first time a CREATE VIRTUAL TABLE ... USING vec0 statement runs.
func (s *SQLiteDB) verifyVectorExtension() error {
	var version string
	if err := s.db.QueryRow("select vec_version()").Scan(&version); err != nil {
		return fmt.Errorf("vec0 extension did not load: %w", err)
	}
	s.logger.Debug().Str("sqlite_vec_version", version).Msg("Vector extension loaded")
	return nil
}

// DB returns the underlying database connection.
func (s *SQLiteDB) DB() *sql.DB {
	return s.db
}

// Close closes the database connection.
func (s *SQLiteDB) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// BeginTx starts a new transaction.
func (s *SQLiteDB) BeginTx(ctx context.Context) (*sql.Tx, error) {
	return s.db.BeginTx(ctx, nil)
}

// Ping verifies the database connection.
func (s *SQLiteDB) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// resetDatabase deletes the database file and its WAL/SHM companions.
// Only called in development (§6.1: companion files are engine-owned and
// removed on delete).
func resetDatabase(logger arbor.ILogger, dbPath string) error {
	logger.Warn().Str("path", dbPath).Msg("Resetting database (deleting all data)")

	if err := os.Remove(dbPath); err != nil {
		if !os.IsNotExist(err) {
			return fmt.Errorf("failed to delete database file: %w", err)
		}
	} else {
		logger.Info().Str("path", dbPath).Msg("Deleted database file")
	}

	for _, suffix := range []string{"-wal", "-shm"} {
		p := dbPath + suffix
		if err := os.Remove(p); err != nil && !os.IsNotExist(err) {
			logger.Warn().Err(err).Str("path", p).Msg("Failed to delete companion file")
		}
	}

	return nil
}
