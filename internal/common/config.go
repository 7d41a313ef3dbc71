package common

import (
	"fmt"
	"os"

	"github.com/pelletier/go-toml/v2"
)

// Config represents the application configuration.
type Config struct {
	Environment string        `toml:"environment"` // "development" or "production"
	Storage     StorageConfig `toml:"storage"`
	Logging     LoggingConfig `toml:"logging"`
	Graph       GraphConfig   `toml:"graph"`
}

// StorageConfig controls the SQLite database location and connection behaviour.
type StorageConfig struct {
	Path             string `toml:"path"`               // Database file path (":memory:" for in-memory)
	ResetOnStartup   bool   `toml:"reset_on_startup"`   // Delete database file on startup
	BusyTimeoutMS    int    `toml:"busy_timeout_ms"`    // SQLite busy_timeout pragma, in milliseconds
	CacheSizeKB      int    `toml:"cache_size_kb"`      // SQLite cache_size pragma, negative-KB convention applied internally
	EmbeddingDim     int    `toml:"embedding_dim"`      // Dimension of the vec0 virtual table
	FilesystemRoot   string `toml:"filesystem_root"`    // Root directory for ingested source files
	DefaultListLimit int    `toml:"default_list_limit"` // Bounded default for unlimited ListOptions paging
}

type LoggingConfig struct {
	Level      string   `toml:"level"`       // "debug", "info", "warn", "error"
	Format     string   `toml:"format"`      // "json" or "text"
	Output     []string `toml:"output"`      // "stdout", "file"
	TimeFormat string   `toml:"time_format"` // Time format for logs (default: "15:04:05.000")
}

// GraphConfig controls entity-resolution thresholds and path-finding defaults
// for the knowledge-graph builder.
type GraphConfig struct {
	FuzzyMatchThreshold   float64 `toml:"fuzzy_match_threshold"`   // Minimum Jaro-Winkler score for tier-2 resolution
	MaxEntitiesForPairwise int    `toml:"max_entities_for_pairwise"` // Fail loud above this count instead of silently truncating
	DefaultMaxPathDepth   int     `toml:"default_max_path_depth"`  // Default bound for bidirectional BFS
	DefaultMaxPaths       int     `toml:"default_max_paths"`       // Default cap on number of shortest paths returned
}

// NewDefaultConfig returns configuration with production-stable defaults.
// Only user-facing settings should be overridden via a config file.
func NewDefaultConfig() *Config {
	return &Config{
		Environment: "development",
		Storage: StorageConfig{
			Path:             "./data/docprov.db",
			ResetOnStartup:   false,
			BusyTimeoutMS:    5000,
			CacheSizeKB:      20000,
			EmbeddingDim:     768,
			FilesystemRoot:   "./data/files",
			DefaultListLimit: 10000,
		},
		Logging: LoggingConfig{
			Level:      "info",
			Format:     "text",
			Output:     []string{"stdout", "file"},
			TimeFormat: "15:04:05.000",
		},
		Graph: GraphConfig{
			FuzzyMatchThreshold:    0.85,
			MaxEntitiesForPairwise: 5000,
			DefaultMaxPathDepth:    3,
			DefaultMaxPaths:        50,
		},
	}
}

// LoadConfig loads configuration with priority: defaults -> file -> env.
// An empty path returns the defaults untouched.
func LoadConfig(path string) (*Config, error) {
	config := NewDefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
		if err := toml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	applyEnvOverrides(config)

	return config, nil
}

// applyEnvOverrides lets a handful of operational knobs be set without a
// config file, matching the teacher's env-override convention.
func applyEnvOverrides(config *Config) {
	if v := os.Getenv("DOCPROV_STORAGE_PATH"); v != "" {
		config.Storage.Path = v
	}
	if v := os.Getenv("DOCPROV_LOG_LEVEL"); v != "" {
		config.Logging.Level = v
	}
	if v := os.Getenv("DOCPROV_ENVIRONMENT"); v != "" {
		config.Environment = v
	}
}
