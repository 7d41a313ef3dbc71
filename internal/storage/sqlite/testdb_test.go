package sqlite

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"

	"github.com/chrisroyse/docprov/internal/common"
)

// setupTestDB creates a fresh file-backed SQLite database (migrated to the
// latest schema) for one test, matching the teacher's
// setupTestDB(t) (*SQLiteDB, func()) pattern adapted to return the fully
// wired *Store this module's DAL is built around.
func setupTestDB(t *testing.T) *Store {
	t.Helper()

	tempDir := t.TempDir()
	config := &common.StorageConfig{
		Path:             tempDir + "/test.db",
		BusyTimeoutMS:    5000,
		CacheSizeKB:      2000,
		EmbeddingDim:     4,
		FilesystemRoot:   tempDir,
		DefaultListLimit: 1000,
	}

	store, err := Open(arbor.NewLogger(), config, "test")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	return store
}
