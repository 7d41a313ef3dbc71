// Package filearchive is a minimal local-disk implementation of
// interfaces.ArchiveWriter. Archive-JSON serialization is an out-of-scope
// external collaborator per the distilled spec's Non-goals; this package
// exists only so the CLI has something concrete to wire the core's thin
// interface to, the same way a real deployment would swap in an OCR
// provider or embedding runner behind the other collaborator interfaces.
package filearchive

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/chrisroyse/docprov/internal/common"
	"github.com/chrisroyse/docprov/internal/interfaces"
)

// Writer writes archive payloads as pretty-printed JSON files under a
// configured directory.
type Writer struct {
	dir string
}

func New(dir string) *Writer {
	return &Writer{dir: dir}
}

var _ interfaces.ArchiveWriter = (*Writer)(nil)

func (w *Writer) WriteArchive(_ context.Context, filename string, payload interfaces.ArchivePayload) error {
	if err := os.MkdirAll(w.dir, 0o755); err != nil {
		return common.Internal("failed to create archive directory", err)
	}

	data, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return common.Internal("failed to marshal archive payload", err)
	}

	path := filepath.Join(w.dir, filename)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return common.Internal("failed to write archive file", err)
	}
	return nil
}
