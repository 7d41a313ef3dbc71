package common

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/pdfcpu/pdfcpu/pkg/api"
)

// PageCount reads the page count of a PDF file on disk. Returns 0, nil for
// non-PDF files, since page count is an optional Document attribute.
func PageCount(path string) (int, error) {
	if !strings.EqualFold(filepath.Ext(path), ".pdf") {
		return 0, nil
	}
	pdfCtx, err := api.ReadContextFile(path)
	if err != nil {
		return 0, fmt.Errorf("failed to read PDF context for %s: %w", path, err)
	}
	return pdfCtx.PageCount, nil
}
