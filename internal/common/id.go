package common

import (
	"github.com/google/uuid"
)

// NewID generates a unique identifier with the given entity prefix.
// Format: <prefix><uuid>, e.g. "doc_3f9a...".
func NewID(prefix string) string {
	return prefix + uuid.New().String()
}
