package common

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"regexp"
)

const hashPrefix = "sha256:"

var hashPattern = regexp.MustCompile(`^sha256:[0-9a-f]{64}$`)

// ComputeHash returns the canonical "sha256:<64-hex>" hash of content.
func ComputeHash(content string) string {
	sum := sha256.Sum256([]byte(content))
	return hashPrefix + hex.EncodeToString(sum[:])
}

// ComputeHashBytes returns the canonical hash of raw bytes, used for
// vector embeddings and other binary content fields.
func ComputeHashBytes(content []byte) string {
	sum := sha256.Sum256(content)
	return hashPrefix + hex.EncodeToString(sum[:])
}

// ValidateHashFormat reports whether a hash string matches the canonical
// sha256:<64 lowercase hex characters> pattern.
func ValidateHashFormat(hash string) bool {
	return hashPattern.MatchString(hash)
}

// HashFile streams a file's contents through SHA-256 without loading it
// entirely into memory, returning the canonical hash.
func HashFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("failed to open file for hashing: %w", err)
	}
	defer f.Close()

	hasher := sha256.New()
	if _, err := io.Copy(hasher, f); err != nil {
		return "", fmt.Errorf("failed to hash file contents: %w", err)
	}
	return hashPrefix + hex.EncodeToString(hasher.Sum(nil)), nil
}

// HashComposite hashes the ordered concatenation of multiple content
// fields, used where an artifact's canonical content spans several
// stored columns (e.g. a provenance input_hash derived from several
// upstream hashes).
func HashComposite(parts ...string) string {
	hasher := sha256.New()
	for _, p := range parts {
		hasher.Write([]byte(p))
		hasher.Write([]byte{0}) // separator to avoid ambiguous concatenation
	}
	return hashPrefix + hex.EncodeToString(hasher.Sum(nil))
}
