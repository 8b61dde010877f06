// Package sha256 derives stable cache keys from content.
package sha256

import (
	"crypto/sha256"
	"encoding/hex"
)

// Hasher hashes content with SHA-256.
type Hasher struct{}

// New returns a SHA-256 hasher.
func New() *Hasher {
	return &Hasher{}
}

// Key returns the hex digest of s prefixed with namespace and a colon.
func (h *Hasher) Key(namespace, s string) string {
	sum := sha256.Sum256([]byte(s))
	return namespace + ":" + hex.EncodeToString(sum[:])
}
