// Package ids generates opaque random identifiers.
package ids

import (
	"crypto/rand"
	"encoding/hex"
)

// DefaultBytes is the entropy used when a caller passes n <= 0.
const DefaultBytes = 8

// New returns a cryptographically random hex string of n bytes
// (2n hex characters).
func New(n int) string {
	if n <= 0 {
		n = DefaultBytes
	}
	b := make([]byte, n)
	// rand.Read never fails on supported platforms; it panics internally
	// if the kernel entropy source is unavailable.
	_, _ = rand.Read(b)
	return hex.EncodeToString(b)
}
