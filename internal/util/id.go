package util

import (
	"crypto/rand"
	"encoding/hex"
)

// NewID returns a random 32-character hex identifier. Used for request ids
// and opaque session tokens; entity ids use uuid instead.
func NewID() string {
	b := make([]byte, 16)
	_, _ = rand.Read(b)
	return hex.EncodeToString(b)
}
