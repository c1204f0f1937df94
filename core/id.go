package core

import (
	"crypto/rand"
	"encoding/hex"
)

// NewDocID returns a 24-character hex identifier for users, posts and
// profile sub-records, matching the id shape existing clients expect.
func NewDocID() string {
	return randomHex(12)
}

func randomHex(n int) string {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		for i := range b {
			b[i] = byte(i + 1)
		}
	}
	return hex.EncodeToString(b)
}
