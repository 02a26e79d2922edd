// Package checksum fingerprints record files for change detection.
package checksum

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// Sum returns the hex-encoded SHA-256 digest of data.
func Sum(data []byte) string {
	h := sha256.Sum256(data)
	return hex.EncodeToString(h[:])
}

// Matches reports whether data hashes to want. want may carry ETag quotes.
func Matches(data []byte, want string) bool {
	return Sum(data) == strings.Trim(want, `"`)
}
