package utils

import (
	"crypto/sha256"
	"encoding/hex"
)

// HashToken returns the SHA-256 hash of a raw refresh token as a hex
// string. Only the hash is stored in the database so that stolen rows
// cannot be replayed as sessions.
func HashToken(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}
