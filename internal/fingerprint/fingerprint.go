package fingerprint

import (
	"crypto/sha256"
	"encoding/hex"
)

// Of returns the content fingerprint of raw bytes: lowercase hex SHA-256
func Of(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// OfString fingerprints the UTF-8 bytes of s
func OfString(s string) string {
	return Of([]byte(s))
}

// Valid reports whether s has the shape of a fingerprint
func Valid(s string) bool {
	if len(s) != sha256.Size*2 {
		return false
	}
	_, err := hex.DecodeString(s)
	return err == nil
}
