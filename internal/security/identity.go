package security

import (
	"crypto/sha256"
	"encoding/hex"
)

// HashIdentity derives the opaque caller identity from a client IP address.
// The hash is one-way; the original address is never stored.
func HashIdentity(ip string) string {
	sum := sha256.Sum256([]byte(ip))
	return hex.EncodeToString(sum[:])
}
