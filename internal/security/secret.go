package security

import (
	"crypto/sha256"
	"crypto/subtle"
)

// SecretEqual compares two shared secrets in constant time. Both values are hashed first so
// the comparison does not leak the configured secret's length. An empty expected secret never matches.
func SecretEqual(provided, expected string) bool {
	if expected == "" {
		return false
	}
	p := sha256.Sum256([]byte(provided))
	e := sha256.Sum256([]byte(expected))
	return subtle.ConstantTimeCompare(p[:], e[:]) == 1
}
