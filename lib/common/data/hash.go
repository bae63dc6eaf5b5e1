// Package data holds small wire-level value types shared across the NTCP
// session core.
package data

import (
	"crypto/sha256"
	"crypto/subtle"
)

// Hash is a 32-byte SHA-256 digest, used throughout the protocol to identify
// a router by its identity hash.
type Hash [32]byte

// Equal compares two hashes in constant time.
func (h Hash) Equal(other Hash) bool {
	return subtle.ConstantTimeCompare(h[:], other[:]) == 1
}

// IsZero reports whether h is the all-zero hash.
func (h Hash) IsZero() bool {
	var zero Hash
	return h.Equal(zero)
}

// HashData returns the SHA-256 digest of data as a Hash.
func HashData(data []byte) Hash {
	return sha256.Sum256(data)
}

// Xor returns h XOR other.
func (h Hash) Xor(other Hash) Hash {
	var out Hash
	for i := range out {
		out[i] = h[i] ^ other[i]
	}
	return out
}
