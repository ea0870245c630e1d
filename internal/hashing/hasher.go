package hashing

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"strings"
)

type Hasher struct{}

func NewHasher() *Hasher {
	return &Hasher{}
}

// HashPIN returns the lowercase hex SHA-256 digest of the UTF-8 PIN string.
func (h *Hasher) HashPIN(pin string) string {
	sum := sha256.Sum256([]byte(pin))
	return hex.EncodeToString(sum[:])
}

// VerifyPIN recomputes the digest of pin and compares it with stored in
// constant time.
func (h *Hasher) VerifyPIN(pin, stored string) bool {
	computed := h.HashPIN(pin)
	// hex digests may have been hand-edited to uppercase
	stored = strings.ToLower(strings.TrimSpace(stored))
	return subtle.ConstantTimeCompare([]byte(computed), []byte(stored)) == 1
}
