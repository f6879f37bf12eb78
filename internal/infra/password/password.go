// Package password implements salted one-way credential hashing.
// Tokens are hex(salt ‖ digest) with a fresh 16-byte salt per call, so the
// same password never produces the same token twice.
package password

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"fmt"

	"golang.org/x/crypto/pbkdf2"
)

const (
	saltLen    = 16
	keyLen     = 32
	iterations = 210_000
)

// Hasher derives PBKDF2-SHA256 tokens. The zero value is ready to use.
type Hasher struct{}

// NewHasher returns a ready Hasher.
func NewHasher() *Hasher {
	return &Hasher{}
}

// Hash generates a fresh random salt, derives the digest over it and the
// password, and returns the two concatenated as a single hex token.
func (h *Hasher) Hash(pw string) (string, error) {
	salt := make([]byte, saltLen)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("generate salt: %w", err)
	}
	digest := pbkdf2.Key([]byte(pw), salt, iterations, keyLen, sha256.New)
	return hex.EncodeToString(append(salt, digest...)), nil
}

// Verify recomputes the digest with the salt extracted from the token and
// compares in constant time. Any decode problem yields false — Verify
// never fails loudly on hostile input.
func (h *Hasher) Verify(pw, token string) bool {
	raw, err := hex.DecodeString(token)
	if err != nil || len(raw) != saltLen+keyLen {
		return false
	}
	salt, want := raw[:saltLen], raw[saltLen:]
	got := pbkdf2.Key([]byte(pw), salt, iterations, keyLen, sha256.New)
	return subtle.ConstantTimeCompare(got, want) == 1
}
