// Package token generates and verifies one-time emergency activation tokens.
package token

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
)

const tokenBytes = 32

// New returns a fresh activation token (URL-safe base64) and the sha256 hash
// to persist. The plaintext is shown to the issuer exactly once.
func New() (plaintext string, hash []byte, err error) {
	b := make([]byte, tokenBytes)
	if _, err := rand.Read(b); err != nil {
		return "", nil, err
	}
	plaintext = base64.RawURLEncoding.EncodeToString(b)
	return plaintext, Hash(plaintext), nil
}

// Hash returns the sha256 digest of a token's plaintext form.
func Hash(plaintext string) []byte {
	sum := sha256.Sum256([]byte(plaintext))
	return sum[:]
}

// Verify compares a presented token against the stored hash in constant time.
func Verify(plaintext string, expected []byte) bool {
	got := Hash(plaintext)
	return subtle.ConstantTimeCompare(got, expected) == 1
}
