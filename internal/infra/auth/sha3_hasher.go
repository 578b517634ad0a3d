package auth

import (
	"crypto/subtle"
	"fmt"

	"credstore/internal/domain/service"

	"golang.org/x/crypto/sha3"
)

// sha3Hasher renders SHA3-256 digests as 64 upper-case hex characters.
// It is unsalted: the same password always yields the same digest.
type sha3Hasher struct{}

// NewSHA3Hasher is the constructor for sha3Hasher.
func NewSHA3Hasher() service.PasswordHasher {
	return &sha3Hasher{}
}

// Hash never fails; the error is part of the PasswordHasher contract only.
func (h *sha3Hasher) Hash(password string) (string, error) {
	return h.digest(password), nil
}

// Check recomputes the digest and compares it in constant time.
func (h *sha3Hasher) Check(password, digest string) bool {
	return subtle.ConstantTimeCompare([]byte(h.digest(password)), []byte(digest)) == 1
}

func (h *sha3Hasher) digest(password string) string {
	sum := sha3.Sum256([]byte(password))

	return fmt.Sprintf("%X", sum)
}
