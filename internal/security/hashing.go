package security

import (
	"crypto/rand"
	"sync"

	"golang.org/x/crypto/bcrypt"
)

// Hasher hashes and verifies passwords using bcrypt. Callers must not log or
// persist plaintext passwords.
type Hasher struct {
	Cost int

	dummyOnce sync.Once
	dummyHash []byte
}

// NewHasher returns a Hasher with the given bcrypt cost (4–31). Zero selects
// bcrypt.DefaultCost (10); out-of-range values are clamped.
func NewHasher(cost int) *Hasher {
	if cost <= 0 {
		cost = bcrypt.DefaultCost
	}
	if cost < bcrypt.MinCost {
		cost = bcrypt.MinCost
	}
	if cost > bcrypt.MaxCost {
		cost = bcrypt.MaxCost
	}
	return &Hasher{Cost: cost}
}

// Hash produces a salted bcrypt hash of password suitable for storage.
func (h *Hasher) Hash(password []byte) (string, error) {
	b, err := bcrypt.GenerateFromPassword(password, h.Cost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// Compare verifies password against the stored hash using constant-time
// comparison. Returns nil if they match; returns an error (including
// bcrypt.ErrMismatchedHashAndPassword) if they do not or on invalid hash.
func (h *Hasher) Compare(hash string, password []byte) error {
	return bcrypt.CompareHashAndPassword([]byte(hash), password)
}

// Verify reports whether password matches hash. A malformed hash is a mismatch.
func (h *Hasher) Verify(password []byte, hash string) bool {
	if hash == "" {
		return false
	}
	return h.Compare(hash, password) == nil
}

// DummyCompare performs one bcrypt comparison at the hasher's cost and discards
// the result, so a login for an unknown account takes as long as a wrong password.
func (h *Hasher) DummyCompare(password []byte) {
	h.dummyOnce.Do(func() {
		secret := make([]byte, 32)
		_, _ = rand.Read(secret)
		h.dummyHash, _ = bcrypt.GenerateFromPassword(secret, h.Cost)
	})
	_ = bcrypt.CompareHashAndPassword(h.dummyHash, password)
}

// HashToken hashes a raw refresh token for storage. The token is reduced to its
// SHA-256 hex digest first because bcrypt only reads the first 72 bytes.
func (h *Hasher) HashToken(token string) (string, error) {
	return h.Hash([]byte(digestRefreshToken(token)))
}

// VerifyToken reports whether the raw refresh token matches a digest produced by HashToken.
func (h *Hasher) VerifyToken(token, hash string) bool {
	if token == "" {
		return false
	}
	return h.Verify([]byte(digestRefreshToken(token)), hash)
}
