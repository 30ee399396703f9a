// Package hasher provides the bcrypt implementation of the credential hasher.
package hasher

import (
	"github.com/pkg/errors"
	"golang.org/x/crypto/bcrypt"
)

const (
	// DefaultCost is the bcrypt work factor used when none is configured.
	DefaultCost = 10

	// MaxPasswordBytes is the longest prefix of a secret bcrypt can use.
	MaxPasswordBytes = 72
)

// BcryptHasher hashes and verifies secrets with bcrypt.
// bcrypt embeds a fresh random salt and the cost in every digest.
type BcryptHasher struct {
	cost int
}

// NewBcryptHasher creates a BcryptHasher with DefaultCost.
func NewBcryptHasher() *BcryptHasher {
	return &BcryptHasher{cost: DefaultCost}
}

// NewBcryptHasherWithCost creates a BcryptHasher with the given cost.
// A non-positive cost selects DefaultCost.
func NewBcryptHasherWithCost(cost int) (*BcryptHasher, error) {
	if cost <= 0 {
		return NewBcryptHasher(), nil
	}
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		return nil, errors.Errorf("bcrypt cost %d out of range [%d, %d]", cost, bcrypt.MinCost, bcrypt.MaxCost)
	}
	return &BcryptHasher{cost: cost}, nil
}

// Cost returns the configured work factor.
func (h *BcryptHasher) Cost() int {
	return h.cost
}

// Hash produces a salted digest of password.
// Only the first MaxPasswordBytes bytes take part in the digest.
func (h *BcryptHasher) Hash(password string) (string, error) {
	b, err := bcrypt.GenerateFromPassword(truncate(password), h.cost)
	if err != nil {
		return "", errors.Wrap(err, "bcrypt")
	}
	return string(b), nil
}

// Verify reports whether password matches digest.
// A malformed digest never matches.
func (h *BcryptHasher) Verify(password, digest string) bool {
	// CompareHashAndPassword is constant time for well-formed digests.
	return bcrypt.CompareHashAndPassword([]byte(digest), truncate(password)) == nil
}

// truncate cuts password to the bytes bcrypt's key schedule consumes.
// GenerateFromPassword rejects longer input instead of ignoring the tail.
func truncate(password string) []byte {
	b := []byte(password)
	if len(b) > MaxPasswordBytes {
		b = b[:MaxPasswordBytes]
	}
	return b
}
