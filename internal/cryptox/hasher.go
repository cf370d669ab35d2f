// Package cryptox holds the credential primitives: the bcrypt password
// hasher, the legacy-hash fingerprint and random secrets (session tokens,
// temporary passwords).
package cryptox

import (
	"context"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// DefaultCost is the bcrypt work factor used unless configured otherwise.
const DefaultCost = 10

// Hasher produces and checks salted bcrypt hashes. Both operations are
// deliberately slow; they check ctx before starting but run to completion
// once begun.
type Hasher struct {
	cost int
}

// NewHasher returns a Hasher with the given cost. Costs outside bcrypt's
// accepted range fall back to DefaultCost.
func NewHasher(cost int) *Hasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = DefaultCost
	}
	return &Hasher{cost: cost}
}

func (h *Hasher) Cost() int {
	return h.cost
}

// Hash returns the self-describing hash of plaintext.
func (h *Hasher) Hash(ctx context.Context, plaintext string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	b, err := bcrypt.GenerateFromPassword([]byte(plaintext), h.cost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// Verify reports whether plaintext matches hash. A hash that is not bcrypt
// at all (for example a legacy digest) never matches. The only error is a
// done ctx.
func (h *Hasher) Verify(ctx context.Context, plaintext, hash string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	// mismatch, malformed and foreign hashes all come back as errors
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plaintext)) == nil, nil
}

// IsCurrentFormat reports whether hash looks like a bcrypt hash: a "$2"
// version prefix and exactly 60 characters. Anything else is a legacy hash
// awaiting migration.
func IsCurrentFormat(hash string) bool {
	return strings.HasPrefix(hash, "$2") && len(hash) == 60
}
