package services

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// bcrypt ignores everything past 72 bytes, so longer secrets are refused.
const maxSecretBytes = 72

var ErrSecretTooLong = errors.New("secret exceeds 72 bytes")

// Hasher turns passwords, OTPs and reset secrets into one-way digests.
type Hasher interface {
	Hash(secret string) (string, error)
	Compare(candidate, digest string) bool
}

type BcryptHasher struct {
	cost int
}

func NewBcryptHasher(cost int) *BcryptHasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return &BcryptHasher{cost: cost}
}

func (h *BcryptHasher) Hash(secret string) (string, error) {
	if len(secret) > maxSecretBytes {
		return "", ErrSecretTooLong
	}
	digest, err := bcrypt.GenerateFromPassword([]byte(secret), h.cost)
	if err != nil {
		return "", fmt.Errorf("failed to hash secret: %w", err)
	}
	return string(digest), nil
}

// Compare is constant-time over the digest; malformed digests never match.
func (h *BcryptHasher) Compare(candidate, digest string) bool {
	if digest == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(digest), []byte(candidate)) == nil
}
