package security

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"regexp"

	"golang.org/x/crypto/bcrypt"
)

var (
	ErrHashingFailed = errors.New("password hashing failed")
	ErrMismatch      = errors.New("password mismatch")
	MinPasswordLen   = 8
)

// legacyDigest matches the unsalted SHA-256 hex digests written by the
// previous system. They are accepted for verification only.
var legacyDigest = regexp.MustCompile(`^[0-9a-f]{64}$`)

// PasswordHasher provides interface for password operations
type PasswordHasher interface {
	Hash(password string) (string, error)
	Compare(hashedPassword, password string) error
	NeedsRehash(hashedPassword string) bool
}

type bcryptHasher struct {
	cost int
}

// NewBcryptHasher creates a new password hasher using bcrypt
func NewBcryptHasher(cost int) PasswordHasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return &bcryptHasher{cost: cost}
}

func (b *bcryptHasher) Hash(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), b.cost)
	if err != nil {
		return "", ErrHashingFailed
	}
	return string(bytes), nil
}

// Compare verifies password against a bcrypt hash, or against a legacy
// SHA-256 digest when the stored value has that shape.
func (b *bcryptHasher) Compare(hashedPassword, password string) error {
	if IsLegacyHash(hashedPassword) {
		sum := sha256.Sum256([]byte(password))
		if subtle.ConstantTimeCompare([]byte(hex.EncodeToString(sum[:])), []byte(hashedPassword)) == 1 {
			return nil
		}
		return ErrMismatch
	}
	if err := bcrypt.CompareHashAndPassword([]byte(hashedPassword), []byte(password)); err != nil {
		return ErrMismatch
	}
	return nil
}

func (b *bcryptHasher) NeedsRehash(hashedPassword string) bool {
	if IsLegacyHash(hashedPassword) {
		return true
	}
	cost, err := bcrypt.Cost([]byte(hashedPassword))
	return err != nil || cost < b.cost
}

// IsLegacyHash reports whether stored is an unsalted SHA-256 hex digest.
func IsLegacyHash(stored string) bool {
	return legacyDigest.MatchString(stored)
}
