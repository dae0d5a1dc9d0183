package security

import (
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestBcryptHasher_HashAndCompare(t *testing.T) {
	h := NewBcryptHasher(bcrypt.MinCost)

	hash, err := h.Hash("admin123")
	require.NoError(t, err)
	assert.NotEqual(t, "admin123", hash)

	assert.NoError(t, h.Compare(hash, "admin123"))
	assert.ErrorIs(t, h.Compare(hash, "wrong"), ErrMismatch)
	assert.False(t, h.NeedsRehash(hash))
}

func TestBcryptHasher_Salted(t *testing.T) {
	h := NewBcryptHasher(bcrypt.MinCost)

	a, err := h.Hash("same-password")
	require.NoError(t, err)
	b, err := h.Hash("same-password")
	require.NoError(t, err)

	assert.NotEqual(t, a, b)
}

func TestBcryptHasher_LegacyDigest(t *testing.T) {
	h := NewBcryptHasher(bcrypt.MinCost)
	sum := sha256.Sum256([]byte("admin123"))
	legacy := hex.EncodeToString(sum[:])

	assert.True(t, IsLegacyHash(legacy))
	assert.NoError(t, h.Compare(legacy, "admin123"))
	assert.ErrorIs(t, h.Compare(legacy, "admin1234"), ErrMismatch)
	assert.True(t, h.NeedsRehash(legacy))
}

func TestBcryptHasher_InvalidCostFallsBack(t *testing.T) {
	h := NewBcryptHasher(100).(*bcryptHasher)
	assert.Equal(t, bcrypt.DefaultCost, h.cost)
}

func TestNewToken(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 50; i++ {
		tok, err := NewToken()
		require.NoError(t, err)

		raw, err := base64.RawURLEncoding.DecodeString(tok)
		require.NoError(t, err)
		assert.Len(t, raw, TokenBytes)

		assert.False(t, seen[tok], "duplicate token")
		seen[tok] = true
	}
}
