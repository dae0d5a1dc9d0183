package security

import (
	"crypto/rand"
	"encoding/base64"
)

// TokenBytes is the amount of entropy in a session token.
const TokenBytes = 32

// NewToken returns a URL-safe random token with TokenBytes of entropy.
func NewToken() (string, error) {
	b := make([]byte, TokenBytes)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
