// ABOUTME: Static bearer token verification for authenticating API requests
// ABOUTME: Uses constant-time comparison against the configured shared secret

package auth

import (
	"crypto/subtle"
	"errors"
)

// Token errors
var (
	ErrInvalidToken = errors.New("invalid token")
)

// TokenVerifier defines the interface for token verification
type TokenVerifier interface {
	Verify(tokenString string) error
}

// StaticVerifier implements TokenVerifier by comparing against a single
// shared secret. There is no per-caller identity, rotation, or expiry; the
// secret is fixed for the lifetime of the process.
type StaticVerifier struct {
	secret []byte
}

// NewStaticVerifier creates a new verifier with the given secret
func NewStaticVerifier(secret []byte) *StaticVerifier {
	return &StaticVerifier{secret: secret}
}

// Verify checks the presented token against the configured secret.
// The comparison is constant-time so response timing reveals nothing about
// the secret's contents.
func (v *StaticVerifier) Verify(tokenString string) error {
	if subtle.ConstantTimeCompare([]byte(tokenString), v.secret) != 1 {
		return ErrInvalidToken
	}
	return nil
}
