package jwtx

import (
	"errors"

	"github.com/golang-jwt/jwt/v5"
)

// Signer is our interface for anything that can sign JWTs.
type Signer interface {
	Alg() string
	Sign(Claims) (string, error)
}

// HS256Signer signs claims with a shared secret. Production tokens come from
// the backend; the gateway uses this for tests and local development.
type HS256Signer struct {
	secret []byte
}

// NewSignerHS256 creates an HS256 signer.
func NewSignerHS256(secret string) (*HS256Signer, error) {
	if secret == "" {
		return nil, ErrNoSecret
	}
	return &HS256Signer{secret: []byte(secret)}, nil
}

func (s *HS256Signer) Alg() string { return jwt.SigningMethodHS256.Alg() }

// Sign takes your claims and turns them into a signed JWT string.
func (s *HS256Signer) Sign(claims Claims) (string, error) {
	if len(s.secret) == 0 {
		return "", errors.New("jwtx: nil HS256 secret")
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
}
