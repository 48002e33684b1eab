package jwtx

import (
	"crypto/rand"
	"encoding/base64"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenTypeAccess is the token_type the backend stamps on access tokens.
// Refresh tokens carry "refresh" and must never be accepted at the edge.
const (
	TokenTypeAccess  = "access"
	TokenTypeRefresh = "refresh"
)

// DefaultAccessTokenTTL mirrors the backend's access token lifetime. The
// gateway never issues tokens, this is used by tests and the dev signer.
const DefaultAccessTokenTTL = 5 * time.Minute

// Claims are the access-token claims issued by the platform backend.
// The layout follows the backend's JWT library: registered claims plus
// token_type and user_id.
type Claims struct {
	jwt.RegisteredClaims

	// TokenType is "access" or "refresh".
	TokenType string `json:"token_type,omitempty"`

	// UserID is the backend's numeric user id.
	UserID int64 `json:"user_id,omitempty"`

	// Mobile and Role are optional, some backend builds include them.
	Mobile string `json:"mobile,omitempty"`
	Role   string `json:"role,omitempty"`
}

// NewAccessClaims builds minimally-correct access claims.
func NewAccessClaims(userID int64, mobile, role string, ttl time.Duration, now time.Time) Claims {
	return Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			ID:        NewJTI(),
		},
		TokenType: TokenTypeAccess,
		UserID:    userID,
		Mobile:    mobile,
		Role:      role,
	}
}

// NewJTI returns a URL-safe random identifier for the "jti" claim.
func NewJTI() string {
	var b [16]byte
	_, _ = rand.Read(b[:])
	return base64.RawURLEncoding.EncodeToString(b[:])
}

// ValidateTokenType rejects anything that is not an access token. An empty
// token_type is tolerated for backends that don't set it.
func (c *Claims) ValidateTokenType() error {
	if c.TokenType == "" || c.TokenType == TokenTypeAccess {
		return nil
	}
	return ErrTokenType
}
