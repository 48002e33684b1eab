package jwtx

import (
	"errors"
	"time"
)

// Verifier validates a JWT and gives you back the claims if it's legit.
//
// Implementations must return an error matching ErrExpired (errors.Is) when,
// and only when, the signature is good but the token is past its expiry.
// Callers use that distinction to decide whether a renewal is worth trying.
type Verifier interface {
	Verify(token string) (Claims, error)
}

// VerifyOptions captures common expectations used by verifiers.
type VerifyOptions struct {
	// Leeway allows small clock skew when validating exp/nbf.
	Leeway time.Duration

	// Now overrides the clock, tests only.
	Now func() time.Time
}

var (
	ErrMalformed   = errors.New("jwtx: malformed token")
	ErrAlgMismatch = errors.New("jwtx: algorithm mismatch")
	ErrInvalidSig  = errors.New("jwtx: invalid signature")
	ErrNoSecret    = errors.New("jwtx: verification secret not configured")

	ErrExpired      = errors.New("jwtx: token expired")
	ErrNotYetValid  = errors.New("jwtx: token not yet valid")
	ErrTokenType    = errors.New("jwtx: not an access token")
	ErrInvalidClaim = errors.New("jwtx: invalid claims")
)

// IsExpired reports whether err means "good token, just too old".
func IsExpired(err error) bool {
	return errors.Is(err, ErrExpired)
}

// VerifierFunc adapts a plain function to the Verifier interface. Handy for
// fakes in tests.
type VerifierFunc func(token string) (Claims, error)

func (f VerifierFunc) Verify(token string) (Claims, error) { return f(token) }

// rejectAll is what you get when no secret is configured: nothing verifies.
type rejectAll struct{}

func (rejectAll) Verify(string) (Claims, error) { return Claims{}, ErrNoSecret }
