// Package auth implements the authentication and request-integrity core:
// credential verification, the signed token codec, CSRF tokens, the
// brute-force guard and HMAC request signing.  Nothing in this package
// touches the database; persistence is reached through the handlers.
package auth

import "errors" // sentinel error matching

// Token verification failures.  The messages double as the machine-readable
// reason returned to clients in the "error" field.
var (
	ErrMissingToken     = errors.New("missing token")
	ErrInvalidFormat    = errors.New("invalid format")
	ErrInvalidSignature = errors.New("invalid signature")
	ErrTokenExpired     = errors.New("expired")
	ErrForbidden        = errors.New("forbidden")
)

// Request signing failures.
var (
	ErrSignatureMissing  = errors.New("missing signature headers")
	ErrInvalidAPIKey     = errors.New("invalid api key")
	ErrSignatureStale    = errors.New("stale timestamp")
	ErrSignatureMismatch = errors.New("signature mismatch")
	ErrSignatureReplayed = errors.New("replayed request")
)

// ErrEmptySecret is returned by constructors given an empty signing secret.
var ErrEmptySecret = errors.New("empty secret")
