package auth

import (
	"crypto/sha256" // SHA-256 digests
	"crypto/subtle" // constant-time comparison
	"regexp"        // pattern matching

	"golang.org/x/crypto/bcrypt" // password hashing

	"github.com/iliyamo/cms-auth/internal/logging" // structured logging
)

// bcryptPattern matches the modular-crypt prefix of bcrypt hashes ($2a$, $2b$, $2y$ + cost).
var bcryptPattern = regexp.MustCompile(`^\$2[aby]\$\d{2}\$`)

// HashPassword returns bcrypt hash using the given cost.
func HashPassword(plain string, cost int) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(plain), cost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// IsModernHash reports whether stored looks like a bcrypt hash.
func IsModernHash(stored string) bool {
	return bcryptPattern.MatchString(stored)
}

// VerifyPassword compares provided against the stored credential.
//
// bcrypt hashes are checked with bcrypt itself.  Anything else is treated as
// a legacy plaintext-equivalent credential: both sides are reduced to SHA-256
// digests so the constant-time compare never sees different lengths.  A
// malformed credential simply fails.
func VerifyPassword(provided, stored string) bool {
	if stored == "" {
		return false
	}
	if IsModernHash(stored) {
		return bcrypt.CompareHashAndPassword([]byte(stored), []byte(provided)) == nil
	}

	logging.Warn().Msg("legacy credential format in use; password needs migration to bcrypt")
	a := sha256.Sum256([]byte(provided))
	b := sha256.Sum256([]byte(stored))
	return subtle.ConstantTimeCompare(a[:], b[:]) == 1
}
