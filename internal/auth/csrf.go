package auth

import (
	"crypto/subtle" // constant-time comparison
	"net/http"      // HTTP status codes and cookies
	"time"          // timeouts and clocks
)

// CSRFCookieName is the cookie holding the server-side copy of the CSRF token.
const CSRFCookieName = "csrfToken"

// CSRFService issues and checks double-submit CSRF tokens.
type CSRFService struct {
	ttl    time.Duration
	secure bool
}

// NewCSRFService returns a service whose cookies live for ttl.  secure sets
// the Secure cookie flag and should be true in production.
func NewCSRFService(ttl time.Duration, secure bool) *CSRFService {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &CSRFService{ttl: ttl, secure: secure}
}

// Issue returns a new 32 byte random token, hex-encoded.
func (s *CSRFService) Issue() (string, error) {
	return randomHex(32)
}

// Cookie builds the HttpOnly cookie carrying token.
func (s *CSRFService) Cookie(token string) *http.Cookie {
	return &http.Cookie{
		Name:     CSRFCookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(s.ttl.Seconds()),
		Expires:  time.Now().Add(s.ttl),
		HttpOnly: true,
		Secure:   s.secure,
		SameSite: http.SameSiteStrictMode,
	}
}

// ClearCookie returns a cookie that deletes the CSRF cookie.
func (s *CSRFService) ClearCookie() *http.Cookie {
	return &http.Cookie{
		Name:     CSRFCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		Expires:  time.Unix(0, 0),
		HttpOnly: true,
		Secure:   s.secure,
		SameSite: http.SameSiteStrictMode,
	}
}

// Validate reports whether provided matches the cookie value.  Both must be
// non-empty.
func (s *CSRFService) Validate(provided, cookie string) bool {
	if provided == "" || cookie == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(provided), []byte(cookie)) == 1
}
