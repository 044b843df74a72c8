package auth

import (
	"net/http" // HTTP status codes and cookies
	"strings"  // string manipulation utilities
	"time"     // timeouts and clocks
)

// Auth cookie names.  Both carry the same token.
const (
	CookieAuthToken = "authToken" // readable by dashboard scripts
	CookieAuth      = "auth"      // HttpOnly, server reads only
)

// CookiePolicy describes one persisted copy of the auth token.
type CookiePolicy struct {
	Name     string
	HTTPOnly bool
}

// AuthCookiePolicies lists the cookies an issued token is written under.
var AuthCookiePolicies = []CookiePolicy{
	{Name: CookieAuthToken, HTTPOnly: false},
	{Name: CookieAuth, HTTPOnly: true},
}

func (p CookiePolicy) cookie(value string, maxAge int, expires time.Time, secure bool) *http.Cookie {
	return &http.Cookie{
		Name:     p.Name,
		Value:    value,
		Path:     "/",
		MaxAge:   maxAge,
		Expires:  expires,
		HttpOnly: p.HTTPOnly,
		Secure:   secure,
		SameSite: http.SameSiteStrictMode,
	}
}

// AuthCookies persists tok under every policy with Max-Age equal to ttl.
func AuthCookies(tok Token, ttl time.Duration, secure bool) []*http.Cookie {
	out := make([]*http.Cookie, 0, len(AuthCookiePolicies))
	for _, p := range AuthCookiePolicies {
		out = append(out, p.cookie(tok.Value, int(ttl.Seconds()), tok.ExpiresAt, secure))
	}
	return out
}

// ExpiredAuthCookies returns cookies that delete every auth cookie.
func ExpiredAuthCookies(secure bool) []*http.Cookie {
	out := make([]*http.Cookie, 0, len(AuthCookiePolicies))
	for _, p := range AuthCookiePolicies {
		out = append(out, p.cookie("", -1, time.Unix(0, 0), secure))
	}
	return out
}

// BearerToken returns the token of an "Authorization: Bearer" header.
func BearerToken(r *http.Request) string {
	h := r.Header.Get("Authorization")
	const prefix = "bearer "
	if len(h) > len(prefix) && strings.EqualFold(h[:len(prefix)], prefix) {
		return strings.TrimSpace(h[len(prefix):])
	}
	return ""
}

// TokenFromRequest returns the token presented with r.  The bearer header
// wins over cookies; the HttpOnly cookie wins over the script-readable one.
func TokenFromRequest(r *http.Request) string {
	if tok := BearerToken(r); tok != "" {
		return tok
	}
	for _, name := range []string{CookieAuth, CookieAuthToken} {
		if c, err := r.Cookie(name); err == nil && c.Value != "" {
			return c.Value
		}
	}
	return ""
}

// HasTokenSource reports whether r carries anything that could be a token.
func HasTokenSource(r *http.Request) bool {
	return TokenFromRequest(r) != ""
}
