package auth

import (
	"crypto/subtle"   // constant-time comparison
	"encoding/base64" // base64 encoding
	"strings"         // string manipulation utilities
	"time"            // timeouts and clocks

	"github.com/goccy/go-json"     // fast JSON encoding
	"github.com/golang-jwt/jwt/v5" // JWT claims and HS256 signing
	"github.com/google/uuid"       // random identifiers

	"github.com/iliyamo/cms-auth/internal/model" // domain models
)

// Claims is the token payload.  Role comes first so the encoded payload
// reads {role, sub, exp, iat, jti}.
type Claims struct {
	Role model.Role `json:"role"`
	jwt.RegisteredClaims
}

// Token is a freshly issued token together with its expiry and id.
type Token struct {
	Value     string
	ExpiresAt time.Time
	ID        string
}

type tokenHeader struct {
	Alg string `json:"alg"`
	Typ string `json:"typ"`
}

var b64 = base64.RawURLEncoding

// TokenCodec issues and verifies HS256 tokens with a single shared secret.
type TokenCodec struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewTokenCodec returns a codec signing with secret.  Tokens live for ttl.
func NewTokenCodec(secret []byte, ttl time.Duration) (*TokenCodec, error) {
	if len(secret) == 0 {
		return nil, ErrEmptySecret
	}
	return &TokenCodec{secret: secret, ttl: ttl, now: time.Now}, nil
}

// WithClock replaces the time source.  Intended for tests.
func (c *TokenCodec) WithClock(now func() time.Time) *TokenCodec {
	c.now = now
	return c
}

// TTL is the lifetime given to issued tokens.
func (c *TokenCodec) TTL() time.Duration { return c.ttl }

// Issue creates a signed token for subject carrying role.
func (c *TokenCodec) Issue(subject string, role model.Role) (Token, error) {
	return c.issueAt(subject, role, c.now().UTC())
}

func (c *TokenCodec) issueAt(subject string, role model.Role, iat time.Time) (Token, error) {
	exp := iat.Add(c.ttl)
	jti := uuid.NewString()

	header, err := json.Marshal(tokenHeader{Alg: jwt.SigningMethodHS256.Alg(), Typ: "JWT"})
	if err != nil {
		return Token{}, err
	}
	payload, err := json.Marshal(Claims{
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			ExpiresAt: jwt.NewNumericDate(exp),
			IssuedAt:  jwt.NewNumericDate(iat),
			ID:        jti,
		},
	})
	if err != nil {
		return Token{}, err
	}

	// The signature covers the segments exactly as transmitted.
	signingString := b64.EncodeToString(header) + "." + b64.EncodeToString(payload)
	sig, err := c.sign(signingString)
	if err != nil {
		return Token{}, err
	}
	return Token{
		Value:     signingString + "." + sig,
		ExpiresAt: exp.Truncate(time.Second),
		ID:        jti,
	}, nil
}

func (c *TokenCodec) sign(signingString string) (string, error) {
	raw, err := jwt.SigningMethodHS256.Sign(signingString, c.secret)
	if err != nil {
		return "", err
	}
	return b64.EncodeToString(raw), nil
}

// Verify checks raw and returns its claims.  Checks run in a fixed order:
// format, signature, payload decoding, expiry, then role when requiredRole
// is non-empty.  The returned error is one of the auth sentinels.
func (c *TokenCodec) Verify(raw string, requiredRole model.Role) (*Claims, error) {
	if raw == "" {
		return nil, ErrMissingToken
	}
	parts := strings.Split(raw, ".")
	if len(parts) != 3 || parts[0] == "" || parts[1] == "" || parts[2] == "" {
		return nil, ErrInvalidFormat
	}

	// The encoded segments are compared, not the decoded bytes, so that a
	// changed trailing character is never absorbed by base64 padding bits.
	want, err := c.sign(parts[0] + "." + parts[1])
	if err != nil {
		return nil, err
	}
	if subtle.ConstantTimeCompare([]byte(want), []byte(parts[2])) != 1 {
		return nil, ErrInvalidSignature
	}

	var header tokenHeader
	if err := decodeSegment(parts[0], &header); err != nil || header.Alg != jwt.SigningMethodHS256.Alg() {
		return nil, ErrInvalidFormat
	}
	var claims Claims
	if err := decodeSegment(parts[1], &claims); err != nil {
		return nil, ErrInvalidFormat
	}
	if claims.Subject == "" || claims.ExpiresAt == nil {
		return nil, ErrInvalidFormat
	}

	if claims.ExpiresAt.Unix() < c.now().Unix() {
		return nil, ErrTokenExpired
	}
	if requiredRole != "" && claims.Role != requiredRole {
		return nil, ErrForbidden
	}
	return &claims, nil
}

func decodeSegment(seg string, v any) error {
	data, err := b64.DecodeString(seg)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, v)
}
