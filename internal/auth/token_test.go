package auth

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/cms-auth/internal/model"
)

var testSecret = []byte("test-secret-0123456789abcdef")

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func newTestCodec(t *testing.T, now time.Time) *TokenCodec {
	t.Helper()
	c, err := NewTokenCodec(testSecret, time.Hour)
	require.NoError(t, err)
	return c.WithClock(fixedClock(now))
}

func TestNewTokenCodec_EmptySecret(t *testing.T) {
	_, err := NewTokenCodec(nil, time.Hour)
	assert.ErrorIs(t, err, ErrEmptySecret)
}

func TestTokenCodec_RoundTrip(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	c := newTestCodec(t, now)

	cases := []struct {
		subject string
		role    model.Role
	}{
		{"8d4f1c3e-7a51-4a1b-9a2e-000000000001", model.RoleAdmin},
		{"editor-42", model.RoleEditor},
		{"u", model.RoleUser},
	}
	for _, tc := range cases {
		tok, err := c.Issue(tc.subject, tc.role)
		require.NoError(t, err)
		assert.Equal(t, 2, strings.Count(tok.Value, "."))
		assert.Equal(t, now.Add(time.Hour), tok.ExpiresAt)
		assert.NotEmpty(t, tok.ID)

		claims, err := c.Verify(tok.Value, "")
		require.NoError(t, err)
		assert.Equal(t, tc.subject, claims.Subject)
		assert.Equal(t, tc.role, claims.Role)
		assert.Equal(t, tok.ID, claims.ID)

		claims, err = c.Verify(tok.Value, tc.role)
		require.NoError(t, err)
		assert.Equal(t, tc.subject, claims.Subject)
	}
}

func TestTokenCodec_IssueUniqueIDs(t *testing.T) {
	c := newTestCodec(t, time.Now())
	a, err := c.Issue("same", model.RoleAdmin)
	require.NoError(t, err)
	b, err := c.Issue("same", model.RoleAdmin)
	require.NoError(t, err)
	assert.NotEqual(t, a.ID, b.ID)
	assert.NotEqual(t, a.Value, b.Value)
}

func TestTokenCodec_SignatureCharFlip(t *testing.T) {
	c := newTestCodec(t, time.Now())
	tok, err := c.Issue("subject-1", model.RoleAdmin)
	require.NoError(t, err)

	sigStart := strings.LastIndex(tok.Value, ".") + 1
	for i := sigStart; i < len(tok.Value); i++ {
		b := []byte(tok.Value)
		if b[i] == 'A' {
			b[i] = 'B'
		} else {
			b[i] = 'A'
		}
		_, err := c.Verify(string(b), "")
		assert.ErrorIs(t, err, ErrInvalidSignature, "flip at %d", i)
	}
}

func TestTokenCodec_TamperedPayload(t *testing.T) {
	c := newTestCodec(t, time.Now())
	user, err := c.Issue("subject-1", model.RoleUser)
	require.NoError(t, err)
	admin, err := c.Issue("subject-1", model.RoleAdmin)
	require.NoError(t, err)

	// admin payload spliced onto the user token's signature
	u := strings.Split(user.Value, ".")
	a := strings.Split(admin.Value, ".")
	forged := u[0] + "." + a[1] + "." + u[2]

	_, err = c.Verify(forged, model.RoleAdmin)
	assert.ErrorIs(t, err, ErrInvalidSignature)
}

func TestTokenCodec_OtherSecret(t *testing.T) {
	c := newTestCodec(t, time.Now())
	other, err := NewTokenCodec([]byte("a-different-secret"), time.Hour)
	require.NoError(t, err)

	tok, err := other.Issue("subject-1", model.RoleAdmin)
	require.NoError(t, err)
	_, err = c.Verify(tok.Value, model.RoleAdmin)
	assert.ErrorIs(t, err, ErrInvalidSignature)
}

func TestTokenCodec_Expired(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	c := newTestCodec(t, now)

	// exp = now - 1s
	tok, err := c.issueAt("subject-1", model.RoleAdmin, now.Add(-time.Hour-time.Second))
	require.NoError(t, err)

	_, err = c.Verify(tok.Value, model.RoleAdmin)
	assert.ErrorIs(t, err, ErrTokenExpired)
	assert.Equal(t, "expired", err.Error())
}

func TestTokenCodec_ExpiryBoundary(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	c := newTestCodec(t, now)

	tok, err := c.Issue("subject-1", model.RoleAdmin)
	require.NoError(t, err)

	c.WithClock(fixedClock(tok.ExpiresAt))
	_, err = c.Verify(tok.Value, "")
	assert.NoError(t, err)

	c.WithClock(fixedClock(tok.ExpiresAt.Add(time.Second)))
	_, err = c.Verify(tok.Value, "")
	assert.ErrorIs(t, err, ErrTokenExpired)
}

func TestTokenCodec_Forbidden(t *testing.T) {
	c := newTestCodec(t, time.Now())
	for _, role := range []model.Role{model.RoleUser, model.RoleEditor} {
		tok, err := c.Issue("subject-1", role)
		require.NoError(t, err)
		_, err = c.Verify(tok.Value, model.RoleAdmin)
		assert.ErrorIs(t, err, ErrForbidden)
	}
}

func TestTokenCodec_ExpiredCheckedBeforeRole(t *testing.T) {
	now := time.Now()
	c := newTestCodec(t, now)
	tok, err := c.issueAt("subject-1", model.RoleUser, now.Add(-2*time.Hour))
	require.NoError(t, err)

	_, err = c.Verify(tok.Value, model.RoleAdmin)
	assert.ErrorIs(t, err, ErrTokenExpired)
}

func TestTokenCodec_InvalidFormat(t *testing.T) {
	c := newTestCodec(t, time.Now())
	tests := []struct {
		name string
		raw  string
		want error
	}{
		{"empty", "", ErrMissingToken},
		{"one part", "abc", ErrInvalidFormat},
		{"two parts", "abc.def", ErrInvalidFormat},
		{"four parts", "a.b.c.d", ErrInvalidFormat},
		{"empty segment", "a..c", ErrInvalidFormat},
		{"garbage", "!!.??.##", ErrInvalidSignature},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := c.Verify(tc.raw, "")
			assert.ErrorIs(t, err, tc.want)
		})
	}
}

func TestTokenCodec_WrongAlgorithmHeader(t *testing.T) {
	c := newTestCodec(t, time.Now())
	header := b64.EncodeToString([]byte(`{"alg":"none","typ":"JWT"}`))
	payload := b64.EncodeToString([]byte(`{"role":"admin","sub":"x","exp":4102444800}`))
	sig, err := c.sign(header + "." + payload)
	require.NoError(t, err)

	_, err = c.Verify(header+"."+payload+"."+sig, "")
	assert.ErrorIs(t, err, ErrInvalidFormat)
}

func TestTokenCodec_MissingClaims(t *testing.T) {
	c := newTestCodec(t, time.Now())
	header := b64.EncodeToString([]byte(`{"alg":"HS256","typ":"JWT"}`))
	for _, p := range []string{`{"role":"admin","exp":4102444800}`, `{"role":"admin","sub":"x"}`, `not json`} {
		payload := b64.EncodeToString([]byte(p))
		sig, err := c.sign(header + "." + payload)
		require.NoError(t, err)

		_, err = c.Verify(header+"."+payload+"."+sig, "")
		assert.ErrorIs(t, err, ErrInvalidFormat, p)
	}
}
