package middleware

import (
    "errors"   // sentinel error matching
    "net/http" // HTTP status codes and cookies

    "github.com/labstack/echo/v4" // Echo framework for HTTP routing

    "github.com/iliyamo/cms-auth/internal/auth"    // tokens, CSRF, lockout and signing
    "github.com/iliyamo/cms-auth/internal/metrics" // Prometheus counters
    "github.com/iliyamo/cms-auth/internal/model"   // domain models
)

// authRequired is the body of every 401 produced by the gate and the guard.
func authRequired(c echo.Context, reason string) error {
    return c.JSON(http.StatusUnauthorized, echo.Map{
        "success": false,
        "message": "Authentication required",
        "error":   reason,
    })
}

var tokenReasons = []error{
    auth.ErrMissingToken,
    auth.ErrInvalidFormat,
    auth.ErrInvalidSignature,
    auth.ErrTokenExpired,
    auth.ErrForbidden,
}

// tokenReason maps a verification error to the reason sent to clients.
func tokenReason(err error) string {
    for _, known := range tokenReasons {
        if errors.Is(err, known) {
            return known.Error()
        }
    }
    return "invalid token"
}

// WithAuth verifies the request token and requires role.  The bearer header
// is preferred, then the auth cookies.  Every failure, a wrong role included,
// answers 401 without running the wrapped handler.  OPTIONS requests pass
// through untouched.
func WithAuth(codec *auth.TokenCodec, role model.Role) echo.MiddlewareFunc {
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            // Preflight requests carry no credentials.
            if c.Request().Method == http.MethodOptions {
                return next(c)
            }
            // Pick the token from the header or a cookie and verify it,
            // role included.  An empty token fails as missing.
            claims, err := codec.Verify(auth.TokenFromRequest(c.Request()), role)
            if err != nil {
                reason := tokenReason(err)
                metrics.TokenVerifications.WithLabelValues(reason).Inc()
                return authRequired(c, reason)
            }
            metrics.TokenVerifications.WithLabelValues("valid").Inc()
            // Make the principal available to the handler.
            SetClaims(c, claims)
            return next(c)
        }
    }
}

// RequireAdmin is WithAuth for the admin role.
func RequireAdmin(codec *auth.TokenCodec) echo.MiddlewareFunc {
    return WithAuth(codec, model.RoleAdmin)
}
