package middleware

// identity.go holds the context helpers shared by the route guard, the
// signature check and the handlers.  The guard stores verified claims under
// claimsKey; everything downstream reads them through ClaimsFrom.

import (
    "github.com/labstack/echo/v4" // Echo framework for HTTP routing

    "github.com/iliyamo/cms-auth/internal/auth" // tokens, CSRF, lockout and signing
)

const (
    claimsKey      = "auth.claims"
    requestPathKey = "request.path"
)

// KeepRequestPath records the path as the client sent it.  It must run in
// Pre ahead of any middleware that rewrites the URL, such as trailing
// slash removal, so signature checks see what the signer hashed.
func KeepRequestPath() echo.MiddlewareFunc {
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            c.Set(requestPathKey, c.Request().URL.Path)
            return next(c)
        }
    }
}

// requestPath returns the path recorded by KeepRequestPath, falling back to
// the current URL path.
func requestPath(c echo.Context) string {
    if p, ok := c.Get(requestPathKey).(string); ok && p != "" {
        return p
    }
    return c.Request().URL.Path
}

// SetClaims stores verified token claims on the request context.
func SetClaims(c echo.Context, claims *auth.Claims) {
    c.Set(claimsKey, claims)
}

// ClaimsFrom returns the claims stored by WithAuth, if any.
func ClaimsFrom(c echo.Context) (*auth.Claims, bool) {
    cl, ok := c.Get(claimsKey).(*auth.Claims)
    return cl, ok && cl != nil
}
