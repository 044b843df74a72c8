package middleware

import (
    "net/http" // HTTP status codes and cookies
    "net/url"  // URL escaping
    "strings"  // string manipulation utilities

    "github.com/labstack/echo/v4" // Echo framework for HTTP routing

    "github.com/iliyamo/cms-auth/internal/auth" // tokens, CSRF, lockout and signing
)

// RouteClass is the gate's classification of a request path.
type RouteClass int

const (
    ClassProtectedPage RouteClass = iota
    ClassProtectedAPI
    ClassPublic
    ClassStaticAsset
)

func (rc RouteClass) String() string {
    switch rc {
    case ClassPublic:
        return "public"
    case ClassStaticAsset:
        return "static_asset"
    case ClassProtectedAPI:
        return "protected_api"
    default:
        return "protected_page"
    }
}

// SecurityHeaders is stamped on every response passing the gate.
var SecurityHeaders = map[string]string{
    "Content-Security-Policy": "default-src 'self'; script-src 'self'; style-src 'self' 'unsafe-inline'; " +
        "img-src 'self' data: https:; font-src 'self' data:; connect-src 'self'; " +
        "frame-ancestors 'none'; base-uri 'self'; form-action 'self'",
    "X-Content-Type-Options": "nosniff",
    "X-Frame-Options":        "DENY",
    "Referrer-Policy":        "strict-origin-when-cross-origin",
    "Permissions-Policy":     "camera=(), microphone=(), geolocation=(), payment=()",
    "Cache-Control":          "no-store, no-cache, must-revalidate",
    "Pragma":                 "no-cache",
}

// GateConfig lists the path patterns the gate classifies by.  A prefix
// ending in "/" matches everything below it; any other prefix matches the
// exact path and its sub-paths.
type GateConfig struct {
    PublicPrefixes []string
    StaticPrefixes []string
    StaticSuffixes []string
    APIPrefix      string
    LoginPath      string
}

// DefaultGateConfig is the allowlist of the admin service.
func DefaultGateConfig() GateConfig {
    return GateConfig{
        PublicPrefixes: []string{
            "/login",
            "/healthz",
            "/readyz",
            "/metrics",
            "/api/auth/login",
            "/api/auth/logout",
            "/api/auth/csrf",
            "/api/signed/",
        },
        StaticPrefixes: []string{"/_next/", "/static/", "/assets/", "/favicon.ico", "/robots.txt"},
        StaticSuffixes: []string{
            ".js", ".css", ".map", ".png", ".jpg", ".jpeg", ".gif", ".svg", ".ico",
            ".webp", ".woff", ".woff2", ".ttf", ".txt",
        },
        APIPrefix: "/api/",
        LoginPath: "/login",
    }
}

func matchPrefix(path, prefix string) bool {
    if strings.HasSuffix(prefix, "/") {
        return strings.HasPrefix(path, prefix)
    }
    return path == prefix || strings.HasPrefix(path, prefix+"/")
}

// Classify returns the class of path.
func (g GateConfig) Classify(path string) RouteClass {
    for _, p := range g.StaticPrefixes {
        if matchPrefix(path, p) {
            return ClassStaticAsset
        }
    }
    lower := strings.ToLower(path)
    for _, s := range g.StaticSuffixes {
        if strings.HasSuffix(lower, s) && !strings.HasPrefix(path, g.APIPrefix) {
            return ClassStaticAsset
        }
    }
    for _, p := range g.PublicPrefixes {
        if matchPrefix(path, p) {
            return ClassPublic
        }
    }
    if matchPrefix(path, g.APIPrefix) || path == strings.TrimSuffix(g.APIPrefix, "/") {
        return ClassProtectedAPI
    }
    return ClassProtectedPage
}

// AuthGate stamps the security headers and turns away protected requests
// that carry no token at all.  It only checks that a token is present;
// WithAuth on the route does the actual verification.  Register it with
// echo's Pre so it sees every request, unmatched routes included.
func AuthGate(cfg GateConfig) echo.MiddlewareFunc {
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            // Headers go on first so every outcome below carries them,
            // redirects and 401s included.
            h := c.Response().Header()
            for k, v := range SecurityHeaders {
                h.Set(k, v)
            }

            req := c.Request()
            if req.Method == http.MethodOptions {
                return next(c)
            }

            // Public and static routes fall through to the router.
            switch cfg.Classify(req.URL.Path) {
            case ClassProtectedAPI:
                if !auth.HasTokenSource(req) {
                    return authRequired(c, auth.ErrMissingToken.Error())
                }
            case ClassProtectedPage:
                // Browsers are sent to the login page and brought back afterwards.
                if !auth.HasTokenSource(req) {
                    target := cfg.LoginPath + "?returnUrl=" + url.QueryEscape(req.URL.RequestURI())
                    return c.Redirect(http.StatusFound, target)
                }
            }
            return next(c)
        }
    }
}
