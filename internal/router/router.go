package router // package router wires middleware and routes onto the echo instance

import (
    "errors"   // sentinel error matching
    "net/http" // HTTP status codes and cookies

    "github.com/goccy/go-json"                                // fast JSON encoding
    "github.com/labstack/echo/v4"                             // Echo framework for HTTP routing
    echomw "github.com/labstack/echo/v4/middleware"           // Echo built-in middleware
    "github.com/prometheus/client_golang/prometheus/promhttp" // metrics endpoint

    "github.com/iliyamo/cms-auth/internal/auth"       // tokens, CSRF, lockout and signing
    "github.com/iliyamo/cms-auth/internal/handler"    // HTTP handlers
    "github.com/iliyamo/cms-auth/internal/logging"    // structured logging
    "github.com/iliyamo/cms-auth/internal/middleware" // gate, guards and limiters
)

// Setup installs the error handler, validator, JSON serializer and the
// global middleware chain.  The gate runs in Pre so unmatched routes are
// also stamped with security headers.
func Setup(e *echo.Echo, gate middleware.GateConfig) {
    e.HideBanner = true
    e.HidePort = true
    e.HTTPErrorHandler = errorHandler
    e.Validator = handler.NewValidator()
    e.JSONSerializer = jsonSerializer{}

    e.Pre(middleware.KeepRequestPath())
    e.Pre(echomw.RemoveTrailingSlashWithConfig(echomw.TrailingSlashConfig{
        Skipper: func(c echo.Context) bool { return c.Request().URL.Path == "/" },
    }))
    e.Pre(middleware.AuthGate(gate))
    e.Use(echomw.Recover())
    e.Use(echomw.RequestLoggerWithConfig(echomw.RequestLoggerConfig{
        LogMethod:   true,
        LogURIPath:  true,
        LogStatus:   true,
        LogLatency:  true,
        LogRemoteIP: true,
        LogError:    true,
        HandleError: true,
        LogValuesFunc: func(c echo.Context, v echomw.RequestLoggerValues) error {
            ev := logging.Info()
            if v.Status >= http.StatusInternalServerError {
                ev = logging.Error().Err(v.Error)
            }
            ev.Str("method", v.Method).
                Str("path", v.URIPath).
                Int("status", v.Status).
                Dur("latency", v.Latency).
                Str("ip", v.RemoteIP).
                Msg("request")
            return nil
        },
    }))
}

// RegisterRoutes registers the probes and the metrics endpoint.
func RegisterRoutes(e *echo.Echo, db handler.Pinger) {
    e.GET("/healthz", handler.Health)
    if db != nil {
        e.GET("/readyz", handler.Ready(db))
    }
    e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
}

// RegisterAuth registers the session endpoints under /api/auth.  limiter
// wraps login only.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, codec *auth.TokenCodec, limiter echo.MiddlewareFunc) {
    g := e.Group("/api/auth")
    g.GET("/csrf", a.IssueCSRF)
    g.POST("/login", a.Login, limiter)
    g.POST("/logout", a.Logout)
    g.GET("/me", a.Me, middleware.RequireAdmin(codec))
}

// RegisterAdmin registers the admin API.  Every route requires an admin token.
func RegisterAdmin(e *echo.Echo, u *handler.UsersHandler, up *handler.UploadHandler, codec *auth.TokenCodec) {
    g := e.Group("/api", middleware.RequireAdmin(codec))
    g.GET("/users", u.List)
    g.GET("/users/:id", u.Get)
    g.POST("/uploads", up.Upload)
}

// RegisterSigned registers the service-to-service API authenticated by
// request signatures.
func RegisterSigned(e *echo.Echo, s *handler.SignedHandler, v *auth.SignatureVerifier) {
    g := e.Group("/api/signed", middleware.RequireSignature(v))
    g.GET("/principals/:id", s.Principal)
}

// RegisterPages registers the HTML shells of the dashboard.
func RegisterPages(e *echo.Echo, p *handler.PageHandler) {
    e.GET("/login", p.Login)
    e.GET("/", p.Dashboard)
    e.GET("/dashboard", p.Dashboard)
}

// errorHandler renders every unhandled error as {success:false, message}.
// Server errors are logged and never expose their cause.
func errorHandler(err error, c echo.Context) {
    if c.Response().Committed {
        return
    }
    code := http.StatusInternalServerError
    msg := "Internal server error"

    var he *echo.HTTPError
    if errors.As(err, &he) {
        code = he.Code
        if code < http.StatusInternalServerError {
            if m, ok := he.Message.(string); ok {
                msg = m
            } else {
                msg = http.StatusText(code)
            }
        }
    }
    if code >= http.StatusInternalServerError {
        logging.Error().Err(err).Str("path", c.Request().URL.Path).Msg("unhandled error")
    }

    if c.Request().Method == http.MethodHead {
        err = c.NoContent(code)
    } else {
        err = c.JSON(code, echo.Map{"success": false, "message": msg})
    }
    if err != nil {
        logging.Error().Err(err).Msg("write error response")
    }
}

// jsonSerializer is echo.JSONSerializer backed by goccy/go-json.
type jsonSerializer struct{}

func (jsonSerializer) Serialize(c echo.Context, i interface{}, indent string) error {
    enc := json.NewEncoder(c.Response())
    if indent != "" {
        enc.SetIndent("", indent)
    }
    return enc.Encode(i)
}

func (jsonSerializer) Deserialize(c echo.Context, i interface{}) error {
    if err := json.NewDecoder(c.Request().Body).Decode(i); err != nil {
        return echo.NewHTTPError(http.StatusBadRequest, "Invalid JSON body").SetInternal(err)
    }
    return nil
}
