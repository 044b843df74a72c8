package handler

import (
    "context"  // deadlines and cancellation
    "net/http" // HTTP status codes and cookies
    "time"     // timeouts and clocks

    "github.com/labstack/echo/v4" // Echo framework for HTTP routing
)

// Health is a liveness probe.  It returns "ok" whenever the process serves HTTP.
func Health(c echo.Context) error {
    return c.String(http.StatusOK, "ok")
}

// Pinger is anything with a context-aware health ping (*sql.DB).
type Pinger interface {
    PingContext(ctx context.Context) error
}

// Ready returns a readiness probe that fails with 503 while db is unreachable.
func Ready(db Pinger) echo.HandlerFunc {
    return func(c echo.Context) error {
        ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
        defer cancel()
        if err := db.PingContext(ctx); err != nil {
            return c.JSON(http.StatusServiceUnavailable, echo.Map{"success": false, "message": "database unavailable"})
        }
        return c.JSON(http.StatusOK, echo.Map{"success": true})
    }
}
