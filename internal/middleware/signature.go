package middleware

import (
    "bytes"    // byte buffers
    "errors"   // sentinel error matching
    "io"       // stream helpers
    "net/http" // HTTP status codes and cookies

    "github.com/labstack/echo/v4" // Echo framework for HTTP routing

    "github.com/iliyamo/cms-auth/internal/auth"    // tokens, CSRF, lockout and signing
    "github.com/iliyamo/cms-auth/internal/logging" // structured logging
    "github.com/iliyamo/cms-auth/internal/metrics" // Prometheus counters
)

// maxSignedBody bounds the body buffered for signature verification.
const maxSignedBody = 1 << 20

var signatureReasons = []error{
    auth.ErrSignatureMissing,
    auth.ErrInvalidAPIKey,
    auth.ErrSignatureStale,
    auth.ErrSignatureMismatch,
    auth.ErrSignatureReplayed,
}

// RequireSignature admits only requests signed for v.  The body is read for
// hashing and then restored for the handler.  Failures answer
// 401 {success:false, error:<reason>}.
func RequireSignature(v *auth.SignatureVerifier) echo.MiddlewareFunc {
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            // Buffer the body (bounded) because the hash needs it and the
            // handler still has to read it afterwards.
            req := c.Request()
            var body []byte
            if req.Body != nil {
                b, err := io.ReadAll(io.LimitReader(req.Body, maxSignedBody+1))
                if err != nil {
                    return echo.NewHTTPError(http.StatusBadRequest, "Unreadable request body")
                }
                if len(b) > maxSignedBody {
                    return echo.NewHTTPError(http.StatusRequestEntityTooLarge, "Request body too large")
                }
                body = b
                req.Body = io.NopCloser(bytes.NewReader(body))
            }

            // verify against the path the signer hashed, not a rewritten one
            signed := req
            if p := requestPath(c); p != req.URL.Path {
                signed = req.Clone(req.Context())
                signed.URL.Path = p
            }
            if err := v.Verify(req.Context(), signed, body); err != nil {
                // Known failures are reported by reason; anything else is
                // an infrastructure error for the error handler.
                for _, known := range signatureReasons {
                    if errors.Is(err, known) {
                        metrics.SignedRequests.WithLabelValues(known.Error()).Inc()
                        logging.Info().Str("path", signed.URL.Path).Str("reason", known.Error()).Msg("signed request rejected")
                        return c.JSON(http.StatusUnauthorized, echo.Map{"success": false, "error": known.Error()})
                    }
                }
                metrics.SignedRequests.WithLabelValues("error").Inc()
                return err
            }
            metrics.SignedRequests.WithLabelValues("valid").Inc()
            return next(c)
        }
    }
}
