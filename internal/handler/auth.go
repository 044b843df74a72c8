package handler

import (
    "context"  // deadlines and cancellation
    "errors"   // sentinel error matching
    "net/http" // HTTP status codes and cookies
    "strings"  // string manipulation utilities
    "time"     // timeouts and clocks

    "github.com/labstack/echo/v4" // Echo framework for HTTP routing

    "github.com/iliyamo/cms-auth/internal/auth"       // tokens, CSRF, lockout and signing
    "github.com/iliyamo/cms-auth/internal/config"     // app configuration
    "github.com/iliyamo/cms-auth/internal/logging"    // structured logging
    "github.com/iliyamo/cms-auth/internal/metrics"    // Prometheus counters
    "github.com/iliyamo/cms-auth/internal/middleware" // gate, guards and limiters
    "github.com/iliyamo/cms-auth/internal/model"      // domain models
    "github.com/iliyamo/cms-auth/internal/queue"      // audit events
    "github.com/iliyamo/cms-auth/internal/repository" // DB repositories
)

// UserStore is the principal lookup used by the handlers.
// *repository.UserRepo implements it.
type UserStore interface {
    GetByIdentifier(ctx context.Context, identifier string) (model.User, error)
    GetByID(ctx context.Context, id string) (model.User, error)
    List(ctx context.Context, limit, offset int) ([]model.User, error)
}

// EventPublisher delivers audit events.  *service.Publisher implements it.
type EventPublisher interface {
    Publish(ctx context.Context, ev queue.AuthEvent) error
}

// AuthHandler bundles dependencies for auth endpoints.
type AuthHandler struct {
    Cfg    config.Config
    Users  UserStore
    Tokens *auth.TokenCodec
    CSRF   *auth.CSRFService
    Guard  *auth.BruteForceGuard
    Events EventPublisher // nil disables auditing

    // dummyHash is compared against when the principal does not exist so
    // unknown and known identifiers cost the same bcrypt work.
    dummyHash string
}

func NewAuthHandler(cfg config.Config, users UserStore, tokens *auth.TokenCodec, csrf *auth.CSRFService,
    guard *auth.BruteForceGuard, events EventPublisher) *AuthHandler {
    h := &AuthHandler{Cfg: cfg, Users: users, Tokens: tokens, CSRF: csrf, Guard: guard, Events: events}
    dummy, err := auth.HashPassword("timing-equalizer-not-a-password", cfg.BcryptCost)
    if err != nil {
        logging.Warn().Err(err).Msg("could not prepare dummy hash")
    }
    h.dummyHash = dummy
    return h
}

// ----- DTOs -----

type loginReq struct {
    Email     string `json:"email" validate:"omitempty,email,max=255"`
    Username  string `json:"username" validate:"omitempty,max=64"`
    Password  string `json:"password" validate:"required,max=1024"`
    CSRFToken string `json:"csrfToken"`
}

func (r loginReq) identifier() string {
    if id := strings.TrimSpace(r.Email); id != "" {
        return id
    }
    return strings.TrimSpace(r.Username)
}

type loginResp struct {
    Success bool             `json:"success"`
    Token   string           `json:"token"`
    User    model.PublicUser `json:"user"`
}

// IssueCSRF issues a token, sets it as an HttpOnly cookie and returns it.
func (h *AuthHandler) IssueCSRF(c echo.Context) error {
    tok, err := h.CSRF.Issue()
    if err != nil {
        return internalError(c, "csrf.issue", err)
    }
    c.SetCookie(h.CSRF.Cookie(tok))
    return c.JSON(http.StatusOK, echo.Map{"csrfToken": tok})
}

// Login authenticates an admin and sets the auth cookies.
func (h *AuthHandler) Login(c echo.Context) error {
    var req loginReq
    if err := c.Bind(&req); err != nil {
        metrics.LoginAttempts.WithLabelValues("invalid_input").Inc()
        return fail(c, http.StatusBadRequest, "Invalid request body")
    }
    ident := req.identifier()
    if ident == "" || c.Validate(&req) != nil {
        metrics.LoginAttempts.WithLabelValues("invalid_input").Inc()
        return fail(c, http.StatusBadRequest, "Email or username and password are required")
    }

    provided := req.CSRFToken
    if provided == "" {
        provided = c.Request().Header.Get("X-CSRF-Token")
    }
    var cookieTok string
    if ck, err := c.Cookie(auth.CSRFCookieName); err == nil {
        cookieTok = ck.Value
    }
    if !h.CSRF.Validate(provided, cookieTok) {
        metrics.LoginAttempts.WithLabelValues("csrf").Inc()
        return fail(c, http.StatusForbidden, "Invalid request")
    }

    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()

    // The attempt is reserved before any password work so concurrent
    // guesses for one identifier cannot all pass a stale lockout check.
    attempt, allowed, err := h.Guard.TryAcquire(ctx, ident)
    if err != nil {
        return internalError(c, "login.lockout", err)
    }
    if !allowed {
        metrics.LoginAttempts.WithLabelValues("locked").Inc()
        h.publish(c, queue.AuthEvent{Type: queue.EventLoginLocked, Identifier: ident})
        return fail(c, http.StatusTooManyRequests, "Too many failed attempts. Please try again later.")
    }

    u, err := h.Users.GetByIdentifier(ctx, ident)
    if err != nil && !errors.Is(err, repository.ErrNotFound) {
        return internalError(c, "login.lookup", err)
    }
    if err != nil {
        auth.VerifyPassword(req.Password, h.dummyHash) // same cost as a real check
        return h.rejectCredentials(c, ident, "", attempt)
    }
    if !auth.VerifyPassword(req.Password, u.PasswordHash) {
        return h.rejectCredentials(c, ident, u.ID, attempt)
    }

    // correct password: the reservation is released whatever happens next
    if err := h.Guard.Clear(ctx, ident); err != nil {
        logging.Warn().Err(err).Msg("clear lockout counter failed")
    }
    if !u.IsActive {
        metrics.LoginAttempts.WithLabelValues("inactive").Inc()
        h.publish(c, queue.AuthEvent{Type: queue.EventLoginForbidden, Identifier: ident, UserID: u.ID, Reason: "inactive"})
        return fail(c, http.StatusForbidden, "Account is disabled")
    }
    if u.Role != model.RoleAdmin {
        metrics.LoginAttempts.WithLabelValues("forbidden").Inc()
        h.publish(c, queue.AuthEvent{Type: queue.EventLoginForbidden, Identifier: ident, UserID: u.ID, Reason: "role"})
        return fail(c, http.StatusForbidden, "Access denied")
    }

    tok, err := h.Tokens.Issue(u.ID, u.Role)
    if err != nil {
        return internalError(c, "login.issue", err)
    }
    for _, ck := range auth.AuthCookies(tok, h.Tokens.TTL(), h.Cfg.IsProduction()) {
        c.SetCookie(ck)
    }
    c.SetCookie(h.CSRF.ClearCookie())

    metrics.LoginAttempts.WithLabelValues("success").Inc()
    h.publish(c, queue.AuthEvent{Type: queue.EventLoginSucceeded, Identifier: ident, UserID: u.ID})
    return c.JSON(http.StatusOK, loginResp{Success: true, Token: tok.Value, User: u.Public()})
}

// rejectCredentials answers 401 for a failed attempt already counted by
// TryAcquire.  The message is the same for unknown identifiers and wrong
// passwords.
func (h *AuthHandler) rejectCredentials(c echo.Context, ident, userID string, attempt int64) error {
    metrics.LoginAttempts.WithLabelValues("invalid_credentials").Inc()
    h.publish(c, queue.AuthEvent{Type: queue.EventLoginFailed, Identifier: ident, UserID: userID, Reason: "invalid_credentials"})
    if attempt == h.Guard.MaxAttempts() {
        metrics.Lockouts.Inc()
        logging.Warn().Str("ip", c.RealIP()).Msg("login identifier locked after repeated failures")
    }
    return fail(c, http.StatusUnauthorized, "Invalid credentials")
}

// Logout clears both auth cookies.  It needs no valid session.
func (h *AuthHandler) Logout(c echo.Context) error {
    ev := queue.AuthEvent{Type: queue.EventLogout}
    if claims, err := h.Tokens.Verify(auth.TokenFromRequest(c.Request()), ""); err == nil {
        ev.UserID = claims.Subject
    }
    for _, ck := range auth.ExpiredAuthCookies(h.Cfg.IsProduction()) {
        c.SetCookie(ck)
    }
    h.publish(c, ev)
    return c.JSON(http.StatusOK, echo.Map{"success": true})
}

// Me returns the principal behind the verified token.
func (h *AuthHandler) Me(c echo.Context) error {
    claims, ok := middleware.ClaimsFrom(c)
    if !ok {
        return fail(c, http.StatusUnauthorized, "Authentication required")
    }
    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()

    u, err := h.Users.GetByID(ctx, claims.Subject)
    if errors.Is(err, repository.ErrNotFound) {
        return fail(c, http.StatusNotFound, "User not found")
    }
    if err != nil {
        return internalError(c, "me.lookup", err)
    }
    return c.JSON(http.StatusOK, echo.Map{
        "success":   true,
        "user":      u.Public(),
        "expiresAt": claims.ExpiresAt.Time,
    })
}

// publish sends ev in the background with request metadata attached.
func (h *AuthHandler) publish(c echo.Context, ev queue.AuthEvent) {
    if h.Events == nil {
        return
    }
    ev.IP = c.RealIP()
    ev.UserAgent = c.Request().UserAgent()
    ev.OccurredAt = time.Now().UTC()
    go func() {
        ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
        defer cancel()
        if err := h.Events.Publish(ctx, ev); err != nil {
            logging.Debug().Err(err).Str("event", string(ev.Type)).Msg("audit event dropped")
        }
    }()
}
