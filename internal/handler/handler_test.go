package handler

import (
    "context"
    "net/http"
    "net/http/httptest"
    "strings"
    "sync"
    "testing"
    "time"

    "github.com/goccy/go-json"
    "github.com/labstack/echo/v4"
    "github.com/stretchr/testify/require"
    "golang.org/x/crypto/bcrypt"

    "github.com/iliyamo/cms-auth/internal/auth"
    "github.com/iliyamo/cms-auth/internal/config"
    "github.com/iliyamo/cms-auth/internal/model"
    "github.com/iliyamo/cms-auth/internal/queue"
    "github.com/iliyamo/cms-auth/internal/repository"
)

// fakeUsers is an in-memory UserStore.
type fakeUsers struct {
    users []model.User
    err   error
}

func (f *fakeUsers) GetByIdentifier(_ context.Context, ident string) (model.User, error) {
    if f.err != nil {
        return model.User{}, f.err
    }
    for _, u := range f.users {
        if strings.EqualFold(u.Email, ident) || u.Username == ident {
            return u, nil
        }
    }
    return model.User{}, repository.ErrNotFound
}

func (f *fakeUsers) GetByID(_ context.Context, id string) (model.User, error) {
    if f.err != nil {
        return model.User{}, f.err
    }
    for _, u := range f.users {
        if u.ID == id {
            return u, nil
        }
    }
    return model.User{}, repository.ErrNotFound
}

func (f *fakeUsers) List(_ context.Context, limit, offset int) ([]model.User, error) {
    if f.err != nil {
        return nil, f.err
    }
    return f.users, nil
}

// fakeEvents records published audit events.
type fakeEvents struct {
    mu     sync.Mutex
    events []queue.AuthEvent
}

func (f *fakeEvents) Publish(_ context.Context, ev queue.AuthEvent) error {
    f.mu.Lock()
    f.events = append(f.events, ev)
    f.mu.Unlock()
    return nil
}

func (f *fakeEvents) has(typ queue.AuthEventType) bool {
    f.mu.Lock()
    defer f.mu.Unlock()
    for _, ev := range f.events {
        if ev.Type == typ {
            return true
        }
    }
    return false
}

const testPassword = "correct horse battery staple"

func mustHash(t *testing.T, pw string) string {
    t.Helper()
    h, err := auth.HashPassword(pw, bcrypt.MinCost)
    require.NoError(t, err)
    return h
}

func testUsers(t *testing.T) *fakeUsers {
    hash := mustHash(t, testPassword)
    created := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
    return &fakeUsers{users: []model.User{
        {ID: "u-admin", Email: "admin@example.com", Username: "admin", PasswordHash: hash, Role: model.RoleAdmin, IsActive: true, CreatedAt: created},
        {ID: "u-editor", Email: "editor@example.com", Username: "editor", PasswordHash: hash, Role: model.RoleEditor, IsActive: true, CreatedAt: created},
        {ID: "u-off", Email: "off@example.com", Username: "off", PasswordHash: hash, Role: model.RoleAdmin, IsActive: false, CreatedAt: created},
        {ID: "u-legacy", Email: "legacy@example.com", Username: "legacy", PasswordHash: "plain-legacy", Role: model.RoleAdmin, IsActive: true, CreatedAt: created},
    }}
}

type authEnv struct {
    e      *echo.Echo
    h      *AuthHandler
    users  *fakeUsers
    events *fakeEvents
    codec  *auth.TokenCodec
}

func newAuthEnv(t *testing.T) *authEnv {
    t.Helper()
    codec, err := auth.NewTokenCodec([]byte("handler-test-secret"), time.Hour)
    require.NoError(t, err)

    env := &authEnv{users: testUsers(t), events: &fakeEvents{}, codec: codec}
    env.h = NewAuthHandler(
        config.Config{Env: "test", BcryptCost: bcrypt.MinCost},
        env.users,
        codec,
        auth.NewCSRFService(time.Hour, false),
        auth.NewBruteForceGuard(auth.NewMemoryStore(), 5, 15*time.Minute),
        env.events,
    )

    e := echo.New()
    e.Validator = NewValidator()
    e.GET("/api/auth/csrf", env.h.IssueCSRF)
    e.POST("/api/auth/login", env.h.Login)
    e.POST("/api/auth/logout", env.h.Logout)
    env.e = e
    return env
}

func (env *authEnv) serve(req *http.Request) *httptest.ResponseRecorder {
    rec := httptest.NewRecorder()
    env.e.ServeHTTP(rec, req)
    return rec
}

const testCSRF = "0123456789abcdef0123456789abcdef0123456789abcdef0123456789abcdef"

func (env *authEnv) login(t *testing.T, body map[string]string, csrfCookie string) *httptest.ResponseRecorder {
    t.Helper()
    raw, err := json.Marshal(body)
    require.NoError(t, err)
    req := httptest.NewRequest(http.MethodPost, "/api/auth/login", strings.NewReader(string(raw)))
    req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
    if csrfCookie != "" {
        req.AddCookie(&http.Cookie{Name: auth.CSRFCookieName, Value: csrfCookie})
    }
    return env.serve(req)
}

func cookiesByName(rec *httptest.ResponseRecorder) map[string]*http.Cookie {
    out := map[string]*http.Cookie{}
    for _, c := range rec.Result().Cookies() {
        out[c.Name] = c
    }
    return out
}

func jsonBody(t *testing.T, v any) *strings.Reader {
    t.Helper()
    raw, err := json.Marshal(v)
    require.NoError(t, err)
    return strings.NewReader(string(raw))
}

func jsonRaw(s string) *strings.Reader { return strings.NewReader(s) }
