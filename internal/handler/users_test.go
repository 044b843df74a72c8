package handler

import (
    "bytes"
    "context"
    "errors"
    "io"
    "mime/multipart"
    "net/http"
    "net/http/httptest"
    "testing"
    "time"

    "github.com/labstack/echo/v4"
    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"

    "github.com/iliyamo/cms-auth/internal/auth"
    "github.com/iliyamo/cms-auth/internal/model"
)

func serveOnce(e *echo.Echo, req *http.Request) *httptest.ResponseRecorder {
    rec := httptest.NewRecorder()
    e.ServeHTTP(rec, req)
    return rec
}

func TestUsersHandler(t *testing.T) {
    users := testUsers(t)
    h := NewUsersHandler(users)
    e := echo.New()
    e.GET("/api/users", h.List)
    e.GET("/api/users/:id", h.Get)

    rec := serveOnce(e, httptest.NewRequest(http.MethodGet, "/api/users?limit=10", nil))
    require.Equal(t, http.StatusOK, rec.Code)
    assert.Contains(t, rec.Body.String(), `"id":"u-editor"`)
    assert.NotContains(t, rec.Body.String(), "$2a$")
    assert.NotContains(t, rec.Body.String(), "plain-legacy")

    rec = serveOnce(e, httptest.NewRequest(http.MethodGet, "/api/users/u-admin", nil))
    require.Equal(t, http.StatusOK, rec.Code)
    assert.Contains(t, rec.Body.String(), `"email":"admin@example.com"`)

    rec = serveOnce(e, httptest.NewRequest(http.MethodGet, "/api/users/missing", nil))
    assert.Equal(t, http.StatusNotFound, rec.Code)

    users.err = errors.New("db down")
    rec = serveOnce(e, httptest.NewRequest(http.MethodGet, "/api/users", nil))
    assert.Equal(t, http.StatusInternalServerError, rec.Code)
    assert.NotContains(t, rec.Body.String(), "db down")
}

func TestSignedHandler_Principal(t *testing.T) {
    h := NewSignedHandler(testUsers(t))
    e := echo.New()
    e.GET("/api/signed/principals/:id", h.Principal)

    rec := serveOnce(e, httptest.NewRequest(http.MethodGet, "/api/signed/principals/u-editor", nil))
    require.Equal(t, http.StatusOK, rec.Code)
    assert.JSONEq(t, `{"success":true,"principal":{"id":"u-editor","username":"editor","role":"editor"}}`, rec.Body.String())

    rec = serveOnce(e, httptest.NewRequest(http.MethodGet, "/api/signed/principals/u-off", nil))
    assert.Equal(t, http.StatusNotFound, rec.Code)
}

type fakeBlobs struct {
    key, contentType string
    size             int64
    data             []byte
}

func (f *fakeBlobs) Upload(_ context.Context, key string, body io.Reader, size int64, contentType string) (string, error) {
    f.key, f.size, f.contentType = key, size, contentType
    f.data, _ = io.ReadAll(body)
    return "https://cdn.example.com/" + key, nil
}

// pngHeader is enough for content sniffing to report image/png.
var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")

func multipartFile(t *testing.T, name string, data []byte) (*bytes.Buffer, string) {
    t.Helper()
    var buf bytes.Buffer
    w := multipart.NewWriter(&buf)
    fw, err := w.CreateFormFile("file", name)
    require.NoError(t, err)
    _, err = fw.Write(data)
    require.NoError(t, err)
    require.NoError(t, w.Close())
    return &buf, w.FormDataContentType()
}

func TestUploadHandler(t *testing.T) {
    blobs := &fakeBlobs{}
    h := NewUploadHandler(blobs)
    h.now = func() time.Time { return time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC) }
    e := echo.New()
    e.POST("/api/uploads", h.Upload)

    body, ct := multipartFile(t, "cover.PNG", pngHeader)
    req := httptest.NewRequest(http.MethodPost, "/api/uploads", body)
    req.Header.Set(echo.HeaderContentType, ct)
    rec := serveOnce(e, req)

    require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
    assert.Equal(t, "image/png", blobs.contentType)
    assert.Equal(t, int64(len(pngHeader)), blobs.size)
    assert.Equal(t, pngHeader, blobs.data, "whole file uploaded after sniffing")
    assert.Regexp(t, `^uploads/2026/09/[0-9a-f-]{36}\.png$`, blobs.key)
    assert.Contains(t, rec.Body.String(), "https://cdn.example.com/uploads/2026/09/")
}

func TestUploadHandler_Rejects(t *testing.T) {
    e := echo.New()
    e.POST("/api/uploads", NewUploadHandler(&fakeBlobs{}).Upload)

    body, ct := multipartFile(t, "run.sh", []byte("#!/bin/sh\necho hi\n"))
    req := httptest.NewRequest(http.MethodPost, "/api/uploads", body)
    req.Header.Set(echo.HeaderContentType, ct)
    assert.Equal(t, http.StatusUnsupportedMediaType, serveOnce(e, req).Code)

    req = httptest.NewRequest(http.MethodPost, "/api/uploads", nil)
    assert.Equal(t, http.StatusBadRequest, serveOnce(e, req).Code)

    e2 := echo.New()
    e2.POST("/api/uploads", NewUploadHandler(nil).Upload)
    assert.Equal(t, http.StatusServiceUnavailable,
        serveOnce(e2, httptest.NewRequest(http.MethodPost, "/api/uploads", nil)).Code)
}

func TestPageHandler(t *testing.T) {
    codec, err := auth.NewTokenCodec([]byte("page-secret"), time.Hour)
    require.NoError(t, err)
    h := NewPageHandler(codec, "/login", false)
    e := echo.New()
    e.GET("/login", h.Login)
    e.GET("/dashboard", h.Dashboard)

    rec := serveOnce(e, httptest.NewRequest(http.MethodGet, "/login?returnUrl=//evil.example", nil))
    require.Equal(t, http.StatusOK, rec.Code)
    assert.Contains(t, rec.Body.String(), `data-return-url="/"`)

    tok, err := codec.Issue("u-admin", model.RoleAdmin)
    require.NoError(t, err)
    req := httptest.NewRequest(http.MethodGet, "/dashboard", nil)
    req.AddCookie(&http.Cookie{Name: auth.CookieAuth, Value: tok.Value})
    rec = serveOnce(e, req)
    require.Equal(t, http.StatusOK, rec.Code)
    assert.Contains(t, rec.Body.String(), `data-subject="u-admin"`)

    req = httptest.NewRequest(http.MethodGet, "/dashboard?x=1", nil)
    req.AddCookie(&http.Cookie{Name: auth.CookieAuth, Value: "garbage"})
    rec = serveOnce(e, req)
    assert.Equal(t, http.StatusFound, rec.Code)
    assert.Equal(t, "/login?returnUrl=%2Fdashboard%3Fx%3D1", rec.Header().Get("Location"))
}

type pingFunc func(ctx context.Context) error

func (f pingFunc) PingContext(ctx context.Context) error { return f(ctx) }

func TestHealthAndReady(t *testing.T) {
    e := echo.New()
    e.GET("/healthz", Health)
    e.GET("/readyz", Ready(pingFunc(func(context.Context) error { return nil })))
    e.GET("/readyz-down", Ready(pingFunc(func(context.Context) error { return errors.New("down") })))

    rec := serveOnce(e, httptest.NewRequest(http.MethodGet, "/healthz", nil))
    assert.Equal(t, "ok", rec.Body.String())
    assert.Equal(t, http.StatusOK, serveOnce(e, httptest.NewRequest(http.MethodGet, "/readyz", nil)).Code)
    assert.Equal(t, http.StatusServiceUnavailable, serveOnce(e, httptest.NewRequest(http.MethodGet, "/readyz-down", nil)).Code)
}
