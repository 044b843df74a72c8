package handler

import (
    "html/template" // HTML page shells
    "net/http"      // HTTP status codes and cookies
    "net/url"       // URL escaping
    "strings"       // string manipulation utilities

    "github.com/labstack/echo/v4" // Echo framework for HTTP routing

    "github.com/iliyamo/cms-auth/internal/auth"  // tokens, CSRF, lockout and signing
    "github.com/iliyamo/cms-auth/internal/model" // domain models
)

var loginPage = template.Must(template.New("login").Parse(`<!doctype html>
<html lang="en"><head><meta charset="utf-8"><title>Sign in</title>
<link rel="stylesheet" href="/static/admin.css"></head>
<body><main id="login" data-return-url="{{.ReturnURL}}"></main>
<script src="/static/login.js"></script></body></html>
`))

var dashboardPage = template.Must(template.New("dashboard").Parse(`<!doctype html>
<html lang="en"><head><meta charset="utf-8"><title>Dashboard</title>
<link rel="stylesheet" href="/static/admin.css"></head>
<body><main id="dashboard" data-subject="{{.Subject}}"></main>
<script src="/static/dashboard.js"></script></body></html>
`))

// PageHandler renders the dashboard HTML shells.
type PageHandler struct {
    Tokens    *auth.TokenCodec
    LoginPath string
    Secure    bool
}

func NewPageHandler(tokens *auth.TokenCodec, loginPath string, secure bool) *PageHandler {
    return &PageHandler{Tokens: tokens, LoginPath: loginPath, Secure: secure}
}

// safeReturnURL only accepts same-site absolute paths.
func safeReturnURL(raw string) string {
    if !strings.HasPrefix(raw, "/") || strings.HasPrefix(raw, "//") || strings.HasPrefix(raw, "/\\") {
        return "/"
    }
    return raw
}

// Login renders the sign-in page.
func (h *PageHandler) Login(c echo.Context) error {
    c.Response().Header().Set(echo.HeaderContentType, echo.MIMETextHTMLCharsetUTF8)
    c.Response().WriteHeader(http.StatusOK)
    return loginPage.Execute(c.Response(), struct{ ReturnURL string }{safeReturnURL(c.QueryParam("returnUrl"))})
}

// Dashboard renders the admin shell.  The gate only checks that a token is
// present; a token that fails verification clears the cookies and sends the
// browser back to sign in.
func (h *PageHandler) Dashboard(c echo.Context) error {
    claims, err := h.Tokens.Verify(auth.TokenFromRequest(c.Request()), model.RoleAdmin)
    if err != nil {
        for _, ck := range auth.ExpiredAuthCookies(h.Secure) {
            c.SetCookie(ck)
        }
        target := h.LoginPath + "?returnUrl=" + url.QueryEscape(c.Request().URL.RequestURI())
        return c.Redirect(http.StatusFound, target)
    }
    c.Response().Header().Set(echo.HeaderContentType, echo.MIMETextHTMLCharsetUTF8)
    c.Response().WriteHeader(http.StatusOK)
    return dashboardPage.Execute(c.Response(), struct{ Subject string }{claims.Subject})
}
