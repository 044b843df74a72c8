package handler

import (
    "context"  // deadlines and cancellation
    "errors"   // sentinel error matching
    "net/http" // HTTP status codes and cookies
    "time"     // timeouts and clocks

    "github.com/labstack/echo/v4" // Echo framework for HTTP routing

    "github.com/iliyamo/cms-auth/internal/model"      // domain models
    "github.com/iliyamo/cms-auth/internal/repository" // DB repositories
)

// SignedHandler serves companion services that authenticate with request
// signatures instead of user tokens.
type SignedHandler struct {
    Users UserStore
}

func NewSignedHandler(users UserStore) *SignedHandler { return &SignedHandler{Users: users} }

type principalProfile struct {
    ID       string     `json:"id"`
    Username string     `json:"username"`
    Role     model.Role `json:"role"`
}

// Principal returns the public profile of an active principal, e.g. an
// article author shown on the reading site.
func (h *SignedHandler) Principal(c echo.Context) error {
    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()

    u, err := h.Users.GetByID(ctx, c.Param("id"))
    if errors.Is(err, repository.ErrNotFound) || (err == nil && !u.IsActive) {
        return fail(c, http.StatusNotFound, "Principal not found")
    }
    if err != nil {
        return internalError(c, "signed.principal", err)
    }
    return c.JSON(http.StatusOK, echo.Map{
        "success":   true,
        "principal": principalProfile{ID: u.ID, Username: u.Username, Role: u.Role},
    })
}
