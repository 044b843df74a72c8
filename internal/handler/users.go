package handler

import (
    "context"  // deadlines and cancellation
    "errors"   // sentinel error matching
    "net/http" // HTTP status codes and cookies
    "strconv"  // string/number conversion
    "time"     // timeouts and clocks

    "github.com/labstack/echo/v4" // Echo framework for HTTP routing

    "github.com/iliyamo/cms-auth/internal/model"      // domain models
    "github.com/iliyamo/cms-auth/internal/repository" // DB repositories
)

// UsersHandler serves the admin principal listing.
type UsersHandler struct {
    Users UserStore
}

func NewUsersHandler(users UserStore) *UsersHandler { return &UsersHandler{Users: users} }

// List returns principals, newest first.  Query: limit (1..200, default 50), offset.
func (h *UsersHandler) List(c echo.Context) error {
    limit, _ := strconv.Atoi(c.QueryParam("limit"))
    offset, _ := strconv.Atoi(c.QueryParam("offset"))

    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()

    users, err := h.Users.List(ctx, limit, offset)
    if err != nil {
        return internalError(c, "users.list", err)
    }
    out := make([]model.PublicUser, 0, len(users))
    for _, u := range users {
        out = append(out, u.Public())
    }
    return c.JSON(http.StatusOK, echo.Map{"success": true, "users": out})
}

// Get returns one principal by id.
func (h *UsersHandler) Get(c echo.Context) error {
    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()

    u, err := h.Users.GetByID(ctx, c.Param("id"))
    if errors.Is(err, repository.ErrNotFound) {
        return fail(c, http.StatusNotFound, "User not found")
    }
    if err != nil {
        return internalError(c, "users.get", err)
    }
    return c.JSON(http.StatusOK, echo.Map{"success": true, "user": u.Public()})
}
