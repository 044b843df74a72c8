package handler

import (
    "net/http" // HTTP status codes and cookies

    "github.com/labstack/echo/v4" // Echo framework for HTTP routing

    "github.com/iliyamo/cms-auth/internal/logging" // structured logging
)

// fail writes the uniform failure body {success:false, message}.
func fail(c echo.Context, status int, message string) error {
    return c.JSON(status, echo.Map{"success": false, "message": message})
}

// internalError logs err with the route and answers a generic 500.
func internalError(c echo.Context, op string, err error) error {
    logging.Error().Err(err).
        Str("op", op).
        Str("path", c.Request().URL.Path).
        Msg("request failed")
    return fail(c, http.StatusInternalServerError, "Internal server error")
}
