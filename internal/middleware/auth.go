package middleware

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
)

// SessionValidator checks an admin session token.
type SessionValidator interface {
	Validate(raw string) error
}

// AdminAuth requires a valid "Authorization: Bearer <session>" header.
func AdminAuth(v SessionValidator) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			header := c.Request().Header.Get(echo.HeaderAuthorization)
			raw, ok := strings.CutPrefix(header, "Bearer ")
			if !ok || raw == "" {
				return c.JSON(http.StatusUnauthorized, map[string]string{"error": "missing bearer token"})
			}
			if err := v.Validate(raw); err != nil {
				return c.JSON(http.StatusUnauthorized, map[string]string{"error": "invalid session"})
			}
			c.Set("role", "admin")
			return next(c)
		}
	}
}
