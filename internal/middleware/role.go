package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// RequireRole lets a request through only when JWTAuth stored one of roles.
func RequireRole(roles ...string) echo.MiddlewareFunc {
	allowed := make(map[string]bool, len(roles))
	for _, r := range roles {
		allowed[r] = true
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if !allowed[Role(c)] {
				return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden", "message": "this action is not allowed for your account"})
			}
			return next(c)
		}
	}
}
