package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/flatmate/flatmate-backend/internal/model"
)

// RequireRole returns a middleware that enforces the authenticated
// user's role. A caller passes when their role equals the required one
// or when they are an admin: admins satisfy every role requirement.
// There is no finer-grained permission model. On failure the request
// is aborted with 403. Authenticate must run earlier in the chain.
func RequireRole(role string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			got, ok := c.Get(CtxRole).(string)
			if !ok || (got != role && got != model.RoleAdmin) {
				return c.JSON(http.StatusForbidden, echo.Map{"error": "insufficient permissions"})
			}
			return next(c)
		}
	}
}
