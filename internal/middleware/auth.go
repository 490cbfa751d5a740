// Package middleware provides the reusable request guards: bearer
// token authentication, role enforcement, rate limiting and response
// caching.
package middleware

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/flatmate/flatmate-backend/internal/model"
	"github.com/flatmate/flatmate-backend/internal/token"
)

// Context keys set by Authenticate for downstream middleware/handlers.
const (
	CtxUser   = "user"    // model.User
	CtxUserID = "user_id" // uint64
	CtxRole   = "role"    // string
)

// UserLoader resolves a token subject to a stored user. *repository.UserRepo
// satisfies it; tests supply fakes.
type UserLoader interface {
	GetByID(ctx context.Context, id uint64) (model.User, error)
}

// Authenticate returns a middleware that requires a valid Bearer
// access token and resolves it to a stored user. Every failure mode
// (missing header, bad signature, expired token, refresh token where
// an access token is expected, subject that no longer exists) produces
// the same 401 "invalid token" response so callers cannot probe which
// check failed or whether an account exists.
func Authenticate(iss *token.Issuer, users UserLoader) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			u, ok := resolveBearer(c, iss, users)
			if !ok {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid token"})
			}
			setIdentity(c, u)
			return next(c)
		}
	}
}

// OptionalAuthenticate resolves a bearer token if one is present and
// valid, and otherwise lets the request through anonymously. Used by
// the public listing detail endpoint, which reveals extra fields to
// logged-in callers.
func OptionalAuthenticate(iss *token.Issuer, users UserLoader) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if u, ok := resolveBearer(c, iss, users); ok {
				setIdentity(c, u)
			}
			return next(c)
		}
	}
}

func resolveBearer(c echo.Context, iss *token.Issuer, users UserLoader) (model.User, bool) {
	auth := c.Request().Header.Get("Authorization")
	if !strings.HasPrefix(auth, "Bearer ") {
		return model.User{}, false
	}
	claims, err := iss.VerifyAccess(strings.TrimPrefix(auth, "Bearer "))
	if err != nil {
		return model.User{}, false
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	u, err := users.GetByID(ctx, claims.UserID)
	if err != nil {
		return model.User{}, false
	}
	return u, true
}

func setIdentity(c echo.Context, u model.User) {
	c.Set(CtxUser, u)
	c.Set(CtxUserID, u.ID)
	c.Set(CtxRole, u.Role)
}

// CurrentUser returns the authenticated user stored by Authenticate,
// or false when the request is anonymous.
func CurrentUser(c echo.Context) (model.User, bool) {
	u, ok := c.Get(CtxUser).(model.User)
	return u, ok
}
