package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/flatmate/flatmate-backend/internal/config"
	"github.com/flatmate/flatmate-backend/internal/model"
	"github.com/flatmate/flatmate-backend/internal/repository"
	"github.com/flatmate/flatmate-backend/internal/token"
	"github.com/flatmate/flatmate-backend/internal/utils"
)

// UserStore is the persistence surface the auth endpoints need.
type UserStore interface {
	Create(ctx context.Context, name, email, phone, password string, cost int) (uint64, error)
	GetByEmail(ctx context.Context, email string) (model.User, error)
	GetByID(ctx context.Context, id uint64) (model.User, error)
}

// SessionStore records and revokes refresh sessions. It is an
// OPTIONAL collaborator of AuthHandler: a nil store is a legitimate
// configuration in which refresh tokens are simply not persisted.
type SessionStore interface {
	Open(ctx context.Context, userID uint64, rawToken string) error
	Revoke(ctx context.Context, rawToken string) error
}

// AuthHandler bundles dependencies for the auth endpoints.
type AuthHandler struct {
	Cfg      config.Config
	Issuer   *token.Issuer
	Users    UserStore
	Sessions SessionStore // may be nil
}

func NewAuthHandler(cfg config.Config, iss *token.Issuer, users UserStore, sessions SessionStore) *AuthHandler {
	return &AuthHandler{Cfg: cfg, Issuer: iss, Users: users, Sessions: sessions}
}

// ----- DTOs -----

type registerReq struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Phone    string `json:"phone"`
}

type loginReq struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// refreshReq accepts the refresh token under either field name; the
// web client sends "refresh", older clients send "refresh_token".
type refreshReq struct {
	Refresh      string `json:"refresh"`
	RefreshToken string `json:"refresh_token"`
}

func (r refreshReq) token() string {
	if t := strings.TrimSpace(r.Refresh); t != "" {
		return t
	}
	return strings.TrimSpace(r.RefreshToken)
}

type tokenPairResp struct {
	AccessToken  string   `json:"access_token"`
	RefreshToken string   `json:"refresh_token"`
	TokenType    string   `json:"token_type"`
	User         userView `json:"user"`
}

// Register creates a user with role "user" and returns a token pair
// immediately so the client is logged in right away.
func (h *AuthHandler) Register(c echo.Context) error {
	var req registerReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if req.Email == "" || req.Password == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "email/password required"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	uid, err := h.Users.Create(ctx, strings.TrimSpace(req.Name), req.Email, strings.TrimSpace(req.Phone), req.Password, h.Cfg.BcryptCost)
	if err != nil {
		if errors.Is(err, repository.ErrEmailExists) {
			return c.JSON(http.StatusConflict, echo.Map{"error": "email already exists"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create user failed"})
	}
	u, err := h.Users.GetByID(ctx, uid)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load user failed"})
	}

	resp, err := h.issuePair(ctx, c, u)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "issue tokens failed"})
	}
	return c.JSON(http.StatusCreated, resp)
}

// Login verifies credentials and returns a fresh token pair. Unknown
// email and wrong password are indistinguishable on the wire.
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if req.Email == "" || req.Password == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "email/password required"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	u, err := h.Users.GetByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid credentials"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	if !utils.VerifyPassword(u.PasswordHash, req.Password) {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid credentials"})
	}

	resp, err := h.issuePair(ctx, c, u)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "issue tokens failed"})
	}
	return c.JSON(http.StatusOK, resp)
}

// Refresh exchanges a valid refresh token for a new token pair. The
// token's signature and type claim are checked; the session registry's
// revocation state is NOT consulted here, matching the behavior the
// deployed clients rely on.
func (h *AuthHandler) Refresh(c echo.Context) error {
	var req refreshReq
	_ = c.Bind(&req)
	raw := req.token()
	if raw == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "refresh token required"})
	}

	claims, err := h.Issuer.VerifyEither(raw)
	if err != nil || claims.Type != token.TypeRefresh {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid refresh token"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	u, err := h.Users.GetByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			// Same generic failure as a bad token; do not reveal
			// whether the account still exists.
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid refresh token"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load user failed"})
	}

	resp, err := h.issuePair(ctx, c, u)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "issue tokens failed"})
	}
	return c.JSON(http.StatusOK, resp)
}

// Logout revokes the presented refresh token if one was supplied. It
// is deliberately forgiving: no body, an unknown token or a failed
// revocation all still produce a success response, since the client is
// discarding its tokens either way.
func (h *AuthHandler) Logout(c echo.Context) error {
	var req refreshReq
	_ = c.Bind(&req)

	if raw := req.token(); raw != "" && h.Sessions != nil {
		ctx, cancel := reqCtx(c)
		defer cancel()
		if err := h.Sessions.Revoke(ctx, raw); err != nil {
			c.Logger().Warnf("logout: revoke refresh session failed: %v", err)
		}
	}
	return c.JSON(http.StatusOK, echo.Map{"ok": true})
}

// Me returns the authenticated caller's public profile.
func (h *AuthHandler) Me(c echo.Context) error {
	u, ok := currentUser(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid token"})
	}
	return c.JSON(http.StatusOK, newUserView(u))
}

// issuePair mints an access/refresh pair for u and best-effort records
// the refresh session. Session persistence must never fail the login:
// its error is logged and dropped.
func (h *AuthHandler) issuePair(ctx context.Context, c echo.Context, u model.User) (tokenPairResp, error) {
	access, err := h.Issuer.NewAccess(u.ID, u.Role)
	if err != nil {
		return tokenPairResp{}, err
	}
	refresh, err := h.Issuer.NewRefresh(u.ID, u.Role)
	if err != nil {
		return tokenPairResp{}, err
	}
	if h.Sessions != nil {
		if err := h.Sessions.Open(ctx, u.ID, refresh.Token); err != nil {
			c.Logger().Warnf("auth: persist refresh session failed: %v", err)
		}
	}
	return tokenPairResp{
		AccessToken:  access.Token,
		RefreshToken: refresh.Token,
		TokenType:    "bearer",
		User:         newUserView(u),
	}, nil
}
