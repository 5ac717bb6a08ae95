package handler

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	log "github.com/sirupsen/logrus"

	"github.com/iliyamo/flight-reservation/internal/config"
	"github.com/iliyamo/flight-reservation/internal/middleware"
	"github.com/iliyamo/flight-reservation/internal/service"
	"github.com/iliyamo/flight-reservation/internal/timeutil"
	"github.com/iliyamo/flight-reservation/internal/utils"
)

// AuthHandler issues and revokes tokens for registered customers and
// managers.
type AuthHandler struct {
	Cfg      config.Config
	Accounts Accounts
	Tokens   TokenStore
}

func NewAuthHandler(cfg config.Config, accounts Accounts, tokens TokenStore) *AuthHandler {
	return &AuthHandler{Cfg: cfg, Accounts: accounts, Tokens: tokens}
}

type registerReq struct {
	Email     string   `json:"email"`
	Password  string   `json:"password"`
	FirstName string   `json:"first_name"`
	LastName  string   `json:"last_name"`
	BirthDate string   `json:"birth_date"` // YYYY-MM-DD
	Passport  string   `json:"passport"`
	Phones    []string `json:"phone_numbers"`
}

type loginReq struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type managerLoginReq struct {
	EmployeeID int64  `json:"employee_id"`
	Password   string `json:"password"`
}

type refreshReq struct {
	RefreshToken string `json:"refresh_token"`
}

type tokenPart struct {
	Token   string    `json:"token"`
	Expires time.Time `json:"expires"`
}

type authResp struct {
	Subject string    `json:"subject"`
	Role    string    `json:"role"`
	Access  tokenPart `json:"access"`
	Refresh tokenPart `json:"refresh"`
}

// Register handles POST /v1/auth/register and returns tokens immediately.
func (h *AuthHandler) Register(c echo.Context) error {
	var req registerReq
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "Invalid request body.")
	}
	birth, err := timeutil.ParseDate(req.BirthDate)
	if err != nil {
		return badRequest(c, "Birth date must be YYYY-MM-DD.")
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	u, err := h.Accounts.Register(ctx, service.Registration{
		Email: req.Email, Password: req.Password, FirstName: req.FirstName, LastName: req.LastName,
		BirthDate: birth, Passport: req.Passport, Phones: req.Phones,
	})
	if err != nil {
		return writeError(c, err)
	}
	return h.issue(c, http.StatusCreated, u.Email, utils.RoleRegistered)
}

// Login handles POST /v1/auth/login for registered customers.
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginReq
	if err := c.Bind(&req); err != nil || strings.TrimSpace(req.Email) == "" || req.Password == "" {
		return badRequest(c, "Email and password are required.")
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	u, err := h.Accounts.Login(ctx, req.Email, req.Password)
	if err != nil {
		return writeError(c, err)
	}
	return h.issue(c, http.StatusOK, u.Email, utils.RoleRegistered)
}

// ManagerLogin handles POST /v1/auth/manager/login.
func (h *AuthHandler) ManagerLogin(c echo.Context) error {
	var req managerLoginReq
	if err := c.Bind(&req); err != nil || req.EmployeeID <= 0 || req.Password == "" {
		return badRequest(c, "Employee id and password are required.")
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	m, err := h.Accounts.ManagerLogin(ctx, req.EmployeeID, req.Password)
	if err != nil {
		return writeError(c, err)
	}
	return h.issue(c, http.StatusOK, strconv.FormatInt(m.ID, 10), utils.RoleAdmin)
}

// Refresh handles POST /v1/auth/refresh.  The presented refresh token is
// revoked and a new pair is issued.
func (h *AuthHandler) Refresh(c echo.Context) error {
	var req refreshReq
	if err := c.Bind(&req); err != nil || strings.TrimSpace(req.RefreshToken) == "" {
		return badRequest(c, "refresh_token is required.")
	}
	hash := utils.HashRefreshRaw(strings.TrimSpace(req.RefreshToken))
	ctx, cancel := reqCtx(c)
	defer cancel()

	subject, role, err := h.Tokens.ValidateRefresh(ctx, hash)
	if err != nil {
		return fail(c, http.StatusUnauthorized, "unauthorized", "Invalid refresh token.")
	}
	if err := h.Tokens.RevokeByHash(ctx, hash); err != nil {
		return writeError(c, err)
	}
	return h.issue(c, http.StatusOK, subject, role)
}

// Logout handles POST /v1/auth/logout.  A refresh token in the body revokes
// that session; otherwise a valid bearer token revokes every session of its
// subject.
func (h *AuthHandler) Logout(c echo.Context) error {
	var req refreshReq
	_ = c.Bind(&req)
	ctx, cancel := reqCtx(c)
	defer cancel()

	if raw := strings.TrimSpace(req.RefreshToken); raw != "" {
		hash := utils.HashRefreshRaw(raw)
		if _, _, err := h.Tokens.ValidateRefresh(ctx, hash); err != nil {
			return fail(c, http.StatusUnauthorized, "unauthorized", "Invalid refresh token.")
		}
		if err := h.Tokens.RevokeByHash(ctx, hash); err != nil {
			return writeError(c, err)
		}
		return c.NoContent(http.StatusNoContent)
	}

	auth := c.Request().Header.Get(echo.HeaderAuthorization)
	if !strings.HasPrefix(auth, "Bearer ") {
		return badRequest(c, "Provide an Authorization header or a refresh_token.")
	}
	claims, err := utils.ParseAccessToken(h.Cfg.JWTSecret, strings.TrimPrefix(auth, "Bearer "))
	if err != nil {
		return fail(c, http.StatusUnauthorized, "unauthorized", "Invalid or expired token.")
	}
	if err := h.Tokens.RevokeAllForSubject(ctx, claims.Subject, claims.Role); err != nil {
		return writeError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// Me handles GET /v1/me.
func (h *AuthHandler) Me(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()
	p, err := h.Accounts.Profile(ctx, middleware.Subject(c), middleware.Role(c))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, p)
}

func (h *AuthHandler) issue(c echo.Context, status int, subject, role string) error {
	access, err := utils.NewAccessToken(h.Cfg.JWTSecret, subject, role, h.Cfg.AccessTTLMin)
	if err != nil {
		return writeError(c, err)
	}
	refresh, err := utils.NewRefreshToken(h.Cfg.RefreshTTLDays)
	if err != nil {
		return writeError(c, err)
	}
	if err := h.Tokens.StoreRefresh(c.Request().Context(), subject, role, utils.HashRefreshRaw(refresh.Raw), refresh.Exp); err != nil {
		return writeError(c, err)
	}
	log.WithFields(log.Fields{"subject": subject, "role": role}).Info("tokens issued")
	return c.JSON(status, authResp{
		Subject: subject,
		Role:    role,
		Access:  tokenPart{Token: access.Token, Expires: access.Exp},
		Refresh: tokenPart{Token: refresh.Raw, Expires: refresh.Exp},
	})
}
