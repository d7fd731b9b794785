package handler

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/admin-platform/internal/apperr"
	"github.com/iliyamo/admin-platform/internal/logging"
	"github.com/iliyamo/admin-platform/internal/middleware"
	"github.com/iliyamo/admin-platform/internal/model"
	"github.com/iliyamo/admin-platform/internal/service"
)

// AuthHandler bundles dependencies for auth endpoints.
type AuthHandler struct {
	Auth *service.AuthService
	Log  logging.Logger
}

func NewAuthHandler(a *service.AuthService, log logging.Logger) *AuthHandler {
	if log == nil {
		log = logging.Nop{}
	}
	return &AuthHandler{Auth: a, Log: log}
}

// ----- DTOs -----

type loginReq struct {
	Email      string `json:"email"`
	Password   string `json:"password"`
	RememberMe bool   `json:"rememberMe"`
}
type refreshReq struct {
	RefreshToken string `json:"refreshToken"`
}
type emailReq struct {
	Email string `json:"email"`
}
type registerReq struct {
	Email     string `json:"email"`
	Password  string `json:"password"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
}

type userPart struct {
	ID        string  `json:"id"`
	Email     string  `json:"email"`
	FirstName string  `json:"firstName"`
	LastName  string  `json:"lastName"`
	Role      string  `json:"role"`
	AvatarURL *string `json:"avatarUrl"`
}

type tokenResp struct {
	AccessToken  string    `json:"accessToken"`
	RefreshToken string    `json:"refreshToken"`
	ExpiresIn    int64     `json:"expiresIn"`
	User         *userPart `json:"user,omitempty"`
}

func toUserPart(u *model.User) *userPart {
	return &userPart{
		ID:        u.ID,
		Email:     u.Email,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Role:      string(u.Role),
		AvatarURL: u.AvatarURL,
	}
}

func timeout(c echo.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request().Context(), 5*time.Second)
}

// Login: verify credentials and return a new pair.
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginReq
	if err := c.Bind(&req); err != nil {
		return fail(c, h.Log, apperr.BadRequest(msgInvalidBody))
	}
	if strings.TrimSpace(req.Email) == "" || req.Password == "" {
		return fail(c, h.Log, apperr.BadRequest(service.MsgEmailPasswordReq))
	}

	ctx, cancel := timeout(c)
	defer cancel()

	res, err := h.Auth.Login(ctx, req.Email, req.Password, req.RememberMe)
	if err != nil {
		return fail(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, tokenResp{
		AccessToken:  res.AccessToken,
		RefreshToken: res.RefreshToken,
		ExpiresIn:    res.ExpiresIn,
		User:         toUserPart(res.User),
	})
}

// Refresh: exchange a refresh token for a new pair.
func (h *AuthHandler) Refresh(c echo.Context) error {
	var req refreshReq
	if err := c.Bind(&req); err != nil {
		return fail(c, h.Log, apperr.BadRequest(msgInvalidBody))
	}

	ctx, cancel := timeout(c)
	defer cancel()

	res, err := h.Auth.Refresh(ctx, req.RefreshToken)
	if err != nil {
		return fail(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, tokenResp{
		AccessToken:  res.AccessToken,
		RefreshToken: res.RefreshToken,
		ExpiresIn:    res.ExpiresIn,
	})
}

// Logout: revoke the refresh token from the body and the bearer token from
// the header.  Always 200; an unreadable body just means nothing to revoke.
func (h *AuthHandler) Logout(c echo.Context) error {
	var req refreshReq
	_ = c.Bind(&req)

	ctx, cancel := timeout(c)
	defer cancel()

	msg := h.Auth.Logout(ctx, req.RefreshToken, middleware.BearerToken(c.Request()))
	return c.JSON(http.StatusOK, echo.Map{"message": msg})
}

// ForgotPassword: always 200 with the same message.
func (h *AuthHandler) ForgotPassword(c echo.Context) error {
	var req emailReq
	_ = c.Bind(&req)

	msg := service.MsgForgotPassword
	if strings.TrimSpace(req.Email) != "" {
		ctx, cancel := timeout(c)
		defer cancel()
		msg = h.Auth.ForgotPassword(ctx, req.Email)
	}
	return c.JSON(http.StatusOK, echo.Map{"message": msg})
}

// Validate: the guard already did the work; echo the live identity.
func (h *AuthHandler) Validate(c echo.Context) error {
	id, ok := middleware.CurrentIdentity(c)
	if !ok {
		return fail(c, h.Log, apperr.Unauthorized(service.MsgUnauthorized))
	}
	return c.JSON(http.StatusOK, echo.Map{"valid": true, "user": id})
}

// Register: create a pending account.  No tokens are issued until the
// account is activated.
func (h *AuthHandler) Register(c echo.Context) error {
	var req registerReq
	if err := c.Bind(&req); err != nil {
		return fail(c, h.Log, apperr.BadRequest(msgInvalidBody))
	}

	ctx, cancel := timeout(c)
	defer cancel()

	u, err := h.Auth.Register(ctx, service.RegisterInput{
		Email:     req.Email,
		Password:  req.Password,
		FirstName: req.FirstName,
		LastName:  req.LastName,
	})
	if err != nil {
		return fail(c, h.Log, err)
	}
	return c.JSON(http.StatusCreated, echo.Map{
		"message": service.MsgRegistered,
		"userId":  u.ID,
	})
}

// Me: the authenticated account as currently stored.
func (h *AuthHandler) Me(c echo.Context) error {
	u := middleware.CurrentUser(c)
	if u == nil {
		return fail(c, h.Log, apperr.Unauthorized(service.MsgUnauthorized))
	}
	return c.JSON(http.StatusOK, toAccount(u))
}
