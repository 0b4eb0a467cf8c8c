package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/servicehub/marketplace/shared/cqrs"
	"github.com/servicehub/marketplace/shared/middleware"
	"github.com/servicehub/marketplace/shared/models"
)

// AccountCommander defines the write-side operations used by AuthHandler.
type AccountCommander interface {
	Register(context.Context, cqrs.RegisterCommand) (*models.Account, error)
	ChangePassword(context.Context, cqrs.ChangePasswordCommand) error
}

// AuthQuerier defines the login operations used by AuthHandler.
type AuthQuerier interface {
	Login(context.Context, cqrs.LoginCommand) (*models.Session, error)
	AdminLogin(context.Context, cqrs.LoginCommand) (*models.Session, error)
	RefreshToken(context.Context, cqrs.RefreshTokenCommand) (*models.Session, error)
}

type AuthHandler struct {
	commands     AccountCommander
	queries      AuthQuerier
	secureCookie bool
}

type RegisterRequest struct {
	Username string `json:"username" validate:"required,notblank,max=50"`
	Email    string `json:"email" validate:"omitempty,email"`
	Password string `json:"password" validate:"required,min=8,max=72"`
	Role     string `json:"role" validate:"omitempty,oneof=customer provider"`
}

type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type RefreshRequest struct {
	Token string `json:"token" validate:"required"`
}

type ChangePasswordRequest struct {
	CurrentPassword string `json:"currentPassword" validate:"required"`
	NewPassword     string `json:"newPassword" validate:"required,min=8,max=72"`
}

// NewAuthHandler sets the admin session cookie's Secure flag from secureCookie.
func NewAuthHandler(commands AccountCommander, queries AuthQuerier, secureCookie bool) *AuthHandler {
	return &AuthHandler{commands: commands, queries: queries, secureCookie: secureCookie}
}

func (h *AuthHandler) Register(c *gin.Context) {
	var req RegisterRequest
	if !bindJSON(c, &req) {
		return
	}

	account, err := h.commands.Register(c.Request.Context(), cqrs.RegisterCommand{
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
		Role:     models.Role(req.Role),
	})
	if err != nil {
		middleware.RespondWithAppError(c, err)
		return
	}
	c.JSON(http.StatusCreated, models.AccountToView(account))
}

func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if !bindJSON(c, &req) {
		return
	}

	session, err := h.queries.Login(c.Request.Context(), cqrs.LoginCommand{Username: req.Username, Password: req.Password})
	if err != nil {
		middleware.RespondWithAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, session)
}

func (h *AuthHandler) RefreshToken(c *gin.Context) {
	var req RefreshRequest
	if !bindJSON(c, &req) {
		return
	}

	session, err := h.queries.RefreshToken(c.Request.Context(), cqrs.RefreshTokenCommand{Token: req.Token})
	if err != nil {
		middleware.RespondWithAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, session)
}

// AdminLogin answers like Login and also sets the admin session cookie.
func (h *AuthHandler) AdminLogin(c *gin.Context) {
	var req LoginRequest
	if !bindJSON(c, &req) {
		return
	}

	session, err := h.queries.AdminLogin(c.Request.Context(), cqrs.LoginCommand{Username: req.Username, Password: req.Password})
	if err != nil {
		middleware.RespondWithAppError(c, err)
		return
	}
	maxAge := int(time.Until(session.ExpiresAt).Seconds())
	h.setAdminCookie(c, session.Token, maxAge)
	c.JSON(http.StatusOK, session)
}

func (h *AuthHandler) AdminLogout(c *gin.Context) {
	h.setAdminCookie(c, "", -1)
	c.JSON(http.StatusOK, gin.H{"message": "Logged out"})
}

func (h *AuthHandler) setAdminCookie(c *gin.Context, value string, maxAge int) {
	http.SetCookie(c.Writer, &http.Cookie{
		Name:     middleware.AdminTokenCookie,
		Value:    value,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   h.secureCookie,
		SameSite: http.SameSiteStrictMode,
	})
}

func (h *AuthHandler) ChangePassword(c *gin.Context) {
	identity := middleware.MustIdentity(c)
	var req ChangePasswordRequest
	if !bindJSON(c, &req) {
		return
	}

	err := h.commands.ChangePassword(c.Request.Context(), cqrs.ChangePasswordCommand{
		AccountID:       identity.AccountID,
		CurrentPassword: req.CurrentPassword,
		NewPassword:     req.NewPassword,
	})
	if err != nil {
		middleware.RespondWithAppError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
