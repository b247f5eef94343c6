package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/ticket-tracker/internal/api/dto"
	"github.com/spec-kit/ticket-tracker/internal/auth"
	"github.com/spec-kit/ticket-tracker/internal/config"
	"github.com/spec-kit/ticket-tracker/internal/service"
	apperrors "github.com/spec-kit/ticket-tracker/pkg/util"
)

// AuthHandler exposes agent sign-in endpoints.
type AuthHandler struct {
	auth   *service.AuthService
	cookie config.AuthConfig
}

// NewAuthHandler constructs handler.
func NewAuthHandler(authService *service.AuthService, cfg config.AuthConfig) *AuthHandler {
	return &AuthHandler{auth: authService, cookie: cfg}
}

// Login handles POST /api/auth/login.
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req dto.LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	agent, token, exp, err := h.auth.Login(c.UserContext(), req.Email)
	if err != nil {
		return err
	}

	c.Cookie(&fiber.Cookie{
		Name:     h.cookie.CookieName,
		Value:    token,
		Path:     "/",
		Expires:  exp,
		HTTPOnly: true,
		Secure:   h.cookie.CookieSecure,
		SameSite: fiber.CookieSameSiteLaxMode,
	})
	return c.JSON(dto.LoginResponse{
		Success:     true,
		User:        dto.PrincipalResponse{ID: agent.ID, Name: agent.Name},
		AccessToken: token,
		ExpiresAt:   exp,
	})
}

// Logout handles POST /api/auth/logout by expiring the access cookie.
func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	if err := h.auth.Logout(c.UserContext()); err != nil {
		return err
	}
	c.Cookie(&fiber.Cookie{
		Name:     h.cookie.CookieName,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		HTTPOnly: true,
		Secure:   h.cookie.CookieSecure,
		SameSite: fiber.CookieSameSiteLaxMode,
	})
	return c.SendStatus(fiber.StatusNoContent)
}

// Me handles GET /api/auth/me.
func (h *AuthHandler) Me(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	agent, err := h.auth.Me(c.UserContext(), *principal)
	if err != nil {
		return err
	}
	return c.JSON(dto.NewAgentResponse(agent))
}
