package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/monitor-report/internal/api/dto"
	"github.com/spec-kit/monitor-report/internal/auth"
	"github.com/spec-kit/monitor-report/internal/service"
)

// AuthHandler exposes login, logout and the current identity.
type AuthHandler struct {
	auth *service.AuthService
}

// NewAuthHandler constructs handler.
func NewAuthHandler(authService *service.AuthService) *AuthHandler {
	return &AuthHandler{auth: authService}
}

// Login handles POST /api/auth/login.
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req dto.LoginRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}

	res, err := h.auth.Login(c.UserContext(), req.Email, req.Password)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"data": dto.AuthResponse{
			Token:     res.Token,
			ExpiresAt: res.ExpiresAt,
			User:      dto.NewUserResponse(res.User),
		},
	})
}

// Logout handles POST /api/auth/logout. It succeeds with or without a valid token.
func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	principal, _ := auth.PrincipalFromContext(c)
	h.auth.Logout(c.UserContext(), principal)
	return c.JSON(fiber.Map{"data": fiber.Map{"message": "logged out"}})
}

// Me handles GET /api/auth/me.
func (h *AuthHandler) Me(c *fiber.Ctx) error {
	user, err := h.auth.Me(c.UserContext(), auth.IdentityFromContext(c))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewUserResponse(user)})
}
