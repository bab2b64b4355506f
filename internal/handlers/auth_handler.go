package handlers

import (
	"context"

	"github.com/gofiber/fiber/v2"
	"github.com/starcast/talenthub/internal/dto"
	"github.com/starcast/talenthub/internal/identity"
	"github.com/starcast/talenthub/internal/services"
	"github.com/starcast/talenthub/internal/validation"
)

// registrationGate reports whether self sign-up is currently allowed.
type registrationGate interface {
	Public(ctx context.Context) (map[string]interface{}, error)
}

type AuthHandler struct {
	authService *services.AuthService
	settings    registrationGate
	validator   *validation.Validator
}

func NewAuthHandler(authService *services.AuthService, settings registrationGate, v *validation.Validator) *AuthHandler {
	return &AuthHandler{authService: authService, settings: settings, validator: v}
}

func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var req dto.RegisterRequest
	if err := bindJSON(c, h.validator, &req); err != nil {
		return respondError(c, err)
	}

	if h.settings != nil {
		settings, err := h.settings.Public(c.UserContext())
		if err != nil {
			return respondError(c, err)
		}
		if open, ok := settings["registration_open"].(bool); ok && !open {
			return c.Status(fiber.StatusForbidden).JSON(dto.ErrorResponse{
				Error: true, Message: "Registration is currently closed",
			})
		}
	}

	resp, err := h.authService.Register(&req)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(resp)
}

func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req dto.LoginRequest
	if err := bindJSON(c, h.validator, &req); err != nil {
		return respondError(c, err)
	}

	resp, err := h.authService.Login(&req)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(resp)
}

func (h *AuthHandler) Refresh(c *fiber.Ctx) error {
	var req dto.RefreshRequest
	if err := bindJSON(c, h.validator, &req); err != nil {
		return respondError(c, err)
	}

	resp, err := h.authService.Refresh(&req)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(resp)
}

func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	var req dto.LogoutRequest
	if err := bindJSON(c, h.validator, &req); err != nil {
		return respondError(c, err)
	}

	if err := h.authService.Logout(&req); err != nil {
		return respondError(c, err)
	}
	return c.JSON(dto.MessageResponse{Message: "Logged out successfully"})
}

func (h *AuthHandler) Me(c *fiber.Ctx) error {
	userID, err := identity.GetUserID(c)
	if err != nil {
		return respondError(c, err)
	}

	user, err := h.authService.Me(userID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(user)
}

// ChangePassword returns a fresh token pair; every other session is revoked.
func (h *AuthHandler) ChangePassword(c *fiber.Ctx) error {
	userID, err := identity.GetUserID(c)
	if err != nil {
		return respondError(c, err)
	}

	var req dto.ChangePasswordRequest
	if err := bindJSON(c, h.validator, &req); err != nil {
		return respondError(c, err)
	}

	resp, err := h.authService.ChangePassword(userID, &req)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(resp)
}
