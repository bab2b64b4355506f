package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/starcast/talenthub/internal/dto"
	"github.com/starcast/talenthub/internal/services"
	"github.com/starcast/talenthub/internal/validation"
)

type SettingsHandler struct {
	settingsService *services.SettingsService
	validator       *validation.Validator
}

func NewSettingsHandler(settingsService *services.SettingsService, v *validation.Validator) *SettingsHandler {
	return &SettingsHandler{settingsService: settingsService, validator: v}
}

// GetPublic returns every site setting decoded to its declared type.
func (h *SettingsHandler) GetPublic(c *fiber.Ctx) error {
	settings, err := h.settingsService.Public(c.UserContext())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(settings)
}

func (h *SettingsHandler) Set(c *fiber.Ctx) error {
	var req dto.SetSettingRequest
	if err := bindJSON(c, h.validator, &req); err != nil {
		return respondError(c, err)
	}

	setting, err := h.settingsService.Set(c.UserContext(), c.Params("key"), req.Value, req.Type)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(setting)
}

func (h *SettingsHandler) Delete(c *fiber.Ctx) error {
	if err := h.settingsService.Delete(c.UserContext(), c.Params("key")); err != nil {
		return respondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}
