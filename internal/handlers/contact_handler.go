package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/starcast/talenthub/internal/dto"
	"github.com/starcast/talenthub/internal/models"
	"github.com/starcast/talenthub/internal/services"
	"github.com/starcast/talenthub/internal/validation"
)

type ContactHandler struct {
	contactService *services.ContactService
	validator      *validation.Validator
}

func NewContactHandler(contactService *services.ContactService, v *validation.Validator) *ContactHandler {
	return &ContactHandler{contactService: contactService, validator: v}
}

func (h *ContactHandler) Submit(c *fiber.Ctx) error {
	var req dto.ContactRequest
	if err := bindJSON(c, h.validator, &req); err != nil {
		return respondError(c, err)
	}

	if _, err := h.contactService.Submit(c.UserContext(), &req); err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.MessageResponse{
		Message: "Thanks for reaching out. We will get back to you soon.",
	})
}

func (h *ContactHandler) List(c *fiber.Ctx) error {
	status := c.Query("status")
	if status != "" && !models.ValidContactStatus(status) {
		return respondError(c, validation.NewError("status", "must be one of: new, read, archived"))
	}

	list, err := h.contactService.List(c.UserContext(), status, queryPage(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(list)
}

func (h *ContactHandler) SetStatus(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	var req dto.ContactStatusRequest
	if err := bindJSON(c, h.validator, &req); err != nil {
		return respondError(c, err)
	}

	sub, err := h.contactService.SetStatus(c.UserContext(), id, req.Status)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(sub)
}

func (h *ContactHandler) Delete(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	if err := h.contactService.Delete(c.UserContext(), id); err != nil {
		return respondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}
