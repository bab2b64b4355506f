package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/starcast/talenthub/internal/dto"
	"github.com/starcast/talenthub/internal/services"
	"github.com/starcast/talenthub/internal/validation"
)

type FormFieldHandler struct {
	schema    *services.FormSchemaService
	validator *validation.Validator
}

func NewFormFieldHandler(schema *services.FormSchemaService, v *validation.Validator) *FormFieldHandler {
	return &FormFieldHandler{schema: schema, validator: v}
}

// ListActive returns the schema the registration form is rendered from.
func (h *FormFieldHandler) ListActive(c *fiber.Ctx) error {
	fields, err := h.schema.List(c.UserContext(), true)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fields)
}

func (h *FormFieldHandler) ListAll(c *fiber.Ctx) error {
	fields, err := h.schema.List(c.UserContext(), false)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fields)
}

func (h *FormFieldHandler) Get(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	field, err := h.schema.Get(c.UserContext(), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(field)
}

func (h *FormFieldHandler) Create(c *fiber.Ctx) error {
	var req dto.CreateFormFieldRequest
	if err := bindJSON(c, h.validator, &req); err != nil {
		return respondError(c, err)
	}

	field, err := h.schema.Create(c.UserContext(), &req)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(field)
}

func (h *FormFieldHandler) Update(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	var req dto.UpdateFormFieldRequest
	if err := bindJSON(c, h.validator, &req); err != nil {
		return respondError(c, err)
	}

	field, err := h.schema.Update(c.UserContext(), id, &req)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(field)
}

func (h *FormFieldHandler) Reorder(c *fiber.Ctx) error {
	var req dto.ReorderFormFieldsRequest
	if err := bindJSON(c, h.validator, &req); err != nil {
		return respondError(c, err)
	}

	if err := h.schema.Reorder(c.UserContext(), req.IDs); err != nil {
		return respondError(c, err)
	}
	fields, err := h.schema.List(c.UserContext(), false)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fields)
}

func (h *FormFieldHandler) Delete(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	if err := h.schema.Delete(c.UserContext(), id); err != nil {
		return respondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}
