package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/starcast/talenthub/internal/dto"
	"github.com/starcast/talenthub/internal/identity"
	"github.com/starcast/talenthub/internal/models"
	"github.com/starcast/talenthub/internal/services"
	"github.com/starcast/talenthub/internal/validation"
)

type UserHandler struct {
	userService *services.UserAdminService
	validator   *validation.Validator
}

func NewUserHandler(userService *services.UserAdminService, v *validation.Validator) *UserHandler {
	return &UserHandler{userService: userService, validator: v}
}

func (h *UserHandler) List(c *fiber.Ctx) error {
	role := c.Query("role")
	if role != "" && !models.ValidRole(role) {
		return respondError(c, validation.NewError("role", "must be one of: user, admin, super_admin"))
	}

	list, err := h.userService.List(c.UserContext(), dto.UserQuery{
		Role:   role,
		Search: c.Query("search"),
		Page:   queryPage(c),
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(list)
}

func (h *UserHandler) SetRole(c *fiber.Ctx) error {
	actorID, targetID, err := actorAndTarget(c)
	if err != nil {
		return respondError(c, err)
	}
	var req dto.SetRoleRequest
	if err := bindJSON(c, h.validator, &req); err != nil {
		return respondError(c, err)
	}

	user, err := h.userService.SetRole(c.UserContext(), actorID, targetID, req.Role)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(user)
}

// ResetPassword returns the temporary password once; it is not stored.
func (h *UserHandler) ResetPassword(c *fiber.Ctx) error {
	actorID, targetID, err := actorAndTarget(c)
	if err != nil {
		return respondError(c, err)
	}

	temp, err := h.userService.ResetPassword(c.UserContext(), actorID, targetID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(dto.ResetPasswordResponse{TemporaryPassword: temp})
}

func (h *UserHandler) SetPassword(c *fiber.Ctx) error {
	actorID, targetID, err := actorAndTarget(c)
	if err != nil {
		return respondError(c, err)
	}
	var req dto.SetPasswordRequest
	if err := bindJSON(c, h.validator, &req); err != nil {
		return respondError(c, err)
	}

	if err := h.userService.SetPassword(c.UserContext(), actorID, targetID, req.Password); err != nil {
		return respondError(c, err)
	}
	return c.JSON(dto.MessageResponse{Message: "Password updated"})
}

func (h *UserHandler) Delete(c *fiber.Ctx) error {
	actorID, targetID, err := actorAndTarget(c)
	if err != nil {
		return respondError(c, err)
	}
	if err := h.userService.Delete(c.UserContext(), actorID, targetID); err != nil {
		return respondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (h *UserHandler) ListLogs(c *fiber.Ctx) error {
	adminID, err := queryUUID(c, "admin_id")
	if err != nil {
		return respondError(c, err)
	}
	targetID, err := queryUUID(c, "target_id")
	if err != nil {
		return respondError(c, err)
	}

	logs, err := h.userService.ListAdminLogs(c.UserContext(), dto.AdminLogQuery{
		AdminID:  adminID,
		TargetID: targetID,
		Page:     queryPage(c),
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(logs)
}

func (h *UserHandler) Stats(c *fiber.Ctx) error {
	stats, err := h.userService.Stats(c.UserContext())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(stats)
}

func actorAndTarget(c *fiber.Ctx) (uuid.UUID, uuid.UUID, error) {
	actorID, err := identity.GetUserID(c)
	if err != nil {
		return uuid.Nil, uuid.Nil, err
	}
	targetID, err := paramID(c, "id")
	if err != nil {
		return uuid.Nil, uuid.Nil, err
	}
	return actorID, targetID, nil
}
