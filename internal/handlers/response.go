package handlers

import (
	"errors"
	"log/slog"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/starcast/talenthub/internal/dto"
	"github.com/starcast/talenthub/internal/identity"
	"github.com/starcast/talenthub/internal/imaging"
	"github.com/starcast/talenthub/internal/services"
	"github.com/starcast/talenthub/internal/validation"
)

var (
	errInvalidBody = errors.New("invalid request body")
	errInvalidID   = errors.New("invalid id")
)

// errorStatuses maps service errors to HTTP status codes. Anything not listed
// is a 500.
var errorStatuses = []struct {
	err    error
	status int
}{
	{errInvalidBody, fiber.StatusBadRequest},
	{errInvalidID, fiber.StatusBadRequest},
	{identity.ErrNoIdentity, fiber.StatusUnauthorized},

	{services.ErrEmailTaken, fiber.StatusConflict},
	{services.ErrInvalidCredentials, fiber.StatusUnauthorized},
	{services.ErrInvalidToken, fiber.StatusUnauthorized},
	{services.ErrInvalidAccessToken, fiber.StatusUnauthorized},
	{services.ErrUserNotFound, fiber.StatusNotFound},
	{services.ErrWeakPassword, fiber.StatusBadRequest},
	{services.ErrWrongPassword, fiber.StatusBadRequest},

	{services.ErrFormFieldNotFound, fiber.StatusNotFound},
	{services.ErrProfileNotFound, fiber.StatusNotFound},
	{services.ErrProfileExists, fiber.StatusConflict},
	{services.ErrProfileNotDeleted, fiber.StatusConflict},
	{services.ErrNotFileField, fiber.StatusBadRequest},
	{services.ErrUnsupportedFile, fiber.StatusUnsupportedMediaType},
	{imaging.ErrUnsupportedImage, fiber.StatusUnsupportedMediaType},

	{services.ErrContentRejected, fiber.StatusBadRequest},
	{services.ErrContactNotFound, fiber.StatusNotFound},
	{services.ErrVideoNotFound, fiber.StatusNotFound},
	{services.ErrFeedbackNotFound, fiber.StatusNotFound},

	{services.ErrSelfRoleChange, fiber.StatusBadRequest},
	{services.ErrSelfDelete, fiber.StatusBadRequest},
	{services.ErrInvalidRole, fiber.StatusBadRequest},
	{services.ErrSuperAdminRequired, fiber.StatusForbidden},
	{services.ErrLastSuperAdmin, fiber.StatusConflict},
	{services.ErrSettingNotFound, fiber.StatusNotFound},
}

func respondError(c *fiber.Ctx, err error) error {
	if ve, ok := validation.AsError(err); ok {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ValidationErrorResponse{
			Error: true, Message: "Validation failed", Fields: ve.Fields,
		})
	}
	for _, e := range errorStatuses {
		if errors.Is(err, e.err) {
			return c.Status(e.status).JSON(dto.ErrorResponse{
				Error: true, Message: err.Error(),
			})
		}
	}

	slog.Error("request failed", "method", c.Method(), "path", c.Path(), "error", err)
	return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
		Error: true, Message: "Internal server error",
	})
}

// bindJSON parses the body into dst and runs struct validation.
func bindJSON(c *fiber.Ctx, v *validation.Validator, dst interface{}) error {
	if err := c.BodyParser(dst); err != nil {
		return errInvalidBody
	}
	return v.Struct(dst)
}

func paramID(c *fiber.Ctx, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Params(name))
	if err != nil {
		return uuid.Nil, errInvalidID
	}
	return id, nil
}

func queryPage(c *fiber.Ctx) dto.Page {
	return dto.NewPage(c.QueryInt("limit", dto.DefaultPageLimit), c.QueryInt("offset", 0))
}

// queryBool returns nil when the parameter is absent or not a boolean.
func queryBool(c *fiber.Ctx, key string) *bool {
	raw := c.Query(key)
	if raw == "" {
		return nil
	}
	b, err := strconv.ParseBool(raw)
	if err != nil {
		return nil
	}
	return &b
}

func queryUUID(c *fiber.Ctx, key string) (*uuid.UUID, error) {
	raw := c.Query(key)
	if raw == "" {
		return nil, nil
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return nil, validation.NewError(key, "must be a valid UUID")
	}
	return &id, nil
}
