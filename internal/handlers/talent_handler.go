package handlers

import (
	"context"
	"fmt"
	"mime/multipart"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/starcast/talenthub/internal/dto"
	"github.com/starcast/talenthub/internal/identity"
	"github.com/starcast/talenthub/internal/imaging"
	"github.com/starcast/talenthub/internal/models"
	"github.com/starcast/talenthub/internal/services"
	"github.com/starcast/talenthub/internal/validation"
)

type TalentHandler struct {
	talentService  *services.TalentService
	validator      *validation.Validator
	maxUploadBytes int64
}

func NewTalentHandler(talentService *services.TalentService, v *validation.Validator, maxUploadMB int) *TalentHandler {
	return &TalentHandler{
		talentService:  talentService,
		validator:      v,
		maxUploadBytes: int64(maxUploadMB) << 20,
	}
}

func (h *TalentHandler) ListPublic(c *fiber.Ctx) error {
	q, err := talentQuery(c)
	if err != nil {
		return respondError(c, err)
	}
	list, err := h.talentService.ListPublic(c.UserContext(), q)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(list)
}

func (h *TalentHandler) GetPublic(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	profile, err := h.talentService.GetPublic(c.UserContext(), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(profile)
}

func (h *TalentHandler) RegisterMine(c *fiber.Ctx) error {
	userID, err := identity.GetUserID(c)
	if err != nil {
		return respondError(c, err)
	}
	var req dto.TalentProfileRequest
	if err := bindJSON(c, h.validator, &req); err != nil {
		return respondError(c, err)
	}

	profile, err := h.talentService.Register(c.UserContext(), userID, &req)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(profile)
}

func (h *TalentHandler) GetMine(c *fiber.Ctx) error {
	userID, err := identity.GetUserID(c)
	if err != nil {
		return respondError(c, err)
	}
	profile, err := h.talentService.GetMine(c.UserContext(), userID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(profile)
}

func (h *TalentHandler) UpdateMine(c *fiber.Ctx) error {
	userID, err := identity.GetUserID(c)
	if err != nil {
		return respondError(c, err)
	}
	var req dto.TalentProfileRequest
	if err := bindJSON(c, h.validator, &req); err != nil {
		return respondError(c, err)
	}

	profile, err := h.talentService.UpdateMine(c.UserContext(), userID, &req)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(profile)
}

func (h *TalentHandler) UploadMyPhoto(c *fiber.Ctx) error {
	userID, err := identity.GetUserID(c)
	if err != nil {
		return respondError(c, err)
	}
	file, box, err := h.photoUpload(c)
	if err != nil {
		return respondError(c, err)
	}
	if file == nil {
		return h.tooLarge(c)
	}

	reader, err := file.Open()
	if err != nil {
		return respondError(c, err)
	}
	defer reader.Close()

	profile, err := h.talentService.UploadMyPhoto(c.UserContext(), userID, file.Filename, reader, box)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(profile)
}

// UploadCustomFile stores a file for a file-type form field. The returned URL
// goes into custom_fields on the next profile save.
func (h *TalentHandler) UploadCustomFile(c *fiber.Ctx) error {
	file, err := c.FormFile("file")
	if err != nil {
		return respondError(c, validation.NewError("file", "is required"))
	}
	if file.Size > h.maxUploadBytes {
		return h.tooLarge(c)
	}

	reader, err := file.Open()
	if err != nil {
		return respondError(c, err)
	}
	defer reader.Close()

	url, err := h.talentService.UploadCustomFile(c.UserContext(), c.Params("key"), file.Filename, reader)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.UploadResponse{URL: url})
}

func (h *TalentHandler) AdminList(c *fiber.Ctx) error {
	base, err := talentQuery(c)
	if err != nil {
		return respondError(c, err)
	}
	q := dto.AdminTalentQuery{
		TalentQuery:    base,
		IncludeHidden:  c.QueryBool("include_hidden", true),
		IncludeDeleted: c.QueryBool("include_deleted", false),
		Internal:       queryBool(c, "internal"),
	}

	list, err := h.talentService.AdminList(c.UserContext(), q)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(list)
}

func (h *TalentHandler) AdminGet(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	profile, err := h.talentService.Get(c.UserContext(), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(profile)
}

func (h *TalentHandler) AdminCreate(c *fiber.Ctx) error {
	var req dto.TalentProfileRequest
	if err := bindJSON(c, h.validator, &req); err != nil {
		return respondError(c, err)
	}

	profile, err := h.talentService.CreateInternal(c.UserContext(), &req)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(profile)
}

func (h *TalentHandler) AdminUpdate(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	var req dto.TalentProfileRequest
	if err := bindJSON(c, h.validator, &req); err != nil {
		return respondError(c, err)
	}

	profile, err := h.talentService.AdminUpdate(c.UserContext(), id, &req)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(profile)
}

func (h *TalentHandler) SetHidden(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	var req dto.SetHiddenRequest
	if err := bindJSON(c, h.validator, &req); err != nil {
		return respondError(c, err)
	}

	profile, err := h.talentService.SetHidden(c.UserContext(), id, *req.Hidden)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(profile)
}

func (h *TalentHandler) SoftDelete(c *fiber.Ctx) error {
	return h.transition(c, h.talentService.SoftDelete)
}

func (h *TalentHandler) Restore(c *fiber.Ctx) error {
	return h.transition(c, h.talentService.Restore)
}

func (h *TalentHandler) Purge(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	if err := h.talentService.Purge(c.UserContext(), id); err != nil {
		return respondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (h *TalentHandler) AdminUploadPhoto(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	file, box, err := h.photoUpload(c)
	if err != nil {
		return respondError(c, err)
	}
	if file == nil {
		return h.tooLarge(c)
	}

	reader, err := file.Open()
	if err != nil {
		return respondError(c, err)
	}
	defer reader.Close()

	profile, err := h.talentService.UploadPhoto(c.UserContext(), id, file.Filename, reader, box)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(profile)
}

func (h *TalentHandler) transition(c *fiber.Ctx, apply func(context.Context, uuid.UUID) (*models.TalentProfile, error)) error {
	id, err := paramID(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	profile, err := apply(c.UserContext(), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(profile)
}

func (h *TalentHandler) tooLarge(c *fiber.Ctx) error {
	return c.Status(fiber.StatusRequestEntityTooLarge).JSON(dto.ErrorResponse{
		Error:   true,
		Message: fmt.Sprintf("File exceeds the %d MB upload limit", h.maxUploadBytes>>20),
	})
}

// photoUpload reads the "photo" form file and the optional face box. A nil
// file with a nil error means the upload is over the size limit.
func (h *TalentHandler) photoUpload(c *fiber.Ctx) (*multipart.FileHeader, *imaging.Box, error) {
	file, err := c.FormFile("photo")
	if err != nil {
		return nil, nil, validation.NewError("photo", "is required")
	}
	if file.Size > h.maxUploadBytes {
		return nil, nil, nil
	}

	box, err := formBox(c)
	if err != nil {
		return nil, nil, err
	}
	return file, box, nil
}

// formBox parses box_x, box_y, box_width and box_height. All four are
// optional but must be integers when present; without a size the photo is
// centre-cropped.
func formBox(c *fiber.Ctx) (*imaging.Box, error) {
	names := []string{"box_x", "box_y", "box_width", "box_height"}
	values := make([]int, len(names))
	present := false
	for i, name := range names {
		raw := c.FormValue(name)
		if raw == "" {
			continue
		}
		n, err := strconv.Atoi(raw)
		if err != nil {
			return nil, validation.NewError(name, "must be an integer")
		}
		values[i] = n
		present = true
	}
	if !present {
		return nil, nil
	}
	return &imaging.Box{X: values[0], Y: values[1], Width: values[2], Height: values[3]}, nil
}

func talentQuery(c *fiber.Ctx) (dto.TalentQuery, error) {
	q := dto.TalentQuery{
		Category: c.Query("category"),
		City:     c.Query("city"),
		Gender:   c.Query("gender"),
		Search:   c.Query("search"),
		MinAge:   c.QueryInt("min_age", 0),
		MaxAge:   c.QueryInt("max_age", 0),
		Page:     queryPage(c),
	}
	if q.Category != "" && !models.ValidCategory(q.Category) {
		return q, validation.NewError("category", "must be a valid talent category")
	}
	if q.MinAge < 0 || q.MaxAge < 0 {
		return q, validation.NewError("min_age", "must not be negative")
	}
	if q.MaxAge > 0 && q.MinAge > q.MaxAge {
		return q, validation.NewError("max_age", "must be at least min_age")
	}
	return q, nil
}
