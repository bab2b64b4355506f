package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/starcast/talenthub/internal/dto"
	"github.com/starcast/talenthub/internal/identity"
	"github.com/starcast/talenthub/internal/services"
	"github.com/starcast/talenthub/internal/validation"
)

type FeedbackHandler struct {
	feedbackService *services.FeedbackService
	validator       *validation.Validator
}

func NewFeedbackHandler(feedbackService *services.FeedbackService, v *validation.Validator) *FeedbackHandler {
	return &FeedbackHandler{feedbackService: feedbackService, validator: v}
}

// ListActive returns active videos with the caller's own feedback attached.
func (h *FeedbackHandler) ListActive(c *fiber.Ctx) error {
	userID, err := identity.GetUserID(c)
	if err != nil {
		return respondError(c, err)
	}
	videos, err := h.feedbackService.ListActiveVideos(c.UserContext(), userID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(videos)
}

func (h *FeedbackHandler) Submit(c *fiber.Ctx) error {
	userID, err := identity.GetUserID(c)
	if err != nil {
		return respondError(c, err)
	}
	videoID, err := paramID(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	var req dto.FeedbackRequest
	if err := bindJSON(c, h.validator, &req); err != nil {
		return respondError(c, err)
	}

	feedback, err := h.feedbackService.SubmitFeedback(c.UserContext(), userID, videoID, &req)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(feedback)
}

func (h *FeedbackHandler) DeleteMine(c *fiber.Ctx) error {
	userID, err := identity.GetUserID(c)
	if err != nil {
		return respondError(c, err)
	}
	videoID, err := paramID(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	if err := h.feedbackService.DeleteMyFeedback(c.UserContext(), userID, videoID); err != nil {
		return respondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (h *FeedbackHandler) ListVideos(c *fiber.Ctx) error {
	videos, err := h.feedbackService.ListVideos(c.UserContext())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(videos)
}

func (h *FeedbackHandler) GetVideo(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	video, err := h.feedbackService.GetVideo(c.UserContext(), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(video)
}

func (h *FeedbackHandler) CreateVideo(c *fiber.Ctx) error {
	adminID, err := identity.GetUserID(c)
	if err != nil {
		return respondError(c, err)
	}
	var req dto.CreateVideoRequest
	if err := bindJSON(c, h.validator, &req); err != nil {
		return respondError(c, err)
	}

	video, err := h.feedbackService.CreateVideo(c.UserContext(), adminID, &req)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(video)
}

func (h *FeedbackHandler) UpdateVideo(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	var req dto.UpdateVideoRequest
	if err := bindJSON(c, h.validator, &req); err != nil {
		return respondError(c, err)
	}

	video, err := h.feedbackService.UpdateVideo(c.UserContext(), id, &req)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(video)
}

func (h *FeedbackHandler) DeleteVideo(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	if err := h.feedbackService.DeleteVideo(c.UserContext(), id); err != nil {
		return respondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// ListFeedback returns feedback across videos, or for one with ?video_id=.
func (h *FeedbackHandler) ListFeedback(c *fiber.Ctx) error {
	videoID, err := queryUUID(c, "video_id")
	if err != nil {
		return respondError(c, err)
	}
	list, err := h.feedbackService.ListFeedback(c.UserContext(), videoID, queryPage(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(list)
}
