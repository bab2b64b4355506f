package dto

import (
	"time"

	"github.com/google/uuid"
	"github.com/starcast/talenthub/internal/models"
)

type CreateVideoRequest struct {
	Title        string `json:"title" validate:"required,max=255"`
	Description  string `json:"description" validate:"omitempty,max=5000"`
	VideoURL     string `json:"video_url" validate:"required,url"`
	ThumbnailURL string `json:"thumbnail_url" validate:"omitempty,url"`
	IsActive     *bool  `json:"is_active"`
	DisplayOrder int    `json:"display_order" validate:"min=0"`
}

type UpdateVideoRequest struct {
	Title        *string `json:"title" validate:"omitempty,min=1,max=255"`
	Description  *string `json:"description" validate:"omitempty,max=5000"`
	VideoURL     *string `json:"video_url" validate:"omitempty,url"`
	ThumbnailURL *string `json:"thumbnail_url" validate:"omitempty,url"`
	IsActive     *bool   `json:"is_active"`
	DisplayOrder *int    `json:"display_order" validate:"omitempty,min=0"`
}

type FeedbackRequest struct {
	Comment string `json:"comment" validate:"required,max=2000"`
	Rating  int    `json:"rating" validate:"min=0,max=5"`
}

// VideoWithFeedback is an active video with the caller's own feedback, if any.
type VideoWithFeedback struct {
	models.FeedbackVideo
	MyFeedback *models.VideoFeedback `json:"my_feedback"`
}

type FeedbackResponse struct {
	ID        uuid.UUID `json:"id"`
	VideoID   uuid.UUID `json:"video_id"`
	UserID    uuid.UUID `json:"user_id"`
	UserName  string    `json:"user_name"`
	UserEmail string    `json:"user_email"`
	Comment   string    `json:"comment"`
	Rating    int       `json:"rating"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func NewFeedbackResponse(f *models.VideoFeedback) FeedbackResponse {
	resp := FeedbackResponse{
		ID:        f.ID,
		VideoID:   f.VideoID,
		UserID:    f.UserID,
		Comment:   f.Comment,
		Rating:    f.Rating,
		CreatedAt: f.CreatedAt,
		UpdatedAt: f.UpdatedAt,
	}
	if f.User != nil {
		resp.UserName = f.User.Name
		resp.UserEmail = f.User.Email
	}
	return resp
}
