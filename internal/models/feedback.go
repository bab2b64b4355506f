package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// FeedbackVideo is an admin-curated review video that users comment on.
type FeedbackVideo struct {
	ID           uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	Title        string     `gorm:"size:255;not null" json:"title"`
	Description  string     `gorm:"type:text" json:"description"`
	VideoURL     string     `gorm:"type:text;not null" json:"video_url"`
	ThumbnailURL string     `gorm:"type:text" json:"thumbnail_url"`
	IsActive     bool       `gorm:"not null;index" json:"is_active"`
	DisplayOrder int        `gorm:"default:0" json:"display_order"`
	CreatedBy    *uuid.UUID `gorm:"type:uuid" json:"created_by"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

func (v *FeedbackVideo) BeforeCreate(tx *gorm.DB) error {
	if v.ID == uuid.Nil {
		v.ID = uuid.New()
	}
	return nil
}

// VideoFeedback is one user's comment on a FeedbackVideo. A user has at most
// one feedback per video.
type VideoFeedback struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	VideoID   uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_video_feedback_video_user,priority:1" json:"video_id"`
	UserID    uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_video_feedback_video_user,priority:2;index" json:"user_id"`
	Comment   string    `gorm:"type:text;not null" json:"comment"`
	Rating    int       `gorm:"default:0" json:"rating"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	User      *User     `gorm:"foreignKey:UserID" json:"user,omitempty"`
}

func (f *VideoFeedback) BeforeCreate(tx *gorm.DB) error {
	if f.ID == uuid.Nil {
		f.ID = uuid.New()
	}
	return nil
}

func (VideoFeedback) TableName() string {
	return "video_feedback"
}
