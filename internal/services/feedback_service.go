package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/starcast/talenthub/internal/dto"
	"github.com/starcast/talenthub/internal/models"
	"github.com/starcast/talenthub/internal/realtime"
	"github.com/starcast/talenthub/internal/validation"
	"gorm.io/gorm"
)

var (
	ErrVideoNotFound    = errors.New("video not found")
	ErrFeedbackNotFound = errors.New("feedback not found")
)

const (
	videosTable      = "feedback_videos"
	feedbackTable    = "video_feedback"
	maxCommentLength = 2000
	maxRating        = 5
)

type FeedbackService struct {
	db        *gorm.DB
	filter    *ContentFilter
	publisher realtime.Publisher
}

func NewFeedbackService(db *gorm.DB, filter *ContentFilter, pub realtime.Publisher) *FeedbackService {
	if pub == nil {
		pub = realtime.Nop{}
	}
	return &FeedbackService{db: db, filter: filter, publisher: pub}
}

func (s *FeedbackService) CreateVideo(ctx context.Context, adminID uuid.UUID, req *dto.CreateVideoRequest) (*models.FeedbackVideo, error) {
	video := models.FeedbackVideo{
		Title:        strings.TrimSpace(req.Title),
		Description:  strings.TrimSpace(req.Description),
		VideoURL:     strings.TrimSpace(req.VideoURL),
		ThumbnailURL: strings.TrimSpace(req.ThumbnailURL),
		IsActive:     req.IsActive == nil || *req.IsActive,
		DisplayOrder: req.DisplayOrder,
		CreatedBy:    &adminID,
	}
	if err := s.db.WithContext(ctx).Create(&video).Error; err != nil {
		return nil, fmt.Errorf("failed to create video: %w", err)
	}

	s.publisher.Publish(videosTable, realtime.ActionInsert, video.ID)
	return &video, nil
}

func (s *FeedbackService) GetVideo(ctx context.Context, id uuid.UUID) (*models.FeedbackVideo, error) {
	var video models.FeedbackVideo
	if err := s.db.WithContext(ctx).First(&video, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrVideoNotFound
		}
		return nil, err
	}
	return &video, nil
}

func (s *FeedbackService) UpdateVideo(ctx context.Context, id uuid.UUID, req *dto.UpdateVideoRequest) (*models.FeedbackVideo, error) {
	video, err := s.GetVideo(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Title != nil {
		video.Title = strings.TrimSpace(*req.Title)
	}
	if req.Description != nil {
		video.Description = strings.TrimSpace(*req.Description)
	}
	if req.VideoURL != nil {
		video.VideoURL = strings.TrimSpace(*req.VideoURL)
	}
	if req.ThumbnailURL != nil {
		video.ThumbnailURL = strings.TrimSpace(*req.ThumbnailURL)
	}
	if req.IsActive != nil {
		video.IsActive = *req.IsActive
	}
	if req.DisplayOrder != nil {
		video.DisplayOrder = *req.DisplayOrder
	}

	if err := s.db.WithContext(ctx).Save(video).Error; err != nil {
		return nil, fmt.Errorf("failed to update video: %w", err)
	}
	s.publisher.Publish(videosTable, realtime.ActionUpdate, video.ID)
	return video, nil
}

// DeleteVideo removes the video and every feedback left on it.
func (s *FeedbackService) DeleteVideo(ctx context.Context, id uuid.UUID) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("video_id = ?", id).Delete(&models.VideoFeedback{}).Error; err != nil {
			return err
		}
		result := tx.Delete(&models.FeedbackVideo{}, "id = ?", id)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrVideoNotFound
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.publisher.Publish(videosTable, realtime.ActionDelete, id)
	return nil
}

func (s *FeedbackService) ListVideos(ctx context.Context) ([]models.FeedbackVideo, error) {
	videos := []models.FeedbackVideo{}
	if err := s.db.WithContext(ctx).Order("display_order ASC, created_at DESC").Find(&videos).Error; err != nil {
		return nil, fmt.Errorf("failed to list videos: %w", err)
	}
	return videos, nil
}

// ListActiveVideos returns active videos with the caller's feedback attached.
func (s *FeedbackService) ListActiveVideos(ctx context.Context, userID uuid.UUID) ([]dto.VideoWithFeedback, error) {
	var videos []models.FeedbackVideo
	if err := s.db.WithContext(ctx).Where("is_active = ?", true).
		Order("display_order ASC, created_at DESC").Find(&videos).Error; err != nil {
		return nil, fmt.Errorf("failed to list videos: %w", err)
	}

	var mine []models.VideoFeedback
	if err := s.db.WithContext(ctx).Where("user_id = ?", userID).Find(&mine).Error; err != nil {
		return nil, fmt.Errorf("failed to load feedback: %w", err)
	}
	byVideo := make(map[uuid.UUID]*models.VideoFeedback, len(mine))
	for i := range mine {
		byVideo[mine[i].VideoID] = &mine[i]
	}

	result := make([]dto.VideoWithFeedback, len(videos))
	for i, v := range videos {
		result[i] = dto.VideoWithFeedback{FeedbackVideo: v, MyFeedback: byVideo[v.ID]}
	}
	return result, nil
}

// SubmitFeedback creates or replaces the caller's feedback on an active video.
func (s *FeedbackService) SubmitFeedback(ctx context.Context, userID, videoID uuid.UUID, req *dto.FeedbackRequest) (*models.VideoFeedback, error) {
	comment := strings.TrimSpace(req.Comment)
	if comment == "" {
		return nil, validation.NewError("comment", "is required")
	}
	if utf8.RuneCountInString(comment) > maxCommentLength {
		return nil, validation.NewError("comment", fmt.Sprintf("must be at most %d characters", maxCommentLength))
	}
	if req.Rating < 0 || req.Rating > maxRating {
		return nil, validation.NewError("rating", fmt.Sprintf("must be between 0 and %d", maxRating))
	}
	if ok, reason := s.filter.CheckComment(comment); !ok {
		return nil, rejected(reason)
	}

	video, err := s.GetVideo(ctx, videoID)
	if err != nil {
		return nil, err
	}
	if !video.IsActive {
		return nil, ErrVideoNotFound
	}

	var feedback models.VideoFeedback
	action := realtime.ActionUpdate
	err = s.db.WithContext(ctx).Where("video_id = ? AND user_id = ?", videoID, userID).First(&feedback).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		action = realtime.ActionInsert
		feedback = models.VideoFeedback{VideoID: videoID, UserID: userID, Comment: comment, Rating: req.Rating}
		err = s.db.WithContext(ctx).Create(&feedback).Error
	case err == nil:
		feedback.Comment = comment
		feedback.Rating = req.Rating
		err = s.db.WithContext(ctx).Save(&feedback).Error
	}
	if err != nil {
		return nil, fmt.Errorf("failed to save feedback: %w", err)
	}

	s.publisher.Publish(feedbackTable, action, feedback.ID)
	return &feedback, nil
}

func (s *FeedbackService) DeleteMyFeedback(ctx context.Context, userID, videoID uuid.UUID) error {
	var feedback models.VideoFeedback
	if err := s.db.WithContext(ctx).Where("video_id = ? AND user_id = ?", videoID, userID).First(&feedback).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrFeedbackNotFound
		}
		return err
	}
	if err := s.db.WithContext(ctx).Delete(&feedback).Error; err != nil {
		return fmt.Errorf("failed to delete feedback: %w", err)
	}

	s.publisher.Publish(feedbackTable, realtime.ActionDelete, feedback.ID)
	return nil
}

// ListFeedback returns feedback with author details, optionally for one video.
func (s *FeedbackService) ListFeedback(ctx context.Context, videoID *uuid.UUID, page dto.Page) (*dto.ListResponse[dto.FeedbackResponse], error) {
	query := s.db.WithContext(ctx).Model(&models.VideoFeedback{})
	if videoID != nil {
		query = query.Where("video_id = ?", *videoID)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, fmt.Errorf("failed to count feedback: %w", err)
	}

	var rows []models.VideoFeedback
	if err := query.Preload("User").Order("created_at DESC").Limit(page.Limit).Offset(page.Offset).Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to list feedback: %w", err)
	}

	items := make([]dto.FeedbackResponse, len(rows))
	for i := range rows {
		items[i] = dto.NewFeedbackResponse(&rows[i])
	}
	return dto.NewListResponse(items, total, page), nil
}
