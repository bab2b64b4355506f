package services

import (
	"context"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/starcast/talenthub/internal/dto"
	"github.com/starcast/talenthub/internal/models"
	"github.com/starcast/talenthub/internal/testutil"
	"github.com/starcast/talenthub/internal/validation"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFeedbackService_VideoLifecycle(t *testing.T) {
	db := testutil.NewDB(t)
	pub := &recordingPublisher{}
	svc := NewFeedbackService(db, NewContentFilter(), pub)
	ctx := context.Background()
	admin := createUser(t, db, "admin@x.io", models.RoleAdmin)

	video, err := svc.CreateVideo(ctx, admin.ID, &dto.CreateVideoRequest{
		Title: " Showreel ", VideoURL: "https://cdn.x.io/v.mp4", IsActive: ptr(false),
	})
	require.NoError(t, err)
	assert.Equal(t, "Showreel", video.Title)
	assert.False(t, video.IsActive)
	assert.Equal(t, admin.ID, *video.CreatedBy)

	updated, err := svc.UpdateVideo(ctx, video.ID, &dto.UpdateVideoRequest{IsActive: ptr(true), DisplayOrder: ptr(3)})
	require.NoError(t, err)
	assert.True(t, updated.IsActive)
	assert.Equal(t, 3, updated.DisplayOrder)
	assert.Equal(t, "Showreel", updated.Title)

	_, err = svc.UpdateVideo(ctx, uuid.New(), &dto.UpdateVideoRequest{})
	assert.ErrorIs(t, err, ErrVideoNotFound)

	videos, err := svc.ListVideos(ctx)
	require.NoError(t, err)
	assert.Len(t, videos, 1)
	assert.Equal(t, "feedback_videos", pub.last().Table)
}

func TestFeedbackService_SubmitUpsertsOnePerUser(t *testing.T) {
	db := testutil.NewDB(t)
	svc := NewFeedbackService(db, NewContentFilter(), nil)
	ctx := context.Background()
	admin := createUser(t, db, "admin@x.io", models.RoleAdmin)
	user := createUser(t, db, "ana@x.io", models.RoleUser)
	other := createUser(t, db, "bo@x.io", models.RoleUser)

	video, err := svc.CreateVideo(ctx, admin.ID, &dto.CreateVideoRequest{Title: "A", VideoURL: "https://cdn.x.io/a.mp4"})
	require.NoError(t, err)
	hidden, err := svc.CreateVideo(ctx, admin.ID, &dto.CreateVideoRequest{Title: "B", VideoURL: "https://cdn.x.io/b.mp4", IsActive: ptr(false)})
	require.NoError(t, err)

	first, err := svc.SubmitFeedback(ctx, user.ID, video.ID, &dto.FeedbackRequest{Comment: "Great energy", Rating: 4})
	require.NoError(t, err)
	second, err := svc.SubmitFeedback(ctx, user.ID, video.ID, &dto.FeedbackRequest{Comment: "Even better on rewatch", Rating: 5})
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
	_, err = svc.SubmitFeedback(ctx, other.ID, video.ID, &dto.FeedbackRequest{Comment: "Nice", Rating: 0})
	require.NoError(t, err)

	var count int64
	db.Model(&models.VideoFeedback{}).Where("video_id = ?", video.ID).Count(&count)
	assert.Equal(t, int64(2), count)

	_, err = svc.SubmitFeedback(ctx, user.ID, hidden.ID, &dto.FeedbackRequest{Comment: "Hi"})
	assert.ErrorIs(t, err, ErrVideoNotFound)

	active, err := svc.ListActiveVideos(ctx, user.ID)
	require.NoError(t, err)
	require.Len(t, active, 1)
	require.NotNil(t, active[0].MyFeedback)
	assert.Equal(t, "Even better on rewatch", active[0].MyFeedback.Comment)
	assert.Equal(t, 5, active[0].MyFeedback.Rating)

	list, err := svc.ListFeedback(ctx, &video.ID, dto.NewPage(10, 0))
	require.NoError(t, err)
	assert.Equal(t, int64(2), list.Total)
	emails := []string{list.Data[0].UserEmail, list.Data[1].UserEmail}
	assert.ElementsMatch(t, []string{"ana@x.io", "bo@x.io"}, emails)
}

func TestFeedbackService_SubmitValidation(t *testing.T) {
	db := testutil.NewDB(t)
	svc := NewFeedbackService(db, NewContentFilter(), nil)
	ctx := context.Background()
	admin := createUser(t, db, "admin@x.io", models.RoleAdmin)
	user := createUser(t, db, "ana@x.io", models.RoleUser)
	video, err := svc.CreateVideo(ctx, admin.ID, &dto.CreateVideoRequest{Title: "A", VideoURL: "https://cdn.x.io/a.mp4"})
	require.NoError(t, err)

	tests := []struct {
		name  string
		req   dto.FeedbackRequest
		field string
	}{
		{"blank comment", dto.FeedbackRequest{Comment: "   "}, "comment"},
		{"too long", dto.FeedbackRequest{Comment: strings.Repeat("é", 2001)}, "comment"},
		{"rating above five", dto.FeedbackRequest{Comment: "ok", Rating: 6}, "rating"},
		{"negative rating", dto.FeedbackRequest{Comment: "ok", Rating: -1}, "rating"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.SubmitFeedback(ctx, user.ID, video.ID, &tt.req)
			ve, ok := validation.AsError(err)
			require.True(t, ok)
			assert.Contains(t, ve.Fields, tt.field)
		})
	}

	_, err = svc.SubmitFeedback(ctx, user.ID, video.ID, &dto.FeedbackRequest{Comment: strings.Repeat("é", 2000)})
	assert.NoError(t, err, "limit counts characters, not bytes")

	_, err = svc.SubmitFeedback(ctx, user.ID, video.ID, &dto.FeedbackRequest{Comment: "dm me at ana@x.io"})
	assert.ErrorIs(t, err, ErrContentRejected)
}

func TestFeedbackService_Deletes(t *testing.T) {
	db := testutil.NewDB(t)
	svc := NewFeedbackService(db, NewContentFilter(), nil)
	ctx := context.Background()
	admin := createUser(t, db, "admin@x.io", models.RoleAdmin)
	user := createUser(t, db, "ana@x.io", models.RoleUser)
	video, err := svc.CreateVideo(ctx, admin.ID, &dto.CreateVideoRequest{Title: "A", VideoURL: "https://cdn.x.io/a.mp4"})
	require.NoError(t, err)

	_, err = svc.SubmitFeedback(ctx, user.ID, video.ID, &dto.FeedbackRequest{Comment: "Nice work"})
	require.NoError(t, err)
	require.NoError(t, svc.DeleteMyFeedback(ctx, user.ID, video.ID))
	assert.ErrorIs(t, svc.DeleteMyFeedback(ctx, user.ID, video.ID), ErrFeedbackNotFound)

	_, err = svc.SubmitFeedback(ctx, user.ID, video.ID, &dto.FeedbackRequest{Comment: "Back again"})
	require.NoError(t, err)
	require.NoError(t, svc.DeleteVideo(ctx, video.ID))
	assert.ErrorIs(t, svc.DeleteVideo(ctx, video.ID), ErrVideoNotFound)

	var count int64
	db.Model(&models.VideoFeedback{}).Count(&count)
	assert.Zero(t, count, "feedback is removed with its video")
}
