package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/starcast/talenthub/internal/dto"
	"github.com/starcast/talenthub/internal/mailer"
	"github.com/starcast/talenthub/internal/models"
	"github.com/starcast/talenthub/internal/realtime"
	"gorm.io/gorm"
)

var ErrContactNotFound = errors.New("contact submission not found")

const contactsTable = "contact_submissions"

type ContactService struct {
	db         *gorm.DB
	filter     *ContentFilter
	mailer     mailer.Mailer
	recipients []string
	publisher  realtime.Publisher
	wg         sync.WaitGroup
}

func NewContactService(db *gorm.DB, filter *ContentFilter, m mailer.Mailer, recipients []string, pub realtime.Publisher) *ContactService {
	if pub == nil {
		pub = realtime.Nop{}
	}
	return &ContactService{db: db, filter: filter, mailer: m, recipients: recipients, publisher: pub}
}

// Submit stores a public contact message and notifies staff in the
// background. Notification failures are logged only.
func (s *ContactService) Submit(ctx context.Context, req *dto.ContactRequest) (*models.ContactSubmission, error) {
	sub := models.ContactSubmission{
		Name:    strings.TrimSpace(req.Name),
		Email:   normalizeEmail(req.Email),
		Mobile:  strings.TrimSpace(req.Mobile),
		Subject: strings.TrimSpace(req.Subject),
		Message: strings.TrimSpace(req.Message),
		Status:  models.ContactStatusNew,
	}

	if ok, reason := s.filter.CheckContact(sub.Subject + "\n" + sub.Message); !ok {
		slog.Info("contact submission rejected", "reason", reason)
		return nil, rejected(reason)
	}

	if err := s.db.WithContext(ctx).Create(&sub).Error; err != nil {
		return nil, fmt.Errorf("failed to save contact submission: %w", err)
	}

	s.publisher.Publish(contactsTable, realtime.ActionInsert, sub.ID)
	s.notify(sub)
	return &sub, nil
}

func (s *ContactService) notify(sub models.ContactSubmission) {
	if s.mailer == nil || len(s.recipients) == 0 {
		return
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		msg, err := mailer.ContactNotification(s.recipients, mailer.ContactData{
			Name:    sub.Name,
			Email:   sub.Email,
			Mobile:  sub.Mobile,
			Subject: sub.Subject,
			Message: sub.Message,
		})
		if err == nil {
			err = s.mailer.Send(msg)
		}
		if err != nil {
			slog.Error("contact notification failed", "contact_id", sub.ID, "error", err)
		}
	}()
}

// Wait blocks until pending notifications have been attempted.
func (s *ContactService) Wait() {
	s.wg.Wait()
}

func (s *ContactService) List(ctx context.Context, status string, page dto.Page) (*dto.ListResponse[models.ContactSubmission], error) {
	query := s.db.WithContext(ctx).Model(&models.ContactSubmission{})
	if status != "" {
		query = query.Where("status = ?", status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, fmt.Errorf("failed to count contacts: %w", err)
	}

	var subs []models.ContactSubmission
	if err := query.Order("created_at DESC").Limit(page.Limit).Offset(page.Offset).Find(&subs).Error; err != nil {
		return nil, fmt.Errorf("failed to list contacts: %w", err)
	}
	return dto.NewListResponse(subs, total, page), nil
}

func (s *ContactService) SetStatus(ctx context.Context, id uuid.UUID, status string) (*models.ContactSubmission, error) {
	if !models.ValidContactStatus(status) {
		return nil, fmt.Errorf("invalid status %q", status)
	}

	result := s.db.WithContext(ctx).Model(&models.ContactSubmission{}).Where("id = ?", id).Update("status", status)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to update contact: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return nil, ErrContactNotFound
	}

	var sub models.ContactSubmission
	if err := s.db.WithContext(ctx).First(&sub, "id = ?", id).Error; err != nil {
		return nil, err
	}
	s.publisher.Publish(contactsTable, realtime.ActionUpdate, id)
	return &sub, nil
}

func (s *ContactService) Delete(ctx context.Context, id uuid.UUID) error {
	result := s.db.WithContext(ctx).Delete(&models.ContactSubmission{}, "id = ?", id)
	if result.Error != nil {
		return fmt.Errorf("failed to delete contact: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrContactNotFound
	}
	s.publisher.Publish(contactsTable, realtime.ActionDelete, id)
	return nil
}
