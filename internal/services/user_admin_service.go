package services

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/google/uuid"
	"github.com/starcast/talenthub/internal/cache"
	"github.com/starcast/talenthub/internal/dto"
	"github.com/starcast/talenthub/internal/models"
	"github.com/starcast/talenthub/internal/realtime"
	"gorm.io/gorm"
)

var (
	ErrSelfRoleChange     = errors.New("you cannot change your own role")
	ErrSelfDelete         = errors.New("you cannot delete your own account")
	ErrSuperAdminRequired = errors.New("super admin privileges required")
	ErrLastSuperAdmin     = errors.New("cannot demote the last super admin")
	ErrInvalidRole        = errors.New("invalid role")
)

const (
	usersTable = "users"

	// Ambiguous characters (0/O, 1/l/I) are left out.
	tempPasswordAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZabcdefghijkmnpqrstuvwxyz23456789"
	tempPasswordLength   = 12
)

// UserAdminService implements back-office account management. Every
// account-affecting action is recorded in the admin log.
type UserAdminService struct {
	db   *gorm.DB
	feed changeFeed
}

func NewUserAdminService(db *gorm.DB, c cache.Cache, ttl time.Duration, pub realtime.Publisher) *UserAdminService {
	return &UserAdminService{db: db, feed: newChangeFeed(c, ttl, pub)}
}

func (s *UserAdminService) List(ctx context.Context, q dto.UserQuery) (*dto.ListResponse[dto.UserResponse], error) {
	query := s.db.WithContext(ctx).Model(&models.User{})
	if q.Role != "" {
		query = query.Where("role = ?", q.Role)
	}
	if q.Search != "" {
		pattern := likePattern(q.Search)
		query = query.Where(`(LOWER(name) LIKE ? ESCAPE '\' OR LOWER(email) LIKE ? ESCAPE '\')`, pattern, pattern)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, fmt.Errorf("failed to count users: %w", err)
	}

	var users []models.User
	if err := query.Order("created_at DESC").Limit(q.Page.Limit).Offset(q.Page.Offset).Find(&users).Error; err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}

	items := make([]dto.UserResponse, len(users))
	for i := range users {
		items[i] = dto.NewUserResponse(&users[i])
	}
	return dto.NewListResponse(items, total, q.Page), nil
}

func (s *UserAdminService) SetRole(ctx context.Context, actorID, targetID uuid.UUID, role string) (*dto.UserResponse, error) {
	if !models.ValidRole(role) {
		return nil, ErrInvalidRole
	}
	if actorID == targetID {
		return nil, ErrSelfRoleChange
	}

	var target models.User
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		actor, err := loadUser(tx, actorID)
		if err != nil {
			return err
		}
		t, err := loadUser(tx, targetID)
		if err != nil {
			return err
		}
		target = *t

		if (models.IsAdminRole(target.Role) || models.IsAdminRole(role)) && actor.Role != models.RoleSuperAdmin {
			return ErrSuperAdminRequired
		}
		if target.Role == role {
			return nil
		}
		if target.Role == models.RoleSuperAdmin {
			var supers int64
			if err := tx.Model(&models.User{}).Where("role = ?", models.RoleSuperAdmin).Count(&supers).Error; err != nil {
				return err
			}
			if supers <= 1 {
				return ErrLastSuperAdmin
			}
		}

		previous := target.Role
		if err := tx.Model(&target).Update("role", role).Error; err != nil {
			return fmt.Errorf("failed to update role: %w", err)
		}
		target.Role = role
		return writeAdminLog(tx, actorID, &target.ID, models.AdminActionRoleChange, fmt.Sprintf("%s -> %s", previous, role))
	})
	if err != nil {
		return nil, err
	}

	s.feed.publisher.Publish(usersTable, realtime.ActionUpdate, target.ID)
	resp := dto.NewUserResponse(&target)
	return &resp, nil
}

// ResetPassword assigns a random temporary password that must be changed at
// next sign-in. The plain password is returned once and never stored.
func (s *UserAdminService) ResetPassword(ctx context.Context, actorID, targetID uuid.UUID) (string, error) {
	temp, err := generateTempPassword()
	if err != nil {
		return "", err
	}
	if err := s.replacePassword(ctx, actorID, targetID, temp, models.AdminActionPasswordReset, "temporary password issued"); err != nil {
		return "", err
	}
	return temp, nil
}

// SetPassword assigns an admin-chosen password. The user must change it at
// next sign-in.
func (s *UserAdminService) SetPassword(ctx context.Context, actorID, targetID uuid.UUID, password string) error {
	if len(password) < minPasswordLength {
		return ErrWeakPassword
	}
	return s.replacePassword(ctx, actorID, targetID, password, models.AdminActionPasswordSet, "password set by admin")
}

func (s *UserAdminService) replacePassword(ctx context.Context, actorID, targetID uuid.UUID, password, action, details string) error {
	hash, err := hashPassword(password)
	if err != nil {
		return err
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		actor, err := loadUser(tx, actorID)
		if err != nil {
			return err
		}
		target, err := loadUser(tx, targetID)
		if err != nil {
			return err
		}
		if target.Role == models.RoleSuperAdmin && actor.Role != models.RoleSuperAdmin {
			return ErrSuperAdminRequired
		}

		if err := storePassword(tx, target, hash, true); err != nil {
			return err
		}
		return writeAdminLog(tx, actorID, &target.ID, action, details)
	})
	if err != nil {
		return err
	}

	s.feed.publisher.Publish(usersTable, realtime.ActionUpdate, targetID)
	return nil
}

// Delete removes an account with its sessions and feedback. A linked talent
// profile is detached and soft-deleted so admins can still restore it as an
// internal profile.
func (s *UserAdminService) Delete(ctx context.Context, actorID, targetID uuid.UUID) error {
	if actorID == targetID {
		return ErrSelfDelete
	}

	var profileID uuid.UUID
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		actor, err := loadUser(tx, actorID)
		if err != nil {
			return err
		}
		target, err := loadUser(tx, targetID)
		if err != nil {
			return err
		}
		if target.Role == models.RoleSuperAdmin && actor.Role != models.RoleSuperAdmin {
			return ErrSuperAdminRequired
		}

		if err := tx.Where("user_id = ?", target.ID).Delete(&models.RefreshToken{}).Error; err != nil {
			return err
		}
		if err := tx.Where("user_id = ?", target.ID).Delete(&models.VideoFeedback{}).Error; err != nil {
			return err
		}

		var profile models.TalentProfile
		err = tx.Where("user_id = ?", target.ID).First(&profile).Error
		switch {
		case err == nil:
			profileID = profile.ID
			updates := map[string]interface{}{"user_id": nil, "is_internal": true}
			if profile.DeletedAt == nil {
				updates["deleted_at"] = time.Now().UTC()
			}
			if err := tx.Model(&profile).Updates(updates).Error; err != nil {
				return err
			}
		case !errors.Is(err, gorm.ErrRecordNotFound):
			return err
		}

		if err := tx.Unscoped().Delete(target).Error; err != nil {
			return fmt.Errorf("failed to delete user: %w", err)
		}
		return writeAdminLog(tx, actorID, &target.ID, models.AdminActionUserDelete, fmt.Sprintf("deleted %s (%s)", target.Email, target.Role))
	})
	if err != nil {
		return err
	}

	s.feed.publisher.Publish(usersTable, realtime.ActionDelete, targetID)
	if profileID != uuid.Nil {
		s.feed.changed(ctx, talentCachePrefix, talentsTable, realtime.ActionUpdate, profileID)
	}
	return nil
}

func (s *UserAdminService) ListAdminLogs(ctx context.Context, q dto.AdminLogQuery) (*dto.ListResponse[models.AdminLog], error) {
	query := s.db.WithContext(ctx).Model(&models.AdminLog{})
	if q.AdminID != nil {
		query = query.Where("admin_id = ?", *q.AdminID)
	}
	if q.TargetID != nil {
		query = query.Where("target_user_id = ?", *q.TargetID)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, fmt.Errorf("failed to count admin logs: %w", err)
	}

	var logs []models.AdminLog
	if err := query.Order("created_at DESC").Limit(q.Page.Limit).Offset(q.Page.Offset).Find(&logs).Error; err != nil {
		return nil, fmt.Errorf("failed to list admin logs: %w", err)
	}
	return dto.NewListResponse(logs, total, q.Page), nil
}

func (s *UserAdminService) Stats(ctx context.Context) (*dto.StatsResponse, error) {
	db := s.db.WithContext(ctx)
	stats := &dto.StatsResponse{TalentsByCategory: make(map[string]int64, len(models.TalentCategories))}

	counts := []struct {
		dest  *int64
		model interface{}
		where string
		args  []interface{}
	}{
		{&stats.Users, &models.User{}, "", nil},
		{&stats.Admins, &models.User{}, "role IN ?", []interface{}{[]string{models.RoleAdmin, models.RoleSuperAdmin}}},
		{&stats.Talents, &models.TalentProfile{}, "deleted_at IS NULL", nil},
		{&stats.HiddenTalents, &models.TalentProfile{}, "is_hidden = ? AND deleted_at IS NULL", []interface{}{true}},
		{&stats.DeletedTalents, &models.TalentProfile{}, "deleted_at IS NOT NULL", nil},
		{&stats.InternalTalents, &models.TalentProfile{}, "is_internal = ? AND deleted_at IS NULL", []interface{}{true}},
		{&stats.NewContacts, &models.ContactSubmission{}, "status = ?", []interface{}{models.ContactStatusNew}},
		{&stats.FeedbackCount, &models.VideoFeedback{}, "", nil},
		{&stats.ActiveVideos, &models.FeedbackVideo{}, "is_active = ?", []interface{}{true}},
	}
	for _, c := range counts {
		q := db.Model(c.model)
		if c.where != "" {
			q = q.Where(c.where, c.args...)
		}
		if err := q.Count(c.dest).Error; err != nil {
			return nil, fmt.Errorf("failed to compute stats: %w", err)
		}
	}

	var rows []struct {
		Category string
		Total    int64
	}
	if err := db.Model(&models.TalentProfile{}).
		Select("category, COUNT(*) AS total").
		Where("deleted_at IS NULL").
		Group("category").
		Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to compute stats: %w", err)
	}
	for _, c := range models.TalentCategories {
		stats.TalentsByCategory[c] = 0
	}
	for _, r := range rows {
		stats.TalentsByCategory[r.Category] = r.Total
	}
	return stats, nil
}

func loadUser(tx *gorm.DB, id uuid.UUID) (*models.User, error) {
	var user models.User
	if err := tx.First(&user, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}

func generateTempPassword() (string, error) {
	buf := make([]byte, tempPasswordLength)
	max := big.NewInt(int64(len(tempPasswordAlphabet)))
	for i := range buf {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", fmt.Errorf("failed to generate password: %w", err)
		}
		buf[i] = tempPasswordAlphabet[n.Int64()]
	}
	return string(buf), nil
}
