package services

import (
	"bytes"
	"context"
	"crypto/sha1"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/starcast/talenthub/internal/cache"
	"github.com/starcast/talenthub/internal/dto"
	"github.com/starcast/talenthub/internal/imaging"
	"github.com/starcast/talenthub/internal/models"
	"github.com/starcast/talenthub/internal/realtime"
	"github.com/starcast/talenthub/internal/storage"
	"github.com/starcast/talenthub/internal/validation"
	"gorm.io/gorm"
)

var (
	ErrProfileNotFound   = errors.New("talent profile not found")
	ErrProfileExists     = errors.New("talent profile already exists for this user")
	ErrProfileNotDeleted = errors.New("talent profile must be deleted before it can be purged")
	ErrNotFileField      = errors.New("form field does not accept files")
	ErrUnsupportedFile   = errors.New("unsupported file type")
)

const (
	talentCachePrefix = "talents:public:"
	talentsTable      = "talent_profiles"
)

var (
	imageContentTypes = map[string]string{
		"image/jpeg": ".jpg",
		"image/png":  ".png",
		"image/webp": ".webp",
	}
	documentContentTypes = map[string]string{
		"application/pdf": ".pdf",
	}
)

type TalentService struct {
	db        *gorm.DB
	feed      changeFeed
	schema    *FormSchemaService
	storage   storage.Storage
	processor *imaging.Processor
	now       func() time.Time
}

func NewTalentService(
	db *gorm.DB,
	c cache.Cache,
	ttl time.Duration,
	pub realtime.Publisher,
	schema *FormSchemaService,
	store storage.Storage,
	processor *imaging.Processor,
) *TalentService {
	return &TalentService{
		db:        db,
		feed:      newChangeFeed(c, ttl, pub),
		schema:    schema,
		storage:   store,
		processor: processor,
		now:       time.Now,
	}
}

// Register creates the caller's own profile. A user has at most one.
func (s *TalentService) Register(ctx context.Context, userID uuid.UUID, req *dto.TalentProfileRequest) (*models.TalentProfile, error) {
	var count int64
	if err := s.db.WithContext(ctx).Model(&models.TalentProfile{}).Where("user_id = ?", userID).Count(&count).Error; err != nil {
		return nil, fmt.Errorf("failed to check profile: %w", err)
	}
	if count > 0 {
		return nil, ErrProfileExists
	}

	profile := &models.TalentProfile{UserID: &userID}
	if err := s.build(ctx, profile, req); err != nil {
		return nil, err
	}
	if err := s.db.WithContext(ctx).Create(profile).Error; err != nil {
		// A concurrent registration won the user_id unique index.
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrProfileExists
		}
		return nil, fmt.Errorf("failed to create profile: %w", err)
	}

	s.feed.changed(ctx, talentCachePrefix, talentsTable, realtime.ActionInsert, profile.ID)
	return profile, nil
}

// GetMine returns the caller's profile. Soft-deleted profiles are reported
// as missing.
func (s *TalentService) GetMine(ctx context.Context, userID uuid.UUID) (*models.TalentProfile, error) {
	var profile models.TalentProfile
	err := s.db.WithContext(ctx).Where("user_id = ? AND deleted_at IS NULL", userID).First(&profile).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProfileNotFound
		}
		return nil, err
	}
	return &profile, nil
}

func (s *TalentService) UpdateMine(ctx context.Context, userID uuid.UUID, req *dto.TalentProfileRequest) (*models.TalentProfile, error) {
	profile, err := s.GetMine(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.update(ctx, profile, req)
}

func (s *TalentService) ListPublic(ctx context.Context, q dto.TalentQuery) (*dto.ListResponse[dto.TalentPublicResponse], error) {
	key := talentCachePrefix + "list:" + queryFingerprint(q)
	var cached dto.ListResponse[dto.TalentPublicResponse]
	if s.feed.load(ctx, key, &cached) {
		return &cached, nil
	}

	query := s.db.WithContext(ctx).Model(&models.TalentProfile{}).Scopes(models.PublicTalents)
	query = s.applyFilters(query, q)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, fmt.Errorf("failed to count talents: %w", err)
	}

	var profiles []models.TalentProfile
	if err := query.Order("created_at DESC").Limit(q.Page.Limit).Offset(q.Page.Offset).Find(&profiles).Error; err != nil {
		return nil, fmt.Errorf("failed to list talents: %w", err)
	}

	now := s.now()
	items := make([]dto.TalentPublicResponse, len(profiles))
	for i := range profiles {
		items[i] = dto.NewTalentPublicResponse(&profiles[i], now)
	}

	resp := dto.NewListResponse(items, total, q.Page)
	s.feed.store(ctx, key, resp)
	return resp, nil
}

func (s *TalentService) GetPublic(ctx context.Context, id uuid.UUID) (*dto.TalentPublicResponse, error) {
	key := talentCachePrefix + "id:" + id.String()
	var cached dto.TalentPublicResponse
	if s.feed.load(ctx, key, &cached) {
		return &cached, nil
	}

	var profile models.TalentProfile
	err := s.db.WithContext(ctx).Scopes(models.PublicTalents).First(&profile, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProfileNotFound
		}
		return nil, err
	}

	resp := dto.NewTalentPublicResponse(&profile, s.now())
	s.feed.store(ctx, key, resp)
	return &resp, nil
}

func (s *TalentService) AdminList(ctx context.Context, q dto.AdminTalentQuery) (*dto.ListResponse[models.TalentProfile], error) {
	query := s.db.WithContext(ctx).Model(&models.TalentProfile{})
	if !q.IncludeHidden {
		query = query.Where("is_hidden = ?", false)
	}
	if !q.IncludeDeleted {
		query = query.Where("deleted_at IS NULL")
	}
	if q.Internal != nil {
		query = query.Where("is_internal = ?", *q.Internal)
	}
	query = s.applyFilters(query, q.TalentQuery)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, fmt.Errorf("failed to count talents: %w", err)
	}

	var profiles []models.TalentProfile
	if err := query.Order("created_at DESC").Limit(q.Page.Limit).Offset(q.Page.Offset).Find(&profiles).Error; err != nil {
		return nil, fmt.Errorf("failed to list talents: %w", err)
	}
	return dto.NewListResponse(profiles, total, q.Page), nil
}

func (s *TalentService) Get(ctx context.Context, id uuid.UUID) (*models.TalentProfile, error) {
	var profile models.TalentProfile
	if err := s.db.WithContext(ctx).First(&profile, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProfileNotFound
		}
		return nil, err
	}
	return &profile, nil
}

// CreateInternal adds a profile entered by staff for talent without an account.
func (s *TalentService) CreateInternal(ctx context.Context, req *dto.TalentProfileRequest) (*models.TalentProfile, error) {
	profile := &models.TalentProfile{IsInternal: true}
	if err := s.build(ctx, profile, req); err != nil {
		return nil, err
	}
	if err := s.db.WithContext(ctx).Create(profile).Error; err != nil {
		return nil, fmt.Errorf("failed to create profile: %w", err)
	}

	s.feed.changed(ctx, talentCachePrefix, talentsTable, realtime.ActionInsert, profile.ID)
	return profile, nil
}

func (s *TalentService) AdminUpdate(ctx context.Context, id uuid.UUID, req *dto.TalentProfileRequest) (*models.TalentProfile, error) {
	profile, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.update(ctx, profile, req)
}

func (s *TalentService) SetHidden(ctx context.Context, id uuid.UUID, hidden bool) (*models.TalentProfile, error) {
	return s.setColumn(ctx, id, "is_hidden", hidden)
}

func (s *TalentService) SoftDelete(ctx context.Context, id uuid.UUID) (*models.TalentProfile, error) {
	return s.setColumn(ctx, id, "deleted_at", s.now().UTC())
}

func (s *TalentService) Restore(ctx context.Context, id uuid.UUID) (*models.TalentProfile, error) {
	return s.setColumn(ctx, id, "deleted_at", nil)
}

// Purge permanently removes a profile that was already soft-deleted, along
// with its stored photos.
func (s *TalentService) Purge(ctx context.Context, id uuid.UUID) error {
	profile, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if profile.DeletedAt == nil {
		return ErrProfileNotDeleted
	}

	if err := s.db.WithContext(ctx).Delete(&models.TalentProfile{}, "id = ?", id).Error; err != nil {
		return fmt.Errorf("failed to purge profile: %w", err)
	}
	s.removeObject(ctx, profile.PhotoURL)
	s.removeObject(ctx, profile.ThumbnailURL)

	s.feed.changed(ctx, talentCachePrefix, talentsTable, realtime.ActionDelete, id)
	return nil
}

// UploadPhoto stores the original image and a square face-centred thumbnail,
// replacing any previous pair.
func (s *TalentService) UploadPhoto(ctx context.Context, id uuid.UUID, filename string, reader io.Reader, box *imaging.Box) (*models.TalentProfile, error) {
	profile, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("failed to read upload: %w", err)
	}
	contentType := http.DetectContentType(data)
	ext, ok := imageContentTypes[contentType]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFile, contentType)
	}

	thumb, err := s.processor.Thumbnail(bytes.NewReader(data), box)
	if err != nil {
		return nil, err
	}

	photoKey := storage.NewKey("talents/photos", "photo"+ext)
	if err := s.storage.Save(ctx, photoKey, bytes.NewReader(data), contentType); err != nil {
		return nil, fmt.Errorf("failed to store photo: %w", err)
	}
	thumbKey := storage.NewKey("talents/thumbnails", "thumb.jpg")
	if err := s.storage.Save(ctx, thumbKey, thumb, "image/jpeg"); err != nil {
		s.removeObject(ctx, s.storage.URL(photoKey))
		return nil, fmt.Errorf("failed to store thumbnail: %w", err)
	}

	oldPhoto, oldThumb := profile.PhotoURL, profile.ThumbnailURL
	profile.PhotoURL = s.storage.URL(photoKey)
	profile.ThumbnailURL = s.storage.URL(thumbKey)
	if err := s.db.WithContext(ctx).Model(profile).Updates(map[string]interface{}{
		"photo_url":     profile.PhotoURL,
		"thumbnail_url": profile.ThumbnailURL,
	}).Error; err != nil {
		return nil, fmt.Errorf("failed to save photo urls: %w", err)
	}
	s.removeObject(ctx, oldPhoto)
	s.removeObject(ctx, oldThumb)

	slog.Info("talent photo updated", "talent_id", profile.ID, "original_name", filename)
	s.feed.changed(ctx, talentCachePrefix, talentsTable, realtime.ActionUpdate, profile.ID)
	return profile, nil
}

func (s *TalentService) UploadMyPhoto(ctx context.Context, userID uuid.UUID, filename string, reader io.Reader, box *imaging.Box) (*models.TalentProfile, error) {
	profile, err := s.GetMine(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.UploadPhoto(ctx, profile.ID, filename, reader, box)
}

// UploadCustomFile stores a file for a file-type form field and returns the
// URL to place in custom_fields.
func (s *TalentService) UploadCustomFile(ctx context.Context, fieldKey, filename string, reader io.Reader) (string, error) {
	field, err := s.schema.GetByKey(ctx, fieldKey)
	if err != nil {
		return "", err
	}
	if !field.IsActive {
		return "", ErrFormFieldNotFound
	}
	if field.FieldType != models.FieldTypeFile {
		return "", ErrNotFileField
	}

	data, err := io.ReadAll(reader)
	if err != nil {
		return "", fmt.Errorf("failed to read upload: %w", err)
	}
	contentType := http.DetectContentType(data)
	ext, ok := imageContentTypes[contentType]
	if !ok {
		ext, ok = documentContentTypes[contentType]
	}
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnsupportedFile, contentType)
	}

	key := storage.NewKey("custom/"+field.FieldKey, "file"+ext)
	if err := s.storage.Save(ctx, key, bytes.NewReader(data), contentType); err != nil {
		return "", fmt.Errorf("failed to store file: %w", err)
	}
	slog.Info("custom field file stored", "field_key", field.FieldKey, "original_name", filename)
	return s.storage.URL(key), nil
}

func (s *TalentService) update(ctx context.Context, profile *models.TalentProfile, req *dto.TalentProfileRequest) (*models.TalentProfile, error) {
	if err := s.build(ctx, profile, req); err != nil {
		return nil, err
	}
	if err := s.db.WithContext(ctx).Save(profile).Error; err != nil {
		return nil, fmt.Errorf("failed to update profile: %w", err)
	}

	s.feed.changed(ctx, talentCachePrefix, talentsTable, realtime.ActionUpdate, profile.ID)
	return profile, nil
}

func (s *TalentService) setColumn(ctx context.Context, id uuid.UUID, column string, value interface{}) (*models.TalentProfile, error) {
	result := s.db.WithContext(ctx).Model(&models.TalentProfile{}).Where("id = ?", id).Update(column, value)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to update profile: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return nil, ErrProfileNotFound
	}

	s.feed.changed(ctx, talentCachePrefix, talentsTable, realtime.ActionUpdate, id)
	return s.Get(ctx, id)
}

// build merges req into profile and validates the merged result, including
// the category rules and the custom field schema.
func (s *TalentService) build(ctx context.Context, profile *models.TalentProfile, req *dto.TalentProfileRequest) error {
	if err := applyProfileRequest(profile, req); err != nil {
		return err
	}

	existing := map[string]interface{}(profile.CustomFields)
	merged := make(map[string]interface{}, len(existing)+len(req.CustomFields))
	for k, v := range existing {
		merged[k] = v
	}
	for k, v := range req.CustomFields {
		merged[k] = v
	}

	normalized, customErr := s.schema.ValidateCustomFields(ctx, merged)
	if customErr != nil {
		if _, ok := validation.AsError(customErr); !ok {
			return customErr
		}
	}

	problems := ValidateProfile(profile, s.now())
	if ve, ok := validation.AsError(customErr); ok {
		for k, v := range ve.Fields {
			problems[k] = v
		}
	}
	if len(problems) > 0 {
		return &validation.Error{Fields: problems}
	}

	// Values of fields no longer in the active schema are kept as stored.
	for k, v := range existing {
		if _, known := normalized[k]; !known {
			if _, submitted := req.CustomFields[k]; !submitted {
				normalized[k] = v
			}
		}
	}
	profile.CustomFields = normalized
	return nil
}

func applyProfileRequest(p *models.TalentProfile, req *dto.TalentProfileRequest) error {
	if req.FullName != nil {
		p.FullName = strings.TrimSpace(*req.FullName)
	}
	if req.Email != nil {
		p.Email = normalizeEmail(*req.Email)
	}
	if req.Mobile != nil {
		p.Mobile = strings.TrimSpace(*req.Mobile)
	}
	if req.Gender != nil {
		p.Gender = *req.Gender
	}
	if req.DateOfBirth != nil {
		if *req.DateOfBirth == "" {
			p.DateOfBirth = nil
		} else {
			dob, err := time.Parse("2006-01-02", *req.DateOfBirth)
			if err != nil {
				return validation.NewError("date_of_birth", "must be a date in YYYY-MM-DD format")
			}
			p.DateOfBirth = &dob
		}
	}
	if req.HeightCm != nil {
		p.HeightCm = req.HeightCm
	}
	if req.WeightKg != nil {
		p.WeightKg = req.WeightKg
	}
	if req.City != nil {
		p.City = strings.TrimSpace(*req.City)
	}
	if req.Country != nil {
		p.Country = strings.TrimSpace(*req.Country)
	}
	if req.Category != nil {
		p.Category = *req.Category
	}
	if req.Bio != nil {
		p.Bio = strings.TrimSpace(*req.Bio)
	}
	if req.ExperienceYears != nil {
		p.ExperienceYears = *req.ExperienceYears
	}
	if req.Skills != nil {
		p.Skills = cleanList(*req.Skills)
	}
	if req.Languages != nil {
		p.Languages = cleanList(*req.Languages)
	}
	if req.PortfolioLinks != nil {
		p.PortfolioLinks = cleanList(*req.PortfolioLinks)
	}
	return nil
}

// ValidateProfile checks the base fields and the requirements of the
// profile's category. It returns field messages, empty when valid.
func ValidateProfile(p *models.TalentProfile, now time.Time) map[string]string {
	problems := make(map[string]string)

	if p.FullName == "" {
		problems["full_name"] = "is required"
	}
	if !models.ValidCategory(p.Category) {
		problems["category"] = "must be one of: " + strings.Join(models.TalentCategories, ", ")
	}
	if p.DateOfBirth != nil && !p.DateOfBirth.Before(now) {
		problems["date_of_birth"] = "must be in the past"
	}

	switch p.Category {
	case models.CategoryModel:
		if p.HeightCm == nil {
			problems["height_cm"] = "is required for models"
		}
		if p.Gender == "" {
			problems["gender"] = "is required for models"
		}
	case models.CategoryActor:
		if len(p.Languages) == 0 {
			problems["languages"] = "at least one language is required for actors"
		}
	case models.CategoryDancer, models.CategorySinger:
		if len(p.Skills) == 0 {
			problems["skills"] = fmt.Sprintf("at least one skill is required for %ss", p.Category)
		}
	case models.CategoryInfluencer:
		if len(p.PortfolioLinks) == 0 {
			problems["portfolio_links"] = "at least one portfolio link is required for influencers"
		}
	}
	return problems
}

func (s *TalentService) applyFilters(query *gorm.DB, q dto.TalentQuery) *gorm.DB {
	if q.Category != "" {
		query = query.Where("category = ?", q.Category)
	}
	if q.City != "" {
		query = query.Where("LOWER(city) = ?", strings.ToLower(strings.TrimSpace(q.City)))
	}
	if q.Gender != "" {
		query = query.Where("gender = ?", q.Gender)
	}
	if strings.TrimSpace(q.Search) != "" {
		pattern := likePattern(q.Search)
		query = query.Where(
			`(LOWER(full_name) LIKE ? ESCAPE '\' OR LOWER(bio) LIKE ? ESCAPE '\' OR LOWER(CAST(skills AS TEXT)) LIKE ? ESCAPE '\')`,
			pattern, pattern, pattern,
		)
	}

	// Age bounds become birth date bounds so the filter stays portable SQL.
	today := s.now().UTC().Truncate(24 * time.Hour)
	if q.MinAge > 0 {
		query = query.Where("date_of_birth IS NOT NULL AND date_of_birth <= ?", today.AddDate(-q.MinAge, 0, 0))
	}
	if q.MaxAge > 0 {
		query = query.Where("date_of_birth IS NOT NULL AND date_of_birth > ?", today.AddDate(-(q.MaxAge+1), 0, 0))
	}
	return query
}

func (s *TalentService) removeObject(ctx context.Context, url string) {
	if url == "" || s.storage == nil {
		return
	}
	key, ok := s.storage.KeyFromURL(url)
	if !ok {
		return
	}
	if err := s.storage.Delete(ctx, key); err != nil {
		slog.Warn("failed to delete stored object", "key", key, "error", err)
	}
}

func queryFingerprint(q dto.TalentQuery) string {
	raw := fmt.Sprintf("%s|%s|%s|%s|%d|%d|%d|%d",
		q.Category, strings.ToLower(q.City), q.Gender, strings.ToLower(strings.TrimSpace(q.Search)),
		q.MinAge, q.MaxAge, q.Page.Limit, q.Page.Offset)
	sum := sha1.Sum([]byte(raw))
	return hex.EncodeToString(sum[:])
}
