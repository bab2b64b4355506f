package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/starcast/talenthub/internal/cache"
	"github.com/starcast/talenthub/internal/dto"
	"github.com/starcast/talenthub/internal/models"
	"github.com/starcast/talenthub/internal/realtime"
	"github.com/starcast/talenthub/internal/validation"
	"gorm.io/gorm"
)

var ErrFormFieldNotFound = errors.New("form field not found")

const (
	formFieldsCacheKey = "form_fields:active"
	formFieldsTable    = "form_fields"
	maxFieldKeyLength  = 100
)

var nonAlphanumeric = regexp.MustCompile(`[^a-z0-9]+`)

// FormSchemaService manages the admin-defined fields that extend talent
// profiles through TalentProfile.CustomFields.
type FormSchemaService struct {
	db   *gorm.DB
	feed changeFeed
}

func NewFormSchemaService(db *gorm.DB, c cache.Cache, ttl time.Duration, pub realtime.Publisher) *FormSchemaService {
	return &FormSchemaService{db: db, feed: newChangeFeed(c, ttl, pub)}
}

func (s *FormSchemaService) List(ctx context.Context, activeOnly bool) ([]models.FormField, error) {
	if activeOnly {
		var cached []models.FormField
		if s.feed.load(ctx, formFieldsCacheKey, &cached) {
			return cached, nil
		}
	}

	fields := []models.FormField{}
	query := s.db.WithContext(ctx).Order("display_order ASC, created_at ASC")
	if activeOnly {
		query = query.Where("is_active = ?", true)
	}
	if err := query.Find(&fields).Error; err != nil {
		return nil, fmt.Errorf("failed to list form fields: %w", err)
	}

	if activeOnly {
		s.feed.store(ctx, formFieldsCacheKey, fields)
	}
	return fields, nil
}

func (s *FormSchemaService) Get(ctx context.Context, id uuid.UUID) (*models.FormField, error) {
	var field models.FormField
	if err := s.db.WithContext(ctx).First(&field, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrFormFieldNotFound
		}
		return nil, err
	}
	return &field, nil
}

// GetByKey returns the field stored under key, active or not.
func (s *FormSchemaService) GetByKey(ctx context.Context, key string) (*models.FormField, error) {
	var field models.FormField
	if err := s.db.WithContext(ctx).First(&field, "field_key = ?", key).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrFormFieldNotFound
		}
		return nil, err
	}
	return &field, nil
}

func (s *FormSchemaService) Create(ctx context.Context, req *dto.CreateFormFieldRequest) (*models.FormField, error) {
	if !models.ValidFieldType(req.FieldType) {
		return nil, validation.NewError("field_type", "must be one of: text, number, dropdown, checkbox, file")
	}
	options, err := normalizeOptions(req.FieldType, req.Options)
	if err != nil {
		return nil, err
	}

	field := models.FormField{
		Label:      strings.TrimSpace(req.Label),
		FieldType:  req.FieldType,
		IsRequired: req.IsRequired,
		Options:    options,
		IsActive:   req.IsActive == nil || *req.IsActive,
	}
	if field.Label == "" {
		return nil, validation.NewError("label", "is required")
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		key, err := uniqueFieldKey(tx, GenerateFieldKey(field.Label))
		if err != nil {
			return err
		}
		field.FieldKey = key

		if req.DisplayOrder != nil {
			field.DisplayOrder = *req.DisplayOrder
		} else {
			maxOrder := -1
			if err := tx.Model(&models.FormField{}).Select("COALESCE(MAX(display_order), -1)").Row().Scan(&maxOrder); err != nil {
				return err
			}
			field.DisplayOrder = maxOrder + 1
		}
		return tx.Create(&field).Error
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create form field: %w", err)
	}

	s.feed.changed(ctx, formFieldsCacheKey, formFieldsTable, realtime.ActionInsert, field.ID)
	return &field, nil
}

// Update applies a partial change. The key stays fixed so values already
// stored under it remain addressable after a relabel.
func (s *FormSchemaService) Update(ctx context.Context, id uuid.UUID, req *dto.UpdateFormFieldRequest) (*models.FormField, error) {
	field, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Label != nil {
		label := strings.TrimSpace(*req.Label)
		if label == "" {
			return nil, validation.NewError("label", "is required")
		}
		field.Label = label
	}
	if req.FieldType != nil {
		if !models.ValidFieldType(*req.FieldType) {
			return nil, validation.NewError("field_type", "must be one of: text, number, dropdown, checkbox, file")
		}
		field.FieldType = *req.FieldType
	}
	if req.IsRequired != nil {
		field.IsRequired = *req.IsRequired
	}
	if req.DisplayOrder != nil {
		field.DisplayOrder = *req.DisplayOrder
	}
	if req.IsActive != nil {
		field.IsActive = *req.IsActive
	}

	options := []string(field.Options)
	if req.Options != nil {
		options = *req.Options
	}
	normalized, err := normalizeOptions(field.FieldType, options)
	if err != nil {
		return nil, err
	}
	field.Options = normalized

	if err := s.db.WithContext(ctx).Save(field).Error; err != nil {
		return nil, fmt.Errorf("failed to update form field: %w", err)
	}

	s.feed.changed(ctx, formFieldsCacheKey, formFieldsTable, realtime.ActionUpdate, field.ID)
	return field, nil
}

// Reorder sets display_order to each id's position in ids.
func (s *FormSchemaService) Reorder(ctx context.Context, ids []uuid.UUID) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for i, id := range ids {
			result := tx.Model(&models.FormField{}).Where("id = ?", id).Update("display_order", i)
			if result.Error != nil {
				return result.Error
			}
			if result.RowsAffected == 0 {
				return fmt.Errorf("%w: %s", ErrFormFieldNotFound, id)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.feed.changed(ctx, formFieldsCacheKey, formFieldsTable, realtime.ActionUpdate, uuid.Nil)
	return nil
}

// Delete removes the field definition. Values already stored in talent
// profiles under its key are kept.
func (s *FormSchemaService) Delete(ctx context.Context, id uuid.UUID) error {
	result := s.db.WithContext(ctx).Delete(&models.FormField{}, "id = ?", id)
	if result.Error != nil {
		return fmt.Errorf("failed to delete form field: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrFormFieldNotFound
	}

	s.feed.changed(ctx, formFieldsCacheKey, formFieldsTable, realtime.ActionDelete, id)
	return nil
}

// ValidateCustomFields checks input against the active schema and returns
// the normalized values. Keys outside the schema are dropped. Violations are
// reported as *validation.Error keyed "custom_fields.<key>".
func (s *FormSchemaService) ValidateCustomFields(ctx context.Context, input map[string]interface{}) (map[string]interface{}, error) {
	fields, err := s.List(ctx, true)
	if err != nil {
		return nil, err
	}
	return validateCustomFields(fields, input)
}

func validateCustomFields(fields []models.FormField, input map[string]interface{}) (map[string]interface{}, error) {
	out := make(map[string]interface{}, len(fields))
	problems := make(map[string]string)

	for i := range fields {
		field := &fields[i]
		raw, present := input[field.FieldKey]
		name := "custom_fields." + field.FieldKey

		if !present || isBlank(raw) {
			if field.IsRequired {
				problems[name] = "is required"
			}
			continue
		}

		value, msg := normalizeFieldValue(field, raw)
		if msg != "" {
			problems[name] = msg
			continue
		}
		if field.FieldType == models.FieldTypeCheckbox && field.IsRequired && value == false {
			problems[name] = "must be checked"
			continue
		}
		out[field.FieldKey] = value
	}

	if len(problems) > 0 {
		return nil, &validation.Error{Fields: problems}
	}
	return out, nil
}

func isBlank(v interface{}) bool {
	switch val := v.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(val) == ""
	}
	return false
}

func normalizeFieldValue(field *models.FormField, raw interface{}) (interface{}, string) {
	switch field.FieldType {
	case models.FieldTypeText:
		s, ok := raw.(string)
		if !ok {
			return nil, "must be text"
		}
		return strings.TrimSpace(s), ""

	case models.FieldTypeNumber:
		var f float64
		switch n := raw.(type) {
		case float64:
			f = n
		case float32:
			f = float64(n)
		case int:
			f = float64(n)
		case int64:
			f = float64(n)
		case json.Number:
			parsed, err := n.Float64()
			if err != nil {
				return nil, "must be a number"
			}
			f = parsed
		case string:
			parsed, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
			if err != nil {
				return nil, "must be a number"
			}
			f = parsed
		default:
			return nil, "must be a number"
		}
		// NaN and infinities cannot be stored as JSON.
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return nil, "must be a finite number"
		}
		return f, ""

	case models.FieldTypeDropdown:
		s, ok := raw.(string)
		if !ok {
			return nil, "must be one of the listed options"
		}
		s = strings.TrimSpace(s)
		if !field.HasOption(s) {
			return nil, "must be one of: " + strings.Join(field.Options, ", ")
		}
		return s, ""

	case models.FieldTypeCheckbox:
		switch b := raw.(type) {
		case bool:
			return b, ""
		case string:
			switch strings.ToLower(strings.TrimSpace(b)) {
			case "true":
				return true, ""
			case "false":
				return false, ""
			}
		}
		return nil, "must be true or false"

	case models.FieldTypeFile:
		s, ok := raw.(string)
		if !ok || !isFileURL(strings.TrimSpace(s)) {
			return nil, "must be an uploaded file URL"
		}
		return strings.TrimSpace(s), ""
	}
	return nil, "has an unknown field type"
}

// isFileURL accepts absolute http(s) URLs and rooted paths served by the
// local storage backend.
func isFileURL(s string) bool {
	if s == "" {
		return false
	}
	if strings.HasPrefix(s, "/") && !strings.HasPrefix(s, "//") {
		return true
	}
	u, err := url.Parse(s)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

// GenerateFieldKey derives a storage key from a label: lowercase ASCII
// letters and digits joined by underscores.
func GenerateFieldKey(label string) string {
	key := nonAlphanumeric.ReplaceAllString(strings.ToLower(strings.TrimSpace(label)), "_")
	key = strings.Trim(key, "_")
	if len(key) > maxFieldKeyLength {
		key = strings.TrimRight(key[:maxFieldKeyLength], "_")
	}
	if key == "" {
		return "field"
	}
	if key[0] >= '0' && key[0] <= '9' {
		return "field_" + key
	}
	return key
}

func uniqueFieldKey(tx *gorm.DB, base string) (string, error) {
	candidate := base
	for n := 2; ; n++ {
		var count int64
		if err := tx.Model(&models.FormField{}).Where("field_key = ?", candidate).Count(&count).Error; err != nil {
			return "", err
		}
		if count == 0 {
			return candidate, nil
		}
		candidate = fmt.Sprintf("%s_%d", base, n)
	}
}

func normalizeOptions(fieldType string, options []string) ([]string, error) {
	if fieldType != models.FieldTypeDropdown {
		return nil, nil
	}
	cleaned := cleanList(options)
	if len(cleaned) == 0 {
		return nil, validation.NewError("options", "dropdown fields need at least one option")
	}
	return cleaned, nil
}
