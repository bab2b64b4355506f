package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/starcast/talenthub/internal/cache"
	"github.com/starcast/talenthub/internal/models"
	"github.com/starcast/talenthub/internal/realtime"
	"github.com/starcast/talenthub/internal/validation"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var ErrSettingNotFound = errors.New("setting not found")

const (
	settingsCacheKey = "settings:public"
	settingsTable    = "site_settings"
)

// DefaultSettings are created on startup when missing. Existing values are
// never overwritten.
var DefaultSettings = []models.SiteSetting{
	{Key: "site_name", Value: "StarCast", Type: "string"},
	{Key: "contact_email", Value: "", Type: "string"},
	{Key: "contact_phone", Value: "", Type: "string"},
	{Key: "hero_title", Value: "Find your next star", Type: "string"},
	{Key: "hero_subtitle", Value: "Models, actors, dancers, singers and creators in one place", Type: "string"},
	{Key: "registration_open", Value: "true", Type: "bool"},
	{Key: "max_photo_mb", Value: "10", Type: "int"},
	{Key: "social_links", Value: "{}", Type: "json"},
}

type SettingsService struct {
	db   *gorm.DB
	feed changeFeed
}

func NewSettingsService(db *gorm.DB, c cache.Cache, ttl time.Duration, pub realtime.Publisher) *SettingsService {
	return &SettingsService{db: db, feed: newChangeFeed(c, ttl, pub)}
}

// Public returns every setting decoded to its declared type.
func (s *SettingsService) Public(ctx context.Context) (map[string]interface{}, error) {
	var cached map[string]interface{}
	if s.feed.load(ctx, settingsCacheKey, &cached) {
		return cached, nil
	}

	var settings []models.SiteSetting
	if err := s.db.WithContext(ctx).Find(&settings).Error; err != nil {
		return nil, fmt.Errorf("failed to load settings: %w", err)
	}

	result := make(map[string]interface{}, len(settings))
	for _, st := range settings {
		result[st.Key] = decodeSetting(st)
	}

	s.feed.store(ctx, settingsCacheKey, result)
	return result, nil
}

func (s *SettingsService) Set(ctx context.Context, key, value, typ string) (*models.SiteSetting, error) {
	if key == "" {
		return nil, validation.NewError("key", "is required")
	}
	if typ == "" {
		typ = "string"
	}
	if err := checkSettingValue(value, typ); err != nil {
		return nil, err
	}

	setting := models.SiteSetting{Key: key, Value: value, Type: typ}
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "type", "updated_at"}),
	}).Create(&setting).Error
	if err != nil {
		return nil, fmt.Errorf("failed to save setting: %w", err)
	}

	// The conflicting row keeps its original ID.
	var stored models.SiteSetting
	if err := s.db.WithContext(ctx).First(&stored, "key = ?", key).Error; err != nil {
		return nil, err
	}
	s.feed.changed(ctx, settingsCacheKey, settingsTable, realtime.ActionUpdate, stored.ID)
	return &stored, nil
}

func (s *SettingsService) Delete(ctx context.Context, key string) error {
	result := s.db.WithContext(ctx).Where("key = ?", key).Delete(&models.SiteSetting{})
	if result.Error != nil {
		return fmt.Errorf("failed to delete setting: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrSettingNotFound
	}
	s.feed.changed(ctx, settingsCacheKey, settingsTable, realtime.ActionDelete, uuid.Nil)
	return nil
}

func (s *SettingsService) SeedDefaults(ctx context.Context) error {
	for _, def := range DefaultSettings {
		setting := def
		err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "key"}},
			DoNothing: true,
		}).Create(&setting).Error
		if err != nil {
			return fmt.Errorf("failed to seed setting %s: %w", def.Key, err)
		}
	}
	return s.feed.cache.DeletePrefix(ctx, settingsCacheKey)
}

func checkSettingValue(value, typ string) error {
	switch typ {
	case "string":
		return nil
	case "bool":
		if _, err := strconv.ParseBool(value); err != nil {
			return validation.NewError("value", "must be true or false")
		}
	case "int":
		if _, err := strconv.Atoi(value); err != nil {
			return validation.NewError("value", "must be an integer")
		}
	case "json":
		if !json.Valid([]byte(value)) {
			return validation.NewError("value", "must be valid JSON")
		}
	default:
		return validation.NewError("type", "must be one of: string, bool, int, json")
	}
	return nil
}

func decodeSetting(st models.SiteSetting) interface{} {
	var value interface{}
	switch st.Type {
	case "bool":
		value, _ = strconv.ParseBool(st.Value)
	case "int":
		value, _ = strconv.Atoi(st.Value)
	case "json":
		if err := json.Unmarshal([]byte(st.Value), &value); err != nil {
			value = nil
		}
	default:
		value = st.Value
	}
	return value
}
