package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	CategoryModel      = "model"
	CategoryActor      = "actor"
	CategoryDancer     = "dancer"
	CategorySinger     = "singer"
	CategoryInfluencer = "influencer"
	CategoryAnchor     = "anchor"
	CategoryOther      = "other"
)

var TalentCategories = []string{
	CategoryModel, CategoryActor, CategoryDancer, CategorySinger,
	CategoryInfluencer, CategoryAnchor, CategoryOther,
}

func ValidCategory(category string) bool {
	for _, c := range TalentCategories {
		if c == category {
			return true
		}
	}
	return false
}

// TalentProfile is a performer listing. UserID is nil for internal profiles
// entered by admins on behalf of talent without an account.
type TalentProfile struct {
	ID              uuid.UUID                   `gorm:"type:uuid;primaryKey" json:"id"`
	UserID          *uuid.UUID                  `gorm:"type:uuid;uniqueIndex" json:"user_id"`
	IsInternal      bool                        `gorm:"default:false;index" json:"is_internal"`
	FullName        string                      `gorm:"size:255;not null" json:"full_name"`
	Email           string                      `gorm:"size:255" json:"email"`
	Mobile          string                      `gorm:"size:32" json:"mobile"`
	Gender          string                      `gorm:"size:20" json:"gender"`
	DateOfBirth     *time.Time                  `json:"date_of_birth"`
	HeightCm        *int                        `json:"height_cm"`
	WeightKg        *int                        `json:"weight_kg"`
	City            string                      `gorm:"size:100;index" json:"city"`
	Country         string                      `gorm:"size:100" json:"country"`
	Category        string                      `gorm:"size:30;not null;index" json:"category"`
	Bio             string                      `gorm:"type:text" json:"bio"`
	ExperienceYears int                         `gorm:"default:0" json:"experience_years"`
	Skills          datatypes.JSONSlice[string] `json:"skills"`
	Languages       datatypes.JSONSlice[string] `json:"languages"`
	PortfolioLinks  datatypes.JSONSlice[string] `json:"portfolio_links"`
	PhotoURL        string                      `gorm:"type:text" json:"photo_url"`
	ThumbnailURL    string                      `gorm:"type:text" json:"thumbnail_url"`
	CustomFields    datatypes.JSONMap           `json:"custom_fields"`
	IsHidden        bool                        `gorm:"default:false;index" json:"is_hidden"`
	DeletedAt       *time.Time                  `gorm:"index" json:"deleted_at"`
	CreatedAt       time.Time                   `json:"created_at"`
	UpdatedAt       time.Time                   `json:"updated_at"`
}

func (p *TalentProfile) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

func (TalentProfile) TableName() string {
	return "talent_profiles"
}

// IsPublic reports whether the profile may be shown on public listings.
func (p *TalentProfile) IsPublic() bool {
	return !p.IsHidden && p.DeletedAt == nil
}

// Age returns the age in whole years at now, or -1 when no birth date is set.
func (p *TalentProfile) Age(now time.Time) int {
	if p.DateOfBirth == nil {
		return -1
	}
	dob := *p.DateOfBirth
	age := now.Year() - dob.Year()
	if now.Month() < dob.Month() || (now.Month() == dob.Month() && now.Day() < dob.Day()) {
		age--
	}
	return age
}

// PublicTalents limits a query to profiles visible on public pages.
func PublicTalents(db *gorm.DB) *gorm.DB {
	return db.Where("is_hidden = ? AND deleted_at IS NULL", false)
}
