package dto

import (
	"time"

	"github.com/google/uuid"
	"github.com/starcast/talenthub/internal/models"
)

// TalentProfileRequest is used for create and partial update. Nil fields are
// left unchanged on update.
type TalentProfileRequest struct {
	FullName        *string                `json:"full_name" validate:"omitempty,max=255"`
	Email           *string                `json:"email" validate:"omitempty,email,max=255"`
	Mobile          *string                `json:"mobile" validate:"omitempty,max=32"`
	Gender          *string                `json:"gender" validate:"omitempty,oneof=male female non_binary other"`
	DateOfBirth     *string                `json:"date_of_birth" validate:"omitempty,datetime=2006-01-02"`
	HeightCm        *int                   `json:"height_cm" validate:"omitempty,min=50,max=250"`
	WeightKg        *int                   `json:"weight_kg" validate:"omitempty,min=20,max=300"`
	City            *string                `json:"city" validate:"omitempty,max=100"`
	Country         *string                `json:"country" validate:"omitempty,max=100"`
	Category        *string                `json:"category" validate:"omitempty,talent_category"`
	Bio             *string                `json:"bio" validate:"omitempty,max=5000"`
	ExperienceYears *int                   `json:"experience_years" validate:"omitempty,min=0,max=80"`
	Skills          *[]string              `json:"skills" validate:"omitempty,max=30,dive,max=100"`
	Languages       *[]string              `json:"languages" validate:"omitempty,max=20,dive,max=60"`
	PortfolioLinks  *[]string              `json:"portfolio_links" validate:"omitempty,max=20,dive,url"`
	CustomFields    map[string]interface{} `json:"custom_fields"`
}

type SetHiddenRequest struct {
	Hidden *bool `json:"hidden" validate:"required"`
}

// TalentQuery filters the public listing.
type TalentQuery struct {
	Category string
	City     string
	Gender   string
	Search   string
	MinAge   int
	MaxAge   int
	Page     Page
}

// AdminTalentQuery extends TalentQuery with back-office visibility filters.
type AdminTalentQuery struct {
	TalentQuery
	IncludeHidden  bool
	IncludeDeleted bool
	Internal       *bool
}

// TalentPublicResponse is the profile as shown on public pages, without
// contact details.
type TalentPublicResponse struct {
	ID              uuid.UUID              `json:"id"`
	FullName        string                 `json:"full_name"`
	Gender          string                 `json:"gender"`
	Age             *int                   `json:"age"`
	HeightCm        *int                   `json:"height_cm"`
	WeightKg        *int                   `json:"weight_kg"`
	City            string                 `json:"city"`
	Country         string                 `json:"country"`
	Category        string                 `json:"category"`
	Bio             string                 `json:"bio"`
	ExperienceYears int                    `json:"experience_years"`
	Skills          []string               `json:"skills"`
	Languages       []string               `json:"languages"`
	PortfolioLinks  []string               `json:"portfolio_links"`
	PhotoURL        string                 `json:"photo_url"`
	ThumbnailURL    string                 `json:"thumbnail_url"`
	CustomFields    map[string]interface{} `json:"custom_fields"`
	CreatedAt       time.Time              `json:"created_at"`
}

func NewTalentPublicResponse(p *models.TalentProfile, now time.Time) TalentPublicResponse {
	resp := TalentPublicResponse{
		ID:              p.ID,
		FullName:        p.FullName,
		Gender:          p.Gender,
		HeightCm:        p.HeightCm,
		WeightKg:        p.WeightKg,
		City:            p.City,
		Country:         p.Country,
		Category:        p.Category,
		Bio:             p.Bio,
		ExperienceYears: p.ExperienceYears,
		Skills:          nonNil(p.Skills),
		Languages:       nonNil(p.Languages),
		PortfolioLinks:  nonNil(p.PortfolioLinks),
		PhotoURL:        p.PhotoURL,
		ThumbnailURL:    p.ThumbnailURL,
		CustomFields:    p.CustomFields,
		CreatedAt:       p.CreatedAt,
	}
	if age := p.Age(now); age >= 0 {
		resp.Age = &age
	}
	if resp.CustomFields == nil {
		resp.CustomFields = map[string]interface{}{}
	}
	return resp
}

type UploadResponse struct {
	URL string `json:"url"`
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
