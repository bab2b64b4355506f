package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	FieldTypeText     = "text"
	FieldTypeNumber   = "number"
	FieldTypeDropdown = "dropdown"
	FieldTypeCheckbox = "checkbox"
	FieldTypeFile     = "file"
)

func ValidFieldType(t string) bool {
	switch t {
	case FieldTypeText, FieldTypeNumber, FieldTypeDropdown, FieldTypeCheckbox, FieldTypeFile:
		return true
	}
	return false
}

// FormField describes one admin-defined input stored under CustomFields[FieldKey].
type FormField struct {
	ID           uuid.UUID                   `gorm:"type:uuid;primaryKey" json:"id"`
	Label        string                      `gorm:"size:255;not null" json:"label"`
	FieldKey     string                      `gorm:"size:120;not null;uniqueIndex" json:"field_key"`
	FieldType    string                      `gorm:"size:20;not null" json:"field_type"`
	IsRequired   bool                        `gorm:"default:false" json:"is_required"`
	Options      datatypes.JSONSlice[string] `json:"options"`
	DisplayOrder int                         `gorm:"default:0;index" json:"display_order"`
	IsActive     bool                        `gorm:"not null" json:"is_active"`
	CreatedAt    time.Time                   `json:"created_at"`
	UpdatedAt    time.Time                   `json:"updated_at"`
}

func (f *FormField) BeforeCreate(tx *gorm.DB) error {
	if f.ID == uuid.Nil {
		f.ID = uuid.New()
	}
	return nil
}

func (FormField) TableName() string {
	return "form_fields"
}

func (f *FormField) HasOption(value string) bool {
	for _, o := range f.Options {
		if o == value {
			return true
		}
	}
	return false
}
