package dto

import "github.com/google/uuid"

type CreateFormFieldRequest struct {
	Label        string   `json:"label" validate:"required,max=255"`
	FieldType    string   `json:"field_type" validate:"required,field_type"`
	IsRequired   bool     `json:"is_required"`
	Options      []string `json:"options" validate:"omitempty,max=100,dive,max=255"`
	DisplayOrder *int     `json:"display_order" validate:"omitempty,min=0"`
	IsActive     *bool    `json:"is_active"`
}

type UpdateFormFieldRequest struct {
	Label        *string   `json:"label" validate:"omitempty,min=1,max=255"`
	FieldType    *string   `json:"field_type" validate:"omitempty,field_type"`
	IsRequired   *bool     `json:"is_required"`
	Options      *[]string `json:"options" validate:"omitempty,max=100,dive,max=255"`
	DisplayOrder *int      `json:"display_order" validate:"omitempty,min=0"`
	IsActive     *bool     `json:"is_active"`
}

type ReorderFormFieldsRequest struct {
	IDs []uuid.UUID `json:"ids" validate:"required,min=1"`
}
