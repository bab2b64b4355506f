package validation

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sample struct {
	Name     string   `json:"name" validate:"required,min=2"`
	Email    string   `json:"email" validate:"required,email"`
	Category string   `json:"category" validate:"talent_category"`
	Type     string   `json:"field_type" validate:"omitempty,field_type"`
	Links    []string `json:"links" validate:"max=2,dive,url"`
}

func TestStruct_Valid(t *testing.T) {
	v := New()
	err := v.Struct(sample{Name: "Ana", Email: "ana@x.io", Category: "actor", Type: "dropdown", Links: []string{"https://a.io"}})
	assert.NoError(t, err)
}

func TestStruct_FieldMessages(t *testing.T) {
	v := New()
	err := v.Struct(sample{Name: "A", Email: "nope", Category: "juggler", Type: "date", Links: []string{"a", "b", "c"}})
	require.Error(t, err)

	ve, ok := AsError(err)
	require.True(t, ok)
	assert.Equal(t, "must be at least 2 characters", ve.Fields["name"])
	assert.Equal(t, "must be a valid email address", ve.Fields["email"])
	assert.Contains(t, ve.Fields["category"], "must be one of")
	assert.Contains(t, ve.Fields["field_type"], "dropdown")
	assert.Equal(t, "must have at most 2 items", ve.Fields["links"])
	assert.Contains(t, err.Error(), "validation failed")
}

func TestAsError(t *testing.T) {
	_, ok := AsError(errors.New("plain"))
	assert.False(t, ok)

	wrapped := errors.Join(errors.New("ctx"), NewError("x", "bad"))
	ve, ok := AsError(wrapped)
	require.True(t, ok)
	assert.Equal(t, "bad", ve.Fields["x"])
}
