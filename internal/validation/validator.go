// Package validation wraps go-playground/validator with JSON field names and
// the domain enum rules used by request DTOs.
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/starcast/talenthub/internal/models"
)

// Error carries per-field messages keyed by the JSON field name.
type Error struct {
	Fields map[string]string
}

func (e *Error) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	msgs := make([]string, 0, len(keys))
	for _, k := range keys {
		msgs = append(msgs, fmt.Sprintf("%s: %s", k, e.Fields[k]))
	}
	return "validation failed: " + strings.Join(msgs, "; ")
}

// NewError builds an Error from a single field message.
func NewError(field, message string) *Error {
	return &Error{Fields: map[string]string{field: message}}
}

// AsError reports whether err is a validation Error and returns it.
func AsError(err error) (*Error, bool) {
	var ve *Error
	if errors.As(err, &ve) {
		return ve, true
	}
	return nil, false
}

type Validator struct {
	validate *validator.Validate
}

func New() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())

	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	mustRegister(v, "talent_category", func(fl validator.FieldLevel) bool {
		return fl.Field().String() == "" || models.ValidCategory(fl.Field().String())
	})
	mustRegister(v, "field_type", func(fl validator.FieldLevel) bool {
		return models.ValidFieldType(fl.Field().String())
	})
	mustRegister(v, "user_role", func(fl validator.FieldLevel) bool {
		return models.ValidRole(fl.Field().String())
	})
	mustRegister(v, "contact_status", func(fl validator.FieldLevel) bool {
		return models.ValidContactStatus(fl.Field().String())
	})

	return &Validator{validate: v}
}

func mustRegister(v *validator.Validate, tag string, fn validator.Func) {
	if err := v.RegisterValidation(tag, fn); err != nil {
		panic(fmt.Sprintf("register validation %q: %v", tag, err))
	}
}

// Struct validates s and returns *Error for rule violations.
func (v *Validator) Struct(s interface{}) error {
	err := v.validate.Struct(s)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}

	fields := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		fields[fe.Field()] = message(fe)
	}
	return &Error{Fields: fields}
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "min":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("must be at least %s characters", fe.Param())
		}
		if fe.Kind() == reflect.Slice {
			return fmt.Sprintf("must have at least %s items", fe.Param())
		}
		return fmt.Sprintf("must be at least %s", fe.Param())
	case "max":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("must be at most %s characters", fe.Param())
		}
		if fe.Kind() == reflect.Slice {
			return fmt.Sprintf("must have at most %s items", fe.Param())
		}
		return fmt.Sprintf("must be at most %s", fe.Param())
	case "oneof":
		return "must be one of: " + strings.ReplaceAll(fe.Param(), " ", ", ")
	case "url":
		return "must be a valid URL"
	case "e164":
		return "must be a phone number in international format"
	case "talent_category":
		return "must be one of: " + strings.Join(models.TalentCategories, ", ")
	case "field_type":
		return "must be one of: text, number, dropdown, checkbox, file"
	case "user_role":
		return "must be one of: user, admin, super_admin"
	case "contact_status":
		return "must be one of: new, read, archived"
	default:
		return fmt.Sprintf("failed on '%s' rule", fe.Tag())
	}
}
