package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/starcast/talenthub/internal/dto"
	"github.com/starcast/talenthub/internal/imaging"
	"github.com/starcast/talenthub/internal/services"
	"github.com/starcast/talenthub/internal/validation"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRespondError(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		status  int
		message string
	}{
		{"validation", validation.NewError("email", "is required"), fiber.StatusBadRequest, "Validation failed"},
		{"wrapped sentinel", fmt.Errorf("%w: 123", services.ErrFormFieldNotFound), fiber.StatusNotFound, "form field not found: 123"},
		{"conflict", services.ErrEmailTaken, fiber.StatusConflict, services.ErrEmailTaken.Error()},
		{"content rejected", fmt.Errorf("%w: %s", services.ErrContentRejected, services.ReasonSpam), fiber.StatusBadRequest, "content rejected: spam_detected"},
		{"unsupported image", fmt.Errorf("%w: 9000x9000 exceeds 40000000 pixels", imaging.ErrUnsupportedImage), fiber.StatusUnsupportedMediaType, "unsupported or corrupt image: 9000x9000 exceeds 40000000 pixels"},
		{"forbidden", services.ErrSuperAdminRequired, fiber.StatusForbidden, services.ErrSuperAdminRequired.Error()},
		{"unknown", errors.New("connection reset"), fiber.StatusInternalServerError, "Internal server error"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := fiber.New()
			app.Get("/", func(c *fiber.Ctx) error { return respondError(c, tt.err) })

			resp, err := app.Test(httptest.NewRequest("GET", "/", nil))
			require.NoError(t, err)
			assert.Equal(t, tt.status, resp.StatusCode)

			var body dto.ValidationErrorResponse
			require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
			assert.True(t, body.Error)
			assert.Equal(t, tt.message, body.Message)
		})
	}
}

func TestBindJSON(t *testing.T) {
	v := validation.New()
	app := fiber.New()
	app.Post("/", func(c *fiber.Ctx) error {
		var req dto.LoginRequest
		if err := bindJSON(c, v, &req); err != nil {
			return respondError(c, err)
		}
		return c.SendString(req.Email)
	})

	post := func(body string) int {
		req := httptest.NewRequest("POST", "/", strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		resp, err := app.Test(req)
		require.NoError(t, err)
		return resp.StatusCode
	}

	assert.Equal(t, fiber.StatusOK, post(`{"email":"a@x.io","password":"p"}`))
	assert.Equal(t, fiber.StatusBadRequest, post(`{"email":`))
	assert.Equal(t, fiber.StatusBadRequest, post(`{"email":"a@x.io"}`))
}

func TestTalentQuery(t *testing.T) {
	tests := []struct {
		query string
		ok    bool
	}{
		{"category=actor&min_age=18&max_age=30&limit=500", true},
		{"category=astronaut", false},
		{"min_age=-1", false},
		{"min_age=40&max_age=30", false},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			app := fiber.New()
			var got dto.TalentQuery
			app.Get("/", func(c *fiber.Ctx) error {
				q, err := talentQuery(c)
				if err != nil {
					return respondError(c, err)
				}
				got = q
				return c.SendStatus(fiber.StatusNoContent)
			})

			resp, err := app.Test(httptest.NewRequest("GET", "/?"+tt.query, nil))
			require.NoError(t, err)
			if !tt.ok {
				assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
				return
			}
			assert.Equal(t, fiber.StatusNoContent, resp.StatusCode)
			assert.Equal(t, dto.MaxPageLimit, got.Page.Limit)
			assert.Equal(t, 18, got.MinAge)
		})
	}
}
