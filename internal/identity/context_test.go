package identity

import (
	"io"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromToken(t *testing.T) {
	id := uuid.New()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": id.String(), "email": "a@b.io", "role": "admin",
	})

	claims, err := FromToken(token)
	require.NoError(t, err)
	assert.Equal(t, id, claims.UserID)
	assert.Equal(t, "a@b.io", claims.Email)
	assert.Equal(t, "admin", claims.Role)

	_, err = FromToken(jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"sub": "nope"}))
	assert.Error(t, err)
	_, err = FromToken(jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{}))
	assert.Error(t, err)
}

func TestGetUserID_WithoutToken(t *testing.T) {
	app := fiber.New()
	app.Get("/", func(c *fiber.Ctx) error {
		_, err := GetUserID(c)
		if err != nil {
			return c.SendString(err.Error())
		}
		return c.SendString("ok")
	})

	resp, err := app.Test(httptest.NewRequest("GET", "/", nil))
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	assert.Equal(t, ErrNoIdentity.Error(), string(body))
}
