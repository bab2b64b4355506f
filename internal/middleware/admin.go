package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/starcast/talenthub/internal/config"
	"github.com/starcast/talenthub/internal/dto"
	"github.com/starcast/talenthub/internal/identity"
	"github.com/starcast/talenthub/internal/models"
	"gorm.io/gorm"
)

// RoleLocalsKey holds the caller's current role once an admin check passed.
const RoleLocalsKey = "role"

// AdminRequired lets through callers listed in ADMIN_EMAILS or whose stored
// role is admin or super_admin. The role is read from the database so a
// demotion takes effect before the access token expires.
func AdminRequired(db *gorm.DB, cfg *config.Config) fiber.Handler {
	adminEmails := config.ParseCSV(strings.ToLower(cfg.AdminEmails))

	return func(c *fiber.Ctx) error {
		claims, err := identity.FromContext(c)
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
				Error: true, Message: "Unauthorized",
			})
		}

		var user models.User
		if err := db.WithContext(c.UserContext()).First(&user, "id = ?", claims.UserID).Error; err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
				Error: true, Message: "Unauthorized",
			})
		}

		if user.IsAdmin() || contains(adminEmails, user.Email) {
			c.Locals(RoleLocalsKey, user.Role)
			return c.Next()
		}

		return c.Status(fiber.StatusForbidden).JSON(dto.ErrorResponse{
			Error: true, Message: "Admin access required",
		})
	}
}

// SuperAdminRequired must run after AdminRequired.
func SuperAdminRequired() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if role, _ := c.Locals(RoleLocalsKey).(string); role == models.RoleSuperAdmin {
			return c.Next()
		}
		return c.Status(fiber.StatusForbidden).JSON(dto.ErrorResponse{
			Error: true, Message: "Super admin access required",
		})
	}
}

func contains(list []string, val string) bool {
	for _, item := range list {
		if item == val {
			return true
		}
	}
	return false
}
