package handlers

import (
	"strings"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/starcast/talenthub/internal/config"
	"github.com/starcast/talenthub/internal/dto"
	"github.com/starcast/talenthub/internal/models"
	"github.com/starcast/talenthub/internal/realtime"
	"github.com/starcast/talenthub/internal/services"
	"gorm.io/gorm"
)

const realtimeUserKey = "realtime_user_id"

// RealtimeHandler streams change events to admin dashboards. Browsers cannot
// set headers on a websocket handshake, so the access token travels in the
// token query parameter.
type RealtimeHandler struct {
	hub         *realtime.Hub
	authService *services.AuthService
	db          *gorm.DB
	adminEmails []string
}

func NewRealtimeHandler(hub *realtime.Hub, authService *services.AuthService, db *gorm.DB, cfg *config.Config) *RealtimeHandler {
	return &RealtimeHandler{
		hub:         hub,
		authService: authService,
		db:          db,
		adminEmails: config.ParseCSV(strings.ToLower(cfg.AdminEmails)),
	}
}

// Authorize runs before the upgrade and rejects non-admin callers.
func (h *RealtimeHandler) Authorize(c *fiber.Ctx) error {
	if !websocket.IsWebSocketUpgrade(c) {
		return c.Status(fiber.StatusUpgradeRequired).JSON(dto.ErrorResponse{
			Error: true, Message: "WebSocket upgrade required",
		})
	}

	token := strings.TrimSpace(c.Query("token"))
	if token == "" {
		token = strings.TrimSpace(strings.TrimPrefix(c.Get(fiber.HeaderAuthorization), "Bearer "))
	}
	claims, err := h.authService.ParseAccessToken(token)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
			Error: true, Message: "Invalid or expired token",
		})
	}

	var user models.User
	if err := h.db.WithContext(c.UserContext()).First(&user, "id = ?", claims.UserID).Error; err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
			Error: true, Message: "Invalid or expired token",
		})
	}
	if !user.IsAdmin() && !isListed(h.adminEmails, user.Email) {
		return c.Status(fiber.StatusForbidden).JSON(dto.ErrorResponse{
			Error: true, Message: "Admin access required",
		})
	}

	c.Locals(realtimeUserKey, user.ID)
	return c.Next()
}

func (h *RealtimeHandler) Stream() fiber.Handler {
	return websocket.New(func(conn *websocket.Conn) {
		userID, _ := conn.Locals(realtimeUserKey).(uuid.UUID)
		client := realtime.NewClient(h.hub, conn, userID)

		h.hub.Register(client)
		go client.WritePump()
		client.ReadPump()
	})
}

func isListed(list []string, val string) bool {
	for _, item := range list {
		if item == val {
			return true
		}
	}
	return false
}
