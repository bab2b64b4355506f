package routes

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/starcast/talenthub/internal/config"
	"github.com/starcast/talenthub/internal/handlers"
	"github.com/starcast/talenthub/internal/middleware"
	"gorm.io/gorm"
)

// Handlers bundles every HTTP handler the API mounts.
type Handlers struct {
	Auth      *handlers.AuthHandler
	Health    *handlers.HealthHandler
	Settings  *handlers.SettingsHandler
	FormField *handlers.FormFieldHandler
	Talent    *handlers.TalentHandler
	Contact   *handlers.ContactHandler
	Feedback  *handlers.FeedbackHandler
	User      *handlers.UserHandler
	Realtime  *handlers.RealtimeHandler
}

func Setup(app *fiber.App, cfg *config.Config, db *gorm.DB, h Handlers) {
	api := app.Group("/api")

	// Health and the realtime stream sit outside the rate limiter.
	api.Get("/health", h.Health.Check)
	api.Get("/admin/realtime", h.Realtime.Authorize, h.Realtime.Stream())

	// General API rate limiter: 120 req/min per IP
	api.Use(limiter.New(limiter.Config{
		Max:               120,
		Expiration:        1 * time.Minute,
		LimiterMiddleware: limiter.SlidingWindow{},
		KeyGenerator:      func(c *fiber.Ctx) string { return c.IP() },
	}))

	// Public site data
	api.Get("/settings", h.Settings.GetPublic)
	api.Get("/form-fields", h.FormField.ListActive)
	api.Get("/talents", h.Talent.ListPublic)

	// Auth-specific rate limit: 10 req/min per IP (stricter)
	strict := limiter.New(limiter.Config{
		Max:               10,
		Expiration:        1 * time.Minute,
		LimiterMiddleware: limiter.SlidingWindow{},
		KeyGenerator:      func(c *fiber.Ctx) string { return c.IP() },
	})
	api.Post("/contact", strict, h.Contact.Submit)

	auth := api.Group("/auth")
	auth.Post("/register", strict, h.Auth.Register)
	auth.Post("/login", strict, h.Auth.Login)
	auth.Post("/refresh", strict, h.Auth.Refresh)

	// Protected routes (JWT required) - apply middleware to individual routes
	// so public routes under the same prefix stay open.
	jwt := middleware.JWTProtected(cfg)
	auth.Post("/logout", jwt, h.Auth.Logout)
	auth.Get("/me", jwt, h.Auth.Me)
	auth.Put("/password", jwt, h.Auth.ChangePassword)

	api.Post("/talents/me", jwt, h.Talent.RegisterMine)
	api.Get("/talents/me", jwt, h.Talent.GetMine)
	api.Put("/talents/me", jwt, h.Talent.UpdateMine)
	api.Post("/talents/me/photo", jwt, h.Talent.UploadMyPhoto)
	// Registered after /talents/me so "me" is not parsed as an id.
	api.Get("/talents/:id", h.Talent.GetPublic)

	api.Post("/uploads/custom-field/:key", jwt, h.Talent.UploadCustomFile)

	api.Get("/videos", jwt, h.Feedback.ListActive)
	api.Put("/videos/:id/feedback", jwt, h.Feedback.Submit)
	api.Delete("/videos/:id/feedback", jwt, h.Feedback.DeleteMine)

	// Admin back office (protected + admin required)
	admin := api.Group("/admin", jwt, middleware.AdminRequired(db, cfg))

	admin.Get("/talents", h.Talent.AdminList)
	admin.Post("/talents", h.Talent.AdminCreate)
	admin.Get("/talents/:id", h.Talent.AdminGet)
	admin.Put("/talents/:id", h.Talent.AdminUpdate)
	admin.Delete("/talents/:id", h.Talent.SoftDelete)
	admin.Put("/talents/:id/hidden", h.Talent.SetHidden)
	admin.Post("/talents/:id/restore", h.Talent.Restore)
	admin.Delete("/talents/:id/purge", h.Talent.Purge)
	admin.Post("/talents/:id/photo", h.Talent.AdminUploadPhoto)

	admin.Get("/form-fields", h.FormField.ListAll)
	admin.Post("/form-fields", h.FormField.Create)
	admin.Put("/form-fields/reorder", h.FormField.Reorder)
	admin.Get("/form-fields/:id", h.FormField.Get)
	admin.Put("/form-fields/:id", h.FormField.Update)
	admin.Delete("/form-fields/:id", h.FormField.Delete)

	admin.Get("/contacts", h.Contact.List)
	admin.Put("/contacts/:id", h.Contact.SetStatus)
	admin.Delete("/contacts/:id", h.Contact.Delete)

	admin.Get("/videos", h.Feedback.ListVideos)
	admin.Post("/videos", h.Feedback.CreateVideo)
	admin.Get("/videos/:id", h.Feedback.GetVideo)
	admin.Put("/videos/:id", h.Feedback.UpdateVideo)
	admin.Delete("/videos/:id", h.Feedback.DeleteVideo)
	admin.Get("/feedback", h.Feedback.ListFeedback)

	admin.Get("/users", h.User.List)
	admin.Put("/users/:id/role", h.User.SetRole)
	admin.Put("/users/:id/password", h.User.SetPassword)
	admin.Post("/users/:id/reset-password", h.User.ResetPassword)
	admin.Delete("/users/:id", h.User.Delete)
	admin.Get("/logs", h.User.ListLogs)
	admin.Get("/stats", h.User.Stats)

	// Site settings are visible on every public page; only super admins edit them.
	admin.Put("/settings/:key", middleware.SuperAdminRequired(), h.Settings.Set)
	admin.Delete("/settings/:key", middleware.SuperAdminRequired(), h.Settings.Delete)
}
