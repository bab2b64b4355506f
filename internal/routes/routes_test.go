package routes

import (
	"bytes"
	"context"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/starcast/talenthub/internal/cache"
	"github.com/starcast/talenthub/internal/config"
	"github.com/starcast/talenthub/internal/dto"
	"github.com/starcast/talenthub/internal/handlers"
	"github.com/starcast/talenthub/internal/imaging"
	"github.com/starcast/talenthub/internal/mailer"
	"github.com/starcast/talenthub/internal/models"
	"github.com/starcast/talenthub/internal/realtime"
	"github.com/starcast/talenthub/internal/services"
	"github.com/starcast/talenthub/internal/storage"
	"github.com/starcast/talenthub/internal/testutil"
	"github.com/starcast/talenthub/internal/validation"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type nopMailer struct{}

func (nopMailer) Send(*mailer.Message) error { return nil }

type testEnv struct {
	app      *fiber.App
	db       *gorm.DB
	auth     *services.AuthService
	settings *services.SettingsService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db := testutil.NewDB(t)
	cfg := &config.Config{
		JWTSecret:        "routes-secret",
		JWTAccessExpiry:  15 * time.Minute,
		JWTRefreshExpiry: time.Hour,
		CacheTTL:         time.Minute,
		MaxUploadMB:      1,
	}
	store, err := storage.NewLocal(storage.Config{BasePath: t.TempDir()})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	hub := realtime.NewHub()
	go hub.Run(ctx)

	c := cache.NewMemory()
	filter := services.NewContentFilter()
	auth := services.NewAuthService(db, cfg)
	settings := services.NewSettingsService(db, c, cfg.CacheTTL, hub)
	schema := services.NewFormSchemaService(db, c, cfg.CacheTTL, hub)
	talents := services.NewTalentService(db, c, cfg.CacheTTL, hub, schema, store, imaging.NewProcessor(80, 64))
	contacts := services.NewContactService(db, filter, nopMailer{}, nil, hub)
	t.Cleanup(contacts.Wait)
	feedback := services.NewFeedbackService(db, filter, hub)
	users := services.NewUserAdminService(db, c, cfg.CacheTTL, hub)
	require.NoError(t, settings.SeedDefaults(ctx))

	v := validation.New()
	app := fiber.New()
	Setup(app, cfg, db, Handlers{
		Auth:      handlers.NewAuthHandler(auth, settings, v),
		Health:    handlers.NewHealthHandler(db),
		Settings:  handlers.NewSettingsHandler(settings, v),
		FormField: handlers.NewFormFieldHandler(schema, v),
		Talent:    handlers.NewTalentHandler(talents, v, cfg.MaxUploadMB),
		Contact:   handlers.NewContactHandler(contacts, v),
		Feedback:  handlers.NewFeedbackHandler(feedback, v),
		User:      handlers.NewUserHandler(users, v),
		Realtime:  handlers.NewRealtimeHandler(hub, auth, db, cfg),
	})

	return &testEnv{app: app, db: db, auth: auth, settings: settings}
}

// account registers a user with role and returns an access token for it.
func (e *testEnv) account(t *testing.T, email, role string) (string, *dto.UserResponse) {
	t.Helper()
	resp, err := e.auth.Register(&dto.RegisterRequest{Name: "Test " + role, Email: email, Password: "password123"})
	require.NoError(t, err)
	if role != models.RoleUser {
		require.NoError(t, e.db.Model(&models.User{}).Where("id = ?", resp.User.ID).Update("role", role).Error)
	}
	return resp.AccessToken, &resp.User
}

func (e *testEnv) do(t *testing.T, method, path, token string, body interface{}) *http.Response {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := e.app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

func decode(t *testing.T, resp *http.Response, dst interface{}) {
	t.Helper()
	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(dst))
}

func TestHealth(t *testing.T) {
	env := newTestEnv(t)

	resp := env.do(t, "GET", "/api/health", "", nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	var body dto.HealthResponse
	decode(t, resp, &body)
	assert.Equal(t, "ok", body.Status)
	assert.Equal(t, "ok", body.DB)
}

func TestAuthFlow(t *testing.T) {
	env := newTestEnv(t)

	resp := env.do(t, "POST", "/api/auth/register", "", map[string]string{
		"name": "Ana", "email": "Ana@X.io", "password": "password123",
	})
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	var session dto.AuthResponse
	decode(t, resp, &session)
	assert.Equal(t, "ana@x.io", session.User.Email)
	assert.Equal(t, models.RoleUser, session.User.Role)

	resp = env.do(t, "POST", "/api/auth/register", "", map[string]string{
		"name": "Ana", "email": "ana@x.io", "password": "password123",
	})
	assert.Equal(t, fiber.StatusConflict, resp.StatusCode)

	resp = env.do(t, "POST", "/api/auth/register", "", map[string]string{
		"name": "Bo", "email": "not-an-email", "password": "short",
	})
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	var invalid dto.ValidationErrorResponse
	decode(t, resp, &invalid)
	assert.Contains(t, invalid.Fields, "email")
	assert.Contains(t, invalid.Fields, "password")

	resp = env.do(t, "POST", "/api/auth/login", "", map[string]string{"email": "ana@x.io", "password": "wrong-password"})
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)

	assert.Equal(t, fiber.StatusUnauthorized, env.do(t, "GET", "/api/auth/me", "", nil).StatusCode)
	resp = env.do(t, "GET", "/api/auth/me", session.AccessToken, nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	var me dto.UserResponse
	decode(t, resp, &me)
	assert.Equal(t, session.User.ID, me.ID)

	resp = env.do(t, "PUT", "/api/auth/password", session.AccessToken, map[string]string{
		"current_password": "password123", "new_password": "new-password-1",
	})
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	resp = env.do(t, "POST", "/api/auth/refresh", "", map[string]string{"refresh_token": session.RefreshToken})
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode, "changing the password revokes older sessions")

	resp = env.do(t, "POST", "/api/auth/login", "", map[string]string{"email": "ana@x.io", "password": "new-password-1"})
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func TestRegistrationClosed(t *testing.T) {
	env := newTestEnv(t)
	_, err := env.settings.Set(context.Background(), "registration_open", "false", "bool")
	require.NoError(t, err)

	resp := env.do(t, "POST", "/api/auth/register", "", map[string]string{
		"name": "Ana", "email": "ana@x.io", "password": "password123",
	})
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)
}

func TestTalentRegistrationFlow(t *testing.T) {
	env := newTestEnv(t)
	adminToken, _ := env.account(t, "admin@x.io", models.RoleAdmin)
	userToken, _ := env.account(t, "ana@x.io", models.RoleUser)

	resp := env.do(t, "POST", "/api/admin/form-fields", adminToken, map[string]interface{}{
		"label": "Instagram Handle", "field_type": "text", "is_required": true,
	})
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	var field models.FormField
	decode(t, resp, &field)
	assert.Equal(t, "instagram_handle", field.FieldKey)

	resp = env.do(t, "GET", "/api/form-fields", "", nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	var fields []models.FormField
	decode(t, resp, &fields)
	assert.Len(t, fields, 1)

	profile := map[string]interface{}{
		"full_name": "Ana Lopez",
		"email":     "ana.private@x.io",
		"category":  models.CategoryOther,
		"city":      "Lisbon",
	}
	resp = env.do(t, "POST", "/api/talents/me", userToken, profile)
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	var invalid dto.ValidationErrorResponse
	decode(t, resp, &invalid)
	assert.Contains(t, invalid.Fields, "custom_fields.instagram_handle")

	profile["custom_fields"] = map[string]interface{}{"instagram_handle": "@ana", "unknown": "dropped"}
	resp = env.do(t, "POST", "/api/talents/me", userToken, profile)
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	var created models.TalentProfile
	decode(t, resp, &created)
	assert.Equal(t, "@ana", created.CustomFields["instagram_handle"])
	assert.NotContains(t, created.CustomFields, "unknown")

	assert.Equal(t, fiber.StatusConflict, env.do(t, "POST", "/api/talents/me", userToken, profile).StatusCode)
	assert.Equal(t, fiber.StatusOK, env.do(t, "GET", "/api/talents/me", userToken, nil).StatusCode)

	resp = env.do(t, "GET", "/api/talents?city=lisbon", "", nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	var list struct {
		Data  []map[string]interface{} `json:"data"`
		Total int64                    `json:"total"`
	}
	decode(t, resp, &list)
	require.Equal(t, int64(1), list.Total)
	assert.Equal(t, "Ana Lopez", list.Data[0]["full_name"])
	assert.NotContains(t, list.Data[0], "email", "public listing hides contact details")

	resp = env.do(t, "GET", "/api/talents/"+created.ID.String(), "", nil)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, fiber.StatusBadRequest, env.do(t, "GET", "/api/talents/not-a-uuid", "", nil).StatusCode)

	assert.Equal(t, fiber.StatusForbidden, env.do(t, "GET", "/api/admin/talents", userToken, nil).StatusCode)

	resp = env.do(t, "PUT", "/api/admin/talents/"+created.ID.String()+"/hidden", adminToken, map[string]bool{"hidden": true})
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	resp = env.do(t, "GET", "/api/talents", "", nil)
	decode(t, resp, &list)
	assert.Zero(t, list.Total)
	assert.Equal(t, fiber.StatusNotFound, env.do(t, "GET", "/api/talents/"+created.ID.String(), "", nil).StatusCode)

	resp = env.do(t, "DELETE", "/api/admin/talents/"+created.ID.String()+"/purge", adminToken, nil)
	assert.Equal(t, fiber.StatusConflict, resp.StatusCode, "only soft-deleted profiles can be purged")
	assert.Equal(t, fiber.StatusOK, env.do(t, "DELETE", "/api/admin/talents/"+created.ID.String(), adminToken, nil).StatusCode)
	assert.Equal(t, fiber.StatusNotFound, env.do(t, "GET", "/api/talents/me", userToken, nil).StatusCode)
	assert.Equal(t, fiber.StatusOK, env.do(t, "POST", "/api/admin/talents/"+created.ID.String()+"/restore", adminToken, nil).StatusCode)
	assert.Equal(t, fiber.StatusOK, env.do(t, "GET", "/api/talents/me", userToken, nil).StatusCode)
}

func multipartRequest(t *testing.T, path, token, field, filename string, content []byte, values map[string]string) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, err := w.CreateFormFile(field, filename)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	for k, v := range values {
		require.NoError(t, w.WriteField(k, v))
	}
	require.NoError(t, w.Close())

	req := httptest.NewRequest("POST", path, &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+token)
	return req
}

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: 120, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestPhotoUpload(t *testing.T) {
	env := newTestEnv(t)
	userToken, _ := env.account(t, "ana@x.io", models.RoleUser)

	resp := env.do(t, "POST", "/api/talents/me", userToken, map[string]interface{}{
		"full_name": "Ana", "category": models.CategoryOther,
	})
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)

	req := multipartRequest(t, "/api/talents/me/photo", userToken, "photo", "me.png", pngBytes(t, 200, 120),
		map[string]string{"box_x": "150", "box_y": "10", "box_width": "40", "box_height": "40"})
	resp, err := env.app.Test(req, -1)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	var profile models.TalentProfile
	decode(t, resp, &profile)
	assert.Contains(t, profile.PhotoURL, "/files/talents/photos/")
	assert.Contains(t, profile.ThumbnailURL, "/files/talents/thumbnails/")

	req = multipartRequest(t, "/api/talents/me/photo", userToken, "photo", "notes.txt", []byte("plain text, not an image"), nil)
	resp, err = env.app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnsupportedMediaType, resp.StatusCode)

	req = multipartRequest(t, "/api/talents/me/photo", userToken, "photo", "me.png", pngBytes(t, 10, 10),
		map[string]string{"box_x": "left"})
	resp, err = env.app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	req = multipartRequest(t, "/api/talents/me/photo", userToken, "photo", "big.png", make([]byte, 1<<20+1), nil)
	resp, err = env.app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusRequestEntityTooLarge, resp.StatusCode)
}

func TestContactSubmissions(t *testing.T) {
	env := newTestEnv(t)
	adminToken, _ := env.account(t, "admin@x.io", models.RoleAdmin)

	resp := env.do(t, "POST", "/api/contact", "", map[string]string{
		"name": "Client", "email": "client@x.io", "message": "We would like to book a dancer for May.",
	})
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)

	resp = env.do(t, "POST", "/api/contact", "", map[string]string{
		"name": "Bot", "email": "bot@x.io", "message": "cheap viagra at https://a.io https://b.io https://c.io",
	})
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	resp = env.do(t, "GET", "/api/admin/contacts?status=new", adminToken, nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	var list dto.ListResponse[models.ContactSubmission]
	decode(t, resp, &list)
	require.Equal(t, int64(1), list.Total)

	id := list.Data[0].ID.String()
	resp = env.do(t, "PUT", "/api/admin/contacts/"+id, adminToken, map[string]string{"status": "archived"})
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, fiber.StatusBadRequest, env.do(t, "GET", "/api/admin/contacts?status=spam", adminToken, nil).StatusCode)
	assert.Equal(t, fiber.StatusNoContent, env.do(t, "DELETE", "/api/admin/contacts/"+id, adminToken, nil).StatusCode)
	assert.Equal(t, fiber.StatusNotFound, env.do(t, "DELETE", "/api/admin/contacts/"+id, adminToken, nil).StatusCode)
}

func TestVideoFeedback(t *testing.T) {
	env := newTestEnv(t)
	adminToken, _ := env.account(t, "admin@x.io", models.RoleAdmin)
	userToken, _ := env.account(t, "ana@x.io", models.RoleUser)

	resp := env.do(t, "POST", "/api/admin/videos", adminToken, map[string]interface{}{
		"title": "Audition reel", "video_url": "https://cdn.x.io/reel.mp4",
	})
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	var video models.FeedbackVideo
	decode(t, resp, &video)

	path := "/api/videos/" + video.ID.String() + "/feedback"
	resp = env.do(t, "PUT", path, userToken, map[string]interface{}{"comment": "Loved the pacing", "rating": 5})
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	resp = env.do(t, "PUT", path, userToken, map[string]interface{}{"comment": "Visit www.spam.io/now", "rating": 1})
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	resp = env.do(t, "GET", "/api/videos", userToken, nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	var videos []dto.VideoWithFeedback
	decode(t, resp, &videos)
	require.Len(t, videos, 1)
	require.NotNil(t, videos[0].MyFeedback)
	assert.Equal(t, "Loved the pacing", videos[0].MyFeedback.Comment)

	resp = env.do(t, "GET", "/api/admin/feedback?video_id="+video.ID.String(), adminToken, nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	var feedback dto.ListResponse[dto.FeedbackResponse]
	decode(t, resp, &feedback)
	require.Equal(t, int64(1), feedback.Total)
	assert.Equal(t, "ana@x.io", feedback.Data[0].UserEmail)
	assert.Equal(t, fiber.StatusBadRequest, env.do(t, "GET", "/api/admin/feedback?video_id=x", adminToken, nil).StatusCode)

	assert.Equal(t, fiber.StatusNoContent, env.do(t, "DELETE", path, userToken, nil).StatusCode)
	assert.Equal(t, fiber.StatusNotFound, env.do(t, "DELETE", path, userToken, nil).StatusCode)
}

func TestUserAdministration(t *testing.T) {
	env := newTestEnv(t)
	adminToken, admin := env.account(t, "admin@x.io", models.RoleAdmin)
	superToken, _ := env.account(t, "super@x.io", models.RoleSuperAdmin)
	_, user := env.account(t, "ana@x.io", models.RoleUser)

	resp := env.do(t, "POST", "/api/admin/users/"+user.ID.String()+"/reset-password", adminToken, nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	var reset dto.ResetPasswordResponse
	decode(t, resp, &reset)
	assert.NotEmpty(t, reset.TemporaryPassword)

	resp = env.do(t, "POST", "/api/auth/login", "", map[string]string{"email": "ana@x.io", "password": reset.TemporaryPassword})
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	var session dto.AuthResponse
	decode(t, resp, &session)
	assert.True(t, session.User.MustChangePassword)

	resp = env.do(t, "PUT", "/api/admin/users/"+user.ID.String()+"/role", adminToken, map[string]string{"role": "admin"})
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)
	resp = env.do(t, "PUT", "/api/admin/users/"+admin.ID.String()+"/role", superToken, map[string]string{"role": "owner"})
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	assert.Equal(t, fiber.StatusBadRequest, env.do(t, "DELETE", "/api/admin/users/"+admin.ID.String(), adminToken, nil).StatusCode)

	resp = env.do(t, "GET", "/api/admin/logs?target_id="+user.ID.String(), adminToken, nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	var logs dto.ListResponse[models.AdminLog]
	decode(t, resp, &logs)
	require.Equal(t, int64(1), logs.Total)
	assert.Equal(t, models.AdminActionPasswordReset, logs.Data[0].Action)

	resp = env.do(t, "GET", "/api/admin/stats", adminToken, nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	var stats dto.StatsResponse
	decode(t, resp, &stats)
	assert.Equal(t, int64(3), stats.Users)
	assert.Equal(t, int64(2), stats.Admins)
}

func TestSettingsAdministration(t *testing.T) {
	env := newTestEnv(t)
	adminToken, _ := env.account(t, "admin@x.io", models.RoleAdmin)
	superToken, _ := env.account(t, "super@x.io", models.RoleSuperAdmin)

	body := map[string]string{"value": "Casting Week", "type": "string"}
	assert.Equal(t, fiber.StatusForbidden, env.do(t, "PUT", "/api/admin/settings/hero_title", adminToken, body).StatusCode)
	require.Equal(t, fiber.StatusOK, env.do(t, "PUT", "/api/admin/settings/hero_title", superToken, body).StatusCode)

	resp := env.do(t, "PUT", "/api/admin/settings/max_photo_mb", superToken, map[string]string{"value": "ten", "type": "int"})
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	resp = env.do(t, "GET", "/api/settings", "", nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	var settings map[string]interface{}
	decode(t, resp, &settings)
	assert.Equal(t, "Casting Week", settings["hero_title"])
	assert.Equal(t, true, settings["registration_open"])

	assert.Equal(t, fiber.StatusNoContent, env.do(t, "DELETE", "/api/admin/settings/hero_title", superToken, nil).StatusCode)
	assert.Equal(t, fiber.StatusNotFound, env.do(t, "DELETE", "/api/admin/settings/hero_title", superToken, nil).StatusCode)
}

func TestRealtimeRequiresUpgrade(t *testing.T) {
	env := newTestEnv(t)
	adminToken, _ := env.account(t, "admin@x.io", models.RoleAdmin)

	resp := env.do(t, "GET", "/api/admin/realtime?token="+adminToken, "", nil)
	assert.Equal(t, fiber.StatusUpgradeRequired, resp.StatusCode)
}
