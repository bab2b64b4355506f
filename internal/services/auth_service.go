package services

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/starcast/talenthub/internal/config"
	"github.com/starcast/talenthub/internal/dto"
	"github.com/starcast/talenthub/internal/identity"
	"github.com/starcast/talenthub/internal/models"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

var (
	ErrEmailTaken         = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrInvalidToken       = errors.New("invalid or expired refresh token")
	ErrInvalidAccessToken = errors.New("invalid or expired access token")
	ErrUserNotFound       = errors.New("user not found")
	ErrWeakPassword       = errors.New("password must be at least 8 characters")
	ErrWrongPassword      = errors.New("current password is incorrect")
)

const minPasswordLength = 8

type AuthService struct {
	db  *gorm.DB
	cfg *config.Config
}

func NewAuthService(db *gorm.DB, cfg *config.Config) *AuthService {
	return &AuthService{db: db, cfg: cfg}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (s *AuthService) Register(req *dto.RegisterRequest) (*dto.AuthResponse, error) {
	email := normalizeEmail(req.Email)
	if email == "" {
		return nil, errors.New("email is required")
	}
	if len(req.Password) < minPasswordLength {
		return nil, ErrWeakPassword
	}

	var count int64
	if err := s.db.Unscoped().Model(&models.User{}).Where("email = ?", email).Count(&count).Error; err != nil {
		return nil, fmt.Errorf("failed to check email: %w", err)
	}
	if count > 0 {
		return nil, ErrEmailTaken
	}

	hash, err := hashPassword(req.Password)
	if err != nil {
		return nil, err
	}

	user := models.User{
		Name:     strings.TrimSpace(req.Name),
		Email:    email,
		Mobile:   strings.TrimSpace(req.Mobile),
		Password: hash,
		Role:     models.RoleUser,
	}
	if err := s.db.Create(&user).Error; err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	return s.generateTokenPair(s.db, &user)
}

func (s *AuthService) Login(req *dto.LoginRequest) (*dto.AuthResponse, error) {
	var user models.User
	if err := s.db.Where("email = ?", normalizeEmail(req.Email)).First(&user).Error; err != nil {
		return nil, ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	return s.generateTokenPair(s.db, &user)
}

func (s *AuthService) Refresh(req *dto.RefreshRequest) (*dto.AuthResponse, error) {
	tokenHash := hashToken(req.RefreshToken)

	var stored models.RefreshToken
	if err := s.db.Where("token_hash = ? AND revoked = ?", tokenHash, false).First(&stored).Error; err != nil {
		return nil, ErrInvalidToken
	}

	// Only the request that flips revoked may rotate the token.
	result := s.db.Model(&models.RefreshToken{}).
		Where("id = ? AND revoked = ?", stored.ID, false).
		Update("revoked", true)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to revoke refresh token: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return nil, ErrInvalidToken
	}
	if time.Now().After(stored.ExpiresAt) {
		return nil, ErrInvalidToken
	}

	var user models.User
	if err := s.db.First(&user, "id = ?", stored.UserID).Error; err != nil {
		return nil, ErrInvalidToken
	}

	return s.generateTokenPair(s.db, &user)
}

func (s *AuthService) Logout(req *dto.LogoutRequest) error {
	return s.db.Model(&models.RefreshToken{}).
		Where("token_hash = ?", hashToken(req.RefreshToken)).
		Update("revoked", true).Error
}

func (s *AuthService) Me(userID uuid.UUID) (*dto.UserResponse, error) {
	var user models.User
	if err := s.db.First(&user, "id = ?", userID).Error; err != nil {
		return nil, ErrUserNotFound
	}
	resp := dto.NewUserResponse(&user)
	return &resp, nil
}

// ChangePassword replaces the caller's password, signs out every other
// session and returns a fresh token pair for the current one.
func (s *AuthService) ChangePassword(userID uuid.UUID, req *dto.ChangePasswordRequest) (*dto.AuthResponse, error) {
	if len(req.NewPassword) < minPasswordLength {
		return nil, ErrWeakPassword
	}

	var user models.User
	if err := s.db.First(&user, "id = ?", userID).Error; err != nil {
		return nil, ErrUserNotFound
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.CurrentPassword)); err != nil {
		return nil, ErrWrongPassword
	}

	hash, err := hashPassword(req.NewPassword)
	if err != nil {
		return nil, err
	}

	var resp *dto.AuthResponse
	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := storePassword(tx, &user, hash, false); err != nil {
			return err
		}
		if err := writeAdminLog(tx, user.ID, &user.ID, models.AdminActionPasswordSet, "password changed by account owner"); err != nil {
			return err
		}
		var err error
		resp, err = s.generateTokenPair(tx, &user)
		return err
	})
	if err != nil {
		return nil, err
	}
	return resp, nil
}

// ParseAccessToken validates an access token outside the JWT middleware,
// e.g. one passed as a websocket query parameter.
func (s *AuthService) ParseAccessToken(raw string) (*identity.Claims, error) {
	token, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
		return []byte(s.cfg.JWTSecret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || !token.Valid {
		return nil, ErrInvalidAccessToken
	}
	claims, err := identity.FromToken(token)
	if err != nil {
		return nil, ErrInvalidAccessToken
	}
	return claims, nil
}

// EnsureSuperAdmin creates the bootstrap super admin, or promotes an
// existing account with that email. Existing passwords are never replaced.
func (s *AuthService) EnsureSuperAdmin(email, password string) error {
	email = normalizeEmail(email)
	if email == "" {
		return nil
	}

	var user models.User
	err := s.db.Where("email = ?", email).First(&user).Error
	if err == nil {
		if user.Role == models.RoleSuperAdmin {
			return nil
		}
		slog.Info("promoting bootstrap account to super admin", "user_id", user.ID)
		return s.db.Model(&user).Update("role", models.RoleSuperAdmin).Error
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("failed to look up super admin: %w", err)
	}

	if len(password) < minPasswordLength {
		return fmt.Errorf("SUPER_ADMIN_PASSWORD: %w", ErrWeakPassword)
	}
	hash, err := hashPassword(password)
	if err != nil {
		return err
	}

	user = models.User{
		Name:               "Super Admin",
		Email:              email,
		Password:           hash,
		Role:               models.RoleSuperAdmin,
		MustChangePassword: true,
	}
	if err := s.db.Create(&user).Error; err != nil {
		return fmt.Errorf("failed to create super admin: %w", err)
	}
	slog.Info("bootstrap super admin created", "user_id", user.ID)
	return nil
}

func (s *AuthService) generateTokenPair(db *gorm.DB, user *models.User) (*dto.AuthResponse, error) {
	accessToken, err := s.generateAccessToken(user)
	if err != nil {
		return nil, err
	}

	refreshToken, err := s.generateRefreshToken(db, user)
	if err != nil {
		return nil, err
	}

	return &dto.AuthResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		User:         dto.NewUserResponse(user),
	}, nil
}

func (s *AuthService) generateAccessToken(user *models.User) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"sub":   user.ID.String(),
		"email": user.Email,
		"role":  user.Role,
		"iat":   now.Unix(),
		"exp":   now.Add(s.cfg.JWTAccessExpiry).Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.cfg.JWTSecret))
}

func (s *AuthService) generateRefreshToken(db *gorm.DB, user *models.User) (string, error) {
	rawBytes := make([]byte, 32)
	if _, err := rand.Read(rawBytes); err != nil {
		return "", fmt.Errorf("failed to generate random bytes: %w", err)
	}

	rawToken := base64.URLEncoding.EncodeToString(rawBytes)
	record := models.RefreshToken{
		UserID:    user.ID,
		TokenHash: hashToken(rawToken),
		ExpiresAt: time.Now().Add(s.cfg.JWTRefreshExpiry),
	}

	if err := db.Create(&record).Error; err != nil {
		return "", fmt.Errorf("failed to store refresh token: %w", err)
	}

	return rawToken, nil
}

func hashToken(token string) string {
	h := sha256.Sum256([]byte(token))
	return fmt.Sprintf("%x", h)
}

func hashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hash), nil
}

// storePassword saves a new hash and revokes every refresh token of the user.
func storePassword(tx *gorm.DB, user *models.User, hash string, mustChange bool) error {
	if err := tx.Model(user).Updates(map[string]interface{}{
		"password":             hash,
		"must_change_password": mustChange,
	}).Error; err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}
	user.Password = hash
	user.MustChangePassword = mustChange

	if err := tx.Model(&models.RefreshToken{}).
		Where("user_id = ? AND revoked = ?", user.ID, false).
		Update("revoked", true).Error; err != nil {
		return fmt.Errorf("failed to revoke sessions: %w", err)
	}
	return nil
}

func writeAdminLog(tx *gorm.DB, adminID uuid.UUID, target *uuid.UUID, action, details string) error {
	entry := models.AdminLog{
		AdminID:      adminID,
		TargetUserID: target,
		Action:       action,
		Details:      details,
	}
	if err := tx.Create(&entry).Error; err != nil {
		return fmt.Errorf("failed to write admin log: %w", err)
	}
	return nil
}
