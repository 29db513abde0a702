package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/assetcatalog/backend/internal/config"
	"github.com/assetcatalog/backend/internal/models"
	"github.com/assetcatalog/backend/pkg/crypto"
	jwtpkg "github.com/assetcatalog/backend/pkg/jwt"
	"github.com/assetcatalog/backend/pkg/validation"
)

const blacklistKeyPrefix = "blacklist:token:"

type RegisterInput struct {
	Email    string `json:"email" binding:"required,email,max=255"`
	Name     string `json:"name" binding:"required,min=2,max=100"`
	Password string `json:"password" binding:"required,min=8,max=128"`
}

type LoginInput struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// TokenPair is issued on login.
type TokenPair struct {
	AccessToken  string       `json:"access_token"`
	RefreshToken string       `json:"refresh_token"`
	User         *models.User `json:"user"`
}

type AuthService struct {
	db    *gorm.DB
	redis *redis.Client
	cfg   *config.Config
}

// NewAuthService wires the session service. rdb may be nil, in which case
// logout only revokes refresh tokens.
func NewAuthService(db *gorm.DB, rdb *redis.Client, cfg *config.Config) *AuthService {
	return &AuthService{
		db:    db,
		redis: rdb,
		cfg:   cfg,
	}
}

// Register creates a new EMPLOYEE account.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*models.User, error) {
	in.Email = normalizeEmail(in.Email)
	if err := validateInput(in); err != nil {
		return nil, err
	}
	if !validation.ValidatePassword(in.Password) {
		return nil, NewValidationError("password", "must contain at least one letter and one digit")
	}

	var count int64
	if err := s.db.WithContext(ctx).Model(&models.User{}).Where("email = ?", in.Email).Count(&count).Error; err != nil {
		return nil, fmt.Errorf("check email: %w", err)
	}
	if count > 0 {
		return nil, ErrEmailTaken
	}

	hashedPassword, err := crypto.HashPassword(in.Password, s.cfg.BcryptCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &models.User{
		Email:    in.Email,
		Name:     validation.SanitizeString(in.Name),
		Password: hashedPassword,
		Role:     models.RoleEmployee,
	}
	if err := s.db.WithContext(ctx).Create(user).Error; err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}

	return user, nil
}

// Login authenticates a user and returns an access and a refresh token.
func (s *AuthService) Login(ctx context.Context, in LoginInput) (*TokenPair, error) {
	in.Email = normalizeEmail(in.Email)
	if err := validateInput(in); err != nil {
		return nil, err
	}

	var user models.User
	if err := s.db.WithContext(ctx).Where("email = ?", in.Email).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("find user: %w", err)
	}

	if !crypto.CheckPassword(in.Password, user.Password) {
		return nil, ErrInvalidCredentials
	}

	accessToken, err := jwtpkg.GenerateToken(user.ID.String(), string(user.Role), jwtpkg.AccessToken, s.cfg.JWTSecret, s.cfg.JWTAccessTokenDuration)
	if err != nil {
		return nil, fmt.Errorf("sign access token: %w", err)
	}

	refreshToken, err := jwtpkg.GenerateToken(user.ID.String(), string(user.Role), jwtpkg.RefreshToken, s.cfg.JWTSecret, s.cfg.JWTRefreshTokenDuration)
	if err != nil {
		return nil, fmt.Errorf("sign refresh token: %w", err)
	}

	refreshTokenModel := &models.RefreshToken{
		UserID:    user.ID,
		Token:     refreshToken,
		ExpiresAt: time.Now().Add(s.cfg.JWTRefreshTokenDuration),
	}
	if err := s.db.WithContext(ctx).Create(refreshTokenModel).Error; err != nil {
		return nil, fmt.Errorf("store refresh token: %w", err)
	}

	return &TokenPair{AccessToken: accessToken, RefreshToken: refreshToken, User: &user}, nil
}

// RefreshToken exchanges a stored refresh token for a new access token.
func (s *AuthService) RefreshToken(ctx context.Context, refreshToken string) (string, error) {
	claims, err := jwtpkg.ValidateToken(refreshToken, s.cfg.JWTSecret)
	if err != nil || claims.TokenType != jwtpkg.RefreshToken {
		return "", ErrInvalidToken
	}

	var tokenModel models.RefreshToken
	if err := s.db.WithContext(ctx).Where("token = ?", refreshToken).First(&tokenModel).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", ErrInvalidToken
		}
		return "", fmt.Errorf("find refresh token: %w", err)
	}

	if time.Now().After(tokenModel.ExpiresAt) {
		return "", ErrInvalidToken
	}

	// Role is re-read so a changed role shows up in the new token.
	user, err := s.GetUserByID(ctx, tokenModel.UserID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return "", ErrInvalidToken
		}
		return "", err
	}

	accessToken, err := jwtpkg.GenerateToken(user.ID.String(), string(user.Role), jwtpkg.AccessToken, s.cfg.JWTSecret, s.cfg.JWTAccessTokenDuration)
	if err != nil {
		return "", fmt.Errorf("sign access token: %w", err)
	}

	return accessToken, nil
}

// Logout deletes the user's refresh tokens and blacklists the access token
// for the rest of its lifetime.
func (s *AuthService) Logout(ctx context.Context, userID uuid.UUID, accessToken string) error {
	if err := s.db.WithContext(ctx).Where("user_id = ?", userID).Delete(&models.RefreshToken{}).Error; err != nil {
		return fmt.Errorf("delete refresh tokens: %w", err)
	}

	if s.redis == nil || accessToken == "" {
		return nil
	}

	claims, err := jwtpkg.ValidateToken(accessToken, s.cfg.JWTSecret)
	if err != nil {
		return nil
	}
	ttl := claims.RemainingTTL()
	if ttl <= 0 {
		return nil
	}
	if err := s.redis.Set(ctx, blacklistKeyPrefix+accessToken, "1", ttl).Err(); err != nil {
		logrus.WithError(err).Warn("Could not blacklist access token")
	}
	return nil
}

// ValidateAccessToken validates an access token and returns its claims.
// A Redis outage does not block requests.
func (s *AuthService) ValidateAccessToken(ctx context.Context, token string) (*jwtpkg.Claims, error) {
	claims, err := jwtpkg.ValidateToken(token, s.cfg.JWTSecret)
	if err != nil {
		return nil, ErrInvalidToken
	}

	if claims.TokenType != jwtpkg.AccessToken {
		return nil, ErrInvalidToken
	}

	if s.redis != nil {
		exists, err := s.redis.Exists(ctx, blacklistKeyPrefix+token).Result()
		if err != nil {
			logrus.WithError(err).Warn("Could not connect to Redis to check token blacklist")
		} else if exists > 0 {
			return nil, ErrInvalidToken
		}
	}

	return claims, nil
}

// GetUserByID retrieves a user by ID.
func (s *AuthService) GetUserByID(ctx context.Context, userID uuid.UUID) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).First(&user, "id = ?", userID).Error; err != nil {
		return nil, translateNotFound(err, "get user")
	}
	return &user, nil
}

// CleanupExpiredTokens removes expired refresh tokens.
func (s *AuthService) CleanupExpiredTokens(ctx context.Context) error {
	return s.db.WithContext(ctx).Where("expires_at < ?", time.Now()).Delete(&models.RefreshToken{}).Error
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
