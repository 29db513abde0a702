package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/assetcatalog/backend/internal/logging"
	"github.com/assetcatalog/backend/internal/models"
	"github.com/assetcatalog/backend/internal/services"
)

const (
	userIDKey      = "userID"
	userKey        = "user"
	accessTokenKey = "accessToken"
)

// Auth requires a valid bearer access token and loads the caller from the store.
func Auth(authService *services.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c)
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
			return
		}

		if err := authenticate(c, authService, token); err != nil {
			if !errors.Is(err, services.ErrInvalidToken) && !errors.Is(err, services.ErrNotFound) {
				logging.FromContext(c).WithError(err).Error("Failed to resolve caller")
				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
				return
			}
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid or expired token"})
			return
		}

		c.Next()
	}
}

// OptionalAuth resolves the caller when a valid token is presented and
// otherwise continues anonymously.
func OptionalAuth(authService *services.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		if token := bearerToken(c); token != "" {
			if err := authenticate(c, authService, token); err != nil {
				logging.FromContext(c).WithError(err).Debug("Ignoring unusable token")
			}
		}
		c.Next()
	}
}

// AdminOnly must run after Auth.
func AdminOnly() gin.HandlerFunc {
	return func(c *gin.Context) {
		user := CurrentUser(c)
		if user == nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
			return
		}
		if !user.IsAdmin() {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "insufficient privileges"})
			return
		}
		c.Next()
	}
}

// CurrentUser returns the authenticated caller or nil.
func CurrentUser(c *gin.Context) *models.User {
	v, ok := c.Get(userKey)
	if !ok {
		return nil
	}
	user, _ := v.(*models.User)
	return user
}

// AccessToken returns the bearer token the caller authenticated with.
func AccessToken(c *gin.Context) string {
	return c.GetString(accessTokenKey)
}

func authenticate(c *gin.Context, authService *services.AuthService, token string) error {
	claims, err := authService.ValidateAccessToken(c.Request.Context(), token)
	if err != nil {
		return err
	}

	userID, err := uuid.Parse(claims.UserID)
	if err != nil {
		return services.ErrInvalidToken
	}

	// Role comes from the store, not the token.
	user, err := authService.GetUserByID(c.Request.Context(), userID)
	if err != nil {
		return err
	}

	c.Set(userIDKey, user.ID)
	c.Set(userKey, user)
	c.Set(accessTokenKey, token)
	return nil
}

func bearerToken(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}
