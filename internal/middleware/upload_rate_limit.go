package middleware

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/assetcatalog/backend/internal/config"
	"github.com/assetcatalog/backend/internal/logging"
)

// UploadRateLimit caps attachment uploads per user per day. Must run after Auth.
// Redis errors never block an upload.
func UploadRateLimit(redisClient *redis.Client, cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		if redisClient == nil || cfg.UploadDailyLimit <= 0 {
			c.Next()
			return
		}

		userIDInterface, exists := c.Get(userIDKey)
		if !exists {
			c.Next()
			return
		}
		userID, ok := userIDInterface.(uuid.UUID)
		if !ok {
			c.Next()
			return
		}

		ctx := c.Request.Context()

		// upload_limit:{user_id}:{date} resets at midnight
		now := time.Now()
		key := fmt.Sprintf("upload_limit:%s:%s", userID.String(), now.Format("2006-01-02"))

		count, err := redisClient.Incr(ctx, key).Result()
		if err != nil {
			logging.FromContext(c).WithError(err).Warn("Upload rate limiter unavailable")
			c.Next()
			return
		}
		if count == 1 {
			midnight := time.Date(now.Year(), now.Month(), now.Day()+1, 0, 0, 0, 0, now.Location())
			_ = redisClient.Expire(ctx, key, midnight.Sub(now)).Err()
		}

		if count > int64(cfg.UploadDailyLimit) {
			ttl, _ := redisClient.TTL(ctx, key).Result()
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error":               "upload rate limit exceeded",
				"retry_after_hours":   int(ttl.Hours()),
				"max_uploads_per_day": cfg.UploadDailyLimit,
			})
			return
		}

		c.Next()
	}
}
