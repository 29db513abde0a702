package middleware

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/assetcatalog/backend/internal/config"
)

// RateLimiter limits requests per client IP in fixed windows. A nil client
// or an unreachable Redis disables the limit.
func RateLimiter(redisClient *redis.Client, cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		if redisClient == nil || cfg.RateLimitRequests <= 0 {
			c.Next()
			return
		}
		ctx := c.Request.Context()

		key := fmt.Sprintf("rate_limit:%s", c.ClientIP())

		count, err := redisClient.Incr(ctx, key).Result()
		if err != nil {
			logrus.WithError(err).Warn("Redis not available for rate limiting")
			c.Next()
			return
		}
		if count == 1 {
			if err := redisClient.Expire(ctx, key, cfg.RateLimitDuration).Err(); err != nil {
				logrus.WithError(err).Warn("Rate limiter failed to set expiry")
			}
		}

		limit := int64(cfg.RateLimitRequests)
		c.Header("X-RateLimit-Limit", strconv.FormatInt(limit, 10))

		if count > limit {
			ttl, _ := redisClient.TTL(ctx, key).Result()
			c.Header("X-RateLimit-Remaining", "0")
			c.Header("X-RateLimit-Reset", strconv.FormatInt(time.Now().Add(ttl).Unix(), 10))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error":       "too many requests",
				"retry_after": ttl.Seconds(),
			})
			return
		}

		c.Header("X-RateLimit-Remaining", strconv.FormatInt(limit-count, 10))
		c.Next()
	}
}
