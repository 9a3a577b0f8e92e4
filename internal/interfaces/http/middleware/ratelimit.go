package middleware

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"recovery-kita.backend/pkg/logger"
	"recovery-kita.backend/pkg/redis"
)

var rateLimitIncr = redis.IncrWithTTL

// RateLimitMiddleware enforces a fixed-window per-IP limit backed by redis,
// shared across replicas. When redis is unreachable the request passes:
// the webhook surface degrades open rather than dropping provider events.
func RateLimitMiddleware(name string, limit int64, window time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := fmt.Sprintf("ratelimit:%s:%s:%d", name, c.ClientIP(), time.Now().Unix()/int64(window.Seconds()))

		count, err := rateLimitIncr(c.Request.Context(), key, window)
		if err != nil {
			logger.Warn(c.Request.Context(), "rate limiter unavailable, allowing request", zap.Error(err))
			c.Next()
			return
		}

		if count > limit {
			logger.Warn(c.Request.Context(), "rate limit exceeded",
				zap.String("limiter", name),
				zap.String("client_ip", c.ClientIP()))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error": "rate limit exceeded",
			})
			return
		}
		c.Next()
	}
}
