package middleware

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	"resume-intake/internal/redis"
	"resume-intake/internal/transport/httpdto"
	intake_errors "resume-intake/pkg/errors"
	"resume-intake/pkg/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// UploadLimiter is satisfied by *redis.RateLimiter.
type UploadLimiter interface {
	AllowUpload(ctx context.Context, ip string) (*redis.RateLimitResult, error)
}

// UploadRateLimitMiddleware limits uploads per client IP. A nil limiter
// disables it. Limiter errors let the request through so a Redis outage
// does not block uploads.
func UploadRateLimitMiddleware(limiter UploadLimiter, l *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if limiter == nil {
			c.Next()
			return
		}

		result, err := limiter.AllowUpload(c.Request.Context(), c.ClientIP())
		if err != nil {
			if l != nil {
				l.WithContext(c.Request.Context()).Warn("upload rate limit unavailable", zap.Error(err))
			}
			c.Next()
			return
		}

		setRateLimitHeaders(c, result)

		if !result.Allowed {
			c.Error(fmt.Errorf("upload from %s: %w", c.ClientIP(), intake_errors.ErrRateLimited))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, httpdto.NewErrorResponse("Too many uploads, please try again later", "RATE_LIMITED"))
			return
		}

		c.Next()
	}
}

// setRateLimitHeaders sets standard rate limit response headers
func setRateLimitHeaders(c *gin.Context, result *redis.RateLimitResult) {
	c.Header("X-RateLimit-Limit", strconv.Itoa(result.Limit))
	c.Header("X-RateLimit-Remaining", strconv.Itoa(result.Remaining))
	c.Header("X-RateLimit-Reset", strconv.FormatInt(int64(result.ResetIn.Seconds()), 10))
}
