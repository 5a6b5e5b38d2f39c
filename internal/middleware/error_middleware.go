package middleware

import (
	"net/http"

	"resume-intake/internal/transport/httpdto"
	intake_errors "resume-intake/pkg/errors"
	"resume-intake/pkg/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const genericErrorMessage = intake_errors.MsgUnexpected

// ErrorHandler logs errors attached with c.Error. Handlers normally render
// their own envelope; when nothing was written yet the client gets a generic
// 500 so internals never leak.
func ErrorHandler(l *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 {
			return
		}

		if l != nil {
			log := l.WithContext(c.Request.Context())
			for _, e := range c.Errors {
				fields := []zap.Field{zap.String("path", c.Request.URL.Path), zap.Error(e.Err)}
				if c.Writer.Written() && c.Writer.Status() < http.StatusInternalServerError {
					log.Warn("request error", fields...)
					continue
				}
				log.Error("request error", fields...)
			}
		}
		if c.Writer.Written() {
			return
		}
		c.JSON(http.StatusInternalServerError, httpdto.NewErrorResponse(genericErrorMessage, "UNEXPECTED_ERROR"))
	}
}
