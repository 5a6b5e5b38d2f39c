package middleware

import (
	"fmt"
	"io"
	"net/http"

	"resume-intake/internal/transport/httpdto"
	"resume-intake/pkg/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// RecoveryMiddleware turns a panic into the generic 500 envelope.
func RecoveryMiddleware(l *logger.Logger) gin.HandlerFunc {
	return gin.CustomRecoveryWithWriter(io.Discard, func(c *gin.Context, recovered any) {
		if l != nil {
			l.WithContext(c.Request.Context()).Error("panic recovered",
				zap.String("path", c.Request.URL.Path),
				zap.String("panic", fmt.Sprint(recovered)),
				zap.Stack("stack"),
			)
		}
		c.AbortWithStatusJSON(http.StatusInternalServerError, httpdto.NewErrorResponse(genericErrorMessage, "UNEXPECTED_ERROR"))
	})
}
