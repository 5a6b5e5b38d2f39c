package middleware

import (
	"net/http"

	"resume-intake/internal/transport/httpdto"

	"github.com/gin-gonic/gin"
)

// MultipartOverhead is the allowance for multipart boundaries and the text
// fields on top of the file itself.
const MultipartOverhead = 64 << 10

// BodyLimitMiddleware rejects requests whose declared length exceeds limit
// and caps the body reader for the rest. Reads past the cap fail with
// *http.MaxBytesError, which the upload handler renders as 413.
func BodyLimitMiddleware(limit int64, message string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if limit <= 0 {
			c.Next()
			return
		}
		if c.Request.ContentLength > limit {
			c.Header("Connection", "close")
			c.AbortWithStatusJSON(http.StatusRequestEntityTooLarge, httpdto.NewErrorResponse(message, "PAYLOAD_TOO_LARGE"))
			return
		}
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, limit)
		c.Next()
	}
}
