package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"rhb-forms-api/internal/domain"
	"rhb-forms-api/pkg/apperror"
	"rhb-forms-api/pkg/security"
)

// BodyLimit rejects a declared Content-Length above maxBytes before the body
// is read, and caps the reader so an undeclared overrun fails too. Handlers
// still check the bytes they actually read.
func BodyLimit(maxBytes int64, secLog *security.SecurityLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.ContentLength > maxBytes {
			ctx := c.Request.Context()
			secLog.LogPayloadTooLarge(ctx, clientIDOf(c), domain.RequestIDFrom(ctx), c.Request.URL.Path, c.Request.ContentLength, maxBytes)
			_ = c.Error(apperror.PayloadTooLarge())
			c.Abort()
			return
		}

		if c.Request.Body != nil {
			c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		}
		c.Next()
	}
}
