package middleware

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"rhb-forms-api/internal/domain"
	"rhb-forms-api/pkg/clientid"
)

const HeaderRequestID = "X-Request-ID"

// RequestID tags every request with a UUID. An incoming X-Request-ID is kept
// only when it is itself a valid UUID.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(HeaderRequestID)
		if _, err := uuid.Parse(id); err != nil {
			id = uuid.NewString()
		}

		c.Set(string(domain.KeyRequestID), id)
		c.Header(HeaderRequestID, id)
		c.Request = c.Request.WithContext(context.WithValue(c.Request.Context(), domain.KeyRequestID, id))

		c.Next()
	}
}

// ClientID resolves the rate-limit identifier once per request and stores it
// in the request context.
func ClientID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := clientid.Resolve(c.Request.Header)
		c.Set(string(domain.KeyClientID), id)
		c.Request = c.Request.WithContext(context.WithValue(c.Request.Context(), domain.KeyClientID, id))
		c.Next()
	}
}

func clientIDOf(c *gin.Context) string {
	if id := domain.ClientIDFrom(c.Request.Context()); id != "" {
		return id
	}
	return clientid.Resolve(c.Request.Header)
}
