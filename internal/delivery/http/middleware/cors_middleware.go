package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// CORSMiddleware adds CORS headers for the church website.
//
// Production answers with the single configured origin; the browser blocks
// every other site. Development answers with "*" so local builds and
// previews can post to the API. Preflight requests end here with 200.
func CORSMiddleware(isProduction bool, allowedOrigin string) gin.HandlerFunc {
	origin := "*"
	if isProduction {
		origin = allowedOrigin
	}

	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", origin)
		c.Header("Access-Control-Allow-Methods", "POST, GET, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type")
		c.Header("Access-Control-Max-Age", "86400") // 24 hours
		c.Header("Vary", "Origin")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusOK)
			return
		}

		c.Next()
	}
}
