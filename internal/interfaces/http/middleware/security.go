// internal/interfaces/http/middleware/security.go
package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/your-org/storefront/internal/config"
)

// SecurityHeaders adds security headers to responses. API responses are marked
// no-store and HSTS is only sent in production.
func SecurityHeaders(cfg *config.Config) gin.HandlerFunc {
	serverName := strings.TrimSpace(cfg.App.Name + " API")
	production := cfg.IsProduction()

	return func(c *gin.Context) {
		h := c.Writer.Header()
		h.Set("X-Frame-Options", "DENY")
		h.Set("X-Content-Type-Options", "nosniff")
		h.Set("Referrer-Policy", "strict-origin-when-cross-origin")
		h.Set("Content-Security-Policy", "default-src 'none'; frame-ancestors 'none'")
		h.Set("Server", serverName)
		if production {
			h.Set("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
		}
		if strings.HasPrefix(c.Request.URL.Path, "/api/") {
			h.Set("Cache-Control", "no-store")
		}

		c.Next()
	}
}
