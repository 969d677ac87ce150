package middleware

import (
	"net/http"

	"github.com/campusware/lms-rest-api/internal/registry"
	"github.com/gin-gonic/gin"
)

// RoutePermission checks that the client the bearer token was issued to
// holds a permission for the matched route pattern and HTTP verb. Patterns
// are compared with the trailing slash stripped, matching how they are
// stored in the registry.
func RoutePermission(reg registry.ClientRegistry) gin.HandlerFunc {
	return func(c *gin.Context) {
		apiKey := c.GetString("apiKey")
		if apiKey == "" {
			c.JSON(http.StatusForbidden, gin.H{"error": "no_client_for_token"})
			c.Abort()
			return
		}

		pattern := c.FullPath()
		if pattern == "" {
			// Unmatched route, let gin produce its 404
			c.Next()
			return
		}

		if !reg.HasPermission(apiKey, pattern, c.Request.Method) {
			c.JSON(http.StatusForbidden, gin.H{
				"error":   "route_not_permitted",
				"pattern": pattern,
				"verb":    c.Request.Method,
			})
			c.Abort()
			return
		}

		c.Next()
	}
}
