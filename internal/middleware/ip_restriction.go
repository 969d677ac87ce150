package middleware

import (
	"net/http"

	"github.com/campusware/lms-rest-api/internal/registry"
	"github.com/gin-gonic/gin"
)

// IPRestriction rejects requests from addresses outside the client's
// allowed-IP set when the client has its IP restriction active. The client
// is the one the bearer token was issued to (apiKey set by TokenAuth).
// Clients without the restriction flag pass through untouched.
func IPRestriction(reg registry.ClientRegistry) gin.HandlerFunc {
	return func(c *gin.Context) {
		apiKey := c.GetString("apiKey")
		if apiKey == "" || !reg.IsIPRestrictionEnabled(apiKey) {
			c.Next()
			return
		}

		allowed, err := reg.GetAllowedIPs(apiKey)
		if err != nil {
			c.JSON(http.StatusForbidden, gin.H{"error": "ip_not_allowed"})
			c.Abort()
			return
		}

		clientIP := c.ClientIP()
		for _, ip := range allowed {
			if ip == clientIP {
				c.Next()
				return
			}
		}

		c.JSON(http.StatusForbidden, gin.H{
			"error":     "ip_not_allowed",
			"client_ip": clientIP,
		})
		c.Abort()
	}
}
