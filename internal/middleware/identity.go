package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Identity headers set by the API gateway after authentication. This service
// trusts them; token verification happens upstream.
const (
	HeaderUserID   = "X-User-ID"
	HeaderUserRole = "X-User-Role"
)

// Context keys under which the identity is stored for handlers.
const (
	ContextUserID   = "userID"
	ContextUserRole = "userRole"
)

// IdentityMiddleware extracts the caller's identity from gateway headers and
// stores it on the request context. Requests without an identity are rejected.
func IdentityMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.GetHeader(HeaderUserID)
		if userID == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing " + HeaderUserID + " header"})
			return
		}

		role := c.GetHeader(HeaderUserRole)
		if role == "" {
			role = "rider"
		}

		c.Set(ContextUserID, userID)
		c.Set(ContextUserRole, role)
		c.Next()
	}
}
