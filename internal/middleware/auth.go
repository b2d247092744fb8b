package middleware

import (
	"net/http"
	"strings"

	"medcare-admin/internal/auth"
	"medcare-admin/internal/model"

	"github.com/gin-gonic/gin"
)

const userKey = "user"

// AuthMiddleware requires a valid bearer token and stores its principal in the context
func AuthMiddleware(authService *auth.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			abortUnauthorized(c, "Authorization header required")
			return
		}

		token, ok := bearerToken(authHeader)
		if !ok {
			abortUnauthorized(c, "Invalid authorization header format")
			return
		}

		principal, err := authService.ValidateToken(token)
		if err != nil {
			abortUnauthorized(c, "Invalid or expired token")
			return
		}

		c.Set(userKey, principal)
		c.Next()
	}
}

// OptionalAuth stores the principal of a valid bearer token when one is sent.
// Requests without a usable token continue anonymously.
func OptionalAuth(authService *auth.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		if token, ok := bearerToken(c.GetHeader("Authorization")); ok {
			if principal, err := authService.ValidateToken(token); err == nil {
				c.Set(userKey, principal)
			}
		}
		c.Next()
	}
}

// GetUserFromContext returns the authenticated principal
func GetUserFromContext(c *gin.Context) (*model.Principal, bool) {
	user, exists := c.Get(userKey)
	if !exists {
		return nil, false
	}

	principal, ok := user.(*model.Principal)
	return principal, ok
}

func bearerToken(header string) (string, bool) {
	parts := strings.Fields(header)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", false
	}
	return parts[1], true
}

func abortUnauthorized(c *gin.Context, message string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"success": false, "message": message})
}
