package middleware

import (
	"net/http"

	"medcare-admin/internal/service"

	"github.com/gin-gonic/gin"
)

// RequirePermission rejects callers whose role has no rule for action on
// resourceType. Rules limited to the caller's own resources count here; the
// handler checks ownership once the resource is loaded.
func RequirePermission(authz service.Authorizer, resourceType, action string) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, exists := GetUserFromContext(c)
		if !exists {
			abortUnauthorized(c, "Authentication required")
			return
		}

		if !authz.HasPermission(user, action, resourceType) {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"success": false,
				"message": "You do not have permission to " + action + " " + resourceType,
			})
			return
		}

		c.Next()
	}
}

// RequireAny rejects callers who may not perform action on every resource of
// the type, which in practice limits the route to administrators
func RequireAny(authz service.Authorizer, resourceType, action string) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, exists := GetUserFromContext(c)
		if !exists {
			abortUnauthorized(c, "Authentication required")
			return
		}

		if !authz.CanPerform(user, action, service.Collection(resourceType)) {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"success": false,
				"message": "You do not have permission to " + action + " " + resourceType,
			})
			return
		}

		c.Next()
	}
}
