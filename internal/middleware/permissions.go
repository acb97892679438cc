package middleware

import (
	"net/http"

	"sayit/internal/models"

	"github.com/gin-gonic/gin"
)

// RequireRole lets through actors at or above minRole on the privilege ladder.
// Must run after AuthMiddleware.
func RequireRole(minRole models.UserRole) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor := GetActor(c)
		if actor == nil {
			abort(c, http.StatusUnauthorized, "User not authenticated")
			return
		}
		if !actor.Role.IsHigherOrEqual(minRole) {
			abort(c, http.StatusForbidden, "Insufficient permissions")
			return
		}
		c.Next()
	}
}

// RequireAnyRole lets through actors holding exactly one of roles.
func RequireAnyRole(roles ...models.UserRole) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor := GetActor(c)
		if actor == nil {
			abort(c, http.StatusUnauthorized, "User not authenticated")
			return
		}

		for _, allowed := range roles {
			if actor.Role == allowed {
				c.Next()
				return
			}
		}
		abort(c, http.StatusForbidden, "Insufficient permissions")
	}
}
