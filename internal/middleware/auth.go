package middleware

import (
	"net/http"
	"strings"

	"sayit/internal/services"
	"sayit/pkg/auth"

	"github.com/gin-gonic/gin"
)

const actorKey = "actor"

// AuthMiddleware rejects requests without a valid bearer token and stores the
// resolved actor in the context.
func AuthMiddleware(jwtManager *auth.JWTManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			abort(c, http.StatusUnauthorized, "Authorization header is required")
			return
		}

		actor, ok := actorFromHeader(jwtManager, authHeader)
		if !ok {
			abort(c, http.StatusUnauthorized, "Invalid or expired token")
			return
		}

		c.Set(actorKey, actor)
		c.Next()
	}
}

// OptionalAuth resolves the actor when a valid token is present and lets the
// request through either way.
func OptionalAuth(jwtManager *auth.JWTManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		if header := c.GetHeader("Authorization"); header != "" {
			if actor, ok := actorFromHeader(jwtManager, header); ok {
				c.Set(actorKey, actor)
			}
		}
		c.Next()
	}
}

// ActorFromToken validates a raw token, as passed in a websocket query string.
func ActorFromToken(jwtManager *auth.JWTManager, token string) (*services.Actor, bool) {
	claims, err := jwtManager.ValidateToken(token)
	if err != nil {
		return nil, false
	}
	actor, err := services.ActorFromClaims(claims)
	if err != nil {
		return nil, false
	}
	return actor, true
}

func actorFromHeader(jwtManager *auth.JWTManager, header string) (*services.Actor, bool) {
	parts := strings.Fields(header)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return nil, false
	}
	return ActorFromToken(jwtManager, parts[1])
}

// GetActor returns the actor set by AuthMiddleware or OptionalAuth, or nil.
func GetActor(c *gin.Context) *services.Actor {
	v, ok := c.Get(actorKey)
	if !ok {
		return nil
	}
	actor, _ := v.(*services.Actor)
	return actor
}

func abort(c *gin.Context, status int, message string) {
	c.AbortWithStatusJSON(status, gin.H{
		"success": false,
		"message": message,
	})
}
