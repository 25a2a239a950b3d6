package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"admissions-backend/internal/shared/auth"
	"admissions-backend/internal/shared/config"
	"admissions-backend/internal/shared/server/respond"
)

const (
	actorIDKey    = "actorId"
	actorEmailKey = "actorEmail"
	actorNameKey  = "actorName"

	// devActorHeader carries an actor id directly in dev-like environments.
	devActorHeader = "X-Actor-Id"
)

// publicPrefixes are served without an identity.
var publicPrefixes = []string{
	"/api/v1/auth/google/",
	"/api/v1/health",
	"/metrics",
}

// Auth validates bearer JWTs and stores the actor identity in context. In
// dev-like environments an X-Actor-Id header is accepted instead.
func Auth(env string) gin.HandlerFunc {
	devLike := config.IsDevLike(env)
	return func(c *gin.Context) {
		if c.Request.Method == http.MethodOptions {
			c.Status(http.StatusNoContent)
			return
		}

		path := c.Request.URL.Path
		for _, prefix := range publicPrefixes {
			if strings.HasPrefix(path, prefix) {
				c.Next()
				return
			}
		}

		authHeader := strings.TrimSpace(c.GetHeader("Authorization"))
		if authHeader != "" {
			if !strings.HasPrefix(authHeader, "Bearer ") {
				respond.Error(c, http.StatusUnauthorized, "unauthorized", "missing or invalid token", nil)
				return
			}

			token := strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer"))
			if token == "" {
				respond.Error(c, http.StatusUnauthorized, "unauthorized", "missing or invalid token", nil)
				return
			}

			claims, err := auth.VerifyJWT(token)
			if err != nil {
				respond.Error(c, http.StatusUnauthorized, "unauthorized", "missing or invalid token", nil)
				return
			}

			c.Set(actorIDKey, claims.Subject)
			if claims.Email != "" {
				c.Set(actorEmailKey, claims.Email)
			}
			if claims.Name != "" {
				c.Set(actorNameKey, claims.Name)
			}
			c.Next()
			return
		}

		if devLike {
			if actorID := strings.TrimSpace(c.GetHeader(devActorHeader)); actorID != "" {
				c.Set(actorIDKey, actorID)
				c.Next()
				return
			}
		}

		respond.Error(c, http.StatusUnauthorized, "unauthorized", "missing identity", nil)
	}
}

// ActorIDFromContext fetches the actor ID set by the auth middleware.
func ActorIDFromContext(c *gin.Context) string {
	return contextString(c, actorIDKey)
}

// ActorEmailFromContext fetches the actor email set by the auth middleware.
func ActorEmailFromContext(c *gin.Context) string {
	return contextString(c, actorEmailKey)
}

// ActorNameFromContext fetches the actor name set by the auth middleware.
func ActorNameFromContext(c *gin.Context) string {
	return contextString(c, actorNameKey)
}

func contextString(c *gin.Context, key string) string {
	if c == nil {
		return ""
	}
	val, _ := c.Get(key)
	if s, ok := val.(string); ok {
		return s
	}
	return ""
}
