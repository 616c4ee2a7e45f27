package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/Steven-Gee-ally/afcglide-listings-009/internal/auth"
	"github.com/Steven-Gee-ally/afcglide-listings-009/internal/flash"
	"github.com/Steven-Gee-ally/afcglide-listings-009/internal/model"
)

// actorKey is the gin context key the resolved ActorContext is stored under.
const actorKey = "actor"

// ResolveActor parses the session cookie (or a bearer token, for AJAX
// clients) into an ActorContext and stores it on the request context.
// Anonymous requests get a zero actor; it never aborts.
func ResolveActor(sessions *auth.Sessions) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor := model.ActorContext{}

		tokenStr := ""
		if cookie, err := c.Cookie(auth.SessionCookie); err == nil {
			tokenStr = cookie
		} else if h := c.GetHeader("Authorization"); strings.HasPrefix(h, "Bearer ") {
			tokenStr = strings.TrimPrefix(h, "Bearer ")
		}

		if tokenStr != "" {
			if parsed, err := sessions.Parse(tokenStr); err == nil {
				actor = parsed
			}
		}

		c.Set(actorKey, actor)
		c.Next()
	}
}

// Actor returns the ActorContext resolved for this request.
func Actor(c *gin.Context) model.ActorContext {
	if v, ok := c.Get(actorKey); ok {
		if actor, ok := v.(model.ActorContext); ok {
			return actor
		}
	}
	return model.ActorContext{}
}

// ActorFlashKey returns the flash-broker key for this request's actor: the
// account id when logged in, otherwise a fingerprint of the request origin.
func ActorFlashKey(c *gin.Context) string {
	if actor := Actor(c); actor.Authenticated() {
		return actor.ID
	}
	return flash.VisitorKey(c.ClientIP(), c.Request.UserAgent())
}

// RequireAuth aborts unauthenticated requests with 401.
func RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !Actor(c).Authenticated() {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"success": false,
				"data":    gin.H{"message": "You must be logged in."},
			})
			return
		}
		c.Next()
	}
}

// RequireModerator aborts requests whose actor lacks the moderator role.
func RequireModerator() gin.HandlerFunc {
	return func(c *gin.Context) {
		actor := Actor(c)
		if !actor.Authenticated() {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"success": false,
				"data":    gin.H{"message": "You must be logged in."},
			})
			return
		}
		if !actor.Moderator() {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"success": false,
				"data":    gin.H{"message": "Moderator access only."},
			})
			return
		}
		c.Next()
	}
}
