package web

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/zulandar/sprintyard/internal/access"
	"gorm.io/gorm"
)

const actorKey = "actor"

// actorMiddleware resolves the acting user from the X-Actor-ID header.
// Session mechanics live upstream; this service trusts the gateway's header.
// Absent or malformed headers yield the anonymous actor.
func actorMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		actor := access.Anonymous()
		if raw := c.GetHeader("X-Actor-ID"); raw != "" {
			if id, err := strconv.ParseUint(raw, 10, 32); err == nil && id > 0 {
				actor = access.User(uint(id))
			}
		}
		c.Set(actorKey, actor)
		c.Next()
	}
}

// actorFrom returns the actor resolved by actorMiddleware.
func actorFrom(c *gin.Context) access.Actor {
	if v, ok := c.Get(actorKey); ok {
		if a, ok := v.(access.Actor); ok {
			return a
		}
	}
	return access.Anonymous()
}

// requireFeature gates a route group on the access resolver. Denials answer
// with the 403 envelope before any handler runs.
func requireFeature(db *gorm.DB, routeName string) gin.HandlerFunc {
	return func(c *gin.Context) {
		allowed, err := access.CanAccess(db, actorFrom(c), routeName)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
				"success": false, "message": err.Error(),
			})
			return
		}
		if !allowed {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"success": false, "message": "access denied",
			})
			return
		}
		c.Next()
	}
}

// requireUser rejects anonymous actors.
func requireUser() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !actorFrom(c).Authenticated() {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"success": false, "message": "sign in required",
			})
			return
		}
		c.Next()
	}
}
