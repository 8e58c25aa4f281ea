package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/prop-ie/snag-api/internal/middleware"
	"github.com/prop-ie/snag-api/internal/service"
)

// actorFromContext turns the authenticated caller into the service actor used for auditing.
func actorFromContext(c *gin.Context) service.Actor {
	actor := service.Actor{IP: c.ClientIP(), UserAgent: c.GetHeader("User-Agent")}
	if claims, ok := middleware.CurrentClaims(c); ok {
		actor.ID = claims.UserID
		actor.Role = claims.Role
	}
	return actor
}

func queryInt(c *gin.Context, key string) int {
	v, err := strconv.Atoi(c.Query(key))
	if err != nil {
		return 0
	}
	return v
}
