package identity

import (
	"strings"

	"github.com/gin-gonic/gin"
)

const (
	ActorHeader  = "X-Actor-ID"
	defaultActor = "system"
)

// Middleware copies the actor header into the request context. Requests
// without the header run as "system"; authn itself belongs to the gateway
// in front of this service.
func Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		actor := strings.TrimSpace(c.GetHeader(ActorHeader))
		if actor == "" {
			actor = defaultActor
		}
		c.Request = c.Request.WithContext(WithActor(c.Request.Context(), actor))
		c.Next()
	}
}
