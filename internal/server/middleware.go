package server

import (
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	"github.com/opencare/tabel/internal/actor"
)

// The identity proxy in front of this service authenticates the caller and
// forwards who they are in these headers.
const (
	headerActorID         = "X-Actor-Id"
	headerActorRole       = "X-Actor-Role"
	headerActorDepartment = "X-Actor-Department"
)

// ActorMiddleware lifts the forwarded identity into the request context.
// Requests without a parseable actor id still pass through; the
// authorization layer rejects them with an unauthorized outcome.
func ActorMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		a := actor.Actor{
			Role: strings.ToLower(strings.TrimSpace(c.GetHeader(headerActorRole))),
		}
		if raw := strings.TrimSpace(c.GetHeader(headerActorID)); raw != "" {
			if id, err := snowflake.ParseString(raw); err == nil {
				a.ID = id
			}
		}
		if raw := strings.TrimSpace(c.GetHeader(headerActorDepartment)); raw != "" {
			if id, err := snowflake.ParseString(raw); err == nil {
				a.DepartmentID = id
			}
		}
		c.Request = c.Request.WithContext(actor.WithActor(c.Request.Context(), a))
		c.Next()
	}
}

func actorFrom(c *gin.Context) actor.Actor {
	a, _ := actor.FromContext(c.Request.Context())
	return a
}
