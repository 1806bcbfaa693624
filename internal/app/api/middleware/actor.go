package middleware

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/plannerhub/marketplace/internal/app/service/actor"
	"github.com/plannerhub/marketplace/pkg/response"
	"github.com/plannerhub/marketplace/pkg/types"
)

// ContextKeyActorID is where ActorMiddleware stores the caller's resolved
// actor row id.
const ContextKeyActorID = "actorID"

// ActorResolver maps an authenticated user to their actor profile row id.
// *actor.Service satisfies it.
type ActorResolver interface {
	Resolve(ctx context.Context, userID string, role types.ActorRole) (string, error)
}

// ActorMiddleware resolves the authenticated user to their planner, helper or
// client row and stores the row id on the context. It must run after
// AuthMiddleware, before any handler that writes ownership columns.
func ActorMiddleware(resolver ActorResolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		actorID, err := resolver.Resolve(c.Request.Context(), UserID(c), types.ActorRole(c.GetString(ContextKeyRole)))
		if err != nil {
			if errors.Is(err, actor.ErrProfileNotFound) {
				c.JSON(http.StatusForbidden, response.ErrorT[any](response.APIResponseCodeForbidden, "no actor profile for user"))
			} else {
				c.JSON(http.StatusInternalServerError, response.ErrorT[any](response.APIResponseCodeError, "failed to resolve actor profile"))
			}
			c.Abort()
			return
		}
		c.Set(ContextKeyActorID, actorID)
		c.Next()
	}
}

// ActorID returns the actor row id set by ActorMiddleware.
func ActorID(c *gin.Context) string {
	return c.GetString(ContextKeyActorID)
}
