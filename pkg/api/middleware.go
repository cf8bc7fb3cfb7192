package api

import (
	"errors"
	"strings"

	"github.com/gin-gonic/gin"

	"homeservices/pkg/models"
)

const actorKey = "actor"

// actorMiddleware resolves the caller's profile from the user id header. The
// role always comes from the stored profile.
func (h *Handler) actorMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := strings.TrimSpace(c.GetHeader(HeaderUserID))
		if id == "" {
			h.fail(c, models.ErrUnauthenticated)
			return
		}
		p, err := h.svc.User().Get(c.Request.Context(), id)
		if err != nil {
			if errors.Is(err, models.ErrNotFound) {
				err = models.ErrUnauthenticated
			}
			h.fail(c, err)
			return
		}
		c.Set(actorKey, models.Actor{ID: p.ID, Role: p.Role})
		c.Next()
	}
}

func actorOf(c *gin.Context) models.Actor {
	v, _ := c.Get(actorKey)
	a, _ := v.(models.Actor)
	return a
}
