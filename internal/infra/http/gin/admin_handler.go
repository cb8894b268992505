package ginserver

import (
	"log/slog"
	"net/http"

	gin "github.com/gin-gonic/gin"

	"apexrentals/internal/app/commands"
	"apexrentals/internal/app/dto"
	bookingapp "apexrentals/internal/app/handlers/booking"
)

type AdminHTTP interface {
	CleanupExpired(c *gin.Context)
}

type AdminHandler struct {
	Commands commands.Bus
	Logger   *slog.Logger
}

type cleanupRequest struct {
	OnlyMine bool `json:"only_mine"`
}

// CleanupExpired purges stale pending bookings. Admins purge everything;
// anyone else must pass only_mine and only touches their own bookings.
func (h AdminHandler) CleanupExpired(c *gin.Context) {
	actor, ok := requireRole(c)
	if !ok {
		return
	}
	if h.Commands == nil {
		unavailable(c, "commands")
		return
	}
	onlyMine := parseBool(c.Query("only_mine"))
	if c.Request.ContentLength > 0 {
		var req cleanupRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err.Error())
			return
		}
		onlyMine = onlyMine || req.OnlyMine
	}
	cmd := bookingapp.CleanupExpiredCommand{ActorID: actor.ID, ActorRole: actor.Role, OnlyMine: onlyMine}
	result, err := commands.Dispatch[bookingapp.CleanupExpiredCommand, *dto.CleanupResult](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	if h.Logger != nil {
		h.Logger.Info("expired bookings purged", "actor_id", actor.ID, "only_mine", onlyMine, "deleted", result.Deleted)
	}
	c.JSON(http.StatusOK, result)
}

var _ AdminHTTP = (*AdminHandler)(nil)
