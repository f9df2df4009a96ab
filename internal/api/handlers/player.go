package handlers

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/jstittsworth/hoopstats/internal/services"
	"github.com/jstittsworth/hoopstats/pkg/utils"
)

type PlayerHandler struct {
	players *services.PlayerService
}

func NewPlayerHandler(players *services.PlayerService) *PlayerHandler {
	return &PlayerHandler{
		players: players,
	}
}

// GetPlayerStats returns the cached-or-computed season splits for a player.
func (h *PlayerHandler) GetPlayerStats(c *gin.Context) {
	playerID, err := strconv.Atoi(c.Param("id"))
	if err != nil || playerID <= 0 {
		utils.SendValidationError(c, "Invalid player ID", c.Param("id"))
		return
	}

	payload, err := h.players.GetPlayerPayload(c.Request.Context(), playerID)
	if err != nil {
		if utils.IsAppErrorCode(err, utils.ErrCodeNotFound) {
			utils.SendNotFound(c, "Player not found")
			return
		}
		// generic failure rather than partially-populated data
		utils.SendInternalError(c, "Failed to load player stats")
		return
	}

	utils.SendSuccess(c, payload)
}
