package handlers

import (
	"context"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/jstittsworth/hoopstats/internal/services"
	"github.com/jstittsworth/hoopstats/pkg/utils"
)

type CacheHandler struct {
	players  *services.PlayerService
	pipeline *services.RefreshPipeline
	logger   *logrus.Logger
}

func NewCacheHandler(players *services.PlayerService, pipeline *services.RefreshPipeline, logger *logrus.Logger) *CacheHandler {
	return &CacheHandler{
		players:  players,
		pipeline: pipeline,
		logger:   logger,
	}
}

// InvalidatePlayer drops a player's cache entry so the next read refetches.
func (h *CacheHandler) InvalidatePlayer(c *gin.Context) {
	playerID, err := strconv.Atoi(c.Param("id"))
	if err != nil || playerID <= 0 {
		utils.SendValidationError(c, "Invalid player ID", c.Param("id"))
		return
	}

	if err := h.players.InvalidatePlayer(c.Request.Context(), playerID); err != nil {
		utils.SendInternalError(c, "Failed to invalidate cache entry")
		return
	}

	utils.SendSuccess(c, gin.H{"invalidated": playerID})
}

// GetCacheHealth reports the cache store's observability snapshot.
func (h *CacheHandler) GetCacheHealth(c *gin.Context) {
	stats, err := h.players.CacheHealth(c.Request.Context())
	if err != nil {
		utils.SendInternalError(c, "Failed to read cache stats")
		return
	}

	utils.SendSuccess(c, stats)
}

// TriggerRefresh kicks off a full cache refresh in the background.
func (h *CacheHandler) TriggerRefresh(c *gin.Context) {
	go func() {
		report, err := h.pipeline.RefreshAll(context.Background())
		if err != nil {
			h.logger.Errorf("Triggered refresh failed: %v", err)
			return
		}
		h.logger.Infof("Triggered refresh: %d players, %d fetched, %d skipped",
			report.Players, report.Fetched, report.Skipped)
	}()

	utils.SendAccepted(c, gin.H{"status": "refresh started"})
}
