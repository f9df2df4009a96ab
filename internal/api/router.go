package api

import (
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/jstittsworth/hoopstats/internal/api/handlers"
	"github.com/jstittsworth/hoopstats/internal/api/middleware"
	"github.com/jstittsworth/hoopstats/internal/services"
	"github.com/jstittsworth/hoopstats/pkg/config"
)

// SetupRoutes configures all API routes on the given router group
func SetupRoutes(group *gin.RouterGroup, players *services.PlayerService, pipeline *services.RefreshPipeline, cfg *config.Config, log *logrus.Logger) {
	playerHandler := handlers.NewPlayerHandler(players)
	cacheHandler := handlers.NewCacheHandler(players, pipeline, log)

	// Public read path
	group.GET("/players/:id/stats", playerHandler.GetPlayerStats)
	group.GET("/cache/health", cacheHandler.GetCacheHealth)

	// Admin routes mutate cache state
	admin := group.Group("")
	admin.Use(middleware.AuthRequired(cfg.JWTSecret))
	admin.DELETE("/players/:id/cache", cacheHandler.InvalidatePlayer)
	admin.POST("/cache/refresh", cacheHandler.TriggerRefresh)
}
