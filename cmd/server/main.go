package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/jstittsworth/hoopstats/internal/api"
	"github.com/jstittsworth/hoopstats/internal/api/middleware"
	"github.com/jstittsworth/hoopstats/internal/cache"
	"github.com/jstittsworth/hoopstats/internal/models"
	"github.com/jstittsworth/hoopstats/internal/providers"
	"github.com/jstittsworth/hoopstats/internal/services"
	"github.com/jstittsworth/hoopstats/pkg/config"
	"github.com/jstittsworth/hoopstats/pkg/database"
	"github.com/jstittsworth/hoopstats/pkg/logger"
)

func main() {
	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		logrus.Fatalf("Failed to load config: %v", err)
	}

	log := logger.InitLogger()
	if cfg.IsDevelopment() {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	// Connect to database
	db, err := database.NewConnection(cfg.DatabaseURL, cfg.IsDevelopment())
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	if err := db.AutoMigrate(&models.StatCacheEntry{}); err != nil {
		log.Fatalf("Failed to migrate cache schema: %v", err)
	}

	// Connect to Redis for the identity cache
	redisCache, err := cache.NewRedisCache(cfg.RedisURL)
	if err != nil {
		log.Fatalf("Failed to connect to Redis: %v", err)
	}
	defer redisCache.Close()

	// Initialize services
	provider := providers.NewBallDontLieClient(providers.Options{
		BaseURL:          cfg.BallDontLieBaseURL,
		APIKey:           cfg.BallDontLieAPIKey,
		Timeout:          cfg.ExternalAPITimeout,
		RateEvery:        cfg.UpstreamRateEvery,
		BreakerThreshold: cfg.CircuitBreakerThreshold,
		IdentityTTL:      cfg.IdentityCacheTTL,
		MaxPages:         cfg.RosterMaxPages,
	}, redisCache, log)

	cacheStore := services.NewCacheStore(db, log, cfg.StatsCacheTTL)
	aggregator := services.NewStatAggregator(services.AggregatorOptions{
		RecentGamesLimit: cfg.RecentGamesLimit,
	})
	playerService := services.NewPlayerService(provider, cacheStore, aggregator, log)
	pipeline := services.NewRefreshPipeline(provider, cacheStore, playerService, log,
		cfg.RefreshBatchSize, cfg.RefreshBatchDelay, cfg.RosterMaxPages)

	scheduler := services.NewRefreshScheduler(pipeline, cacheStore, log,
		cfg.RefreshSchedule, cfg.CleanupSchedule, !cfg.SkipInitialRefresh)
	if err := scheduler.Start(); err != nil {
		log.Errorf("Failed to start refresh scheduler: %v", err)
	}
	defer scheduler.Stop()

	// Setup Gin router
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestID())

	// Health check endpoint
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status": "ok",
			"time":   time.Now().UTC(),
		})
	})

	// Setup API routes under /api/v1
	apiV1 := router.Group("/api/v1")
	api.SetupRoutes(apiV1, playerService, pipeline, cfg, log)

	// Setup server
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Infof("Starting server on port %s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	// Graceful shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Errorf("Server forced to shutdown: %v", err)
	}

	log.Info("Server exited")
}
