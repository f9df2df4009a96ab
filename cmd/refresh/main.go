package main

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/jstittsworth/hoopstats/internal/cache"
	"github.com/jstittsworth/hoopstats/internal/models"
	"github.com/jstittsworth/hoopstats/internal/providers"
	"github.com/jstittsworth/hoopstats/internal/services"
	"github.com/jstittsworth/hoopstats/pkg/config"
	"github.com/jstittsworth/hoopstats/pkg/database"
	"github.com/jstittsworth/hoopstats/pkg/logger"
)

// One-shot bulk cache refresh, for initial population and cron jobs outside
// the server process.
func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		logrus.Fatalf("Failed to load config: %v", err)
	}

	log := logger.InitLogger()

	db, err := database.NewConnection(cfg.DatabaseURL, cfg.IsDevelopment())
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	if err := db.AutoMigrate(&models.StatCacheEntry{}); err != nil {
		log.Fatalf("Failed to migrate cache schema: %v", err)
	}

	redisCache, err := cache.NewRedisCache(cfg.RedisURL)
	if err != nil {
		log.Fatalf("Failed to connect to Redis: %v", err)
	}
	defer redisCache.Close()

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

	report, err := pipeline.RefreshAll(context.Background())
	if err != nil {
		log.Fatalf("Refresh failed: %v", err)
	}

	log.Infof("Refresh finished: %d players, %d fetched, %d skipped, %d batches in %s",
		report.Players, report.Fetched, report.Skipped, report.Batches, report.Duration)
}
