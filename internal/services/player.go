package services

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/jstittsworth/hoopstats/internal/models"
	"github.com/jstittsworth/hoopstats/internal/season"
	"github.com/jstittsworth/hoopstats/pkg/utils"
)

// StatsProvider is the upstream boundary. Implementations return empty
// collections rather than errors when the upstream reports not-found.
type StatsProvider interface {
	GetPlayer(ctx context.Context, playerID int) (*models.PlayerIdentity, error)
	GetRoster(ctx context.Context, page int) ([]models.PlayerIdentity, error)
	GetGames(ctx context.Context, playerID, season int) ([]models.GameRecord, error)
	GetAdvancedRatings(ctx context.Context, playerID, season int) ([]models.AdvancedRating, error)
}

// PlayerService serves player payloads cache-through: cache first, then
// upstream fetch, match, aggregate and write back.
type PlayerService struct {
	provider   StatsProvider
	cache      *CacheStore
	aggregator *StatAggregator
	logger     *logrus.Logger
	now        func() time.Time
}

func NewPlayerService(provider StatsProvider, cache *CacheStore, aggregator *StatAggregator, logger *logrus.Logger) *PlayerService {
	return &PlayerService{
		provider:   provider,
		cache:      cache,
		aggregator: aggregator,
		logger:     logger,
		now:        time.Now,
	}
}

// GetPlayerPayload returns the current-season payload for a player, building
// and caching it on a miss.
func (s *PlayerService) GetPlayerPayload(ctx context.Context, playerID int) (*models.PlayerPayload, error) {
	payload, ok, err := s.cache.Get(ctx, playerID)
	if err != nil {
		return nil, err
	}
	if ok {
		return payload, nil
	}

	identity, err := s.provider.GetPlayer(ctx, playerID)
	if err != nil {
		return nil, utils.NewAppError(utils.ErrCodeUpstream, "failed to fetch player identity", err.Error())
	}
	if identity == nil {
		return nil, utils.NewAppError(utils.ErrCodeNotFound, "player not found")
	}

	payload, err = s.BuildPayload(ctx, *identity)
	if err != nil {
		return nil, err
	}

	if err := s.cache.Set(ctx, payload); err != nil {
		// fresh data still gets served when persisting it fails
		s.logger.Warnf("Failed to cache payload for player %d: %v", playerID, err)
	}

	return payload, nil
}

// BuildPayload fetches, matches and aggregates one player's current season.
// A failed ratings fetch degrades to box-score-only averages; a failed games
// fetch is a hard upstream error since there is nothing left to serve.
func (s *PlayerService) BuildPayload(ctx context.Context, identity models.PlayerIdentity) (*models.PlayerPayload, error) {
	currentSeason := season.CurrentSeason(s.now())

	games, err := s.provider.GetGames(ctx, identity.ID, currentSeason)
	if err != nil {
		return nil, utils.NewAppError(utils.ErrCodeUpstream, "failed to fetch game logs", err.Error())
	}

	ratings, err := s.provider.GetAdvancedRatings(ctx, identity.ID, currentSeason)
	if err != nil {
		s.logger.Warnf("Advanced ratings unavailable for player %d season %d: %v", identity.ID, currentSeason, err)
		ratings = nil
	}

	matched := MatchGameRatings(games, ratings)
	regular, postseason, recent := s.aggregator.Aggregate(matched)

	return &models.PlayerPayload{
		Player:        identity,
		Season:        currentSeason,
		RegularSeason: regular,
		Postseason:    postseason,
		RecentGames:   recent,
	}, nil
}

// InvalidatePlayer forces the next read for a player to refetch.
func (s *PlayerService) InvalidatePlayer(ctx context.Context, playerID int) error {
	return s.cache.Invalidate(ctx, playerID)
}

// CacheHealth exposes the cache store's observability snapshot.
func (s *PlayerService) CacheHealth(ctx context.Context) (*CacheStats, error) {
	return s.cache.Stats(ctx)
}
