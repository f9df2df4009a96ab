package services

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"math/rand"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/jstittsworth/hoopstats/internal/models"
	"github.com/jstittsworth/hoopstats/pkg/database"
	"github.com/jstittsworth/hoopstats/pkg/utils"
)

// StatsCacheVersion tags every written entry. Bumping it turns all existing
// rows into misses on their next read regardless of age.
const StatsCacheVersion = 1

// Roughly 1-in-10 writes piggyback a cleanup pass; amortized cost instead of
// a dedicated background timer.
const cleanupSampleRate = 10

const DefaultStatsCacheTTL = time.Hour

// CacheStore is the versioned, TTL-bound store of computed player payloads.
// Rows live in Postgres keyed by player id; each write replaces the payload
// wholesale and stamps the current time and version.
type CacheStore struct {
	db      *database.DB
	logger  *logrus.Logger
	ttl     time.Duration
	version int
	now     func() time.Time
}

func NewCacheStore(db *database.DB, logger *logrus.Logger, ttl time.Duration) *CacheStore {
	if ttl <= 0 {
		ttl = DefaultStatsCacheTTL
	}
	return &CacheStore{
		db:      db,
		logger:  logger,
		ttl:     ttl,
		version: StatsCacheVersion,
		now:     time.Now,
	}
}

// CacheStats is the observability snapshot returned by Stats.
type CacheStats struct {
	Size        int64      `json:"size"`
	Version     int        `json:"version"`
	OldestEntry *time.Time `json:"oldest_entry,omitempty"`
	NewestEntry *time.Time `json:"newest_entry,omitempty"`
}

// Get returns the cached payload for a player. Absent, expired and
// version-mismatched entries are all misses, never errors; the latter two are
// deleted eagerly so the table only holds live rows.
func (s *CacheStore) Get(ctx context.Context, playerID int) (*models.PlayerPayload, bool, error) {
	var entry models.StatCacheEntry
	err := s.db.WithContext(ctx).First(&entry, "player_id = ?", playerID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, false, nil
		}
		return nil, false, utils.NewAppError(utils.ErrCodeCacheRead, "failed to read cache entry", err.Error())
	}

	if s.now().Sub(entry.UpdatedAt) >= s.ttl || entry.Version != s.version {
		s.deleteEntry(ctx, playerID)
		return nil, false, nil
	}

	var payload models.PlayerPayload
	if err := json.Unmarshal(entry.Payload, &payload); err != nil {
		// an unreadable row is as good as absent
		s.logger.Warnf("Dropping undecodable cache entry for player %d: %v", playerID, err)
		s.deleteEntry(ctx, playerID)
		return nil, false, nil
	}

	return &payload, true, nil
}

// Set validates and writes a payload, overwriting any existing entry for the
// player. No partial write happens on validation failure.
func (s *CacheStore) Set(ctx context.Context, payload *models.PlayerPayload) error {
	if err := validatePayload(payload); err != nil {
		return err
	}

	entry, err := s.buildEntry(payload)
	if err != nil {
		return utils.NewAppError(utils.ErrCodeCacheWrite, "failed to encode payload", err.Error())
	}

	if err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "player_id"}},
		UpdateAll: true,
	}).Create(&entry).Error; err != nil {
		return utils.NewAppError(utils.ErrCodeCacheWrite, "failed to write cache entry", err.Error())
	}

	s.maybeCleanup(ctx)
	return nil
}

// SetBatch writes multiple payloads as one upsert. Validation runs up front
// over the whole batch; any failure rejects the batch before a row is
// touched.
func (s *CacheStore) SetBatch(ctx context.Context, payloads []*models.PlayerPayload) error {
	if len(payloads) == 0 {
		return nil
	}

	entries := make([]models.StatCacheEntry, 0, len(payloads))
	for _, payload := range payloads {
		if err := validatePayload(payload); err != nil {
			return err
		}
		entry, err := s.buildEntry(payload)
		if err != nil {
			return utils.NewAppError(utils.ErrCodeCacheWrite, "failed to encode payload", err.Error())
		}
		entries = append(entries, entry)
	}

	if err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "player_id"}},
		UpdateAll: true,
	}).Create(&entries).Error; err != nil {
		return utils.NewAppError(utils.ErrCodeCacheWrite, "failed to write cache batch", err.Error())
	}

	return nil
}

// Invalidate deletes a specific entry so the next read refetches.
func (s *CacheStore) Invalidate(ctx context.Context, playerID int) error {
	if err := s.db.WithContext(ctx).Delete(&models.StatCacheEntry{}, "player_id = ?", playerID).Error; err != nil {
		return utils.NewAppError(utils.ErrCodeCacheClear, "failed to invalidate cache entry", err.Error())
	}
	return nil
}

// Cleanup deletes every entry that is past TTL or carries a stale version,
// returning how many rows went.
func (s *CacheStore) Cleanup(ctx context.Context) (int64, error) {
	cutoff := s.now().Add(-s.ttl)
	res := s.db.WithContext(ctx).
		Where("updated_at < ? OR version <> ?", cutoff, s.version).
		Delete(&models.StatCacheEntry{})
	if res.Error != nil {
		return 0, utils.NewAppError(utils.ErrCodeCacheClear, "failed to clean up cache", res.Error.Error())
	}
	return res.RowsAffected, nil
}

// Stats reports size, version and the timestamp spread of the stored entries.
func (s *CacheStore) Stats(ctx context.Context) (*CacheStats, error) {
	stats := &CacheStats{Version: s.version}

	if err := s.db.WithContext(ctx).Model(&models.StatCacheEntry{}).Count(&stats.Size).Error; err != nil {
		return nil, utils.NewAppError(utils.ErrCodeCacheRead, "failed to count cache entries", err.Error())
	}
	if stats.Size == 0 {
		return stats, nil
	}

	var oldest, newest models.StatCacheEntry
	if err := s.db.WithContext(ctx).Order("updated_at asc").First(&oldest).Error; err != nil {
		return nil, utils.NewAppError(utils.ErrCodeCacheRead, "failed to read oldest cache entry", err.Error())
	}
	if err := s.db.WithContext(ctx).Order("updated_at desc").First(&newest).Error; err != nil {
		return nil, utils.NewAppError(utils.ErrCodeCacheRead, "failed to read newest cache entry", err.Error())
	}

	stats.OldestEntry = &oldest.UpdatedAt
	stats.NewestEntry = &newest.UpdatedAt
	return stats, nil
}

func (s *CacheStore) buildEntry(payload *models.PlayerPayload) (models.StatCacheEntry, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return models.StatCacheEntry{}, err
	}
	return models.StatCacheEntry{
		PlayerID:  payload.Player.ID,
		Payload:   data,
		Version:   s.version,
		UpdatedAt: s.now().UTC(),
	}, nil
}

func (s *CacheStore) deleteEntry(ctx context.Context, playerID int) {
	if err := s.db.WithContext(ctx).Delete(&models.StatCacheEntry{}, "player_id = ?", playerID).Error; err != nil {
		s.logger.Warnf("Failed to delete stale cache entry for player %d: %v", playerID, err)
	}
}

func (s *CacheStore) maybeCleanup(ctx context.Context) {
	if rand.Intn(cleanupSampleRate) != 0 {
		return
	}
	removed, err := s.Cleanup(ctx)
	if err != nil {
		s.logger.Warnf("Inline cache cleanup failed: %v", err)
		return
	}
	if removed > 0 {
		s.logger.Debugf("Inline cache cleanup removed %d entries", removed)
	}
}

func validatePayload(payload *models.PlayerPayload) error {
	if payload == nil {
		return utils.NewAppError(utils.ErrCodeInvalidFormat, "payload is required")
	}
	if payload.Player.ID == 0 {
		return utils.NewAppError(utils.ErrCodeMissingField, "payload is missing a required field", "player.id")
	}
	if payload.Player.FirstName == "" && payload.Player.LastName == "" {
		return utils.NewAppError(utils.ErrCodeMissingField, "payload is missing a required field", "player.name")
	}
	if !isNumeric(payload.RegularSeason.NetRating) || !isNumeric(payload.Postseason.NetRating) {
		return utils.NewAppError(utils.ErrCodeInvalidNetRating, "net rating is not numeric")
	}
	for _, mg := range payload.RecentGames {
		if !isNumeric(mg.NetRating) {
			return utils.NewAppError(utils.ErrCodeInvalidNetRating, "net rating is not numeric")
		}
	}
	return nil
}

func isNumeric(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
