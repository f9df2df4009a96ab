package services

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/jstittsworth/hoopstats/internal/models"
	"github.com/jstittsworth/hoopstats/pkg/logger"
	"github.com/jstittsworth/hoopstats/pkg/utils"
)

const (
	defaultRefreshBatchSize = 5
	defaultRosterMaxPages   = 50
)

// RefreshReport summarizes one bulk refresh cycle.
type RefreshReport struct {
	Players      int           `json:"players"`
	Fetched      int           `json:"fetched"`
	Skipped      int           `json:"skipped"`
	Batches      int           `json:"batches"`
	FailedWrites int           `json:"failed_writes"`
	Cleaned      int64         `json:"cleaned"`
	Duration     time.Duration `json:"duration"`
}

// RefreshPipeline proactively repopulates the cache from the upstream
// provider. Fetches within a batch run concurrently; batches run one after
// another with a fixed delay in between so upstream rate limits hold.
type RefreshPipeline struct {
	provider       StatsProvider
	cache          *CacheStore
	players        *PlayerService
	logger         *logrus.Logger
	batchSize      int
	batchDelay     time.Duration
	maxRosterPages int
	sleep          func(time.Duration)
}

func NewRefreshPipeline(
	provider StatsProvider,
	cache *CacheStore,
	players *PlayerService,
	log *logrus.Logger,
	batchSize int,
	batchDelay time.Duration,
	maxRosterPages int,
) *RefreshPipeline {
	if batchSize <= 0 {
		batchSize = defaultRefreshBatchSize
	}
	if maxRosterPages <= 0 {
		maxRosterPages = defaultRosterMaxPages
	}
	return &RefreshPipeline{
		provider:       provider,
		cache:          cache,
		players:        players,
		logger:         log,
		batchSize:      batchSize,
		batchDelay:     batchDelay,
		maxRosterPages: maxRosterPages,
		sleep:          time.Sleep,
	}
}

// RefreshAll walks the full roster and rebuilds every player's payload.
// Fetch failures within a batch are skipped for this cycle, not retried; a
// failed batch write is logged and later batches still run.
func (p *RefreshPipeline) RefreshAll(ctx context.Context) (*RefreshReport, error) {
	started := time.Now()
	log := logger.WithRefreshContext(p.logger, uuid.NewString()[:8])
	report := &RefreshReport{}

	cleaned, err := p.cache.Cleanup(ctx)
	if err != nil {
		log.Warnf("Pre-refresh cleanup failed: %v", err)
	}
	report.Cleaned = cleaned

	roster, err := p.fetchRoster(ctx)
	if err != nil {
		return report, err
	}
	report.Players = len(roster)
	log.Infof("Refreshing %d players in batches of %d", len(roster), p.batchSize)

	for i := 0; i < len(roster); i += p.batchSize {
		if i > 0 {
			p.sleep(p.batchDelay)
		}

		batch := roster[i:min(i+p.batchSize, len(roster))]
		report.Batches++

		payloads := p.refreshBatch(ctx, batch, log)
		report.Fetched += len(payloads)
		report.Skipped += len(batch) - len(payloads)

		if len(payloads) == 0 {
			continue
		}
		if err := p.cache.SetBatch(ctx, payloads); err != nil {
			report.FailedWrites++
			log.Errorf("Failed to write batch of %d payloads: %v", len(payloads), err)
		}
	}

	report.Duration = time.Since(started)
	log.Infof("Refresh complete: %d fetched, %d skipped, %d batches in %s",
		report.Fetched, report.Skipped, report.Batches, report.Duration)
	return report, nil
}

// fetchRoster pages through the full roster. The page walk is bounded so a
// misbehaving upstream cannot loop us forever.
func (p *RefreshPipeline) fetchRoster(ctx context.Context) ([]models.PlayerIdentity, error) {
	var roster []models.PlayerIdentity
	for page := 1; page <= p.maxRosterPages; page++ {
		players, err := p.provider.GetRoster(ctx, page)
		if err != nil {
			return nil, utils.NewAppError(utils.ErrCodeUpstream, "failed to fetch roster", err.Error())
		}
		if len(players) == 0 {
			break
		}
		roster = append(roster, players...)
	}
	return roster, nil
}

func (p *RefreshPipeline) refreshBatch(ctx context.Context, batch []models.PlayerIdentity, log *logrus.Entry) []*models.PlayerPayload {
	var (
		mu       sync.Mutex
		wg       sync.WaitGroup
		payloads []*models.PlayerPayload
	)

	for _, identity := range batch {
		wg.Add(1)
		go func(identity models.PlayerIdentity) {
			defer wg.Done()
			payload, err := p.players.BuildPayload(ctx, identity)
			if err != nil {
				log.Warnf("Skipping player %d this cycle: %v", identity.ID, err)
				return
			}
			mu.Lock()
			payloads = append(payloads, payload)
			mu.Unlock()
		}(identity)
	}
	wg.Wait()

	return payloads
}
