package services

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jstittsworth/hoopstats/internal/models"
)

func newTestPipeline(t *testing.T, provider StatsProvider, batchSize int) (*RefreshPipeline, *CacheStore, *int) {
	t.Helper()

	store := newTestStore(t, time.Hour)
	log := logrus.New()
	log.SetOutput(io.Discard)
	players := NewPlayerService(provider, store, NewStatAggregator(AggregatorOptions{}), log)

	pipeline := NewRefreshPipeline(provider, store, players, log, batchSize, time.Second, 10)
	delays := 0
	pipeline.sleep = func(time.Duration) { delays++ }
	return pipeline, store, &delays
}

func rosterOf(n int) []models.PlayerIdentity {
	roster := make([]models.PlayerIdentity, 0, n)
	for i := 1; i <= n; i++ {
		roster = append(roster, identity(i, "Player"))
	}
	return roster
}

func gamesFor(roster []models.PlayerIdentity) map[int][]models.GameRecord {
	games := make(map[int][]models.GameRecord, len(roster))
	for _, p := range roster {
		games[p.ID] = []models.GameRecord{
			{Date: "2024-03-01", Minutes: "30:00", Points: float64(p.ID)},
		}
	}
	return games
}

func TestRefreshAllBatching(t *testing.T) {
	roster := rosterOf(12)
	provider := &fakeProvider{
		rosterPages: [][]models.PlayerIdentity{roster},
		games:       gamesFor(roster),
	}
	pipeline, store, delays := newTestPipeline(t, provider, 5)

	report, err := pipeline.RefreshAll(context.Background())
	require.NoError(t, err)

	// 12 players at batch size 5: batches of 5, 5, 2 with exactly 2 delays
	assert.Equal(t, 12, report.Players)
	assert.Equal(t, 12, report.Fetched)
	assert.Equal(t, 0, report.Skipped)
	assert.Equal(t, 3, report.Batches)
	assert.Equal(t, 2, *delays)

	stats, err := store.Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(12), stats.Size)
}

func TestRefreshAllSkipsFailedFetches(t *testing.T) {
	roster := rosterOf(6)
	provider := &fakeProvider{
		rosterPages: [][]models.PlayerIdentity{roster},
		games:       gamesFor(roster),
		failGames:   map[int]bool{2: true, 5: true},
	}
	pipeline, store, _ := newTestPipeline(t, provider, 3)

	report, err := pipeline.RefreshAll(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 4, report.Fetched)
	assert.Equal(t, 2, report.Skipped)
	assert.Equal(t, 0, report.FailedWrites)

	stats, err := store.Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(4), stats.Size)

	// skipped players stay misses until the next cycle
	_, ok, err := store.Get(context.Background(), 2)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRefreshAllCleansUpFirst(t *testing.T) {
	roster := rosterOf(2)
	provider := &fakeProvider{
		rosterPages: [][]models.PlayerIdentity{roster},
		games:       gamesFor(roster),
	}
	pipeline, store, _ := newTestPipeline(t, provider, 5)
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, testPayload(99)))
	backdate(t, store, 99, time.Now().Add(-2*time.Hour))

	report, err := pipeline.RefreshAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), report.Cleaned)

	_, ok, err := store.Get(ctx, 99)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRefreshAllPagedRoster(t *testing.T) {
	roster := rosterOf(7)
	provider := &fakeProvider{
		rosterPages: [][]models.PlayerIdentity{roster[:4], roster[4:]},
		games:       gamesFor(roster),
	}
	pipeline, _, _ := newTestPipeline(t, provider, 5)

	report, err := pipeline.RefreshAll(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 7, report.Players)
	assert.Equal(t, 7, report.Fetched)
}

func TestRefreshAllBoundedRosterWalk(t *testing.T) {
	// every page non-empty: the walk must stop at maxRosterPages
	pages := make([][]models.PlayerIdentity, 30)
	games := map[int][]models.GameRecord{}
	id := 1
	for i := range pages {
		pages[i] = []models.PlayerIdentity{identity(id, "Endless")}
		games[id] = []models.GameRecord{{Date: "2024-03-01", Minutes: "30:00"}}
		id++
	}
	provider := &fakeProvider{rosterPages: pages, games: games}

	store := newTestStore(t, time.Hour)
	log := logrus.New()
	log.SetOutput(io.Discard)
	players := NewPlayerService(provider, store, NewStatAggregator(AggregatorOptions{}), log)
	pipeline := NewRefreshPipeline(provider, store, players, log, 5, 0, 3)
	pipeline.sleep = func(time.Duration) {}

	report, err := pipeline.RefreshAll(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, report.Players)
}

func TestRefreshAllSingleBatchNoDelay(t *testing.T) {
	roster := rosterOf(4)
	provider := &fakeProvider{
		rosterPages: [][]models.PlayerIdentity{roster},
		games:       gamesFor(roster),
	}
	pipeline, _, delays := newTestPipeline(t, provider, 5)

	report, err := pipeline.RefreshAll(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, report.Batches)
	assert.Equal(t, 0, *delays)
}
