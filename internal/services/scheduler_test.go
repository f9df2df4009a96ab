package services

import (
	"io"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jstittsworth/hoopstats/internal/models"
)

func newTestScheduler(t *testing.T, refreshSchedule, cleanupSchedule string) *RefreshScheduler {
	t.Helper()

	provider := &fakeProvider{rosterPages: [][]models.PlayerIdentity{}}
	store := newTestStore(t, time.Hour)
	log := logrus.New()
	log.SetOutput(io.Discard)
	players := NewPlayerService(provider, store, NewStatAggregator(AggregatorOptions{}), log)
	pipeline := NewRefreshPipeline(provider, store, players, log, 5, time.Second, 10)

	return NewRefreshScheduler(pipeline, store, log, refreshSchedule, cleanupSchedule, false)
}

func TestSchedulerStartStop(t *testing.T) {
	s := newTestScheduler(t, "@every 1h", "0 3 * * *")

	require.NoError(t, s.Start())
	assert.Error(t, s.Start(), "second start must fail")

	s.Stop()
	s.Stop() // idempotent
}

func TestSchedulerRejectsBadSchedule(t *testing.T) {
	s := newTestScheduler(t, "not a schedule", "0 3 * * *")
	assert.Error(t, s.Start())
}
