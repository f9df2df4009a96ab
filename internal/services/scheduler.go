package services

import (
	"context"
	"fmt"
	"sync"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// RefreshScheduler runs the refresh pipeline and cache maintenance on cron
// schedules, out of the request path.
type RefreshScheduler struct {
	pipeline        *RefreshPipeline
	cache           *CacheStore
	logger          *logrus.Logger
	cron            *cron.Cron
	mu              sync.Mutex
	isRunning       bool
	refreshSchedule string
	cleanupSchedule string
	runInitial      bool
}

func NewRefreshScheduler(
	pipeline *RefreshPipeline,
	cache *CacheStore,
	logger *logrus.Logger,
	refreshSchedule string,
	cleanupSchedule string,
	runInitial bool,
) *RefreshScheduler {
	return &RefreshScheduler{
		pipeline:        pipeline,
		cache:           cache,
		logger:          logger,
		cron:            cron.New(),
		refreshSchedule: refreshSchedule,
		cleanupSchedule: cleanupSchedule,
		runInitial:      runInitial,
	}
}

// Start registers the schedules and begins running them.
func (s *RefreshScheduler) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isRunning {
		return fmt.Errorf("refresh scheduler is already running")
	}

	if _, err := s.cron.AddFunc(s.refreshSchedule, s.runRefresh); err != nil {
		return fmt.Errorf("failed to schedule refresh: %w", err)
	}

	if _, err := s.cron.AddFunc(s.cleanupSchedule, s.runCleanup); err != nil {
		return fmt.Errorf("failed to schedule cleanup: %w", err)
	}

	s.cron.Start()
	s.isRunning = true

	if s.runInitial {
		go s.runRefresh()
	}

	s.logger.Info("Refresh scheduler started")
	return nil
}

// Stop halts the schedules and waits for in-flight jobs.
func (s *RefreshScheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.isRunning {
		return
	}

	ctx := s.cron.Stop()
	<-ctx.Done()

	s.isRunning = false
	s.logger.Info("Refresh scheduler stopped")
}

func (s *RefreshScheduler) runRefresh() {
	report, err := s.pipeline.RefreshAll(context.Background())
	if err != nil {
		s.logger.Errorf("Scheduled refresh failed: %v", err)
		return
	}
	s.logger.Infof("Scheduled refresh: %d players, %d fetched, %d skipped",
		report.Players, report.Fetched, report.Skipped)
}

func (s *RefreshScheduler) runCleanup() {
	removed, err := s.cache.Cleanup(context.Background())
	if err != nil {
		s.logger.Errorf("Scheduled cleanup failed: %v", err)
		return
	}
	s.logger.Infof("Scheduled cleanup removed %d entries", removed)
}
