package services

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/fleetsight/telemetry-agent/internal/config"
	"github.com/fleetsight/telemetry-agent/internal/models"
	"github.com/fleetsight/telemetry-agent/internal/store"
)

// shiftCacheRetention bounds how long settled shift summaries are kept.
const shiftCacheRetention = 30 * 24 * time.Hour

// Sync periodically collects today's route sheets so the archive stays
// current without manual requests. A tick that lands while a collection is
// already running is skipped, not queued.
type Sync struct {
	interval  time.Duration
	collector *CollectorService
	store     *store.Store
	close     chan any
}

func NewSyncService(cfg config.Agent, collector *CollectorService, st *store.Store) *Sync {
	return &Sync{
		interval:  cfg.SyncInterval,
		collector: collector,
		store:     st,
		close:     make(chan any),
	}
}

func (s *Sync) Start() {
	go s.run()
}

func (s *Sync) Stop() {
	close(s.close)
}

func (s *Sync) run() {
	tick := time.NewTicker(s.interval)
	defer func() {
		tick.Stop()
		zap.S().Debugw("sync loop stopped")
	}()

	s.syncToday()
	for {
		select {
		case <-tick.C:
		case <-s.close:
			zap.S().Debugw("close signal received, exiting sync loop")
			return
		}

		s.syncToday()
		s.purgeStaleCache()
	}
}

func (s *Sync) syncToday() {
	now := time.Now()
	start := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	period := Period{From: start, To: start.Add(24 * time.Hour)}

	runID, err := s.collector.Start(context.Background(), period)
	switch {
	case err == nil:
		zap.S().Infow("scheduled sync collection",
			"run", runID,
			"from", models.FormatDateTime(period.From),
			"to", models.FormatDateTime(period.To))
	case errors.Is(err, ErrCollectionInProgress):
		zap.S().Debugw("sync skipped, collection already in progress")
	case errors.Is(err, ErrNoCredentials):
		zap.S().Debugw("sync skipped, no credentials configured")
	default:
		zap.S().Warnw("sync collection failed to start", "error", err)
	}
}

func (s *Sync) purgeStaleCache() {
	cutoff := time.Now().Add(-shiftCacheRetention)
	if err := s.store.ShiftCache().Purge(context.Background(), cutoff); err != nil {
		zap.S().Warnw("shift cache purge failed", "error", err)
	}
}
