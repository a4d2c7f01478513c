// Package scheduler runs the background reconciliation jobs the serving
// path deliberately keeps out of its hot loop: ending exhausted or
// expired campaigns and resetting daily spend counters at the UTC day
// boundary.
package scheduler

import (
	"context"
	"time"

	"github.com/go-co-op/gocron"
	"log/slog"

	"adgate/internal/core/port"
)

// Sweeper owns the gocron scheduler and the catalog it sweeps.
type Sweeper struct {
	scheduler *gocron.Scheduler
	catalog   port.CatalogStore
	logger    *slog.Logger
}

// New creates a sweeper. Jobs run on UTC time so the daily reset lines
// up with the day boundary the budget counters use.
func New(catalog port.CatalogStore, logger *slog.Logger) *Sweeper {
	return &Sweeper{
		scheduler: gocron.NewScheduler(time.UTC),
		catalog:   catalog,
		logger:    logger,
	}
}

// Start registers the jobs and launches the scheduler in the
// background. The end sweep runs hourly; the daily reset at midnight
// UTC. The commit path rolls the day over in its own transaction, so
// the reset job is reconciliation for idle campaigns, not a
// correctness dependency.
func (s *Sweeper) Start() error {
	if _, err := s.scheduler.Every(1).Hour().Do(s.endExpired); err != nil {
		return err
	}
	if _, err := s.scheduler.Every(1).Day().At("00:00").Do(s.resetDaily); err != nil {
		return err
	}
	s.scheduler.StartAsync()
	return nil
}

// Stop waits for running jobs and stops the scheduler.
func (s *Sweeper) Stop() {
	s.scheduler.Stop()
}

func (s *Sweeper) endExpired() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	n, err := s.catalog.EndExpiredCampaigns(ctx, time.Now().UTC())
	if err != nil {
		s.logger.Error("end sweep failed", slog.Any("error", err))
		return
	}
	if n > 0 {
		s.logger.Info("campaigns ended", slog.Int64("count", n))
	}
}

func (s *Sweeper) resetDaily() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	n, err := s.catalog.ResetDailySpend(ctx, time.Now().UTC())
	if err != nil {
		s.logger.Error("daily reset failed", slog.Any("error", err))
		return
	}
	s.logger.Info("daily spend reset", slog.Int64("count", n))
}
