package reconcile

import (
	"context"
	"log/slog"

	"github.com/robfig/cron/v3"
)

// Scheduler runs Sweep on a cron schedule.
type Scheduler struct {
	cron       *cron.Cron
	reconciler *Reconciler
	logger     *slog.Logger
}

func NewScheduler(reconciler *Reconciler, logger *slog.Logger) *Scheduler {
	return &Scheduler{
		cron:       cron.New(),
		reconciler: reconciler,
		logger:     logger,
	}
}

// Start registers the sweep under schedule (standard five-field cron or a
// descriptor such as "@every 10m") and starts the scheduler.
func (s *Scheduler) Start(schedule string) error {
	if _, err := s.cron.AddFunc(schedule, s.run); err != nil {
		return err
	}
	s.cron.Start()
	s.logger.Info("reconcile scheduler started", "schedule", schedule)
	return nil
}

// Stop stops the scheduler and waits for a running sweep to finish or ctx
// to be done.
func (s *Scheduler) Stop(ctx context.Context) {
	select {
	case <-s.cron.Stop().Done():
	case <-ctx.Done():
	}
	s.logger.Info("reconcile scheduler stopped")
}

func (s *Scheduler) run() {
	if _, err := s.reconciler.Sweep(context.Background()); err != nil {
		s.logger.Warn("scheduled reconciliation failed", "error", err)
	}
}
