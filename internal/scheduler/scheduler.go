// Package scheduler wires up the cron job that triggers one analysis run
// per day at the configured wall-clock time.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"go-upwork-analyzer/internal/config"
)

// Runner is the unit of work the scheduler fires.
type Runner interface {
	Run(ctx context.Context) error
}

// Scheduler wraps robfig/cron with the daily spec derived from HH:MM.
type Scheduler struct {
	cron   *cron.Cron
	runner Runner
	spec   string
	logger *slog.Logger
}

// New builds a scheduler firing daily at scheduleTime (HH:MM) in the given
// location. The single cron entry guarantees at most one run at a time.
func New(runner Runner, scheduleTime string, loc *time.Location, logger *slog.Logger) (*Scheduler, error) {
	spec, err := DailySpec(scheduleTime)
	if err != nil {
		return nil, err
	}
	return &Scheduler{
		cron:   cron.New(cron.WithLocation(loc)),
		runner: runner,
		spec:   spec,
		logger: logger,
	}, nil
}

// Start registers the daily job and blocks until ctx is cancelled, then
// stops the cron and waits for any in-flight run to finish.
func (s *Scheduler) Start(ctx context.Context) error {
	_, err := s.cron.AddFunc(s.spec, func() {
		if err := s.runner.Run(ctx); err != nil {
			s.logger.Error("scheduled run failed", "error", err)
		}
	})
	if err != nil {
		return fmt.Errorf("cron.AddFunc: %w", err)
	}

	s.cron.Start()
	s.logger.Info("⏰ Scheduler started", "spec", s.spec)
	if entries := s.cron.Entries(); len(entries) > 0 {
		s.logger.Info(fmt.Sprintf("📅 Next run scheduled: %s", entries[0].Next.Format("02 Jan 2006 15:04 MST")))
	}

	<-ctx.Done()

	stopCtx := s.cron.Stop()
	<-stopCtx.Done()
	s.logger.Info("👋 Scheduler stopped")
	return nil
}

// DailySpec converts an HH:MM wall-clock string into a cron spec firing
// once per day at that time.
func DailySpec(scheduleTime string) (string, error) {
	t, err := config.ParseClock(scheduleTime)
	if err != nil {
		return "", fmt.Errorf("parse schedule time %q: %w", scheduleTime, err)
	}
	return fmt.Sprintf("%d %d * * *", t.Minute(), t.Hour()), nil
}
