// internal/scheduler/scheduler.go

// Package scheduler recomputes every member's contribution total at the start
// of each month. The whole batch runs in a single transaction; a failed run
// leaves all totals untouched and is retried on the next monthly fire.
package scheduler

import (
	"context"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"rejestr/internal/dues"
	"rejestr/internal/registry"
)

// Store is the slice of the member store the scheduler needs.
type Store interface {
	UpdateContributions(ctx context.Context, compute func(registry.Member) int) (int, error)
}

type Scheduler struct {
	store   Store
	engine  *dues.Engine
	logger  *slog.Logger
	metrics *schedulerMetrics
	now     func() time.Time
}

// NewScheduler wires the monthly recalculation job. promRegistry may be nil to
// disable metrics; logger may be nil to use the default.
func NewScheduler(store Store, engine *dues.Engine, logger *slog.Logger, promRegistry prometheus.Registerer) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Scheduler{
		store:  store,
		engine: engine,
		logger: logger,
		now:    time.Now,
	}
	if promRegistry != nil {
		s.initMetrics(promRegistry)
	}
	return s
}

// Run blocks until ctx is cancelled, firing a recalculation at midnight UTC on
// the first day of every month. Callers start it in its own goroutine.
func (s *Scheduler) Run(ctx context.Context) {
	for {
		next := nextMonthStart(s.now().UTC())
		timer := time.NewTimer(next.Sub(s.now().UTC()))
		s.logger.Info("recalculation scheduled", "at", next)

		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
		}

		// A failed batch rolled back whole; the totals are recomputed from
		// scratch on the next fire, so there is nothing to catch up on.
		s.RecalculateAll(ctx)
	}
}

// RecalculateAll recomputes every active member's total from scratch for the
// current reference month. All rows update in one transaction or none do.
func (s *Scheduler) RecalculateAll(ctx context.Context) (int, error) {
	refMonth := monthStart(s.now().UTC())
	started := s.now()

	updated, err := s.store.UpdateContributions(ctx, func(m registry.Member) int {
		return s.engine.Accrue(m.JoinDateToOrganization, m.DateOfBirth, refMonth)
	})
	elapsed := s.now().Sub(started)

	if err != nil {
		s.logger.Error("recalculation failed", "reference_month", refMonth, "error", err)
		if s.metrics != nil {
			s.metrics.runsTotal.WithLabelValues("failure").Inc()
		}
		return 0, err
	}

	s.logger.Info("recalculation complete",
		"reference_month", refMonth, "members_updated", updated, "elapsed", elapsed)
	if s.metrics != nil {
		s.metrics.runsTotal.WithLabelValues("success").Inc()
		s.metrics.membersUpdated.Set(float64(updated))
		s.metrics.lastRunTime.Set(float64(s.now().Unix()))
		s.metrics.runDuration.Observe(elapsed.Seconds())
	}
	return updated, nil
}

func monthStart(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
}

func nextMonthStart(t time.Time) time.Time {
	return monthStart(t).AddDate(0, 1, 0)
}
