package scheduler

import (
	"context"
	"log/slog"
	"time"

	"marketwatch/internal/domain"
	"marketwatch/internal/metrics"
)

// Poller runs one poll cycle.
type Poller interface {
	Poll(ctx context.Context) (*domain.PollStats, error)
}

// Scheduler drives the poller on a fixed interval. The interval starts
// counting when a cycle finishes, so cycles never overlap regardless of
// how long one takes.
type Scheduler struct {
	poller       Poller
	interval     time.Duration
	cycleTimeout time.Duration
	metrics      *metrics.Metrics // nil disables instrumentation
	logger       *slog.Logger
}

func New(poller Poller, interval, cycleTimeout time.Duration, m *metrics.Metrics, logger *slog.Logger) *Scheduler {
	return &Scheduler{
		poller:       poller,
		interval:     interval,
		cycleTimeout: cycleTimeout,
		metrics:      m,
		logger:       logger.With("component", "scheduler"),
	}
}

// Start runs cycles until ctx is cancelled. Cancellation is honored
// between cycles: an in-flight cycle runs to completion (bounded by the
// cycle timeout) so a batch is never left written but unmarked.
func (s *Scheduler) Start(ctx context.Context) error {
	s.logger.Info("scheduler started", "interval", s.interval)

	for {
		s.runCycle(ctx)

		timer := time.NewTimer(s.interval)
		select {
		case <-ctx.Done():
			timer.Stop()
			s.logger.Info("scheduler stopped")
			return ctx.Err()
		case <-timer.C:
		}
	}
}

func (s *Scheduler) runCycle(ctx context.Context) {
	// Detached from the loop context so shutdown waits for the cycle.
	cycleCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.cycleTimeout)
	defer cancel()

	start := time.Now()
	stats, err := s.poller.Poll(cycleCtx)

	if s.metrics != nil {
		s.metrics.CycleDuration.Observe(time.Since(start).Seconds())
	}

	if err != nil {
		if s.metrics != nil {
			s.metrics.CyclesTotal.WithLabelValues("error").Inc()
		}
		s.logger.Error("poll cycle failed", "error", err)
		return
	}

	if s.metrics != nil {
		s.metrics.CyclesTotal.WithLabelValues("ok").Inc()
	}
	s.logger.Info("next cycle scheduled",
		"in", s.interval,
		"new_listings", stats.New,
	)
}
