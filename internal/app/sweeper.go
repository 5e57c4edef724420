package app

import (
	"context"
	"log/slog"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/pollwave/pollwave/internal/metrics"
	"github.com/pollwave/pollwave/internal/poll"
)

const DefaultSweepInterval = 60 * time.Second

// Sweeper periodically drives the lifecycle manager to persist the CLOSED
// status of polls past their expiry. Correctness does not depend on its
// cadence - vote admission checks expiry lazily on every read - so the
// sweeper is pure bookkeeping. It never publishes realtime deltas: closing
// a poll changes no vote counts.
type Sweeper struct {
	lifecycle *poll.Lifecycle
	clock     clockwork.Clock
	interval  time.Duration
}

func NewSweeper(lifecycle *poll.Lifecycle, clock clockwork.Clock, interval time.Duration) *Sweeper {
	if interval <= 0 {
		interval = DefaultSweepInterval
	}
	return &Sweeper{lifecycle: lifecycle, clock: clock, interval: interval}
}

// Run starts the periodic sweep loop. It blocks until ctx is cancelled.
func (s *Sweeper) Run(ctx context.Context) {
	ticker := s.clock.NewTicker(s.interval)
	defer ticker.Stop()

	slog.Info("Expiration sweeper started", "interval", s.interval)

	for {
		select {
		case <-ctx.Done():
			slog.Info("Expiration sweeper stopped")
			return
		case <-ticker.Chan():
			s.sweep(ctx)
		}
	}
}

func (s *Sweeper) sweep(ctx context.Context) {
	start := s.clock.Now()
	defer func() {
		metrics.SweeperDuration.Observe(s.clock.Since(start).Seconds())
	}()

	closed, err := s.lifecycle.CloseExpired(ctx)
	if err != nil {
		slog.Error("Expiration sweep failed", "error", err)
		metrics.SweeperRunsTotal.WithLabelValues("error").Inc()
		return
	}

	metrics.SweeperRunsTotal.WithLabelValues("ok").Inc()
	if closed > 0 {
		slog.Info("Closed expired polls", "count", closed)
	} else {
		slog.Debug("No expired polls found")
	}
}
