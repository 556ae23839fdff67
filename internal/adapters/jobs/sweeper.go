// Package jobs runs background maintenance loops for the trust service.
package jobs

import (
	"context"
	"time"

	"github.com/trustgraph/trustgraph/internal/domain/types"
	"github.com/trustgraph/trustgraph/pkg/logger"
)

const defaultSweepInterval = 15 * time.Minute

// Sweep is the operation the sweeper drives on every tick.
type Sweep interface {
	RecomputeStale(ctx context.Context) (types.SweepResult, error)
}

// Sweeper periodically recomputes stale scores so lazily-updated keys
// converge even when no ingest touches them.
type Sweeper struct {
	sweep    Sweep
	interval time.Duration

	shutdown chan struct{}
	done     chan struct{}

	logger logger.Logger
}

// Option applies a configuration option to the Sweeper.
type Option func(*Sweeper)

// WithInterval sets the tick interval between sweep passes.
func WithInterval(d time.Duration) Option {
	return func(s *Sweeper) {
		if d > 0 {
			s.interval = d
		}
	}
}

// WithLogger sets a custom logger for the sweeper.
func WithLogger(l logger.Logger) Option {
	return func(s *Sweeper) {
		if l != nil {
			s.logger = l
		}
	}
}

// NewSweeper creates a sweeper over the given sweep operation.
func NewSweeper(sweep Sweep, opts ...Option) *Sweeper {
	s := &Sweeper{
		sweep:    sweep,
		interval: defaultSweepInterval,
		shutdown: make(chan struct{}),
		done:     make(chan struct{}),
		logger:   logger.Named("sweeper"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Run drives sweep passes until ctx is canceled or Shutdown is called.
// It blocks; callers run it in its own goroutine.
func (s *Sweeper) Run(ctx context.Context) {
	defer close(s.done)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-s.shutdown:
			return
		case <-ticker.C:
			result, err := s.sweep.RecomputeStale(ctx)
			if err != nil {
				s.logger.Error(ctx, "sweep pass failed", logger.Err(err))
				continue
			}
			if result.Processed > 0 {
				s.logger.Info(ctx, "sweep pass complete",
					logger.Int("processed", result.Processed),
				)
			}
		}
	}
}

// Shutdown stops the loop and waits for the in-flight pass to finish.
func (s *Sweeper) Shutdown(ctx context.Context) error {
	select {
	case <-s.shutdown:
		// Already shut down.
	default:
		close(s.shutdown)
	}

	select {
	case <-s.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
