// Package recompute keeps persisted score rows consistent with the
// event log.
//
// Two triggers exist: a lazy trigger fired synchronously after ingest,
// and a bounded stale sweep driven by an external scheduler. Concurrent
// recomputes for one key are not serialized: each run re-reads its
// events fresh and the score upsert is a single atomic statement, so
// overlapping runs resolve last-writer-wins. That tradeoff favors
// availability over strict serializability and is intentional.
package recompute

import (
	"context"
	"fmt"
	"time"

	"github.com/trustgraph/trustgraph/internal/adapters/repository"
	"github.com/trustgraph/trustgraph/internal/domain/model"
	"github.com/trustgraph/trustgraph/internal/domain/scoring"
	"github.com/trustgraph/trustgraph/pkg/logger"
	"github.com/trustgraph/trustgraph/pkg/metrics"
)

// Option applies a configuration option to the Scheduler.
type Option func(*Scheduler)

// WithClock overrides the time source, for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Scheduler) {
		if now != nil {
			s.now = now
		}
	}
}

// WithLogger sets a custom logger.
func WithLogger(l logger.Logger) Option {
	return func(s *Scheduler) {
		if l != nil {
			s.logger = l
		}
	}
}

// Scheduler orchestrates score recomputation against an injected store
// handle. It is the only writer of score rows.
type Scheduler struct {
	store  repository.Store
	now    func() time.Time
	logger logger.Logger
}

// New constructs a Scheduler.
func New(store repository.Store, opts ...Option) *Scheduler {
	s := &Scheduler{
		store: store,
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = logger.Get().Named("recompute")
	}
	return s
}

// RecomputeKey recomputes every window for one (subject, skill) key. All
// four windows are recomputed even when only one event arrived, because
// a backdated event can retroactively change any of them.
func (s *Scheduler) RecomputeKey(ctx context.Context, subject, skill string) error {
	start := s.now()

	for _, w := range model.Windows {
		// Read the event set fresh at recompute time; carrying aggregates
		// across the race window would let a concurrent writer be lost.
		events, err := s.store.EventsForScoring(ctx, subject, skill, w, start)
		if err != nil {
			return fmt.Errorf("recompute %s/%s/%s: %w", subject, skill, w, err)
		}

		result := scoring.Compute(scoring.Input{
			Subject: subject,
			Skill:   skill,
			Window:  w,
			Events:  events,
		})

		score := model.Score{
			Subject:     subject,
			Skill:       skill,
			Window:      w,
			Reliability: result.Reliability,
			Integrity:   result.Integrity,
			Timeliness:  result.Timeliness,
			Composite:   result.Composite,
			Volume:      result.Volume,
			ValueMicros: result.ValueMicros,
			UpdatedAt:   s.now(),
		}
		if err := s.store.UpsertScore(ctx, score); err != nil {
			return fmt.Errorf("recompute %s/%s/%s: %w", subject, skill, w, err)
		}
	}

	metrics.RecordRecompute(float64(time.Since(start).Milliseconds()))
	return nil
}

// RecomputeKeys recomputes a set of keys, each exactly once. Callers
// coalesce duplicate keys from a batch before invoking it.
func (s *Scheduler) RecomputeKeys(ctx context.Context, keys map[model.StaleKey]struct{}) error {
	for key := range keys {
		if err := s.RecomputeKey(ctx, key.Subject, key.Skill); err != nil {
			return err
		}
	}
	return nil
}

// RecomputeStale recomputes up to batchSize stale keys, most stale
// first. A batchSize of zero (or less) disables the sweep entirely;
// lazy-only operation is valid and the default.
func (s *Scheduler) RecomputeStale(ctx context.Context, batchSize int) (int, string, error) {
	if batchSize <= 0 {
		return 0, "lazy-only: no batch recompute (scores updated on ingest)", nil
	}

	keys, err := s.store.StaleScoreKeys(ctx, batchSize)
	if err != nil {
		return 0, "", fmt.Errorf("stale sweep: %w", err)
	}
	for _, key := range keys {
		if err := s.RecomputeKey(ctx, key.Subject, key.Skill); err != nil {
			return 0, "", err
		}
	}

	if len(keys) == 0 {
		return 0, "no stale scores to recompute", nil
	}
	s.logger.Info(ctx, "stale sweep complete", logger.Int("processed", len(keys)))
	return len(keys), fmt.Sprintf("recomputed %d agent/skill score(s)", len(keys)), nil
}
