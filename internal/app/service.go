// Package service provides the core business service that implements
// the dependencies required by the HTTP API.
package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/trustgraph/trustgraph/internal/adapters/repository"
	"github.com/trustgraph/trustgraph/internal/domain/badge"
	"github.com/trustgraph/trustgraph/internal/domain/gate"
	"github.com/trustgraph/trustgraph/internal/domain/model"
	"github.com/trustgraph/trustgraph/internal/domain/types"
	"github.com/trustgraph/trustgraph/internal/ranking"
	"github.com/trustgraph/trustgraph/internal/recompute"
	"github.com/trustgraph/trustgraph/pkg/logger"
	"github.com/trustgraph/trustgraph/pkg/metrics"
)

// Service implements the API dependencies for the trust system. It owns
// the ingest path and fronts the recompute scheduler and ranking engine.
type Service struct {
	store     repository.Store
	scheduler *recompute.Scheduler
	engine    *ranking.Engine

	maxLeaderboardLimit int
	sweepBatchSize      int

	now    func() time.Time
	logger logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithClock overrides the time source. Tests use this for determinism.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// WithMaxLeaderboardLimit caps leaderboard page sizes.
func WithMaxLeaderboardLimit(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.maxLeaderboardLimit = n
		}
	}
}

// WithSweepBatchSize bounds how many stale keys one sweep recomputes.
func WithSweepBatchSize(n int) Option {
	return func(s *Service) {
		if n >= 0 {
			s.sweepBatchSize = n
		}
	}
}

// New constructs a Service over the given store.
func New(store repository.Store, opts ...Option) *Service {
	s := &Service{
		store:               store,
		maxLeaderboardLimit: 100,
		sweepBatchSize:      100,
		now:                 time.Now,
		logger:              logger.Named("service"),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.scheduler = recompute.New(store,
		recompute.WithClock(s.now),
		recompute.WithLogger(s.logger),
	)
	s.engine = ranking.New(store, ranking.WithClock(s.now))
	return s
}

// MaxLeaderboardLimit exposes the configured leaderboard cap.
func (s *Service) MaxLeaderboardLimit() int { return s.maxLeaderboardLimit }

func (s *Service) validate(e model.Event) error {
	if e.Subject == "" {
		return fmt.Errorf("%w: subject is required", ErrInvalidEvent)
	}
	if e.Source == "" {
		return fmt.Errorf("%w: source is required", ErrInvalidEvent)
	}
	if !model.ValidEventType(e.Type) {
		return fmt.Errorf("%w: unknown event type %q", ErrInvalidEvent, e.Type)
	}
	if !model.ValidOutcome(e.Outcome) {
		return fmt.Errorf("%w: unknown outcome %q", ErrInvalidEvent, e.Outcome)
	}
	if e.ValueMicros < 0 {
		return fmt.Errorf("%w: value_usd_micros must not be negative", ErrInvalidEvent)
	}
	if (e.RefType == "") != (e.RefID == "") {
		return fmt.Errorf("%w: ref_type and ref_id must be set together", ErrInvalidEvent)
	}
	return nil
}

// normalize assigns the generated id and fills server-side defaults.
func (s *Service) normalize(e model.Event) model.Event {
	now := s.now()
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.ObservedAt.IsZero() {
		e.ObservedAt = now
	}
	if e.OccurredAt.IsZero() {
		e.OccurredAt = e.ObservedAt
	}
	e.Severity = model.ClampSeverity(e.Severity)
	return e
}

func (s *Service) ensureAgents(ctx context.Context, e model.Event) error {
	now := s.now()
	if err := s.store.UpsertAgent(ctx, e.Subject, now); err != nil {
		return err
	}
	if e.Actor != "" {
		if err := s.store.UpsertAgent(ctx, e.Actor, now); err != nil {
			return err
		}
	}
	return nil
}

// IngestOne validates, stores, and scores a single trust event. A
// duplicate idempotency ref acknowledges without storing or rescoring.
func (s *Service) IngestOne(ctx context.Context, e model.Event) (types.IngestAck, error) {
	if err := s.validate(e); err != nil {
		return types.IngestAck{}, err
	}
	e = s.normalize(e)

	if err := s.ensureAgents(ctx, e); err != nil {
		return types.IngestAck{}, err
	}

	if err := s.store.InsertEvent(ctx, e); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			metrics.RecordEventDuplicate()
			s.logger.Debug(ctx, "duplicate event acknowledged",
				logger.String("refType", e.RefType),
				logger.String("refID", e.RefID),
			)
			return types.IngestAck{ID: e.ID, Duplicate: true}, nil
		}
		return types.IngestAck{}, err
	}
	metrics.RecordEventIngested(string(e.Type))

	if err := s.scheduler.RecomputeKey(ctx, e.Subject, e.Skill); err != nil {
		return types.IngestAck{}, err
	}
	return types.IngestAck{ID: e.ID}, nil
}

// IngestBatch stores a batch of events, skipping duplicates, and
// recomputes each touched (subject, skill) key exactly once.
func (s *Service) IngestBatch(ctx context.Context, events []model.Event) (types.BatchAck, error) {
	for _, e := range events {
		if err := s.validate(e); err != nil {
			return types.BatchAck{}, err
		}
	}

	ack := types.BatchAck{IDs: []string{}}
	keys := make(map[model.StaleKey]struct{})
	for _, e := range events {
		e = s.normalize(e)
		if err := s.ensureAgents(ctx, e); err != nil {
			return types.BatchAck{}, err
		}
		if err := s.store.InsertEvent(ctx, e); err != nil {
			if errors.Is(err, repository.ErrDuplicate) {
				metrics.RecordEventDuplicate()
				ack.Skipped++
				continue
			}
			return types.BatchAck{}, err
		}
		metrics.RecordEventIngested(string(e.Type))
		ack.Inserted++
		ack.IDs = append(ack.IDs, e.ID)
		keys[model.StaleKey{Subject: e.Subject, Skill: e.Skill}] = struct{}{}
	}

	if err := s.scheduler.RecomputeKeys(ctx, keys); err != nil {
		return types.BatchAck{}, err
	}
	return ack, nil
}

// GetScore returns the persisted score view for a subject, or the
// neutral default when the subject has no score row for the window.
func (s *Service) GetScore(ctx context.Context, subject, skill string, w model.Window) (types.ScoreSet, error) {
	sc, err := s.store.GetScore(ctx, subject, skill, w)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return types.DefaultScoreSet(s.now()), nil
		}
		return types.ScoreSet{}, err
	}
	return types.ScoreSet{
		Reliability: sc.Reliability,
		Integrity:   sc.Integrity,
		Timeliness:  sc.Timeliness,
		Composite:   sc.Composite,
		Volume:      sc.Volume,
		UpdatedAt:   sc.UpdatedAt,
	}, nil
}

// GetRank returns the subject's position among eligible agents. The
// second return is false when the subject is not eligible or unranked.
func (s *Service) GetRank(ctx context.Context, subject string, w model.Window, skill string) (types.RankInfo, bool, error) {
	return s.engine.Rank(ctx, subject, w, skill)
}

// GetLeaderboard returns the top eligible agents, capped at the
// configured maximum page size.
func (s *Service) GetLeaderboard(ctx context.Context, w model.Window, scope ranking.Scope, skill string, limit int) ([]types.LeaderboardRow, error) {
	if limit <= 0 || limit > s.maxLeaderboardLimit {
		limit = s.maxLeaderboardLimit
	}
	return s.engine.Leaderboard(ctx, w, scope, skill, limit)
}

// RecomputeStale runs one stale-score sweep pass using the configured
// batch size.
func (s *Service) RecomputeStale(ctx context.Context) (types.SweepResult, error) {
	processed, msg, err := s.scheduler.RecomputeStale(ctx, s.sweepBatchSize)
	if err != nil {
		return types.SweepResult{}, err
	}
	return types.SweepResult{Processed: processed, Message: msg}, nil
}

// CheckDispatch answers whether a subject's reliability clears the
// dispatch threshold for the window.
func (s *Service) CheckDispatch(ctx context.Context, subject string, w model.Window, skill string) (types.DispatchDecision, error) {
	scores, err := s.GetScore(ctx, subject, skill, w)
	if err != nil {
		return types.DispatchDecision{}, err
	}
	return gate.Check(scores, scores.UpdatedAt), nil
}

// AgentBadges derives the badge overlay for a subject and refreshes the
// cached copy used by leaderboard reads.
func (s *Service) AgentBadges(ctx context.Context, subject string, w model.Window, skill string) ([]types.Badge, error) {
	now := s.now()

	in := badge.Input{}
	sc, err := s.store.GetScore(ctx, subject, skill, w)
	switch {
	case err == nil:
		in.HasScore = true
		in.Reliability = sc.Reliability
		in.Integrity = sc.Integrity
		in.Timeliness = sc.Timeliness
		in.Volume = sc.Volume
	case errors.Is(err, repository.ErrNotFound):
		// No score row yet; badges stay empty.
	default:
		return nil, err
	}

	if in.HasScore {
		if info, ok, rerr := s.engine.Rank(ctx, subject, w, skill); rerr != nil {
			return nil, rerr
		} else if ok {
			in.HasRank = true
			in.Rank = info.Rank
			in.Total = info.Total
		}

		bad, berr := s.store.IntegrityBadCount(ctx, subject, w, now)
		if berr != nil {
			return nil, berr
		}
		in.IntegrityBadCount = bad

		verified, verr := s.store.AllSourcesVerified(ctx, subject, w, now)
		if verr != nil {
			return nil, verr
		}
		in.AllSourcesVerified = verified
	}

	badges := badge.Compute(in)
	if badges == nil {
		badges = []types.Badge{}
	}

	slugs := make([]string, 0, len(badges))
	for _, b := range badges {
		slugs = append(slugs, b.Slug)
	}
	if err := s.store.PutCachedBadges(ctx, subject, w, skill, slugs, now); err != nil {
		s.logger.Warn(ctx, "badge cache refresh failed",
			logger.String("subject", subject),
			logger.Err(err),
		)
	}
	return badges, nil
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats(ctx context.Context) map[string]any {
	stats := map[string]any{
		"maxLeaderboardLimit": s.maxLeaderboardLimit,
		"sweepBatchSize":      s.sweepBatchSize,
	}

	keys, err := s.store.StaleScoreKeys(ctx, s.sweepBatchSize)
	if err != nil {
		s.logger.Warn(ctx, "stale key inspection failed", logger.Err(err))
		return stats
	}
	stats["staleKeys"] = len(keys)
	metrics.SetStaleKeys(len(keys))
	return stats
}
