// Package ranking computes eligibility-filtered ranks and leaderboards
// from persisted scores.
//
// Eligibility applies anti-gaming thresholds: a minimum event volume and
// a minimum number of distinct reporting sources within the window. The
// per-agent rank lookup and the leaderboard listing are two views over
// one ranked set and always agree.
package ranking

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/trustgraph/trustgraph/internal/adapters/repository"
	"github.com/trustgraph/trustgraph/internal/domain/model"
	"github.com/trustgraph/trustgraph/internal/domain/types"
	"github.com/trustgraph/trustgraph/pkg/metrics"
)

// Scope selects the ranked population.
type Scope string

// Valid scopes. Verified restricts to subjects with at least one
// in-window event from a verified source.
const (
	ScopeAll      Scope = "all"
	ScopeVerified Scope = "verified"
)

// ParseScope validates a caller-supplied scope string. Empty means all.
func ParseScope(s string) (Scope, error) {
	switch Scope(s) {
	case ScopeAll, "":
		return ScopeAll, nil
	case ScopeVerified:
		return ScopeVerified, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownScope, s)
}

// Option applies a configuration option to the Engine.
type Option func(*Engine)

// WithClock overrides the time source, for tests.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		if now != nil {
			e.now = now
		}
	}
}

// Engine ranks agents by composite score with deterministic ordering.
type Engine struct {
	store repository.Store
	now   func() time.Time
}

// New constructs an Engine over an injected store handle.
func New(store repository.Store, opts ...Option) *Engine {
	e := &Engine{
		store: store,
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

type rankedEntry struct {
	subject   string
	composite float64
}

// rankedSet builds the eligible population for one (window, scope, skill)
// in ranking order. Both Rank and Leaderboard derive from it so the two
// views can never disagree.
func (e *Engine) rankedSet(ctx context.Context, w model.Window, scope Scope, skill string) ([]rankedEntry, error) {
	cfg, err := e.store.RankingConfigFor(ctx, w)
	if err != nil {
		return nil, err
	}

	scores, err := e.store.ListScores(ctx, w, skill)
	if err != nil {
		return nil, err
	}

	now := e.now()
	// Source diversity comes from raw events, independent of score rows.
	sources, err := e.store.DistinctSourceCounts(ctx, w, now)
	if err != nil {
		return nil, err
	}

	var verified map[string]bool
	if scope == ScopeVerified {
		verified, err = e.store.VerifiedSubjects(ctx, w, now)
		if err != nil {
			return nil, err
		}
	}

	entries := make([]rankedEntry, 0, len(scores))
	for _, sc := range scores {
		if sc.Volume < cfg.MinEvents {
			continue
		}
		if sources[sc.Subject] < cfg.MinUniqueSources {
			continue
		}
		if scope == ScopeVerified && !verified[sc.Subject] {
			continue
		}
		entries = append(entries, rankedEntry{subject: sc.Subject, composite: sc.Composite})
	}

	// Composite descending; equal composites break ties lexicographically
	// on subject id so identical reads return identical orders.
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].composite != entries[j].composite {
			return entries[i].composite > entries[j].composite
		}
		return entries[i].subject < entries[j].subject
	})
	return entries, nil
}

// Rank returns a subject's 1-based rank and the eligible population
// size. ok is false when the subject is not currently eligible.
func (e *Engine) Rank(ctx context.Context, subject string, w model.Window, skill string) (types.RankInfo, bool, error) {
	metrics.RecordRankQuery()
	entries, err := e.rankedSet(ctx, w, ScopeAll, skill)
	if err != nil {
		return types.RankInfo{}, false, fmt.Errorf("rank: %w", err)
	}
	for i, entry := range entries {
		if entry.subject == subject {
			return types.RankInfo{Rank: i + 1, Total: len(entries)}, true, nil
		}
	}
	return types.RankInfo{}, false, nil
}

// Leaderboard returns the top rows of the ranked set, with any cached
// badge slugs attached. Badges are best-effort and may lag score rows.
func (e *Engine) Leaderboard(ctx context.Context, w model.Window, scope Scope, skill string, limit int) ([]types.LeaderboardRow, error) {
	metrics.RecordLeaderboardQuery()
	entries, err := e.rankedSet(ctx, w, scope, skill)
	if err != nil {
		return nil, fmt.Errorf("leaderboard: %w", err)
	}
	if limit > 0 && len(entries) > limit {
		entries = entries[:limit]
	}

	badges, err := e.store.CachedBadges(ctx, w, skill)
	if err != nil {
		return nil, fmt.Errorf("leaderboard badges: %w", err)
	}

	rows := make([]types.LeaderboardRow, 0, len(entries))
	for i, entry := range entries {
		slugs := badges[entry.subject]
		if slugs == nil {
			slugs = []string{}
		}
		rows = append(rows, types.LeaderboardRow{
			Rank:      i + 1,
			AgentID:   entry.subject,
			Composite: entry.composite,
			Badges:    slugs,
		})
	}
	return rows, nil
}
