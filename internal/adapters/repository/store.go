// Package repository provides durable storage for trust events, derived
// scores, and ranking support tables.
//
// The Store handle is constructed explicitly and injected into the
// recompute scheduler and the ranking engine; there is no package-level
// connection state.
package repository

import (
	"context"
	"time"

	"github.com/trustgraph/trustgraph/internal/domain/model"
)

// Store is the persistence contract for the scoring core.
//
// Events are append-only. Score rows are written exclusively through
// UpsertScore, which is a single atomic statement so concurrent
// recomputes resolve last-writer-wins.
type Store interface {
	// UpsertAgent records an agent id and bumps its last_seen_at.
	UpsertAgent(ctx context.Context, id string, now time.Time) error

	// InsertEvent appends one event. When the event carries a complete
	// idempotency ref that already exists, it returns ErrDuplicate and
	// stores nothing.
	InsertEvent(ctx context.Context, e model.Event) error

	// EventsForScoring returns the full qualifying event set for one
	// (subject, skill, window) key, ordered by occurred_at ascending.
	// A non-empty skill matches events tagged with that skill plus
	// agent-level events; an empty skill matches agent-level events only.
	EventsForScoring(ctx context.Context, subject, skill string, w model.Window, now time.Time) ([]model.Event, error)

	// UpsertScore inserts or overwrites the score row for its
	// (subject, skill, window) key in one atomic statement.
	UpsertScore(ctx context.Context, s model.Score) error

	// GetScore returns the persisted score row or ErrNotFound.
	GetScore(ctx context.Context, subject, skill string, w model.Window) (model.Score, error)

	// ListScores returns every score row for a window and skill scope.
	ListScores(ctx context.Context, w model.Window, skill string) ([]model.Score, error)

	// StaleScoreKeys lists (subject, skill) keys whose latest event
	// postdates the persisted 30d score (or that have no score row),
	// most stale first, capped at limit.
	StaleScoreKeys(ctx context.Context, limit int) ([]model.StaleKey, error)

	// DistinctSourceCounts returns, per subject, the number of distinct
	// sources reporting in-window events.
	DistinctSourceCounts(ctx context.Context, w model.Window, now time.Time) (map[string]int, error)

	// VerifiedSubjects returns the set of subjects with at least one
	// in-window event from a verified source.
	VerifiedSubjects(ctx context.Context, w model.Window, now time.Time) (map[string]bool, error)

	// IntegrityBadCount counts in-window integrity-negative events for a
	// subject.
	IntegrityBadCount(ctx context.Context, subject string, w model.Window, now time.Time) (int, error)

	// AllSourcesVerified reports whether every in-window event for the
	// subject originates from a verified source.
	AllSourcesVerified(ctx context.Context, subject string, w model.Window, now time.Time) (bool, error)

	// RankingConfigFor returns the eligibility thresholds for a window,
	// falling back to defaults when no row exists.
	RankingConfigFor(ctx context.Context, w model.Window) (model.RankingConfig, error)

	// SetRankingConfig stores explicit eligibility thresholds.
	SetRankingConfig(ctx context.Context, cfg model.RankingConfig) error

	// SetSourceVerified flags a reporting source as verified or not.
	SetSourceVerified(ctx context.Context, source string, verified bool) error

	// CachedBadges returns precomputed badge slugs per subject for a
	// (window, skill) scope. Badges are best-effort and may lag scores.
	CachedBadges(ctx context.Context, w model.Window, skill string) (map[string][]string, error)

	// PutCachedBadges replaces the cached badge slugs for one key.
	PutCachedBadges(ctx context.Context, subject string, w model.Window, skill string, slugs []string, now time.Time) error
}
