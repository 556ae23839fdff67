// Package model contains domain models passed between layers.
package model

import "time"

// EventType enumerates the closed behavioral event taxonomy. Anything
// outside this list is rejected at the API boundary.
type EventType string

// Task lifecycle, execution proof, timeliness, and payment event types.
const (
	TaskCompleted    EventType = "task_completed"
	TaskFailed       EventType = "task_failed"
	TaskDisputed     EventType = "task_disputed"
	TaskReversed     EventType = "task_reversed"
	TaskTimeout      EventType = "task_timeout"
	ExecutionProved  EventType = "execution_proved"
	ExecutionInvalid EventType = "execution_invalid"
	WakeupReceived   EventType = "wakeup_received"
	WakeupMissed     EventType = "wakeup_missed"
	ReactionLate     EventType = "reaction_late"
	PaymentSettled   EventType = "payment_settled"
	PaymentReversed  EventType = "payment_reversed"
)

// EventTypes lists every valid event type.
var EventTypes = []EventType{
	TaskCompleted, TaskFailed, TaskDisputed, TaskReversed, TaskTimeout,
	ExecutionProved, ExecutionInvalid,
	WakeupReceived, WakeupMissed, ReactionLate,
	PaymentSettled, PaymentReversed,
}

// ValidEventType reports whether t belongs to the closed taxonomy.
func ValidEventType(t EventType) bool {
	for _, v := range EventTypes {
		if v == t {
			return true
		}
	}
	return false
}

// Outcome qualifies how an event went for its subject.
type Outcome string

// Valid outcomes.
const (
	OutcomeSuccess Outcome = "success"
	OutcomeFailure Outcome = "failure"
	OutcomeNeutral Outcome = "neutral"
)

// ValidOutcome reports whether o is a known outcome.
func ValidOutcome(o Outcome) bool {
	return o == OutcomeSuccess || o == OutcomeFailure || o == OutcomeNeutral
}

// Event is one immutable behavioral observation about a subject agent.
// Events are append-only; they are never updated or deleted.
type Event struct {
	ID string

	// Subject is the agent whose trust is affected. Required.
	Subject string
	// Actor is the agent that caused the event, when known.
	Actor string

	// Skill scopes the event to one capability. Empty means agent-level.
	Skill string

	// Source tags the reporting integration. Used for source-diversity
	// eligibility checks.
	Source string

	Type    EventType
	Outcome Outcome

	// Severity is a per-event magnitude weight in [1,100].
	Severity int

	// ValueMicros is an optional non-negative monetary value in
	// micro-currency units.
	ValueMicros int64

	// OccurredAt is the event-domain timestamp and may be backdated.
	// Windowing uses OccurredAt only.
	OccurredAt time.Time
	// ObservedAt is the ingest timestamp, kept for audit.
	ObservedAt time.Time

	// RefType and RefID form the optional idempotency key. When both are
	// set the pair must be globally unique; a second insert is a no-op.
	RefType string
	RefID   string

	// Evidence is an opaque structured payload, stored but never
	// interpreted.
	Evidence map[string]any
}

// HasRef reports whether the event carries a complete idempotency key.
func (e Event) HasRef() bool {
	return e.RefType != "" && e.RefID != ""
}

// ClampSeverity normalizes severity into [1,100].
func ClampSeverity(s int) int {
	if s < 1 {
		return 1
	}
	if s > 100 {
		return 100
	}
	return s
}

// Score is the derived, mutable trust record for one
// (subject, skill-or-all, window) key. The recompute scheduler is its
// only writer.
type Score struct {
	Subject string
	Skill   string // empty string means agent-level (all skills)
	Window  Window

	Reliability float64
	Integrity   float64
	Timeliness  float64
	Composite   float64

	// Volume is the unweighted count of events folded in.
	Volume int
	// ValueMicros is the aggregated monetary value.
	ValueMicros int64

	// UpdatedAt marks the last recomputation; it is the staleness marker.
	UpdatedAt time.Time
}

// RankingConfig holds per-window anti-gaming thresholds for leaderboard
// eligibility.
type RankingConfig struct {
	Window Window

	// MinEvents is the minimum Score.Volume for inclusion.
	MinEvents int
	// MinUniqueSources is the minimum count of distinct reporting sources
	// within the window.
	MinUniqueSources int
}

// Default eligibility thresholds applied when no config row exists.
const (
	DefaultMinEvents        = 5
	DefaultMinUniqueSources = 2
)

// DefaultRankingConfig returns the fallback thresholds for a window.
func DefaultRankingConfig(w Window) RankingConfig {
	return RankingConfig{
		Window:           w,
		MinEvents:        DefaultMinEvents,
		MinUniqueSources: DefaultMinUniqueSources,
	}
}

// StaleKey identifies a (subject, skill) pair whose latest event postdates
// its persisted score.
type StaleKey struct {
	Subject string
	Skill   string
}
