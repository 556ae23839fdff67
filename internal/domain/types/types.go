// Package types contains read shapes shared between the service and the
// HTTP API.
package types

import "time"

// ScoreSet is the windowed score view returned to consumers. When no
// score row exists the neutral default applies instead of an error.
type ScoreSet struct {
	Reliability float64   `json:"reliability"`
	Integrity   float64   `json:"integrity"`
	Timeliness  float64   `json:"timeliness"`
	Composite   float64   `json:"composite"`
	Volume      int       `json:"volume"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// DefaultScoreSet is returned when a subject has no persisted score for
// the requested window.
func DefaultScoreSet(now time.Time) ScoreSet {
	return ScoreSet{
		Reliability: 0.5,
		Integrity:   1,
		Timeliness:  0.5,
		Composite:   0.5,
		Volume:      0,
		UpdatedAt:   now,
	}
}

// RankInfo is a subject's 1-based position among the eligible population.
type RankInfo struct {
	Rank  int `json:"rank"`
	Total int `json:"total"`
}

// LeaderboardRow is one ranked leaderboard entry.
type LeaderboardRow struct {
	Rank      int      `json:"rank"`
	AgentID   string   `json:"agent_id"`
	Composite float64  `json:"composite"`
	Badges    []string `json:"badges"`
}

// IngestAck acknowledges a single-event ingest.
type IngestAck struct {
	ID        string `json:"id"`
	Duplicate bool   `json:"duplicate"`
}

// BatchAck summarizes a batch ingest.
type BatchAck struct {
	Inserted int      `json:"inserted"`
	Skipped  int      `json:"skipped"`
	IDs      []string `json:"ids"`
}

// SweepResult reports one stale-score recompute pass.
type SweepResult struct {
	Processed int    `json:"processed"`
	Message   string `json:"message"`
}

// DispatchDecision is the gate verdict for a dispatch attempt. It echoes
// the scores and threshold the decision was based on.
type DispatchDecision struct {
	Allowed   bool      `json:"allowed"`
	Reason    string    `json:"reason"`
	Threshold float64   `json:"threshold"`
	Scores    ScoreSet  `json:"scores"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Badge is a qualitative overlay label derived at read time.
type Badge struct {
	Slug string `json:"slug"`
	Name string `json:"name"`
}
