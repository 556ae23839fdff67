// Package badge derives qualitative overlay labels from scores, rank,
// and raw event aggregates. Computation is read-time and stateless; it
// never mutates score state.
package badge

import "github.com/trustgraph/trustgraph/internal/domain/types"

// Badge thresholds.
const (
	cleanIntegrityMin = 0.99
	fastTimelinessMin = 0.9
	fastVolumeMin     = 3
	top1Pct           = 0.01
	top5Pct           = 0.05
	top10Pct          = 0.10
	verifiedVolumeMin = 1
)

// Definitions is the fixed badge catalogue in display order.
var Definitions = []types.Badge{
	{Slug: "top_1", Name: "Top 1%"},
	{Slug: "top_5", Name: "Top 5%"},
	{Slug: "top_10", Name: "Top 10%"},
	{Slug: "clean_history", Name: "Clean History"},
	{Slug: "fast_responder", Name: "Fast Responder"},
	{Slug: "verified_executor", Name: "Verified Executor"},
}

// Input carries everything badge computation reads. HasScore false means
// the subject has no persisted score row; the result is then empty.
type Input struct {
	HasScore bool

	Reliability float64
	Integrity   float64
	Timeliness  float64
	Volume      int

	// HasRank/Rank/Total come from the ranking engine for the same window.
	HasRank bool
	Rank    int
	Total   int

	// IntegrityBadCount is the raw in-window count of integrity-negative
	// events, independent of the score row.
	IntegrityBadCount int

	// AllSourcesVerified is true when every in-window event originates
	// from a verified source.
	AllSourcesVerified bool
}

// Compute returns the badges the input qualifies for. Percentile badges
// are mutually exclusive; only the tightest threshold applies.
func Compute(in Input) []types.Badge {
	if !in.HasScore {
		return nil
	}

	var out []types.Badge
	add := func(slug string) {
		for _, d := range Definitions {
			if d.Slug == slug {
				out = append(out, d)
				return
			}
		}
	}

	if in.HasRank && in.Total > 0 {
		pct := float64(in.Rank) / float64(in.Total)
		switch {
		case pct <= top1Pct:
			add("top_1")
		case pct <= top5Pct:
			add("top_5")
		case pct <= top10Pct:
			add("top_10")
		}
	}

	if in.IntegrityBadCount == 0 && in.Integrity >= cleanIntegrityMin {
		add("clean_history")
	}

	// Volume floor avoids single-event false positives.
	if in.Timeliness >= fastTimelinessMin && in.Volume >= fastVolumeMin {
		add("fast_responder")
	}

	if in.AllSourcesVerified && in.Volume >= verifiedVolumeMin {
		add("verified_executor")
	}

	return out
}

// IntegrityBadTypes lists the event types counted as integrity-negative
// for the clean_history rule.
var IntegrityBadTypes = []string{
	"task_disputed",
	"task_reversed",
	"execution_invalid",
	"payment_reversed",
}
