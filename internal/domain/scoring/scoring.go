// Package scoring implements the deterministic trust score function.
//
// Compute is pure: identical input yields bit-identical output. Window
// filtering happens before events reach this package; callers pass the
// full in-window event set for one (subject, skill) key.
package scoring

import (
	"math"

	"github.com/trustgraph/trustgraph/internal/domain/model"
)

// Composite weighting and numeric constants.
const (
	// eps prevents division by zero without materially biasing results.
	eps = 1e-9

	integrityWeight   = 0.45
	reliabilityWeight = 0.35
	timelinessWeight  = 0.20

	// Events with no signal fall back to these priors. Timeliness has no
	// prior: it stays 0 until timeliness events exist.
	neutralReliability = 0.5
	neutralIntegrity   = 1.0
)

// Input carries one subject's in-window event set.
type Input struct {
	Subject string
	Skill   string // empty means agent-level
	Window  model.Window
	Events  []model.Event
}

// Result holds the four bounded scores plus raw aggregates.
type Result struct {
	Reliability float64
	Integrity   float64
	Timeliness  float64
	Composite   float64

	// Volume is the unweighted event count.
	Volume int
	// ValueMicros is the summed monetary value.
	ValueMicros int64
}

// buckets are the per-event weighted contributions. One event may feed
// more than one bucket.
type buckets struct {
	success      float64
	failure      float64
	integrityBad float64
	onTime       float64
	late         float64
	missed       float64
}

// eventBuckets maps a (type, outcome) pair to weighted bucket
// contributions, scaled by severity/100.
func eventBuckets(e model.Event) buckets {
	s := float64(model.ClampSeverity(e.Severity)) / 100
	var b buckets

	// Task lifecycle: completed counts full toward success, failures and
	// timeouts full toward failure, disputes and reversals are integrity
	// violations.
	switch e.Type {
	case model.TaskCompleted:
		if e.Outcome == model.OutcomeSuccess {
			b.success = s
		}
	case model.TaskFailed, model.TaskTimeout:
		b.failure = s
	case model.TaskDisputed, model.TaskReversed:
		b.integrityBad = s
	}

	// Execution proofs count half toward success; invalid proofs are
	// integrity violations.
	switch e.Type {
	case model.ExecutionProved:
		if e.Outcome == model.OutcomeSuccess {
			b.success += s * 0.5
		}
	case model.ExecutionInvalid:
		b.integrityBad += s
	}

	// Timeliness signals.
	switch e.Type {
	case model.WakeupReceived:
		if e.Outcome == model.OutcomeSuccess {
			b.onTime = s
		}
	case model.ReactionLate:
		b.late = s
	case model.WakeupMissed:
		b.missed = s
	}

	// Payments: settlement counts half toward success, reversal is an
	// integrity violation.
	switch e.Type {
	case model.PaymentSettled:
		if e.Outcome == model.OutcomeSuccess {
			b.success += s * 0.5
		}
	case model.PaymentReversed:
		b.integrityBad += s
	}

	return b
}

// Compute folds an event set into the four bounded scores. See the
// package doc for purity guarantees.
func Compute(in Input) Result {
	var (
		success, failure, integrityBad float64
		integrityTotal                 float64
		onTime, late, missed           float64
		valueMicros                    int64
	)

	for _, e := range in.Events {
		b := eventBuckets(e)
		success += b.success
		failure += b.failure
		integrityBad += b.integrityBad
		integrityTotal += b.success + b.failure + b.integrityBad + b.onTime + b.late + b.missed
		onTime += b.onTime
		late += b.late
		missed += b.missed
		if e.ValueMicros > 0 {
			valueMicros += e.ValueMicros
		}
	}

	reliability := neutralReliability
	if success+failure+integrityBad > 0 {
		reliability = success / (success + failure + eps)
	}

	integrity := neutralIntegrity
	if integrityTotal > 0 {
		integrity = math.Max(0, 1-integrityBad/(integrityTotal+eps))
	}

	// No neutral prior here: with no timeliness events this is 0.
	timeliness := onTime / (onTime + late + missed + eps)

	composite := integrityWeight*integrity + reliabilityWeight*reliability + timelinessWeight*timeliness

	return Result{
		Reliability: round3(reliability),
		Integrity:   round3(integrity),
		Timeliness:  round3(timeliness),
		Composite:   round3(composite),
		Volume:      len(in.Events),
		ValueMicros: valueMicros,
	}
}

// round3 rounds to 3 decimal places, the fixed output precision.
func round3(v float64) float64 {
	return math.Round(v*1000) / 1000
}
