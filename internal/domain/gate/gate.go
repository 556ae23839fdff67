// Package gate decides whether the runtime may dispatch work to an
// agent, based on its current windowed scores.
package gate

import (
	"fmt"
	"time"

	"github.com/trustgraph/trustgraph/internal/domain/types"
)

// DispatchReliabilityThreshold is the fixed policy floor. An agent with
// reliability below it must not receive dispatches. This is a named
// constant, not configuration.
const DispatchReliabilityThreshold = 0.5

// Check applies the dispatch policy to a score set. The decision echoes
// the scores and the threshold it was based on.
func Check(scores types.ScoreSet, updatedAt time.Time) types.DispatchDecision {
	if scores.Reliability < DispatchReliabilityThreshold {
		return types.DispatchDecision{
			Allowed: false,
			Reason: fmt.Sprintf("agent reliability %g is below dispatch threshold %g; refusing to dispatch",
				scores.Reliability, DispatchReliabilityThreshold),
			Threshold: DispatchReliabilityThreshold,
			Scores:    scores,
			UpdatedAt: updatedAt,
		}
	}
	return types.DispatchDecision{
		Allowed:   true,
		Reason:    "agent meets minimum reliability for dispatch",
		Threshold: DispatchReliabilityThreshold,
		Scores:    scores,
		UpdatedAt: updatedAt,
	}
}
