package scoring_test

import (
	"testing"
	"time"

	"github.com/trustgraph/trustgraph/internal/domain/model"
	scoring "github.com/trustgraph/trustgraph/internal/domain/scoring"
	. "github.com/smartystreets/goconvey/convey"
)

func event(t model.EventType, o model.Outcome, severity int) model.Event {
	return model.Event{
		ID:         "id",
		Subject:    "agent-1",
		Source:     "test",
		Type:       t,
		Outcome:    o,
		Severity:   severity,
		OccurredAt: time.Now(),
		ObservedAt: time.Now(),
	}
}

func compute(events ...model.Event) scoring.Result {
	return scoring.Compute(scoring.Input{
		Subject: "agent-1",
		Window:  model.Window30d,
		Events:  events,
	})
}

func TestCompute(t *testing.T) {
	Convey("Given the trust score function", t, func() {
		Convey("When computing with no events", func() {
			result := compute()

			Convey("Then it should return the neutral priors", func() {
				So(result.Reliability, ShouldEqual, 0.5)
				So(result.Integrity, ShouldEqual, 1)
				So(result.Timeliness, ShouldEqual, 0)
				So(result.Volume, ShouldEqual, 0)
			})

			Convey("And the composite should combine the priors", func() {
				So(result.Composite, ShouldAlmostEqual, 0.45*1+0.35*0.5+0.20*0, 0.0005)
			})
		})

		Convey("When one full-severity success meets one full-severity failure", func() {
			result := compute(
				event(model.TaskCompleted, model.OutcomeSuccess, 100),
				event(model.TaskFailed, model.OutcomeFailure, 100),
			)

			Convey("Then reliability should split evenly", func() {
				So(result.Reliability, ShouldEqual, 0.5)
				So(result.Volume, ShouldEqual, 2)
			})
		})

		Convey("When a dispute accompanies a success", func() {
			result := compute(
				event(model.TaskCompleted, model.OutcomeSuccess, 50),
				event(model.TaskDisputed, model.OutcomeFailure, 100),
			)

			Convey("Then integrity and composite should drop below 1", func() {
				So(result.Integrity, ShouldBeLessThan, 1)
				So(result.Composite, ShouldBeLessThan, 1)
			})
		})

		Convey("When one on-time and one late signal have equal severity", func() {
			result := compute(
				event(model.WakeupReceived, model.OutcomeSuccess, 100),
				event(model.ReactionLate, model.OutcomeFailure, 100),
			)

			Convey("Then timeliness should be 0.5", func() {
				So(result.Timeliness, ShouldEqual, 0.5)
			})
		})

		Convey("When computing for any event set", func() {
			result := compute(
				event(model.TaskCompleted, model.OutcomeSuccess, 100),
				event(model.ExecutionProved, model.OutcomeSuccess, 80),
				event(model.PaymentSettled, model.OutcomeSuccess, 60),
				event(model.WakeupMissed, model.OutcomeFailure, 40),
			)

			Convey("Then the composite should match the published weighting", func() {
				expected := 0.45*result.Integrity + 0.35*result.Reliability + 0.20*result.Timeliness
				So(result.Composite, ShouldAlmostEqual, expected, 0.0005)
			})
		})

		Convey("When computing twice with the same input", func() {
			events := []model.Event{
				event(model.TaskCompleted, model.OutcomeSuccess, 90),
				event(model.TaskDisputed, model.OutcomeFailure, 30),
				event(model.WakeupReceived, model.OutcomeSuccess, 70),
				event(model.PaymentReversed, model.OutcomeFailure, 100),
			}
			in := scoring.Input{Subject: "agent-1", Window: model.Window7d, Events: events}

			Convey("Then the outputs should be identical", func() {
				So(scoring.Compute(in), ShouldResemble, scoring.Compute(in))
			})
		})

		Convey("When a proved execution is the only event", func() {
			result := compute(event(model.ExecutionProved, model.OutcomeSuccess, 100))

			Convey("Then it should contribute half weight to success", func() {
				// Only success weight (0.5) exists, so reliability ~ 1.
				So(result.Reliability, ShouldEqual, 1)
				So(result.Volume, ShouldEqual, 1)
			})
		})

		Convey("When events carry monetary value", func() {
			e1 := event(model.PaymentSettled, model.OutcomeSuccess, 100)
			e1.ValueMicros = 2_500_000
			e2 := event(model.TaskCompleted, model.OutcomeSuccess, 100)
			e2.ValueMicros = 1_000_000
			result := compute(e1, e2)

			Convey("Then the totals should be summed", func() {
				So(result.ValueMicros, ShouldEqual, int64(3_500_000))
			})
		})

		Convey("When severity is outside [1,100]", func() {
			result := compute(
				event(model.TaskCompleted, model.OutcomeSuccess, 500),
				event(model.TaskFailed, model.OutcomeFailure, -10),
			)

			Convey("Then it should be clamped before weighting", func() {
				// 1.0 success vs 0.01 failure.
				So(result.Reliability, ShouldAlmostEqual, 1.0/(1.0+0.01), 0.0005)
			})
		})

		Convey("When only neutral-outcome events exist", func() {
			result := compute(
				event(model.TaskCompleted, model.OutcomeNeutral, 100),
				event(model.ExecutionProved, model.OutcomeNeutral, 100),
			)

			Convey("Then no bucket should receive weight and priors apply", func() {
				So(result.Reliability, ShouldEqual, 0.5)
				So(result.Integrity, ShouldEqual, 1)
				So(result.Timeliness, ShouldEqual, 0)
				So(result.Volume, ShouldEqual, 2)
			})
		})
	})
}
