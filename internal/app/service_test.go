package service

import (
	"context"
	"errors"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/trustgraph/trustgraph/internal/adapters/repository"
	"github.com/trustgraph/trustgraph/internal/domain/model"
	"github.com/trustgraph/trustgraph/pkg/logger"
)

func init() { _ = logger.Init() }

var testNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func newTestService(store repository.Store) *Service {
	return New(store,
		WithClock(func() time.Time { return testNow }),
		WithMaxLeaderboardLimit(10),
		WithSweepBatchSize(50),
	)
}

func completedEvent(subject string) model.Event {
	return model.Event{
		Subject:    subject,
		Source:     "taskmint",
		Type:       model.TaskCompleted,
		Outcome:    model.OutcomeSuccess,
		Severity:   50,
		OccurredAt: testNow.Add(-time.Hour),
	}
}

func TestIngestOne(t *testing.T) {
	Convey("Given a service over a fresh store", t, func() {
		store := repository.NewMemoryStore()
		svc := newTestService(store)
		ctx := context.Background()

		Convey("When ingesting a valid event", func() {
			ack, err := svc.IngestOne(ctx, completedEvent("agent-a"))

			Convey("Then it should be acknowledged with a generated id", func() {
				So(err, ShouldBeNil)
				So(ack.ID, ShouldNotBeEmpty)
				So(ack.Duplicate, ShouldBeFalse)
			})

			Convey("Then scores should exist for every window", func() {
				for _, w := range model.Windows {
					sc, gerr := store.GetScore(ctx, "agent-a", "", w)
					So(gerr, ShouldBeNil)
					So(sc.Volume, ShouldEqual, 1)
					So(sc.Reliability, ShouldBeGreaterThan, 0.9)
				}
			})
		})

		Convey("When ingesting an event with an idempotency ref twice", func() {
			e := completedEvent("agent-a")
			e.RefType = "task"
			e.RefID = "t-1"

			first, err1 := svc.IngestOne(ctx, e)
			second, err2 := svc.IngestOne(ctx, e)

			Convey("Then the second ingest should acknowledge as duplicate", func() {
				So(err1, ShouldBeNil)
				So(err2, ShouldBeNil)
				So(first.Duplicate, ShouldBeFalse)
				So(second.Duplicate, ShouldBeTrue)
			})

			Convey("Then the score volume should reflect one event", func() {
				sc, gerr := store.GetScore(ctx, "agent-a", "", model.Window30d)
				So(gerr, ShouldBeNil)
				So(sc.Volume, ShouldEqual, 1)
			})
		})

		Convey("When ingesting an event without a subject", func() {
			e := completedEvent("")
			_, err := svc.IngestOne(ctx, e)

			Convey("Then validation should fail", func() {
				So(errors.Is(err, ErrInvalidEvent), ShouldBeTrue)
			})
		})

		Convey("When ingesting an event with an unknown type", func() {
			e := completedEvent("agent-a")
			e.Type = "task_paused"
			_, err := svc.IngestOne(ctx, e)

			Convey("Then validation should fail", func() {
				So(errors.Is(err, ErrInvalidEvent), ShouldBeTrue)
			})
		})

		Convey("When ingesting an event with half an idempotency ref", func() {
			e := completedEvent("agent-a")
			e.RefType = "task"
			_, err := svc.IngestOne(ctx, e)

			Convey("Then validation should fail", func() {
				So(errors.Is(err, ErrInvalidEvent), ShouldBeTrue)
			})
		})

		Convey("When ingesting an out-of-range severity", func() {
			e := completedEvent("agent-a")
			e.Severity = 400
			_, err := svc.IngestOne(ctx, e)

			Convey("Then it should be clamped rather than rejected", func() {
				So(err, ShouldBeNil)
				events, gerr := store.EventsForScoring(ctx, "agent-a", "", model.WindowAll, testNow)
				So(gerr, ShouldBeNil)
				So(events, ShouldHaveLength, 1)
				So(events[0].Severity, ShouldEqual, 100)
			})
		})

		Convey("When ingesting a skill-scoped event", func() {
			e := completedEvent("agent-a")
			e.Skill = "translation"
			_, err := svc.IngestOne(ctx, e)
			So(err, ShouldBeNil)

			Convey("Then the skill key should be scored", func() {
				sc, gerr := store.GetScore(ctx, "agent-a", "translation", model.Window30d)
				So(gerr, ShouldBeNil)
				So(sc.Volume, ShouldEqual, 1)
			})

			Convey("Then the agent-level key should stay unscored", func() {
				_, gerr := store.GetScore(ctx, "agent-a", "", model.Window30d)
				So(errors.Is(gerr, repository.ErrNotFound), ShouldBeTrue)
			})
		})
	})
}

func TestIngestBatch(t *testing.T) {
	Convey("Given a service over a fresh store", t, func() {
		store := repository.NewMemoryStore()
		svc := newTestService(store)
		ctx := context.Background()

		Convey("When ingesting a batch with a duplicate ref inside it", func() {
			dup := completedEvent("agent-a")
			dup.RefType = "task"
			dup.RefID = "t-1"

			other := completedEvent("agent-b")
			other.Outcome = model.OutcomeFailure
			other.Type = model.TaskFailed

			ack, err := svc.IngestBatch(ctx, []model.Event{dup, dup, other})

			Convey("Then the duplicate should be skipped, not fatal", func() {
				So(err, ShouldBeNil)
				So(ack.Inserted, ShouldEqual, 2)
				So(ack.Skipped, ShouldEqual, 1)
				So(ack.IDs, ShouldHaveLength, 2)
			})

			Convey("Then both touched subjects should be scored", func() {
				a, aerr := store.GetScore(ctx, "agent-a", "", model.Window30d)
				b, berr := store.GetScore(ctx, "agent-b", "", model.Window30d)
				So(aerr, ShouldBeNil)
				So(berr, ShouldBeNil)
				So(a.Volume, ShouldEqual, 1)
				So(b.Volume, ShouldEqual, 1)
			})
		})

		Convey("When any event in the batch is invalid", func() {
			bad := completedEvent("agent-a")
			bad.Source = ""

			_, err := svc.IngestBatch(ctx, []model.Event{completedEvent("agent-b"), bad})

			Convey("Then the whole batch should be rejected up front", func() {
				So(errors.Is(err, ErrInvalidEvent), ShouldBeTrue)
				_, gerr := store.GetScore(ctx, "agent-b", "", model.Window30d)
				So(errors.Is(gerr, repository.ErrNotFound), ShouldBeTrue)
			})
		})

		Convey("When ingesting an empty batch", func() {
			ack, err := svc.IngestBatch(ctx, nil)

			Convey("Then it should succeed with zero counts", func() {
				So(err, ShouldBeNil)
				So(ack.Inserted, ShouldEqual, 0)
				So(ack.Skipped, ShouldEqual, 0)
				So(ack.IDs, ShouldBeEmpty)
			})
		})
	})
}

func TestReadPaths(t *testing.T) {
	Convey("Given a service with one scored agent", t, func() {
		store := repository.NewMemoryStore()
		svc := newTestService(store)
		ctx := context.Background()

		_, err := svc.IngestOne(ctx, completedEvent("agent-a"))
		So(err, ShouldBeNil)

		Convey("When reading a scored subject", func() {
			scores, gerr := svc.GetScore(ctx, "agent-a", "", model.Window30d)

			Convey("Then the persisted score should be returned", func() {
				So(gerr, ShouldBeNil)
				So(scores.Volume, ShouldEqual, 1)
				So(scores.UpdatedAt, ShouldEqual, testNow)
			})
		})

		Convey("When reading an unknown subject", func() {
			scores, gerr := svc.GetScore(ctx, "agent-unknown", "", model.Window30d)

			Convey("Then the neutral default should be returned", func() {
				So(gerr, ShouldBeNil)
				So(scores.Reliability, ShouldEqual, 0.5)
				So(scores.Integrity, ShouldEqual, 1)
				So(scores.Timeliness, ShouldEqual, 0.5)
				So(scores.Composite, ShouldEqual, 0.5)
				So(scores.Volume, ShouldEqual, 0)
			})
		})

		Convey("When checking dispatch for an unknown subject", func() {
			decision, gerr := svc.CheckDispatch(ctx, "agent-unknown", model.Window30d, "")

			Convey("Then the neutral reliability should sit on the threshold", func() {
				So(gerr, ShouldBeNil)
				So(decision.Allowed, ShouldBeTrue)
				So(decision.Threshold, ShouldEqual, 0.5)
			})
		})
	})
}

func TestSweepAndStats(t *testing.T) {
	Convey("Given a service with a backdated score", t, func() {
		store := repository.NewMemoryStore()
		svc := newTestService(store)
		ctx := context.Background()

		// An event newer than its score row makes the key stale.
		e := completedEvent("agent-a")
		So(store.UpsertAgent(ctx, "agent-a", testNow), ShouldBeNil)
		e.ID = "ev-1"
		e.ObservedAt = testNow
		So(store.InsertEvent(ctx, e), ShouldBeNil)

		Convey("When running a sweep pass", func() {
			result, err := svc.RecomputeStale(ctx)

			Convey("Then the stale key should be recomputed", func() {
				So(err, ShouldBeNil)
				So(result.Processed, ShouldEqual, 1)
				sc, gerr := store.GetScore(ctx, "agent-a", "", model.Window30d)
				So(gerr, ShouldBeNil)
				So(sc.Volume, ShouldEqual, 1)
			})

			Convey("And a second pass should find nothing stale", func() {
				again, aerr := svc.RecomputeStale(ctx)
				So(aerr, ShouldBeNil)
				So(again.Processed, ShouldEqual, 0)
			})
		})

		Convey("When collecting stats", func() {
			stats := svc.GetStats(ctx)

			Convey("Then the stale backlog should be reported", func() {
				So(stats["staleKeys"], ShouldEqual, 1)
				So(stats["maxLeaderboardLimit"], ShouldEqual, 10)
				So(stats["sweepBatchSize"], ShouldEqual, 50)
			})
		})
	})
}

func TestAgentBadges(t *testing.T) {
	Convey("Given a service with a clean, verified agent", t, func() {
		store := repository.NewMemoryStore()
		svc := newTestService(store)
		ctx := context.Background()

		So(store.SetSourceVerified(ctx, "taskmint", true), ShouldBeNil)
		for i := 0; i < 6; i++ {
			e := completedEvent("agent-a")
			e.Source = "taskmint"
			e.OccurredAt = testNow.Add(-time.Duration(i+1) * time.Hour)
			_, err := svc.IngestOne(ctx, e)
			So(err, ShouldBeNil)
		}
		// A second source to clear the diversity threshold.
		e := completedEvent("agent-a")
		e.Source = "wakenet"
		So(store.SetSourceVerified(ctx, "wakenet", true), ShouldBeNil)
		_, err := svc.IngestOne(ctx, e)
		So(err, ShouldBeNil)

		Convey("When deriving badges", func() {
			badges, berr := svc.AgentBadges(ctx, "agent-a", model.Window30d, "")

			Convey("Then overlay badges should include the clean and verified marks", func() {
				So(berr, ShouldBeNil)
				slugs := make([]string, 0, len(badges))
				for _, b := range badges {
					slugs = append(slugs, b.Slug)
				}
				So(slugs, ShouldContain, "clean_history")
				So(slugs, ShouldContain, "verified_executor")
			})

			Convey("Then the badge cache should be refreshed", func() {
				cached, cerr := store.CachedBadges(ctx, model.Window30d, "")
				So(cerr, ShouldBeNil)
				So(cached["agent-a"], ShouldContain, "clean_history")
			})
		})

		Convey("When deriving badges for an unscored subject", func() {
			badges, berr := svc.AgentBadges(ctx, "agent-unknown", model.Window30d, "")

			Convey("Then the overlay should be empty, not an error", func() {
				So(berr, ShouldBeNil)
				So(badges, ShouldBeEmpty)
			})
		})
	})
}
