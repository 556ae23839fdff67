package seedevents

import (
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"
)

func seededConfig() *Config {
	return &Config{
		BaseURL:   "http://localhost:8080",
		NumAgents: 8,
		NumEvents: 200,
		BatchSize: 50,
		Timeout:   DefaultTimeout,
		Seed:      42,
	}
}

func TestGenerator(t *testing.T) {
	Convey("Given a seeded generator", t, func() {
		gen := NewGenerator(seededConfig())

		Convey("When generating a batch of events", func() {
			events := gen.Generate(200)

			Convey("Then every event should be well formed", func() {
				So(events, ShouldHaveLength, 200)
				for _, e := range events {
					So(e.SubjectAgentID, ShouldNotBeEmpty)
					So(e.Source, ShouldNotBeEmpty)
					So(e.EventType, ShouldNotBeEmpty)
					So(e.Outcome, ShouldBeIn, "success", "failure", "neutral")
					So(e.Severity, ShouldBeBetweenOrEqual, 1, 100)
					_, err := time.Parse(time.RFC3339, e.OccurredAt)
					So(err, ShouldBeNil)
				}
			})

			Convey("Then idempotency refs should be unique within the run", func() {
				seen := make(map[string]bool, len(events))
				for _, e := range events {
					So(seen[e.RefID], ShouldBeFalse)
					seen[e.RefID] = true
				}
			})

			Convey("Then more than one event type should appear", func() {
				kinds := make(map[string]bool)
				for _, e := range events {
					kinds[e.EventType] = true
				}
				So(len(kinds), ShouldBeGreaterThan, 3)
			})
		})

		Convey("When generating twice with the same seed", func() {
			a := NewGenerator(seededConfig()).Generate(50)
			b := NewGenerator(seededConfig()).Generate(50)

			Convey("Then the streams should match", func() {
				So(a, ShouldResemble, b)
			})
		})
	})
}

func TestConfigValidate(t *testing.T) {
	Convey("Given a seed configuration", t, func() {
		Convey("Then a complete config should validate", func() {
			So(seededConfig().Validate(), ShouldBeNil)
		})

		Convey("Then a missing base URL should be rejected", func() {
			cfg := seededConfig()
			cfg.BaseURL = ""
			So(cfg.Validate(), ShouldNotBeNil)
		})

		Convey("Then a zero batch size should be rejected", func() {
			cfg := seededConfig()
			cfg.BatchSize = 0
			So(cfg.Validate(), ShouldNotBeNil)
		})
	})
}
