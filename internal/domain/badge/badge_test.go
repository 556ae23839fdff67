package badge_test

import (
	"testing"

	badge "github.com/trustgraph/trustgraph/internal/domain/badge"
	. "github.com/smartystreets/goconvey/convey"
)

func slugs(in badge.Input) []string {
	badges := badge.Compute(in)
	out := make([]string, 0, len(badges))
	for _, b := range badges {
		out = append(out, b.Slug)
	}
	return out
}

func TestCompute(t *testing.T) {
	Convey("Given the badge overlay", t, func() {
		base := badge.Input{
			HasScore:    true,
			Reliability: 0.9,
			Integrity:   1,
			Timeliness:  0.5,
			Volume:      10,
		}

		Convey("When the subject has no score row", func() {
			Convey("Then the badge set should be empty, not an error", func() {
				So(badge.Compute(badge.Input{}), ShouldBeEmpty)
			})
		})

		Convey("When the history is clean", func() {
			in := base
			in.IntegrityBadCount = 0
			in.Integrity = 0.995

			Convey("Then clean_history should be awarded", func() {
				So(slugs(in), ShouldContain, "clean_history")
			})
		})

		Convey("When integrity-negative events exist", func() {
			in := base
			in.IntegrityBadCount = 1
			in.Integrity = 1

			Convey("Then clean_history should be withheld", func() {
				So(slugs(in), ShouldNotContain, "clean_history")
			})
		})

		Convey("When ranked at the very top", func() {
			in := base
			in.HasRank = true
			in.Rank = 1
			in.Total = 200
			got := slugs(in)

			Convey("Then only the tightest percentile badge should apply", func() {
				So(got, ShouldContain, "top_1")
				So(got, ShouldNotContain, "top_5")
				So(got, ShouldNotContain, "top_10")
			})
		})

		Convey("When ranked 8th of 100", func() {
			in := base
			in.HasRank = true
			in.Rank = 8
			in.Total = 100

			Convey("Then top_10 should apply", func() {
				So(slugs(in), ShouldContain, "top_10")
			})
		})

		Convey("When timeliness is high", func() {
			in := base
			in.Timeliness = 0.95

			Convey("And volume clears the floor", func() {
				So(slugs(in), ShouldContain, "fast_responder")
			})

			Convey("And volume is below the floor", func() {
				in.Volume = 2
				So(slugs(in), ShouldNotContain, "fast_responder")
			})
		})

		Convey("When every event comes from a verified source", func() {
			in := base
			in.AllSourcesVerified = true

			Convey("Then verified_executor should be awarded", func() {
				So(slugs(in), ShouldContain, "verified_executor")
			})

			Convey("Unless there are no events at all", func() {
				in.Volume = 0
				So(slugs(in), ShouldNotContain, "verified_executor")
			})
		})
	})
}
