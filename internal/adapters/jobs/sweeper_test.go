package jobs

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/trustgraph/trustgraph/internal/domain/types"
	"github.com/trustgraph/trustgraph/pkg/logger"
)

func init() { _ = logger.Init() }

type countingSweep struct {
	calls atomic.Int64
	err   error
}

func (c *countingSweep) RecomputeStale(_ context.Context) (types.SweepResult, error) {
	n := c.calls.Add(1)
	if c.err != nil {
		return types.SweepResult{}, c.err
	}
	return types.SweepResult{Processed: int(n)}, nil
}

func TestSweeper(t *testing.T) {
	Convey("Given a sweeper with a short interval", t, func() {
		sweep := &countingSweep{}
		s := NewSweeper(sweep, WithInterval(10*time.Millisecond))

		Convey("When running for a few ticks", func() {
			ctx, cancel := context.WithCancel(context.Background())
			go s.Run(ctx)
			time.Sleep(60 * time.Millisecond)
			cancel()

			Convey("Then sweep passes should have fired repeatedly", func() {
				So(sweep.calls.Load(), ShouldBeGreaterThanOrEqualTo, 2)
			})
		})

		Convey("When shutting down explicitly", func() {
			go s.Run(context.Background())

			shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Second)
			defer cancel()
			err := s.Shutdown(shutdownCtx)

			Convey("Then shutdown should complete cleanly", func() {
				So(err, ShouldBeNil)
			})

			Convey("And a second shutdown should be a no-op", func() {
				So(s.Shutdown(shutdownCtx), ShouldBeNil)
			})
		})
	})

	Convey("Given a sweeper whose sweep keeps failing", t, func() {
		sweep := &countingSweep{err: errors.New("store offline")}
		s := NewSweeper(sweep, WithInterval(10*time.Millisecond))

		Convey("When running for a few ticks", func() {
			ctx, cancel := context.WithCancel(context.Background())
			go s.Run(ctx)
			time.Sleep(50 * time.Millisecond)
			cancel()

			Convey("Then the loop should keep ticking through failures", func() {
				So(sweep.calls.Load(), ShouldBeGreaterThanOrEqualTo, 2)
			})
		})
	})
}
