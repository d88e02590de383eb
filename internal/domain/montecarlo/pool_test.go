package montecarlo

import (
	"context"
	"errors"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestPool(t *testing.T) {
	Convey("Given a pool that echoes trial seeds", t, func() {
		p := newPool(3, func(t trial) outcome {
			if t.seed < 0 {
				return outcome{err: ErrTrialFailed}
			}
			return outcome{position: int(t.seed), wins: t.index}
		})
		trials := make([]trial, 20)
		for i := range trials {
			trials[i] = trial{index: i, seed: int64(100 + i)}
		}

		Convey("When running all trials", func() {
			out, err := p.Run(context.Background(), trials)

			Convey("Then outcomes keep trial order", func() {
				So(err, ShouldBeNil)
				So(out, ShouldHaveLength, 20)
				for i, o := range out {
					So(o.position, ShouldEqual, 100+i)
					So(o.wins, ShouldEqual, i)
				}
			})
		})

		Convey("When a trial fails", func() {
			trials[4].seed = -1
			out, err := p.Run(context.Background(), trials)

			Convey("Then only that outcome carries the error", func() {
				So(err, ShouldBeNil)
				So(errors.Is(out[4].err, ErrTrialFailed), ShouldBeTrue)
				So(out[5].err, ShouldBeNil)
			})
		})

		Convey("When the context is canceled", func() {
			ctx, cancel := context.WithCancel(context.Background())
			cancel()
			_, err := p.Run(ctx, trials)

			Convey("Then the pool stops with the context error", func() {
				So(errors.Is(err, context.Canceled), ShouldBeTrue)
			})
		})
	})

	Convey("Given a pool with no workers configured", t, func() {
		p := newPool(0, func(t trial) outcome { return outcome{position: 1} })

		Convey("Then it still runs with one worker", func() {
			out, err := p.Run(context.Background(), []trial{{index: 0}})
			So(err, ShouldBeNil)
			So(out[0].position, ShouldEqual, 1)
		})
	})
}
