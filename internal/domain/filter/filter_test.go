package filter_test

import (
	"errors"
	"iter"
	"math"
	"slices"
	"testing"

	"github.com/okian/mapperator/internal/domain/filter"
	"github.com/okian/mapperator/internal/domain/matching"
	"github.com/okian/mapperator/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

// spacingJudge scores a match by the spacing of its first continuation event.
type spacingJudge struct{}

func (spacingJudge) Judge(found, _ []model.Event, lookback int, _ float64) float64 {
	return found[lookback].Spacing
}
func (spacingJudge) MinLengthForScore(score float64) int { return int(score / 10) }
func (spacingJudge) PogScore() float64                    { return 5 }

type countingScorer struct {
	calls int
	err   error
}

func (s *countingScorer) ScoreBatch(fns []func() float64) ([]float64, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	out := make([]float64, len(fns))
	for i, fn := range fns {
		out[i] = fn()
	}
	return out, nil
}

func candidate(seq, offset int, score float64) matching.Match {
	return matching.Match{
		Events:   []model.Event{{Kind: model.KindStrike, BeatGap: 1, Spacing: score}},
		Position: matching.Position{Seq: seq, Offset: offset},
		MinMult:  1,
		MaxMult:  1,
	}
}

func newContext() *filter.Context {
	return &filter.Context{
		Pattern:   []model.Event{{Kind: model.KindStrike, BeatGap: 1, Spacing: 10}},
		MinLength: matching.NewMinLength(1),
		State:     model.State{Position: model.Vector2{X: 256, Y: 192}},
	}
}

func run(f filter.Filter, ctx *filter.Context, in ...matching.Match) []matching.Match {
	return slices.Collect(f.FilterMatches(ctx, slices.Values(in)))
}

func positions(ms []matching.Match) []matching.Position {
	out := make([]matching.Position, len(ms))
	for i, m := range ms {
		out[i] = m.Position
	}
	return out
}

func TestOnScreenFilter(t *testing.T) {
	Convey("Given the default playfield", t, func() {
		f := filter.NewOnScreenFilter()
		ctx := newContext()

		So(f.Bounds(), ShouldResemble, model.Playfield(512, 384, 5))

		Convey("When a match walks off the right edge", func() {
			m := matching.Match{
				Events:  []model.Event{{Spacing: 100}, {Spacing: 100}, {Spacing: 100}},
				MinMult: 1, MaxMult: 1,
			}

			Convey("Then it is truncated to the valid prefix", func() {
				So(f.ValidPrefix(ctx.State, m, m.Multiplier()), ShouldEqual, 2)
				out := run(f, ctx, m)
				So(len(out), ShouldEqual, 1)
				So(out[0].Length(), ShouldEqual, 2)
			})

			Convey("Then a smaller multiplier keeps it on screen", func() {
				m.MinMult, m.MaxMult = 0.5, 0.5
				So(f.ValidPrefix(ctx.State, m, m.Multiplier()), ShouldEqual, 3)
			})
		})

		Convey("When a match turns back before the edge", func() {
			m := matching.Match{
				Events:  []model.Event{{Spacing: 200}, {Spacing: 200, Angle: math.Pi}, {Spacing: 200}},
				MinMult: 1, MaxMult: 1,
			}
			So(f.ValidPrefix(ctx.State, m, m.Multiplier()), ShouldEqual, 3)
		})

		Convey("When the first event is already off screen", func() {
			m := matching.Match{
				Events:  []model.Event{{Spacing: 300, Angle: math.Pi / 2}},
				MinMult: 1, MaxMult: 1,
			}
			out := run(f, ctx, m, candidate(0, 0, 10))

			Convey("Then it is dropped and counted", func() {
				So(len(out), ShouldEqual, 1)
				So(ctx.Stats.Candidates, ShouldEqual, 2)
				So(ctx.Stats.OffScreen, ShouldEqual, 1)
			})
		})

		Convey("When lookback events are present", func() {
			m := matching.Match{
				Events:   []model.Event{{Spacing: 1000}, {Spacing: 100}},
				Lookback: 1,
				MinMult:  1, MaxMult: 1,
			}
			Convey("Then only the continuation is placed", func() {
				So(f.ValidPrefix(ctx.State, m, m.Multiplier()), ShouldEqual, 1)
			})
		})

		Convey("When using a custom playfield", func() {
			small := filter.NewOnScreenFilter(filter.WithPlayfield(100, 100, 0))
			ctx.State.Position = model.Vector2{X: 50, Y: 50}
			m := matching.Match{Events: []model.Event{{Spacing: 60}}, MinMult: 1, MaxMult: 1}
			So(small.ValidPrefix(ctx.State, m, m.Multiplier()), ShouldEqual, 0)

			ignored := filter.NewOnScreenFilter(filter.WithPlayfield(10, 10, 5))
			So(ignored.Bounds(), ShouldResemble, f.Bounds())
		})
	})
}

func TestBestScoreFilter(t *testing.T) {
	Convey("Given a best score filter with capacity 2", t, func() {
		f := filter.NewBestScoreFilter(spacingJudge{}, filter.WithCapacity(2))
		ctx := newContext()

		Convey("When candidates arrive in arbitrary order", func() {
			out := run(f, ctx,
				candidate(0, 0, 30),
				candidate(0, 1, 70),
				candidate(0, 2, 50),
				candidate(0, 3, 10),
				candidate(0, 4, 60),
			)

			Convey("Then only the best two remain, best first", func() {
				So(positions(out), ShouldResemble, []matching.Position{{Seq: 0, Offset: 1}, {Seq: 0, Offset: 4}})
				So(ctx.Stats.Scored, ShouldEqual, 5)
			})

			Convey("Then the minimum length follows the lowest kept score", func() {
				So(ctx.MinLength.Get(), ShouldEqual, 6)
			})
		})

		Convey("When a candidate only ties the minimum", func() {
			out := run(f, ctx,
				candidate(0, 0, 40),
				candidate(0, 1, 20),
				candidate(1, 0, 20),
			)

			Convey("Then the earlier candidate is kept", func() {
				So(positions(out), ShouldResemble, []matching.Position{{Seq: 0, Offset: 0}, {Seq: 0, Offset: 1}})
			})
		})

		Convey("When nothing arrives", func() {
			So(len(run(f, ctx)), ShouldEqual, 0)
			So(ctx.MinLength.Get(), ShouldEqual, 1)
		})
	})

	Convey("Given a continuation of the previous match", t, func() {
		f := filter.NewBestScoreFilter(spacingJudge{})
		ctx := newContext()
		pog := candidate(3, 9, 20)
		ctx.Pog = &pog

		Convey("When a slightly better candidate competes", func() {
			out := run(f, ctx, candidate(0, 0, 24))

			Convey("Then the continuation wins through its bonus", func() {
				So(len(out), ShouldEqual, 1)
				So(out[0].Position, ShouldResemble, matching.Position{Seq: 3, Offset: 9})
			})
		})

		Convey("When a much better candidate competes", func() {
			out := run(f, ctx, candidate(0, 0, 26))
			So(out[0].Position, ShouldResemble, matching.Position{Seq: 0, Offset: 0})
		})

		Convey("When the matcher also yields the continuation position", func() {
			out := run(f, ctx, candidate(3, 9, 20))

			Convey("Then it is not scored twice", func() {
				So(len(out), ShouldEqual, 1)
				So(ctx.Stats.Scored, ShouldEqual, 1)
			})
		})
	})

	Convey("Given a batch scorer", t, func() {
		in := []matching.Match{
			candidate(0, 0, 30), candidate(0, 1, 70), candidate(0, 2, 50),
			candidate(0, 3, 10), candidate(0, 4, 60),
		}
		plain := run(filter.NewBestScoreFilter(spacingJudge{}, filter.WithCapacity(3)), newContext(), in...)

		Convey("When batches succeed", func() {
			s := &countingScorer{}
			f := filter.NewBestScoreFilter(spacingJudge{}, filter.WithCapacity(3), filter.WithBatchScorer(s, 2))
			out := run(f, newContext(), in...)

			Convey("Then the result equals sequential scoring", func() {
				So(positions(out), ShouldResemble, positions(plain))
				So(s.calls, ShouldEqual, 3)
			})
		})

		Convey("When the batch scorer fails", func() {
			s := &countingScorer{err: errors.New("stopped")}
			f := filter.NewBestScoreFilter(spacingJudge{}, filter.WithCapacity(3), filter.WithBatchScorer(s, 4))
			out := run(f, newContext(), in...)

			Convey("Then scoring falls back to the caller", func() {
				So(positions(out), ShouldResemble, positions(plain))
				So(s.calls, ShouldEqual, 2)
			})
		})
	})
}

func TestPipeline(t *testing.T) {
	Convey("Given an on-screen filter followed by a best score filter", t, func() {
		p := filter.Pipeline{
			filter.NewOnScreenFilter(),
			filter.NewBestScoreFilter(spacingJudge{}),
		}
		ctx := newContext()

		Convey("When the best raw candidate leaves the playfield", func() {
			offscreen := candidate(0, 0, 400)
			onscreen := candidate(0, 1, 200)
			out := run(p, ctx, offscreen, onscreen)

			Convey("Then the best surviving candidate is chosen", func() {
				So(len(out), ShouldEqual, 1)
				So(out[0].Position, ShouldResemble, matching.Position{Seq: 0, Offset: 1})
				So(ctx.Stats.OffScreen, ShouldEqual, 1)
			})
		})

		Convey("When the consumer stops early", func() {
			var seq iter.Seq[matching.Match] = p.FilterMatches(ctx, slices.Values([]matching.Match{candidate(0, 0, 10)}))
			n := 0
			for range seq {
				n++
				break
			}
			So(n, ShouldEqual, 1)
		})
	})
}
