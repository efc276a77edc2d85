package model_test

import (
	"math"
	"testing"

	model "github.com/okian/mapperator/internal/domain/model"
	"github.com/smartystreets/goconvey/convey"
)

func TestEvent(t *testing.T) {
	convey.Convey("Given an Event struct", t, func() {
		convey.Convey("When repeats are absent", func() {
			e := model.Event{Kind: model.KindRelease}

			convey.Convey("Then the repeat count defaults to one", func() {
				convey.So(e.RepeatCount(), convey.ShouldEqual, 1)
			})
		})

		convey.Convey("When repeats are present", func() {
			e := model.Event{Kind: model.KindRelease, HasRepeats: true, Repeats: 3}

			convey.Convey("Then the repeat count is reported", func() {
				convey.So(e.RepeatCount(), convey.ShouldEqual, 3)
			})
		})

		convey.Convey("When inspecting kinds", func() {
			convey.So(model.KindRelease.IsRelease(), convey.ShouldBeTrue)
			convey.So(model.KindSpinRelease.IsRelease(), convey.ShouldBeTrue)
			convey.So(model.KindStrike.IsRelease(), convey.ShouldBeFalse)
			convey.So(model.Kind(9).Valid(), convey.ShouldBeFalse)
			convey.So(model.KindSpinStart.String(), convey.ShouldEqual, "spin_start")
		})
	})
}

func TestGeometry(t *testing.T) {
	convey.Convey("Given geometry helpers", t, func() {
		convey.Convey("When normalizing angles", func() {
			convey.So(model.NormalizeAngle(math.Pi), convey.ShouldAlmostEqual, math.Pi)
			convey.So(model.NormalizeAngle(-math.Pi), convey.ShouldAlmostEqual, math.Pi)
			convey.So(model.NormalizeAngle(3*math.Pi/2), convey.ShouldAlmostEqual, -math.Pi/2)
			convey.So(model.NormalizeAngle(math.NaN()), convey.ShouldEqual, 0)
			convey.So(model.NormalizeAngle(math.Inf(1)), convey.ShouldEqual, 0)
		})

		convey.Convey("When a segment has zero length", func() {
			a := model.Vector2{X: 10, Y: 10}

			convey.Convey("Then the turn angle is zero rather than NaN", func() {
				convey.So(model.TurnAngle(a, a, model.Vector2{X: 20, Y: 10}), convey.ShouldEqual, 0)
				convey.So(model.Vector2{}.Heading(), convey.ShouldEqual, 0)
			})
		})

		convey.Convey("When turning left by a right angle", func() {
			a := model.Vector2{X: 0, Y: 0}
			b := model.Vector2{X: 10, Y: 0}
			c := model.Vector2{X: 10, Y: 10}

			convey.So(model.TurnAngle(a, b, c), convey.ShouldAlmostEqual, math.Pi/2)
		})

		convey.Convey("When advancing a state", func() {
			s := model.State{Position: model.Vector2{X: 100, Y: 100}}
			next := s.Advance(50, math.Pi/2, 1)

			convey.Convey("Then position, heading and time move together", func() {
				convey.So(next.Position.X, convey.ShouldAlmostEqual, 100)
				convey.So(next.Position.Y, convey.ShouldAlmostEqual, 150)
				convey.So(next.Angle, convey.ShouldAlmostEqual, math.Pi/2)
				convey.So(next.Time, convey.ShouldEqual, 1)
			})
		})

		convey.Convey("When checking the playfield", func() {
			r := model.Playfield(512, 384, 5)

			convey.So(r.Contains(model.Vector2{X: 5, Y: 5}), convey.ShouldBeTrue)
			convey.So(r.Contains(model.Vector2{X: 4.9, Y: 100}), convey.ShouldBeFalse)
			convey.So(r.Contains(model.Vector2{X: 507, Y: 379}), convey.ShouldBeTrue)
			convey.So(r.Center(), convey.ShouldResemble, model.Vector2{X: 256, Y: 192})
		})
	})
}
