package model

import "math"

// Vector2 is a point or direction on the playfield.
type Vector2 struct {
	X float64
	Y float64
}

// Add returns v + o.
func (v Vector2) Add(o Vector2) Vector2 { return Vector2{X: v.X + o.X, Y: v.Y + o.Y} }

// Sub returns v - o.
func (v Vector2) Sub(o Vector2) Vector2 { return Vector2{X: v.X - o.X, Y: v.Y - o.Y} }

// Scale returns v * f.
func (v Vector2) Scale(f float64) Vector2 { return Vector2{X: v.X * f, Y: v.Y * f} }

// Length returns the Euclidean norm.
func (v Vector2) Length() float64 { return math.Hypot(v.X, v.Y) }

// Heading returns the direction of v. Zero-length vectors have heading 0.
func (v Vector2) Heading() float64 {
	if v.X == 0 && v.Y == 0 {
		return 0
	}
	return math.Atan2(v.Y, v.X)
}

// FromAngle returns the unit vector with the given heading.
func FromAngle(a float64) Vector2 {
	return Vector2{X: math.Cos(a), Y: math.Sin(a)}
}

// NormalizeAngle maps a into (-pi, pi]. NaN and infinities map to 0.
func NormalizeAngle(a float64) float64 {
	if math.IsNaN(a) || math.IsInf(a, 0) {
		return 0
	}
	a = math.Mod(a, 2*math.Pi)
	if a <= -math.Pi {
		a += 2 * math.Pi
	} else if a > math.Pi {
		a -= 2 * math.Pi
	}
	return a
}

// TurnAngle returns the signed turn at b when travelling a -> b -> c.
// Degenerate segments yield 0.
func TurnAngle(a, b, c Vector2) float64 {
	in := b.Sub(a)
	out := c.Sub(b)
	if in.Length() == 0 || out.Length() == 0 {
		return 0
	}
	return NormalizeAngle(out.Heading() - in.Heading())
}

// Rect is an axis-aligned rectangle.
type Rect struct {
	Min Vector2
	Max Vector2
}

// Playfield returns the rectangle of a width x height field shrunk by inset
// on every side.
func Playfield(width, height, inset float64) Rect {
	return Rect{
		Min: Vector2{X: inset, Y: inset},
		Max: Vector2{X: width - inset, Y: height - inset},
	}
}

// Contains reports whether p lies inside r, borders included.
func (r Rect) Contains(p Vector2) bool {
	return p.X >= r.Min.X && p.X <= r.Max.X && p.Y >= r.Min.Y && p.Y <= r.Max.Y
}

// Center returns the midpoint of r.
func (r Rect) Center() Vector2 {
	return Vector2{X: (r.Min.X + r.Max.X) / 2, Y: (r.Min.Y + r.Max.Y) / 2}
}
