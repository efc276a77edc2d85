// Package model contains domain models passed between layers.
package model

// Kind classifies an event.
type Kind int

// Event kinds. Values are part of the interchange format.
const (
	KindStrike Kind = iota
	KindRelease
	KindSpinStart
	KindSpinRelease
)

// String returns a short name for logging.
func (k Kind) String() string {
	switch k {
	case KindStrike:
		return "strike"
	case KindRelease:
		return "release"
	case KindSpinStart:
		return "spin_start"
	case KindSpinRelease:
		return "spin_release"
	default:
		return "unknown"
	}
}

// Valid reports whether k is a known kind.
func (k Kind) Valid() bool {
	return k >= KindStrike && k <= KindSpinRelease
}

// IsRelease reports whether k ends a sustained event.
func (k Kind) IsRelease() bool {
	return k == KindRelease || k == KindSpinRelease
}

// Event is one timed, positioned record of a corpus sequence or pattern.
// Geometry is relative: Spacing is the distance from the previous event and
// Angle the signed turn relative to the previous two events.
type Event struct {
	Kind      Kind    // event kind
	BeatGap   float64 // beats since the previous event
	Spacing   float64 // distance from the previous event position
	Angle     float64 // signed turn angle in (-pi, pi]
	GroupFlag bool    // starts a new combo group

	// Curve attributes, meaningful when HasCurve is set.
	HasCurve      bool
	CurveKind     int
	CurveLength   float64
	CurveSegments int

	// Repeat count, meaningful when HasRepeats is set.
	HasRepeats bool
	Repeats    int

	// RawPayload is carried through untouched so encoders can restore the
	// original formatting.
	RawPayload string
}

// RepeatCount returns the repeat count, defaulting to 1.
func (e *Event) RepeatCount() int {
	if !e.HasRepeats || e.Repeats < 1 {
		return 1
	}
	return e.Repeats
}

// ObjectKind classifies an output object.
type ObjectKind int

// Output object kinds.
const (
	ObjectCircle ObjectKind = iota
	ObjectSlider
	ObjectSpinner
)

// Object is an absolutely placed output element produced by the constructor.
type Object struct {
	Kind      ObjectKind
	Start     Vector2
	End       Vector2
	StartTime float64 // beats
	EndTime   float64 // beats
	GroupFlag bool

	CurveKind     int
	PixelLength   float64
	CurveSegments int
	Repeats       int

	RawPayload string
}

// ControlChange is a deferred velocity adjustment for the caller's timing model.
type ControlChange struct {
	Time     float64 // beats
	Velocity float64 // pixels per beat
}

// State is the trailing point, heading and time of everything emitted so far.
type State struct {
	Position Vector2
	Angle    float64
	Time     float64
}

// Advance returns the state after an event with the given geometry and gap.
func (s State) Advance(spacing, angle, gap float64) State {
	heading := NormalizeAngle(s.Angle + angle)
	return State{
		Position: s.Position.Add(FromAngle(heading).Scale(spacing)),
		Angle:    heading,
		Time:     s.Time + gap,
	}
}
