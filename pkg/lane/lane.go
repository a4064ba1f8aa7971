package lane

import (
	"math"

	"github.com/drivesim/drivesim/pkg/math2d"
)

// Lane is a parametric centerline with a longitudinal/lateral frame.
// Longitudinal runs from 0 at the lane start to Length at the end;
// lateral is the signed offset from the centerline.
type Lane interface {
	// Position maps lane-local coordinates to a world point.
	Position(longitudinal, lateral float64) math2d.Vec2
	// HeadingAt returns the tangent direction (radians) at a longitudinal offset.
	HeadingAt(longitudinal float64) float64
	// LocalCoordinates projects a world point into the lane frame.
	LocalCoordinates(point math2d.Vec2) (longitudinal, lateral float64)
	Length() float64
	Width() float64
}

// Index identifies a lane inside the road network: the road it belongs to
// plus its position among the road's parallel lanes.
type Index struct {
	From string
	To   string
	Lane int
}

// StraightLane is a lane with a linear centerline.
type StraightLane struct {
	Start math2d.Vec2
	End   math2d.Vec2
	width float64
}

func NewStraightLane(start, end math2d.Vec2, width float64) *StraightLane {
	return &StraightLane{Start: start, End: end, width: width}
}

func (l *StraightLane) Length() float64 {
	return l.End.Sub(l.Start).Norm()
}

func (l *StraightLane) Width() float64 {
	return l.width
}

// Direction returns the unit vector along the lane.
func (l *StraightLane) Direction() math2d.Vec2 {
	d := l.End.Sub(l.Start)
	n := d.Norm()
	if n == 0 {
		return math2d.Vec2{X: 1}
	}
	return d.Scale(1 / n)
}

// DirectionLateral returns the unit vector pointing to positive lateral.
func (l *StraightLane) DirectionLateral() math2d.Vec2 {
	d := l.Direction()
	return math2d.Vec2{X: -d.Y, Y: d.X}
}

func (l *StraightLane) Position(longitudinal, lateral float64) math2d.Vec2 {
	return l.Start.Add(l.Direction().Scale(longitudinal)).Add(l.DirectionLateral().Scale(lateral))
}

func (l *StraightLane) HeadingAt(float64) float64 {
	d := l.Direction()
	return math.Atan2(d.Y, d.X)
}

func (l *StraightLane) LocalCoordinates(point math2d.Vec2) (float64, float64) {
	delta := point.Sub(l.Start)
	return delta.Dot(l.Direction()), delta.Dot(l.DirectionLateral())
}

// TurnLeft and TurnRight are the two turn senses of a circular lane.
const (
	TurnLeft  = 1
	TurnRight = -1
)

// CircularLane is a lane whose centerline is a circular arc. Direction is
// TurnLeft when the phase increases along the lane and TurnRight otherwise.
type CircularLane struct {
	Center     math2d.Vec2
	Radius     float64
	StartPhase float64
	EndPhase   float64
	Direction  int
	width      float64
}

func NewCircularLane(center math2d.Vec2, radius, startPhase, endPhase float64, direction int, width float64) *CircularLane {
	return &CircularLane{
		Center:     center,
		Radius:     radius,
		StartPhase: startPhase,
		EndPhase:   endPhase,
		Direction:  direction,
		width:      width,
	}
}

func (l *CircularLane) Length() float64 {
	return math.Abs(l.EndPhase-l.StartPhase) * l.Radius
}

func (l *CircularLane) Width() float64 {
	return l.width
}

func (l *CircularLane) phaseAt(longitudinal float64) float64 {
	return l.StartPhase + float64(l.Direction)*longitudinal/l.Radius
}

func (l *CircularLane) Position(longitudinal, lateral float64) math2d.Vec2 {
	phase := l.phaseAt(longitudinal)
	r := l.Radius - float64(l.Direction)*lateral
	return l.Center.Add(math2d.Heading(phase).Scale(r))
}

func (l *CircularLane) HeadingAt(longitudinal float64) float64 {
	return math2d.WrapToPi(l.phaseAt(longitudinal) + float64(l.Direction)*math.Pi/2)
}

func (l *CircularLane) LocalCoordinates(point math2d.Vec2) (float64, float64) {
	delta := point.Sub(l.Center)
	phi := math.Atan2(delta.Y, delta.X)
	longitudinal := float64(l.Direction) * math2d.WrapToPi(phi-l.StartPhase) * l.Radius
	lateral := float64(l.Direction) * (l.Radius - delta.Norm())
	return longitudinal, lateral
}
