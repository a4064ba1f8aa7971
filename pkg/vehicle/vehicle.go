package vehicle

import (
	"math"

	"github.com/google/uuid"

	"github.com/drivesim/drivesim/pkg/lane"
	"github.com/drivesim/drivesim/pkg/math2d"
)

// MaxSpeed caps the kinematic model, length units per second.
const MaxSpeed = 20.0

// Vehicle is the kinematic state of one agent. Lane and LaneIndex hold the
// last resolved localization; OnLane is cleared when localization misses.
type Vehicle struct {
	ID       string
	Name     string
	Position math2d.Vec2
	Heading  float64
	Speed    float64

	Lane      lane.Lane
	LaneIndex lane.Index
	OnLane    bool
}

// New spawns a vehicle at a world pose.
func New(name string, position math2d.Vec2, heading float64) *Vehicle {
	return &Vehicle{
		ID:       uuid.NewString(),
		Name:     name,
		Position: position,
		Heading:  heading,
		OnLane:   true,
	}
}

// HeadingVec is the unit vector the vehicle is facing.
func (v *Vehicle) HeadingVec() math2d.Vec2 {
	return math2d.Heading(v.Heading)
}

// SideVec is the unit vector to the vehicle's positive-lateral side.
func (v *Vehicle) SideVec() math2d.Vec2 {
	return math2d.Heading(v.Heading + math.Pi/2)
}

// Projection decomposes a world-frame vector into the vehicle's
// heading-relative frame: (along heading, toward side).
func (v *Vehicle) Projection(vec math2d.Vec2) (projHeading, projSide float64) {
	return vec.Dot(v.HeadingVec()), vec.Dot(v.SideVec())
}

// Step advances the kinematic model by dt seconds. Steering is a yaw rate
// in radians per second, acceleration in units per second squared.
func (v *Vehicle) Step(steering, acceleration, dt float64) {
	v.Speed = math2d.Clip(v.Speed+acceleration*dt, 0, MaxSpeed)
	v.Heading = math2d.WrapToPi(v.Heading + steering*dt)
	v.Position = v.Position.Add(v.HeadingVec().Scale(v.Speed * dt))
}

// PlaceOn snaps the vehicle onto a lane at a longitudinal offset.
func (v *Vehicle) PlaceOn(l lane.Lane, idx lane.Index, longitudinal float64) {
	v.Lane = l
	v.LaneIndex = idx
	v.Position = l.Position(longitudinal, 0)
	v.Heading = l.HeadingAt(longitudinal)
	v.OnLane = true
}
