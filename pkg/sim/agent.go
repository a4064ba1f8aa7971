package sim

import (
	"github.com/drivesim/drivesim/pkg/math2d"
	"github.com/drivesim/drivesim/pkg/navigation"
	"github.com/drivesim/drivesim/pkg/vehicle"
)

// ObservationDim is the length of one agent's observation: the navigation
// feature vector plus normalized speed and lateral offset.
const ObservationDim = navigation.InfoDim + 2

// Agent couples a vehicle with its navigation state.
type Agent struct {
	ID      string
	Vehicle *vehicle.Vehicle
	Nav     *navigation.Navigator

	slot int
}

// longitudinal is the vehicle's offset along its resolved lane.
func (a *Agent) longitudinal() float64 {
	if a.Vehicle.Lane == nil {
		return 0
	}
	longitudinal, _ := a.Vehicle.Lane.LocalCoordinates(a.Vehicle.Position)
	return longitudinal
}

// lateral is the vehicle's signed offset from its lane centerline.
func (a *Agent) lateral() float64 {
	if a.Vehicle.Lane == nil {
		return 0
	}
	_, lateral := a.Vehicle.Lane.LocalCoordinates(a.Vehicle.Position)
	return lateral
}

// arrived reports whether the agent is at the end of its final road.
func (a *Agent) arrived() bool {
	if !a.Nav.OnFinalRoad() || a.Vehicle.Lane == nil {
		return false
	}
	if a.Nav.CurrentRoad() != a.Nav.FinalRoad() {
		return false
	}
	return a.longitudinal() >= a.Vehicle.Lane.Length()-arriveTolerance
}

// Observe assembles the agent's observation vector: the 10-dim navigation
// features followed by normalized speed and lateral offset, all in [0, 1].
func (a *Agent) Observe() []float64 {
	obs := make([]float64, 0, ObservationDim)
	obs = append(obs, a.Nav.NaviInfo()...)
	obs = append(obs, math2d.Clip(a.Vehicle.Speed/vehicle.MaxSpeed, 0, 1))
	width := 1.0
	if a.Vehicle.Lane != nil {
		width = a.Vehicle.Lane.Width()
	}
	obs = append(obs, math2d.Clip((a.lateral()/width+1)/2, 0, 1))
	return obs
}

// Autopilot is a simple lane-keeping controller used by the demo app: steer
// back to the lane centerline while holding a cruise speed.
func Autopilot(a *Agent, cruiseSpeed float64) Action {
	l := a.Vehicle.Lane
	if l == nil {
		return Action{}
	}
	longitudinal, lateral := l.LocalCoordinates(a.Vehicle.Position)
	headingErr := math2d.WrapToPi(l.HeadingAt(longitudinal) - a.Vehicle.Heading)

	const (
		headingGain = 3.0
		lateralGain = 0.4
		speedGain   = 2.0
	)
	return Action{
		Steering:     math2d.Clip(headingGain*headingErr-lateralGain*lateral, -2, 2),
		Acceleration: math2d.Clip(speedGain*(cruiseSpeed-a.Vehicle.Speed), -8, 8),
	}
}
