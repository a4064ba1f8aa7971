// Package navigation localizes vehicles onto the road graph and turns a
// planned route into a fixed-size feature vector for observation encoders.
// It owns route planning, ray-based lane resolution, the rolling checkpoint
// window and the per-checkpoint feature encoding.
package navigation

import (
	"fmt"
	"math"
	"math/rand"

	"github.com/drivesim/drivesim/pkg/lane"
	"github.com/drivesim/drivesim/pkg/logging"
	"github.com/drivesim/drivesim/pkg/mapgen"
	"github.com/drivesim/drivesim/pkg/math2d"
	"github.com/drivesim/drivesim/pkg/physics"
	"github.com/drivesim/drivesim/pkg/roadnet"
	"github.com/drivesim/drivesim/pkg/vehicle"
)

// Navigator is the per-vehicle navigation state: the planned route, the
// two-element checkpoint window, the currently resolved reference lanes and
// the emitted feature vector. One Navigator serves exactly one vehicle and
// is mutated only on that vehicle's tick.
type Navigator struct {
	cfg  Config
	log  logging.Logger
	sink MarkerSink

	world *physics.World
	m     *mapgen.Map

	checkpoints     []string
	window          [2]int
	currentRefLanes []lane.Lane
	currentRoad     roadnet.Road
	finalRoad       roadnet.Road
	finalLane       lane.Lane
	destination     math2d.Vec2
	naviInfo        []float64
}

// Option customizes a Navigator at construction.
type Option func(*Navigator)

// WithLogger replaces the default no-op logger.
func WithLogger(l logging.Logger) Option {
	return func(n *Navigator) { n.log = l }
}

// WithMarkerSink registers a receiver for per-tick marker updates.
func WithMarkerSink(s MarkerSink) Option {
	return func(n *Navigator) { n.sink = s }
}

// NewNavigator creates a navigator bound to a spatial query world.
func NewNavigator(world *physics.World, cfg Config, opts ...Option) *Navigator {
	n := &Navigator{
		cfg:      cfg,
		log:      logging.NoOpLogger{},
		world:    world,
		naviInfo: make([]float64, cfg.InfoDim),
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// Update plans a route from the vehicle's current road. When finalRoadNode
// is empty a destination is sampled from the sockets of the first block if
// the vehicle spawned on a negative road, or of the last block otherwise;
// sockets touching the start node are excluded and removed until the pool
// is exhausted.
func (n *Navigator) Update(m *mapgen.Map, current lane.Index, finalRoadNode string, seed int64) error {
	n.m = m
	start := current.From
	if start == "" {
		start = m.SpawnNode()
	}
	if finalRoadNode == "" {
		negative := roadnet.NewRoad(current.From, current.To).IsNegative()
		block := m.LastBlock()
		if negative {
			block = m.FirstBlock()
		}
		sockets := block.SocketList()
		rng := rand.New(rand.NewSource(seed))
		var socket mapgen.Socket
		for {
			if len(sockets) == 0 {
				return fmt.Errorf("%w: no destination socket reachable from %s", ErrNoRouteFound, start)
			}
			i := rng.Intn(len(sockets))
			socket = sockets[i]
			if !socket.IsSocketNode(start) {
				break
			}
			sockets = append(sockets[:i], sockets[i+1:]...)
		}
		if negative {
			finalRoadNode = socket.NegativeRoad.End
		} else {
			finalRoadNode = socket.PositiveRoad.End
		}
	}
	return n.SetRoute(start, finalRoadNode)
}

// SetRoute plans the shortest route between two road nodes and resets the
// checkpoint window and feature vector. The terminal road is the route's
// last segment; its last lane is kept for destination marker placement.
func (n *Navigator) SetRoute(startRoadNode, endRoadNode string) error {
	path, err := n.m.Network.ShortestPath(startRoadNode, endRoadNode)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrNoRouteFound, err)
	}
	if len(path) <= 2 {
		return fmt.Errorf("%w: route %s -> %s has only %d nodes", ErrNoRouteFound, startRoadNode, endRoadNode, len(path))
	}
	n.checkpoints = path
	n.finalRoad = roadnet.NewRoad(path[len(path)-2], endRoadNode)
	finalLanes := n.finalRoad.Lanes(n.m.Network)
	if len(finalLanes) == 0 {
		return fmt.Errorf("%w: terminal road %s -> %s has no lanes", ErrNoRouteFound, n.finalRoad.Start, n.finalRoad.End)
	}
	n.finalLane = finalLanes[len(finalLanes)-1]
	n.window = [2]int{0, 1}
	for i := range n.naviInfo {
		n.naviInfo[i] = 0
	}
	n.currentRoad = roadnet.NewRoad(path[0], path[1])
	n.currentRefLanes = n.currentRoad.Lanes(n.m.Network)

	refLane := finalLanes[0]
	n.destination = refLane.Position(refLane.Length(), n.laterMiddle())
	n.log.Debug("route planned", "start", startRoadNode, "end", endRoadNode, "checkpoints", len(path))
	return nil
}

// UpdateLocalization runs one localization + checkpoint-update +
// feature-encode cycle and returns the resolved lane. On a localization miss
// the vehicle keeps its last lane, is flagged off-lane, and, only when
// configured, a full-graph nearest-lane search recovers the index.
func (n *Navigator) UpdateLocalization(v *vehicle.Vehicle) (lane.Lane, lane.Index, error) {
	l, idx, ok := n.CurrentLane(v)
	if !ok {
		l, idx = v.Lane, v.LaneIndex
		v.OnLane = false
		if n.cfg.ForceLaneLocate {
			found, _ := n.m.Network.ClosestLaneIndex(v.Position)
			if fl, err := n.m.Network.GetLane(found); err == nil {
				l, idx = fl, found
			}
		}
	} else {
		v.OnLane = true
	}
	if l == nil {
		return nil, lane.Index{}, ErrNoLane
	}

	longitudinal, _ := l.LocalCoordinates(v.Position)
	n.updateTargetCheckpoints(idx, longitudinal)

	if len(n.checkpoints) <= 2 {
		return nil, lane.Index{}, ErrInvalidRoute
	}

	lanes1 := roadnet.NewRoad(n.checkpoints[n.window[0]], n.checkpoints[n.window[0]+1]).Lanes(n.m.Network)
	lanes2 := roadnet.NewRoad(n.checkpoints[n.window[1]], n.checkpoints[n.window[1]+1]).Lanes(n.m.Network)
	n.currentRefLanes = lanes1
	n.currentRoad = roadnet.NewRoad(n.checkpoints[n.window[0]], n.checkpoints[n.window[0]+1])

	half := n.cfg.InfoDim / 2
	info1, heading1, checkpoint := n.infoForCheckpoint(0, lanes1, v)
	info2, heading2, _ := n.infoForCheckpoint(1, lanes2, v)
	copy(n.naviInfo[:half], info1[:])
	copy(n.naviInfo[half:], info2[:])

	if n.sink != nil {
		n.sink.UpdateMarkers(n.markerState(v, checkpoint, heading1, heading2))
	}
	return l, idx, nil
}

// CurrentLane resolves the vehicle's lane from the forward ray query,
// preferring hits on the tracked reference lanes so nearby off-route lanes
// at intersections cannot steal the localization. Falls back to the nearest
// hit; ok is false when the ray hits nothing.
func (n *Navigator) CurrentLane(v *vehicle.Vehicle) (lane.Lane, lane.Index, bool) {
	hits := n.world.RayLocalization(v.HeadingVec(), v.Position)
	for _, h := range hits {
		for _, ref := range n.currentRefLanes {
			if h.Lane == ref {
				return h.Lane, h.Index, true
			}
		}
	}
	if len(hits) > 0 {
		return hits[0].Lane, hits[0].Index, true
	}
	return nil, lane.Index{}, false
}

// updateTargetCheckpoints advances the checkpoint window when the vehicle
// enters a later route segment within the update tolerance. The window only
// moves forward; once both indices agree the final segment is active and
// the state is absorbing. The destination node is excluded from matching so
// reaching it never re-triggers an advance.
func (n *Navigator) updateTargetCheckpoints(idx lane.Index, longitudinal float64) bool {
	if n.window[0] == n.window[1] {
		return false
	}
	if longitudinal >= n.cfg.CkptUpdateRange {
		return false
	}
	for i := n.window[1]; i < len(n.checkpoints)-1; i++ {
		if n.checkpoints[i] != idx.From {
			continue
		}
		n.window[0] = i
		if i+1 == len(n.checkpoints)-1 {
			n.window[1] = i
		} else {
			n.window[1] = i + 1
		}
		return true
	}
	return false
}

// infoForCheckpoint encodes one checkpoint into five scalars in [0, 1]:
// the clamped vehicle-to-checkpoint vector projected into the vehicle frame,
// then bend radius, turn sense and signed arc angle for circular lanes.
func (n *Navigator) infoForCheckpoint(lanesID int, lanes []lane.Lane, v *vehicle.Vehicle) ([5]float64, float64, math2d.Vec2) {
	refLane := lanes[0]
	checkpoint := refLane.Position(refLane.Length(), n.laterMiddle())

	var lanesHeading float64
	if lanesID == 0 {
		longitudinal, _ := refLane.LocalCoordinates(v.Position)
		lanesHeading = refLane.HeadingAt(longitudinal)
	} else {
		lanesHeading = refLane.HeadingAt(math.Min(n.cfg.PreNotifyDist, refLane.Length()))
	}

	dirVec := checkpoint.Sub(v.Position).ClampNorm(n.cfg.NaviPointDist)
	projHeading, projSide := v.Projection(dirVec)

	bendRadius, turnDir, angle := 0.0, 0.0, 0.0
	if c, ok := refLane.(*lane.CircularLane); ok {
		bendRadius = c.Radius / (n.cfg.MaxCurveRadius + float64(len(n.currentRefLanes))*n.laneWidth())
		turnDir = float64(c.Direction)
		if c.Direction == lane.TurnLeft {
			angle = c.EndPhase - c.StartPhase
		} else {
			angle = c.StartPhase - c.EndPhase
		}
	}

	info := [5]float64{
		math2d.Clip((projHeading/n.cfg.NaviPointDist+1)/2, 0, 1),
		math2d.Clip((projSide/n.cfg.NaviPointDist+1)/2, 0, 1),
		math2d.Clip(bendRadius, 0, 1),
		math2d.Clip((turnDir+1)/2, 0, 1),
		math2d.Clip((math2d.Rad2Deg(angle)/n.cfg.MaxCurveAngle+1)/2, 0, 1),
	}
	return info, lanesHeading, checkpoint
}

func (n *Navigator) markerState(v *vehicle.Vehicle, checkpoint math2d.Vec2, heading1, heading2 float64) MarkerState {
	show := math.Abs(heading1-heading2) >= 0.01
	left := false
	if show {
		// left turn when the far heading is counterclockwise of the near one
		cross := math2d.Heading(heading1).Cross(math2d.Heading(heading2))
		left = cross >= 0
	}
	return MarkerState{
		Near:        CheckpointMark{Position: checkpoint, Heading: heading1},
		Far:         CheckpointMark{Position: n.destination, Heading: heading2},
		Destination: n.destination,
		Vehicle:     v.Position,
		ShowArrow:   show,
		TurnLeft:    left,
	}
}

// laterMiddle is the lateral offset from the reference lane's centerline to
// the middle of the road.
func (n *Navigator) laterMiddle() float64 {
	return (float64(len(n.currentRefLanes))/2 - 0.5) * n.laneWidth()
}

func (n *Navigator) laneWidth() float64 {
	return n.m.Config.LaneWidth
}

// LateralRange measures the drivable width at the current position: a
// lateral ray probe on merge/split blocks, otherwise the plain road width.
func (n *Navigator) LateralRange(position math2d.Vec2) float64 {
	block := n.m.BlockOf(n.currentRoad)
	if block != nil && (block.Kind == mapgen.KindMerge || block.Kind == mapgen.KindSplit) {
		if left, ok := n.currentRefLanes[0].(*lane.StraightLane); ok {
			longitudinal, _ := left.LocalCoordinates(position)
			start := left.Position(longitudinal, -left.Width()/2)
			const probeLength = 50.0
			return n.world.ClosestFraction(start, left.DirectionLateral(), probeLength) * probeLength
		}
	}
	return n.laneWidth() * float64(len(n.currentRefLanes))
}

// NaviInfo returns the feature vector computed by the last localization
// cycle. The slice is rewritten in place every tick; callers that keep it
// across ticks must copy it.
func (n *Navigator) NaviInfo() []float64 {
	return n.naviInfo
}

// Checkpoints returns the planned route's node sequence.
func (n *Navigator) Checkpoints() []string {
	return n.checkpoints
}

// Window returns the current checkpoint window indices.
func (n *Navigator) Window() (int, int) {
	return n.window[0], n.window[1]
}

// OnFinalRoad reports whether the window has collapsed onto the terminal
// segment.
func (n *Navigator) OnFinalRoad() bool {
	return len(n.checkpoints) > 0 && n.window[0] == n.window[1]
}

// CurrentRoad returns the road of the near checkpoint.
func (n *Navigator) CurrentRoad() roadnet.Road {
	return n.currentRoad
}

// CurrentRefLanes returns the lanes of the near checkpoint's road.
func (n *Navigator) CurrentRefLanes() []lane.Lane {
	return n.currentRefLanes
}

// FinalRoad returns the terminal road of the route.
func (n *Navigator) FinalRoad() roadnet.Road {
	return n.finalRoad
}

// FinalLane returns the last lane of the terminal road.
func (n *Navigator) FinalLane() lane.Lane {
	return n.finalLane
}

// Destination returns the destination marker position.
func (n *Navigator) Destination() math2d.Vec2 {
	return n.destination
}

// Destroy releases the navigator's references. The navigator must not be
// used afterwards.
func (n *Navigator) Destroy() {
	n.checkpoints = nil
	n.currentRefLanes = nil
	n.finalLane = nil
	n.m = nil
	n.sink = nil
	n.log.Debug("navigator destroyed")
}
