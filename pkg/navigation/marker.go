package navigation

import "github.com/drivesim/drivesim/pkg/math2d"

// CheckpointMark is the pure-data description of one tracked checkpoint,
// enough for any renderer to place a marker and orient an arrow.
type CheckpointMark struct {
	Position math2d.Vec2
	Heading  float64
}

// MarkerState is emitted once per localization tick. ShowArrow is false when
// the two checkpoint headings agree and no turn indication is needed.
type MarkerState struct {
	Near        CheckpointMark
	Far         CheckpointMark
	Destination math2d.Vec2
	Vehicle     math2d.Vec2
	ShowArrow   bool
	// TurnLeft is meaningful only when ShowArrow is set.
	TurnLeft bool
}

// MarkerSink receives marker updates. Implementations render them however
// they like; the core never touches a scene graph.
type MarkerSink interface {
	UpdateMarkers(state MarkerState)
}
