package physics

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/drivesim/drivesim/pkg/lane"
	"github.com/drivesim/drivesim/pkg/math2d"
	"github.com/drivesim/drivesim/pkg/roadnet"
)

// twoLaneRoad builds a single road with two parallel lanes along +X,
// centerlines at y=0 and y=3.5.
func twoLaneRoad() *roadnet.Network {
	n := roadnet.NewNetwork()
	n.AddLane("A", "B", lane.NewStraightLane(math2d.Vec2{Y: 0}, math2d.Vec2{X: 100, Y: 0}, 3.5))
	n.AddLane("A", "B", lane.NewStraightLane(math2d.Vec2{Y: 3.5}, math2d.Vec2{X: 100, Y: 3.5}, 3.5))
	return n
}

func TestRayLocalizationOnLane(t *testing.T) {
	w := NewWorld(twoLaneRoad())

	hits := w.RayLocalization(math2d.Vec2{X: 1}, math2d.Vec2{X: 50, Y: 0})
	require.NotEmpty(t, hits)
	assert.Equal(t, lane.Index{From: "A", To: "B", Lane: 0}, hits[0].Index)
	assert.Equal(t, 0.0, hits[0].Distance)
}

func TestRayLocalizationOrderedByDistance(t *testing.T) {
	w := NewWorld(twoLaneRoad())

	// facing +Y from lane 0: lane 0 is entered immediately, lane 1 later
	hits := w.RayLocalization(math2d.Vec2{Y: 1}, math2d.Vec2{X: 50, Y: 0})
	require.Len(t, hits, 2)
	assert.Equal(t, 0, hits[0].Index.Lane)
	assert.Equal(t, 1, hits[1].Index.Lane)
	assert.Less(t, hits[0].Distance, hits[1].Distance)
}

func TestRayLocalizationNoHits(t *testing.T) {
	w := NewWorld(twoLaneRoad())

	hits := w.RayLocalization(math2d.Vec2{X: 1}, math2d.Vec2{X: 50, Y: 500})
	assert.Empty(t, hits)
}

func TestClosestFraction(t *testing.T) {
	w := NewWorld(twoLaneRoad())

	// probing laterally from the road's outer edge: the surface spans
	// y in [-1.75, 5.25], so the ray leaves it after ~7 units
	start := math2d.Vec2{X: 50, Y: -1.5}
	frac := w.ClosestFraction(start, math2d.Vec2{Y: 1}, 50)
	assert.InDelta(t, 7.0/50.0, frac, 0.03)

	// probing along the lane stays on the surface for the full length
	frac = w.ClosestFraction(math2d.Vec2{X: 10}, math2d.Vec2{X: 1}, 50)
	assert.Equal(t, 1.0, frac)
}
