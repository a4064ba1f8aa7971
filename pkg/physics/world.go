// Package physics provides the spatial query service the navigation core
// consumes: forward ray localization over lane surfaces and a closest-hit
// fraction probe. Lanes are indexed once into a uniform grid so per-tick
// queries only touch nearby candidates.
package physics

import (
	"math"
	"sort"

	"github.com/drivesim/drivesim/pkg/lane"
	"github.com/drivesim/drivesim/pkg/math2d"
	"github.com/drivesim/drivesim/pkg/roadnet"
)

const (
	// DefaultRayLength bounds the forward localization ray.
	DefaultRayLength = 6.0
	// rayStep is the sampling step along a ray.
	rayStep = 0.5
	// cellSize is the edge length of one grid cell.
	cellSize = 16.0
	// laneSampleStep controls how densely lanes are rasterized into the grid.
	laneSampleStep = 4.0
)

// Hit is one lane intersected by a localization ray, with the distance along
// the ray at which it was first entered.
type Hit struct {
	Lane     lane.Lane
	Index    lane.Index
	Distance float64
}

type cellKey struct {
	X, Y int
}

type laneRef struct {
	l   lane.Lane
	idx lane.Index
}

// World indexes a road network's lane surfaces for spatial queries.
type World struct {
	grid      map[cellKey][]int
	lanes     []laneRef
	rayLength float64
}

// NewWorld builds the spatial index for a network. The network must not be
// mutated afterwards.
func NewWorld(net *roadnet.Network) *World {
	w := &World{
		grid:      make(map[cellKey][]int),
		rayLength: DefaultRayLength,
	}
	for from, ends := range net.Graph {
		for to, lanes := range ends {
			for i, l := range lanes {
				ref := len(w.lanes)
				w.lanes = append(w.lanes, laneRef{l: l, idx: lane.Index{From: from, To: to, Lane: i}})
				w.insert(ref, l)
			}
		}
	}
	return w
}

func (w *World) insert(ref int, l lane.Lane) {
	margin := l.Width()/2 + laneSampleStep
	seen := make(map[cellKey]bool)
	length := l.Length()
	for s := 0.0; ; s += laneSampleStep {
		if s > length {
			s = length
		}
		p := l.Position(s, 0)
		for _, k := range cellsAround(p, margin) {
			if !seen[k] {
				seen[k] = true
				w.grid[k] = append(w.grid[k], ref)
			}
		}
		if s == length {
			break
		}
	}
}

func cellsAround(p math2d.Vec2, margin float64) []cellKey {
	x0 := int(math.Floor((p.X - margin) / cellSize))
	x1 := int(math.Floor((p.X + margin) / cellSize))
	y0 := int(math.Floor((p.Y - margin) / cellSize))
	y1 := int(math.Floor((p.Y + margin) / cellSize))
	keys := make([]cellKey, 0, (x1-x0+1)*(y1-y0+1))
	for x := x0; x <= x1; x++ {
		for y := y0; y <= y1; y++ {
			keys = append(keys, cellKey{x, y})
		}
	}
	return keys
}

// contains reports whether a point lies on the lane surface.
func contains(l lane.Lane, p math2d.Vec2) bool {
	longitudinal, lateral := l.LocalCoordinates(p)
	return longitudinal >= -rayStep && longitudinal <= l.Length()+rayStep &&
		math.Abs(lateral) <= l.Width()/2+1e-9
}

// RayLocalization casts a forward ray from position along heading and
// returns every lane it enters, ordered by entry distance. A vehicle sitting
// on a lane reports that lane at distance zero.
func (w *World) RayLocalization(heading, position math2d.Vec2) []Hit {
	entered := make(map[int]float64)
	for t := 0.0; t <= w.rayLength; t += rayStep {
		p := position.Add(heading.Scale(t))
		for _, ref := range w.grid[cellOf(p)] {
			if _, ok := entered[ref]; ok {
				continue
			}
			if contains(w.lanes[ref].l, p) {
				entered[ref] = t
			}
		}
	}

	hits := make([]Hit, 0, len(entered))
	for ref, t := range entered {
		hits = append(hits, Hit{Lane: w.lanes[ref].l, Index: w.lanes[ref].idx, Distance: t})
	}
	sort.Slice(hits, func(i, j int) bool {
		if hits[i].Distance != hits[j].Distance {
			return hits[i].Distance < hits[j].Distance
		}
		return hits[i].Index.Lane < hits[j].Index.Lane
	})
	return hits
}

func cellOf(p math2d.Vec2) cellKey {
	return cellKey{int(math.Floor(p.X / cellSize)), int(math.Floor(p.Y / cellSize))}
}

// ClosestFraction probes from start along dir and returns the fraction of
// length travelled before leaving all lane surfaces. Returns 1 when the
// whole ray stays on a lane. Used for lateral range measurement.
func (w *World) ClosestFraction(start, dir math2d.Vec2, length float64) float64 {
	for t := 0.0; t <= length; t += rayStep {
		p := start.Add(dir.Scale(t))
		if !w.onAnyLane(p) {
			return t / length
		}
	}
	return 1.0
}

func (w *World) onAnyLane(p math2d.Vec2) bool {
	for _, ref := range w.grid[cellOf(p)] {
		if contains(w.lanes[ref].l, p) {
			return true
		}
	}
	return false
}
