package roadnet

import (
	"container/heap"
	"fmt"
	"math"

	"github.com/drivesim/drivesim/pkg/lane"
	"github.com/drivesim/drivesim/pkg/math2d"
)

// ErrNoPath is returned when no route connects two nodes.
var ErrNoPath = fmt.Errorf("roadnet: no path")

// Network is the directed road graph. Graph[from][to] holds the parallel
// lanes of the road (from, to). It is read-only after map generation and
// safe to share across vehicles.
type Network struct {
	Graph map[string]map[string][]lane.Lane
}

func NewNetwork() *Network {
	return &Network{Graph: make(map[string]map[string][]lane.Lane)}
}

// AddLane appends a lane to the road (from, to), creating the road if needed.
func (n *Network) AddLane(from, to string, l lane.Lane) {
	ends, ok := n.Graph[from]
	if !ok {
		ends = make(map[string][]lane.Lane)
		n.Graph[from] = ends
	}
	ends[to] = append(ends[to], l)
}

// GetLane resolves a lane index to its lane geometry.
func (n *Network) GetLane(idx lane.Index) (lane.Lane, error) {
	lanes := NewRoad(idx.From, idx.To).Lanes(n)
	if idx.Lane < 0 || idx.Lane >= len(lanes) {
		return nil, fmt.Errorf("roadnet: no lane %d on road %s -> %s", idx.Lane, idx.From, idx.To)
	}
	return lanes[idx.Lane], nil
}

// ShortestPath returns the node sequence of the shortest route from start
// to end, weighted by lane length. Wraps ErrNoPath when end is unreachable.
func (n *Network) ShortestPath(start, end string) ([]string, error) {
	dist := map[string]float64{start: 0}
	cameFrom := make(map[string]string)
	closed := make(map[string]bool)

	pq := &priorityQueue{}
	heap.Init(pq)
	heap.Push(pq, &pqItem{node: start})

	for pq.Len() > 0 {
		item := heap.Pop(pq).(*pqItem)
		current := item.node
		if current == end {
			return reconstructPath(cameFrom, current), nil
		}
		if closed[current] {
			continue
		}
		closed[current] = true

		for next, lanes := range n.Graph[current] {
			if len(lanes) == 0 {
				continue
			}
			tentative := dist[current] + lanes[0].Length()
			if old, ok := dist[next]; !ok || tentative < old {
				cameFrom[next] = current
				dist[next] = tentative
				heap.Push(pq, &pqItem{node: next, priority: tentative})
			}
		}
	}
	return nil, fmt.Errorf("%w from %s to %s", ErrNoPath, start, end)
}

func reconstructPath(cameFrom map[string]string, current string) []string {
	var path []string
	for {
		path = append([]string{current}, path...)
		prev, ok := cameFrom[current]
		if !ok {
			break
		}
		current = prev
	}
	return path
}

// ClosestLaneIndex scans every lane in the graph and returns the index of
// the one nearest to position, together with the distance to its centerline.
// This is the expensive recovery path used when ray localization fails.
func (n *Network) ClosestLaneIndex(position math2d.Vec2) (lane.Index, float64) {
	best := lane.Index{Lane: -1}
	bestDist := math.Inf(1)
	for from, ends := range n.Graph {
		for to, lanes := range ends {
			for i, l := range lanes {
				longitudinal, _ := l.LocalCoordinates(position)
				longitudinal = math2d.Clip(longitudinal, 0, l.Length())
				d := l.Position(longitudinal, 0).Sub(position).Norm()
				if d < bestDist {
					bestDist = d
					best = lane.Index{From: from, To: to, Lane: i}
				}
			}
		}
	}
	return best, bestDist
}

type pqItem struct {
	node     string
	priority float64
}

type priorityQueue []*pqItem

func (pq priorityQueue) Len() int           { return len(pq) }
func (pq priorityQueue) Less(i, j int) bool { return pq[i].priority < pq[j].priority }
func (pq priorityQueue) Swap(i, j int)      { pq[i], pq[j] = pq[j], pq[i] }

func (pq *priorityQueue) Push(x interface{}) {
	*pq = append(*pq, x.(*pqItem))
}

func (pq *priorityQueue) Pop() interface{} {
	old := *pq
	item := old[len(old)-1]
	*pq = old[:len(old)-1]
	return item
}
