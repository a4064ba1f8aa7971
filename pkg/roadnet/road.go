package roadnet

import (
	"strings"

	"github.com/drivesim/drivesim/pkg/lane"
)

// NegativePrefix marks a node that belongs to the reverse direction of a road.
const NegativePrefix = "-"

// Road is a directed edge of the network. A road and its reverse are
// distinct entities; the reverse uses negated node identifiers.
type Road struct {
	Start string
	End   string
}

func NewRoad(start, end string) Road {
	return Road{Start: start, End: end}
}

// IsNegative reports whether this road runs against the network's
// construction direction.
func (r Road) IsNegative() bool {
	return strings.HasPrefix(r.Start, NegativePrefix)
}

// Negative returns the reverse-direction counterpart of the road.
func (r Road) Negative() Road {
	return Road{Start: negateNode(r.End), End: negateNode(r.Start)}
}

// Lanes returns the parallel lanes carried by this road, outermost first.
func (r Road) Lanes(n *Network) []lane.Lane {
	ends, ok := n.Graph[r.Start]
	if !ok {
		return nil
	}
	return ends[r.End]
}

func negateNode(node string) string {
	if strings.HasPrefix(node, NegativePrefix) {
		return strings.TrimPrefix(node, NegativePrefix)
	}
	return NegativePrefix + node
}
