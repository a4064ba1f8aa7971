package mapgen

import (
	"fmt"
	"math"
	"math/rand"

	"github.com/drivesim/drivesim/pkg/lane"
	"github.com/drivesim/drivesim/pkg/math2d"
	"github.com/drivesim/drivesim/pkg/roadnet"
)

// Parameter ranges for procedural blocks. Curve limits also bound the
// normalization of curvature features downstream.
const (
	CurveRadiusMin = 25.0
	CurveRadiusMax = 60.0
	CurveAngleMin  = 45.0
	CurveAngleMax  = 135.0

	StraightLengthMin = 40.0
	StraightLengthMax = 80.0

	firstBlockPreLength  = 20.0
	firstBlockExitLength = 60.0
)

// Config controls map generation.
type Config struct {
	LaneWidth float64
	LaneNum   int
	BlockNum  int
	Seed      int64
}

// DefaultConfig returns a two-lane map of five blocks.
func DefaultConfig() Config {
	return Config{LaneWidth: 3.5, LaneNum: 2, BlockNum: 5}
}

// Map is a generated road layout: the network plus the ordered blocks it
// was built from. Read-only after generation.
type Map struct {
	Network *roadnet.Network
	Blocks  []*Block
	Config  Config
}

// SpawnNode is the entry node of the first block.
func (m *Map) SpawnNode() string {
	return node(0, 0)
}

// SpawnRoad is the short entry road vehicles are born on.
func (m *Map) SpawnRoad() roadnet.Road {
	return roadnet.NewRoad(node(0, 0), node(0, 1))
}

func (m *Map) FirstBlock() *Block {
	return m.Blocks[0]
}

func (m *Map) LastBlock() *Block {
	return m.Blocks[len(m.Blocks)-1]
}

// cursor tracks where the next block attaches: the start of its outermost
// lane and the travel direction there.
type cursor struct {
	pos     math2d.Vec2
	heading float64
	node    string
}

// Generate builds a map of cfg.BlockNum blocks: a fixed first block followed
// by a random chain of straights and curves. The same seed always yields the
// same map.
func Generate(cfg Config) (*Map, error) {
	if cfg.LaneNum < 1 {
		return nil, fmt.Errorf("mapgen: lane num must be positive, got %d", cfg.LaneNum)
	}
	if cfg.BlockNum < 2 {
		return nil, fmt.Errorf("mapgen: need at least 2 blocks, got %d", cfg.BlockNum)
	}

	rng := rand.New(rand.NewSource(cfg.Seed))
	m := &Map{Network: roadnet.NewNetwork(), Config: cfg}

	cur := m.buildFirstBlock(cfg)
	for i := 1; i < cfg.BlockNum; i++ {
		if rng.Intn(2) == 0 {
			cur = m.buildStraight(i, cur, rng)
		} else {
			cur = m.buildCurve(i, cur, rng)
		}
	}
	return m, nil
}

func (m *Map) buildFirstBlock(cfg Config) cursor {
	b := &Block{Kind: KindFirst, Index: 0}
	cur := cursor{pos: math2d.Vec2{}, heading: 0, node: node(0, 0)}

	cur = m.addStraightRoad(cur, node(0, 1), firstBlockPreLength)
	exitStart := cur
	cur = m.addStraightRoad(cur, node(0, 2), firstBlockExitLength)

	exit := roadnet.NewRoad(exitStart.node, cur.node)
	b.addSocket(Socket{PositiveRoad: exit, NegativeRoad: exit.Negative()})
	m.Blocks = append(m.Blocks, b)
	return cur
}

func (m *Map) buildStraight(idx int, cur cursor, rng *rand.Rand) cursor {
	b := &Block{Kind: KindStraight, Index: idx}
	length := StraightLengthMin + rng.Float64()*(StraightLengthMax-StraightLengthMin)

	from := cur.node
	cur = m.addStraightRoad(cur, node(idx, 0), length)

	road := roadnet.NewRoad(from, cur.node)
	b.addSocket(Socket{PositiveRoad: road, NegativeRoad: road.Negative()})
	m.Blocks = append(m.Blocks, b)
	return cur
}

func (m *Map) buildCurve(idx int, cur cursor, rng *rand.Rand) cursor {
	b := &Block{Kind: KindCurve, Index: idx}
	radius := CurveRadiusMin + rng.Float64()*(CurveRadiusMax-CurveRadiusMin)
	angle := (CurveAngleMin + rng.Float64()*(CurveAngleMax-CurveAngleMin)) * math.Pi / 180
	dir := lane.TurnLeft
	if rng.Intn(2) == 0 {
		dir = lane.TurnRight
	}

	from := cur.node
	cur = m.addCurveRoad(cur, node(idx, 0), radius, angle, dir)

	road := roadnet.NewRoad(from, cur.node)
	b.addSocket(Socket{PositiveRoad: road, NegativeRoad: road.Negative()})
	m.Blocks = append(m.Blocks, b)
	return cur
}

// addStraightRoad lays the positive lanes of a straight road plus the
// mirrored negative road, then advances the cursor.
func (m *Map) addStraightRoad(cur cursor, to string, length float64) cursor {
	w := m.Config.LaneWidth
	dir := math2d.Heading(cur.heading)
	lat := math2d.Heading(cur.heading + math.Pi/2)

	for i := 0; i < m.Config.LaneNum; i++ {
		start := cur.pos.Add(lat.Scale(float64(i) * w))
		m.Network.AddLane(cur.node, to, lane.NewStraightLane(start, start.Add(dir.Scale(length)), w))
	}

	neg := roadnet.NewRoad(cur.node, to).Negative()
	for j := 0; j < m.Config.LaneNum; j++ {
		offset := lat.Scale(-float64(j+1) * w)
		start := cur.pos.Add(dir.Scale(length)).Add(offset)
		m.Network.AddLane(neg.Start, neg.End, lane.NewStraightLane(start, cur.pos.Add(offset), w))
	}

	return cursor{pos: cur.pos.Add(dir.Scale(length)), heading: cur.heading, node: to}
}

// addCurveRoad lays a circular road turning by angle radians in the given
// sense, plus its negative counterpart.
func (m *Map) addCurveRoad(cur cursor, to string, radius, angle float64, dir int) cursor {
	w := m.Config.LaneWidth
	fdir := float64(dir)

	center := cur.pos.Add(math2d.Heading(cur.heading + fdir*math.Pi/2).Scale(radius))
	startPhase := cur.heading - fdir*math.Pi/2
	endPhase := startPhase + fdir*angle

	for i := 0; i < m.Config.LaneNum; i++ {
		r := radius - fdir*float64(i)*w
		m.Network.AddLane(cur.node, to, lane.NewCircularLane(center, r, startPhase, endPhase, dir, w))
	}

	neg := roadnet.NewRoad(cur.node, to).Negative()
	for j := 0; j < m.Config.LaneNum; j++ {
		r := radius + fdir*float64(j+1)*w
		m.Network.AddLane(neg.Start, neg.End, lane.NewCircularLane(center, r, endPhase, startPhase, -dir, w))
	}

	endPos := center.Add(math2d.Heading(endPhase).Scale(radius))
	return cursor{pos: endPos, heading: math2d.WrapToPi(cur.heading + fdir*angle), node: to}
}
