package mapgen

import (
	"fmt"
	"strings"

	"github.com/drivesim/drivesim/pkg/roadnet"
)

// Block kinds emitted by the generator. Merge and Split are reserved for
// hand-built maps; the generator currently chains straights and curves.
const (
	KindFirst    = "I"
	KindStraight = "S"
	KindCurve    = "C"
	KindMerge    = "y"
	KindSplit    = "Y"
)

// Socket is a branch point a later block (or a route destination) can attach
// to. It exposes the positive road of the block's exit and its reverse.
type Socket struct {
	PositiveRoad roadnet.Road
	NegativeRoad roadnet.Road
}

// IsSocketNode reports whether node belongs to either road of the socket.
func (s Socket) IsSocketNode(node string) bool {
	return s.PositiveRoad.Start == node || s.PositiveRoad.End == node ||
		s.NegativeRoad.Start == node || s.NegativeRoad.End == node
}

// Block is one generated piece of the map. Its sockets are where routes can
// terminate and further blocks attach.
type Block struct {
	Kind    string
	Index   int
	sockets []Socket
}

// NewBlock builds a block with explicit sockets, for hand-built maps.
func NewBlock(kind string, index int, sockets ...Socket) *Block {
	return &Block{Kind: kind, Index: index, sockets: sockets}
}

// ID identifies the block within the map, e.g. "C3".
func (b *Block) ID() string {
	return fmt.Sprintf("%s%d", b.Kind, b.Index)
}

func (b *Block) addSocket(s Socket) {
	b.sockets = append(b.sockets, s)
}

// Socket returns the i-th socket of the block.
func (b *Block) Socket(i int) Socket {
	return b.sockets[i]
}

// SocketList returns a copy of the block's sockets so callers can shrink
// their candidate pool without mutating the block.
func (b *Block) SocketList() []Socket {
	out := make([]Socket, len(b.sockets))
	copy(out, b.sockets)
	return out
}

// node names the i-th junction created by block blockIdx.
func node(blockIdx, i int) string {
	return fmt.Sprintf("B%d_%d", blockIdx, i)
}

// BlockOf returns the block that created a road, or nil for roads the
// generator does not know about. Negative roads resolve to the same block
// as their positive counterpart.
func (m *Map) BlockOf(r roadnet.Road) *Block {
	name := strings.TrimPrefix(r.End, roadnet.NegativePrefix)
	var idx, sub int
	if _, err := fmt.Sscanf(name, "B%d_%d", &idx, &sub); err != nil {
		return nil
	}
	if idx < 0 || idx >= len(m.Blocks) {
		return nil
	}
	return m.Blocks[idx]
}
