package protocol

import (
	"fmt"
	"strings"

	"github.com/encodeous/routesim/state"
	"google.golang.org/protobuf/encoding/protowire"
)

// Neighbor is one directly connected neighbour of the advertising node.
//
//	message Neighbor { string id = 1; uint32 cost = 2; }
type Neighbor struct {
	Id   state.NodeId
	Cost uint32
}

// LinkStateAdvert carries the full neighbour row of its origin. The origin itself
// is taken from the packet envelope.
//
//	message LinkStateAdvert { uint64 seqno = 1; repeated Neighbor neighbors = 2; }
type LinkStateAdvert struct {
	Seqno     uint64
	Neighbors []Neighbor
}

const (
	fieldAdvertSeqno     protowire.Number = 1
	fieldAdvertNeighbors protowire.Number = 2

	fieldNeighborId   protowire.Number = 1
	fieldNeighborCost protowire.Number = 2
)

func (m *LinkStateAdvert) Marshal() []byte {
	b := appendVarint(nil, fieldAdvertSeqno, m.Seqno)
	for _, nb := range m.Neighbors {
		var inner []byte
		inner = appendId(inner, fieldNeighborId, string(nb.Id))
		inner = appendVarint(inner, fieldNeighborCost, uint64(nb.Cost))
		b = appendMessage(b, fieldAdvertNeighbors, inner)
	}
	return b
}

// Costs returns the advertised row as a map
func (m *LinkStateAdvert) Costs() map[state.NodeId]uint32 {
	row := make(map[state.NodeId]uint32, len(m.Neighbors))
	for _, nb := range m.Neighbors {
		row[nb.Id] = nb.Cost
	}
	return row
}

func (m *LinkStateAdvert) String() string {
	parts := make([]string, 0, len(m.Neighbors))
	for _, nb := range m.Neighbors {
		parts = append(parts, fmt.Sprintf("%s:%d", nb.Id, nb.Cost))
	}
	return fmt.Sprintf("seqno: %d [%s]", m.Seqno, strings.Join(parts, " "))
}

// DecodeLinkStateAdvert parses an advertisement. The sequence number is required and
// each neighbour may appear at most once.
func DecodeLinkStateAdvert(b []byte) (*LinkStateAdvert, error) {
	out := &LinkStateAdvert{}
	hasSeqno := false
	seen := make(map[state.NodeId]struct{})
	err := walk(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		switch num {
		case fieldAdvertSeqno:
			v, n, err := consumeVarint(num, typ, b)
			out.Seqno = v
			hasSeqno = true
			return n, err
		case fieldAdvertNeighbors:
			raw, n, err := consumeBytes(num, typ, b)
			if err != nil {
				return 0, err
			}
			nb, err := decodeNeighbor(raw)
			if err != nil {
				return 0, err
			}
			if _, ok := seen[nb.Id]; ok {
				return 0, malformed("duplicate neighbour %s", nb.Id)
			}
			seen[nb.Id] = struct{}{}
			out.Neighbors = append(out.Neighbors, nb)
			return n, nil
		}
		return 0, nil
	})
	if err != nil {
		return nil, err
	}
	if !hasSeqno {
		return nil, malformed("advertisement is missing seqno")
	}
	return out, nil
}

func decodeNeighbor(b []byte) (Neighbor, error) {
	nb := Neighbor{}
	hasId, hasCost := false, false
	err := walk(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		switch num {
		case fieldNeighborId:
			v, n, err := consumeId(num, typ, b)
			nb.Id = state.NodeId(v)
			hasId = true
			return n, err
		case fieldNeighborCost:
			v, n, err := consumeCost(num, typ, b)
			nb.Cost = v
			hasCost = true
			return n, err
		}
		return 0, nil
	})
	if err != nil {
		return Neighbor{}, err
	}
	if !hasId || !hasCost {
		return Neighbor{}, malformed("neighbour is missing id or cost")
	}
	return nb, nil
}
