package state

import (
	"fmt"
	"maps"
	"slices"
	"strings"
)

type NodeId string

// PortId is the local identifier of a link endpoint on a node.
type PortId int

// NoPort marks a route without an egress.
const NoPort = PortId(-1)

// DVEntry is a selected distance-vector route. Entries with Cost >= INF carry no
// next hop and no egress.
type DVEntry struct {
	Cost uint32
	Nh   NodeId // next hop node
	Port PortId // egress towards Nh
}

func (e DVEntry) Reachable() bool {
	return e.Cost < INF && e.Port != NoPort
}

func (e DVEntry) String() string {
	if e.Cost >= INF {
		return "unreachable"
	}
	return fmt.Sprintf("(nh: %s, port: %d, cost: %d)", e.Nh, e.Port, e.Cost)
}

// Unreachable is the poisoned form of an entry.
func Unreachable() DVEntry {
	return DVEntry{Cost: INF, Port: NoPort}
}

type DVTable map[NodeId]DVEntry

func NewDVTable(self NodeId) DVTable {
	return DVTable{
		self: {Cost: 0, Nh: self, Port: NoPort},
	}
}

func (t DVTable) String() string {
	sb := strings.Builder{}
	for _, dst := range slices.Sorted(maps.Keys(t)) {
		sb.WriteString(fmt.Sprintf("%s via %s\n", dst, t[dst]))
	}
	return strings.TrimSuffix(sb.String(), "\n")
}

// TopologyGraph is a node's view of the network: origin -> neighbour -> cost
type TopologyGraph map[NodeId]map[NodeId]uint32

// Row returns the row for node, creating it if needed
func (g TopologyGraph) Row(node NodeId) map[NodeId]uint32 {
	row, ok := g[node]
	if !ok {
		row = make(map[NodeId]uint32)
		g[node] = row
	}
	return row
}

// SequenceTable holds the last accepted sequence number per origin
type SequenceTable map[NodeId]uint64

// Fresh reports whether seqno from origin is strictly newer than what was accepted before.
func (s SequenceTable) Fresh(origin NodeId, seqno uint64) bool {
	last, ok := s[origin]
	return !ok || seqno > last
}

// Route is a read-only view of one forwarding table row, common to both engines.
type Route struct {
	Dst  NodeId `yaml:"dst"`
	Nh   NodeId `yaml:"nh,omitempty"`
	Cost uint64 `yaml:"cost"`
}

func (r Route) String() string {
	if r.Nh == "" {
		return fmt.Sprintf("%s unreachable", r.Dst)
	}
	return fmt.Sprintf("%s via %s (cost: %d)", r.Dst, r.Nh, r.Cost)
}
