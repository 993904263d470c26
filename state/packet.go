package state

import (
	"fmt"
	"slices"
)

type PacketKind uint8

const (
	// Data packets are traceroute probes forwarded along the routing table
	Data PacketKind = iota
	// Routing packets carry protocol payloads between neighbours
	Routing
)

func (k PacketKind) String() string {
	switch k {
	case Data:
		return "data"
	case Routing:
		return "routing"
	}
	return fmt.Sprintf("kind(%d)", uint8(k))
}

// Packet is the envelope exchanged between nodes. Engines never modify a packet
// they receive; the harness copies packets on every send.
type Packet struct {
	Kind    PacketKind
	Src     NodeId
	Dst     NodeId
	Content []byte
	Trace   []NodeId // nodes visited by a traceroute probe
}

func (p *Packet) Clone() *Packet {
	c := *p
	c.Trace = slices.Clone(p.Trace)
	return &c
}

func (p *Packet) String() string {
	return fmt.Sprintf("%s %s -> %s (%d bytes)", p.Kind, p.Src, p.Dst, len(p.Content))
}
