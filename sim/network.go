// Package sim is a single goroutine discrete-event network that drives routing
// engines with link events, timer ticks and packet deliveries in virtual time.
package sim

import (
	"fmt"
	"log/slog"
	"maps"
	"slices"
	"strconv"
	"time"

	"github.com/encodeous/routesim/core"
	"github.com/encodeous/routesim/state"
)

// VirtualLink is a bidirectional link between two nodes. Each end has its own port.
type VirtualLink struct {
	Edge    state.Pair[state.NodeId, state.NodeId]
	Ports   state.Pair[state.PortId, state.PortId]
	Cost    uint32
	Latency time.Duration
	up      bool
}

func (v *VirtualLink) Up() bool {
	return v.up
}

// peer returns the other end of the link as seen from node
func (v *VirtualLink) peer(node state.NodeId) (state.NodeId, state.PortId) {
	if v.Edge.V1 == node {
		return v.Edge.V2, v.Ports.V2
	}
	return v.Edge.V1, v.Ports.V1
}

func (v *VirtualLink) String() string {
	return fmt.Sprintf("%s:%d <-> %s:%d (cost: %d, latency: %s)", v.Edge.V1, v.Ports.V1, v.Edge.V2, v.Ports.V2, v.Cost, v.Latency)
}

// Node is a simulated router. It is the Sender handed to its engine.
type Node struct {
	Id       state.NodeId
	Engine   core.Engine
	net      *Network
	ports    map[state.PortId]*VirtualLink
	nextPort state.PortId
}

func (n *Node) Send(port state.PortId, pkt *state.Packet) {
	link, ok := n.ports[port]
	if !ok || !link.up {
		n.net.log.Debug("send on dead port", "node", n.Id, "port", port, "pkt", pkt)
		return
	}
	to, toPort := link.peer(n.Id)
	cpy := pkt.Clone()
	n.net.ScheduleTask(func() {
		// packets in flight on a link that went down are lost
		if !link.up {
			return
		}
		n.net.deliver(n.net.nodes[to], toPort, cpy)
	}, n.net.now+link.Latency)
}

func (n *Node) allocPort() state.PortId {
	n.nextPort++
	return n.nextPort
}

// Probe is the outcome of a traceroute
type Probe struct {
	Src         state.NodeId   `yaml:"src"`
	Dst         state.NodeId   `yaml:"dst"`
	SentAt      state.Duration `yaml:"sent_at"`
	Trace       []state.NodeId `yaml:"trace"`
	Delivered   bool           `yaml:"delivered"`
	DeliveredAt state.Duration `yaml:"delivered_at,omitempty"`
}

func (p *Probe) String() string {
	status := "lost"
	if p.Delivered {
		status = fmt.Sprintf("delivered in %s", p.DeliveredAt.Std()-p.SentAt.Std())
	}
	return fmt.Sprintf("%s -> %s %v %s", p.Src, p.Dst, p.Trace, status)
}

// Network owns the clock, the event queue and every node and link.
type Network struct {
	Engine    state.EngineKind
	Heartbeat time.Duration

	now    time.Duration
	seq    uint64
	queue  eventQueue
	nodes  map[state.NodeId]*Node
	links  map[state.Pair[state.NodeId, state.NodeId]]*VirtualLink
	probes []*Probe
	log    *slog.Logger
}

// NewNetwork creates an empty network that ticks every node each tick interval
func NewNetwork(engine state.EngineKind, heartbeat, tick time.Duration, log *slog.Logger) (*Network, error) {
	if err := state.EngineValidator(engine); err != nil {
		return nil, err
	}
	if tick <= 0 {
		return nil, fmt.Errorf("tick interval must be positive, got %s", tick)
	}
	if log == nil {
		log = slog.Default()
	}
	n := &Network{
		Engine:    engine,
		Heartbeat: heartbeat,
		nodes:     make(map[state.NodeId]*Node),
		links:     make(map[state.Pair[state.NodeId, state.NodeId]]*VirtualLink),
		log:       log,
	}
	n.RepeatTask(n.tick, tick)
	return n, nil
}

func (n *Network) tick() {
	for _, id := range n.NodeIds() {
		n.nodes[id].Engine.HandleTime(n.now)
	}
}

func (n *Network) AddNode(id state.NodeId) (*Node, error) {
	if err := state.NameValidator(string(id)); err != nil {
		return nil, err
	}
	if _, ok := n.nodes[id]; ok {
		return nil, fmt.Errorf("node %s already exists", id)
	}
	node := &Node{
		Id:    id,
		net:   n,
		ports: make(map[state.PortId]*VirtualLink),
	}
	engine, err := core.NewEngine(n.Engine, id, n.Heartbeat, node, n.log)
	if err != nil {
		return nil, err
	}
	node.Engine = engine
	n.nodes[id] = node
	return node, nil
}

func (n *Network) Node(id state.NodeId) (*Node, bool) {
	node, ok := n.nodes[id]
	return node, ok
}

// NodeIds returns every node id in sorted order
func (n *Network) NodeIds() []state.NodeId {
	return slices.Sorted(maps.Keys(n.nodes))
}

// Links returns the live links ordered by endpoints
func (n *Network) Links() []*VirtualLink {
	keys := slices.Collect(maps.Keys(n.links))
	state.SortPairs(keys)
	out := make([]*VirtualLink, 0, len(keys))
	for _, k := range keys {
		out = append(out, n.links[k])
	}
	return out
}

// AddLink connects a and b now. Both engines see the link come up at the current time.
func (n *Network) AddLink(a, b state.NodeId, cost uint32, latency time.Duration) (*VirtualLink, error) {
	na, ok := n.nodes[a]
	if !ok {
		return nil, fmt.Errorf("node %s is not defined", a)
	}
	nb, ok := n.nodes[b]
	if !ok {
		return nil, fmt.Errorf("node %s is not defined", b)
	}
	if a == b {
		return nil, fmt.Errorf("node %s cannot link to itself", a)
	}
	if cost == 0 {
		return nil, fmt.Errorf("link %s-%s must have a positive cost", a, b)
	}
	key := state.MakeSortedPair(a, b)
	if _, ok := n.links[key]; ok {
		return nil, fmt.Errorf("link %s-%s already exists", a, b)
	}
	link := &VirtualLink{
		Edge:    state.Pair[state.NodeId, state.NodeId]{V1: a, V2: b},
		Ports:   state.Pair[state.PortId, state.PortId]{V1: na.allocPort(), V2: nb.allocPort()},
		Cost:    cost,
		Latency: latency,
		up:      true,
	}
	n.links[key] = link
	na.ports[link.Ports.V1] = link
	nb.ports[link.Ports.V2] = link
	n.log.Debug("link up", "link", link)

	n.ScheduleTask(func() {
		na.Engine.HandleLinkUp(link.Ports.V1, b, cost)
	}, n.now)
	n.ScheduleTask(func() {
		nb.Engine.HandleLinkUp(link.Ports.V2, a, cost)
	}, n.now)
	return link, nil
}

// RemoveLink tears down the link between a and b. Packets still in flight on it are dropped.
func (n *Network) RemoveLink(a, b state.NodeId) error {
	key := state.MakeSortedPair(a, b)
	link, ok := n.links[key]
	if !ok {
		return fmt.Errorf("link %s-%s does not exist", a, b)
	}
	link.up = false
	delete(n.links, key)
	na, nb := n.nodes[link.Edge.V1], n.nodes[link.Edge.V2]
	delete(na.ports, link.Ports.V1)
	delete(nb.ports, link.Ports.V2)
	n.log.Debug("link down", "link", link)

	n.ScheduleTask(func() {
		na.Engine.HandleLinkDown(link.Ports.V1)
	}, n.now)
	n.ScheduleTask(func() {
		nb.Engine.HandleLinkDown(link.Ports.V2)
	}, n.now)
	return nil
}

func (n *Network) deliver(to *Node, port state.PortId, pkt *state.Packet) {
	if pkt.Kind == state.Data {
		n.arrive(to, port, pkt)
		return
	}
	to.Engine.HandlePacket(port, pkt)
}

// arrive records a probe visiting a node and hands it on unless it has reached its end
func (n *Network) arrive(to *Node, port state.PortId, pkt *state.Packet) {
	pkt.Trace = append(pkt.Trace, to.Id)
	probe := n.probeOf(pkt)
	if probe != nil {
		probe.Trace = slices.Clone(pkt.Trace)
	}
	if state.DBG_log_probe {
		n.log.Debug("probe hop", "node", to.Id, "src", pkt.Src, "dst", pkt.Dst, "trace", pkt.Trace)
	}
	if pkt.Dst == to.Id {
		if probe != nil {
			probe.Delivered = true
			probe.DeliveredAt = state.Duration(n.now)
		}
		return
	}
	if len(pkt.Trace) > state.ProbeHopLimit {
		n.log.Warn("dropping looping probe", "src", pkt.Src, "dst", pkt.Dst, "hops", len(pkt.Trace))
		return
	}
	to.Engine.HandlePacket(port, pkt)
}

// probeOf finds the probe a data packet belongs to, probes carry their index as content
func (n *Network) probeOf(pkt *state.Packet) *Probe {
	idx, err := strconv.Atoi(string(pkt.Content))
	if err != nil || idx < 0 || idx >= len(n.probes) {
		return nil
	}
	return n.probes[idx]
}

// Traceroute injects a probe at src addressed to dst. The returned Probe is updated
// as the simulation runs.
func (n *Network) Traceroute(src, dst state.NodeId) (*Probe, error) {
	from, ok := n.nodes[src]
	if !ok {
		return nil, fmt.Errorf("node %s is not defined", src)
	}
	if _, ok := n.nodes[dst]; !ok {
		return nil, fmt.Errorf("node %s is not defined", dst)
	}
	probe := &Probe{Src: src, Dst: dst, SentAt: state.Duration(n.now)}
	pkt := &state.Packet{
		Kind:    state.Data,
		Src:     src,
		Dst:     dst,
		Content: []byte(strconv.Itoa(len(n.probes))),
	}
	n.probes = append(n.probes, probe)
	n.arrive(from, state.NoPort, pkt)
	return probe, nil
}

// Probes returns every probe sent so far in the order they were sent
func (n *Network) Probes() []*Probe {
	return slices.Clone(n.probes)
}

// Routes returns every node's forwarding table
func (n *Network) Routes() map[state.NodeId][]state.Route {
	out := make(map[state.NodeId][]state.Route, len(n.nodes))
	for id, node := range n.nodes {
		out[id] = node.Engine.Routes()
	}
	return out
}
