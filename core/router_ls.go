package core

import (
	"log/slog"
	"maps"
	"slices"
	"time"

	"github.com/encodeous/routesim/protocol"
	"github.com/encodeous/routesim/state"
)

// LinkState floods sequence-numbered advertisements of each node's neighbour row and
// recomputes shortest paths over the collected topology whenever it changes.
type LinkState struct {
	engineBase
	seqno  uint64
	graph  state.TopologyGraph
	seqnos state.SequenceTable
	routes map[state.NodeId]state.NodeId
	dist   map[state.NodeId]uint64
}

func NewLinkState(id state.NodeId, heartbeat time.Duration, out Sender, log *slog.Logger) *LinkState {
	l := &LinkState{
		engineBase: newEngineBase(state.LinkStateEngine, id, heartbeat, out, log),
		graph:      make(state.TopologyGraph),
		seqnos:     make(state.SequenceTable),
		routes:     make(map[state.NodeId]state.NodeId),
		dist:       make(map[state.NodeId]uint64),
	}
	l.graph.Row(id)
	return l
}

func (l *LinkState) HandlePacket(port state.PortId, pkt *state.Packet) {
	switch pkt.Kind {
	case state.Data:
		l.forward(pkt)
	case state.Routing:
		l.handleAdvert(port, pkt)
	}
}

func (l *LinkState) forward(pkt *state.Packet) {
	nh, ok := l.routes[pkt.Dst]
	if !ok {
		l.drop(pkt, "no_route")
		return
	}
	link, ok := l.links.Get(nh)
	if !ok {
		l.drop(pkt, "no_link")
		return
	}
	l.send(link.Port, pkt)
}

func (l *LinkState) handleAdvert(port state.PortId, pkt *state.Packet) {
	adv, err := protocol.DecodeLinkStateAdvert(pkt.Content)
	if err != nil {
		l.metrics.received.WithLabelValues(resultMalformed).Inc()
		l.Log(MalformedPacket, "discarding advertisement", "src", pkt.Src, "err", err)
		return
	}
	origin := pkt.Src
	// only we may edit our own row, echoes of our adverts are always stale
	if origin == l.id || !l.seqnos.Fresh(origin, adv.Seqno) {
		l.metrics.received.WithLabelValues(resultStale).Inc()
		l.Log(AdvertStale, "discarding stale advertisement", "origin", origin, "seqno", adv.Seqno, "last", l.seqnos[origin])
		return
	}
	l.metrics.received.WithLabelValues(resultApplied).Inc()
	l.seqnos[origin] = adv.Seqno
	l.graph[origin] = adv.Costs()
	l.Log(AdvertAccepted, "accepted advertisement", "origin", origin, "adv", adv)
	l.recompute()

	// flood the packet as received, except back towards where it came from
	from, known := l.links.Neighbor(port)
	for _, link := range l.links.Links() {
		if known && link.Node == from {
			continue
		}
		l.send(link.Port, pkt)
	}
}

func (l *LinkState) HandleLinkUp(port state.PortId, neighbour state.NodeId, cost uint32) {
	if prev, ok := l.links.Get(neighbour); ok && prev.Port != port {
		l.Log(RouteUpdated, "neighbour moved to a new port", "nh", neighbour, "old", prev.Port, "port", port)
	}
	l.links.Add(port, neighbour, cost)
	l.graph.Row(l.id)[neighbour] = cost
	l.seqno++
	l.flood()
	l.recompute()
}

func (l *LinkState) HandleLinkDown(port state.PortId) {
	link, ok := l.links.Remove(port)
	if !ok {
		l.Log(UnknownPort, "link down on unbound port", "port", port)
		return
	}
	delete(l.graph.Row(l.id), link.Node)
	l.seqno++
	l.flood()
	l.recompute()
}

func (l *LinkState) HandleTime(now time.Duration) {
	if l.heartbeatDue(now) {
		l.seqno++
		l.flood()
	}
}

// flood advertises our own row to every neighbour
func (l *LinkState) flood() {
	row := l.graph.Row(l.id)
	adv := &protocol.LinkStateAdvert{
		Seqno:     l.seqno,
		Neighbors: make([]protocol.Neighbor, 0, len(row)),
	}
	for _, nb := range slices.Sorted(maps.Keys(row)) {
		adv.Neighbors = append(adv.Neighbors, protocol.Neighbor{Id: nb, Cost: row[nb]})
	}
	content := adv.Marshal()
	for _, link := range l.links.Links() {
		l.send(link.Port, &state.Packet{
			Kind:    state.Routing,
			Src:     l.id,
			Dst:     link.Node,
			Content: content,
		})
	}
}

func (l *LinkState) recompute() {
	routes, dist := ShortestPaths(l.id, l.graph)
	if !maps.Equal(routes, l.routes) || !maps.Equal(dist, l.dist) {
		l.metrics.changes.Inc()
	}
	l.routes, l.dist = routes, dist
	dbgPrintRouteTable(l.log, l.Routes())
}

func (l *LinkState) NextHop(dst state.NodeId) (state.NodeId, bool) {
	nh, ok := l.routes[dst]
	return nh, ok
}

// Seqno is the sequence number of our latest advertisement
func (l *LinkState) Seqno() uint64 {
	return l.seqno
}

// LastSeqno returns the last accepted sequence number from origin
func (l *LinkState) LastSeqno(origin state.NodeId) (uint64, bool) {
	s, ok := l.seqnos[origin]
	return s, ok
}

// Topology returns a deep copy of the collected topology
func (l *LinkState) Topology() state.TopologyGraph {
	out := make(state.TopologyGraph, len(l.graph))
	for node, row := range l.graph {
		out[node] = maps.Clone(row)
	}
	return out
}

func (l *LinkState) Routes() []state.Route {
	routes := make([]state.Route, 0, len(l.routes))
	for _, dst := range slices.Sorted(maps.Keys(l.routes)) {
		routes = append(routes, state.Route{Dst: dst, Nh: l.routes[dst], Cost: l.dist[dst]})
	}
	return routes
}
