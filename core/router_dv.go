package core

import (
	"log/slog"
	"maps"
	"slices"
	"time"

	"github.com/encodeous/routesim/protocol"
	"github.com/encodeous/routesim/state"
)

// DistanceVector exchanges full distance vectors with its neighbours and selects
// routes with Bellman-Ford relaxation. The current next hop is always believed,
// including when it reports a worse or infinite cost, so unreachable destinations
// propagate as state.INF instead of lingering.
type DistanceVector struct {
	engineBase
	table state.DVTable
}

func NewDistanceVector(id state.NodeId, heartbeat time.Duration, out Sender, log *slog.Logger) *DistanceVector {
	return &DistanceVector{
		engineBase: newEngineBase(state.DistanceVectorEngine, id, heartbeat, out, log),
		table:      state.NewDVTable(id),
	}
}

func (d *DistanceVector) HandlePacket(port state.PortId, pkt *state.Packet) {
	switch pkt.Kind {
	case state.Data:
		d.forward(pkt)
	case state.Routing:
		d.handleVector(port, pkt)
	}
}

func (d *DistanceVector) forward(pkt *state.Packet) {
	entry, ok := d.table[pkt.Dst]
	if !ok || !entry.Reachable() {
		d.drop(pkt, "no_route")
		return
	}
	d.send(entry.Port, pkt)
}

func (d *DistanceVector) handleVector(port state.PortId, pkt *state.Packet) {
	link, ok := d.links.Get(pkt.Src)
	if !ok {
		d.metrics.received.WithLabelValues(resultUnknownNeighbour).Inc()
		d.Log(UnknownNeighbour, "routing packet from unknown neighbour", "src", pkt.Src, "port", port)
		return
	}
	bundle, err := protocol.DecodeUpdateBundle(pkt.Content)
	if err != nil {
		d.metrics.received.WithLabelValues(resultMalformed).Inc()
		d.Log(MalformedPacket, "discarding routing packet", "src", pkt.Src, "err", err)
		return
	}
	next, changed := d.relax(link, bundle)
	if !changed {
		d.metrics.received.WithLabelValues(resultUnchanged).Inc()
		return
	}
	d.metrics.received.WithLabelValues(resultApplied).Inc()
	d.replace(next)
	d.broadcast()
}

// relax applies a neighbour's vector to a copy of the table
func (d *DistanceVector) relax(link state.NeighborLink, bundle *protocol.UpdateBundle) (state.DVTable, bool) {
	next := maps.Clone(d.table)
	changed := false
	for _, u := range bundle.Updates {
		if u.Dest == d.id {
			continue
		}
		newCost := AddMetric(u.Cost, link.Cost)
		cur, exists := next[u.Dest]

		switch {
		case !exists && newCost >= state.INF:
			// retraction of a route we never had
		case !exists || newCost < cur.Cost:
			event := RouteImproved
			if !exists {
				event = RouteAdded
			}
			next[u.Dest] = state.DVEntry{Cost: newCost, Nh: link.Node, Port: link.Port}
			d.Log(event, "route via neighbour", "dst", u.Dest, "nh", link.Node, "cost", newCost)
			changed = true
		case cur.Nh == link.Node && newCost != cur.Cost:
			if newCost >= state.INF {
				next[u.Dest] = state.Unreachable()
				d.Log(RouteRetracted, "next hop lost its route", "dst", u.Dest, "nh", link.Node)
			} else {
				cur.Cost = newCost
				next[u.Dest] = cur
				d.Log(RouteUpdated, "next hop changed its cost", "dst", u.Dest, "nh", link.Node, "cost", newCost)
			}
			changed = true
		}
	}
	return next, changed
}

func (d *DistanceVector) HandleLinkUp(port state.PortId, neighbour state.NodeId, cost uint32) {
	prev, rebound := d.links.Get(neighbour)
	link := d.links.Add(port, neighbour, cost)

	next := maps.Clone(d.table)
	changed := false
	if rebound && prev.Port != port {
		// the neighbour moved to a new port, keep routes through it usable
		for dst, e := range next {
			if e.Nh == neighbour && e.Port == prev.Port {
				e.Port = port
				next[dst] = e
				changed = true
			}
		}
	}
	cur, ok := next[neighbour]
	if neighbour != d.id && cost < state.INF && (!ok || cost < cur.Cost) {
		next[neighbour] = state.DVEntry{Cost: cost, Nh: neighbour, Port: link.Port}
		d.Log(RouteAdded, "direct route", "dst", neighbour, "port", port, "cost", cost)
		changed = true
	}
	if changed {
		d.replace(next)
		d.broadcast()
	}
}

func (d *DistanceVector) HandleLinkDown(port state.PortId) {
	link, ok := d.links.Remove(port)
	if !ok {
		d.Log(UnknownPort, "link down on unbound port", "port", port)
		return
	}
	next := make(state.DVTable, len(d.table))
	changed := false
	for dst, e := range d.table {
		if dst != d.id && e.Nh == link.Node {
			next[dst] = state.Unreachable()
			d.Log(RouteRetracted, "next hop went down", "dst", dst, "nh", link.Node)
			changed = true
			continue
		}
		next[dst] = e
	}
	if changed {
		d.replace(next)
		d.broadcast()
	}
}

func (d *DistanceVector) HandleTime(now time.Duration) {
	if d.heartbeatDue(now) {
		d.broadcast()
	}
}

func (d *DistanceVector) replace(next state.DVTable) {
	d.table = next
	d.metrics.changes.Inc()
	dbgPrintRouteTable(d.log, d.Routes())
}

// broadcast sends the whole table to every neighbour
func (d *DistanceVector) broadcast() {
	bundle := &protocol.UpdateBundle{Updates: make([]protocol.Update, 0, len(d.table))}
	for _, dst := range slices.Sorted(maps.Keys(d.table)) {
		bundle.Updates = append(bundle.Updates, protocol.Update{Dest: dst, Cost: d.table[dst].Cost})
	}
	content := bundle.Marshal()
	for _, link := range d.links.Links() {
		d.send(link.Port, &state.Packet{
			Kind:    state.Routing,
			Src:     d.id,
			Dst:     link.Node,
			Content: content,
		})
	}
}

func (d *DistanceVector) NextHop(dst state.NodeId) (state.NodeId, bool) {
	e, ok := d.table[dst]
	if !ok || !e.Reachable() {
		return "", false
	}
	return e.Nh, true
}

// Table returns a copy of the routing table
func (d *DistanceVector) Table() state.DVTable {
	return maps.Clone(d.table)
}

func (d *DistanceVector) Routes() []state.Route {
	routes := make([]state.Route, 0, len(d.table))
	for _, dst := range slices.Sorted(maps.Keys(d.table)) {
		e := d.table[dst]
		r := state.Route{Dst: dst, Cost: uint64(e.Cost)}
		if e.Cost < state.INF {
			r.Nh = e.Nh
		}
		routes = append(routes, r)
	}
	return routes
}
