package core

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/encodeous/routesim/state"
)

type RouterEvent int

// trace events

const (
	RouteImproved RouterEvent = iota
	RouteRetracted
	RouteAdded
	RouteUpdated
	AdvertAccepted
	AdvertStale
	PacketDropped
)

// warn events

const (
	MalformedPacket RouterEvent = iota + 1000
	UnknownNeighbour
	UnknownPort
)

func (e RouterEvent) String() string {
	switch e {
	case RouteImproved:
		return "route_improved"
	case RouteRetracted:
		return "route_retracted"
	case RouteAdded:
		return "route_added"
	case RouteUpdated:
		return "route_updated"
	case AdvertAccepted:
		return "advert_accepted"
	case AdvertStale:
		return "advert_stale"
	case PacketDropped:
		return "packet_dropped"
	case MalformedPacket:
		return "malformed_packet"
	case UnknownNeighbour:
		return "unknown_neighbour"
	case UnknownPort:
		return "unknown_port"
	}
	return fmt.Sprintf("event(%d)", int(e))
}

// Sender hands a packet to whatever is attached to port. It is the only way an
// engine emits packets.
type Sender interface {
	Send(port state.PortId, pkt *state.Packet)
}

// Engine is a routing protocol instance for a single node. The caller must deliver
// one event at a time; engines are not safe for concurrent use.
type Engine interface {
	Id() state.NodeId
	Kind() state.EngineKind

	HandleLinkUp(port state.PortId, neighbour state.NodeId, cost uint32)
	HandleLinkDown(port state.PortId)
	// HandleTime is called periodically with the current virtual time
	HandleTime(now time.Duration)
	HandlePacket(port state.PortId, pkt *state.Packet)

	// NextHop returns the neighbour used to reach dst
	NextHop(dst state.NodeId) (state.NodeId, bool)
	// Routes returns the forwarding table ordered by destination
	Routes() []state.Route
}

// NewEngine creates the engine selected by kind
func NewEngine(kind state.EngineKind, id state.NodeId, heartbeat time.Duration, out Sender, log *slog.Logger) (Engine, error) {
	switch kind {
	case state.DistanceVectorEngine:
		return NewDistanceVector(id, heartbeat, out, log), nil
	case state.LinkStateEngine:
		return NewLinkState(id, heartbeat, out, log), nil
	}
	return nil, state.EngineValidator(kind)
}

// engineBase holds what both engines share: identity, neighbours, heartbeat and output.
type engineBase struct {
	id            state.NodeId
	kind          state.EngineKind
	heartbeat     time.Duration
	lastBroadcast time.Duration
	links         *state.LinkTable
	out           Sender
	log           *slog.Logger
	metrics       *engineMetrics
}

func newEngineBase(kind state.EngineKind, id state.NodeId, heartbeat time.Duration, out Sender, log *slog.Logger) engineBase {
	if log == nil {
		log = slog.Default()
	}
	return engineBase{
		id:        id,
		kind:      kind,
		heartbeat: heartbeat,
		links:     state.NewLinkTable(),
		out:       out,
		log:       log.With("node", string(id), "engine", string(kind)),
		metrics:   newEngineMetrics(id, kind),
	}
}

func (e *engineBase) Id() state.NodeId {
	return e.id
}

func (e *engineBase) Kind() state.EngineKind {
	return e.kind
}

// Links returns the directly connected neighbours ordered by port
func (e *engineBase) Links() []state.NeighborLink {
	return e.links.Links()
}

func (e *engineBase) Log(event RouterEvent, desc string, args ...any) {
	args = append([]any{"event", event.String()}, args...)
	if event >= MalformedPacket {
		e.log.Warn(desc, args...)
		return
	}
	if state.DBG_log_router {
		e.log.Debug(desc, args...)
	}
}

// heartbeatDue reports whether a periodic broadcast is due, and if so restarts the timer
func (e *engineBase) heartbeatDue(now time.Duration) bool {
	if now-e.lastBroadcast < e.heartbeat {
		return false
	}
	e.lastBroadcast = now
	return true
}

func (e *engineBase) send(port state.PortId, pkt *state.Packet) {
	if pkt.Kind == state.Data {
		e.metrics.forwarded.Inc()
	} else {
		e.metrics.control.Inc()
	}
	e.out.Send(port, pkt)
}

func (e *engineBase) drop(pkt *state.Packet, reason string) {
	e.metrics.dropped.WithLabelValues(reason).Inc()
	e.Log(PacketDropped, "dropping packet", "pkt", pkt, "reason", reason)
}
