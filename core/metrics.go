package core

import (
	"github.com/encodeous/routesim/state"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	packetsForwarded = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "routesim_packets_forwarded_total",
		Help: "data packets forwarded towards their destination",
	}, []string{"node", "engine"})
	packetsDropped = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "routesim_packets_dropped_total",
		Help: "data packets dropped by the forwarding path",
	}, []string{"node", "engine", "reason"})
	controlSent = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "routesim_control_packets_sent_total",
		Help: "routing protocol packets handed to the network",
	}, []string{"node", "engine"})
	controlReceived = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "routesim_control_packets_received_total",
		Help: "routing protocol packets received, by outcome",
	}, []string{"node", "engine", "result"})
	routeChanges = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "routesim_route_changes_total",
		Help: "forwarding table rebuilds that changed at least one entry",
	}, []string{"node", "engine"})
)

// receive outcomes
const (
	resultApplied          = "applied"
	resultUnchanged        = "unchanged"
	resultStale            = "stale"
	resultMalformed        = "malformed"
	resultUnknownNeighbour = "unknown_neighbour"
)

type engineMetrics struct {
	forwarded prometheus.Counter
	control   prometheus.Counter
	changes   prometheus.Counter
	dropped   *prometheus.CounterVec
	received  *prometheus.CounterVec
}

func newEngineMetrics(id state.NodeId, kind state.EngineKind) *engineMetrics {
	labels := prometheus.Labels{"node": string(id), "engine": string(kind)}
	return &engineMetrics{
		forwarded: packetsForwarded.With(labels),
		control:   controlSent.With(labels),
		changes:   routeChanges.With(labels),
		dropped:   packetsDropped.MustCurryWith(labels),
		received:  controlReceived.MustCurryWith(labels),
	}
}
