package state

import "time"

const (
	// INF is the distance-vector cost that means "unreachable". It is kept small so
	// that count-to-infinity terminates quickly.
	INF = uint32(16)
)

var (
	HeartbeatInterval = time.Second * 1
	TickInterval      = time.Millisecond * 100
	DefaultLinkCost   = uint32(1)
	DefaultLatency    = time.Millisecond * 10
	RunDuration       = time.Second * 30

	// ProbeHopLimit bounds the number of hops a traceroute probe may take before the
	// harness drops it as looping.
	ProbeHopLimit = 64
)

// debug toggles, set from the command line
var (
	DBG_log_router      = false
	DBG_log_route_table = false
	DBG_log_probe       = false
)
