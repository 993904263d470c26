package core

import "github.com/encodeous/routesim/state"

// AddMetric adds two distance-vector costs, saturating at state.INF
func AddMetric(a, b uint32) uint32 {
	return uint32(min(uint64(state.INF), uint64(a)+uint64(b)))
}
