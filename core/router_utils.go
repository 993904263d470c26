package core

import (
	"fmt"
	"log/slog"

	"github.com/encodeous/routesim/state"
)

func dbgPrintRouteTable(log *slog.Logger, routes []state.Route) {
	if !state.DBG_log_route_table {
		return
	}
	if len(routes) != 0 {
		log.Debug("--- route table ---")
	}
	for _, r := range routes {
		log.Debug(fmt.Sprintf("%s -> %s", r.Dst, r.Nh), "cost", r.Cost)
	}
}
