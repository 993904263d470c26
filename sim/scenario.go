package sim

import (
	"fmt"
	"log/slog"

	"github.com/encodeous/routesim/state"
)

// LoadScenario expands and validates cfg, then builds a network with every node,
// initial link, timed link event and probe scheduled. Run it for cfg.Duration.
func LoadScenario(cfg *state.Scenario, log *slog.Logger) (*Network, error) {
	if log == nil {
		log = slog.Default()
	}
	if err := state.ExpandScenario(cfg); err != nil {
		return nil, fmt.Errorf("failed to expand scenario: %w", err)
	}
	if err := state.ScenarioValidator(cfg); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	n, err := NewNetwork(cfg.Engine, cfg.Heartbeat.Std(), cfg.Tick.Std(), log)
	if err != nil {
		return nil, err
	}
	for _, id := range cfg.Nodes {
		if _, err := n.AddNode(id); err != nil {
			return nil, err
		}
	}
	for _, l := range cfg.Links {
		if _, err := n.AddLink(l.A, l.B, l.Cost, l.Latency.Std()); err != nil {
			return nil, err
		}
	}
	for _, ev := range cfg.Events {
		n.ScheduleTask(func() {
			var err error
			switch ev.Type {
			case state.LinkUp:
				_, err = n.AddLink(ev.A, ev.B, ev.Cost, ev.Latency.Std())
			case state.LinkDown:
				err = n.RemoveLink(ev.A, ev.B)
			}
			if err != nil {
				log.Warn("link event failed", "type", ev.Type, "a", ev.A, "b", ev.B, "err", err)
			}
		}, ev.At.Std())
	}
	for _, p := range cfg.Probes {
		n.ScheduleTask(func() {
			if _, err := n.Traceroute(p.Src, p.Dst); err != nil {
				log.Warn("probe failed", "src", p.Src, "dst", p.Dst, "err", err)
			}
		}, p.At.Std())
	}
	return n, nil
}
