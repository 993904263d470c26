package state

import (
	"fmt"
	"regexp"
	"slices"
)

var namePattern, _ = regexp.Compile("^[0-9a-z._-]+$")

func NameValidator(s string) error {
	if !namePattern.MatchString(s) {
		return fmt.Errorf("%s is not a valid name, must match pattern %s", s, namePattern.String())
	}
	if len(s) > 100 {
		return fmt.Errorf("len(\"%s\") = %d > 100 is too long", s, len(s))
	}
	return nil
}

func EngineValidator(kind EngineKind) error {
	switch kind {
	case DistanceVectorEngine, LinkStateEngine:
		return nil
	}
	return fmt.Errorf("unknown engine %q, expected %q or %q", kind, DistanceVectorEngine, LinkStateEngine)
}

func linkValidator(s *Scenario, l LinkCfg) error {
	if !s.HasNode(l.A) {
		return fmt.Errorf("node %s not defined", l.A)
	}
	if !s.HasNode(l.B) {
		return fmt.Errorf("node %s not defined", l.B)
	}
	if l.A == l.B {
		return fmt.Errorf("link from %s to itself", l.A)
	}
	if l.Latency < 0 {
		return fmt.Errorf("link %s, %s has negative latency", l.A, l.B)
	}
	return nil
}

// ScenarioValidator checks an expanded scenario
func ScenarioValidator(s *Scenario) error {
	if err := EngineValidator(s.Engine); err != nil {
		return err
	}
	if s.Heartbeat <= 0 || s.Tick <= 0 || s.Duration <= 0 {
		return fmt.Errorf("heartbeat, tick and duration must be positive")
	}
	if len(s.Nodes) == 0 {
		return fmt.Errorf("scenario has no nodes")
	}
	seen := make([]NodeId, 0, len(s.Nodes))
	for _, node := range s.Nodes {
		if err := NameValidator(string(node)); err != nil {
			return err
		}
		if slices.Contains(seen, node) {
			return fmt.Errorf("duplicate node: %s", node)
		}
		seen = append(seen, node)
	}

	edges := make([]Pair[NodeId, NodeId], 0, len(s.Links))
	for _, l := range s.Links {
		if err := linkValidator(s, l); err != nil {
			return err
		}
		if l.Cost == 0 {
			return fmt.Errorf("link %s, %s must have a positive cost", l.A, l.B)
		}
		edge := MakeSortedPair(l.A, l.B)
		if slices.Contains(edges, edge) {
			return fmt.Errorf("duplicate edge found: %s, %s", edge.V1, edge.V2)
		}
		edges = append(edges, edge)
	}

	for _, ev := range s.Events {
		if ev.At < 0 {
			return fmt.Errorf("event at negative time %s", ev.At.Std())
		}
		switch ev.Type {
		case LinkUp:
			if ev.Cost == 0 {
				return fmt.Errorf("link %s, %s must have a positive cost", ev.A, ev.B)
			}
		case LinkDown:
		default:
			return fmt.Errorf("unknown link event %q", ev.Type)
		}
		if err := linkValidator(s, ev.LinkCfg); err != nil {
			return err
		}
	}

	for _, p := range s.Probes {
		if !s.HasNode(p.Src) {
			return fmt.Errorf("node %s not defined", p.Src)
		}
		if !s.HasNode(p.Dst) {
			return fmt.Errorf("node %s not defined", p.Dst)
		}
	}
	return nil
}
