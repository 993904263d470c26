package state

import (
	"cmp"
	"fmt"
	"maps"
	"slices"
	"strings"
)

type EngineKind string

const (
	DistanceVectorEngine EngineKind = "dv"
	LinkStateEngine      EngineKind = "ls"
)

type LinkEventType string

const (
	LinkUp   LinkEventType = "up"
	LinkDown LinkEventType = "down"
)

// LinkCfg is a bidirectional link between two nodes
type LinkCfg struct {
	A       NodeId   `yaml:"a"`
	B       NodeId   `yaml:"b"`
	Cost    uint32   `yaml:"cost,omitempty"`
	Latency Duration `yaml:"latency,omitempty"`
}

// LinkEvent adds or removes a link at a point in virtual time. Cost and latency are
// only read for LinkUp.
type LinkEvent struct {
	At      Duration      `yaml:"at"`
	Type    LinkEventType `yaml:"type"`
	LinkCfg `yaml:",inline"`
}

type ProbeCfg struct {
	At  Duration `yaml:"at"`
	Src NodeId   `yaml:"src"`
	Dst NodeId   `yaml:"dst"`
}

// Scenario describes one simulation run
type Scenario struct {
	Engine    EngineKind `yaml:"engine"`
	Heartbeat Duration   `yaml:"heartbeat,omitempty"`
	Tick      Duration   `yaml:"tick,omitempty"`
	Duration  Duration   `yaml:"duration,omitempty"`
	Nodes     []NodeId   `yaml:"nodes"`
	// Graph uses the group syntax understood by ParseGraph, every pair it produces
	// becomes a link with the default cost and latency.
	Graph  []string    `yaml:"graph,omitempty"`
	Links  []LinkCfg   `yaml:"links,omitempty"`
	Events []LinkEvent `yaml:"events,omitempty"`
	Probes []ProbeCfg  `yaml:"probes,omitempty"`
}

// ExpandScenario fills in defaults and turns Graph lines into links
func ExpandScenario(s *Scenario) error {
	if s.Heartbeat == 0 {
		s.Heartbeat = Duration(HeartbeatInterval)
	}
	if s.Tick == 0 {
		s.Tick = Duration(TickInterval)
	}
	if s.Duration == 0 {
		s.Duration = Duration(RunDuration)
	}
	if len(s.Graph) != 0 {
		pairs, err := ParseGraph(s.Graph, s.Nodes)
		if err != nil {
			return err
		}
		for _, p := range pairs {
			if s.HasLink(p.V1, p.V2) {
				continue
			}
			s.Links = append(s.Links, LinkCfg{A: p.V1, B: p.V2})
		}
		s.Graph = nil
	}
	for i := range s.Links {
		fillLinkDefaults(&s.Links[i])
	}
	for i := range s.Events {
		if s.Events[i].Type == LinkUp {
			fillLinkDefaults(&s.Events[i].LinkCfg)
		}
	}
	slices.SortStableFunc(s.Events, func(a, b LinkEvent) int {
		return cmp.Compare(a.At, b.At)
	})
	slices.SortStableFunc(s.Probes, func(a, b ProbeCfg) int {
		return cmp.Compare(a.At, b.At)
	})
	return nil
}

func fillLinkDefaults(l *LinkCfg) {
	if l.Cost == 0 {
		l.Cost = DefaultLinkCost
	}
	if l.Latency == 0 {
		l.Latency = Duration(DefaultLatency)
	}
}

func (s *Scenario) HasNode(node NodeId) bool {
	return slices.Contains(s.Nodes, node)
}

func (s *Scenario) HasLink(a, b NodeId) bool {
	want := MakeSortedPair(a, b)
	return slices.ContainsFunc(s.Links, func(l LinkCfg) bool {
		return MakeSortedPair(l.A, l.B) == want
	})
}

func parseSymbolList(s string, validSymbols []string) ([]string, error) {
	line := make([]string, 0)
	for _, sym := range strings.Split(s, ",") {
		x := strings.TrimSpace(sym)
		if x == "" {
			continue
		}
		if !slices.Contains(validSymbols, x) {
			return nil, fmt.Errorf(`%s is not a valid node/group`, x)
		}
		line = append(line, x)
	}
	if len(line) == 0 {
		return nil, fmt.Errorf(`node/group list must not be empty`)
	}
	slices.Sort(line)
	return line, nil
}

/*
ParseGraph expands a compact topology description into node pairs.

	core = a, b, c     defines the group "core"
	edge = d, e
	core, edge         every node of core is linked with every node of edge
	core, core         full mesh inside core
	a, f               a single link

Groups may reference other groups, cycles are rejected.
*/
func ParseGraph(graph []string, nodes []NodeId) ([]Pair[NodeId, NodeId], error) {
	symbols := make([]string, 0, len(nodes))
	for _, n := range nodes {
		symbols = append(symbols, string(n))
	}
	isNode := func(s string) bool {
		return slices.Contains(nodes, NodeId(s))
	}

	defs := make(map[string]string)
	lines := make([]string, 0)
	for _, line := range graph {
		line = strings.ToLower(strings.TrimSpace(line))
		if line == "" {
			continue
		}
		name, body, isDef := strings.Cut(line, "=")
		if !isDef {
			lines = append(lines, line)
			continue
		}
		if strings.Contains(body, "=") {
			return nil, fmt.Errorf("invalid graph: %s. group definition must contain one '='", line)
		}
		name = strings.TrimSpace(name)
		if isNode(name) {
			return nil, fmt.Errorf("group name must not be a node name: %s", name)
		}
		if _, ok := defs[name]; ok {
			return nil, fmt.Errorf("duplicate group name: %s", name)
		}
		defs[name] = body
		symbols = append(symbols, name)
	}

	groups := make(map[string][]string)
	for _, name := range slices.Sorted(maps.Keys(defs)) {
		lst, err := parseSymbolList(defs[name], symbols)
		if err != nil {
			return nil, err
		}
		groups[name] = lst
	}

	expanded := make(map[string][]NodeId)
	var expand func(sym string, path []string) ([]NodeId, error)
	expand = func(sym string, path []string) ([]NodeId, error) {
		if isNode(sym) {
			return []NodeId{NodeId(sym)}, nil
		}
		if out, ok := expanded[sym]; ok {
			return out, nil
		}
		if slices.Contains(path, sym) {
			cycle := slices.Clone(path[slices.Index(path, sym):])
			slices.Sort(cycle)
			return nil, fmt.Errorf("cycle detected in graph: %v", cycle)
		}
		path = append(path, sym)
		out := make([]NodeId, 0)
		for _, member := range groups[sym] {
			sub, err := expand(member, path)
			if err != nil {
				return nil, err
			}
			out = append(out, sub...)
		}
		slices.Sort(out)
		out = slices.Compact(out)
		expanded[sym] = out
		return out, nil
	}
	for _, name := range slices.Sorted(maps.Keys(groups)) {
		if _, err := expand(name, nil); err != nil {
			return nil, err
		}
	}

	pairings := make([]Pair[NodeId, NodeId], 0)
	for _, line := range lines {
		names, err := parseSymbolList(line, symbols)
		if err != nil {
			return nil, err
		}
		if len(names) < 2 {
			return nil, fmt.Errorf("invalid pairing, %v", names)
		}
		for i := range names {
			for j := i + 1; j < len(names); j++ {
				xs, _ := expand(names[i], nil)
				ys, _ := expand(names[j], nil)
				for _, x := range xs {
					for _, y := range ys {
						if x != y {
							pairings = append(pairings, MakeSortedPair(x, y))
						}
					}
				}
			}
		}
	}
	SortPairs(pairings)
	return slices.Compact(pairings), nil
}
