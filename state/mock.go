package state

import "time"

// SampleScenario is a small weighted mesh with an obvious detour around the
// expensive bob-eve link:
//
//	bob -1- jeb
//	 |  \    |
//	 10  1   1
//	 |    \  |
//	eve -1- kat -1- ada
//	  \____2_________/
func SampleScenario(engine EngineKind) Scenario {
	return Scenario{
		Engine:    engine,
		Heartbeat: Duration(time.Second),
		Tick:      Duration(100 * time.Millisecond),
		Duration:  Duration(20 * time.Second),
		Nodes:     []NodeId{"bob", "jeb", "kat", "eve", "ada"},
		Links: []LinkCfg{
			{A: "bob", B: "jeb", Cost: 1},
			{A: "bob", B: "kat", Cost: 1},
			{A: "bob", B: "eve", Cost: 10},
			{A: "jeb", B: "kat", Cost: 1},
			{A: "kat", B: "ada", Cost: 1},
			{A: "kat", B: "eve", Cost: 1},
			{A: "eve", B: "ada", Cost: 2},
		},
	}
}

// LineScenario is a - b - c with unit costs
func LineScenario(engine EngineKind) Scenario {
	return Scenario{
		Engine:    engine,
		Heartbeat: Duration(time.Second),
		Tick:      Duration(100 * time.Millisecond),
		Duration:  Duration(5 * time.Second),
		Nodes:     []NodeId{"a", "b", "c"},
		Links: []LinkCfg{
			{A: "a", B: "b", Cost: 1},
			{A: "b", B: "c", Cost: 1},
		},
	}
}
