package sim

import (
	"fmt"

	"github.com/encodeous/routesim/state"
)

// Distances is an all-pairs cost matrix. Unreachable pairs are absent.
type Distances map[state.NodeId]map[state.NodeId]uint64

func (d Distances) Get(a, b state.NodeId) (uint64, bool) {
	c, ok := d[a][b]
	return c, ok
}

// ShortestPaths computes all-pairs minimum costs over the live links by brute force
func (n *Network) ShortestPaths() Distances {
	ids := n.NodeIds()
	d := make(Distances, len(ids))
	for _, u := range ids {
		d[u] = map[state.NodeId]uint64{u: 0}
	}
	for _, l := range n.links {
		a, b := l.Edge.V1, l.Edge.V2
		if c, ok := d[a][b]; !ok || uint64(l.Cost) < c {
			d[a][b] = uint64(l.Cost)
			d[b][a] = uint64(l.Cost)
		}
	}
	for _, k := range ids {
		for _, i := range ids {
			ik, ok := d[i][k]
			if !ok {
				continue
			}
			for _, j := range ids {
				kj, ok := d[k][j]
				if !ok {
					continue
				}
				if ij, ok := d[i][j]; !ok || ik+kj < ij {
					d[i][j] = ik + kj
				}
			}
		}
	}
	return d
}

// Mismatch is a route that disagrees with the brute force shortest paths
type Mismatch struct {
	Node   state.NodeId
	Dst    state.NodeId
	Reason string
}

func (m Mismatch) String() string {
	return fmt.Sprintf("%s -> %s: %s", m.Node, m.Dst, m.Reason)
}

// VerifyConvergence checks that every node forwards along a minimum cost path and
// has no route to anything it cannot reach. Distance vector cannot represent costs
// at or above state.INF, those destinations must be unreachable instead.
func (n *Network) VerifyConvergence() []Mismatch {
	dist := n.ShortestPaths()
	var out []Mismatch
	for _, id := range n.NodeIds() {
		node := n.nodes[id]
		for _, dst := range n.NodeIds() {
			if dst == id {
				continue
			}
			want, reachable := dist.Get(id, dst)
			if reachable && n.Engine == state.DistanceVectorEngine && want >= uint64(state.INF) {
				reachable = false
			}
			nh, ok := node.Engine.NextHop(dst)
			switch {
			case !reachable && ok:
				out = append(out, Mismatch{id, dst, fmt.Sprintf("unreachable but routed via %s", nh)})
			case reachable && !ok:
				out = append(out, Mismatch{id, dst, fmt.Sprintf("no route, want cost %d", want)})
			case reachable:
				link, ok := n.links[state.MakeSortedPair(id, nh)]
				if !ok {
					out = append(out, Mismatch{id, dst, fmt.Sprintf("next hop %s is not a neighbour", nh)})
					continue
				}
				rest, _ := dist.Get(nh, dst)
				if got := uint64(link.Cost) + rest; got != want {
					out = append(out, Mismatch{id, dst, fmt.Sprintf("via %s costs %d, want %d", nh, got, want)})
				}
			}
		}
	}
	return out
}
