package core

import (
	"container/heap"
	"maps"
	"slices"

	"github.com/encodeous/routesim/state"
)

type spfCandidate struct {
	node  state.NodeId
	dist  uint64
	order uint64 // insertion order, breaks distance ties first-in first-out
}

type spfQueue []spfCandidate

func (q spfQueue) Len() int { return len(q) }
func (q spfQueue) Less(i, j int) bool {
	if q[i].dist != q[j].dist {
		return q[i].dist < q[j].dist
	}
	return q[i].order < q[j].order
}
func (q spfQueue) Swap(i, j int) { q[i], q[j] = q[j], q[i] }
func (q *spfQueue) Push(x any)   { *q = append(*q, x.(spfCandidate)) }
func (q *spfQueue) Pop() any {
	old := *q
	n := len(old)
	c := old[n-1]
	*q = old[:n-1]
	return c
}

// ShortestPaths runs Dijkstra from src over graph. It returns, for every reachable
// destination other than src, the first hop and the total distance. Rows are relaxed
// in node id order so identical graphs always produce identical tables.
func ShortestPaths(src state.NodeId, graph state.TopologyGraph) (map[state.NodeId]state.NodeId, map[state.NodeId]uint64) {
	dist := map[state.NodeId]uint64{src: 0}
	prev := make(map[state.NodeId]state.NodeId)
	done := make(map[state.NodeId]bool)

	var order uint64
	pq := &spfQueue{{node: src}}
	for pq.Len() > 0 {
		c := heap.Pop(pq).(spfCandidate)
		if done[c.node] {
			continue
		}
		done[c.node] = true

		row := graph[c.node]
		for _, v := range slices.Sorted(maps.Keys(row)) {
			if done[v] {
				continue
			}
			alt := c.dist + uint64(row[v])
			if d, ok := dist[v]; !ok || alt < d {
				dist[v] = alt
				prev[v] = c.node
				order++
				heap.Push(pq, spfCandidate{node: v, dist: alt, order: order})
			}
		}
	}

	hops := make(map[state.NodeId]state.NodeId, len(prev))
	for dst := range prev {
		hop := dst
		for prev[hop] != src {
			hop = prev[hop]
		}
		hops[dst] = hop
	}
	delete(dist, src)
	return hops, dist
}
