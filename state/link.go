package state

import (
	"maps"
	"slices"
)

// NeighborLink is a directly connected neighbour
type NeighborLink struct {
	Node NodeId
	Cost uint32
	Port PortId
}

// LinkTable indexes directly connected neighbours by node and by port.
type LinkTable struct {
	byNode map[NodeId]NeighborLink
	byPort map[PortId]NodeId
}

func NewLinkTable() *LinkTable {
	return &LinkTable{
		byNode: make(map[NodeId]NeighborLink),
		byPort: make(map[PortId]NodeId),
	}
}

// Add registers a neighbour on port, replacing whatever was bound to the port or
// the neighbour before.
func (t *LinkTable) Add(port PortId, node NodeId, cost uint32) NeighborLink {
	if old, ok := t.byPort[port]; ok {
		delete(t.byNode, old)
	}
	if old, ok := t.byNode[node]; ok {
		delete(t.byPort, old.Port)
	}
	link := NeighborLink{Node: node, Cost: cost, Port: port}
	t.byNode[node] = link
	t.byPort[port] = node
	return link
}

// Remove unbinds port and returns the link that was attached to it
func (t *LinkTable) Remove(port PortId) (NeighborLink, bool) {
	node, ok := t.byPort[port]
	if !ok {
		return NeighborLink{}, false
	}
	link := t.byNode[node]
	delete(t.byPort, port)
	delete(t.byNode, node)
	return link, true
}

func (t *LinkTable) Get(node NodeId) (NeighborLink, bool) {
	link, ok := t.byNode[node]
	return link, ok
}

// Neighbor returns the node bound to port
func (t *LinkTable) Neighbor(port PortId) (NodeId, bool) {
	node, ok := t.byPort[port]
	return node, ok
}

func (t *LinkTable) Len() int {
	return len(t.byNode)
}

// Links returns every link ordered by port
func (t *LinkTable) Links() []NeighborLink {
	links := make([]NeighborLink, 0, len(t.byPort))
	for _, port := range slices.Sorted(maps.Keys(t.byPort)) {
		links = append(links, t.byNode[t.byPort[port]])
	}
	return links
}
