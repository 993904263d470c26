package core

import (
	"testing"
	"time"

	"github.com/encodeous/routesim/state"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDVSelfEntry(t *testing.T) {
	d, h := newDV("a")
	assert.Equal(t, state.DVTable{"a": {Cost: 0, Nh: "a", Port: state.NoPort}}, d.Table())
	_, ok := d.NextHop("a")
	assert.False(t, ok)
	assert.Empty(t, h.GetActions())
}

func TestDVLinkUpInstallsDirectRoute(t *testing.T) {
	d, h := newDV("a")
	d.HandleLinkUp(1, "b", 3)

	assert.Equal(t, state.DVEntry{Cost: 3, Nh: "b", Port: 1}, d.Table()["b"])
	a := h.GetActions()
	assert.Equal(t, "SEND 1 [a:0 b:3]", a.String())

	// a second neighbour hears about both
	d.HandleLinkUp(2, "c", 1)
	a = h.GetActions()
	assert.Equal(t, "SEND 1 [a:0 b:3 c:1]\nSEND 2 [a:0 b:3 c:1]", a.String())
}

func TestDVLinkUpKeepsCheaperRoute(t *testing.T) {
	d, h := newDV("a")
	d.HandleLinkUp(1, "c", 1)
	d.HandlePacket(1, vector("c", "c", 0, "b", 1))
	require.Equal(t, uint32(2), d.Table()["b"].Cost)
	h.GetActions()

	// direct link to b is more expensive than going through c
	d.HandleLinkUp(2, "b", 5)
	assert.Equal(t, state.DVEntry{Cost: 2, Nh: "c", Port: 1}, d.Table()["b"])
	assert.Empty(t, h.GetActions())
}

func TestDVLineScenario(t *testing.T) {
	// a -1- b -1- c, from a's point of view
	d, h := newDV("a")
	d.HandleLinkUp(1, "b", 1)
	d.HandlePacket(1, vector("b", "a", 1, "b", 0, "c", 1))

	nh, ok := d.NextHop("c")
	require.True(t, ok)
	assert.Equal(t, state.NodeId("b"), nh)
	assert.Equal(t, `a via (nh: a, port: -1, cost: 0)
b via (nh: b, port: 1, cost: 1)
c via (nh: b, port: 1, cost: 2)`, d.Table().String())
	h.GetActions().AssertContains(t, "SEND", state.PortId(1), "[a:0 b:1 c:2]")

	// the a-b link goes away
	d.HandleLinkDown(1)
	table := d.Table()
	assert.Equal(t, state.Unreachable(), table["b"])
	assert.Equal(t, state.Unreachable(), table["c"])
	_, ok = d.NextHop("c")
	assert.False(t, ok)
	// no neighbours left to tell
	assert.Empty(t, h.GetActions())
}

func TestDVLinkDownOnlyInvalidatesDirectDependents(t *testing.T) {
	d, h := newDV("a")
	d.HandleLinkUp(1, "b", 1)
	d.HandleLinkUp(2, "c", 1)
	d.HandlePacket(1, vector("b", "b", 0, "x", 1))
	d.HandlePacket(2, vector("c", "c", 0, "y", 1))
	h.GetActions()

	d.HandleLinkDown(1)
	table := d.Table()
	assert.Equal(t, state.Unreachable(), table["b"])
	assert.Equal(t, state.Unreachable(), table["x"])
	assert.Equal(t, state.DVEntry{Cost: 2, Nh: "c", Port: 2}, table["y"])
	assert.Equal(t, "SEND 2 [a:0 b:16 c:1 x:16 y:2]", h.GetActions().String())
}

func TestDVPoisonReverse(t *testing.T) {
	d, h := newDV("a")
	d.HandleLinkUp(1, "n", 1)
	d.HandlePacket(1, vector("n", "n", 0, "x", 2))
	require.Equal(t, state.DVEntry{Cost: 3, Nh: "n", Port: 1}, d.Table()["x"])
	h.GetActions()

	// the current next hop reports a worse cost, we must believe it
	d.HandlePacket(1, vector("n", "n", 0, "x", 6))
	assert.Equal(t, state.DVEntry{Cost: 7, Nh: "n", Port: 1}, d.Table()["x"])
	h.GetActions().AssertContains(t, "SEND", state.PortId(1), "[a:0 n:1 x:7]")

	// and then that it lost the route entirely
	d.HandlePacket(1, vector("n", "n", 0, "x", int(state.INF)))
	assert.Equal(t, state.Unreachable(), d.Table()["x"])
	_, ok := d.NextHop("x")
	assert.False(t, ok)
	h.GetActions().AssertContains(t, "SEND", state.PortId(1), "[a:0 n:1 x:16]")
}

func TestDVAdvertisedCostSaturates(t *testing.T) {
	d, _ := newDV("a")
	d.HandleLinkUp(1, "n", 1)
	d.HandlePacket(1, vector("n", "x", 2))
	d.HandlePacket(1, vector("n", "x", int(state.INF)-1))
	// 15 + 1 reaches infinity
	assert.Equal(t, state.Unreachable(), d.Table()["x"])
}

func TestDVIgnoresWorseRouteFromOtherNeighbour(t *testing.T) {
	d, h := newDV("a")
	d.HandleLinkUp(1, "b", 1)
	d.HandleLinkUp(2, "c", 1)
	d.HandlePacket(1, vector("b", "x", 1))
	h.GetActions()

	d.HandlePacket(2, vector("c", "x", 5))
	assert.Equal(t, state.DVEntry{Cost: 2, Nh: "b", Port: 1}, d.Table()["x"])
	d.HandlePacket(2, vector("c", "x", int(state.INF)))
	assert.Equal(t, state.DVEntry{Cost: 2, Nh: "b", Port: 1}, d.Table()["x"])
	assert.Empty(t, h.GetActions())

	// a strictly better route wins
	d.HandlePacket(2, vector("c", "x", 0))
	assert.Equal(t, state.DVEntry{Cost: 1, Nh: "c", Port: 2}, d.Table()["x"])
}

func TestDVRecoversAfterPoison(t *testing.T) {
	d, _ := newDV("a")
	d.HandleLinkUp(1, "b", 1)
	d.HandleLinkUp(2, "c", 4)
	d.HandlePacket(1, vector("b", "x", 1))
	d.HandlePacket(1, vector("b", "x", int(state.INF)))
	require.Equal(t, state.Unreachable(), d.Table()["x"])

	d.HandlePacket(2, vector("c", "x", 1))
	assert.Equal(t, state.DVEntry{Cost: 5, Nh: "c", Port: 2}, d.Table()["x"])
}

func TestDVIdempotentRedelivery(t *testing.T) {
	d, h := newDV("a")
	d.HandleLinkUp(1, "b", 1)
	pkt := vector("b", "a", 1, "b", 0, "c", 1)
	d.HandlePacket(1, pkt)
	assert.NotEmpty(t, h.GetActions())
	before := d.Table()

	d.HandlePacket(1, pkt)
	assert.Empty(t, h.GetActions())
	assert.Equal(t, before, d.Table())
}

func TestDVRetractionOfUnknownRouteIgnored(t *testing.T) {
	d, h := newDV("a")
	d.HandleLinkUp(1, "b", 1)
	h.GetActions()
	d.HandlePacket(1, vector("b", "z", int(state.INF)))
	_, ok := d.Table()["z"]
	assert.False(t, ok)
	assert.Empty(t, h.GetActions())
}

func TestDVNoSelfLoop(t *testing.T) {
	d, h := newDV("a")
	d.HandleLinkUp(1, "b", 1)
	h.GetActions()
	// b claims to be at distance 0 from a
	d.HandlePacket(1, vector("b", "a", 0, "b", 0))
	for dst, e := range d.Table() {
		if dst != "a" {
			assert.NotEqual(t, state.NodeId("a"), e.Nh, "entry %s loops through self", dst)
		}
	}
	assert.Equal(t, state.DVEntry{Cost: 0, Nh: "a", Port: state.NoPort}, d.Table()["a"])
	assert.Empty(t, h.GetActions())
}

func TestDVDiscardsBadRoutingPackets(t *testing.T) {
	d, h := newDV("a")
	d.HandleLinkUp(1, "b", 1)
	h.GetActions()
	before := d.Table()

	// not a neighbour
	d.HandlePacket(1, vector("q", "x", 1))
	// garbage
	d.HandlePacket(1, &state.Packet{Kind: state.Routing, Src: "b", Content: []byte{0x0a, 0x05, 0x01}})

	assert.Equal(t, before, d.Table())
	assert.Empty(t, h.GetActions())
}

func TestDVForwarding(t *testing.T) {
	d, h := newDV("a")
	d.HandleLinkUp(1, "b", 1)
	d.HandleLinkUp(2, "c", 1)
	d.HandlePacket(1, vector("b", "x", 1))
	d.HandlePacket(1, vector("b", "y", 1))
	d.HandlePacket(1, vector("b", "y", int(state.INF)))
	h.GetActions()

	d.HandlePacket(2, probe("c", "x"))
	d.HandlePacket(2, probe("c", "y"))       // at infinity
	d.HandlePacket(2, probe("c", "nowhere")) // unknown
	d.HandlePacket(2, probe("c", "a"))       // self entry has no egress
	assert.Equal(t, "FORWARD 1 x", h.GetActions().String())
}

func TestDVHeartbeat(t *testing.T) {
	d, h := newDV("a")
	d.HandleLinkUp(1, "b", 1)
	h.GetActions()

	d.HandleTime(500 * time.Millisecond)
	assert.Empty(t, h.GetActions())
	d.HandleTime(time.Second)
	assert.Equal(t, "SEND 1 [a:0 b:1]", h.GetActions().String())
	d.HandleTime(1500 * time.Millisecond)
	assert.Empty(t, h.GetActions())
	d.HandleTime(2 * time.Second)
	assert.Equal(t, "SEND 1 [a:0 b:1]", h.GetActions().String())
}

func TestDVLinkDownUnknownPort(t *testing.T) {
	d, h := newDV("a")
	d.HandleLinkUp(1, "b", 1)
	h.GetActions()
	d.HandleLinkDown(7)
	assert.Equal(t, state.DVEntry{Cost: 1, Nh: "b", Port: 1}, d.Table()["b"])
	assert.Empty(t, h.GetActions())
}

func TestDVNeighbourMovesPort(t *testing.T) {
	d, h := newDV("a")
	d.HandleLinkUp(1, "b", 1)
	d.HandlePacket(1, vector("b", "x", 1))
	h.GetActions()

	d.HandleLinkUp(4, "b", 1)
	assert.Equal(t, state.DVEntry{Cost: 2, Nh: "b", Port: 4}, d.Table()["x"])
	assert.Equal(t, state.DVEntry{Cost: 1, Nh: "b", Port: 4}, d.Table()["b"])
	assert.Equal(t, "SEND 4 [a:0 b:1 x:2]", h.GetActions().String())
}

func TestDVRoutes(t *testing.T) {
	d, _ := newDV("a")
	d.HandleLinkUp(1, "b", 1)
	d.HandlePacket(1, vector("b", "x", 1))
	d.HandlePacket(1, vector("b", "x", int(state.INF)))
	assert.Equal(t, []state.Route{
		{Dst: "a", Nh: "a", Cost: 0},
		{Dst: "b", Nh: "b", Cost: 1},
		{Dst: "x", Cost: uint64(state.INF)},
	}, d.Routes())
}
