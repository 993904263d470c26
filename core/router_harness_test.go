package core

import (
	"fmt"
	"io"
	"log/slog"
	"slices"
	"strings"
	"testing"
	"time"

	"github.com/encodeous/routesim/protocol"
	"github.com/encodeous/routesim/state"
	"github.com/google/go-cmp/cmp"
)

var discardLog = slog.New(slog.NewTextHandler(io.Discard, nil))

const testHeartbeat = time.Second

type HarnessEvent struct {
	Message string
	Args    []any
}

func MakeEvent(msg string, args ...any) HarnessEvent {
	return HarnessEvent{
		Message: msg,
		Args:    args,
	}
}

// RouterHarness records every packet an engine sends. Routing payloads are decoded
// so tests can match on their text form.
type RouterHarness struct {
	Kind    state.EngineKind
	actions []HarnessEvent
	packets []*state.Packet
}

func (h *RouterHarness) Send(port state.PortId, pkt *state.Packet) {
	h.packets = append(h.packets, pkt)
	if pkt.Kind == state.Data {
		h.actions = append(h.actions, MakeEvent("FORWARD", port, pkt.Dst))
		return
	}
	payload := "<undecodable>"
	switch h.Kind {
	case state.DistanceVectorEngine:
		if b, err := protocol.DecodeUpdateBundle(pkt.Content); err == nil {
			payload = b.String()
		}
	case state.LinkStateEngine:
		if a, err := protocol.DecodeLinkStateAdvert(pkt.Content); err == nil {
			payload = fmt.Sprintf("%s %s", pkt.Src, a)
		}
	}
	h.actions = append(h.actions, MakeEvent("SEND", port, payload))
}

type HarnessEvents []HarnessEvent

func (h HarnessEvents) String() string {
	out := make([]string, 0)
	for _, action := range h {
		cur := action.Message
		for _, arg := range action.Args {
			cur += " " + fmt.Sprint(arg)
		}
		out = append(out, cur)
	}
	slices.Sort(out)
	return strings.Join(out, "\n")
}

// GetActions returns and clears the recorded actions
func (h *RouterHarness) GetActions() HarnessEvents {
	x := h.actions
	h.actions = make([]HarnessEvent, 0)
	h.packets = nil
	return x
}

// LastPackets returns the packets sent since the last GetActions
func (h *RouterHarness) LastPackets() []*state.Packet {
	return h.packets
}

func (e HarnessEvents) contains(msg string, args ...any) bool {
	for _, event := range e {
		if event.Message != msg || len(event.Args) < len(args) {
			continue
		}
		match := true
		for i, arg := range args {
			if !cmp.Equal(event.Args[i], arg) {
				match = false
				break
			}
		}
		if match {
			return true
		}
	}
	return false
}

func (e HarnessEvents) AssertContains(t *testing.T, msg string, args ...any) {
	t.Helper()
	if e.contains(msg, args...) {
		return
	}
	t.Fatal("Expected event not found: ", msg, " with args: ", args, " in ", e)
}

func (e HarnessEvents) AssertNotContains(t *testing.T, msg string, args ...any) {
	t.Helper()
	if e.contains(msg, args...) {
		t.Fatal("Unexpected event found: ", msg, " with args: ", args, " in ", e)
	}
}

func newDV(id state.NodeId) (*DistanceVector, *RouterHarness) {
	h := &RouterHarness{Kind: state.DistanceVectorEngine}
	return NewDistanceVector(id, testHeartbeat, h, discardLog), h
}

func newLS(id state.NodeId) (*LinkState, *RouterHarness) {
	h := &RouterHarness{Kind: state.LinkStateEngine}
	return NewLinkState(id, testHeartbeat, h, discardLog), h
}

// vector builds a distance vector packet from alternating dest, cost pairs
func vector(src state.NodeId, pairs ...any) *state.Packet {
	b := &protocol.UpdateBundle{}
	for i := 0; i < len(pairs); i += 2 {
		b.Updates = append(b.Updates, protocol.Update{
			Dest: state.NodeId(pairs[i].(string)),
			Cost: uint32(pairs[i+1].(int)),
		})
	}
	return &state.Packet{Kind: state.Routing, Src: src, Content: b.Marshal()}
}

// advert builds a link state packet from alternating neighbour, cost pairs
func advert(origin state.NodeId, seqno uint64, pairs ...any) *state.Packet {
	a := &protocol.LinkStateAdvert{Seqno: seqno}
	for i := 0; i < len(pairs); i += 2 {
		a.Neighbors = append(a.Neighbors, protocol.Neighbor{
			Id:   state.NodeId(pairs[i].(string)),
			Cost: uint32(pairs[i+1].(int)),
		})
	}
	return &state.Packet{Kind: state.Routing, Src: origin, Content: a.Marshal()}
}

func probe(src, dst state.NodeId) *state.Packet {
	return &state.Packet{Kind: state.Data, Src: src, Dst: dst}
}
