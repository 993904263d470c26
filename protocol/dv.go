package protocol

import (
	"fmt"
	"strings"

	"github.com/encodeous/routesim/state"
	"google.golang.org/protobuf/encoding/protowire"
)

// Update advertises the sender's total cost to Dest. The sender's next hop is
// never part of the advertisement.
//
//	message Update { string dest = 1; uint32 cost = 2; }
type Update struct {
	Dest state.NodeId
	Cost uint32
}

// UpdateBundle is a full distance vector.
//
//	message UpdateBundle { repeated Update updates = 1; }
type UpdateBundle struct {
	Updates []Update
}

const (
	fieldBundleUpdates protowire.Number = 1

	fieldUpdateDest protowire.Number = 1
	fieldUpdateCost protowire.Number = 2
)

func (m *UpdateBundle) Marshal() []byte {
	var b []byte
	for _, u := range m.Updates {
		var inner []byte
		inner = appendId(inner, fieldUpdateDest, string(u.Dest))
		inner = appendVarint(inner, fieldUpdateCost, uint64(u.Cost))
		b = appendMessage(b, fieldBundleUpdates, inner)
	}
	return b
}

func (m *UpdateBundle) String() string {
	parts := make([]string, 0, len(m.Updates))
	for _, u := range m.Updates {
		parts = append(parts, fmt.Sprintf("%s:%d", u.Dest, u.Cost))
	}
	return "[" + strings.Join(parts, " ") + "]"
}

// DecodeUpdateBundle parses a distance vector. A destination may appear at most once.
func DecodeUpdateBundle(b []byte) (*UpdateBundle, error) {
	out := &UpdateBundle{}
	seen := make(map[state.NodeId]struct{})
	err := walk(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		if num != fieldBundleUpdates {
			return 0, nil
		}
		raw, n, err := consumeBytes(num, typ, b)
		if err != nil {
			return 0, err
		}
		u, err := decodeUpdate(raw)
		if err != nil {
			return 0, err
		}
		if _, ok := seen[u.Dest]; ok {
			return 0, malformed("duplicate destination %s", u.Dest)
		}
		seen[u.Dest] = struct{}{}
		out.Updates = append(out.Updates, u)
		return n, nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func decodeUpdate(b []byte) (Update, error) {
	u := Update{}
	hasDest, hasCost := false, false
	err := walk(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		switch num {
		case fieldUpdateDest:
			v, n, err := consumeId(num, typ, b)
			u.Dest = state.NodeId(v)
			hasDest = true
			return n, err
		case fieldUpdateCost:
			v, n, err := consumeCost(num, typ, b)
			u.Cost = v
			hasCost = true
			return n, err
		}
		return 0, nil
	})
	if err != nil {
		return Update{}, err
	}
	if !hasDest || !hasCost {
		return Update{}, malformed("update is missing dest or cost")
	}
	return u, nil
}
