package worldstate

import (
	"encoding/json"
	"fmt"
	"sort"
	"time"
)

// Values serialize as a two-field tagged object so the dynamic type survives
// the round trip exactly: {"t":"int","v":3}. Plain JSON numbers would
// collapse int and float.

var kindNames = map[Kind]string{
	KindInt:       "int",
	KindFloat:     "float",
	KindBool:      "bool",
	KindString:    "string",
	KindList:      "list",
	KindMapping:   "map",
	KindStringSet: "set",
}

var kindByName = func() map[string]Kind {
	m := make(map[string]Kind, len(kindNames))
	for k, n := range kindNames {
		m[n] = k
	}
	return m
}()

// MarshalJSON implements json.Marshaler.
func (v Value) MarshalJSON() ([]byte, error) {
	type tagged struct {
		T string `json:"t"`
		V any    `json:"v"`
	}
	switch v.Kind {
	case KindAbsent:
		return []byte("null"), nil
	case KindInt:
		return json.Marshal(tagged{T: "int", V: v.I})
	case KindFloat:
		return json.Marshal(tagged{T: "float", V: v.F})
	case KindBool:
		return json.Marshal(tagged{T: "bool", V: v.B})
	case KindString:
		return json.Marshal(tagged{T: "string", V: v.S})
	case KindList:
		return json.Marshal(tagged{T: "list", V: v.L})
	case KindMapping:
		return json.Marshal(tagged{T: "map", V: v.M})
	case KindStringSet:
		items := make([]string, 0, len(v.Set))
		for s := range v.Set {
			items = append(items, s)
		}
		sort.Strings(items)
		return json.Marshal(tagged{T: "set", V: items})
	}
	return nil, fmt.Errorf("unknown value kind %d", v.Kind)
}

// UnmarshalJSON implements json.Unmarshaler.
func (v *Value) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*v = Value{}
		return nil
	}
	var probe struct {
		T string          `json:"t"`
		V json.RawMessage `json:"v"`
	}
	if err := json.Unmarshal(data, &probe); err != nil {
		return err
	}
	kind, ok := kindByName[probe.T]
	if !ok {
		return fmt.Errorf("unknown value tag %q", probe.T)
	}
	switch kind {
	case KindInt:
		*v = Value{Kind: KindInt}
		return json.Unmarshal(probe.V, &v.I)
	case KindFloat:
		*v = Value{Kind: KindFloat}
		return json.Unmarshal(probe.V, &v.F)
	case KindBool:
		*v = Value{Kind: KindBool}
		return json.Unmarshal(probe.V, &v.B)
	case KindString:
		*v = Value{Kind: KindString}
		return json.Unmarshal(probe.V, &v.S)
	case KindList:
		*v = Value{Kind: KindList}
		return json.Unmarshal(probe.V, &v.L)
	case KindMapping:
		*v = Value{Kind: KindMapping, M: map[string]Value{}}
		return json.Unmarshal(probe.V, &v.M)
	case KindStringSet:
		var items []string
		if err := json.Unmarshal(probe.V, &items); err != nil {
			return err
		}
		*v = StringSet(items...)
		return nil
	}
	return fmt.Errorf("unhandled value tag %q", probe.T)
}

// Snapshot is the serializable image of the store. Opaque to callers; the
// persistence layer stores it inside the save blob.
type Snapshot struct {
	Root         map[string]Value `json:"root"`
	GameTime     int              `json:"game_time"`
	Day          int              `json:"day"`
	SessionStart time.Time        `json:"session_start"`
}

// Snapshot captures the full store state for save-game serialization.
func (s *Store) Snapshot() Snapshot {
	return Snapshot{
		Root:         deepCopyMapping(s.root),
		GameTime:     s.GameTime,
		Day:          s.Day,
		SessionStart: s.SessionStart,
	}
}

// Restore replaces the store contents from a snapshot.
func (s *Store) Restore(snap Snapshot) {
	s.root = deepCopyMapping(snap.Root)
	if s.root == nil {
		s.root = make(map[string]Value)
	}
	s.GameTime = snap.GameTime
	s.Day = snap.Day
	s.SessionStart = snap.SessionStart
}

func deepCopyMapping(m map[string]Value) map[string]Value {
	if m == nil {
		return nil
	}
	out := make(map[string]Value, len(m))
	for k, v := range m {
		out[k] = deepCopyValue(v)
	}
	return out
}

func deepCopyValue(v Value) Value {
	switch v.Kind {
	case KindList:
		l := make([]Value, len(v.L))
		for i, item := range v.L {
			l[i] = deepCopyValue(item)
		}
		v.L = l
	case KindMapping:
		v.M = deepCopyMapping(v.M)
	case KindStringSet:
		set := make(map[string]struct{}, len(v.Set))
		for s := range v.Set {
			set[s] = struct{}{}
		}
		v.Set = set
	}
	return v
}
