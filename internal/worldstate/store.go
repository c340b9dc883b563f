// Package worldstate provides the shared mutable world store keyed by
// dotted string paths, with a small comparator language used by quest
// seeds and consequence triggers.
package worldstate

import (
	"fmt"
	"strings"
	"time"
)

// Kind tags the dynamic value types the store can hold.
type Kind uint8

const (
	KindAbsent Kind = iota
	KindInt
	KindFloat
	KindBool
	KindString
	KindList
	KindMapping
	KindStringSet
)

// Value is a tagged dynamic value. Exactly one payload field is meaningful
// for a given Kind; the zero Value has Kind KindAbsent.
type Value struct {
	Kind Kind
	I    int64
	F    float64
	B    bool
	S    string
	L    []Value
	M    map[string]Value
	Set  map[string]struct{}
}

// Constructors for the common cases.

func Int(v int64) Value      { return Value{Kind: KindInt, I: v} }
func Float(v float64) Value  { return Value{Kind: KindFloat, F: v} }
func Bool(v bool) Value      { return Value{Kind: KindBool, B: v} }
func String(v string) Value  { return Value{Kind: KindString, S: v} }
func List(vs ...Value) Value { return Value{Kind: KindList, L: vs} }
func Mapping() Value         { return Value{Kind: KindMapping, M: map[string]Value{}} }

// StringSet builds a set-of-string value.
func StringSet(items ...string) Value {
	set := make(map[string]struct{}, len(items))
	for _, s := range items {
		set[s] = struct{}{}
	}
	return Value{Kind: KindStringSet, Set: set}
}

// IsAbsent reports whether the value represents a missing path.
func (v Value) IsAbsent() bool { return v.Kind == KindAbsent }

// AsFloat coerces int and float values to float64. Returns false for
// everything else.
func (v Value) AsFloat() (float64, bool) {
	switch v.Kind {
	case KindInt:
		return float64(v.I), true
	case KindFloat:
		return v.F, true
	}
	return 0, false
}

// AsBool returns the boolean payload; absent reads default to false.
func (v Value) AsBool() bool { return v.Kind == KindBool && v.B }

// AsInt coerces int and float values to int64.
func (v Value) AsInt() (int64, bool) {
	switch v.Kind {
	case KindInt:
		return v.I, true
	case KindFloat:
		return int64(v.F), true
	}
	return 0, false
}

// AsString returns the string payload.
func (v Value) AsString() (string, bool) {
	if v.Kind == KindString {
		return v.S, true
	}
	return "", false
}

// Equal compares two values structurally, coercing int/float pairs.
func (v Value) Equal(o Value) bool {
	if vf, ok := v.AsFloat(); ok {
		if of, ok2 := o.AsFloat(); ok2 {
			return vf == of
		}
		return false
	}
	if v.Kind != o.Kind {
		return false
	}
	switch v.Kind {
	case KindBool:
		return v.B == o.B
	case KindString:
		return v.S == o.S
	case KindList:
		if len(v.L) != len(o.L) {
			return false
		}
		for i := range v.L {
			if !v.L[i].Equal(o.L[i]) {
				return false
			}
		}
		return true
	case KindStringSet:
		if len(v.Set) != len(o.Set) {
			return false
		}
		for s := range v.Set {
			if _, ok := o.Set[s]; !ok {
				return false
			}
		}
		return true
	case KindMapping:
		if len(v.M) != len(o.M) {
			return false
		}
		for k, mv := range v.M {
			ov, ok := o.M[k]
			if !ok || !mv.Equal(ov) {
				return false
			}
		}
		return true
	case KindAbsent:
		return true
	}
	return false
}

// Store is the process-wide world state. All access happens inside a tick;
// the store is not safe for concurrent use.
type Store struct {
	root map[string]Value

	// Game clock.
	GameTime     int // in-game minutes within the current day, 0..1439
	Day          int // day counter, starts at 1
	SessionStart time.Time
}

// New creates an empty store with the clock at day 1, 07:00.
func New() *Store {
	return &Store{
		root:         make(map[string]Value),
		GameTime:     420,
		Day:          1,
		SessionStart: time.Now(),
	}
}

// splitPath validates and splits a dotted path. Segments must be non-empty;
// trailing dots are rejected.
func splitPath(path string) ([]string, error) {
	if path == "" {
		return nil, fmt.Errorf("empty world path")
	}
	segs := strings.Split(path, ".")
	for _, s := range segs {
		if s == "" {
			return nil, fmt.Errorf("invalid world path %q", path)
		}
	}
	return segs, nil
}

// Get returns the value at path, or an absent Value when the path (or any
// intermediate segment) does not exist.
func (s *Store) Get(path string) Value {
	segs, err := splitPath(path)
	if err != nil {
		return Value{}
	}
	cur := s.root
	for i, seg := range segs {
		v, ok := cur[seg]
		if !ok {
			return Value{}
		}
		if i == len(segs)-1 {
			return v
		}
		if v.Kind != KindMapping {
			return Value{}
		}
		cur = v.M
	}
	return Value{}
}

// Set writes value at path, creating intermediate mappings on demand.
// A non-mapping intermediate is overwritten; keys never disappear once
// written.
func (s *Store) Set(path string, value Value) error {
	segs, err := splitPath(path)
	if err != nil {
		return err
	}
	cur := s.root
	for _, seg := range segs[:len(segs)-1] {
		v, ok := cur[seg]
		if !ok || v.Kind != KindMapping {
			v = Mapping()
			cur[seg] = v
		}
		cur = v.M
	}
	cur[segs[len(segs)-1]] = value
	return nil
}

// GetBool reads a boolean flag; absent paths read false.
func (s *Store) GetBool(path string) bool { return s.Get(path).AsBool() }

// GetFloat reads a numeric path coerced to float64; absent paths read 0.
func (s *Store) GetFloat(path string) float64 {
	f, _ := s.Get(path).AsFloat()
	return f
}

// GetInt reads a numeric path coerced to int64; absent paths read 0.
func (s *Store) GetInt(path string) int64 {
	n, _ := s.Get(path).AsInt()
	return n
}

// GetString reads a string path; absent paths read "".
func (s *Store) GetString(path string) string {
	str, _ := s.Get(path).AsString()
	return str
}

// Add adds delta to the numeric value at path, treating absent as zero.
func (s *Store) Add(path string, delta float64) {
	cur, _ := s.Get(path).AsFloat()
	s.Set(path, Float(cur+delta))
}

// AddInt adds delta to the integer value at path, treating absent as zero.
func (s *Store) AddInt(path string, delta int64) {
	cur, _ := s.Get(path).AsInt()
	s.Set(path, Int(cur+delta))
}

// Mul multiplies the numeric value at path by factor; absent stays absent.
func (s *Store) Mul(path string, factor float64) {
	cur, ok := s.Get(path).AsFloat()
	if !ok {
		return
	}
	s.Set(path, Float(cur*factor))
}

// MergeMapping merges entries into the mapping at path, creating it if
// needed. Non-mapping targets are replaced.
func (s *Store) MergeMapping(path string, entries map[string]Value) {
	cur := s.Get(path)
	if cur.Kind != KindMapping {
		cur = Mapping()
	}
	for k, v := range entries {
		cur.M[k] = v
	}
	s.Set(path, cur)
}

// Delete removes the value at path. Used only for npc removal effects;
// ordinary world keys are overwritten, never deleted.
func (s *Store) Delete(path string) {
	segs, err := splitPath(path)
	if err != nil {
		return
	}
	cur := s.root
	for _, seg := range segs[:len(segs)-1] {
		v, ok := cur[seg]
		if !ok || v.Kind != KindMapping {
			return
		}
		cur = v.M
	}
	delete(cur, segs[len(segs)-1])
}

// Keys returns the child key names of the mapping at path, or nil when the
// path is absent or not a mapping.
func (s *Store) Keys(path string) []string {
	v := s.Get(path)
	if v.Kind != KindMapping {
		return nil
	}
	keys := make([]string, 0, len(v.M))
	for k := range v.M {
		keys = append(keys, k)
	}
	return keys
}

// Now returns the current game instant: the session epoch advanced by the
// elapsed game days and minutes. The scheduler keys all trigger times off
// this clock so wall-time and game-time diverge gracefully.
func (s *Store) Now() time.Time {
	elapsed := time.Duration(s.Day-1)*24*time.Hour + time.Duration(s.GameTime)*time.Minute
	return s.SessionStart.Add(elapsed)
}

// AdvanceClock moves game time forward by minutes and returns true when the
// day rolled over.
func (s *Store) AdvanceClock(minutes int) bool {
	s.GameTime += minutes
	if s.GameTime >= 1440 {
		s.GameTime -= 1440
		s.Day++
		return true
	}
	return false
}
