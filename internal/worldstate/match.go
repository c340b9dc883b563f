package worldstate

// Operator names accepted by Match. These mirror the comparator records in
// quest seed activation conditions and consequence trigger conditions.
const (
	OpEq       = "=="
	OpNeq      = "!="
	OpLt       = "<"
	OpLte      = "<="
	OpGt       = ">"
	OpGte      = ">="
	OpIn       = "in"
	OpContains = "contains"
)

// Condition is a comparator-value record: an operator applied against the
// value stored at a world path. A bare literal condition uses OpEq.
type Condition struct {
	Operator string `json:"operator"`
	Value    Value  `json:"value"`
}

// Literal builds an equality condition.
func Literal(v Value) Condition { return Condition{Operator: OpEq, Value: v} }

// Match evaluates cond against the value at path. Matching an absent path
// returns false for every operator, including !=. Numeric operators coerce
// ints and floats; mixed types under other operators fail false.
func (s *Store) Match(path string, cond Condition) bool {
	actual := s.Get(path)
	if actual.IsAbsent() {
		return false
	}

	op := cond.Operator
	if op == "" {
		op = OpEq
	}

	switch op {
	case OpEq:
		return actual.Equal(cond.Value)
	case OpNeq:
		return !actual.Equal(cond.Value)
	case OpLt, OpLte, OpGt, OpGte:
		a, ok := actual.AsFloat()
		if !ok {
			return false
		}
		b, ok := cond.Value.AsFloat()
		if !ok {
			return false
		}
		switch op {
		case OpLt:
			return a < b
		case OpLte:
			return a <= b
		case OpGt:
			return a > b
		case OpGte:
			return a >= b
		}
	case OpIn:
		// actual must be a member of the condition's collection.
		switch cond.Value.Kind {
		case KindList:
			for _, item := range cond.Value.L {
				if actual.Equal(item) {
					return true
				}
			}
		case KindStringSet:
			if str, ok := actual.AsString(); ok {
				_, member := cond.Value.Set[str]
				return member
			}
		}
		return false
	case OpContains:
		// actual's collection must contain the condition value.
		switch actual.Kind {
		case KindList:
			for _, item := range actual.L {
				if item.Equal(cond.Value) {
					return true
				}
			}
		case KindStringSet:
			if str, ok := cond.Value.AsString(); ok {
				_, member := actual.Set[str]
				return member
			}
		case KindMapping:
			if str, ok := cond.Value.AsString(); ok {
				_, member := actual.M[str]
				return member
			}
		}
		return false
	}
	return false
}

// MatchAll evaluates every condition in conds; all must hold.
func (s *Store) MatchAll(conds map[string]Condition) bool {
	for path, cond := range conds {
		if !s.Match(path, cond) {
			return false
		}
	}
	return true
}
