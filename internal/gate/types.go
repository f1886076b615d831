package gate

import (
	"errors"
	"fmt"
)

// #region operator
// Operator is one of the four inequality comparisons a gate may use.
type Operator string

const (
	OpGTE Operator = ">="
	OpLTE Operator = "<="
	OpGT  Operator = ">"
	OpLT  Operator = "<"
)

// #endregion operator

// #region constraint
// Constraint is a single parsed gate: <axis> <op> <value>.
type Constraint struct {
	Axis  string
	Op    Operator
	Value float64
}

// Passes reports whether v satisfies the constraint.
func (c Constraint) Passes(v float64) bool {
	switch c.Op {
	case OpGTE:
		return v >= c.Value
	case OpLTE:
		return v <= c.Value
	case OpGT:
		return v > c.Value
	case OpLT:
		return v < c.Value
	}
	return false
}

func (c Constraint) String() string {
	return fmt.Sprintf("%s %s %g", c.Axis, c.Op, c.Value)
}

// #endregion constraint

// #region axis-interval
// AxisInterval is a closed constraint on one axis. A nil bound is open.
// When both bounds are set and Lower > Upper the interval is Unsatisfiable;
// it is still reported so callers can surface the contradiction.
type AxisInterval struct {
	Axis          string
	Lower         *float64
	Upper         *float64
	Unsatisfiable bool
}

// Bounds narrows [lo, hi] by the interval's set bounds.
func (i AxisInterval) Bounds(lo, hi float64) (float64, float64) {
	if i.Lower != nil && *i.Lower > lo {
		lo = *i.Lower
	}
	if i.Upper != nil && *i.Upper < hi {
		hi = *i.Upper
	}
	return lo, hi
}

func (i AxisInterval) clone() AxisInterval {
	out := AxisInterval{Axis: i.Axis, Unsatisfiable: i.Unsatisfiable}
	if i.Lower != nil {
		v := *i.Lower
		out.Lower = &v
	}
	if i.Upper != nil {
		v := *i.Upper
		out.Upper = &v
	}
	return out
}

// #endregion axis-interval

// #region parse-result
// ParseStatus summarizes how many gates were understood.
type ParseStatus string

const (
	StatusComplete ParseStatus = "complete"
	StatusPartial  ParseStatus = "partial"
	StatusFailed   ParseStatus = "failed"
)

// ParseResult is the output of Extract. Every call allocates a fresh result.
type ParseResult struct {
	Intervals     map[string]AxisInterval
	UnparsedGates []string
	Status        ParseStatus
	Warnings      []string
}

// #endregion parse-result

// #region extractor-config
// ExtractorConfig holds extraction knobs.
type ExtractorConfig struct {
	StrictEpsilon float64 // offset applied to < and > to make them closed bounds
}

// DefaultExtractorConfig returns the standard epsilon.
func DefaultExtractorConfig() ExtractorConfig {
	return ExtractorConfig{StrictEpsilon: 1e-4}
}

// ErrInvalidEpsilon is returned when StrictEpsilon is not a positive number.
var ErrInvalidEpsilon = errors.New("strict epsilon must be a positive finite number")

// #endregion extractor-config
