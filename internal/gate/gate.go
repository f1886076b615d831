package gate

import (
	"fmt"
	"math"
	"regexp"
	"sort"
	"strconv"

	"github.com/danielpatrickdp/expression-diagnostics/internal/logging"
)

// gatePattern accepts "<axis> <op> <number>". Decimals need a leading digit:
// ".5" stays unparsed so existing content keeps its parse status.
var gatePattern = regexp.MustCompile(`^\s*([A-Za-z_][A-Za-z0-9_]*)\s*(<=|>=|<|>)\s*(-?\d+(?:\.\d+)?)\s*$`)

// #region parse-gate
// ParseGate parses a single gate string.
func ParseGate(s string) (Constraint, bool) {
	m := gatePattern.FindStringSubmatch(s)
	if m == nil {
		return Constraint{}, false
	}
	v, err := strconv.ParseFloat(m[3], 64)
	if err != nil {
		return Constraint{}, false
	}
	return Constraint{Axis: m[1], Op: Operator(m[2]), Value: v}, true
}

// #endregion parse-gate

// #region extractor
// Extractor turns gate strings into per-axis intervals. It holds no state
// between calls.
type Extractor struct {
	logger  logging.Logger
	epsilon float64
}

// NewExtractor validates its configuration up front.
func NewExtractor(logger logging.Logger, config ExtractorConfig) (*Extractor, error) {
	if logger == nil {
		return nil, fmt.Errorf("gate extractor: %w", logging.ErrNilLogger)
	}
	eps := config.StrictEpsilon
	if math.IsNaN(eps) || math.IsInf(eps, 0) || eps <= 0 {
		return nil, fmt.Errorf("gate extractor: %w (got %v)", ErrInvalidEpsilon, eps)
	}
	return &Extractor{logger: logger, epsilon: eps}, nil
}

// Extract parses gates and intersects constraints on the same axis.
// Unparseable gates are collected, contradictions are flagged; neither is an
// error.
func (e *Extractor) Extract(gates []string) ParseResult {
	result := ParseResult{
		Intervals:     make(map[string]AxisInterval),
		UnparsedGates: []string{},
		Warnings:      []string{},
	}

	parsed := 0
	for _, g := range gates {
		c, ok := ParseGate(g)
		if !ok {
			result.UnparsedGates = append(result.UnparsedGates, g)
			e.logger.Debug("unparsed gate", "gate", g)
			continue
		}
		parsed++
		result.Intervals[c.Axis] = e.apply(result.Intervals[c.Axis], c)
	}

	for _, axis := range sortedAxes(result.Intervals) {
		iv := result.Intervals[axis]
		if iv.Lower != nil && iv.Upper != nil && *iv.Lower > *iv.Upper {
			iv.Unsatisfiable = true
			result.Intervals[axis] = iv
			msg := fmt.Sprintf("Unsatisfiable gate constraints on %s: lower %.4f > upper %.4f", axis, *iv.Lower, *iv.Upper)
			result.Warnings = append(result.Warnings, msg)
			e.logger.Warn(msg, "axis", axis)
		}
	}

	switch {
	case len(result.UnparsedGates) == 0:
		result.Status = StatusComplete
	case parsed == 0:
		result.Status = StatusFailed
	default:
		result.Status = StatusPartial
	}
	return result
}

// apply intersects c into iv, keeping the tightest bounds seen.
func (e *Extractor) apply(iv AxisInterval, c Constraint) AxisInterval {
	iv = iv.clone()
	iv.Axis = c.Axis
	switch c.Op {
	case OpGTE, OpGT:
		lower := c.Value
		if c.Op == OpGT {
			lower += e.epsilon
		}
		if iv.Lower == nil || lower > *iv.Lower {
			iv.Lower = &lower
		}
	case OpLTE, OpLT:
		upper := c.Value
		if c.Op == OpLT {
			upper -= e.epsilon
		}
		if iv.Upper == nil || upper < *iv.Upper {
			iv.Upper = &upper
		}
	}
	return iv
}

// #endregion extractor

// #region evaluate
// EvaluateAll checks every gate against an axis lookup. Unparseable gates are
// ignored; an axis the lookup cannot resolve fails its gate.
func EvaluateAll(gates []string, lookup func(axis string) (float64, bool)) bool {
	for _, g := range gates {
		c, ok := ParseGate(g)
		if !ok {
			continue
		}
		v, found := lookup(c.Axis)
		if !found || !c.Passes(v) {
			return false
		}
	}
	return true
}

// #endregion evaluate

// #region helpers
func sortedAxes(m map[string]AxisInterval) []string {
	axes := make([]string, 0, len(m))
	for a := range m {
		axes = append(axes, a)
	}
	sort.Strings(axes)
	return axes
}

// #endregion helpers
