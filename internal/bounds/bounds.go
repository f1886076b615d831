package bounds

import (
	"fmt"
	"math"

	"github.com/danielpatrickdp/expression-diagnostics/internal/expr"
	"github.com/danielpatrickdp/expression-diagnostics/internal/gate"
	"github.com/danielpatrickdp/expression-diagnostics/internal/logging"
	"github.com/danielpatrickdp/expression-diagnostics/internal/prototype"
)

// #region calculator
// Calculator computes the reachable intensity range of prototypes under
// optional per-axis interval constraints.
type Calculator struct {
	source PrototypeSource
	logger logging.Logger
}

// NewCalculator requires both a prototype source and a logger.
func NewCalculator(source PrototypeSource, logger logging.Logger) (*Calculator, error) {
	if logger == nil {
		return nil, fmt.Errorf("bounds calculator: %w", logging.ErrNilLogger)
	}
	if source == nil {
		return nil, fmt.Errorf("bounds calculator: prototype source is required")
	}
	return &Calculator{source: source, logger: logger}, nil
}

// #endregion calculator

// #region calculate-bounds
// CalculateBounds maximizes and minimizes Σw·x / Σ|w| over the box formed by
// each axis's default range narrowed by constraints. constraints is only read.
// Unknown prototypes and weightless prototypes yield {0, 0, false}.
func (c *Calculator) CalculateBounds(prototypeID string, category prototype.Category, constraints map[string]gate.AxisInterval) IntensityBounds {
	def, ok := c.source.Lookup(category, prototypeID)
	if !ok {
		c.logger.Warn("unknown prototype in bounds calculation", "prototype_id", prototypeID, "category", string(category))
		return IntensityBounds{}
	}
	return c.boundsFor(def, constraints)
}

func (c *Calculator) boundsFor(def prototype.Definition, constraints map[string]gate.AxisInterval) IntensityBounds {
	total := def.AbsWeightSum()
	if total == 0 {
		return IntensityBounds{}
	}

	narrowed := false
	var maxSum, minSum float64
	for _, axis := range def.Axes() {
		w := def.Weights[axis]
		if w == 0 || math.IsNaN(w) || math.IsInf(w, 0) {
			continue
		}
		defLo, defHi := prototype.DefaultRange(axis)
		lo, hi := defLo, defHi
		if iv, ok := constraints[axis]; ok {
			if iv.Unsatisfiable {
				c.logger.Debug("unsatisfiable axis constraint zeroes prototype", "prototype_id", def.ID, "axis", axis)
				return IntensityBounds{}
			}
			lo, hi = iv.Bounds(lo, hi)
			if lo > hi {
				c.logger.Debug("constraint outside axis range zeroes prototype", "prototype_id", def.ID, "axis", axis)
				return IntensityBounds{}
			}
			if lo != defLo || hi != defHi {
				narrowed = true
			}
		}
		if w > 0 {
			maxSum += w * hi
			minSum += w * lo
		} else {
			maxSum += w * lo
			minSum += w * hi
		}
	}

	return IntensityBounds{
		Min:         prototype.Clamp01(minSum / total),
		Max:         prototype.Clamp01(maxSum / total),
		IsUnbounded: !narrowed,
	}
}

// #endregion calculate-bounds

// #region reachability
// CheckThresholdReachability reports whether intensity >= threshold can hold.
func (c *Calculator) CheckThresholdReachability(prototypeID string, category prototype.Category, threshold float64, constraints map[string]gate.AxisInterval) ThresholdReachability {
	b := c.CalculateBounds(prototypeID, category, constraints)
	return reachability(b.Max, threshold)
}

func reachability(maxPossible, threshold float64) ThresholdReachability {
	r := ThresholdReachability{
		IsReachable: maxPossible >= threshold,
		Threshold:   threshold,
		MaxPossible: maxPossible,
	}
	if !r.IsReachable {
		r.Gap = threshold - maxPossible
	}
	return r
}

// #endregion reachability

// #region analyze-expression
// AnalyzeExpression checks every emotions.<id> / sexualStates.<id> lower-bound
// leaf in the tree, under AND and OR alike, and returns one finding per leaf
// whose threshold is unreachable. Other variable paths are ignored.
func (c *Calculator) AnalyzeExpression(root expr.Node, constraints map[string]gate.AxisInterval) []UnreachableFinding {
	findings := []UnreachableFinding{}
	for _, leaf := range expr.Leaves(root) {
		if !leaf.Op.IsLowerBound() {
			continue
		}
		category, id, ok := PrototypeRef(leaf.VarPath)
		if !ok {
			continue
		}
		r := c.CheckThresholdReachability(id, category, leaf.Threshold, constraints)
		if leaf.Op == expr.OpGT && r.IsReachable && r.MaxPossible <= leaf.Threshold {
			r.IsReachable = false
		}
		if r.IsReachable {
			continue
		}
		findings = append(findings, UnreachableFinding{
			ClauseID:    leaf.ClauseID,
			VarPath:     leaf.VarPath,
			PrototypeID: id,
			Category:    category,
			Operator:    string(leaf.Op),
			Threshold:   leaf.Threshold,
			MaxPossible: r.MaxPossible,
			Gap:         r.Gap,
		})
	}
	return findings
}

// PrototypeRef splits "emotions.joy" into (emotion, "joy").
func PrototypeRef(varPath string) (prototype.Category, string, bool) {
	return prototype.ParseVarPath(varPath)
}

// #endregion analyze-expression

// #region gate-constraints
// ConstraintsFor extracts a prototype's own gates into interval constraints.
func ConstraintsFor(extractor *gate.Extractor, def prototype.Definition) map[string]gate.AxisInterval {
	return extractor.Extract(def.Gates).Intervals
}

// #endregion gate-constraints
