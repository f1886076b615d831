package editset

import (
	"math"

	"github.com/danielpatrickdp/expression-diagnostics/internal/expr"
	"github.com/danielpatrickdp/expression-diagnostics/internal/sample"
)

// #region predictor
// predictor estimates the trigger rate of an edited expression, by
// re-evaluating stored samples when there are any and by extrapolating from
// the observed rate otherwise.
type predictor struct {
	contexts   []sample.Context
	rate       float64
	samples    int
	minSupport int
}

// resample returns the edited expression's rate over the stored contexts and
// the number of passing samples. ok is false with no contexts.
func (p predictor) resample(edited expr.Node) (rate float64, passes int, ok bool) {
	if len(p.contexts) == 0 {
		return 0, 0, false
	}
	for _, ctx := range p.contexts {
		if expr.Eval(edited, ctx) {
			passes++
		}
	}
	return float64(passes) / float64(len(p.contexts)), passes, true
}

// predict fills the prediction fields of e. An empty conf derives confidence
// from sample support. Without samples the edit falls back to extrapolation.
func (p predictor) predict(e *Edit, edited expr.Node, method ValidationMethod, conf Confidence, fallback float64) {
	rate, passes, ok := p.resample(edited)
	if !ok {
		e.PredictedTriggerRate = fallback
		e.ValidationMethod = ValidationExtrapolation
		e.Confidence = ConfidenceLow
		return
	}
	e.PredictedTriggerRate = rate
	e.ValidationMethod = method
	if conf == "" {
		conf = p.support(passes)
	}
	e.Confidence = conf
}

func (p predictor) support(passes int) Confidence {
	switch {
	case passes >= p.minSupport:
		return ConfidenceHigh
	case passes > 0:
		return ConfidenceMedium
	}
	return ConfidenceLow
}

// extrapolateThreshold scales the observed rate by the change in the leaf's
// pass fraction, assuming the variable is uniform over its range. A zero
// observed rate is floored at half a sample.
func (p predictor) extrapolateThreshold(leaf expr.Node, threshold float64) float64 {
	lo, hi, ok := sample.PathRange(leaf.VarPath)
	if !ok {
		return p.rate
	}
	base := p.rate
	if base == 0 && p.samples > 0 {
		base = 0.5 / float64(p.samples)
	}
	before := math.Max(passFraction(leaf.Op, leaf.Threshold, lo, hi), 0.01)
	after := passFraction(leaf.Op, threshold, lo, hi)
	return math.Min(1, base*after/before)
}

func passFraction(op expr.Operator, t, lo, hi float64) float64 {
	var f float64
	switch {
	case op.IsLowerBound():
		f = (hi - t) / (hi - lo)
	case op == expr.OpLTE || op == expr.OpLT:
		f = (t - lo) / (hi - lo)
	default:
		return 1
	}
	return math.Max(0, math.Min(1, f))
}

// #endregion predictor

// #region rounding
// extrapolatedStep moves a threshold a quarter of the way to the range edge.
func extrapolatedStep(leaf expr.Node, down bool) float64 {
	lo, hi, ok := sample.PathRange(leaf.VarPath)
	if !ok {
		return leaf.Threshold
	}
	if down {
		return floor2(leaf.Threshold - 0.25*(leaf.Threshold-lo))
	}
	return ceil2(leaf.Threshold + 0.25*(hi-leaf.Threshold))
}

// roundTowardPass rounds a suggested threshold to two decimals on the side
// that keeps the witness value passing.
func roundTowardPass(op expr.Operator, t float64) float64 {
	switch op {
	case expr.OpGTE, expr.OpGT:
		return floor2(t)
	case expr.OpLTE, expr.OpLT:
		return ceil2(t)
	}
	return t
}

func floor2(v float64) float64 { return math.Floor(v*100+1e-9) / 100 }
func ceil2(v float64) float64  { return math.Ceil(v*100-1e-9) / 100 }

// #endregion rounding
