// Package stats is a stateless numeric library over sampled contexts. No
// function mutates its inputs.
package stats

import (
	"math"
	"sort"
	"strconv"

	"github.com/danielpatrickdp/expression-diagnostics/internal/expr"
	"github.com/danielpatrickdp/expression-diagnostics/internal/gate"
	"github.com/danielpatrickdp/expression-diagnostics/internal/prototype"
	"github.com/danielpatrickdp/expression-diagnostics/internal/sample"
)

// #region distribution
// ComputeDistributionStats returns nil for an empty input. Non-finite values
// are dropped. Percentile p over n sorted values uses index round(p·(n−1)).
func ComputeDistributionStats(values []float64) *DistributionStats {
	sorted := make([]float64, 0, len(values))
	for _, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			continue
		}
		sorted = append(sorted, v)
	}
	if len(sorted) == 0 {
		return nil
	}
	sort.Float64s(sorted)

	var sum float64
	for _, v := range sorted {
		sum += v
	}
	return &DistributionStats{
		Min:    sorted[0],
		Median: percentile(sorted, 0.5),
		P90:    percentile(sorted, 0.9),
		P95:    percentile(sorted, 0.95),
		Max:    sorted[len(sorted)-1],
		Mean:   sum / float64(len(sorted)),
		Count:  len(sorted),
	}
}

func percentile(sorted []float64, p float64) float64 {
	n := len(sorted)
	idx := int(math.Round(p * float64(n-1)))
	if idx < 0 {
		idx = 0
	}
	if idx > n-1 {
		idx = n - 1
	}
	return sorted[idx]
}

// #endregion distribution

// #region wilson
// CalculateWilsonInterval returns the Wilson score interval for
// successes/total. total <= 0 yields {0, 1}. A non-positive z uses DefaultZ.
func CalculateWilsonInterval(successes, total int, z float64) Interval {
	if total <= 0 {
		return Interval{Low: 0, High: 1}
	}
	if z <= 0 || math.IsNaN(z) {
		z = DefaultZ
	}
	if successes < 0 {
		successes = 0
	}
	if successes > total {
		successes = total
	}
	n := float64(total)
	p := float64(successes) / n
	z2 := z * z
	denom := 1 + z2/n
	center := (p + z2/(2*n)) / denom
	margin := z * math.Sqrt(p*(1-p)/n+z2/(4*n*n)) / denom
	return Interval{
		Low:  prototype.Clamp01(center - margin),
		High: prototype.Clamp01(center + margin),
	}
}

// #endregion wilson

// #region axis-contributions
// ComputeAxisContributions averages, per weighted axis, the axis value and
// its weighted contribution across contexts. Mood axes are re-normalized from
// [-100,100] to [0,1]; sexual axes and traits are used as-is. Contexts missing
// an axis do not count toward that axis's mean.
func ComputeAxisContributions(contexts []sample.Context, weights map[string]float64) map[string]AxisContribution {
	out := make(map[string]AxisContribution, len(weights))
	for axis, w := range weights {
		if math.IsNaN(w) || math.IsInf(w, 0) {
			continue
		}
		var sum float64
		var n int
		for _, ctx := range contexts {
			raw, ok := sample.RawAxisValue(ctx, axis)
			if !ok {
				continue
			}
			sum += normalizeForContribution(axis, raw)
			n++
		}
		c := AxisContribution{Weight: w}
		if n > 0 {
			c.MeanAxisValue = sum / float64(n)
			c.MeanContribution = w * c.MeanAxisValue
		}
		out[axis] = c
	}
	return out
}

func normalizeForContribution(axis string, raw float64) float64 {
	if prototype.KindOf(axis) == prototype.AxisMood {
		return prototype.Clamp01((raw + sample.MoodScale) / (2 * sample.MoodScale))
	}
	return raw
}

// #endregion axis-contributions

// #region gate-rates
// ComputeGateFailureRates returns, per parseable gate, the fraction of
// contexts that fail that gate alone. Unparseable gates are skipped.
// An empty context set yields an empty map.
func ComputeGateFailureRates(gates []string, contexts []sample.Context) map[string]float64 {
	out := make(map[string]float64)
	if len(contexts) == 0 {
		return out
	}
	for _, g := range gates {
		c, ok := gate.ParseGate(g)
		if !ok {
			continue
		}
		fails := 0
		for _, ctx := range contexts {
			v, found := sample.AxisValue(ctx, c.Axis)
			if !found || !c.Passes(v) {
				fails++
			}
		}
		out[g] = float64(fails) / float64(len(contexts))
	}
	return out
}

// ComputeGatePassRate is the fraction of contexts passing every gate.
// It returns nil for no contexts and 1 for no gates.
func ComputeGatePassRate(gates []string, contexts []sample.Context) *float64 {
	if len(contexts) == 0 {
		return nil
	}
	rate := 1.0
	if len(gates) == 0 {
		return &rate
	}
	passes := 0
	for _, ctx := range contexts {
		if PassesGates(gates, ctx) {
			passes++
		}
	}
	rate = float64(passes) / float64(len(contexts))
	return &rate
}

// PassesGates evaluates gates against ctx on the gate scale.
func PassesGates(gates []string, ctx sample.Context) bool {
	return gate.EvaluateAll(gates, func(axis string) (float64, bool) {
		return sample.AxisValue(ctx, axis)
	})
}

// #endregion gate-rates

// #region regime-stats
// ComputePrototypeRegimeStats summarizes one prototype over contexts. With a
// resolver it reads raw/final/gate-pass signals from the gate trace; without
// one it falls back to the bare value at varPath, which becomes the only
// distribution.
func ComputePrototypeRegimeStats(contexts []sample.Context, varPath string, gates []string, weights map[string]float64, callbacks *RegimeCallbacks) PrototypeRegimeStats {
	var out PrototypeRegimeStats
	if len(weights) > 0 && len(contexts) > 0 {
		out.AxisContributions = ComputeAxisContributions(contexts, weights)
	}

	if callbacks != nil && callbacks.Resolve != nil {
		var raws, finals []float64
		traced, passes := 0, 0
		for _, ctx := range contexts {
			sig, ok := callbacks.Resolve(ctx)
			if !ok {
				continue
			}
			traced++
			raws = append(raws, sig.Raw)
			finals = append(finals, sig.Final)
			if sig.GatePass {
				passes++
			}
		}
		if traced > 0 {
			rate := float64(passes) / float64(traced)
			out.RawDistribution = ComputeDistributionStats(raws)
			out.FinalDistribution = ComputeDistributionStats(finals)
			out.GatePassRate = &rate
			return out
		}
	}

	var values []float64
	for _, ctx := range contexts {
		if v, ok := sample.Number(ctx, varPath); ok {
			values = append(values, v)
		}
	}
	out.FinalDistribution = ComputeDistributionStats(values)
	out.GatePassRate = ComputeGatePassRate(gates, contexts)
	return out
}

// TraceResolver builds RegimeCallbacks reading gateTrace.<varPath>, e.g.
// gateTrace.emotions.joy.
func TraceResolver(varPath string) *RegimeCallbacks {
	return &RegimeCallbacks{Resolve: func(ctx sample.Context) (TraceSignal, bool) {
		base := sample.KeyGateTrace + "." + varPath
		raw, okRaw := sample.Number(ctx, base+".raw")
		final, okFinal := sample.Number(ctx, base+".final")
		pass, okPass := sample.GetNestedValue(ctx, base+".gatePass")
		b, isBool := pass.(bool)
		if !okRaw || !okFinal || !okPass || !isBool {
			return TraceSignal{}, false
		}
		return TraceSignal{Raw: raw, Final: final, GatePass: b}, true
	}}
}

// #endregion regime-stats

// #region conditional-pass-rates
// ComputeConditionalPassRates evaluates each condition over contexts and
// sorts the results ascending by pass rate, most restrictive first.
func ComputeConditionalPassRates(contexts []sample.Context, conditions []Condition) []ConditionResult {
	out := make([]ConditionResult, 0, len(conditions))
	for _, c := range conditions {
		r := ConditionResult{Condition: c, Total: len(contexts)}
		op := expr.Operator(c.Operator)
		for _, ctx := range contexts {
			v, ok := sample.Number(ctx, c.VarPath)
			if ok && op.Compare(v, c.Threshold) {
				r.Passes++
			}
		}
		if r.Total > 0 {
			r.ConditionalPassRate = float64(r.Passes) / float64(r.Total)
		}
		r.CI = CalculateWilsonInterval(r.Passes, r.Total, DefaultZ)
		out = append(out, r)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].ConditionalPassRate < out[j].ConditionalPassRate
	})
	return out
}

// ConditionsFromLeaves turns prerequisite leaves into conditions.
func ConditionsFromLeaves(leaves []expr.Node) []Condition {
	out := make([]Condition, 0, len(leaves))
	for _, l := range leaves {
		out = append(out, Condition{VarPath: l.VarPath, Operator: string(l.Op), Threshold: l.Threshold})
	}
	return out
}

// #endregion conditional-pass-rates

// #region nested-value
// GetNestedValue is a safe dotted-path lookup; see sample.GetNestedValue.
func GetNestedValue(obj any, path string) (any, bool) {
	return sample.GetNestedValue(obj, path)
}

// #endregion nested-value

func formatThreshold(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
