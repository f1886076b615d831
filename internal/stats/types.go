package stats

import "github.com/danielpatrickdp/expression-diagnostics/internal/sample"

// #region distribution
// DistributionStats summarizes a set of values.
type DistributionStats struct {
	Min    float64
	Median float64
	P90    float64
	P95    float64
	Max    float64
	Mean   float64
	Count  int
}

// #endregion distribution

// #region interval
// Interval is a confidence interval clamped to [0,1].
type Interval struct {
	Low  float64
	High float64
}

// Width is High - Low.
func (i Interval) Width() float64 {
	return i.High - i.Low
}

// DefaultZ is the two-sided 95% normal quantile.
const DefaultZ = 1.96

// #endregion interval

// #region axis-contribution
// AxisContribution decomposes a prototype's mean score by axis.
type AxisContribution struct {
	Weight           float64
	MeanAxisValue    float64
	MeanContribution float64
}

// #endregion axis-contribution

// #region regime-stats
// TraceSignal is the gate-trace entry for one prototype in one sample.
type TraceSignal struct {
	Raw      float64
	Final    float64
	GatePass bool
}

// RegimeCallbacks lets callers supply pre-computed per-sample signals.
// Resolve returns false when a context carries no trace for the prototype.
type RegimeCallbacks struct {
	Resolve func(ctx sample.Context) (TraceSignal, bool)
}

// PrototypeRegimeStats is the result of ComputePrototypeRegimeStats.
// RawDistribution is nil when no gate trace was available.
type PrototypeRegimeStats struct {
	RawDistribution   *DistributionStats
	FinalDistribution *DistributionStats
	GatePassRate      *float64
	AxisContributions map[string]AxisContribution
}

// #endregion regime-stats

// #region condition
// Condition is one "varPath op threshold" test applied to samples.
type Condition struct {
	VarPath   string
	Operator  string
	Threshold float64
}

func (c Condition) String() string {
	return c.VarPath + " " + c.Operator + " " + formatThreshold(c.Threshold)
}

// ConditionResult is the pass rate of one condition over a sample set.
type ConditionResult struct {
	Condition           Condition
	ConditionalPassRate float64
	Passes              int
	Total               int
	CI                  Interval
}

// #endregion condition
