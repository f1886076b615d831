package stats

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/danielpatrickdp/expression-diagnostics/internal/expr"
	"github.com/danielpatrickdp/expression-diagnostics/internal/sample"
)

func moodCtx(axes map[string]float64) sample.Context {
	m := map[string]any{}
	for k, v := range axes {
		m[k] = v
	}
	return sample.Context{"moodAxes": m}
}

// #region distribution-tests
func TestComputeDistributionStats(t *testing.T) {
	assert.Nil(t, ComputeDistributionStats(nil))
	assert.Nil(t, ComputeDistributionStats([]float64{}))

	single := ComputeDistributionStats([]float64{5})
	require.NotNil(t, single)
	assert.Equal(t, DistributionStats{Min: 5, Median: 5, P90: 5, P95: 5, Max: 5, Mean: 5, Count: 1}, *single)

	values := []float64{10, 1, 2, 3, 4, 5, 6, 7, 8, 9}
	d := ComputeDistributionStats(values)
	require.NotNil(t, d)
	assert.Equal(t, 1.0, d.Min)
	assert.Equal(t, 10.0, d.Max)
	assert.Equal(t, 6.0, d.Median) // round(4.5)=5
	assert.Equal(t, 9.0, d.P90)    // round(8.1)=8
	assert.Equal(t, 10.0, d.P95)   // round(8.55)=9
	assert.InDelta(t, 5.5, d.Mean, 1e-9)
	assert.Equal(t, 10.0, values[0], "input must not be sorted in place")
}

// #endregion distribution-tests

// #region wilson-tests
func TestCalculateWilsonInterval(t *testing.T) {
	assert.Equal(t, Interval{Low: 0, High: 1}, CalculateWilsonInterval(0, 0, DefaultZ))

	small := CalculateWilsonInterval(5, 10, DefaultZ)
	large := CalculateWilsonInterval(500, 1000, DefaultZ)
	assert.Greater(t, small.Width(), large.Width())

	prev := 2.0
	for _, n := range []int{10, 100, 1000, 10000} {
		w := CalculateWilsonInterval(n/4, n, DefaultZ).Width()
		assert.Less(t, w, prev, "width should shrink at n=%d", n)
		prev = w
	}

	narrow := CalculateWilsonInterval(30, 100, 1.0)
	wide := CalculateWilsonInterval(30, 100, 2.58)
	assert.Greater(t, wide.Width(), narrow.Width())

	zero := CalculateWilsonInterval(0, 50, DefaultZ)
	assert.InDelta(t, 0.0, zero.Low, 1e-12)
	assert.Greater(t, zero.High, 0.0)

	all := CalculateWilsonInterval(50, 50, DefaultZ)
	assert.LessOrEqual(t, all.High, 1.0)
	assert.Less(t, all.Low, 1.0)
}

// #endregion wilson-tests

// #region contribution-tests
func TestComputeAxisContributions(t *testing.T) {
	contexts := []sample.Context{
		{"moodAxes": map[string]any{"valence": 100.0}, "sexualAxes": map[string]any{"sex_excitation": 0.2}},
		{"moodAxes": map[string]any{"valence": 0.0}, "sexualAxes": map[string]any{"sex_excitation": 0.6}},
	}

	got := ComputeAxisContributions(contexts, map[string]float64{"valence": 0.5, "sex_excitation": 2})

	require.Contains(t, got, "valence")
	assert.InDelta(t, 0.75, got["valence"].MeanAxisValue, 1e-9) // (1.0 + 0.5)/2
	assert.InDelta(t, 0.375, got["valence"].MeanContribution, 1e-9)
	assert.InDelta(t, 0.4, got["sex_excitation"].MeanAxisValue, 1e-9)
	assert.InDelta(t, 0.8, got["sex_excitation"].MeanContribution, 1e-9)
}

// #endregion contribution-tests

// #region gate-rate-tests
func TestComputeGateFailureRates(t *testing.T) {
	contexts := []sample.Context{
		moodCtx(map[string]float64{"valence": 50, "threat": 10}),
		moodCtx(map[string]float64{"valence": 10, "threat": 90}),
	}

	rates := ComputeGateFailureRates([]string{"valence >= 0.3", "threat <= 0.2", "garbage gate"}, contexts)

	assert.Len(t, rates, 2)
	assert.InDelta(t, 0.5, rates["valence >= 0.3"], 1e-9)
	assert.InDelta(t, 0.5, rates["threat <= 0.2"], 1e-9)
	assert.NotContains(t, rates, "garbage gate")
}

func TestComputeGatePassRate(t *testing.T) {
	contexts := []sample.Context{
		moodCtx(map[string]float64{"valence": 50, "threat": 10}),
		moodCtx(map[string]float64{"valence": 10, "threat": 90}),
		moodCtx(map[string]float64{"valence": 60, "threat": 50}),
	}

	assert.Nil(t, ComputeGatePassRate([]string{"valence >= 0.3"}, nil))

	empty := ComputeGatePassRate(nil, contexts)
	require.NotNil(t, empty)
	assert.Equal(t, 1.0, *empty)

	never := ComputeGatePassRate([]string{"valence >= 0.3", "valence >= 2.0"}, contexts)
	require.NotNil(t, never)
	assert.Equal(t, 0.0, *never)

	both := ComputeGatePassRate([]string{"valence >= 0.3", "threat <= 0.2"}, contexts)
	require.NotNil(t, both)
	assert.InDelta(t, 1.0/3.0, *both, 1e-9)
}

// #endregion gate-rate-tests

// #region regime-tests
func TestComputePrototypeRegimeStats_WithTrace(t *testing.T) {
	contexts := []sample.Context{
		{"gateTrace": map[string]any{"emotions": map[string]any{"joy": map[string]any{"raw": 0.6, "final": 0.6, "gatePass": true}}}},
		{"gateTrace": map[string]any{"emotions": map[string]any{"joy": map[string]any{"raw": 0.4, "final": 0.0, "gatePass": false}}}},
		{"emotions": map[string]any{"joy": 0.9}},
	}

	got := ComputePrototypeRegimeStats(contexts, "emotions.joy", nil, nil, TraceResolver("emotions.joy"))

	require.NotNil(t, got.RawDistribution)
	require.NotNil(t, got.FinalDistribution)
	require.NotNil(t, got.GatePassRate)
	assert.Equal(t, 2, got.RawDistribution.Count)
	assert.Equal(t, 0.6, got.RawDistribution.Max)
	assert.Equal(t, 0.0, got.FinalDistribution.Min)
	assert.InDelta(t, 0.5, *got.GatePassRate, 1e-9)
}

func TestComputePrototypeRegimeStats_Fallback(t *testing.T) {
	contexts := []sample.Context{
		{"emotions": map[string]any{"joy": 0.2}, "moodAxes": map[string]any{"valence": 40.0}},
		{"emotions": map[string]any{"joy": 0.8}, "moodAxes": map[string]any{"valence": 10.0}},
	}

	got := ComputePrototypeRegimeStats(contexts, "emotions.joy", []string{"valence >= 0.3"}, map[string]float64{"valence": 1}, nil)

	assert.Nil(t, got.RawDistribution)
	require.NotNil(t, got.FinalDistribution)
	assert.Equal(t, 0.5, got.FinalDistribution.Mean)
	require.NotNil(t, got.GatePassRate)
	assert.InDelta(t, 0.5, *got.GatePassRate, 1e-9)
	assert.Contains(t, got.AxisContributions, "valence")
}

// #endregion regime-tests

// #region conditional-tests
func TestComputeConditionalPassRates(t *testing.T) {
	contexts := []sample.Context{
		{"emotions": map[string]any{"joy": 0.9, "pride": 0.1}},
		{"emotions": map[string]any{"joy": 0.7, "pride": 0.6}},
		{"emotions": map[string]any{"joy": 0.2}},
	}
	conditions := []Condition{
		{VarPath: "emotions.joy", Operator: ">=", Threshold: 0.5},
		{VarPath: "emotions.pride", Operator: ">=", Threshold: 0.5},
	}

	got := ComputeConditionalPassRates(contexts, conditions)

	require.Len(t, got, 2)
	assert.Equal(t, "emotions.pride", got[0].Condition.VarPath, "most restrictive first")
	assert.Equal(t, 1, got[0].Passes)
	assert.Equal(t, 3, got[0].Total)
	assert.InDelta(t, 2.0/3.0, got[1].ConditionalPassRate, 1e-9)
	assert.Less(t, got[1].CI.Low, got[1].ConditionalPassRate)

	none := ComputeConditionalPassRates(nil, conditions)
	require.Len(t, none, 2)
	for _, r := range none {
		assert.Equal(t, 0, r.Passes)
		assert.Equal(t, 0, r.Total)
		assert.Equal(t, 0.0, r.ConditionalPassRate)
		assert.Equal(t, Interval{Low: 0, High: 1}, r.CI)
	}
}

func TestConditionsFromLeaves(t *testing.T) {
	leaves := []expr.Node{{Kind: expr.KindLeaf, VarPath: "emotions.joy", Op: expr.OpGTE, Threshold: 0.5}}
	got := ConditionsFromLeaves(leaves)
	require.Len(t, got, 1)
	assert.Equal(t, "emotions.joy >= 0.5", got[0].String())
}

func TestGetNestedValue(t *testing.T) {
	v, ok := GetNestedValue(map[string]any{"a": []any{map[string]any{"b": 2}}}, "a.0.b")
	assert.True(t, ok)
	assert.Equal(t, 2, v)

	_, ok = GetNestedValue(map[string]any{"a": nil}, "a.b")
	assert.False(t, ok)
}

// #endregion conditional-tests
