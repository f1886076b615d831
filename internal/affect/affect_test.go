package affect

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/danielpatrickdp/expression-diagnostics/internal/logging"
	"github.com/danielpatrickdp/expression-diagnostics/internal/prototype"
	"github.com/danielpatrickdp/expression-diagnostics/internal/sample"
)

func newEvaluator(t *testing.T) *Evaluator {
	t.Helper()
	joy, err := prototype.NewDefinition("joy", prototype.CategoryEmotion, map[string]float64{"valence": 1}, []string{"threat <= 0.3"})
	require.NoError(t, err)
	lust, err := prototype.NewDefinition("lust", prototype.CategorySexual, map[string]float64{"sex_excitation": 1}, nil)
	require.NoError(t, err)
	reg, err := prototype.NewRegistry(joy, lust)
	require.NoError(t, err)
	e, err := NewEvaluator(reg, logging.Nop())
	require.NoError(t, err)
	return e
}

// #region evaluate-tests
func TestEvaluate_GateZeroesFinal(t *testing.T) {
	e := newEvaluator(t)

	open := e.Evaluate(State{"valence": 0.8, "threat": 0.1, "sex_excitation": 0.4})
	assert.InDelta(t, 0.8, open.Emotions["joy"], 1e-9)
	assert.InDelta(t, 0.4, open.SexualStates["lust"], 1e-9)

	shut := e.Evaluate(State{"valence": 0.8, "threat": 0.9})
	assert.Equal(t, 0.0, shut.Emotions["joy"])
	tr := shut.Traces["emotions.joy"]
	assert.False(t, tr.GatePass)
	assert.InDelta(t, 0.8, tr.Raw, 1e-9)
}

func TestContext_Shape(t *testing.T) {
	e := newEvaluator(t)

	ctx := e.Context(State{"valence": 0.5, "threat": 0.1, "sex_excitation": 0.3, "harm_aversion": 0.7})

	v, ok := sample.Number(ctx, "moodAxes.valence")
	require.True(t, ok)
	assert.InDelta(t, 50, v, 1e-9)
	v, ok = sample.Number(ctx, "sexualAxes.sex_excitation")
	require.True(t, ok)
	assert.InDelta(t, 0.3, v, 1e-9)
	_, ok = sample.Number(ctx, "affectTraits.harm_aversion")
	assert.True(t, ok)
	v, ok = sample.Number(ctx, "emotions.joy")
	require.True(t, ok)
	assert.InDelta(t, 0.5, v, 1e-9)
	pass, ok := sample.GetNestedValue(ctx, "gateTrace.emotions.joy.gatePass")
	require.True(t, ok)
	assert.Equal(t, true, pass)
}

func TestAxes_IncludesGateAxes(t *testing.T) {
	e := newEvaluator(t)
	assert.Equal(t, []string{"arousal", "sex_excitation", "threat", "valence"}, e.Axes("arousal", ""))
}

// #endregion evaluate-tests
