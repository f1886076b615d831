package editset

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/danielpatrickdp/expression-diagnostics/internal/bounds"
	"github.com/danielpatrickdp/expression-diagnostics/internal/expr"
	"github.com/danielpatrickdp/expression-diagnostics/internal/logging"
	"github.com/danielpatrickdp/expression-diagnostics/internal/prototype"
	"github.com/danielpatrickdp/expression-diagnostics/internal/sample"
	"github.com/danielpatrickdp/expression-diagnostics/internal/witness"
)

func newGenerator(t *testing.T, cfg Config) *Generator {
	t.Helper()
	g, err := NewGenerator(logging.Nop(), cfg)
	require.NoError(t, err)
	return g
}

func parse(t *testing.T, raw any) expr.Node {
	t.Helper()
	n, err := expr.Parse(raw)
	require.NoError(t, err)
	return n
}

func leaf(path, op string, v float64) map[string]any {
	return map[string]any{op: []any{map[string]any{"var": path}, v}}
}

func breakdown(root expr.Node, contexts []sample.Context) *expr.HierarchicalNode {
	h := expr.NewHierarchy(root)
	for _, ctx := range contexts {
		expr.Record(h, root, ctx, true)
	}
	return h
}

func allEdits(set EditSet) []Edit {
	var out []Edit
	if set.PrimaryRecommendation != nil {
		out = append(out, *set.PrimaryRecommendation)
	}
	return append(out, set.AlternativeEdits...)
}

// #region constructor-tests
func TestNewGenerator_Rejects(t *testing.T) {
	_, err := NewGenerator(nil, DefaultConfig())
	assert.ErrorIs(t, err, logging.ErrNilLogger)

	for _, band := range [][2]float64{{-0.1, 0.5}, {0.2, 0.1}, {0, 1.5}} {
		cfg := DefaultConfig()
		cfg.TargetBand = band
		_, err := NewGenerator(logging.Nop(), cfg)
		assert.ErrorIs(t, err, ErrInvalidBand, "band %v", band)
	}
}

// #endregion constructor-tests

// #region conflict-tests
func TestFitFeasibilityConflict_IsImmutable(t *testing.T) {
	top := []PrototypeScore{{VarPath: "emotions.calm", Score: 0.7}}
	ids := []string{"0.0"}
	fixes := []string{"use calm"}
	c := NewFitFeasibilityConflict(ConflictFitVsClauseImpossible, top, ids, "why", fixes)

	top[0].VarPath = "mutated"
	ids[0] = "mutated"
	fixes[0] = "mutated"
	got := c.TopPrototypes()
	got[0].Score = 99
	c.ImpossibleClauseIDs()[0] = "mutated"
	c.SuggestedFixes()[0] = "mutated"

	assert.Equal(t, ConflictFitVsClauseImpossible, c.Type())
	assert.Equal(t, "why", c.Explanation())
	assert.Equal(t, []PrototypeScore{{VarPath: "emotions.calm", Score: 0.7}}, c.TopPrototypes())
	assert.Equal(t, []string{"0.0"}, c.ImpossibleClauseIDs())
	assert.Equal(t, []string{"use calm"}, c.SuggestedFixes())

	empty := NewFitFeasibilityConflict(ConflictFitVsClauseImpossible, nil, nil, "", nil)
	assert.NotNil(t, empty.TopPrototypes())
	assert.NotNil(t, empty.ImpossibleClauseIDs())
	assert.NotNil(t, empty.SuggestedFixes())
}

func TestDetectConflict(t *testing.T) {
	findings := []bounds.UnreachableFinding{{ClauseID: "0.0", VarPath: "emotions.rage", PrototypeID: "rage", Category: prototype.CategoryEmotion}}

	assert.Nil(t, DetectConflict(nil, []PrototypeScore{{VarPath: "emotions.calm"}}))
	assert.Nil(t, DetectConflict(findings, nil))
	assert.Nil(t, DetectConflict(findings, []PrototypeScore{{VarPath: "emotions.rage", Score: 0.4}}))

	c := DetectConflict(findings, []PrototypeScore{{VarPath: "emotions.calm", Score: 0.61}, {VarPath: "emotions.rage", Score: 0.2}})
	require.NotNil(t, c)
	assert.Equal(t, []string{"0.0"}, c.ImpossibleClauseIDs())
	require.Len(t, c.SuggestedFixes(), 1)
	assert.Contains(t, c.SuggestedFixes()[0], "emotions.calm")
	assert.Contains(t, c.Explanation(), "emotions.calm, emotions.rage")
	assert.Equal(t, ConflictFitVsClauseImpossible, c.Type())
	assert.Equal(t, ConflictType("fit_vs_clause_impossible"), c.Type())
}

func TestDetectGateContradiction(t *testing.T) {
	assert.Nil(t, DetectGateContradiction(nil, nil))

	top := []PrototypeScore{{VarPath: "emotions.calm", Score: 0.5}}
	c := DetectGateContradiction([]GateContradiction{
		{VarPath: "emotions.torn", ClauseIDs: []string{"0.0", "0.2"}, Axes: []string{"valence"}},
	}, top)
	require.NotNil(t, c)
	assert.Equal(t, ConflictType("gate_contradiction"), c.Type())
	assert.Equal(t, []string{"0.0", "0.2"}, c.ImpossibleClauseIDs())
	assert.Equal(t, top, c.TopPrototypes())
	require.Len(t, c.SuggestedFixes(), 1)
	assert.Contains(t, c.SuggestedFixes()[0], "emotions.torn on valence")
	assert.Contains(t, c.Explanation(), "2 clause(s)")
}

func TestGenerate_GateContradictionTakesPrecedence(t *testing.T) {
	g := newGenerator(t, DefaultConfig())
	root := parse(t, map[string]any{"and": []any{leaf("emotions.torn", ">=", 0.2)}})
	finding := bounds.UnreachableFinding{ClauseID: "0.0", VarPath: "emotions.torn", PrototypeID: "torn",
		Category: prototype.CategoryEmotion, Operator: ">=", Threshold: 0.2, Gap: 0.2}

	set := g.Generate(Blockers{
		ExpressionID:       "torn",
		Expression:         root,
		Unreachable:        []bounds.UnreachableFinding{finding},
		TopPrototypes:      []PrototypeScore{{VarPath: "emotions.calm", Score: 0.4}},
		GateContradictions: []GateContradiction{{VarPath: "emotions.torn", ClauseIDs: []string{"0.0"}, Axes: []string{"valence"}}},
	})
	require.NotNil(t, set.Conflict)
	assert.Equal(t, ConflictGateContradiction, set.Conflict.Type())

	set = g.Generate(Blockers{
		ExpressionID:  "torn",
		Expression:    root,
		Unreachable:   []bounds.UnreachableFinding{finding},
		TopPrototypes: []PrototypeScore{{VarPath: "emotions.calm", Score: 0.4}},
	})
	require.NotNil(t, set.Conflict)
	assert.Equal(t, ConflictFitVsClauseImpossible, set.Conflict.Type())
}

// #endregion conflict-tests

// #region generate-tests

// rareContexts: joy on [0, 0.693] in steps of 0.007, valence alternating
// between +50 and -50 in blocks of 100.
func rareContexts() []sample.Context {
	out := make([]sample.Context, 0, 1000)
	for i := 0; i < 1000; i++ {
		valence := 50.0
		if (i/100)%2 == 1 {
			valence = -50
		}
		out = append(out, sample.Context{
			sample.KeyEmotions: map[string]any{"joy": float64(i%100) * 0.007},
			sample.KeyMoodAxes: map[string]any{"valence": valence},
		})
	}
	return out
}

func TestGenerate_RanksResampledRelaxationFirst(t *testing.T) {
	root := parse(t, map[string]any{"and": []any{
		leaf("emotions.joy", ">=", 0.9),
		leaf("moodAxes.valence", ">=", 0),
	}})
	contexts := rareContexts()
	w := witness.Result{
		MinimalAdjustments: []witness.Adjustment{{
			ClauseID: "0.0", VarPath: "emotions.joy", Operator: expr.OpGTE,
			CurrentThreshold: 0.9, SuggestedThreshold: 0.693, Delta: -0.207,
		}},
	}

	set := newGenerator(t, DefaultConfig()).Generate(Blockers{
		ExpressionID: "beaming",
		Expression:   root,
		TriggerRate:  0,
		SampleCount:  len(contexts),
		Unreachable: []bounds.UnreachableFinding{{
			ClauseID: "0.0", VarPath: "emotions.joy", PrototypeID: "joy", Category: prototype.CategoryEmotion,
			Operator: ">=", Threshold: 0.9, MaxPossible: 0.7, Gap: 0.2,
		}},
		Witness:   &w,
		Breakdown: breakdown(root, contexts),
		Contexts:  contexts,
	})

	require.NotNil(t, set.PrimaryRecommendation)
	primary := *set.PrimaryRecommendation
	assert.Equal(t, KindThresholdChange, primary.Kind)
	assert.Equal(t, "0.0", primary.ClauseID)
	assert.InDelta(t, 0.65, primary.Threshold, 1e-9)
	assert.InDelta(t, 0.035, primary.PredictedTriggerRate, 1e-9)
	assert.Equal(t, ValidationImportanceSampling, primary.ValidationMethod)
	assert.Equal(t, ConfidenceHigh, primary.Confidence)

	methods := map[ValidationMethod]Edit{}
	for _, e := range set.AlternativeEdits {
		methods[e.ValidationMethod] = e
	}
	require.Contains(t, methods, ValidationWitnessSearch)
	assert.InDelta(t, 0.69, methods[ValidationWitnessSearch].Threshold, 1e-9)
	assert.Equal(t, ConfidenceMedium, methods[ValidationWitnessSearch].Confidence)
	require.Contains(t, methods, ValidationStaticBounds)
	assert.InDelta(t, 0.7, methods[ValidationStaticBounds].Threshold, 1e-9)
	assert.Equal(t, ConfidenceHigh, methods[ValidationStaticBounds].Confidence)

	g := newGenerator(t, DefaultConfig())
	edits := allEdits(set)
	for i := 1; i < len(edits); i++ {
		assert.LessOrEqual(t, g.distance(edits[i-1].PredictedTriggerRate), g.distance(edits[i].PredictedTriggerRate))
	}

	found := false
	for _, note := range set.NotRecommended {
		if strings.Contains(note, "Convert AND at clause 0 to OR (predicted 50.00%)") {
			found = true
		}
	}
	assert.True(t, found, "structural swap should be listed as not recommended: %v", set.NotRecommended)
	assert.Nil(t, set.Conflict)
}

func TestGenerate_OvershootIsNotRecommended(t *testing.T) {
	root := parse(t, leaf("emotions.joy", ">=", 0.999))
	contexts := make([]sample.Context, 100)
	for i := range contexts {
		contexts[i] = sample.Context{sample.KeyEmotions: map[string]any{"joy": float64(i) / 100}}
	}

	set := newGenerator(t, DefaultConfig()).Generate(Blockers{
		Expression:  root,
		TriggerRate: 0,
		SampleCount: len(contexts),
		Unreachable: []bounds.UnreachableFinding{{ClauseID: "0", VarPath: "emotions.joy", Operator: ">=", Threshold: 0.999, MaxPossible: 0.5}},
		Contexts:    contexts,
	})

	assert.Nil(t, set.PrimaryRecommendation)
	assert.Empty(t, set.AlternativeEdits)
	require.Len(t, set.NotRecommended, 1)
	assert.Contains(t, set.NotRecommended[0], "overshoots the target band")
}

func TestGenerate_DeadWeightAlternative(t *testing.T) {
	root := parse(t, map[string]any{"or": []any{
		leaf("emotions.joy", ">=", 0.5),
		leaf("emotions.pride", ">=", 0.5),
	}})
	contexts := make([]sample.Context, 100)
	for i := range contexts {
		v := float64(i) / 100
		contexts[i] = sample.Context{sample.KeyEmotions: map[string]any{"joy": v, "pride": v}}
	}
	cfg := DefaultConfig()
	cfg.RestrictiveClauses = 0

	set := newGenerator(t, cfg).Generate(Blockers{
		Expression:  root,
		TriggerRate: 0.5,
		SampleCount: len(contexts),
		Breakdown:   breakdown(root, contexts),
		Contexts:    contexts,
	})

	edits := allEdits(set)
	require.Len(t, edits, 2)
	for _, e := range edits {
		assert.Equal(t, KindRemoveAlternative, e.Kind)
		assert.InDelta(t, 0.5, e.PredictedTriggerRate, 1e-9)
		assert.Equal(t, ConfidenceHigh, e.Confidence)
	}
	assert.Equal(t, "0.0", edits[0].ClauseID)
	require.NotEmpty(t, set.NotRecommended)
	assert.Contains(t, set.NotRecommended[0], "Convert OR at clause 0 to AND")
}

func TestGenerate_ExtrapolatesWithoutSamples(t *testing.T) {
	root := parse(t, map[string]any{"and": []any{leaf("emotions.joy", ">=", 0.9)}})
	h := expr.NewHierarchy(root)
	h.EvaluationCount, h.FailureCount = 100, 100
	h.Children[0].EvaluationCount, h.Children[0].FailureCount = 100, 100

	set := newGenerator(t, DefaultConfig()).Generate(Blockers{
		Expression:  root,
		TriggerRate: 0,
		SampleCount: 100,
		Breakdown:   h,
	})

	require.NotNil(t, set.PrimaryRecommendation)
	e := *set.PrimaryRecommendation
	assert.Equal(t, ValidationExtrapolation, e.ValidationMethod)
	assert.Equal(t, ConfidenceLow, e.Confidence)
	assert.InDelta(t, 0.67, e.Threshold, 1e-9)
	assert.Greater(t, e.PredictedTriggerRate, 0.0)
}

// #endregion generate-tests
