package expr

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/danielpatrickdp/expression-diagnostics/internal/sample"
)

func mustParseJSON(t *testing.T, src string) Node {
	t.Helper()
	var raw any
	if err := json.Unmarshal([]byte(src), &raw); err != nil {
		t.Fatalf("json: %v", err)
	}
	n, err := Parse(raw)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	return n
}

// #region parse-tests
func TestParse_NestedTree(t *testing.T) {
	n := mustParseJSON(t, `{"and": [
		{">=": [{"var": "emotions.joy"}, 0.5]},
		{"or": [
			{">=": [{"var": "emotions.pride"}, 0.3]},
			{"<": [0.2, {"var": "moodAxes.threat"}]}
		]}
	]}`)

	if n.Kind != KindAnd || len(n.Children) != 2 {
		t.Fatalf("unexpected root %+v", n)
	}
	or := n.Children[1]
	if or.Kind != KindOr || or.ClauseID != "0.1" {
		t.Fatalf("unexpected or node %+v", or)
	}
	flipped := or.Children[1]
	if flipped.Op != OpGT || flipped.VarPath != "moodAxes.threat" || flipped.Threshold != 0.2 {
		t.Errorf("expected flipped leaf threat > 0.2, got %+v", flipped)
	}
	if got := n.Children[0].Description(); got != "emotions.joy >= 0.50" {
		t.Errorf("unexpected description %q", got)
	}
}

func TestParse_TopLevelListIsAnd(t *testing.T) {
	n := mustParseJSON(t, `[{">=": [{"var": "emotions.joy"}, 0.5]}]`)
	if n.Kind != KindAnd || len(n.Children) != 1 {
		t.Fatalf("expected implicit and, got %+v", n)
	}
}

func TestParse_Rejects(t *testing.T) {
	tests := []struct {
		name string
		raw  any
		want error
	}{
		{"nil", nil, ErrEmptyExpression},
		{"empty list", []any{}, ErrEmptyExpression},
		{"unknown op", map[string]any{"xor": []any{}}, ErrUnsupportedShape},
		{"empty and", map[string]any{"and": []any{}}, ErrUnsupportedShape},
		{"two vars", map[string]any{">=": []any{map[string]any{"var": "a"}, map[string]any{"var": "b"}}}, ErrUnsupportedShape},
		{"two keys", map[string]any{"and": []any{}, "or": []any{}}, ErrUnsupportedShape},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Parse(tt.raw); !errors.Is(err, tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestParse_YAMLMapShape(t *testing.T) {
	raw := map[any]any{">=": []any{map[any]any{"var": "emotions.joy"}, 1}}
	n, err := Parse(raw)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if n.Threshold != 1 || n.VarPath != "emotions.joy" {
		t.Errorf("unexpected leaf %+v", n)
	}
}

// #endregion parse-tests

// #region eval-tests
func TestEval(t *testing.T) {
	n := mustParseJSON(t, `{"and": [
		{">=": [{"var": "emotions.joy"}, 0.5]},
		{"or": [
			{">=": [{"var": "emotions.pride"}, 0.3]},
			{"<=": [{"var": "moodAxes.threat"}, 10]}
		]}
	]}`)

	ctx := sample.Context{
		"emotions": map[string]any{"joy": 0.6, "pride": 0.1},
		"moodAxes": map[string]any{"threat": 5.0},
	}
	if !Eval(n, ctx) {
		t.Error("expected pass via threat alternative")
	}
	ctx["moodAxes"] = map[string]any{"threat": 50.0}
	if Eval(n, ctx) {
		t.Error("expected fail: both alternatives fail")
	}
	delete(ctx, "emotions")
	if Eval(n, ctx) {
		t.Error("missing variable must fail")
	}
}

func TestAndReachableLeaves(t *testing.T) {
	n := mustParseJSON(t, `{"and": [
		{">=": [{"var": "moodAxes.valence"}, 10]},
		{"and": [{">=": [{"var": "emotions.joy"}, 0.5]}]},
		{"or": [{">=": [{"var": "emotions.pride"}, 0.3]}]}
	]}`)

	leaves := AndReachableLeaves(n)
	if len(leaves) != 2 {
		t.Fatalf("expected 2 and-reachable leaves, got %d", len(leaves))
	}
	if len(Leaves(n)) != 3 {
		t.Errorf("expected 3 leaves total")
	}
	if found, ok := Find(n, "0.2.0"); !ok || found.VarPath != "emotions.pride" {
		t.Errorf("Find returned %+v %v", found, ok)
	}
}

// #endregion eval-tests

// #region hierarchy-tests
func TestRecord_OrBlockCounts(t *testing.T) {
	n := mustParseJSON(t, `{"or": [
		{">=": [{"var": "emotions.a"}, 0.5]},
		{">=": [{"var": "emotions.b"}, 0.5]},
		{">=": [{"var": "emotions.c"}, 0.5]}
	]}`)
	h := NewHierarchy(n)

	samples := []map[string]float64{
		{"a": 0.9, "b": 0.9, "c": 0.0}, // a+b
		{"a": 0.9, "b": 0.0, "c": 0.0}, // a only
		{"a": 0.0, "b": 0.0, "c": 0.0}, // none
		{"a": 0.9, "b": 0.9, "c": 0.9}, // all
	}
	for i, s := range samples {
		emotions := map[string]any{}
		for k, v := range s {
			emotions[k] = v
		}
		Record(h, n, map[string]any{"emotions": emotions}, i%2 == 0)
	}

	if h.EvaluationCount != 4 || h.UnionPassCount != 3 || h.ExclusivePassCount != 1 {
		t.Errorf("unexpected or counts: eval=%d union=%d exclusive=%d", h.EvaluationCount, h.UnionPassCount, h.ExclusivePassCount)
	}
	if h.InRegimeEvaluationCount != 2 || h.InRegimeUnionPassCount != 1 {
		t.Errorf("unexpected regime counts: %d %d", h.InRegimeEvaluationCount, h.InRegimeUnionPassCount)
	}
	a := h.Children[0]
	if a.OrPassCount != 3 || a.OrExclusivePassCount != 1 {
		t.Errorf("unexpected a counts: pass=%d exclusive=%d", a.OrPassCount, a.OrExclusivePassCount)
	}
	x, y, c, ok := h.TopCoPassPair()
	if !ok || x != "0.0" || y != "0.1" || c != 2 {
		t.Errorf("expected top pair 0.0/0.1 x2, got %s/%s x%d", x, y, c)
	}
	if len(h.OrBlocks()) != 1 || len(h.LeafNodes()) != 3 {
		t.Error("unexpected collection sizes")
	}
	if got := h.FailureRate(); got != 0.25 {
		t.Errorf("expected failure rate 0.25, got %v", got)
	}
}

// #endregion hierarchy-tests
