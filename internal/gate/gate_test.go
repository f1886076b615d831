package gate

import (
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/danielpatrickdp/expression-diagnostics/internal/logging"
)

func newExtractor(t *testing.T) (*Extractor, *logging.Recorder) {
	t.Helper()
	rec := logging.NewRecorder()
	e, err := NewExtractor(rec, DefaultExtractorConfig())
	if err != nil {
		t.Fatalf("NewExtractor: %v", err)
	}
	return e, rec
}

func approx(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

// #region constructor-tests
func TestNewExtractor_RejectsBadConfig(t *testing.T) {
	if _, err := NewExtractor(nil, DefaultExtractorConfig()); !errors.Is(err, logging.ErrNilLogger) {
		t.Fatalf("expected ErrNilLogger, got %v", err)
	}
	for _, eps := range []float64{0, -0.1, math.NaN(), math.Inf(1)} {
		if _, err := NewExtractor(logging.Nop(), ExtractorConfig{StrictEpsilon: eps}); !errors.Is(err, ErrInvalidEpsilon) {
			t.Errorf("eps=%v: expected ErrInvalidEpsilon, got %v", eps, err)
		}
	}
}

// #endregion constructor-tests

// #region extract-tests
func TestExtract_SimpleBounds(t *testing.T) {
	e, _ := newExtractor(t)

	r := e.Extract([]string{"valence >= 0.20", "  threat<=0.5 "})

	if r.Status != StatusComplete {
		t.Fatalf("expected complete, got %s", r.Status)
	}
	v := r.Intervals["valence"]
	if v.Lower == nil || *v.Lower != 0.2 || v.Upper != nil {
		t.Errorf("unexpected valence interval %+v", v)
	}
	th := r.Intervals["threat"]
	if th.Upper == nil || *th.Upper != 0.5 || th.Lower != nil {
		t.Errorf("unexpected threat interval %+v", th)
	}
}

func TestExtract_StrictOperatorsUseEpsilon(t *testing.T) {
	e, err := NewExtractor(logging.Nop(), ExtractorConfig{StrictEpsilon: 0.01})
	if err != nil {
		t.Fatal(err)
	}

	r := e.Extract([]string{"arousal > 0.3", "arousal < 0.9"})

	a := r.Intervals["arousal"]
	if !approx(*a.Lower, 0.31) || !approx(*a.Upper, 0.89) {
		t.Errorf("expected [0.31, 0.89], got [%v, %v]", *a.Lower, *a.Upper)
	}
}

func TestExtract_IntersectsTightest(t *testing.T) {
	e, _ := newExtractor(t)

	r := e.Extract([]string{"valence >= 0.1", "valence >= 0.4", "valence <= 0.9", "valence <= 0.6"})

	v := r.Intervals["valence"]
	if *v.Lower != 0.4 || *v.Upper != 0.6 {
		t.Errorf("expected [0.4, 0.6], got [%v, %v]", *v.Lower, *v.Upper)
	}
	if v.Unsatisfiable {
		t.Error("should be satisfiable")
	}
}

func TestExtract_UnsatisfiableIsReportedNotDropped(t *testing.T) {
	e, rec := newExtractor(t)

	r := e.Extract([]string{"arousal >= 0.80", "arousal <= 0.20"})

	if len(r.Intervals) != 1 {
		t.Fatalf("expected 1 interval, got %d", len(r.Intervals))
	}
	a := r.Intervals["arousal"]
	if *a.Lower != 0.8 || *a.Upper != 0.2 || !a.Unsatisfiable {
		t.Errorf("unexpected interval %+v", a)
	}
	if !rec.Contains(logging.LevelWarn, "Unsatisfiable") {
		t.Error("expected warning mentioning Unsatisfiable")
	}
	if len(r.Warnings) != 1 || !strings.Contains(r.Warnings[0], "Unsatisfiable") {
		t.Errorf("expected warning in result, got %v", r.Warnings)
	}
	if r.Status != StatusComplete {
		t.Errorf("contradiction is data, status should stay complete, got %s", r.Status)
	}
}

func TestExtract_EqualBoundsSatisfiable(t *testing.T) {
	e, rec := newExtractor(t)

	r := e.Extract([]string{"threat >= 0.5", "threat <= 0.5"})

	if r.Intervals["threat"].Unsatisfiable {
		t.Error("equal bounds must not be unsatisfiable")
	}
	if len(rec.Messages(logging.LevelWarn)) != 0 {
		t.Error("no warning expected for equal bounds")
	}
}

func TestExtract_UnparsedGates(t *testing.T) {
	e, _ := newExtractor(t)

	tests := []struct {
		name     string
		gates    []string
		status   ParseStatus
		unparsed int
	}{
		{"empty list", nil, StatusComplete, 0},
		{"all bad", []string{"", "valence == 0.5", "a >= 1 && b <= 2"}, StatusFailed, 3},
		{"mixed", []string{"valence >= 0.5", "valence != 0.2"}, StatusPartial, 1},
		{"leading dot", []string{"valence >= .5"}, StatusFailed, 1},
		{"negative", []string{"valence >= -0.5"}, StatusComplete, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := e.Extract(tt.gates)
			if r.Status != tt.status {
				t.Errorf("expected %s, got %s", tt.status, r.Status)
			}
			if len(r.UnparsedGates) != tt.unparsed {
				t.Errorf("expected %d unparsed, got %v", tt.unparsed, r.UnparsedGates)
			}
		})
	}
}

func TestExtract_StatelessAndNoAliasing(t *testing.T) {
	e, _ := newExtractor(t)
	gates := []string{"valence >= 0.2", "arousal < 0.7", "bogus"}
	orig := append([]string(nil), gates...)

	r1 := e.Extract(gates)
	r2 := e.Extract(gates)

	for i := range gates {
		if gates[i] != orig[i] {
			t.Fatalf("input mutated at %d", i)
		}
	}
	for axis, a := range r1.Intervals {
		b := r2.Intervals[axis]
		if (a.Lower == nil) != (b.Lower == nil) || (a.Lower != nil && *a.Lower != *b.Lower) {
			t.Errorf("%s lower differs", axis)
		}
		if (a.Upper == nil) != (b.Upper == nil) || (a.Upper != nil && *a.Upper != *b.Upper) {
			t.Errorf("%s upper differs", axis)
		}
		if a.Lower != nil && a.Lower == b.Lower {
			t.Errorf("%s lower pointer shared across calls", axis)
		}
	}

	r1.Intervals["valence"] = AxisInterval{Axis: "changed"}
	r1.UnparsedGates[0] = "changed"
	if r2.Intervals["valence"].Axis != "valence" || r2.UnparsedGates[0] != "bogus" {
		t.Error("results alias each other")
	}
}

// #endregion extract-tests

// #region constraint-tests
func TestConstraintPasses(t *testing.T) {
	tests := []struct {
		gate string
		v    float64
		want bool
	}{
		{"valence >= 0.5", 0.5, true},
		{"valence > 0.5", 0.5, false},
		{"valence <= 0.5", 0.5, true},
		{"valence < 0.5", 0.5, false},
		{"valence < 0.5", 0.1, true},
	}
	for _, tt := range tests {
		c, ok := ParseGate(tt.gate)
		if !ok {
			t.Fatalf("failed to parse %q", tt.gate)
		}
		if got := c.Passes(tt.v); got != tt.want {
			t.Errorf("%q with %v: expected %v, got %v", tt.gate, tt.v, tt.want, got)
		}
	}
}

func TestEvaluateAll(t *testing.T) {
	state := map[string]float64{"valence": 0.4}
	lookup := func(axis string) (float64, bool) {
		v, ok := state[axis]
		return v, ok
	}

	if !EvaluateAll([]string{"valence >= 0.3", "not a gate"}, lookup) {
		t.Error("expected pass, unparseable gates are ignored")
	}
	if EvaluateAll([]string{"valence >= 0.5"}, lookup) {
		t.Error("expected fail")
	}
	if EvaluateAll([]string{"threat <= 0.5"}, lookup) {
		t.Error("missing axis should fail its gate")
	}
	if !EvaluateAll(nil, lookup) {
		t.Error("no gates always pass")
	}
}

// #endregion constraint-tests
