package sample

import "testing"

// #region nested-value-tests
func TestGetNestedValue(t *testing.T) {
	ctx := Context{
		"emotions": map[string]any{"joy": 0.4},
		"history":  []any{map[string]any{"valence": 10}, nil},
		"nothing":  nil,
	}

	tests := []struct {
		path   string
		want   any
		wantOK bool
	}{
		{"emotions.joy", 0.4, true},
		{"history.0.valence", 10, true},
		{"history.1.valence", nil, false},
		{"history.9", nil, false},
		{"history.x", nil, false},
		{"nothing.deeper", nil, false},
		{"emotions.joy.deeper", nil, false},
		{"missing", nil, false},
		{"", nil, false},
	}
	for _, tt := range tests {
		got, ok := GetNestedValue(ctx, tt.path)
		if ok != tt.wantOK || got != tt.want {
			t.Errorf("%q: expected (%v,%v), got (%v,%v)", tt.path, tt.want, tt.wantOK, got, ok)
		}
	}

	if _, ok := GetNestedValue(nil, "a"); ok {
		t.Error("nil object should resolve nothing")
	}
}

func TestToFloat_RejectsNonFinite(t *testing.T) {
	if _, ok := ToFloat("1.0"); ok {
		t.Error("strings are not numbers")
	}
	zero := 0.0
	if _, ok := ToFloat(1 / zero); ok {
		t.Error("infinity should be rejected")
	}
	if f, ok := ToFloat(3); !ok || f != 3 {
		t.Errorf("expected 3, got %v %v", f, ok)
	}
}

// #endregion nested-value-tests

// #region axis-value-tests
func TestAxisValue_Scales(t *testing.T) {
	ctx := Context{
		"moodAxes":   map[string]any{"valence": 50.0},
		"sexualAxes": map[string]any{"sex_excitation": 0.7},
	}
	if v, ok := AxisValue(ctx, "valence"); !ok || v != 0.5 {
		t.Errorf("valence: expected 0.5, got %v", v)
	}
	if v, ok := RawAxisValue(ctx, "valence"); !ok || v != 50 {
		t.Errorf("raw valence: expected 50, got %v", v)
	}
	if v, ok := AxisValue(ctx, "sex_excitation"); !ok || v != 0.7 {
		t.Errorf("sex_excitation: expected 0.7, got %v", v)
	}
	if _, ok := AxisValue(ctx, "threat"); ok {
		t.Error("missing axis should not resolve")
	}

	state := AxisState(ctx)
	if state["valence"] != 0.5 || state["sex_excitation"] != 0.7 {
		t.Errorf("unexpected flattened state %v", state)
	}
}

// #endregion axis-value-tests

func TestPathRange(t *testing.T) {
	tests := []struct {
		path   string
		lo, hi float64
		ok     bool
	}{
		{"moodAxes.valence", -100, 100, true},
		{"emotions.joy", 0, 1, true},
		{"affectTraits.self_control", 0, 1, true},
		{"history.valence", 0, 0, false},
		{"emotions", 0, 0, false},
	}
	for _, tt := range tests {
		lo, hi, ok := PathRange(tt.path)
		if lo != tt.lo || hi != tt.hi || ok != tt.ok {
			t.Errorf("PathRange(%q) = (%v, %v, %v), want (%v, %v, %v)", tt.path, lo, hi, ok, tt.lo, tt.hi, tt.ok)
		}
	}
}
