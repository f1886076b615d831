// Package sample describes the shape of one Monte Carlo sampled context and
// provides safe accessors over it.
package sample

import (
	"math"
	"strconv"
	"strings"

	"github.com/danielpatrickdp/expression-diagnostics/internal/prototype"
)

// #region context
// Context is one sampled snapshot as produced by a simulation runner:
//
//	moodAxes      map[string]any   raw values on [-100,100]
//	sexualAxes    map[string]any   values on [0,1]
//	affectTraits  map[string]any   values on [0,1]
//	emotions      map[string]any   intensities on [0,1]
//	sexualStates  map[string]any   intensities on [0,1]
//	gateTrace     map[string]any   optional {emotions,sexualStates}.<id> -> {raw, final, gatePass}
type Context = map[string]any

const (
	KeyMoodAxes     = "moodAxes"
	KeySexualAxes   = "sexualAxes"
	KeyAffectTraits = "affectTraits"
	KeyEmotions     = "emotions"
	KeySexualStates = "sexualStates"
	KeyGateTrace    = "gateTrace"
)

// MoodScale is the native magnitude of mood axes in sampled contexts.
const MoodScale = 100.0

// #endregion context

// #region nested-value
// GetNestedValue resolves a dotted path such as "emotions.joy" or
// "history.2.valence". Numeric segments index into slices. Any missing or nil
// intermediate yields (nil, false); it never panics.
func GetNestedValue(obj any, path string) (any, bool) {
	if obj == nil || path == "" {
		return nil, false
	}
	cur := obj
	for _, seg := range strings.Split(path, ".") {
		if cur == nil {
			return nil, false
		}
		switch node := cur.(type) {
		case map[string]any:
			v, ok := node[seg]
			if !ok {
				return nil, false
			}
			cur = v
		case map[string]float64:
			v, ok := node[seg]
			if !ok {
				return nil, false
			}
			cur = v
		case []any:
			idx, err := strconv.Atoi(seg)
			if err != nil || idx < 0 || idx >= len(node) {
				return nil, false
			}
			cur = node[idx]
		case []float64:
			idx, err := strconv.Atoi(seg)
			if err != nil || idx < 0 || idx >= len(node) {
				return nil, false
			}
			cur = node[idx]
		default:
			return nil, false
		}
	}
	if cur == nil {
		return nil, false
	}
	return cur, true
}

// Number resolves path and converts the result to a finite float64.
func Number(obj any, path string) (float64, bool) {
	v, ok := GetNestedValue(obj, path)
	if !ok {
		return 0, false
	}
	return ToFloat(v)
}

// ToFloat converts the numeric shapes produced by JSON and YAML decoders.
// NaN and infinities are rejected.
func ToFloat(v any) (float64, bool) {
	var f float64
	switch n := v.(type) {
	case float64:
		f = n
	case float32:
		f = float64(n)
	case int:
		f = float64(n)
	case int64:
		f = float64(n)
	case int32:
		f = float64(n)
	case uint64:
		f = float64(n)
	default:
		return 0, false
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// #endregion nested-value

// #region axis-values
// RawAxisValue returns an axis value on its native context scale.
func RawAxisValue(ctx Context, axis string) (float64, bool) {
	return Number(ctx, prototype.KindOf(axis).ContextKey()+"."+axis)
}

// AxisValue returns an axis value on the gate scale: mood axes divided by
// MoodScale, everything else as-is.
func AxisValue(ctx Context, axis string) (float64, bool) {
	v, ok := RawAxisValue(ctx, axis)
	if !ok {
		return 0, false
	}
	if prototype.KindOf(axis) == prototype.AxisMood {
		return v / MoodScale, true
	}
	return v, true
}

// AxisState flattens every known axis of ctx onto the gate scale.
func AxisState(ctx Context) map[string]float64 {
	out := make(map[string]float64)
	for _, key := range []string{KeyMoodAxes, KeySexualAxes, KeyAffectTraits} {
		m, ok := ctx[key].(map[string]any)
		if !ok {
			continue
		}
		for axis, raw := range m {
			f, ok := ToFloat(raw)
			if !ok {
				continue
			}
			if key == KeyMoodAxes {
				f /= MoodScale
			}
			out[axis] = f
		}
	}
	return out
}

// #endregion axis-values

// #region ranges
// PathRange returns the value range of a context variable on its native
// scale. ok is false for paths outside the known top-level keys.
func PathRange(path string) (lo, hi float64, ok bool) {
	prefix, rest, found := strings.Cut(path, ".")
	if !found || rest == "" {
		return 0, 0, false
	}
	switch prefix {
	case KeyMoodAxes:
		return -MoodScale, MoodScale, true
	case KeySexualAxes, KeyAffectTraits, KeyEmotions, KeySexualStates:
		return 0, 1, true
	}
	return 0, 0, false
}

// #endregion ranges
