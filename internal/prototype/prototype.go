package prototype

import (
	"fmt"
	"math"
	"sort"
	"strings"
)

// #region constructor
// NewDefinition validates the raw content shape and returns a Definition that
// owns copies of weights and gates.
func NewDefinition(id string, category Category, weights map[string]float64, gates []string) (Definition, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return Definition{}, ErrEmptyID
	}
	if !category.Valid() {
		return Definition{}, fmt.Errorf("prototype %s: %w %q", id, ErrUnknownCategory, category)
	}
	w := make(map[string]float64, len(weights))
	for axis, v := range weights {
		if strings.TrimSpace(axis) == "" {
			return Definition{}, fmt.Errorf("prototype %s: %w", id, ErrEmptyAxis)
		}
		w[axis] = v
	}
	g := make([]string, len(gates))
	copy(g, gates)
	return Definition{ID: id, Category: category, Weights: w, Gates: g}, nil
}

// #endregion constructor

// #region accessors
// Axes returns the weighted axes in sorted order.
func (d Definition) Axes() []string {
	axes := make([]string, 0, len(d.Weights))
	for a := range d.Weights {
		axes = append(axes, a)
	}
	sort.Strings(axes)
	return axes
}

// AbsWeightSum returns Σ|w| over finite weights.
func (d Definition) AbsWeightSum() float64 {
	var sum float64
	for _, w := range d.Weights {
		if math.IsNaN(w) || math.IsInf(w, 0) {
			continue
		}
		sum += math.Abs(w)
	}
	return sum
}

// VarPath returns the context path that carries this prototype's intensity.
func (d Definition) VarPath() string {
	return d.Category.VarPrefix() + "." + d.ID
}

// Intensity computes the normalized weighted score for an axis state given on
// the gate scale, clamped to [0,1]. Missing axes count as 0.
func (d Definition) Intensity(axes map[string]float64) float64 {
	total := d.AbsWeightSum()
	if total == 0 {
		return 0
	}
	var sum float64
	for axis, w := range d.Weights {
		if math.IsNaN(w) || math.IsInf(w, 0) {
			continue
		}
		sum += w * axes[axis]
	}
	return Clamp01(sum / total)
}

// #endregion accessors

// #region helpers
// Clamp01 clamps v into [0,1]; NaN maps to 0.
func Clamp01(v float64) float64 {
	if math.IsNaN(v) || v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// #endregion helpers
