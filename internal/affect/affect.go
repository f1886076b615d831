// Package affect computes prototype intensities for a concrete axis state,
// the same way the runtime would, so sampled and searched states can be
// turned into evaluable contexts.
package affect

import (
	"fmt"
	"sort"

	"github.com/danielpatrickdp/expression-diagnostics/internal/gate"
	"github.com/danielpatrickdp/expression-diagnostics/internal/logging"
	"github.com/danielpatrickdp/expression-diagnostics/internal/prototype"
	"github.com/danielpatrickdp/expression-diagnostics/internal/sample"
)

// #region types
// State maps axis name to its value on the gate scale.
type State map[string]float64

// Clone returns an independent copy.
func (s State) Clone() State {
	out := make(State, len(s))
	for k, v := range s {
		out[k] = v
	}
	return out
}

// Trace records how one prototype scored in one state.
type Trace struct {
	Raw      float64
	Final    float64
	GatePass bool
}

// Snapshot holds every prototype intensity for a state.
type Snapshot struct {
	Emotions     map[string]float64
	SexualStates map[string]float64
	Traces       map[string]Trace // keyed by var path, e.g. "emotions.joy"
}

// #endregion types

// #region evaluator
// Evaluator scores states against a fixed prototype set.
type Evaluator struct {
	defs   []prototype.Definition
	logger logging.Logger
}

// NewEvaluator snapshots the registry's prototypes.
func NewEvaluator(registry *prototype.Registry, logger logging.Logger) (*Evaluator, error) {
	if logger == nil {
		return nil, fmt.Errorf("affect evaluator: %w", logging.ErrNilLogger)
	}
	if registry == nil {
		return nil, fmt.Errorf("affect evaluator: registry is required")
	}
	return &Evaluator{defs: registry.All(), logger: logger}, nil
}

// Evaluate scores every prototype. A prototype whose gates fail has Final 0.
func (e *Evaluator) Evaluate(state State) Snapshot {
	snap := Snapshot{
		Emotions:     make(map[string]float64),
		SexualStates: make(map[string]float64),
		Traces:       make(map[string]Trace, len(e.defs)),
	}
	for _, d := range e.defs {
		raw := d.Intensity(state)
		pass := gate.EvaluateAll(d.Gates, func(axis string) (float64, bool) {
			v, ok := state[axis]
			return v, ok
		})
		final := 0.0
		if pass {
			final = raw
		}
		snap.Traces[d.VarPath()] = Trace{Raw: raw, Final: final, GatePass: pass}
		if d.Category == prototype.CategorySexual {
			snap.SexualStates[d.ID] = final
		} else {
			snap.Emotions[d.ID] = final
		}
	}
	return snap
}

// Context renders state plus its snapshot in the sampled-context shape.
func (e *Evaluator) Context(state State) sample.Context {
	snap := e.Evaluate(state)

	mood := map[string]any{}
	sexual := map[string]any{}
	traits := map[string]any{}
	for axis, v := range state {
		switch prototype.KindOf(axis) {
		case prototype.AxisMood:
			mood[axis] = v * sample.MoodScale
		case prototype.AxisSexual:
			sexual[axis] = v
		case prototype.AxisAffectTrait:
			traits[axis] = v
		}
	}

	emotions := make(map[string]any, len(snap.Emotions))
	for k, v := range snap.Emotions {
		emotions[k] = v
	}
	sexualStates := make(map[string]any, len(snap.SexualStates))
	for k, v := range snap.SexualStates {
		sexualStates[k] = v
	}
	trace := map[string]any{
		sample.KeyEmotions:     map[string]any{},
		sample.KeySexualStates: map[string]any{},
	}
	for _, d := range e.defs {
		t := snap.Traces[d.VarPath()]
		trace[d.Category.VarPrefix()].(map[string]any)[d.ID] = map[string]any{
			"raw":      t.Raw,
			"final":    t.Final,
			"gatePass": t.GatePass,
		}
	}

	return sample.Context{
		sample.KeyMoodAxes:     mood,
		sample.KeySexualAxes:   sexual,
		sample.KeyAffectTraits: traits,
		sample.KeyEmotions:     emotions,
		sample.KeySexualStates: sexualStates,
		sample.KeyGateTrace:    trace,
	}
}

// Axes returns every axis referenced by a prototype weight or gate, plus
// extra, sorted and de-duplicated.
func (e *Evaluator) Axes(extra ...string) []string {
	seen := make(map[string]bool)
	for _, d := range e.defs {
		for axis := range d.Weights {
			seen[axis] = true
		}
		for _, g := range d.Gates {
			if c, ok := gate.ParseGate(g); ok {
				seen[c.Axis] = true
			}
		}
	}
	for _, a := range extra {
		if a != "" {
			seen[a] = true
		}
	}
	out := make([]string, 0, len(seen))
	for a := range seen {
		out = append(out, a)
	}
	sort.Strings(out)
	return out
}

// #endregion evaluator
