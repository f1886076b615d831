// Package simulate is an in-process Monte Carlo runner: it samples axis
// states uniformly over their default ranges, scores every prototype, and
// records how each clause of an expression fares.
package simulate

import (
	"fmt"
	"math/rand/v2"
	"strings"

	"github.com/danielpatrickdp/expression-diagnostics/internal/affect"
	"github.com/danielpatrickdp/expression-diagnostics/internal/expr"
	"github.com/danielpatrickdp/expression-diagnostics/internal/logging"
	"github.com/danielpatrickdp/expression-diagnostics/internal/prototype"
	"github.com/danielpatrickdp/expression-diagnostics/internal/sample"
	"github.com/danielpatrickdp/expression-diagnostics/internal/stats"
)

// #region runner
// Runner samples states for expressions over a fixed prototype set.
type Runner struct {
	evaluator *affect.Evaluator
	logger    logging.Logger
}

// NewRunner requires an evaluator and a logger.
func NewRunner(evaluator *affect.Evaluator, logger logging.Logger) (*Runner, error) {
	if logger == nil {
		return nil, fmt.Errorf("simulation runner: %w", logging.ErrNilLogger)
	}
	if evaluator == nil {
		return nil, fmt.Errorf("simulation runner: evaluator is required")
	}
	return &Runner{evaluator: evaluator, logger: logger}, nil
}

// #endregion runner

// #region run
// Run draws config.SampleCount states and evaluates root against each.
// The same seed always produces the same result.
func (r *Runner) Run(expressionID string, root expr.Node, config Config) Result {
	if config.SampleCount <= 0 {
		config.SampleCount = DefaultConfig().SampleCount
	}
	rng := NewRand(config.Seed)
	axes := r.evaluator.Axes(DirectAxes(root)...)
	regimeLeaves := RegimeLeaves(root)
	funnelLeaves := prototypeLeaves(root)

	result := Result{
		ExpressionID: expressionID,
		Expression:   root,
		SampleCount:  config.SampleCount,
		Breakdown:    expr.NewHierarchy(root),
	}
	clauses := make([]FunnelClause, len(funnelLeaves))
	for i, l := range funnelLeaves {
		clauses[i] = FunnelClause{ClauseID: l.ClauseID, Description: l.Description(), VarPath: l.VarPath}
	}
	var topOr *expr.HierarchicalNode
	if blocks := result.Breakdown.OrBlocks(); len(blocks) > 0 {
		topOr = blocks[0]
	}

	for i := 0; i < config.SampleCount; i++ {
		ctx := r.evaluator.Context(RandomState(rng, axes))
		inRegime := regimePass(ctx, regimeLeaves, config.RegimeGates)

		unionBefore := 0
		if topOr != nil {
			unionBefore = topOr.UnionPassCount
		}
		passed := expr.Record(result.Breakdown, root, ctx, inRegime)
		if passed {
			result.TriggerCount++
		}

		if config.KeepContexts {
			result.Contexts = append(result.Contexts, ctx)
		}
		if !inRegime {
			continue
		}
		result.RegimeCount++
		if config.KeepContexts {
			result.RegimeContexts = append(result.RegimeContexts, ctx)
		}
		if passed {
			result.Funnel.InRegimeTriggerCount++
		}
		if topOr != nil && topOr.UnionPassCount > unionBefore {
			result.Funnel.OrUnionPassCount++
		}
		for ci, l := range funnelLeaves {
			gp, _ := sample.GetNestedValue(ctx, sample.KeyGateTrace+"."+l.VarPath+".gatePass")
			pass, _ := gp.(bool)
			if !pass {
				continue
			}
			clauses[ci].GatePassCount++
			if expr.Eval(l, ctx) {
				clauses[ci].ThresholdPassCount++
			}
		}
	}

	result.Funnel.SampleCount = result.SampleCount
	result.Funnel.RegimePassCount = result.RegimeCount
	result.Funnel.Clauses = clauses
	result.Funnel.HasOrBlock = topOr != nil

	r.logger.Debug("simulation complete",
		"expression_id", expressionID,
		"samples", result.SampleCount,
		"triggers", result.TriggerCount,
		"regime", result.RegimeCount,
	)
	return result
}

// #endregion run

// #region sampling
// NewRand returns the deterministic generator used for a seed.
func NewRand(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed^0x9E3779B97F4A7C15))
}

// RandomState draws every axis uniformly from its default range.
func RandomState(rng *rand.Rand, axes []string) affect.State {
	s := make(affect.State, len(axes))
	for _, a := range axes {
		lo, hi := prototype.DefaultRange(a)
		s[a] = lo + rng.Float64()*(hi-lo)
	}
	return s
}

// #endregion sampling

// #region regime
// RegimeLeaves returns the raw-axis leaves every passing sample must satisfy:
// comparisons on moodAxes, sexualAxes or affectTraits reachable through AND
// nodes only.
func RegimeLeaves(root expr.Node) []expr.Node {
	var out []expr.Node
	for _, l := range expr.AndReachableLeaves(root) {
		if isAxisPath(l.VarPath) {
			out = append(out, l)
		}
	}
	return out
}

// DirectAxes lists axes referenced directly by leaves (e.g. moodAxes.threat).
func DirectAxes(root expr.Node) []string {
	var out []string
	for _, l := range expr.Leaves(root) {
		if isAxisPath(l.VarPath) {
			_, axis, _ := strings.Cut(l.VarPath, ".")
			out = append(out, axis)
		}
	}
	return out
}

func isAxisPath(p string) bool {
	prefix, rest, ok := strings.Cut(p, ".")
	if !ok || rest == "" {
		return false
	}
	switch prefix {
	case sample.KeyMoodAxes, sample.KeySexualAxes, sample.KeyAffectTraits:
		return true
	}
	return false
}

func regimePass(ctx sample.Context, leaves []expr.Node, gates []string) bool {
	for _, l := range leaves {
		if !expr.Eval(l, ctx) {
			return false
		}
	}
	return stats.PassesGates(gates, ctx)
}

func prototypeLeaves(root expr.Node) []expr.Node {
	var out []expr.Node
	for _, l := range expr.Leaves(root) {
		if _, _, ok := prototype.ParseVarPath(l.VarPath); ok {
			out = append(out, l)
		}
	}
	return out
}

// #endregion regime
