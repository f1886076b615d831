// Package witness searches the axis-state space for a state that satisfies
// an expression, or failing that, the state that comes closest.
package witness

import (
	"fmt"
	"math"
	"math/rand/v2"
	"time"

	"github.com/danielpatrickdp/expression-diagnostics/internal/affect"
	"github.com/danielpatrickdp/expression-diagnostics/internal/expr"
	"github.com/danielpatrickdp/expression-diagnostics/internal/logging"
	"github.com/danielpatrickdp/expression-diagnostics/internal/prototype"
	"github.com/danielpatrickdp/expression-diagnostics/internal/sample"
	"github.com/danielpatrickdp/expression-diagnostics/internal/simulate"
)

// adjustEpsilon keeps suggested strict thresholds on the passing side.
const adjustEpsilon = 1e-4

// #region searcher
// Searcher runs bounded witness searches over a fixed prototype set.
type Searcher struct {
	evaluator *affect.Evaluator
	logger    logging.Logger
	config    Config
}

// NewSearcher validates config and returns a Searcher.
func NewSearcher(evaluator *affect.Evaluator, logger logging.Logger, config Config) (*Searcher, error) {
	if logger == nil {
		return nil, fmt.Errorf("witness searcher: %w", logging.ErrNilLogger)
	}
	if evaluator == nil {
		return nil, fmt.Errorf("witness searcher: evaluator is required")
	}
	if config.MaxSamples <= 0 {
		return nil, fmt.Errorf("witness searcher: %w: max samples %d", ErrInvalidConfig, config.MaxSamples)
	}
	if config.HillClimbSteps < 0 || config.HillClimbSteps > config.MaxSamples {
		return nil, fmt.Errorf("witness searcher: %w: hill climb steps %d", ErrInvalidConfig, config.HillClimbSteps)
	}
	if !(config.StepSize > 0) || math.IsInf(config.StepSize, 0) {
		return nil, fmt.Errorf("witness searcher: %w: step size %v", ErrInvalidConfig, config.StepSize)
	}
	return &Searcher{evaluator: evaluator, logger: logger, config: config}, nil
}

// #endregion searcher

// #region search
type candidate struct {
	state affect.State
	ctx   sample.Context
	score float64
}

// Search looks for a state satisfying sim.Expression. Expressions whose
// observed rate exceeds TriggerRateThreshold are skipped. The search is
// deterministic for a fixed Seed.
func (s *Searcher) Search(sim SimulationResult) Result {
	if sim.TriggerRate > s.config.TriggerRateThreshold {
		s.logger.Debug("witness search skipped",
			"expression_id", sim.ExpressionID,
			"trigger_rate", sim.TriggerRate,
		)
		return Result{Skipped: true}
	}

	start := time.Now()
	root := sim.Expression
	rng := simulate.NewRand(s.config.Seed)
	axes := s.evaluator.Axes(simulate.DirectAxes(root)...)

	evaluated := 0
	var best *candidate
	found := false
	try := func(state affect.State) {
		ctx := s.evaluator.Context(state)
		c := candidate{state: state, ctx: ctx, score: Score(root, ctx)}
		evaluated++
		if best == nil || c.score > best.score {
			best = &c
		}
		if expr.Eval(root, ctx) {
			found = true
		}
	}

	exploreBudget := s.config.MaxSamples - s.config.HillClimbSteps
	if exploreBudget < 1 {
		exploreBudget = 1
	}

	// 1. Sampled contexts are the cheapest informed starting points.
	for _, ctx := range sim.Contexts {
		if found || evaluated >= exploreBudget/2 {
			break
		}
		try(seedState(rng, axes, sample.AxisState(ctx)))
	}

	// 2. Uniform exploration.
	for !found && evaluated < exploreBudget {
		try(simulate.RandomState(rng, axes))
	}

	// 3. Hill-climb around the best state.
	for !found && best != nil && evaluated < s.config.MaxSamples {
		try(s.perturb(rng, best.state, axes))
	}

	result := Result{
		Found:       found,
		SearchStats: SearchStats{SamplesEvaluated: evaluated, TimeMs: time.Since(start).Milliseconds()},
	}
	if best != nil {
		result.BestCandidateState = best.state.Clone()
		result.AndBlockScore = best.score
		if found {
			result.AndBlockScore = 1
		} else {
			result.BlockingClauses = BlockingClauses(root, best.ctx)
			result.MinimalAdjustments = MinimalAdjustments(result.BlockingClauses)
		}
	}

	s.logger.Debug("witness search complete",
		"expression_id", sim.ExpressionID,
		"found", result.Found,
		"score", result.AndBlockScore,
		"evaluated", evaluated,
	)
	return result
}

// seedState fills axes missing from a sampled context with random draws.
func seedState(rng *rand.Rand, axes []string, known map[string]float64) affect.State {
	state := simulate.RandomState(rng, axes)
	for axis, v := range known {
		if _, ok := state[axis]; ok {
			state[axis] = v
		}
	}
	return state
}

func (s *Searcher) perturb(rng *rand.Rand, state affect.State, axes []string) affect.State {
	next := state.Clone()
	if len(axes) == 0 {
		return next
	}
	// Move one or two axes at a time.
	moves := 1 + rng.IntN(2)
	for i := 0; i < moves; i++ {
		axis := axes[rng.IntN(len(axes))]
		lo, hi := prototype.DefaultRange(axis)
		v := next[axis] + rng.NormFloat64()*s.config.StepSize*(hi-lo)
		next[axis] = math.Max(lo, math.Min(hi, v))
	}
	return next
}

// #endregion search

// #region scoring
// Score rates how close ctx comes to satisfying n on [0,1]. AND nodes average
// their children, OR nodes take their best child, a passing leaf scores 1 and
// a failing leaf scores by closeness to its threshold (always below 1).
func Score(n expr.Node, ctx sample.Context) float64 {
	switch n.Kind {
	case expr.KindAnd:
		if len(n.Children) == 0 {
			return 1
		}
		sum := 0.0
		for _, c := range n.Children {
			sum += Score(c, ctx)
		}
		return sum / float64(len(n.Children))
	case expr.KindOr:
		best := 0.0
		for _, c := range n.Children {
			best = math.Max(best, Score(c, ctx))
		}
		return best
	case expr.KindLeaf:
		v, ok := sample.Number(ctx, n.VarPath)
		if !ok {
			return 0
		}
		if n.Op.Compare(v, n.Threshold) {
			return 1
		}
		span := 1.0
		if lo, hi, ok := sample.PathRange(n.VarPath); ok {
			span = hi - lo
		}
		closeness := 1 - math.Min(1, math.Abs(n.Threshold-v)/span)
		return 0.99 * closeness
	}
	return 0
}

// #endregion scoring

// #region blockers
// BlockingClauses lists the failing leaves that keep n from passing in ctx.
// Failing AND children are all descended into; for a failing OR only the
// closest alternative is.
func BlockingClauses(n expr.Node, ctx sample.Context) []BlockingClause {
	if expr.Eval(n, ctx) {
		return nil
	}
	switch n.Kind {
	case expr.KindAnd:
		var out []BlockingClause
		for _, c := range n.Children {
			out = append(out, BlockingClauses(c, ctx)...)
		}
		return out
	case expr.KindOr:
		if len(n.Children) == 0 {
			return nil
		}
		bestIdx, bestScore := 0, -1.0
		for i, c := range n.Children {
			if sc := Score(c, ctx); sc > bestScore {
				bestIdx, bestScore = i, sc
			}
		}
		return BlockingClauses(n.Children[bestIdx], ctx)
	case expr.KindLeaf:
		v, _ := sample.Number(ctx, n.VarPath)
		return []BlockingClause{{
			ClauseID:      n.ClauseID,
			Description:   n.Description(),
			VarPath:       n.VarPath,
			Operator:      n.Op,
			Threshold:     n.Threshold,
			ObservedValue: v,
			Gap:           math.Abs(n.Threshold - v),
		}}
	}
	return nil
}

// MinimalAdjustments moves each blocking threshold just far enough to pass
// at the observed value. "!=" clauses have no single-threshold fix.
func MinimalAdjustments(blocking []BlockingClause) []Adjustment {
	out := make([]Adjustment, 0, len(blocking))
	for _, b := range blocking {
		var suggested float64
		switch b.Operator {
		case expr.OpGTE, expr.OpLTE, expr.OpEQ:
			suggested = b.ObservedValue
		case expr.OpGT:
			suggested = b.ObservedValue - adjustEpsilon
		case expr.OpLT:
			suggested = b.ObservedValue + adjustEpsilon
		default:
			continue
		}
		out = append(out, Adjustment{
			ClauseID:           b.ClauseID,
			VarPath:            b.VarPath,
			Operator:           b.Operator,
			CurrentThreshold:   b.Threshold,
			SuggestedThreshold: suggested,
			Delta:              suggested - b.Threshold,
		})
	}
	return out
}

// #endregion blockers
