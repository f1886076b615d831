// Package analysis runs the full diagnostics pipeline for expressions:
// static reachability, Monte Carlo simulation, statistics, witness search,
// edit generation and report synthesis.
package analysis

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/danielpatrickdp/expression-diagnostics/internal/affect"
	"github.com/danielpatrickdp/expression-diagnostics/internal/bounds"
	"github.com/danielpatrickdp/expression-diagnostics/internal/content"
	"github.com/danielpatrickdp/expression-diagnostics/internal/editset"
	"github.com/danielpatrickdp/expression-diagnostics/internal/expr"
	"github.com/danielpatrickdp/expression-diagnostics/internal/gate"
	"github.com/danielpatrickdp/expression-diagnostics/internal/logging"
	"github.com/danielpatrickdp/expression-diagnostics/internal/prototype"
	"github.com/danielpatrickdp/expression-diagnostics/internal/report"
	"github.com/danielpatrickdp/expression-diagnostics/internal/sample"
	"github.com/danielpatrickdp/expression-diagnostics/internal/simulate"
	"github.com/danielpatrickdp/expression-diagnostics/internal/stats"
	"github.com/danielpatrickdp/expression-diagnostics/internal/witness"
)

// #region engine
// Engine holds the stage components for one prototype registry. It keeps no
// per-analysis state, so analyses may run concurrently.
type Engine struct {
	registry   *prototype.Registry
	logger     logging.Logger
	config     Config
	extractor  *gate.Extractor
	calculator *bounds.Calculator
	evaluator  *affect.Evaluator
	runner     *simulate.Runner
	searcher   *witness.Searcher
	generator  *editset.Generator
	reporter   *report.Generator
}

// NewEngine builds every stage, failing on the first invalid configuration.
func NewEngine(registry *prototype.Registry, logger logging.Logger, config Config) (*Engine, error) {
	if logger == nil {
		return nil, fmt.Errorf("analysis engine: %w", logging.ErrNilLogger)
	}
	if registry == nil {
		return nil, fmt.Errorf("analysis engine: registry is required")
	}
	if config.Parallelism <= 0 {
		config.Parallelism = 1
	}

	e := &Engine{registry: registry, logger: logger, config: config}
	var err error
	if e.extractor, err = gate.NewExtractor(logger, config.Extractor); err != nil {
		return nil, fmt.Errorf("analysis engine: %w", err)
	}
	if e.calculator, err = bounds.NewCalculator(registry, logger); err != nil {
		return nil, fmt.Errorf("analysis engine: %w", err)
	}
	if e.evaluator, err = affect.NewEvaluator(registry, logger); err != nil {
		return nil, fmt.Errorf("analysis engine: %w", err)
	}
	if e.runner, err = simulate.NewRunner(e.evaluator, logger); err != nil {
		return nil, fmt.Errorf("analysis engine: %w", err)
	}
	if e.searcher, err = witness.NewSearcher(e.evaluator, logger, config.Witness); err != nil {
		return nil, fmt.Errorf("analysis engine: %w", err)
	}
	if e.generator, err = editset.NewGenerator(logger, config.EditSet); err != nil {
		return nil, fmt.Errorf("analysis engine: %w", err)
	}
	if e.reporter, err = report.NewGenerator(logger); err != nil {
		return nil, fmt.Errorf("analysis engine: %w", err)
	}
	return e, nil
}

// #endregion engine

// #region analyze
// Analyze diagnoses one expression. The only error is ctx cancellation.
func (e *Engine) Analyze(ctx context.Context, ex content.Expression) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}
	root := ex.Root

	unreachable := e.Reachability(root)

	simConfig := e.config.Simulation
	simConfig.KeepContexts = true
	sim := e.runner.Run(ex.ID, root, simConfig)
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}

	sections := e.prototypeSections(root, sim)
	conditions := stats.ComputeConditionalPassRates(sim.RegimeContexts, stats.ConditionsFromLeaves(expr.Leaves(root)))

	w := e.searcher.Search(witness.SimulationResult{
		ExpressionID: ex.ID,
		Expression:   root,
		TriggerRate:  sim.TriggerRate(),
		SampleCount:  sim.SampleCount,
		Contexts:     sim.RegimeContexts,
	})
	var witnessCtx sample.Context
	if w.BestCandidateState != nil {
		witnessCtx = e.evaluator.Context(w.BestCandidateState)
	}

	set := e.generator.Generate(editset.Blockers{
		ExpressionID:  ex.ID,
		Expression:    root,
		TriggerRate:   sim.TriggerRate(),
		SampleCount:   sim.SampleCount,
		Unreachable:   unreachable,
		Witness:       &w,
		Breakdown:     sim.Breakdown,
		Contexts:      sim.Contexts,
		TopPrototypes: e.topPrototypes(sim.RegimeContexts),

		GateContradictions: e.GateContradictions(root),
	})

	blocks := e.reporter.Generate(report.Input{
		ExpressionID:   ex.ID,
		Expression:     root,
		Simulation:     &sim,
		Prototypes:     sections,
		Conditions:     conditions,
		Unreachable:    unreachable,
		Witness:        &w,
		WitnessContext: witnessCtx,
		EditSet:        &set,
	})

	sim.Contexts, sim.RegimeContexts = nil, nil
	e.logger.Debug("expression analyzed",
		"expression_id", ex.ID,
		"trigger_rate", sim.TriggerRate(),
		"unreachable", len(unreachable),
	)
	return Result{
		ExpressionID: ex.ID,
		TriggerRate:  sim.TriggerRate(),
		Tier:         report.ClassifyTier(sim.TriggerCount, sim.SampleCount),
		Simulation:   sim,
		Unreachable:  unreachable,
		Witness:      w,
		EditSet:      set,
		Report:       blocks,
	}, nil
}

// AnalyzeAll diagnoses expressions concurrently, at most Parallelism at a
// time. Results keep the input order.
func (e *Engine) AnalyzeAll(ctx context.Context, expressions []content.Expression) ([]Result, error) {
	results := make([]Result, len(expressions))
	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(e.config.Parallelism)
	for i, ex := range expressions {
		g.Go(func() error {
			r, err := e.Analyze(gCtx, ex)
			if err != nil {
				return fmt.Errorf("analyze %s: %w", ex.ID, err)
			}
			results[i] = r
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// #endregion analyze

// #region reachability
// Reachability checks every prototype leaf of root against the prototype's
// own gates combined with the axis bounds the expression itself imposes.
func (e *Engine) Reachability(root expr.Node) []bounds.UnreachableFinding {
	regime := RegimeGates(root)
	regime = append(regime, e.config.Simulation.RegimeGates...)

	findings := []bounds.UnreachableFinding{}
	for _, leaf := range expr.Leaves(root) {
		category, id, ok := prototype.ParseVarPath(leaf.VarPath)
		if !ok {
			continue
		}
		def, ok := e.registry.Lookup(category, id)
		if !ok {
			e.logger.Warn("expression references unknown prototype", "var_path", leaf.VarPath, "clause_id", leaf.ClauseID)
			continue
		}
		gates := append(append([]string{}, def.Gates...), regime...)
		constraints := e.extractor.Extract(gates).Intervals
		findings = append(findings, e.calculator.AnalyzeExpression(leaf, constraints)...)
	}
	return findings
}

// GateContradictions lists the referenced prototypes whose own gates extract
// to an unsatisfiable interval, with the clauses that reference them.
func (e *Engine) GateContradictions(root expr.Node) []editset.GateContradiction {
	var out []editset.GateContradiction
	index := make(map[string]int)
	for _, leaf := range expr.Leaves(root) {
		if i, ok := index[leaf.VarPath]; ok {
			if i >= 0 {
				out[i].ClauseIDs = append(out[i].ClauseIDs, leaf.ClauseID)
			}
			continue
		}
		index[leaf.VarPath] = -1
		category, id, ok := prototype.ParseVarPath(leaf.VarPath)
		if !ok {
			continue
		}
		def, ok := e.registry.Lookup(category, id)
		if !ok {
			continue
		}
		var axes []string
		for axis, iv := range e.extractor.Extract(def.Gates).Intervals {
			if iv.Unsatisfiable {
				axes = append(axes, axis)
			}
		}
		if len(axes) == 0 {
			continue
		}
		sort.Strings(axes)
		index[leaf.VarPath] = len(out)
		out = append(out, editset.GateContradiction{VarPath: leaf.VarPath, ClauseIDs: []string{leaf.ClauseID}, Axes: axes})
	}
	return out
}

// RegimeGates rewrites the expression's AND-reachable axis comparisons as
// gate strings on the gate scale, e.g. moodAxes.valence >= 20 becomes
// "valence >= 0.2".
func RegimeGates(root expr.Node) []string {
	var out []string
	for _, leaf := range simulate.RegimeLeaves(root) {
		switch leaf.Op {
		case expr.OpGTE, expr.OpGT, expr.OpLTE, expr.OpLT:
		default:
			continue
		}
		_, axis, _ := strings.Cut(leaf.VarPath, ".")
		v := leaf.Threshold
		if strings.HasPrefix(leaf.VarPath, sample.KeyMoodAxes+".") {
			v /= sample.MoodScale
		}
		out = append(out, axis+" "+string(leaf.Op)+" "+strconv.FormatFloat(v, 'f', -1, 64))
	}
	return out
}

// #endregion reachability

// #region regime-stats
func (e *Engine) prototypeSections(root expr.Node, sim simulate.Result) []report.PrototypeSection {
	seen := make(map[string]bool)
	var out []report.PrototypeSection
	for _, leaf := range expr.Leaves(root) {
		if seen[leaf.VarPath] {
			continue
		}
		seen[leaf.VarPath] = true
		category, id, ok := prototype.ParseVarPath(leaf.VarPath)
		if !ok {
			continue
		}
		def, ok := e.registry.Lookup(category, id)
		if !ok {
			continue
		}
		resolver := stats.TraceResolver(leaf.VarPath)
		out = append(out, report.PrototypeSection{
			VarPath: leaf.VarPath,
			Global:  stats.ComputePrototypeRegimeStats(sim.Contexts, leaf.VarPath, def.Gates, def.Weights, resolver),
			Regime:  stats.ComputePrototypeRegimeStats(sim.RegimeContexts, leaf.VarPath, def.Gates, def.Weights, resolver),
		})
	}
	return out
}

// topPrototypes ranks every registered prototype by mean final intensity
// over contexts.
func (e *Engine) topPrototypes(contexts []sample.Context) []editset.PrototypeScore {
	if len(contexts) == 0 || e.config.TopPrototypes <= 0 {
		return nil
	}
	var scores []editset.PrototypeScore
	for _, def := range e.registry.All() {
		path := def.VarPath()
		sum := 0.0
		for _, ctx := range contexts {
			if v, ok := sample.Number(ctx, path); ok {
				sum += v
			}
		}
		scores = append(scores, editset.PrototypeScore{VarPath: path, Score: sum / float64(len(contexts))})
	}
	sort.SliceStable(scores, func(i, j int) bool { return scores[i].Score > scores[j].Score })
	if len(scores) > e.config.TopPrototypes {
		scores = scores[:e.config.TopPrototypes]
	}
	return scores
}

// #endregion regime-stats
