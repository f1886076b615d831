// Package editset turns reachability findings, witness blockers and clause
// breakdowns into ranked, validated edits for an expression.
package editset

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/danielpatrickdp/expression-diagnostics/internal/bounds"
	"github.com/danielpatrickdp/expression-diagnostics/internal/expr"
	"github.com/danielpatrickdp/expression-diagnostics/internal/logging"
	"github.com/danielpatrickdp/expression-diagnostics/internal/sample"
)

// #region generator
// Generator builds EditSets.
type Generator struct {
	logger logging.Logger
	config Config
}

// NewGenerator validates the target band and returns a Generator.
func NewGenerator(logger logging.Logger, config Config) (*Generator, error) {
	if logger == nil {
		return nil, fmt.Errorf("edit set generator: %w", logging.ErrNilLogger)
	}
	lo, hi := config.TargetBand[0], config.TargetBand[1]
	if !(lo >= 0) || !(hi <= 1) || lo > hi {
		return nil, fmt.Errorf("edit set generator: %w: [%v, %v]", ErrInvalidBand, lo, hi)
	}
	if config.MaxAlternatives < 0 {
		return nil, fmt.Errorf("edit set generator: max alternatives %d must not be negative", config.MaxAlternatives)
	}
	return &Generator{logger: logger, config: config}, nil
}

// #endregion generator

// #region generate
// Generate proposes edits from every blocker source, validates them, moves
// overshooting and meaning-changing edits to NotRecommended and ranks the
// rest by distance of their predicted rate to the target band.
func (g *Generator) Generate(b Blockers) EditSet {
	set := EditSet{
		TargetBand:       g.config.TargetBand,
		AlternativeEdits: []Edit{},
		NotRecommended:   []string{},
		Conflict:         detectConflict(b),
	}
	p := predictor{
		contexts:   b.Contexts,
		rate:       b.TriggerRate,
		samples:    b.SampleCount,
		minSupport: g.config.MinSupport,
	}

	var proposed []Edit
	var notes []string
	add := func(edits []Edit, rejected []string) {
		proposed = append(proposed, edits...)
		notes = append(notes, rejected...)
	}
	add(g.fromUnreachable(b, p))
	add(g.fromWitness(b, p), nil)
	add(g.fromRestrictiveClauses(b, p), nil)
	add(g.fromDeadWeight(b, p), nil)
	notes = append(notes, g.structural(b, p)...)

	limits := make(map[string]bounds.UnreachableFinding, len(b.Unreachable))
	for _, f := range b.Unreachable {
		limits[f.ClauseID] = f
	}

	current := g.distance(b.TriggerRate)
	seen := make(map[string]bool)
	var ranked []Edit
	for _, e := range proposed {
		key := fmt.Sprintf("%s|%s|%.4f", e.Kind, e.ClauseID, e.Threshold)
		if seen[key] {
			continue
		}
		seen[key] = true
		if !g.valid(b.Expression, e, limits) {
			g.logger.Debug("edit rejected by validation",
				"expression_id", b.ExpressionID,
				"clause_id", e.ClauseID,
				"threshold", e.Threshold,
			)
			continue
		}
		switch {
		case e.PredictedTriggerRate > g.config.TargetBand[1] && b.TriggerRate <= g.config.TargetBand[1]:
			notes = append(notes, fmt.Sprintf("%s: overshoots the target band (predicted %.2f%% > %.2f%%)",
				e.Description, e.PredictedTriggerRate*100, g.config.TargetBand[1]*100))
		case g.distance(e.PredictedTriggerRate) > current:
			notes = append(notes, fmt.Sprintf("%s: moves the trigger rate away from the target band (predicted %.2f%%)",
				e.Description, e.PredictedTriggerRate*100))
		default:
			ranked = append(ranked, e)
		}
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		di, dj := g.distance(ranked[i].PredictedTriggerRate), g.distance(ranked[j].PredictedTriggerRate)
		if di != dj {
			return di < dj
		}
		if ri, rj := ranked[i].Confidence.rank(), ranked[j].Confidence.rank(); ri != rj {
			return ri < rj
		}
		if ranked[i].ClauseID != ranked[j].ClauseID {
			return ranked[i].ClauseID < ranked[j].ClauseID
		}
		return ranked[i].Description < ranked[j].Description
	})

	if len(ranked) > 0 {
		primary := ranked[0]
		set.PrimaryRecommendation = &primary
		rest := ranked[1:]
		if len(rest) > g.config.MaxAlternatives {
			rest = rest[:g.config.MaxAlternatives]
		}
		set.AlternativeEdits = append(set.AlternativeEdits, rest...)
	}
	set.NotRecommended = append(set.NotRecommended, notes...)

	g.logger.Debug("edit set generated",
		"expression_id", b.ExpressionID,
		"proposed", len(proposed),
		"ranked", len(ranked),
		"not_recommended", len(set.NotRecommended),
	)
	return set
}

// distance is how far rate lies outside the target band.
func (g *Generator) distance(rate float64) float64 {
	lo, hi := g.config.TargetBand[0], g.config.TargetBand[1]
	switch {
	case rate < lo:
		return lo - rate
	case rate > hi:
		return rate - hi
	}
	return 0
}

// valid keeps thresholds inside the variable's range and, for clauses with a
// known reachability limit, at or below it.
func (g *Generator) valid(root expr.Node, e Edit, limits map[string]bounds.UnreachableFinding) bool {
	if e.Kind != KindThresholdChange {
		return true
	}
	if math.IsNaN(e.Threshold) || math.IsInf(e.Threshold, 0) {
		return false
	}
	leaf, ok := expr.Find(root, e.ClauseID)
	if !ok || leaf.Kind != expr.KindLeaf {
		return false
	}
	if lo, hi, ok := sample.PathRange(leaf.VarPath); ok && (e.Threshold < lo || e.Threshold > hi) {
		return false
	}
	if f, ok := limits[e.ClauseID]; ok && leaf.Op.IsLowerBound() {
		if e.Threshold > f.MaxPossible || (leaf.Op == expr.OpGT && e.Threshold >= f.MaxPossible) {
			return false
		}
	}
	return true
}

// #endregion generate

// #region sources
func (g *Generator) fromUnreachable(b Blockers, p predictor) ([]Edit, []string) {
	var edits []Edit
	var notes []string
	for _, f := range b.Unreachable {
		leaf, ok := expr.Find(b.Expression, f.ClauseID)
		if !ok {
			continue
		}
		t := floor2(f.MaxPossible)
		if leaf.Op == expr.OpGT && t >= f.MaxPossible {
			t -= 0.01
		}
		if t <= 0 {
			notes = append(notes, fmt.Sprintf("Lowering %s: %s never exceeds %.3f under its gates; remove the clause or rework the prototype",
				leaf.Description(), f.VarPath, f.MaxPossible))
			continue
		}
		edited, _ := expr.WithThreshold(b.Expression, f.ClauseID, t)
		e := Edit{
			Kind:        KindThresholdChange,
			ClauseID:    f.ClauseID,
			Description: fmt.Sprintf("Lower %s threshold from %.2f to %.2f (max reachable %.3f)", f.VarPath, f.Threshold, t, f.MaxPossible),
			Threshold:   t,
		}
		p.predict(&e, edited, ValidationStaticBounds, ConfidenceHigh, p.extrapolateThreshold(leaf, t))
		edits = append(edits, e)
	}
	return edits, notes
}

func (g *Generator) fromWitness(b Blockers, p predictor) []Edit {
	w := b.Witness
	if w == nil || w.Skipped || w.Found {
		return nil
	}
	var edits []Edit
	for _, adj := range w.MinimalAdjustments {
		leaf, ok := expr.Find(b.Expression, adj.ClauseID)
		if !ok {
			continue
		}
		t := roundTowardPass(adj.Operator, adj.SuggestedThreshold)
		edited, _ := expr.WithThreshold(b.Expression, adj.ClauseID, t)
		e := Edit{
			Kind:        KindThresholdChange,
			ClauseID:    adj.ClauseID,
			Description: fmt.Sprintf("Adjust %s threshold from %.2f to %.2f (closest witness state)", adj.VarPath, adj.CurrentThreshold, t),
			Threshold:   t,
		}
		p.predict(&e, edited, ValidationWitnessSearch, ConfidenceMedium, p.extrapolateThreshold(leaf, t))
		edits = append(edits, e)
	}
	return edits
}

// fromRestrictiveClauses relaxes the most failing leaves when the rate is
// below the band and tightens the least failing ones when it is above.
func (g *Generator) fromRestrictiveClauses(b Blockers, p predictor) []Edit {
	if b.Breakdown == nil || g.config.RestrictiveClauses <= 0 {
		return nil
	}
	lo, hi := g.config.TargetBand[0], g.config.TargetBand[1]
	var loosen bool
	switch {
	case b.TriggerRate < lo:
		loosen = true
	case b.TriggerRate > hi:
		loosen = false
	default:
		return nil
	}

	var leaves []*expr.HierarchicalNode
	for _, l := range b.Breakdown.LeafNodes() {
		if l.EvaluationCount == 0 || l.Operator == expr.OpEQ || l.Operator == expr.OpNEQ {
			continue
		}
		if loosen && l.FailureCount == 0 {
			continue
		}
		leaves = append(leaves, l)
	}
	sort.SliceStable(leaves, func(i, j int) bool {
		if loosen {
			return leaves[i].FailureRate() > leaves[j].FailureRate()
		}
		return leaves[i].FailureRate() < leaves[j].FailureRate()
	})
	if len(leaves) > g.config.RestrictiveClauses {
		leaves = leaves[:g.config.RestrictiveClauses]
	}

	var edits []Edit
	for _, h := range leaves {
		leaf, ok := expr.Find(b.Expression, h.ClauseID)
		if !ok {
			continue
		}
		verb := "Tighten"
		if loosen {
			verb = "Relax"
		}
		// Moving a lower bound down or an upper bound up loosens the clause.
		down := loosen == leaf.Op.IsLowerBound()

		method := ValidationImportanceSampling
		var t float64
		if len(p.contexts) == 0 {
			method = ValidationExtrapolation
			t = extrapolatedStep(leaf, down)
			ok = t != leaf.Threshold
		} else {
			t, ok = g.bestThreshold(b.Expression, leaf, p, down)
		}
		if !ok {
			continue
		}
		edited, _ := expr.WithThreshold(b.Expression, leaf.ClauseID, t)
		e := Edit{
			Kind:        KindThresholdChange,
			ClauseID:    leaf.ClauseID,
			Description: fmt.Sprintf("%s %s from %.2f to %.2f", verb, leaf.VarPath, leaf.Threshold, t),
			Threshold:   t,
		}
		p.predict(&e, edited, method, "", p.extrapolateThreshold(leaf, t))
		edits = append(edits, e)
	}
	return edits
}

// bestThreshold scans observed quantiles of the leaf's variable on the
// requested side of its threshold and returns the one whose resampled rate
// lands closest to the band, preferring the smallest move.
func (g *Generator) bestThreshold(root, leaf expr.Node, p predictor, down bool) (float64, bool) {
	values := make([]float64, 0, len(p.contexts))
	for _, ctx := range p.contexts {
		if v, ok := sample.Number(ctx, leaf.VarPath); ok {
			values = append(values, v)
		}
	}
	if len(values) == 0 {
		return 0, false
	}
	sort.Float64s(values)

	bestT, bestD, found := 0.0, math.Inf(1), false
	seen := make(map[float64]bool)
	for step := 1; step < 20; step++ {
		q := float64(step) / 20
		t := values[int(math.Round(q*float64(len(values)-1)))]
		if down {
			t = floor2(t)
			if t >= leaf.Threshold {
				continue
			}
		} else {
			t = ceil2(t)
			if t <= leaf.Threshold {
				continue
			}
		}
		if seen[t] {
			continue
		}
		seen[t] = true
		edited, _ := expr.WithThreshold(root, leaf.ClauseID, t)
		rate, _, _ := p.resample(edited)
		d := g.distance(rate)
		if !found || d < bestD || (d == bestD && math.Abs(t-leaf.Threshold) < math.Abs(bestT-leaf.Threshold)) {
			bestT, bestD, found = t, d, true
		}
	}
	return bestT, found
}

func (g *Generator) fromDeadWeight(b Blockers, p predictor) []Edit {
	if b.Breakdown == nil {
		return nil
	}
	var edits []Edit
	for _, or := range b.Breakdown.OrBlocks() {
		if len(or.Children) < 2 || or.UnionPassCount == 0 {
			continue
		}
		for _, child := range or.Children {
			share := float64(child.OrExclusivePassCount) / float64(or.UnionPassCount)
			if share >= g.config.DeadWeightShare {
				continue
			}
			edited, ok := expr.WithoutChild(b.Expression, child.ClauseID)
			if !ok {
				continue
			}
			e := Edit{
				Kind:     KindRemoveAlternative,
				ClauseID: child.ClauseID,
				Description: fmt.Sprintf("Remove OR alternative %s (%s): it alone satisfies %.2f%% of OR passes",
					child.ClauseID, child.Description, share*100),
			}
			p.predict(&e, edited, ValidationImportanceSampling, "", p.rate)
			edits = append(edits, e)
		}
	}
	return edits
}

// structural lists AND/OR swaps. They change what the expression means, so
// they are only ever reported as not recommended.
func (g *Generator) structural(b Blockers, p predictor) []string {
	lo, hi := g.config.TargetBand[0], g.config.TargetBand[1]
	var from, to expr.Kind
	switch {
	case b.TriggerRate < lo:
		from, to = expr.KindAnd, expr.KindOr
	case b.TriggerRate > hi:
		from, to = expr.KindOr, expr.KindAnd
	default:
		return nil
	}
	var notes []string
	expr.Walk(b.Expression, func(n expr.Node) {
		if n.Kind != from || len(n.Children) < 2 {
			return
		}
		edited, _ := expr.WithKind(b.Expression, n.ClauseID, to)
		prediction := "prediction unavailable"
		if rate, _, ok := p.resample(edited); ok {
			prediction = fmt.Sprintf("predicted %.2f%%", rate*100)
		}
		notes = append(notes, fmt.Sprintf("Convert %s at clause %s to %s (%s): changes what the expression means",
			strings.ToUpper(string(from)), n.ClauseID, strings.ToUpper(string(to)), prediction))
	})
	return notes
}

// #endregion sources

// #region conflict-detection
// DetectConflict reports when unreachable clauses ask for prototypes other
// than the ones the regime actually produces. It returns nil when there are
// no unreachable clauses or the best-fitting prototypes are the impossible
// ones themselves.
func DetectConflict(unreachable []bounds.UnreachableFinding, top []PrototypeScore) *FitFeasibilityConflict {
	if len(unreachable) == 0 || len(top) == 0 {
		return nil
	}
	impossible := make(map[string]bool, len(unreachable))
	ids := make([]string, 0, len(unreachable))
	for _, f := range unreachable {
		ids = append(ids, f.ClauseID)
		impossible[f.VarPath] = true
	}
	var fixes, names []string
	for _, p := range top {
		names = append(names, p.VarPath)
		if impossible[p.VarPath] {
			continue
		}
		fixes = append(fixes, fmt.Sprintf("Gate on %s (mean regime intensity %.3f) instead", p.VarPath, p.Score))
	}
	if len(fixes) == 0 {
		return nil
	}
	explanation := fmt.Sprintf("%d clause(s) require prototype intensities their gates cannot produce, while the sampled regime best fits %s",
		len(ids), strings.Join(names, ", "))
	c := NewFitFeasibilityConflict(ConflictFitVsClauseImpossible, top, ids, explanation, fixes)
	return &c
}

// DetectGateContradiction reports prototypes whose own gates contradict each
// other. It returns nil when there are none.
func DetectGateContradiction(contradictions []GateContradiction, top []PrototypeScore) *FitFeasibilityConflict {
	if len(contradictions) == 0 {
		return nil
	}
	var ids, paths, fixes []string
	for _, gc := range contradictions {
		ids = append(ids, gc.ClauseIDs...)
		paths = append(paths, gc.VarPath)
		fixes = append(fixes, fmt.Sprintf("Fix the gates of %s on %s so they can pass together",
			gc.VarPath, strings.Join(gc.Axes, ", ")))
	}
	explanation := fmt.Sprintf("the gates of %s contradict each other, so %d clause(s) can never pass",
		strings.Join(paths, ", "), len(ids))
	c := NewFitFeasibilityConflict(ConflictGateContradiction, top, ids, explanation, fixes)
	return &c
}

// detectConflict prefers a gate contradiction, which no threshold edit can fix.
func detectConflict(b Blockers) *FitFeasibilityConflict {
	if c := DetectGateContradiction(b.GateContradictions, b.TopPrototypes); c != nil {
		return c
	}
	return DetectConflict(b.Unreachable, b.TopPrototypes)
}

// #endregion conflict-detection
