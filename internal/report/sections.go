package report

import (
	"fmt"
	"sort"
	"strings"

	"github.com/danielpatrickdp/expression-diagnostics/internal/expr"
	"github.com/danielpatrickdp/expression-diagnostics/internal/sample"
	"github.com/danielpatrickdp/expression-diagnostics/internal/simulate"
	"github.com/danielpatrickdp/expression-diagnostics/internal/stats"
	"github.com/danielpatrickdp/expression-diagnostics/internal/witness"
)

// #region formatting
// FormatPercent renders a [0,1] rate as a percentage with two decimals.
func FormatPercent(rate float64) string {
	return fmt.Sprintf("%.2f%%", rate*100)
}

// FormatIntensity renders a prototype intensity with three decimals.
func FormatIntensity(v float64) string {
	return fmt.Sprintf("%.3f", v)
}

// #endregion formatting

// #region funnel
// BuildFunnel lays out the funnel stages: all samples, regime, per-clause
// gate and threshold passes, the OR union when there is one, then the
// in-regime trigger. Each stage's rate is taken against the stage it narrows.
func BuildFunnel(f simulate.Funnel) []FunnelStage {
	stages := []FunnelStage{
		{Label: "All samples", Count: f.SampleCount, ParentCount: f.SampleCount},
		{Label: "Mood regime", Count: f.RegimePassCount, ParentCount: f.SampleCount},
	}
	for _, c := range f.Clauses {
		stages = append(stages,
			FunnelStage{Label: "Gate pass: " + c.VarPath, Count: c.GatePassCount, ParentCount: f.RegimePassCount},
			FunnelStage{Label: "Threshold pass: " + c.Description, Count: c.ThresholdPassCount, ParentCount: c.GatePassCount},
		)
	}
	triggerParent := f.RegimePassCount
	if f.HasOrBlock {
		stages = append(stages, FunnelStage{Label: "OR union", Count: f.OrUnionPassCount, ParentCount: f.RegimePassCount})
		triggerParent = f.OrUnionPassCount
	}
	stages = append(stages, FunnelStage{Label: "Trigger", Count: f.InRegimeTriggerCount, ParentCount: triggerParent})
	return stages
}

// RenderFunnel renders stages as a Markdown table.
func RenderFunnel(stages []FunnelStage) string {
	var b strings.Builder
	b.WriteString("| Stage | Count | % of parent |\n|---|---:|---:|\n")
	for _, s := range stages {
		fmt.Fprintf(&b, "| %s | %d | %s |\n", s.Label, s.Count, FormatPercent(s.Rate()))
	}
	return b.String()
}

// #endregion funnel

// #region or-overlap
// OverlapsFromBreakdown collects one OrOverlap per OR block.
func OverlapsFromBreakdown(root *expr.HierarchicalNode) []OrOverlap {
	if root == nil {
		return nil
	}
	var out []OrOverlap
	for _, or := range root.OrBlocks() {
		o := OrOverlap{
			ClauseID:        or.ClauseID,
			Description:     or.Description,
			Total:           or.EvaluationCount,
			Union:           or.UnionPassCount,
			Exclusive:       or.ExclusivePassCount,
			RegimeTotal:     or.InRegimeEvaluationCount,
			RegimeUnion:     or.InRegimeUnionPassCount,
			RegimeExclusive: or.InRegimeExclusivePassCount,
		}
		if a, b, n, ok := or.TopCoPassPair(); ok {
			o.PairA, o.PairB, o.PairCount = a, b, n
		}
		out = append(out, o)
	}
	return out
}

// RenderOrOverlap renders one OR block's overlap table.
func RenderOrOverlap(o OrOverlap) string {
	var b strings.Builder
	fmt.Fprintf(&b, "**OR block %s** (%s)\n\n", o.ClauseID, o.Description)
	b.WriteString("| Scope | Union | Exclusive | Overlap |\n|---|---:|---:|---:|\n")
	fmt.Fprintf(&b, "| Global | %s | %s | %s |\n",
		FormatPercent(o.UnionRate()), FormatPercent(o.ExclusiveRate()), FormatPercent(o.OverlapRate()))
	fmt.Fprintf(&b, "| In regime | %s | %s | %s |\n",
		FormatPercent(o.RegimeUnionRate()), FormatPercent(o.RegimeExclusiveRate()), FormatPercent(o.RegimeOverlapRate()))
	if o.PairCount > 0 {
		fmt.Fprintf(&b, "\nTop co-passing pair: %s & %s (%d samples, %s)\n",
			o.PairA, o.PairB, o.PairCount, FormatPercent(ratio(o.PairCount, o.Total)))
	} else {
		b.WriteString("\nNo alternatives ever passed together.\n")
	}
	return b.String()
}

// #endregion or-overlap

// #region actionability
// ClassifyTier grades a run's trigger count.
func ClassifyTier(triggerCount, sampleCount int) Tier {
	switch {
	case triggerCount == 0:
		return TierZero
	case ratio(triggerCount, sampleCount) < VeryLowRate:
		return TierVeryLow
	}
	return TierNormal
}

// RenderActionability gives tiered advice for a run.
func RenderActionability(triggerCount, sampleCount int) string {
	rate := FormatPercent(ratio(triggerCount, sampleCount))
	switch ClassifyTier(triggerCount, sampleCount) {
	case TierZero:
		return fmt.Sprintf("**Tier: zero.** The expression never fired in %d samples. "+
			"Check static reachability first, then the witness search and edit set below.\n", sampleCount)
	case TierVeryLow:
		return fmt.Sprintf("**Tier: very low.** The expression fired %d times (%s). "+
			"A witness search was run and threshold edits are proposed; consider relaxing the most restrictive clause.\n",
			triggerCount, rate)
	}
	return fmt.Sprintf("**Tier: normal.** The expression fires at %s. No witness search is needed; "+
		"use the funnel and conditional pass rates to fine-tune.\n", rate)
}

// #endregion actionability

// #region state-dump
// RenderStateDump prints the axes and intensities of one context. Every
// group is always present; a missing group renders an explicit no-data line.
func RenderStateDump(ctx sample.Context) string {
	groups := []struct {
		title  string
		key    string
		format func(float64) string
	}{
		{"Mood axes", sample.KeyMoodAxes, func(v float64) string { return fmt.Sprintf("%.2f", v) }},
		{"Sexual axes", sample.KeySexualAxes, FormatIntensity},
		{"Affect traits", sample.KeyAffectTraits, FormatIntensity},
		{"Emotions", sample.KeyEmotions, FormatIntensity},
		{"Sexual states", sample.KeySexualStates, FormatIntensity},
	}
	var b strings.Builder
	for _, g := range groups {
		fmt.Fprintf(&b, "**%s**\n\n", g.title)
		values := numericGroup(ctx, g.key)
		if len(values) == 0 {
			b.WriteString("- _no data_\n\n")
			continue
		}
		keys := make([]string, 0, len(values))
		for k := range values {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			fmt.Fprintf(&b, "- %s: %s\n", k, g.format(values[k]))
		}
		b.WriteString("\n")
	}
	return b.String()
}

func numericGroup(ctx sample.Context, key string) map[string]float64 {
	m, ok := ctx[key].(map[string]any)
	if !ok {
		return nil
	}
	out := make(map[string]float64, len(m))
	for k, raw := range m {
		if v, ok := sample.ToFloat(raw); ok {
			out[k] = v
		}
	}
	return out
}

// RenderWitness summarizes a witness search result.
func RenderWitness(w witness.Result) string {
	var b strings.Builder
	if w.Skipped {
		b.WriteString("Witness search skipped: the trigger rate is above the search threshold.\n")
		return b.String()
	}
	if w.Found {
		fmt.Fprintf(&b, "A satisfying state was found after %d candidates (%d ms).\n",
			w.SearchStats.SamplesEvaluated, w.SearchStats.TimeMs)
		return b.String()
	}
	fmt.Fprintf(&b, "No satisfying state found in %d candidates (%d ms). Best AND-block score: %s.\n",
		w.SearchStats.SamplesEvaluated, w.SearchStats.TimeMs, FormatIntensity(w.AndBlockScore))
	if len(w.BlockingClauses) > 0 {
		b.WriteString("\n| Clause | Condition | Observed | Gap |\n|---|---|---:|---:|\n")
		for _, c := range w.BlockingClauses {
			fmt.Fprintf(&b, "| %s | %s | %s | %s |\n",
				c.ClauseID, c.Description, FormatIntensity(c.ObservedValue), FormatIntensity(c.Gap))
		}
	}
	if len(w.MinimalAdjustments) > 0 {
		b.WriteString("\nMinimal adjustments:\n\n")
		for _, a := range w.MinimalAdjustments {
			fmt.Fprintf(&b, "- %s: %s %s %s (delta %+.3f)\n",
				a.ClauseID, a.VarPath, a.Operator, FormatIntensity(a.SuggestedThreshold), a.Delta)
		}
	}
	return b.String()
}

// #endregion state-dump

// #region distributions
func renderDistributionRow(b *strings.Builder, label, scope string, d *stats.DistributionStats, gatePass *float64) {
	gp := "n/a"
	if gatePass != nil {
		gp = FormatPercent(*gatePass)
	}
	if d == nil {
		fmt.Fprintf(b, "| %s | %s | n/a | n/a | n/a | n/a | n/a | n/a | %s |\n", label, scope, gp)
		return
	}
	fmt.Fprintf(b, "| %s | %s | %s | %s | %s | %s | %s | %s | %s |\n", label, scope,
		FormatIntensity(d.Min), FormatIntensity(d.Median), FormatIntensity(d.P90),
		FormatIntensity(d.P95), FormatIntensity(d.Max), FormatIntensity(d.Mean), gp)
}

// #endregion distributions
