// Package report renders the diagnostics of one expression as an ordered
// list of Markdown blocks.
package report

import (
	"fmt"
	"strings"

	"github.com/danielpatrickdp/expression-diagnostics/internal/logging"
	"github.com/danielpatrickdp/expression-diagnostics/internal/stats"
)

// #region generator
// Generator builds report sections.
type Generator struct {
	logger logging.Logger
}

// NewGenerator requires a logger.
func NewGenerator(logger logging.Logger) (*Generator, error) {
	if logger == nil {
		return nil, fmt.Errorf("report generator: %w", logging.ErrNilLogger)
	}
	return &Generator{logger: logger}, nil
}

type section struct {
	title string
	build func(Input) (string, error)
}

// Generate renders every section in order. A section whose builder fails or
// panics degrades to its title plus NoData; the others are unaffected.
func (g *Generator) Generate(in Input) []string {
	sections := []section{
		{"Expression " + in.ExpressionID, g.header},
		{"Probability Funnel", g.funnel},
		{"Prototype Distributions", g.distributions},
		{"Conditional Pass Rates", g.conditions},
		{"OR Block Overlap", g.overlap},
		{"Static Reachability", g.reachability},
		{"Actionability", g.actionability},
		{"Witness", g.witness},
		{"Edit Set", g.editSet},
	}
	out := make([]string, 0, len(sections))
	for i, s := range sections {
		level := "##"
		if i == 0 {
			level = "#"
		}
		out = append(out, g.render(in, level+" "+s.title, s.build))
	}
	return out
}

func (g *Generator) render(in Input, heading string, build func(Input) (string, error)) (block string) {
	defer func() {
		if r := recover(); r != nil {
			g.logger.Error("report section panicked",
				"expression_id", in.ExpressionID,
				"section", heading,
				"panic", fmt.Sprint(r),
			)
			block = heading + "\n\n" + NoData + "\n"
		}
	}()
	body, err := build(in)
	if err != nil {
		g.logger.Debug("report section has no data",
			"expression_id", in.ExpressionID,
			"section", heading,
			"error", err,
		)
		return heading + "\n\n" + NoData + "\n"
	}
	return heading + "\n\n" + body
}

// #endregion generator

// #region sections
func (g *Generator) header(in Input) (string, error) {
	var b strings.Builder
	if in.Expression.Kind != "" {
		fmt.Fprintf(&b, "Prerequisites: %s\n\n", in.Expression.Description())
	}
	sim := in.Simulation
	if sim == nil {
		b.WriteString("No simulation was run.\n")
		return b.String(), nil
	}
	ci := stats.CalculateWilsonInterval(sim.TriggerCount, sim.SampleCount, stats.DefaultZ)
	fmt.Fprintf(&b, "- Samples: %d\n", sim.SampleCount)
	fmt.Fprintf(&b, "- Triggers: %d\n", sim.TriggerCount)
	fmt.Fprintf(&b, "- Trigger rate: %s (95%% CI %s to %s)\n",
		FormatPercent(sim.TriggerRate()), FormatPercent(ci.Low), FormatPercent(ci.High))
	fmt.Fprintf(&b, "- Regime samples: %d (%s)\n",
		sim.RegimeCount, FormatPercent(ratio(sim.RegimeCount, sim.SampleCount)))
	return b.String(), nil
}

func (g *Generator) funnel(in Input) (string, error) {
	if in.Simulation == nil || in.Simulation.SampleCount == 0 {
		return "", ErrNoData
	}
	return RenderFunnel(BuildFunnel(in.Simulation.Funnel)), nil
}

func (g *Generator) distributions(in Input) (string, error) {
	if len(in.Prototypes) == 0 {
		return "", ErrNoData
	}
	var b strings.Builder
	b.WriteString("| Prototype | Scope | Min | Median | P90 | P95 | Max | Mean | Gate pass |\n")
	b.WriteString("|---|---|---:|---:|---:|---:|---:|---:|---:|\n")
	for _, p := range in.Prototypes {
		for _, row := range []struct {
			scope string
			s     stats.PrototypeRegimeStats
		}{{"global", p.Global}, {"regime", p.Regime}} {
			renderDistributionRow(&b, p.VarPath, row.scope+" final", row.s.FinalDistribution, row.s.GatePassRate)
			if row.s.RawDistribution != nil {
				renderDistributionRow(&b, p.VarPath, row.scope+" raw", row.s.RawDistribution, nil)
			}
		}
	}
	return b.String(), nil
}

func (g *Generator) conditions(in Input) (string, error) {
	if len(in.Conditions) == 0 {
		return "", ErrNoData
	}
	var b strings.Builder
	b.WriteString("| Condition | Passes | Total | Rate | 95% CI |\n|---|---:|---:|---:|---|\n")
	for _, c := range in.Conditions {
		fmt.Fprintf(&b, "| %s | %d | %d | %s | %s to %s |\n",
			c.Condition.String(), c.Passes, c.Total, FormatPercent(c.ConditionalPassRate),
			FormatPercent(c.CI.Low), FormatPercent(c.CI.High))
	}
	return b.String(), nil
}

func (g *Generator) overlap(in Input) (string, error) {
	if in.Simulation == nil {
		return "", ErrNoData
	}
	overlaps := OverlapsFromBreakdown(in.Simulation.Breakdown)
	if len(overlaps) == 0 {
		return "The expression has no OR blocks.\n", nil
	}
	blocks := make([]string, 0, len(overlaps))
	for _, o := range overlaps {
		blocks = append(blocks, RenderOrOverlap(o))
	}
	return strings.Join(blocks, "\n"), nil
}

func (g *Generator) reachability(in Input) (string, error) {
	if len(in.Unreachable) == 0 {
		return "All prototype thresholds are reachable under their gates.\n", nil
	}
	var b strings.Builder
	b.WriteString("| Clause | Prototype | Threshold | Max possible | Gap |\n|---|---|---:|---:|---:|\n")
	for _, f := range in.Unreachable {
		fmt.Fprintf(&b, "| %s | %s | %s %s | %s | %s |\n",
			f.ClauseID, f.VarPath, f.Operator, FormatIntensity(f.Threshold),
			FormatIntensity(f.MaxPossible), FormatIntensity(f.Gap))
	}
	return b.String(), nil
}

func (g *Generator) actionability(in Input) (string, error) {
	if in.Simulation == nil || in.Simulation.SampleCount == 0 {
		return "", ErrNoData
	}
	return RenderActionability(in.Simulation.TriggerCount, in.Simulation.SampleCount), nil
}

func (g *Generator) witness(in Input) (string, error) {
	if in.Witness == nil {
		return "", ErrNoData
	}
	body := RenderWitness(*in.Witness)
	if in.Witness.Skipped || in.WitnessContext == nil {
		return body, nil
	}
	return body + "\n" + RenderStateDump(in.WitnessContext), nil
}

func (g *Generator) editSet(in Input) (string, error) {
	set := in.EditSet
	if set == nil {
		return "", ErrNoData
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Target band: %s to %s\n\n", FormatPercent(set.TargetBand[0]), FormatPercent(set.TargetBand[1]))
	if set.PrimaryRecommendation == nil {
		b.WriteString("No recommended edit.\n")
	} else {
		p := set.PrimaryRecommendation
		fmt.Fprintf(&b, "**Primary:** %s (predicted %s, %s confidence, %s)\n",
			p.Description, FormatPercent(p.PredictedTriggerRate), p.Confidence, p.ValidationMethod)
	}
	if len(set.AlternativeEdits) > 0 {
		b.WriteString("\nAlternatives:\n\n")
		for _, e := range set.AlternativeEdits {
			fmt.Fprintf(&b, "- %s (predicted %s, %s confidence, %s)\n",
				e.Description, FormatPercent(e.PredictedTriggerRate), e.Confidence, e.ValidationMethod)
		}
	}
	if len(set.NotRecommended) > 0 {
		b.WriteString("\nNot recommended:\n\n")
		for _, n := range set.NotRecommended {
			fmt.Fprintf(&b, "- %s\n", n)
		}
	}
	if c := set.Conflict; c != nil {
		fmt.Fprintf(&b, "\n**Fit/feasibility conflict:** %s\n\n", c.Explanation())
		for _, fix := range c.SuggestedFixes() {
			fmt.Fprintf(&b, "- %s\n", fix)
		}
	}
	return b.String(), nil
}

// #endregion sections
