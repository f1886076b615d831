package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/danielpatrickdp/expression-diagnostics/internal/analysis"
	"github.com/danielpatrickdp/expression-diagnostics/internal/content"
	"github.com/danielpatrickdp/expression-diagnostics/internal/polarity"
	"github.com/danielpatrickdp/expression-diagnostics/internal/runstore"
)

var (
	analyzeExprs    []string
	analyzeOut      string
	analyzeNoRecord bool

	analyzeCmd = &cobra.Command{
		Use:   "analyze <content>",
		Short: "Diagnose every expression in a content file and write a Markdown report",
		Args:  cobra.ExactArgs(1),
		RunE:  runAnalyze,
	}

	polarityCmd = &cobra.Command{
		Use:   "polarity <content>",
		Short: "Audit prototype weight polarity per axis",
		Args:  cobra.ExactArgs(1),
		RunE:  runPolarity,
	}
)

// #region analyze
func runAnalyze(cmd *cobra.Command, args []string) error {
	path := args[0]
	c, err := loadContent(path)
	if err != nil {
		return err
	}

	expressions, err := selectExpressions(c, analyzeExprs)
	if err != nil {
		return err
	}

	engine, err := analysis.NewEngine(c.Registry, logger, engineConfig())
	if err != nil {
		return err
	}
	results, err := engine.AnalyzeAll(cmd.Context(), expressions)
	if err != nil {
		return err
	}

	var w io.Writer = os.Stdout
	if analyzeOut != "" {
		f, err := os.Create(analyzeOut)
		if err != nil {
			return fmt.Errorf("create %s: %w", analyzeOut, err)
		}
		defer f.Close()
		w = f
	}
	for _, r := range results {
		if _, err := io.WriteString(w, strings.Join(r.Report, "\n")+"\n"); err != nil {
			return fmt.Errorf("write report: %w", err)
		}
	}

	if analyzeNoRecord {
		return nil
	}
	store, err := runstore.NewStore(cfg.DBPath)
	if err != nil {
		return err
	}
	defer store.Close()
	run, err := store.RecordRun(runstore.FromResults(path, cfg.Seed, cfg.Samples, results))
	if err != nil {
		return err
	}
	fmt.Fprintf(os.Stderr, "recorded run %s (%d expressions)\n", run.RunID, run.ExpressionCount)
	return nil
}

func engineConfig() analysis.Config {
	ac := analysis.DefaultConfig()
	ac.Extractor.StrictEpsilon = cfg.StrictEpsilon
	ac.Simulation.SampleCount = cfg.Samples
	ac.Simulation.Seed = cfg.Seed
	ac.Witness.Seed = cfg.Seed
	ac.Witness.MaxSamples = cfg.WitnessSamples
	if ac.Witness.HillClimbSteps > ac.Witness.MaxSamples {
		ac.Witness.HillClimbSteps = ac.Witness.MaxSamples / 3
	}
	ac.Parallelism = cfg.Parallelism
	return ac
}

func selectExpressions(c *content.Content, ids []string) ([]content.Expression, error) {
	if len(ids) == 0 {
		return c.Expressions, nil
	}
	out := make([]content.Expression, 0, len(ids))
	for _, id := range ids {
		e, ok := c.Expression(id)
		if !ok {
			return nil, fmt.Errorf("expression %q not found in content", id)
		}
		out = append(out, e)
	}
	return out, nil
}

func loadContent(path string) (*content.Content, error) {
	loader, err := content.NewLoader(logger)
	if err != nil {
		return nil, err
	}
	return loader.LoadFile(path)
}

// #endregion analyze

// #region polarity
func runPolarity(cmd *cobra.Command, args []string) error {
	c, err := loadContent(args[0])
	if err != nil {
		return err
	}
	analyzer, err := polarity.NewAnalyzer(logger)
	if err != nil {
		return err
	}
	res := analyzer.Analyze(c.Registry.All(), polarity.DefaultConfig())

	fmt.Printf("%-20s  %5s  %5s  %5s  %6s  %s\n", "Axis", "Pos", "Neg", "Zero", "Ratio", "Dominant")
	fmt.Printf("%-20s+-%5s+-%5s+-%5s+-%6s+-%s\n", "--------------------", "-----", "-----", "-----", "------", "--------")
	for _, axis := range sortedKeys(res.PolarityByAxis) {
		p := res.PolarityByAxis[axis]
		fmt.Printf("%-20s  %5d  %5d  %5d  %6.2f  %s\n", axis, p.Positive, p.Negative, p.Zero, p.Ratio, p.DominantDirection)
	}
	fmt.Printf("\n%d of %d axes imbalanced\n", res.ImbalancedCount, res.TotalAxesAnalyzed)
	for _, w := range res.Warnings {
		fmt.Printf("- %s\n", w)
	}
	return nil
}

// #endregion polarity
