package main

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"

	"github.com/spf13/cobra"

	"github.com/danielpatrickdp/expression-diagnostics/internal/report"
	"github.com/danielpatrickdp/expression-diagnostics/internal/runstore"
)

var (
	historyLast int
	historyJSON bool
	showReport  bool

	historyCmd = &cobra.Command{
		Use:   "history",
		Short: "List recorded diagnostic runs",
		Args:  cobra.NoArgs,
		RunE:  runHistory,
	}

	showCmd = &cobra.Command{
		Use:   "show <run-id>",
		Short: "Show per-expression results of one recorded run",
		Args:  cobra.ExactArgs(1),
		RunE:  runShow,
	}
)

// #region history
type historyRow struct {
	RunID       string `json:"run_id"`
	ContentPath string `json:"content_path"`
	Seed        uint64 `json:"seed"`
	Samples     int    `json:"samples"`
	Expressions int    `json:"expressions"`
	CreatedAt   string `json:"created_at"`
}

func runHistory(cmd *cobra.Command, args []string) error {
	store, err := runstore.NewStore(cfg.DBPath)
	if err != nil {
		return err
	}
	defer store.Close()

	runs, err := store.ListRuns(historyLast)
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Fprintln(os.Stderr, "no runs found")
		return nil
	}

	rows := make([]historyRow, len(runs))
	for i, r := range runs {
		rows[i] = historyRow{
			RunID:       r.RunID,
			ContentPath: r.ContentPath,
			Seed:        r.Seed,
			Samples:     r.SampleCount,
			Expressions: r.ExpressionCount,
			CreatedAt:   r.CreatedAt.Format("2006-01-02T15:04:05Z"),
		}
	}
	if historyJSON {
		return printJSON(rows)
	}

	fmt.Printf("%-12s  %-30s  %8s  %6s  %5s  %s\n", "Run", "Content", "Samples", "Seed", "Exprs", "Time")
	fmt.Printf("%-12s+-%-30s+-%8s+-%6s+-%5s+-%s\n",
		"------------", "------------------------------", "--------", "------", "-----", "--------------------")
	for _, r := range rows {
		fmt.Printf("%-12s  %-30s  %8d  %6d  %5d  %s\n",
			truncate(r.RunID, 12), truncate(r.ContentPath, 30), r.Samples, r.Seed, r.Expressions, r.CreatedAt)
	}
	return nil
}

// #endregion history

// #region show
func runShow(cmd *cobra.Command, args []string) error {
	store, err := runstore.NewStore(cfg.DBPath)
	if err != nil {
		return err
	}
	defer store.Close()

	run, err := store.GetRun(args[0])
	if err != nil {
		return err
	}

	fmt.Printf("Run:      %s\n", run.RunID)
	fmt.Printf("Content:  %s\n", run.ContentPath)
	fmt.Printf("Samples:  %d  Seed: %d\n", run.SampleCount, run.Seed)
	fmt.Printf("Created:  %s\n\n", run.CreatedAt.Format("2006-01-02T15:04:05Z"))

	fmt.Printf("%-24s  %9s  %-8s  %11s  %7s  %s\n", "Expression", "Rate", "Tier", "Unreachable", "Witness", "Primary edit")
	fmt.Printf("%-24s+-%9s+-%-8s+-%11s+-%7s+-%s\n",
		"------------------------", "---------", "--------", "-----------", "-------", "------------")
	for _, e := range run.Expressions {
		witness := "no"
		if e.WitnessFound {
			witness = "yes"
		}
		edit := e.PrimaryEdit
		if edit == "" {
			edit = "-"
		}
		fmt.Printf("%-24s  %9s  %-8s  %11d  %7s  %s\n",
			truncate(e.ExpressionID, 24), report.FormatPercent(e.TriggerRate), e.Tier, e.UnreachableCount, witness, edit)
	}

	if showReport {
		for _, e := range run.Expressions {
			fmt.Printf("\n%s", e.Report)
		}
	}
	return nil
}

// #endregion show

// #region helpers
func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	if n <= 3 {
		return s[:n]
	}
	return s[:n-3] + "..."
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// #endregion helpers
