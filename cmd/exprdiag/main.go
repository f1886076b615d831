// Command exprdiag diagnoses expression trigger feasibility for mod content.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/danielpatrickdp/expression-diagnostics/internal/config"
	"github.com/danielpatrickdp/expression-diagnostics/internal/logging"
)

// #region globals
var (
	cfg    config.Config
	logger logging.Logger

	rootCmd = &cobra.Command{
		Use:           "exprdiag",
		Short:         "Expression trigger feasibility and probability diagnostics",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			loaded, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			cfg = loaded
			logger = logging.NewConsole(os.Stderr, cfg.LogLevel)
			return nil
		},
	}
)

// Flag values; only the ones the user actually set override the environment.
var (
	flagDB       string
	flagLogLevel string
	flagSamples  int
	flagSeed     uint64
)

// #endregion globals

// #region main
func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagDB, "db", "", "path to the run history database (env EXPRDIAG_DB)")
	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "", "debug, info, warn or error (env EXPRDIAG_LOG_LEVEL)")

	analyzeCmd.Flags().IntVar(&flagSamples, "samples", 0, "Monte Carlo samples per expression (env EXPRDIAG_SAMPLES)")
	analyzeCmd.Flags().Uint64Var(&flagSeed, "seed", 0, "random seed (env EXPRDIAG_SEED)")
	analyzeCmd.Flags().StringSliceVar(&analyzeExprs, "expr", nil, "only analyze these expression ids")
	analyzeCmd.Flags().StringVar(&analyzeOut, "out", "", "write the report to this file instead of stdout")
	analyzeCmd.Flags().BoolVar(&analyzeNoRecord, "no-record", false, "do not record the run in the history database")

	historyCmd.Flags().IntVar(&historyLast, "last", 20, "show N most recent runs")
	historyCmd.Flags().BoolVar(&historyJSON, "json", false, "output as JSON instead of table")
	showCmd.Flags().BoolVar(&showReport, "report", false, "print the full stored reports")

	rootCmd.AddCommand(analyzeCmd, polarityCmd, historyCmd, showCmd)
}

// loadConfig reads the environment, applies the flags the user set and only
// then validates, so a flag can replace an invalid environment value.
func loadConfig(cmd *cobra.Command) (config.Config, error) {
	c, err := config.Parse()
	if err != nil {
		return config.Config{}, err
	}
	applyFlagOverrides(cmd, &c)
	if err := c.Validate(); err != nil {
		return config.Config{}, err
	}
	return c, nil
}

func applyFlagOverrides(cmd *cobra.Command, c *config.Config) {
	flags := cmd.Flags()
	if flags.Changed("db") {
		c.DBPath = flagDB
	}
	if flags.Changed("log-level") {
		c.LogLevel = flagLogLevel
	}
	if flags.Changed("samples") {
		c.Samples = flagSamples
	}
	if flags.Changed("seed") {
		c.Seed = flagSeed
	}
}

// #endregion main
