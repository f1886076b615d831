package witness

import (
	"errors"

	"github.com/danielpatrickdp/expression-diagnostics/internal/affect"
	"github.com/danielpatrickdp/expression-diagnostics/internal/expr"
	"github.com/danielpatrickdp/expression-diagnostics/internal/sample"
)

// #region config
// Config bounds one witness search.
type Config struct {
	MaxSamples           int     // total candidate states evaluated
	Seed                 uint64  // random source seed
	TriggerRateThreshold float64 // searches are skipped above this observed rate
	HillClimbSteps       int     // part of MaxSamples reserved for perturbing the best state
	StepSize             float64 // perturbation scale as a fraction of the axis range
}

// DefaultConfig returns the standard search budget.
func DefaultConfig() Config {
	return Config{
		MaxSamples:           5000,
		Seed:                 1,
		TriggerRateThreshold: 0.001,
		HillClimbSteps:       1500,
		StepSize:             0.1,
	}
}

var ErrInvalidConfig = errors.New("invalid witness search config")

// #endregion config

// #region input
// SimulationResult is the slice of a Monte Carlo run the searcher consumes.
type SimulationResult struct {
	ExpressionID string
	Expression   expr.Node
	TriggerRate  float64
	SampleCount  int
	Contexts     []sample.Context
}

// #endregion input

// #region result
// BlockingClause is a leaf still failing at the best state found.
type BlockingClause struct {
	ClauseID      string
	Description   string
	VarPath       string
	Operator      expr.Operator
	Threshold     float64
	ObservedValue float64
	Gap           float64
}

// Adjustment is the smallest threshold change that flips one blocking
// clause at the best state.
type Adjustment struct {
	ClauseID           string
	VarPath            string
	Operator           expr.Operator
	CurrentThreshold   float64
	SuggestedThreshold float64
	Delta              float64
}

// SearchStats reports the budget actually spent.
type SearchStats struct {
	SamplesEvaluated int
	TimeMs           int64
}

// Result is the outcome of Search.
type Result struct {
	Found              bool
	Skipped            bool
	BestCandidateState affect.State
	AndBlockScore      float64
	BlockingClauses    []BlockingClause
	MinimalAdjustments []Adjustment
	SearchStats        SearchStats
}

// #endregion result
