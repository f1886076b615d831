package simulate

import (
	"github.com/danielpatrickdp/expression-diagnostics/internal/expr"
	"github.com/danielpatrickdp/expression-diagnostics/internal/sample"
)

// #region config
// Config controls one Monte Carlo run.
type Config struct {
	SampleCount  int
	Seed         uint64
	RegimeGates  []string // extra gate-scale filters applied on top of the expression's own axis leaves
	KeepContexts bool     // retain every sampled context in the result
}

// DefaultConfig returns the standard sample budget.
func DefaultConfig() Config {
	return Config{
		SampleCount:  10000,
		Seed:         1,
		KeepContexts: true,
	}
}

// #endregion config

// #region funnel
// FunnelClause holds in-regime counts for one prototype leaf.
// ThresholdPassCount only counts samples that also passed the gate.
type FunnelClause struct {
	ClauseID           string
	Description        string
	VarPath            string
	GatePassCount      int
	ThresholdPassCount int
}

// Funnel is the raw stage data behind the probability funnel.
type Funnel struct {
	SampleCount          int
	RegimePassCount      int
	Clauses              []FunnelClause
	HasOrBlock           bool
	OrUnionPassCount     int
	InRegimeTriggerCount int
}

// #endregion funnel

// #region result
// Result captures one run over an expression.
type Result struct {
	ExpressionID   string
	Expression     expr.Node
	SampleCount    int
	TriggerCount   int
	RegimeCount    int
	Breakdown      *expr.HierarchicalNode
	Funnel         Funnel
	Contexts       []sample.Context
	RegimeContexts []sample.Context
}

// TriggerRate is TriggerCount / SampleCount.
func (r Result) TriggerRate() float64 {
	if r.SampleCount == 0 {
		return 0
	}
	return float64(r.TriggerCount) / float64(r.SampleCount)
}

// #endregion result
