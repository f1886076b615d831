package report

import (
	"errors"

	"github.com/danielpatrickdp/expression-diagnostics/internal/bounds"
	"github.com/danielpatrickdp/expression-diagnostics/internal/editset"
	"github.com/danielpatrickdp/expression-diagnostics/internal/expr"
	"github.com/danielpatrickdp/expression-diagnostics/internal/sample"
	"github.com/danielpatrickdp/expression-diagnostics/internal/simulate"
	"github.com/danielpatrickdp/expression-diagnostics/internal/stats"
	"github.com/danielpatrickdp/expression-diagnostics/internal/witness"
)

// NoData replaces the body of a section that could not be built.
const NoData = "_No data available._"

// ErrNoData is returned by a section builder whose input is absent.
var ErrNoData = errors.New("no data")

// #region input
// PrototypeSection holds the distributions of one referenced prototype over
// the full sample and within the regime.
type PrototypeSection struct {
	VarPath string
	Global  stats.PrototypeRegimeStats
	Regime  stats.PrototypeRegimeStats
}

// Input is everything one expression report is rendered from. Any field may
// be missing; the affected sections render NoData.
type Input struct {
	ExpressionID   string
	Expression     expr.Node
	Simulation     *simulate.Result
	Prototypes     []PrototypeSection
	Conditions     []stats.ConditionResult
	Unreachable    []bounds.UnreachableFinding
	Witness        *witness.Result
	WitnessContext sample.Context // best witness state rendered as a sampled context
	EditSet        *editset.EditSet
}

// #endregion input

// #region funnel
// FunnelStage is one step of the probability funnel. ParentCount is the
// count of the immediately preceding stage the rate is taken against.
type FunnelStage struct {
	Label       string
	Count       int
	ParentCount int
}

// Rate is Count / ParentCount, 0 for an empty parent.
func (s FunnelStage) Rate() float64 {
	return ratio(s.Count, s.ParentCount)
}

// #endregion funnel

// #region or-overlap
// OrOverlap summarizes how the alternatives of one OR block overlap.
type OrOverlap struct {
	ClauseID        string
	Description     string
	Total           int
	Union           int
	Exclusive       int
	RegimeTotal     int
	RegimeUnion     int
	RegimeExclusive int
	PairA           string
	PairB           string
	PairCount       int
}

func (o OrOverlap) UnionRate() float64     { return ratio(o.Union, o.Total) }
func (o OrOverlap) ExclusiveRate() float64 { return ratio(o.Exclusive, o.Total) }

// OverlapRate is the share of samples in which two or more alternatives
// passed: (union - exclusive) / total.
func (o OrOverlap) OverlapRate() float64 { return ratio(o.Union-o.Exclusive, o.Total) }

func (o OrOverlap) RegimeUnionRate() float64     { return ratio(o.RegimeUnion, o.RegimeTotal) }
func (o OrOverlap) RegimeExclusiveRate() float64 { return ratio(o.RegimeExclusive, o.RegimeTotal) }
func (o OrOverlap) RegimeOverlapRate() float64 {
	return ratio(o.RegimeUnion-o.RegimeExclusive, o.RegimeTotal)
}

// #endregion or-overlap

// #region actionability
// Tier grades how actionable an expression's trigger rate is.
type Tier string

const (
	TierZero    Tier = "zero"
	TierVeryLow Tier = "very_low"
	TierNormal  Tier = "normal"
)

// VeryLowRate is the rate below which a non-zero expression is very low.
const VeryLowRate = 0.001

// #endregion actionability

func ratio(num, den int) float64 {
	if den == 0 {
		return 0
	}
	return float64(num) / float64(den)
}
