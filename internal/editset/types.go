package editset

import (
	"errors"

	"github.com/danielpatrickdp/expression-diagnostics/internal/bounds"
	"github.com/danielpatrickdp/expression-diagnostics/internal/expr"
	"github.com/danielpatrickdp/expression-diagnostics/internal/sample"
	"github.com/danielpatrickdp/expression-diagnostics/internal/witness"
)

// #region config
// Config tunes edit generation.
type Config struct {
	TargetBand         [2]float64 // acceptable trigger-rate band [low, high]
	MaxAlternatives    int        // alternatives kept after the primary recommendation
	DeadWeightShare    float64    // OR alternatives uniquely passing below this share of union passes are dead weight
	MinSupport         int        // triggering samples needed for a high-confidence resampled prediction
	RestrictiveClauses int        // most-restrictive leaves considered for relaxation
}

// DefaultConfig returns the standard band and limits.
func DefaultConfig() Config {
	return Config{
		TargetBand:         [2]float64{0.001, 0.05},
		MaxAlternatives:    4,
		DeadWeightShare:    0.01,
		MinSupport:         30,
		RestrictiveClauses: 3,
	}
}

var ErrInvalidBand = errors.New("invalid target band")

// #endregion config

// #region blockers
// Blockers gathers everything known about why an expression misses its band.
type Blockers struct {
	ExpressionID  string
	Expression    expr.Node
	TriggerRate   float64
	SampleCount   int
	Unreachable   []bounds.UnreachableFinding
	Witness       *witness.Result
	Breakdown     *expr.HierarchicalNode
	Contexts      []sample.Context // resampled to predict edit outcomes
	TopPrototypes []PrototypeScore // best-fitting prototypes in the sampled regime

	GateContradictions []GateContradiction
}

// GateContradiction is a referenced prototype whose own gates can never all
// pass, so every clause on it is impossible regardless of threshold.
type GateContradiction struct {
	VarPath   string
	ClauseIDs []string
	Axes      []string // axes whose gate intervals are empty
}

// #endregion blockers

// #region edit
// Kind names an edit.
type Kind string

const (
	KindThresholdChange   Kind = "threshold_change"
	KindRemoveAlternative Kind = "remove_alternative"
	KindAndToOr           Kind = "and_to_or"
	KindOrToAnd           Kind = "or_to_and"
)

// Confidence labels how much a prediction can be trusted.
type Confidence string

const (
	ConfidenceHigh   Confidence = "high"
	ConfidenceMedium Confidence = "medium"
	ConfidenceLow    Confidence = "low"
)

func (c Confidence) rank() int {
	switch c {
	case ConfidenceHigh:
		return 0
	case ConfidenceMedium:
		return 1
	}
	return 2
}

// ValidationMethod names how PredictedTriggerRate was obtained.
type ValidationMethod string

const (
	ValidationStaticBounds       ValidationMethod = "static_bounds"
	ValidationWitnessSearch      ValidationMethod = "witness_search"
	ValidationImportanceSampling ValidationMethod = "importance_sampling"
	ValidationExtrapolation      ValidationMethod = "extrapolation"
)

// Edit is one proposed change to an expression.
type Edit struct {
	Kind                 Kind
	ClauseID             string
	Description          string
	Threshold            float64 // new threshold, threshold_change only
	PredictedTriggerRate float64
	Confidence           Confidence
	ValidationMethod     ValidationMethod
}

// EditSet is the ranked output of Generate.
type EditSet struct {
	TargetBand            [2]float64
	PrimaryRecommendation *Edit
	AlternativeEdits      []Edit
	NotRecommended        []string
	Conflict              *FitFeasibilityConflict
}

// #endregion edit

// #region conflict
// ConflictType names a FitFeasibilityConflict.
type ConflictType string

const (
	ConflictFitVsClauseImpossible ConflictType = "fit_vs_clause_impossible"
	ConflictGateContradiction     ConflictType = "gate_contradiction"
)

// PrototypeScore ranks a prototype by how well it fits the sampled regime.
type PrototypeScore struct {
	VarPath string
	Score   float64
}

// FitFeasibilityConflict records an expression that asks for prototypes the
// regime cannot produce while others fit it well. It is immutable: build it
// with NewFitFeasibilityConflict and read it through the accessors.
type FitFeasibilityConflict struct {
	conflictType        ConflictType
	topPrototypes       []PrototypeScore
	impossibleClauseIDs []string
	explanation         string
	suggestedFixes      []string
}

// NewFitFeasibilityConflict copies every slice; nil slices become empty.
func NewFitFeasibilityConflict(t ConflictType, top []PrototypeScore, impossible []string, explanation string, fixes []string) FitFeasibilityConflict {
	return FitFeasibilityConflict{
		conflictType:        t,
		topPrototypes:       append([]PrototypeScore{}, top...),
		impossibleClauseIDs: append([]string{}, impossible...),
		explanation:         explanation,
		suggestedFixes:      append([]string{}, fixes...),
	}
}

func (c FitFeasibilityConflict) Type() ConflictType  { return c.conflictType }
func (c FitFeasibilityConflict) Explanation() string { return c.explanation }

func (c FitFeasibilityConflict) TopPrototypes() []PrototypeScore {
	return append([]PrototypeScore{}, c.topPrototypes...)
}

func (c FitFeasibilityConflict) ImpossibleClauseIDs() []string {
	return append([]string{}, c.impossibleClauseIDs...)
}

func (c FitFeasibilityConflict) SuggestedFixes() []string {
	return append([]string{}, c.suggestedFixes...)
}

// #endregion conflict
