package bounds

import "github.com/danielpatrickdp/expression-diagnostics/internal/prototype"

// #region source
// PrototypeSource resolves prototypes by category and id.
type PrototypeSource interface {
	Lookup(category prototype.Category, id string) (prototype.Definition, bool)
}

// #endregion source

// #region intensity-bounds
// IntensityBounds is the reachable range of a prototype's intensity, both ends
// clamped to [0,1]. IsUnbounded is true when no constraint narrowed any
// weighted axis below its default range.
type IntensityBounds struct {
	Min         float64
	Max         float64
	IsUnbounded bool
}

// #endregion intensity-bounds

// #region reachability
// ThresholdReachability is the verdict for one "intensity >= threshold" check.
type ThresholdReachability struct {
	IsReachable bool
	Threshold   float64
	MaxPossible float64
	Gap         float64 // max(0, Threshold - MaxPossible)
}

// #endregion reachability

// #region finding
// UnreachableFinding is one prerequisite leaf whose threshold cannot be met.
type UnreachableFinding struct {
	ClauseID    string
	VarPath     string
	PrototypeID string
	Category    prototype.Category
	Operator    string
	Threshold   float64
	MaxPossible float64
	Gap         float64
}

// #endregion finding
