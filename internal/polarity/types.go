package polarity

// #region config
// Config holds the imbalance detection knobs.
type Config struct {
	ActiveWeightEpsilon float64 // |w| <= this counts as zero
	MinUsageCount       int     // signed usages required before an axis can be flagged
	ImbalanceThreshold  float64 // dominant-direction ratio at or above this flags the axis
}

// DefaultConfig returns the standard thresholds.
func DefaultConfig() Config {
	return Config{
		ActiveWeightEpsilon: 1e-6,
		MinUsageCount:       3,
		ImbalanceThreshold:  0.75,
	}
}

// #endregion config

// #region direction
// Direction is the dominant weight sign on an axis.
type Direction string

const (
	DirectionPositive Direction = "positive"
	DirectionNegative Direction = "negative"
	DirectionBalanced Direction = "balanced"
	DirectionUnused   Direction = "unused"
)

// #endregion direction

// #region axis-polarity
// AxisPolarity counts how prototypes use one axis.
type AxisPolarity struct {
	Axis               string
	Positive           int
	Negative           int
	Zero               int
	Usage              int     // Positive + Negative
	Ratio              float64 // max(Positive, Negative) / Usage
	DominantDirection  Direction
	PositivePrototypes []string
	NegativePrototypes []string
}

// ImbalancedAxis is an axis flagged for one-sided usage.
type ImbalancedAxis struct {
	Axis      string
	Direction Direction
	Ratio     float64
	Positive  int
	Negative  int
	Usage     int
}

// Result is the output of Analyze.
type Result struct {
	PolarityByAxis    map[string]AxisPolarity
	ImbalancedAxes    []ImbalancedAxis
	Warnings          []string
	TotalAxesAnalyzed int
	ImbalancedCount   int
}

// #endregion axis-polarity
