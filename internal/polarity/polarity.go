// Package polarity audits prototype weights for axes that are almost always
// used with the same sign.
package polarity

import (
	"fmt"
	"math"
	"sort"

	"github.com/danielpatrickdp/expression-diagnostics/internal/logging"
	"github.com/danielpatrickdp/expression-diagnostics/internal/prototype"
)

// #region analyzer
// Analyzer runs the cross-prototype polarity audit.
type Analyzer struct {
	logger logging.Logger
}

// NewAnalyzer requires a logger.
func NewAnalyzer(logger logging.Logger) (*Analyzer, error) {
	if logger == nil {
		return nil, fmt.Errorf("polarity analyzer: %w", logging.ErrNilLogger)
	}
	return &Analyzer{logger: logger}, nil
}

// Analyze counts signed usages per axis across prototypes and flags axes that
// are used often enough and lopsidedly enough. Zero-valued config fields fall
// back to DefaultConfig.
func (a *Analyzer) Analyze(prototypes []prototype.Definition, config Config) Result {
	config = withDefaults(config)

	byAxis := make(map[string]*AxisPolarity)
	for _, p := range prototypes {
		for _, axis := range p.Axes() {
			w := p.Weights[axis]
			if math.IsNaN(w) || math.IsInf(w, 0) {
				a.logger.Debug("skipping non-finite weight", "prototype_id", p.ID, "axis", axis)
				continue
			}
			ap, ok := byAxis[axis]
			if !ok {
				ap = &AxisPolarity{Axis: axis}
				byAxis[axis] = ap
			}
			switch {
			case math.Abs(w) <= config.ActiveWeightEpsilon:
				ap.Zero++
			case w > 0:
				ap.Positive++
				ap.PositivePrototypes = append(ap.PositivePrototypes, p.ID)
			default:
				ap.Negative++
				ap.NegativePrototypes = append(ap.NegativePrototypes, p.ID)
			}
		}
	}

	result := Result{
		PolarityByAxis: make(map[string]AxisPolarity, len(byAxis)),
		ImbalancedAxes: []ImbalancedAxis{},
		Warnings:       []string{},
	}
	for axis, ap := range byAxis {
		finalize(ap)
		result.PolarityByAxis[axis] = *ap
		if !isImbalanced(*ap, config) {
			continue
		}
		result.ImbalancedAxes = append(result.ImbalancedAxes, ImbalancedAxis{
			Axis:      axis,
			Direction: ap.DominantDirection,
			Ratio:     ap.Ratio,
			Positive:  ap.Positive,
			Negative:  ap.Negative,
			Usage:     ap.Usage,
		})
	}

	sort.Slice(result.ImbalancedAxes, func(i, j int) bool {
		x, y := result.ImbalancedAxes[i], result.ImbalancedAxes[j]
		if x.Ratio != y.Ratio {
			return x.Ratio > y.Ratio
		}
		return x.Axis < y.Axis
	})
	for _, ia := range result.ImbalancedAxes {
		msg := fmt.Sprintf("Axis %q is used with %s weight in %d of %d prototypes (%.0f%%); consider adding prototypes that use the opposite direction",
			ia.Axis, ia.Direction, max(ia.Positive, ia.Negative), ia.Usage, ia.Ratio*100)
		result.Warnings = append(result.Warnings, msg)
		a.logger.Warn(msg, "axis", ia.Axis)
	}

	result.TotalAxesAnalyzed = len(result.PolarityByAxis)
	result.ImbalancedCount = len(result.ImbalancedAxes)
	return result
}

// #endregion analyzer

// #region helpers
func withDefaults(c Config) Config {
	d := DefaultConfig()
	if c.ActiveWeightEpsilon <= 0 {
		c.ActiveWeightEpsilon = d.ActiveWeightEpsilon
	}
	if c.MinUsageCount <= 0 {
		c.MinUsageCount = d.MinUsageCount
	}
	if c.ImbalanceThreshold <= 0 {
		c.ImbalanceThreshold = d.ImbalanceThreshold
	}
	return c
}

func finalize(ap *AxisPolarity) {
	ap.Usage = ap.Positive + ap.Negative
	switch {
	case ap.Usage == 0:
		ap.DominantDirection = DirectionUnused
	case ap.Positive > ap.Negative:
		ap.DominantDirection = DirectionPositive
	case ap.Negative > ap.Positive:
		ap.DominantDirection = DirectionNegative
	default:
		ap.DominantDirection = DirectionBalanced
	}
	if ap.Usage > 0 {
		ap.Ratio = float64(max(ap.Positive, ap.Negative)) / float64(ap.Usage)
	}
}

// isImbalanced never flags an even split, whatever the threshold.
func isImbalanced(ap AxisPolarity, c Config) bool {
	if ap.DominantDirection != DirectionPositive && ap.DominantDirection != DirectionNegative {
		return false
	}
	return ap.Usage >= c.MinUsageCount && ap.Ratio >= c.ImbalanceThreshold
}

// #endregion helpers
