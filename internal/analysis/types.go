package analysis

import (
	"github.com/danielpatrickdp/expression-diagnostics/internal/bounds"
	"github.com/danielpatrickdp/expression-diagnostics/internal/editset"
	"github.com/danielpatrickdp/expression-diagnostics/internal/gate"
	"github.com/danielpatrickdp/expression-diagnostics/internal/report"
	"github.com/danielpatrickdp/expression-diagnostics/internal/simulate"
	"github.com/danielpatrickdp/expression-diagnostics/internal/witness"
)

// #region config
// Config wires the per-stage configs together.
type Config struct {
	Extractor     gate.ExtractorConfig
	Simulation    simulate.Config
	Witness       witness.Config
	EditSet       editset.Config
	Parallelism   int // concurrent expressions in AnalyzeAll
	TopPrototypes int // best-fitting prototypes reported for conflicts
}

// DefaultConfig returns the default configuration of every stage.
func DefaultConfig() Config {
	return Config{
		Extractor:     gate.DefaultExtractorConfig(),
		Simulation:    simulate.DefaultConfig(),
		Witness:       witness.DefaultConfig(),
		EditSet:       editset.DefaultConfig(),
		Parallelism:   4,
		TopPrototypes: 3,
	}
}

// #endregion config

// #region result
// Result is the full diagnosis of one expression. Simulation carries counts
// and the clause breakdown but not the sampled contexts.
type Result struct {
	ExpressionID string
	TriggerRate  float64
	Tier         report.Tier
	Simulation   simulate.Result
	Unreachable  []bounds.UnreachableFinding
	Witness      witness.Result
	EditSet      editset.EditSet
	Report       []string
}

// #endregion result
