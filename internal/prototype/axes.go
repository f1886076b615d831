package prototype

// #region axis-kinds
// AxisKind groups axes by the context object that carries them and by their
// native range.
type AxisKind string

const (
	AxisMood        AxisKind = "mood"
	AxisSexual      AxisKind = "sexual"
	AxisAffectTrait AxisKind = "affect_trait"
)

// MoodAxes are stored on [-100,100] in sampled contexts and evaluated on
// [-1,1] by gates and prototypes.
var MoodAxes = []string{
	"valence",
	"arousal",
	"agency_control",
	"threat",
	"engagement",
	"future_expectancy",
	"self_evaluation",
	"affiliation",
	"inhibitory_control",
	"uncertainty",
}

// SexualAxes live on [0,1].
var SexualAxes = []string{
	"sex_excitation",
	"sex_inhibition",
	"baseline_libido",
	"sexual_arousal",
}

// AffectTraits are stable per-character traits on [0,1].
var AffectTraits = []string{
	"affective_empathy",
	"cognitive_empathy",
	"harm_aversion",
	"self_control",
}

var axisKinds = func() map[string]AxisKind {
	m := make(map[string]AxisKind)
	for _, a := range MoodAxes {
		m[a] = AxisMood
	}
	for _, a := range SexualAxes {
		m[a] = AxisSexual
	}
	for _, a := range AffectTraits {
		m[a] = AxisAffectTrait
	}
	return m
}()

// KindOf classifies an axis. Unknown axes are treated as mood axes, which
// carry the widest default range.
func KindOf(axis string) AxisKind {
	if k, ok := axisKinds[axis]; ok {
		return k
	}
	return AxisMood
}

// ContextKey is the sampled-context object holding axes of this kind.
func (k AxisKind) ContextKey() string {
	switch k {
	case AxisSexual:
		return "sexualAxes"
	case AxisAffectTrait:
		return "affectTraits"
	}
	return "moodAxes"
}

// #endregion axis-kinds

// #region ranges
// DefaultRange returns the gate-scale range of an axis: [-1,1] for mood axes,
// [0,1] for sexual axes and affect traits.
func DefaultRange(axis string) (lo, hi float64) {
	if KindOf(axis) == AxisMood {
		return -1, 1
	}
	return 0, 1
}

// #endregion ranges
