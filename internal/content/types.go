package content

import (
	"errors"

	"github.com/danielpatrickdp/expression-diagnostics/internal/expr"
	"github.com/danielpatrickdp/expression-diagnostics/internal/prototype"
)

// #region file-shape
// File is the on-disk shape of a mod content file. JSON files decode through
// the same path since JSON is valid YAML.
type File struct {
	Prototypes  []PrototypeEntry  `yaml:"prototypes"`
	Expressions []ExpressionEntry `yaml:"expressions"`
}

// PrototypeEntry is one prototype as authored.
type PrototypeEntry struct {
	ID       string             `yaml:"id"`
	Category string             `yaml:"category"`
	Weights  map[string]float64 `yaml:"weights"`
	Gates    []string           `yaml:"gates"`
}

// ExpressionEntry is one expression as authored. Prerequisites holds the
// JSON-logic tree.
type ExpressionEntry struct {
	ID            string `yaml:"id"`
	Description   string `yaml:"description"`
	Prerequisites any    `yaml:"prerequisites"`
}

// #endregion file-shape

// #region content
// Expression is a parsed expression ready for analysis.
type Expression struct {
	ID          string
	Description string
	Root        expr.Node
}

// Content is a validated mod content file.
type Content struct {
	Registry    *prototype.Registry
	Expressions []Expression
	Warnings    []string // expressions skipped or referencing unknown prototypes
}

// Expression looks up a parsed expression by id.
func (c *Content) Expression(id string) (Expression, bool) {
	for _, e := range c.Expressions {
		if e.ID == id {
			return e, true
		}
	}
	return Expression{}, false
}

// #endregion content

var (
	ErrEmptyExpressionID     = errors.New("expression id is empty")
	ErrDuplicateExpressionID = errors.New("duplicate expression id")
)
