// Package content loads mod content files into validated prototypes and
// parsed expressions.
package content

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/danielpatrickdp/expression-diagnostics/internal/expr"
	"github.com/danielpatrickdp/expression-diagnostics/internal/logging"
	"github.com/danielpatrickdp/expression-diagnostics/internal/prototype"
)

// #region loader
// Loader decodes content files.
type Loader struct {
	logger logging.Logger
}

// NewLoader requires a logger.
func NewLoader(logger logging.Logger) (*Loader, error) {
	if logger == nil {
		return nil, fmt.Errorf("content loader: %w", logging.ErrNilLogger)
	}
	return &Loader{logger: logger}, nil
}

// LoadFile reads and decodes the file at path.
func (l *Loader) LoadFile(path string) (*Content, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("load content %s: %w", path, err)
	}
	c, err := l.Load(data)
	if err != nil {
		return nil, fmt.Errorf("load content %s: %w", path, err)
	}
	return c, nil
}

// Load decodes content from memory. Malformed prototypes and expression ids
// fail the load; an expression whose prerequisites cannot be parsed is
// skipped with a warning so the rest of the file can still be analyzed.
func (l *Loader) Load(data []byte) (*Content, error) {
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}

	defs := make([]prototype.Definition, 0, len(f.Prototypes))
	for i, p := range f.Prototypes {
		def, err := prototype.NewDefinition(p.ID, prototype.Category(p.Category), p.Weights, p.Gates)
		if err != nil {
			return nil, fmt.Errorf("prototype %d (%q): %w", i, p.ID, err)
		}
		defs = append(defs, def)
	}
	registry, err := prototype.NewRegistry(defs...)
	if err != nil {
		return nil, err
	}

	c := &Content{Registry: registry}
	seen := make(map[string]bool, len(f.Expressions))
	for i, e := range f.Expressions {
		if e.ID == "" {
			return nil, fmt.Errorf("expression %d: %w", i, ErrEmptyExpressionID)
		}
		if seen[e.ID] {
			return nil, fmt.Errorf("expression %q: %w", e.ID, ErrDuplicateExpressionID)
		}
		seen[e.ID] = true

		root, err := expr.Parse(e.Prerequisites)
		if err != nil {
			l.warn(c, fmt.Sprintf("expression %s skipped: %v", e.ID, err))
			continue
		}
		for _, leaf := range expr.Leaves(root) {
			category, id, ok := prototype.ParseVarPath(leaf.VarPath)
			if !ok {
				continue
			}
			if _, known := registry.Lookup(category, id); !known {
				l.warn(c, fmt.Sprintf("expression %s clause %s references unknown prototype %s", e.ID, leaf.ClauseID, leaf.VarPath))
			}
		}
		c.Expressions = append(c.Expressions, Expression{ID: e.ID, Description: e.Description, Root: root})
	}

	l.logger.Debug("content loaded",
		"prototypes", registry.Len(),
		"expressions", len(c.Expressions),
		"warnings", len(c.Warnings),
	)
	return c, nil
}

func (l *Loader) warn(c *Content, msg string) {
	l.logger.Warn(msg)
	c.Warnings = append(c.Warnings, msg)
}

// #endregion loader
