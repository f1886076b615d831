package prototype

import (
	"errors"
	"strings"
)

// #region category
// Category distinguishes emotion prototypes from sexual-state prototypes.
type Category string

const (
	CategoryEmotion Category = "emotion"
	CategorySexual  Category = "sexual"
)

// Valid reports whether c is a known category.
func (c Category) Valid() bool {
	return c == CategoryEmotion || c == CategorySexual
}

// VarPrefix is the context path prefix under which intensities of this
// category are published ("emotions" or "sexualStates").
func (c Category) VarPrefix() string {
	if c == CategorySexual {
		return "sexualStates"
	}
	return "emotions"
}

// CategoryForPrefix maps a context path prefix back to its category.
func CategoryForPrefix(prefix string) (Category, bool) {
	switch prefix {
	case "emotions":
		return CategoryEmotion, true
	case "sexualStates":
		return CategorySexual, true
	}
	return "", false
}

// #endregion category

// #region errors
var (
	ErrEmptyID         = errors.New("prototype id is empty")
	ErrUnknownCategory = errors.New("unknown prototype category")
	ErrEmptyAxis       = errors.New("weight axis name is empty")
	ErrDuplicate       = errors.New("duplicate prototype")
)

// #endregion errors

// #region definition
// Definition is a read-only prototype: a weighted combination of axes plus
// the gate strings that must hold before its intensity counts.
// Build it with NewDefinition; the zero value is not meaningful.
type Definition struct {
	ID       string
	Category Category
	Weights  map[string]float64
	Gates    []string
}

// #endregion definition

// #region var-path
// ParseVarPath splits "emotions.joy" into (emotion, "joy"). Paths that do not
// name exactly one prototype intensity return ok=false.
func ParseVarPath(varPath string) (category Category, id string, ok bool) {
	prefix, id, found := strings.Cut(varPath, ".")
	if !found || id == "" || strings.Contains(id, ".") {
		return "", "", false
	}
	category, ok = CategoryForPrefix(prefix)
	if !ok {
		return "", "", false
	}
	return category, id, true
}

// #endregion var-path
