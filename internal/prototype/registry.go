package prototype

import (
	"fmt"
	"sort"
)

// #region registry
type registryKey struct {
	category Category
	id       string
}

// Registry is an immutable lookup of prototypes by category and id.
type Registry struct {
	byKey map[registryKey]Definition
}

// NewRegistry indexes defs. Two definitions with the same category and id are
// rejected.
func NewRegistry(defs ...Definition) (*Registry, error) {
	r := &Registry{byKey: make(map[registryKey]Definition, len(defs))}
	for _, d := range defs {
		k := registryKey{category: d.Category, id: d.ID}
		if _, exists := r.byKey[k]; exists {
			return nil, fmt.Errorf("%w: %s/%s", ErrDuplicate, d.Category, d.ID)
		}
		r.byKey[k] = d
	}
	return r, nil
}

// Lookup returns the prototype registered under category and id.
func (r *Registry) Lookup(category Category, id string) (Definition, bool) {
	if r == nil {
		return Definition{}, false
	}
	d, ok := r.byKey[registryKey{category: category, id: id}]
	return d, ok
}

// All returns every definition ordered by category then id.
func (r *Registry) All() []Definition {
	if r == nil {
		return nil
	}
	out := make([]Definition, 0, len(r.byKey))
	for _, d := range r.byKey {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Category != out[j].Category {
			return out[i].Category < out[j].Category
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// Len returns the number of registered prototypes.
func (r *Registry) Len() int {
	if r == nil {
		return 0
	}
	return len(r.byKey)
}

// #endregion registry
