package expr

import (
	"fmt"
	"strconv"

	"github.com/danielpatrickdp/expression-diagnostics/internal/sample"
)

// #region parse
// Parse converts a decoded JSON-logic tree ({"and": [...]}, {"or": [...]},
// {">=": [{"var": "emotions.joy"}, 0.5]}) into a Node. A list of nodes at the
// top level is treated as an implicit AND.
func Parse(raw any) (Node, error) {
	if raw == nil {
		return Node{}, ErrEmptyExpression
	}
	if list, ok := raw.([]any); ok {
		if len(list) == 0 {
			return Node{}, ErrEmptyExpression
		}
		raw = map[string]any{"and": list}
	}
	return parseNode(raw, "0")
}

func parseNode(raw any, id string) (Node, error) {
	m, ok := asMap(raw)
	if !ok || len(m) != 1 {
		return Node{}, fmt.Errorf("%w at %s: expected single-key object", ErrUnsupportedShape, id)
	}
	for key, val := range m {
		switch key {
		case "and", "or":
			items, ok := val.([]any)
			if !ok || len(items) == 0 {
				return Node{}, fmt.Errorf("%w at %s: %q needs a non-empty list", ErrUnsupportedShape, id, key)
			}
			n := Node{Kind: Kind(key), ClauseID: id, Children: make([]Node, 0, len(items))}
			for i, item := range items {
				child, err := parseNode(item, id+"."+strconv.Itoa(i))
				if err != nil {
					return Node{}, err
				}
				n.Children = append(n.Children, child)
			}
			return n, nil
		default:
			op, known := knownOperators[key]
			if !known {
				return Node{}, fmt.Errorf("%w at %s: operator %q", ErrUnsupportedShape, id, key)
			}
			return parseLeaf(op, val, id)
		}
	}
	return Node{}, fmt.Errorf("%w at %s", ErrUnsupportedShape, id)
}

func parseLeaf(op Operator, val any, id string) (Node, error) {
	args, ok := val.([]any)
	if !ok || len(args) != 2 {
		return Node{}, fmt.Errorf("%w at %s: comparison needs two operands", ErrUnsupportedShape, id)
	}
	if path, ok := varPath(args[0]); ok {
		if t, ok := sample.ToFloat(args[1]); ok {
			return Node{Kind: KindLeaf, ClauseID: id, VarPath: path, Op: op, Threshold: t}, nil
		}
	}
	if path, ok := varPath(args[1]); ok {
		if t, ok := sample.ToFloat(args[0]); ok {
			return Node{Kind: KindLeaf, ClauseID: id, VarPath: path, Op: op.flip(), Threshold: t}, nil
		}
	}
	return Node{}, fmt.Errorf("%w at %s: comparison must be between a var and a number", ErrUnsupportedShape, id)
}

func varPath(raw any) (string, bool) {
	m, ok := asMap(raw)
	if !ok {
		return "", false
	}
	p, ok := m["var"].(string)
	return p, ok && p != ""
}

// asMap accepts both decoder map shapes.
func asMap(raw any) (map[string]any, bool) {
	switch m := raw.(type) {
	case map[string]any:
		return m, true
	case map[any]any:
		out := make(map[string]any, len(m))
		for k, v := range m {
			ks, ok := k.(string)
			if !ok {
				return nil, false
			}
			out[ks] = v
		}
		return out, true
	}
	return nil, false
}

// #endregion parse

// #region evaluate
// Eval evaluates n against a sampled context. A leaf whose variable is
// missing fails.
func Eval(n Node, ctx sample.Context) bool {
	switch n.Kind {
	case KindAnd:
		for _, c := range n.Children {
			if !Eval(c, ctx) {
				return false
			}
		}
		return true
	case KindOr:
		for _, c := range n.Children {
			if Eval(c, ctx) {
				return true
			}
		}
		return false
	case KindLeaf:
		v, ok := sample.Number(ctx, n.VarPath)
		if !ok {
			return false
		}
		return n.Op.Compare(v, n.Threshold)
	}
	return false
}

// #endregion evaluate

// #region walk
// Walk visits every node depth-first, parents before children.
func Walk(n Node, visit func(Node)) {
	visit(n)
	switch n.Kind {
	case KindAnd, KindOr:
		for _, c := range n.Children {
			Walk(c, visit)
		}
	case KindLeaf:
	}
}

// Leaves returns every leaf in depth-first order.
func Leaves(n Node) []Node {
	var out []Node
	Walk(n, func(x Node) {
		if x.Kind == KindLeaf {
			out = append(out, x)
		}
	})
	return out
}

// AndReachableLeaves returns leaves connected to the root only through AND
// nodes; these must hold in every passing sample.
func AndReachableLeaves(n Node) []Node {
	switch n.Kind {
	case KindLeaf:
		return []Node{n}
	case KindAnd:
		var out []Node
		for _, c := range n.Children {
			out = append(out, AndReachableLeaves(c)...)
		}
		return out
	case KindOr:
	}
	return nil
}

// Find returns the node with the given clause id.
func Find(n Node, clauseID string) (Node, bool) {
	var found Node
	ok := false
	Walk(n, func(x Node) {
		if !ok && x.ClauseID == clauseID {
			found, ok = x, true
		}
	})
	return found, ok
}

// #endregion walk
