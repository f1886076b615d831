package expr

// #region edit
// Rewrite returns a copy of root in which the node with clauseID has been
// replaced by fn(node). root is never modified. ok is false when no node
// matched.
func Rewrite(root Node, clauseID string, fn func(Node) Node) (Node, bool) {
	if root.ClauseID == clauseID {
		return fn(root), true
	}
	if root.Kind == KindLeaf || len(root.Children) == 0 {
		return root, false
	}
	children := make([]Node, len(root.Children))
	matched := false
	for i, c := range root.Children {
		if matched {
			children[i] = c
			continue
		}
		children[i], matched = Rewrite(c, clauseID, fn)
	}
	root.Children = children
	return root, matched
}

// WithThreshold replaces the threshold of one leaf.
func WithThreshold(root Node, clauseID string, threshold float64) (Node, bool) {
	return Rewrite(root, clauseID, func(n Node) Node {
		n.Threshold = threshold
		return n
	})
}

// WithKind switches an AND node to OR or back.
func WithKind(root Node, clauseID string, kind Kind) (Node, bool) {
	return Rewrite(root, clauseID, func(n Node) Node {
		if n.Kind != KindLeaf {
			n.Kind = kind
		}
		return n
	})
}

// WithoutChild removes the child whose clause id is childID from its parent.
// A parent left with no children is kept empty: an empty AND passes, an
// empty OR fails.
func WithoutChild(root Node, childID string) (Node, bool) {
	parentID, ok := parentClauseID(childID)
	if !ok {
		return root, false
	}
	removed := false
	out, matched := Rewrite(root, parentID, func(n Node) Node {
		kept := make([]Node, 0, len(n.Children))
		for _, c := range n.Children {
			if c.ClauseID == childID {
				removed = true
				continue
			}
			kept = append(kept, c)
		}
		n.Children = kept
		return n
	})
	return out, matched && removed
}

func parentClauseID(id string) (string, bool) {
	for i := len(id) - 1; i >= 0; i-- {
		if id[i] == '.' {
			return id[:i], true
		}
	}
	return "", false
}

// #endregion edit
