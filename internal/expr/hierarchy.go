package expr

import "sort"

// #region hierarchical-node
// HierarchicalNode is the per-clause evaluation breakdown of a prerequisite
// tree over a set of samples. Counts are kept globally and within the regime.
type HierarchicalNode struct {
	Kind        Kind
	ClauseID    string
	Description string

	// Leaf fields.
	VarPath   string
	Operator  Operator
	Threshold float64

	EvaluationCount         int
	FailureCount            int
	InRegimeEvaluationCount int
	InRegimeFailureCount    int

	// Set on the children of an OR node.
	OrPassCount                  int
	OrExclusivePassCount         int
	InRegimeOrPassCount          int
	InRegimeOrExclusivePassCount int

	// Set on OR nodes.
	UnionPassCount             int
	ExclusivePassCount         int
	InRegimeUnionPassCount     int
	InRegimeExclusivePassCount int
	CoPassCounts               map[string]map[string]int // clauseID -> clauseID -> samples where both pass

	Children []*HierarchicalNode
}

// FailureRate is FailureCount / EvaluationCount, 0 when never evaluated.
func (h *HierarchicalNode) FailureRate() float64 {
	return ratio(h.FailureCount, h.EvaluationCount)
}

// InRegimeFailureRate is the in-regime equivalent of FailureRate.
func (h *HierarchicalNode) InRegimeFailureRate() float64 {
	return ratio(h.InRegimeFailureCount, h.InRegimeEvaluationCount)
}

// PassCount is the number of samples in which the node held.
func (h *HierarchicalNode) PassCount() int {
	return h.EvaluationCount - h.FailureCount
}

// InRegimePassCount is the in-regime equivalent of PassCount.
func (h *HierarchicalNode) InRegimePassCount() int {
	return h.InRegimeEvaluationCount - h.InRegimeFailureCount
}

// TopCoPassPair returns the pair of alternatives that most often pass
// together. ok is false when no pair ever co-passed.
func (h *HierarchicalNode) TopCoPassPair() (a, b string, count int, ok bool) {
	keys := make([]string, 0, len(h.CoPassCounts))
	for k := range h.CoPassCounts {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, x := range keys {
		inner := h.CoPassCounts[x]
		ys := make([]string, 0, len(inner))
		for y := range inner {
			ys = append(ys, y)
		}
		sort.Strings(ys)
		for _, y := range ys {
			if c := inner[y]; c > count {
				a, b, count, ok = x, y, c, true
			}
		}
	}
	return a, b, count, ok
}

// OrBlocks collects every OR node in the breakdown, depth-first.
func (h *HierarchicalNode) OrBlocks() []*HierarchicalNode {
	var out []*HierarchicalNode
	var walk func(*HierarchicalNode)
	walk = func(n *HierarchicalNode) {
		if n == nil {
			return
		}
		if n.Kind == KindOr {
			out = append(out, n)
		}
		for _, c := range n.Children {
			walk(c)
		}
	}
	walk(h)
	return out
}

// LeafNodes collects every leaf in the breakdown, depth-first.
func (h *HierarchicalNode) LeafNodes() []*HierarchicalNode {
	var out []*HierarchicalNode
	var walk func(*HierarchicalNode)
	walk = func(n *HierarchicalNode) {
		if n == nil {
			return
		}
		if n.Kind == KindLeaf {
			out = append(out, n)
		}
		for _, c := range n.Children {
			walk(c)
		}
	}
	walk(h)
	return out
}

// #endregion hierarchical-node

// #region builder
// NewHierarchy allocates an empty breakdown mirroring n.
func NewHierarchy(n Node) *HierarchicalNode {
	h := &HierarchicalNode{
		Kind:        n.Kind,
		ClauseID:    n.ClauseID,
		Description: n.Description(),
		VarPath:     n.VarPath,
		Operator:    n.Op,
		Threshold:   n.Threshold,
	}
	if n.Kind == KindOr {
		h.CoPassCounts = make(map[string]map[string]int)
	}
	for _, c := range n.Children {
		h.Children = append(h.Children, NewHierarchy(c))
	}
	return h
}

// Record evaluates n (mirrored by h) against ctx without short-circuiting so
// every clause is counted, and returns whether n held.
func Record(h *HierarchicalNode, n Node, ctx map[string]any, inRegime bool) bool {
	var pass bool
	switch n.Kind {
	case KindLeaf:
		pass = Eval(n, ctx)
	case KindAnd:
		pass = true
		for i, c := range n.Children {
			if !Record(h.Children[i], c, ctx, inRegime) {
				pass = false
			}
		}
	case KindOr:
		passed := make([]int, 0, len(n.Children))
		for i, c := range n.Children {
			if Record(h.Children[i], c, ctx, inRegime) {
				passed = append(passed, i)
			}
		}
		pass = len(passed) > 0
		recordOr(h, passed, inRegime)
	}

	h.EvaluationCount++
	if inRegime {
		h.InRegimeEvaluationCount++
	}
	if !pass {
		h.FailureCount++
		if inRegime {
			h.InRegimeFailureCount++
		}
	}
	return pass
}

func recordOr(h *HierarchicalNode, passed []int, inRegime bool) {
	if len(passed) > 0 {
		h.UnionPassCount++
		if inRegime {
			h.InRegimeUnionPassCount++
		}
	}
	if len(passed) == 1 {
		h.ExclusivePassCount++
		if inRegime {
			h.InRegimeExclusivePassCount++
		}
	}
	for _, i := range passed {
		child := h.Children[i]
		child.OrPassCount++
		if inRegime {
			child.InRegimeOrPassCount++
		}
		if len(passed) == 1 {
			child.OrExclusivePassCount++
			if inRegime {
				child.InRegimeOrExclusivePassCount++
			}
		}
	}
	for x := 0; x < len(passed); x++ {
		for y := x + 1; y < len(passed); y++ {
			a, b := h.Children[passed[x]].ClauseID, h.Children[passed[y]].ClauseID
			if h.CoPassCounts[a] == nil {
				h.CoPassCounts[a] = make(map[string]int)
			}
			h.CoPassCounts[a][b]++
		}
	}
}

// #endregion builder

func ratio(num, den int) float64 {
	if den == 0 {
		return 0
	}
	return float64(num) / float64(den)
}
