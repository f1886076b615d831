package expr

import (
	"errors"
	"fmt"
)

// #region kind
// Kind tags a prerequisite node.
type Kind string

const (
	KindAnd  Kind = "and"
	KindOr   Kind = "or"
	KindLeaf Kind = "leaf"
)

// #endregion kind

// #region operator
// Operator is a leaf comparison.
type Operator string

const (
	OpGTE Operator = ">="
	OpGT  Operator = ">"
	OpLTE Operator = "<="
	OpLT  Operator = "<"
	OpEQ  Operator = "=="
	OpNEQ Operator = "!="
)

// Compare applies op to (value, threshold).
func (op Operator) Compare(value, threshold float64) bool {
	switch op {
	case OpGTE:
		return value >= threshold
	case OpGT:
		return value > threshold
	case OpLTE:
		return value <= threshold
	case OpLT:
		return value < threshold
	case OpEQ:
		return value == threshold
	case OpNEQ:
		return value != threshold
	}
	return false
}

// IsLowerBound reports whether the comparison asks the value to be large.
func (op Operator) IsLowerBound() bool {
	return op == OpGTE || op == OpGT
}

// flip mirrors the operator for a "threshold op var" leaf.
func (op Operator) flip() Operator {
	switch op {
	case OpGTE:
		return OpLTE
	case OpGT:
		return OpLT
	case OpLTE:
		return OpGTE
	case OpLT:
		return OpGT
	}
	return op
}

var knownOperators = map[string]Operator{
	">=": OpGTE, ">": OpGT, "<=": OpLTE, "<": OpLT, "==": OpEQ, "!=": OpNEQ,
}

// #endregion operator

// #region node
// Node is a prerequisite tree. And/Or nodes use Children; Leaf nodes use
// VarPath, Op and Threshold. ClauseID is the node's position ("0", "0.1", ...).
type Node struct {
	Kind      Kind
	ClauseID  string
	Children  []Node
	VarPath   string
	Op        Operator
	Threshold float64
}

// Description renders a leaf as "emotions.joy >= 0.50" and an interior node
// as its kind plus child count.
func (n Node) Description() string {
	switch n.Kind {
	case KindLeaf:
		return fmt.Sprintf("%s %s %.2f", n.VarPath, n.Op, n.Threshold)
	case KindAnd:
		return fmt.Sprintf("AND (%d clauses)", len(n.Children))
	case KindOr:
		return fmt.Sprintf("OR (%d alternatives)", len(n.Children))
	}
	return string(n.Kind)
}

// #endregion node

// #region errors
var (
	ErrEmptyExpression  = errors.New("prerequisite expression is empty")
	ErrUnsupportedShape = errors.New("unsupported prerequisite shape")
)

// #endregion errors
