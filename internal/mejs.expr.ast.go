package internal

import (
	"fmt"
	"strings"
)

// ExprNode is a node of an embedded expression tree. String renders the
// node back to source form for error messages.
type ExprNode interface {
	fmt.Stringer
	exprNode()
}

// LiteralNode holds a string, float64, bool, nil or Undefined.
type LiteralNode struct {
	Value any
}

func (n *LiteralNode) exprNode() {}

func (n *LiteralNode) String() string {
	switch v := n.Value.(type) {
	case string:
		return fmt.Sprintf("%q", v)
	case nil:
		return ExprKeywordNull
	case Undefined:
		return ExprKeywordUndefined
	default:
		return Stringify(v)
	}
}

// IdentifierNode is a variable reference; Name may be a dotted path
type IdentifierNode struct {
	Name string
}

func (n *IdentifierNode) exprNode()      {}
func (n *IdentifierNode) String() string { return n.Name }

// UnaryNode is !x, -x or +x.
type UnaryNode struct {
	Op    TokKind
	Right ExprNode
}

func (n *UnaryNode) exprNode() {}

func (n *UnaryNode) String() string {
	return fmt.Sprintf("(%s %s)", n.Op, n.Right)
}

type BinaryNode struct {
	Left  ExprNode
	Op    TokKind
	Right ExprNode
}

func (n *BinaryNode) exprNode() {}

func (n *BinaryNode) String() string {
	return fmt.Sprintf("(%s %s %s)", n.Left, n.Op, n.Right)
}

// TernaryNode represents cond ? then : else
type TernaryNode struct {
	Cond ExprNode
	Then ExprNode
	Else ExprNode
}

func (n *TernaryNode) exprNode() {}

func (n *TernaryNode) String() string {
	return fmt.Sprintf("(%s ? %s : %s)", n.Cond, n.Then, n.Else)
}

// CallNode calls a function by its (possibly dotted) name. When no function
// of that name exists, a dotted name is treated as a method call on the
// value named by its prefix.
type CallNode struct {
	Name string
	Args []ExprNode
}

func (n *CallNode) exprNode() {}

func (n *CallNode) String() string {
	return fmt.Sprintf("%s(%s)", n.Name, joinNodes(n.Args))
}

// MemberNode is property access on an arbitrary expression
type MemberNode struct {
	Target ExprNode
	Name   string
}

func (n *MemberNode) exprNode()      {}
func (n *MemberNode) String() string { return n.Target.String() + "." + n.Name }

// IndexNode is bracket access: target[index]
type IndexNode struct {
	Target ExprNode
	Index  ExprNode
}

func (n *IndexNode) exprNode() {}

func (n *IndexNode) String() string {
	return fmt.Sprintf("%s[%s]", n.Target, n.Index)
}

// MethodCallNode calls a value method on the result of an expression
type MethodCallNode struct {
	Target ExprNode
	Method string
	Args   []ExprNode
}

func (n *MethodCallNode) exprNode() {}

func (n *MethodCallNode) String() string {
	return fmt.Sprintf("%s.%s(%s)", n.Target, n.Method, joinNodes(n.Args))
}

// ObjectNode is an object literal; Keys and Values are parallel
type ObjectNode struct {
	Keys   []string
	Values []ExprNode
}

func (n *ObjectNode) exprNode() {}

func (n *ObjectNode) String() string {
	parts := make([]string, len(n.Keys))
	for i, k := range n.Keys {
		parts[i] = k + ": " + n.Values[i].String()
	}
	return "{" + strings.Join(parts, ", ") + "}"
}

type ArrayNode struct {
	Elements []ExprNode
}

func (n *ArrayNode) exprNode()      {}
func (n *ArrayNode) String() string { return "[" + joinNodes(n.Elements) + "]" }

func joinNodes(nodes []ExprNode) string {
	parts := make([]string, len(nodes))
	for i, n := range nodes {
		parts[i] = n.String()
	}
	return strings.Join(parts, ", ")
}
