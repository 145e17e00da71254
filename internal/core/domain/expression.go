package domain

import "strings"

type Kind string

const (
	KindNumber   Kind = "number"
	KindSymbol   Kind = "symbol"
	KindOperator Kind = "operator"
	KindFunction Kind = "function"
	KindGroup    Kind = "group"
)

// Operator values used by KindOperator nodes.
const (
	OpAdd       = "+"
	OpMul       = "*"
	OpPow       = "^"
	OpPlusMinus = "±"
	OpMinusPlus = "∓"
	OpEq        = "="
	OpNe        = "!="
	OpLt        = "<"
	OpLe        = "<="
	OpGt        = ">"
	OpGe        = ">="
)

// Node is a vertex of a symbolic expression tree. Operands are owned by their
// parent and kept in the order produced by the parser.
type Node struct {
	Kind     Kind    `json:"kind"`
	Value    string  `json:"value"`
	Operands []*Node `json:"operands,omitempty"`
}

func (n *Node) IsAtom() bool {
	return n != nil && (n.Kind == KindNumber || n.Kind == KindSymbol)
}

// String renders the tree in prefix notation, e.g. +(a,*(-1,b)).
func (n *Node) String() string {
	var b strings.Builder
	n.render(&b)
	return b.String()
}

func (n *Node) render(b *strings.Builder) {
	if n == nil {
		b.WriteString("<nil>")
		return
	}
	b.WriteString(n.Value)
	if n.IsAtom() {
		return
	}
	b.WriteByte('(')
	for i, op := range n.Operands {
		if i > 0 {
			b.WriteByte(',')
		}
		op.render(b)
	}
	b.WriteByte(')')
}

// Tokens is the canonical, comparison-ready serialization of a tree.
type Tokens []string

func (t Tokens) String() string {
	return strings.Join(t, " ")
}
