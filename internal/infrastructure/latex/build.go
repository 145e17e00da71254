package latex

import (
	"sort"
	"strings"

	"github.com/latexsim/latex-similarity/internal/core/domain"
)

// Constructors for symbolic nodes. Sums and products are flattened and their
// operands put in canonical order, so the tree shape no longer depends on
// how the input happened to group or order commutative operands.

func number(v string) *domain.Node {
	return &domain.Node{Kind: domain.KindNumber, Value: v}
}

func symbol(name string) *domain.Node {
	return &domain.Node{Kind: domain.KindSymbol, Value: name}
}

func function(name string, args ...*domain.Node) *domain.Node {
	return &domain.Node{Kind: domain.KindFunction, Value: name, Operands: args}
}

func group(kind string, items ...*domain.Node) *domain.Node {
	return &domain.Node{Kind: domain.KindGroup, Value: kind, Operands: items}
}

func operator(op string, operands ...*domain.Node) *domain.Node {
	return &domain.Node{Kind: domain.KindOperator, Value: op, Operands: operands}
}

func add(terms ...*domain.Node) *domain.Node {
	return commutative(domain.OpAdd, terms)
}

func mul(factors ...*domain.Node) *domain.Node {
	return commutative(domain.OpMul, factors)
}

func pow(base, exp *domain.Node) *domain.Node {
	return operator(domain.OpPow, base, exp)
}

func reciprocal(n *domain.Node) *domain.Node {
	return pow(n, number("-1"))
}

// neg negates a plain numeric literal in place and wraps anything else as -1*n.
func neg(n *domain.Node) *domain.Node {
	if n.Kind == domain.KindNumber {
		if strings.HasPrefix(n.Value, "-") {
			return number(strings.TrimPrefix(n.Value, "-"))
		}
		return number("-" + n.Value)
	}
	return mul(number("-1"), n)
}

func commutative(op string, items []*domain.Node) *domain.Node {
	flat := make([]*domain.Node, 0, len(items))
	for _, it := range items {
		if it.Kind == domain.KindOperator && it.Value == op {
			flat = append(flat, it.Operands...)
			continue
		}
		flat = append(flat, it)
	}
	if len(flat) == 1 {
		return flat[0]
	}
	sortOperands(flat)
	return operator(op, flat...)
}

func sortOperands(nodes []*domain.Node) {
	keys := make(map[*domain.Node]string, len(nodes))
	for _, n := range nodes {
		keys[n] = n.String()
	}
	sort.SliceStable(nodes, func(i, j int) bool {
		ri, rj := rank(nodes[i]), rank(nodes[j])
		if ri != rj {
			return ri < rj
		}
		return keys[nodes[i]] < keys[nodes[j]]
	})
}

func rank(n *domain.Node) int {
	switch n.Kind {
	case domain.KindNumber:
		return 0
	case domain.KindSymbol:
		return 1
	case domain.KindFunction:
		return 2
	case domain.KindOperator:
		switch n.Value {
		case domain.OpPow:
			return 3
		case domain.OpMul:
			return 4
		case domain.OpAdd:
			return 5
		default:
			return 6
		}
	default:
		return 7
	}
}
