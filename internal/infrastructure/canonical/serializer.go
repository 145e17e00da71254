// Package canonical flattens symbolic trees into comparable token sequences.
package canonical

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/latexsim/latex-similarity/internal/core/domain"
)

var ErrMalformedTree = errors.New("malformed expression tree")

// Serializer emits tokens in pre-order. Operand order is taken from the tree
// as is.
type Serializer struct{}

func NewSerializer() *Serializer {
	return &Serializer{}
}

func (s *Serializer) Serialize(tree *domain.Node) (domain.Tokens, error) {
	if tree == nil {
		return nil, fmt.Errorf("%w: nil root", ErrMalformedTree)
	}
	out := make(domain.Tokens, 0, 16)
	if err := walk(tree, "root", &out); err != nil {
		return nil, err
	}
	return out, nil
}

func walk(n *domain.Node, path string, out *domain.Tokens) error {
	if n == nil {
		return fmt.Errorf("%w: nil node at %s", ErrMalformedTree, path)
	}
	head, err := headToken(n)
	if err != nil {
		return fmt.Errorf("%w at %s", err, path)
	}
	*out = append(*out, head)
	for i, child := range n.Operands {
		if err := walk(child, path+"."+strconv.Itoa(i), out); err != nil {
			return err
		}
	}
	return nil
}

func headToken(n *domain.Node) (string, error) {
	if n.Value == "" {
		return "", fmt.Errorf("%w: empty %s value", ErrMalformedTree, n.Kind)
	}

	switch n.Kind {
	case domain.KindNumber, domain.KindSymbol:
		if len(n.Operands) > 0 {
			return "", fmt.Errorf("%w: atom %q has operands", ErrMalformedTree, n.Value)
		}
		return n.Value, nil

	case domain.KindOperator:
		switch n.Value {
		case domain.OpAdd, domain.OpMul:
			if len(n.Operands) < 2 {
				return "", fmt.Errorf("%w: %q needs at least two operands", ErrMalformedTree, n.Value)
			}
			return withArity(n), nil
		default:
			if len(n.Operands) != 2 {
				return "", fmt.Errorf("%w: %q needs two operands, got %d", ErrMalformedTree, n.Value, len(n.Operands))
			}
			return n.Value, nil
		}

	case domain.KindFunction, domain.KindGroup:
		if len(n.Operands) == 0 {
			return "", fmt.Errorf("%w: %s %q has no operands", ErrMalformedTree, n.Kind, n.Value)
		}
		return withArity(n), nil
	}

	return "", fmt.Errorf("%w: unknown node kind %q", ErrMalformedTree, n.Kind)
}

func withArity(n *domain.Node) string {
	return n.Value + "/" + strconv.Itoa(len(n.Operands))
}
