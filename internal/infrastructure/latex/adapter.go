package latex

import (
	"errors"
	"fmt"

	"github.com/latexsim/latex-similarity/internal/core/domain"
)

// Adapter exposes Parser through the ports.ExpressionParser contract. Parser
// rejections become *domain.ParseError; anything else, including a panic,
// is returned unclassified.
type Adapter struct {
	parser *Parser
}

func NewAdapter(parser *Parser) *Adapter {
	if parser == nil {
		parser = NewParser(nil, Options{})
	}
	return &Adapter{parser: parser}
}

func (a *Adapter) Parse(input string) (tree *domain.Node, err error) {
	defer func() {
		if r := recover(); r != nil {
			tree, err = nil, fmt.Errorf("latex parser panic: %v", r)
		}
	}()

	tree, err = a.parser.Parse(input)
	if err == nil {
		return tree, nil
	}

	var syntaxErr *SyntaxError
	if errors.As(err, &syntaxErr) {
		return nil, &domain.ParseError{Kind: domain.ErrSyntaxInvalid, Input: input, Message: syntaxErr.Error()}
	}
	var valueErr *ValueError
	if errors.As(err, &valueErr) {
		return nil, &domain.ParseError{Kind: domain.ErrValueInvalid, Input: input, Message: valueErr.Error()}
	}
	return nil, err
}
