package domain

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrMissingInput  = errors.New("missing input")
	ErrSyntaxInvalid = errors.New("invalid latex syntax")
	ErrValueInvalid  = errors.New("invalid latex value")
	ErrExtraction    = errors.New("extraction failed")
	ErrTemporary     = errors.New("temporary failure")
	ErrInternal      = errors.New("internal failure")
)

// WrapError preserves typed semantic errors with operation context.
func WrapError(kind error, operation string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w: %w", operation, kind, err)
}

func IsKind(err error, kind error) bool {
	return errors.Is(err, kind)
}

// ParseError is the classified rejection of a LaTeX input by the expression parser.
// Kind is either ErrSyntaxInvalid or ErrValueInvalid.
type ParseError struct {
	Kind    error
	Input   string
	Message string
}

func (e *ParseError) Error() string {
	if e == nil {
		return "parse error"
	}
	return e.Message
}

func (e *ParseError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Kind
}

// IsParseFailure reports whether err carries a syntax or value classification.
func IsParseFailure(err error) bool {
	return IsKind(err, ErrSyntaxInvalid) || IsKind(err, ErrValueInvalid)
}

// Side names one of the two inputs of a comparison.
type Side string

const (
	SideLatex1 Side = "latex1"
	SideLatex2 Side = "latex2"
	SideLatex  Side = "latex"
)

// SideError tags a failure with the input it belongs to.
type SideError struct {
	Side Side
	Err  error
}

func (e *SideError) Error() string {
	return fmt.Sprintf("%s: %s", e.Side, e.Err.Error())
}

func (e *SideError) Unwrap() error {
	return e.Err
}

// SideErrors aggregates failures of both inputs when a comparison evaluates every side.
type SideErrors []*SideError

func (e SideErrors) Error() string {
	parts := make([]string, 0, len(e))
	for _, se := range e {
		parts = append(parts, se.Error())
	}
	return strings.Join(parts, "; ")
}

func (e SideErrors) Unwrap() []error {
	out := make([]error, 0, len(e))
	for _, se := range e {
		out = append(out, se)
	}
	return out
}
