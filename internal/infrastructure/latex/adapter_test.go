package latex

import (
	"errors"
	"testing"

	"github.com/latexsim/latex-similarity/internal/core/domain"
)

func TestAdapterClassifiesRejections(t *testing.T) {
	adapter := NewAdapter(nil)

	cases := []struct {
		input string
		kind  error
	}{
		{`\frac{1}{`, domain.ErrSyntaxInvalid},
		{`\unknowncommand`, domain.ErrSyntaxInvalid},
		{`1.2.3`, domain.ErrValueInvalid},
		{`{}`, domain.ErrValueInvalid},
	}

	for _, tc := range cases {
		_, err := adapter.Parse(tc.input)
		var parseErr *domain.ParseError
		if !errors.As(err, &parseErr) {
			t.Fatalf("Parse(%q) expected ParseError, got %T %v", tc.input, err, err)
		}
		if !errors.Is(err, tc.kind) {
			t.Fatalf("Parse(%q) kind = %v, want %v", tc.input, parseErr.Kind, tc.kind)
		}
		if parseErr.Input != tc.input {
			t.Fatalf("Parse(%q) recorded input %q", tc.input, parseErr.Input)
		}
		if parseErr.Message == "" {
			t.Fatalf("Parse(%q) returned empty message", tc.input)
		}
	}
}

func TestAdapterReturnsTree(t *testing.T) {
	tree, err := NewAdapter(nil).Parse(`x^2 + 1`)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if got := tree.String(); got != "+(1,^(x,2))" {
		t.Fatalf("unexpected tree %s", got)
	}
}

func TestCatalogOperationsAreCopied(t *testing.T) {
	catalog := DefaultCatalog()
	ops := catalog.Operations()
	if len(ops) != 15 || ops[0] != "frac" || ops[len(ops)-1] != "log" {
		t.Fatalf("unexpected operations %v", ops)
	}
	ops[0] = "mutated"
	if catalog.Operations()[0] != "frac" {
		t.Fatalf("Operations() exposed internal slice")
	}
}

func TestLoadCatalogRequiresFunctions(t *testing.T) {
	if _, err := LoadCatalog([]byte("operations: [frac]\n")); err == nil {
		t.Fatalf("expected error for catalog without functions")
	}
	if _, err := LoadCatalog([]byte("functions: [")); err == nil {
		t.Fatalf("expected decode error")
	}
}
