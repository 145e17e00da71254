package mcpadapter

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/latexsim/latex-similarity/internal/core/domain"
	"github.com/latexsim/latex-similarity/internal/core/usecase"
	"github.com/latexsim/latex-similarity/internal/infrastructure/canonical"
	"github.com/latexsim/latex-similarity/internal/infrastructure/latex"
	"github.com/latexsim/latex-similarity/internal/infrastructure/similarity"
)

func newTestHandlers() *handlers {
	comparer := usecase.NewCompareUseCase(
		latex.NewAdapter(nil),
		canonical.NewSerializer(),
		similarity.NewMatcher(),
		usecase.CompareOptions{},
	)
	return &handlers{comparer: comparer, catalog: latex.DefaultCatalog(), logger: newDiscardLogger()}
}

func callRequest(name string, args map[string]any) mcp.CallToolRequest {
	var req mcp.CallToolRequest
	req.Params.Name = name
	req.Params.Arguments = args
	return req
}

func resultText(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()
	if res == nil || len(res.Content) == 0 {
		t.Fatalf("expected content in tool result")
	}
	text, ok := mcp.AsTextContent(res.Content[0])
	if !ok {
		t.Fatalf("expected text content, got %T", res.Content[0])
	}
	return text.Text
}

func TestNewServerRegistersTools(t *testing.T) {
	s := NewServer("latex-similarity", "test", nil, latex.DefaultCatalog(), nil)
	tools := s.ListTools()
	for _, name := range []string{ToolCompare, ToolNormalize, ToolOperations} {
		if _, ok := tools[name]; !ok {
			t.Fatalf("expected tool %s to be registered", name)
		}
	}
}

func TestCompareTool(t *testing.T) {
	h := newTestHandlers()

	res, err := h.compare(context.Background(), callRequest(ToolCompare, map[string]any{
		"latex1": `a \cdot b`,
		"latex2": `a \times b`,
	}))
	if err != nil {
		t.Fatalf("compare() error = %v", err)
	}
	if res.IsError || resultText(t, res) != "100.00%" {
		t.Fatalf("unexpected result %+v", res)
	}
	if _, ok := res.StructuredContent.(*domain.ComparisonResult); !ok {
		t.Fatalf("expected structured comparison result, got %T", res.StructuredContent)
	}
}

func TestCompareToolReportsFailuresInBand(t *testing.T) {
	h := newTestHandlers()

	res, err := h.compare(context.Background(), callRequest(ToolCompare, map[string]any{"latex1": "x"}))
	if err != nil {
		t.Fatalf("compare() error = %v", err)
	}
	if !res.IsError || resultText(t, res) != "Missing LaTeX strings" {
		t.Fatalf("expected missing input tool error, got %+v", res)
	}

	res, _ = h.compare(context.Background(), callRequest(ToolCompare, map[string]any{
		"latex1": `\frac{1}{`,
		"latex2": "x",
	}))
	if !res.IsError || !strings.HasPrefix(resultText(t, res), "latex1: ") {
		t.Fatalf("expected latex1 parse error, got %+v", res)
	}
}

type failingComparer struct{}

func (failingComparer) Compare(context.Context, string, string) (*domain.ComparisonResult, error) {
	return nil, domain.WrapError(domain.ErrInternal, "compare", errors.New("db password leaked"))
}

func (failingComparer) Normalize(context.Context, string) (*domain.Normalization, error) {
	return nil, errors.New("boom")
}

func TestToolHidesInternalErrors(t *testing.T) {
	h := &handlers{comparer: failingComparer{}, catalog: latex.DefaultCatalog(), logger: newDiscardLogger()}

	res, _ := h.compare(context.Background(), callRequest(ToolCompare, map[string]any{"latex1": "a", "latex2": "b"}))
	if !res.IsError || resultText(t, res) != "internal error" {
		t.Fatalf("expected generic internal error, got %+v", res)
	}
}

func TestNormalizeAndOperationsTools(t *testing.T) {
	h := newTestHandlers()

	res, err := h.normalize(context.Background(), callRequest(ToolNormalize, map[string]any{"latex": `x^2 + 1`}))
	if err != nil || res.IsError {
		t.Fatalf("normalize() = %+v, %v", res, err)
	}
	if resultText(t, res) != "+(1,^(x,2))\n+/2 1 ^ x 2" {
		t.Fatalf("unexpected normalize text %q", resultText(t, res))
	}

	res, err = h.operations(context.Background(), callRequest(ToolOperations, nil))
	if err != nil || res.IsError {
		t.Fatalf("operations() = %+v, %v", res, err)
	}
	if !strings.HasPrefix(resultText(t, res), "frac, ") {
		t.Fatalf("unexpected operations text %q", resultText(t, res))
	}
}

func newDiscardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
