package usecase

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/latexsim/latex-similarity/internal/core/domain"
)

type parserFake struct {
	calls   []string
	fail    map[string]error
	panic   string
	onParse func(latex string)
}

func (f *parserFake) Parse(latex string) (*domain.Node, error) {
	f.calls = append(f.calls, latex)
	if f.onParse != nil {
		f.onParse(latex)
	}
	if f.panic != "" && latex == f.panic {
		panic("parser exploded")
	}
	if err, ok := f.fail[latex]; ok {
		return nil, err
	}
	return &domain.Node{Kind: domain.KindSymbol, Value: latex}, nil
}

type serializerFake struct {
	err error
}

func (f *serializerFake) Serialize(tree *domain.Node) (domain.Tokens, error) {
	if f.err != nil {
		return nil, f.err
	}
	return domain.Tokens(strings.Fields(tree.Value)), nil
}

type scorerFake struct {
	ratio float64
	calls int
}

func (f *scorerFake) Ratio(_, _ domain.Tokens) float64 {
	f.calls++
	return f.ratio
}

type comparisonRecorderFake struct {
	outcomes []string
}

func (f *comparisonRecorderFake) RecordComparison(_ string, outcome string, _ float64, _ time.Duration) {
	f.outcomes = append(f.outcomes, outcome)
}

func syntaxErr(input, msg string) error {
	return &domain.ParseError{Kind: domain.ErrSyntaxInvalid, Input: input, Message: msg}
}

func TestCompareFormatsRatio(t *testing.T) {
	scorer := &scorerFake{ratio: 0.75}
	recorder := &comparisonRecorderFake{}
	uc := NewCompareUseCase(&parserFake{}, &serializerFake{}, scorer, CompareOptions{Recorder: recorder})

	res, err := uc.Compare(context.Background(), "a b c d", "b c d e")
	if err != nil {
		t.Fatalf("Compare() error = %v", err)
	}
	if res.Similarity != "75.00%" {
		t.Fatalf("expected 75.00%%, got %q", res.Similarity)
	}
	if scorer.calls != 1 {
		t.Fatalf("expected one scorer call, got %d", scorer.calls)
	}
	if len(recorder.outcomes) != 1 || recorder.outcomes[0] != "ok" {
		t.Fatalf("unexpected recorded outcomes %v", recorder.outcomes)
	}
}

func TestCompareRejectsMissingInputBeforeParsing(t *testing.T) {
	parser := &parserFake{}
	scorer := &scorerFake{}
	uc := NewCompareUseCase(parser, &serializerFake{}, scorer, CompareOptions{})

	for _, pair := range [][2]string{{"x", ""}, {"", "x"}, {"  ", "\t"}} {
		_, err := uc.Compare(context.Background(), pair[0], pair[1])
		if !errors.Is(err, domain.ErrMissingInput) {
			t.Fatalf("Compare(%q, %q) expected ErrMissingInput, got %v", pair[0], pair[1], err)
		}
	}
	if len(parser.calls) != 0 || scorer.calls != 0 {
		t.Fatalf("expected no parser or scorer calls, got %d and %d", len(parser.calls), scorer.calls)
	}
}

func TestCompareFailsFastOnFirstSide(t *testing.T) {
	parser := &parserFake{fail: map[string]error{
		`\frac{1}{`: syntaxErr(`\frac{1}{`, "unexpected end of input"),
		`1.2.3`:     syntaxErr(`1.2.3`, "never reached"),
	}}
	uc := NewCompareUseCase(parser, &serializerFake{}, &scorerFake{}, CompareOptions{})

	_, err := uc.Compare(context.Background(), `\frac{1}{`, `1.2.3`)
	if !errors.Is(err, domain.ErrSyntaxInvalid) {
		t.Fatalf("expected syntax error, got %v", err)
	}
	if err.Error() != "latex1: unexpected end of input" {
		t.Fatalf("unexpected message %q", err.Error())
	}
	if len(parser.calls) != 1 {
		t.Fatalf("expected latex2 to be skipped, parser calls = %v", parser.calls)
	}
}

func TestCompareTagsSecondSide(t *testing.T) {
	parser := &parserFake{fail: map[string]error{
		"bad": &domain.ParseError{Kind: domain.ErrValueInvalid, Input: "bad", Message: "malformed number"},
	}}
	uc := NewCompareUseCase(parser, &serializerFake{}, &scorerFake{}, CompareOptions{})

	_, err := uc.Compare(context.Background(), "x", "bad")
	if !errors.Is(err, domain.ErrValueInvalid) {
		t.Fatalf("expected value error, got %v", err)
	}
	var sideErr *domain.SideError
	if !errors.As(err, &sideErr) || sideErr.Side != domain.SideLatex2 {
		t.Fatalf("expected latex2 side error, got %#v", err)
	}
}

func TestCompareReportBothJoinsSides(t *testing.T) {
	parser := &parserFake{fail: map[string]error{
		"a(": syntaxErr("a(", "unexpected end of input"),
		"b)": syntaxErr("b)", "unexpected )"),
	}}
	uc := NewCompareUseCase(parser, &serializerFake{}, &scorerFake{}, CompareOptions{ReportBoth: true})

	_, err := uc.Compare(context.Background(), "a(", "b)")
	want := "latex1: unexpected end of input; latex2: unexpected )"
	if err == nil || err.Error() != want {
		t.Fatalf("expected %q, got %v", want, err)
	}
	if !errors.Is(err, domain.ErrSyntaxInvalid) {
		t.Fatalf("expected joined error to keep its kind")
	}
	if len(parser.calls) != 2 {
		t.Fatalf("expected both sides parsed, got %v", parser.calls)
	}
}

func TestCompareContainsUnclassifiedFailures(t *testing.T) {
	cases := map[string]*CompareUseCase{
		"parser error": NewCompareUseCase(
			&parserFake{fail: map[string]error{"x": errors.New("boom")}},
			&serializerFake{}, &scorerFake{}, CompareOptions{},
		),
		"parser panic": NewCompareUseCase(
			&parserFake{panic: "x"},
			&serializerFake{}, &scorerFake{}, CompareOptions{},
		),
		"serializer error": NewCompareUseCase(
			&parserFake{},
			&serializerFake{err: errors.New("malformed")}, &scorerFake{}, CompareOptions{},
		),
		"ratio out of range": NewCompareUseCase(
			&parserFake{},
			&serializerFake{}, &scorerFake{ratio: 1.5}, CompareOptions{},
		),
	}

	for name, uc := range cases {
		_, err := uc.Compare(context.Background(), "x", "y")
		if !errors.Is(err, domain.ErrInternal) {
			t.Fatalf("%s: expected ErrInternal, got %v", name, err)
		}
		if domain.IsParseFailure(err) {
			t.Fatalf("%s: internal failure classified as parse failure", name)
		}
	}
}

func TestNormalizeReturnsTreeAndTokens(t *testing.T) {
	uc := NewCompareUseCase(&parserFake{}, &serializerFake{}, &scorerFake{}, CompareOptions{})

	res, err := uc.Normalize(context.Background(), "a b")
	if err != nil {
		t.Fatalf("Normalize() error = %v", err)
	}
	if res.Canonical != "a b" || res.Tokens.String() != "a b" {
		t.Fatalf("unexpected normalization %+v", res)
	}

	_, err = uc.Normalize(context.Background(), "")
	if !errors.Is(err, domain.ErrMissingInput) {
		t.Fatalf("expected ErrMissingInput, got %v", err)
	}
}

func TestNormalizeTagsSingleInput(t *testing.T) {
	parser := &parserFake{fail: map[string]error{"(": syntaxErr("(", "unexpected end of input")}}
	uc := NewCompareUseCase(parser, &serializerFake{}, &scorerFake{}, CompareOptions{})

	_, err := uc.Normalize(context.Background(), "(")
	if err == nil || err.Error() != "latex: unexpected end of input" {
		t.Fatalf("unexpected error %v", err)
	}
}

func TestCompareHonoursCanceledContext(t *testing.T) {
	parser := &parserFake{}
	uc := NewCompareUseCase(parser, &serializerFake{}, &scorerFake{}, CompareOptions{})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := uc.Compare(ctx, "x", "y")
	if !errors.Is(err, domain.ErrTemporary) || !errors.Is(err, context.Canceled) {
		t.Fatalf("expected temporary cancellation, got %v", err)
	}
	if len(parser.calls) != 0 {
		t.Fatalf("expected no parsing after cancellation")
	}
}

func TestCompareStopsWhenCanceledMidway(t *testing.T) {
	cases := map[string]string{
		"after first side":  "x",
		"after second side": "y",
	}
	for name, cancelOn := range cases {
		ctx, cancel := context.WithCancel(context.Background())
		parser := &parserFake{onParse: func(latex string) {
			if latex == cancelOn {
				cancel()
			}
		}}
		scorer := &scorerFake{}
		uc := NewCompareUseCase(parser, &serializerFake{}, scorer, CompareOptions{})

		_, err := uc.Compare(ctx, "x", "y")
		cancel()
		if !errors.Is(err, domain.ErrTemporary) || !errors.Is(err, context.Canceled) {
			t.Fatalf("%s: expected temporary cancellation, got %v", name, err)
		}
		if scorer.calls != 0 {
			t.Fatalf("%s: expected scorer to be skipped, got %d calls", name, scorer.calls)
		}
		if cancelOn == "x" && len(parser.calls) != 1 {
			t.Fatalf("%s: expected second side to be skipped, parsed %v", name, parser.calls)
		}
	}
}
