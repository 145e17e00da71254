package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/latexsim/latex-similarity/internal/core/domain"
	"github.com/latexsim/latex-similarity/internal/core/ports"
)

// ComparisonRecorder receives one observation per finished comparison.
type ComparisonRecorder interface {
	RecordComparison(service, outcome string, ratio float64, duration time.Duration)
}

type CompareOptions struct {
	// ReportBoth evaluates both inputs before failing so that the error names
	// every side that could not be parsed.
	ReportBoth bool
	Service    string
	Recorder   ComparisonRecorder
	Logger     *slog.Logger
}

type CompareUseCase struct {
	parser     ports.ExpressionParser
	serializer ports.TokenSerializer
	scorer     ports.SimilarityScorer
	opts       CompareOptions
}

func NewCompareUseCase(
	parser ports.ExpressionParser,
	serializer ports.TokenSerializer,
	scorer ports.SimilarityScorer,
	opts CompareOptions,
) *CompareUseCase {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Service == "" {
		opts.Service = "latex-similarity"
	}
	return &CompareUseCase{
		parser:     parser,
		serializer: serializer,
		scorer:     scorer,
		opts:       opts,
	}
}

func (uc *CompareUseCase) Compare(ctx context.Context, latex1, latex2 string) (res *domain.ComparisonResult, err error) {
	start := time.Now()
	defer func() {
		ratio := 0.0
		if res != nil {
			ratio = res.Ratio
		}
		uc.record(outcome(err), ratio, time.Since(start))
	}()

	if isBlank(latex1) || isBlank(latex2) {
		return nil, domain.WrapError(domain.ErrMissingInput, "compare", errors.New("latex1 and latex2 are required"))
	}
	if err := canceled(ctx, "compare"); err != nil {
		return nil, err
	}

	tokens1, err1 := uc.tokens(domain.SideLatex1, latex1)
	if err1 != nil && !uc.opts.ReportBoth {
		return nil, err1
	}
	if err := canceled(ctx, "compare."+string(domain.SideLatex2)); err != nil {
		return nil, err
	}
	tokens2, err2 := uc.tokens(domain.SideLatex2, latex2)

	if err := joinSides(err1, err2); err != nil {
		return nil, err
	}
	if err := canceled(ctx, "compare.score"); err != nil {
		return nil, err
	}

	ratio, err := uc.score(tokens1, tokens2)
	if err != nil {
		return nil, err
	}
	return domain.NewComparisonResult(ratio), nil
}

func (uc *CompareUseCase) Normalize(ctx context.Context, latex string) (*domain.Normalization, error) {
	if isBlank(latex) {
		return nil, domain.WrapError(domain.ErrMissingInput, "normalize", errors.New("latex is required"))
	}
	if err := canceled(ctx, "normalize"); err != nil {
		return nil, err
	}

	tree, tokens, err := uc.pipeline(domain.SideLatex, latex)
	if err != nil {
		return nil, err
	}
	return &domain.Normalization{
		Canonical: tree.String(),
		Tokens:    tokens,
	}, nil
}

func (uc *CompareUseCase) tokens(side domain.Side, latex string) (domain.Tokens, error) {
	_, tokens, err := uc.pipeline(side, latex)
	return tokens, err
}

// pipeline parses and serializes one input. Parse rejections come back as a
// *domain.SideError; anything else, panics included, is an internal failure.
func (uc *CompareUseCase) pipeline(side domain.Side, latex string) (tree *domain.Node, tokens domain.Tokens, err error) {
	operation := "compare." + string(side)
	defer func() {
		if r := recover(); r != nil {
			uc.opts.Logger.Error("comparison_panic_recovered", "side", side, "panic", fmt.Sprint(r))
			tree, tokens = nil, nil
			err = domain.WrapError(domain.ErrInternal, operation, fmt.Errorf("panic: %v", r))
		}
	}()

	tree, err = uc.parser.Parse(latex)
	if err != nil {
		var parseErr *domain.ParseError
		if errors.As(err, &parseErr) && domain.IsParseFailure(parseErr) {
			return nil, nil, &domain.SideError{Side: side, Err: parseErr}
		}
		return nil, nil, domain.WrapError(domain.ErrInternal, operation+".parse", err)
	}

	tokens, err = uc.serializer.Serialize(tree)
	if err != nil {
		return nil, nil, domain.WrapError(domain.ErrInternal, operation+".serialize", err)
	}
	return tree, tokens, nil
}

func (uc *CompareUseCase) score(a, b domain.Tokens) (ratio float64, err error) {
	defer func() {
		if r := recover(); r != nil {
			uc.opts.Logger.Error("comparison_panic_recovered", "stage", "score", "panic", fmt.Sprint(r))
			err = domain.WrapError(domain.ErrInternal, "compare.score", fmt.Errorf("panic: %v", r))
		}
	}()

	ratio = uc.scorer.Ratio(a, b)
	if ratio < 0 || ratio > 1 {
		return 0, domain.WrapError(domain.ErrInternal, "compare.score", fmt.Errorf("ratio %v out of range", ratio))
	}
	return ratio, nil
}

func canceled(ctx context.Context, op string) error {
	if err := ctx.Err(); err != nil {
		return domain.WrapError(domain.ErrTemporary, op, err)
	}
	return nil
}

func (uc *CompareUseCase) record(outcome string, ratio float64, duration time.Duration) {
	if uc.opts.Recorder == nil {
		return
	}
	uc.opts.Recorder.RecordComparison(uc.opts.Service, outcome, ratio, duration)
}

// joinSides merges per-side failures. An internal failure on either side
// wins over parse rejections.
func joinSides(errs ...error) error {
	var sides domain.SideErrors
	for _, err := range errs {
		if err == nil {
			continue
		}
		var sideErr *domain.SideError
		if !errors.As(err, &sideErr) {
			return err
		}
		sides = append(sides, sideErr)
	}
	switch len(sides) {
	case 0:
		return nil
	case 1:
		return sides[0]
	default:
		return sides
	}
}

func outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case domain.IsKind(err, domain.ErrMissingInput):
		return "missing_input"
	case domain.IsKind(err, domain.ErrSyntaxInvalid):
		return "syntax_invalid"
	case domain.IsKind(err, domain.ErrValueInvalid):
		return "value_invalid"
	case domain.IsKind(err, domain.ErrTemporary):
		return "canceled"
	default:
		return "internal"
	}
}

func isBlank(s string) bool {
	return strings.TrimSpace(s) == ""
}
