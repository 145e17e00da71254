package usecase

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/latexsim/latex-similarity/internal/core/domain"
	"github.com/latexsim/latex-similarity/internal/core/ports"
)

// ExtractionRecorder receives one observation per finished extraction.
type ExtractionRecorder interface {
	RecordExtraction(service, source, outcome string, formulas int)
}

type ExtractOptions struct {
	Service  string
	Recorder ExtractionRecorder
	Logger   *slog.Logger
}

type ExtractUseCase struct {
	storage    ports.TempStorage
	pdf        ports.PDFTextExtractor
	images     ports.ImageNormalizer
	recognizer ports.FormulaRecognizer
	parser     ports.ExpressionParser
	serializer ports.TokenSerializer
	opts       ExtractOptions
}

func NewExtractUseCase(
	storage ports.TempStorage,
	pdf ports.PDFTextExtractor,
	images ports.ImageNormalizer,
	recognizer ports.FormulaRecognizer,
	parser ports.ExpressionParser,
	serializer ports.TokenSerializer,
	opts ExtractOptions,
) *ExtractUseCase {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Service == "" {
		opts.Service = "latex-similarity"
	}
	return &ExtractUseCase{
		storage:    storage,
		pdf:        pdf,
		images:     images,
		recognizer: recognizer,
		parser:     parser,
		serializer: serializer,
		opts:       opts,
	}
}

// ExtractFromPDF returns the lines of the document that contain a backslash,
// in document order and untouched.
func (uc *ExtractUseCase) ExtractFromPDF(ctx context.Context, filename string, body io.Reader) (res *domain.ExtractionResult, err error) {
	defer func() { uc.record(domain.SourcePDF, res, err) }()

	path, release, err := uc.storage.Stash(ctx, uploadSuffix(filename, ".pdf"), body)
	if err != nil {
		return nil, domain.WrapError(domain.ErrInternal, "extract.pdf.stash", err)
	}
	defer release()

	start := time.Now()
	lines, err := uc.pdf.ExtractLines(ctx, path)
	if err != nil {
		return nil, domain.WrapError(domain.ErrExtraction, "extract.pdf", err)
	}

	formulas := FilterLatexLines(lines)
	uc.opts.Logger.Debug("pdf_extracted",
		"lines", len(lines),
		"formulas", len(formulas),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return &domain.ExtractionResult{Source: domain.SourcePDF, Formulas: formulas}, nil
}

// ExtractFromImage recognises a single formula and checks that it parses
// before handing back the raw recognizer output.
func (uc *ExtractUseCase) ExtractFromImage(ctx context.Context, filename string, body io.Reader) (res *domain.ExtractionResult, err error) {
	defer func() { uc.record(domain.SourceImage, res, err) }()

	path, release, err := uc.storage.Stash(ctx, uploadSuffix(filename, ".png"), body)
	if err != nil {
		return nil, domain.WrapError(domain.ErrInternal, "extract.image.stash", err)
	}
	defer release()

	png, err := uc.normalize(path)
	if err != nil {
		return nil, domain.WrapError(domain.ErrExtraction, "extract.image.decode", err)
	}

	latex, err := uc.recognizer.Recognize(ctx, png)
	if err != nil {
		return nil, domain.WrapError(domain.ErrExtraction, "extract.image.ocr", err)
	}

	if err := uc.validate(latex); err != nil {
		return nil, err
	}
	return &domain.ExtractionResult{Source: domain.SourceImage, Formulas: []string{latex}}, nil
}

func (uc *ExtractUseCase) normalize(path string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open upload: %w", err)
	}
	defer f.Close()
	return uc.images.Normalize(f)
}

// validate runs the recognised text through the comparison pipeline. The
// result is discarded; only a rejection matters.
func (uc *ExtractUseCase) validate(latex string) (err error) {
	defer func() {
		if r := recover(); r != nil {
			uc.opts.Logger.Error("extraction_panic_recovered", "stage", "validate", "panic", fmt.Sprint(r))
			err = domain.WrapError(domain.ErrInternal, "extract.image.validate", fmt.Errorf("panic: %v", r))
		}
	}()

	tree, err := uc.parser.Parse(latex)
	if err != nil {
		var parseErr *domain.ParseError
		if errors.As(err, &parseErr) && domain.IsParseFailure(parseErr) {
			return &domain.ParseError{
				Kind:    parseErr.Kind,
				Input:   latex,
				Message: fmt.Sprintf("couldn't parse the string %s, %s", latex, parseErr.Message),
			}
		}
		return domain.WrapError(domain.ErrInternal, "extract.image.validate", err)
	}
	if _, err := uc.serializer.Serialize(tree); err != nil {
		return domain.WrapError(domain.ErrInternal, "extract.image.validate", err)
	}
	return nil
}

func (uc *ExtractUseCase) record(source domain.ExtractionSource, res *domain.ExtractionResult, err error) {
	if uc.opts.Recorder == nil {
		return
	}
	count := 0
	if res != nil {
		count = len(res.Formulas)
	}
	status := "ok"
	switch {
	case err == nil:
	case domain.IsParseFailure(err):
		status = "unparseable"
	case domain.IsKind(err, domain.ErrExtraction):
		status = "extraction_failed"
	default:
		status = "internal"
	}
	uc.opts.Recorder.RecordExtraction(uc.opts.Service, string(source), status, count)
}

// FilterLatexLines keeps the lines that contain a backslash. The result is
// never nil.
func FilterLatexLines(lines []string) []string {
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		if strings.Contains(line, `\`) {
			out = append(out, line)
		}
	}
	return out
}

func uploadSuffix(filename, fallback string) string {
	ext := strings.ToLower(filepath.Ext(filename))
	if ext == "" {
		return fallback
	}
	return ext
}
