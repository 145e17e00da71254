package usecase

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/latexsim/latex-similarity/internal/core/domain"
)

type tempStorageFake struct {
	dir      string
	suffix   string
	released int
	err      error
}

func (f *tempStorageFake) Stash(_ context.Context, suffix string, data io.Reader) (string, func(), error) {
	if f.err != nil {
		return "", nil, f.err
	}
	f.suffix = suffix
	raw, err := io.ReadAll(data)
	if err != nil {
		return "", nil, err
	}
	path := filepath.Join(f.dir, "upload"+suffix)
	if err := os.WriteFile(path, raw, 0o600); err != nil {
		return "", nil, err
	}
	return path, func() {
		f.released++
		_ = os.Remove(path)
	}, nil
}

type pdfExtractorFake struct {
	lines []string
	err   error
	path  string
}

func (f *pdfExtractorFake) ExtractLines(_ context.Context, path string) ([]string, error) {
	f.path = path
	return f.lines, f.err
}

type imageNormalizerFake struct {
	got []byte
	err error
}

func (f *imageNormalizerFake) Normalize(r io.Reader) ([]byte, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	f.got = raw
	if f.err != nil {
		return nil, f.err
	}
	return []byte("png:" + string(raw)), nil
}

type recognizerFake struct {
	latex string
	err   error
	got   []byte
}

func (f *recognizerFake) Recognize(_ context.Context, png []byte) (string, error) {
	f.got = png
	return f.latex, f.err
}

type extractionRecorderFake struct {
	statuses []string
}

func (f *extractionRecorderFake) RecordExtraction(_, source, outcome string, _ int) {
	f.statuses = append(f.statuses, source+":"+outcome)
}

func newExtractFixture(t *testing.T) (*tempStorageFake, *pdfExtractorFake, *imageNormalizerFake, *recognizerFake, *parserFake) {
	t.Helper()
	return &tempStorageFake{dir: t.TempDir()}, &pdfExtractorFake{}, &imageNormalizerFake{}, &recognizerFake{}, &parserFake{}
}

func TestExtractFromPDFKeepsBackslashLines(t *testing.T) {
	storage, pdf, images, ocr, parser := newExtractFixture(t)
	pdf.lines = []string{"Introduction", `\frac{1}{2}`, "plain text", `x = \sqrt{y}`}
	recorder := &extractionRecorderFake{}
	uc := NewExtractUseCase(storage, pdf, images, ocr, parser, &serializerFake{}, ExtractOptions{Recorder: recorder})

	res, err := uc.ExtractFromPDF(context.Background(), "Paper.PDF", strings.NewReader("%PDF-1.4"))
	if err != nil {
		t.Fatalf("ExtractFromPDF() error = %v", err)
	}
	want := []string{`\frac{1}{2}`, `x = \sqrt{y}`}
	if !reflect.DeepEqual(res.Formulas, want) {
		t.Fatalf("formulas = %v, want %v", res.Formulas, want)
	}
	if storage.suffix != ".pdf" {
		t.Fatalf("expected lowercased suffix, got %q", storage.suffix)
	}
	if storage.released != 1 {
		t.Fatalf("expected temp file released once, got %d", storage.released)
	}
	if _, err := os.Stat(pdf.path); !os.IsNotExist(err) {
		t.Fatalf("expected temp file removed, stat err = %v", err)
	}
	if len(parser.calls) != 0 {
		t.Fatalf("pdf extraction must not parse lines")
	}
	if !reflect.DeepEqual(recorder.statuses, []string{"pdf:ok"}) {
		t.Fatalf("unexpected recorded statuses %v", recorder.statuses)
	}
}

func TestExtractFromPDFReleasesOnFailure(t *testing.T) {
	storage, pdf, images, ocr, parser := newExtractFixture(t)
	pdf.err = errors.New("malformed PDF: xref not found")
	uc := NewExtractUseCase(storage, pdf, images, ocr, parser, &serializerFake{}, ExtractOptions{})

	_, err := uc.ExtractFromPDF(context.Background(), "doc", strings.NewReader("junk"))
	if !errors.Is(err, domain.ErrExtraction) {
		t.Fatalf("expected ErrExtraction, got %v", err)
	}
	if !strings.Contains(err.Error(), "xref not found") {
		t.Fatalf("expected underlying message, got %q", err.Error())
	}
	if storage.released != 1 {
		t.Fatalf("expected temp file released on failure, got %d", storage.released)
	}
	if storage.suffix != ".pdf" {
		t.Fatalf("expected fallback suffix .pdf, got %q", storage.suffix)
	}
}

func TestExtractFromPDFNeverReturnsNilFormulas(t *testing.T) {
	storage, pdf, images, ocr, parser := newExtractFixture(t)
	uc := NewExtractUseCase(storage, pdf, images, ocr, parser, &serializerFake{}, ExtractOptions{})

	res, err := uc.ExtractFromPDF(context.Background(), "a.pdf", strings.NewReader("x"))
	if err != nil {
		t.Fatalf("ExtractFromPDF() error = %v", err)
	}
	if res.Formulas == nil || len(res.Formulas) != 0 {
		t.Fatalf("expected empty non-nil formulas, got %#v", res.Formulas)
	}
}

func TestExtractFromImageReturnsRawRecognition(t *testing.T) {
	storage, pdf, images, ocr, parser := newExtractFixture(t)
	ocr.latex = `\frac{a}{b}`
	uc := NewExtractUseCase(storage, pdf, images, ocr, parser, &serializerFake{}, ExtractOptions{})

	res, err := uc.ExtractFromImage(context.Background(), "shot.jpg", strings.NewReader("pixels"))
	if err != nil {
		t.Fatalf("ExtractFromImage() error = %v", err)
	}
	if !reflect.DeepEqual(res.Formulas, []string{`\frac{a}{b}`}) {
		t.Fatalf("unexpected formulas %v", res.Formulas)
	}
	if string(images.got) != "pixels" || string(ocr.got) != "png:pixels" {
		t.Fatalf("unexpected pipeline payloads %q / %q", images.got, ocr.got)
	}
	if len(parser.calls) != 1 || parser.calls[0] != `\frac{a}{b}` {
		t.Fatalf("expected recognition to be validated, got %v", parser.calls)
	}
	if storage.suffix != ".jpg" || storage.released != 1 {
		t.Fatalf("unexpected storage use suffix=%q released=%d", storage.suffix, storage.released)
	}
}

func TestExtractFromImageReportsUnparseableRecognition(t *testing.T) {
	storage, pdf, images, ocr, parser := newExtractFixture(t)
	ocr.latex = `\frac{a}{`
	parser.fail = map[string]error{`\frac{a}{`: syntaxErr(`\frac{a}{`, "unexpected end of input")}
	recorder := &extractionRecorderFake{}
	uc := NewExtractUseCase(storage, pdf, images, ocr, parser, &serializerFake{}, ExtractOptions{Recorder: recorder})

	_, err := uc.ExtractFromImage(context.Background(), "f.png", strings.NewReader("pixels"))
	if !errors.Is(err, domain.ErrSyntaxInvalid) {
		t.Fatalf("expected syntax error, got %v", err)
	}
	want := `couldn't parse the string \frac{a}{, unexpected end of input`
	if err.Error() != want {
		t.Fatalf("message = %q, want %q", err.Error(), want)
	}
	if storage.released != 1 {
		t.Fatalf("expected temp file released")
	}
	if !reflect.DeepEqual(recorder.statuses, []string{"image:unparseable"}) {
		t.Fatalf("unexpected recorded statuses %v", recorder.statuses)
	}
}

func TestExtractFromImageClassifiesFailures(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*imageNormalizerFake, *recognizerFake, *parserFake)
		kind   error
	}{
		{
			name:   "undecodable image",
			mutate: func(n *imageNormalizerFake, _ *recognizerFake, _ *parserFake) { n.err = errors.New("image: unknown format") },
			kind:   domain.ErrExtraction,
		},
		{
			name: "ocr failure",
			mutate: func(_ *imageNormalizerFake, r *recognizerFake, _ *parserFake) {
				r.err = domain.WrapError(domain.ErrTemporary, "ocr.pix2tex", errors.New("connection refused"))
			},
			kind: domain.ErrExtraction,
		},
		{
			name: "parser crash",
			mutate: func(_ *imageNormalizerFake, r *recognizerFake, p *parserFake) {
				r.latex = "x"
				p.panic = "x"
			},
			kind: domain.ErrInternal,
		},
	}

	for _, tc := range cases {
		storage, pdf, images, ocr, parser := newExtractFixture(t)
		tc.mutate(images, ocr, parser)
		uc := NewExtractUseCase(storage, pdf, images, ocr, parser, &serializerFake{}, ExtractOptions{})

		_, err := uc.ExtractFromImage(context.Background(), "f.png", strings.NewReader("pixels"))
		if !errors.Is(err, tc.kind) {
			t.Fatalf("%s: expected %v, got %v", tc.name, tc.kind, err)
		}
		if storage.released != 1 {
			t.Fatalf("%s: expected temp file released, got %d", tc.name, storage.released)
		}
	}
}

func TestExtractStashFailureIsInternal(t *testing.T) {
	storage, pdf, images, ocr, parser := newExtractFixture(t)
	storage.err = errors.New("disk full")
	uc := NewExtractUseCase(storage, pdf, images, ocr, parser, &serializerFake{}, ExtractOptions{})

	_, err := uc.ExtractFromImage(context.Background(), "f.png", strings.NewReader("pixels"))
	if !errors.Is(err, domain.ErrInternal) {
		t.Fatalf("expected ErrInternal, got %v", err)
	}
}

func TestFilterLatexLines(t *testing.T) {
	got := FilterLatexLines([]string{`a \alpha`, "b", `\\`, ""})
	want := []string{`a \alpha`, `\\`}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("FilterLatexLines() = %v, want %v", got, want)
	}
	if FilterLatexLines(nil) == nil {
		t.Fatalf("expected non-nil result for nil input")
	}
}
