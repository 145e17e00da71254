package ports

import (
	"context"
	"io"

	"github.com/latexsim/latex-similarity/internal/core/domain"
)

// LatexComparer is the inbound contract for normalising and comparing formulas.
type LatexComparer interface {
	Compare(ctx context.Context, latex1, latex2 string) (*domain.ComparisonResult, error)
	Normalize(ctx context.Context, latex string) (*domain.Normalization, error)
}

// FormulaExtractor is the inbound contract for pulling raw LaTeX out of uploads.
type FormulaExtractor interface {
	ExtractFromPDF(ctx context.Context, filename string, body io.Reader) (*domain.ExtractionResult, error)
	ExtractFromImage(ctx context.Context, filename string, body io.Reader) (*domain.ExtractionResult, error)
}

// OperationCatalog lists the LaTeX commands the service advertises.
type OperationCatalog interface {
	Operations() []string
}
