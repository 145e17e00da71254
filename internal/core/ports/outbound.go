package ports

import (
	"context"
	"io"

	"github.com/latexsim/latex-similarity/internal/core/domain"
)

// ExpressionParser turns raw LaTeX into a symbolic tree. Rejections are
// reported as *domain.ParseError; anything else is an unclassified failure.
type ExpressionParser interface {
	Parse(latex string) (*domain.Node, error)
}

// TokenSerializer flattens a symbolic tree into canonical tokens.
type TokenSerializer interface {
	Serialize(tree *domain.Node) (domain.Tokens, error)
}

// SimilarityScorer returns a [0,1] similarity ratio of two token sequences.
type SimilarityScorer interface {
	Ratio(a, b domain.Tokens) float64
}

// FormulaRecognizer maps a normalised PNG image of a formula to raw LaTeX.
type FormulaRecognizer interface {
	Recognize(ctx context.Context, png []byte) (string, error)
}

// ImageNormalizer decodes an uploaded image and re-encodes it as RGB PNG.
type ImageNormalizer interface {
	Normalize(r io.Reader) ([]byte, error)
}

// PDFTextExtractor returns the text lines of a PDF file in reading order.
type PDFTextExtractor interface {
	ExtractLines(ctx context.Context, path string) ([]string, error)
}

// TempStorage keeps uploads on transient storage. The returned release
// function removes the file and must be called on every exit path.
type TempStorage interface {
	Stash(ctx context.Context, suffix string, data io.Reader) (path string, release func(), err error)
}
