package domain

import "fmt"

type ComparisonResult struct {
	Ratio      float64 `json:"-"`
	Similarity string  `json:"similarity"`
}

// NewComparisonResult formats a [0,1] ratio as a two-decimal percentage.
func NewComparisonResult(ratio float64) *ComparisonResult {
	return &ComparisonResult{
		Ratio:      ratio,
		Similarity: fmt.Sprintf("%.2f%%", ratio*100),
	}
}

type Normalization struct {
	Canonical string `json:"canonical"`
	Tokens    Tokens `json:"tokens"`
}

type ExtractionSource string

const (
	SourcePDF   ExtractionSource = "pdf"
	SourceImage ExtractionSource = "image"
)

type ExtractionResult struct {
	Source   ExtractionSource `json:"-"`
	Formulas []string         `json:"formulas"`
}
