//go:build tesseract

// Package tesseract recognizes formulas with a local Tesseract installation.
// Build with -tags tesseract; the binding needs libtesseract via cgo.
package tesseract

import (
	"context"
	"fmt"
	"strings"

	"github.com/otiai10/gosseract/v2"
)

type Recognizer struct {
	languages []string
}

func New(languages ...string) *Recognizer {
	if len(languages) == 0 {
		languages = []string{"eng", "equ"}
	}
	return &Recognizer{languages: languages}
}

func Available() bool { return true }

// Recognize runs a fresh client per call; gosseract clients are not safe for
// concurrent use.
func (r *Recognizer) Recognize(ctx context.Context, png []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	client := gosseract.NewClient()
	defer client.Close()

	if err := client.SetLanguage(r.languages...); err != nil {
		return "", fmt.Errorf("set languages: %w", err)
	}
	if err := client.SetPageSegMode(gosseract.PSM_SINGLE_BLOCK); err != nil {
		return "", fmt.Errorf("set page segmentation: %w", err)
	}
	if err := client.SetImageFromBytes(png); err != nil {
		return "", fmt.Errorf("set image: %w", err)
	}
	text, err := client.Text()
	if err != nil {
		return "", fmt.Errorf("recognize text: %w", err)
	}
	return strings.Join(strings.Fields(text), " "), nil
}
