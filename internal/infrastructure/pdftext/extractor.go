// Package pdftext reads the text lines of PDF files.
package pdftext

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/ledongthuc/pdf"
)

type Extractor struct {
	logger *slog.Logger
}

func New(logger *slog.Logger) *Extractor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Extractor{logger: logger}
}

// ExtractLines returns the non-blank text rows of every page, top to bottom,
// without trimming them.
// Pages whose text cannot be decoded are skipped with a warning.
func (e *Extractor) ExtractLines(ctx context.Context, path string) (lines []string, err error) {
	defer func() {
		if r := recover(); r != nil {
			lines, err = nil, fmt.Errorf("read pdf: %v", r)
		}
	}()

	f, r, err := pdf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open pdf: %w", err)
	}
	defer f.Close()

	lines = []string{}
	total := r.NumPage()
	for num := 1; num <= total; num++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		page := r.Page(num)
		if page.V.IsNull() {
			continue
		}

		pageLines, err := pageText(page)
		if err != nil {
			e.logger.Warn("pdf_page_skipped", "page", num, "error", err)
			continue
		}
		lines = append(lines, pageLines...)
	}
	return lines, nil
}

func pageText(page pdf.Page) ([]string, error) {
	rows, err := page.GetTextByRow()
	if err == nil {
		out := make([]string, 0, len(rows))
		for _, row := range rows {
			var b strings.Builder
			for _, text := range row.Content {
				b.WriteString(text.S)
			}
			if line := b.String(); !blank(line) {
				out = append(out, line)
			}
		}
		return out, nil
	}

	plain, plainErr := page.GetPlainText(nil)
	if plainErr != nil {
		return nil, fmt.Errorf("rows: %v; plain text: %w", err, plainErr)
	}
	return splitLines(plain), nil
}

// splitLines keeps every non-blank line exactly as extracted.
func splitLines(text string) []string {
	var out []string
	for _, line := range strings.Split(text, "\n") {
		if !blank(line) {
			out = append(out, line)
		}
	}
	return out
}

func blank(line string) bool {
	return strings.TrimSpace(line) == ""
}
