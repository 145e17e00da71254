// Package imaging prepares uploaded formula images for OCR.
package imaging

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	_ "image/gif"
	_ "image/jpeg"
	"image/png"
	"io"

	"golang.org/x/image/draw"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

const (
	DefaultMaxSide   = 1600
	DefaultMaxPixels = 40_000_000
)

var ErrEmptyImage = errors.New("image has no pixels")

// Normalizer decodes any supported image, flattens it onto a white
// background and downsizes it so neither side exceeds MaxSide.
type Normalizer struct {
	maxSide   int
	maxPixels int
}

func NewNormalizer(maxSide int) *Normalizer {
	if maxSide <= 0 {
		maxSide = DefaultMaxSide
	}
	return &Normalizer{maxSide: maxSide, maxPixels: DefaultMaxPixels}
}

// Normalize returns the image re-encoded as an opaque PNG.
func (n *Normalizer) Normalize(r io.Reader) ([]byte, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read image: %w", err)
	}

	cfg, format, err := image.DecodeConfig(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("identify image: %w", err)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return nil, ErrEmptyImage
	}
	if cfg.Width*cfg.Height > n.maxPixels {
		return nil, fmt.Errorf("%s image of %dx%d exceeds %d pixels", format, cfg.Width, cfg.Height, n.maxPixels)
	}

	src, _, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("decode %s image: %w", format, err)
	}
	bounds := src.Bounds()
	if bounds.Empty() {
		return nil, ErrEmptyImage
	}

	w, h := fit(bounds.Dx(), bounds.Dy(), n.maxSide)
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(dst, dst.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)
	if w == bounds.Dx() && h == bounds.Dy() {
		draw.Draw(dst, dst.Bounds(), src, bounds.Min, draw.Over)
	} else {
		draw.CatmullRom.Scale(dst, dst.Bounds(), src, bounds, draw.Over, nil)
	}

	var out bytes.Buffer
	if err := png.Encode(&out, dst); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	return out.Bytes(), nil
}

// fit scales w x h down, keeping the aspect ratio, so that the longer side is
// at most maxSide.
func fit(w, h, maxSide int) (int, int) {
	longest := max(w, h)
	if longest <= maxSide {
		return w, h
	}
	scale := float64(maxSide) / float64(longest)
	return max(1, int(float64(w)*scale+0.5)), max(1, int(float64(h)*scale+0.5))
}
