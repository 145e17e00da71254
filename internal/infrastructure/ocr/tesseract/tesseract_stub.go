//go:build !tesseract

package tesseract

import "context"

type Recognizer struct{}

func New(...string) *Recognizer { return &Recognizer{} }

func Available() bool { return false }

func (r *Recognizer) Recognize(context.Context, []byte) (string, error) {
	return "", ErrUnavailable
}
