package tesseract

import "errors"

var ErrUnavailable = errors.New("tesseract support not compiled in (build with -tags tesseract)")
