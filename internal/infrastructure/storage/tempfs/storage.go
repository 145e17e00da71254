package tempfs

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// Storage keeps uploads in a scratch directory for the duration of a request.
type Storage struct {
	basePath string
}

func New(basePath string) (*Storage, error) {
	if basePath == "" {
		basePath = os.TempDir()
	}
	if err := os.MkdirAll(basePath, 0o700); err != nil {
		return nil, fmt.Errorf("create temp dir: %w", err)
	}
	return &Storage{basePath: basePath}, nil
}

// Stash writes data to a fresh file and returns its path with a release
// function that removes it. release is safe to call more than once.
func (s *Storage) Stash(ctx context.Context, suffix string, data io.Reader) (string, func(), error) {
	if err := ctx.Err(); err != nil {
		return "", nil, err
	}

	path := filepath.Join(s.basePath, "upload-"+uuid.NewString()+sanitizeSuffix(suffix))
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o600)
	if err != nil {
		return "", nil, fmt.Errorf("create temp file: %w", err)
	}

	released := false
	release := func() {
		if released {
			return
		}
		released = true
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			slog.Warn("temp_file_remove_failed", "path", path, "error", err)
		}
	}

	if _, err := io.Copy(f, data); err != nil {
		_ = f.Close()
		release()
		return "", nil, fmt.Errorf("write temp file: %w", err)
	}
	if err := f.Close(); err != nil {
		release()
		return "", nil, fmt.Errorf("close temp file: %w", err)
	}
	return path, release, nil
}

// sanitizeSuffix keeps a short extension such as ".pdf" and drops anything
// that could escape the directory.
func sanitizeSuffix(suffix string) string {
	suffix = strings.ToLower(filepath.Ext(filepath.Base(suffix)))
	if len(suffix) > 10 {
		return ""
	}
	for _, r := range suffix[min(1, len(suffix)):] {
		if (r < 'a' || r > 'z') && (r < '0' || r > '9') {
			return ""
		}
	}
	return suffix
}
