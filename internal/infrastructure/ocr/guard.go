// Package ocr holds the formula recognizer backends and the guard that
// bounds their use.
package ocr

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/latexsim/latex-similarity/internal/core/domain"
	"github.com/latexsim/latex-similarity/internal/core/ports"
	"github.com/latexsim/latex-similarity/internal/infrastructure/resilience"
)

var (
	ErrBackendDisabled  = errors.New("ocr backend disabled")
	ErrEmptyRecognition = errors.New("ocr returned no latex")
)

// Observer receives one observation per recognition attempt.
type Observer interface {
	StartRecognition(backend string)
	FinishRecognition(backend string, duration time.Duration, err error)
}

type GuardConfig struct {
	Backend        string
	MaxConcurrency int
	Timeout        time.Duration
}

// Guard serialises access to a recognizer model, bounds each call with a
// timeout and routes it through the retry/breaker executor.
type Guard struct {
	next     ports.FormulaRecognizer
	backend  string
	slots    chan struct{}
	timeout  time.Duration
	exec     *resilience.Executor
	observer Observer
	logger   *slog.Logger
}

func NewGuard(next ports.FormulaRecognizer, cfg GuardConfig, exec *resilience.Executor, observer Observer, logger *slog.Logger) *Guard {
	if cfg.MaxConcurrency <= 0 {
		cfg.MaxConcurrency = 1
	}
	if cfg.Backend == "" {
		cfg.Backend = "unknown"
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Guard{
		next:     next,
		backend:  cfg.Backend,
		slots:    make(chan struct{}, cfg.MaxConcurrency),
		timeout:  cfg.Timeout,
		exec:     exec,
		observer: observer,
		logger:   logger,
	}
}

func (g *Guard) Recognize(ctx context.Context, png []byte) (string, error) {
	operation := "ocr." + g.backend

	select {
	case g.slots <- struct{}{}:
	case <-ctx.Done():
		return "", domain.WrapError(domain.ErrTemporary, operation, fmt.Errorf("waiting for ocr slot: %w", ctx.Err()))
	}
	defer func() { <-g.slots }()

	if g.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}

	start := time.Now()
	if g.observer != nil {
		g.observer.StartRecognition(g.backend)
	}
	latex, err := resilience.Call(ctx, g.exec, func(ctx context.Context) (string, error) {
		raw, err := g.next.Recognize(ctx, png)
		if err != nil {
			return "", err
		}
		if latex := CleanLatex(raw); latex != "" {
			return latex, nil
		}
		return "", ErrEmptyRecognition
	})
	if g.observer != nil {
		g.observer.FinishRecognition(g.backend, time.Since(start), err)
	}

	if err != nil {
		g.logger.Warn("ocr_recognition_failed",
			"backend", g.backend,
			"duration_ms", float64(time.Since(start).Microseconds())/1000.0,
			"error", err,
		)
		return "", resilience.WrapTemporary(operation, err)
	}
	return latex, nil
}

// Classify decides how the executor treats a recognizer failure. An empty
// answer or a disabled backend is final and does not count against the
// breaker; everything else follows the HTTP rules.
func Classify(err error) resilience.ErrorClassification {
	if errors.Is(err, ErrEmptyRecognition) || errors.Is(err, ErrBackendDisabled) {
		return resilience.ErrorClassification{}
	}
	return resilience.ClassifyHTTP(err)
}

// Disabled is the recognizer used when no OCR backend is configured.
type Disabled struct{}

func (Disabled) Recognize(context.Context, []byte) (string, error) {
	return "", ErrBackendDisabled
}
