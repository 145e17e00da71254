package bootstrap

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/latexsim/latex-similarity/internal/config"
	"github.com/latexsim/latex-similarity/internal/core/ports"
	"github.com/latexsim/latex-similarity/internal/core/usecase"
	"github.com/latexsim/latex-similarity/internal/infrastructure/canonical"
	"github.com/latexsim/latex-similarity/internal/infrastructure/imaging"
	"github.com/latexsim/latex-similarity/internal/infrastructure/latex"
	"github.com/latexsim/latex-similarity/internal/infrastructure/ocr"
	"github.com/latexsim/latex-similarity/internal/infrastructure/ocr/ollama"
	"github.com/latexsim/latex-similarity/internal/infrastructure/ocr/pix2tex"
	"github.com/latexsim/latex-similarity/internal/infrastructure/ocr/tesseract"
	"github.com/latexsim/latex-similarity/internal/infrastructure/pdftext"
	"github.com/latexsim/latex-similarity/internal/infrastructure/resilience"
	"github.com/latexsim/latex-similarity/internal/infrastructure/similarity"
	"github.com/latexsim/latex-similarity/internal/infrastructure/storage/tempfs"
	"github.com/latexsim/latex-similarity/internal/observability/metrics"
)

type App struct {
	Config  config.Config
	Metrics *metrics.HTTPServerMetrics

	Catalog   ports.OperationCatalog
	CompareUC ports.LatexComparer
	ExtractUC ports.FormulaExtractor

	OCRBackend string
}

// New wires the process. The OCR recognizer is built once here and shared
// by every request.
func New(ctx context.Context, cfg config.Config, logger *slog.Logger) (*App, error) {
	if logger == nil {
		logger = slog.Default()
	}
	m := metrics.NewHTTPServerMetrics(cfg.ServiceName)

	catalog := latex.DefaultCatalog()
	parser := latex.NewAdapter(latex.NewParser(catalog, latex.Options{
		MaxDepth:  cfg.LatexMaxDepth,
		MaxLength: cfg.LatexMaxLength,
	}))
	serializer := canonical.NewSerializer()

	compareUC := usecase.NewCompareUseCase(parser, serializer, similarity.NewMatcher(), usecase.CompareOptions{
		ReportBoth: cfg.CompareReportBoth,
		Service:    cfg.ServiceName,
		Recorder:   m,
		Logger:     logger,
	})

	storage, err := tempfs.New(cfg.TempDir)
	if err != nil {
		return nil, fmt.Errorf("init temp storage: %w", err)
	}

	recognizer, backend, err := newRecognizer(cfg, m, logger)
	if err != nil {
		return nil, err
	}

	extractUC := usecase.NewExtractUseCase(
		storage,
		pdftext.New(logger),
		imaging.NewNormalizer(cfg.OCRMaxImageSide),
		recognizer,
		parser,
		serializer,
		usecase.ExtractOptions{
			Service:  cfg.ServiceName,
			Recorder: m,
			Logger:   logger,
		},
	)

	logger.Info("app_initialized", "ocr_backend", backend, "report_both", cfg.CompareReportBoth)

	return &App{
		Config:     cfg,
		Metrics:    m,
		Catalog:    catalog,
		CompareUC:  compareUC,
		ExtractUC:  extractUC,
		OCRBackend: backend,
	}, nil
}

func newRecognizer(cfg config.Config, m *metrics.HTTPServerMetrics, logger *slog.Logger) (ports.FormulaRecognizer, string, error) {
	var base ports.FormulaRecognizer
	backend := cfg.OCRBackend

	switch backend {
	case "pix2tex":
		base = pix2tex.New(cfg.Pix2TexURL, cfg.OCRTimeout)
	case "ollama":
		base = ollama.New(cfg.OllamaURL, cfg.OllamaOCRModel, cfg.OCRTimeout)
	case "tesseract":
		if !tesseract.Available() {
			logger.Warn("ocr_backend_unavailable", "backend", backend, "error", tesseract.ErrUnavailable)
			return ocr.Disabled{}, "none", nil
		}
		base = tesseract.New()
	case "", "none", "disabled":
		return ocr.Disabled{}, "none", nil
	default:
		return nil, "", fmt.Errorf("unknown OCR_BACKEND %q", backend)
	}

	ocrMetrics := metrics.NewOCRMetrics(cfg.ServiceName, m.Registry())
	policy := resilience.PolicyFor(backend).Override(cfg.OCRRetryMaxAttempts, cfg.OCRBreakerEnabled)
	exec := resilience.NewExecutor(backend, policy, resilience.Hooks{
		Classify:      ocr.Classify,
		OnStateChange: ocrMetrics.BreakerStateChanged,
		Logger:        logger,
	})
	guard := ocr.NewGuard(base, ocr.GuardConfig{
		Backend:        backend,
		MaxConcurrency: cfg.OCRMaxConcurrency,
		Timeout:        cfg.OCRTimeout,
	}, exec, ocrMetrics, logger)
	return guard, backend, nil
}
