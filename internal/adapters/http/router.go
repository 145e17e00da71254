package httpadapter

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/latexsim/latex-similarity/internal/config"
	"github.com/latexsim/latex-similarity/internal/core/domain"
	"github.com/latexsim/latex-similarity/internal/core/ports"
	"github.com/latexsim/latex-similarity/internal/observability/metrics"
)

const (
	missingLatexStrings = "Missing LaTeX strings"
	missingLatexString  = "Missing LaTeX string"
	noFileProvided      = "No file provided"

	maxJSONBodyBytes = 1 << 20
)

type Router struct {
	cfg       config.Config
	comparer  ports.LatexComparer
	extractor ports.FormulaExtractor
	catalog   ports.OperationCatalog
	metrics   *metrics.HTTPServerMetrics
	logger    *slog.Logger
}

func NewRouter(
	cfg config.Config,
	comparer ports.LatexComparer,
	extractor ports.FormulaExtractor,
	catalog ports.OperationCatalog,
) *Router {
	return &Router{
		cfg:       cfg,
		comparer:  comparer,
		extractor: extractor,
		catalog:   catalog,
		logger:    slog.Default(),
	}
}

func (rt *Router) WithMetrics(m *metrics.HTTPServerMetrics) *Router {
	rt.metrics = m
	return rt
}

func (rt *Router) WithLogger(logger *slog.Logger) *Router {
	if logger != nil {
		rt.logger = logger
	}
	return rt
}

// Handler serves every endpoint both at its bare path and under /api.
func (rt *Router) Handler() http.Handler {
	mux := http.NewServeMux()
	swagger := rt.swagger()
	for _, prefix := range []string{"", "/api"} {
		mux.HandleFunc(prefix+"/compare", rt.compare)
		mux.HandleFunc(prefix+"/normalize", rt.normalize)
		mux.HandleFunc(prefix+"/operations", rt.operations)
		mux.HandleFunc(prefix+"/pdf2latex", rt.pdf2latex)
		mux.HandleFunc(prefix+"/pix2tex", rt.pix2tex)
		mux.HandleFunc(prefix+"/swagger.json", swagger)
	}
	mux.HandleFunc("/healthz", rt.healthz)
	if rt.metrics != nil {
		mux.Handle("/metrics", rt.metrics.Handler())
	}

	var handler http.Handler = mux
	if rt.metrics != nil {
		handler = rt.metrics.Middleware(rt.serviceName(), handler)
	}
	handler = backpressureMiddleware(handler, rt.cfg.APIMaxInFlight, rt.cfg.APIBackpressureWait)
	handler = corsMiddleware(handler, rt.cfg.CORSAllowedOrigins)
	handler = recoverMiddleware(handler)
	handler = accessLogMiddleware(handler)
	return requestIDMiddleware(handler)
}

func (rt *Router) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (rt *Router) operations(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeMethodNotAllowed(w, http.MethodGet)
		return
	}
	writeJSON(w, http.StatusOK, operationsResponse{LatexOperations: rt.catalog.Operations()})
}

func (rt *Router) compare(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeMethodNotAllowed(w, http.MethodPost)
		return
	}

	var req compareRequest
	if !rt.decodeJSON(w, r, &req, missingLatexStrings) {
		return
	}

	res, err := rt.comparer.Compare(r.Context(), deref(req.Latex1), deref(req.Latex2))
	if err != nil {
		rt.writeError(w, r, err, missingLatexStrings)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (rt *Router) normalize(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeMethodNotAllowed(w, http.MethodPost)
		return
	}

	var req normalizeRequest
	if !rt.decodeJSON(w, r, &req, missingLatexString) {
		return
	}

	res, err := rt.comparer.Normalize(r.Context(), deref(req.Latex))
	if err != nil {
		rt.writeError(w, r, err, missingLatexString)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (rt *Router) pdf2latex(w http.ResponseWriter, r *http.Request) {
	rt.upload(w, r, rt.extractor.ExtractFromPDF)
}

func (rt *Router) pix2tex(w http.ResponseWriter, r *http.Request) {
	rt.upload(w, r, rt.extractor.ExtractFromImage)
}

type extractFunc func(ctx context.Context, filename string, body io.Reader) (*domain.ExtractionResult, error)

func (rt *Router) upload(w http.ResponseWriter, r *http.Request, extract extractFunc) {
	if r.Method != http.MethodPost {
		writeMethodNotAllowed(w, http.MethodPost)
		return
	}

	limit := rt.cfg.MaxUploadBytes
	if limit > 0 {
		if r.ContentLength > limit {
			rt.writeError(w, r, &http.MaxBytesError{Limit: limit}, noFileProvided)
			return
		}
		r.Body = http.MaxBytesReader(w, r.Body, limit)
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		var maxBytes *http.MaxBytesError
		if errors.As(err, &maxBytes) {
			rt.writeError(w, r, err, noFileProvided)
			return
		}
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: noFileProvided})
		return
	}
	defer file.Close()
	if r.MultipartForm != nil {
		defer func() { _ = r.MultipartForm.RemoveAll() }()
	}

	res, err := extract(r.Context(), header.Filename, file)
	if err != nil {
		rt.writeError(w, r, err, noFileProvided)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (rt *Router) swagger() http.HandlerFunc {
	raw, _, err := loadOpenAPI(context.Background())
	if err != nil {
		rt.logger.Error("openapi_load_failed", "error", err)
	}
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			writeMethodNotAllowed(w, http.MethodGet)
			return
		}
		if raw == nil {
			writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "api description unavailable"})
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(raw)
	}
}

// decodeJSON reads a JSON object body. An empty body counts as missing input.
func (rt *Router) decodeJSON(w http.ResponseWriter, r *http.Request, dst any, missingInput string) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBodyBytes)
	err := json.NewDecoder(r.Body).Decode(dst)
	switch {
	case err == nil:
		return true
	case errors.Is(err, io.EOF):
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: missingInput})
	default:
		var maxBytes *http.MaxBytesError
		if errors.As(err, &maxBytes) {
			rt.writeError(w, r, err, missingInput)
			return false
		}
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid json"})
	}
	return false
}

func (rt *Router) writeError(w http.ResponseWriter, r *http.Request, err error, missingInput string) {
	status := mapErrorToHTTPStatus(err)
	if status >= http.StatusInternalServerError {
		rt.logger.Error("request_failed",
			"request_id", requestIDFromContext(r.Context()),
			"path", r.URL.Path,
			"status", status,
			"error", err,
		)
	}
	writeJSON(w, status, errorResponse{Error: clientMessage(err, missingInput)})
}

func (rt *Router) serviceName() string {
	if rt.cfg.ServiceName == "" {
		return "latex-similarity"
	}
	return rt.cfg.ServiceName
}

type compareRequest struct {
	Latex1 *string `json:"latex1"`
	Latex2 *string `json:"latex2"`
}

type normalizeRequest struct {
	Latex *string `json:"latex"`
}

type operationsResponse struct {
	LatexOperations []string `json:"latex_operations"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func writeMethodNotAllowed(w http.ResponseWriter, allowed string) {
	w.Header().Set("Allow", allowed)
	writeJSON(w, http.StatusMethodNotAllowed, errorResponse{Error: "method not allowed"})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
