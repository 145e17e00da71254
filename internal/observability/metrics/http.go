package metrics

import (
	"bufio"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "latexsim"

type HTTPServerMetrics struct {
	registry *prometheus.Registry

	requestTotal    *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	requestInFlight prometheus.Gauge

	comparisonsTotal   *prometheus.CounterVec
	similarityRatio    *prometheus.HistogramVec
	comparisonDuration *prometheus.HistogramVec
	extractionsTotal   *prometheus.CounterVec
	formulasExtracted  *prometheus.HistogramVec
}

func NewHTTPServerMetrics(service string) *HTTPServerMetrics {
	registry := prometheus.NewRegistry()

	requestTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total HTTP requests processed.",
		},
		[]string{"service", "method", "path", "status"},
	)
	requestDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"service", "method", "path"},
	)
	requestInFlight := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "in_flight_requests",
			Help:      "Number of in-flight HTTP requests.",
			ConstLabels: prometheus.Labels{
				"service": service,
			},
		},
	)
	comparisonsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "compare",
			Name:      "requests_total",
			Help:      "Total comparisons by outcome.",
		},
		[]string{"service", "outcome"},
	)
	similarityRatio := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "compare",
			Name:      "similarity_ratio",
			Help:      "Distribution of similarity ratios of successful comparisons.",
			Buckets:   prometheus.LinearBuckets(0, 0.1, 11),
		},
		[]string{"service"},
	)
	comparisonDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "compare",
			Name:      "duration_seconds",
			Help:      "Comparison pipeline duration in seconds.",
			Buckets:   []float64{0.0005, 0.001, 0.0025, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25},
		},
		[]string{"service"},
	)
	extractionsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "extract",
			Name:      "requests_total",
			Help:      "Total extraction requests by source and outcome.",
		},
		[]string{"service", "source", "outcome"},
	)
	formulasExtracted := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "extract",
			Name:      "formulas",
			Help:      "Distribution of formulas returned per successful extraction.",
			Buckets:   []float64{0, 1, 2, 5, 10, 25, 50, 100, 250},
		},
		[]string{"service", "source"},
	)

	registry.MustRegister(
		requestTotal,
		requestDuration,
		requestInFlight,
		comparisonsTotal,
		similarityRatio,
		comparisonDuration,
		extractionsTotal,
		formulasExtracted,
	)

	return &HTTPServerMetrics{
		registry:           registry,
		requestTotal:       requestTotal,
		requestDuration:    requestDuration,
		requestInFlight:    requestInFlight,
		comparisonsTotal:   comparisonsTotal,
		similarityRatio:    similarityRatio,
		comparisonDuration: comparisonDuration,
		extractionsTotal:   extractionsTotal,
		formulasExtracted:  formulasExtracted,
	}
}

// Registry lets other collectors of the process share the /metrics endpoint.
func (m *HTTPServerMetrics) Registry() *prometheus.Registry {
	return m.registry
}

func (m *HTTPServerMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *HTTPServerMetrics) Middleware(service string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		path := normalizePath(r.URL.Path)
		recorder := &statusRecorder{
			ResponseWriter: w,
			statusCode:     http.StatusOK,
		}

		m.requestInFlight.Inc()
		defer m.requestInFlight.Dec()

		next.ServeHTTP(recorder, r)

		m.requestTotal.WithLabelValues(
			service,
			r.Method,
			path,
			strconv.Itoa(recorder.statusCode),
		).Inc()
		m.requestDuration.WithLabelValues(service, r.Method, path).Observe(time.Since(start).Seconds())
	})
}

var knownPaths = map[string]bool{
	"/compare":      true,
	"/normalize":    true,
	"/operations":   true,
	"/pdf2latex":    true,
	"/pix2tex":      true,
	"/healthz":      true,
	"/metrics":      true,
	"/swagger.json": true,
}

// normalizePath folds the /api prefix and collapses unknown paths so that
// scanners cannot blow up label cardinality.
func normalizePath(path string) string {
	trimmed := strings.TrimSuffix(strings.TrimPrefix(path, "/api"), "/")
	if knownPaths[trimmed] {
		return trimmed
	}
	return "other"
}

// RecordComparison counts a finished comparison. outcome is "ok",
// "missing_input", "syntax_invalid", "value_invalid", "canceled" or
// "internal". The ratio is only observed for "ok".
func (m *HTTPServerMetrics) RecordComparison(service, outcome string, ratio float64, duration time.Duration) {
	if outcome == "" {
		outcome = "unknown"
	}
	m.comparisonsTotal.WithLabelValues(service, outcome).Inc()
	m.comparisonDuration.WithLabelValues(service).Observe(duration.Seconds())
	if outcome == "ok" {
		m.similarityRatio.WithLabelValues(service).Observe(ratio)
	}
}

func (m *HTTPServerMetrics) RecordExtraction(service, source, outcome string, formulas int) {
	if outcome == "" {
		outcome = "unknown"
	}
	m.extractionsTotal.WithLabelValues(service, source, outcome).Inc()
	if outcome == "ok" {
		m.formulasExtracted.WithLabelValues(service, source).Observe(float64(formulas))
	}
}

type statusRecorder struct {
	http.ResponseWriter
	statusCode int
}

func (w *statusRecorder) WriteHeader(statusCode int) {
	w.statusCode = statusCode
	w.ResponseWriter.WriteHeader(statusCode)
}

func (w *statusRecorder) Flush() {
	flusher, ok := w.ResponseWriter.(http.Flusher)
	if ok {
		flusher.Flush()
	}
}

func (w *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	hijacker, ok := w.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, fmt.Errorf("response writer does not implement http.Hijacker")
	}
	return hijacker.Hijack()
}

func (w *statusRecorder) Push(target string, opts *http.PushOptions) error {
	pusher, ok := w.ResponseWriter.(http.Pusher)
	if !ok {
		return http.ErrNotSupported
	}
	return pusher.Push(target, opts)
}
