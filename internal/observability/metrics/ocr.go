package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// OCRMetrics tracks recognizer calls. It satisfies ocr.Observer.
type OCRMetrics struct {
	service string

	recognizeTotal    *prometheus.CounterVec
	recognizeDuration *prometheus.HistogramVec
	recognizeInFlight *prometheus.GaugeVec
	breakerState      *prometheus.GaugeVec
}

func NewOCRMetrics(service string, registerer prometheus.Registerer) *OCRMetrics {
	recognizeTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ocr",
			Name:      "recognitions_total",
			Help:      "Total OCR recognitions by backend and status.",
		},
		[]string{"service", "backend", "status"},
	)
	recognizeDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "ocr",
			Name:      "recognition_duration_seconds",
			Help:      "OCR recognition duration in seconds by backend and status.",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 30, 60, 120},
		},
		[]string{"service", "backend", "status"},
	)
	recognizeInFlight := prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "ocr",
			Name:      "recognitions_in_flight",
			Help:      "Number of OCR recognitions currently running.",
		},
		[]string{"service", "backend"},
	)

	breakerState := prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "ocr",
			Name:      "breaker_state",
			Help:      "Circuit breaker state per backend: 0 closed, 1 half-open, 2 open.",
		},
		[]string{"service", "backend"},
	)

	if registerer != nil {
		registerer.MustRegister(recognizeTotal, recognizeDuration, recognizeInFlight, breakerState)
	}

	return &OCRMetrics{
		service:           service,
		recognizeTotal:    recognizeTotal,
		recognizeDuration: recognizeDuration,
		recognizeInFlight: recognizeInFlight,
		breakerState:      breakerState,
	}
}

func (m *OCRMetrics) StartRecognition(backend string) {
	m.recognizeInFlight.WithLabelValues(m.service, backend).Inc()
}

func (m *OCRMetrics) FinishRecognition(backend string, duration time.Duration, err error) {
	m.recognizeInFlight.WithLabelValues(m.service, backend).Dec()

	status := "success"
	if err != nil {
		status = "error"
	}

	m.recognizeTotal.WithLabelValues(m.service, backend, status).Inc()
	m.recognizeDuration.WithLabelValues(m.service, backend, status).Observe(duration.Seconds())
}

var breakerStates = map[string]float64{
	"closed":    0,
	"half-open": 1,
	"open":      2,
}

// BreakerStateChanged records a breaker transition reported by the executor.
func (m *OCRMetrics) BreakerStateChanged(backend, state string) {
	value, ok := breakerStates[state]
	if !ok {
		return
	}
	m.breakerState.WithLabelValues(m.service, backend).Set(value)
}
