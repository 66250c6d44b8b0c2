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

type HTTPServerMetrics struct {
	registry *prometheus.Registry

	requestTotal    *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	requestInFlight prometheus.Gauge

	retrievalTotal         *prometheus.CounterVec
	retrievalChunks        *prometheus.HistogramVec
	retrievalDuration      *prometheus.HistogramVec
	retrievalDegradedTotal *prometheus.CounterVec
	retrievalNoContext     *prometheus.CounterVec
	classificationsTotal   *prometheus.CounterVec
	emergenciesTotal       *prometheus.CounterVec
}

func NewHTTPServerMetrics(service string) *HTTPServerMetrics {
	registry := prometheus.NewRegistry()

	requestTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "medex",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total HTTP requests processed.",
		},
		[]string{"service", "method", "path", "status"},
	)
	requestDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "medex",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"service", "method", "path"},
	)
	requestInFlight := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "medex",
			Subsystem: "http",
			Name:      "in_flight_requests",
			Help:      "Number of in-flight HTTP requests.",
			ConstLabels: prometheus.Labels{
				"service": service,
			},
		},
	)
	retrievalTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "medex",
			Subsystem: "retrieval",
			Name:      "queries_total",
			Help:      "Total completed retrieval queries by audience and emergency flag.",
		},
		[]string{"service", "user_type", "emergency"},
	)
	retrievalChunks := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "medex",
			Subsystem: "retrieval",
			Name:      "result_chunks",
			Help:      "Distribution of result chunks per completed query.",
			Buckets:   []float64{0, 1, 2, 3, 5, 8, 13, 21},
		},
		[]string{"service"},
	)
	retrievalDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "medex",
			Subsystem: "retrieval",
			Name:      "duration_seconds",
			Help:      "End-to-end retrieval pipeline duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"service"},
	)
	retrievalDegradedTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "medex",
			Subsystem: "retrieval",
			Name:      "degraded_total",
			Help:      "Total queries that fell back to a reduced pipeline stage.",
		},
		[]string{"service", "stage"},
	)
	retrievalNoContext := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "medex",
			Subsystem: "retrieval",
			Name:      "no_context_total",
			Help:      "Total queries that produced no corpus context.",
		},
		[]string{"service"},
	)
	classificationsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "medex",
			Subsystem: "detection",
			Name:      "classifications_total",
			Help:      "Total user-type classifications by detected audience.",
		},
		[]string{"service", "user_type"},
	)
	emergenciesTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "medex",
			Subsystem: "detection",
			Name:      "emergencies_total",
			Help:      "Total emergency detections by severity and category.",
		},
		[]string{"service", "severity", "category"},
	)

	registry.MustRegister(
		requestTotal,
		requestDuration,
		requestInFlight,
		retrievalTotal,
		retrievalChunks,
		retrievalDuration,
		retrievalDegradedTotal,
		retrievalNoContext,
		classificationsTotal,
		emergenciesTotal,
	)

	return &HTTPServerMetrics{
		registry:               registry,
		requestTotal:           requestTotal,
		requestDuration:        requestDuration,
		requestInFlight:        requestInFlight,
		retrievalTotal:         retrievalTotal,
		retrievalChunks:        retrievalChunks,
		retrievalDuration:      retrievalDuration,
		retrievalDegradedTotal: retrievalDegradedTotal,
		retrievalNoContext:     retrievalNoContext,
		classificationsTotal:   classificationsTotal,
		emergenciesTotal:       emergenciesTotal,
	}
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

func normalizePath(path string) string {
	switch {
	case strings.HasPrefix(path, "/v1/sources/"):
		return "/v1/sources/{source_id}"
	default:
		return path
	}
}

func (m *HTTPServerMetrics) RecordRetrieval(service, userType string, emergency bool, resultCount int, degradedStages []string, duration time.Duration) {
	m.retrievalTotal.WithLabelValues(service, userType, strconv.FormatBool(emergency)).Inc()
	m.retrievalChunks.WithLabelValues(service).Observe(float64(resultCount))
	m.retrievalDuration.WithLabelValues(service).Observe(duration.Seconds())

	for _, stage := range degradedStages {
		m.retrievalDegradedTotal.WithLabelValues(service, stage).Inc()
	}
	if resultCount == 0 {
		m.retrievalNoContext.WithLabelValues(service).Inc()
	}
}

func (m *HTTPServerMetrics) RecordUserTypeClassification(service, userType string) {
	if userType == "" {
		userType = "unknown"
	}
	m.classificationsTotal.WithLabelValues(service, userType).Inc()
}

func (m *HTTPServerMetrics) RecordEmergencyDetection(service, severity, category string) {
	if severity == "" {
		severity = "none"
	}
	if category == "" {
		category = "none"
	}
	m.emergenciesTotal.WithLabelValues(service, severity, category).Inc()
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
