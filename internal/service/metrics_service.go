package service

import (
	"fmt"
	"net/http"
	"runtime"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsService encapsulates Prometheus instrumentation for the gateway.
type MetricsService struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec
	forwardDuration *prometheus.HistogramVec
	forwardTotal    *prometheus.CounterVec
	renderedBytes   prometheus.Counter
	droppedFiles    prometheus.Counter
}

// NewMetricsService registers the gateway's Prometheus collectors.
func NewMetricsService() *MetricsService {
	registry := prometheus.NewRegistry()

	requestDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "Duration of HTTP requests in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	requestTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})

	forwardDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "forward_duration_seconds",
		Help:    "Duration of ticket forwarding runs",
		Buckets: prometheus.DefBuckets,
	}, []string{"outcome"})

	forwardTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "forwards_total",
		Help: "Total forwarding runs by outcome",
	}, []string{"outcome"})

	renderedBytes := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "rendered_pdf_bytes_total",
		Help: "Total bytes of rendered PDF documents",
	})

	droppedFiles := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "attachments_dropped_total",
		Help: "Attachments dropped by the count or size cap",
	})

	goroutines := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "goroutines_total",
		Help: "Total number of goroutines",
	}, func() float64 {
		return float64(runtime.NumGoroutine())
	})

	registry.MustRegister(requestDuration, requestTotal, forwardDuration, forwardTotal, renderedBytes, droppedFiles, goroutines)

	handler := promhttp.HandlerFor(registry, promhttp.HandlerOpts{})

	return &MetricsService{
		registry:        registry,
		handler:         handler,
		requestDuration: requestDuration,
		requestTotal:    requestTotal,
		forwardDuration: forwardDuration,
		forwardTotal:    forwardTotal,
		renderedBytes:   renderedBytes,
		droppedFiles:    droppedFiles,
	}
}

// Handler exposes the Prometheus HTTP handler.
func (m *MetricsService) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		})
	}
	return m.handler
}

// ObserveHTTPRequest records request metrics.
func (m *MetricsService) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	labelStatus := fmt.Sprintf("%d", status)
	m.requestDuration.WithLabelValues(method, path, labelStatus).Observe(duration.Seconds())
	m.requestTotal.WithLabelValues(method, path, labelStatus).Inc()
}

// ObserveForward records one forwarding run.
func (m *MetricsService) ObserveForward(outcome string, duration time.Duration) {
	if m == nil {
		return
	}
	m.forwardDuration.WithLabelValues(outcome).Observe(duration.Seconds())
	m.forwardTotal.WithLabelValues(outcome).Inc()
}

// AddRenderedBytes tracks the size of generated documents.
func (m *MetricsService) AddRenderedBytes(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.renderedBytes.Add(float64(n))
}

// AddDroppedAttachments tracks attachments dropped by the caps.
func (m *MetricsService) AddDroppedAttachments(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.droppedFiles.Add(float64(n))
}
