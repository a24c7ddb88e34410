package metrics

import (
	"bufio"
	"errors"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the station's collectors on a private registry.
type Metrics struct {
	registry *prometheus.Registry

	ScanOutcomes     *prometheus.CounterVec
	ScansDropped     *prometheus.CounterVec
	BackendRequests  *prometheus.CounterVec
	BackendDuration  *prometheus.HistogramVec
	ActiveScreens    *prometheus.GaugeVec
	HTTPRequestTotal *prometheus.CounterVec
}

// New registers all collectors.
func New() *Metrics {
	registry := prometheus.NewRegistry()
	registry.MustRegister(prometheus.NewGoCollector())
	registry.MustRegister(prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}))

	m := &Metrics{registry: registry}

	m.ScanOutcomes = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "pickstation",
			Name:      "scan_outcomes_total",
			Help:      "Reconciliation attempts by screen variant, source and outcome",
		},
		[]string{"variant", "source", "outcome"},
	)
	m.ScansDropped = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "pickstation",
			Name:      "scans_dropped_total",
			Help:      "Scans ignored because a reconciliation was already in flight",
		},
		[]string{"variant"},
	)
	m.BackendRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "pickstation",
			Name:      "backend_requests_total",
			Help:      "Fulfillment backend requests by endpoint and status",
		},
		[]string{"endpoint", "status"},
	)
	m.BackendDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "pickstation",
			Name:      "backend_request_duration_seconds",
			Help:      "Fulfillment backend request latency",
			Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"endpoint"},
	)
	m.ActiveScreens = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "pickstation",
			Name:      "active_screens",
			Help:      "Kiosk screens currently connected",
		},
		[]string{"variant"},
	)
	m.HTTPRequestTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "pickstation",
			Name:      "http_requests_total",
			Help:      "Station HTTP requests",
		},
		[]string{"method", "status"},
	)

	registry.MustRegister(
		m.ScanOutcomes,
		m.ScansDropped,
		m.BackendRequests,
		m.BackendDuration,
		m.ActiveScreens,
		m.HTTPRequestTotal,
	)
	return m
}

// Handler exposes the registry for scraping.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// ObserveScan counts one reconciliation attempt. Nil receivers are ignored.
func (m *Metrics) ObserveScan(variant, source, outcome string) {
	if m == nil {
		return
	}
	m.ScanOutcomes.WithLabelValues(variant, source, outcome).Inc()
}

// ObserveDropped counts a scan dropped by the in-flight gate.
func (m *Metrics) ObserveDropped(variant string) {
	if m == nil {
		return
	}
	m.ScansDropped.WithLabelValues(variant).Inc()
}

// ObserveBackend records one backend round trip. status is 0 on transport failure.
func (m *Metrics) ObserveBackend(endpoint string, status int, started time.Time) {
	if m == nil {
		return
	}
	label := "transport_error"
	if status > 0 {
		label = strconv.Itoa(status)
	}
	m.BackendRequests.WithLabelValues(endpoint, label).Inc()
	m.BackendDuration.WithLabelValues(endpoint).Observe(time.Since(started).Seconds())
}

// ScreenOpened and ScreenClosed track live kiosk connections.
func (m *Metrics) ScreenOpened(variant string) {
	if m == nil {
		return
	}
	m.ActiveScreens.WithLabelValues(variant).Inc()
}

func (m *Metrics) ScreenClosed(variant string) {
	if m == nil {
		return
	}
	m.ActiveScreens.WithLabelValues(variant).Dec()
}

// Middleware counts station HTTP requests by method and status.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	if m == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		m.HTTPRequestTotal.WithLabelValues(r.Method, strconv.Itoa(rec.status)).Inc()
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (r *statusRecorder) Unwrap() http.ResponseWriter {
	return r.ResponseWriter
}

// Hijack is required for websocket upgrades behind this middleware.
func (r *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	h, ok := r.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, errors.New("response writer does not support hijacking")
	}
	r.status = http.StatusSwitchingProtocols
	return h.Hijack()
}
