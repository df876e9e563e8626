package service

import (
	"fmt"
	"net/http"
	"runtime"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Guard decision outcomes reported to Prometheus.
const (
	OutcomeAllow  = "allow"
	OutcomeReject = "reject"
	OutcomeAnon   = "anonymous"
)

// MetricsService encapsulates Prometheus instrumentation for HTTP traffic and the auth core.
type MetricsService struct {
	registry            *prometheus.Registry
	handler             http.Handler
	requestDuration     *prometheus.HistogramVec
	requestTotal        *prometheus.CounterVec
	guardDecisions      *prometheus.CounterVec
	logins              *prometheus.CounterVec
	sessionsInvalidated prometheus.Counter
	cacheLookups        *prometheus.CounterVec
}

// NewMetricsService registers core Prometheus collectors.
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

	guardDecisions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "auth_guard_decisions_total",
		Help: "Guard decisions by guard and outcome",
	}, []string{"guard", "outcome", "reason"})

	logins := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "auth_logins_total",
		Help: "Login attempts by result",
	}, []string{"result"})

	sessionsInvalidated := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "auth_sessions_invalidated_total",
		Help: "Refresh-token slots burned after a mismatch",
	})

	cacheLookups := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "cache_lookups_total",
		Help: "User listing cache lookups by result",
	}, []string{"result"})

	goroutines := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "goroutines_total",
		Help: "Total number of goroutines",
	}, func() float64 {
		return float64(runtime.NumGoroutine())
	})

	registry.MustRegister(requestDuration, requestTotal, guardDecisions, logins, sessionsInvalidated, cacheLookups, goroutines)

	return &MetricsService{
		registry:            registry,
		handler:             promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		requestDuration:     requestDuration,
		requestTotal:        requestTotal,
		guardDecisions:      guardDecisions,
		logins:              logins,
		sessionsInvalidated: sessionsInvalidated,
		cacheLookups:        cacheLookups,
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

// Registry exposes the underlying registry, mainly for tests.
func (m *MetricsService) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
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

// RecordGuardDecision counts one guard evaluation.
func (m *MetricsService) RecordGuardDecision(guard, outcome, reason string) {
	if m == nil {
		return
	}
	m.guardDecisions.WithLabelValues(guard, outcome, reason).Inc()
}

// RecordLogin counts a login attempt by result.
func (m *MetricsService) RecordLogin(result string) {
	if m == nil {
		return
	}
	m.logins.WithLabelValues(result).Inc()
}

// RecordSessionInvalidated counts a burned refresh-token slot.
func (m *MetricsService) RecordSessionInvalidated() {
	if m == nil {
		return
	}
	m.sessionsInvalidated.Inc()
}

// RecordCacheLookup counts a cache hit or miss.
func (m *MetricsService) RecordCacheLookup(hit bool) {
	if m == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	m.cacheLookups.WithLabelValues(result).Inc()
}
