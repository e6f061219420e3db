// Package observability provides Prometheus metrics for the dashboard API.
//
// Metrics include request counters and latency per route, fallback counters
// per analytical operation, and model training durations. They are exposed
// on /metrics.
//
// All methods are nil-safe so services can be built without metrics in tests.
package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const metricsNamespace = "crime_analytics"

// Metrics holds all Prometheus collectors
type Metrics struct {
	// RequestsTotal counts HTTP requests. Labels: route, status
	RequestsTotal *prometheus.CounterVec

	// RequestDurationSeconds measures handler latency. Labels: route
	RequestDurationSeconds *prometheus.HistogramVec

	// FallbacksTotal counts degraded results. Labels: operation, reason
	FallbacksTotal *prometheus.CounterVec

	// TrainingDurationSeconds measures model training. Labels: crime_type
	TrainingDurationSeconds *prometheus.HistogramVec

	// CacheHitsTotal counts response cache hits. Labels: route
	CacheHitsTotal *prometheus.CounterVec
}

// NewMetrics creates and registers all collectors on reg
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		RequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Subsystem: "http",
				Name:      "requests_total",
				Help:      "Total number of HTTP requests by route and status",
			},
			[]string{"route", "status"},
		),
		RequestDurationSeconds: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: metricsNamespace,
				Subsystem: "http",
				Name:      "request_duration_seconds",
				Help:      "HTTP request latency by route",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"route"},
		),
		FallbacksTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Subsystem: "engine",
				Name:      "fallbacks_total",
				Help:      "Results degraded to a default value, by operation and reason",
			},
			[]string{"operation", "reason"},
		),
		TrainingDurationSeconds: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: metricsNamespace,
				Subsystem: "model",
				Name:      "training_duration_seconds",
				Help:      "Time spent training a regression model",
				Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 10, 30},
			},
			[]string{"crime_type"},
		),
		CacheHitsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Subsystem: "http",
				Name:      "cache_hits_total",
				Help:      "Responses served from the in-memory cache",
			},
			[]string{"route"},
		),
	}
}

// ObserveRequest records one finished HTTP request
func (m *Metrics) ObserveRequest(route, status string, d time.Duration) {
	if m == nil {
		return
	}
	m.RequestsTotal.WithLabelValues(route, status).Inc()
	m.RequestDurationSeconds.WithLabelValues(route).Observe(d.Seconds())
}

// RecordFallback counts a degraded result
func (m *Metrics) RecordFallback(operation, reason string) {
	if m == nil {
		return
	}
	m.FallbacksTotal.WithLabelValues(operation, reason).Inc()
}

// ObserveTraining records how long a model took to train
func (m *Metrics) ObserveTraining(crimeType string, d time.Duration) {
	if m == nil {
		return
	}
	m.TrainingDurationSeconds.WithLabelValues(crimeType).Observe(d.Seconds())
}

// RecordCacheHit counts a cached response
func (m *Metrics) RecordCacheHit(route string) {
	if m == nil {
		return
	}
	m.CacheHitsTotal.WithLabelValues(route).Inc()
}
