// Package metrics exposes Prometheus instrumentation for hydrotrack.
//
// Metrics are registered on a private registry so that tests and multiple
// servers in one process do not collide. A nil *Metrics records nothing.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "hydrotrack"

// Metrics holds every collector of the service.
type Metrics struct {
	registry *prometheus.Registry

	httpRequestsTotal *prometheus.CounterVec
	httpDuration      *prometheus.HistogramVec
	cacheHits         *prometheus.CounterVec
	cacheMisses       *prometheus.CounterVec
	cacheErrors       prometheus.Counter
	ingested          prometheus.Counter
	rejected          prometheus.Counter
}

// New creates and registers all collectors, plus the Go and process collectors.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		httpRequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total count of HTTP requests processed by route and status.",
		}, []string{"route", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "Histogram of HTTP request durations by route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route"}),
		cacheHits: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_hits_total",
			Help:      "Total cache hits by operation.",
		}, []string{"operation"}),
		cacheMisses: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_misses_total",
			Help:      "Total cache misses by operation.",
		}, []string{"operation"}),
		cacheErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_errors_total",
			Help:      "Total cache backend failures that fell back to computation.",
		}),
		ingested: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ingested_records_total",
			Help:      "Total consumption records stored from inbox files.",
		}),
		rejected: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ingest_rejected_total",
			Help:      "Total inbox lines rejected as malformed or invalid.",
		}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.httpRequestsTotal,
		m.httpDuration,
		m.cacheHits,
		m.cacheMisses,
		m.cacheErrors,
		m.ingested,
		m.rejected,
	)

	return m
}

// Registry returns the private registry, e.g. for gathering in tests.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(status int) {
	s.status = status
	s.ResponseWriter.WriteHeader(status)
}

// WrapHandler records request count and duration for route.
func (m *Metrics) WrapHandler(route string, next http.Handler) http.Handler {
	if m == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()

		next.ServeHTTP(recorder, r)

		m.httpRequestsTotal.WithLabelValues(route, strconv.Itoa(recorder.status)).Inc()
		m.httpDuration.WithLabelValues(route).Observe(time.Since(start).Seconds())
	})
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// CacheHit implements cache.Observer.
func (m *Metrics) CacheHit(operation string) {
	if m == nil {
		return
	}
	m.cacheHits.WithLabelValues(operation).Inc()
}

// CacheMiss implements cache.Observer.
func (m *Metrics) CacheMiss(operation string) {
	if m == nil {
		return
	}
	m.cacheMisses.WithLabelValues(operation).Inc()
}

// CacheError implements cache.Observer.
func (m *Metrics) CacheError() {
	if m == nil {
		return
	}
	m.cacheErrors.Inc()
}

// RecordIngest counts stored and rejected inbox records.
func (m *Metrics) RecordIngest(stored, rejected int) {
	if m == nil {
		return
	}
	m.ingested.Add(float64(stored))
	m.rejected.Add(float64(rejected))
}
