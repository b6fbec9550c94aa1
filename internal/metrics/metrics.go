// Package metrics holds the Prometheus collectors of the service.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics groups the collectors registered on a private registry.
// All methods are safe to call on a nil *Metrics.
type Metrics struct {
	registry           *prometheus.Registry
	httpRequests       *prometheus.CounterVec
	httpDuration       *prometheus.HistogramVec
	documents          *prometheus.CounterVec
	chunks             prometheus.Counter
	retrievalFailures  prometheus.Counter
	generationFailures *prometheus.CounterVec
}

// New creates and registers all collectors
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ragchat_http_requests_total",
			Help: "HTTP requests by method, route and status code.",
		}, []string{"method", "route", "code"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "ragchat_http_request_duration_seconds",
			Help:    "HTTP request latency by route.",
			Buckets: prometheus.DefBuckets,
		}, []string{"route"}),
		documents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ragchat_documents_ingested_total",
			Help: "Ingestion requests by outcome.",
		}, []string{"status"}),
		chunks: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "ragchat_chunks_indexed_total",
			Help: "Chunks written to the vector index.",
		}),
		retrievalFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "ragchat_retrieval_failures_total",
			Help: "Similarity searches that failed and degraded to an empty context.",
		}),
		generationFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ragchat_generation_failures_total",
			Help: "Model calls that failed, by failure kind.",
		}, []string{"kind"}),
	}
	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.httpRequests,
		m.httpDuration,
		m.documents,
		m.chunks,
		m.retrievalFailures,
		m.generationFailures,
	)
	return m
}

// Registry exposes the registry for tests and custom handlers
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ObserveRequest records one finished HTTP request
func (m *Metrics) ObserveRequest(method, route string, code int, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.httpRequests.WithLabelValues(method, route, strconv.Itoa(code)).Inc()
	m.httpDuration.WithLabelValues(route).Observe(elapsed.Seconds())
}

// DocumentIngested records an ingestion outcome and the chunks it produced
func (m *Metrics) DocumentIngested(status string, chunks int) {
	if m == nil {
		return
	}
	m.documents.WithLabelValues(status).Inc()
	if chunks > 0 {
		m.chunks.Add(float64(chunks))
	}
}

// RetrievalFailed counts a degraded similarity search
func (m *Metrics) RetrievalFailed() {
	if m == nil {
		return
	}
	m.retrievalFailures.Inc()
}

// GenerationFailed counts a failed model call
func (m *Metrics) GenerationFailed(kind string) {
	if m == nil {
		return
	}
	m.generationFailures.WithLabelValues(kind).Inc()
}
