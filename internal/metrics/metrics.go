package metrics

import (
	"net/http"
	"strconv"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics owns the service's prometheus registry and collectors.
type Metrics struct {
	registry *prom.Registry

	httpRequests   *prom.CounterVec
	httpDuration   *prom.HistogramVec
	interactions   *prom.CounterVec
	exportJobs     *prom.CounterVec
	exportRows     prom.Counter
	productDeletes prom.Counter
}

// New registers every collector on a fresh registry.
func New() *Metrics {
	registry := prom.NewRegistry()
	m := &Metrics{
		registry: registry,
		httpRequests: prom.NewCounterVec(prom.CounterOpts{
			Namespace: "admin",
			Name:      "http_requests_total",
			Help:      "HTTP requests by route and status code.",
		}, []string{"method", "route", "code"}),
		httpDuration: prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: "admin",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency.",
			Buckets:   prom.DefBuckets,
		}, []string{"method", "route"}),
		interactions: prom.NewCounterVec(prom.CounterOpts{
			Namespace: "admin",
			Name:      "component_interactions_total",
			Help:      "Component operations by name and outcome.",
		}, []string{"component", "operation", "outcome"}),
		exportJobs: prom.NewCounterVec(prom.CounterOpts{
			Namespace: "admin",
			Name:      "export_jobs_total",
			Help:      "Export jobs by class and terminal status.",
		}, []string{"job_class", "status"}),
		exportRows: prom.NewCounter(prom.CounterOpts{
			Namespace: "admin",
			Name:      "export_rows_total",
			Help:      "Rows written to export files.",
		}),
		productDeletes: prom.NewCounter(prom.CounterOpts{
			Namespace: "admin",
			Name:      "products_deleted_total",
			Help:      "Products removed through the listing.",
		}),
	}
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.httpRequests,
		m.httpDuration,
		m.interactions,
		m.exportJobs,
		m.exportRows,
		m.productDeletes,
	)
	return m
}

// Handler serves the registry in the prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Registry exposes the underlying registry, mostly for tests.
func (m *Metrics) Registry() *prom.Registry {
	return m.registry
}

// ObserveHTTP records one served request.
func (m *Metrics) ObserveHTTP(method, route string, code int, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.httpRequests.WithLabelValues(method, route, strconv.Itoa(code)).Inc()
	m.httpDuration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}

// Interaction counts a component operation. outcome is "ok", "rejected" or "error".
func (m *Metrics) Interaction(component, operation, outcome string) {
	if m == nil {
		return
	}
	m.interactions.WithLabelValues(component, operation, outcome).Inc()
}

// ExportFinished counts a job reaching a terminal status.
func (m *Metrics) ExportFinished(jobClass, status string, rows int) {
	if m == nil {
		return
	}
	m.exportJobs.WithLabelValues(jobClass, status).Inc()
	if rows > 0 {
		m.exportRows.Add(float64(rows))
	}
}

// ProductsDeleted counts removed products.
func (m *Metrics) ProductsDeleted(n int64) {
	if m == nil || n <= 0 {
		return
	}
	m.productDeletes.Add(float64(n))
}
