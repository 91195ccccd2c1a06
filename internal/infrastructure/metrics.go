package infrastructure

import (
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// PipelineMetrics groups the prometheus collectors for the pipeline.
// A nil *PipelineMetrics is valid and records nothing.
type PipelineMetrics struct {
	registry       *prometheus.Registry
	fetchTotal     *prometheus.CounterVec
	stageDuration  *prometheus.HistogramVec
	rowsDropped    *prometheus.CounterVec
	columnsDropped *prometheus.CounterVec
	sinkWrites     *prometheus.CounterVec
	httpRequests   *prometheus.CounterVec
	httpDuration   *prometheus.HistogramVec
}

// NewPipelineMetrics registers the pipeline collectors on a fresh registry
func NewPipelineMetrics() *PipelineMetrics {
	m := &PipelineMetrics{
		registry: prometheus.NewRegistry(),
		fetchTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "kbpulse",
			Name:      "fetch_total",
			Help:      "Workbook fetch attempts by outcome",
		}, []string{"outcome"}),
		stageDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "kbpulse",
			Name:      "stage_duration_seconds",
			Help:      "Pipeline stage duration",
			Buckets:   prometheus.DefBuckets,
		}, []string{"stage", "category"}),
		rowsDropped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "kbpulse",
			Name:      "rows_dropped_total",
			Help:      "Rows dropped by the date normalizer",
		}, []string{"category"}),
		columnsDropped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "kbpulse",
			Name:      "columns_dropped_total",
			Help:      "Columns dropped by the column sanitizer",
		}, []string{"category", "rule"}),
		sinkWrites: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "kbpulse",
			Name:      "sink_writes_total",
			Help:      "Relay writes by sink and outcome",
		}, []string{"sink", "outcome"}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "kbpulse",
			Name:      "http_requests_total",
			Help:      "Dashboard API requests by route and status",
		}, []string{"method", "route", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "kbpulse",
			Name:      "http_request_duration_seconds",
			Help:      "Dashboard API request duration",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}
	m.registry.MustRegister(
		m.fetchTotal,
		m.stageDuration,
		m.rowsDropped,
		m.columnsDropped,
		m.sinkWrites,
		m.httpRequests,
		m.httpDuration,
		prometheus.NewGoCollector(),
	)
	return m
}

// Handler exposes the registry for scraping
func (m *PipelineMetrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry returns the underlying registry
func (m *PipelineMetrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// ObserveFetch counts a fetch outcome ("ok" or an error kind)
func (m *PipelineMetrics) ObserveFetch(outcome string) {
	if m == nil {
		return
	}
	m.fetchTotal.WithLabelValues(outcome).Inc()
}

// ObserveStage records how long a stage took
func (m *PipelineMetrics) ObserveStage(stage, category string, seconds float64) {
	if m == nil {
		return
	}
	m.stageDuration.WithLabelValues(stage, category).Observe(seconds)
}

// AddRowsDropped counts rows discarded during normalization
func (m *PipelineMetrics) AddRowsDropped(category string, n int) {
	if m == nil || n <= 0 {
		return
	}
	m.rowsDropped.WithLabelValues(category).Add(float64(n))
}

// AddColumnsDropped counts columns discarded by a sanitizer rule
func (m *PipelineMetrics) AddColumnsDropped(category, rule string, n int) {
	if m == nil || n <= 0 {
		return
	}
	m.columnsDropped.WithLabelValues(category, rule).Add(float64(n))
}

// ObserveSinkWrite counts a relay write outcome
func (m *PipelineMetrics) ObserveSinkWrite(sink, outcome string) {
	if m == nil {
		return
	}
	m.sinkWrites.WithLabelValues(sink, outcome).Inc()
}

// ObserveHTTP records one API request under its route pattern
func (m *PipelineMetrics) ObserveHTTP(method, route string, status int, seconds float64) {
	if m == nil {
		return
	}
	m.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.httpDuration.WithLabelValues(method, route).Observe(seconds)
}
