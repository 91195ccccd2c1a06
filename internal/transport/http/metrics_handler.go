package http

import (
	"net/http"

	"kbpulse/internal/infrastructure"
)

// MetricsHandler exposes prometheus metrics
type MetricsHandler struct {
	metrics *infrastructure.PipelineMetrics
}

// NewMetricsHandler creates a new metrics handler
func NewMetricsHandler(metrics *infrastructure.PipelineMetrics) *MetricsHandler {
	return &MetricsHandler{metrics: metrics}
}

// ServeHTTP handles GET /metrics
func (h *MetricsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.metrics.Handler().ServeHTTP(w, r)
}
