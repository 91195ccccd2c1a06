package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"kbpulse/internal/infrastructure"
)

func TestObservability_SpanNamedByRoute(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	metrics := infrastructure.NewPipelineMetrics()

	r := chi.NewRouter()
	r.Use(NewObservability(tp.Tracer("test"), metrics).Handler)
	r.Get("/api/categories/{category}/table", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	for _, category := range []string{"sale", "lease"} {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/categories/"+category+"/table", nil))
		require.Equal(t, http.StatusNotFound, w.Code)
	}

	spans := recorder.Ended()
	require.Len(t, spans, 2)
	assert.Equal(t, "GET /api/categories/{category}/table", spans[0].Name())

	count, err := testutil.GatherAndCount(metrics.Registry(), "kbpulse_http_requests_total")
	require.NoError(t, err)
	assert.Equal(t, 1, count, "both requests share one route series")
}
