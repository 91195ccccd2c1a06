package errors

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProblemDetails_MarshalJSON(t *testing.T) {
	tests := []struct {
		name    string
		problem *ProblemDetails
		want    map[string]interface{}
	}{
		{
			name:    "standard fields only",
			problem: NewProblemDetails(http.StatusNotFound, TypeNotFound, "Not Found", "", ""),
			want: map[string]interface{}{
				"type":   TypeNotFound,
				"title":  "Not Found",
				"status": float64(http.StatusNotFound),
			},
		},
		{
			name: "extensions are flattened",
			problem: NewProblemDetails(http.StatusBadGateway, TypeUpstreamFormat, "Upstream Content Mismatch", "html page", "/api/refresh").
				WithExtension("kind", "content_mismatch"),
			want: map[string]interface{}{
				"type":     TypeUpstreamFormat,
				"title":    "Upstream Content Mismatch",
				"status":   float64(http.StatusBadGateway),
				"detail":   "html page",
				"instance": "/api/refresh",
				"kind":     "content_mismatch",
			},
		},
		{
			name: "extensions cannot override status",
			problem: NewProblemDetails(http.StatusBadRequest, TypeValidation, "Validation Failed", "", "").
				WithExtension("status", 200),
			want: map[string]interface{}{
				"type":   TypeValidation,
				"title":  "Validation Failed",
				"status": float64(http.StatusBadRequest),
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := json.Marshal(tt.problem)
			require.NoError(t, err)

			var got map[string]interface{}
			require.NoError(t, json.Unmarshal(data, &got))
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestProblemDetails_WithExtensionOnZeroValue(t *testing.T) {
	p := &ProblemDetails{Status: http.StatusTeapot}
	assert.NotPanics(t, func() { p.WithExtension("k", "v") })
	assert.Equal(t, "v", p.Extensions["k"])
}

func TestProblemDetails_Write(t *testing.T) {
	w := httptest.NewRecorder()
	p := NewProblemDetails(http.StatusBadGateway, TypeUpstreamUnavailable, "Upstream Unavailable", "status 503", "/api/refresh").
		WithExtension("kind", "transport")

	require.NoError(t, p.Write(w))

	assert.Equal(t, http.StatusBadGateway, w.Code)
	assert.Equal(t, "application/problem+json", w.Header().Get("Content-Type"))
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "transport", body["kind"])
	assert.Equal(t, "status 503", body["detail"])
}
