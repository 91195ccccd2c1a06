package errors

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/render"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAPIError_Error(t *testing.T) {
	tests := []struct {
		name     string
		apiError *APIError
		want     string
	}{
		{
			name:     "simple message",
			apiError: New(http.StatusBadRequest, "INVALID_REQUEST", "Invalid request format"),
			want:     "Invalid request format",
		},
		{
			name:     "empty message",
			apiError: New(http.StatusInternalServerError, "INTERNAL_ERROR", ""),
			want:     "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.apiError.Error())
		})
	}
}

func TestAPIError_Render(t *testing.T) {
	tests := []struct {
		name       string
		apiError   *APIError
		wantStatus int
	}{
		{name: "bad request", apiError: InvalidRequestWithError(errors.New("bad")), wantStatus: http.StatusBadRequest},
		{name: "not found", apiError: NotFoundError("category rent"), wantStatus: http.StatusNotFound},
		{name: "conflict", apiError: ErrRefreshInProgress, wantStatus: http.StatusConflict},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			r := httptest.NewRequest(http.MethodGet, "/", nil)

			require.NoError(t, render.Render(w, r, tt.apiError))
			assert.Equal(t, tt.wantStatus, w.Code)

			var body APIError
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			assert.Equal(t, tt.apiError.ErrorCode, body.ErrorCode)
		})
	}
}

func TestNewValidationErrors(t *testing.T) {
	errs := []ValidationError{
		{Field: "region", Message: "region is required"},
		{Field: "primary", Message: "primary must be at most 32"},
	}
	err := NewValidationErrors(errs)

	assert.Equal(t, http.StatusBadRequest, err.StatusCode)
	assert.Equal(t, ValidationErrors{Errors: errs}, err.Details)
}

func TestNotFoundError(t *testing.T) {
	err := NotFoundError("category rent")

	assert.Equal(t, http.StatusNotFound, err.StatusCode)
	assert.Equal(t, CodeNotFound, err.ErrorCode)
	assert.Equal(t, "category rent not found", err.Error())
	assert.Equal(t, "category rent", err.Details)
}

func TestInvalidRequestWithError(t *testing.T) {
	err := InvalidRequestWithError(errors.New("bad struct"))

	assert.Equal(t, http.StatusBadRequest, err.StatusCode)
	assert.Equal(t, CodeInvalidRequest, err.ErrorCode)
	assert.Equal(t, "bad struct", err.Details)
}
