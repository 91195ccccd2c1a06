package http

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"kbpulse/internal/services"
)

type MockHealthService struct {
	mock.Mock
}

func (m *MockHealthService) HealthCheck(ctx context.Context) services.HealthStatus {
	return m.Called().Get(0).(services.HealthStatus)
}

func TestHealthHandler_HealthCheck(t *testing.T) {
	tests := []struct {
		name           string
		status         string
		expectedStatus int
	}{
		{name: "ok", status: services.HealthStatusOK, expectedStatus: http.StatusOK},
		{name: "degraded still serves", status: services.HealthStatusDegraded, expectedStatus: http.StatusOK},
		{name: "not ready", status: services.HealthStatusNotReady, expectedStatus: http.StatusServiceUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(MockHealthService)
			svc.On("HealthCheck").Return(services.HealthStatus{
				Status:    tt.status,
				Timestamp: time.Now(),
				Version:   "test",
			})

			h := NewHealthHandler(svc, quietLogger())
			w, body := doRequest(t, http.HandlerFunc(h.HealthCheck), http.MethodGet, "/api/health")

			assert.Equal(t, tt.expectedStatus, w.Code)
			assert.Equal(t, tt.status, body["status"])
			assert.Equal(t, "test", body["version"])
		})
	}
}
