package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/render"

	apierrors "kbpulse/internal/errors"
	"kbpulse/internal/middleware"
)

// RefreshHandler re-runs the pipeline on demand
type RefreshHandler struct {
	service      DataServiceInterface
	logger       *slog.Logger
	errorHandler *apierrors.ErrorHandler
}

// NewRefreshHandler creates a refresh handler
func NewRefreshHandler(service DataServiceInterface, logger *slog.Logger, errorHandler *apierrors.ErrorHandler) *RefreshHandler {
	return &RefreshHandler{
		service:      service,
		logger:       logger.With(slog.String("component", "refresh_handler")),
		errorHandler: errorHandler,
	}
}

// Refresh handles POST /api/refresh
func (h *RefreshHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	h.logger.InfoContext(r.Context(), "refresh requested",
		slog.String("client", middleware.APIClient(r.Context())),
		slog.String("request_id", middleware.GetRequestID(r.Context())),
	)

	snap, err := h.service.Refresh(r.Context())
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	render.JSON(w, r, map[string]interface{}{
		"status":       "success",
		"run_id":       snap.RunID,
		"refreshed_at": snap.RefreshedAt,
		"categories":   snap.Statuses(),
	})
}
