package http

import (
	"log/slog"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	apierrors "kbpulse/internal/errors"
	"kbpulse/internal/middleware"
)

// DataHandler handles the dashboard data routes
type DataHandler struct {
	service      DataServiceInterface
	validator    *middleware.Validator
	logger       *slog.Logger
	errorHandler *apierrors.ErrorHandler
}

// NewDataHandler creates a new data handler with RFC 7807 error handling
func NewDataHandler(service DataServiceInterface, validator *middleware.Validator, logger *slog.Logger, errorHandler *apierrors.ErrorHandler) *DataHandler {
	return &DataHandler{
		service:      service,
		validator:    validator,
		logger:       logger.With(slog.String("component", "data_handler")),
		errorHandler: errorHandler,
	}
}

// Routes returns the read-only data routes as a standalone router
func (h *DataHandler) Routes() chi.Router {
	r := chi.NewRouter()
	h.RegisterRoutes(r)
	return r
}

// RegisterRoutes adds the read-only data routes to r
func (h *DataHandler) RegisterRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(render.SetContentType(render.ContentTypeJSON))

		r.Get("/categories", h.GetCategories)
		r.Route("/categories/{category}", func(r chi.Router) {
			r.Get("/table", h.GetTable)
			r.Get("/groups/{group}", h.GetGroupMembers)
		})
		r.Get("/taxonomy", h.GetTaxonomy)
		r.Get("/series", h.GetSeries)
		r.Get("/news", h.GetNews)
	})
}

// pathParams are the labels taken from the URL path
type pathParams struct {
	Category string `json:"category" validate:"required,label,max=64"`
	Group    string `json:"group" validate:"omitempty,label,max=64"`
}

// SeriesQuery are the query parameters of GET /api/series
type SeriesQuery struct {
	Region    string `query:"region" validate:"required,label,max=64"`
	Primary   string `query:"primary" validate:"omitempty,label,max=64"`
	Secondary string `query:"secondary" validate:"omitempty,label,max=64,nefield=Primary"`
}

// NewsQuery are the query parameters of GET /api/news
type NewsQuery struct {
	Region string `query:"region" validate:"required,label,max=64"`
}

// GetCategories handles GET /api/categories
func (h *DataHandler) GetCategories(w http.ResponseWriter, r *http.Request) {
	statuses, err := h.service.Categories(r.Context())
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	render.JSON(w, r, map[string]interface{}{
		"status": "success",
		"data":   statuses,
		"count":  len(statuses),
	})
}

// GetTable handles GET /api/categories/{category}/table
func (h *DataHandler) GetTable(w http.ResponseWriter, r *http.Request) {
	params := pathParams{Category: urlParam(r, "category")}
	if err := h.validator.ValidateStruct(params); err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	table, err := h.service.Table(r.Context(), params.Category)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	render.JSON(w, r, map[string]interface{}{
		"status":  "success",
		"data":    table,
		"columns": table.Columns(),
	})
}

// GetGroupMembers handles GET /api/categories/{category}/groups/{group}
func (h *DataHandler) GetGroupMembers(w http.ResponseWriter, r *http.Request) {
	params := pathParams{
		Category: urlParam(r, "category"),
		Group:    urlParam(r, "group"),
	}
	if err := h.validator.ValidateStruct(params); err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	members, err := h.service.Members(r.Context(), params.Category, params.Group)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	render.JSON(w, r, map[string]interface{}{
		"status":   "success",
		"category": params.Category,
		"group":    params.Group,
		"data":     members,
		"count":    len(members),
	})
}

// GetTaxonomy handles GET /api/taxonomy
func (h *DataHandler) GetTaxonomy(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, map[string]interface{}{
		"status": "success",
		"data":   h.service.Taxonomy(),
	})
}

// GetSeries handles GET /api/series
func (h *DataHandler) GetSeries(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	query := SeriesQuery{
		Region:    q.Get("region"),
		Primary:   q.Get("primary"),
		Secondary: q.Get("secondary"),
	}
	if err := h.validator.ValidateStruct(query); err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	aligned, err := h.service.Series(r.Context(), query.Region, query.Primary, query.Secondary)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	render.JSON(w, r, map[string]interface{}{
		"status": "success",
		"data":   aligned,
	})
}

// GetNews handles GET /api/news
func (h *DataHandler) GetNews(w http.ResponseWriter, r *http.Request) {
	query := NewsQuery{Region: r.URL.Query().Get("region")}
	if err := h.validator.ValidateStruct(query); err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	headlines, err := h.service.News(r.Context(), query.Region)
	if err != nil {
		h.logger.WarnContext(r.Context(), "news lookup failed",
			slog.String("region", query.Region),
			slog.String("error", err.Error()),
		)
		h.errorHandler.HandleError(w, r, err)
		return
	}

	render.JSON(w, r, map[string]interface{}{
		"status": "success",
		"data":   headlines,
		"count":  len(headlines),
	})
}

// urlParam returns a decoded path parameter. chi matches on the raw path
// when one is set, so Hangul labels arrive percent-encoded.
func urlParam(r *http.Request, key string) string {
	raw := chi.URLParam(r, key)
	if decoded, err := url.PathUnescape(raw); err == nil {
		return decoded
	}
	return raw
}
