package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/GregMSThompson/analytics-dashboard/internal/dto"
	"github.com/GregMSThompson/analytics-dashboard/internal/errs"
	"github.com/GregMSThompson/analytics-dashboard/internal/models"
	"github.com/GregMSThompson/analytics-dashboard/internal/response"
)

type dashboardService interface {
	GetDashboard(ctx context.Context, dashboardID string) (*models.Dashboard, error)
	ListDashboards(ctx context.Context) (dto.ListDashboardsResponse, error)
	ImportDashboard(ctx context.Context, dashboardID string, d *models.Dashboard) (*models.Dashboard, error)
	SaveWidget(ctx context.Context, dashboardID string, draft dto.WidgetDraft) (*models.Widget, error)
	DeleteWidget(ctx context.Context, widgetID string) error
}

type dashboardHandlers struct {
	ResponseHandler response.ResponseHandler
	DashboardSvc    dashboardService
	WidgetDataSvc   widgetDataService
	guard           func(http.Handler) http.Handler
}

func NewDashboardHandlers(deps *Deps) *dashboardHandlers {
	return &dashboardHandlers{
		ResponseHandler: deps.ResponseHandler,
		DashboardSvc:    deps.DashboardSvc,
		WidgetDataSvc:   deps.WidgetDataSvc,
		guard:           deps.writeGuard(),
	}
}

func (h *dashboardHandlers) DashboardRoutes() chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.ListDashboards)
	r.Route("/{dashboardId}", func(r chi.Router) {
		r.Get("/", h.GetDashboard)
		r.With(h.guard).Put("/", h.ImportDashboard)
		r.With(h.guard).Post("/widgets", h.SaveWidget)
		r.Get("/widgets/{widgetId}/data", h.GetWidgetData)
		r.Get("/widgets/{widgetId}/render", h.RenderWidget)
	})
	return r
}

func (h *dashboardHandlers) ListDashboards(w http.ResponseWriter, r *http.Request) {
	resp, err := h.DashboardSvc.ListDashboards(r.Context())
	if err != nil {
		h.ResponseHandler.HandleError(w, r, err)
		return
	}
	h.ResponseHandler.WriteSuccess(w, r, http.StatusOK, resp)
}

func (h *dashboardHandlers) GetDashboard(w http.ResponseWriter, r *http.Request) {
	d, err := h.DashboardSvc.GetDashboard(r.Context(), chi.URLParam(r, "dashboardId"))
	if err != nil {
		h.ResponseHandler.HandleError(w, r, err)
		return
	}
	h.ResponseHandler.WriteSuccess(w, r, http.StatusOK, d)
}

func (h *dashboardHandlers) ImportDashboard(w http.ResponseWriter, r *http.Request) {
	var body models.Dashboard
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		h.ResponseHandler.HandleError(w, r, errs.NewValidationError("invalid dashboard body: "+err.Error()))
		return
	}
	d, err := h.DashboardSvc.ImportDashboard(r.Context(), chi.URLParam(r, "dashboardId"), &body)
	if err != nil {
		h.ResponseHandler.HandleError(w, r, err)
		return
	}
	h.ResponseHandler.WriteSuccess(w, r, http.StatusOK, d)
}

func (h *dashboardHandlers) SaveWidget(w http.ResponseWriter, r *http.Request) {
	var draft dto.WidgetDraft
	if err := json.NewDecoder(r.Body).Decode(&draft); err != nil {
		h.ResponseHandler.HandleError(w, r, errs.NewValidationError("invalid widget body: "+err.Error()))
		return
	}
	widget, err := h.DashboardSvc.SaveWidget(r.Context(), chi.URLParam(r, "dashboardId"), draft)
	if err != nil {
		h.ResponseHandler.HandleError(w, r, err)
		return
	}
	h.ResponseHandler.WriteSuccess(w, r, http.StatusCreated, widget)
}

func (h *dashboardHandlers) GetWidgetData(w http.ResponseWriter, r *http.Request) {
	resp, err := h.WidgetDataSvc.GetWidgetData(r.Context(),
		chi.URLParam(r, "dashboardId"),
		chi.URLParam(r, "widgetId"),
		r.URL.Query().Get("filters"))
	if err != nil {
		h.ResponseHandler.HandleError(w, r, err)
		return
	}
	h.ResponseHandler.WriteSuccess(w, r, http.StatusOK, resp)
}

func (h *dashboardHandlers) RenderWidget(w http.ResponseWriter, r *http.Request) {
	resp, err := h.WidgetDataSvc.Render(r.Context(),
		chi.URLParam(r, "dashboardId"),
		chi.URLParam(r, "widgetId"),
		r.URL.Query().Get("filters"))
	if err != nil {
		h.ResponseHandler.HandleError(w, r, err)
		return
	}
	h.ResponseHandler.WriteSuccess(w, r, http.StatusOK, resp)
}
