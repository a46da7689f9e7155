package handlers

import (
	"context"
	"encoding/csv"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/GregMSThompson/analytics-dashboard/internal/dto"
	"github.com/GregMSThompson/analytics-dashboard/internal/response"
	"github.com/GregMSThompson/analytics-dashboard/pkg/logger"
)

type widgetDataService interface {
	GetWidgetData(ctx context.Context, dashboardID, widgetID, filtersJSON string) (dto.WidgetDataResponse, error)
	Render(ctx context.Context, dashboardID, widgetID, filtersJSON string) (dto.RenderResponse, error)
	Export(ctx context.Context, widgetID, format string) (dto.ExportTable, error)
	ClearCache(ctx context.Context) (dto.ClearCacheResponse, error)
	Status(ctx context.Context) (dto.StatusResponse, error)
}

type widgetHandlers struct {
	ResponseHandler response.ResponseHandler
	DashboardSvc    dashboardService
	WidgetDataSvc   widgetDataService
	guard           func(http.Handler) http.Handler
}

func NewWidgetHandlers(deps *Deps) *widgetHandlers {
	return &widgetHandlers{
		ResponseHandler: deps.ResponseHandler,
		DashboardSvc:    deps.DashboardSvc,
		WidgetDataSvc:   deps.WidgetDataSvc,
		guard:           deps.writeGuard(),
	}
}

func (h *widgetHandlers) WidgetRoutes() chi.Router {
	r := chi.NewRouter()
	r.With(h.guard).Delete("/{widgetId}", h.DeleteWidget)
	r.Get("/{widgetId}/export", h.ExportWidget)
	return r
}

func (h *widgetHandlers) DeleteWidget(w http.ResponseWriter, r *http.Request) {
	if err := h.DashboardSvc.DeleteWidget(r.Context(), chi.URLParam(r, "widgetId")); err != nil {
		h.ResponseHandler.HandleError(w, r, err)
		return
	}
	h.ResponseHandler.WriteSuccess(w, r, http.StatusOK, nil)
}

// ExportWidget streams the widget's rows as CSV.
func (h *widgetHandlers) ExportWidget(w http.ResponseWriter, r *http.Request) {
	table, err := h.WidgetDataSvc.Export(r.Context(), chi.URLParam(r, "widgetId"), r.URL.Query().Get("format"))
	if err != nil {
		h.ResponseHandler.HandleError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="`+table.Filename+`"`)
	w.WriteHeader(http.StatusOK)

	cw := csv.NewWriter(w)
	if len(table.Header) > 0 {
		_ = cw.Write(table.Header)
	}
	_ = cw.WriteAll(table.Records)
	if err := cw.Error(); err != nil {
		logger.FromContext(r.Context()).Error("failed to stream export", "widget_id", chi.URLParam(r, "widgetId"), "error", err)
	}
}
