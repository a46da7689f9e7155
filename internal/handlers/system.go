package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/GregMSThompson/analytics-dashboard/internal/response"
)

type systemHandlers struct {
	ResponseHandler response.ResponseHandler
	WidgetDataSvc   widgetDataService
	guard           func(http.Handler) http.Handler
}

func NewSystemHandlers(deps *Deps) *systemHandlers {
	return &systemHandlers{
		ResponseHandler: deps.ResponseHandler,
		WidgetDataSvc:   deps.WidgetDataSvc,
		guard:           deps.writeGuard(),
	}
}

func (h *systemHandlers) SystemRoutes() chi.Router {
	r := chi.NewRouter()
	r.With(h.guard).Delete("/cache", h.ClearCache)
	r.Get("/status", h.Status)
	return r
}

func (h *systemHandlers) ClearCache(w http.ResponseWriter, r *http.Request) {
	resp, err := h.WidgetDataSvc.ClearCache(r.Context())
	if err != nil {
		h.ResponseHandler.HandleError(w, r, err)
		return
	}
	h.ResponseHandler.WriteSuccess(w, r, http.StatusOK, resp)
}

func (h *systemHandlers) Status(w http.ResponseWriter, r *http.Request) {
	resp, err := h.WidgetDataSvc.Status(r.Context())
	if err != nil {
		h.ResponseHandler.HandleError(w, r, err)
		return
	}
	h.ResponseHandler.WriteSuccess(w, r, http.StatusOK, resp)
}
