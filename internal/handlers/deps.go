package handlers

import (
	"log/slog"
	"net/http"

	"firebase.google.com/go/v4/auth"

	"github.com/GregMSThompson/analytics-dashboard/internal/metrics"
	"github.com/GregMSThompson/analytics-dashboard/internal/response"
)

type Deps struct {
	Log             *slog.Logger
	ResponseHandler response.ResponseHandler
	DashboardSvc    dashboardService
	WidgetDataSvc   widgetDataService
	Firebase        *auth.Client
	Metrics         *metrics.Metrics

	// WriteGuard wraps routes that change dashboards. Nil leaves them open.
	WriteGuard func(http.Handler) http.Handler
}

func (d *Deps) writeGuard() func(http.Handler) http.Handler {
	if d.WriteGuard == nil {
		return func(next http.Handler) http.Handler { return next }
	}
	return d.WriteGuard
}
