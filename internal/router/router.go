package router

import (
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/GregMSThompson/analytics-dashboard/internal/handlers"
	"github.com/GregMSThompson/analytics-dashboard/internal/middleware"
)

func NewRouter(deps *handlers.Deps) chi.Router {
	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(middleware.NewLoggerMiddleware(deps.Log).LoggerMiddleware)
	if deps.Metrics != nil {
		r.Use(middleware.Metrics(deps.Metrics))
		r.Handle("/metrics", deps.Metrics.Handler())
	}

	if deps.Firebase != nil && deps.WriteGuard == nil {
		deps.WriteGuard = middleware.NewMiddleware(deps.Firebase).FirebaseAuth
	}

	dh := handlers.NewDashboardHandlers(deps)
	wh := handlers.NewWidgetHandlers(deps)
	sh := handlers.NewSystemHandlers(deps)

	r.Mount("/dashboards", dh.DashboardRoutes())
	r.Mount("/widgets", wh.WidgetRoutes())
	r.Mount("/", sh.SystemRoutes())
	return r
}
