package main

import (
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/GregMSThompson/analytics-dashboard/internal/bootstrap"
	"github.com/GregMSThompson/analytics-dashboard/internal/config"
	"github.com/GregMSThompson/analytics-dashboard/internal/datasource"
	"github.com/GregMSThompson/analytics-dashboard/internal/handlers"
	"github.com/GregMSThompson/analytics-dashboard/internal/metrics"
	"github.com/GregMSThompson/analytics-dashboard/internal/response"
	"github.com/GregMSThompson/analytics-dashboard/internal/router"
	"github.com/GregMSThompson/analytics-dashboard/internal/services"
	"github.com/GregMSThompson/analytics-dashboard/internal/store"
)

const maxSourceBytes = 32 << 20

func exitOnError(message string, err error, log *slog.Logger) {
	if err != nil {
		log.Error(message, "error", err)
		os.Exit(1)
	}
}

func main() {
	// bootstrap
	cfg := config.New()
	bs, err := bootstrap.Run(cfg)
	exitOnError("bootstrap failed", err, bs.Log)
	defer bs.Close()

	// data sources
	sources := datasource.NewRegistry()
	if cfg.DataRoot != "" {
		sources.Register(datasource.KindLocal, datasource.NewLocalSource(cfg.DataRoot))
		sources.Register(datasource.KindParquet, datasource.NewParquetSource(cfg.DataRoot))
	}
	if bs.Postgres != nil {
		sources.Register(datasource.KindSQL, datasource.NewPostgresSource(bs.Postgres))
	}
	sources.Register(datasource.KindS3, datasource.NewS3Source(bs.S3, maxSourceBytes))
	// open write routes would let anyone point the server at any url
	if len(cfg.APIHosts) > 0 || cfg.AuthRequired {
		sources.Register(datasource.KindAPI, datasource.NewAPISource(&http.Client{Timeout: 30 * time.Second}, maxSourceBytes, cfg.APIHosts...))
	} else {
		bs.Log.Warn("api connector disabled: set APIHOSTS or AUTHREQUIRED")
	}

	// stores
	dstore := store.NewDashboardStore(bs.Firestore)

	// services
	mtr := metrics.New()
	dserv := services.NewDashboardService(dstore)
	wserv := services.NewWidgetDataService(dserv, sources, mtr, cfg.MaxWidgetRows)
	if bs.Redis != nil {
		wserv.UseCache(store.NewWidgetCache(bs.Redis, cfg.CacheTTL))
	}

	// response handler
	rh := response.New(bs.Log)

	// dependancies
	deps := new(handlers.Deps)
	deps.Log = bs.Log
	deps.ResponseHandler = rh
	deps.Firebase = bs.Firebase
	deps.DashboardSvc = dserv
	deps.WidgetDataSvc = wserv
	deps.Metrics = mtr

	// router
	r := router.NewRouter(deps)
	bs.Log.Info("listening", "port", cfg.Port, "connectors", sources.Kinds())
	err = http.ListenAndServe(":"+cfg.Port, r)
	exitOnError("server start failed", err, bs.Log)
}
