package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/tidwall/gjson"

	"github.com/GregMSThompson/analytics-dashboard/internal/chart"
	"github.com/GregMSThompson/analytics-dashboard/internal/datasource"
	"github.com/GregMSThompson/analytics-dashboard/internal/dto"
	"github.com/GregMSThompson/analytics-dashboard/internal/errs"
	"github.com/GregMSThompson/analytics-dashboard/internal/filters"
	"github.com/GregMSThompson/analytics-dashboard/internal/metrics"
	"github.com/GregMSThompson/analytics-dashboard/internal/models"
	"github.com/GregMSThompson/analytics-dashboard/internal/store"
	"github.com/GregMSThompson/analytics-dashboard/pkg/logger"
)

const statusOK = "OK"

// dashboardLoader is the dashboard lookup used by widgetDataService.
type dashboardLoader interface {
	GetDashboard(ctx context.Context, dashboardID string) (*models.Dashboard, error)
	ListDashboards(ctx context.Context) (dto.ListDashboardsResponse, error)
	FindWidget(ctx context.Context, widgetID string) (string, *models.Widget, error)
}

// widgetCache is the shared dataset cache. It is optional.
type widgetCache interface {
	Get(ctx context.Context, key string) (models.Dataset, bool, error)
	Set(ctx context.Context, key string, ds models.Dataset) error
	Clear(ctx context.Context) (int, error)
	Ping(ctx context.Context) error
	TTL() time.Duration
}

type sourceRegistry interface {
	Lookup(kind string) (datasource.Source, error)
	Kinds() []string
}

type widgetMetrics interface {
	ObserveCache(outcome string)
	ObserveFetch(source string, begin time.Time, err error)
}

type widgetDataService struct {
	dashboards dashboardLoader
	sources    sourceRegistry
	metrics    widgetMetrics
	cache      widgetCache
	maxRows    int
	palette    chart.Palette
}

func NewWidgetDataService(dashboards dashboardLoader, sources sourceRegistry, m widgetMetrics, maxRows int) *widgetDataService {
	return &widgetDataService{
		dashboards: dashboards,
		sources:    sources,
		metrics:    m,
		maxRows:    maxRows,
		palette:    chart.DefaultPalette,
	}
}

// UseCache enables the shared dataset cache.
func (s *widgetDataService) UseCache(c widgetCache) {
	s.cache = c
}

// --- Public service methods ---

func (s *widgetDataService) GetWidgetData(ctx context.Context, dashboardID, widgetID, filtersJSON string) (dto.WidgetDataResponse, error) {
	f, err := ParseFilters(filtersJSON)
	if err != nil {
		return dto.WidgetDataResponse{}, err
	}
	w, err := s.widget(ctx, dashboardID, widgetID)
	if err != nil {
		return dto.WidgetDataResponse{}, err
	}
	ds, cached, err := s.widgetData(ctx, w.Config, f)
	if err != nil {
		return dto.WidgetDataResponse{}, err
	}
	return dto.WidgetDataResponse{
		WidgetID:    widgetID,
		Data:        ds,
		RowCount:    ds.Len(),
		Cached:      cached,
		LastUpdated: time.Now(),
	}, nil
}

// Render produces the visual for a widget. Visual is nil when the kind is
// unknown or the data does not fit the kind.
func (s *widgetDataService) Render(ctx context.Context, dashboardID, widgetID, filtersJSON string) (dto.RenderResponse, error) {
	f, err := ParseFilters(filtersJSON)
	if err != nil {
		return dto.RenderResponse{}, err
	}
	w, err := s.widget(ctx, dashboardID, widgetID)
	if err != nil {
		return dto.RenderResponse{}, err
	}
	ds, _, err := s.widgetData(ctx, w.Config, f)
	if err != nil {
		return dto.RenderResponse{}, err
	}
	return dto.RenderResponse{
		WidgetID: widgetID,
		Visual:   chart.Render(w.Type, ds, chart.MappingFor(w.Config), s.palette, w.Config.Options),
	}, nil
}

// Export flattens a widget's unfiltered data for download. Only csv is
// produced here.
func (s *widgetDataService) Export(ctx context.Context, widgetID, format string) (dto.ExportTable, error) {
	format = strings.ToLower(strings.TrimSpace(format))
	if format == "" {
		format = dto.ExportCSV
	}
	switch format {
	case dto.ExportCSV:
	case dto.ExportPNG, dto.ExportPDF:
		return dto.ExportTable{}, errs.NewValidationError(format + " export is not produced by this service")
	default:
		return dto.ExportTable{}, errs.NewValidationError("unknown export format: " + format)
	}

	_, w, err := s.dashboards.FindWidget(ctx, widgetID)
	if err != nil {
		return dto.ExportTable{}, err
	}
	ds, _, err := s.widgetData(ctx, w.Config, nil)
	if err != nil {
		return dto.ExportTable{}, err
	}
	if !ds.IsSequence() {
		return dto.ExportTable{}, errs.NewValidationError("widget data is not tabular")
	}

	table := dto.ExportTable{Filename: widgetID + ".csv", Records: make([][]string, 0, len(ds.Rows))}
	if len(ds.Rows) == 0 {
		return table, nil
	}
	table.Header = ds.Rows[0].Keys()
	for _, row := range ds.Rows {
		rec := make([]string, len(table.Header))
		for i, col := range table.Header {
			v, _ := row.Get(col)
			rec[i] = datasource.CellString(v)
		}
		table.Records = append(table.Records, rec)
	}
	return table, nil
}

func (s *widgetDataService) ClearCache(ctx context.Context) (dto.ClearCacheResponse, error) {
	if s.cache == nil {
		return dto.ClearCacheResponse{}, nil
	}
	n, err := s.cache.Clear(ctx)
	if err != nil {
		return dto.ClearCacheResponse{}, errs.NewExternalServiceError("redis", "failed to clear widget cache", true, err)
	}
	logger.FromContext(ctx).Info("widget cache cleared", "entries", n)
	return dto.ClearCacheResponse{Cleared: n}, nil
}

func (s *widgetDataService) Status(ctx context.Context) (dto.StatusResponse, error) {
	list, err := s.dashboards.ListDashboards(ctx)
	if err != nil {
		return dto.StatusResponse{}, err
	}
	resp := dto.StatusResponse{
		Status:     statusOK,
		Dashboards: len(list.Dashboards),
		Connectors: s.sources.Kinds(),
		CheckedAt:  time.Now(),
	}
	if s.cache != nil {
		resp.Cache = dto.CacheStatus{
			Enabled:   true,
			Connected: s.cache.Ping(ctx) == nil,
			TTL:       s.cache.TTL().String(),
		}
	}
	return resp, nil
}

// --- Private methods ---

func (s *widgetDataService) widget(ctx context.Context, dashboardID, widgetID string) (*models.Widget, error) {
	d, err := s.dashboards.GetDashboard(ctx, dashboardID)
	if err != nil {
		return nil, err
	}
	w, ok := d.Widget(widgetID)
	if !ok {
		return nil, errs.NewNotFoundError("widget not found")
	}
	return w, nil
}

// widgetData reads, filters and caps a widget's rows, going through the
// shared cache when one is configured.
func (s *widgetDataService) widgetData(ctx context.Context, cfg models.WidgetConfig, f filters.State) (models.Dataset, bool, error) {
	log := logger.FromContext(ctx)
	kind := cfg.Source
	if kind == "" {
		kind = datasource.KindLocal
	}
	key := store.CacheKey(kind, cfg.Path, f.Key())

	if s.cache != nil {
		ds, ok, err := s.cache.Get(ctx, key)
		switch {
		case err != nil:
			s.metrics.ObserveCache(metrics.CacheError)
			log.Warn("widget cache read failed", "key", key, "error", err)
		case ok:
			s.metrics.ObserveCache(metrics.CacheHit)
			return ds, true, nil
		default:
			s.metrics.ObserveCache(metrics.CacheMiss)
		}
	}

	src, err := s.sources.Lookup(kind)
	if err != nil {
		return models.Dataset{}, false, err
	}
	begin := time.Now()
	ds, err := src.Read(ctx, cfg.Path)
	s.metrics.ObserveFetch(kind, begin, err)
	if err != nil {
		log.Warn("data source read failed", "source", kind, "path", cfg.Path, "error", err)
		return models.Dataset{}, false, sourceError(kind, err)
	}
	read := ds.Len()
	ds = datasource.Limit(datasource.ApplyFilters(ds, f), s.maxRows)
	if logger.IsDebugEnabled(ctx) {
		log.Debug("widget data read", "source", kind, "path", cfg.Path, "filters", f.Key(), "read", read, "kept", ds.Len())
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, key, ds); err != nil {
			log.Warn("widget cache write failed", "key", key, "error", err)
		}
	}
	return ds, false, nil
}

// sourceError keeps typed reader errors and wraps anything else as a
// transient upstream failure.
func sourceError(kind string, err error) error {
	var (
		nf  *errs.NotFoundError
		ve  *errs.ValidationError
		ext *errs.ExternalServiceError
		db  *errs.DatabaseError
	)
	if errors.As(err, &nf) || errors.As(err, &ve) || errors.As(err, &ext) || errors.As(err, &db) {
		return err
	}
	return errs.NewExternalServiceError(kind, "failed to read widget data", true, err)
}

// ParseFilters decodes the filters query value, a JSON object of filter
// name to selected option. Empty values select All.
func ParseFilters(raw string) (filters.State, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return filters.State{}, nil
	}
	if !gjson.Valid(raw) {
		return nil, errs.NewValidationError("filters must be valid JSON")
	}
	res := gjson.Parse(raw)
	if !res.IsObject() {
		return nil, errs.NewValidationError("filters must be a JSON object")
	}
	out := filters.State{}
	var bad string
	res.ForEach(func(k, v gjson.Result) bool {
		switch v.Type {
		case gjson.String, gjson.Number, gjson.True, gjson.False:
			if s := v.String(); s != filters.All {
				out[k.String()] = s
			}
			return true
		case gjson.Null:
			return true
		}
		bad = k.String()
		return false
	})
	if bad != "" {
		return nil, errs.NewValidationError(fmt.Sprintf("filter %q must be a scalar value", bad))
	}
	return out, nil
}
