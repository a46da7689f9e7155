// Package view assembles one live dashboard: its configuration, filter
// selection, per-widget data bindings and authoring workflow. Each
// Dashboard owns its state, so several can run side by side.
package view

import (
	"context"
	"log/slog"
	"sync"

	"github.com/GregMSThompson/analytics-dashboard/internal/authoring"
	"github.com/GregMSThompson/analytics-dashboard/internal/binding"
	"github.com/GregMSThompson/analytics-dashboard/internal/chart"
	"github.com/GregMSThompson/analytics-dashboard/internal/filters"
	"github.com/GregMSThompson/analytics-dashboard/internal/models"
)

// API is everything a dashboard needs from the service.
type API interface {
	authoring.API
	LoadDashboard(ctx context.Context, dashboardID string) (*models.Dashboard, error)
	WidgetData(ctx context.Context, dashboardID, widgetID string, f filters.State) (models.Dataset, error)
}

type Options struct {
	Palette chart.Palette
	Log     *slog.Logger
}

// Slot is one rendered widget. Visual is nil while loading, on error, or
// when the chart kind draws nothing for the data.
type Slot struct {
	Widget models.Widget  `json:"widget"`
	Result binding.Result `json:"result"`
	Visual *chart.Visual  `json:"visual"`
}

type Dashboard struct {
	api     API
	id      string
	palette chart.Palette
	log     *slog.Logger

	filters   *filters.Manager
	engine    *binding.Engine
	authoring *authoring.Controller
	unsub     func()

	mu     sync.Mutex
	config *models.Dashboard
}

// Open loads the dashboard, seeds its filters and binds every widget.
func Open(ctx context.Context, api API, dashboardID string, opts Options) (*Dashboard, error) {
	log := opts.Log
	if log == nil {
		log = slog.Default()
	}
	cfg, err := api.LoadDashboard(ctx, dashboardID)
	if err != nil {
		return nil, err
	}

	d := &Dashboard{
		api:     api,
		id:      dashboardID,
		palette: opts.Palette,
		log:     log.With("dashboard_id", dashboardID),
		filters: filters.NewManager(),
		config:  cfg,
	}
	d.engine = binding.NewEngine(ctx, binding.FetchFunc(d.fetch), d.log)
	d.authoring = authoring.NewController(api, dashboardID, d.Reload, d.log)

	d.filters.Seed(cfg.GlobalFilters)
	d.bindAll(d.filters.Active())
	d.unsub = d.filters.Subscribe(d.bindAll)
	return d, nil
}

func (d *Dashboard) fetch(ctx context.Context, widgetID string, f filters.State) (models.Dataset, error) {
	return d.api.WidgetData(ctx, d.id, widgetID, f)
}

func (d *Dashboard) bindAll(f filters.State) {
	for _, w := range d.Config().Layout {
		d.engine.Bind(w.ID, f)
	}
}

func (d *Dashboard) ID() string { return d.id }

// Config returns the current configuration snapshot.
func (d *Dashboard) Config() *models.Dashboard {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.config
}

func (d *Dashboard) Filters() filters.State { return d.filters.Active() }

// SetFilter changes one filter and re-binds every widget.
func (d *Dashboard) SetFilter(name, value string) {
	d.filters.Set(name, value)
}

func (d *Dashboard) Authoring() *authoring.Controller { return d.authoring }

func (d *Dashboard) Binding(widgetID string) (*binding.Binding, bool) {
	return d.engine.Binding(widgetID)
}

// Reload replaces the configuration and brings the bindings in line: new
// widgets are bound, removed ones unbound, and the rest re-fetched.
func (d *Dashboard) Reload(ctx context.Context) error {
	cfg, err := d.api.LoadDashboard(ctx, d.id)
	if err != nil {
		return err
	}
	d.mu.Lock()
	d.config = cfg
	d.mu.Unlock()

	keep := make(map[string]struct{}, len(cfg.Layout))
	active := d.filters.Active()
	for _, w := range cfg.Layout {
		keep[w.ID] = struct{}{}
		if b, ok := d.engine.Binding(w.ID); ok {
			b.Refresh()
			continue
		}
		d.engine.Bind(w.ID, active)
	}
	for _, id := range d.engine.WidgetIDs() {
		if _, ok := keep[id]; !ok {
			d.engine.Unbind(id)
		}
	}
	d.log.Debug("dashboard reloaded", "widgets", len(cfg.Layout))
	return nil
}

// Render maps every widget in layout order to its current visual.
func (d *Dashboard) Render() []Slot {
	cfg := d.Config()
	slots := make([]Slot, 0, len(cfg.Layout))
	for _, w := range cfg.Layout {
		slot := Slot{Widget: w}
		if b, ok := d.engine.Binding(w.ID); ok {
			slot.Result = b.Result()
		}
		if slot.Result.Status == binding.StatusReady {
			slot.Visual = chart.Render(w.Type, slot.Result.Data, chart.MappingFor(w.Config), d.palette, w.Config.Options)
		}
		slots = append(slots, slot)
	}
	return slots
}

// Wait blocks until all in-flight widget fetches have settled.
func (d *Dashboard) Wait() { d.engine.Wait() }

func (d *Dashboard) Close() {
	d.unsub()
	d.engine.Close()
}
