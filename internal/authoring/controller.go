// Package authoring runs the create, edit and delete workflow for widgets.
package authoring

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/GregMSThompson/analytics-dashboard/internal/chart"
	"github.com/GregMSThompson/analytics-dashboard/internal/dto"
	"github.com/GregMSThompson/analytics-dashboard/internal/errs"
	"github.com/GregMSThompson/analytics-dashboard/internal/models"
)

type State string

const (
	StateClosed State = "closed"
	StateOpen   State = "open"
	StateSaving State = "saving"
)

var ErrNotOpen = errors.New("no widget draft is open")

// API is the persistence side of authoring.
type API interface {
	SaveWidget(ctx context.Context, dashboardID string, draft dto.WidgetDraft) (*models.Widget, error)
	DeleteWidget(ctx context.Context, widgetID string) error
}

// ReloadFunc replaces the dashboard configuration after a write.
type ReloadFunc func(ctx context.Context) error

// Draft is the editable form of a widget. Series are kept as the raw
// comma separated text the author typed.
type Draft struct {
	dto.WidgetDraft
	SeriesText string
}

var defaultLayout = models.LayoutRect{X: 0, Y: models.AppendY, Width: 6, Height: 4}

type Controller struct {
	api         API
	dashboardID string
	reload      ReloadFunc
	log         *slog.Logger

	mu    sync.Mutex
	state State
	draft Draft
}

func NewController(api API, dashboardID string, reload ReloadFunc, log *slog.Logger) *Controller {
	return &Controller{api: api, dashboardID: dashboardID, reload: reload, log: log, state: StateClosed}
}

func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

func (c *Controller) Draft() Draft {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.draft
}

// OpenCreate starts an empty bar chart draft appended below the grid.
func (c *Controller) OpenCreate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state = StateOpen
	c.draft = Draft{WidgetDraft: dto.WidgetDraft{Type: models.ChartBar, LayoutRect: defaultLayout}}
}

func (c *Controller) OpenEdit(w models.Widget) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state = StateOpen
	c.draft = Draft{WidgetDraft: dto.DraftFrom(w), SeriesText: strings.Join(w.Config.Series, ", ")}
}

// Edit applies fn to the open draft.
func (c *Controller) Edit(fn func(*Draft)) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != StateOpen {
		return ErrNotOpen
	}
	fn(&c.draft)
	return nil
}

func (c *Controller) Cancel() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state = StateClosed
	c.draft = Draft{}
}

// Save validates the draft, persists it and reloads the dashboard. A
// validation failure leaves the draft open without any network call. A
// transport failure reopens the draft unchanged.
func (c *Controller) Save(ctx context.Context) (*models.Widget, error) {
	c.mu.Lock()
	if c.state != StateOpen {
		c.mu.Unlock()
		return nil, ErrNotOpen
	}
	payload, err := Validate(c.draft)
	if err != nil {
		c.mu.Unlock()
		return nil, err
	}
	c.state = StateSaving
	c.mu.Unlock()

	w, err := c.api.SaveWidget(ctx, c.dashboardID, payload)
	if err != nil {
		c.setState(StateOpen)
		c.log.Warn("widget save failed", "dashboard_id", c.dashboardID, "error", err)
		return nil, err
	}

	c.mu.Lock()
	c.state = StateClosed
	c.draft = Draft{}
	c.mu.Unlock()

	if err := c.reload(ctx); err != nil {
		return w, fmt.Errorf("reload after save: %w", err)
	}
	return w, nil
}

// Delete removes a widget and reloads the dashboard.
func (c *Controller) Delete(ctx context.Context, widgetID string) error {
	if err := c.api.DeleteWidget(ctx, widgetID); err != nil {
		c.log.Warn("widget delete failed", "widget_id", widgetID, "error", err)
		return err
	}
	if err := c.reload(ctx); err != nil {
		return fmt.Errorf("reload after delete: %w", err)
	}
	return nil
}

func (c *Controller) setState(s State) {
	c.mu.Lock()
	c.state = s
	c.mu.Unlock()
}

// Validate turns a draft into a save payload, or returns a ValidationError
// naming the first blocking problem.
func Validate(d Draft) (dto.WidgetDraft, error) {
	out := d.WidgetDraft
	out.Title = strings.TrimSpace(out.Title)
	out.Config.Path = strings.TrimSpace(out.Config.Path)
	switch {
	case out.Title == "":
		return dto.WidgetDraft{}, errs.NewValidationError("title is required")
	case out.Type == "":
		return dto.WidgetDraft{}, errs.NewValidationError("chart type is required")
	case out.Config.Path == "":
		return dto.WidgetDraft{}, errs.NewValidationError("data path is required")
	}
	out.Config.Series = ParseSeries(d.SeriesText)

	if _, err := chart.NewSpec(out.Type, out.Config); err != nil {
		var unknown *errs.UnknownChartTypeError
		if errors.As(err, &unknown) {
			return dto.WidgetDraft{}, errs.NewValidationError(unknown.Message)
		}
		return dto.WidgetDraft{}, err
	}
	if err := out.LayoutRect.Validate(); err != nil {
		return dto.WidgetDraft{}, errs.NewValidationError(err.Error())
	}
	return out, nil
}

// ParseSeries splits comma separated series text, trimming blanks and
// dropping empty entries.
func ParseSeries(text string) []string {
	var out []string
	for _, part := range strings.Split(text, ",") {
		if s := strings.TrimSpace(part); s != "" {
			out = append(out, s)
		}
	}
	return out
}
