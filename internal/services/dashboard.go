package services

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"

	"github.com/GregMSThompson/analytics-dashboard/internal/chart"
	"github.com/GregMSThompson/analytics-dashboard/internal/dto"
	"github.com/GregMSThompson/analytics-dashboard/internal/errs"
	"github.com/GregMSThompson/analytics-dashboard/internal/models"
	"github.com/GregMSThompson/analytics-dashboard/pkg/logger"
)

// dashboardStore is the Firestore storage interface for dashboards.
type dashboardStore interface {
	Get(ctx context.Context, dashboardID string) (*models.Dashboard, error)
	ListIDs(ctx context.Context) ([]string, error)
	PutDashboard(ctx context.Context, d *models.Dashboard) error
	SaveWidget(ctx context.Context, dashboardID string, w *models.Widget) error
	FindWidget(ctx context.Context, widgetID string) (string, *models.Widget, error)
	DeleteWidget(ctx context.Context, widgetID string) error
}

type dashboardService struct {
	store dashboardStore
}

func NewDashboardService(store dashboardStore) *dashboardService {
	return &dashboardService{store: store}
}

// --- Public service methods ---

func (s *dashboardService) GetDashboard(ctx context.Context, dashboardID string) (*models.Dashboard, error) {
	d, err := s.store.Get(ctx, dashboardID)
	if err != nil {
		return nil, err
	}
	if err := d.Validate(); err != nil {
		logger.FromContext(ctx).Error("stored dashboard is invalid", "dashboard_id", dashboardID, "error", err)
		return nil, err
	}
	return d, nil
}

func (s *dashboardService) ListDashboards(ctx context.Context) (dto.ListDashboardsResponse, error) {
	ids, err := s.store.ListIDs(ctx)
	if err != nil {
		return dto.ListDashboardsResponse{}, err
	}
	return dto.ListDashboardsResponse{Dashboards: ids}, nil
}

// ImportDashboard replaces a dashboard with d. Widgets without an ID are
// given one and widgets placed at AppendY are stacked below the others in
// layout order.
func (s *dashboardService) ImportDashboard(ctx context.Context, dashboardID string, d *models.Dashboard) (*models.Dashboard, error) {
	d.ID = dashboardID
	if strings.TrimSpace(d.Title) == "" {
		d.Title = dashboardID
	}
	for i := range d.Layout {
		w := &d.Layout[i]
		if w.ID == "" {
			w.ID = uuid.New().String()
		}
		if err := validateWidget(w); err != nil {
			return nil, errs.NewValidationError("widget " + w.ID + ": " + err.Error())
		}
	}
	for i := range d.Layout {
		if d.Layout[i].LayoutRect.Appending() {
			d.Layout[i].LayoutRect.Y = d.NextY()
		}
	}
	if err := d.Validate(); err != nil {
		return nil, err
	}
	if err := s.store.PutDashboard(ctx, d); err != nil {
		return nil, err
	}
	logger.FromContext(ctx).Info("dashboard imported", "dashboard_id", dashboardID, "widgets", len(d.Layout))
	return d, nil
}

// SaveWidget creates or replaces a widget from a draft. A draft whose ID
// matches an existing widget replaces it wholesale.
func (s *dashboardService) SaveWidget(ctx context.Context, dashboardID string, draft dto.WidgetDraft) (*models.Widget, error) {
	d, err := s.store.Get(ctx, dashboardID)
	if err != nil {
		return nil, err
	}
	w := &models.Widget{
		ID:         draft.ID,
		Title:      draft.Title,
		Type:       draft.Type,
		Config:     draft.Config,
		LayoutRect: draft.LayoutRect,
	}
	if err := validateWidget(w); err != nil {
		return nil, err
	}

	existing, ok := d.Widget(w.ID)
	if w.ID != "" && ok {
		w.CreatedAt = existing.CreatedAt
		// free the old slot before stacking
		existing.LayoutRect.Y = models.AppendY
	} else {
		w.ID = uuid.New().String()
	}
	if w.LayoutRect.Appending() {
		w.LayoutRect.Y = d.NextY()
	}

	if err := s.store.SaveWidget(ctx, dashboardID, w); err != nil {
		return nil, err
	}
	return w, nil
}

func (s *dashboardService) DeleteWidget(ctx context.Context, widgetID string) error {
	return s.store.DeleteWidget(ctx, widgetID)
}

// FindWidget returns the owning dashboard ID and the widget.
func (s *dashboardService) FindWidget(ctx context.Context, widgetID string) (string, *models.Widget, error) {
	return s.store.FindWidget(ctx, widgetID)
}

// --- Validation ---

func validateWidget(w *models.Widget) error {
	w.Title = strings.TrimSpace(w.Title)
	w.Config.Path = strings.TrimSpace(w.Config.Path)
	switch {
	case w.Title == "":
		return errs.NewValidationError("title is required")
	case w.Type == "":
		return errs.NewValidationError("chart type is required")
	case w.Config.Path == "":
		return errs.NewValidationError("config.path is required")
	}
	if _, err := chart.NewSpec(w.Type, w.Config); err != nil {
		var unknown *errs.UnknownChartTypeError
		if errors.As(err, &unknown) {
			return errs.NewValidationError(unknown.Message)
		}
		return err
	}
	if err := w.LayoutRect.Validate(); err != nil {
		return errs.NewValidationError(err.Error())
	}
	return nil
}
