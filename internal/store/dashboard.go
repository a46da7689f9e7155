package store

import (
	"context"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/GregMSThompson/analytics-dashboard/internal/errs"
	"github.com/GregMSThompson/analytics-dashboard/internal/models"
	"github.com/GregMSThompson/analytics-dashboard/pkg/logger"
)

const (
	dashboardsCollection = "dashboards"
	widgetsCollection    = "widgets"
)

type dashboardStore struct {
	client *firestore.Client
}

func NewDashboardStore(client *firestore.Client) *dashboardStore {
	return &dashboardStore{client: client}
}

func (s *dashboardStore) dashboards() *firestore.CollectionRef {
	return s.client.Collection(dashboardsCollection)
}

func (s *dashboardStore) widgets(dashboardID string) *firestore.CollectionRef {
	return s.dashboards().Doc(dashboardID).Collection(widgetsCollection)
}

// Get loads a dashboard and its widgets in creation order.
func (s *dashboardStore) Get(ctx context.Context, dashboardID string) (*models.Dashboard, error) {
	doc, err := s.dashboards().Doc(dashboardID).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, errs.NewNotFoundError("dashboard not found")
		}
		return nil, errs.NewDatabaseError("read", "failed to get dashboard", err)
	}
	var d models.Dashboard
	if err := doc.DataTo(&d); err != nil {
		return nil, errs.NewDatabaseError("read", "failed to parse dashboard data", err)
	}
	d.ID = doc.Ref.ID

	docs, err := s.widgets(dashboardID).OrderBy("createdAt", firestore.Asc).Documents(ctx).GetAll()
	if err != nil {
		return nil, errs.NewDatabaseError("read", "failed to list widgets", err)
	}
	d.Layout = make([]models.Widget, 0, len(docs))
	for _, wd := range docs {
		var w models.Widget
		if err := wd.DataTo(&w); err != nil {
			return nil, errs.NewDatabaseError("read", "failed to parse widget data", err)
		}
		d.Layout = append(d.Layout, w)
	}
	return &d, nil
}

func (s *dashboardStore) ListIDs(ctx context.Context) ([]string, error) {
	docs, err := s.dashboards().Select().Documents(ctx).GetAll()
	if err != nil {
		return nil, errs.NewDatabaseError("read", "failed to list dashboards", err)
	}
	ids := make([]string, 0, len(docs))
	for _, d := range docs {
		ids = append(ids, d.Ref.ID)
	}
	return ids, nil
}

func (s *dashboardStore) SaveWidget(ctx context.Context, dashboardID string, w *models.Widget) error {
	now := time.Now()
	if w.CreatedAt.IsZero() {
		w.CreatedAt = now
	}
	w.UpdatedAt = now
	if _, err := s.widgets(dashboardID).Doc(w.ID).Set(ctx, w); err != nil {
		return errs.NewDatabaseError("update", "failed to save widget", err)
	}
	return nil
}

// FindWidget locates a widget by ID across all dashboards. Outside the
// emulator this needs a collection-group index on widgets.id.
func (s *dashboardStore) FindWidget(ctx context.Context, widgetID string) (string, *models.Widget, error) {
	docs, err := s.client.CollectionGroup(widgetsCollection).Where("id", "==", widgetID).Limit(1).Documents(ctx).GetAll()
	if err != nil {
		return "", nil, errs.NewDatabaseError("read", "failed to find widget", err)
	}
	if len(docs) == 0 {
		return "", nil, errs.NewNotFoundError("widget not found")
	}
	var w models.Widget
	if err := docs[0].DataTo(&w); err != nil {
		return "", nil, errs.NewDatabaseError("read", "failed to parse widget data", err)
	}
	return docs[0].Ref.Parent.Parent.ID, &w, nil
}

func (s *dashboardStore) DeleteWidget(ctx context.Context, widgetID string) error {
	dashboardID, _, err := s.FindWidget(ctx, widgetID)
	if err != nil {
		return err
	}
	if _, err := s.widgets(dashboardID).Doc(widgetID).Delete(ctx); err != nil {
		return errs.NewDatabaseError("delete", "failed to delete widget", err)
	}
	return nil
}

type bulkWidgetJob struct {
	widgetID string
	job      *firestore.BulkWriterJob
}

// PutDashboard writes a full dashboard configuration. Widgets already
// stored but absent from d.Layout are deleted.
func (s *dashboardStore) PutDashboard(ctx context.Context, d *models.Dashboard) error {
	log := logger.FromContext(ctx)
	now := time.Now()
	if d.CreatedAt.IsZero() {
		d.CreatedAt = now
	}
	d.UpdatedAt = now

	existing, err := s.widgets(d.ID).Select().Documents(ctx).GetAll()
	if err != nil {
		return errs.NewDatabaseError("read", "failed to list widgets", err)
	}

	bw := s.client.BulkWriter(ctx)
	jobs := make([]bulkWidgetJob, 0, len(d.Layout)+1)
	dj, err := bw.Set(s.dashboards().Doc(d.ID), d)
	if err != nil {
		return errs.NewDatabaseError("update", "failed to schedule dashboard write", err)
	}
	jobs = append(jobs, bulkWidgetJob{job: dj})

	keep := make(map[string]struct{}, len(d.Layout))
	for i := range d.Layout {
		w := &d.Layout[i]
		keep[w.ID] = struct{}{}
		if w.CreatedAt.IsZero() {
			// spaced so the stored order matches the layout order
			w.CreatedAt = now.Add(time.Duration(i) * time.Millisecond)
		}
		w.UpdatedAt = now
		j, err := bw.Set(s.widgets(d.ID).Doc(w.ID), w)
		if err != nil {
			return errs.NewDatabaseError("update", "failed to schedule widget write", err)
		}
		jobs = append(jobs, bulkWidgetJob{widgetID: w.ID, job: j})
	}
	for _, doc := range existing {
		if _, ok := keep[doc.Ref.ID]; ok {
			continue
		}
		j, err := bw.Delete(doc.Ref)
		if err != nil {
			return errs.NewDatabaseError("delete", "failed to schedule widget delete", err)
		}
		jobs = append(jobs, bulkWidgetJob{widgetID: doc.Ref.ID, job: j})
	}
	bw.End()

	for _, entry := range jobs {
		if _, err := entry.job.Results(); err != nil {
			log.Error("failed to write dashboard", "dashboard_id", d.ID, "widget_id", entry.widgetID, "error", err)
			return errs.NewDatabaseError("update", "failed to write dashboard", err)
		}
	}
	return nil
}
