package dto

import (
	"time"

	"github.com/GregMSThompson/analytics-dashboard/internal/chart"
	"github.com/GregMSThompson/analytics-dashboard/internal/models"
)

// Export formats
const (
	ExportCSV = "csv"
	ExportPNG = "png"
	ExportPDF = "pdf"
)

// --- Request types ---

// WidgetDraft is the body of a widget save. A draft whose ID matches an
// existing widget replaces it; otherwise a new widget is created.
type WidgetDraft struct {
	ID         string              `json:"id,omitempty"`
	Title      string              `json:"title"`
	Type       models.ChartKind    `json:"type"`
	Config     models.WidgetConfig `json:"config"`
	LayoutRect models.LayoutRect   `json:"layoutRect"`
}

// DraftFrom copies a widget into an editable draft.
func DraftFrom(w models.Widget) WidgetDraft {
	return WidgetDraft{
		ID:         w.ID,
		Title:      w.Title,
		Type:       w.Type,
		Config:     w.Config,
		LayoutRect: w.LayoutRect,
	}
}

// --- Response types ---

type ListDashboardsResponse struct {
	Dashboards []string `json:"dashboards"`
}

type WidgetDataResponse struct {
	WidgetID    string         `json:"widgetId"`
	Data        models.Dataset `json:"data"`
	RowCount    int            `json:"rowCount"`
	Cached      bool           `json:"cached"`
	LastUpdated time.Time      `json:"lastUpdated"`
}

type RenderResponse struct {
	WidgetID string        `json:"widgetId"`
	Visual   *chart.Visual `json:"visual"`
}

type ClearCacheResponse struct {
	Cleared int `json:"cleared"`
}

type CacheStatus struct {
	Enabled   bool   `json:"enabled"`
	Connected bool   `json:"connected"`
	TTL       string `json:"ttl,omitempty"`
}

type StatusResponse struct {
	Status     string      `json:"status"`
	Dashboards int         `json:"dashboards"`
	Connectors []string    `json:"connectors"`
	Cache      CacheStatus `json:"cache"`
	CheckedAt  time.Time   `json:"checkedAt"`
}

// ExportTable is a widget dataset flattened for CSV output.
type ExportTable struct {
	Filename string
	Header   []string
	Records  [][]string
}
