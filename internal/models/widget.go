package models

import (
	"fmt"
	"math"
	"time"
)

// ChartKind selects the visualization used for a widget.
type ChartKind string

const (
	ChartKPI               ChartKind = "kpi"
	ChartTable             ChartKind = "table"
	ChartFeatureImportance ChartKind = "feature_importance"
	ChartConfusionMatrix   ChartKind = "confusion_matrix"
	ChartROCCurve          ChartKind = "roc_curve"
	ChartLine              ChartKind = "line"
	ChartBar               ChartKind = "bar"
	ChartArea              ChartKind = "area"
	ChartRadar             ChartKind = "radar"
	ChartPie               ChartKind = "pie"
	ChartScatter           ChartKind = "scatter"
	ChartBoxplot           ChartKind = "boxplot"
	ChartHeatmap           ChartKind = "heatmap"
	ChartHistogram         ChartKind = "histogram"
)

// ChartKinds lists every kind the renderer understands, in catalog order.
var ChartKinds = []ChartKind{
	ChartBar, ChartLine, ChartArea, ChartPie, ChartScatter, ChartHistogram,
	ChartBoxplot, ChartHeatmap, ChartRadar, ChartKPI, ChartTable,
	ChartFeatureImportance, ChartROCCurve, ChartConfusionMatrix,
}

func (k ChartKind) Known() bool {
	for _, c := range ChartKinds {
		if c == k {
			return true
		}
	}
	return false
}

// MultiSeries reports whether the kind plots one visual series per entry of
// WidgetConfig.Series.
func (k ChartKind) MultiSeries() bool {
	switch k {
	case ChartLine, ChartBar, ChartArea, ChartRadar, ChartHistogram:
		return true
	}
	return false
}

// AppendY is the layout Y sentinel for "place at the bottom of the grid".
// The service replaces it with a concrete row when the widget is saved.
const AppendY = math.MaxInt32

// Widget is one visual unit on a dashboard.
type Widget struct {
	ID         string       `firestore:"id" json:"id"`
	Title      string       `firestore:"title" json:"title"`
	Type       ChartKind    `firestore:"type" json:"type"`
	Config     WidgetConfig `firestore:"config" json:"config"`
	LayoutRect LayoutRect   `firestore:"layoutRect" json:"layoutRect"`
	CreatedAt  time.Time    `firestore:"createdAt" json:"createdAt,omitempty"`
	UpdatedAt  time.Time    `firestore:"updatedAt" json:"updatedAt,omitempty"`
}

// WidgetConfig binds a widget to its data source and field mapping.
// Options carries chart extras such as "label" or "reversedX".
type WidgetConfig struct {
	Path    string         `firestore:"path" json:"path"`
	Source  string         `firestore:"source" json:"source"`
	XField  string         `firestore:"xField,omitempty" json:"xField,omitempty"`
	YField  string         `firestore:"yField,omitempty" json:"yField,omitempty"`
	Series  []string       `firestore:"series,omitempty" json:"series,omitempty"`
	Options map[string]any `firestore:"options,omitempty" json:"options,omitempty"`
}

// LayoutRect is a widget's grid placement.
type LayoutRect struct {
	X      int `firestore:"x" json:"x"`
	Y      int `firestore:"y" json:"y"`
	Width  int `firestore:"width" json:"width"`
	Height int `firestore:"height" json:"height"`
}

func (r LayoutRect) Validate() error {
	if r.X < 0 || r.Y < 0 {
		return fmt.Errorf("layout position must be non-negative, got (%d,%d)", r.X, r.Y)
	}
	if r.Width < 1 || r.Height < 1 {
		return fmt.Errorf("layout size must be at least 1x1, got %dx%d", r.Width, r.Height)
	}
	return nil
}

// Appending reports whether the rect still carries the AppendY sentinel.
func (r LayoutRect) Appending() bool {
	return r.Y == AppendY
}
