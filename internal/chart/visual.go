package chart

import "github.com/GregMSThompson/analytics-dashboard/internal/models"

// Visual is the renderer's output: a structural description of one chart.
// Equal inputs always produce equal Visuals, so they can be snapshot tested
// and shipped to any front end as JSON.
type Visual struct {
	Chart   models.ChartKind `json:"chart"`
	Title   string           `json:"title,omitempty"`
	KPI     *KPI             `json:"kpi,omitempty"`
	Table   *Table           `json:"table,omitempty"`
	Axes    *Axes            `json:"axes,omitempty"`
	Series  []Series         `json:"series,omitempty"`
	Slices  []Slice          `json:"slices,omitempty"`
	Bars    []Bar            `json:"bars,omitempty"`
	Boxes   []Box            `json:"boxes,omitempty"`
	Markers []Marker         `json:"markers,omitempty"`
	Matrix  *Matrix          `json:"matrix,omitempty"`
	Legend  []LegendEntry    `json:"legend,omitempty"`
}

type KPI struct {
	Value    any    `json:"value"`
	HasValue bool   `json:"hasValue"`
	Label    string `json:"label"`
}

type Table struct {
	Columns []string `json:"columns"`
	Rows    [][]any  `json:"rows"`
}

type Orientation string

const (
	Vertical   Orientation = "vertical"
	Horizontal Orientation = "horizontal"
	Polar      Orientation = "polar"
)

type Scale string

const (
	ScaleCategory Scale = "category"
	ScaleNumber   Scale = "number"
)

type Axes struct {
	Orientation Orientation `json:"orientation"`
	X           Axis        `json:"x"`
	Y           Axis        `json:"y"`
}

type Axis struct {
	Field    string `json:"field,omitempty"`
	Label    string `json:"label,omitempty"`
	Scale    Scale  `json:"scale"`
	Reversed bool   `json:"reversed,omitempty"`
}

type Mark string

const (
	MarkLine  Mark = "line"
	MarkBar   Mark = "bar"
	MarkArea  Mark = "area"
	MarkRadar Mark = "radar"
)

type Series struct {
	Name   string  `json:"name"`
	Mark   Mark    `json:"mark"`
	Color  string  `json:"color"`
	Points []Point `json:"points"`
}

type Point struct {
	X any `json:"x"`
	Y any `json:"y"`
}

type Slice struct {
	Label any    `json:"label"`
	Value any    `json:"value"`
	Color string `json:"color"`
}

type Bar struct {
	Label any    `json:"label"`
	Value any    `json:"value"`
	Color string `json:"color"`
}

// Box is the interquartile range of one category. Whiskers and the median
// are not drawn.
type Box struct {
	Label any     `json:"label"`
	Q1    float64 `json:"q1"`
	Q3    float64 `json:"q3"`
	IQR   float64 `json:"iqr"`
	Color string  `json:"color"`
}

type Shape string

const (
	ShapeCircle Shape = "circle"
	ShapeSquare Shape = "square"
)

type Marker struct {
	X     any     `json:"x"`
	Y     any     `json:"y"`
	Size  float64 `json:"size,omitempty"`
	Shape Shape   `json:"shape"`
	Color string  `json:"color"`
}

type Matrix struct {
	Labels []string `json:"labels"`
	Cells  [][]Cell `json:"cells"`
}

// Cell is one confusion matrix entry. Diagonal cells are correct
// predictions and are highlighted.
type Cell struct {
	Value     float64 `json:"value"`
	Highlight bool    `json:"highlight"`
}

type LegendEntry struct {
	Label string `json:"label"`
	Color string `json:"color,omitempty"`
}
