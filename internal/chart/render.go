package chart

import (
	"fmt"

	"github.com/GregMSThompson/analytics-dashboard/internal/models"
)

// FieldMapping tells the renderer which row fields feed which channel.
type FieldMapping struct {
	XField string
	YField string
	Series []string
}

func MappingFor(cfg models.WidgetConfig) FieldMapping {
	return FieldMapping{XField: cfg.XField, YField: cfg.YField, Series: cfg.Series}
}

const (
	heatmapMinSize = 100
	heatmapMaxSize = 1000
)

// Render maps a chart kind and its resolved data to a Visual. It returns nil
// when there is nothing to draw, including for kinds it does not know:
// unknown widget types degrade silently so older renderers keep working
// against newer dashboards.
func Render(kind models.ChartKind, data models.Dataset, m FieldMapping, palette Palette, extra map[string]any) *Visual {
	switch kind {
	case models.ChartKPI:
		return renderKPI(data, m, extra)
	case models.ChartTable:
		return renderTable(data)
	case models.ChartFeatureImportance:
		return renderFeatureImportance(data, palette)
	case models.ChartConfusionMatrix:
		return renderConfusionMatrix(data)
	case models.ChartROCCurve:
		return renderROC(data, palette)
	case models.ChartLine, models.ChartBar, models.ChartArea, models.ChartRadar, models.ChartHistogram:
		return renderSeries(kind, data, m, palette)
	case models.ChartPie:
		return renderPie(data, m, palette)
	case models.ChartScatter:
		return renderScatter(data, m, palette)
	case models.ChartBoxplot:
		return renderBoxplot(data, palette)
	case models.ChartHeatmap:
		return renderHeatmap(data, palette, extra)
	}
	return nil
}

// RenderSpec renders a validated widget spec.
func RenderSpec(s Spec, data models.Dataset, palette Palette) *Visual {
	return Render(s.Kind(), data, s.Mapping(), palette, s.Extra())
}

func renderKPI(data models.Dataset, m FieldMapping, extra map[string]any) *Visual {
	kpi := &KPI{Label: stringOption(extra, "label", "KPI")}
	if data.IsSequence() && len(data.Rows) > 0 {
		kpi.Value, kpi.HasValue = data.Rows[0].Get(orDefault(m.YField, "value"))
	}
	return &Visual{Chart: models.ChartKPI, KPI: kpi}
}

func renderTable(data models.Dataset) *Visual {
	if !data.IsSequence() || len(data.Rows) == 0 {
		return nil
	}
	cols := data.Rows[0].Keys()
	rows := make([][]any, len(data.Rows))
	for i, r := range data.Rows {
		cells := make([]any, len(cols))
		for j, c := range cols {
			cells[j] = field(r, c)
		}
		rows[i] = cells
	}
	return &Visual{Chart: models.ChartTable, Table: &Table{Columns: cols, Rows: rows}}
}

// Bars keep row order; callers sort by importance.
func renderFeatureImportance(data models.Dataset, palette Palette) *Visual {
	if !data.IsSequence() {
		return nil
	}
	color := palette.At(3)
	bars := make([]Bar, 0, len(data.Rows))
	for _, r := range data.Rows {
		bars = append(bars, Bar{Label: field(r, "feature"), Value: field(r, "importance"), Color: color})
	}
	return &Visual{
		Chart: models.ChartFeatureImportance,
		Axes: &Axes{
			Orientation: Horizontal,
			X:           Axis{Field: "importance", Scale: ScaleNumber},
			Y:           Axis{Field: "feature", Scale: ScaleCategory},
		},
		Bars:   bars,
		Legend: []LegendEntry{{Label: "importance", Color: color}},
	}
}

func renderConfusionMatrix(data models.Dataset) *Visual {
	obj, ok := payload(data)
	if !ok {
		return nil
	}
	rawMatrix, _ := asSlice(field(obj, "matrix"))
	rawLabels, _ := asSlice(field(obj, "labels"))
	if len(rawLabels) != len(rawMatrix) {
		return nil
	}
	labels := make([]string, len(rawLabels))
	for i, l := range rawLabels {
		labels[i] = fmt.Sprint(l)
	}
	cells := make([][]Cell, len(rawMatrix))
	for i, rawRow := range rawMatrix {
		row, ok := asSlice(rawRow)
		if !ok || len(row) != len(labels) {
			return nil
		}
		cells[i] = make([]Cell, len(row))
		for j, v := range row {
			f, ok := toFloat(v)
			if !ok {
				return nil
			}
			cells[i][j] = Cell{Value: f, Highlight: i == j}
		}
	}
	return &Visual{
		Chart:  models.ChartConfusionMatrix,
		Title:  "Confusion Matrix",
		Matrix: &Matrix{Labels: labels, Cells: cells},
	}
}

func renderROC(data models.Dataset, palette Palette) *Visual {
	obj, ok := payload(data)
	if !ok {
		return nil
	}
	rawPoints, _ := asSlice(field(obj, "points"))
	points := make([]Point, 0, len(rawPoints))
	for _, p := range rawPoints {
		pt, ok := p.(map[string]any)
		if !ok {
			continue
		}
		points = append(points, Point{X: pt["fpr"], Y: pt["tpr"]})
	}
	legend := "AUC = n/a"
	if auc, ok := toFloat(field(obj, "auc")); ok {
		legend = fmt.Sprintf("AUC = %.4f", auc)
	}
	color := palette.At(0)
	return &Visual{
		Chart: models.ChartROCCurve,
		Axes: &Axes{
			Orientation: Vertical,
			X:           Axis{Field: "fpr", Label: "False Positive Rate", Scale: ScaleNumber},
			Y:           Axis{Field: "tpr", Label: "True Positive Rate", Scale: ScaleNumber},
		},
		Series: []Series{{Name: "ROC Curve", Mark: MarkLine, Color: color, Points: points}},
		Legend: []LegendEntry{{Label: legend, Color: color}},
	}
}

var seriesMarks = map[models.ChartKind]Mark{
	models.ChartLine:      MarkLine,
	models.ChartBar:       MarkBar,
	models.ChartHistogram: MarkBar,
	models.ChartArea:      MarkArea,
	models.ChartRadar:     MarkRadar,
}

func renderSeries(kind models.ChartKind, data models.Dataset, m FieldMapping, palette Palette) *Visual {
	if !data.IsSequence() {
		return nil
	}
	mark := seriesMarks[kind]
	x := m.XField
	if mark == MarkBar {
		x = orDefault(x, "name")
	}

	series := make([]Series, len(m.Series))
	legend := make([]LegendEntry, len(m.Series))
	for i, name := range m.Series {
		color := palette.At(i)
		points := make([]Point, len(data.Rows))
		for j, r := range data.Rows {
			points[j] = Point{X: field(r, x), Y: field(r, name)}
		}
		series[i] = Series{Name: name, Mark: mark, Color: color, Points: points}
		legend[i] = LegendEntry{Label: name, Color: color}
	}

	axes := &Axes{Orientation: Vertical, X: Axis{Field: x, Scale: ScaleCategory}, Y: Axis{Scale: ScaleNumber}}
	if mark == MarkRadar {
		axes.Orientation = Polar
	}
	return &Visual{Chart: kind, Axes: axes, Series: series, Legend: legend}
}

func renderPie(data models.Dataset, m FieldMapping, palette Palette) *Visual {
	if !data.IsSequence() {
		return nil
	}
	nameKey := orDefault(m.XField, "name")
	valueKey := orDefault(m.YField, "value")
	slices := make([]Slice, len(data.Rows))
	legend := make([]LegendEntry, len(data.Rows))
	for i, r := range data.Rows {
		color := palette.At(i)
		label := field(r, nameKey)
		slices[i] = Slice{Label: label, Value: field(r, valueKey), Color: color}
		legend[i] = LegendEntry{Label: fmt.Sprint(label), Color: color}
	}
	return &Visual{Chart: models.ChartPie, Slices: slices, Legend: legend}
}

func renderScatter(data models.Dataset, m FieldMapping, palette Palette) *Visual {
	if !data.IsSequence() {
		return nil
	}
	color := palette.At(0)
	markers := make([]Marker, len(data.Rows))
	for i, r := range data.Rows {
		markers[i] = Marker{X: field(r, m.XField), Y: field(r, m.YField), Shape: ShapeCircle, Color: color}
	}
	return &Visual{
		Chart: models.ChartScatter,
		Axes: &Axes{
			Orientation: Vertical,
			X:           Axis{Field: m.XField, Label: m.XField, Scale: ScaleNumber},
			Y:           Axis{Field: m.YField, Label: m.YField, Scale: ScaleNumber},
		},
		Markers: markers,
		Legend:  []LegendEntry{{Label: "Points", Color: color}},
	}
}

func renderBoxplot(data models.Dataset, palette Palette) *Visual {
	if !data.IsSequence() {
		return nil
	}
	color := palette.At(0)
	boxes := make([]Box, len(data.Rows))
	for i, r := range data.Rows {
		q1, _ := toFloat(field(r, "q1"))
		q3, _ := toFloat(field(r, "q3"))
		boxes[i] = Box{Label: field(r, "name"), Q1: q1, Q3: q3, IQR: q3 - q1, Color: color}
	}
	return &Visual{
		Chart: models.ChartBoxplot,
		Axes: &Axes{
			Orientation: Vertical,
			X:           Axis{Field: "name", Scale: ScaleCategory},
			Y:           Axis{Scale: ScaleNumber},
		},
		Boxes:  boxes,
		Legend: []LegendEntry{{Label: "IQR", Color: color}},
	}
}

func renderHeatmap(data models.Dataset, palette Palette, extra map[string]any) *Visual {
	if !data.IsSequence() {
		return nil
	}
	values := make([]float64, len(data.Rows))
	lo, hi := 0.0, 0.0
	for i, r := range data.Rows {
		values[i], _ = toFloat(field(r, "value"))
		if i == 0 || values[i] < lo {
			lo = values[i]
		}
		if i == 0 || values[i] > hi {
			hi = values[i]
		}
	}
	color := palette.At(1)
	markers := make([]Marker, len(data.Rows))
	for i, r := range data.Rows {
		size := float64(heatmapMaxSize)
		if hi > lo {
			size = heatmapMinSize + (values[i]-lo)/(hi-lo)*(heatmapMaxSize-heatmapMinSize)
		}
		markers[i] = Marker{X: field(r, "x"), Y: field(r, "y"), Size: size, Shape: ShapeSquare, Color: color}
	}
	return &Visual{
		Chart: models.ChartHeatmap,
		Axes: &Axes{
			Orientation: Vertical,
			X:           Axis{Field: "x", Label: "X", Scale: ScaleCategory, Reversed: boolOption(extra, "reversedX")},
			Y:           Axis{Field: "y", Label: "Y", Scale: ScaleCategory, Reversed: boolOption(extra, "reversedY")},
		},
		Markers: markers,
	}
}
