package chart

import (
	"reflect"
	"testing"

	"github.com/GregMSThompson/analytics-dashboard/internal/models"
)

func salesRows() models.Dataset {
	return models.RowsDataset(
		models.NewRow("month", "jan", "sales", 10.0, "revenue", 100.0),
		models.NewRow("month", "feb", "sales", 12.0, "revenue", 130.0),
	)
}

// --- Dispatch tests ---

func TestRender_UnknownKind(t *testing.T) {
	if v := Render("sankey", salesRows(), FieldMapping{}, DefaultPalette, nil); v != nil {
		t.Fatalf("expected nil visual for unknown kind, got %+v", v)
	}
}

func TestRender_Deterministic(t *testing.T) {
	m := FieldMapping{XField: "month", Series: []string{"sales", "revenue"}}
	for _, kind := range models.ChartKinds {
		a := Render(kind, salesRows(), m, DefaultPalette, nil)
		b := Render(kind, salesRows(), m, DefaultPalette, nil)
		if !reflect.DeepEqual(a, b) {
			t.Errorf("%s: render is not deterministic", kind)
		}
	}
}

// --- KPI tests ---

func TestRender_KPI(t *testing.T) {
	data := models.RowsDataset(models.NewRow("value", 42.0))
	v := Render(models.ChartKPI, data, FieldMapping{}, nil, map[string]any{"label": "Revenue"})
	if v == nil || v.KPI == nil {
		t.Fatal("expected kpi visual")
	}
	if !v.KPI.HasValue || v.KPI.Value != 42.0 || v.KPI.Label != "Revenue" {
		t.Errorf("unexpected kpi: %+v", v.KPI)
	}
}

func TestRender_KPI_Empty(t *testing.T) {
	v := Render(models.ChartKPI, models.RowsDataset(), FieldMapping{}, nil, nil)
	if v == nil || v.KPI == nil {
		t.Fatal("expected kpi visual")
	}
	if v.KPI.HasValue {
		t.Error("expected HasValue=false on empty data")
	}
	if v.KPI.Label != "KPI" {
		t.Errorf("expected default label, got %q", v.KPI.Label)
	}
}

func TestRender_KPI_CustomField(t *testing.T) {
	data := models.RowsDataset(models.NewRow("total", 7.0))
	v := Render(models.ChartKPI, data, FieldMapping{YField: "total"}, nil, nil)
	if !v.KPI.HasValue || v.KPI.Value != 7.0 {
		t.Errorf("unexpected kpi: %+v", v.KPI)
	}
}

// --- Table tests ---

func TestRender_Table_ColumnOrder(t *testing.T) {
	data := models.RowsDataset(
		models.NewRow("zeta", 1.0, "alpha", "a"),
		models.NewRow("zeta", 2.0, "alpha", "b"),
	)
	v := Render(models.ChartTable, data, FieldMapping{}, nil, nil)
	if v == nil {
		t.Fatal("expected table visual")
	}
	if !reflect.DeepEqual(v.Table.Columns, []string{"zeta", "alpha"}) {
		t.Errorf("unexpected columns: %v", v.Table.Columns)
	}
	if !reflect.DeepEqual(v.Table.Rows[1], []any{2.0, "b"}) {
		t.Errorf("unexpected row: %v", v.Table.Rows[1])
	}
}

func TestRender_Table_EmptyOrObject(t *testing.T) {
	if v := Render(models.ChartTable, models.RowsDataset(), FieldMapping{}, nil, nil); v != nil {
		t.Error("expected nil for empty table")
	}
	obj := models.ObjectDataset(models.NewRow("a", 1.0))
	if v := Render(models.ChartTable, obj, FieldMapping{}, nil, nil); v != nil {
		t.Error("expected nil for object payload")
	}
}

// --- Series tests ---

func TestRender_Line_OneSeriesPerField(t *testing.T) {
	m := FieldMapping{XField: "month", Series: []string{"sales", "revenue"}}
	v := Render(models.ChartLine, salesRows(), m, DefaultPalette, nil)
	if v == nil || len(v.Series) != 2 {
		t.Fatalf("expected 2 series, got %+v", v)
	}
	if v.Series[0].Color != DefaultPalette[0] || v.Series[1].Color != DefaultPalette[1] {
		t.Errorf("unexpected colours: %s %s", v.Series[0].Color, v.Series[1].Color)
	}
	if v.Series[1].Points[1] != (Point{X: "feb", Y: 130.0}) {
		t.Errorf("unexpected point: %+v", v.Series[1].Points[1])
	}
	if v.Series[0].Mark != MarkLine {
		t.Errorf("expected line mark, got %s", v.Series[0].Mark)
	}
}

func TestRender_PaletteWraps(t *testing.T) {
	series := []string{"a", "b", "c"}
	v := Render(models.ChartBar, salesRows(), FieldMapping{Series: series}, Palette{"#111", "#222"}, nil)
	if v.Series[2].Color != "#111" {
		t.Errorf("expected palette to wrap, got %s", v.Series[2].Color)
	}
}

func TestRender_Bar_DefaultXField(t *testing.T) {
	v := Render(models.ChartBar, salesRows(), FieldMapping{Series: []string{"sales"}}, nil, nil)
	if v.Axes.X.Field != "name" {
		t.Errorf("expected default x field name, got %q", v.Axes.X.Field)
	}
}

func TestRender_Radar_Polar(t *testing.T) {
	v := Render(models.ChartRadar, salesRows(), FieldMapping{XField: "month", Series: []string{"sales"}}, nil, nil)
	if v.Axes.Orientation != Polar || v.Series[0].Mark != MarkRadar {
		t.Errorf("unexpected radar visual: %+v", v.Axes)
	}
}

func TestRender_Series_ObjectPayload(t *testing.T) {
	obj := models.ObjectDataset(models.NewRow("a", 1.0))
	if v := Render(models.ChartArea, obj, FieldMapping{Series: []string{"a"}}, nil, nil); v != nil {
		t.Error("expected nil for non-sequence payload")
	}
}

// --- Pie / scatter / boxplot tests ---

func TestRender_Pie(t *testing.T) {
	data := models.RowsDataset(
		models.NewRow("name", "north", "value", 3.0),
		models.NewRow("name", "south", "value", 5.0),
	)
	v := Render(models.ChartPie, data, FieldMapping{}, DefaultPalette, nil)
	if len(v.Slices) != 2 || v.Slices[1].Label != "south" || v.Slices[1].Color != DefaultPalette[1] {
		t.Errorf("unexpected slices: %+v", v.Slices)
	}
	if v.Legend[0].Label != "north" {
		t.Errorf("unexpected legend: %+v", v.Legend)
	}
}

func TestRender_Scatter(t *testing.T) {
	data := models.RowsDataset(models.NewRow("h", 1.7, "w", 70.0))
	v := Render(models.ChartScatter, data, FieldMapping{XField: "h", YField: "w"}, DefaultPalette, nil)
	if len(v.Markers) != 1 || v.Markers[0].X != 1.7 || v.Markers[0].Color != DefaultPalette[0] {
		t.Errorf("unexpected markers: %+v", v.Markers)
	}
	if v.Axes.X.Label != "h" || v.Axes.Y.Label != "w" {
		t.Errorf("unexpected axes: %+v", v.Axes)
	}
}

func TestRender_Boxplot_IQR(t *testing.T) {
	data := models.RowsDataset(models.NewRow("name", "a", "q1", 2.0, "q3", 5.5))
	v := Render(models.ChartBoxplot, data, FieldMapping{}, nil, nil)
	if v.Boxes[0].IQR != 3.5 {
		t.Errorf("expected iqr 3.5, got %v", v.Boxes[0].IQR)
	}
}

// --- Statistical chart tests ---

func TestRender_FeatureImportance(t *testing.T) {
	data := models.RowsDataset(models.NewRow("feature", "age", "importance", 0.4))
	v := Render(models.ChartFeatureImportance, data, FieldMapping{}, DefaultPalette, nil)
	if v.Axes.Orientation != Horizontal {
		t.Errorf("expected horizontal bars, got %s", v.Axes.Orientation)
	}
	if v.Bars[0].Color != DefaultPalette[3] || v.Bars[0].Label != "age" {
		t.Errorf("unexpected bar: %+v", v.Bars[0])
	}
}

func TestRender_ConfusionMatrix(t *testing.T) {
	obj := models.NewRow(
		"matrix", []any{[]any{5.0, 1.0}, []any{2.0, 4.0}},
		"labels", []any{"cat", "dog"},
	)
	v := Render(models.ChartConfusionMatrix, models.ObjectDataset(obj), FieldMapping{}, nil, nil)
	if v == nil || v.Matrix == nil {
		t.Fatal("expected matrix visual")
	}
	want := [][]Cell{
		{{Value: 5, Highlight: true}, {Value: 1}},
		{{Value: 2}, {Value: 4, Highlight: true}},
	}
	if !reflect.DeepEqual(v.Matrix.Cells, want) {
		t.Errorf("unexpected cells: %+v", v.Matrix.Cells)
	}
	if v.Title != "Confusion Matrix" {
		t.Errorf("unexpected title %q", v.Title)
	}
}

func TestRender_ConfusionMatrix_SizeMismatch(t *testing.T) {
	obj := models.NewRow(
		"matrix", []any{[]any{5.0, 1.0}, []any{2.0}},
		"labels", []any{"cat", "dog"},
	)
	if v := Render(models.ChartConfusionMatrix, models.ObjectDataset(obj), FieldMapping{}, nil, nil); v != nil {
		t.Error("expected nil for ragged matrix")
	}
	obj = models.NewRow("matrix", []any{[]any{1.0}}, "labels", []any{"a", "b"})
	if v := Render(models.ChartConfusionMatrix, models.ObjectDataset(obj), FieldMapping{}, nil, nil); v != nil {
		t.Error("expected nil for label count mismatch")
	}
}

func TestRender_ROC(t *testing.T) {
	obj := models.NewRow(
		"points", []any{
			map[string]any{"fpr": 0.0, "tpr": 0.0},
			map[string]any{"fpr": 1.0, "tpr": 1.0},
		},
		"auc", 0.87654,
	)
	v := Render(models.ChartROCCurve, models.ObjectDataset(obj), FieldMapping{}, DefaultPalette, nil)
	if v.Legend[0].Label != "AUC = 0.8765" {
		t.Errorf("unexpected legend %q", v.Legend[0].Label)
	}
	if len(v.Series) != 1 || len(v.Series[0].Points) != 2 {
		t.Errorf("unexpected series: %+v", v.Series)
	}
	if v.Axes.X.Label != "False Positive Rate" {
		t.Errorf("unexpected x label %q", v.Axes.X.Label)
	}
}

func TestRender_ROC_NoAUC(t *testing.T) {
	obj := models.NewRow("points", []any{})
	v := Render(models.ChartROCCurve, models.ObjectDataset(obj), FieldMapping{}, nil, nil)
	if v.Legend[0].Label != "AUC = n/a" {
		t.Errorf("unexpected legend %q", v.Legend[0].Label)
	}
}

func TestRender_Heatmap_SizeScaling(t *testing.T) {
	data := models.RowsDataset(
		models.NewRow("x", "a", "y", "p", "value", 0.0),
		models.NewRow("x", "b", "y", "p", "value", 5.0),
		models.NewRow("x", "c", "y", "p", "value", 10.0),
	)
	v := Render(models.ChartHeatmap, data, FieldMapping{}, DefaultPalette, map[string]any{"reversedY": true})
	sizes := []float64{v.Markers[0].Size, v.Markers[1].Size, v.Markers[2].Size}
	if !reflect.DeepEqual(sizes, []float64{100, 550, 1000}) {
		t.Errorf("unexpected sizes: %v", sizes)
	}
	if v.Markers[0].Color != DefaultPalette[1] || v.Markers[0].Shape != ShapeSquare {
		t.Errorf("unexpected marker: %+v", v.Markers[0])
	}
	if v.Axes.X.Reversed || !v.Axes.Y.Reversed {
		t.Errorf("unexpected axis reversal: %+v", v.Axes)
	}
}

func TestRender_Heatmap_FlatValues(t *testing.T) {
	data := models.RowsDataset(
		models.NewRow("x", "a", "y", "p", "value", 3.0),
		models.NewRow("x", "b", "y", "p", "value", 3.0),
	)
	v := Render(models.ChartHeatmap, data, FieldMapping{}, nil, nil)
	for _, m := range v.Markers {
		if m.Size != 1000 {
			t.Errorf("expected size 1000 for flat values, got %v", m.Size)
		}
	}
}
