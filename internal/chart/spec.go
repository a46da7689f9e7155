package chart

import (
	"fmt"

	"github.com/GregMSThompson/analytics-dashboard/internal/errs"
	"github.com/GregMSThompson/analytics-dashboard/internal/models"
)

// Spec is a validated widget configuration for one chart kind. The
// concrete variants carry only the fields their kind reads.
type Spec interface {
	Kind() models.ChartKind
	Mapping() FieldMapping
	Extra() map[string]any
	isSpec()
}

type base struct {
	kind  models.ChartKind
	extra map[string]any
}

func (b base) Kind() models.ChartKind { return b.kind }
func (b base) Extra() map[string]any  { return b.extra }
func (base) isSpec()                  {}

// SeriesSpec covers line, bar, area, radar and histogram charts.
type SeriesSpec struct {
	base
	XField string
	Series []string
}

func (s SeriesSpec) Mapping() FieldMapping {
	return FieldMapping{XField: s.XField, Series: s.Series}
}

type PieSpec struct {
	base
	NameField  string
	ValueField string
}

func (s PieSpec) Mapping() FieldMapping {
	return FieldMapping{XField: s.NameField, YField: s.ValueField}
}

type ScatterSpec struct {
	base
	XField string
	YField string
}

func (s ScatterSpec) Mapping() FieldMapping {
	return FieldMapping{XField: s.XField, YField: s.YField}
}

type KPISpec struct {
	base
	YField string
	Label  string
}

func (s KPISpec) Mapping() FieldMapping { return FieldMapping{YField: s.YField} }

// FixedSpec covers the kinds whose field names are fixed by their payload:
// table, feature_importance, confusion_matrix, roc_curve and boxplot.
type FixedSpec struct {
	base
}

func (FixedSpec) Mapping() FieldMapping { return FieldMapping{} }

type HeatmapSpec struct {
	base
	ReversedX bool
	ReversedY bool
}

func (HeatmapSpec) Mapping() FieldMapping { return FieldMapping{} }

// NewSpec validates cfg against kind and returns the matching variant.
func NewSpec(kind models.ChartKind, cfg models.WidgetConfig) (Spec, error) {
	if !kind.Known() {
		return nil, errs.NewUnknownChartTypeError(string(kind))
	}
	series := compact(cfg.Series)
	if kind.MultiSeries() && len(series) == 0 {
		return nil, errs.NewValidationError(fmt.Sprintf("%s chart needs at least one series", kind))
	}
	if !kind.MultiSeries() && len(series) > 0 {
		return nil, errs.NewValidationError(fmt.Sprintf("%s chart does not take series", kind))
	}

	b := base{kind: kind, extra: cfg.Options}
	switch kind {
	case models.ChartLine, models.ChartBar, models.ChartArea, models.ChartRadar, models.ChartHistogram:
		return SeriesSpec{base: b, XField: cfg.XField, Series: series}, nil
	case models.ChartPie:
		return PieSpec{base: b, NameField: cfg.XField, ValueField: cfg.YField}, nil
	case models.ChartScatter:
		if cfg.XField == "" || cfg.YField == "" {
			return nil, errs.NewValidationError("scatter chart needs xField and yField")
		}
		return ScatterSpec{base: b, XField: cfg.XField, YField: cfg.YField}, nil
	case models.ChartKPI:
		return KPISpec{base: b, YField: cfg.YField, Label: stringOption(cfg.Options, "label", "KPI")}, nil
	case models.ChartHeatmap:
		return HeatmapSpec{
			base:      b,
			ReversedX: boolOption(cfg.Options, "reversedX"),
			ReversedY: boolOption(cfg.Options, "reversedY"),
		}, nil
	}
	return FixedSpec{base: b}, nil
}

func compact(in []string) []string {
	var out []string
	for _, s := range in {
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}
