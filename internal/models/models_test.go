package models

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/GregMSThompson/analytics-dashboard/internal/errs"
)

// --- Row / Dataset tests ---

func TestParseDataset_PreservesColumnOrder(t *testing.T) {
	ds, err := ParseDataset([]byte(`[{"zeta":1,"alpha":"a","mid":null},{"zeta":2,"alpha":"b","mid":true}]`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !ds.IsSequence() || ds.Len() != 2 {
		t.Fatalf("expected 2 rows, got %+v", ds)
	}
	keys := ds.Rows[0].Keys()
	if len(keys) != 3 || keys[0] != "zeta" || keys[1] != "alpha" || keys[2] != "mid" {
		t.Fatalf("unexpected key order %v", keys)
	}
	out, err := json.Marshal(ds)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(out) != `[{"zeta":1,"alpha":"a","mid":null},{"zeta":2,"alpha":"b","mid":true}]` {
		t.Fatalf("unexpected encoding %s", out)
	}
}

func TestParseDataset_Object(t *testing.T) {
	ds, err := ParseDataset([]byte(`{"matrix":[[1,0],[0,1]],"labels":["a","b"]}`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ds.IsSequence() {
		t.Fatal("expected object payload")
	}
	if _, ok := ds.Object.Get("matrix"); !ok {
		t.Fatal("expected matrix key")
	}
}

func TestParseDataset_Invalid(t *testing.T) {
	for _, raw := range []string{`[1,2]`, `{"a":`, `"text"`} {
		if _, err := ParseDataset([]byte(raw)); err == nil {
			t.Fatalf("%s: expected error", raw)
		}
	}
}

// --- Dashboard tests ---

func TestDashboardValidate(t *testing.T) {
	rect := LayoutRect{Width: 2, Height: 2}
	cases := []struct {
		name    string
		d       Dashboard
		wantErr bool
	}{
		{"ok", Dashboard{Layout: []Widget{{ID: "a", LayoutRect: rect}, {ID: "b", LayoutRect: rect}}}, false},
		{"duplicate id", Dashboard{Layout: []Widget{{ID: "a", LayoutRect: rect}, {ID: "a", LayoutRect: rect}}}, true},
		{"missing id", Dashboard{Layout: []Widget{{LayoutRect: rect}}}, true},
		{"bad rect", Dashboard{Layout: []Widget{{ID: "a", LayoutRect: LayoutRect{X: -1, Width: 1, Height: 1}}}}, true},
		{"duplicate filter", Dashboard{GlobalFilters: GlobalFilters{{Name: "r"}, {Name: "r"}}}, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.d.Validate()
			if tc.wantErr {
				var ve *errs.ValidationError
				if !errors.As(err, &ve) {
					t.Fatalf("expected ValidationError, got %T", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
}

func TestNextY_IgnoresAppending(t *testing.T) {
	d := Dashboard{Layout: []Widget{
		{ID: "a", LayoutRect: LayoutRect{Y: 0, Width: 6, Height: 4}},
		{ID: "b", LayoutRect: LayoutRect{Y: 4, Width: 6, Height: 3}},
		{ID: "c", LayoutRect: LayoutRect{Y: AppendY, Width: 6, Height: 3}},
	}}
	if got := d.NextY(); got != 7 {
		t.Fatalf("expected 7, got %d", got)
	}
	if got := (&Dashboard{}).NextY(); got != 0 {
		t.Fatalf("expected 0 for empty dashboard, got %d", got)
	}
}

func TestGlobalFilters_KeepDeclarationOrder(t *testing.T) {
	var d Dashboard
	if err := json.Unmarshal([]byte(`{"id":"x","title":"X","globalFilters":{"year":["2024"],"region":["EU","US"]},"layout":[]}`), &d); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	names := d.GlobalFilters.Names()
	if len(names) != 2 || names[0] != "year" || names[1] != "region" {
		t.Fatalf("unexpected order %v", names)
	}
	out, err := json.Marshal(d.GlobalFilters)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(out) != `{"year":["2024"],"region":["EU","US"]}` {
		t.Fatalf("unexpected encoding %s", out)
	}
}

func TestGlobalFilters_RejectsDuplicates(t *testing.T) {
	var g GlobalFilters
	if err := json.Unmarshal([]byte(`{"a":[],"a":["x"]}`), &g); err == nil {
		t.Fatal("expected duplicate filter error")
	}
}

// --- ChartKind tests ---

func TestChartKinds(t *testing.T) {
	if len(ChartKinds) != 14 {
		t.Fatalf("expected 14 chart kinds, got %d", len(ChartKinds))
	}
	if !ChartHeatmap.Known() || ChartKind("sankey").Known() {
		t.Fatal("unexpected Known result")
	}
	if !ChartHistogram.MultiSeries() || ChartPie.MultiSeries() {
		t.Fatal("unexpected MultiSeries result")
	}
}
