package dashboardapi

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/GregMSThompson/analytics-dashboard/internal/dto"
	"github.com/GregMSThompson/analytics-dashboard/internal/errs"
	"github.com/GregMSThompson/analytics-dashboard/internal/filters"
	"github.com/GregMSThompson/analytics-dashboard/internal/jobs"
	"github.com/GregMSThompson/analytics-dashboard/internal/models"
	"github.com/GregMSThompson/analytics-dashboard/pkg/helpers"
	"github.com/GregMSThompson/analytics-dashboard/pkg/logger"
)

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return New(srv.URL, srv.Client(), logger.NewTestLogger())
}

func writeData(w http.ResponseWriter, status int, data string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	io.WriteString(w, `{"success":true,"data":`+data+`}`)
}

func writeErr(w http.ResponseWriter, status int, code, msg string) {
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]any{"success": false, "code": code, "message": msg})
}

// --- LoadDashboard tests ---

func TestLoadDashboard(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/dashboards/sales" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		writeData(w, http.StatusOK, `{
			"id":"sales","title":"Sales",
			"globalFilters":{"year":["2023","2024"],"region":["west"]},
			"layout":[{"id":"w1","title":"Revenue","type":"bar","config":{"path":"sales.csv","source":"local","series":["revenue"]},"layoutRect":{"x":0,"y":0,"width":6,"height":4}}]
		}`)
	})

	d, err := c.LoadDashboard(helpers.TestCtx(), "sales")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(d.Layout) != 1 || d.Layout[0].Type != models.ChartBar {
		t.Errorf("unexpected layout: %+v", d.Layout)
	}
	names := d.GlobalFilters.Names()
	if len(names) != 2 || names[0] != "year" || names[1] != "region" {
		t.Errorf("expected filter order preserved, got %v", names)
	}
}

func TestLoadDashboard_NotFound(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeErr(w, http.StatusNotFound, "not_found", "dashboard not found")
	})
	_, err := c.LoadDashboard(helpers.TestCtx(), "missing")
	var nf *errs.NotFoundError
	if !errors.As(err, &nf) {
		t.Fatalf("expected NotFoundError, got %T: %v", err, err)
	}
	if nf.Message != "dashboard not found" {
		t.Errorf("unexpected message %q", nf.Message)
	}
}

func TestLoadDashboard_DuplicateWidgetIDs(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeData(w, http.StatusOK, `{"id":"d","title":"D","globalFilters":{},"layout":[
			{"id":"w1","title":"a","type":"kpi","config":{"path":"p","source":"local"},"layoutRect":{"x":0,"y":0,"width":1,"height":1}},
			{"id":"w1","title":"b","type":"kpi","config":{"path":"p","source":"local"},"layoutRect":{"x":1,"y":0,"width":1,"height":1}}]}`)
	})
	_, err := c.LoadDashboard(helpers.TestCtx(), "d")
	var ve *errs.ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("expected ValidationError, got %T: %v", err, err)
	}
}

func TestLoadDashboard_ServerError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeErr(w, http.StatusServiceUnavailable, "service_unavailable", "down")
	})
	_, err := c.LoadDashboard(helpers.TestCtx(), "d")
	var se *errs.ExternalServiceError
	if !errors.As(err, &se) || !se.Transient {
		t.Fatalf("expected transient ExternalServiceError, got %T: %v", err, err)
	}
}

func TestLoadDashboard_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	srv.Close()
	c := New(srv.URL, nil, logger.NewTestLogger())

	_, err := c.LoadDashboard(helpers.TestCtx(), "d")
	var se *errs.ExternalServiceError
	if !errors.As(err, &se) {
		t.Fatalf("expected network error, got %T: %v", err, err)
	}
}

// --- WidgetData tests ---

func TestWidgetData_FiltersParam(t *testing.T) {
	var gotQuery []string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotQuery = append(gotQuery, r.URL.Query().Get("filters"))
		if _, ok := r.URL.Query()["filters"]; !ok {
			gotQuery[len(gotQuery)-1] = "<absent>"
		}
		writeData(w, http.StatusOK, `{"widgetId":"w1","data":[{"b":1,"a":2}],"rowCount":1}`)
	})

	ctx := helpers.TestCtx()
	if _, err := c.WidgetData(ctx, "d", "w1", filters.State{"region": filters.All}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	data, err := c.WidgetData(ctx, "d", "w1", filters.State{"region": "west"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if gotQuery[0] != "<absent>" {
		t.Errorf("expected no filters param, got %q", gotQuery[0])
	}
	if gotQuery[1] != `{"region":"west"}` {
		t.Errorf("unexpected filters param %q", gotQuery[1])
	}
	if keys := data.Rows[0].Keys(); keys[0] != "b" || keys[1] != "a" {
		t.Errorf("expected column order preserved, got %v", keys)
	}
}

// --- SaveWidget / DeleteWidget tests ---

func TestSaveWidget(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/dashboards/d/widgets" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		var draft dto.WidgetDraft
		if err := json.NewDecoder(r.Body).Decode(&draft); err != nil {
			t.Fatalf("decode draft: %v", err)
		}
		if draft.Title != "Revenue" || draft.LayoutRect.Y != models.AppendY {
			t.Errorf("unexpected draft %+v", draft)
		}
		writeData(w, http.StatusCreated, `{"id":"new-id","title":"Revenue","type":"bar","config":{"path":"p","source":"local"},"layoutRect":{"x":0,"y":8,"width":6,"height":4}}`)
	})

	w, err := c.SaveWidget(helpers.TestCtx(), "d", dto.WidgetDraft{
		Title:      "Revenue",
		Type:       models.ChartBar,
		LayoutRect: models.LayoutRect{Y: models.AppendY, Width: 6, Height: 4},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if w.ID != "new-id" || w.LayoutRect.Y != 8 {
		t.Errorf("unexpected widget %+v", w)
	}
}

func TestSaveWidget_Validation(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeErr(w, http.StatusUnprocessableEntity, "invalid_input", "title is required")
	})
	_, err := c.SaveWidget(helpers.TestCtx(), "d", dto.WidgetDraft{})
	var ve *errs.ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("expected ValidationError, got %T: %v", err, err)
	}
}

func TestDeleteWidget_NotFound(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodDelete || r.URL.Path != "/widgets/w9" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		writeErr(w, http.StatusNotFound, "not_found", "widget not found")
	})
	err := c.DeleteWidget(helpers.TestCtx(), "w9")
	var nf *errs.NotFoundError
	if !errors.As(err, &nf) {
		t.Fatalf("expected NotFoundError, got %T: %v", err, err)
	}
}

func TestExportURL(t *testing.T) {
	c := New("http://api.local/", nil, logger.NewTestLogger())
	if got := c.ExportURL("w1", "csv"); got != "http://api.local/widgets/w1/export?format=csv" {
		t.Errorf("unexpected url %q", got)
	}
}

func TestImportDashboard(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPut || r.URL.Path != "/dashboards/ops" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		body, _ := io.ReadAll(r.Body)
		var d models.Dashboard
		if err := json.Unmarshal(body, &d); err != nil {
			t.Errorf("bad body: %v", err)
		}
		if !d.GlobalFilters.Has("region") {
			t.Errorf("expected filters in body, got %s", body)
		}
		writeData(w, http.StatusOK, `{"id":"ops","title":"Ops","globalFilters":{"region":["EU"]},"layout":[]}`)
	})

	d := &models.Dashboard{ID: "ops", Title: "Ops", GlobalFilters: models.GlobalFilters{{Name: "region", Options: []string{"EU"}}}}
	got, err := c.ImportDashboard(helpers.TestCtx(), d)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.ID != "ops" {
		t.Errorf("unexpected dashboard %+v", got)
	}
}

// --- Job tests ---

func TestJobStatusAndResults(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/jobs/j1/status":
			writeData(w, http.StatusOK, `{"job_id":"j1","status":"completed"}`)
		case "/jobs/j1/results":
			writeData(w, http.StatusOK, `{"auc":0.9}`)
		default:
			writeErr(w, http.StatusNotFound, "not_found", "no route")
		}
	})

	ctx := helpers.TestCtx()
	st, err := c.JobStatus(ctx, "j1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if st.Status != jobs.StateCompleted {
		t.Errorf("unexpected status %s", st.Status)
	}
	res, err := c.JobResults(ctx, "j1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(res) != `{"auc":0.9}` {
		t.Errorf("unexpected results %s", res)
	}
}
