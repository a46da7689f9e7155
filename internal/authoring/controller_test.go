package authoring

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/GregMSThompson/analytics-dashboard/internal/dto"
	"github.com/GregMSThompson/analytics-dashboard/internal/errs"
	"github.com/GregMSThompson/analytics-dashboard/internal/models"
	"github.com/GregMSThompson/analytics-dashboard/pkg/helpers"
	"github.com/GregMSThompson/analytics-dashboard/pkg/logger"
)

// --- Fakes ---

type stubAPI struct {
	saveCalls   int
	deleteCalls int
	lastDraft   dto.WidgetDraft
	lastDelete  string
	saveErr     error
	deleteErr   error
}

func (s *stubAPI) SaveWidget(_ context.Context, _ string, draft dto.WidgetDraft) (*models.Widget, error) {
	s.saveCalls++
	s.lastDraft = draft
	if s.saveErr != nil {
		return nil, s.saveErr
	}
	return &models.Widget{ID: "new", Title: draft.Title, Type: draft.Type, Config: draft.Config}, nil
}

func (s *stubAPI) DeleteWidget(_ context.Context, widgetID string) error {
	s.deleteCalls++
	s.lastDelete = widgetID
	return s.deleteErr
}

type stubReload struct {
	calls int
	err   error
}

func (s *stubReload) reload(context.Context) error {
	s.calls++
	return s.err
}

func newController(api *stubAPI, rl *stubReload) *Controller {
	return NewController(api, "dash-1", rl.reload, logger.NewTestLogger())
}

func fillValid(d *Draft) {
	d.Title = "Revenue"
	d.Config.Path = "sales.csv"
	d.Config.Source = "local"
	d.SeriesText = "sales, , revenue,"
}

// --- ParseSeries tests ---

func TestParseSeries(t *testing.T) {
	got := ParseSeries("sales, , revenue,")
	if !reflect.DeepEqual(got, []string{"sales", "revenue"}) {
		t.Errorf("unexpected series %v", got)
	}
	if got := ParseSeries("  "); got != nil {
		t.Errorf("expected nil for blank text, got %v", got)
	}
}

// --- Open tests ---

func TestOpenCreate_Defaults(t *testing.T) {
	c := newController(&stubAPI{}, &stubReload{})
	c.OpenCreate()
	if c.State() != StateOpen {
		t.Fatalf("expected open, got %s", c.State())
	}
	d := c.Draft()
	if d.Type != models.ChartBar {
		t.Errorf("expected bar default, got %s", d.Type)
	}
	want := models.LayoutRect{X: 0, Y: models.AppendY, Width: 6, Height: 4}
	if d.LayoutRect != want {
		t.Errorf("unexpected layout %+v", d.LayoutRect)
	}
}

func TestOpenEdit_JoinsSeries(t *testing.T) {
	c := newController(&stubAPI{}, &stubReload{})
	c.OpenEdit(models.Widget{ID: "w1", Title: "T", Type: models.ChartLine,
		Config: models.WidgetConfig{Series: []string{"a", "b"}}})
	d := c.Draft()
	if d.ID != "w1" || d.SeriesText != "a, b" {
		t.Errorf("unexpected draft %+v", d)
	}
}

func TestEdit_RequiresOpen(t *testing.T) {
	c := newController(&stubAPI{}, &stubReload{})
	if err := c.Edit(fillValid); !errors.Is(err, ErrNotOpen) {
		t.Errorf("expected ErrNotOpen, got %v", err)
	}
}

// --- Save tests ---

func TestSave_Success(t *testing.T) {
	api := &stubAPI{}
	rl := &stubReload{}
	c := newController(api, rl)
	c.OpenCreate()
	c.Edit(fillValid)

	w, err := c.Save(helpers.TestCtx())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if w.ID != "new" {
		t.Errorf("unexpected widget %+v", w)
	}
	if !reflect.DeepEqual(api.lastDraft.Config.Series, []string{"sales", "revenue"}) {
		t.Errorf("unexpected series %v", api.lastDraft.Config.Series)
	}
	if rl.calls != 1 {
		t.Errorf("expected 1 reload, got %d", rl.calls)
	}
	if c.State() != StateClosed {
		t.Errorf("expected closed, got %s", c.State())
	}
}

func TestSave_EmptyTitleMakesNoCall(t *testing.T) {
	api := &stubAPI{}
	c := newController(api, &stubReload{})
	c.OpenCreate()
	c.Edit(func(d *Draft) {
		fillValid(d)
		d.Title = "  "
	})

	_, err := c.Save(helpers.TestCtx())
	var ve *errs.ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("expected ValidationError, got %T: %v", err, err)
	}
	if api.saveCalls != 0 {
		t.Errorf("expected no save call, got %d", api.saveCalls)
	}
	if c.State() != StateOpen {
		t.Errorf("expected draft to stay open, got %s", c.State())
	}
}

func TestSave_MissingPath(t *testing.T) {
	api := &stubAPI{}
	c := newController(api, &stubReload{})
	c.OpenCreate()
	c.Edit(func(d *Draft) {
		fillValid(d)
		d.Config.Path = ""
	})
	_, err := c.Save(helpers.TestCtx())
	var ve *errs.ValidationError
	if !errors.As(err, &ve) || api.saveCalls != 0 {
		t.Fatalf("expected ValidationError without save, got %v (%d calls)", err, api.saveCalls)
	}
}

func TestSave_MultiSeriesNeedsSeries(t *testing.T) {
	api := &stubAPI{}
	c := newController(api, &stubReload{})
	c.OpenCreate()
	c.Edit(func(d *Draft) {
		fillValid(d)
		d.SeriesText = " , "
	})
	_, err := c.Save(helpers.TestCtx())
	var ve *errs.ValidationError
	if !errors.As(err, &ve) || api.saveCalls != 0 {
		t.Fatalf("expected ValidationError without save, got %v (%d calls)", err, api.saveCalls)
	}
}

func TestSave_UnknownType(t *testing.T) {
	api := &stubAPI{}
	c := newController(api, &stubReload{})
	c.OpenCreate()
	c.Edit(func(d *Draft) {
		fillValid(d)
		d.Type = "sankey"
	})
	_, err := c.Save(helpers.TestCtx())
	var ve *errs.ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("expected ValidationError, got %T: %v", err, err)
	}
}

func TestSave_TransportFailureReopens(t *testing.T) {
	api := &stubAPI{saveErr: errs.NewNetworkError("dashboard-api", errors.New("refused"))}
	rl := &stubReload{}
	c := newController(api, rl)
	c.OpenCreate()
	c.Edit(fillValid)

	if _, err := c.Save(helpers.TestCtx()); err == nil {
		t.Fatal("expected error")
	}
	if c.State() != StateOpen {
		t.Errorf("expected open after failure, got %s", c.State())
	}
	if c.Draft().Title != "Revenue" {
		t.Errorf("expected draft preserved, got %+v", c.Draft())
	}
	if rl.calls != 0 {
		t.Errorf("expected no reload, got %d", rl.calls)
	}
}

func TestSave_NotOpen(t *testing.T) {
	c := newController(&stubAPI{}, &stubReload{})
	if _, err := c.Save(helpers.TestCtx()); !errors.Is(err, ErrNotOpen) {
		t.Errorf("expected ErrNotOpen, got %v", err)
	}
}

func TestCancel(t *testing.T) {
	c := newController(&stubAPI{}, &stubReload{})
	c.OpenCreate()
	c.Cancel()
	if c.State() != StateClosed {
		t.Errorf("expected closed, got %s", c.State())
	}
}

// --- Delete tests ---

func TestDelete_Reloads(t *testing.T) {
	api := &stubAPI{}
	rl := &stubReload{}
	c := newController(api, rl)
	if err := c.Delete(helpers.TestCtx(), "w1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if api.lastDelete != "w1" || rl.calls != 1 {
		t.Errorf("expected delete of w1 and 1 reload, got %q and %d", api.lastDelete, rl.calls)
	}
}

func TestDelete_NotFound(t *testing.T) {
	api := &stubAPI{deleteErr: errs.NewNotFoundError("widget not found")}
	rl := &stubReload{}
	c := newController(api, rl)
	err := c.Delete(helpers.TestCtx(), "w1")
	var nf *errs.NotFoundError
	if !errors.As(err, &nf) {
		t.Fatalf("expected NotFoundError, got %T: %v", err, err)
	}
	if rl.calls != 0 {
		t.Errorf("expected no reload, got %d", rl.calls)
	}
}
