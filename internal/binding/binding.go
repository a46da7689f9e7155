// Package binding keeps each widget's data in step with the filter state.
//
// Every binding numbers its fetches. A response is applied only when its
// number is still the binding's latest, so a slow response for an old
// filter selection can never overwrite a newer one, whatever order the
// transport delivers them in.
package binding

import (
	"context"
	"log/slog"
	"sync"

	"github.com/GregMSThompson/analytics-dashboard/internal/filters"
	"github.com/GregMSThompson/analytics-dashboard/internal/models"
)

type Status string

const (
	StatusLoading Status = "loading"
	StatusReady   Status = "ready"
	StatusError   Status = "error"
)

// Result is the observable state of one binding.
type Result struct {
	Data        models.Dataset `json:"data"`
	Status      Status         `json:"status"`
	ErrorDetail string         `json:"errorDetail,omitempty"`
	Err         error          `json:"-"`
}

// Fetcher loads one widget's data for a filter selection.
type Fetcher interface {
	Fetch(ctx context.Context, widgetID string, f filters.State) (models.Dataset, error)
}

type FetchFunc func(ctx context.Context, widgetID string, f filters.State) (models.Dataset, error)

func (fn FetchFunc) Fetch(ctx context.Context, widgetID string, f filters.State) (models.Dataset, error) {
	return fn(ctx, widgetID, f)
}

type Engine struct {
	ctx     context.Context
	cancel  context.CancelFunc
	fetcher Fetcher
	log     *slog.Logger

	mu       sync.Mutex
	bindings map[string]*Binding
	inflight sync.WaitGroup
}

func NewEngine(ctx context.Context, fetcher Fetcher, log *slog.Logger) *Engine {
	ctx, cancel := context.WithCancel(ctx)
	return &Engine{
		ctx:      ctx,
		cancel:   cancel,
		fetcher:  fetcher,
		log:      log,
		bindings: make(map[string]*Binding),
	}
}

// Bind returns the widget's binding, creating it on first use. A fetch
// starts when the binding is new or the canonical filter key changed.
func (e *Engine) Bind(widgetID string, f filters.State) *Binding {
	e.mu.Lock()
	b, ok := e.bindings[widgetID]
	if !ok {
		b = &Binding{engine: e, widgetID: widgetID, subs: make(map[int]func(Result))}
		e.bindings[widgetID] = b
	}
	e.mu.Unlock()

	b.update(f, !ok)
	return b
}

// Unbind closes the widget's binding. Responses still in flight are
// dropped when they arrive.
func (e *Engine) Unbind(widgetID string) {
	e.mu.Lock()
	b, ok := e.bindings[widgetID]
	delete(e.bindings, widgetID)
	e.mu.Unlock()
	if ok {
		b.close()
	}
}

func (e *Engine) Binding(widgetID string) (*Binding, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	b, ok := e.bindings[widgetID]
	return b, ok
}

// WidgetIDs lists the bound widgets in no particular order.
func (e *Engine) WidgetIDs() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	ids := make([]string, 0, len(e.bindings))
	for id := range e.bindings {
		ids = append(ids, id)
	}
	return ids
}

// Wait blocks until every started fetch has been applied or discarded.
func (e *Engine) Wait() {
	e.inflight.Wait()
}

// Close unbinds everything and cancels the context handed to fetchers.
func (e *Engine) Close() {
	e.mu.Lock()
	all := e.bindings
	e.bindings = make(map[string]*Binding)
	e.mu.Unlock()
	for _, b := range all {
		b.close()
	}
	e.cancel()
}

type Binding struct {
	engine   *Engine
	widgetID string

	mu     sync.Mutex
	seq    uint64
	key    string
	state  filters.State
	result Result
	closed bool
	subs   map[int]func(Result)
	nextID int
}

func (b *Binding) WidgetID() string { return b.widgetID }

func (b *Binding) Result() Result {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.result
}

// Key is the canonical filter key of the latest fetch.
func (b *Binding) Key() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.key
}

// Subscribe registers fn for every result change. Callbacks run outside
// the binding's lock, on the goroutine that produced the change, so two
// changes can reach fn out of order: a superseded fetch's ready result may
// arrive after the loading result of its replacement. Treat a callback as
// a signal and re-read Result for the current state.
func (b *Binding) Subscribe(fn func(Result)) (unsubscribe func()) {
	b.mu.Lock()
	id := b.nextID
	b.nextID++
	b.subs[id] = fn
	b.mu.Unlock()
	return func() {
		b.mu.Lock()
		delete(b.subs, id)
		b.mu.Unlock()
	}
}

// Refresh re-fetches with the current filter selection.
func (b *Binding) Refresh() {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return
	}
	f := b.state
	seq, r, fns := b.start(f)
	b.mu.Unlock()
	notify(fns, r)
	go b.run(seq, f)
}

func (b *Binding) update(f filters.State, first bool) {
	key := f.Key()
	b.mu.Lock()
	if b.closed || (!first && key == b.key) {
		b.mu.Unlock()
		return
	}
	seq, r, fns := b.start(f)
	b.mu.Unlock()
	notify(fns, r)
	go b.run(seq, f)
}

// start moves the binding to loading under a new sequence number. The
// caller holds b.mu and launches run once the loading state is announced.
func (b *Binding) start(f filters.State) (uint64, Result, []func(Result)) {
	b.seq++
	b.state = f
	b.key = f.Key()
	b.result = Result{Status: StatusLoading}
	b.engine.inflight.Add(1)
	return b.seq, b.result, b.subscribers()
}

func (b *Binding) run(seq uint64, f filters.State) {
	defer b.engine.inflight.Done()
	data, err := b.engine.fetcher.Fetch(b.engine.ctx, b.widgetID, f)

	b.mu.Lock()
	if b.closed || seq != b.seq {
		b.mu.Unlock()
		b.engine.log.Debug("discarding stale widget data", "widget_id", b.widgetID, "seq", seq)
		return
	}
	if err != nil {
		b.result = Result{Status: StatusError, ErrorDetail: err.Error(), Err: err}
	} else {
		b.result = Result{Status: StatusReady, Data: data}
	}
	r, fns := b.result, b.subscribers()
	b.mu.Unlock()

	if err != nil {
		b.engine.log.Warn("widget data fetch failed", "widget_id", b.widgetID, "error", err)
	}
	notify(fns, r)
}

func (b *Binding) close() {
	b.mu.Lock()
	b.closed = true
	b.seq++
	b.subs = make(map[int]func(Result))
	b.mu.Unlock()
}

func (b *Binding) subscribers() []func(Result) {
	fns := make([]func(Result), 0, len(b.subs))
	for _, fn := range b.subs {
		fns = append(fns, fn)
	}
	return fns
}

func notify(fns []func(Result), r Result) {
	for _, fn := range fns {
		fn(r)
	}
}
