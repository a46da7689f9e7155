package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/GregMSThompson/analytics-dashboard/pkg/logger"
)

// --- Fakes ---

type stubAPI struct {
	mu          sync.Mutex
	states      []State
	statusErr   error
	resultsErr  error
	statusCalls int
	resultCalls int
}

func (s *stubAPI) JobStatus(_ context.Context, jobID string) (Status, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.statusErr != nil {
		return Status{}, s.statusErr
	}
	i := s.statusCalls
	if i >= len(s.states) {
		i = len(s.states) - 1
	}
	s.statusCalls++
	return Status{JobID: jobID, Status: s.states[i]}, nil
}

func (s *stubAPI) JobResults(_ context.Context, _ string) (json.RawMessage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.resultCalls++
	if s.resultsErr != nil {
		return nil, s.resultsErr
	}
	return json.RawMessage(`{"accuracy":0.9}`), nil
}

func TestRun_StopsOnCompleted(t *testing.T) {
	api := &stubAPI{states: []State{StateQueued, StateRunning, StateCompleted}}
	p := NewPoller(api, time.Millisecond, logger.NewTestLogger())

	out, err := p.Run(context.Background(), "job-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.Status.Status != StateCompleted {
		t.Errorf("expected completed, got %s", out.Status.Status)
	}
	if string(out.Results) != `{"accuracy":0.9}` {
		t.Errorf("unexpected results %s", out.Results)
	}
	if api.statusCalls != 3 || api.resultCalls != 1 {
		t.Errorf("expected 3 status calls and 1 results call, got %d and %d", api.statusCalls, api.resultCalls)
	}
}

func TestRun_FailedStillFetchesResults(t *testing.T) {
	api := &stubAPI{states: []State{StateFailed}}
	p := NewPoller(api, time.Millisecond, logger.NewTestLogger())

	out, err := p.Run(context.Background(), "job-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.Status.Status != StateFailed || api.resultCalls != 1 {
		t.Errorf("unexpected outcome %+v, result calls %d", out.Status, api.resultCalls)
	}
}

func TestRun_StatusErrorStopsPolling(t *testing.T) {
	boom := errors.New("unreachable")
	api := &stubAPI{statusErr: boom}
	p := NewPoller(api, time.Millisecond, logger.NewTestLogger())

	_, err := p.Run(context.Background(), "job-1")
	if !errors.Is(err, boom) {
		t.Fatalf("expected status error, got %v", err)
	}
	if api.resultCalls != 0 {
		t.Errorf("expected no results call, got %d", api.resultCalls)
	}
}

func TestRun_Cancelled(t *testing.T) {
	api := &stubAPI{states: []State{StateRunning}}
	p := NewPoller(api, time.Hour, logger.NewTestLogger())
	ctx, cancel := context.WithCancel(context.Background())

	done := p.Start(ctx, "job-1")
	cancel()

	select {
	case res := <-done:
		if !errors.Is(res.Err, context.Canceled) {
			t.Errorf("expected context.Canceled, got %v", res.Err)
		}
	case <-time.After(time.Second):
		t.Fatal("poller did not stop after cancel")
	}
}

func TestRun_OnStatus(t *testing.T) {
	api := &stubAPI{states: []State{StateRunning, StateCompleted}}
	p := NewPoller(api, time.Millisecond, logger.NewTestLogger())
	var seen []State
	p.OnStatus = func(s Status) { seen = append(seen, s.Status) }

	if _, err := p.Run(context.Background(), "job-1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(seen) != 2 || seen[1] != StateCompleted {
		t.Errorf("unexpected statuses %v", seen)
	}
}

func TestNewPoller_DefaultInterval(t *testing.T) {
	p := NewPoller(&stubAPI{}, 0, logger.NewTestLogger())
	if p.interval != DefaultInterval {
		t.Errorf("expected default interval, got %v", p.interval)
	}
}
