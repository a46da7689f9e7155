// Package jobs follows long-running analysis jobs until they finish.
package jobs

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"
)

type State string

const (
	StateQueued    State = "queued"
	StateRunning   State = "running"
	StateCompleted State = "completed"
	StateFailed    State = "failed"
)

// Terminal reports whether the job will not change state again.
func (s State) Terminal() bool {
	return s == StateCompleted || s == StateFailed
}

type Status struct {
	JobID    string  `json:"job_id"`
	Status   State   `json:"status"`
	Stage    string  `json:"stage,omitempty"`
	Progress float64 `json:"progress,omitempty"`
	Message  string  `json:"message,omitempty"`
}

// API is the job service as seen by the poller.
type API interface {
	JobStatus(ctx context.Context, jobID string) (Status, error)
	JobResults(ctx context.Context, jobID string) (json.RawMessage, error)
}

// Outcome is the final status of a job and its results.
type Outcome struct {
	Status  Status          `json:"status"`
	Results json.RawMessage `json:"results"`
}

const DefaultInterval = 3 * time.Second

type Poller struct {
	api      API
	interval time.Duration
	log      *slog.Logger

	// OnStatus, when set, sees every status read.
	OnStatus func(Status)
}

func NewPoller(api API, interval time.Duration, log *slog.Logger) *Poller {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Poller{api: api, interval: interval, log: log}
}

// Run polls until the job reaches a terminal state, then fetches its
// results once. A status error ends polling; it is not retried. Cancelling
// ctx stops the poller.
func (p *Poller) Run(ctx context.Context, jobID string) (Outcome, error) {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		st, err := p.api.JobStatus(ctx, jobID)
		if err != nil {
			p.log.Warn("job status failed", "job_id", jobID, "error", err)
			return Outcome{}, fmt.Errorf("job %s status: %w", jobID, err)
		}
		if p.OnStatus != nil {
			p.OnStatus(st)
		}
		p.log.Debug("job status", "job_id", jobID, "status", st.Status)

		if st.Status.Terminal() {
			results, err := p.api.JobResults(ctx, jobID)
			if err != nil {
				return Outcome{Status: st}, fmt.Errorf("job %s results: %w", jobID, err)
			}
			return Outcome{Status: st, Results: results}, nil
		}

		select {
		case <-ctx.Done():
			return Outcome{Status: st}, ctx.Err()
		case <-ticker.C:
		}
	}
}

// Start runs the poller in its own goroutine and delivers the outcome on
// the returned channel.
func (p *Poller) Start(ctx context.Context, jobID string) <-chan Result {
	ch := make(chan Result, 1)
	go func() {
		out, err := p.Run(ctx, jobID)
		ch <- Result{Outcome: out, Err: err}
	}()
	return ch
}

type Result struct {
	Outcome
	Err error
}
