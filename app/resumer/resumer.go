// Package resumer reconciles cached job state with the conversion server on start
package resumer

import (
	"context"
	"fmt"
	"time"

	log "github.com/go-pkgz/lgr"

	"github.com/umputun/convtrack/app/job"
	"github.com/umputun/convtrack/app/tracker"
)

//go:generate moq -out mocks/tracker.go -pkg mocks -skip-ensure -fmt goimports . Tracker

// Decision made by Run
type Decision string

// possible decisions
const (
	DecisionNone      Decision = "none"      // nothing cached, fresh session
	DecisionCompleted Decision = "completed" // cached result shown
	DecisionResumed   Decision = "resumed"   // polling of cached job re-entered
	DecisionStale     Decision = "stale"     // cached job pointer dropped
)

// Store gives access to cached job state
type Store interface {
	CompletedResult() (job.Result, bool)
	ActiveJob() (job.Job, bool)
	ClearActiveJob()
}

// Tracker polls the job till terminal state
type Tracker interface {
	Track(ctx context.Context, j job.Job) tracker.Outcome
}

// Params for New
type Params struct {
	Store       Store
	Fetcher     tracker.Fetcher
	Tracker     Tracker
	Delay       time.Duration                        // startup delay, from the profile
	Timeout     time.Duration                        // reconciliation request timeout, no timeout if 0
	After       func(time.Duration) <-chan time.Time // default time.After
	OnCompleted func(job.Result)                     // called with cached result
	OnResume    func(job.Job)                        // called before polling is re-entered
}

// Resumer runs once on start and decides what to do with cached state
type Resumer struct {
	Params
}

// New makes Resumer
func New(p Params) *Resumer {
	if p.After == nil {
		p.After = time.After
	}
	return &Resumer{Params: p}
}

// Run waits for startup delay and reconciles cached state. For DecisionResumed it blocks
// till the tracker is done with the job, the outcome is reported by tracker's hooks.
// Error returned only if ctx is done before the decision is made.
func (r *Resumer) Run(ctx context.Context) (Decision, error) {
	if r.Delay > 0 {
		select {
		case <-ctx.Done():
			return DecisionNone, fmt.Errorf("resume interrupted: %w", ctx.Err())
		case <-r.After(r.Delay):
		}
	}

	if res, ok := r.Store.CompletedResult(); ok {
		log.Printf("[INFO] completed result from previous session, %s", res.OutputURL)
		if r.OnCompleted != nil {
			r.OnCompleted(res)
		}
		return DecisionCompleted, nil
	}

	j, ok := r.Store.ActiveJob()
	if !ok {
		log.Printf("[DEBUG] nothing to resume")
		return DecisionNone, nil
	}

	reqCtx, cancel := ctx, context.CancelFunc(func() {})
	if r.Timeout > 0 {
		reqCtx, cancel = context.WithTimeout(ctx, r.Timeout)
	}
	resp, err := r.Fetcher.Status(reqCtx, j)
	cancel()
	if err != nil {
		if ctx.Err() != nil {
			return DecisionNone, fmt.Errorf("resume interrupted: %w", ctx.Err())
		}
		log.Printf("[WARN] can't verify job %s, dropped, %v", j.ID, err)
		r.Store.ClearActiveJob()
		return DecisionStale, nil
	}
	if resp.Status.IsTerminal() {
		log.Printf("[INFO] job %s already %s, dropped", j.ID, resp.Status)
		r.Store.ClearActiveJob()
		return DecisionStale, nil
	}

	log.Printf("[INFO] resume tracking of job %s, status %s", j.ID, resp.Status)
	if r.OnResume != nil {
		r.OnResume(j)
	}
	r.Tracker.Track(ctx, j)
	return DecisionResumed, nil
}
