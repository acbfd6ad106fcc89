// Package tracker implements the adaptive polling loop following a single conversion job
// until it reaches a terminal state. The loop backs off on failed requests, gives up after
// the profile's error limit, pauses while the visibility gate is closed and records
// finished results in the store. Progress and terminal hooks replace direct ui calls.
package tracker

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	log "github.com/go-pkgz/lgr"

	"github.com/umputun/convtrack/app/job"
	"github.com/umputun/convtrack/app/remote"
)

//go:generate moq -out mocks/fetcher.go -pkg mocks -skip-ensure -fmt goimports . Fetcher
//go:generate moq -out mocks/downloader.go -pkg mocks -skip-ensure -fmt goimports . Downloader

// Fetcher returns job status from the conversion server
type Fetcher interface {
	Status(ctx context.Context, j job.Job) (remote.StatusResponse, error)
}

// Downloader saves output of the completed job
type Downloader interface {
	Download(ctx context.Context, r job.Result) error
}

// Store keeps active job pointer, completed results and history
type Store interface {
	ClearActiveJob()
	SaveCompletedResult(r job.Result)
	PushHistory(e job.HistoryEntry)
	AutoDownload() bool
}

// Visibility reports if polling allowed and signals changes
type Visibility interface {
	Visible() bool
	Changed() <-chan struct{}
}

// State of the tracker
type State string

// tracker states
const (
	StateIdle           State = "idle"
	StatePolling        State = "polling"
	StatePaused         State = "paused"
	StateDone           State = "done"
	StateFailed         State = "failed"
	StateConnectionLost State = "connection_lost"
)

// EventKind is a type of progress event
type EventKind string

// progress event kinds
const (
	EventQueued   EventKind = "queued"   // job entered the queue
	EventProgress EventKind = "progress" // job is running, message changed
	EventRetrying EventKind = "retrying" // 1st and 3rd consecutive failed request
	EventPaused   EventKind = "paused"
	EventResumed  EventKind = "resumed"
)

// Event is a non-terminal progress notification
type Event struct {
	Kind     EventKind
	JobID    string
	Status   job.Status
	Message  string
	Errors   int
	Interval time.Duration
}

// OutcomeKind is a type of tracking result
type OutcomeKind string

// outcome kinds
const (
	OutcomeDone           OutcomeKind = "done"
	OutcomeFailed         OutcomeKind = "failed"
	OutcomeConnectionLost OutcomeKind = "connection_lost"
	OutcomeAborted        OutcomeKind = "aborted" // local cancel, never passed to terminal hooks
)

// Outcome is the result of Track
type Outcome struct {
	Kind          OutcomeKind
	Job           job.Job
	Result        job.Result // set for OutcomeDone
	UserCancelled bool       // set for OutcomeFailed if the job was cancelled rather than failed
	Message       string
	Errors        int
}

// String returns user-facing description of the outcome
func (o Outcome) String() string {
	kind := "conversion"
	if o.Job.IsClip() {
		kind = "clip"
	}
	switch o.Kind {
	case OutcomeDone:
		return fmt.Sprintf("%s %s done, output %s", kind, o.Job.ID, o.Result.OutputURL)
	case OutcomeFailed:
		if o.UserCancelled {
			return fmt.Sprintf("%s %s cancelled", kind, o.Job.ID)
		}
		if o.Message != "" {
			return fmt.Sprintf("%s %s failed: %s", kind, o.Job.ID, o.Message)
		}
		return fmt.Sprintf("%s %s failed", kind, o.Job.ID)
	case OutcomeConnectionLost:
		return fmt.Sprintf("connection lost after %d failed requests, restart to check job %s again", o.Errors, o.Job.ID)
	default:
		return fmt.Sprintf("tracking of %s stopped", o.Job.ID)
	}
}

// Snapshot is a point-in-time view of the tracker
type Snapshot struct {
	State     State         `json:"state"`
	Job       *job.Job      `json:"job,omitempty"`
	Status    job.Status    `json:"status,omitempty"`
	Message   string        `json:"message,omitempty"`
	Interval  time.Duration `json:"interval"`
	Errors    int           `json:"errors"`
	UpdatedAt time.Time     `json:"updated_at"`
}

// Params for New
type Params struct {
	Fetcher    Fetcher
	Store      Store
	Profile    Profile
	Clock      Clock      // default SystemClock
	Visibility Visibility // default always visible gate
	Downloader Downloader // optional, used for auto-download
	Metrics    *Metrics   // optional
}

// Tracker follows one job at a time. Thread safe
type Tracker struct {
	fetcher    Fetcher
	store      Store
	profile    Profile
	clock      Clock
	gate       Visibility
	downloader Downloader
	metrics    *Metrics

	mu     sync.Mutex
	snap   Snapshot
	cancel context.CancelFunc
	run    int

	hooksMu       sync.Mutex
	hookID        int
	progressHooks map[int]func(Event)
	terminalHooks map[int]func(Outcome)
}

// New makes Tracker
func New(p Params) *Tracker {
	res := &Tracker{
		fetcher:       p.Fetcher,
		store:         p.Store,
		profile:       p.Profile,
		clock:         p.Clock,
		gate:          p.Visibility,
		downloader:    p.Downloader,
		metrics:       p.Metrics,
		progressHooks: map[int]func(Event){},
		terminalHooks: map[int]func(Outcome){},
	}
	if res.clock == nil {
		res.clock = SystemClock{}
	}
	if res.gate == nil {
		res.gate = NewGate()
	}
	res.snap = Snapshot{State: StateIdle, Interval: p.Profile.BaseInterval, UpdatedAt: res.clock.Now()}
	return res
}

// Profile returns profile used by the tracker
func (t *Tracker) Profile() Profile {
	return t.profile
}

// OnProgress registers hook called for every progress event, returns unsubscribe func
func (t *Tracker) OnProgress(fn func(Event)) (unsubscribe func()) {
	t.hooksMu.Lock()
	defer t.hooksMu.Unlock()
	t.hookID++
	id := t.hookID
	t.progressHooks[id] = fn
	return func() {
		t.hooksMu.Lock()
		delete(t.progressHooks, id)
		t.hooksMu.Unlock()
	}
}

// OnTerminal registers hook called on done, failed and connection lost outcomes, returns unsubscribe func
func (t *Tracker) OnTerminal(fn func(Outcome)) (unsubscribe func()) {
	t.hooksMu.Lock()
	defer t.hooksMu.Unlock()
	t.hookID++
	id := t.hookID
	t.terminalHooks[id] = fn
	return func() {
		t.hooksMu.Lock()
		delete(t.terminalHooks, id)
		t.hooksMu.Unlock()
	}
}

// State returns current snapshot
func (t *Tracker) State() Snapshot {
	t.mu.Lock()
	defer t.mu.Unlock()
	res := t.snap
	if res.Job != nil {
		j := *res.Job
		res.Job = &j
	}
	return res
}

// Cancel stops tracking of the current job, aborts in-flight request. Nothing is emitted and
// the cancelled run can't change the store anymore. Returns false if nothing was tracked
func (t *Tracker) Cancel() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.cancel == nil {
		return false
	}
	t.cancel()
	t.cancel = nil
	t.run++
	t.snap.State, t.snap.UpdatedAt = StateIdle, t.clock.Now()
	return true
}

// Track polls job status until terminal state, local cancel or ctx done. Blocking.
// Tracking of another job, if any, is aborted first.
func (t *Tracker) Track(ctx context.Context, j job.Job) Outcome {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	t.mu.Lock()
	if t.cancel != nil {
		log.Printf("[INFO] tracking of %s replaced by %s", t.snapJobID(), j.ID)
		t.cancel()
	}
	t.cancel = cancel
	t.run++
	run := t.run
	jobCopy := j
	t.snap = Snapshot{State: StatePolling, Job: &jobCopy, Interval: t.profile.BaseInterval, UpdatedAt: t.clock.Now()}
	t.mu.Unlock()

	log.Printf("[INFO] tracking job %s, format %s, profile %s", j.ID, j.Format, t.profile.Name)
	t.metrics.setInterval(t.profile.BaseInterval)
	out := t.poll(ctx, j, run)
	return t.finish(run, out)
}

func (t *Tracker) poll(ctx context.Context, j job.Job, run int) Outcome {
	interval := t.profile.BaseInterval
	delay := interval
	errCount := 0
	var last remote.StatusResponse

	for {
		changed := t.gate.Changed()
		if !t.gate.Visible() {
			if !t.pause(ctx, j, run) {
				return Outcome{Kind: OutcomeAborted, Job: j}
			}
			interval, delay = t.profile.BaseInterval, 0 // poll right away on resume
			continue
		}

		if delay > 0 {
			select {
			case <-ctx.Done():
				return Outcome{Kind: OutcomeAborted, Job: j}
			case <-changed:
				continue
			case <-t.clock.After(delay):
			}
		}
		if ctx.Err() != nil {
			return Outcome{Kind: OutcomeAborted, Job: j}
		}

		resp, err := t.fetch(ctx, j)
		if ctx.Err() != nil {
			return Outcome{Kind: OutcomeAborted, Job: j}
		}
		t.metrics.request(err == nil)

		if err != nil {
			errCount++
			log.Printf("[WARN] status request for %s failed (%d/%d), %v", j.ID, errCount, t.profile.MaxErrors, err)
			if errCount >= t.profile.MaxErrors {
				return Outcome{Kind: OutcomeConnectionLost, Job: j, Errors: errCount, Message: err.Error()}
			}
			interval = t.profile.next(interval)
			delay = interval
			t.metrics.setInterval(interval)
			t.update(run, func(s *Snapshot) { s.Errors, s.Interval = errCount, interval })
			if errCount == 1 || errCount == 3 {
				t.emit(Event{Kind: EventRetrying, JobID: j.ID, Status: last.Status, Errors: errCount, Interval: interval,
					Message: "connection issue, retrying"})
			}
			continue
		}

		if errCount > 0 || interval != t.profile.BaseInterval {
			t.metrics.setInterval(t.profile.BaseInterval)
		}
		errCount, interval = 0, t.profile.BaseInterval
		delay = interval
		t.update(run, func(s *Snapshot) {
			s.State, s.Status, s.Message, s.Errors, s.Interval = StatePolling, resp.Status, resp.Message, 0, interval
		})

		switch resp.Status {
		case job.StatusQueued:
			if last.Status != job.StatusQueued {
				t.emit(Event{Kind: EventQueued, JobID: j.ID, Status: resp.Status, Message: resp.Message, Interval: interval})
			}
		case job.StatusRunning, job.StatusPredict:
			wasRunning := last.Status == job.StatusRunning || last.Status == job.StatusPredict
			if !wasRunning || resp.Message != last.Message {
				t.emit(Event{Kind: EventProgress, JobID: j.ID, Status: resp.Status, Message: resp.Message, Interval: interval})
			}
		case job.StatusDone:
			return t.complete(ctx, j, run, resp)
		case job.StatusError, job.StatusCancelled:
			return t.fail(j, run, resp)
		}
		last = resp
	}
}

// fetch makes a single status request limited by profile's timeout.
// Done status without output url is malformed and counted as a failed request
func (t *Tracker) fetch(ctx context.Context, j job.Job) (remote.StatusResponse, error) {
	reqCtx, cancel := context.WithTimeout(ctx, t.profile.RequestTimeout)
	defer cancel()
	resp, err := t.fetcher.Status(reqCtx, j)
	if err != nil {
		return remote.StatusResponse{}, err
	}
	if resp.Status == job.StatusDone && resp.OutputURL == "" {
		return remote.StatusResponse{}, fmt.Errorf("done without output url: %w", remote.ErrMalformed)
	}
	return resp, nil
}

// pause blocks while hidden, returns false if ctx done before visible again
func (t *Tracker) pause(ctx context.Context, j job.Job, run int) bool {
	log.Printf("[DEBUG] polling of %s paused", j.ID)
	t.update(run, func(s *Snapshot) { s.State = StatePaused })
	t.emit(Event{Kind: EventPaused, JobID: j.ID})
	for {
		changed := t.gate.Changed()
		if t.gate.Visible() {
			break
		}
		select {
		case <-ctx.Done():
			return false
		case <-changed:
		}
	}
	log.Printf("[DEBUG] polling of %s resumed", j.ID)
	t.update(run, func(s *Snapshot) { s.State, s.Interval = StatePolling, t.profile.BaseInterval })
	t.metrics.setInterval(t.profile.BaseInterval)
	t.emit(Event{Kind: EventResumed, JobID: j.ID, Interval: t.profile.BaseInterval})
	return true
}

func (t *Tracker) complete(ctx context.Context, j job.Job, run int, resp remote.StatusResponse) Outcome {
	res := job.Result{OutputURL: resp.OutputURL, Format: resp.Format, Params: resp.Params}
	if res.Format == "" {
		res.Format = j.Format
	}
	if j.IsClip() {
		res.ClipID = j.ID
	}
	ok := t.commit(run, func() {
		t.store.ClearActiveJob()
		t.store.SaveCompletedResult(res)
		t.store.PushHistory(job.NewHistoryEntry(res, t.clock.Now()))
	})
	if !ok {
		log.Printf("[DEBUG] job %s done, but tracking was replaced", j.ID)
		return Outcome{Kind: OutcomeAborted, Job: j}
	}
	log.Printf("[INFO] job %s done, output %s", j.ID, res.OutputURL)

	if t.downloader != nil && t.store.AutoDownload() {
		if err := t.downloader.Download(ctx, res); err != nil {
			log.Printf("[WARN] auto-download of %s failed, %v", res.OutputURL, err)
		}
	}
	return Outcome{Kind: OutcomeDone, Job: j, Result: res}
}

func (t *Tracker) fail(j job.Job, run int, resp remote.StatusResponse) Outcome {
	if !t.commit(run, t.store.ClearActiveJob) {
		log.Printf("[DEBUG] job %s finished with %s, but tracking was replaced", j.ID, resp.Status)
		return Outcome{Kind: OutcomeAborted, Job: j}
	}
	msg := resp.Error
	if msg == "" {
		msg = resp.Message
	}
	cancelled := resp.Status == job.StatusCancelled || cancelledByUser(msg)
	out := Outcome{Kind: OutcomeFailed, Job: j, UserCancelled: cancelled, Message: msg}
	log.Printf("[INFO] job %s finished with %s, %s", j.ID, resp.Status, msg)
	return out
}

// cancelledByUser detects cancellation reported as an error, the server fails a cancelled
// conversion with "Conversion cancelled by user"
func cancelledByUser(msg string) bool {
	msg = strings.ToLower(msg)
	return strings.Contains(msg, "cancelled by user") || strings.Contains(msg, "canceled by user")
}

// commit runs store changes of the run only if the run is still current, under lock so
// replacement or cancel can't happen in the middle
func (t *Tracker) commit(run int, fn func()) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if run != t.run {
		return false
	}
	fn()
	return true
}

// finish records outcome in the snapshot and calls terminal hooks. Aborted outcome and any
// outcome of a replaced or cancelled run are silent
func (t *Tracker) finish(run int, out Outcome) Outcome {
	t.mu.Lock()
	if run != t.run && out.Kind != OutcomeAborted {
		out = Outcome{Kind: OutcomeAborted, Job: out.Job}
	}
	if run == t.run {
		t.cancel = nil
		switch out.Kind {
		case OutcomeDone:
			t.snap.State, t.snap.Status = StateDone, job.StatusDone
		case OutcomeFailed:
			t.snap.State = StateFailed
			t.snap.Status = job.StatusError
			if out.UserCancelled {
				t.snap.Status = job.StatusCancelled
			}
			t.snap.Message = out.Message
		case OutcomeConnectionLost:
			t.snap.State, t.snap.Errors = StateConnectionLost, out.Errors
		case OutcomeAborted:
			t.snap.State = StateIdle
		}
		t.snap.UpdatedAt = t.clock.Now()
	}
	t.mu.Unlock()

	t.metrics.outcome(out.Kind)
	if out.Kind == OutcomeAborted {
		log.Printf("[DEBUG] tracking of %s aborted", out.Job.ID)
		return out
	}

	t.hooksMu.Lock()
	hooks := make([]func(Outcome), 0, len(t.terminalHooks))
	for _, h := range t.terminalHooks {
		hooks = append(hooks, h)
	}
	t.hooksMu.Unlock()
	for _, h := range hooks {
		h(out)
	}
	return out
}

func (t *Tracker) emit(e Event) {
	t.hooksMu.Lock()
	hooks := make([]func(Event), 0, len(t.progressHooks))
	for _, h := range t.progressHooks {
		hooks = append(hooks, h)
	}
	t.hooksMu.Unlock()
	for _, h := range hooks {
		h(e)
	}
}

// update changes snapshot if run is still current
func (t *Tracker) update(run int, fn func(s *Snapshot)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if run != t.run {
		return
	}
	fn(&t.snap)
	t.snap.UpdatedAt = t.clock.Now()
}

// snapJobID returns id of the tracked job, must be called under lock
func (t *Tracker) snapJobID() string {
	if t.snap.Job == nil {
		return ""
	}
	return t.snap.Job.ID
}
