// Package service provides the application context. Combines remote client, cache, tracker,
// resumer, notifications and the sweeper together and used by both cli and web api
package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"reflect"
	"time"

	log "github.com/go-pkgz/lgr"
	"github.com/go-pkgz/repeater"
	"github.com/go-pkgz/repeater/strategy"
	"github.com/robfig/cron/v3"

	"github.com/umputun/convtrack/app/job"
	"github.com/umputun/convtrack/app/remote"
	"github.com/umputun/convtrack/app/resumer"
	"github.com/umputun/convtrack/app/store"
	"github.com/umputun/convtrack/app/tracker"
)

//go:generate moq -out mocks/client.go -pkg mocks -skip-ensure -fmt goimports . Client
//go:generate moq -out mocks/notifier.go -pkg mocks -skip-ensure -fmt goimports . Notifier
//go:generate moq -out mocks/cron.go -pkg mocks -skip-ensure -fmt goimports . Cron

// ErrNoActiveJob returned by Cancel if nothing is in progress
var ErrNoActiveJob = errors.New("no active job")

// Client defines conversion server calls, implemented by remote.Client
type Client interface {
	StartJob(ctx context.Context, req remote.StartRequest) (job.Job, error)
	StartClip(ctx context.Context, req remote.ClipRequest) (job.Job, error)
	Status(ctx context.Context, j job.Job) (remote.StatusResponse, error)
	Cancel(ctx context.Context, jobID string) error
	ClearCache(ctx context.Context, jobID string) error
	QueueDepth(ctx context.Context) (int, error)
	Download(ctx context.Context, outputURL string, w io.Writer) error
}

// Notifier interface defines notification delivery on terminal outcomes
type Notifier interface {
	Send(ctx context.Context, subj, text string) error
	IsOnError() bool
	IsOnCompletion() bool
	MakeErrorText(jobID, format, reason string) (string, error)
	MakeCompletionText(jobID, format, outputURL string) (string, error)
}

// Repeater repeats failed function
type Repeater interface {
	Do(ctx context.Context, fun func() error, errors ...error) (err error)
}

// Cron interface defines basic robfig/cron methods used by the sweeper
type Cron interface {
	Start()
	Stop() context.Context
	Schedule(schedule cron.Schedule, cmd cron.Job) cron.EntryID
}

// Params for New
type Params struct {
	Client        Client
	Cache         *store.Cache
	Profile       tracker.Profile
	Visibility    tracker.Visibility // optional, always visible if not set
	Clock         tracker.Clock      // default tracker.SystemClock
	Metrics       *tracker.Metrics   // optional
	Notifier      Notifier           // optional
	NotifyTimeout time.Duration
	Repeater      Repeater // retries cancel and download calls, default 3 attempts with backoff
	Cron          Cron     // default robfig/cron
	DownloadDir   string   // default current dir
}

// Service is the application context, constructed once and shared by all entry points
type Service struct {
	Params
	tracker *tracker.Tracker
}

// State is a combined view of the tracker and cached state
type State struct {
	Tracker      tracker.Snapshot `json:"tracker"`
	ActiveJob    *job.Job         `json:"active_job,omitempty"`
	Completed    *job.Result      `json:"completed,omitempty"`
	AutoDownload bool             `json:"auto_download"`
}

// New makes Service with tracker wired to the cache and client
func New(p Params) *Service {
	if p.Repeater == nil {
		p.Repeater = repeater.New(&strategy.Backoff{Repeats: 3, Duration: 500 * time.Millisecond, Factor: 2, Jitter: true})
	}
	if p.Cron == nil {
		p.Cron = cron.New()
	}
	if p.Clock == nil {
		p.Clock = tracker.SystemClock{}
	}
	if p.NotifyTimeout <= 0 {
		p.NotifyTimeout = 10 * time.Second
	}
	res := &Service{Params: p}
	res.tracker = tracker.New(tracker.Params{
		Fetcher:    p.Client,
		Store:      p.Cache,
		Profile:    p.Profile,
		Clock:      p.Clock,
		Visibility: p.Visibility,
		Downloader: res,
		Metrics:    p.Metrics,
	})
	res.tracker.OnTerminal(res.notify)
	return res
}

// Tracker returns the tracker for hooks subscription
func (s *Service) Tracker() *tracker.Tracker {
	return s.tracker
}

// Resumer makes resumer reconciling cached state with the server, using profile's startup delay
func (s *Service) Resumer(onCompleted func(job.Result), onResume func(job.Job)) *resumer.Resumer {
	return resumer.New(resumer.Params{
		Store:       s.Cache,
		Fetcher:     s.Client,
		Tracker:     s.tracker,
		Delay:       s.Profile.StartupDelay,
		Timeout:     s.Profile.RequestTimeout,
		OnCompleted: onCompleted,
		OnResume:    onResume,
	})
}

// Submit uploads the file and starts a new job. Prior completed result is cleared
func (s *Service) Submit(ctx context.Context, path string, format job.Format, outputName string) (job.Job, error) {
	fh, err := os.Open(path) //nolint:gosec // path from user input by design of cli
	if err != nil {
		return job.Job{}, fmt.Errorf("can't open %s: %w", path, err)
	}
	defer fh.Close()

	j, err := s.Client.StartJob(ctx, remote.StartRequest{FileName: path, Body: fh, Format: format, OutputName: outputName})
	if err != nil {
		return job.Job{}, fmt.Errorf("failed to start conversion of %s: %w", path, err)
	}
	j = s.started(j)
	log.Printf("[INFO] conversion of %s started, job %s, format %s", path, j.ID, j.Format)
	return j, nil
}

// SubmitClip uploads the video and starts cutting the range out of it. Prior completed result is cleared
func (s *Service) SubmitClip(ctx context.Context, path string, rng job.ClipRange) (job.Job, error) {
	fh, err := os.Open(path) //nolint:gosec // path from user input by design of cli
	if err != nil {
		return job.Job{}, fmt.Errorf("can't open %s: %w", path, err)
	}
	defer fh.Close()

	j, err := s.Client.StartClip(ctx, remote.ClipRequest{FileName: path, Body: fh, Range: rng})
	if err != nil {
		return job.Job{}, fmt.Errorf("failed to start clip of %s: %w", path, err)
	}
	j = s.started(j)
	log.Printf("[INFO] clip %v-%vs of %s started, job %s", rng.Start, rng.End, path, j.ID)
	return j, nil
}

// started stamps the new job and makes it the active one. Tracking of a prior job is stopped first,
// so its late completion can't touch the new active job
func (s *Service) started(j job.Job) job.Job {
	s.tracker.Cancel()
	if j.StartedAt.IsZero() {
		j.StartedAt = s.Clock.Now()
	}
	s.Cache.ClearCompletedResult()
	s.Cache.SaveActiveJob(j)
	return j
}

// Convert submits the file and tracks the job till terminal state. Blocking
func (s *Service) Convert(ctx context.Context, path string, format job.Format, outputName string) (tracker.Outcome, error) {
	j, err := s.Submit(ctx, path, format, outputName)
	if err != nil {
		return tracker.Outcome{}, err
	}
	return s.tracker.Track(ctx, j), nil
}

// Clip submits the clip and tracks the job till terminal state. Blocking
func (s *Service) Clip(ctx context.Context, path string, rng job.ClipRange) (tracker.Outcome, error) {
	j, err := s.SubmitClip(ctx, path, rng)
	if err != nil {
		return tracker.Outcome{}, err
	}
	return s.tracker.Track(ctx, j), nil
}

// Cancel stops tracking of the active job and asks server to cancel it. Server call is best-effort,
// its failure is logged only
func (s *Service) Cancel(ctx context.Context) error {
	j, ok := s.Cache.ActiveJob()
	if !ok {
		snap := s.tracker.State()
		if snap.Job == nil || (snap.State != tracker.StatePolling && snap.State != tracker.StatePaused) {
			return ErrNoActiveJob
		}
		j = *snap.Job
	}
	s.tracker.Cancel()
	s.Cache.ClearActiveJob()

	err := s.Repeater.Do(ctx, func() error { return s.Client.Cancel(ctx, j.ID) })
	if err != nil {
		log.Printf("[WARN] failed to cancel job %s on server, %v", j.ID, err)
		return nil
	}
	log.Printf("[INFO] job %s cancelled", j.ID)
	return nil
}

// Download saves output of the result into download dir, file name taken from the output url
func (s *Service) Download(ctx context.Context, r job.Result) error {
	name := remote.OutputFileName(r.OutputURL)
	if name == "" {
		return fmt.Errorf("no file name in output url %q", r.OutputURL)
	}
	dir := s.DownloadDir
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return fmt.Errorf("can't make download dir %s: %w", dir, err)
	}
	dst := filepath.Join(dir, name)

	err := s.Repeater.Do(ctx, func() error { return s.downloadTo(ctx, r.OutputURL, dst) })
	if err != nil {
		return fmt.Errorf("failed to download %s: %w", r.OutputURL, err)
	}
	log.Printf("[INFO] downloaded %s to %s", r.OutputURL, dst)
	if r.ClipID != "" {
		s.clearClip(ctx, r.ClipID)
	}
	return nil
}

// downloadTo writes into temp file and renames it to dst on success
func (s *Service) downloadTo(ctx context.Context, outputURL, dst string) error {
	tmp, err := os.CreateTemp(filepath.Dir(dst), "."+filepath.Base(dst)+".*")
	if err != nil {
		return fmt.Errorf("can't make temp file: %w", err)
	}
	defer os.Remove(tmp.Name()) //nolint:errcheck // removed already after rename

	if err = s.Client.Download(ctx, outputURL, tmp); err != nil {
		_ = tmp.Close()
		return err
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("can't close %s: %w", tmp.Name(), err)
	}
	if err = os.Rename(tmp.Name(), dst); err != nil {
		return fmt.Errorf("can't rename to %s: %w", dst, err)
	}
	return nil
}

// Dismiss clears completed result. Server files of a dismissed clip are dropped
func (s *Service) Dismiss(ctx context.Context) {
	r, ok := s.Cache.CompletedResult()
	s.Cache.ClearCompletedResult()
	if ok && r.ClipID != "" {
		s.clearClip(ctx, r.ClipID)
	}
}

// clearClip asks server to drop files of the clip job, best-effort
func (s *Service) clearClip(ctx context.Context, jobID string) {
	var gone bool
	err := s.Repeater.Do(ctx, func() error {
		err := s.Client.ClearCache(ctx, jobID)
		var httpErr *remote.HTTPError
		if errors.As(err, &httpErr) && httpErr.Code == http.StatusNotFound {
			gone = true
			return nil
		}
		return err
	})
	switch {
	case gone:
		log.Printf("[DEBUG] nothing cached on server for clip %s", jobID)
	case err != nil:
		log.Printf("[WARN] failed to clear server cache of clip %s, %v", jobID, err)
	default:
		log.Printf("[DEBUG] server cache of clip %s cleared", jobID)
	}
}

// History returns non-expired history, most recent first
func (s *Service) History() []job.HistoryEntry {
	return s.Cache.History()
}

// SetAutoDownload stores auto-download preference
func (s *Service) SetAutoDownload(enabled bool) {
	s.Cache.SetAutoDownload(enabled)
	log.Printf("[INFO] auto-download %v", enabled)
}

// QueueDepth returns number of jobs queued on the server
func (s *Service) QueueDepth(ctx context.Context) (int, error) {
	return s.Client.QueueDepth(ctx)
}

// State returns combined state of the tracker and cache
func (s *Service) State() State {
	res := State{Tracker: s.tracker.State(), AutoDownload: s.Cache.AutoDownload()}
	if j, ok := s.Cache.ActiveJob(); ok {
		res.ActiveJob = &j
	}
	if r, ok := s.Cache.CompletedResult(); ok {
		res.Completed = &r
	}
	return res
}

// RunSweeper evicts expired cache entries on cron schedule, blocking till ctx done
func (s *Service) RunSweeper(ctx context.Context, spec string) error {
	sched, err := cron.ParseStandard(spec)
	if err != nil {
		return fmt.Errorf("can't parse sweep schedule %s: %w", spec, err)
	}
	id := s.Cron.Schedule(sched, cron.FuncJob(func() {
		log.Printf("[DEBUG] sweep expired cache entries")
		s.Cache.Sweep()
	}))
	log.Printf("[INFO] sweeper scheduled, %s (%v), first: %s", spec, id, sched.Next(time.Now()).Format(time.RFC3339))
	s.Cron.Start()
	<-ctx.Done()
	<-s.Cron.Stop().Done()
	return nil
}

// notify sends terminal outcome to notifier if enabled for the outcome kind
func (s *Service) notify(o tracker.Outcome) {
	if s.Notifier == nil || reflect.ValueOf(s.Notifier).IsNil() {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), s.NotifyTimeout)
	defer cancel()

	var subj, text string
	var err error
	switch {
	case o.Kind == tracker.OutcomeDone && s.Notifier.IsOnCompletion():
		subj = fmt.Sprintf("conversion %s completed", o.Job.ID)
		text, err = s.Notifier.MakeCompletionText(o.Job.ID, string(o.Result.Format), o.Result.OutputURL)
	case o.Kind == tracker.OutcomeFailed && o.UserCancelled:
		return
	case (o.Kind == tracker.OutcomeFailed || o.Kind == tracker.OutcomeConnectionLost) && s.Notifier.IsOnError():
		subj = fmt.Sprintf("conversion %s failed", o.Job.ID)
		text, err = s.Notifier.MakeErrorText(o.Job.ID, string(o.Job.Format), o.String())
	default:
		return
	}
	if err != nil {
		log.Printf("[WARN] can't make notification for %s, %v", o.Job.ID, err)
		return
	}
	if err := s.Notifier.Send(ctx, subj, text); err != nil {
		log.Printf("[WARN] failed to send notification for %s, %v", o.Job.ID, err)
	}
}
