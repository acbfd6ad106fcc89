package resumer

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/umputun/convtrack/app/job"
	"github.com/umputun/convtrack/app/remote"
	"github.com/umputun/convtrack/app/resumer/mocks"
	"github.com/umputun/convtrack/app/store"
	"github.com/umputun/convtrack/app/tracker"
	trmocks "github.com/umputun/convtrack/app/tracker/mocks"
)

func immediate(time.Duration) <-chan time.Time {
	ch := make(chan time.Time, 1)
	ch <- time.Now()
	return ch
}

func TestResumer_Completed(t *testing.T) {
	cache := store.New(store.NewMemory(), store.Options{})
	cache.SaveActiveJob(job.Job{ID: "j0"}) // left by a crash between writes
	cache.Put(store.KeyCompletedResult, job.Result{OutputURL: "/gifs/j1.gif", Format: job.FormatGIF})

	fetcher := &trmocks.FetcherMock{}
	tr := &mocks.TrackerMock{}
	var shown job.Result
	var delay time.Duration
	r := New(Params{Store: cache, Fetcher: fetcher, Tracker: tr, Delay: 2 * time.Second,
		After: func(d time.Duration) <-chan time.Time {
			delay = d
			return immediate(d)
		},
		OnCompleted: func(res job.Result) { shown = res }})

	d, err := r.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, DecisionCompleted, d)
	assert.Equal(t, "/gifs/j1.gif", shown.OutputURL)
	assert.Equal(t, 2*time.Second, delay)
	assert.Empty(t, fetcher.StatusCalls(), "completed result has priority")
	assert.Empty(t, tr.TrackCalls())
}

func TestResumer_Nothing(t *testing.T) {
	r := New(Params{Store: store.New(store.NewMemory(), store.Options{}), Fetcher: &trmocks.FetcherMock{},
		Tracker: &mocks.TrackerMock{}, After: immediate})
	d, err := r.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, DecisionNone, d)
}

func TestResumer_StaleTerminal(t *testing.T) {
	for _, st := range []job.Status{job.StatusDone, job.StatusError, job.StatusCancelled} {
		t.Run(string(st), func(t *testing.T) {
			cache := store.New(store.NewMemory(), store.Options{})
			cache.SaveActiveJob(job.Job{ID: "j1", Format: job.FormatAVIF})
			fetcher := &trmocks.FetcherMock{StatusFunc: func(context.Context, job.Job) (remote.StatusResponse, error) {
				return remote.StatusResponse{Status: st, OutputURL: "/gifs/j1.avif"}, nil
			}}
			tr := &mocks.TrackerMock{}
			resumed := false
			r := New(Params{Store: cache, Fetcher: fetcher, Tracker: tr, After: immediate,
				OnResume: func(job.Job) { resumed = true }})

			d, err := r.Run(context.Background())
			require.NoError(t, err)
			assert.Equal(t, DecisionStale, d)
			_, ok := cache.ActiveJob()
			assert.False(t, ok, "stale pointer cleared")
			_, ok = cache.CompletedResult()
			assert.False(t, ok, "nothing shown")
			assert.Len(t, fetcher.StatusCalls(), 1)
			assert.Empty(t, tr.TrackCalls(), "polling not started")
			assert.False(t, resumed)
		})
	}
}

func TestResumer_ReconciliationFailed(t *testing.T) {
	cache := store.New(store.NewMemory(), store.Options{})
	cache.SaveActiveJob(job.Job{ID: "j1"})
	fetcher := &trmocks.FetcherMock{StatusFunc: func(ctx context.Context, _ job.Job) (remote.StatusResponse, error) {
		_, hasDeadline := ctx.Deadline()
		assert.True(t, hasDeadline)
		return remote.StatusResponse{}, errors.New("network down")
	}}
	tr := &mocks.TrackerMock{}
	r := New(Params{Store: cache, Fetcher: fetcher, Tracker: tr, After: immediate, Timeout: time.Second})

	d, err := r.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, DecisionStale, d)
	_, ok := cache.ActiveJob()
	assert.False(t, ok, "pointer cleared defensively")
	assert.Empty(t, tr.TrackCalls())
}

func TestResumer_Resumed(t *testing.T) {
	cache := store.New(store.NewMemory(), store.Options{})
	j := job.Job{ID: "j2", Format: job.FormatWEBP}
	cache.SaveActiveJob(j)
	fetcher := &trmocks.FetcherMock{StatusFunc: func(context.Context, job.Job) (remote.StatusResponse, error) {
		return remote.StatusResponse{Status: job.StatusRunning, Message: "30%"}, nil
	}}
	var order []string
	tr := &mocks.TrackerMock{TrackFunc: func(_ context.Context, got job.Job) tracker.Outcome {
		order = append(order, "track")
		return tracker.Outcome{Kind: tracker.OutcomeDone, Job: got}
	}}
	r := New(Params{Store: cache, Fetcher: fetcher, Tracker: tr, After: immediate,
		OnResume: func(job.Job) { order = append(order, "resume") }})

	d, err := r.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, DecisionResumed, d)
	require.Len(t, tr.TrackCalls(), 1)
	assert.Equal(t, "j2", tr.TrackCalls()[0].J.ID)
	assert.Equal(t, []string{"resume", "track"}, order, "in-progress indication restored before polling")
}

func TestResumer_ResumedClip(t *testing.T) {
	cache := store.New(store.NewMemory(), store.Options{})
	cache.SaveActiveJob(job.Job{ID: "c1", Kind: job.KindClip, Format: job.FormatMP4, Clip: &job.ClipRange{Start: 1, End: 2}})
	fetcher := &trmocks.FetcherMock{StatusFunc: func(context.Context, job.Job) (remote.StatusResponse, error) {
		return remote.StatusResponse{Status: job.StatusRunning}, nil
	}}
	tr := &mocks.TrackerMock{TrackFunc: func(_ context.Context, got job.Job) tracker.Outcome {
		return tracker.Outcome{Kind: tracker.OutcomeDone, Job: got}
	}}
	r := New(Params{Store: cache, Fetcher: fetcher, Tracker: tr, After: immediate})

	d, err := r.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, DecisionResumed, d)
	require.Len(t, fetcher.StatusCalls(), 1)
	assert.True(t, fetcher.StatusCalls()[0].J.IsClip(), "checked on clip status endpoint")
	require.Len(t, tr.TrackCalls(), 1)
	assert.Equal(t, &job.ClipRange{Start: 1, End: 2}, tr.TrackCalls()[0].J.Clip)
}

func TestResumer_ResumedWithRealTracker(t *testing.T) {
	cache := store.New(store.NewMemory(), store.Options{})
	j := job.Job{ID: "j3", Format: job.FormatMP4}
	cache.SaveActiveJob(j)
	calls := 0
	fetcher := &trmocks.FetcherMock{StatusFunc: func(context.Context, job.Job) (remote.StatusResponse, error) {
		calls++
		if calls < 3 {
			return remote.StatusResponse{Status: job.StatusQueued}, nil
		}
		return remote.StatusResponse{Status: job.StatusDone, OutputURL: "/gifs/j3.mp4"}, nil
	}}
	prof := tracker.Standard()
	prof.BaseInterval, prof.MaxInterval = time.Millisecond, 5*time.Millisecond
	tr := tracker.New(tracker.Params{Fetcher: fetcher, Store: cache, Profile: prof})
	var outcome tracker.Outcome
	tr.OnTerminal(func(o tracker.Outcome) { outcome = o })

	r := New(Params{Store: cache, Fetcher: fetcher, Tracker: tr, After: immediate})
	d, err := r.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, DecisionResumed, d)
	assert.Equal(t, tracker.OutcomeDone, outcome.Kind)
	res, ok := cache.CompletedResult()
	require.True(t, ok)
	assert.Equal(t, "/gifs/j3.mp4", res.OutputURL)
	assert.Equal(t, 3, calls)
}

func TestResumer_Interrupted(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	r := New(Params{Store: store.New(store.NewMemory(), store.Options{}), Delay: time.Hour})
	d, err := r.Run(ctx)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, DecisionNone, d)
}
