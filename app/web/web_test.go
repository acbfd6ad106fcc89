package web

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/umputun/convtrack/app/job"
	"github.com/umputun/convtrack/app/service"
	"github.com/umputun/convtrack/app/tracker"
	"github.com/umputun/convtrack/app/web/mocks"
)

func TestServer_State(t *testing.T) {
	svc := &mocks.ServiceMock{StateFunc: func() service.State {
		return service.State{
			Tracker:      tracker.Snapshot{State: tracker.StatePolling, Job: &job.Job{ID: "j1", Format: job.FormatGIF}, Status: job.StatusRunning},
			ActiveJob:    &job.Job{ID: "j1", Format: job.FormatGIF},
			AutoDownload: true,
		}
	}}
	ts := httptest.NewServer(New(Config{Service: svc}).routes())
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/api/v1/state")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))

	var res struct {
		Tracker struct {
			State  string `json:"state"`
			Status string `json:"status"`
		} `json:"tracker"`
		ActiveJob    *job.Job `json:"active_job"`
		AutoDownload bool     `json:"auto_download"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&res))
	assert.Equal(t, "polling", res.Tracker.State)
	assert.Equal(t, "running", res.Tracker.Status)
	require.NotNil(t, res.ActiveJob)
	assert.Equal(t, "j1", res.ActiveJob.ID)
	assert.True(t, res.AutoDownload)
}

func TestServer_History(t *testing.T) {
	ts0 := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	svc := &mocks.ServiceMock{HistoryFunc: func() []job.HistoryEntry {
		return []job.HistoryEntry{
			job.NewHistoryEntry(job.Result{OutputURL: "/gifs/2.webp", Format: job.FormatWEBP}, ts0.Add(time.Minute)),
			job.NewHistoryEntry(job.Result{OutputURL: "/gifs/1.gif", Format: job.FormatGIF}, ts0),
		}
	}}
	ts := httptest.NewServer(New(Config{Service: svc}).routes())
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/api/v1/history")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var res []job.HistoryEntry
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&res))
	require.Len(t, res, 2)
	assert.Equal(t, "/gifs/2.webp", res[0].URL)
	assert.Equal(t, "/gifs/1.gif", res[1].URL)
	assert.Equal(t, "no-cache, no-store, no-transform, must-revalidate, private, max-age=0", resp.Header.Get("Cache-Control"))
}

func TestServer_Queue(t *testing.T) {
	tests := []struct {
		name       string
		depth      int
		err        error
		wantStatus int
		wantBody   string
	}{
		{name: "ok", depth: 3, wantStatus: http.StatusOK, wantBody: `{"queued":3}`},
		{name: "remote failure", err: errors.New("connection refused"), wantStatus: http.StatusBadGateway,
			wantBody: `{"error":"failed to get queue depth"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &mocks.ServiceMock{QueueDepthFunc: func(ctx context.Context) (int, error) {
				_, ok := ctx.Deadline()
				assert.True(t, ok, "timeout expected")
				return tt.depth, tt.err
			}}
			ts := httptest.NewServer(New(Config{Service: svc}).routes())
			defer ts.Close()

			resp, err := http.Get(ts.URL + "/api/v1/queue")
			require.NoError(t, err)
			defer resp.Body.Close()
			assert.Equal(t, tt.wantStatus, resp.StatusCode)
			body, err := io.ReadAll(resp.Body)
			require.NoError(t, err)
			assert.JSONEq(t, tt.wantBody, string(body))
		})
	}
}

func TestServer_Cancel(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{name: "cancelled", wantStatus: http.StatusOK},
		{name: "nothing to cancel", err: service.ErrNoActiveJob, wantStatus: http.StatusConflict},
		{name: "failure", err: errors.New("boom"), wantStatus: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &mocks.ServiceMock{CancelFunc: func(context.Context) error { return tt.err }}
			ts := httptest.NewServer(New(Config{Service: svc}).routes())
			defer ts.Close()

			resp, err := http.Post(ts.URL+"/api/v1/cancel", "application/json", http.NoBody)
			require.NoError(t, err)
			defer resp.Body.Close()
			assert.Equal(t, tt.wantStatus, resp.StatusCode)
			assert.Len(t, svc.CancelCalls(), 1)
		})
	}

	t.Run("get not allowed", func(t *testing.T) {
		svc := &mocks.ServiceMock{}
		ts := httptest.NewServer(New(Config{Service: svc}).routes())
		defer ts.Close()
		resp, err := http.Get(ts.URL + "/api/v1/cancel")
		require.NoError(t, err)
		defer resp.Body.Close()
		assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
		assert.Empty(t, svc.CancelCalls())
	})
}

func TestServer_Visibility(t *testing.T) {
	gate := tracker.NewGate()
	ts := httptest.NewServer(New(Config{Service: &mocks.ServiceMock{}, Visibility: gate}).routes())
	defer ts.Close()

	post := func(body string) (int, string) {
		resp, err := http.Post(ts.URL+"/api/v1/visibility", "application/json", strings.NewReader(body))
		require.NoError(t, err)
		defer resp.Body.Close()
		b, err := io.ReadAll(resp.Body)
		require.NoError(t, err)
		return resp.StatusCode, string(b)
	}

	code, body := post(`{"visible": false}`)
	assert.Equal(t, http.StatusOK, code)
	assert.JSONEq(t, `{"visible":false}`, body)
	assert.False(t, gate.Visible())

	code, body = post(`{"visible": true}`)
	assert.Equal(t, http.StatusOK, code)
	assert.JSONEq(t, `{"visible":true}`, body)
	assert.True(t, gate.Visible())

	code, _ = post(`{}`)
	assert.Equal(t, http.StatusBadRequest, code)
	code, _ = post(`not json`)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.True(t, gate.Visible())
}

func TestServer_VisibilityDisabled(t *testing.T) {
	ts := httptest.NewServer(New(Config{Service: &mocks.ServiceMock{}}).routes())
	defer ts.Close()
	resp, err := http.Post(ts.URL+"/api/v1/visibility", "application/json", strings.NewReader(`{"visible": false}`))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestServer_RateLimit(t *testing.T) {
	svc := &mocks.ServiceMock{CancelFunc: func(context.Context) error { return nil }}
	ts := httptest.NewServer(New(Config{Service: svc, RateLimit: 1}).routes())
	defer ts.Close()

	var limited bool
	for range 5 {
		resp, err := http.Post(ts.URL+"/api/v1/cancel", "application/json", http.NoBody)
		require.NoError(t, err)
		resp.Body.Close()
		if resp.StatusCode == http.StatusTooManyRequests {
			limited = true
		}
	}
	assert.True(t, limited)
	assert.Less(t, len(svc.CancelCalls()), 5)
}

func TestServer_Metrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	tracker.NewMetrics(reg)
	ts := httptest.NewServer(New(Config{Service: &mocks.ServiceMock{}, Registry: reg}).routes())
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "convtrack_poll_interval_seconds")

	ts2 := httptest.NewServer(New(Config{Service: &mocks.ServiceMock{}}).routes())
	defer ts2.Close()
	resp2, err := http.Get(ts2.URL + "/metrics")
	require.NoError(t, err)
	defer resp2.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp2.StatusCode)
}

func TestServer_Auth(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("secret"), bcrypt.MinCost)
	require.NoError(t, err)
	svc := &mocks.ServiceMock{StateFunc: func() service.State { return service.State{} }}
	ts := httptest.NewServer(New(Config{Service: svc, PasswordHash: string(hash)}).routes())
	defer ts.Close()

	get := func(path, user, passwd string) int {
		req, err := http.NewRequest(http.MethodGet, ts.URL+path, http.NoBody)
		require.NoError(t, err)
		if user != "" {
			req.SetBasicAuth(user, passwd)
		}
		resp, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		defer resp.Body.Close()
		return resp.StatusCode
	}

	assert.Equal(t, http.StatusUnauthorized, get("/api/v1/state", "", ""))
	assert.Equal(t, http.StatusUnauthorized, get("/api/v1/state", "convtrack", "bad"))
	assert.Equal(t, http.StatusUnauthorized, get("/api/v1/state", "admin", "secret"))
	assert.Equal(t, http.StatusOK, get("/api/v1/state", "convtrack", "secret"))
	assert.Equal(t, http.StatusOK, get("/ping", "", ""), "ping is open")
	assert.Len(t, svc.StateCalls(), 1)
}

func TestServer_Run(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	svc := &mocks.ServiceMock{StateFunc: func() service.State { return service.State{} }}
	srv := New(Config{Service: svc, Version: "test"})

	done := make(chan error, 1)
	go func() { done <- srv.Run(ctx, "127.0.0.1:18791") }()

	require.Eventually(t, func() bool {
		resp, err := http.Get("http://127.0.0.1:18791/ping")
		if err != nil {
			return false
		}
		defer resp.Body.Close()
		return resp.StatusCode == http.StatusOK && resp.Header.Get("App-Name") == "convtrack"
	}, 5*time.Second, 50*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(10 * time.Second):
		t.Fatal("server not stopped")
	}
}
