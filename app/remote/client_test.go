package remote

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/umputun/convtrack/app/job"
)

func TestClient_New(t *testing.T) {
	c, err := New("http://localhost:5000/", Paths{Status: "/api/status/%s"})
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:5000", c.baseURL.String())
	assert.Equal(t, "/start", c.paths.Start)
	assert.Equal(t, "/api/status/%s", c.paths.Status)
	assert.Equal(t, "/clip/progress/%s", c.paths.ClipStatus)

	_, err = New("ftp://localhost", Paths{})
	require.Error(t, err)
	_, err = New("://bad", Paths{})
	require.Error(t, err)
}

func TestClient_StartJob(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/start", r.URL.Path)
		require.NoError(t, r.ParseMultipartForm(1024*1024))
		f, hdr, err := r.FormFile("video")
		require.NoError(t, err)
		defer f.Close()
		body, err := io.ReadAll(f)
		require.NoError(t, err)
		assert.Equal(t, "clip.mp4", hdr.Filename)
		assert.Equal(t, "some video bytes", string(body))
		assert.Equal(t, "avif", r.FormValue("format"))
		assert.Equal(t, "out-name", r.FormValue("filename"))
		_, _ = w.Write([]byte(`{"job_id":"j1","format":"avif"}`))
	}))
	defer ts.Close()

	c, err := New(ts.URL, Paths{})
	require.NoError(t, err)
	j, err := c.StartJob(context.Background(), StartRequest{FileName: "/tmp/clip.mp4",
		Body: strings.NewReader("some video bytes"), Format: job.FormatAVIF, OutputName: "out-name"})
	require.NoError(t, err)
	assert.Equal(t, "j1", j.ID)
	assert.Equal(t, job.FormatAVIF, j.Format)
	assert.True(t, j.StartedAt.IsZero(), "start time stamped by caller")
}

func TestClient_StartJobErrors(t *testing.T) {
	tbl := []struct {
		name   string
		code   int
		body   string
		errMsg string
	}{
		{"rejected", http.StatusBadRequest, `{"error":"No video file"}`, "No video file"},
		{"rejected with 200", http.StatusOK, `{"error":"too big"}`, "too big"},
		{"no job id", http.StatusOK, `{"format":"gif"}`, "malformed response"},
		{"not json", http.StatusOK, `<html>`, "malformed response"},
		{"server error", http.StatusInternalServerError, ``, "unexpected status code 500"},
	}

	for _, tt := range tbl {
		t.Run(tt.name, func(t *testing.T) {
			ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.code)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer ts.Close()
			c, err := New(ts.URL, Paths{})
			require.NoError(t, err)
			_, err = c.StartJob(context.Background(), StartRequest{FileName: "a.mov", Body: bytes.NewReader([]byte("x")),
				Format: job.FormatGIF})
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}
}

func TestClient_Status(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/progress/j1":
			_, _ = w.Write([]byte(`{"status":"running","message":"50%"}`))
		case "/progress/j2":
			_, _ = w.Write([]byte(`{"status":"done","format":"webp","gif_url":"/gifs/j2.webp?v=1","params":{"fps":15}}`))
		case "/progress/j3":
			_, _ = w.Write([]byte(`{"status":"exploded"}`))
		default:
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"error":"Job not found"}`))
		}
	}))
	defer ts.Close()

	c, err := New(ts.URL, Paths{})
	require.NoError(t, err)

	st, err := c.Status(context.Background(), job.Job{ID: "j1"})
	require.NoError(t, err)
	assert.Equal(t, job.StatusRunning, st.Status)
	assert.Equal(t, "50%", st.Message)

	st, err = c.Status(context.Background(), job.Job{ID: "j2"})
	require.NoError(t, err)
	assert.Equal(t, job.StatusDone, st.Status)
	assert.Equal(t, "/gifs/j2.webp?v=1", st.OutputURL)
	assert.InDelta(t, 15, st.Params["fps"], 0.001)

	_, err = c.Status(context.Background(), job.Job{ID: "j3"})
	assert.ErrorIs(t, err, ErrMalformed)

	_, err = c.Status(context.Background(), job.Job{ID: "nope"})
	var httpErr *HTTPError
	require.ErrorAs(t, err, &httpErr)
	assert.Equal(t, http.StatusNotFound, httpErr.Code)
	assert.Equal(t, "Job not found", httpErr.Message)
}

func TestClient_StatusContextCancel(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(time.Second):
		}
	}))
	defer ts.Close()

	c, err := New(ts.URL, Paths{})
	require.NoError(t, err)
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = c.Status(ctx, job.Job{ID: "j1"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.DeadlineExceeded))
}

func TestClient_CancelAndQueue(t *testing.T) {
	var cancelled string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodPost && strings.HasPrefix(r.URL.Path, "/cancel/"):
			cancelled = strings.TrimPrefix(r.URL.Path, "/cancel/")
			_, _ = w.Write([]byte(`{"status":"cancelled"}`))
		case r.URL.Path == "/queue":
			_, _ = w.Write([]byte(`{"queued":3,"total":4}`))
		default:
			w.WriteHeader(http.StatusBadRequest)
		}
	}))
	defer ts.Close()

	c, err := New(ts.URL, Paths{})
	require.NoError(t, err)
	require.NoError(t, c.Cancel(context.Background(), "j9"))
	assert.Equal(t, "j9", cancelled)

	n, err := c.QueueDepth(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, n)
}

func TestClient_QueueMalformed(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"total":4}`))
	}))
	defer ts.Close()
	c, err := New(ts.URL, Paths{})
	require.NoError(t, err)
	_, err = c.QueueDepth(context.Background())
	assert.ErrorIs(t, err, ErrMalformed)
}

func TestClient_Download(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/gifs/j1.avif" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		assert.Equal(t, "v=123", r.URL.RawQuery)
		_, _ = w.Write([]byte("image data"))
	}))
	defer ts.Close()

	c, err := New(ts.URL, Paths{})
	require.NoError(t, err)

	buf := &bytes.Buffer{}
	require.NoError(t, c.Download(context.Background(), "/gifs/j1.avif?v=123", buf))
	assert.Equal(t, "image data", buf.String())

	buf.Reset()
	require.NoError(t, c.Download(context.Background(), ts.URL+"/gifs/j1.avif?v=123", buf), "absolute url")
	assert.Equal(t, "image data", buf.String())

	err = c.Download(context.Background(), "/gifs/missing.gif", io.Discard)
	var httpErr *HTTPError
	require.ErrorAs(t, err, &httpErr)
	assert.Equal(t, http.StatusNotFound, httpErr.Code)
}

func TestOutputFileName(t *testing.T) {
	tbl := []struct {
		in, out string
	}{
		{"/gifs/j1.avif?v=123", "j1.avif"},
		{"http://example.com/gifs/abc.gif", "abc.gif"},
		{"j2.mp4", "j2.mp4"},
		{"/", ""},
		{"", ""},
	}
	for _, tt := range tbl {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.out, OutputFileName(tt.in))
		})
	}
}

func TestClient_StartClip(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/clip/start", r.URL.Path)
		require.NoError(t, r.ParseMultipartForm(1024*1024))
		_, hdr, err := r.FormFile("video")
		require.NoError(t, err)
		assert.Equal(t, "holiday.mkv", hdr.Filename)
		assert.Equal(t, "1.5", r.FormValue("start_time"))
		assert.Equal(t, "10", r.FormValue("end_time"))
		assert.Empty(t, r.FormValue("format"))
		_, _ = w.Write([]byte(`{"job_id":"c1"}`))
	}))
	defer ts.Close()

	c, err := New(ts.URL, Paths{})
	require.NoError(t, err)
	j, err := c.StartClip(context.Background(), ClipRequest{FileName: "/tmp/holiday.mkv", Body: strings.NewReader("v"),
		Range: job.ClipRange{Start: 1.5, End: 10}})
	require.NoError(t, err)
	assert.Equal(t, job.Job{ID: "c1", Kind: job.KindClip, Format: "mkv", Clip: &job.ClipRange{Start: 1.5, End: 10}}, j)

	_, err = c.StartClip(context.Background(), ClipRequest{FileName: "a.mp4", Body: strings.NewReader("v"),
		Range: job.ClipRange{Start: 5, End: 1}})
	require.Error(t, err, "bad range rejected before upload")
}

func TestClient_ClipStatus(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/clip/progress/c1":
			_, _ = w.Write([]byte(`{"status":"done","video_url":"/gifs/c1_clipped.mp4","start_time":1,"end_time":2}`))
		case "/progress/c1":
			_, _ = w.Write([]byte(`{"status":"done","gif_url":"/gifs/wrong.gif"}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer ts.Close()

	c, err := New(ts.URL, Paths{})
	require.NoError(t, err)
	st, err := c.Status(context.Background(), job.Job{ID: "c1", Kind: job.KindClip})
	require.NoError(t, err)
	assert.Equal(t, job.StatusDone, st.Status)
	assert.Equal(t, "/gifs/c1_clipped.mp4", st.OutputURL)

	st, err = c.Status(context.Background(), job.Job{ID: "c1"})
	require.NoError(t, err)
	assert.Equal(t, "/gifs/wrong.gif", st.OutputURL, "conversion status reads gif_url")
}

func TestClient_ClearCache(t *testing.T) {
	var calls []string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls = append(calls, r.Method+" "+r.URL.Path)
		if r.URL.Path == "/clip/clear_cache/gone" {
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"error":"No cached files or job found for this ID"}`))
			return
		}
		_, _ = w.Write([]byte(`{"success":true,"deleted_files":["x"],"job_removed":true}`))
	}))
	defer ts.Close()

	c, err := New(ts.URL, Paths{})
	require.NoError(t, err)
	require.NoError(t, c.ClearCache(context.Background(), "c1"))

	err = c.ClearCache(context.Background(), "gone")
	var httpErr *HTTPError
	require.ErrorAs(t, err, &httpErr)
	assert.Equal(t, http.StatusNotFound, httpErr.Code)
	assert.Equal(t, []string{"POST /clip/clear_cache/c1", "POST /clip/clear_cache/gone"}, calls)
}
