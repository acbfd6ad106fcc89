// Package remote implements http client for the conversion server endpoints:
// start-job, job-status, cancel-job, queue-depth, output download and the clip workflow.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"path"
	"strconv"
	"strings"

	log "github.com/go-pkgz/lgr"

	"github.com/umputun/convtrack/app/job"
)

// ErrMalformed returned for responses which can't be decoded or don't make sense
var ErrMalformed = errors.New("malformed response")

// HTTPError returned for non-2xx responses
type HTTPError struct {
	Code    int
	Message string // error field of the response, if any
}

func (e *HTTPError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("unexpected status code %d: %s", e.Code, e.Message)
	}
	return fmt.Sprintf("unexpected status code %d", e.Code)
}

// Paths of the server endpoints, %s replaced by job id
type Paths struct {
	Start      string
	Status     string
	Cancel     string
	Queue      string
	ClipStart  string
	ClipStatus string
	ClipClear  string
}

// DefaultPaths used by the conversion server
var DefaultPaths = Paths{Start: "/start", Status: "/progress/%s", Cancel: "/cancel/%s", Queue: "/queue",
	ClipStart: "/clip/start", ClipStatus: "/clip/progress/%s", ClipClear: "/clip/clear_cache/%s"}

// Client talks to the conversion server
type Client struct {
	baseURL *url.URL
	paths   Paths
	http    *http.Client
}

// StartRequest is an upload of a media file to convert
type StartRequest struct {
	FileName   string
	Body       io.Reader
	Format     job.Format
	OutputName string // optional output file name
}

// ClipRequest is an upload of a video to cut the range out of
type ClipRequest struct {
	FileName string
	Body     io.Reader
	Range    job.ClipRange
}

// StatusResponse is the payload of job-status endpoint. OutputURL is taken from gif_url for conversions
// and from video_url for clips
type StatusResponse struct {
	Status    job.Status     `json:"status"`
	Message   string         `json:"message,omitempty"`
	Format    job.Format     `json:"format,omitempty"`
	OutputURL string         `json:"gif_url,omitempty"`
	Params    map[string]any `json:"params,omitempty"`
	Error     string         `json:"error,omitempty"`
}

// New makes Client for server base url, like http://localhost:5000.
// Empty paths set to DefaultPaths. Request deadlines are controlled by caller's context
func New(baseURL string, paths Paths) (*Client, error) {
	u, err := url.Parse(strings.TrimSuffix(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("invalid server url %q: %w", baseURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("unsupported scheme in server url %q", baseURL)
	}
	if paths.Start == "" {
		paths.Start = DefaultPaths.Start
	}
	if paths.Status == "" {
		paths.Status = DefaultPaths.Status
	}
	if paths.Cancel == "" {
		paths.Cancel = DefaultPaths.Cancel
	}
	if paths.Queue == "" {
		paths.Queue = DefaultPaths.Queue
	}
	if paths.ClipStart == "" {
		paths.ClipStart = DefaultPaths.ClipStart
	}
	if paths.ClipStatus == "" {
		paths.ClipStatus = DefaultPaths.ClipStatus
	}
	if paths.ClipClear == "" {
		paths.ClipClear = DefaultPaths.ClipClear
	}
	return &Client{baseURL: u, paths: paths, http: &http.Client{}}, nil
}

// StartJob uploads the file and returns created job. StartedAt is left for the caller to set
func (c *Client) StartJob(ctx context.Context, req StartRequest) (job.Job, error) {
	fields := [][2]string{{"format", string(req.Format)}}
	if req.OutputName != "" {
		fields = append(fields, [2]string{"filename", req.OutputName})
	}
	resp, err := c.upload(ctx, c.paths.Start, req.FileName, req.Body, fields)
	if err != nil {
		return job.Job{}, fmt.Errorf("start job: %w", err)
	}
	format := resp.Format
	if format == "" {
		format = req.Format
	}
	return job.Job{ID: resp.JobID, Format: format}, nil
}

// StartClip uploads the video and starts cutting the range out of it
func (c *Client) StartClip(ctx context.Context, req ClipRequest) (job.Job, error) {
	if err := req.Range.Validate(); err != nil {
		return job.Job{}, err
	}
	fields := [][2]string{
		{"start_time", strconv.FormatFloat(req.Range.Start, 'f', -1, 64)},
		{"end_time", strconv.FormatFloat(req.Range.End, 'f', -1, 64)},
	}
	resp, err := c.upload(ctx, c.paths.ClipStart, req.FileName, req.Body, fields)
	if err != nil {
		return job.Job{}, fmt.Errorf("start clip: %w", err)
	}
	rng := req.Range
	return job.Job{ID: resp.JobID, Kind: job.KindClip, Format: job.ClipFormat(req.FileName), Clip: &rng}, nil
}

type uploadResponse struct {
	JobID  string     `json:"job_id"`
	Format job.Format `json:"format"`
	Error  string     `json:"error"`
}

// upload posts multipart form with the file as "video" and extra fields in order
func (c *Client) upload(ctx context.Context, p, fileName string, body io.Reader, fields [][2]string) (uploadResponse, error) {
	buf := &bytes.Buffer{}
	mw := multipart.NewWriter(buf)
	fw, err := mw.CreateFormFile("video", path.Base(fileName))
	if err != nil {
		return uploadResponse{}, fmt.Errorf("failed to make form file: %w", err)
	}
	if _, err = io.Copy(fw, body); err != nil {
		return uploadResponse{}, fmt.Errorf("failed to read %s: %w", fileName, err)
	}
	for _, f := range fields {
		if err = mw.WriteField(f[0], f[1]); err != nil {
			return uploadResponse{}, fmt.Errorf("failed to write %s field: %w", f[0], err)
		}
	}
	if err = mw.Close(); err != nil {
		return uploadResponse{}, fmt.Errorf("failed to close multipart writer: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url(p), buf)
	if err != nil {
		return uploadResponse{}, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", mw.FormDataContentType())

	var resp uploadResponse
	if err = c.do(httpReq, &resp); err != nil {
		return uploadResponse{}, err
	}
	if resp.Error != "" {
		return uploadResponse{}, fmt.Errorf("rejected: %s", resp.Error)
	}
	if resp.JobID == "" {
		return uploadResponse{}, fmt.Errorf("no job id: %w", ErrMalformed)
	}
	return resp, nil
}

// Status returns current status of the job. Unknown status reported as ErrMalformed
func (c *Client) Status(ctx context.Context, j job.Job) (StatusResponse, error) {
	p := c.paths.Status
	if j.IsClip() {
		p = c.paths.ClipStatus
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url(fmt.Sprintf(p, url.PathEscape(j.ID))), http.NoBody)
	if err != nil {
		return StatusResponse{}, fmt.Errorf("failed to create request: %w", err)
	}
	var resp struct {
		StatusResponse
		VideoURL string `json:"video_url"`
	}
	if err := c.do(req, &resp); err != nil {
		return StatusResponse{}, fmt.Errorf("status of %s: %w", j.ID, err)
	}
	if !resp.Status.Valid() {
		return StatusResponse{}, fmt.Errorf("status of %s: unknown status %q: %w", j.ID, resp.Status, ErrMalformed)
	}
	res := resp.StatusResponse
	if j.IsClip() {
		res.OutputURL = resp.VideoURL
	}
	return res, nil
}

// Cancel asks server to cancel the job
func (c *Client) Cancel(ctx context.Context, jobID string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url(fmt.Sprintf(c.paths.Cancel, url.PathEscape(jobID))), http.NoBody)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if err := c.do(req, nil); err != nil {
		return fmt.Errorf("cancel %s: %w", jobID, err)
	}
	return nil
}

// ClearCache asks server to drop uploaded input and output of the clip job
func (c *Client) ClearCache(ctx context.Context, jobID string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url(fmt.Sprintf(c.paths.ClipClear, url.PathEscape(jobID))), http.NoBody)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if err := c.do(req, nil); err != nil {
		return fmt.Errorf("clear cache of %s: %w", jobID, err)
	}
	return nil
}

// QueueDepth returns number of queued and running jobs on the server
func (c *Client) QueueDepth(ctx context.Context) (int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url(c.paths.Queue), http.NoBody)
	if err != nil {
		return 0, fmt.Errorf("failed to create request: %w", err)
	}
	var resp struct {
		Queued *int `json:"queued"`
	}
	if err := c.do(req, &resp); err != nil {
		return 0, fmt.Errorf("queue depth: %w", err)
	}
	if resp.Queued == nil {
		return 0, fmt.Errorf("queue depth: no queued field: %w", ErrMalformed)
	}
	return *resp.Queued, nil
}

// Download writes the output referenced by outputURL (absolute or relative to server) to w
func (c *Client) Download(ctx context.Context, outputURL string, w io.Writer) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.Resolve(outputURL), http.NoBody)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("failed to download %s: %w", outputURL, err)
	}
	defer func() {
		if closeErr := resp.Body.Close(); closeErr != nil {
			log.Printf("[WARN] failed to close response body: %v", closeErr)
		}
	}()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &HTTPError{Code: resp.StatusCode}
	}
	if _, err := io.Copy(w, resp.Body); err != nil {
		return fmt.Errorf("failed to read %s: %w", outputURL, err)
	}
	return nil
}

// Resolve makes absolute url for a server-relative one
func (c *Client) Resolve(ref string) string {
	u, err := url.Parse(ref)
	if err != nil {
		return ref
	}
	return c.baseURL.ResolveReference(u).String()
}

// OutputFileName extracts file name from output url, drops query like ?v=123 cache buster
func OutputFileName(outputURL string) string {
	u, err := url.Parse(outputURL)
	if err != nil || path.Base(u.Path) == "/" || path.Base(u.Path) == "." {
		return ""
	}
	return path.Base(u.Path)
}

func (c *Client) url(p string) string {
	return c.baseURL.String() + p
}

// do sends request and decodes json response into res (if not nil)
func (c *Client) do(req *http.Request, res any) error {
	req.Header.Set("Accept", "application/json")
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer func() {
		if closeErr := resp.Body.Close(); closeErr != nil {
			log.Printf("[WARN] failed to close response body: %v", closeErr)
		}
	}()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1024*1024)) // 1MB limit
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		httpErr := &HTTPError{Code: resp.StatusCode}
		var errResp struct {
			Error string `json:"error"`
		}
		if json.Unmarshal(body, &errResp) == nil {
			httpErr.Message = errResp.Error
		}
		return httpErr
	}

	if res == nil {
		return nil
	}
	if err := json.Unmarshal(body, res); err != nil {
		return fmt.Errorf("can't decode response: %v: %w", err, ErrMalformed)
	}
	return nil
}
