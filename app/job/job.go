// Package job defines conversion job types shared by the cache, tracker and remote client
package job

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// Format is the requested output format of a conversion
type Format string

// supported formats
const (
	FormatAV1  Format = "av1"
	FormatAVIF Format = "avif"
	FormatWEBP Format = "webp"
	FormatMP4  Format = "mp4"
	FormatGIF  Format = "gif"
)

// DefaultFormat used by the conversion server when format is not set
const DefaultFormat = FormatAV1

// ParseFormat normalizes and validates format name. Empty string means DefaultFormat
func ParseFormat(s string) (Format, error) {
	f := Format(strings.ToLower(strings.TrimSpace(s)))
	switch f {
	case "":
		return DefaultFormat, nil
	case FormatAV1, FormatAVIF, FormatWEBP, FormatMP4, FormatGIF:
		return f, nil
	}
	return "", fmt.Errorf("unsupported format %q", s)
}

// Status reported by the job-status endpoint
type Status string

// job statuses
const (
	StatusQueued    Status = "queued"
	StatusRunning   Status = "running"
	StatusPredict   Status = "predict"
	StatusDone      Status = "done"
	StatusError     Status = "error"
	StatusCancelled Status = "cancelled"
)

// IsTerminal returns true for statuses with no further transitions
func (s Status) IsTerminal() bool {
	return s == StatusDone || s == StatusError || s == StatusCancelled
}

// IsActive returns true for statuses of a job still in progress
func (s Status) IsActive() bool {
	return s == StatusQueued || s == StatusRunning || s == StatusPredict
}

// Valid checks if status is one of known values
func (s Status) Valid() bool {
	return s.IsTerminal() || s.IsActive()
}

// Kind of the server job, conversion or clip. Each kind has its own status endpoint and output key
type Kind string

// job kinds, empty kind is a conversion
const (
	KindConvert Kind = ""
	KindClip    Kind = "clip"
)

// ClipRange is a time range cut out of the input, in seconds
type ClipRange struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
}

// ParseClipRange parses "start:end" in seconds, like "1.5:10"
func ParseClipRange(s string) (ClipRange, error) {
	start, end, ok := strings.Cut(strings.TrimSpace(s), ":")
	if !ok {
		return ClipRange{}, fmt.Errorf("clip range %q is not start:end", s)
	}
	var res ClipRange
	var err error
	if res.Start, err = strconv.ParseFloat(start, 64); err != nil {
		return ClipRange{}, fmt.Errorf("invalid clip start %q: %w", start, err)
	}
	if res.End, err = strconv.ParseFloat(end, 64); err != nil {
		return ClipRange{}, fmt.Errorf("invalid clip end %q: %w", end, err)
	}
	if err = res.Validate(); err != nil {
		return ClipRange{}, err
	}
	return res, nil
}

// Validate checks range is not negative and not empty
func (r ClipRange) Validate() error {
	if r.Start < 0 || r.End <= r.Start {
		return fmt.Errorf("invalid clip range %v:%v", r.Start, r.End)
	}
	return nil
}

// ClipFormat returns output format of a clip, server keeps container of the input for known video types
func ClipFormat(fileName string) Format {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(fileName), "."))
	switch ext {
	case "mp4", "mov", "avi", "mkv", "webm":
		return Format(ext)
	}
	return FormatMP4
}

// Job is a submitted, server-tracked conversion or clip
type Job struct {
	ID        string     `json:"id"`
	Kind      Kind       `json:"kind,omitempty"`
	Format    Format     `json:"format"`
	Clip      *ClipRange `json:"clip,omitempty"`
	StartedAt time.Time  `json:"startedAt"`
}

// IsClip returns true for clip jobs
func (j Job) IsClip() bool {
	return j.Kind == KindClip
}

// Result of a successfully completed conversion or clip
type Result struct {
	OutputURL string         `json:"outputUrl"`
	Format    Format         `json:"format"`
	Params    map[string]any `json:"params,omitempty"`
	ClipID    string         `json:"clipId,omitempty"` // server job of a clip, its files are dropped after download
}

// HistoryEntry is a single record of the conversion history, carries its own timestamp for expiration
type HistoryEntry struct {
	URL         string         `json:"url"`
	Format      Format         `json:"format"`
	Params      map[string]any `json:"params,omitempty"`
	Timestamp   time.Time      `json:"timestamp"`
	DisplayDate string         `json:"displayDate"`
}

// NewHistoryEntry makes history record for a result completed at ts
func NewHistoryEntry(r Result, ts time.Time) HistoryEntry {
	return HistoryEntry{
		URL:         r.OutputURL,
		Format:      r.Format,
		Params:      r.Params,
		Timestamp:   ts,
		DisplayDate: ts.Format("2006-01-02 15:04"),
	}
}
