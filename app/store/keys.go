package store

import (
	"github.com/umputun/convtrack/app/job"
)

// well-known keys of the persisted layout
const (
	KeyActiveJob       = "activeJob"
	KeyCompletedResult = "completedResult"
	KeyHistory         = "conversionHistory"
	KeyAutoDownload    = "autoDownloadPreference"
)

// Keys lists all well-known keys, watched for cross-context changes
var Keys = []string{KeyActiveJob, KeyCompletedResult, KeyHistory, KeyAutoDownload}

// SaveActiveJob stores the pointer to the job in progress. Completed result, if any, is not touched
func (c *Cache) SaveActiveJob(j job.Job) {
	c.Put(KeyActiveJob, j)
}

// ActiveJob returns the job in progress
func (c *Cache) ActiveJob() (job.Job, bool) {
	var j job.Job
	if !c.Get(KeyActiveJob, &j) || j.ID == "" {
		return job.Job{}, false
	}
	return j, true
}

// ClearActiveJob removes the active job pointer
func (c *Cache) ClearActiveJob() {
	c.Clear(KeyActiveJob)
}

// SaveCompletedResult stores the result and clears the active job, both are never present together
func (c *Cache) SaveCompletedResult(r job.Result) {
	c.ClearActiveJob()
	c.Put(KeyCompletedResult, r)
}

// CompletedResult returns the result of the last finished job
func (c *Cache) CompletedResult() (job.Result, bool) {
	var r job.Result
	if !c.Get(KeyCompletedResult, &r) || r.OutputURL == "" {
		return job.Result{}, false
	}
	return r, true
}

// ClearCompletedResult removes the stored result
func (c *Cache) ClearCompletedResult() {
	c.Clear(KeyCompletedResult)
}

// SetAutoDownload stores auto-download preference
func (c *Cache) SetAutoDownload(enabled bool) {
	c.Put(KeyAutoDownload, enabled)
}

// AutoDownload returns auto-download preference, false if never set
func (c *Cache) AutoDownload() bool {
	var enabled bool
	if !c.Get(KeyAutoDownload, &enabled) {
		return false
	}
	return enabled
}

// PushHistory prepends entry to the history and truncates it to the capacity, most recent first
func (c *Cache) PushHistory(e job.HistoryEntry) {
	list := append([]job.HistoryEntry{e}, c.History()...)
	if len(list) > c.historySize {
		list = list[:c.historySize]
	}
	c.Put(KeyHistory, list)
}

// History returns non-expired history entries, most recent first.
// Expired entries are dropped from the store as a side effect.
func (c *Cache) History() []job.HistoryEntry {
	var list []job.HistoryEntry
	if !c.Get(KeyHistory, &list) {
		return []job.HistoryEntry{}
	}

	now := c.now()
	res := make([]job.HistoryEntry, 0, len(list))
	for _, e := range list {
		if now.Sub(e.Timestamp) > c.ttl {
			continue
		}
		res = append(res, e)
	}

	if len(res) == len(list) {
		return res
	}
	if len(res) == 0 {
		c.Clear(KeyHistory)
		return res
	}
	c.Put(KeyHistory, res)
	return res
}
