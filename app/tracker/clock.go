package tracker

import "time"

// Clock abstracts time for the polling loop
type Clock interface {
	Now() time.Time
	After(d time.Duration) <-chan time.Time
}

// SystemClock is a Clock backed by the time package
type SystemClock struct{}

// Now returns current time
func (SystemClock) Now() time.Time { return time.Now() }

// After waits for the duration to elapse and then sends the current time on the returned channel
func (SystemClock) After(d time.Duration) <-chan time.Time { return time.After(d) }
