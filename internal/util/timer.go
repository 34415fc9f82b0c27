package util

import "time"

// Timer measures elapsed wall-clock time, used to record report render
// durations.
type Timer struct {
	start time.Time
}

// StartTimer creates a new timer starting at current time.
func StartTimer() Timer {
	return Timer{start: time.Now()}
}

// Elapsed returns the duration since start.
func (t Timer) Elapsed() time.Duration {
	if t.start.IsZero() {
		return 0
	}
	return time.Since(t.start)
}

// ElapsedMs returns the elapsed milliseconds since start.
func (t Timer) ElapsedMs() int64 {
	return t.Elapsed().Milliseconds()
}
