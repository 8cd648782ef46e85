package model

import (
	"fmt"
	"time"
)

// RunLog is the chronological, append-only log for one batch run. It is the
// collaborator-facing diagnostic surface; entries are discarded with the run.
// Not safe for concurrent use: the runner is strictly sequential.
type RunLog struct {
	now     func() time.Time
	entries []string
}

// NewRunLog creates an empty run log using the wall clock.
func NewRunLog() *RunLog {
	return &RunLog{now: time.Now}
}

// Logf appends a timestamped entry.
func (l *RunLog) Logf(format string, args ...any) {
	ts := l.now().Format("15:04:05")
	l.entries = append(l.entries, fmt.Sprintf("[%s] %s", ts, fmt.Sprintf(format, args...)))
}

// Entries returns the log lines in append order.
func (l *RunLog) Entries() []string {
	return l.entries
}
