package model

import "time"

// SyncResult summarizes one completed synchronization cycle.
type SyncResult struct {
	CycleID   string
	UserID    int64
	Window    SyncWindow
	Fetched   int
	Inserted  int
	Relogins  int // Logins performed to recover from an expired token.
	StartedAt time.Time
	Duration  time.Duration
}

// CycleStatus is the observable state of the most recent cycle, successful or not.
type CycleStatus struct {
	Result     *SyncResult // Nil when the cycle failed.
	CycleID    string
	StartedAt  time.Time
	FinishedAt time.Time
	ErrorKind  string
	Error      string
}

// Succeeded reports whether the cycle completed without error.
func (s CycleStatus) Succeeded() bool {
	return s.Error == ""
}
