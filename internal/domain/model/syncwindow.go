package model

import "time"

// DefaultLookback is how far back the first sync reaches when nothing has been
// stored yet.
const DefaultLookback = 24 * time.Hour

// SyncWindow is the [Start, End] range requested from the metrics API in one cycle.
type SyncWindow struct {
	Start time.Time
	End   time.Time
}

// NewSyncWindow derives the window for a cycle starting at now. When hasWatermark
// is true the window starts exactly at the watermark; otherwise it reaches back
// DefaultLookback from now.
func NewSyncWindow(watermark time.Time, hasWatermark bool, now time.Time) SyncWindow {
	start := now.Add(-DefaultLookback)
	if hasWatermark {
		start = watermark
	}
	return SyncWindow{Start: start, End: now}
}

// Duration returns the length of the window.
func (w SyncWindow) Duration() time.Duration {
	return w.End.Sub(w.Start)
}
