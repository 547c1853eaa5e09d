package model

import "time"

// Sample is a single heart-rate observation.
type Sample struct {
	BPM  int
	Time time.Time // Millisecond precision.
}

// SampleFromEpochMillis builds a Sample from the API's epoch-millisecond timestamp.
func SampleFromEpochMillis(bpm int, ms int64) Sample {
	return Sample{BPM: bpm, Time: time.UnixMilli(ms).UTC()}
}

// EpochMillis returns the sample time as milliseconds since the Unix epoch.
func (s Sample) EpochMillis() int64 {
	return s.Time.UnixMilli()
}
