// Package metrics defines the Prometheus instruments exported by heartsync.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Outcome label values.
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)

var (
	// CyclesTotal counts finished sync cycles by outcome ("success" or the error kind).
	CyclesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "heartsync_cycles_total",
			Help: "Total number of sync cycles by outcome",
		},
		[]string{"outcome"},
	)

	CycleDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "heartsync_cycle_duration_seconds",
			Help:    "Duration of sync cycles in seconds",
			Buckets: []float64{0.5, 1, 2.5, 5, 10, 30, 60, 120, 300}, // Login via browser can take a minute.
		},
	)

	LoginsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "heartsync_logins_total",
			Help: "Total number of interactive logins by outcome",
		},
		[]string{"outcome"},
	)

	SamplesFetched = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "heartsync_samples_fetched_total",
			Help: "Total number of heart-rate samples fetched from the metrics API",
		},
	)

	SamplesInserted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "heartsync_samples_inserted_total",
			Help: "Total number of heart-rate samples newly stored",
		},
	)

	LastSuccess = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "heartsync_last_success_timestamp_seconds",
			Help: "Unix timestamp of the last successful sync cycle",
		},
	)
)

// RecordCycle updates the cycle instruments for a finished cycle. outcome is
// OutcomeSuccess or an error kind name.
func RecordCycle(outcome string, duration time.Duration, fetched, inserted int, finishedAt time.Time) {
	CyclesTotal.WithLabelValues(outcome).Inc()
	CycleDuration.Observe(duration.Seconds())
	SamplesFetched.Add(float64(fetched))
	SamplesInserted.Add(float64(inserted))
	if outcome == OutcomeSuccess {
		LastSuccess.Set(float64(finishedAt.Unix()))
	}
}

// RecordLogin counts an interactive login attempt.
func RecordLogin(err error) {
	if err != nil {
		LoginsTotal.WithLabelValues(OutcomeFailure).Inc()
		return
	}
	LoginsTotal.WithLabelValues(OutcomeSuccess).Inc()
}
