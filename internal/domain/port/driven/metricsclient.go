package driven

import (
	"context"

	"github.com/ericfisherdev/heartsync/internal/domain/model"
)

// MetricsClient defines the driven port for the third-party metrics API.
type MetricsClient interface {
	// FetchHeartRate returns the heart-rate samples inside window ordered by
	// ascending time. A rejected token yields an error wrapping ErrAuthExpired;
	// any other non-success response yields a *FetchError. No retries are made.
	FetchHeartRate(ctx context.Context, cred model.Credential, window model.SyncWindow) ([]model.Sample, error)
}
