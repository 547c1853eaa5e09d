package driven

import (
	"context"
	"time"

	"github.com/ericfisherdev/heartsync/internal/domain/model"
)

// SampleStore defines the driven port for heart-rate persistence. It is the
// watermark store of the sync loop.
type SampleStore interface {
	// HighWaterMark returns the latest stored sample time. ok is false when
	// nothing has been stored yet.
	HighWaterMark(ctx context.Context) (watermark time.Time, ok bool, err error)

	// InsertSamples stores samples for userID and returns how many rows were
	// newly inserted. Rows whose (user, time) already exist are skipped
	// silently. An empty slice performs no I/O and returns 0.
	InsertSamples(ctx context.Context, samples []model.Sample, userID int64) (int, error)
}
