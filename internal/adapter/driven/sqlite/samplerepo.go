package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/ericfisherdev/heartsync/internal/domain/model"
	"github.com/ericfisherdev/heartsync/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.SampleStore = (*SampleRepo)(nil)

// SampleRepo is the SQLite implementation of the SampleStore port interface.
// Sample times are stored as epoch milliseconds.
type SampleRepo struct {
	db *DB
}

// NewSampleRepo creates a new SampleRepo backed by the given DB.
func NewSampleRepo(db *DB) *SampleRepo {
	return &SampleRepo{db: db}
}

// HighWaterMark returns the latest stored sample time across all users.
func (r *SampleRepo) HighWaterMark(ctx context.Context) (time.Time, bool, error) {
	const query = `SELECT MAX(time) FROM heart_rate`

	var maxMS sql.NullInt64
	if err := r.db.Reader.QueryRowContext(ctx, query).Scan(&maxMS); err != nil {
		return time.Time{}, false, fmt.Errorf("query high-water mark: %w", err)
	}
	if !maxMS.Valid {
		return time.Time{}, false, nil
	}

	return time.UnixMilli(maxMS.Int64).UTC(), true, nil
}

// InsertSamples inserts samples for userID inside one transaction. Rows that
// collide on (user_id, time) are skipped; the count of new rows is returned.
func (r *SampleRepo) InsertSamples(ctx context.Context, samples []model.Sample, userID int64) (inserted int, err error) {
	if len(samples) == 0 {
		return 0, nil
	}

	const query = `
		INSERT INTO heart_rate (time, bpm, user_id) VALUES (?, ?, ?)
		ON CONFLICT (user_id, time) DO NOTHING
	`

	tx, err := r.db.Writer.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin insert samples: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	stmt, err := tx.PrepareContext(ctx, query)
	if err != nil {
		return 0, fmt.Errorf("prepare insert sample: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	for _, s := range samples {
		res, err := stmt.ExecContext(ctx, s.EpochMillis(), s.BPM, userID)
		if err != nil {
			return 0, fmt.Errorf("insert sample at %d: %w", s.EpochMillis(), err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return 0, fmt.Errorf("rows affected: %w", err)
		}
		inserted += int(n)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit insert samples: %w", err)
	}

	return inserted, nil
}
