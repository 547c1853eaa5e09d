package postgres

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

const (
	highWaterMarkQuery = `SELECT MAX(time) FROM heart_rate`

	insertSampleQuery = `
		INSERT INTO heart_rate (time, bpm, user_id) VALUES ($1, $2, $3)
		ON CONFLICT (user_id, time) DO NOTHING
	`
)

// SampleRepo is the PostgreSQL implementation of the SampleStore port interface.
type SampleRepo struct {
	db *sql.DB
}

// NewSampleRepo creates a new SampleRepo backed by db.
func NewSampleRepo(db *sql.DB) *SampleRepo {
	return &SampleRepo{db: db}
}

// HighWaterMark returns the latest stored sample time across all users.
func (r *SampleRepo) HighWaterMark(ctx context.Context) (time.Time, bool, error) {
	var maxTime sql.NullTime
	if err := r.db.QueryRowContext(ctx, highWaterMarkQuery).Scan(&maxTime); err != nil {
		return time.Time{}, false, fmt.Errorf("query high-water mark: %w", err)
	}
	if !maxTime.Valid {
		return time.Time{}, false, nil
	}

	return maxTime.Time.UTC(), true, nil
}

// InsertSamples inserts samples for userID in a single transaction, skipping
// rows that already exist for (user_id, time). Returns the number of new rows.
func (r *SampleRepo) InsertSamples(ctx context.Context, samples []model.Sample, userID int64) (inserted int, err error) {
	if len(samples) == 0 {
		return 0, nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin insert samples: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	stmt, err := tx.PrepareContext(ctx, insertSampleQuery)
	if err != nil {
		return 0, fmt.Errorf("prepare insert sample: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	for _, s := range samples {
		res, err := stmt.ExecContext(ctx, s.Time.UTC(), s.BPM, userID)
		if err != nil {
			return 0, fmt.Errorf("insert sample at %s: %w", s.Time.UTC().Format(time.RFC3339Nano), err)
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
