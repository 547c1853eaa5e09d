package postgres

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ericfisherdev/heartsync/internal/domain/model"
)

const (
	highWaterMarkPattern = `(?s)^SELECT\s+MAX\(time\)\s+FROM\s+heart_rate\s*$`
	insertSamplePattern  = `(?s)^\s*INSERT\s+INTO\s+heart_rate\s*\(time,\s*bpm,\s*user_id\)\s*VALUES\s*\(\$1,\s*\$2,\s*\$3\)\s*ON\s+CONFLICT\s*\(user_id,\s*time\)\s*DO\s+NOTHING\s*$`
)

var baseTime = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func newRepoWithMock(t *testing.T) (*SampleRepo, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return NewSampleRepo(db), mock
}

func TestSampleRepo_HighWaterMark_Empty(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectQuery(highWaterMarkPattern).
		WillReturnRows(sqlmock.NewRows([]string{"max"}).AddRow(nil))

	got, ok, err := repo.HighWaterMark(context.Background())

	require.NoError(t, err)
	assert.False(t, ok)
	assert.True(t, got.IsZero())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSampleRepo_HighWaterMark_ReturnsUTC(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	local := baseTime.In(time.FixedZone("CET", 3600))
	mock.ExpectQuery(highWaterMarkPattern).
		WillReturnRows(sqlmock.NewRows([]string{"max"}).AddRow(local))

	got, ok, err := repo.HighWaterMark(context.Background())

	require.NoError(t, err)
	require.True(t, ok)
	assert.True(t, baseTime.Equal(got))
	assert.Equal(t, time.UTC, got.Location())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSampleRepo_HighWaterMark_QueryError(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectQuery(highWaterMarkPattern).WillReturnError(errors.New("db down"))

	_, _, err := repo.HighWaterMark(context.Background())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "db down")
}

func TestSampleRepo_InsertSamples_CountsNewRows(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	samples := []model.Sample{
		{BPM: 60, Time: baseTime},
		{BPM: 61, Time: baseTime.Add(time.Minute)},
		{BPM: 62, Time: baseTime.Add(2 * time.Minute)},
	}

	mock.ExpectBegin()
	prep := mock.ExpectPrepare(insertSamplePattern)
	prep.ExpectExec().WithArgs(baseTime, 60, int64(12345)).WillReturnResult(sqlmock.NewResult(0, 1))
	prep.ExpectExec().WithArgs(baseTime.Add(time.Minute), 61, int64(12345)).WillReturnResult(sqlmock.NewResult(0, 0))
	prep.ExpectExec().WithArgs(baseTime.Add(2*time.Minute), 62, int64(12345)).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	n, err := repo.InsertSamples(context.Background(), samples, 12345)

	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSampleRepo_InsertSamples_Empty(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	n, err := repo.InsertSamples(context.Background(), nil, 12345)

	require.NoError(t, err)
	assert.Zero(t, n)
	assert.NoError(t, mock.ExpectationsWereMet(), "empty input must not touch the database")
}

func TestSampleRepo_InsertSamples_RollsBackOnError(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	samples := []model.Sample{
		{BPM: 60, Time: baseTime},
		{BPM: 61, Time: baseTime.Add(time.Minute)},
	}

	mock.ExpectBegin()
	prep := mock.ExpectPrepare(insertSamplePattern)
	prep.ExpectExec().WithArgs(baseTime, 60, int64(12345)).WillReturnResult(sqlmock.NewResult(0, 1))
	prep.ExpectExec().WithArgs(baseTime.Add(time.Minute), 61, int64(12345)).WillReturnError(errors.New("disk full"))
	mock.ExpectRollback()

	n, err := repo.InsertSamples(context.Background(), samples, 12345)

	require.Error(t, err)
	assert.Zero(t, n)
	assert.Contains(t, err.Error(), "disk full")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSampleRepo_InsertSamples_BeginError(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectBegin().WillReturnError(sql.ErrConnDone)

	_, err := repo.InsertSamples(context.Background(), []model.Sample{{BPM: 60, Time: baseTime}}, 12345)

	assert.ErrorIs(t, err, sql.ErrConnDone)
}
