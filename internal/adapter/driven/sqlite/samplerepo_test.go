package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ericfisherdev/heartsync/internal/domain/model"
)

var baseTime = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func makeSamples(bpms ...int) []model.Sample {
	samples := make([]model.Sample, 0, len(bpms))
	for i, bpm := range bpms {
		samples = append(samples, model.Sample{BPM: bpm, Time: baseTime.Add(time.Duration(i) * time.Minute)})
	}
	return samples
}

func TestSampleRepo_HighWaterMark_Empty(t *testing.T) {
	db := setupTestDB(t)
	repo := NewSampleRepo(db)

	got, ok, err := repo.HighWaterMark(context.Background())

	require.NoError(t, err)
	assert.False(t, ok)
	assert.True(t, got.IsZero())
}

func TestSampleRepo_InsertSamples(t *testing.T) {
	db := setupTestDB(t)
	repo := NewSampleRepo(db)
	ctx := context.Background()

	n, err := repo.InsertSamples(ctx, makeSamples(60, 61, 62), 12345)
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	assert.Equal(t, 3, countRows(t, db))

	wm, ok, err := repo.HighWaterMark(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	assert.True(t, baseTime.Add(2*time.Minute).Equal(wm))
	assert.Equal(t, time.UTC, wm.Location())
}

func TestSampleRepo_InsertSamples_Idempotent(t *testing.T) {
	db := setupTestDB(t)
	repo := NewSampleRepo(db)
	ctx := context.Background()

	samples := makeSamples(60, 61, 62)
	_, err := repo.InsertSamples(ctx, samples, 12345)
	require.NoError(t, err)

	n, err := repo.InsertSamples(ctx, samples, 12345)
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Equal(t, 3, countRows(t, db))
}

func TestSampleRepo_InsertSamples_FirstWriteWins(t *testing.T) {
	db := setupTestDB(t)
	repo := NewSampleRepo(db)
	ctx := context.Background()

	_, err := repo.InsertSamples(ctx, makeSamples(60), 12345)
	require.NoError(t, err)
	_, err = repo.InsertSamples(ctx, makeSamples(99), 12345)
	require.NoError(t, err)

	var bpm int
	require.NoError(t, db.Reader.QueryRowContext(ctx,
		`SELECT bpm FROM heart_rate WHERE user_id = ? AND time = ?`, 12345, baseTime.UnixMilli(),
	).Scan(&bpm))
	assert.Equal(t, 60, bpm)
}

func TestSampleRepo_InsertSamples_PartialOverlap(t *testing.T) {
	db := setupTestDB(t)
	repo := NewSampleRepo(db)
	ctx := context.Background()

	_, err := repo.InsertSamples(ctx, makeSamples(60, 61), 12345)
	require.NoError(t, err)

	n, err := repo.InsertSamples(ctx, makeSamples(60, 61, 62, 63), 12345)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, 4, countRows(t, db))
}

func TestSampleRepo_InsertSamples_SameTimeDifferentUsers(t *testing.T) {
	db := setupTestDB(t)
	repo := NewSampleRepo(db)
	ctx := context.Background()

	_, err := repo.InsertSamples(ctx, makeSamples(60), 1)
	require.NoError(t, err)
	n, err := repo.InsertSamples(ctx, makeSamples(70), 2)
	require.NoError(t, err)

	assert.Equal(t, 1, n)
	assert.Equal(t, 2, countRows(t, db))
}

func TestSampleRepo_InsertSamples_Empty(t *testing.T) {
	db := setupTestDB(t)
	repo := NewSampleRepo(db)

	n, err := repo.InsertSamples(context.Background(), nil, 12345)

	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Zero(t, countRows(t, db))
}

func TestSampleRepo_HighWaterMark_SpansUsers(t *testing.T) {
	db := setupTestDB(t)
	repo := NewSampleRepo(db)
	ctx := context.Background()

	_, err := repo.InsertSamples(ctx, makeSamples(60), 1)
	require.NoError(t, err)
	_, err = repo.InsertSamples(ctx, makeSamples(60, 61, 62, 63), 2)
	require.NoError(t, err)

	wm, ok, err := repo.HighWaterMark(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	assert.True(t, baseTime.Add(3*time.Minute).Equal(wm))
}

func TestSampleRepo_PreservesMillisecondPrecision(t *testing.T) {
	db := setupTestDB(t)
	repo := NewSampleRepo(db)
	ctx := context.Background()

	s := model.SampleFromEpochMillis(58, 1772366400123)
	_, err := repo.InsertSamples(ctx, []model.Sample{s}, 12345)
	require.NoError(t, err)

	wm, ok, err := repo.HighWaterMark(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, int64(1772366400123), wm.UnixMilli())
}

func TestSampleRepo_CanceledContext(t *testing.T) {
	db := setupTestDB(t)
	repo := NewSampleRepo(db)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := repo.InsertSamples(ctx, makeSamples(60), 12345)
	assert.Error(t, err)
	assert.Zero(t, countRows(t, db))
}

func TestRunMigrations_Idempotent(t *testing.T) {
	db := setupTestDB(t)

	require.NoError(t, RunMigrations(db.Writer))
}
