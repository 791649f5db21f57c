package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sbirscope/transition-cli/internal/config"
	"github.com/sbirscope/transition-cli/internal/model"
)

func newTestSQLite(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := NewSQLite(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	require.NoError(t, s.Migrate(context.Background()))
	return s
}

func sampleDetections() []model.Detection {
	return []model.Detection{
		{
			AwardID: "A1", ContractID: "C1", Score: 0.85, Confidence: model.ConfidenceHigh,
			Factors: map[string]float64{"base": 0.30, "agency": 0.25}, Method: "composite_v1",
		},
		{
			AwardID: "A2", ContractID: "C2", Score: 0.62, Confidence: model.ConfidencePossible,
			Method: "composite_v1",
		},
	}
}

func TestSQLiteStore_SaveAndListDetections(t *testing.T) {
	s := newTestSQLite(t)
	ctx := context.Background()

	n, err := s.SaveDetections(ctx, sampleDetections())
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	got, err := s.ListDetections(ctx, 0)
	require.NoError(t, err)
	require.Len(t, got, 2)

	assert.Equal(t, "A1", got[0].AwardID, "ordered by score desc")
	assert.Equal(t, model.ConfidenceHigh, got[0].Confidence)
	assert.InDelta(t, 0.30, got[0].Factors["base"], 1e-9)
	assert.Equal(t, "A2", got[1].AwardID)
}

func TestSQLiteStore_ListDetections_MinScore(t *testing.T) {
	s := newTestSQLite(t)
	ctx := context.Background()

	_, err := s.SaveDetections(ctx, sampleDetections())
	require.NoError(t, err)

	got, err := s.ListDetections(ctx, 0.7)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "A1", got[0].AwardID)
}

func TestSQLiteStore_SaveDetections_Idempotent(t *testing.T) {
	s := newTestSQLite(t)
	ctx := context.Background()

	_, err := s.SaveDetections(ctx, sampleDetections())
	require.NoError(t, err)

	// Re-saving the same pairs with a changed score overwrites in place.
	updated := sampleDetections()
	updated[0].Score = 0.90
	_, err = s.SaveDetections(ctx, updated)
	require.NoError(t, err)

	got, err := s.ListDetections(ctx, 0)
	require.NoError(t, err)
	require.Len(t, got, 2, "no duplicate rows for the same pair")
	assert.InDelta(t, 0.90, got[0].Score, 1e-9)
}

func TestSQLiteStore_SaveDetections_Empty(t *testing.T) {
	s := newTestSQLite(t)

	n, err := s.SaveDetections(context.Background(), nil)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestSQLiteStore_SaveRun_Upsert(t *testing.T) {
	s := newTestSQLite(t)
	ctx := context.Background()

	run := RunRecord{
		ID:         "run-1",
		StartedAt:  time.Now().UTC().Add(-time.Minute),
		FinishedAt: time.Now().UTC(),
		Awards:     100,
		Contracts:  500,
		Detections: 42,
		Warnings:   3,
		Metrics:    map[string]any{"detections_per_minute": 12000.0},
	}
	require.NoError(t, s.SaveRun(ctx, run))

	run.Detections = 43
	require.NoError(t, s.SaveRun(ctx, run), "re-saving the same run ID updates in place")
}

func TestOpen_UnknownDriver(t *testing.T) {
	_, err := Open(context.Background(), config.StoreConfig{Driver: "oracle"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown driver")
}

func TestOpen_SQLite(t *testing.T) {
	s, err := Open(context.Background(), config.StoreConfig{
		Driver:     "sqlite",
		SQLitePath: filepath.Join(t.TempDir(), "open.db"),
	})
	require.NoError(t, err)
	defer s.Close()
	assert.NoError(t, s.Migrate(context.Background()))
}
