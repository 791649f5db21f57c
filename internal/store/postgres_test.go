package store

import (
	"context"
	"testing"
	"time"

	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sbirscope/transition-cli/internal/model"
)

func TestPostgresStore_Migrate(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	s := NewPostgresWithPool(mock)

	mock.ExpectExec(`CREATE SCHEMA IF NOT EXISTS transition`).
		WillReturnResult(pgxmock.NewResult("CREATE", 0))

	assert.NoError(t, s.Migrate(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_ListDetections(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	s := NewPostgresWithPool(mock)

	rows := pgxmock.NewRows([]string{"award_id", "contract_id", "score", "confidence", "factors", "method"}).
		AddRow("A1", "C1", 0.85, "high", []byte(`{"base":0.3,"agency":0.25}`), "composite_v1").
		AddRow("A2", "C2", 0.62, "possible", []byte(nil), "composite_v1")

	mock.ExpectQuery(`SELECT award_id, contract_id, score, confidence, factors, method`).
		WithArgs(0.6).
		WillReturnRows(rows)

	got, err := s.ListDetections(context.Background(), 0.6)
	require.NoError(t, err)
	require.Len(t, got, 2)

	assert.Equal(t, "A1", got[0].AwardID)
	assert.Equal(t, model.ConfidenceHigh, got[0].Confidence)
	assert.InDelta(t, 0.25, got[0].Factors["agency"], 1e-9)
	assert.Nil(t, got[1].Factors)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_SaveRun(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	s := NewPostgresWithPool(mock)

	run := RunRecord{
		ID:         "run-1",
		StartedAt:  time.Now().UTC().Add(-time.Minute),
		FinishedAt: time.Now().UTC(),
		Awards:     100,
		Contracts:  500,
		Detections: 42,
		Warnings:   3,
		Metrics:    map[string]any{"meets_target": true},
	}

	mock.ExpectExec(`INSERT INTO transition.runs`).
		WithArgs(run.ID, run.StartedAt, run.FinishedAt, run.Awards, run.Contracts,
			run.Detections, run.Warnings, pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	assert.NoError(t, s.SaveRun(context.Background(), run))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_SaveDetections_Empty(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	s := NewPostgresWithPool(mock)

	n, err := s.SaveDetections(context.Background(), nil)
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.NoError(t, mock.ExpectationsWereMet())
}
