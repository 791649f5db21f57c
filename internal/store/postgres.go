package store

import (
	"context"
	"encoding/json"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/sbirscope/transition-cli/internal/db"
	"github.com/sbirscope/transition-cli/internal/model"
)

// PostgresStore implements Store on a pgx connection pool.
type PostgresStore struct {
	pool    db.Pool
	closeFn func()
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}
	pgxCfg.MaxConns = 10
	pgxCfg.MinConns = 2
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool, closeFn: pool.Close}, nil
}

// NewPostgresWithPool wraps an existing pool; used by tests with pgxmock.
func NewPostgresWithPool(pool db.Pool) *PostgresStore {
	return &PostgresStore{pool: pool, closeFn: func() {}}
}

const postgresMigration = `
CREATE SCHEMA IF NOT EXISTS transition;

CREATE TABLE IF NOT EXISTS transition.detections (
	award_id    TEXT NOT NULL,
	contract_id TEXT NOT NULL,
	score       DOUBLE PRECISION NOT NULL,
	confidence  TEXT NOT NULL,
	factors     JSONB,
	method      TEXT NOT NULL,
	updated_at  TIMESTAMPTZ NOT NULL DEFAULT now(),
	PRIMARY KEY (award_id, contract_id)
);

CREATE TABLE IF NOT EXISTS transition.runs (
	id          TEXT PRIMARY KEY,
	started_at  TIMESTAMPTZ NOT NULL,
	finished_at TIMESTAMPTZ NOT NULL,
	awards      INTEGER NOT NULL,
	contracts   INTEGER NOT NULL,
	detections  INTEGER NOT NULL,
	warnings    BIGINT NOT NULL DEFAULT 0,
	metrics     JSONB
);

CREATE INDEX IF NOT EXISTS idx_detections_score ON transition.detections(score);
CREATE INDEX IF NOT EXISTS idx_detections_confidence ON transition.detections(confidence);
`

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	s.closeFn()
	return nil
}

func (s *PostgresStore) SaveDetections(ctx context.Context, detections []model.Detection) (int64, error) {
	if len(detections) == 0 {
		return 0, nil
	}

	rows := make([][]any, 0, len(detections))
	for _, d := range detections {
		factorsJSON, err := json.Marshal(d.Factors)
		if err != nil {
			return 0, eris.Wrapf(err, "postgres: marshal factors for %s", d.Key())
		}
		rows = append(rows, []any{
			d.AwardID, d.ContractID, d.Score, string(d.Confidence), factorsJSON, d.Method, time.Now().UTC(),
		})
	}

	n, err := db.BulkUpsert(ctx, s.pool, db.UpsertConfig{
		Table:        "transition.detections",
		Columns:      []string{"award_id", "contract_id", "score", "confidence", "factors", "method", "updated_at"},
		ConflictKeys: []string{"award_id", "contract_id"},
	}, rows)
	if err != nil {
		return 0, eris.Wrap(err, "postgres: upsert detections")
	}
	return n, nil
}

func (s *PostgresStore) ListDetections(ctx context.Context, minScore float64) ([]model.Detection, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT award_id, contract_id, score, confidence, factors, method
		 FROM transition.detections
		 WHERE score >= $1
		 ORDER BY score DESC, award_id, contract_id`, minScore)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: query detections")
	}
	defer rows.Close()

	var out []model.Detection
	for rows.Next() {
		var (
			d           model.Detection
			confidence  string
			factorsJSON []byte
		)
		if err := rows.Scan(&d.AwardID, &d.ContractID, &d.Score, &confidence, &factorsJSON, &d.Method); err != nil {
			return nil, eris.Wrap(err, "postgres: scan detection")
		}
		d.Confidence = model.Confidence(confidence)
		if len(factorsJSON) > 0 {
			if err := json.Unmarshal(factorsJSON, &d.Factors); err != nil {
				return nil, eris.Wrapf(err, "postgres: unmarshal factors for %s", d.Key())
			}
		}
		out = append(out, d)
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "postgres: iterate detections")
	}
	return out, nil
}

func (s *PostgresStore) SaveRun(ctx context.Context, run RunRecord) error {
	metricsJSON, err := json.Marshal(run.Metrics)
	if err != nil {
		return eris.Wrap(err, "postgres: marshal run metrics")
	}
	_, err = s.pool.Exec(ctx,
		`INSERT INTO transition.runs (id, started_at, finished_at, awards, contracts, detections, warnings, metrics)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 ON CONFLICT (id) DO UPDATE SET
		   finished_at = EXCLUDED.finished_at,
		   detections = EXCLUDED.detections,
		   warnings = EXCLUDED.warnings,
		   metrics = EXCLUDED.metrics`,
		run.ID, run.StartedAt, run.FinishedAt, run.Awards, run.Contracts, run.Detections, run.Warnings, metricsJSON,
	)
	return eris.Wrap(err, "postgres: save run")
}
