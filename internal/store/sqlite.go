package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/sbirscope/transition-cli/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite, for local runs
// with no Postgres available.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS detections (
	award_id    TEXT NOT NULL,
	contract_id TEXT NOT NULL,
	score       REAL NOT NULL,
	confidence  TEXT NOT NULL,
	factors     TEXT,
	method      TEXT NOT NULL,
	updated_at  DATETIME NOT NULL DEFAULT (datetime('now')),
	PRIMARY KEY (award_id, contract_id)
);

CREATE TABLE IF NOT EXISTS runs (
	id          TEXT PRIMARY KEY,
	started_at  DATETIME NOT NULL,
	finished_at DATETIME NOT NULL,
	awards      INTEGER NOT NULL,
	contracts   INTEGER NOT NULL,
	detections  INTEGER NOT NULL,
	warnings    INTEGER NOT NULL DEFAULT 0,
	metrics     TEXT
);

CREATE INDEX IF NOT EXISTS idx_detections_score ON detections(score);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) SaveDetections(ctx context.Context, detections []model.Detection) (int64, error) {
	if len(detections) == 0 {
		return 0, nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: begin tx")
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO detections (award_id, contract_id, score, confidence, factors, method, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (award_id, contract_id) DO UPDATE SET
		  score = excluded.score,
		  confidence = excluded.confidence,
		  factors = excluded.factors,
		  method = excluded.method,
		  updated_at = excluded.updated_at`)
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: prepare upsert")
	}
	defer stmt.Close()

	var n int64
	now := time.Now().UTC()
	for _, d := range detections {
		factorsJSON, err := json.Marshal(d.Factors)
		if err != nil {
			return n, eris.Wrapf(err, "sqlite: marshal factors for %s", d.Key())
		}
		if _, err := stmt.ExecContext(ctx,
			d.AwardID, d.ContractID, d.Score, string(d.Confidence), string(factorsJSON), d.Method, now,
		); err != nil {
			return n, eris.Wrapf(err, "sqlite: upsert detection %s", d.Key())
		}
		n++
	}

	if err := tx.Commit(); err != nil {
		return n, eris.Wrap(err, "sqlite: commit")
	}
	return n, nil
}

func (s *SQLiteStore) ListDetections(ctx context.Context, minScore float64) ([]model.Detection, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT award_id, contract_id, score, confidence, factors, method
		FROM detections
		WHERE score >= ?
		ORDER BY score DESC, award_id, contract_id`, minScore)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: query detections")
	}
	defer rows.Close()

	var out []model.Detection
	for rows.Next() {
		var (
			d           model.Detection
			confidence  string
			factorsJSON sql.NullString
		)
		if err := rows.Scan(&d.AwardID, &d.ContractID, &d.Score, &confidence, &factorsJSON, &d.Method); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan detection")
		}
		d.Confidence = model.Confidence(confidence)
		if factorsJSON.Valid && factorsJSON.String != "" {
			if err := json.Unmarshal([]byte(factorsJSON.String), &d.Factors); err != nil {
				return nil, eris.Wrapf(err, "sqlite: unmarshal factors for %s", d.Key())
			}
		}
		out = append(out, d)
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "sqlite: iterate detections")
	}
	return out, nil
}

func (s *SQLiteStore) SaveRun(ctx context.Context, run RunRecord) error {
	metricsJSON, err := json.Marshal(run.Metrics)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal run metrics")
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO runs (id, started_at, finished_at, awards, contracts, detections, warnings, metrics)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
		  finished_at = excluded.finished_at,
		  detections = excluded.detections,
		  warnings = excluded.warnings,
		  metrics = excluded.metrics`,
		run.ID, run.StartedAt, run.FinishedAt, run.Awards, run.Contracts, run.Detections, run.Warnings, string(metricsJSON),
	)
	return eris.Wrap(err, "sqlite: save run")
}
