// Package store persists detection runs. Detections are derived, re-creatable
// artifacts: persistence is an idempotent upsert keyed on (award_id,
// contract_id), so an aborted run can simply be re-run from the start.
package store

import (
	"context"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sbirscope/transition-cli/internal/config"
	"github.com/sbirscope/transition-cli/internal/model"
)

// RunRecord captures the metadata of one detection run.
type RunRecord struct {
	ID         string         `json:"id"`
	StartedAt  time.Time      `json:"started_at"`
	FinishedAt time.Time      `json:"finished_at"`
	Awards     int            `json:"awards"`
	Contracts  int            `json:"contracts"`
	Detections int            `json:"detections"`
	Warnings   int64          `json:"warnings"`
	Metrics    map[string]any `json:"metrics,omitempty"`
}

// Store defines the persistence interface for detection runs.
type Store interface {
	// SaveDetections upserts detections keyed on (award_id, contract_id).
	// Re-saving the same detections is a no-op update.
	SaveDetections(ctx context.Context, detections []model.Detection) (int64, error)
	// ListDetections returns persisted detections at or above minScore,
	// newest runs' values winning for duplicate pairs.
	ListDetections(ctx context.Context, minScore float64) ([]model.Detection, error)
	// SaveRun records run metadata.
	SaveRun(ctx context.Context, run RunRecord) error

	Migrate(ctx context.Context) error
	Close() error
}

// Open creates a Store from configuration.
func Open(ctx context.Context, cfg config.StoreConfig) (Store, error) {
	switch cfg.Driver {
	case "postgres":
		return NewPostgres(ctx, cfg.DatabaseURL)
	case "sqlite":
		return NewSQLite(cfg.SQLitePath)
	default:
		return nil, eris.Errorf("store: unknown driver %q", cfg.Driver)
	}
}
