package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sbirscope/transition-cli/internal/model"
)

func chtemp(t *testing.T) {
	t.Helper()
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) })
}

func TestLoadDefaults(t *testing.T) {
	// Change to temp dir so no config.yaml is found
	chtemp(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "sqlite", cfg.Store.Driver)
	assert.Equal(t, "transition.db", cfg.Store.SQLitePath)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)

	assert.InDelta(t, 0.30, cfg.Scoring.BaseScore, 0.001)
	assert.InDelta(t, 0.25, cfg.Scoring.SameAgencyBonus, 0.001)
	assert.InDelta(t, 0.10, cfg.Scoring.CrossAgencyBonus, 0.001)
	assert.InDelta(t, 0.20, cfg.Scoring.Bucket0to3Bonus, 0.001)
	assert.InDelta(t, 0.12, cfg.Scoring.Bucket3to12Bonus, 0.001)
	assert.InDelta(t, 0.05, cfg.Scoring.Bucket12to24Bonus, 0.001)
	assert.InDelta(t, 0.60, cfg.Scoring.ScoreThreshold, 0.001)
	assert.InDelta(t, 0.85, cfg.Scoring.Cutpoints.High, 0.001)
	assert.InDelta(t, 0.70, cfg.Scoring.Cutpoints.Likely, 0.001)
	assert.Equal(t, 24, cfg.Scoring.MaxLookbackMonths)
	assert.Equal(t, 0, cfg.Scoring.BackdateToleranceDays)

	assert.InDelta(t, 0.85, cfg.Resolver.FuzzyPrimaryThreshold, 0.001)
	assert.InDelta(t, 0.70, cfg.Resolver.FuzzySecondaryThreshold, 0.001)
	assert.Equal(t, "TECH", cfg.Resolver.Abbreviations["TECHNOLOGIES"])

	assert.InDelta(t, 10000, cfg.Perf.TargetDetectionsPerMinute, 0.001)
	assert.Equal(t, 500, cfg.Perf.BatchSize)
	assert.Equal(t, 8, cfg.Perf.MaxWorkers)

	assert.NoError(t, cfg.Validate(), "defaults must validate")
}

func TestLoadFromYAML(t *testing.T) {
	chtemp(t)

	yaml := `
store:
  driver: postgres
  database_url: postgres://localhost/transitions
log:
  level: debug
  format: console
scoring:
  score_threshold: 0.55
  max_lookback_months: 36
perf:
  max_workers: 2
`
	dir, _ := os.Getwd()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0o644))

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "postgres", cfg.Store.Driver)
	assert.Equal(t, "postgres://localhost/transitions", cfg.Store.DatabaseURL)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.InDelta(t, 0.55, cfg.Scoring.ScoreThreshold, 0.001)
	assert.Equal(t, 36, cfg.Scoring.MaxLookbackMonths)
	assert.Equal(t, 2, cfg.Perf.MaxWorkers)

	// Untouched keys keep their defaults.
	assert.InDelta(t, 0.30, cfg.Scoring.BaseScore, 0.001)
}

func TestLoadFromEnv(t *testing.T) {
	chtemp(t)
	t.Setenv("TRANSITION_SCORING_SCORE_THRESHOLD", "0.65")
	t.Setenv("TRANSITION_PERF_BATCH_SIZE", "100")

	cfg, err := Load()
	require.NoError(t, err)

	assert.InDelta(t, 0.65, cfg.Scoring.ScoreThreshold, 0.001)
	assert.Equal(t, 100, cfg.Perf.BatchSize)
}

func validConfig() *Config {
	return &Config{
		Store: StoreConfig{Driver: "sqlite", SQLitePath: "test.db"},
		Log:   LogConfig{Level: "info", Format: "json"},
		Scoring: ScoringConfig{
			BaseScore:               0.30,
			SameAgencyBonus:         0.25,
			CrossAgencyBonus:        0.10,
			Bucket0to3Bonus:         0.20,
			Bucket3to12Bonus:        0.12,
			Bucket12to24Bonus:       0.05,
			SoleSourceBonus:         0.10,
			LimitedCompetitionBonus: 0.05,
			MaxLookbackMonths:       24,
			ScoreThreshold:          0.60,
			Cutpoints:               model.ScoreCutpoints{High: 0.85, Likely: 0.70},
		},
		Resolver: ResolverConfig{FuzzyPrimaryThreshold: 0.85, FuzzySecondaryThreshold: 0.70},
		Perf:     PerfConfig{TargetDetectionsPerMinute: 10000, BatchSize: 500, MaxWorkers: 8},
	}
}

func TestValidate_OK(t *testing.T) {
	assert.NoError(t, validConfig().Validate())
}

func TestValidate_Errors(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		message string
	}{
		{
			"weight out of range",
			func(c *Config) { c.Scoring.BaseScore = 1.5 },
			"scoring.base_score",
		},
		{
			"cross exceeds same agency",
			func(c *Config) { c.Scoring.CrossAgencyBonus = 0.5 },
			"cross_agency_bonus",
		},
		{
			"timing buckets not decaying",
			func(c *Config) { c.Scoring.Bucket12to24Bonus = 0.9 },
			"non-increasing",
		},
		{
			"cutpoints out of order",
			func(c *Config) { c.Scoring.Cutpoints.High = 0.65 },
			"cutpoints.high",
		},
		{
			"likely below threshold",
			func(c *Config) { c.Scoring.Cutpoints.Likely = 0.5 },
			"cutpoints.likely",
		},
		{
			"zero lookback",
			func(c *Config) { c.Scoring.MaxLookbackMonths = 0 },
			"max_lookback_months",
		},
		{
			"secondary above primary",
			func(c *Config) { c.Resolver.FuzzySecondaryThreshold = 0.95 },
			"fuzzy_secondary_threshold",
		},
		{
			"postgres without url",
			func(c *Config) { c.Store = StoreConfig{Driver: "postgres"} },
			"database_url",
		},
		{
			"unknown driver",
			func(c *Config) { c.Store.Driver = "oracle" },
			"not supported",
		},
		{
			"zero workers",
			func(c *Config) { c.Perf.MaxWorkers = 0 },
			"max_workers",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.message)
		})
	}
}

func TestValidate_CollectsMultipleErrors(t *testing.T) {
	cfg := validConfig()
	cfg.Scoring.BaseScore = -1
	cfg.Perf.BatchSize = 0

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "scoring.base_score")
	assert.Contains(t, err.Error(), "perf.batch_size")
}

func TestInitLogger(t *testing.T) {
	assert.NoError(t, InitLogger(LogConfig{Level: "debug", Format: "console"}))
	assert.NoError(t, InitLogger(LogConfig{Level: "info", Format: "json"}))
	assert.Error(t, InitLogger(LogConfig{Level: "nope", Format: "json"}))
}
