// Package config loads and validates the application configuration.
// Scoring weights, time windows, and thresholds are never hard-coded in
// detection logic — they always arrive through a Config value passed into
// each component's constructor. "Reload" means constructing a new Config
// and recreating dependents, never mutating shared state.
package config

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/sbirscope/transition-cli/internal/model"
)

// Config holds the full application configuration.
type Config struct {
	Store    StoreConfig    `yaml:"store" mapstructure:"store"`
	Log      LogConfig      `yaml:"log" mapstructure:"log"`
	Scoring  ScoringConfig  `yaml:"scoring" mapstructure:"scoring"`
	Resolver ResolverConfig `yaml:"resolver" mapstructure:"resolver"`
	Perf     PerfConfig     `yaml:"perf" mapstructure:"perf"`
}

// StoreConfig configures the detection store backend.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
	SQLitePath  string `yaml:"sqlite_path" mapstructure:"sqlite_path"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// ScoringConfig holds the weights and windows for the transition scoring
// composite. All contributions are additive on top of BaseScore and the
// result is clipped to [0,1].
type ScoringConfig struct {
	BaseScore float64 `yaml:"base_score" mapstructure:"base_score"`

	// Agency relationship.
	SameAgencyBonus  float64 `yaml:"same_agency_bonus" mapstructure:"same_agency_bonus"`
	CrossAgencyBonus float64 `yaml:"cross_agency_bonus" mapstructure:"cross_agency_bonus"`

	// Timing buckets, months from award reference date to contract action date.
	Bucket0to3Bonus   float64 `yaml:"bucket_0_3_bonus" mapstructure:"bucket_0_3_bonus"`
	Bucket3to12Bonus  float64 `yaml:"bucket_3_12_bonus" mapstructure:"bucket_3_12_bonus"`
	Bucket12to24Bonus float64 `yaml:"bucket_12_24_bonus" mapstructure:"bucket_12_24_bonus"`

	// Competition type.
	SoleSourceBonus         float64 `yaml:"sole_source_bonus" mapstructure:"sole_source_bonus"`
	LimitedCompetitionBonus float64 `yaml:"limited_competition_bonus" mapstructure:"limited_competition_bonus"`

	// Patent evidence, each independently additive.
	PatentBonus       float64 `yaml:"patent_bonus" mapstructure:"patent_bonus"`
	PatentTimingBonus float64 `yaml:"patent_timing_bonus" mapstructure:"patent_timing_bonus"`
	PatentTopicBonus  float64 `yaml:"patent_topic_bonus" mapstructure:"patent_topic_bonus"`

	// Technology-area alignment.
	TechAreaBonus float64 `yaml:"tech_area_bonus" mapstructure:"tech_area_bonus"`

	// Free-text description similarity, lowest weight.
	TextSimWeight float64 `yaml:"text_sim_weight" mapstructure:"text_sim_weight"`

	// Windows and thresholds.
	MaxLookbackMonths     int     `yaml:"max_lookback_months" mapstructure:"max_lookback_months"`
	BackdateToleranceDays int     `yaml:"backdate_tolerance_days" mapstructure:"backdate_tolerance_days"`
	ScoreThreshold        float64 `yaml:"score_threshold" mapstructure:"score_threshold"`

	Cutpoints model.ScoreCutpoints `yaml:"cutpoints" mapstructure:"cutpoints"`
}

// ResolverConfig configures vendor identity resolution.
type ResolverConfig struct {
	// FuzzyPrimaryThreshold auto-accepts a name match on its own.
	FuzzyPrimaryThreshold float64 `yaml:"fuzzy_primary_threshold" mapstructure:"fuzzy_primary_threshold"`
	// FuzzySecondaryThreshold accepts a weaker name match only with a
	// corroborating signal such as a matching agency.
	FuzzySecondaryThreshold float64 `yaml:"fuzzy_secondary_threshold" mapstructure:"fuzzy_secondary_threshold"`
	// Abbreviations maps long name terms to canonical short forms,
	// e.g. TECHNOLOGIES -> TECH. Applied during name normalization.
	Abbreviations map[string]string `yaml:"abbreviations" mapstructure:"abbreviations"`
}

// PerfConfig configures batch execution and the throughput target.
type PerfConfig struct {
	TargetDetectionsPerMinute float64 `yaml:"target_detections_per_minute" mapstructure:"target_detections_per_minute"`
	BatchSize                 int     `yaml:"batch_size" mapstructure:"batch_size"`
	MaxWorkers                int     `yaml:"max_workers" mapstructure:"max_workers"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("TRANSITION")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.sqlite_path", "transition.db")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	v.SetDefault("scoring.base_score", 0.30)
	v.SetDefault("scoring.same_agency_bonus", 0.25)
	v.SetDefault("scoring.cross_agency_bonus", 0.10)
	v.SetDefault("scoring.bucket_0_3_bonus", 0.20)
	v.SetDefault("scoring.bucket_3_12_bonus", 0.12)
	v.SetDefault("scoring.bucket_12_24_bonus", 0.05)
	v.SetDefault("scoring.sole_source_bonus", 0.10)
	v.SetDefault("scoring.limited_competition_bonus", 0.05)
	v.SetDefault("scoring.patent_bonus", 0.08)
	v.SetDefault("scoring.patent_timing_bonus", 0.04)
	v.SetDefault("scoring.patent_topic_bonus", 0.05)
	v.SetDefault("scoring.tech_area_bonus", 0.07)
	v.SetDefault("scoring.text_sim_weight", 0.05)
	v.SetDefault("scoring.max_lookback_months", 24)
	v.SetDefault("scoring.backdate_tolerance_days", 0)
	v.SetDefault("scoring.score_threshold", 0.60)
	v.SetDefault("scoring.cutpoints.high", 0.85)
	v.SetDefault("scoring.cutpoints.likely", 0.70)

	v.SetDefault("resolver.fuzzy_primary_threshold", 0.85)
	v.SetDefault("resolver.fuzzy_secondary_threshold", 0.70)
	v.SetDefault("resolver.abbreviations", map[string]string{
		"TECHNOLOGIES":  "TECH",
		"TECHNOLOGY":    "TECH",
		"LABORATORIES":  "LABS",
		"LABORATORY":    "LAB",
		"MANUFACTURING": "MFG",
		"INTERNATIONAL": "INTL",
		"SYSTEMS":       "SYS",
		"SOLUTIONS":     "SOL",
	})

	v.SetDefault("perf.target_detections_per_minute", 10000)
	v.SetDefault("perf.batch_size", 500)
	v.SetDefault("perf.max_workers", 8)
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
