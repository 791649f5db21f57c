package config

import (
	"fmt"
	"strings"

	"github.com/rotisserie/eris"
)

// Validate checks the configuration for internal consistency. A bad
// configuration is fatal at startup: silently running with wrong weights
// would produce misleading detections.
func (c *Config) Validate() error {
	var errs []string

	errs = append(errs, c.Scoring.validate()...)
	errs = append(errs, c.Resolver.validate()...)
	errs = append(errs, c.Perf.validate()...)

	switch c.Store.Driver {
	case "postgres":
		if c.Store.DatabaseURL == "" {
			errs = append(errs, "store.database_url required for postgres driver")
		}
	case "sqlite":
		if c.Store.SQLitePath == "" {
			errs = append(errs, "store.sqlite_path required for sqlite driver")
		}
	case "":
		errs = append(errs, "store.driver must be set")
	default:
		errs = append(errs, fmt.Sprintf("store.driver %q not supported (postgres, sqlite)", c.Store.Driver))
	}

	if len(errs) > 0 {
		return eris.Errorf("config: validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}

func (s ScoringConfig) validate() []string {
	var errs []string

	weights := map[string]float64{
		"scoring.base_score":                s.BaseScore,
		"scoring.same_agency_bonus":         s.SameAgencyBonus,
		"scoring.cross_agency_bonus":        s.CrossAgencyBonus,
		"scoring.bucket_0_3_bonus":          s.Bucket0to3Bonus,
		"scoring.bucket_3_12_bonus":         s.Bucket3to12Bonus,
		"scoring.bucket_12_24_bonus":        s.Bucket12to24Bonus,
		"scoring.sole_source_bonus":         s.SoleSourceBonus,
		"scoring.limited_competition_bonus": s.LimitedCompetitionBonus,
		"scoring.patent_bonus":              s.PatentBonus,
		"scoring.patent_timing_bonus":       s.PatentTimingBonus,
		"scoring.patent_topic_bonus":        s.PatentTopicBonus,
		"scoring.tech_area_bonus":           s.TechAreaBonus,
		"scoring.text_sim_weight":           s.TextSimWeight,
	}
	for name, w := range weights {
		if w < 0 || w > 1 {
			errs = append(errs, fmt.Sprintf("%s must be in [0,1], got %v", name, w))
		}
	}

	// Bonus ordering: same-agency dominates cross-agency, sole-source
	// dominates limited competition, timing buckets decay.
	if s.CrossAgencyBonus > s.SameAgencyBonus {
		errs = append(errs, "scoring.cross_agency_bonus must not exceed same_agency_bonus")
	}
	if s.LimitedCompetitionBonus > s.SoleSourceBonus {
		errs = append(errs, "scoring.limited_competition_bonus must not exceed sole_source_bonus")
	}
	if s.Bucket3to12Bonus > s.Bucket0to3Bonus || s.Bucket12to24Bonus > s.Bucket3to12Bonus {
		errs = append(errs, "scoring timing bucket bonuses must be non-increasing")
	}

	if s.ScoreThreshold < 0 || s.ScoreThreshold > 1 {
		errs = append(errs, fmt.Sprintf("scoring.score_threshold must be in [0,1], got %v", s.ScoreThreshold))
	}
	if s.Cutpoints.High <= s.Cutpoints.Likely {
		errs = append(errs, "scoring.cutpoints.high must exceed cutpoints.likely")
	}
	if s.Cutpoints.Likely <= s.ScoreThreshold {
		errs = append(errs, "scoring.cutpoints.likely must exceed score_threshold")
	}

	if s.MaxLookbackMonths <= 0 {
		errs = append(errs, "scoring.max_lookback_months must be > 0")
	}
	if s.BackdateToleranceDays < 0 {
		errs = append(errs, "scoring.backdate_tolerance_days must be >= 0")
	}

	return errs
}

func (r ResolverConfig) validate() []string {
	var errs []string
	if r.FuzzyPrimaryThreshold <= 0 || r.FuzzyPrimaryThreshold > 1 {
		errs = append(errs, "resolver.fuzzy_primary_threshold must be in (0,1]")
	}
	if r.FuzzySecondaryThreshold <= 0 || r.FuzzySecondaryThreshold > 1 {
		errs = append(errs, "resolver.fuzzy_secondary_threshold must be in (0,1]")
	}
	if r.FuzzySecondaryThreshold > r.FuzzyPrimaryThreshold {
		errs = append(errs, "resolver.fuzzy_secondary_threshold must not exceed fuzzy_primary_threshold")
	}
	return errs
}

func (p PerfConfig) validate() []string {
	var errs []string
	if p.TargetDetectionsPerMinute <= 0 {
		errs = append(errs, "perf.target_detections_per_minute must be > 0")
	}
	if p.BatchSize <= 0 {
		errs = append(errs, "perf.batch_size must be > 0")
	}
	if p.MaxWorkers <= 0 {
		errs = append(errs, "perf.max_workers must be > 0")
	}
	return errs
}
