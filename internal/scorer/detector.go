package scorer

import (
	"math"
	"sort"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/sbirscope/transition-cli/internal/config"
	"github.com/sbirscope/transition-cli/internal/model"
	"github.com/sbirscope/transition-cli/internal/resolve"
)

// DetectionMethod tags every detection this engine emits.
const DetectionMethod = "composite_v1"

// Detector matches awards to candidate follow-on contracts. It is safe
// for concurrent use: all state is read-only after construction except
// the warning counter, which is atomic.
type Detector struct {
	cfg      config.ScoringConfig
	resolver *resolve.Resolver
	// patentsByAward is an externally supplied award -> patents mapping.
	patentsByAward map[string][]model.Patent

	warnings atomic.Int64
}

// NewDetector creates a Detector. patentsByAward may be nil when no
// patent evidence is available.
func NewDetector(cfg config.ScoringConfig, resolver *resolve.Resolver, patentsByAward map[string][]model.Patent) *Detector {
	return &Detector{
		cfg:            cfg,
		resolver:       resolver,
		patentsByAward: patentsByAward,
	}
}

// Warnings returns the number of malformed records skipped so far in
// this run.
func (d *Detector) Warnings() int64 {
	return d.warnings.Load()
}

// DetectForAward filters, resolves, and scores candidate contracts for a
// single award, returning one Detection per surviving pair. Candidate
// filtering happens before the more expensive resolution and scoring
// steps to bound cost on this fan-out-heavy path.
func (d *Detector) DetectForAward(award model.Award, candidates []model.Contract) []model.Detection {
	log := zap.L()

	if !award.Valid() {
		d.warnings.Add(1)
		log.Warn("detector: skipping malformed award",
			zap.String("award_id", award.ID))
		return nil
	}

	ref := award.ReferenceDate()
	earliest := ref.AddDate(0, 0, -d.cfg.BackdateToleranceDays)
	latest := ref.AddDate(0, d.cfg.MaxLookbackMonths, 0)
	awardKey := d.resolver.ResolveVendorID(resolve.AwardRecord(award))

	type scored struct {
		det         model.Detection
		timingDelta float64
		agency      float64
	}
	var kept []scored
	seen := map[string]int{} // detection key -> index in kept

	for _, c := range candidates {
		if !c.Valid() {
			d.warnings.Add(1)
			log.Warn("detector: skipping malformed contract",
				zap.String("contract_id", c.ID))
			continue
		}

		// Hard window cutoff before any scoring.
		if c.ActionDate.Before(earliest) || c.ActionDate.After(latest) {
			continue
		}

		// Vendor identity gate.
		contractKey := d.resolver.ResolveVendorID(resolve.ContractRecord(c))
		strength := d.resolver.MatchStrength(awardKey, contractKey)
		if strength == resolve.MatchNone {
			continue
		}

		score, factors := Score(award, c, d.patentsByAward[award.ID], d.cfg)
		if score < d.cfg.ScoreThreshold {
			continue
		}

		det := model.Detection{
			AwardID:    award.ID,
			ContractID: c.ID,
			Score:      score,
			Confidence: d.cfg.Cutpoints.BandFor(score),
			Factors:    factors,
			Method:     DetectionMethod,
		}

		s := scored{
			det:         det,
			timingDelta: math.Abs(c.ActionDate.Sub(ref).Hours()),
			agency:      factors[FactorAgency],
		}

		// Merge exact (award_id, contract_id) duplicates, keeping the
		// higher score. Distinct contracts are never deduplicated.
		if i, dup := seen[det.Key()]; dup {
			if det.Score > kept[i].det.Score {
				kept[i] = s
			}
			continue
		}
		seen[det.Key()] = len(kept)
		kept = append(kept, s)
	}

	// Order by score desc; ties broken by smallest absolute timing
	// delta, then largest agency factor.
	sort.SliceStable(kept, func(i, j int) bool {
		if kept[i].det.Score != kept[j].det.Score {
			return kept[i].det.Score > kept[j].det.Score
		}
		if kept[i].timingDelta != kept[j].timingDelta {
			return kept[i].timingDelta < kept[j].timingDelta
		}
		return kept[i].agency > kept[j].agency
	})

	out := make([]model.Detection, len(kept))
	for i, s := range kept {
		out[i] = s.det
	}
	return out
}

// DetectAll runs detection for every award sequentially. Detections are
// order-independent facts; callers needing parallel fan-out use
// batch.RunParallel over award chunks.
func (d *Detector) DetectAll(awards []model.Award, contracts []model.Contract) []model.Detection {
	start := time.Now()
	var out []model.Detection
	for _, a := range awards {
		out = append(out, d.DetectForAward(a, contracts)...)
	}
	zap.L().Info("detector: batch complete",
		zap.Int("awards", len(awards)),
		zap.Int("contracts", len(contracts)),
		zap.Int("detections", len(out)),
		zap.Int64("warnings", d.warnings.Load()),
		zap.Duration("elapsed", time.Since(start)),
	)
	return out
}
