package monitoring

import (
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/sbirscope/transition-cli/internal/model"
)

// DefaultTargetDetectionsPerMinute is the fixed throughput target a
// detection run is validated against when no override is configured.
const DefaultTargetDetectionsPerMinute = 10000

// Profile summarizes the throughput of one detection run.
type Profile struct {
	AwardsCount          float64            `json:"awards_count"`
	ContractsCount       float64            `json:"contracts_count"`
	DetectionsCount      float64            `json:"detections_count"`
	TotalTime            time.Duration      `json:"total_time"`
	PairsEvaluated       float64            `json:"pairs_evaluated"`
	DetectionsPerMinute  float64            `json:"detections_per_minute"`
	Target               float64            `json:"target_detections_per_minute"`
	MeetsTarget          bool               `json:"meets_target"`
	Status               model.ReportStatus `json:"status"`
}

// ProfileDetectionPerformance computes run-level throughput and validates
// it against the target. A non-positive target falls back to the default.
func ProfileDetectionPerformance(awardsCount, contractsCount, detectionsCount int, totalTime time.Duration, target float64) Profile {
	if target <= 0 {
		target = DefaultTargetDetectionsPerMinute
	}

	p := Profile{
		AwardsCount:     float64(awardsCount),
		ContractsCount:  float64(contractsCount),
		DetectionsCount: float64(detectionsCount),
		TotalTime:       totalTime,
		PairsEvaluated:  float64(awardsCount) * float64(contractsCount),
		Target:          target,
	}

	if totalTime > 0 {
		p.DetectionsPerMinute = float64(detectionsCount) / totalTime.Minutes()
	}
	p.MeetsTarget = p.DetectionsPerMinute >= target
	if p.MeetsTarget {
		p.Status = model.StatusPass
	} else {
		p.Status = model.StatusFailure
	}

	zap.L().Info("monitoring: detection performance",
		zap.Float64("detections_per_minute", p.DetectionsPerMinute),
		zap.Float64("target", target),
		zap.Bool("meets_target", p.MeetsTarget),
	)

	return p
}

// Metrics flattens the profile into a machine-readable map.
func (p Profile) Metrics() map[string]any {
	return map[string]any{
		"awards_count":          p.AwardsCount,
		"contracts_count":       p.ContractsCount,
		"detections_count":      p.DetectionsCount,
		"total_time_ms":         p.TotalTime.Milliseconds(),
		"pairs_evaluated":       p.PairsEvaluated,
		"detections_per_minute": p.DetectionsPerMinute,
		"target":                p.Target,
		"meets_target":          p.MeetsTarget,
	}
}

// Report renders a short human-readable summary.
func (p Profile) Report() string {
	verdict := "MEETS TARGET"
	if !p.MeetsTarget {
		verdict = "BELOW TARGET"
	}
	return fmt.Sprintf(
		"detection run: %d awards x %d contracts -> %d detections in %s (%.0f/min vs target %.0f/min): %s",
		int(p.AwardsCount), int(p.ContractsCount), int(p.DetectionsCount),
		p.TotalTime, p.DetectionsPerMinute, p.Target, verdict,
	)
}
