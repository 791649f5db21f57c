// Package evaluate measures detection quality against curated ground
// truth: confusion matrix, precision/recall/F1, confidence-band breakdown,
// and a narrative report.
//
// True negatives are always zero. The candidate universe is unbounded, so
// a closed-world TN count is undefined; consumers needing one must define
// an explicit known-negative universe.
package evaluate

import (
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/sbirscope/transition-cli/internal/model"
)

// Fixed textual thresholds for the narrative report.
const (
	precisionWarnBelow = 0.70
	recallWarnBelow    = 0.60
)

// Options tunes an evaluation.
type Options struct {
	// ScoreThreshold filters detections before comparison. Detections
	// below the threshold are treated as not emitted.
	ScoreThreshold float64
}

// BandMetrics is the per-confidence-band quality breakdown.
type BandMetrics struct {
	Band       model.Confidence `json:"band"`
	Detections int              `json:"detections"`
	TP         int              `json:"tp"`
	FP         int              `json:"fp"`
	Precision  float64          `json:"precision"`
}

// Result holds the machine-readable evaluation outcome.
type Result struct {
	Matrix    model.ConfusionMatrix `json:"confusion_matrix"`
	Precision float64               `json:"precision"`
	Recall    float64               `json:"recall"`
	F1        float64               `json:"f1"`
	Bands     []BandMetrics         `json:"bands"`
	Status    model.ReportStatus    `json:"status"`

	DetectedPairs int `json:"detected_pairs"`
	TruthPairs    int `json:"truth_pairs"`
}

type pair struct {
	awardID    string
	contractID string
}

// Evaluate compares detections against ground truth. It is a total
// function: empty inputs produce an all-zero Result, never an error.
func Evaluate(detections []model.Detection, truth []model.GroundTruthTransition, opts Options) *Result {
	// Detected pair set: threshold-filtered, IDs trimmed, deduplicated.
	detected := make(map[pair]model.Confidence)
	for _, d := range detections {
		if d.Score < opts.ScoreThreshold {
			continue
		}
		p := pair{strings.TrimSpace(d.AwardID), strings.TrimSpace(d.ContractID)}
		if p.awardID == "" || p.contractID == "" {
			continue
		}
		// Keep the highest band on duplicates (bands order high < likely
		// < possible lexically is not usable; scores already decided the
		// band, and duplicates carry identical pairs anyway).
		if _, ok := detected[p]; !ok {
			detected[p] = d.Confidence
		}
	}

	// Truth pair set: only truthy rows counted when a label is present.
	truthSet := make(map[pair]bool)
	for _, t := range truth {
		if t.Label != nil && !*t.Label {
			continue
		}
		p := pair{strings.TrimSpace(t.AwardID), strings.TrimSpace(t.ContractID)}
		if p.awardID == "" || p.contractID == "" {
			continue
		}
		truthSet[p] = true
	}

	res := &Result{
		DetectedPairs: len(detected),
		TruthPairs:    len(truthSet),
	}

	for p := range detected {
		if truthSet[p] {
			res.Matrix.TP++
		} else {
			res.Matrix.FP++
		}
	}
	for p := range truthSet {
		if _, ok := detected[p]; !ok {
			res.Matrix.FN++
		}
	}

	res.Precision = safeDiv(res.Matrix.TP, res.Matrix.TP+res.Matrix.FP)
	res.Recall = safeDiv(res.Matrix.TP, len(truthSet))
	if res.Precision+res.Recall > 0 {
		res.F1 = 2 * res.Precision * res.Recall / (res.Precision + res.Recall)
	}

	res.Bands = bandBreakdown(detected, truthSet)
	res.Status = status(res)

	zap.L().Info("evaluate: complete",
		zap.Int("tp", res.Matrix.TP),
		zap.Int("fp", res.Matrix.FP),
		zap.Int("fn", res.Matrix.FN),
		zap.Float64("precision", res.Precision),
		zap.Float64("recall", res.Recall),
		zap.Float64("f1", res.F1),
		zap.String("status", string(res.Status)),
	)

	return res
}

// bandBreakdown computes per-band counts and band-local precision.
func bandBreakdown(detected map[pair]model.Confidence, truthSet map[pair]bool) []BandMetrics {
	byBand := map[model.Confidence]*BandMetrics{}
	for p, band := range detected {
		m, ok := byBand[band]
		if !ok {
			m = &BandMetrics{Band: band}
			byBand[band] = m
		}
		m.Detections++
		if truthSet[p] {
			m.TP++
		} else {
			m.FP++
		}
	}

	order := []model.Confidence{model.ConfidenceHigh, model.ConfidenceLikely, model.ConfidencePossible}
	var out []BandMetrics
	for _, band := range order {
		if m, ok := byBand[band]; ok {
			m.Precision = safeDiv(m.TP, m.Detections)
			out = append(out, *m)
		}
	}
	// Unknown bands (should not happen) appended deterministically.
	var rest []model.Confidence
	for band := range byBand {
		if band != model.ConfidenceHigh && band != model.ConfidenceLikely && band != model.ConfidencePossible {
			rest = append(rest, band)
		}
	}
	sort.Slice(rest, func(i, j int) bool { return rest[i] < rest[j] })
	for _, band := range rest {
		m := byBand[band]
		m.Precision = safeDiv(m.TP, m.Detections)
		out = append(out, *m)
	}
	return out
}

func status(r *Result) model.ReportStatus {
	if r.DetectedPairs == 0 && r.TruthPairs == 0 {
		return model.StatusWarning
	}
	if r.Precision < precisionWarnBelow || r.Recall < recallWarnBelow {
		return model.StatusWarning
	}
	return model.StatusPass
}

func safeDiv(num, den int) float64 {
	if den == 0 {
		return 0
	}
	return float64(num) / float64(den)
}
