package evaluate

import (
	"fmt"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sbirscope/transition-cli/internal/model"
)

func det(award, contract string, score float64, band model.Confidence) model.Detection {
	return model.Detection{AwardID: award, ContractID: contract, Score: score, Confidence: band}
}

func truth(award, contract string) model.GroundTruthTransition {
	return model.GroundTruthTransition{AwardID: award, ContractID: contract}
}

func TestEvaluate_ExactMatch(t *testing.T) {
	detections := []model.Detection{
		det("A1", "C1", 0.9, model.ConfidenceHigh),
		det("A2", "C2", 0.7, model.ConfidenceLikely),
	}
	truths := []model.GroundTruthTransition{truth("A1", "C1"), truth("A2", "C2")}

	r := Evaluate(detections, truths, Options{ScoreThreshold: 0.6})

	assert.Equal(t, 2, r.Matrix.TP)
	assert.Equal(t, 0, r.Matrix.FP)
	assert.Equal(t, 0, r.Matrix.FN)
	assert.Equal(t, 0, r.Matrix.TN, "true negatives are undefined and stay zero")
	assert.Equal(t, 1.0, r.Precision)
	assert.Equal(t, 1.0, r.Recall)
	assert.Equal(t, 1.0, r.F1)
	assert.Equal(t, model.StatusPass, r.Status)
}

func TestEvaluate_Disjoint(t *testing.T) {
	detections := []model.Detection{det("A1", "C1", 0.9, model.ConfidenceHigh)}
	truths := []model.GroundTruthTransition{truth("A2", "C2")}

	r := Evaluate(detections, truths, Options{ScoreThreshold: 0.6})

	assert.Equal(t, 0, r.Matrix.TP)
	assert.Equal(t, 1, r.Matrix.FP)
	assert.Equal(t, 1, r.Matrix.FN)
	assert.Zero(t, r.Precision)
	assert.Zero(t, r.Recall)
	assert.Zero(t, r.F1)
	assert.Equal(t, model.StatusWarning, r.Status)
}

func TestEvaluate_Mixed(t *testing.T) {
	detections := []model.Detection{
		det("A1", "C1", 0.9, model.ConfidenceHigh),   // tp
		det("A3", "C3", 0.8, model.ConfidenceLikely), // fp
	}
	truths := []model.GroundTruthTransition{
		truth("A1", "C1"),
		truth("A2", "C2"), // fn
	}

	r := Evaluate(detections, truths, Options{ScoreThreshold: 0.6})

	assert.Equal(t, 1, r.Matrix.TP)
	assert.Equal(t, 1, r.Matrix.FP)
	assert.Equal(t, 1, r.Matrix.FN)
	assert.InDelta(t, 0.5, r.Precision, 1e-9)
	assert.InDelta(t, 0.5, r.Recall, 1e-9)
	assert.InDelta(t, 0.5, r.F1, 1e-9)
}

func TestEvaluate_EmptyInputsAreTotal(t *testing.T) {
	r := Evaluate(nil, nil, Options{})

	assert.Equal(t, model.ConfusionMatrix{}, r.Matrix)
	assert.Zero(t, r.Precision)
	assert.Zero(t, r.Recall)
	assert.Zero(t, r.F1)
	assert.Equal(t, model.StatusWarning, r.Status)
}

func TestEvaluate_ThresholdFiltersDetections(t *testing.T) {
	detections := []model.Detection{
		det("A1", "C1", 0.9, model.ConfidenceHigh),
		det("A2", "C2", 0.55, model.ConfidencePossible),
	}
	truths := []model.GroundTruthTransition{truth("A1", "C1"), truth("A2", "C2")}

	r := Evaluate(detections, truths, Options{ScoreThreshold: 0.6})

	assert.Equal(t, 1, r.Matrix.TP)
	assert.Equal(t, 1, r.Matrix.FN, "sub-threshold detection counts as missed")
}

func TestEvaluate_ThresholdMonotoneTradeoff(t *testing.T) {
	// Sweep the threshold upward: precision never worsens while recall
	// never improves when the detection set only shrinks and the set is
	// ordered so higher-scoring detections are more likely correct.
	detections := []model.Detection{
		det("A1", "C1", 0.95, model.ConfidenceHigh),     // correct
		det("A2", "C2", 0.80, model.ConfidenceLikely),   // correct
		det("A3", "CX", 0.65, model.ConfidencePossible), // wrong
	}
	truths := []model.GroundTruthTransition{
		truth("A1", "C1"), truth("A2", "C2"), truth("A3", "C3"),
	}

	prevPrecision, prevRecall := -1.0, 2.0
	for _, threshold := range []float64{0.5, 0.7, 0.9} {
		r := Evaluate(detections, truths, Options{ScoreThreshold: threshold})
		require.GreaterOrEqual(t, r.Precision, prevPrecision, "threshold %.2f", threshold)
		require.LessOrEqual(t, r.Recall, prevRecall, "threshold %.2f", threshold)
		prevPrecision, prevRecall = r.Precision, r.Recall
	}
}

func TestEvaluate_ThresholdMonotoneRandomized(t *testing.T) {
	rng := rand.New(rand.NewSource(7))

	// Raising the threshold only shrinks the detected set against a fixed
	// truth set, so tp and fp never grow, fn never shrinks, and recall
	// never improves. Precision carries no such guarantee for arbitrary
	// sets and is deliberately not asserted here.
	for trial := 0; trial < 50; trial++ {
		var detections []model.Detection
		var truths []model.GroundTruthTransition
		n := 20 + rng.Intn(60)
		for i := 0; i < n; i++ {
			award := fmt.Sprintf("A%d", i)
			detections = append(detections, det(award, fmt.Sprintf("C%d", i), rng.Float64(), model.ConfidencePossible))
			switch rng.Intn(3) {
			case 0:
				truths = append(truths, truth(award, fmt.Sprintf("C%d", i)))
			case 1:
				truths = append(truths, truth(award, fmt.Sprintf("CX%d", i)))
			}
		}

		prev := Evaluate(detections, truths, Options{ScoreThreshold: 0})
		for _, threshold := range []float64{0.2, 0.4, 0.6, 0.8, 1.0} {
			r := Evaluate(detections, truths, Options{ScoreThreshold: threshold})
			require.LessOrEqual(t, r.Matrix.TP, prev.Matrix.TP, "trial %d threshold %.1f", trial, threshold)
			require.LessOrEqual(t, r.Matrix.FP, prev.Matrix.FP, "trial %d threshold %.1f", trial, threshold)
			require.GreaterOrEqual(t, r.Matrix.FN, prev.Matrix.FN, "trial %d threshold %.1f", trial, threshold)
			require.LessOrEqual(t, r.Recall, prev.Recall, "trial %d threshold %.1f", trial, threshold)
			prev = r
		}
	}
}

func TestEvaluate_NegativeLabelExcludedFromTruth(t *testing.T) {
	f := false
	truths := []model.GroundTruthTransition{
		{AwardID: "A1", ContractID: "C1", Label: &f},
		truth("A2", "C2"),
	}
	detections := []model.Detection{det("A1", "C1", 0.9, model.ConfidenceHigh)}

	r := Evaluate(detections, truths, Options{})

	assert.Equal(t, 1, r.TruthPairs, "labeled-false rows are not truth")
	assert.Equal(t, 1, r.Matrix.FP, "detecting a labeled-false pair is a false positive")
	assert.Equal(t, 1, r.Matrix.FN)
}

func TestEvaluate_DuplicateDetectionsCountOnce(t *testing.T) {
	detections := []model.Detection{
		det("A1", "C1", 0.9, model.ConfidenceHigh),
		det("A1", "C1", 0.8, model.ConfidenceLikely),
	}
	truths := []model.GroundTruthTransition{truth("A1", "C1")}

	r := Evaluate(detections, truths, Options{})

	assert.Equal(t, 1, r.DetectedPairs)
	assert.Equal(t, 1, r.Matrix.TP)
}

func TestEvaluate_BandBreakdown(t *testing.T) {
	detections := []model.Detection{
		det("A1", "C1", 0.95, model.ConfidenceHigh),
		det("A2", "C2", 0.80, model.ConfidenceLikely),
		det("A3", "CX", 0.78, model.ConfidenceLikely),
		det("A4", "C4", 0.62, model.ConfidencePossible),
	}
	truths := []model.GroundTruthTransition{
		truth("A1", "C1"), truth("A2", "C2"), truth("A4", "C4"),
	}

	r := Evaluate(detections, truths, Options{})
	require.Len(t, r.Bands, 3)

	assert.Equal(t, model.ConfidenceHigh, r.Bands[0].Band)
	assert.Equal(t, 1.0, r.Bands[0].Precision)

	assert.Equal(t, model.ConfidenceLikely, r.Bands[1].Band)
	assert.Equal(t, 2, r.Bands[1].Detections)
	assert.InDelta(t, 0.5, r.Bands[1].Precision, 1e-9)

	assert.Equal(t, model.ConfidencePossible, r.Bands[2].Band)
	assert.Equal(t, 1.0, r.Bands[2].Precision)
}

func TestReport_ContainsMetricsAndRecommendations(t *testing.T) {
	detections := []model.Detection{det("A1", "C1", 0.9, model.ConfidenceHigh)}
	truths := []model.GroundTruthTransition{truth("A1", "C1"), truth("A2", "C2")}

	r := Evaluate(detections, truths, Options{})
	report := r.Report()

	assert.Contains(t, report, "tp=1")
	assert.Contains(t, report, "fn=1")
	assert.Contains(t, report, "recall")
	assert.Contains(t, report, "WARNING", "recall 0.5 is below the warn threshold")
}
