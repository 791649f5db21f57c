package evaluate

import (
	"fmt"
	"strings"

	"github.com/sbirscope/transition-cli/internal/model"
)

// Report renders the human-readable narrative: overall metrics, the
// confusion table, the per-band table, and recommendations driven by the
// fixed textual thresholds.
func (r *Result) Report() string {
	var b strings.Builder

	b.WriteString("TRANSITION DETECTION EVALUATION\n")
	b.WriteString("===============================\n\n")

	fmt.Fprintf(&b, "Detected pairs: %d\n", r.DetectedPairs)
	fmt.Fprintf(&b, "Ground truth pairs: %d\n\n", r.TruthPairs)

	b.WriteString("Confusion matrix (tn undefined, open universe):\n")
	fmt.Fprintf(&b, "  tp=%d  fp=%d  fn=%d  tn=%d\n\n", r.Matrix.TP, r.Matrix.FP, r.Matrix.FN, r.Matrix.TN)

	fmt.Fprintf(&b, "Precision: %.3f\n", r.Precision)
	fmt.Fprintf(&b, "Recall:    %.3f\n", r.Recall)
	fmt.Fprintf(&b, "F1:        %.3f\n\n", r.F1)

	if len(r.Bands) > 0 {
		b.WriteString("Per-band breakdown:\n")
		fmt.Fprintf(&b, "  %-10s %10s %6s %6s %10s\n", "band", "detections", "tp", "fp", "precision")
		for _, m := range r.Bands {
			fmt.Fprintf(&b, "  %-10s %10d %6d %6d %10.3f\n", m.Band, m.Detections, m.TP, m.FP, m.Precision)
		}
		b.WriteString("\n")
	}

	b.WriteString("Recommendations:\n")
	for _, rec := range r.recommendations() {
		fmt.Fprintf(&b, "  - %s\n", rec)
	}

	fmt.Fprintf(&b, "\nOverall: %s\n", strings.ToUpper(string(r.Status)))
	return b.String()
}

func (r *Result) recommendations() []string {
	var recs []string

	if r.DetectedPairs == 0 && r.TruthPairs == 0 {
		return []string{"no detections and no ground truth; nothing to evaluate"}
	}

	if r.Precision < precisionWarnBelow {
		recs = append(recs, fmt.Sprintf(
			"precision %.2f below %.2f: consider raising the score threshold or tightening fuzzy-name acceptance",
			r.Precision, precisionWarnBelow))
	}
	if r.Recall < recallWarnBelow {
		recs = append(recs, fmt.Sprintf(
			"recall %.2f below %.2f: consider lowering the score threshold or widening the lookback window",
			r.Recall, recallWarnBelow))
	}
	if r.Status == model.StatusPass {
		recs = append(recs, "precision and recall within healthy bounds; no tuning needed")
	}
	return recs
}
