package model

import "fmt"

// Confidence is the discrete band derived from a continuous detection score
// via the central cut-point table in ScoreCutpoints.
type Confidence string

const (
	ConfidenceHigh     Confidence = "high"
	ConfidenceLikely   Confidence = "likely"
	ConfidencePossible Confidence = "possible"
)

// ReportStatus is the overall verdict of an evaluation or performance report.
type ReportStatus string

const (
	StatusPass    ReportStatus = "pass"
	StatusWarning ReportStatus = "warning"
	StatusFailure ReportStatus = "failure"
)

// ScoreCutpoints is the single place score-to-band cut points live.
// Scores at or above High map to ConfidenceHigh, at or above Likely to
// ConfidenceLikely, and everything at or above the detection threshold
// to ConfidencePossible.
type ScoreCutpoints struct {
	High   float64 `json:"high" mapstructure:"high"`
	Likely float64 `json:"likely" mapstructure:"likely"`
}

// BandFor maps a score to its confidence band.
func (c ScoreCutpoints) BandFor(score float64) Confidence {
	switch {
	case score >= c.High:
		return ConfidenceHigh
	case score >= c.Likely:
		return ConfidenceLikely
	default:
		return ConfidencePossible
	}
}

// Detection records that an award's vendor later received a related
// follow-on contract. One award may produce several detections; only
// exact (AwardID, ContractID) duplicates are merged.
type Detection struct {
	AwardID    string             `json:"award_id"`
	ContractID string             `json:"contract_id"`
	Score      float64            `json:"score"`
	Confidence Confidence         `json:"confidence"`
	Factors    map[string]float64 `json:"factors,omitempty"`
	Method     string             `json:"method"`
}

// Key returns the identity of the detection: the (award, contract) pair.
func (d Detection) Key() string {
	return fmt.Sprintf("%s|%s", d.AwardID, d.ContractID)
}

// ConfusionMatrix summarizes detector accuracy against ground truth.
// TN is always zero: the candidate universe is unbounded, so true
// negatives are undefined.
type ConfusionMatrix struct {
	TP int `json:"tp"`
	FP int `json:"fp"`
	FN int `json:"fn"`
	TN int `json:"tn"`
}
