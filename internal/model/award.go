// Package model defines the shared domain types for transition detection:
// awards, contracts, detections, ground truth, and the derived keys used to
// group and evaluate them.
package model

import "time"

// Award represents a small-business research award (SBIR/STTR) as loaded
// from an upstream awards table. Awards are immutable run inputs.
type Award struct {
	ID             string     `json:"award_id" csv:"award_id"`
	UEI            string     `json:"uei,omitempty" csv:"uei"`
	CAGE           string     `json:"cage,omitempty" csv:"cage"`
	DUNS           string     `json:"duns,omitempty" csv:"duns"`
	VendorName     string     `json:"vendor_name" csv:"vendor_name"`
	Phase          string     `json:"phase" csv:"phase"`
	Agency         string     `json:"agency" csv:"agency"`
	AwardDate      time.Time  `json:"award_date" csv:"award_date"`
	CompletionDate *time.Time `json:"completion_date,omitempty" csv:"completion_date"`
	TechArea       string     `json:"tech_area,omitempty" csv:"tech_area"`
	Title          string     `json:"title,omitempty" csv:"title"`
	Abstract       string     `json:"abstract,omitempty" csv:"abstract"`
	Amount         *float64   `json:"amount,omitempty" csv:"amount"`
}

// ReferenceDate returns the date transitions are measured from. The award
// date is preferred; the completion date is a fallback for records where
// only the period of performance end is known.
func (a Award) ReferenceDate() time.Time {
	if !a.AwardDate.IsZero() {
		return a.AwardDate
	}
	if a.CompletionDate != nil {
		return *a.CompletionDate
	}
	return time.Time{}
}

// Valid reports whether the award carries the fields detection requires.
// Invalid awards are skipped with a warning, never fatal.
func (a Award) Valid() bool {
	return a.ID != "" && !a.ReferenceDate().IsZero()
}

// Contract represents a follow-on procurement contract candidate.
type Contract struct {
	ID              string    `json:"contract_id" csv:"contract_id"`
	UEI             string    `json:"uei,omitempty" csv:"uei"`
	CAGE            string    `json:"cage,omitempty" csv:"cage"`
	DUNS            string    `json:"duns,omitempty" csv:"duns"`
	VendorName      string    `json:"vendor_name" csv:"vendor_name"`
	Agency          string    `json:"agency" csv:"agency"`
	ActionDate      time.Time `json:"action_date" csv:"action_date"`
	Description     string    `json:"description,omitempty" csv:"description"`
	CompetitionType string    `json:"competition_type,omitempty" csv:"competition_type"`
	TechArea        string    `json:"tech_area,omitempty" csv:"tech_area"`
	Amount          *float64  `json:"amount,omitempty" csv:"amount"`
}

// Valid reports whether the contract carries the fields detection requires.
func (c Contract) Valid() bool {
	return c.ID != "" && !c.ActionDate.IsZero()
}

// Patent links an award to a patent filed under it. Patents are optional
// corroborating evidence for scoring.
type Patent struct {
	AwardID    string     `json:"award_id" csv:"award_id"`
	PatentID   string     `json:"patent_id" csv:"patent_id"`
	FilingDate *time.Time `json:"filing_date,omitempty" csv:"filing_date"`
	Title      string     `json:"title,omitempty" csv:"title"`
}

// GroundTruthTransition is a curated known (award, contract) pair used only
// for evaluation, never for detection. Label, when present, marks the pair
// as a confirmed true or false transition; absent means confirmed true.
type GroundTruthTransition struct {
	AwardID    string `json:"award_id" csv:"award_id"`
	ContractID string `json:"contract_id" csv:"contract_id"`
	Label      *bool  `json:"label,omitempty" csv:"label"`
}
