package model

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNormalizePhase(t *testing.T) {
	tests := []struct {
		in       string
		expected string
	}{
		{"I", "I"},
		{"II", "II"},
		{"III", "III"},
		{"1", "I"},
		{"2", "II"},
		{"3", "III"},
		{"Phase II", "II"},
		{"phase ii", "II"},
		{"SBIR Phase 2", "II"},
		{"STTR Phase I", "I"},
		{"Phase III bridge", "III"},
		{"", ""},
		{"unknown", ""},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.expected, NormalizePhase(tt.in))
		})
	}
}

func TestNormalizeAgency(t *testing.T) {
	assert.Equal(t, "NASA", NormalizeAgency("  nasa "))
	assert.Equal(t, "", NormalizeAgency(""))
}

func TestScoreCutpoints_BandFor(t *testing.T) {
	c := ScoreCutpoints{High: 0.85, Likely: 0.70}

	assert.Equal(t, ConfidenceHigh, c.BandFor(0.85))
	assert.Equal(t, ConfidenceHigh, c.BandFor(0.99))
	assert.Equal(t, ConfidenceLikely, c.BandFor(0.70))
	assert.Equal(t, ConfidenceLikely, c.BandFor(0.84))
	assert.Equal(t, ConfidencePossible, c.BandFor(0.69))
	assert.Equal(t, ConfidencePossible, c.BandFor(0.0))
}

func TestAward_ReferenceDate(t *testing.T) {
	awarded := time.Date(2020, 6, 1, 0, 0, 0, 0, time.UTC)
	completed := time.Date(2021, 6, 1, 0, 0, 0, 0, time.UTC)

	a := Award{AwardDate: awarded, CompletionDate: &completed}
	assert.Equal(t, awarded, a.ReferenceDate(), "award date wins when both present")

	a = Award{CompletionDate: &completed}
	assert.Equal(t, completed, a.ReferenceDate(), "completion date is the fallback")

	a = Award{}
	assert.True(t, a.ReferenceDate().IsZero())
}

func TestAward_Valid(t *testing.T) {
	awarded := time.Date(2020, 6, 1, 0, 0, 0, 0, time.UTC)

	assert.True(t, Award{ID: "A1", AwardDate: awarded}.Valid())
	assert.False(t, Award{AwardDate: awarded}.Valid(), "missing ID")
	assert.False(t, Award{ID: "A1"}.Valid(), "no usable date")
}

func TestCompanyKey_Priority(t *testing.T) {
	a := Award{UEI: "abc123", DUNS: "999", VendorName: "Acme Corp"}
	assert.Equal(t, CompanyID("uei:ABC123"), CompanyKey(a, 0, nil))

	a = Award{DUNS: "999", VendorName: "Acme Corp"}
	assert.Equal(t, CompanyID("duns:999"), CompanyKey(a, 0, nil))

	a = Award{VendorName: "Acme Corp"}
	assert.Equal(t, CompanyID("name:ACME CORP"), CompanyKey(a, 0, nil))

	a = Award{}
	assert.Equal(t, CompanyID("row:7"), CompanyKey(a, 7, nil))
}

func TestCompanyKey_UsesNormalizer(t *testing.T) {
	a := Award{VendorName: "Acme Technologies, Inc."}
	normalize := func(s string) string {
		return strings.ToUpper(strings.Split(s, " ")[0])
	}
	assert.Equal(t, CompanyID("name:ACME"), CompanyKey(a, 0, normalize))
}

func TestDetection_Key(t *testing.T) {
	d := Detection{AwardID: "A1", ContractID: "C1"}
	assert.Equal(t, "A1|C1", d.Key())
}

func TestMapSource_GetOptional(t *testing.T) {
	src := MapSource{"award_id": "A1", "Phase": "II"}

	v, ok := src.GetOptional("award_id")
	assert.True(t, ok)
	assert.Equal(t, "A1", v)

	v, ok = src.GetOptional("phase")
	assert.True(t, ok, "lookup is case-insensitive")
	assert.Equal(t, "II", v)

	_, ok = src.GetOptional("missing")
	assert.False(t, ok, "absence is never an error")
}

func TestFirstPresentColumn(t *testing.T) {
	src := MapSource{"uei": "", "vendor_uei": "UE1", "recipient_uei": "UE2"}

	v, ok := FirstPresentColumn(src, "uei", "vendor_uei", "recipient_uei")
	assert.True(t, ok)
	assert.Equal(t, "UE1", v, "empty values do not count as present")

	_, ok = FirstPresentColumn(src, "duns", "duns_number")
	assert.False(t, ok)
}
