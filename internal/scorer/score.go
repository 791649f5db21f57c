// Package scorer implements the transition-likelihood scoring engine and
// the detector that turns (award, contract) candidate pairs into Detection
// records.
package scorer

import (
	"math"
	"strings"
	"time"

	"github.com/sbirscope/transition-cli/internal/config"
	"github.com/sbirscope/transition-cli/internal/model"
)

// Factor names used in Detection.Factors. Each contribution appears under
// its own key so a detection is auditable after the fact.
const (
	FactorBase        = "base"
	FactorAgency      = "agency"
	FactorTiming      = "timing"
	FactorCompetition = "competition"
	FactorPatent      = "patent"
	FactorTechArea    = "tech_area"
	FactorTextSim     = "text_similarity"
)

// defenseAgencies is the cluster used for the cross-service partial bonus:
// a Navy award transitioning into an Army contract is still a meaningful
// agency relationship.
var defenseAgencies = map[string]bool{
	"ARMY": true, "NAVY": true, "AIR FORCE": true, "USAF": true,
	"DARPA": true, "DOD": true, "DEPARTMENT OF DEFENSE": true,
	"MDA": true, "SOCOM": true, "DLA": true, "DTRA": true, "SPACE FORCE": true,
}

// Score computes the composite transition-likelihood score for an
// (award, contract) pair, returning the clipped [0,1] value and the
// per-factor breakdown. Missing optional inputs are skipped silently.
// Callers must have excluded pairs outside the max lookback window —
// the hard cutoff happens before scoring, not here.
func Score(award model.Award, contract model.Contract, patents []model.Patent, cfg config.ScoringConfig) (float64, map[string]float64) {
	factors := map[string]float64{FactorBase: cfg.BaseScore}

	if f := agencyFactor(award.Agency, contract.Agency, cfg); f > 0 {
		factors[FactorAgency] = f
	}
	if f := timingFactor(award.ReferenceDate(), contract.ActionDate, cfg); f > 0 {
		factors[FactorTiming] = f
	}
	if f := competitionFactor(contract.CompetitionType, cfg); f > 0 {
		factors[FactorCompetition] = f
	}
	if f := patentFactor(contract, patents, cfg); f > 0 {
		factors[FactorPatent] = f
	}
	if f := techAreaFactor(award.TechArea, contract.TechArea, cfg); f > 0 {
		factors[FactorTechArea] = f
	}
	if f := textSimFactor(award, contract, cfg); f > 0 {
		factors[FactorTextSim] = f
	}

	var total float64
	for _, v := range factors {
		total += v
	}
	return clip01(total), factors
}

// agencyFactor returns the same-agency bonus, the cross-service partial
// bonus, or zero.
func agencyFactor(awardAgency, contractAgency string, cfg config.ScoringConfig) float64 {
	a := model.NormalizeAgency(awardAgency)
	b := model.NormalizeAgency(contractAgency)
	if a == "" || b == "" {
		return 0
	}
	if a == b {
		return cfg.SameAgencyBonus
	}
	if defenseAgencies[a] && defenseAgencies[b] {
		return cfg.CrossAgencyBonus
	}
	// Shared parent token, e.g. "NAVY" vs "DEPT OF NAVY".
	if sharesToken(a, b) {
		return cfg.CrossAgencyBonus
	}
	return 0
}

// sharesToken reports whether two agency names share a significant token.
func sharesToken(a, b string) bool {
	skip := map[string]bool{"OF": true, "THE": true, "DEPT": true, "DEPARTMENT": true, "US": true, "U.S.": true}
	toksA := map[string]bool{}
	for _, t := range strings.Fields(a) {
		if !skip[t] && len(t) > 2 {
			toksA[t] = true
		}
	}
	for _, t := range strings.Fields(b) {
		if toksA[t] {
			return true
		}
	}
	return false
}

// timingFactor buckets the gap between award reference date and contract
// action date. Gaps beyond 24 months contribute nothing; the detector's
// window filter has already excluded pairs past the configured max
// lookback.
func timingFactor(ref, action time.Time, cfg config.ScoringConfig) float64 {
	if ref.IsZero() || action.IsZero() {
		return 0
	}
	months := monthsBetween(ref, action)
	switch {
	case months < 0:
		return 0
	case months <= 3:
		return cfg.Bucket0to3Bonus
	case months <= 12:
		return cfg.Bucket3to12Bonus
	case months <= 24:
		return cfg.Bucket12to24Bonus
	default:
		return 0
	}
}

// monthsBetween returns the (possibly fractional) number of months from a
// to b, using an average month length.
func monthsBetween(a, b time.Time) float64 {
	return b.Sub(a).Hours() / 24 / 30.44
}

// competitionFactor rewards sole-source and limited-competition awards,
// which are stronger transition signals than full-and-open competition.
func competitionFactor(competitionType string, cfg config.ScoringConfig) float64 {
	ct := strings.ToLower(strings.TrimSpace(competitionType))
	if ct == "" {
		return 0
	}
	switch {
	case strings.Contains(ct, "sole source") || strings.Contains(ct, "sole-source") ||
		strings.Contains(ct, "not competed") || strings.Contains(ct, "only one source"):
		return cfg.SoleSourceBonus
	case strings.Contains(ct, "limited") || strings.Contains(ct, "set aside") ||
		strings.Contains(ct, "set-aside") || strings.Contains(ct, "not available for competition"):
		return cfg.LimitedCompetitionBonus
	default:
		return 0
	}
}

// patentFactor sums the independently additive patent evidence bonuses:
// having any patent, a filing that predates the contract, and topic
// overlap between a patent title and the contract description.
func patentFactor(contract model.Contract, patents []model.Patent, cfg config.ScoringConfig) float64 {
	if len(patents) == 0 {
		return 0
	}
	f := cfg.PatentBonus

	for _, p := range patents {
		if p.FilingDate != nil && p.FilingDate.Before(contract.ActionDate) {
			f += cfg.PatentTimingBonus
			break
		}
	}

	if contract.Description != "" {
		desc := strings.ToLower(contract.Description)
		for _, p := range patents {
			if p.Title != "" && titleOverlaps(p.Title, desc) {
				f += cfg.PatentTopicBonus
				break
			}
		}
	}

	return f
}

// titleOverlaps reports whether a patent title shares at least two
// significant words with a contract description.
func titleOverlaps(title, descLower string) bool {
	hits := 0
	for _, w := range strings.Fields(strings.ToLower(title)) {
		if len(w) < 5 {
			continue
		}
		if strings.Contains(descLower, w) {
			hits++
			if hits >= 2 {
				return true
			}
		}
	}
	return false
}

// techAreaFactor rewards a shared classified technology tag.
func techAreaFactor(awardArea, contractArea string, cfg config.ScoringConfig) float64 {
	a := strings.ToUpper(strings.TrimSpace(awardArea))
	b := strings.ToUpper(strings.TrimSpace(contractArea))
	if a == "" || b == "" || a != b {
		return 0
	}
	return cfg.TechAreaBonus
}

// textSimFactor contributes a small bonus proportional to free-text
// similarity between the award abstract (falling back to the title) and
// the contract description. Token overlap rather than edit distance: the
// texts differ wildly in length and phrasing.
func textSimFactor(award model.Award, contract model.Contract, cfg config.ScoringConfig) float64 {
	if cfg.TextSimWeight == 0 || contract.Description == "" {
		return 0
	}
	text := award.Abstract
	if text == "" {
		text = award.Title
	}
	if text == "" {
		return 0
	}
	sim := TextSimilarity(text, contract.Description)
	return sim * cfg.TextSimWeight
}

// TextSimilarity returns normalized token overlap between two free-text
// fields, ignoring short stop-word-length tokens.
func TextSimilarity(a, b string) float64 {
	ta := significantTokens(a)
	tb := significantTokens(b)
	if len(ta) == 0 || len(tb) == 0 {
		return 0
	}
	inter := 0
	for t := range ta {
		if tb[t] {
			inter++
		}
	}
	smaller := len(ta)
	if len(tb) < smaller {
		smaller = len(tb)
	}
	return float64(inter) / float64(smaller)
}

func significantTokens(s string) map[string]bool {
	toks := map[string]bool{}
	for _, w := range strings.Fields(strings.ToLower(s)) {
		w = strings.Trim(w, ".,;:()[]\"'")
		if len(w) >= 5 {
			toks[w] = true
		}
	}
	return toks
}

func clip01(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}
