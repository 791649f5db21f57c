// Package analytics rolls detections up into transition rates across
// award, company, phase, agency, and technology-area dimensions, plus
// time-to-transition statistics. Every entry point is a pure, total
// function over immutable inputs: missing optional data degrades to a
// typed-empty result, never an error.
package analytics

import (
	"sort"

	"github.com/sbirscope/transition-cli/internal/model"
)

// AwardRateResult reports the overall transition rate.
type AwardRateResult struct {
	TotalAwards        int     `json:"total_awards"`
	TransitionedAwards int     `json:"transitioned_awards"`
	Rate               float64 `json:"rate"`
}

// AwardRate computes distinct transitioned awards over distinct total
// awards. Duplicate award rows count once.
func AwardRate(awards []model.Award, detections []model.Detection) AwardRateResult {
	distinct := map[string]bool{}
	for _, a := range awards {
		if a.ID != "" {
			distinct[a.ID] = true
		}
	}
	transitioned := map[string]bool{}
	for _, d := range detections {
		if distinct[d.AwardID] {
			transitioned[d.AwardID] = true
		}
	}

	res := AwardRateResult{
		TotalAwards:        len(distinct),
		TransitionedAwards: len(transitioned),
	}
	if res.TotalAwards > 0 {
		res.Rate = float64(res.TransitionedAwards) / float64(res.TotalAwards)
	}
	return res
}

// CompanyRate is one company's row in the company-rate table.
type CompanyRate struct {
	Company      model.CompanyID `json:"company"`
	VendorName   string          `json:"vendor_name"`
	TotalAwards  int             `json:"total_awards"`
	Transitioned int             `json:"transitioned"`
	Rate         float64         `json:"rate"`
}

// CompanyRatesResult is the full company breakdown.
type CompanyRatesResult struct {
	Companies   []CompanyRate `json:"companies"`
	OverallRate float64       `json:"overall_rate"`
}

// CompanyRates groups awards by canonical company key and reports
// per-company totals, sorted by (transitioned desc, total awards desc).
// normalize is the resolver's name normalizer; nil is tolerated.
// Invariant: the per-company totals sum to the distinct award count.
func CompanyRates(awards []model.Award, detections []model.Detection, normalize func(string) string) CompanyRatesResult {
	transitioned := map[string]bool{}
	for _, d := range detections {
		transitioned[d.AwardID] = true
	}

	type agg struct {
		name         string
		awardIDs     map[string]bool
		transitioned map[string]bool
	}
	groups := map[model.CompanyID]*agg{}

	seen := map[string]bool{}
	for i, a := range awards {
		if a.ID == "" || seen[a.ID] {
			continue
		}
		seen[a.ID] = true

		key := model.CompanyKey(a, i, normalize)
		g, ok := groups[key]
		if !ok {
			g = &agg{name: a.VendorName, awardIDs: map[string]bool{}, transitioned: map[string]bool{}}
			groups[key] = g
		}
		g.awardIDs[a.ID] = true
		if transitioned[a.ID] {
			g.transitioned[a.ID] = true
		}
	}

	var res CompanyRatesResult
	totalAwards, totalTransitioned := 0, 0
	for key, g := range groups {
		row := CompanyRate{
			Company:      key,
			VendorName:   g.name,
			TotalAwards:  len(g.awardIDs),
			Transitioned: len(g.transitioned),
		}
		if row.TotalAwards > 0 {
			row.Rate = float64(row.Transitioned) / float64(row.TotalAwards)
		}
		totalAwards += row.TotalAwards
		totalTransitioned += row.Transitioned
		res.Companies = append(res.Companies, row)
	}

	sort.Slice(res.Companies, func(i, j int) bool {
		a, b := res.Companies[i], res.Companies[j]
		if a.Transitioned != b.Transitioned {
			return a.Transitioned > b.Transitioned
		}
		if a.TotalAwards != b.TotalAwards {
			return a.TotalAwards > b.TotalAwards
		}
		return a.Company < b.Company
	})

	if totalAwards > 0 {
		res.OverallRate = float64(totalTransitioned) / float64(totalAwards)
	}
	return res
}

// PhaseRate is one normalized phase's effectiveness row.
type PhaseRate struct {
	Phase        string  `json:"phase"`
	TotalAwards  int     `json:"total_awards"`
	Transitioned int     `json:"transitioned"`
	Rate         float64 `json:"rate"`
}

// PhaseEffectiveness groups awards by normalized phase label (I/II/III)
// and reports a rate per phase. Awards with unrecognized phase labels are
// excluded.
func PhaseEffectiveness(awards []model.Award, detections []model.Detection) []PhaseRate {
	transitioned := map[string]bool{}
	for _, d := range detections {
		transitioned[d.AwardID] = true
	}

	type agg struct{ total, hits map[string]bool }
	groups := map[string]*agg{}
	for _, a := range awards {
		phase := model.NormalizePhase(a.Phase)
		if phase == "" || a.ID == "" {
			continue
		}
		g, ok := groups[phase]
		if !ok {
			g = &agg{total: map[string]bool{}, hits: map[string]bool{}}
			groups[phase] = g
		}
		g.total[a.ID] = true
		if transitioned[a.ID] {
			g.hits[a.ID] = true
		}
	}

	var out []PhaseRate
	for _, phase := range []string{"I", "II", "III"} {
		g, ok := groups[phase]
		if !ok {
			continue
		}
		row := PhaseRate{Phase: phase, TotalAwards: len(g.total), Transitioned: len(g.hits)}
		if row.TotalAwards > 0 {
			row.Rate = float64(row.Transitioned) / float64(row.TotalAwards)
		}
		out = append(out, row)
	}
	return out
}

// AgencyRate is one agency's breakdown row.
type AgencyRate struct {
	Agency       string  `json:"agency"`
	TotalAwards  int     `json:"total_awards"`
	Transitioned int     `json:"transitioned"`
	Rate         float64 `json:"rate"`
}

// AgencyBreakdown groups awards by trimmed upper-cased agency name and
// reports a rate per agency, sorted by (rate desc, volume desc).
func AgencyBreakdown(awards []model.Award, detections []model.Detection) []AgencyRate {
	transitioned := map[string]bool{}
	for _, d := range detections {
		transitioned[d.AwardID] = true
	}

	type agg struct{ total, hits map[string]bool }
	groups := map[string]*agg{}
	for _, a := range awards {
		agency := model.NormalizeAgency(a.Agency)
		if agency == "" || a.ID == "" {
			continue
		}
		g, ok := groups[agency]
		if !ok {
			g = &agg{total: map[string]bool{}, hits: map[string]bool{}}
			groups[agency] = g
		}
		g.total[a.ID] = true
		if transitioned[a.ID] {
			g.hits[a.ID] = true
		}
	}

	var out []AgencyRate
	for agency, g := range groups {
		row := AgencyRate{Agency: agency, TotalAwards: len(g.total), Transitioned: len(g.hits)}
		if row.TotalAwards > 0 {
			row.Rate = float64(row.Transitioned) / float64(row.TotalAwards)
		}
		out = append(out, row)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Rate != out[j].Rate {
			return out[i].Rate > out[j].Rate
		}
		if out[i].TotalAwards != out[j].TotalAwards {
			return out[i].TotalAwards > out[j].TotalAwards
		}
		return out[i].Agency < out[j].Agency
	})
	return out
}
