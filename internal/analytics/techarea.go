package analytics

import (
	"sort"

	"github.com/sbirscope/transition-cli/internal/model"
)

// TechAreaRate summarizes transition effectiveness for one technology tag.
type TechAreaRate struct {
	TechArea        string  `json:"tech_area"`
	TotalAwards     int     `json:"total_awards"`
	Transitioned    int     `json:"transitioned"`
	Rate            float64 `json:"rate"`
	AvgDays         float64 `json:"avg_days"`
	PatentBacked    int     `json:"patent_backed"`
	PatentBackedPct float64 `json:"patent_backed_pct"`
}

// TechAreaEffectiveness reports, per technology tag: transition rate,
// mean days to transition, and the fraction of transitioned awards backed
// by at least one patent. patentsByAward is the externally supplied
// award -> patents mapping and may be nil. Awards without a tech area are
// excluded.
func TechAreaEffectiveness(
	awards []model.Award,
	contracts []model.Contract,
	detections []model.Detection,
	patentsByAward map[string][]model.Patent,
) []TechAreaRate {
	contractByID := make(map[string]model.Contract, len(contracts))
	for _, c := range contracts {
		if c.ID != "" {
			contractByID[c.ID] = c
		}
	}
	awardByID := make(map[string]model.Award, len(awards))
	for _, a := range awards {
		if a.ID != "" {
			awardByID[a.ID] = a
		}
	}

	// Earliest detection gap per award, for mean days-to-transition.
	transitioned := map[string]bool{}
	daysByAward := map[string]float64{}
	for _, d := range detections {
		transitioned[d.AwardID] = true
		a, okA := awardByID[d.AwardID]
		c, okC := contractByID[d.ContractID]
		if !okA || !okC {
			continue
		}
		ref := a.ReferenceDate()
		if ref.IsZero() || c.ActionDate.IsZero() {
			continue
		}
		gap := c.ActionDate.Sub(ref).Hours() / 24
		if gap < 0 {
			continue
		}
		if prev, ok := daysByAward[d.AwardID]; !ok || gap < prev {
			daysByAward[d.AwardID] = gap
		}
	}

	type agg struct {
		total, hits, patentBacked map[string]bool
		days                      []float64
	}
	groups := map[string]*agg{}
	seen := map[string]bool{}
	for _, a := range awards {
		if a.ID == "" || a.TechArea == "" || seen[a.ID] {
			continue
		}
		seen[a.ID] = true

		g, ok := groups[a.TechArea]
		if !ok {
			g = &agg{total: map[string]bool{}, hits: map[string]bool{}, patentBacked: map[string]bool{}}
			groups[a.TechArea] = g
		}
		g.total[a.ID] = true
		if transitioned[a.ID] {
			g.hits[a.ID] = true
			if days, ok := daysByAward[a.ID]; ok {
				g.days = append(g.days, days)
			}
			if len(patentsByAward[a.ID]) > 0 {
				g.patentBacked[a.ID] = true
			}
		}
	}

	var out []TechAreaRate
	for tech, g := range groups {
		row := TechAreaRate{
			TechArea:     tech,
			TotalAwards:  len(g.total),
			Transitioned: len(g.hits),
			PatentBacked: len(g.patentBacked),
			AvgDays:      mean(g.days),
		}
		if row.TotalAwards > 0 {
			row.Rate = float64(row.Transitioned) / float64(row.TotalAwards)
		}
		if row.Transitioned > 0 {
			row.PatentBackedPct = float64(row.PatentBacked) / float64(row.Transitioned)
		}
		out = append(out, row)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Rate != out[j].Rate {
			return out[i].Rate > out[j].Rate
		}
		return out[i].TechArea < out[j].TechArea
	})
	return out
}
