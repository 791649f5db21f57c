package analytics

import (
	"math"
	"sort"

	"github.com/sbirscope/transition-cli/internal/model"
)

// TimingStats summarizes days-to-transition for one group.
type TimingStats struct {
	Group   string  `json:"group"`
	Count   int     `json:"count"`
	AvgDays float64 `json:"avg_days"`
	P50Days float64 `json:"p50_days"`
	P90Days float64 `json:"p90_days"`
}

// TimeToTransitionResult holds per-agency and per-technology-area timing
// statistics.
type TimeToTransitionResult struct {
	ByAgency   []TimingStats `json:"by_agency"`
	ByTechArea []TimingStats `json:"by_tech_area"`
}

// TimeToTransition joins each detection at or above the threshold to its
// award reference date and contract action date, and reports
// mean/median/90th-percentile day gaps per agency and per technology
// area. Negative day deltas are invalid joins and are dropped.
func TimeToTransition(awards []model.Award, contracts []model.Contract, detections []model.Detection, threshold float64) TimeToTransitionResult {
	awardByID := make(map[string]model.Award, len(awards))
	for _, a := range awards {
		if a.ID != "" {
			awardByID[a.ID] = a
		}
	}
	contractByID := make(map[string]model.Contract, len(contracts))
	for _, c := range contracts {
		if c.ID != "" {
			contractByID[c.ID] = c
		}
	}

	byAgency := map[string][]float64{}
	byTech := map[string][]float64{}

	for _, d := range detections {
		if d.Score < threshold {
			continue
		}
		a, okA := awardByID[d.AwardID]
		c, okC := contractByID[d.ContractID]
		if !okA || !okC {
			continue
		}
		ref := a.ReferenceDate()
		if ref.IsZero() || c.ActionDate.IsZero() {
			continue
		}
		days := c.ActionDate.Sub(ref).Hours() / 24
		if days < 0 {
			continue
		}

		if agency := model.NormalizeAgency(a.Agency); agency != "" {
			byAgency[agency] = append(byAgency[agency], days)
		}
		if tech := a.TechArea; tech != "" {
			byTech[tech] = append(byTech[tech], days)
		}
	}

	return TimeToTransitionResult{
		ByAgency:   statsFor(byAgency),
		ByTechArea: statsFor(byTech),
	}
}

func statsFor(groups map[string][]float64) []TimingStats {
	var out []TimingStats
	for group, days := range groups {
		out = append(out, TimingStats{
			Group:   group,
			Count:   len(days),
			AvgDays: mean(days),
			P50Days: Percentile(days, 50),
			P90Days: Percentile(days, 90),
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Group < out[j].Group
	})
	return out
}

func mean(vals []float64) float64 {
	if len(vals) == 0 {
		return 0
	}
	var sum float64
	for _, v := range vals {
		sum += v
	}
	return sum / float64(len(vals))
}

// Percentile computes the p-th percentile with linear interpolation
// between closest ranks. The input slice is not mutated.
func Percentile(vals []float64, p float64) float64 {
	if len(vals) == 0 {
		return 0
	}
	sorted := make([]float64, len(vals))
	copy(sorted, vals)
	sort.Float64s(sorted)

	if len(sorted) == 1 {
		return sorted[0]
	}
	rank := p / 100 * float64(len(sorted)-1)
	lo := int(math.Floor(rank))
	hi := int(math.Ceil(rank))
	if lo == hi {
		return sorted[lo]
	}
	frac := rank - float64(lo)
	return sorted[lo] + frac*(sorted[hi]-sorted[lo])
}
