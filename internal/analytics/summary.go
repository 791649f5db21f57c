package analytics

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"

	"github.com/sbirscope/transition-cli/internal/model"
)

// Table is a row-oriented export of one rate table.
type Table struct {
	Name    string     `json:"name"`
	Headers []string   `json:"headers"`
	Rows    [][]string `json:"rows"`
}

// Summary is the named collection of rate tables produced by one
// analytics run.
type Summary struct {
	Tables []Table `json:"tables"`
}

// Inputs bundles the immutable snapshots an analytics run consumes.
type Inputs struct {
	Awards         []model.Award
	Contracts      []model.Contract
	Detections     []model.Detection
	PatentsByAward map[string][]model.Patent
	ScoreThreshold float64
	// Normalize is the resolver's name normalizer used for company
	// grouping; nil is tolerated.
	Normalize func(string) string
}

// BuildSummary runs every aggregation and collects the results into
// exportable tables.
func BuildSummary(in Inputs) *Summary {
	s := &Summary{}

	ar := AwardRate(in.Awards, in.Detections)
	s.Tables = append(s.Tables, Table{
		Name:    "award_rate",
		Headers: []string{"total_awards", "transitioned_awards", "rate"},
		Rows: [][]string{{
			strconv.Itoa(ar.TotalAwards),
			strconv.Itoa(ar.TransitionedAwards),
			formatRate(ar.Rate),
		}},
	})

	cr := CompanyRates(in.Awards, in.Detections, in.Normalize)
	companyTable := Table{
		Name:    "company_rates",
		Headers: []string{"company", "vendor_name", "total_awards", "transitioned", "rate"},
	}
	for _, row := range cr.Companies {
		companyTable.Rows = append(companyTable.Rows, []string{
			string(row.Company), row.VendorName,
			strconv.Itoa(row.TotalAwards), strconv.Itoa(row.Transitioned), formatRate(row.Rate),
		})
	}
	s.Tables = append(s.Tables, companyTable)

	phaseTable := Table{
		Name:    "phase_effectiveness",
		Headers: []string{"phase", "total_awards", "transitioned", "rate"},
	}
	for _, row := range PhaseEffectiveness(in.Awards, in.Detections) {
		phaseTable.Rows = append(phaseTable.Rows, []string{
			row.Phase, strconv.Itoa(row.TotalAwards), strconv.Itoa(row.Transitioned), formatRate(row.Rate),
		})
	}
	s.Tables = append(s.Tables, phaseTable)

	agencyTable := Table{
		Name:    "agency_breakdown",
		Headers: []string{"agency", "total_awards", "transitioned", "rate"},
	}
	for _, row := range AgencyBreakdown(in.Awards, in.Detections) {
		agencyTable.Rows = append(agencyTable.Rows, []string{
			row.Agency, strconv.Itoa(row.TotalAwards), strconv.Itoa(row.Transitioned), formatRate(row.Rate),
		})
	}
	s.Tables = append(s.Tables, agencyTable)

	ttt := TimeToTransition(in.Awards, in.Contracts, in.Detections, in.ScoreThreshold)
	s.Tables = append(s.Tables, timingTable("time_to_transition_by_agency", ttt.ByAgency))
	s.Tables = append(s.Tables, timingTable("time_to_transition_by_tech_area", ttt.ByTechArea))

	techTable := Table{
		Name:    "tech_area_effectiveness",
		Headers: []string{"tech_area", "total_awards", "transitioned", "rate", "avg_days", "patent_backed_pct"},
	}
	for _, row := range TechAreaEffectiveness(in.Awards, in.Contracts, in.Detections, in.PatentsByAward) {
		techTable.Rows = append(techTable.Rows, []string{
			row.TechArea, strconv.Itoa(row.TotalAwards), strconv.Itoa(row.Transitioned),
			formatRate(row.Rate), fmt.Sprintf("%.1f", row.AvgDays), formatRate(row.PatentBackedPct),
		})
	}
	s.Tables = append(s.Tables, techTable)

	return s
}

func timingTable(name string, stats []TimingStats) Table {
	t := Table{
		Name:    name,
		Headers: []string{"group", "count", "avg_days", "p50_days", "p90_days"},
	}
	for _, row := range stats {
		t.Rows = append(t.Rows, []string{
			row.Group, strconv.Itoa(row.Count),
			fmt.Sprintf("%.1f", row.AvgDays),
			fmt.Sprintf("%.1f", row.P50Days),
			fmt.Sprintf("%.1f", row.P90Days),
		})
	}
	return t
}

func formatRate(r float64) string {
	return strconv.FormatFloat(r, 'f', 4, 64)
}

// ExportCSV writes every table to w as CSV, separated by a blank line
// and a "# <name>" header comment.
func (s *Summary) ExportCSV(w io.Writer) error {
	cw := csv.NewWriter(w)
	for i, t := range s.Tables {
		if i > 0 {
			cw.Flush()
			if _, err := fmt.Fprintln(w); err != nil {
				return eris.Wrap(err, "analytics: write csv separator")
			}
		}
		if _, err := fmt.Fprintf(w, "# %s\n", t.Name); err != nil {
			return eris.Wrap(err, "analytics: write csv header")
		}
		if err := cw.Write(t.Headers); err != nil {
			return eris.Wrapf(err, "analytics: write csv headers for %s", t.Name)
		}
		for _, row := range t.Rows {
			if err := cw.Write(row); err != nil {
				return eris.Wrapf(err, "analytics: write csv row for %s", t.Name)
			}
		}
	}
	cw.Flush()
	return eris.Wrap(cw.Error(), "analytics: flush csv")
}

// ExportXLSX writes the summary as a workbook with one sheet per table.
func (s *Summary) ExportXLSX(path string) error {
	wb := xlsx.NewFile()
	for _, t := range s.Tables {
		sheet, err := wb.AddSheet(sheetName(t.Name))
		if err != nil {
			return eris.Wrapf(err, "analytics: add sheet %s", t.Name)
		}
		hr := sheet.AddRow()
		for _, h := range t.Headers {
			hr.AddCell().SetString(h)
		}
		for _, row := range t.Rows {
			r := sheet.AddRow()
			for _, v := range row {
				r.AddCell().SetString(v)
			}
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return eris.Wrapf(err, "analytics: create %s", path)
	}
	defer f.Close()
	if err := wb.Write(f); err != nil {
		return eris.Wrapf(err, "analytics: write %s", path)
	}
	return nil
}

// sheetName truncates to Excel's 31-character sheet name limit.
func sheetName(name string) string {
	if len(name) > 31 {
		return name[:31]
	}
	return name
}
