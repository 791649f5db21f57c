// Package ingest loads awards, contracts, ground truth, and patent
// mappings from CSV snapshots. Upstream schemas vary by data source, so
// headers pass through an alias table before decoding; malformed rows are
// skipped with a warning and counted, never fatal.
package ingest

import (
	"encoding/csv"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/jszwec/csvutil"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sbirscope/transition-cli/internal/model"
)

// headerAliases maps known upstream column spellings to the canonical
// csv tags on the model structs.
var headerAliases = map[string]string{
	"id":                  "award_id",
	"award_number":        "award_id",
	"contract_number":     "contract_id",
	"piid":                "contract_id",
	"recipient_uei":       "uei",
	"vendor_uei":          "uei",
	"awardee_uei":         "uei",
	"cage_code":           "cage",
	"duns_number":         "duns",
	"recipient_duns":      "duns",
	"company":             "vendor_name",
	"company_name":        "vendor_name",
	"firm":                "vendor_name",
	"recipient_name":      "vendor_name",
	"awarding_agency":     "agency",
	"funding_agency":      "agency",
	"branch":              "agency",
	"proposal_award_date": "award_date",
	"start_date":          "action_date",
	"signed_date":         "action_date",
	"cet_area":            "tech_area",
	"technology_area":     "tech_area",
	"award_amount":        "amount",
	"obligated_amount":    "amount",
	"extent_competed":     "competition_type",
	"abstract_text":       "abstract",
	"award_title":         "title",
}

// dateLayouts are tried in order when parsing date columns.
var dateLayouts = []string{
	"2006-01-02",
	"01/02/2006",
	"2006-01-02T15:04:05Z07:00",
	"2006/01/02",
}

// Result reports what a reader loaded and skipped.
type Result struct {
	Loaded  int
	Skipped int
}

// normalizeHeader lower-cases, trims, and alias-resolves a header row.
func normalizeHeader(header []string) []string {
	out := make([]string, len(header))
	for i, h := range header {
		h = strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\uFEFF")))
		h = strings.ReplaceAll(h, " ", "_")
		if canonical, ok := headerAliases[h]; ok {
			h = canonical
		}
		out[i] = h
	}
	return out
}

// newDecoder builds a csvutil decoder whose header has been passed
// through the alias table. The normalized header is returned so callers
// can fall back to schema-tolerant column access on the raw record.
func newDecoder(r io.Reader) (*csvutil.Decoder, []string, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		if err == io.EOF {
			return nil, nil, nil
		}
		return nil, nil, eris.Wrap(err, "ingest: read header")
	}

	normalized := normalizeHeader(header)
	dec, err := csvutil.NewDecoder(cr, normalized...)
	if err != nil {
		return nil, nil, eris.Wrap(err, "ingest: create decoder")
	}
	return dec, normalized, nil
}

// rowSource exposes the raw decoded record as a FieldSource keyed by the
// normalized header, for fallback lookups on columns the alias table
// does not know about.
func rowSource(header, record []string) model.MapSource {
	m := make(model.MapSource, len(header))
	for i, h := range header {
		if i < len(record) {
			m[h] = record[i]
		}
	}
	return m
}

// awardRow is the raw CSV shape of an award; dates stay strings until
// validated.
type awardRow struct {
	ID             string `csv:"award_id"`
	UEI            string `csv:"uei"`
	CAGE           string `csv:"cage"`
	DUNS           string `csv:"duns"`
	VendorName     string `csv:"vendor_name"`
	Phase          string `csv:"phase"`
	Agency         string `csv:"agency"`
	AwardDate      string `csv:"award_date"`
	CompletionDate string `csv:"completion_date"`
	TechArea       string `csv:"tech_area"`
	Title          string `csv:"title"`
	Abstract       string `csv:"abstract"`
	Amount         string `csv:"amount"`
}

// ReadAwards loads awards from a CSV stream.
func ReadAwards(r io.Reader) ([]model.Award, Result, error) {
	log := zap.L().With(zap.String("component", "ingest.awards"))
	dec, header, err := newDecoder(r)
	if err != nil || dec == nil {
		return nil, Result{}, err
	}

	var (
		out []model.Award
		res Result
	)
	for {
		var row awardRow
		if err := dec.Decode(&row); err != nil {
			if err == io.EOF {
				break
			}
			res.Skipped++
			log.Warn("skipping unreadable award row", zap.Error(err))
			continue
		}

		a := model.Award{
			ID:         strings.TrimSpace(row.ID),
			UEI:        strings.TrimSpace(row.UEI),
			CAGE:       strings.TrimSpace(row.CAGE),
			DUNS:       strings.TrimSpace(row.DUNS),
			VendorName: strings.TrimSpace(row.VendorName),
			Phase:      row.Phase,
			Agency:     row.Agency,
			TechArea:   strings.TrimSpace(row.TechArea),
			Title:      strings.TrimSpace(row.Title),
			Abstract:   strings.TrimSpace(row.Abstract),
		}
		a.AwardDate, _ = parseDate(row.AwardDate)
		if d, ok := parseDate(row.CompletionDate); ok {
			a.CompletionDate = &d
		}
		if v, ok := parseAmount(row.Amount); ok {
			a.Amount = &v
		}

		// Fall back to candidate columns the alias table does not cover.
		if a.ID == "" || a.AwardDate.IsZero() {
			src := rowSource(header, dec.Record())
			if a.ID == "" {
				if v, ok := model.FirstPresentColumn(src, "agency_tracking_number", "topic_number", "solicitation_number"); ok {
					a.ID = strings.TrimSpace(v)
				}
			}
			if a.AwardDate.IsZero() {
				if v, ok := model.FirstPresentColumn(src, "award_start_date", "period_of_performance_start"); ok {
					a.AwardDate, _ = parseDate(v)
				}
			}
		}

		if !a.Valid() {
			res.Skipped++
			log.Warn("skipping malformed award", zap.String("award_id", a.ID))
			continue
		}
		out = append(out, a)
		res.Loaded++
	}

	log.Info("awards loaded", zap.Int("loaded", res.Loaded), zap.Int("skipped", res.Skipped))
	return out, res, nil
}

type contractRow struct {
	ID              string `csv:"contract_id"`
	UEI             string `csv:"uei"`
	CAGE            string `csv:"cage"`
	DUNS            string `csv:"duns"`
	VendorName      string `csv:"vendor_name"`
	Agency          string `csv:"agency"`
	ActionDate      string `csv:"action_date"`
	Description     string `csv:"description"`
	CompetitionType string `csv:"competition_type"`
	TechArea        string `csv:"tech_area"`
	Amount          string `csv:"amount"`
}

// ReadContracts loads contracts from a CSV stream.
func ReadContracts(r io.Reader) ([]model.Contract, Result, error) {
	log := zap.L().With(zap.String("component", "ingest.contracts"))
	dec, header, err := newDecoder(r)
	if err != nil || dec == nil {
		return nil, Result{}, err
	}

	var (
		out []model.Contract
		res Result
	)
	for {
		var row contractRow
		if err := dec.Decode(&row); err != nil {
			if err == io.EOF {
				break
			}
			res.Skipped++
			log.Warn("skipping unreadable contract row", zap.Error(err))
			continue
		}

		c := model.Contract{
			ID:              strings.TrimSpace(row.ID),
			UEI:             strings.TrimSpace(row.UEI),
			CAGE:            strings.TrimSpace(row.CAGE),
			DUNS:            strings.TrimSpace(row.DUNS),
			VendorName:      strings.TrimSpace(row.VendorName),
			Agency:          row.Agency,
			Description:     row.Description,
			CompetitionType: row.CompetitionType,
			TechArea:        strings.TrimSpace(row.TechArea),
		}
		c.ActionDate, _ = parseDate(row.ActionDate)
		if v, ok := parseAmount(row.Amount); ok {
			c.Amount = &v
		}

		if c.ID == "" || c.ActionDate.IsZero() {
			src := rowSource(header, dec.Record())
			if c.ID == "" {
				if v, ok := model.FirstPresentColumn(src, "award_id_piid", "transaction_id"); ok {
					c.ID = strings.TrimSpace(v)
				}
			}
			if c.ActionDate.IsZero() {
				if v, ok := model.FirstPresentColumn(src, "period_of_performance_start_date", "date_signed"); ok {
					c.ActionDate, _ = parseDate(v)
				}
			}
		}

		if !c.Valid() {
			res.Skipped++
			log.Warn("skipping malformed contract", zap.String("contract_id", c.ID))
			continue
		}
		out = append(out, c)
		res.Loaded++
	}

	log.Info("contracts loaded", zap.Int("loaded", res.Loaded), zap.Int("skipped", res.Skipped))
	return out, res, nil
}

type truthRow struct {
	AwardID    string `csv:"award_id"`
	ContractID string `csv:"contract_id"`
	Label      string `csv:"label"`
}

// ReadGroundTruth loads curated known transitions from a CSV stream.
func ReadGroundTruth(r io.Reader) ([]model.GroundTruthTransition, Result, error) {
	log := zap.L().With(zap.String("component", "ingest.groundtruth"))
	dec, _, err := newDecoder(r)
	if err != nil || dec == nil {
		return nil, Result{}, err
	}

	var (
		out []model.GroundTruthTransition
		res Result
	)
	for {
		var row truthRow
		if err := dec.Decode(&row); err != nil {
			if err == io.EOF {
				break
			}
			res.Skipped++
			log.Warn("skipping unreadable ground truth row", zap.Error(err))
			continue
		}

		t := model.GroundTruthTransition{
			AwardID:    strings.TrimSpace(row.AwardID),
			ContractID: strings.TrimSpace(row.ContractID),
		}
		if t.AwardID == "" || t.ContractID == "" {
			res.Skipped++
			continue
		}
		if label, ok := parseBool(row.Label); ok {
			t.Label = &label
		}
		out = append(out, t)
		res.Loaded++
	}

	log.Info("ground truth loaded", zap.Int("loaded", res.Loaded), zap.Int("skipped", res.Skipped))
	return out, res, nil
}

type patentRow struct {
	AwardID    string `csv:"award_id"`
	PatentID   string `csv:"patent_id"`
	FilingDate string `csv:"filing_date"`
	Title      string `csv:"title"`
}

// ReadPatents loads the award -> patents mapping from a CSV stream.
func ReadPatents(r io.Reader) (map[string][]model.Patent, Result, error) {
	log := zap.L().With(zap.String("component", "ingest.patents"))
	dec, _, err := newDecoder(r)
	if err != nil || dec == nil {
		return nil, Result{}, err
	}

	out := map[string][]model.Patent{}
	var res Result
	for {
		var row patentRow
		if err := dec.Decode(&row); err != nil {
			if err == io.EOF {
				break
			}
			res.Skipped++
			log.Warn("skipping unreadable patent row", zap.Error(err))
			continue
		}

		p := model.Patent{
			AwardID:  strings.TrimSpace(row.AwardID),
			PatentID: strings.TrimSpace(row.PatentID),
			Title:    strings.TrimSpace(row.Title),
		}
		if p.AwardID == "" || p.PatentID == "" {
			res.Skipped++
			continue
		}
		if d, ok := parseDate(row.FilingDate); ok {
			p.FilingDate = &d
		}
		out[p.AwardID] = append(out[p.AwardID], p)
		res.Loaded++
	}

	log.Info("patents loaded", zap.Int("loaded", res.Loaded), zap.Int("skipped", res.Skipped))
	return out, res, nil
}

// ReadAwardsFile opens and reads an awards CSV from disk.
func ReadAwardsFile(path string) ([]model.Award, Result, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, Result{}, eris.Wrapf(err, "ingest: open %s", path)
	}
	defer f.Close()
	return ReadAwards(f)
}

// ReadContractsFile opens and reads a contracts CSV from disk.
func ReadContractsFile(path string) ([]model.Contract, Result, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, Result{}, eris.Wrapf(err, "ingest: open %s", path)
	}
	defer f.Close()
	return ReadContracts(f)
}

// ReadGroundTruthFile opens and reads a ground truth CSV from disk.
func ReadGroundTruthFile(path string) ([]model.GroundTruthTransition, Result, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, Result{}, eris.Wrapf(err, "ingest: open %s", path)
	}
	defer f.Close()
	return ReadGroundTruth(f)
}

// ReadPatentsFile opens and reads a patents CSV from disk.
func ReadPatentsFile(path string) (map[string][]model.Patent, Result, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, Result{}, eris.Wrapf(err, "ingest: open %s", path)
	}
	defer f.Close()
	return ReadPatents(f)
}

func parseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

func parseAmount(s string) (float64, bool) {
	s = strings.TrimSpace(strings.ReplaceAll(strings.TrimPrefix(strings.TrimSpace(s), "$"), ",", ""))
	if s == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

func parseBool(s string) (bool, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "true", "t", "yes", "y", "1":
		return true, true
	case "false", "f", "no", "n", "0":
		return false, true
	default:
		return false, false
	}
}
