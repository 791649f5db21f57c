package resolve

import (
	"strings"

	"github.com/agext/levenshtein"

	"github.com/sbirscope/transition-cli/internal/config"
	"github.com/sbirscope/transition-cli/internal/model"
)

// KeyKind identifies which identifier a VendorKey was derived from.
// Priority order for resolution: UEI > CAGE > DUNS > normalized name.
type KeyKind string

const (
	KindUEI  KeyKind = "uei"
	KindCAGE KeyKind = "cage"
	KindDUNS KeyKind = "duns"
	KindName KeyKind = "name"
	KindNone KeyKind = "none"
)

// VendorKey is the canonical identity derived from a vendor record.
type VendorKey struct {
	Kind  KeyKind
	Value string
	// Name carries the normalized vendor name even when an exact
	// identifier is present, so fuzzy comparison stays possible.
	Name string
	// Agency is a weak corroborating signal for secondary-threshold
	// fuzzy acceptance.
	Agency string
}

// MatchStrength classifies how strongly two vendor keys match.
type MatchStrength int

const (
	// MatchNone means the records could not be linked.
	MatchNone MatchStrength = iota
	// MatchFuzzyName means the normalized names are similar enough.
	MatchFuzzyName
	// MatchExactID means a shared UEI, CAGE, or DUNS. Always dominates
	// a fuzzy name match.
	MatchExactID
)

func (m MatchStrength) String() string {
	switch m {
	case MatchExactID:
		return "exact_id"
	case MatchFuzzyName:
		return "fuzzy_name"
	default:
		return "none"
	}
}

// VendorRecord is the subset of a record the resolver needs. Both
// model.Award and model.Contract satisfy it via the adapter helpers below.
type VendorRecord struct {
	UEI        string
	CAGE       string
	DUNS       string
	VendorName string
	Agency     string
}

// AwardRecord adapts an award for resolution.
func AwardRecord(a model.Award) VendorRecord {
	return VendorRecord{UEI: a.UEI, CAGE: a.CAGE, DUNS: a.DUNS, VendorName: a.VendorName, Agency: a.Agency}
}

// ContractRecord adapts a contract for resolution.
func ContractRecord(c model.Contract) VendorRecord {
	return VendorRecord{UEI: c.UEI, CAGE: c.CAGE, DUNS: c.DUNS, VendorName: c.VendorName, Agency: c.Agency}
}

// Resolver maps vendor records to canonical keys and scores match strength
// between them.
type Resolver struct {
	cfg  config.ResolverConfig
	norm *Normalizer
}

// New creates a Resolver from configuration.
func New(cfg config.ResolverConfig) *Resolver {
	return &Resolver{cfg: cfg, norm: NewNormalizer(cfg.Abbreviations)}
}

// Normalizer exposes the resolver's name normalizer for reuse (e.g. by
// model.CompanyKey).
func (r *Resolver) Normalizer() *Normalizer {
	return r.norm
}

// ResolveVendorID derives the canonical vendor key for a record, walking
// the identifier priority chain.
func (r *Resolver) ResolveVendorID(rec VendorRecord) VendorKey {
	name := r.norm.NormalizeName(rec.VendorName)
	agency := model.NormalizeAgency(rec.Agency)

	if uei := strings.ToUpper(strings.TrimSpace(rec.UEI)); uei != "" {
		return VendorKey{Kind: KindUEI, Value: uei, Name: name, Agency: agency}
	}
	if cage := strings.ToUpper(strings.TrimSpace(rec.CAGE)); cage != "" {
		return VendorKey{Kind: KindCAGE, Value: cage, Name: name, Agency: agency}
	}
	if duns := strings.TrimSpace(rec.DUNS); duns != "" {
		return VendorKey{Kind: KindDUNS, Value: duns, Name: name, Agency: agency}
	}
	if name != "" {
		return VendorKey{Kind: KindName, Value: name, Name: name, Agency: agency}
	}
	return VendorKey{Kind: KindNone, Name: name, Agency: agency}
}

// MatchStrength decides how strongly two vendor keys match. An exact
// identifier match of the same kind always wins. Otherwise the normalized
// names are compared: similarity at or above the primary threshold is
// accepted outright; similarity at or above the secondary threshold is
// accepted only with a corroborating agency match.
func (r *Resolver) MatchStrength(a, b VendorKey) MatchStrength {
	if a.Kind != KindNone && a.Kind != KindName && a.Kind == b.Kind && a.Value == b.Value {
		return MatchExactID
	}

	if a.Name == "" || b.Name == "" {
		return MatchNone
	}

	sim := NameSimilarity(a.Name, b.Name)
	switch {
	case sim >= r.cfg.FuzzyPrimaryThreshold:
		return MatchFuzzyName
	case sim >= r.cfg.FuzzySecondaryThreshold:
		if a.Agency != "" && a.Agency == b.Agency {
			return MatchFuzzyName
		}
	}
	return MatchNone
}

// NameSimilarity blends edit-distance similarity with token overlap.
// Both inputs are assumed normalized. The blend keeps short names from
// matching on a lucky prefix while letting reordered multi-word names
// (e.g. "ACME TECH CORP" vs "TECH ACME") still score well.
func NameSimilarity(a, b string) float64 {
	if a == b {
		return 1.0
	}
	lev := levenshtein.Similarity(a, b, levenshtein.NewParams())
	jac := jaccard(strings.Fields(a), strings.Fields(b))
	return 0.6*lev + 0.4*jac
}

// jaccard computes token-set overlap between two tokenized names.
func jaccard(a, b []string) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	set := make(map[string]bool, len(a))
	for _, t := range a {
		set[t] = true
	}
	inter := 0
	union := len(set)
	seen := make(map[string]bool, len(b))
	for _, t := range b {
		if seen[t] {
			continue
		}
		seen[t] = true
		if set[t] {
			inter++
		} else {
			union++
		}
	}
	return float64(inter) / float64(union)
}
