package model

import "strings"

// NormalizePhase maps a free-text phase label to I, II, or III.
// Matching is case-insensitive and tolerant of prefixes like
// "Phase II" or "SBIR Phase 2". Unrecognized labels return "".
func NormalizePhase(label string) string {
	s := strings.ToUpper(strings.TrimSpace(label))
	if s == "" {
		return ""
	}
	// Strip common prefixes so "SBIR PHASE II" and "PHASE II" both resolve.
	for _, prefix := range []string{"SBIR", "STTR", "PHASE"} {
		s = strings.TrimSpace(strings.TrimPrefix(s, prefix))
	}
	switch s {
	case "III", "3":
		return "III"
	case "II", "2":
		return "II"
	case "I", "1":
		return "I"
	}
	// Roman numerals embedded in longer labels, longest first.
	switch {
	case strings.Contains(s, "III"):
		return "III"
	case strings.Contains(s, "II"):
		return "II"
	case strings.Contains(s, "I"):
		return "I"
	}
	return ""
}

// NormalizeAgency canonicalizes an agency name for grouping: trimmed and
// upper-cased. Empty input stays empty.
func NormalizeAgency(name string) string {
	return strings.ToUpper(strings.TrimSpace(name))
}
