// Package resolve implements vendor identity resolution: mapping award and
// contract records to canonical vendor keys and deciding whether two records
// refer to the same economic entity.
package resolve

import (
	"regexp"
	"strings"
)

// legalSuffixes lists common legal entity suffixes to strip during name normalization.
var legalSuffixes = []string{
	" LLC", " L.L.C.", " L.L.C",
	" INC", " INC.", " INCORPORATED",
	" CORP", " CORP.", " CORPORATION",
	" LTD", " LTD.", " LIMITED",
	" LP", " L.P.", " L.P",
	" LLP", " L.L.P.", " L.L.P",
	" PC", " P.C.", " P.C",
	" CO", " CO.",
	" PLC", " P.L.C.",
	" JV", " J.V.",
	" PLLC",
}

var multiSpaceRe = regexp.MustCompile(`\s{2,}`)

// Normalizer standardizes vendor names for matching. The abbreviation
// table is configurable so deployments can extend the canonical short
// forms without a code change.
type Normalizer struct {
	abbreviations map[string]string
}

// NewNormalizer creates a Normalizer with the given abbreviation table.
// Keys and values are upper-cased on construction.
func NewNormalizer(abbreviations map[string]string) *Normalizer {
	abbr := make(map[string]string, len(abbreviations))
	for k, v := range abbreviations {
		abbr[strings.ToUpper(k)] = strings.ToUpper(v)
	}
	return &Normalizer{abbreviations: abbr}
}

// NormalizeName standardizes a vendor name for matching by:
//  1. Trimming whitespace
//  2. Converting to uppercase
//  3. Removing common legal suffixes (LLC, Inc, Corp, etc.)
//  4. Stripping punctuation (commas, periods, dashes, ampersands)
//  5. Replacing long terms with canonical abbreviations (TECHNOLOGIES -> TECH)
//  6. Collapsing multiple spaces into single spaces
func (n *Normalizer) NormalizeName(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return ""
	}

	name = strings.ToUpper(name)

	for _, suffix := range legalSuffixes {
		if strings.HasSuffix(name, suffix) {
			name = strings.TrimSuffix(name, suffix)
			break
		}
	}

	name = strings.NewReplacer(
		",", "",
		".", "",
		"'", "",
		"\"", "",
		"&", "AND",
		"-", " ",
		"/", " ",
	).Replace(name)

	name = multiSpaceRe.ReplaceAllString(name, " ")
	name = strings.TrimSpace(name)

	if len(n.abbreviations) > 0 {
		words := strings.Split(name, " ")
		for i, w := range words {
			if short, ok := n.abbreviations[w]; ok {
				words[i] = short
			}
		}
		name = strings.Join(words, " ")
	}

	return name
}
