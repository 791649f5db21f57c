package model

import (
	"fmt"
	"strings"
)

// CompanyID is a canonical grouping key for awards. Priority: UEI, then
// DUNS, then normalized company name, then a row-ordinal fallback so a
// record with no identifiers still groups with itself. The key is used
// only to group awards for rate aggregation — it never asserts that two
// records are the same legal entity.
type CompanyID string

// CompanyKey derives the CompanyID for an award. ordinal is the award's
// position in the input snapshot, used only as a last-resort key.
// normalize is the resolver's name normalizer; passing nil falls back to
// trimmed upper-casing.
func CompanyKey(a Award, ordinal int, normalize func(string) string) CompanyID {
	if uei := strings.TrimSpace(a.UEI); uei != "" {
		return CompanyID("uei:" + strings.ToUpper(uei))
	}
	if duns := strings.TrimSpace(a.DUNS); duns != "" {
		return CompanyID("duns:" + duns)
	}
	name := strings.TrimSpace(a.VendorName)
	if name != "" {
		if normalize != nil {
			name = normalize(name)
		} else {
			name = strings.ToUpper(name)
		}
		if name != "" {
			return CompanyID("name:" + name)
		}
	}
	return CompanyID(fmt.Sprintf("row:%d", ordinal))
}
