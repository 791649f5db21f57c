package model

import "strings"

// FieldSource is a capability interface for schema-tolerant access to
// row-oriented inputs whose column names vary by data source. GetOptional
// returns the value for a column and whether it was present; absence is
// never an error.
type FieldSource interface {
	GetOptional(name string) (string, bool)
}

// MapSource adapts a plain string map to a FieldSource.
type MapSource map[string]string

// GetOptional looks up a column case-insensitively.
func (m MapSource) GetOptional(name string) (string, bool) {
	if v, ok := m[name]; ok {
		return v, true
	}
	for k, v := range m {
		if strings.EqualFold(k, name) {
			return v, true
		}
	}
	return "", false
}

// FirstPresentColumn returns the value of the first candidate column
// present in src with a non-empty value. Used throughout ingestion and
// aggregation to cope with upstream schema drift (e.g. "uei" vs
// "vendor_uei" vs "recipient_uei").
func FirstPresentColumn(src FieldSource, candidates ...string) (string, bool) {
	for _, c := range candidates {
		if v, ok := src.GetOptional(c); ok && strings.TrimSpace(v) != "" {
			return v, true
		}
	}
	return "", false
}
