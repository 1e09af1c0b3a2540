package models

import "strings"

// RawRecord is one parsed row or block of a statement file before semantic
// interpretation. Values are kept exactly as they appeared in the source;
// the Normalizer is responsible for all interpretation.
type RawRecord struct {
	// Index is the originating line number (CSV) or block ordinal (OFX),
	// kept for diagnostics. Indexes are 1-based positions in the source file.
	Index int

	// Fields maps source column or tag names to their raw string values.
	Fields map[string]string
}

// Get returns the raw value for a source field name, case-insensitively
// matching the way vendors mix header casing between exports.
func (r RawRecord) Get(name string) (string, bool) {
	if v, ok := r.Fields[name]; ok {
		return v, true
	}
	for k, v := range r.Fields {
		if strings.EqualFold(k, name) {
			return v, true
		}
	}
	return "", false
}
