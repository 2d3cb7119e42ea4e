package visit

import (
	"slices"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// Schema is the versioned set of canonical category values. Filtering,
// aggregation and export all read their category lists from here.
type Schema struct {
	Version         int               `json:"version"`
	Locale          string            `json:"locale"`
	Genders         []string          `json:"genders"`
	AgeBrackets     []string          `json:"age_brackets"`
	Purposes        []string          `json:"purposes"`
	FallbackPurpose string            `json:"fallback_purpose"`
	LocationEnabled bool              `json:"location_enabled"`
	Locations       []string          `json:"locations,omitempty"`
	Aliases         map[string]string `json:"-"`
}

// Fields returns the categorical fields the schema collects, in display
// order.
func (s Schema) Fields() []Field {
	fields := []Field{FieldGender, FieldAgeBracket}
	if len(s.Purposes) > 0 {
		fields = append(fields, FieldPurpose)
	}
	if s.LocationEnabled {
		fields = append(fields, FieldLocation)
	}
	return fields
}

// Active reports whether f is collected under this schema.
func (s Schema) Active(f Field) bool {
	return slices.Contains(s.Fields(), f)
}

// Canonical returns the ordered values for f.
func (s Schema) Canonical(f Field) []string {
	switch f {
	case FieldGender:
		return s.Genders
	case FieldAgeBracket:
		return s.AgeBrackets
	case FieldPurpose:
		return s.Purposes
	case FieldLocation:
		return s.Locations
	}
	return nil
}

// Has reports whether v is a canonical value of f.
func (s Schema) Has(f Field, v string) bool {
	return slices.Contains(s.Canonical(f), v)
}

// Fallback is the value substituted when an edit supplies something
// unusable and there is no original to fall back to.
func (s Schema) Fallback(f Field) string {
	if f == FieldPurpose && s.FallbackPurpose != "" {
		return s.FallbackPurpose
	}
	if values := s.Canonical(f); len(values) > 0 {
		return values[0]
	}
	return ""
}

// Normalize returns the canonical spelling of a stored label: trimmed, NFC
// composed (spreadsheets on macOS write decomposed Hangul), and mapped
// through the alias table.
func (s Schema) Normalize(v string) string {
	v = norm.NFC.String(strings.TrimSpace(v))
	if v == "" {
		return v
	}
	if canon, ok := s.Aliases[v]; ok {
		return canon
	}
	if canon, ok := s.Aliases[strings.ToLower(v)]; ok {
		return canon
	}
	return v
}
