package config

import (
	"github.com/runnerr0/guestbook/internal/visit"
	"golang.org/x/text/unicode/norm"
)

// VisitSchema converts the schema section into the form the domain
// packages consume. Alias keys are NFC-normalised so lookups match
// normalised input.
func (c *Config) VisitSchema() visit.Schema {
	aliases := make(map[string]string, len(c.Schema.Aliases))
	for k, v := range c.Schema.Aliases {
		aliases[norm.NFC.String(k)] = norm.NFC.String(v)
	}
	return visit.Schema{
		Version:         c.Schema.Version,
		Locale:          c.Site.Locale,
		Genders:         c.Schema.Genders,
		AgeBrackets:     c.Schema.AgeBrackets,
		Purposes:        c.Schema.Purposes,
		FallbackPurpose: c.Schema.FallbackPurpose,
		LocationEnabled: c.Schema.LocationEnabled,
		Locations:       c.Schema.Locations,
		Aliases:         aliases,
	}
}
