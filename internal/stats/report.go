package stats

import (
	"time"

	"github.com/runnerr0/guestbook/internal/visit"
)

// Summary holds the headline numbers of a report.
type Summary struct {
	Total           int       `json:"total"`
	Invalid         int       `json:"invalid"`
	Days            int       `json:"days"`
	AveragePerDay   float64   `json:"average_per_day"`
	PeakDate        time.Time `json:"peak_date"`
	PeakCount       int       `json:"peak_count"`
	TopPurpose      string    `json:"top_purpose"`
	TopPurposeCount int       `json:"top_purpose_count"`
}

// Summarize computes the headline numbers. The average is over days that
// have at least one visit. Ties for the peak go to the earliest date and
// ties for the top purpose to the schema's order.
func Summarize(rows []visit.Event, schema visit.Schema) Summary {
	var s Summary
	for _, e := range rows {
		if e.Valid() {
			s.Total++
		} else {
			s.Invalid++
		}
	}

	for dc := range Daily(rows) {
		s.Days++
		if dc.Count > s.PeakCount {
			s.PeakCount = dc.Count
			s.PeakDate = dc.Date
		}
	}
	if s.Days > 0 {
		s.AveragePerDay = round2(float64(s.Total) / float64(s.Days))
	}

	if len(schema.Purposes) > 0 {
		for _, c := range Categorical(rows, visit.FieldPurpose, schema.Purposes) {
			if c.Count > s.TopPurposeCount {
				s.TopPurpose = c.Value
				s.TopPurposeCount = c.Count
			}
		}
	}
	return s
}

// Report bundles every aggregate the dashboard and the exporter show.
type Report struct {
	Summary     Summary         `json:"summary"`
	Daily       []DayCount      `json:"daily"`
	Weekly      []WeekCount     `json:"weekly"`
	Monthly     []PeriodCount   `json:"monthly"`
	Genders     []CategoryCount `json:"genders"`
	AgeBrackets []CategoryCount `json:"age_brackets"`
	Purposes    []CategoryCount `json:"purposes,omitempty"`
	Locations   []CategoryCount `json:"locations,omitempty"`
	Hourly      [24]int         `json:"hourly"`
	Heatmap     Matrix          `json:"heatmap"`
}

// Generate computes the full report for rows.
func Generate(rows []visit.Event, schema visit.Schema) *Report {
	r := &Report{
		Summary:     Summarize(rows, schema),
		Daily:       DailyCounts(rows),
		Weekly:      Weekly(rows),
		Monthly:     Monthly(rows),
		Genders:     Categorical(rows, visit.FieldGender, schema.Genders),
		AgeBrackets: Categorical(rows, visit.FieldAgeBracket, schema.AgeBrackets),
		Hourly:      Hourly(rows),
		Heatmap:     Heatmap(rows),
	}
	if schema.Active(visit.FieldPurpose) {
		r.Purposes = Categorical(rows, visit.FieldPurpose, schema.Purposes)
	}
	if schema.Active(visit.FieldLocation) {
		r.Locations = Categorical(rows, visit.FieldLocation, schema.Locations)
	}
	return r
}

// Breakdown is one categorical breakdown of a report.
type Breakdown struct {
	Field  visit.Field
	Counts []CategoryCount
}

// Categories returns the categorical breakdowns in schema order.
func (r *Report) Categories(schema visit.Schema) []Breakdown {
	var out []Breakdown
	for _, f := range schema.Fields() {
		switch f {
		case visit.FieldGender:
			out = append(out, Breakdown{f, r.Genders})
		case visit.FieldAgeBracket:
			out = append(out, Breakdown{f, r.AgeBrackets})
		case visit.FieldPurpose:
			out = append(out, Breakdown{f, r.Purposes})
		case visit.FieldLocation:
			out = append(out, Breakdown{f, r.Locations})
		}
	}
	return out
}
