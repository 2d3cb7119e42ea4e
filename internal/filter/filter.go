// Package filter selects the subset of the visit log an administrator is
// looking at: an inclusive date range plus a chosen set of values for each
// category.
package filter

import (
	"slices"
	"time"

	"github.com/runnerr0/guestbook/internal/visit"
)

// Spec is a filter. A zero Start or End leaves that side of the range
// open. A nil or empty category set matches nothing.
type Spec struct {
	Start       time.Time `json:"start"`
	End         time.Time `json:"end"`
	Genders     []string  `json:"genders"`
	AgeBrackets []string  `json:"age_brackets"`
	Purposes    []string  `json:"purposes"`
	Locations   []string  `json:"locations,omitempty"`
}

// All returns a Spec selecting every canonical category value between
// start and end.
func All(schema visit.Schema, start, end time.Time) Spec {
	return Spec{
		Start:       visit.DateOf(start),
		End:         visit.DateOf(end),
		Genders:     slices.Clone(schema.Genders),
		AgeBrackets: slices.Clone(schema.AgeBrackets),
		Purposes:    slices.Clone(schema.Purposes),
		Locations:   slices.Clone(schema.Locations),
	}
}

// Values returns the selected set for f.
func (s Spec) Values(f visit.Field) []string {
	switch f {
	case visit.FieldGender:
		return s.Genders
	case visit.FieldAgeBracket:
		return s.AgeBrackets
	case visit.FieldPurpose:
		return s.Purposes
	case visit.FieldLocation:
		return s.Locations
	}
	return nil
}

// SetValues replaces the selected set for f.
func (s *Spec) SetValues(f visit.Field, values []string) {
	switch f {
	case visit.FieldGender:
		s.Genders = values
	case visit.FieldAgeBracket:
		s.AgeBrackets = values
	case visit.FieldPurpose:
		s.Purposes = values
	case visit.FieldLocation:
		s.Locations = values
	}
}

// InRange reports whether day falls inside the inclusive date range.
func (s Spec) InRange(day time.Time) bool {
	day = visit.DateOf(day)
	if !s.Start.IsZero() && day.Before(visit.DateOf(s.Start)) {
		return false
	}
	if !s.End.IsZero() && day.After(visit.DateOf(s.End)) {
		return false
	}
	return true
}

// Match reports whether e is in the filtered view. Invalid rows never
// match. Purpose is only checked when the schema has purposes and location
// only when the schema collects it.
func (s Spec) Match(e visit.Event, schema visit.Schema) bool {
	if !e.Valid() || !s.InRange(e.Timestamp) {
		return false
	}
	for _, f := range schema.Fields() {
		if !slices.Contains(s.Values(f), e.Value(f)) {
			return false
		}
	}
	return true
}

// Apply returns the rows matching s, in log order.
func Apply(rows []visit.Event, s Spec, schema visit.Schema) []visit.Event {
	view, _ := Partition(rows, s, schema)
	return view
}

// Partition splits rows into the filtered view and its complement, both in
// log order. Together they always hold every input row exactly once. rows
// is not modified.
func Partition(rows []visit.Event, s Spec, schema visit.Schema) (view, rest []visit.Event) {
	view = []visit.Event{}
	rest = []visit.Event{}
	for _, e := range rows {
		if s.Match(e, schema) {
			view = append(view, e)
		} else {
			rest = append(rest, e)
		}
	}
	return view, rest
}

// Span returns the first and last day present among the valid rows. ok is
// false when there are none.
func Span(rows []visit.Event) (first, last time.Time, ok bool) {
	for _, e := range rows {
		if !e.Valid() {
			continue
		}
		d := e.Date()
		if !ok || d.Before(first) {
			first = d
		}
		if !ok || d.After(last) {
			last = d
		}
		ok = true
	}
	return first, last, ok
}

// Default is the filter shown before the administrator changes anything:
// the full date span of the data and every category.
func Default(rows []visit.Event, schema visit.Schema) Spec {
	first, last, _ := Span(rows)
	return All(schema, first, last)
}
