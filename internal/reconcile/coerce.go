package reconcile

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/runnerr0/guestbook/internal/filter"
	"github.com/runnerr0/guestbook/internal/visit"
)

// coerce turns an edited row into an event. Unusable cells fall back to the
// original row's value, or to a default for new rows, and every
// substitution is appended to res.Issues.
func (r *Reconciler) coerce(row EditedRow, idx int, orig *visit.Event, spec filter.Spec, res *Result) visit.Event {
	id := row.ID
	if orig == nil {
		id = r.NewID()
	}
	note := func(field, value, substituted string) {
		res.Issues = append(res.Issues, Issue{
			RowID: id, Row: idx, Field: field, Value: value, Substituted: substituted,
		})
	}

	var base time.Time
	if orig != nil {
		base = orig.Timestamp
	} else {
		base = r.defaultDay(spec)
	}
	keep := func(v int) int {
		if orig != nil {
			return v
		}
		return 0
	}

	year := number(row.Year, "year", 1, 9999, keep(base.Year()), note)
	month := number(row.Month, "month", 1, 12, keep(int(base.Month())), note)
	day := number(row.Day, "day", 1, 31, keep(base.Day()), note)
	hour := number(row.Hour, "hour", 0, 23, keep(base.Hour()), note)

	minute, second := 0, 0
	if orig != nil {
		minute, second = base.Minute(), base.Second()
	}

	ts := time.Date(year, time.Month(month), day, hour, minute, second, 0, time.UTC)
	if year < 1 || ts.Year() != year || int(ts.Month()) != month || ts.Day() != day {
		fallback := time.Date(base.Year(), base.Month(), base.Day(), hour, minute, second, 0, time.UTC)
		note("date", fmt.Sprintf("%04d-%02d-%02d", year, month, day), fallback.Format(visit.DateLayout))
		ts = fallback
	}

	e := visit.Event{ID: id, Timestamp: ts}
	for _, f := range []visit.Field{visit.FieldGender, visit.FieldAgeBracket, visit.FieldPurpose, visit.FieldLocation} {
		if !r.Schema.Active(f) {
			if orig != nil {
				e.Set(f, orig.Value(f))
			}
			continue
		}

		raw := row.value(f)
		v := r.Schema.Normalize(raw)
		if r.Schema.Has(f, v) {
			e.Set(f, v)
			continue
		}

		sub := r.Schema.Fallback(f)
		if orig != nil && orig.Value(f) != "" {
			sub = orig.Value(f)
		}
		note(string(f), raw, sub)
		e.Set(f, sub)
	}

	e.Derive(r.Schema.Locale)
	return e
}

// defaultDay is the date given to new rows whose own date is unusable: the
// start of the filter range, or today when the range is open.
func (r *Reconciler) defaultDay(spec filter.Spec) time.Time {
	if !spec.Start.IsZero() {
		return visit.DateOf(spec.Start)
	}
	return visit.DateOf(r.Now())
}

// number parses an integer cell. Spreadsheet editors send whole numbers as
// "3.0", so integral floats are accepted.
func number(raw, field string, lo, hi, fallback int, note func(field, value, substituted string)) int {
	s := strings.TrimSpace(raw)
	v, err := strconv.Atoi(s)
	if err != nil {
		f, ferr := strconv.ParseFloat(s, 64)
		if ferr != nil || f != math.Trunc(f) || math.IsInf(f, 0) {
			note(field, raw, strconv.Itoa(fallback))
			return fallback
		}
		v = int(f)
	}
	if v < lo || v > hi {
		note(field, raw, strconv.Itoa(fallback))
		return fallback
	}
	return v
}

func (row EditedRow) value(f visit.Field) string {
	switch f {
	case visit.FieldGender:
		return row.Gender
	case visit.FieldAgeBracket:
		return row.AgeBracket
	case visit.FieldPurpose:
		return row.Purpose
	case visit.FieldLocation:
		return row.Location
	}
	return ""
}

// RowFor renders an event as the editor shows it.
func RowFor(e visit.Event) EditedRow {
	return EditedRow{
		ID:         e.ID,
		Year:       strconv.Itoa(e.Timestamp.Year()),
		Month:      strconv.Itoa(int(e.Timestamp.Month())),
		Day:        strconv.Itoa(e.Timestamp.Day()),
		Hour:       strconv.Itoa(e.Timestamp.Hour()),
		Gender:     e.Gender,
		AgeBracket: e.AgeBracket,
		Purpose:    e.Purpose,
		Location:   e.Location,
	}
}

func sameEvent(a, b visit.Event) bool {
	return a.ID == b.ID &&
		a.Timestamp.Equal(b.Timestamp) &&
		a.Gender == b.Gender &&
		a.AgeBracket == b.AgeBracket &&
		a.Purpose == b.Purpose &&
		a.Location == b.Location
}
