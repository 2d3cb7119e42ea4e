// Package stats computes the dashboard aggregates over a set of visit
// events. Every function is pure and skips rows without a valid timestamp.
package stats

import (
	"fmt"
	"iter"
	"math"
	"sort"
	"time"

	"github.com/runnerr0/guestbook/internal/visit"
)

// DayCount is the number of visits on one calendar day.
type DayCount struct {
	Date  time.Time `json:"date"`
	Count int       `json:"count"`
}

// PeriodCount is the number of visits in one calendar month.
type PeriodCount struct {
	Label string     `json:"label"`
	Year  int        `json:"year"`
	Month time.Month `json:"month"`
	Count int        `json:"count"`
}

// WeekCount is the number of visits in one ISO week.
type WeekCount struct {
	Label string    `json:"label"`
	Year  int       `json:"year"`
	Week  int       `json:"week"`
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
	Count int       `json:"count"`
}

// CategoryCount is the number of visits with one category value.
type CategoryCount struct {
	Value string `json:"value"`
	Count int    `json:"count"`
}

// Matrix counts visits by weekday (Monday first) and hour.
type Matrix [7][24]int

// Daily yields per-day counts in ascending date order. The sequence is
// computed when iterated, so it can be ranged over more than once.
func Daily(rows []visit.Event) iter.Seq[DayCount] {
	return func(yield func(DayCount) bool) {
		counts := map[time.Time]int{}
		for _, e := range rows {
			if e.Valid() {
				counts[e.Date()]++
			}
		}
		days := make([]time.Time, 0, len(counts))
		for d := range counts {
			days = append(days, d)
		}
		sort.Slice(days, func(i, j int) bool { return days[i].Before(days[j]) })

		for _, d := range days {
			if !yield(DayCount{Date: d, Count: counts[d]}) {
				return
			}
		}
	}
}

// DailyCounts collects Daily into a slice.
func DailyCounts(rows []visit.Event) []DayCount {
	out := []DayCount{}
	for dc := range Daily(rows) {
		out = append(out, dc)
	}
	return out
}

// MonthLabel formats the calendar month of t as YYYY-MM.
func MonthLabel(t time.Time) string {
	return t.Format("2006-01")
}

// Monthly returns per-month counts in ascending order.
func Monthly(rows []visit.Event) []PeriodCount {
	type key struct {
		year  int
		month time.Month
	}
	counts := map[key]int{}
	for _, e := range rows {
		if e.Valid() {
			counts[key{e.Timestamp.Year(), e.Timestamp.Month()}]++
		}
	}

	out := make([]PeriodCount, 0, len(counts))
	for k, n := range counts {
		out = append(out, PeriodCount{
			Label: fmt.Sprintf("%04d-%02d", k.year, int(k.month)),
			Year:  k.year,
			Month: k.month,
			Count: n,
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Year != out[j].Year {
			return out[i].Year < out[j].Year
		}
		return out[i].Month < out[j].Month
	})
	return out
}

// WeekLabel formats the ISO week of t as YYYY-Www.
func WeekLabel(t time.Time) string {
	y, w := t.ISOWeek()
	return fmt.Sprintf("%04d-W%02d", y, w)
}

// ISOWeekRange returns the Monday and Sunday of ISO week (year, week).
func ISOWeekRange(year, week int) (start, end time.Time) {
	// January 4th is always in week 1.
	jan4 := time.Date(year, time.January, 4, 0, 0, 0, 0, time.UTC)
	monday := jan4.AddDate(0, 0, -visit.MondayIndex(jan4.Weekday()))
	start = monday.AddDate(0, 0, (week-1)*7)
	return start, start.AddDate(0, 0, 6)
}

// Weekly returns per-ISO-week counts in ascending order. Days late in
// December can belong to week 1 of the next year and early January days
// to the last week of the previous one.
func Weekly(rows []visit.Event) []WeekCount {
	type key struct{ year, week int }
	counts := map[key]int{}
	for _, e := range rows {
		if e.Valid() {
			y, w := e.Timestamp.ISOWeek()
			counts[key{y, w}]++
		}
	}

	out := make([]WeekCount, 0, len(counts))
	for k, n := range counts {
		start, end := ISOWeekRange(k.year, k.week)
		out = append(out, WeekCount{
			Label: fmt.Sprintf("%04d-W%02d", k.year, k.week),
			Year:  k.year,
			Week:  k.week,
			Start: start,
			End:   end,
			Count: n,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Start.Before(out[j].Start) })
	return out
}

// Categorical counts rows by field. The result has one entry per canonical
// value in canonical order, zeros included, followed by any other values
// in order of first appearance.
func Categorical(rows []visit.Event, field visit.Field, canonical []string) []CategoryCount {
	out := make([]CategoryCount, 0, len(canonical))
	index := make(map[string]int, len(canonical))
	for _, v := range canonical {
		if _, dup := index[v]; dup {
			continue
		}
		index[v] = len(out)
		out = append(out, CategoryCount{Value: v})
	}

	for _, e := range rows {
		if !e.Valid() {
			continue
		}
		v := e.Value(field)
		i, ok := index[v]
		if !ok {
			i = len(out)
			index[v] = i
			out = append(out, CategoryCount{Value: v})
		}
		out[i].Count++
	}
	return out
}

// Hourly counts visits per hour of day.
func Hourly(rows []visit.Event) [24]int {
	var out [24]int
	for _, e := range rows {
		if e.Valid() {
			out[e.Timestamp.Hour()]++
		}
	}
	return out
}

// Heatmap counts visits per weekday and hour, Monday in row 0.
func Heatmap(rows []visit.Event) Matrix {
	var m Matrix
	for _, e := range rows {
		if e.Valid() {
			m[visit.MondayIndex(e.Timestamp.Weekday())][e.Timestamp.Hour()]++
		}
	}
	return m
}

// round2 rounds to two decimal places.
func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
