// Package export renders visit rows and their aggregates as an xlsx
// workbook for download.
package export

import (
	"fmt"
	"strings"
	"time"

	"github.com/runnerr0/guestbook/internal/filter"
	"github.com/runnerr0/guestbook/internal/stats"
	"github.com/runnerr0/guestbook/internal/visit"
	"github.com/xuri/excelize/v2"
)

// Meta describes where an export came from. It is written to the info
// sheet.
type Meta struct {
	Site        string
	Filter      *filter.Spec // nil for the full log
	GeneratedAt time.Time
}

// Workbook renders rows as an xlsx document. The first sheet lists the rows
// themselves, rows with an unreadable timestamp included as stored; the
// remaining sheets hold the same aggregates the dashboard shows.
func Workbook(rows []visit.Event, meta Meta, schema visit.Schema) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	l := labelsFor(schema.Locale)
	if err := f.SetSheetName(f.GetSheetName(0), l.Visits); err != nil {
		return nil, fmt.Errorf("rename sheet: %w", err)
	}
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, fmt.Errorf("create style: %w", err)
	}

	w := &writer{f: f, l: l, header: bold}
	report := stats.Generate(rows, schema)

	w.visits(rows, schema)
	w.daily(report.Daily)
	w.weekly(report.Weekly)
	w.monthly(report.Monthly)
	for _, b := range report.Categories(schema) {
		w.category(b)
	}
	w.hourly(report.Hourly)
	w.heatmap(report.Heatmap, schema.Locale)
	w.summary(report.Summary)
	w.info(meta, schema, len(rows), report.Summary.Invalid)
	if w.err != nil {
		return nil, fmt.Errorf("write workbook: %w", w.err)
	}

	f.SetActiveSheet(0)
	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("encode workbook: %w", err)
	}
	return buf.Bytes(), nil
}

// writer accumulates the first error so the sheet builders read straight
// through.
type writer struct {
	f      *excelize.File
	l      labels
	header int
	err    error
}

func (w *writer) table(sheet string, header []any, rows [][]any) {
	if w.err != nil {
		return
	}
	if _, err := w.f.NewSheet(sheet); err != nil {
		w.err = err
		return
	}
	if err := w.f.SetSheetRow(sheet, "A1", &header); err != nil {
		w.err = err
		return
	}
	if err := w.f.SetRowStyle(sheet, 1, 1, w.header); err != nil {
		w.err = err
		return
	}
	for i := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			w.err = err
			return
		}
		if err := w.f.SetSheetRow(sheet, cell, &rows[i]); err != nil {
			w.err = err
			return
		}
	}
}

func (w *writer) visits(rows []visit.Event, schema visit.Schema) {
	withPurpose := schema.Active(visit.FieldPurpose) || anyValue(rows, visit.FieldPurpose)
	withLocation := schema.Active(visit.FieldLocation) || anyValue(rows, visit.FieldLocation)

	header := []any{w.l.Timestamp, w.l.Weekday, w.l.Year, w.l.Month, w.l.Day, w.l.Hour, w.l.Week, w.l.Period,
		w.l.Fields[visit.FieldGender], w.l.Fields[visit.FieldAgeBracket]}
	if withPurpose {
		header = append(header, w.l.Fields[visit.FieldPurpose])
	}
	if withLocation {
		header = append(header, w.l.Fields[visit.FieldLocation])
	}
	header = append(header, w.l.ID)

	out := make([][]any, 0, len(rows))
	for _, e := range rows {
		var row []any
		if e.Valid() {
			t := e.Timestamp
			row = []any{visit.FormatTimestamp(t), e.Weekday, t.Year(), int(t.Month()), t.Day(), t.Hour(), stats.WeekLabel(t), stats.MonthLabel(t)}
		} else {
			row = []any{e.RawTimestamp, e.Weekday, "", "", "", "", "", ""}
		}
		row = append(row, e.Gender, e.AgeBracket)
		if withPurpose {
			row = append(row, e.Purpose)
		}
		if withLocation {
			row = append(row, e.Location)
		}
		out = append(out, append(row, e.ID))
	}
	w.table(w.l.Visits, header, out)
}

func (w *writer) daily(days []stats.DayCount) {
	out := make([][]any, 0, len(days))
	for _, d := range days {
		out = append(out, []any{d.Date.Format(visit.DateLayout), d.Count})
	}
	w.table(w.l.Daily, []any{w.l.Date, w.l.Count}, out)
}

func (w *writer) weekly(weeks []stats.WeekCount) {
	out := make([][]any, 0, len(weeks))
	for _, wk := range weeks {
		out = append(out, []any{wk.Label, wk.Start.Format(visit.DateLayout), wk.End.Format(visit.DateLayout), wk.Count})
	}
	w.table(w.l.Weekly, []any{w.l.Week, w.l.Start, w.l.End, w.l.Count}, out)
}

func (w *writer) monthly(months []stats.PeriodCount) {
	out := make([][]any, 0, len(months))
	for _, m := range months {
		out = append(out, []any{m.Label, m.Count})
	}
	w.table(w.l.Monthly, []any{w.l.Period, w.l.Count}, out)
}

func (w *writer) category(b stats.Breakdown) {
	out := make([][]any, 0, len(b.Counts))
	for _, c := range b.Counts {
		out = append(out, []any{c.Value, c.Count})
	}
	w.table(w.l.Fields[b.Field], []any{w.l.Value, w.l.Count}, out)
}

func (w *writer) hourly(hours [24]int) {
	out := make([][]any, 0, len(hours))
	for h, n := range hours {
		out = append(out, []any{h, n})
	}
	w.table(w.l.Hourly, []any{w.l.Hour, w.l.Count}, out)
}

func (w *writer) heatmap(m stats.Matrix, locale string) {
	header := []any{w.l.Weekday}
	for h := 0; h < 24; h++ {
		header = append(header, h)
	}
	out := make([][]any, 0, len(m))
	for i, hours := range m {
		row := []any{visit.WeekdayLabel(visit.WeekdayFromMonday(i), locale)}
		for _, n := range hours {
			row = append(row, n)
		}
		out = append(out, row)
	}
	w.table(w.l.Heatmap, header, out)
}

func (w *writer) summary(s stats.Summary) {
	peak := ""
	if !s.PeakDate.IsZero() {
		peak = s.PeakDate.Format(visit.DateLayout)
	}
	w.table(w.l.Summary, []any{w.l.Value, w.l.Count}, [][]any{
		{w.l.Total, s.Total},
		{w.l.Invalid, s.Invalid},
		{w.l.Days, s.Days},
		{w.l.Average, s.AveragePerDay},
		{w.l.Peak, peak},
		{w.l.PeakCount, s.PeakCount},
		{w.l.TopPurpose, s.TopPurpose},
		{w.l.TopPurposeCount, s.TopPurposeCount},
	})
}

func (w *writer) info(meta Meta, schema visit.Schema, rows, invalid int) {
	out := [][]any{
		{w.l.Site, meta.Site},
		{w.l.Generated, visit.FormatTimestamp(meta.GeneratedAt)},
		{w.l.SchemaVersion, schema.Version},
	}
	if meta.Filter == nil {
		out = append(out, []any{w.l.Range, w.l.AllRows})
	} else {
		out = append(out, []any{w.l.Range, w.bound(meta.Filter.Start) + " ~ " + w.bound(meta.Filter.End)})
		for _, f := range schema.Fields() {
			out = append(out, []any{w.l.Fields[f], strings.Join(meta.Filter.Values(f), ", ")})
		}
	}
	out = append(out, []any{w.l.Rows, rows}, []any{w.l.Invalid, invalid})
	w.table(w.l.Info, []any{w.l.Value, ""}, out)
}

func (w *writer) bound(t time.Time) string {
	if t.IsZero() {
		return w.l.Open
	}
	return t.Format(visit.DateLayout)
}

func anyValue(rows []visit.Event, f visit.Field) bool {
	for _, e := range rows {
		if e.Value(f) != "" {
			return true
		}
	}
	return false
}
