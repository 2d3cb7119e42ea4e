package reconcile

import (
	"fmt"
	"testing"
	"time"

	"github.com/runnerr0/guestbook/internal/filter"
	"github.com/runnerr0/guestbook/internal/visit"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testSchema() visit.Schema {
	return visit.Schema{
		Version:         1,
		Locale:          "ko",
		Genders:         []string{"남성", "여성"},
		AgeBrackets:     []string{"7세 이하", "초등", "중등", "고등", "만 20세~24세", "만 25세 이상"},
		Purposes:        []string{"놀이", "휴식", "식사", "친목", "기타"},
		FallbackPurpose: "기타",
		Aliases:         map[string]string{"여": "여성"},
	}
}

func newTestReconciler() *Reconciler {
	r := New(testSchema())
	r.Now = func() time.Time { return time.Date(2026, 10, 19, 15, 0, 0, 0, time.UTC) }
	n := 0
	r.NewID = func() string {
		n++
		return fmt.Sprintf("new-%d", n)
	}
	return r
}

func ev(id, ts, gender, age, purpose string) visit.Event {
	t, err := visit.ParseTimestamp(ts)
	if err != nil {
		panic(err)
	}
	e := visit.Event{ID: id, Timestamp: t, Gender: gender, AgeBracket: age, Purpose: purpose}
	e.Derive("ko")
	return e
}

func day(s string) time.Time {
	t, err := visit.ParseDate(s)
	if err != nil {
		panic(err)
	}
	return t
}

func ids(rows []visit.Event) []string {
	out := make([]string, len(rows))
	for i, e := range rows {
		out[i] = e.ID
	}
	return out
}

func rowsFor(events []visit.Event) []EditedRow {
	out := make([]EditedRow, len(events))
	for i, e := range events {
		out[i] = RowFor(e)
	}
	return out
}

// fiveInThreeOut interleaves five January rows with three rows outside the
// filter.
func fiveInThreeOut() ([]visit.Event, filter.Spec) {
	full := []visit.Event{
		ev("in1", "2026-01-03 10:15:30", "남성", "초등", "놀이"),
		ev("out1", "2025-12-20 10:00:00", "여성", "고등", "휴식"),
		ev("in2", "2026-01-04 11:00:00", "여성", "중등", "식사"),
		ev("in3", "2026-01-05 12:00:00", "남성", "고등", "친목"),
		ev("out2", "2026-02-01 09:00:00", "남성", "초등", "놀이"),
		ev("in4", "2026-01-06 13:00:00", "여성", "초등", "기타"),
		{ID: "out3", RawTimestamp: "broken", Gender: "남성", AgeBracket: "초등", Purpose: "놀이"},
		ev("in5", "2026-01-07 14:00:00", "남성", "만 25세 이상", "놀이"),
	}
	return full, filter.All(testSchema(), day("2026-01-01"), day("2026-01-31"))
}

func TestReconcileUnchangedRoundTrip(t *testing.T) {
	r := newTestReconciler()
	full, spec := fiveInThreeOut()
	view := filter.Apply(full, spec, r.Schema)

	res, err := r.Reconcile(full, Request{Filter: spec, Rows: rowsFor(view)})
	require.NoError(t, err)

	assert.Equal(t, ids(full), ids(res.Rows))
	assert.Empty(t, res.Issues)
	assert.Zero(t, res.Updated)
	assert.Zero(t, res.Inserted)
	assert.Zero(t, res.Deleted)
	for i := range full {
		assert.True(t, sameEvent(full[i], res.Rows[i]), "row %d changed", i)
	}
}

func TestReconcileDeleteThirdOfFive(t *testing.T) {
	r := newTestReconciler()
	full, spec := fiveInThreeOut()
	view := filter.Apply(full, spec, r.Schema)
	require.Len(t, view, 5)

	edited := rowsFor(view)
	edited = append(edited[:2], edited[3:]...)

	res, err := r.Reconcile(full, Request{Filter: spec, Rows: edited})
	require.NoError(t, err)

	assert.Equal(t, 1, res.Deleted)
	assert.Equal(t, []string{"in1", "out1", "in2", "out2", "in4", "out3", "in5"}, ids(res.Rows))

	newView, rest := filter.Partition(res.Rows, spec, r.Schema)
	assert.Len(t, newView, 4)
	_, oldRest := filter.Partition(full, spec, r.Schema)
	assert.Equal(t, oldRest, rest, "rows outside the filter are untouched")
}

func TestReconcileEditInPlacePreservesMinutes(t *testing.T) {
	r := newTestReconciler()
	full, spec := fiveInThreeOut()
	view := filter.Apply(full, spec, r.Schema)
	edited := rowsFor(view)
	edited[0].Hour = "16"
	edited[0].Purpose = "휴식"
	edited[0].Gender = "여"

	res, err := r.Reconcile(full, Request{Filter: spec, Rows: edited})
	require.NoError(t, err)
	require.Empty(t, res.Issues)
	assert.Equal(t, 1, res.Updated)

	got := res.Rows[0]
	assert.Equal(t, "in1", got.ID)
	assert.Equal(t, time.Date(2026, 1, 3, 16, 15, 30, 0, time.UTC), got.Timestamp)
	assert.Equal(t, "휴식", got.Purpose)
	assert.Equal(t, "여성", got.Gender)
	assert.Equal(t, "토", got.Weekday)
}

func TestReconcileMovingDateRecomputesDerivedFields(t *testing.T) {
	r := newTestReconciler()
	full, spec := fiveInThreeOut()
	edited := rowsFor(filter.Apply(full, spec, r.Schema))
	edited[0].Month = "2"
	edited[0].Day = "2"

	res, err := r.Reconcile(full, Request{Filter: spec, Rows: edited})
	require.NoError(t, err)

	got := res.Rows[0]
	assert.Equal(t, 2, got.Month)
	assert.Equal(t, "월", got.Weekday)
	assert.Equal(t, "2026-02-02 10:15:30", got.RawTimestamp)
}

func TestReconcileInsertAppendsAtEnd(t *testing.T) {
	r := newTestReconciler()
	full, spec := fiveInThreeOut()
	edited := rowsFor(filter.Apply(full, spec, r.Schema))
	edited = append(edited, EditedRow{
		Year: "2026", Month: "1", Day: "10", Hour: "9",
		Gender: "여성", AgeBracket: "7세 이하", Purpose: "놀이",
	})

	res, err := r.Reconcile(full, Request{Filter: spec, Rows: edited})
	require.NoError(t, err)

	require.Len(t, res.Rows, len(full)+1)
	last := res.Rows[len(res.Rows)-1]
	assert.Equal(t, "new-1", last.ID)
	assert.Equal(t, time.Date(2026, 1, 10, 9, 0, 0, 0, time.UTC), last.Timestamp)
	assert.Equal(t, 1, res.Inserted)
	assert.Empty(t, res.Issues)
}

func TestReconcileCoercionDefaults(t *testing.T) {
	r := newTestReconciler()
	full, spec := fiveInThreeOut()
	edited := rowsFor(filter.Apply(full, spec, r.Schema))
	edited[1].Hour = "abc"
	edited[1].AgeBracket = "대학생"
	edited[2].Day = "32"
	edited = append(edited, EditedRow{Year: "x", Month: "", Day: "", Hour: "25", Gender: "남성", AgeBracket: "초등"})

	res, err := r.Reconcile(full, Request{Filter: spec, Rows: edited})
	require.NoError(t, err)

	// in2: hour and age fall back to the original row.
	in2 := res.Rows[2]
	assert.Equal(t, "in2", in2.ID)
	assert.Equal(t, 11, in2.Timestamp.Hour())
	assert.Equal(t, "중등", in2.AgeBracket)

	// in3: day 32 is out of range, original day kept.
	in3 := res.Rows[3]
	assert.Equal(t, 5, in3.Timestamp.Day())

	// New row: date falls back to the filter start, hour to 0, purpose to 기타.
	last := res.Rows[len(res.Rows)-1]
	assert.Equal(t, time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC), last.Timestamp)
	assert.Equal(t, "기타", last.Purpose)

	fields := map[string]int{}
	for _, is := range res.Issues {
		fields[is.Field]++
	}
	assert.Equal(t, 2, fields["hour"])
	assert.Equal(t, 1, fields["age_bracket"])
	assert.Equal(t, 2, fields["day"])
	assert.Equal(t, 1, fields["year"])
	assert.Equal(t, 1, fields["month"])
	assert.Equal(t, 1, fields["date"])
	assert.Equal(t, 1, fields["purpose"])
}

func TestReconcileImpossibleDateKeepsOriginal(t *testing.T) {
	r := newTestReconciler()
	full, spec := fiveInThreeOut()
	edited := rowsFor(filter.Apply(full, spec, r.Schema))
	edited[0].Month = "2"
	edited[0].Day = "30"

	res, err := r.Reconcile(full, Request{Filter: spec, Rows: edited})
	require.NoError(t, err)

	assert.Equal(t, full[0].Timestamp, res.Rows[0].Timestamp)
	require.Len(t, res.Issues, 1)
	assert.Equal(t, "date", res.Issues[0].Field)
	assert.Equal(t, "2026-02-30", res.Issues[0].Value)
	assert.Equal(t, "2026-01-03", res.Issues[0].Substituted)
}

func TestReconcileAcceptsSpreadsheetFloats(t *testing.T) {
	r := newTestReconciler()
	full, spec := fiveInThreeOut()
	edited := rowsFor(filter.Apply(full, spec, r.Schema))
	edited[0].Hour = "8.0"

	res, err := r.Reconcile(full, Request{Filter: spec, Rows: edited})
	require.NoError(t, err)
	assert.Empty(t, res.Issues)
	assert.Equal(t, 8, res.Rows[0].Timestamp.Hour())
}

func TestReconcileOpenRangeNewRowUsesToday(t *testing.T) {
	r := newTestReconciler()
	spec := filter.All(r.Schema, time.Time{}, time.Time{})

	res, err := r.Reconcile(nil, Request{Filter: spec, Rows: []EditedRow{
		{Hour: "10", Gender: "남성", AgeBracket: "초등", Purpose: "놀이"},
	}})
	require.NoError(t, err)
	require.Len(t, res.Rows, 1)
	assert.Equal(t, time.Date(2026, 10, 19, 10, 0, 0, 0, time.UTC), res.Rows[0].Timestamp)
}

func TestReconcileRejectsRowsOutsideView(t *testing.T) {
	r := newTestReconciler()
	full, spec := fiveInThreeOut()
	edited := rowsFor(filter.Apply(full, spec, r.Schema))
	edited[0].ID = "out1"

	_, err := r.Reconcile(full, Request{Filter: spec, Rows: edited})
	var cerr *ConflictError
	require.ErrorAs(t, err, &cerr)
	assert.Equal(t, "out1", cerr.ID)
}

func TestReconcileRejectsDuplicateIDs(t *testing.T) {
	r := newTestReconciler()
	full, spec := fiveInThreeOut()
	edited := rowsFor(filter.Apply(full, spec, r.Schema))
	edited[1].ID = edited[0].ID

	_, err := r.Reconcile(full, Request{Filter: spec, Rows: edited})
	var cerr *ConflictError
	require.ErrorAs(t, err, &cerr)
	assert.Contains(t, cerr.Error(), "more than once")
}

func TestReconcileBaselineKeepsLateArrivals(t *testing.T) {
	r := newTestReconciler()
	full, spec := fiveInThreeOut()
	view := filter.Apply(full, spec, r.Schema)
	baseline := ids(view)
	edited := rowsFor(view)

	// A kiosk submission lands after the editor loaded.
	full = append(full, ev("late", "2026-01-20 10:00:00", "여성", "고등", "놀이"))

	res, err := r.Reconcile(full, Request{Filter: spec, Rows: edited, Baseline: baseline})
	require.NoError(t, err)
	assert.Contains(t, ids(res.Rows), "late")
	assert.Zero(t, res.Deleted)

	// Without a baseline the late row counts as deleted by the editor.
	res, err = r.Reconcile(full, Request{Filter: spec, Rows: edited})
	require.NoError(t, err)
	assert.NotContains(t, ids(res.Rows), "late")
	assert.Equal(t, 1, res.Deleted)
}

func TestReconcileThenFilterReturnsEdits(t *testing.T) {
	r := newTestReconciler()
	full, spec := fiveInThreeOut()
	edited := rowsFor(filter.Apply(full, spec, r.Schema))
	edited[3].Purpose = "식사"
	edited = append(edited[:1], edited[2:]...)

	res, err := r.Reconcile(full, Request{Filter: spec, Rows: edited})
	require.NoError(t, err)

	got := rowsFor(filter.Apply(res.Rows, spec, r.Schema))
	assert.Equal(t, edited, got)
}

func TestReconcileDoesNotMutateInput(t *testing.T) {
	r := newTestReconciler()
	full, spec := fiveInThreeOut()
	snapshot := append([]visit.Event(nil), full...)
	edited := rowsFor(filter.Apply(full, spec, r.Schema))
	edited[0].Purpose = "휴식"

	_, err := r.Reconcile(full, Request{Filter: spec, Rows: edited})
	require.NoError(t, err)
	assert.Equal(t, snapshot, full)
}

func TestIssueString(t *testing.T) {
	is := Issue{RowID: "x", Row: 0, Field: "hour", Value: "abc", Substituted: "11"}
	assert.Equal(t, `row 1 (x): hour "abc" replaced with "11"`, is.String())
}
