package export

import (
	"bytes"
	"testing"
	"time"

	"github.com/runnerr0/guestbook/internal/filter"
	"github.com/runnerr0/guestbook/internal/visit"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func testSchema() visit.Schema {
	return visit.Schema{
		Version:         2,
		Locale:          "ko",
		Genders:         []string{"남성", "여성"},
		AgeBrackets:     []string{"7세 이하", "초등", "중등", "고등", "만 20세~24세", "만 25세 이상"},
		Purposes:        []string{"놀이", "휴식", "식사", "친목", "기타"},
		FallbackPurpose: "기타",
	}
}

func event(ts, gender, age, purpose string) visit.Event {
	t, err := visit.ParseTimestamp(ts)
	if err != nil {
		panic(err)
	}
	e := visit.Event{ID: visit.NewID(), Timestamp: t, Gender: gender, AgeBracket: age, Purpose: purpose}
	e.Derive("ko")
	return e
}

func open(t *testing.T, data []byte) *excelize.File {
	t.Helper()
	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	t.Cleanup(func() { f.Close() })
	return f
}

func rowsOf(t *testing.T, f *excelize.File, sheet string) [][]string {
	t.Helper()
	rows, err := f.GetRows(sheet)
	require.NoError(t, err)
	return rows
}

func TestWorkbookSheets(t *testing.T) {
	data, err := Workbook([]visit.Event{event("2026-01-05 10:15:00", "남성", "초등", "놀이")},
		Meta{Site: "방문자 설문"}, testSchema())
	require.NoError(t, err)

	f := open(t, data)
	assert.Equal(t, []string{
		"방문기록", "일별", "주별", "월별", "성별", "연령대", "이용목적", "시간대", "요일×시간", "요약", "정보",
	}, f.GetSheetList())
}

func TestWorkbookVisitRows(t *testing.T) {
	rows := []visit.Event{
		event("2026-01-05 10:15:00", "남성", "초등", "놀이"),
		{ID: "bad-1", RawTimestamp: "2026-13-45", Weekday: "월요일", Gender: "여성", AgeBracket: "고등", Purpose: "휴식"},
	}
	data, err := Workbook(rows, Meta{}, testSchema())
	require.NoError(t, err)

	got := rowsOf(t, open(t, data), "방문기록")
	require.Len(t, got, 3)
	assert.Equal(t, []string{"일시", "요일", "연도", "월", "일자", "시간", "주차", "기간", "성별", "연령대", "이용목적", "id"}, got[0])
	assert.Equal(t, []string{"2026-01-05 10:15:00", "월", "2026", "1", "5", "10", "2026-W02", "2026-01", "남성", "초등", "놀이", rows[0].ID}, got[1])
	assert.Equal(t, "2026-13-45", got[2][0])
	assert.Equal(t, "", got[2][7])
	assert.Equal(t, "bad-1", got[2][len(got[2])-1])
}

func TestWorkbookAggregates(t *testing.T) {
	rows := []visit.Event{
		event("2026-01-05 10:15:00", "남성", "초등", "놀이"),
		event("2026-01-05 11:00:00", "여성", "초등", "놀이"),
		event("2026-01-06 10:30:00", "여성", "고등", "식사"),
	}
	data, err := Workbook(rows, Meta{}, testSchema())
	require.NoError(t, err)
	f := open(t, data)

	daily := rowsOf(t, f, "일별")
	assert.Equal(t, [][]string{{"날짜", "방문수"}, {"2026-01-05", "2"}, {"2026-01-06", "1"}}, daily)

	ages := rowsOf(t, f, "연령대")
	require.Len(t, ages, 7)
	assert.Equal(t, []string{"초등", "2"}, ages[2])
	assert.Equal(t, []string{"중등", "0"}, ages[3])

	hourly := rowsOf(t, f, "시간대")
	require.Len(t, hourly, 25)
	assert.Equal(t, []string{"10", "2"}, hourly[11])

	heat := rowsOf(t, f, "요일×시간")
	require.Len(t, heat, 8)
	assert.Equal(t, "월", heat[1][0])
	assert.Equal(t, "1", heat[1][11])
	assert.Equal(t, "1", heat[2][11])

	summary := rowsOf(t, f, "요약")
	assert.Equal(t, []string{"총 방문수", "3"}, summary[1])
	assert.Equal(t, []string{"최다 방문일", "2026-01-05"}, summary[5])
	assert.Equal(t, []string{"최다 이용목적", "놀이"}, summary[7])
}

func TestWorkbookInfoRecordsFilter(t *testing.T) {
	schema := testSchema()
	spec := filter.All(schema, time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC), time.Time{})
	spec.Genders = []string{"여성"}

	data, err := Workbook(nil, Meta{Site: "도서관", Filter: &spec}, schema)
	require.NoError(t, err)

	info := rowsOf(t, open(t, data), "정보")
	assert.Contains(t, info, []string{"사이트", "도서관"})
	assert.Contains(t, info, []string{"스키마 버전", "2"})
	assert.Contains(t, info, []string{"기간", "2026-01-01 ~ 제한 없음"})
	assert.Contains(t, info, []string{"성별", "여성"})
	assert.Contains(t, info, []string{"행 수", "0"})

	data, err = Workbook(nil, Meta{}, schema)
	require.NoError(t, err)
	info = rowsOf(t, open(t, data), "정보")
	assert.Contains(t, info, []string{"기간", "전체 기록"})
}

func TestWorkbookEmpty(t *testing.T) {
	data, err := Workbook(nil, Meta{}, testSchema())
	require.NoError(t, err)
	require.NotEmpty(t, data)

	f := open(t, data)
	assert.Len(t, rowsOf(t, f, "방문기록"), 1)
	assert.Len(t, rowsOf(t, f, "일별"), 1)
	assert.Len(t, rowsOf(t, f, "성별"), 3)
}

func TestWorkbookEnglishLocationColumn(t *testing.T) {
	schema := testSchema()
	schema.Locale = "en"
	schema.LocationEnabled = true
	schema.Locations = []string{"1F", "2F"}

	e := event("2026-01-05 10:15:00", "남성", "초등", "놀이")
	e.Derive("en")
	e.Location = "2F"

	data, err := Workbook([]visit.Event{e}, Meta{}, schema)
	require.NoError(t, err)
	f := open(t, data)

	assert.Contains(t, f.GetSheetList(), "location")
	got := rowsOf(t, f, "visits")
	assert.Equal(t, "period", got[0][7])
	assert.Equal(t, "2026-01", got[1][7])
	assert.Equal(t, "location", got[0][11])
	assert.Equal(t, "2F", got[1][11])
	assert.Equal(t, "Monday", got[1][1])
}
