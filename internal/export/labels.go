package export

import "github.com/runnerr0/guestbook/internal/visit"

// labels are the sheet names and column headers of one locale.
type labels struct {
	Visits, Daily, Weekly, Monthly, Hourly, Heatmap, Summary, Info string

	Timestamp, Weekday, Year, Month, Day, Hour, Week, ID string
	Date, Period, Start, End, Count, Value                string

	Fields map[visit.Field]string

	Total, Invalid, Days, Average, Peak, PeakCount, TopPurpose, TopPurposeCount string
	Site, Generated, SchemaVersion, Range, Rows, AllRows, Open                 string
}

var localized = map[string]labels{
	"ko": {
		Visits: "방문기록", Daily: "일별", Weekly: "주별", Monthly: "월별",
		Hourly: "시간대", Heatmap: "요일×시간", Summary: "요약", Info: "정보",

		Timestamp: "일시", Weekday: "요일", Year: "연도", Month: "월", Day: "일자",
		Hour: "시간", Week: "주차", ID: "id",
		Date: "날짜", Period: "기간", Start: "시작", End: "종료", Count: "방문수", Value: "항목",

		Fields: map[visit.Field]string{
			visit.FieldGender:     "성별",
			visit.FieldAgeBracket: "연령대",
			visit.FieldPurpose:    "이용목적",
			visit.FieldLocation:   "장소",
		},

		Total: "총 방문수", Invalid: "날짜 오류 행", Days: "방문일수", Average: "일평균 방문수",
		Peak: "최다 방문일", PeakCount: "최다 방문일 방문수", TopPurpose: "최다 이용목적", TopPurposeCount: "최다 이용목적 방문수",
		Site: "사이트", Generated: "생성 시각", SchemaVersion: "스키마 버전", Range: "기간",
		Rows: "행 수", AllRows: "전체 기록", Open: "제한 없음",
	},
	"en": {
		Visits: "visits", Daily: "daily", Weekly: "weekly", Monthly: "monthly",
		Hourly: "hourly", Heatmap: "weekday x hour", Summary: "summary", Info: "info",

		Timestamp: "timestamp", Weekday: "weekday", Year: "year", Month: "month", Day: "day",
		Hour: "hour", Week: "iso_week", ID: "id",
		Date: "date", Period: "period", Start: "start", End: "end", Count: "count", Value: "value",

		Fields: map[visit.Field]string{
			visit.FieldGender:     "gender",
			visit.FieldAgeBracket: "age_bracket",
			visit.FieldPurpose:    "purpose",
			visit.FieldLocation:   "location",
		},

		Total: "total visits", Invalid: "rows with bad dates", Days: "active days", Average: "average per day",
		Peak: "peak day", PeakCount: "peak day visits", TopPurpose: "top purpose", TopPurposeCount: "top purpose visits",
		Site: "site", Generated: "generated at", SchemaVersion: "schema version", Range: "range",
		Rows: "rows", AllRows: "full log", Open: "open",
	},
}

func labelsFor(locale string) labels {
	if l, ok := localized[locale]; ok {
		return l
	}
	return localized["ko"]
}
