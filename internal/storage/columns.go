package storage

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

type column int

const (
	colTimestamp column = iota
	colWeekday
	colMonth
	colGender
	colAgeBracket
	colPurpose
	colLocation
	colID
	numColumns
)

// headerAliases maps every header spelling seen in the wild onto a column.
// 이용목록 and 이용목적 both name the purpose column.
var headerAliases = map[string]column{
	"일시":          colTimestamp,
	"시간":          colTimestamp,
	"timestamp":   colTimestamp,
	"datetime":    colTimestamp,
	"요일":          colWeekday,
	"weekday":     colWeekday,
	"월":           colMonth,
	"month":       colMonth,
	"성별":          colGender,
	"gender":      colGender,
	"연령대":         colAgeBracket,
	"나이":          colAgeBracket,
	"age":         colAgeBracket,
	"age_bracket": colAgeBracket,
	"이용목록":        colPurpose,
	"이용목적":        colPurpose,
	"목적":          colPurpose,
	"purpose":     colPurpose,
	"장소":          colLocation,
	"위치":          colLocation,
	"location":    colLocation,
	"id":          colID,
}

var headerLabels = map[string][numColumns]string{
	"ko": {"일시", "요일", "월", "성별", "연령대", "이용목록", "장소", "id"},
	"en": {"timestamp", "weekday", "month", "gender", "age_bracket", "purpose", "location", "id"},
}

// mapHeader returns, for each known column, its index in header or -1.
func mapHeader(header []string) [numColumns]int {
	var idx [numColumns]int
	for i := range idx {
		idx[i] = -1
	}
	for i, h := range header {
		key := strings.ToLower(norm.NFC.String(strings.TrimSpace(h)))
		if c, ok := headerAliases[key]; ok && idx[c] == -1 {
			idx[c] = i
		}
	}
	return idx
}

// headerFor returns the header row written for locale.
func headerFor(locale string, withLocation bool) []string {
	labels, ok := headerLabels[locale]
	if !ok {
		labels = headerLabels["ko"]
	}
	out := []string{
		labels[colTimestamp], labels[colWeekday], labels[colMonth],
		labels[colGender], labels[colAgeBracket], labels[colPurpose],
	}
	if withLocation {
		out = append(out, labels[colLocation])
	}
	return append(out, labels[colID])
}
