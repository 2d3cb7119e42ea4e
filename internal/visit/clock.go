package visit

import (
	"fmt"
	"strings"
	"time"
)

const (
	TimestampLayout = "2006-01-02 15:04:05"
	DateLayout      = "2006-01-02"
)

// Zones used when the host has no tzdata installed.
var fixedZones = map[string]int{
	"Asia/Seoul": 9 * 3600,
	"Asia/Tokyo": 9 * 3600,
	"UTC":        0,
}

// LoadLocation resolves a site timezone name.
func LoadLocation(name string) (*time.Location, error) {
	loc, err := time.LoadLocation(name)
	if err == nil {
		return loc, nil
	}
	if offset, ok := fixedZones[name]; ok {
		return time.FixedZone(name, offset), nil
	}
	return nil, fmt.Errorf("load timezone %q: %w", name, err)
}

// Wall strips the zone from t, keeping its wall-clock fields at second
// precision.
func Wall(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), 0, time.UTC)
}

// NowIn returns the current wall-clock time at loc.
func NowIn(loc *time.Location) time.Time {
	return Wall(time.Now().In(loc))
}

// DateOf truncates t to midnight of its day.
func DateOf(t time.Time) time.Time {
	if t.IsZero() {
		return t
	}
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// FormatTimestamp renders a wall-clock timestamp for storage.
func FormatTimestamp(t time.Time) string {
	return t.Format(TimestampLayout)
}

// ParseTimestamp accepts the storage layout and the variants that show up
// in hand-edited files. Zoned inputs keep their own wall-clock fields.
func ParseTimestamp(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	layouts := []string{
		TimestampLayout,
		"2006-01-02T15:04:05",
		"2006-01-02 15:04",
		"2006/01/02 15:04:05",
		"2006.01.02 15:04:05",
		"2006-01-02 15:04:05.999999999",
		time.RFC3339Nano,
		time.RFC3339,
	}
	for _, layout := range layouts {
		if t, err := time.Parse(layout, s); err == nil {
			return Wall(t), nil
		}
	}
	return time.Time{}, fmt.Errorf("cannot parse timestamp: %q", s)
}

// ParseDate parses a YYYY-MM-DD date.
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q (want YYYY-MM-DD)", s)
	}
	return t, nil
}

var weekdayLabels = map[string][7]string{
	// Indexed by time.Weekday, Sunday first.
	"ko": {"일", "월", "화", "수", "목", "금", "토"},
	"en": {"Sunday", "Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday"},
}

// WeekdayLabel returns the display label for d in locale, defaulting to
// Korean for unknown locales.
func WeekdayLabel(d time.Weekday, locale string) string {
	labels, ok := weekdayLabels[locale]
	if !ok {
		labels = weekdayLabels["ko"]
	}
	return labels[d]
}

// MondayIndex maps a weekday onto 0..6 with Monday first.
func MondayIndex(d time.Weekday) int {
	return (int(d) + 6) % 7
}

// WeekdayFromMonday is the inverse of MondayIndex.
func WeekdayFromMonday(i int) time.Weekday {
	return time.Weekday((i + 1) % 7)
}

// ParseWeekday recognises any stored weekday label: Korean short or long
// form and English full or abbreviated names.
func ParseWeekday(s string) (time.Weekday, bool) {
	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(s, "요일")
	for _, labels := range weekdayLabels {
		for d, l := range labels {
			if strings.EqualFold(l, s) {
				return time.Weekday(d), true
			}
		}
	}
	if len(s) >= 3 {
		for d, l := range weekdayLabels["en"] {
			if strings.EqualFold(l[:3], s[:3]) {
				return time.Weekday(d), true
			}
		}
	}
	return 0, false
}

// NormalizeWeekday rewrites a stored label into locale. Unknown labels are
// returned unchanged.
func NormalizeWeekday(s, locale string) string {
	if d, ok := ParseWeekday(s); ok {
		return WeekdayLabel(d, locale)
	}
	return s
}
