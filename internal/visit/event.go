// Package visit defines the visit event record, the survey schema that
// constrains its categories, and the helpers every other package uses to
// parse, label and validate events.
package visit

import (
	"crypto/sha256"
	"encoding/hex"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Field names a categorical column of an Event.
type Field string

const (
	FieldGender     Field = "gender"
	FieldAgeBracket Field = "age_bracket"
	FieldPurpose    Field = "purpose"
	FieldLocation   Field = "location"
)

// Event is one recorded kiosk visit.
//
// Timestamp holds the site's wall-clock time with its location set to UTC;
// no zone arithmetic is applied after capture. When the stored timestamp
// could not be parsed, Timestamp is zero and RawTimestamp keeps the text so
// the row survives a rewrite unchanged.
type Event struct {
	ID           string    `json:"id"`
	Timestamp    time.Time `json:"-"`
	RawTimestamp string    `json:"timestamp"`
	Weekday      string    `json:"weekday"`
	Month        int       `json:"month"`
	Gender       string    `json:"gender"`
	AgeBracket   string    `json:"age_bracket"`
	Purpose      string    `json:"purpose"`
	Location     string    `json:"location,omitempty"`
}

// Valid reports whether the event has a usable timestamp.
func (e Event) Valid() bool {
	return !e.Timestamp.IsZero()
}

// Date returns the calendar day of the event.
func (e Event) Date() time.Time {
	return DateOf(e.Timestamp)
}

// Value returns the categorical value stored under f.
func (e Event) Value(f Field) string {
	switch f {
	case FieldGender:
		return e.Gender
	case FieldAgeBracket:
		return e.AgeBracket
	case FieldPurpose:
		return e.Purpose
	case FieldLocation:
		return e.Location
	}
	return ""
}

// Set stores v under f.
func (e *Event) Set(f Field, v string) {
	switch f {
	case FieldGender:
		e.Gender = v
	case FieldAgeBracket:
		e.AgeBracket = v
	case FieldPurpose:
		e.Purpose = v
	case FieldLocation:
		e.Location = v
	}
}

// Derive recomputes the weekday label and month from Timestamp. Stored
// labels are never trusted for valid rows.
func (e *Event) Derive(locale string) {
	if !e.Valid() {
		return
	}
	e.RawTimestamp = FormatTimestamp(e.Timestamp)
	e.Weekday = WeekdayLabel(e.Timestamp.Weekday(), locale)
	e.Month = int(e.Timestamp.Month())
}

// NewID returns a fresh surrogate identifier.
func NewID() string {
	return uuid.NewString()
}

// LegacyID derives a deterministic identifier for a row that was stored
// before identifiers existed. The row index keeps otherwise identical rows
// apart.
func LegacyID(index int, fields ...string) string {
	h := sha256.New()
	h.Write([]byte(strconv.Itoa(index)))
	h.Write([]byte{0})
	h.Write([]byte(strings.Join(fields, "\x1f")))
	return "legacy-" + hex.EncodeToString(h.Sum(nil))[:12]
}
