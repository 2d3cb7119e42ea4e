package server

import (
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/runnerr0/guestbook/internal/filter"
	"github.com/runnerr0/guestbook/internal/visit"
)

// filterBody is the wire form of a filter.Spec. Dates are YYYY-MM-DD and
// may be empty for an open range. A missing category list selects every
// value; an empty list selects none.
type filterBody struct {
	Start       string    `json:"start"`
	End         string    `json:"end"`
	Genders     *[]string `json:"genders,omitempty"`
	AgeBrackets *[]string `json:"age_brackets,omitempty"`
	Purposes    *[]string `json:"purposes,omitempty"`
	Locations   *[]string `json:"locations,omitempty"`
}

func (b filterBody) list(f visit.Field) *[]string {
	switch f {
	case visit.FieldGender:
		return b.Genders
	case visit.FieldAgeBracket:
		return b.AgeBrackets
	case visit.FieldPurpose:
		return b.Purposes
	case visit.FieldLocation:
		return b.Locations
	}
	return nil
}

func (b filterBody) spec(schema visit.Schema) (filter.Spec, error) {
	start, err := parseBound("start", b.Start)
	if err != nil {
		return filter.Spec{}, err
	}
	end, err := parseBound("end", b.End)
	if err != nil {
		return filter.Spec{}, err
	}
	if !start.IsZero() && !end.IsZero() && end.Before(start) {
		return filter.Spec{}, &badRequest{msg: "end date is before start date"}
	}

	spec := filter.All(schema, start, end)
	for _, f := range []visit.Field{visit.FieldGender, visit.FieldAgeBracket, visit.FieldPurpose, visit.FieldLocation} {
		if values := b.list(f); values != nil {
			spec.SetValues(f, normalizeAll(schema, *values))
		}
	}
	return spec, nil
}

func toFilterBody(spec filter.Spec) filterBody {
	format := func(t time.Time) string {
		if t.IsZero() {
			return ""
		}
		return t.Format(visit.DateLayout)
	}
	return filterBody{
		Start:       format(spec.Start),
		End:         format(spec.End),
		Genders:     &spec.Genders,
		AgeBrackets: &spec.AgeBrackets,
		Purposes:    &spec.Purposes,
		Locations:   &spec.Locations,
	}
}

// filterFromQuery reads a filter from query parameters: start, end, and
// repeatable gender, age_bracket, purpose and location. A parameter given
// once with an empty value selects nothing for that category.
func filterFromQuery(c *gin.Context) filterBody {
	b := filterBody{Start: c.Query("start"), End: c.Query("end")}
	param := func(name string) *[]string {
		values, ok := c.GetQueryArray(name)
		if !ok {
			return nil
		}
		out := make([]string, 0, len(values))
		for _, v := range values {
			if v != "" {
				out = append(out, v)
			}
		}
		return &out
	}
	b.Genders = param("gender")
	b.AgeBrackets = param("age_bracket")
	b.Purposes = param("purpose")
	b.Locations = param("location")
	return b
}

func parseBound(name, s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	t, err := visit.ParseDate(s)
	if err != nil {
		return time.Time{}, &badRequest{msg: fmt.Sprintf("%s: %v", name, err)}
	}
	return t, nil
}

func normalizeAll(schema visit.Schema, values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		out = append(out, schema.Normalize(v))
	}
	return out
}
