package visit

import (
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

// Submission is one kiosk form as sent by the visitor.
type Submission struct {
	Gender     string `json:"gender" validate:"required"`
	AgeBracket string `json:"age_bracket" validate:"required"`
	Purpose    string `json:"purpose"`
	Location   string `json:"location"`
}

// Validator checks submissions against a schema.
type Validator struct {
	validate *validator.Validate
	schema   Schema
}

// NewValidator builds a Validator for schema. Field names in errors follow
// the json tags.
func NewValidator(schema Schema) *Validator {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	val := &Validator{validate: v, schema: schema}
	v.RegisterStructValidation(val.checkMembership, Submission{})
	return val
}

// checkMembership rejects values outside the schema and enforces the
// fields that are only required under some schemas.
func (v *Validator) checkMembership(sl validator.StructLevel) {
	sub := sl.Current().Interface().(Submission)

	check := func(f Field, value, name, field string) {
		if !v.schema.Active(f) {
			return
		}
		if value == "" {
			if f == FieldPurpose || f == FieldLocation {
				sl.ReportError(value, name, field, "required", "")
			}
			return
		}
		if !v.schema.Has(f, value) {
			sl.ReportError(value, name, field, "oneof", strings.Join(v.schema.Canonical(f), " "))
		}
	}
	check(FieldGender, sub.Gender, "gender", "Gender")
	check(FieldAgeBracket, sub.AgeBracket, "age_bracket", "AgeBracket")
	check(FieldPurpose, sub.Purpose, "purpose", "Purpose")
	check(FieldLocation, sub.Location, "location", "Location")
}

// Validate normalises sub in place and returns a *ValidationError when a
// required selection is missing or unknown.
func (v *Validator) Validate(sub *Submission) error {
	sub.Gender = v.schema.Normalize(sub.Gender)
	sub.AgeBracket = v.schema.Normalize(sub.AgeBracket)
	sub.Purpose = v.schema.Normalize(sub.Purpose)
	sub.Location = v.schema.Normalize(sub.Location)
	if !v.schema.Active(FieldPurpose) {
		sub.Purpose = ""
	}
	if !v.schema.Active(FieldLocation) {
		sub.Location = ""
	}

	err := v.validate.Struct(sub)
	if err == nil {
		return nil
	}

	fieldErrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return err
	}

	out := &ValidationError{Fields: make(map[string]string, len(fieldErrs))}
	for _, fe := range fieldErrs {
		switch fe.Tag() {
		case "required":
			out.Fields[fe.Field()] = "selection required"
		case "oneof":
			out.Fields[fe.Field()] = fmt.Sprintf("must be one of: %s", strings.ReplaceAll(fe.Param(), " ", ", "))
		default:
			out.Fields[fe.Field()] = fmt.Sprintf("invalid value (failed on %q)", fe.Tag())
		}
	}
	return out
}

// Event turns a validated submission into a new event stamped at now.
func (s Submission) Event(now time.Time, locale string) Event {
	e := Event{
		ID:         NewID(),
		Timestamp:  Wall(now),
		Gender:     s.Gender,
		AgeBracket: s.AgeBracket,
		Purpose:    s.Purpose,
		Location:   s.Location,
	}
	e.Derive(locale)
	return e
}
