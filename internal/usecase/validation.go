package usecase

import (
	"errors"
	"reflect"
	"strings"
	"unicode"

	"github.com/go-playground/validator/v10"
	"github.com/nyaruka/phonenumbers"
	"github.com/xavierca1/door-leads/internal/entity"
)

const defaultPhoneRegion = "US"

// Validator checks lead inputs and patches against their struct tags.
type Validator struct {
	v *validator.Validate
}

func NewValidator() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())

	// report json names ("zipCode") instead of Go names ("ZipCode")
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})

	_ = v.RegisterValidation("leademail", func(fl validator.FieldLevel) bool {
		return IsValidEmail(fl.Field().String())
	})

	return &Validator{v: v}
}

// Struct validates s and returns one FieldError per failing field.
func (val *Validator) Struct(s any) []entity.FieldError {
	err := val.v.Struct(s)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return []entity.FieldError{{Field: "_", Message: err.Error()}}
	}

	out := make([]entity.FieldError, 0, len(verrs))
	for _, fe := range verrs {
		out = append(out, entity.FieldError{Field: fe.Field(), Message: messageFor(fe)})
	}
	return out
}

func messageFor(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "leademail":
		return "is invalid"
	case "oneof":
		return "must be one of: " + fe.Param()
	case "min":
		return "must not be empty"
	case "max":
		return "must not exceed " + fe.Param() + " characters"
	default:
		return "is invalid"
	}
}

// IsValidEmail is the basic syntactic check leads must pass: exactly one '@',
// a non-empty local part, at least one '.' after the '@' and no whitespace.
func IsValidEmail(s string) bool {
	if s == "" || strings.IndexFunc(s, unicode.IsSpace) >= 0 {
		return false
	}
	if strings.Count(s, "@") != 1 {
		return false
	}
	local, domain, _ := strings.Cut(s, "@")
	if local == "" {
		return false
	}
	return strings.Contains(domain, ".")
}

// phoneE164 formats a phone number to E.164, or returns "" when it does not
// parse as a valid number. The submitted phone is stored untouched next to it.
func phoneE164(input string) string {
	trimmed := strings.TrimSpace(input)
	if trimmed == "" {
		return ""
	}

	number, err := phonenumbers.Parse(trimmed, defaultPhoneRegion)
	if err != nil || !phonenumbers.IsValidNumber(number) {
		return ""
	}
	return phonenumbers.Format(number, phonenumbers.E164)
}

func trimInput(in entity.LeadInput) entity.LeadInput {
	in.Name = strings.TrimSpace(in.Name)
	in.Phone = strings.TrimSpace(in.Phone)
	in.Location = strings.TrimSpace(in.Location)
	in.ZipCode = strings.TrimSpace(in.ZipCode)
	in.Timeline = strings.TrimSpace(in.Timeline)
	return in
}

func trimPatch(p entity.LeadPatch) entity.LeadPatch {
	for _, f := range []**string{&p.Name, &p.Phone, &p.Location, &p.ZipCode, &p.Timeline, &p.AssignedTo} {
		if *f != nil {
			v := strings.TrimSpace(**f)
			*f = &v
		}
	}
	return p
}

// normalizeFilters turns the dashboard's "all" selections into empty filters
// and reports unknown enum values.
func normalizeFilters(f entity.LeadFilters) (entity.LeadFilters, []entity.FieldError) {
	var errs []entity.FieldError

	f.Search = strings.TrimSpace(f.Search)
	f.Timeline = strings.TrimSpace(f.Timeline)
	if strings.EqualFold(f.Timeline, "all") {
		f.Timeline = ""
	}
	if strings.EqualFold(string(f.Status), "all") {
		f.Status = ""
	}
	if strings.EqualFold(string(f.Source), "all") {
		f.Source = ""
	}
	if f.Status != "" && !f.Status.Valid() {
		errs = append(errs, entity.FieldError{Field: "status", Message: "must be one of: new contacted quoted cold"})
	}
	if f.Source != "" && !f.Source.Valid() {
		errs = append(errs, entity.FieldError{Field: "source", Message: "must be one of: web phone referral social"})
	}
	return f, errs
}
