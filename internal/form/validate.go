// internal/form/validate.go
//
// Server-side validation and sanitization.  Field errors carry the
// field name so templates and JSON responses can point at the exact
// input; system failures stay ordinary errors.
package form

import (
	"errors"
	"fmt"
	"html"
	"net/mail"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// FieldError is one user-facing validation failure.
type FieldError struct {
	Name    string `json:"name"`
	Message string `json:"message"`
}

// validationError wraps field errors so callers can tell user mistakes
// from system failures.
type validationError struct{ Fields []FieldError }

func (ve validationError) Error() string { return "form validation failed" }

// Errors extracts the field errors from a HandleSubmit error, or nil
// when err is not a validation failure.
func Errors(err error) []FieldError {
	var ve validationError
	if errors.As(err, &ve) {
		return ve.Fields
	}
	return nil
}

// Validate checks posted values against the definition.  On success the
// sanitized map comes back with one entry per submitted field; on
// failure the map is nil and every offending field has a message.
func Validate(def *Definition, posted url.Values) (map[string]any, []FieldError) {
	var errs []FieldError
	clean := make(map[string]any, len(def.Fields))

	for i := range def.Fields {
		f := &def.Fields[i]
		raw := strings.TrimSpace(posted.Get(f.Name))
		if raw == "" {
			if f.Type == "checkbox" {
				// Unchecked boxes are absent from the post body.
				clean[f.Name] = false
				continue
			}
			if f.Required {
				errs = append(errs, FieldError{f.Name, f.message("This field is required.")})
			}
			continue
		}
		val, msg := f.sanitize(raw)
		if msg != "" {
			errs = append(errs, FieldError{f.Name, msg})
			continue
		}
		clean[f.Name] = val
	}

	if len(errs) > 0 {
		return nil, errs
	}
	return clean, nil
}

func (f *Field) sanitize(raw string) (any, string) {
	switch f.Type {
	case "text", "textarea":
		if msg := f.lengthCheck(raw); msg != "" {
			return nil, msg
		}
		if f.re != nil && !f.re.MatchString(raw) {
			return nil, f.message("Input does not match the required format.")
		}
		return html.EscapeString(raw), ""

	case "email":
		if msg := f.lengthCheck(raw); msg != "" {
			return nil, msg
		}
		if _, err := mail.ParseAddress(raw); err != nil {
			return nil, f.message("Enter a valid email address.")
		}
		return strings.ToLower(raw), ""

	case "password":
		if msg := f.lengthCheck(raw); msg != "" {
			return nil, msg
		}
		return raw, ""

	case "number":
		n, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return nil, f.message("Enter a number.")
		}
		return n, ""

	case "date":
		d, err := time.Parse("2006-01-02", raw)
		if err != nil {
			return nil, f.message("Enter a date as YYYY-MM-DD.")
		}
		return d, ""

	case "checkbox":
		return true, ""

	case "select", "radio":
		for _, o := range f.Options {
			if o == raw {
				return raw, ""
			}
		}
		return nil, f.message("Pick one of the offered options.")
	}
	return nil, fmt.Sprintf("Unsupported field type %q.", f.Type)
}

func (f *Field) lengthCheck(s string) string {
	n := len(s)
	if f.MinLength > 0 && n < f.MinLength {
		return f.message(fmt.Sprintf("Must be at least %d characters.", f.MinLength))
	}
	if f.MaxLength > 0 && n > f.MaxLength {
		return f.message(fmt.Sprintf("Must be at most %d characters.", f.MaxLength))
	}
	return ""
}

// message prefers the definition's custom error text.
func (f *Field) message(fallback string) string {
	if f.ErrorMsg != "" {
		return f.ErrorMsg
	}
	return fallback
}
