// internal/form/submit.go
//
// One-call submission helper: parse the body, validate against the
// registered definition, hand back the clean map.
package form

import (
	"errors"
	"fmt"
	"net/http"
)

// HandleSubmit validates r's form body against the registered form ID.
// Validation failures come back as an error whose field messages are
// recoverable through Errors; anything else is a system failure.
func HandleSubmit(id string, r *http.Request) (map[string]any, error) {
	def, ok := Lookup(id)
	if !ok {
		return nil, fmt.Errorf("form %q is not registered", id)
	}
	if err := r.ParseForm(); err != nil {
		return nil, err
	}
	clean, errs := Validate(def, r.PostForm)
	if len(errs) > 0 {
		return nil, validationError{Fields: errs}
	}
	return clean, nil
}

// IsValidationError reports whether err came from failed validation.
func IsValidationError(err error) bool {
	var ve validationError
	return errors.As(err, &ve)
}
