package service

import "fmt"

// ValidationError reports a malformed demand record or line item. These are
// caller mistakes, reported synchronously and never retried by the engine.
type ValidationError struct {
	Field  string
	Detail string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed on %s: %s", e.Field, e.Detail)
}

func validationErr(field, detail string) error {
	return &ValidationError{Field: field, Detail: detail}
}
