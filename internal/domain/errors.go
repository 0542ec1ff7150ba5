package domain

import "fmt"

// FieldError is a validation failure tied to a specific input field, so API
// callers can render field-level errors instead of a generic message.
type FieldError struct {
	Field  string `json:"field"`
	Reason string `json:"reason"`
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

// Invalid constructs a FieldError.
func Invalid(field, reason string) *FieldError {
	return &FieldError{Field: field, Reason: reason}
}
