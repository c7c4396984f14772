package models

import "fmt"

// ValidationError reports a record field that failed validation. Mutators
// surface it to reject the enclosing transaction before any write lands.
type ValidationError struct {
	Kind  string
	Field string
	Msg   string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: invalid %s: %s", e.Kind, e.Field, e.Msg)
}

func invalid(kind, field, msg string) error {
	return &ValidationError{Kind: kind, Field: field, Msg: msg}
}
