// Package service holds the application rules that sit between the HTTP
// handlers and the stores: credential checks, recipe validation and the
// events emitted after writes.
package service

import (
	"errors"
	"fmt"
)

// ErrInvalidCredentials is returned by Authenticate for an unknown user and
// for a wrong password alike.
var ErrInvalidCredentials = errors.New("invalid username or password")

// ValidationError reports a rejected input field.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s %s", e.Field, e.Reason)
}

func missing(field string) *ValidationError {
	return &ValidationError{Field: field, Reason: "is required"}
}

// IsValidation reports whether err is, or wraps, a *ValidationError.
func IsValidation(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}
