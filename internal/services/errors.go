package services

import (
	"errors"
	"fmt"
	"strings"

	"github.com/assetcatalog/backend/pkg/validation"
)

var (
	// ErrUnauthenticated means the operation needs a session and none was presented.
	ErrUnauthenticated = errors.New("authentication required")
	// ErrForbidden means the caller is known but lacks the privilege.
	ErrForbidden = errors.New("insufficient privileges")
	ErrNotFound  = errors.New("record not found")

	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrEmailTaken         = errors.New("email already registered")
	ErrInvalidToken       = errors.New("invalid token")
)

// ValidationError carries the field-level violations of a rejected payload.
type ValidationError struct {
	Fields []validation.FieldError
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, fmt.Sprintf("%s %s", f.Field, f.Message))
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// NewValidationError builds a single-field validation error.
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Fields: []validation.FieldError{{Field: field, Message: message}}}
}

// validateInput runs the shared struct validator over a service input.
func validateInput(in interface{}) error {
	if fields := validation.Struct(in); len(fields) > 0 {
		return &ValidationError{Fields: fields}
	}
	return nil
}
