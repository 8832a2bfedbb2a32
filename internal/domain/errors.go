package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors used across all layers.
var (
	ErrNotFound      = errors.New("not found")
	ErrAlreadyExists = errors.New("already exists")
	ErrValidation    = errors.New("validation error")
	ErrUnauthorized  = errors.New("unauthorized")
)

// Queue store infrastructure failures. Adapters wrap driver errors with one
// of these so callers can tell a missing table from bad credentials from a
// plain connectivity problem without inspecting driver types.
var (
	ErrSchemaMissing    = errors.New("queue schema missing")
	ErrStoreCredentials = errors.New("queue store credentials rejected")
	ErrStoreUnavailable = errors.New("queue store unavailable")
)

// FieldError describes a validation error for a specific field.
type FieldError struct {
	Field   string
	Message string
}

// ValidationError contains a list of field-level validation errors.
type ValidationError struct {
	Errors []FieldError
}

func (e *ValidationError) Error() string {
	if len(e.Errors) == 1 {
		return fmt.Sprintf("validation: %s: %s", e.Errors[0].Field, e.Errors[0].Message)
	}
	return fmt.Sprintf("validation: %d errors", len(e.Errors))
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// NewValidationError creates a ValidationError for a single field.
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{
		Errors: []FieldError{{Field: field, Message: message}},
	}
}

// NewValidationErrors creates a ValidationError from multiple field errors.
func NewValidationErrors(errs []FieldError) *ValidationError {
	return &ValidationError{Errors: errs}
}

// ResolutionErrorKind classifies a failed definition lookup.
type ResolutionErrorKind string

const (
	ResolutionRateLimited         ResolutionErrorKind = "rate_limited"
	ResolutionAuthInvalid         ResolutionErrorKind = "auth_invalid"
	ResolutionProviderUnavailable ResolutionErrorKind = "provider_unavailable"
	ResolutionUnknown             ResolutionErrorKind = "unknown"
)

func (k ResolutionErrorKind) IsValid() bool {
	switch k {
	case ResolutionRateLimited, ResolutionAuthInvalid, ResolutionProviderUnavailable, ResolutionUnknown:
		return true
	}
	return false
}

func (k ResolutionErrorKind) String() string { return string(k) }

// ResolutionError is returned by definition providers. Kind is always set.
type ResolutionError struct {
	Kind ResolutionErrorKind
	Err  error
}

func (e *ResolutionError) Error() string {
	if e.Err == nil {
		return "resolve definition: " + string(e.Kind)
	}
	return fmt.Sprintf("resolve definition: %s: %v", e.Kind, e.Err)
}

func (e *ResolutionError) Unwrap() error { return e.Err }

// ClassifyResolution returns the kind carried by err, or ResolutionUnknown
// when err is not a *ResolutionError.
func ClassifyResolution(err error) ResolutionErrorKind {
	var re *ResolutionError
	if errors.As(err, &re) && re.Kind.IsValid() {
		return re.Kind
	}
	return ResolutionUnknown
}
