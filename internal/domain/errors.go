package domain

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/diewo77/invoice-api/validation"
)

// Sentinel errors used across all layers.
var (
	ErrNotFound           = errors.New("not found")
	ErrAlreadyExists      = errors.New("already exists")
	ErrValidation         = errors.New("validation error")
	ErrUnauthorized       = errors.New("unauthorized")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidResetToken  = errors.New("reset token is invalid or has expired")
)

// Error pairs a sentinel with the message shown to API callers.
type Error struct {
	Kind    error
	Message string
}

func (e *Error) Error() string { return e.Message }

func (e *Error) Unwrap() error { return e.Kind }

// E builds an Error for kind with a caller-facing message.
func E(kind error, msg string) *Error { return &Error{Kind: kind, Message: msg} }

// ValidationError carries per-field violations.
type ValidationError struct {
	Violations validation.Violations
}

func (e *ValidationError) Error() string {
	fields := make([]string, 0, len(e.Violations))
	for f := range e.Violations {
		fields = append(fields, f)
	}
	sort.Strings(fields)
	parts := make([]string, 0, len(fields))
	for _, f := range fields {
		parts = append(parts, fmt.Sprintf("%s: %s", f, e.Violations[f]))
	}
	return "validation: " + strings.Join(parts, ", ")
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// Validate returns a *ValidationError when v holds violations, nil otherwise.
func Validate(v validation.Violations) error {
	if v.Empty() {
		return nil
	}
	return &ValidationError{Violations: v}
}
