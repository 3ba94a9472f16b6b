// Package errors provides custom error types for domain-specific errors.
package errors

import (
	"errors"
	"fmt"
)

// Standard sentinel errors
var (
	ErrNotAuthenticated   = errors.New("not authenticated")
	ErrUserExists         = errors.New("user already exists")
	ErrAccountNotFound    = errors.New("account not found")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrUnknownTicker      = errors.New("unknown ticker")
	ErrCapacityExceeded   = errors.New("subscription capacity exceeded")
	ErrInvalidQuantity    = errors.New("quantity must be a positive integer")
	ErrInvalidThreshold   = errors.New("threshold must be a positive number")
	ErrConfigInvalid      = errors.New("invalid configuration")
	ErrStoreClosed        = errors.New("store is closed")
)

// CapacityError reports a rejected subscribe beyond the per-user cap.
// The subscription list is left unchanged when this is returned.
type CapacityError struct {
	Ticker string
	Limit  int
}

func (e *CapacityError) Error() string {
	return fmt.Sprintf("cannot subscribe to %s: maximum of %d subscriptions reached", e.Ticker, e.Limit)
}

func (e *CapacityError) Unwrap() error {
	return ErrCapacityExceeded
}

// NewCapacityError creates a new CapacityError.
func NewCapacityError(ticker string, limit int) *CapacityError {
	return &CapacityError{Ticker: ticker, Limit: limit}
}

// ValidationError represents a validation error at an action boundary.
// No state is mutated when one of these is returned.
type ValidationError struct {
	Field   string
	Value   interface{}
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error: %s (%v): %s", e.Field, e.Value, e.Message)
}

// NewValidationError creates a new ValidationError.
func NewValidationError(field string, value interface{}, message string) *ValidationError {
	return &ValidationError{
		Field:   field,
		Value:   value,
		Message: message,
	}
}

// Wrap wraps an error with additional context.
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// Wrapf wraps an error with formatted context.
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), err)
}

// Is reports whether any error in err's chain matches target.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target.
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}
