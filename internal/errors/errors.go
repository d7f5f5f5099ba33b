// Package errors provides custom error types for domain-specific errors.
package errors

import (
	"errors"
	"fmt"
)

// Standard sentinel errors
var (
	ErrTradeNotFound     = errors.New("trade not found")
	ErrSessionNotFound   = errors.New("session not found")
	ErrTradeNotOpen      = errors.New("trade is not open")
	ErrSessionCompleted  = errors.New("session already completed")
	ErrSessionNotActive  = errors.New("session is not active")
	ErrConfigInvalid     = errors.New("invalid configuration")
	ErrDatabaseError     = errors.New("database error")
	ErrStreamStopped     = errors.New("event stream stopped")
	ErrSubscriberExists  = errors.New("subscriber id already registered")
	ErrSubscriberUnknown = errors.New("subscriber id not registered")
)

// ValidationError represents a validation error.
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

// NotFoundError represents a lookup for an entity that does not exist.
type NotFoundError struct {
	Entity string
	ID     string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %q not found", e.Entity, e.ID)
}

// NewNotFoundError creates a new NotFoundError.
func NewNotFoundError(entity, id string) *NotFoundError {
	return &NotFoundError{Entity: entity, ID: id}
}

// InvalidStateError represents an operation that is illegal for the
// entity's current state.
type InvalidStateError struct {
	Entity    string
	ID        string
	Current   string
	Attempted string
}

func (e *InvalidStateError) Error() string {
	if e.ID != "" {
		return fmt.Sprintf("invalid state: %s %q is %s, cannot %s", e.Entity, e.ID, e.Current, e.Attempted)
	}
	return fmt.Sprintf("invalid state: %s is %s, cannot %s", e.Entity, e.Current, e.Attempted)
}

// NewInvalidStateError creates a new InvalidStateError.
func NewInvalidStateError(entity, id, current, attempted string) *InvalidStateError {
	return &InvalidStateError{
		Entity:    entity,
		ID:        id,
		Current:   current,
		Attempted: attempted,
	}
}

// ConfigurationError represents malformed engine configuration or
// structurally invalid input handed to an evaluation.
type ConfigurationError struct {
	Field   string
	Message string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("configuration error: %s: %s", e.Field, e.Message)
}

// NewConfigurationError creates a new ConfigurationError.
func NewConfigurationError(field, message string) *ConfigurationError {
	return &ConfigurationError{Field: field, Message: message}
}

// StoreError represents an error from the persistence layer.
type StoreError struct {
	Operation string
	Entity    string
	Err       error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("store error [%s] %s: %v", e.Operation, e.Entity, e.Err)
}

func (e *StoreError) Unwrap() error {
	return e.Err
}

// NewStoreError creates a new StoreError.
func NewStoreError(operation, entity string, err error) *StoreError {
	return &StoreError{Operation: operation, Entity: entity, Err: err}
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
