// Package errors provides custom error types for the lotmap engine.
// These errors enable programmatic error checking and carry the context
// a caller needs to surface conflicts and failures to an administrator.
package errors

import (
	"errors"
	"fmt"
)

// New returns an error that formats as the given text.
// It's an alias for the standard library errors.New for convenience.
var New = errors.New

// Common sentinel errors for the lotmap engine
var (
	// ErrNotFound indicates that a requested record was not found
	ErrNotFound = errors.New("not found")

	// ErrPinConflict indicates a pin already exists for a normalized
	// (block, lot) key and the caller did not confirm an overwrite
	ErrPinConflict = errors.New("pin key conflict")

	// ErrInvalidInput indicates that provided input was invalid
	ErrInvalidInput = errors.New("invalid input")

	// ErrWriteFailed indicates a document store write failed
	ErrWriteFailed = errors.New("write failed")

	// ErrStoreClosed indicates an operation against a closed store
	ErrStoreClosed = errors.New("store closed")

	// ErrCanceled indicates that an operation was canceled
	ErrCanceled = errors.New("operation canceled")
)

// NotFoundError represents an error when a record is not found
type NotFoundError struct {
	Resource string
	ID       string
}

// Error implements the error interface
func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s with ID %s not found", e.Resource, e.ID)
}

// Is implements errors.Is support
func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

// NewNotFoundError creates a new NotFoundError
func NewNotFoundError(resource, id string) *NotFoundError {
	return &NotFoundError{Resource: resource, ID: id}
}

// PinConflictError reports an attempt to create a pin whose normalized
// (block, lot) key is already taken. ExistingID identifies the pin that
// holds the key so the caller can offer an explicit update instead.
type PinConflictError struct {
	Block      string
	Lot        string
	ExistingID string
}

// Error implements the error interface
func (e *PinConflictError) Error() string {
	return fmt.Sprintf("pin already exists for block %s lot %s (id %s)", e.Block, e.Lot, e.ExistingID)
}

// Is implements errors.Is support
func (e *PinConflictError) Is(target error) bool {
	return target == ErrPinConflict
}

// NewPinConflictError creates a new PinConflictError
func NewPinConflictError(block, lot, existingID string) *PinConflictError {
	return &PinConflictError{Block: block, Lot: lot, ExistingID: existingID}
}

// ValidationError represents a validation failure
type ValidationError struct {
	Field   string
	Value   interface{}
	Message string
}

// Error implements the error interface
func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("validation failed for field %s: %s", e.Field, e.Message)
	}
	return fmt.Sprintf("validation failed: %s", e.Message)
}

// Is implements errors.Is support
func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalidInput
}

// NewValidationError creates a new ValidationError
func NewValidationError(field string, value interface{}, message string) *ValidationError {
	return &ValidationError{Field: field, Value: value, Message: message}
}

// WriteError represents a failed write to the document store. Sync writes
// wrap their failures in this type so the affected key can be logged and
// retried on the next natural trigger.
type WriteError struct {
	Collection string
	ID         string
	Key        string
	Err        error
}

// Error implements the error interface
func (e *WriteError) Error() string {
	if e.Key != "" {
		return fmt.Sprintf("write to %s %s failed for key %s: %v", e.Collection, e.ID, e.Key, e.Err)
	}
	return fmt.Sprintf("write to %s %s failed: %v", e.Collection, e.ID, e.Err)
}

// Unwrap implements errors.Unwrap
func (e *WriteError) Unwrap() error {
	return e.Err
}

// Is implements errors.Is support
func (e *WriteError) Is(target error) bool {
	return target == ErrWriteFailed
}

// NewWriteError creates a new WriteError
func NewWriteError(collection, id, key string, err error) *WriteError {
	return &WriteError{Collection: collection, ID: id, Key: key, Err: err}
}

// MalformedAddressError reports a resident address missing its block or
// lot. It is diagnostic, not fatal: the resident is treated as unmatched.
type MalformedAddressError struct {
	ResidentID string
	Missing    string
}

// Error implements the error interface
func (e *MalformedAddressError) Error() string {
	return fmt.Sprintf("resident %s address missing %s", e.ResidentID, e.Missing)
}

// Is implements errors.Is support
func (e *MalformedAddressError) Is(target error) bool {
	return target == ErrInvalidInput
}

// ConfigError represents a configuration error
type ConfigError struct {
	Component string
	Message   string
	Err       error
}

// Error implements the error interface
func (e *ConfigError) Error() string {
	if e.Component != "" {
		return fmt.Sprintf("configuration error in %s: %s", e.Component, e.Message)
	}
	return fmt.Sprintf("configuration error: %s", e.Message)
}

// Unwrap implements errors.Unwrap
func (e *ConfigError) Unwrap() error {
	return e.Err
}

// NewConfigError creates a new ConfigError
func NewConfigError(component, message string, err error) *ConfigError {
	return &ConfigError{Component: component, Message: message, Err: err}
}

// ParseError represents an error when parsing data formats
type ParseError struct {
	Format  string // "yaml", "json", etc.
	File    string
	Message string
	Err     error
}

// Error implements the error interface
func (e *ParseError) Error() string {
	if e.File != "" {
		return fmt.Sprintf("parse error in %s file %s: %s", e.Format, e.File, e.Message)
	}
	return fmt.Sprintf("%s parse error: %s", e.Format, e.Message)
}

// Unwrap implements errors.Unwrap
func (e *ParseError) Unwrap() error {
	return e.Err
}

// Helper functions for error checking

// IsNotFound checks if an error is a not found error
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsPinConflict checks if an error is a pin key conflict
func IsPinConflict(err error) bool {
	return errors.Is(err, ErrPinConflict)
}

// IsValidationError checks if an error is a validation error
func IsValidationError(err error) bool {
	return errors.Is(err, ErrInvalidInput)
}

// IsWriteFailed checks if an error is a failed store write
func IsWriteFailed(err error) bool {
	return errors.Is(err, ErrWriteFailed)
}

// Helper wrapping functions for common patterns

// WrapValidation wraps an error as a ValidationError
func WrapValidation(field string, err error) error {
	if err == nil {
		return nil
	}
	return &ValidationError{Field: field, Message: err.Error()}
}

// WrapWrite wraps an error as a WriteError
func WrapWrite(collection, id, key string, err error) error {
	if err == nil {
		return nil
	}
	return NewWriteError(collection, id, key, err)
}

// WrapParse wraps an error as a ParseError
func WrapParse(format, file string, err error) error {
	if err == nil {
		return nil
	}
	return &ParseError{Format: format, File: file, Message: err.Error(), Err: err}
}
