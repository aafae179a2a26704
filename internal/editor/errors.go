// internal/editor/errors.go
package editor

import (
	"errors"
)

// Error taxonomy for editor operations. Backend sentinels from the storage
// package stay wrapped inside ErrExecution so callers can match either.
var (
	ErrConnection   = errors.New("connection failed")
	ErrValidation   = errors.New("validation failed")
	ErrDuplicateKey = errors.New("duplicate key")
	ErrExecution    = errors.New("statement failed")

	ErrNotConnected = errors.New("not connected: connect to the table first")
	ErrRowNotFound  = errors.New("row not found in snapshot")
	ErrReadOnly     = errors.New("profile is read-only")
	ErrInvalidMode  = errors.New("invalid form mode")
)

// ValidationError is a user-facing rejection of one record.
// It unwraps to ErrValidation or ErrDuplicateKey.
type ValidationError struct {
	Field   string `json:"field,omitempty"`
	Message string `json:"message"`
	kind    error
}

func (e *ValidationError) Error() string {
	return e.Message
}

func (e *ValidationError) Unwrap() error {
	return e.kind
}

func invalid(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message, kind: ErrValidation}
}

func duplicate(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message, kind: ErrDuplicateKey}
}
