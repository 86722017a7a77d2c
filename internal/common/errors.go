package common

import (
	"errors"
	"fmt"
)

// AppError represents application-specific errors
type AppError struct {
	Code    string
	Message string
	Cause   error
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// Failure taxonomy. Engines classify every capability failure into one of
// these and never let a raw error cross into the orchestrator unwrapped.
var (
	ErrNotFound           = errors.New("resource not found")
	ErrInvalidInput       = errors.New("invalid input")
	ErrNoInput            = errors.New("nothing to do: no input available")
	ErrFormatUnsupported  = errors.New("unsupported file format")
	ErrServiceUnavailable = errors.New("AI capability unavailable")
	ErrMalformedResponse  = errors.New("AI capability returned unusable data")
	ErrStorageCorrupt     = errors.New("stored record is unreadable")
	ErrValidation         = errors.New("validation failed")
	ErrInternal           = errors.New("internal error")
)

// Error constructors
func NewAppError(code, message string, cause error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

func WrapError(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// Reason extracts a human-readable reason string from any failure.
// Every user-visible failure must carry one.
func Reason(err error) string {
	if err == nil {
		return ""
	}
	var app *AppError
	if errors.As(err, &app) {
		return app.Message
	}
	return err.Error()
}
