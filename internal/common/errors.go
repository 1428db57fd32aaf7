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

// Error codes attached to AppError. These are the values surfaced in
// ExtractionResult messages and log lines.
const (
	CodeValidation        = "VALIDATION_ERROR"
	CodeEngineUnavailable = "ENGINE_UNAVAILABLE"
	CodeEngineTimeout     = "ENGINE_TIMEOUT"
	CodeEngineFailure     = "ENGINE_FAILURE"
	CodeCredential        = "CREDENTIAL_ERROR"
)

// Sentinel errors for the extraction failure taxonomy. Callers branch with
// errors.Is; the AppError wrapper carries the human-readable detail.
var (
	// ErrValidation covers inputs rejected before any backend call
	// (unsupported MIME type, empty bytes).
	ErrValidation = errors.New("validation failed")

	// ErrEngineUnavailable means no usable backend exists for this request.
	ErrEngineUnavailable = errors.New("no extraction engine available")

	// ErrEngineTimeout means local OCR exceeded its wall-clock bound.
	ErrEngineTimeout = errors.New("engine timed out")

	// ErrEngineFailure means a backend returned an explicit error.
	ErrEngineFailure = errors.New("engine failure")

	// ErrCredential means the cloud engine rejected our identity. Distinct
	// from ErrEngineUnavailable so callers never conflate "misconfigured"
	// with "down".
	ErrCredential = errors.New("credential rejected")
)

// Error constructors
func NewAppError(code, message string, cause error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

func ValidationError(format string, args ...any) *AppError {
	return NewAppError(CodeValidation, fmt.Sprintf(format, args...), ErrValidation)
}

func EngineUnavailableError(message string) *AppError {
	return NewAppError(CodeEngineUnavailable, message, ErrEngineUnavailable)
}

func EngineTimeoutError(message string, cause error) *AppError {
	if cause == nil {
		cause = ErrEngineTimeout
	} else {
		cause = fmt.Errorf("%w: %w", ErrEngineTimeout, cause)
	}
	return NewAppError(CodeEngineTimeout, message, cause)
}

func EngineFailureError(message string, cause error) *AppError {
	if cause == nil {
		cause = ErrEngineFailure
	} else {
		cause = fmt.Errorf("%w: %w", ErrEngineFailure, cause)
	}
	return NewAppError(CodeEngineFailure, message, cause)
}

func CredentialError(message string) *AppError {
	return NewAppError(CodeCredential, message, ErrCredential)
}

func WrapError(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}
