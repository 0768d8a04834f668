package errors

import (
	stderrors "errors"
	"fmt"
)

// KwscanError is the structured error type for kwscan.
// It provides rich context for error handling, logging, and user presentation.
type KwscanError struct {
	// Code is the unique error code (e.g., "ERR_201_DIR_NOT_FOUND").
	Code string

	// Message is the human-readable error message.
	Message string

	// Category is the error category (Config, IO, Validation, Internal).
	Category Category

	// Severity is the error severity level.
	Severity Severity

	// Details contains additional context as key-value pairs.
	Details map[string]string

	// Cause is the underlying error that caused this error.
	Cause error

	// Suggestion is an actionable suggestion for the user.
	Suggestion string
}

// Error implements the error interface.
func (e *KwscanError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause for error chain support.
func (e *KwscanError) Unwrap() error {
	return e.Cause
}

// Is checks if this error matches the target error by code.
// This enables errors.Is() to work with KwscanError.
func (e *KwscanError) Is(target error) bool {
	if t, ok := target.(*KwscanError); ok {
		return e.Code == t.Code
	}
	return false
}

// WithDetail adds a key-value detail to the error.
// Returns the error for method chaining.
func (e *KwscanError) WithDetail(key, value string) *KwscanError {
	if e.Details == nil {
		e.Details = make(map[string]string)
	}
	e.Details[key] = value
	return e
}

// WithSuggestion adds an actionable suggestion for the user.
func (e *KwscanError) WithSuggestion(suggestion string) *KwscanError {
	e.Suggestion = suggestion
	return e
}

// New creates a new KwscanError with the given code and message.
// Category and severity are derived from the code.
func New(code string, message string, cause error) *KwscanError {
	return &KwscanError{
		Code:     code,
		Message:  message,
		Category: categoryFromCode(code),
		Severity: severityFromCode(code),
		Cause:    cause,
	}
}

// Wrap creates a KwscanError from an existing error.
// The error's message becomes the KwscanError message.
func Wrap(code string, err error) *KwscanError {
	if err == nil {
		return nil
	}
	return New(code, err.Error(), err)
}

// ConfigError creates a configuration-related error.
func ConfigError(message string, cause error) *KwscanError {
	return New(ErrCodeConfigInvalid, message, cause)
}

// IOError creates a directory or file I/O error.
func IOError(message string, cause error) *KwscanError {
	return New(ErrCodeDirUnreadable, message, cause)
}

// ValidationError creates a validation-related error.
func ValidationError(message string, cause error) *KwscanError {
	return New(ErrCodeInvalidInput, message, cause)
}

// InternalError creates an internal error.
func InternalError(message string, cause error) *KwscanError {
	return New(ErrCodeInternal, message, cause)
}

// WorkerError creates a fatal worker error for the given worker id.
func WorkerError(code string, workerID int, message string, cause error) *KwscanError {
	return New(code, message, cause).WithDetail("worker_id", fmt.Sprintf("%d", workerID))
}

// IsFatal checks if an error has fatal severity.
// Fatal errors mean the run did not merge exactly one contribution per worker.
func IsFatal(err error) bool {
	if err == nil {
		return false
	}
	var ke *KwscanError
	if stderrors.As(err, &ke) {
		return ke.Severity == SeverityFatal
	}
	return false
}

// GetCode extracts the error code from a KwscanError anywhere in the chain.
// Returns empty string if there is none.
func GetCode(err error) string {
	var ke *KwscanError
	if stderrors.As(err, &ke) {
		return ke.Code
	}
	return ""
}

// GetCategory extracts the category from a KwscanError anywhere in the chain.
func GetCategory(err error) Category {
	var ke *KwscanError
	if stderrors.As(err, &ke) {
		return ke.Category
	}
	return ""
}
