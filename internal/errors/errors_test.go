package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKwscanError_Unwrap_PreservesOriginalError(t *testing.T) {
	// Given: an original error
	originalErr := errors.New("permission denied")

	// When: wrapping with KwscanError
	ke := New(ErrCodeDirUnreadable, "cannot list logs/", originalErr)

	// Then: unwrapping returns original error
	require.NotNil(t, ke)
	assert.Equal(t, originalErr, errors.Unwrap(ke))
	assert.True(t, errors.Is(ke, originalErr))
}

func TestKwscanError_Error_ReturnsFormattedMessage(t *testing.T) {
	tests := []struct {
		name     string
		code     string
		message  string
		expected string
	}{
		{
			name:     "config error",
			code:     ErrCodeConfigNotFound,
			message:  "config file not found",
			expected: "[ERR_101_CONFIG_NOT_FOUND] config file not found",
		},
		{
			name:     "directory error",
			code:     ErrCodeDirNotFound,
			message:  "logs not found",
			expected: "[ERR_201_DIR_NOT_FOUND] logs not found",
		},
		{
			name:     "worker error",
			code:     ErrCodeWorkerCrashed,
			message:  "worker 3 exited",
			expected: "[ERR_502_WORKER_CRASHED] worker 3 exited",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := New(tt.code, tt.message, nil)
			assert.Equal(t, tt.expected, err.Error())
		})
	}
}

func TestKwscanError_Is_MatchesByCode(t *testing.T) {
	err1 := New(ErrCodeWorkerCrashed, "worker 1 exited", nil)
	err2 := New(ErrCodeWorkerCrashed, "worker 2 exited", nil)
	other := New(ErrCodeWorkerNoReport, "worker 2 silent", nil)

	assert.True(t, errors.Is(err1, err2))
	assert.False(t, errors.Is(err1, other))
}

func TestNew_DerivesCategoryAndSeverity(t *testing.T) {
	tests := []struct {
		code     string
		category Category
		severity Severity
	}{
		{ErrCodeConfigInvalid, CategoryConfig, SeverityError},
		{ErrCodeDirNotFound, CategoryIO, SeverityError},
		{ErrCodeFileRead, CategoryIO, SeverityWarning},
		{ErrCodeNoKeywords, CategoryValidation, SeverityError},
		{ErrCodeWorkerCrashed, CategoryInternal, SeverityFatal},
		{ErrCodeWorkerNoReport, CategoryInternal, SeverityFatal},
		{ErrCodeWorkerLaunch, CategoryInternal, SeverityFatal},
		{ErrCodeStrategyMismatch, CategoryInternal, SeverityError},
		{"bad", CategoryInternal, SeverityError},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			err := New(tt.code, "msg", nil)
			assert.Equal(t, tt.category, err.Category)
			assert.Equal(t, tt.severity, err.Severity)
		})
	}
}

func TestWorkerError_AddsWorkerID(t *testing.T) {
	err := WorkerError(ErrCodeWorkerCrashed, 4, "worker exited with status 2", nil)

	assert.Equal(t, "4", err.Details["worker_id"])
	assert.True(t, IsFatal(err))
}

func TestIsFatal_FindsWrappedError(t *testing.T) {
	// Given: a fatal error wrapped with fmt.Errorf
	inner := New(ErrCodeWorkerNoReport, "worker 0 never reported", nil)
	wrapped := fmt.Errorf("isolated run: %w", inner)

	// Then: severity and code are found through the chain
	assert.True(t, IsFatal(wrapped))
	assert.Equal(t, ErrCodeWorkerNoReport, GetCode(wrapped))
	assert.Equal(t, CategoryInternal, GetCategory(wrapped))
}

func TestIsFatal_PlainErrors(t *testing.T) {
	assert.False(t, IsFatal(nil))
	assert.False(t, IsFatal(errors.New("plain")))
	assert.False(t, IsFatal(New(ErrCodeFileRead, "unreadable", nil)))
	assert.Equal(t, "", GetCode(errors.New("plain")))
}

func TestWrap_NilReturnsNil(t *testing.T) {
	assert.Nil(t, Wrap(ErrCodeInternal, nil))
}

func TestKwscanError_WithDetailAndSuggestion(t *testing.T) {
	err := ValidationError("no keywords configured", nil).
		WithDetail("source", "flags").
		WithSuggestion("pass --keyword at least once")

	assert.Equal(t, ErrCodeInvalidInput, err.Code)
	assert.Equal(t, "flags", err.Details["source"])
	assert.Equal(t, "pass --keyword at least once", err.Suggestion)
}
