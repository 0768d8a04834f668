// Package errors provides structured error handling for kwscan.
//
// Error codes follow the pattern ERR_XXX_DESCRIPTION where:
//   - 1XX: Configuration errors
//   - 2XX: IO errors (directory, file, runtime dir)
//   - 4XX: Validation errors
//   - 5XX: Internal and worker errors
package errors

// Category defines error categories for classification.
type Category string

const (
	// CategoryConfig indicates configuration-related errors.
	CategoryConfig Category = "CONFIG"
	// CategoryIO indicates file and directory I/O errors.
	CategoryIO Category = "IO"
	// CategoryValidation indicates input validation errors.
	CategoryValidation Category = "VALIDATION"
	// CategoryInternal indicates internal and worker execution errors.
	CategoryInternal Category = "INTERNAL"
)

// Severity defines error severity levels.
type Severity string

const (
	// SeverityFatal indicates the run cannot produce a complete result.
	SeverityFatal Severity = "FATAL"
	// SeverityError indicates the operation failed.
	SeverityError Severity = "ERROR"
	// SeverityWarning indicates degraded operation, continuing.
	SeverityWarning Severity = "WARNING"
)

// Error codes organized by category.
const (
	// Config errors (100-199)
	ErrCodeConfigNotFound = "ERR_101_CONFIG_NOT_FOUND"
	ErrCodeConfigInvalid  = "ERR_102_CONFIG_INVALID"

	// IO errors (200-299)
	ErrCodeDirNotFound   = "ERR_201_DIR_NOT_FOUND"
	ErrCodeDirUnreadable = "ERR_202_DIR_UNREADABLE"
	ErrCodeFileRead      = "ERR_203_FILE_READ"
	ErrCodeRuntimeDir    = "ERR_204_RUNTIME_DIR"

	// Validation errors (400-499)
	ErrCodeInvalidInput    = "ERR_401_INVALID_INPUT"
	ErrCodeNoKeywords      = "ERR_402_NO_KEYWORDS"
	ErrCodeInvalidStrategy = "ERR_403_INVALID_STRATEGY"

	// Internal errors (500-599)
	ErrCodeInternal         = "ERR_501_INTERNAL"
	ErrCodeWorkerCrashed    = "ERR_502_WORKER_CRASHED"
	ErrCodeWorkerNoReport   = "ERR_503_WORKER_NO_REPORT"
	ErrCodeWorkerLaunch     = "ERR_504_WORKER_LAUNCH"
	ErrCodeCollectorFailed  = "ERR_505_COLLECTOR_FAILED"
	ErrCodeStrategyMismatch = "ERR_506_STRATEGY_MISMATCH"
)

// categoryFromCode extracts category from error code.
func categoryFromCode(code string) Category {
	if len(code) < 7 {
		return CategoryInternal
	}

	// Numeric portion, e.g. "101" from "ERR_101_CONFIG_NOT_FOUND"
	switch code[4] {
	case '1':
		return CategoryConfig
	case '2':
		return CategoryIO
	case '4':
		return CategoryValidation
	default:
		return CategoryInternal
	}
}

// severityFromCode determines severity based on error code.
func severityFromCode(code string) Severity {
	switch code {
	case ErrCodeWorkerCrashed, ErrCodeWorkerNoReport, ErrCodeWorkerLaunch, ErrCodeCollectorFailed:
		// The run can no longer merge exactly one contribution per worker.
		return SeverityFatal
	case ErrCodeFileRead:
		return SeverityWarning
	default:
		return SeverityError
	}
}
