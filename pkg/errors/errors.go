package errors

import (
	"errors"
	"fmt"
	"runtime"
	"strings"
	"time"
)

// ErrorCode represents a unique error code for categorizing errors
type ErrorCode string

const (
	// Connection errors (1xxx)
	ErrCodeConnectionFailed     ErrorCode = "DWH1001"
	ErrCodeConnectionTimeout    ErrorCode = "DWH1002"
	ErrCodeAuthenticationFailed ErrorCode = "DWH1003"
	ErrCodeNotConnected         ErrorCode = "DWH1004"

	// Configuration errors (2xxx)
	ErrCodeConfigNotFound ErrorCode = "DWH2001"
	ErrCodeConfigInvalid  ErrorCode = "DWH2002"
	ErrCodeConfigMissing  ErrorCode = "DWH2003"

	// Statement errors (4xxx)
	ErrCodeSQLExecution      ErrorCode = "DWH4001"
	ErrCodeSQLPermission     ErrorCode = "DWH4002"
	ErrCodeSQLTransaction    ErrorCode = "DWH4003"
	ErrCodeSQLObjectNotFound ErrorCode = "DWH4004"
	ErrCodeSchemaReset       ErrorCode = "DWH4005"
	ErrCodeStagingFailed     ErrorCode = "DWH4006"
	ErrCodeTransformFailed   ErrorCode = "DWH4007"

	// Object storage errors (5xxx)
	ErrCodeStorageUnavailable ErrorCode = "DWH5001"
	ErrCodeStorageLocation    ErrorCode = "DWH5002"

	// System errors (9xxx)
	ErrCodeInternal     ErrorCode = "DWH9001"
	ErrCodeInvalidState ErrorCode = "DWH9002"
)

// ErrorSeverity represents the severity level of an error
type ErrorSeverity string

const (
	SeverityCritical ErrorSeverity = "CRITICAL" // Pipeline cannot start
	SeverityError    ErrorSeverity = "ERROR"    // Pipeline stopped
	SeverityWarning  ErrorSeverity = "WARNING"  // Completed with issues
)

// AppError represents a structured application error with context
type AppError struct {
	Code        ErrorCode
	Message     string
	Severity    ErrorSeverity
	Context     map[string]interface{}
	Cause       error
	Stack       string
	Timestamp   time.Time
	Suggestions []string
}

// Error implements the error interface
func (e *AppError) Error() string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("[%s] %s: %s", e.Code, e.Severity, e.Message))

	if e.Cause != nil {
		b.WriteString(fmt.Sprintf("\nCaused by: %v", e.Cause))
	}

	if len(e.Suggestions) > 0 {
		b.WriteString("\nSuggestions:")
		for i, suggestion := range e.Suggestions {
			b.WriteString(fmt.Sprintf("\n  %d. %s", i+1, suggestion))
		}
	}

	return b.String()
}

// Unwrap returns the cause of the error
func (e *AppError) Unwrap() error {
	return e.Cause
}

// Is matches any AppError carrying the same code
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// New creates a new AppError
func New(code ErrorCode, message string) *AppError {
	return &AppError{
		Code:      code,
		Message:   message,
		Severity:  SeverityError,
		Context:   make(map[string]interface{}),
		Stack:     captureStack(),
		Timestamp: time.Now(),
	}
}

// Wrap wraps an existing error with AppError
func Wrap(err error, code ErrorCode, message string) *AppError {
	if err == nil {
		return nil
	}

	appErr := New(code, message)
	appErr.Cause = err

	// Carry context forward from a wrapped AppError
	var ae *AppError
	if errors.As(err, &ae) {
		for k, v := range ae.Context {
			appErr.Context[k] = v
		}
	}

	return appErr
}

// WithContext adds context to the error
func (e *AppError) WithContext(key string, value interface{}) *AppError {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

// WithSeverity sets the error severity
func (e *AppError) WithSeverity(severity ErrorSeverity) *AppError {
	e.Severity = severity
	return e
}

// WithSuggestions adds recovery suggestions
func (e *AppError) WithSuggestions(suggestions ...string) *AppError {
	e.Suggestions = append(e.Suggestions, suggestions...)
	return e
}

func captureStack() string {
	const depth = 32
	var pcs [depth]uintptr
	n := runtime.Callers(3, pcs[:])

	var b strings.Builder
	frames := runtime.CallersFrames(pcs[:n])

	for {
		frame, more := frames.Next()
		if !strings.Contains(frame.File, "runtime/") {
			b.WriteString(fmt.Sprintf("%s:%d %s\n", frame.File, frame.Line, frame.Function))
		}
		if !more {
			break
		}
	}

	return b.String()
}

// Common error constructors

// ConnectionError creates a connection-related error
func ConnectionError(message string, cause error) *AppError {
	return Wrap(cause, ErrCodeConnectionFailed, message).
		WithSeverity(SeverityCritical).
		WithSuggestions(
			"Check that the cluster endpoint is reachable from this host",
			"Verify HOST and DB_PORT in the [CLUSTER] section",
			"Check the cluster security group allows inbound connections",
		)
}

// ConfigError creates a configuration-related error
func ConfigError(message string, field string) *AppError {
	return New(ErrCodeConfigInvalid, message).
		WithContext("field", field).
		WithSeverity(SeverityCritical).
		WithSuggestions(
			fmt.Sprintf("Check the '%s' configuration value", field),
			"Run 'songdwh config show' to inspect the effective configuration",
		)
}

// MissingConfigError reports a required key that has no value
func MissingConfigError(field string) *AppError {
	return New(ErrCodeConfigMissing, fmt.Sprintf("%s is required", field)).
		WithContext("field", field).
		WithSeverity(SeverityCritical)
}

// SQLError creates a statement execution error. The code is narrowed from
// the warehouse message where it is recognizable.
func SQLError(message string, query string, cause error) *AppError {
	err := Wrap(cause, ErrCodeSQLExecution, message).
		WithContext("query", truncateString(query, 200))

	if cause == nil {
		return err
	}

	lower := strings.ToLower(cause.Error())
	switch {
	case strings.Contains(lower, "permission denied") || strings.Contains(lower, "not authorized"):
		err.Code = ErrCodeSQLPermission
		_ = err.WithSuggestions(
			"Check the database user has privileges on the target schema",
			"Verify the IAM role grants the cluster read access to the bucket",
		)
	case strings.Contains(lower, "does not exist"):
		err.Code = ErrCodeSQLObjectNotFound
		_ = err.WithSuggestions(
			"Run 'songdwh create-tables' before 'songdwh etl'",
		)
	case strings.Contains(lower, "stl_load_errors"):
		_ = err.WithSuggestions(
			"Query stl_load_errors for the rejected rows",
			"Check the JSON layout matches the staging table columns",
		)
	}

	return err
}

// StateError reports an operation invoked from the wrong pipeline state
func StateError(operation, state string) *AppError {
	return New(ErrCodeInvalidState, fmt.Sprintf("cannot %s while %s", operation, state)).
		WithContext("operation", operation).
		WithContext("state", state)
}

// GetErrorCode extracts the error code from an error
func GetErrorCode(err error) ErrorCode {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return ErrCodeInternal
}

// HasCode reports whether any AppError in the chain carries code
func HasCode(err error, code ErrorCode) bool {
	return errors.Is(err, &AppError{Code: code})
}

func truncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
