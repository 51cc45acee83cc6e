package errors

import (
	"errors"
	"fmt"
)

// ErrorCode represents a unique error code for stable testing
type ErrorCode string

// Error codes for different error categories
const (
	// General errors
	ErrUnknown      ErrorCode = "UNKNOWN"
	ErrInternal     ErrorCode = "INTERNAL"
	ErrInvalidInput ErrorCode = "INVALID_INPUT"
	ErrNotFound     ErrorCode = "NOT_FOUND"
	ErrInterrupted  ErrorCode = "INTERRUPTED"

	// Prerequisite errors: a required external tool or path is missing.
	// Surfaced before any mutation happens.
	ErrPrerequisite  ErrorCode = "PREREQUISITE"
	ErrSourceMissing ErrorCode = "SOURCE_MISSING"
	ErrHelperMissing ErrorCode = "HELPER_MISSING"

	// Configuration errors
	ErrConfigLoad  ErrorCode = "CONFIG_LOAD"
	ErrConfigParse ErrorCode = "CONFIG_PARSE"
	ErrToolUnknown ErrorCode = "TOOL_UNKNOWN"

	// Backup errors: copying existing content failed before the
	// destructive step ran.
	ErrBackupCopy    ErrorCode = "BACKUP_COPY"
	ErrBackupRestore ErrorCode = "BACKUP_RESTORE"

	// Link errors
	ErrLinkCreate ErrorCode = "LINK_CREATE"
	ErrLinkVerify ErrorCode = "LINK_VERIFY"

	// State errors
	ErrStateWrite ErrorCode = "STATE_WRITE"

	// Subprocess collaborators
	ErrCommandRun    ErrorCode = "COMMAND_RUN"
	ErrCommandDecode ErrorCode = "COMMAND_DECODE"
	ErrFixApply      ErrorCode = "FIX_APPLY"

	// FileSystem errors
	ErrFileNotFound ErrorCode = "FILE_NOT_FOUND"
	ErrFileAccess   ErrorCode = "FILE_ACCESS"
	ErrFileCreate   ErrorCode = "FILE_CREATE"
	ErrFileWrite    ErrorCode = "FILE_WRITE"
	ErrDirCreate    ErrorCode = "DIR_CREATE"
)

// DotpilotError represents a structured error with code and details
type DotpilotError struct {
	Code    ErrorCode
	Message string
	Details map[string]interface{}
	Wrapped error
}

// Error implements the error interface
func (e *DotpilotError) Error() string {
	if e.Wrapped != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Wrapped)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap implements the errors.Unwrap interface
func (e *DotpilotError) Unwrap() error {
	return e.Wrapped
}

// Is implements errors.Is interface
func (e *DotpilotError) Is(target error) bool {
	var targetErr *DotpilotError
	if errors.As(target, &targetErr) {
		return e.Code == targetErr.Code
	}
	return false
}

// New creates a new DotpilotError with the given code and message
func New(code ErrorCode, message string) *DotpilotError {
	return &DotpilotError{
		Code:    code,
		Message: message,
		Details: make(map[string]interface{}),
	}
}

// Newf creates a new DotpilotError with a formatted message
func Newf(code ErrorCode, format string, args ...interface{}) *DotpilotError {
	return &DotpilotError{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Details: make(map[string]interface{}),
	}
}

// Wrap wraps an existing error with a DotpilotError
func Wrap(err error, code ErrorCode, message string) *DotpilotError {
	if err == nil {
		return nil
	}
	return &DotpilotError{
		Code:    code,
		Message: message,
		Details: make(map[string]interface{}),
		Wrapped: err,
	}
}

// Wrapf wraps an existing error with a formatted message
func Wrapf(err error, code ErrorCode, format string, args ...interface{}) *DotpilotError {
	if err == nil {
		return nil
	}
	return &DotpilotError{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Details: make(map[string]interface{}),
		Wrapped: err,
	}
}

// WithDetail adds a detail to the error
func (e *DotpilotError) WithDetail(key string, value interface{}) *DotpilotError {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

// IsErrorCode checks if an error has a specific error code
func IsErrorCode(err error, code ErrorCode) bool {
	var derr *DotpilotError
	if errors.As(err, &derr) {
		return derr.Code == code
	}
	return false
}

// GetErrorCode returns the error code from an error, or ErrUnknown if
// the error is not a DotpilotError
func GetErrorCode(err error) ErrorCode {
	var derr *DotpilotError
	if errors.As(err, &derr) {
		return derr.Code
	}
	return ErrUnknown
}
