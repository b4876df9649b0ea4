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

	// Configuration errors
	ErrConfigLoad  ErrorCode = "CONFIG_LOAD"
	ErrConfigValid ErrorCode = "CONFIG_INVALID"

	// Catalog errors
	ErrCatalogInvalid ErrorCode = "CATALOG_INVALID"
	ErrCatalogVersion ErrorCode = "CATALOG_VERSION"

	// Location errors
	ErrNoSaveFound           ErrorCode = "NO_SAVE_FOUND"
	ErrAmbiguousSaveLocation ErrorCode = "AMBIGUOUS_SAVE_LOCATION"
	ErrOriginOccupied        ErrorCode = "ORIGIN_OCCUPIED"

	// Storage errors
	ErrStorageNotSet      ErrorCode = "STORAGE_NOT_SET"
	ErrStorageNotWritable ErrorCode = "STORAGE_NOT_WRITABLE"
	ErrStorageCollision   ErrorCode = "STORAGE_COLLISION"
	ErrStorageEntryMissing ErrorCode = "STORAGE_ENTRY_MISSING"

	// Link errors
	ErrLinkTargetMismatch    ErrorCode = "LINK_TARGET_MISMATCH"
	ErrInsufficientPrivilege ErrorCode = "INSUFFICIENT_PRIVILEGE"
	ErrPartialFailure        ErrorCode = "PARTIAL_FAILURE_REQUIRES_MANUAL_RECOVERY"

	// State machine errors
	ErrEntryIgnored     ErrorCode = "ENTRY_IGNORED"
	ErrNothingToRestore ErrorCode = "NOTHING_TO_RESTORE"
	ErrNothingToUnlink  ErrorCode = "NOTHING_TO_UNLINK"
	ErrNotIgnored       ErrorCode = "NOT_IGNORED"

	// Registry errors
	ErrRegistryLocked   ErrorCode = "REGISTRY_LOCKED"
	ErrRegistryNotFound ErrorCode = "REGISTRY_NOT_FOUND"
	ErrRegistryCorrupt  ErrorCode = "REGISTRY_CORRUPT"
	ErrRegistryTooNew   ErrorCode = "REGISTRY_TOO_NEW"

	// FileSystem errors
	ErrIO ErrorCode = "IO_ERROR"
)

// SaveliError represents a structured error with code and details
type SaveliError struct {
	Code    ErrorCode
	Message string
	Details map[string]interface{}
	Wrapped error
}

// Error implements the error interface
func (e *SaveliError) Error() string {
	if e.Wrapped != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Wrapped)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap implements the errors.Unwrap interface
func (e *SaveliError) Unwrap() error {
	return e.Wrapped
}

// Is implements errors.Is interface
func (e *SaveliError) Is(target error) bool {
	var targetErr *SaveliError
	if errors.As(target, &targetErr) {
		return e.Code == targetErr.Code
	}
	return false
}

// New creates a new SaveliError with the given code and message
func New(code ErrorCode, message string) *SaveliError {
	return &SaveliError{
		Code:    code,
		Message: message,
		Details: make(map[string]interface{}),
	}
}

// Newf creates a new SaveliError with a formatted message
func Newf(code ErrorCode, format string, args ...interface{}) *SaveliError {
	return &SaveliError{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Details: make(map[string]interface{}),
	}
}

// Wrap wraps an existing error with a SaveliError
func Wrap(err error, code ErrorCode, message string) *SaveliError {
	if err == nil {
		return nil
	}
	return &SaveliError{
		Code:    code,
		Message: message,
		Details: make(map[string]interface{}),
		Wrapped: err,
	}
}

// Wrapf wraps an existing error with a formatted message
func Wrapf(err error, code ErrorCode, format string, args ...interface{}) *SaveliError {
	if err == nil {
		return nil
	}
	return &SaveliError{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Details: make(map[string]interface{}),
		Wrapped: err,
	}
}

// WithDetail adds a detail to the error
func (e *SaveliError) WithDetail(key string, value interface{}) *SaveliError {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

// WithDetails adds multiple details to the error
func (e *SaveliError) WithDetails(details map[string]interface{}) *SaveliError {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	for k, v := range details {
		e.Details[k] = v
	}
	return e
}

// IsErrorCode checks if an error has a specific error code
func IsErrorCode(err error, code ErrorCode) bool {
	var saveliErr *SaveliError
	if errors.As(err, &saveliErr) {
		return saveliErr.Code == code
	}
	return false
}

// HasErrorCode walks the whole chain, so a code wrapped under another
// SaveliError is still found
func HasErrorCode(err error, code ErrorCode) bool {
	return errors.Is(err, &SaveliError{Code: code})
}

// GetErrorCode returns the error code from an error, or ErrUnknown if not a SaveliError
func GetErrorCode(err error) ErrorCode {
	var saveliErr *SaveliError
	if errors.As(err, &saveliErr) {
		return saveliErr.Code
	}
	return ErrUnknown
}

// GetErrorDetails returns the details from an error, or nil if not a SaveliError
func GetErrorDetails(err error) map[string]interface{} {
	var saveliErr *SaveliError
	if errors.As(err, &saveliErr) {
		return saveliErr.Details
	}
	return nil
}
