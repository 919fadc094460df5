package dynform

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// ErrorType represents the category of error
type ErrorType string

const (
	ErrorTypeValidation ErrorType = "validation"
	ErrorTypeNotFound   ErrorType = "not_found"
	ErrorTypeInternal   ErrorType = "internal"
	ErrorTypeStorage    ErrorType = "storage"
)

// Error codes
const (
	ErrCodeSubmissionNotFound = "SUBMISSION_NOT_FOUND"
	ErrCodeInvalidID          = "INVALID_ID"
	ErrCodeValidationFailed   = "VALIDATION_FAILED"
	ErrCodeInvalidQuery       = "INVALID_QUERY"
	ErrCodeStorageFailure     = "STORAGE_FAILURE"
	ErrCodeExportFailure      = "EXPORT_FAILURE"
	ErrCodeInternal           = "INTERNAL_ERROR"
)

// FormError is the error returned by submission operations.
type FormError struct {
	Type    ErrorType      `json:"type"`
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Field   string         `json:"field,omitempty"`
	Details map[string]any `json:"details,omitempty"`
	Cause   error          `json:"-"`
}

func (e *FormError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("[%s:%s] field '%s': %s", e.Type, e.Code, e.Field, e.Message)
	}
	if e.Cause != nil {
		return fmt.Sprintf("[%s:%s] %s: %v", e.Type, e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s:%s] %s", e.Type, e.Code, e.Message)
}

func (e *FormError) Unwrap() error {
	return e.Cause
}

// WithDetail adds a single detail to a FormError
func (e *FormError) WithDetail(key string, value any) *FormError {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	e.Details[key] = value
	return e
}

// WithCause adds a cause to a FormError
func (e *FormError) WithCause(cause error) *FormError {
	e.Cause = cause
	return e
}

// WithField adds field context to a FormError
func (e *FormError) WithField(field string) *FormError {
	e.Field = field
	return e
}

// NewFormError creates a new FormError
func NewFormError(errorType ErrorType, code, message string) *FormError {
	return &FormError{
		Type:    errorType,
		Code:    code,
		Message: message,
	}
}

// NewSubmissionNotFoundError creates a not found error for a submission id
func NewSubmissionNotFoundError(id string) *FormError {
	return NewFormError(ErrorTypeNotFound, ErrCodeSubmissionNotFound, "Submission not found").
		WithDetail("id", id)
}

// NewInvalidIDError reports a malformed submission id
func NewInvalidIDError(id string, cause error) *FormError {
	return NewFormError(ErrorTypeValidation, ErrCodeInvalidID, fmt.Sprintf("invalid submission id %q", id)).
		WithCause(cause)
}

// NewInvalidQueryError reports a malformed listing request
func NewInvalidQueryError(field, message string) *FormError {
	return NewFormError(ErrorTypeValidation, ErrCodeInvalidQuery, message).WithField(field)
}

// NewStorageError wraps a repository failure
func NewStorageError(message string, cause error) *FormError {
	return NewFormError(ErrorTypeStorage, ErrCodeStorageFailure, message).WithCause(cause)
}

// NewInternalError reports a failure that is neither the caller's input nor
// the storage backend, such as submission data that cannot be encoded.
func NewInternalError(message string, cause error) *FormError {
	return NewFormError(ErrorTypeInternal, ErrCodeInternal, message).WithCause(cause)
}

// ValidationFailedError carries the per-field messages of a rejected submission.
type ValidationFailedError struct {
	Result ValidationResult
}

func (e *ValidationFailedError) Error() string {
	ids := make([]string, 0, len(e.Result))
	for id := range e.Result {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = id + ": " + e.Result[id]
	}
	return fmt.Sprintf("[%s:%s] %s", ErrorTypeValidation, ErrCodeValidationFailed, strings.Join(parts, "; "))
}

// NewValidationFailedError wraps a non-empty validation result.
func NewValidationFailedError(result ValidationResult) *ValidationFailedError {
	return &ValidationFailedError{Result: result}
}

// ============================================================================
// SchemaError Type and Constructors
// ============================================================================

// SchemaErrorType represents the type of schema error
type SchemaErrorType string

const (
	SchemaErrorTypeNotFound      SchemaErrorType = "schema_not_found"
	SchemaErrorTypeInvalidFormat SchemaErrorType = "invalid_format"
	SchemaErrorTypeInvalidField  SchemaErrorType = "invalid_field"
)

// SchemaError reports a schema that cannot be loaded or built.
type SchemaError struct {
	Type    SchemaErrorType `json:"type"`
	Field   string          `json:"field,omitempty"`
	Message string          `json:"message"`
	Cause   error           `json:"-"`
}

func (e *SchemaError) Error() string {
	msg := e.Message
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	if e.Field != "" {
		return fmt.Sprintf("schema error [%s] field '%s': %s", e.Type, e.Field, msg)
	}
	return fmt.Sprintf("schema error [%s]: %s", e.Type, msg)
}

func (e *SchemaError) Unwrap() error {
	return e.Cause
}

// WithField adds the offending field id
func (e *SchemaError) WithField(id string) *SchemaError {
	e.Field = id
	return e
}

// NewSchemaError creates a new SchemaError
func NewSchemaError(errorType SchemaErrorType, message string, cause error) *SchemaError {
	return &SchemaError{
		Type:    errorType,
		Message: message,
		Cause:   cause,
	}
}

// ConfigError represents a configuration validation error
type ConfigError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (e *ConfigError) Error() string {
	return "config validation error for field '" + e.Field + "': " + e.Message
}

// ============================================================================
// Error checking utilities
// ============================================================================

// IsSchemaError checks if an error is a SchemaError of a specific type. An
// empty type matches any SchemaError.
func IsSchemaError(err error, errorType SchemaErrorType) bool {
	var schemaErr *SchemaError
	if !errors.As(err, &schemaErr) {
		return false
	}
	return errorType == "" || schemaErr.Type == errorType
}

// IsNotFoundError checks if an error is a not found error
func IsNotFoundError(err error) bool {
	var fe *FormError
	return errors.As(err, &fe) && fe.Type == ErrorTypeNotFound
}

// IsValidationError reports rejected submissions and malformed requests.
func IsValidationError(err error) bool {
	if _, ok := AsValidationFailed(err); ok {
		return true
	}
	var fe *FormError
	return errors.As(err, &fe) && fe.Type == ErrorTypeValidation
}

// IsStorageError checks if an error is a storage error
func IsStorageError(err error) bool {
	var fe *FormError
	return errors.As(err, &fe) && fe.Type == ErrorTypeStorage
}

// IsInternalError checks if an error is an internal error
func IsInternalError(err error) bool {
	var fe *FormError
	return errors.As(err, &fe) && fe.Type == ErrorTypeInternal
}

// AsValidationFailed extracts the validation result of a rejected submission.
func AsValidationFailed(err error) (ValidationResult, bool) {
	var vf *ValidationFailedError
	if errors.As(err, &vf) {
		return vf.Result, true
	}
	return nil, false
}
