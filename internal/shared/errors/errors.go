package errors

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

// ErrorType classifies application errors by domain.
type ErrorType string

const (
	ErrorTypeValidation   ErrorType = "VALIDATION_ERROR"
	ErrorTypeNotFound     ErrorType = "NOT_FOUND_ERROR"
	ErrorTypeConflict     ErrorType = "CONFLICT_ERROR"
	ErrorTypeProvisioning ErrorType = "PROVISIONING_ERROR"
	ErrorTypeRepository   ErrorType = "REPOSITORY_ERROR"
	ErrorTypeInternal     ErrorType = "INTERNAL_ERROR"
)

// Common application errors
var (
	ErrNilModel         = errors.New("model must not be nil")
	ErrMissingKey       = errors.New("model key must not be empty")
	ErrDocumentNotFound = errors.New("document not found")
	ErrDocumentExists   = errors.New("document already exists")
	ErrInvalidDatabase  = errors.New("invalid database ID")
	ErrInvalidContainer = errors.New("invalid container ID")
)

// AppError represents a custom application error with context.
type AppError struct {
	Type      ErrorType              `json:"type"`
	Message   string                 `json:"message"`
	Code      string                 `json:"code,omitempty"`
	HTTPCode  int                    `json:"-"`
	Details   map[string]interface{} `json:"details,omitempty"`
	Cause     error                  `json:"-"`
	Component string                 `json:"component,omitempty"`
}

// Error implements the error interface.
func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

// Unwrap returns the wrapped error.
func (e *AppError) Unwrap() error {
	return e.Cause
}

// NewAppError creates a new application error.
func NewAppError(errorType ErrorType, message string, httpCode int) *AppError {
	return &AppError{
		Type:     errorType,
		Message:  message,
		HTTPCode: httpCode,
		Details:  make(map[string]interface{}),
	}
}

// WithCode adds an error code.
func (e *AppError) WithCode(code string) *AppError {
	e.Code = code
	return e
}

// WithCause adds the underlying cause.
func (e *AppError) WithCause(cause error) *AppError {
	e.Cause = cause
	return e
}

// WithComponent adds the component name.
func (e *AppError) WithComponent(component string) *AppError {
	e.Component = component
	return e
}

// WithDetail adds a detail field.
func (e *AppError) WithDetail(key string, value interface{}) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

// NewValidationError creates a validation error.
func NewValidationError(message string) *AppError {
	return NewAppError(ErrorTypeValidation, message, http.StatusBadRequest)
}

// NewNotFoundError creates a not found error for a resource.
func NewNotFoundError(resource string) *AppError {
	return NewAppError(ErrorTypeNotFound, fmt.Sprintf("%s not found", resource), http.StatusNotFound).
		WithCause(ErrDocumentNotFound)
}

// NewConflictError creates a conflict error.
func NewConflictError(message string) *AppError {
	return NewAppError(ErrorTypeConflict, message, http.StatusConflict)
}

// NewInternalError creates an internal server error.
func NewInternalError(message string) *AppError {
	return NewAppError(ErrorTypeInternal, message, http.StatusInternalServerError)
}

// NewNilModelError creates the validation error raised when a public
// repository operation receives a nil model. Raised before any store I/O.
func NewNilModelError(op, modelType string) *AppError {
	return NewValidationError(fmt.Sprintf("%s: nil %s model", op, modelType)).
		WithCause(ErrNilModel).
		WithDetail("operation", op).
		WithDetail("model_type", modelType)
}

// NewMissingKeyError creates the validation error raised when a model's keys
// encode to an empty document id.
func NewMissingKeyError(op, modelType string) *AppError {
	return NewValidationError(fmt.Sprintf("%s: %s model has an empty key", op, modelType)).
		WithCause(ErrMissingKey).
		WithDetail("operation", op).
		WithDetail("model_type", modelType)
}

// RepositoryError wraps a store-level failure during a repository operation.
// It carries the operation name, the model type and a JSON snapshot of the
// offending model so failures can be diagnosed without re-running the call.
type RepositoryError struct {
	Op        string
	ModelType string
	ModelJSON string
	Cause     error
}

// Error implements the error interface.
func (e *RepositoryError) Error() string {
	if e.ModelJSON == "" {
		return fmt.Sprintf("repository %s failed for %s: %v", e.Op, e.ModelType, e.Cause)
	}
	return fmt.Sprintf("repository %s failed for %s (%s): %v", e.Op, e.ModelType, e.ModelJSON, e.Cause)
}

// Unwrap returns the underlying store error.
func (e *RepositoryError) Unwrap() error {
	return e.Cause
}

// NewRepositoryError builds a RepositoryError, serializing the model snapshot.
func NewRepositoryError(op, modelType string, model interface{}, cause error) *RepositoryError {
	snapshot := "<unserializable>"
	if data, err := json.Marshal(model); err == nil {
		snapshot = string(data)
	}
	return &RepositoryError{
		Op:        op,
		ModelType: modelType,
		ModelJSON: snapshot,
		Cause:     cause,
	}
}

// ProvisioningError signals that ensuring a backing database or container
// returned an unexpected status. It is fatal for the operation that triggered
// provisioning and is never retried automatically within that call.
type ProvisioningError struct {
	Resource string // "database" or "container"
	Name     string
	Status   string
	Cause    error
}

// Error implements the error interface.
func (e *ProvisioningError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("provisioning %s %q failed: %v", e.Resource, e.Name, e.Cause)
	}
	return fmt.Sprintf("provisioning %s %q returned unexpected status %s", e.Resource, e.Name, e.Status)
}

// Unwrap returns the underlying store error, if any.
func (e *ProvisioningError) Unwrap() error {
	return e.Cause
}

// IsNotFound checks if an error is a not found error.
func IsNotFound(err error) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Type == ErrorTypeNotFound
	}
	return errors.Is(err, ErrDocumentNotFound)
}

// IsValidation checks if an error is a validation error.
func IsValidation(err error) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Type == ErrorTypeValidation
	}
	return errors.Is(err, ErrNilModel) || errors.Is(err, ErrMissingKey)
}

// IsConflict checks if an error is a conflict error.
func IsConflict(err error) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Type == ErrorTypeConflict
	}
	return errors.Is(err, ErrDocumentExists)
}

// IsProvisioning checks if an error originated in resource provisioning.
func IsProvisioning(err error) bool {
	var provErr *ProvisioningError
	return errors.As(err, &provErr)
}

// IsRepository checks if an error is a wrapped store failure.
func IsRepository(err error) bool {
	var repoErr *RepositoryError
	return errors.As(err, &repoErr)
}

// HTTPStatus maps an error to the HTTP status code it should surface as.
func HTTPStatus(err error) int {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.HTTPCode
	}
	switch {
	case IsNotFound(err):
		return http.StatusNotFound
	case IsValidation(err):
		return http.StatusBadRequest
	case IsConflict(err):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
