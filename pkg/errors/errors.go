package errors

import (
	"fmt"
	"net/http"
	"strings"
)

// FieldError describes a single failed validation check.
type FieldError struct {
	Field   string
	Message string
}

// ValidationErrors represents one or more validation failures with
// field-level details.
type ValidationErrors struct {
	Fields []FieldError
}

// NewValidationErrors creates a new validation error from field failures.
func NewValidationErrors(fields ...FieldError) *ValidationErrors {
	return &ValidationErrors{Fields: fields}
}

// Error implements the error interface
func (e *ValidationErrors) Error() string {
	if len(e.Fields) == 0 {
		return "validation failed"
	}
	messages := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		messages[i] = f.Message
	}
	return fmt.Sprintf("validation failed: %s", strings.Join(messages, ", "))
}

// HTTPStatus returns the HTTP status code for this error
func (e *ValidationErrors) HTTPStatus() int {
	return http.StatusBadRequest
}

// NotFoundError represents a resource not found error
type NotFoundError struct {
	Resource string
	Message  string
}

// NewNotFoundError creates a new not found error
func NewNotFoundError(resource, message string) *NotFoundError {
	return &NotFoundError{
		Resource: resource,
		Message:  message,
	}
}

// Error implements the error interface
func (e *NotFoundError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("%s not found", e.Resource)
}

// HTTPStatus returns the HTTP status code for this error
func (e *NotFoundError) HTTPStatus() int {
	return http.StatusNotFound
}

// AlreadyExistsError represents a uniqueness conflict
type AlreadyExistsError struct {
	Resource string
	Message  string
}

// NewAlreadyExistsError creates a new already exists error
func NewAlreadyExistsError(resource, message string) *AlreadyExistsError {
	return &AlreadyExistsError{
		Resource: resource,
		Message:  message,
	}
}

// Error implements the error interface
func (e *AlreadyExistsError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("%s already exists", e.Resource)
}

// HTTPStatus returns the HTTP status code for this error
func (e *AlreadyExistsError) HTTPStatus() int {
	return http.StatusConflict
}

// InternalError represents an internal failure with context.
// The wrapped error is for logs only and is never sent to clients.
type InternalError struct {
	Message string
	Err     error
}

// NewInternalError creates a new internal error
func NewInternalError(message string, err error) *InternalError {
	return &InternalError{
		Message: message,
		Err:     err,
	}
}

// Error implements the error interface
func (e *InternalError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the wrapped error
func (e *InternalError) Unwrap() error {
	return e.Err
}

// HTTPStatus returns the HTTP status code for this error
func (e *InternalError) HTTPStatus() int {
	return http.StatusInternalServerError
}

// HTTPStatuser interface for errors that map to an HTTP status code
type HTTPStatuser interface {
	HTTPStatus() int
}
