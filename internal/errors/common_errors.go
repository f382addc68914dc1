package errors

import (
	"errors"
	"fmt"
)

// ErrorType represents the type of error
type ErrorType string

const (
	ErrTypeConfig      ErrorType = "CONFIG"
	ErrTypeParsing     ErrorType = "PARSING"
	ErrTypeDataQuality ErrorType = "DATA_QUALITY"
	ErrTypeSchema      ErrorType = "SCHEMA"
	ErrTypeNetwork     ErrorType = "NETWORK"
	ErrTypeNotFound    ErrorType = "NOT_FOUND"
	ErrTypeStorage     ErrorType = "STORAGE"
	ErrTypeValidation  ErrorType = "VALIDATION"
)

// AppError represents an application-specific error
type AppError struct {
	Type    ErrorType
	Message string
	Cause   error
	Context map[string]interface{}
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Type, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Type, e.Message)
}

// Unwrap allows errors.Is and errors.As to work with AppError
func (e *AppError) Unwrap() error {
	return e.Cause
}

// WithContext adds context to the error
func (e *AppError) WithContext(key string, value interface{}) *AppError {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

// NewAppError creates a new application error
func NewAppError(errType ErrorType, message string, cause error) *AppError {
	return &AppError{
		Type:    errType,
		Message: message,
		Cause:   cause,
		Context: make(map[string]interface{}),
	}
}

// NewConfigError creates a configuration error. A missing input folder is
// reported this way.
func NewConfigError(message string, cause error) *AppError {
	return NewAppError(ErrTypeConfig, message, cause)
}

// NewParsingError creates a parsing-related error
func NewParsingError(message string, cause error) *AppError {
	return NewAppError(ErrTypeParsing, message, cause)
}

// NewSchemaError reports expected columns that are absent after header
// normalization
func NewSchemaError(file string, missing []string) *AppError {
	return NewAppError(ErrTypeSchema, fmt.Sprintf("%s is missing expected columns %v", file, missing), nil).
		WithContext("file", file).
		WithContext("missing_columns", missing)
}

// NewNetworkError creates a network-related error
func NewNetworkError(message string, cause error) *AppError {
	return NewAppError(ErrTypeNetwork, message, cause)
}

// NewStorageError creates a storage-related error
func NewStorageError(message string, cause error) *AppError {
	return NewAppError(ErrTypeStorage, message, cause)
}

// NewAppValidationError creates a validation error for AppError type
func NewAppValidationError(message string) *AppError {
	return NewAppError(ErrTypeValidation, message, nil)
}

// NewNotFoundError creates a not found error
func NewNotFoundError(resource string) *AppError {
	return NewAppError(ErrTypeNotFound, fmt.Sprintf("%s not found", resource), nil)
}

// DataQualityError is a value in a successfully parsed file that cannot be
// converted to its column type
type DataQualityError struct {
	File   string
	Line   int
	Column string
	Value  string
	Cause  error
}

// Error implements the error interface
func (e *DataQualityError) Error() string {
	return fmt.Sprintf("[%s] %s line %d: cannot convert %s value %q: %v",
		ErrTypeDataQuality, e.File, e.Line, e.Column, e.Value, e.Cause)
}

// Unwrap returns the conversion error
func (e *DataQualityError) Unwrap() error {
	return e.Cause
}

// NewDataQualityError creates a coercion error for one cell
func NewDataQualityError(file string, line int, column, value string, cause error) *DataQualityError {
	return &DataQualityError{File: file, Line: line, Column: column, Value: value, Cause: cause}
}

// TypeOf returns the error type of the first AppError or DataQualityError in
// the chain, or the empty string
func TypeOf(err error) ErrorType {
	var dq *DataQualityError
	if errors.As(err, &dq) {
		return ErrTypeDataQuality
	}
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Type
	}
	return ""
}

// IsType reports whether err carries the given error type
func IsType(err error, errType ErrorType) bool {
	return err != nil && TypeOf(err) == errType
}
