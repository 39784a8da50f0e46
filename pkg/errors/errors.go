// Package errors defines structured error types for the FraudGuard scoring service.
// Errors carry a machine-readable code, an HTTP status for the transport layer,
// and an optional cause chain.
package errors

import (
	"fmt"
	"net/http"

	"github.com/fraudguard/fraudguard/pkg/constants"
)

// AppError is a structured application error.
type AppError struct {
	Code       constants.ErrorCode
	HTTPStatus int
	Message    string
	Details    map[string]interface{}
	cause      error
}

// Error implements the error interface.
func (e *AppError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.cause)
	}
	return e.Message
}

// Unwrap returns the underlying cause for errors.Is / errors.As chains.
func (e *AppError) Unwrap() error {
	return e.cause
}

// WithError attaches a cause to a copy of the error.
func (e *AppError) WithError(cause error) *AppError {
	clone := *e
	clone.cause = cause
	return &clone
}

// WithMessage replaces the message on a copy of the error.
func (e *AppError) WithMessage(format string, args ...interface{}) *AppError {
	clone := *e
	clone.Message = fmt.Sprintf(format, args...)
	return &clone
}

// WithDetail attaches a context detail to a copy of the error.
func (e *AppError) WithDetail(key string, value interface{}) *AppError {
	clone := *e
	clone.Details = make(map[string]interface{}, len(e.Details)+1)
	for k, v := range e.Details {
		clone.Details[k] = v
	}
	clone.Details[key] = value
	return &clone
}

// Is reports whether target is an AppError with the same code, so predefined
// errors can be matched through WithError/WithMessage copies.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	return ok && t.Code == e.Code
}

// New creates a new AppError.
func New(code constants.ErrorCode, httpStatus int, message string) *AppError {
	return &AppError{
		Code:       code,
		HTTPStatus: httpStatus,
		Message:    message,
	}
}

// ================================================================================
// Predefined Errors
// ================================================================================

var (
	// ErrInvalidInput indicates a malformed request payload.
	ErrInvalidInput = New(constants.ErrCodeInvalidInput, http.StatusBadRequest, "invalid input")

	// ErrInvalidDataset indicates a training dataset that fails validation
	// before any model fitting begins.
	ErrInvalidDataset = New(constants.ErrCodeInvalidDataset, http.StatusBadRequest, "invalid training dataset")

	// ErrModelNotReady indicates scoring or explanation was requested before
	// any training pass completed.
	ErrModelNotReady = New(constants.ErrCodeModelNotReady, http.StatusServiceUnavailable, "models are not trained yet")

	// ErrTrainingFailed indicates a training step failed; the previously
	// serving ensemble state is untouched.
	ErrTrainingFailed = New(constants.ErrCodeTrainingFailed, http.StatusInternalServerError, "model training failed")

	// ErrNotFound indicates a missing resource.
	ErrNotFound = New(constants.ErrCodeNotFound, http.StatusNotFound, "resource not found")

	// ErrUnauthorized indicates a missing or invalid bearer token.
	ErrUnauthorized = New(constants.ErrCodeUnauthorized, http.StatusUnauthorized, "unauthorized")

	// ErrInternal is the generic fallback for unexpected failures.
	ErrInternal = New(constants.ErrCodeInternal, http.StatusInternalServerError, "internal error")

	// ErrCache indicates a risk cache or profile store failure.
	ErrCache = New(constants.ErrCodeCacheFailure, http.StatusInternalServerError, "cache operation failed")

	// ErrDatabase indicates a prediction log persistence failure.
	ErrDatabase = New(constants.ErrCodeDatabaseFailure, http.StatusInternalServerError, "database operation failed")
)

// FromError normalizes any error into an AppError, wrapping unknown errors
// as ErrInternal.
func FromError(err error) *AppError {
	if err == nil {
		return nil
	}
	if appErr, ok := err.(*AppError); ok {
		return appErr
	}
	return ErrInternal.WithError(err)
}
