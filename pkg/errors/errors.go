package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Standard error types
var (
	ErrNotFound          = errors.New("resource not found")
	ErrBadRequest        = errors.New("bad request")
	ErrConflict          = errors.New("resource conflict")
	ErrInternal          = errors.New("internal server error")
	ErrValidation        = errors.New("validation error")
	ErrInvalidStock      = errors.New("invalid stock level")
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrLocationNotFound  = errors.New("pharmacy location not found")
	ErrSyncUnavailable   = errors.New("sync unavailable")
)

// AppError represents an application error with context
type AppError struct {
	Err        error             `json:"-"`
	Message    string            `json:"message"`
	Code       string            `json:"code"`
	StatusCode int               `json:"status_code"`
	Details    map[string]string `json:"details,omitempty"`
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the wrapped error
func (e *AppError) Unwrap() error {
	return e.Err
}

// New creates a new AppError
func New(code string, message string, statusCode int) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		StatusCode: statusCode,
	}
}

// Wrap wraps an error with additional context
func Wrap(err error, code string, message string, statusCode int) *AppError {
	return &AppError{
		Err:        err,
		Code:       code,
		Message:    message,
		StatusCode: statusCode,
	}
}

// WithDetails adds details to an AppError
func (e *AppError) WithDetails(details map[string]string) *AppError {
	e.Details = details
	return e
}

// Common error constructors

func NotFound(resource string) *AppError {
	return &AppError{
		Err:        ErrNotFound,
		Code:       "NOT_FOUND",
		Message:    fmt.Sprintf("%s not found", resource),
		StatusCode: http.StatusNotFound,
	}
}

func BadRequest(message string) *AppError {
	return &AppError{
		Err:        ErrBadRequest,
		Code:       "BAD_REQUEST",
		Message:    message,
		StatusCode: http.StatusBadRequest,
	}
}

func Conflict(message string) *AppError {
	return &AppError{
		Err:        ErrConflict,
		Code:       "CONFLICT",
		Message:    message,
		StatusCode: http.StatusConflict,
	}
}

func Internal(message string) *AppError {
	return &AppError{
		Err:        ErrInternal,
		Code:       "INTERNAL_ERROR",
		Message:    message,
		StatusCode: http.StatusInternalServerError,
	}
}

func Validation(details map[string]string) *AppError {
	return &AppError{
		Err:        ErrValidation,
		Code:       "VALIDATION_ERROR",
		Message:    "validation failed",
		StatusCode: http.StatusBadRequest,
		Details:    details,
	}
}

// Domain error constructors

// InvalidStock signals a mutation that targets a negative stock level.
func InvalidStock(itemID string, newStock int) *AppError {
	return &AppError{
		Err:        ErrInvalidStock,
		Code:       "INVALID_STOCK",
		Message:    fmt.Sprintf("stock level %d is invalid for item %s", newStock, itemID),
		StatusCode: http.StatusBadRequest,
	}
}

// InsufficientStock signals a sale or transfer that would drive stock below zero.
func InsufficientStock(itemID string, available, requested int) *AppError {
	return &AppError{
		Err:        ErrInsufficientStock,
		Code:       "INSUFFICIENT_STOCK",
		Message:    fmt.Sprintf("item %s has %d units available, %d requested", itemID, available, requested),
		StatusCode: http.StatusConflict,
	}
}

// LocationNotFound signals an operation referencing an unknown pharmacy id.
func LocationNotFound(pharmacyID string) *AppError {
	return &AppError{
		Err:        ErrLocationNotFound,
		Code:       "LOCATION_NOT_FOUND",
		Message:    fmt.Sprintf("pharmacy %s not found", pharmacyID),
		StatusCode: http.StatusNotFound,
	}
}

// SyncUnavailable signals a sync attempt while the coordinator is offline.
func SyncUnavailable() *AppError {
	return &AppError{
		Err:        ErrSyncUnavailable,
		Code:       "SYNC_UNAVAILABLE",
		Message:    "cannot sync while offline, changes saved locally",
		StatusCode: http.StatusServiceUnavailable,
	}
}

// Is checks if the error matches a target error
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As attempts to convert an error to a specific type
func As(err error, target any) bool {
	return errors.As(err, target)
}
