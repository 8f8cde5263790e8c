package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorCode represents a category of application error.
type ErrorCode string

const (
	// ErrCodeNotFound indicates a resource was not found.
	ErrCodeNotFound ErrorCode = "not_found"
	// ErrCodeValidation indicates invalid input data.
	ErrCodeValidation ErrorCode = "validation"
	// ErrCodeInternal indicates an internal server error.
	ErrCodeInternal ErrorCode = "internal"
	// ErrCodeTimeout indicates a timeout occurred.
	ErrCodeTimeout ErrorCode = "timeout"
	// ErrCodeCanceled indicates the operation was canceled.
	ErrCodeCanceled ErrorCode = "canceled"
	// ErrCodeUnavailable indicates a backing store could not be reached.
	ErrCodeUnavailable ErrorCode = "unavailable"

	// ErrCodeAuthorization indicates the login round trip was refused.
	ErrCodeAuthorization ErrorCode = "authorization"
	// ErrCodeServer indicates a gateway or provider misconfiguration.
	ErrCodeServer ErrorCode = "server"
	// ErrCodeBadCredentials indicates the provider rejected our client credentials.
	ErrCodeBadCredentials ErrorCode = "bad_credentials"
	// ErrCodeExpiredCredentials indicates an inactive or expired bearer token.
	ErrCodeExpiredCredentials ErrorCode = "expired_credentials"
	// ErrCodeInsufficientAuthentication indicates a token that could not be mapped to a user.
	ErrCodeInsufficientAuthentication ErrorCode = "insufficient_authentication"
)

// AppError represents a structured application error with a code, message, and optional cause.
// It supports error wrapping and unwrapping for use with errors.Is and errors.As.
type AppError struct {
	// Code categorizes the error type
	Code ErrorCode
	// Message is the caller-facing message
	Message string
	// Cause is the underlying error that caused this error (optional)
	Cause error
	// Hint is an operator-facing remediation note; it is logged, never rendered
	Hint string
}

// Error implements the error interface.
func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

// Unwrap returns the underlying cause, enabling errors.Is and errors.As.
func (e *AppError) Unwrap() error {
	return e.Cause
}

// NotFound creates a new NotFound error.
func NotFound(message string) *AppError {
	return &AppError{Code: ErrCodeNotFound, Message: message}
}

// NotFoundf creates a new NotFound error with formatted message.
func NotFoundf(format string, args ...any) *AppError {
	return &AppError{Code: ErrCodeNotFound, Message: fmt.Sprintf(format, args...)}
}

// Validation creates a new Validation error.
func Validation(message string) *AppError {
	return &AppError{Code: ErrCodeValidation, Message: message}
}

// Internal creates a new Internal error.
func Internal(message string) *AppError {
	return &AppError{Code: ErrCodeInternal, Message: message}
}

// Authorization creates an error for a refused login round trip.
func Authorization(message string) *AppError {
	return &AppError{Code: ErrCodeAuthorization, Message: message}
}

// Server creates an error for a misconfigured gateway or provider.
func Server(message, hint string, cause error) *AppError {
	return &AppError{Code: ErrCodeServer, Message: message, Hint: hint, Cause: cause}
}

// BadCredentials creates an error for rejected client credentials.
func BadCredentials(message string, cause error) *AppError {
	return &AppError{Code: ErrCodeBadCredentials, Message: message, Cause: cause}
}

// ExpiredCredentials creates an error for an inactive token.
func ExpiredCredentials(message string) *AppError {
	return &AppError{Code: ErrCodeExpiredCredentials, Message: message}
}

// InsufficientAuthentication creates an error for a token that maps to no user.
func InsufficientAuthentication(message string, cause error) *AppError {
	return &AppError{Code: ErrCodeInsufficientAuthentication, Message: message, Cause: cause}
}

// Wrap wraps an existing error with an AppError, preserving the cause.
func Wrap(err error, code ErrorCode, message string) *AppError {
	if err == nil {
		return nil
	}
	return &AppError{Code: code, Message: message, Cause: err}
}

// isCode checks if an error has a specific error code.
func isCode(err error, code ErrorCode) bool {
	var appErr *AppError
	return errors.As(err, &appErr) && appErr.Code == code
}

// IsNotFound checks if an error is a NotFound error.
func IsNotFound(err error) bool { return isCode(err, ErrCodeNotFound) }

// IsValidation checks if an error is a Validation error.
func IsValidation(err error) bool { return isCode(err, ErrCodeValidation) }

// IsInternal checks if an error is an Internal error.
func IsInternal(err error) bool { return isCode(err, ErrCodeInternal) }

// IsTimeout checks if an error is a Timeout error.
func IsTimeout(err error) bool { return isCode(err, ErrCodeTimeout) }

// IsCanceled checks if an error is a Canceled error.
func IsCanceled(err error) bool { return isCode(err, ErrCodeCanceled) }

// IsAuthorization checks if an error is an Authorization error.
func IsAuthorization(err error) bool { return isCode(err, ErrCodeAuthorization) }

// IsServer checks if an error is a Server error.
func IsServer(err error) bool { return isCode(err, ErrCodeServer) }

// IsBadCredentials checks if an error is a BadCredentials error.
func IsBadCredentials(err error) bool { return isCode(err, ErrCodeBadCredentials) }

// IsExpiredCredentials checks if an error is an ExpiredCredentials error.
func IsExpiredCredentials(err error) bool { return isCode(err, ErrCodeExpiredCredentials) }

// IsInsufficientAuthentication checks if an error is an InsufficientAuthentication error.
func IsInsufficientAuthentication(err error) bool {
	return isCode(err, ErrCodeInsufficientAuthentication)
}

// GetCode returns the ErrorCode from an error, or empty string if not an AppError.
func GetCode(err error) ErrorCode {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return ""
}

// GetHint returns the operator hint from an error, or empty string.
func GetHint(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Hint
	}
	return ""
}

// PublicMessage returns the caller-facing message of an AppError, or fallback otherwise.
func PublicMessage(err error, fallback string) string {
	var appErr *AppError
	if errors.As(err, &appErr) && appErr.Message != "" {
		return appErr.Message
	}
	return fallback
}

// HTTPStatus maps an error onto the status code the gateway answers with.
func HTTPStatus(err error) int {
	switch GetCode(err) {
	case ErrCodeAuthorization, ErrCodeBadCredentials, ErrCodeExpiredCredentials, ErrCodeInsufficientAuthentication:
		return http.StatusUnauthorized
	case ErrCodeNotFound:
		return http.StatusNotFound
	case ErrCodeValidation:
		return http.StatusBadRequest
	case ErrCodeTimeout:
		return http.StatusGatewayTimeout
	case ErrCodeUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
