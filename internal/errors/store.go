package errors

import (
	"context"
	"errors"

	"github.com/redis/go-redis/v9"
)

// MapStoreError maps session/user store errors to AppError instances.
// It handles:
// - redis.Nil → NotFound
// - Context timeouts/cancellations → Timeout/Canceled
// - redis.ErrClosed → Unavailable
//
// Errors that are already AppErrors, or that are not recognized, are returned unchanged.
func MapStoreError(err error) error {
	if err == nil {
		return nil
	}

	var appErr *AppError
	if errors.As(err, &appErr) {
		return err
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return &AppError{Code: ErrCodeTimeout, Message: "Request timed out. Please try again.", Cause: err}
	}
	if errors.Is(err, context.Canceled) {
		return &AppError{Code: ErrCodeCanceled, Message: "Request was canceled.", Cause: err}
	}
	if errors.Is(err, redis.Nil) {
		return &AppError{Code: ErrCodeNotFound, Message: "Resource not found", Cause: err}
	}
	if errors.Is(err, redis.ErrClosed) {
		return &AppError{Code: ErrCodeUnavailable, Message: "Session store unavailable", Cause: err}
	}

	return err
}
