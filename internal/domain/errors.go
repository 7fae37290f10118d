package domain

import (
	"errors"
	"fmt"
)

// Application error codes
const (
	EINVALID      = "invalid"       // Invalid input or validation failure
	EUNAUTHORIZED = "unauthorized"  // Authentication required
	EFORBIDDEN    = "forbidden"     // Permission denied
	ENOTFOUND     = "not_found"     // Resource not found
	ECONFLICT     = "conflict"      // Resource conflict (e.g., duplicate)
	ETOOLARGE     = "too_large"     // Request entity too large
	EQUOTA        = "quota"         // Daily generation quota exhausted
	ERATELIMIT    = "rate_limit"    // Minimum interval between actions not elapsed
	ESTORAGE      = "storage_limit" // Stored artifact ceiling reached
	EPAYMENT      = "payment"       // Subscription required or billing state invalid
	ETIMEOUT      = "timeout"       // Upstream provider timed out
	EUNAVAILABLE  = "unavailable"   // Upstream provider temporarily unavailable
	EINTERNAL     = "internal"      // Internal server error
	ENOTIMPL      = "not_impl"      // Not implemented
)

// Error represents an application error with structured information.
type Error struct {
	Code    string // Machine-readable error code
	Op      string // Operation that failed (e.g., "entitlement.reserve")
	Message string // Human-readable message
	Err     error  // Underlying error

	// RetryAfterSeconds is set on ERATELIMIT errors: whole seconds until
	// the caller may retry, rounded up so it never reads zero while blocked.
	RetryAfterSeconds int
}

func (e *Error) Error() string {
	if e.Op != "" {
		return fmt.Sprintf("%s: %s", e.Op, e.Message)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Errorf creates a new Error with the given code, operation, and formatted message.
func Errorf(code, op, format string, args ...interface{}) *Error {
	return &Error{
		Code:    code,
		Op:      op,
		Message: fmt.Sprintf(format, args...),
	}
}

// Wrap wraps an existing error with additional context.
func Wrap(err error, code, op, message string) *Error {
	return &Error{
		Code:    code,
		Op:      op,
		Message: message,
		Err:     err,
	}
}

// ErrorCode returns the code of the root error, or EINTERNAL if none.
func ErrorCode(err error) string {
	if err == nil {
		return ""
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return EINTERNAL
}

// ErrorMessage returns the human-readable message of the error.
func ErrorMessage(err error) string {
	if err == nil {
		return ""
	}
	var e *Error
	if errors.As(err, &e) {
		// For internal errors, return generic message
		if e.Code == EINTERNAL {
			return "An internal error occurred. Please try again later."
		}
		return e.Message
	}
	return "An internal error occurred. Please try again later."
}

// ErrorOp returns the operation of the root error, or an empty string.
func ErrorOp(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Op
	}
	return ""
}

// ErrorRetryAfter returns the retry-after seconds of a rate limit error, or 0.
func ErrorRetryAfter(err error) int {
	var e *Error
	if errors.As(err, &e) {
		return e.RetryAfterSeconds
	}
	return 0
}

// Convenience constructors for common error types

// NotFound creates a not found error.
func NotFound(op, resource, id string) *Error {
	return &Error{
		Code:    ENOTFOUND,
		Op:      op,
		Message: fmt.Sprintf("%s with ID %q not found", resource, id),
	}
}

// Invalid creates a validation error.
func Invalid(op, message string) *Error {
	return &Error{
		Code:    EINVALID,
		Op:      op,
		Message: message,
	}
}

// Unauthorized creates an authentication error.
func Unauthorized(op, message string) *Error {
	return &Error{
		Code:    EUNAUTHORIZED,
		Op:      op,
		Message: message,
	}
}

// Conflict creates a conflict error.
func Conflict(op, message string) *Error {
	return &Error{
		Code:    ECONFLICT,
		Op:      op,
		Message: message,
	}
}

// Internal creates an internal error, wrapping the underlying error.
func Internal(err error, op, message string) *Error {
	return &Error{
		Code:    EINTERNAL,
		Op:      op,
		Message: message,
		Err:     err,
	}
}

// QuotaExceeded creates an error for an exhausted daily generation quota.
func QuotaExceeded(op string, limit int) *Error {
	return &Error{
		Code:    EQUOTA,
		Op:      op,
		Message: fmt.Sprintf("Daily limit of %d analogies reached. Your quota resets at midnight.", limit),
	}
}

// RateLimited creates a minimum-interval error carrying the wait in whole seconds.
func RateLimited(op string, retryAfterSeconds int) *Error {
	return &Error{
		Code:              ERATELIMIT,
		Op:                op,
		Message:           fmt.Sprintf("Please wait %d seconds before generating another analogy.", retryAfterSeconds),
		RetryAfterSeconds: retryAfterSeconds,
	}
}

// StorageLimitExceeded creates an error for the stored artifact ceiling.
func StorageLimitExceeded(op string, limit int) *Error {
	return &Error{
		Code:    ESTORAGE,
		Op:      op,
		Message: fmt.Sprintf("Storage limit of %d analogies reached. Delete some analogies to make room.", limit),
	}
}

// SubscriptionNotFound creates an error for billing operations on accounts
// without the required subscription state.
func SubscriptionNotFound(op string) *Error {
	return &Error{
		Code:    EPAYMENT,
		Op:      op,
		Message: "No matching subscription found for this account.",
	}
}
