package errors

import (
	"context"
	"fmt"
	"net/http"

	pkgerrors "github.com/pkg/errors"

	"github.com/Police-Data-Accessibility-Project/data-sources-app/plugin/pdap"
)

// ErrorCode represents a specific error type returned by the JSON API.
type ErrorCode string

const (
	// ErrCodeUnauthorized indicates the user is not signed in or the token was rejected.
	ErrCodeUnauthorized ErrorCode = "UNAUTHORIZED"
	// ErrCodeNotFound indicates the requested record does not exist.
	ErrCodeNotFound ErrorCode = "NOT_FOUND"
	// ErrCodeInvalidArgument indicates invalid input parameters.
	ErrCodeInvalidArgument ErrorCode = "INVALID_ARGUMENT"
	// ErrCodeUpstreamFailed indicates the data-sources API failed or was unreachable.
	ErrCodeUpstreamFailed ErrorCode = "UPSTREAM_FAILED"
	// ErrCodePermissionDenied indicates a browser request from a foreign origin.
	ErrCodePermissionDenied ErrorCode = "PERMISSION_DENIED"
	// ErrCodeRateLimitExceeded indicates rate limit has been exceeded.
	ErrCodeRateLimitExceeded ErrorCode = "RATE_LIMIT_EXCEEDED"
	// ErrCodeContextCanceled indicates the operation was canceled.
	ErrCodeContextCanceled ErrorCode = "CONTEXT_CANCELED"
	// ErrCodeTimeout indicates the operation timed out.
	ErrCodeTimeout ErrorCode = "TIMEOUT"
)

var httpStatus = map[ErrorCode]int{
	ErrCodeUnauthorized:      http.StatusUnauthorized,
	ErrCodeNotFound:          http.StatusNotFound,
	ErrCodeInvalidArgument:   http.StatusBadRequest,
	ErrCodeUpstreamFailed:    http.StatusBadGateway,
	ErrCodePermissionDenied:  http.StatusForbidden,
	ErrCodeRateLimitExceeded: http.StatusTooManyRequests,
	ErrCodeContextCanceled:   499,
	ErrCodeTimeout:           http.StatusGatewayTimeout,
}

// APIError represents a structured error for the JSON API.
type APIError struct {
	Code    ErrorCode
	Message string
	Cause   error
}

// Error implements the error interface.
func (e *APIError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause.
func (e *APIError) Unwrap() error {
	return e.Cause
}

// HTTPStatus returns the status code the error is served with.
func (e *APIError) HTTPStatus() int {
	if status, ok := httpStatus[e.Code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// Body is the JSON form of an error response.
type Body struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
}

// Body returns the JSON response body for the error.
func (e *APIError) Body() Body {
	return Body{Code: e.Code, Message: e.Message}
}

// Convenience constructors for common error types.

// Unauthorized creates an unauthorized error.
func Unauthorized(msg string) *APIError {
	return &APIError{Code: ErrCodeUnauthorized, Message: msg}
}

// InvalidArgument creates an invalid argument error.
func InvalidArgument(msg string) *APIError {
	return &APIError{Code: ErrCodeInvalidArgument, Message: msg}
}

// UpstreamFailed creates an upstream failure error.
func UpstreamFailed(msg string, cause error) *APIError {
	return &APIError{Code: ErrCodeUpstreamFailed, Message: msg, Cause: cause}
}

// PermissionDenied creates a permission denied error.
func PermissionDenied(msg string) *APIError {
	return &APIError{Code: ErrCodePermissionDenied, Message: msg}
}

// RateLimitExceeded creates a rate limit exceeded error.
func RateLimitExceeded(msg string) *APIError {
	return &APIError{Code: ErrCodeRateLimitExceeded, Message: msg}
}

// Wrap wraps an existing error with additional context.
func Wrap(cause error, code ErrorCode, msg string) *APIError {
	return &APIError{Code: code, Message: msg, Cause: cause}
}

// FromError classifies any error returned by a store action. API status
// errors keep the upstream message; everything else is reported as an
// upstream failure.
func FromError(err error) *APIError {
	if err == nil {
		return nil
	}
	var apiErr *APIError
	if pkgerrors.As(err, &apiErr) {
		return apiErr
	}

	switch {
	case pkgerrors.Is(err, context.Canceled):
		return Wrap(err, ErrCodeContextCanceled, "operation canceled")
	case pkgerrors.Is(err, context.DeadlineExceeded):
		return Wrap(err, ErrCodeTimeout, "upstream request timed out")
	case pdap.IsUnauthorized(err):
		return Wrap(err, ErrCodeUnauthorized, messageOf(err, "authentication required"))
	case pdap.IsNotFound(err):
		return Wrap(err, ErrCodeNotFound, messageOf(err, "not found"))
	}

	switch status := pdap.StatusCode(err); {
	case status == http.StatusBadRequest || status == http.StatusConflict || status == http.StatusUnprocessableEntity:
		return Wrap(err, ErrCodeInvalidArgument, messageOf(err, "invalid request"))
	case status == http.StatusTooManyRequests:
		return Wrap(err, ErrCodeRateLimitExceeded, messageOf(err, "rate limit exceeded"))
	}
	return UpstreamFailed("data sources API request failed", err)
}

func messageOf(err error, fallback string) string {
	var statusErr *pdap.StatusError
	if pkgerrors.As(err, &statusErr) && statusErr.Message != "" {
		return statusErr.Message
	}
	return fallback
}
