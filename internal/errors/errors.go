package errors

import (
	"errors"
	"net/http"

	"github.com/samber/oops"
)

var (
	// ErrValidation is returned when a request body fails validation.
	ErrValidation = errors.New("invalid request")
	// ErrConflict is returned when an email is already registered.
	ErrConflict = errors.New("email already registered")
	// ErrUnauthenticated is returned for bad credentials or a missing, invalid or expired bearer token.
	ErrUnauthenticated = errors.New("could not validate credentials")
	// ErrForbidden is returned when the caller is authenticated but lacks the required role.
	ErrForbidden = errors.New("insufficient permissions")
	// ErrNotFound is returned for unknown emails and unknown reset tokens.
	ErrNotFound = errors.New("not found")
	// ErrExpiredOrUsed is returned when a reset token is past its window or already consumed.
	ErrExpiredOrUsed = errors.New("token expired or already used")
	// ErrRateLimited is returned when a client exceeds a route's request budget.
	ErrRateLimited = errors.New("too many requests")
	// ErrInternal marks unexpected store or signing failures.
	ErrInternal = errors.New("internal server error")
)

// ErrorResponse represents a standardized error response.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// HTTPError represents an HTTP error with status code.
type HTTPError struct {
	StatusCode int
	Message    string
	Code       string
}

func (e *HTTPError) Error() string {
	return e.Message
}

// NewHTTPError creates a new HTTP error.
func NewHTTPError(statusCode int, message, code string) *HTTPError {
	return &HTTPError{
		StatusCode: statusCode,
		Message:    message,
		Code:       code,
	}
}

// ToErrorResponse converts an HTTPError to ErrorResponse.
func (e *HTTPError) ToErrorResponse() ErrorResponse {
	return ErrorResponse{
		Error: e.Message,
		Code:  e.Code,
	}
}

// MapErrorToHTTP maps domain errors to HTTP errors.
// The message is the oops public message when one was attached, otherwise the kind's default.
func MapErrorToHTTP(err error) *HTTPError {
	switch {
	case errors.Is(err, ErrInternal):
		return NewHTTPError(http.StatusInternalServerError, ErrInternal.Error(), "INTERNAL_ERROR")
	case errors.Is(err, ErrValidation):
		return NewHTTPError(http.StatusBadRequest, oops.GetPublic(err, ErrValidation.Error()), "VALIDATION_ERROR")
	case errors.Is(err, ErrConflict):
		return NewHTTPError(http.StatusBadRequest, oops.GetPublic(err, "Email already registered."), "EMAIL_ALREADY_REGISTERED")
	case errors.Is(err, ErrUnauthenticated):
		return NewHTTPError(http.StatusUnauthorized, oops.GetPublic(err, "Could not validate credentials."), "UNAUTHENTICATED")
	case errors.Is(err, ErrForbidden):
		return NewHTTPError(http.StatusForbidden, oops.GetPublic(err, "Insufficient permissions."), "FORBIDDEN")
	case errors.Is(err, ErrNotFound):
		return NewHTTPError(http.StatusNotFound, oops.GetPublic(err, "Not found."), "NOT_FOUND")
	case errors.Is(err, ErrExpiredOrUsed):
		return NewHTTPError(http.StatusBadRequest, oops.GetPublic(err, "Token expired or already used."), "RESET_TOKEN_EXPIRED_OR_USED")
	case errors.Is(err, ErrRateLimited):
		return NewHTTPError(http.StatusTooManyRequests, oops.GetPublic(err, "Too many requests."), "RATE_LIMITED")
	default:
		return NewHTTPError(http.StatusInternalServerError, ErrInternal.Error(), "INTERNAL_ERROR")
	}
}
