package errors

import (
	"errors"
	"net/http"
)

var (
	// ErrValidation is returned when request input is malformed or incomplete.
	ErrValidation = errors.New("validation failed")
	// ErrEmailAlreadyRegistered is returned when a user with the email exists.
	ErrEmailAlreadyRegistered = errors.New("email already registered")
	// ErrPhoneAlreadyRegistered is returned when a user with the phone number exists.
	ErrPhoneAlreadyRegistered = errors.New("phone number already registered")
	// ErrInvalidCredentials is returned when email or password is incorrect.
	ErrInvalidCredentials = errors.New("invalid email or password")
	// ErrMissingFields is returned when a quote submission lacks user fields or files.
	ErrMissingFields = errors.New("missing required fields")
	// ErrFileNotFound is returned when a requested upload does not exist.
	ErrFileNotFound = errors.New("file not found")
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

// MapErrorToHTTP maps domain errors, including wrapped ones, to HTTP errors.
// Anything unrecognised becomes a generic 500 so internals never leak.
func MapErrorToHTTP(err error) *HTTPError {
	switch {
	case errors.Is(err, ErrValidation):
		return NewHTTPError(http.StatusBadRequest, err.Error(), "VALIDATION_ERROR")
	case errors.Is(err, ErrEmailAlreadyRegistered):
		return NewHTTPError(http.StatusBadRequest, ErrEmailAlreadyRegistered.Error(), "EMAIL_ALREADY_REGISTERED")
	case errors.Is(err, ErrPhoneAlreadyRegistered):
		return NewHTTPError(http.StatusBadRequest, ErrPhoneAlreadyRegistered.Error(), "PHONE_ALREADY_REGISTERED")
	case errors.Is(err, ErrInvalidCredentials):
		return NewHTTPError(http.StatusBadRequest, ErrInvalidCredentials.Error(), "INVALID_CREDENTIALS")
	case errors.Is(err, ErrMissingFields):
		return NewHTTPError(http.StatusBadRequest, ErrMissingFields.Error(), "MISSING_FIELDS")
	case errors.Is(err, ErrFileNotFound):
		return NewHTTPError(http.StatusNotFound, ErrFileNotFound.Error(), "FILE_NOT_FOUND")
	default:
		return NewHTTPError(http.StatusInternalServerError, "internal server error", "INTERNAL_ERROR")
	}
}
