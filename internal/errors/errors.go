package errors

import (
	"errors"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
)

// APIError carries an HTTP-style status alongside a safe, client-facing
// message and the wrapped internal error.
type APIError struct {
	Status   int    `json:"-"`
	Message  string `json:"error"`
	Internal error  `json:"-"`
}

// Error returns the error message
func (e *APIError) Error() string {
	if e.Internal != nil {
		return e.Message + ": " + e.Internal.Error()
	}
	return e.Message
}

// Unwrap returns the original error
func (e *APIError) Unwrap() error {
	return e.Internal
}

func New(status int, message string, err error) *APIError {
	return &APIError{
		Status:   status,
		Message:  message,
		Internal: err,
	}
}

// BadRequest reports a malformed or invalid request payload.
func BadRequest(message string, err error) *APIError {
	return New(http.StatusBadRequest, message, err)
}

// Unauthorized reports a missing or invalid session token.
func Unauthorized(message string, err error) *APIError {
	return New(http.StatusUnauthorized, message, err)
}

// Forbidden reports an access or role denial.
func Forbidden(message string, err error) *APIError {
	return New(http.StatusForbidden, message, err)
}

// NotFound reports a missing board, element, or user.
func NotFound(message string, err error) *APIError {
	return New(http.StatusNotFound, message, err)
}

// Unprocessable reports a request that is well-formed but semantically invalid.
func Unprocessable(message string, err error) *APIError {
	return New(http.StatusUnprocessableEntity, message, err)
}

// Internal reports a store failure or any other unexpected error.
func Internal(err error) *APIError {
	return New(http.StatusInternalServerError, "Internal server error", err)
}

// NewValidationError wraps a binding/validation failure. Field-level
// validation errors are summarized into the client-facing message.
func NewValidationError(err error) *APIError {
	var validationErrors validator.ValidationErrors
	if errors.As(err, &validationErrors) {
		fields := make([]string, 0, len(validationErrors))
		for _, fieldError := range validationErrors {
			fields = append(fields, strings.ToLower(fieldError.Field())+" is "+fieldError.Tag())
		}
		return New(http.StatusBadRequest, "Invalid input: "+strings.Join(fields, ", "), err)
	}
	return New(http.StatusBadRequest, "Invalid input", err)
}
