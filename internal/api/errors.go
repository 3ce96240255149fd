// errors.go - Error responses and mapping of domain errors to HTTP
package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/home-manager/backend/internal/canvas"
	"github.com/home-manager/backend/internal/session"
	"github.com/home-manager/backend/internal/storage"
	"github.com/home-manager/backend/internal/store"
	"github.com/labstack/echo/v4"
)

// ExposeErrorDetails includes the cause of unexpected errors in responses.
var ExposeErrorDetails = true

// APIError is the JSON body of every failed request. Status is the HTTP
// status and is not serialized.
type APIError struct {
	Status  int    `json:"-"`
	Code    string `json:"code"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}

func (e *APIError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("%s: %s (%s)", e.Code, e.Message, e.Details)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func newAPIError(status int, code, message string, cause error) *APIError {
	e := &APIError{Status: status, Code: code, Message: message}
	if cause != nil {
		e.Details = cause.Error()
	}
	return e
}

// NewBadRequestError reports a malformed request.
func NewBadRequestError(message string, cause error) *APIError {
	return newAPIError(http.StatusBadRequest, "BAD_REQUEST", message, cause)
}

// NewValidationError reports a missing or unusable field.
func NewValidationError(field string) *APIError {
	return newAPIError(http.StatusBadRequest, "VALIDATION_ERROR", "validation failed for field: "+field, nil)
}

// NewSchemaError reports a body rejected by its JSON Schema.
func NewSchemaError(cause error) *APIError {
	return newAPIError(http.StatusBadRequest, "VALIDATION_ERROR", "request body does not match schema", cause)
}

func NewNotFoundError(resource, id string) *APIError {
	return newAPIError(http.StatusNotFound, "NOT_FOUND", fmt.Sprintf("%s not found: %s", resource, id), nil)
}

// NewInternalError hides the cause unless ExposeErrorDetails is set.
func NewInternalError(message string, cause error) *APIError {
	if !ExposeErrorDetails {
		cause = nil
	}
	return newAPIError(http.StatusInternalServerError, "INTERNAL_ERROR", message, cause)
}

func NewServiceUnavailableError(message string) *APIError {
	return newAPIError(http.StatusServiceUnavailable, "SERVICE_UNAVAILABLE", message, nil)
}

// mapError converts errors from the store, storage and session layers.
// action describes what failed, e.g. "failed to open editor".
func mapError(err error, resource, id, action string) *APIError {
	var apiErr *APIError
	switch {
	case errors.As(err, &apiErr):
		return apiErr
	case errors.Is(err, store.ErrNotFound),
		errors.Is(err, session.ErrNotFound),
		errors.Is(err, storage.ErrNotFound):
		return NewNotFoundError(resource, id)
	case errors.Is(err, store.ErrInvalid),
		errors.Is(err, storage.ErrInvalidRef),
		errors.Is(err, canvas.ErrUnknownInput):
		return NewBadRequestError(action+": invalid "+resource, err)
	case errors.Is(err, session.ErrLimit):
		return NewServiceUnavailableError(err.Error())
	}
	return NewInternalError(action, err)
}

// ErrorHandler renders every handler error as an APIError.
// Usage: e.HTTPErrorHandler = api.ErrorHandler
func ErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	var apiErr *APIError
	var httpErr *echo.HTTPError
	switch {
	case errors.As(err, &apiErr):
	case errors.As(err, &httpErr):
		apiErr = newAPIError(httpErr.Code, "HTTP_ERROR", fmt.Sprint(httpErr.Message), nil)
	default:
		apiErr = newAPIError(http.StatusInternalServerError, "UNKNOWN_ERROR", "An unexpected error occurred", nil)
		if ExposeErrorDetails {
			apiErr.Details = err.Error()
		}
	}

	if c.Request().Method == http.MethodHead {
		_ = c.NoContent(apiErr.Status)
		return
	}
	_ = c.JSON(apiErr.Status, apiErr)
}
