package errors

import (
	"fmt"
	"net/http"

	"github.com/go-chi/render"
)

// APIError represents a structured API error response
type APIError struct {
	StatusCode int         `json:"status_code"`
	ErrorCode  string      `json:"error_code"`
	Message    string      `json:"message"`
	Details    interface{} `json:"details,omitempty"`
}

// Error implements the error interface
func (e *APIError) Error() string {
	return e.Message
}

// Render implements the render.Renderer interface for chi/render
func (e *APIError) Render(w http.ResponseWriter, r *http.Request) error {
	render.Status(r, e.StatusCode)
	return nil
}

// ValidationError describes one rejected request field
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationErrors represents multiple validation errors
type ValidationErrors struct {
	Errors []ValidationError `json:"errors"`
}

// New creates a new APIError with the given parameters
func New(statusCode int, errorCode, message string) *APIError {
	return &APIError{
		StatusCode: statusCode,
		ErrorCode:  errorCode,
		Message:    message,
	}
}

// NewWithDetails creates a new APIError with additional details
func NewWithDetails(statusCode int, errorCode, message string, details interface{}) *APIError {
	return &APIError{
		StatusCode: statusCode,
		ErrorCode:  errorCode,
		Message:    message,
		Details:    details,
	}
}

// Error codes shared by handlers and the problem mapper
const (
	CodeInvalidParameter   = "INVALID_PARAMETER"
	CodeValidationFailed   = "VALIDATION_FAILED"
	CodeNotFound           = "NOT_FOUND"
	CodeEntityNotFound     = "ENTITY_NOT_FOUND"
	CodeNoData             = "NO_DATA"
	CodeMetricUnavailable  = "METRIC_UNAVAILABLE"
	CodeRateLimitExceeded  = "RATE_LIMIT_EXCEEDED"
	CodeInternalServer     = "INTERNAL_SERVER_ERROR"
	CodeServiceUnavailable = "SERVICE_UNAVAILABLE"
)

// Predefined error types for common scenarios
var (
	// 400 Bad Request
	ErrInvalidParameter = New(http.StatusBadRequest, CodeInvalidParameter, "Invalid parameter value")
	ErrValidationFailed = New(http.StatusBadRequest, CodeValidationFailed, "Request validation failed")

	// 404 Not Found
	ErrNotFound       = New(http.StatusNotFound, CodeNotFound, "Resource not found")
	ErrNoDataLoaded   = New(http.StatusNotFound, CodeNoData, "No price data is loaded for any entity")
	ErrEntityNotFound = New(http.StatusNotFound, CodeEntityNotFound, "Entity not found")

	// 429 Too Many Requests
	ErrRateLimitExceeded = New(http.StatusTooManyRequests, CodeRateLimitExceeded, "Rate limit exceeded")

	// 500 Internal Server Error
	ErrInternalServer = New(http.StatusInternalServerError, CodeInternalServer, "Internal server error")

	// 503 Service Unavailable
	ErrServiceUnavailable = New(http.StatusServiceUnavailable, CodeServiceUnavailable, "Service temporarily unavailable")
)

// InvalidParameter creates a 400 error naming the rejected parameter
func InvalidParameter(name string, value interface{}, reason string) *APIError {
	return NewWithDetails(
		http.StatusBadRequest,
		CodeInvalidParameter,
		fmt.Sprintf("Invalid value for parameter %q: %s", name, reason),
		map[string]interface{}{"parameter": name, "value": value},
	)
}

// NewValidationErrors creates validation errors from multiple fields
func NewValidationErrors(errs []ValidationError) *APIError {
	return NewWithDetails(
		http.StatusBadRequest,
		CodeValidationFailed,
		"Request validation failed",
		ValidationErrors{Errors: errs},
	)
}

// NotFoundError creates a not found error with details
func NotFoundError(resource string) *APIError {
	return NewWithDetails(http.StatusNotFound, CodeNotFound, fmt.Sprintf("%s not found", resource), resource)
}

// EntityNotFound reports an unknown entity name or ticker
func EntityNotFound(key string) *APIError {
	return NewWithDetails(
		http.StatusNotFound,
		CodeEntityNotFound,
		fmt.Sprintf("Entity %q is not part of the loaded universe", key),
		map[string]string{"entity": key},
	)
}

// MetricUnavailable reports a metric that has too little history to compute
func MetricUnavailable(entity, metric string) *APIError {
	return NewWithDetails(
		http.StatusUnprocessableEntity,
		CodeMetricUnavailable,
		fmt.Sprintf("%s is not available for %s", metric, entity),
		map[string]string{"entity": entity, "metric": metric},
	)
}

// NewInternalError creates a simple internal server error
func NewInternalError(message string) *APIError {
	return New(http.StatusInternalServerError, CodeInternalServer, message)
}
