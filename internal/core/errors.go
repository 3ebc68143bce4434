// Package core provides the error and context types shared by the Reddit
// client, the checker, and the HTTP server.
package core

import (
	"encoding/json"
	"fmt"
	"net/http"
)

// ErrorType represents the type of error that occurred
type ErrorType string

const (
	// ErrorTypeUpstream indicates a Reddit server error (5xx)
	ErrorTypeUpstream ErrorType = "upstream_error"
	// ErrorTypeTransport indicates the request never produced a usable response
	ErrorTypeTransport ErrorType = "transport_error"
	// ErrorTypeRateLimit indicates a rate limit error (429)
	ErrorTypeRateLimit ErrorType = "rate_limit_error"
	// ErrorTypeInvalidRequest indicates a client error (4xx)
	ErrorTypeInvalidRequest ErrorType = "invalid_request_error"
	// ErrorTypeAuthentication indicates an authentication error (401)
	ErrorTypeAuthentication ErrorType = "authentication_error"
	// ErrorTypeNotFound indicates a not found error (404)
	ErrorTypeNotFound ErrorType = "not_found_error"
)

// APIError is returned by every Reddit client operation that fails before a
// model could be decoded.
type APIError struct {
	Type       ErrorType `json:"type"`
	Message    string    `json:"message"`
	StatusCode int       `json:"status_code"`
	// Operation is the client call that failed, e.g. "get_user".
	Operation string `json:"operation,omitempty"`
	// Original error for debugging (not exposed to clients)
	Err error `json:"-"`
}

// Error implements the error interface
func (e *APIError) Error() string {
	if e.Operation != "" {
		return fmt.Sprintf("[%s] %s: %s", e.Operation, e.Type, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap implements the error unwrapping interface
func (e *APIError) Unwrap() error {
	return e.Err
}

// HTTPStatusCode returns the appropriate HTTP status code for this error
func (e *APIError) HTTPStatusCode() int {
	if e.StatusCode != 0 {
		return e.StatusCode
	}
	switch e.Type {
	case ErrorTypeRateLimit:
		return http.StatusTooManyRequests
	case ErrorTypeInvalidRequest:
		return http.StatusBadRequest
	case ErrorTypeAuthentication:
		return http.StatusUnauthorized
	case ErrorTypeNotFound:
		return http.StatusNotFound
	case ErrorTypeUpstream, ErrorTypeTransport:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// ToJSON converts the error to a JSON-compatible map
func (e *APIError) ToJSON() map[string]interface{} {
	return map[string]interface{}{
		"error": map[string]interface{}{
			"type":    e.Type,
			"message": e.Message,
		},
	}
}

// NewUpstreamError creates a new upstream error (Reddit 5xx)
func NewUpstreamError(operation string, statusCode int, message string, err error) *APIError {
	return &APIError{
		Type:       ErrorTypeUpstream,
		Message:    message,
		StatusCode: statusCode,
		Operation:  operation,
		Err:        err,
	}
}

// NewTransportError wraps a network or decoding failure.
func NewTransportError(operation string, err error) *APIError {
	return &APIError{
		Type:       ErrorTypeTransport,
		Message:    err.Error(),
		StatusCode: http.StatusBadGateway,
		Operation:  operation,
		Err:        err,
	}
}

// NewRateLimitError creates a new rate limit error (429)
func NewRateLimitError(operation string, message string) *APIError {
	return &APIError{
		Type:       ErrorTypeRateLimit,
		Message:    message,
		StatusCode: http.StatusTooManyRequests,
		Operation:  operation,
	}
}

// NewInvalidRequestError creates a new invalid request error (400)
func NewInvalidRequestError(message string, err error) *APIError {
	return NewInvalidRequestErrorWithStatus(http.StatusBadRequest, message, err)
}

// NewInvalidRequestErrorWithStatus creates a new invalid request error with a specific status code
func NewInvalidRequestErrorWithStatus(statusCode int, message string, err error) *APIError {
	return &APIError{
		Type:       ErrorTypeInvalidRequest,
		Message:    message,
		StatusCode: statusCode,
		Err:        err,
	}
}

// NewAuthenticationError creates a new authentication error (401)
func NewAuthenticationError(operation string, message string) *APIError {
	return &APIError{
		Type:       ErrorTypeAuthentication,
		Message:    message,
		StatusCode: http.StatusUnauthorized,
		Operation:  operation,
	}
}

// NewNotFoundError creates a new not found error (404)
func NewNotFoundError(message string) *APIError {
	return &APIError{
		Type:       ErrorTypeNotFound,
		Message:    message,
		StatusCode: http.StatusNotFound,
	}
}

// ParseUpstreamError maps a non-2xx Reddit response to an APIError.
// Reddit error bodies look like {"message": "Forbidden", "error": 403},
// sometimes with a "reason" such as "private" or "banned".
func ParseUpstreamError(operation string, statusCode int, body []byte, originalErr error) *APIError {
	var errorResponse struct {
		Message string `json:"message"`
		Reason  string `json:"reason"`
	}

	message := string(body)
	if err := json.Unmarshal(body, &errorResponse); err == nil && errorResponse.Message != "" {
		message = errorResponse.Message
		if errorResponse.Reason != "" {
			message = fmt.Sprintf("%s (%s)", message, errorResponse.Reason)
		}
	}
	if message == "" {
		message = http.StatusText(statusCode)
	}

	switch {
	case statusCode == http.StatusUnauthorized || statusCode == http.StatusForbidden:
		return NewAuthenticationError(operation, message)
	case statusCode == http.StatusNotFound:
		err := NewNotFoundError(message)
		err.Operation = operation
		return err
	case statusCode == http.StatusTooManyRequests:
		return NewRateLimitError(operation, message)
	case statusCode >= 400 && statusCode < 500:
		err := NewInvalidRequestErrorWithStatus(statusCode, message, originalErr)
		err.Operation = operation
		return err
	case statusCode >= 500:
		return NewUpstreamError(operation, statusCode, message, originalErr)
	default:
		return NewUpstreamError(operation, http.StatusBadGateway, message, originalErr)
	}
}
