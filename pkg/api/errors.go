package api

import (
	"errors"
	"fmt"
)

// ErrorType represents the category of an API error.
type ErrorType string

const (
	ErrorTypeConfigurationMissing ErrorType = "configuration_missing"
	ErrorTypeUpstreamTransport    ErrorType = "upstream_transport"
	ErrorTypeContentExtraction    ErrorType = "content_extraction"
	ErrorTypeEmptyInput           ErrorType = "empty_input"
	ErrorTypeInvalidRequest       ErrorType = "invalid_request"
	ErrorTypeServerError          ErrorType = "server_error"
)

// APIError represents a classified failure with a diagnostic message.
// The message is meant for logs; clients receive a canned reply instead.
type APIError struct {
	Type    ErrorType `json:"type"`
	Code    string    `json:"code,omitempty"`
	Message string    `json:"message"`
}

// Error implements the error interface.
func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("%s: %s (code: %s)", e.Type, e.Message, e.Code)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// ErrEmptyInput is returned when the trimmed user text is empty. It is not a
// failure: callers answer it with [ReplyEmptyInput].
var ErrEmptyInput = &APIError{Type: ErrorTypeEmptyInput, Message: "input text is empty"}

// NewConfigurationError creates an APIError for a missing upstream endpoint
// or credentials.
func NewConfigurationError(message string) *APIError {
	return &APIError{
		Type:    ErrorTypeConfigurationMissing,
		Message: message,
	}
}

// NewUpstreamError creates an APIError for network or protocol failures
// while talking to the model endpoint.
func NewUpstreamError(message string) *APIError {
	return &APIError{
		Type:    ErrorTypeUpstreamTransport,
		Message: message,
	}
}

// NewUpstreamStatusError creates an upstream APIError that records the HTTP
// status returned by the model endpoint.
func NewUpstreamStatusError(status int, message string) *APIError {
	return &APIError{
		Type:    ErrorTypeUpstreamTransport,
		Code:    fmt.Sprintf("http_%d", status),
		Message: message,
	}
}

// NewExtractionError creates an APIError for a well-formed upstream result
// that carries no usable text.
func NewExtractionError(message string) *APIError {
	return &APIError{
		Type:    ErrorTypeContentExtraction,
		Message: message,
	}
}

// NewInvalidRequestError creates an APIError for malformed client requests.
func NewInvalidRequestError(message string) *APIError {
	return &APIError{
		Type:    ErrorTypeInvalidRequest,
		Message: message,
	}
}

// NewServerError creates an APIError for internal server errors.
func NewServerError(message string) *APIError {
	return &APIError{
		Type:    ErrorTypeServerError,
		Message: message,
	}
}

// AsAPIError unwraps err into an *APIError. Errors that carry no
// classification are reported as server errors.
func AsAPIError(err error) *APIError {
	if err == nil {
		return nil
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr
	}
	return NewServerError(err.Error())
}

// IsType reports whether err is an *APIError of the given type.
func IsType(err error, t ErrorType) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Type == t
}
