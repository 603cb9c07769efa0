package chat

import "fmt"

// ErrorType represents the category of a chat error.
type ErrorType string

const (
	ErrorTypeServerError     ErrorType = "server_error"
	ErrorTypeInvalidRequest  ErrorType = "invalid_request"
	ErrorTypeNotFound        ErrorType = "not_found"
	ErrorTypeModelError      ErrorType = "model_error"
	ErrorTypeTooManyRequests ErrorType = "too_many_requests"
)

// ChatError represents a structured error with type, code, and message.
type ChatError struct {
	Type    ErrorType `json:"type"`
	Code    string    `json:"code,omitempty"`
	Param   string    `json:"param,omitempty"`
	Message string    `json:"message"`
}

// Error implements the error interface.
func (e *ChatError) Error() string {
	if e.Param != "" {
		return fmt.Sprintf("%s: %s (param: %s)", e.Type, e.Message, e.Param)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// ErrorResponse wraps a ChatError for JSON serialization as the top-level
// error payload.
type ErrorResponse struct {
	Error *ChatError `json:"error"`
}

// NewInvalidRequestError creates a ChatError for invalid request parameters.
func NewInvalidRequestError(param, message string) *ChatError {
	return &ChatError{
		Type:    ErrorTypeInvalidRequest,
		Param:   param,
		Message: message,
	}
}

// NewNotFoundError creates a ChatError for resources that cannot be found.
func NewNotFoundError(message string) *ChatError {
	return &ChatError{
		Type:    ErrorTypeNotFound,
		Message: message,
	}
}

// NewServerError creates a ChatError for internal server errors.
func NewServerError(message string) *ChatError {
	return &ChatError{
		Type:    ErrorTypeServerError,
		Message: message,
	}
}

// NewModelError creates a ChatError for upstream model failures.
func NewModelError(message string) *ChatError {
	return &ChatError{
		Type:    ErrorTypeModelError,
		Message: message,
	}
}

// NewTooManyRequestsError creates a ChatError for rate limiting.
func NewTooManyRequestsError(message string) *ChatError {
	return &ChatError{
		Type:    ErrorTypeTooManyRequests,
		Message: message,
	}
}
