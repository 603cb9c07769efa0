package transport

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/parleychat/parley/pkg/chat"
)

// HTTPStatusFromError maps a ChatError type to the corresponding HTTP
// status code. Transport-level errors (body too large, unsupported content
// type) are handled separately by the HTTP adapter.
func HTTPStatusFromError(err *chat.ChatError) int {
	switch err.Type {
	case chat.ErrorTypeInvalidRequest:
		return http.StatusBadRequest
	case chat.ErrorTypeNotFound:
		return http.StatusNotFound
	case chat.ErrorTypeTooManyRequests:
		return http.StatusTooManyRequests
	case chat.ErrorTypeServerError, chat.ErrorTypeModelError:
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}

// WriteErrorResponse writes a JSON error response using the ErrorResponse
// wrapper from pkg/chat. It sets the Content-Type header and writes the
// HTTP status code.
func WriteErrorResponse(w http.ResponseWriter, chatErr *chat.ChatError, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(chat.ErrorResponse{Error: chatErr})
}

// WriteChatError writes a ChatError response, deriving the HTTP status
// code from the error type.
func WriteChatError(w http.ResponseWriter, chatErr *chat.ChatError) {
	WriteErrorResponse(w, chatErr, HTTPStatusFromError(chatErr))
}

// AsChatError coerces any error into a ChatError, wrapping unknown errors
// as server errors.
func AsChatError(err error) *chat.ChatError {
	var chatErr *chat.ChatError
	if errors.As(err, &chatErr) {
		return chatErr
	}
	return chat.NewServerError(err.Error())
}
