package openaicompat

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/parleychat/parley/pkg/chat"
)

// mapHTTPError converts an HTTP response with a non-2xx status code into
// a ChatError. It attempts to parse the response body as a chatErrorResponse
// to extract a descriptive message.
func mapHTTPError(resp *http.Response) *chat.ChatError {
	message := extractErrorMessage(resp.Body)

	switch {
	case resp.StatusCode == http.StatusBadRequest:
		if message == "" {
			message = "invalid request to backend"
		}
		return chat.NewInvalidRequestError("", message)

	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		if message == "" {
			message = "backend authentication failed"
		}
		return chat.NewServerError(message)

	case resp.StatusCode == http.StatusNotFound:
		if message == "" {
			message = "backend resource not found"
		}
		return chat.NewNotFoundError(message)

	case resp.StatusCode == http.StatusTooManyRequests:
		if message == "" {
			message = "backend rate limit exceeded"
		}
		return chat.NewTooManyRequestsError(message)

	case resp.StatusCode >= http.StatusInternalServerError:
		if message == "" {
			message = fmt.Sprintf("backend server error (HTTP %d)", resp.StatusCode)
		}
		return chat.NewModelError(message)

	default:
		if message == "" {
			message = fmt.Sprintf("unexpected backend error (HTTP %d)", resp.StatusCode)
		}
		return chat.NewServerError(message)
	}
}

// mapNetworkError converts a network-level error (connection refused, timeout,
// DNS resolution failure) into a ChatError with a descriptive message.
func mapNetworkError(err error) *chat.ChatError {
	return chat.NewServerError(fmt.Sprintf("backend connection error: %s", err.Error()))
}

// extractErrorMessage tries to parse the response body as a chatErrorResponse
// and returns the error message if found.
func extractErrorMessage(body io.Reader) string {
	if body == nil {
		return ""
	}

	data, err := io.ReadAll(io.LimitReader(body, 4096))
	if err != nil || len(data) == 0 {
		return ""
	}

	var errResp chatErrorResponse
	if err := json.Unmarshal(data, &errResp); err == nil && errResp.Error.Message != "" {
		return errResp.Error.Message
	}

	return ""
}
