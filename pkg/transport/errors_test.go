package transport

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http/httptest"
	"testing"

	"github.com/parleychat/parley/pkg/chat"
)

func TestHTTPStatusFromError(t *testing.T) {
	tests := []struct {
		name string
		err  *chat.ChatError
		want int
	}{
		{"invalid request", chat.NewInvalidRequestError("content", "missing"), 400},
		{"not found", chat.NewNotFoundError("no such conversation"), 404},
		{"too many requests", chat.NewTooManyRequestsError("slow down"), 429},
		{"server error", chat.NewServerError("boom"), 500},
		{"model error", chat.NewModelError("upstream failed"), 500},
		{"unknown type", &chat.ChatError{Type: "mystery"}, 500},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := HTTPStatusFromError(tt.err); got != tt.want {
				t.Errorf("HTTPStatusFromError() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestWriteChatError(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteChatError(rec, chat.NewNotFoundError("conversation not found"))

	if rec.Code != 404 {
		t.Errorf("status = %d, want 404", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q, want application/json", ct)
	}

	var resp chat.ErrorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal body: %v", err)
	}
	if resp.Error == nil || resp.Error.Type != chat.ErrorTypeNotFound {
		t.Errorf("error = %+v, want not_found", resp.Error)
	}
	if resp.Error.Message != "conversation not found" {
		t.Errorf("message = %q", resp.Error.Message)
	}
}

func TestAsChatError(t *testing.T) {
	orig := chat.NewModelError("bad model")
	if got := AsChatError(fmt.Errorf("wrapping: %w", orig)); got != orig {
		t.Errorf("AsChatError did not unwrap, got %+v", got)
	}

	got := AsChatError(errors.New("plain failure"))
	if got.Type != chat.ErrorTypeServerError {
		t.Errorf("type = %q, want server_error", got.Type)
	}
	if got.Message != "plain failure" {
		t.Errorf("message = %q", got.Message)
	}
}
