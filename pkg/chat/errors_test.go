package chat

import (
	"encoding/json"
	"testing"
)

func TestChatErrorError(t *testing.T) {
	tests := []struct {
		name string
		err  *ChatError
		want string
	}{
		{
			name: "with param",
			err:  NewInvalidRequestError("conversationId", "is required"),
			want: "invalid_request: is required (param: conversationId)",
		},
		{
			name: "without param",
			err:  NewServerError("boom"),
			want: "server_error: boom",
		},
		{
			name: "model error",
			err:  NewModelError("upstream timeout"),
			want: "model_error: upstream timeout",
		},
		{
			name: "not found",
			err:  NewNotFoundError("conversation not found"),
			want: "not_found: conversation not found",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("Error() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestErrorResponseJSON(t *testing.T) {
	resp := ErrorResponse{Error: NewTooManyRequestsError("slow down")}
	data, err := json.Marshal(resp)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	want := `{"error":{"type":"too_many_requests","message":"slow down"}}`
	if string(data) != want {
		t.Errorf("Marshal() = %s, want %s", data, want)
	}
}
