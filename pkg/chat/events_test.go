package chat

import (
	"encoding/json"
	"strings"
	"testing"
	"time"
)

func TestDeltaEventJSON(t *testing.T) {
	data, err := json.Marshal(DeltaEvent("Hello "))
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	want := `{"type":"delta","content":"Hello "}`
	if string(data) != want {
		t.Errorf("Marshal() = %s, want %s", data, want)
	}
}

func TestSummaryEventJSON(t *testing.T) {
	data, err := json.Marshal(SummaryEvent("Trip Planning Help"))
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	want := `{"type":"summary","content":"Trip Planning Help"}`
	if string(data) != want {
		t.Errorf("Marshal() = %s, want %s", data, want)
	}
}

func TestConfirmRequestEventJSON(t *testing.T) {
	ev := ConfirmRequestEvent(ConfirmRequest{
		ToolCallID: "call_1",
		ToolName:   "deleteFile",
		ToolArgs:   map[string]any{"path": "/tmp/x"},
	})
	data, err := json.Marshal(ev)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	for _, fragment := range []string{
		`"type":"confirmRequest"`,
		`"toolCallId":"call_1"`,
		`"toolName":"deleteFile"`,
		`"path":"/tmp/x"`,
	} {
		if !strings.Contains(string(data), fragment) {
			t.Errorf("Marshal() = %s, missing %s", data, fragment)
		}
	}
}

func TestResponseEventJSON(t *testing.T) {
	msg := Message{
		ID:             "msg_abcdefghijklmnopqrstuvwx",
		ConversationID: "conv_abcdefghijklmnopqrstuvwx",
		Parent:         "msg_000000000000000000000000",
		Role:           RoleAssistant,
		Content:        "done",
		SentAt:         time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
	}
	data, err := json.Marshal(ResponseEvent(msg))
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	var decoded struct {
		Type    StreamEventType `json:"type"`
		Content Message         `json:"content"`
	}
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if decoded.Type != EventResponse {
		t.Errorf("Type = %q, want %q", decoded.Type, EventResponse)
	}
	if decoded.Content.ID != msg.ID || decoded.Content.Content != msg.Content {
		t.Errorf("Content = %+v, want %+v", decoded.Content, msg)
	}
	if !strings.Contains(string(data), `"conversationId"`) {
		t.Errorf("Marshal() = %s, missing camelCase conversationId field", data)
	}
}

func TestMessageOmitsEmptyOptionalFields(t *testing.T) {
	data, err := json.Marshal(Message{
		ID:             "msg_abcdefghijklmnopqrstuvwx",
		ConversationID: "conv_abcdefghijklmnopqrstuvwx",
		Role:           RoleUser,
		Content:        "hi",
		SentAt:         time.Now().UTC(),
	})
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	for _, field := range []string{"parent", "toolCall", "toolCallId", "confirmRequest", "confirmResponse", "attachments"} {
		if strings.Contains(string(data), `"`+field+`"`) {
			t.Errorf("Marshal() = %s, should omit empty %s", data, field)
		}
	}
}
