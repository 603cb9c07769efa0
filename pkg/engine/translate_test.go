package engine

import (
	"testing"

	"github.com/parleychat/parley/pkg/chat"
	"github.com/parleychat/parley/pkg/provider"
)

func TestTranslateHistoryBasicTurns(t *testing.T) {
	history := []chat.Message{
		{ID: "m1", Role: chat.RoleUser, Content: "hi"},
		{ID: "m2", Role: chat.RoleAssistant, Content: "hello"},
		{ID: "m3", Role: chat.RoleUser, Content: "what now"},
	}

	got := translateHistory(history)

	want := []provider.Message{
		{Role: provider.RoleUser, Content: "hi"},
		{Role: provider.RoleAssistant, Content: "hello"},
		{Role: provider.RoleUser, Content: "what now"},
	}
	if len(got) != len(want) {
		t.Fatalf("len = %d, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i].Role != want[i].Role || got[i].Content != want[i].Content {
			t.Errorf("turn %d = %+v, want %+v", i, got[i], want[i])
		}
	}
}

func TestTranslateHistoryConfirmFlow(t *testing.T) {
	history := []chat.Message{
		{ID: "m1", Role: chat.RoleUser, Content: "delete it"},
		{ID: "m2", Role: chat.RoleAssistant, ConfirmRequest: &chat.ConfirmRequest{
			ToolCallID: "call_1",
			ToolName:   "deleteFile",
			ToolArgs:   map[string]any{"path": "/tmp/x"},
		}},
		{ID: "m3", Role: chat.RoleUser, ConfirmResponse: &chat.ConfirmResponse{Allow: true}},
		{ID: "m4", Role: chat.RoleTool, Content: "deleted", ToolCallID: "call_1"},
	}

	got := translateHistory(history)

	// The bare verdict message is plumbing and must not reach the model.
	if len(got) != 3 {
		t.Fatalf("len = %d, want 3", len(got))
	}

	assistant := got[1]
	if len(assistant.ToolCalls) != 1 {
		t.Fatalf("assistant.ToolCalls = %v, want one call", assistant.ToolCalls)
	}
	if assistant.ToolCalls[0].ID != "call_1" || assistant.ToolCalls[0].Name != "deleteFile" {
		t.Errorf("tool call = %+v", assistant.ToolCalls[0])
	}

	result := got[2]
	if result.Role != provider.RoleTool || result.ToolCallID != "call_1" || result.Content != "deleted" {
		t.Errorf("tool result = %+v", result)
	}
}

func TestTranslateHistoryRecordedToolCall(t *testing.T) {
	history := []chat.Message{
		{ID: "m1", Role: chat.RoleAssistant, ToolCall: &chat.ToolCall{
			ToolCallID: "call_2",
			ToolName:   "timeOfDay",
			ToolArgs:   map[string]any{},
		}},
	}

	got := translateHistory(history)
	if len(got) != 1 || len(got[0].ToolCalls) != 1 || got[0].ToolCalls[0].Name != "timeOfDay" {
		t.Fatalf("got %+v, want assistant turn with timeOfDay call", got)
	}
}

func TestReverseMessages(t *testing.T) {
	in := []chat.Message{{ID: "a"}, {ID: "b"}, {ID: "c"}}
	got := reverseMessages(in)

	if got[0].ID != "c" || got[1].ID != "b" || got[2].ID != "a" {
		t.Errorf("reversed = %v", got)
	}
	if in[0].ID != "a" {
		t.Error("input slice must not be mutated")
	}
}
