package integration

import (
	"net/http"
	"testing"

	"github.com/parleychat/parley/pkg/chat"
)

func TestStreamingChat(t *testing.T) {
	convID := createConversation(t, conversationOpts{})

	frames := streamChat(t, map[string]any{
		"conversationId": convID,
		"content":        "Hello",
	})
	events := decodeStreamEvents(t, frames)
	if len(events) == 0 {
		t.Fatal("no stream events received")
	}

	// The assistant message shell opens the stream.
	if events[0].Type != "response" {
		t.Fatalf("first event type = %q, want response", events[0].Type)
	}
	msg := decodeMessage(t, events[0])
	if msg.Role != chat.RoleAssistant {
		t.Errorf("assistant shell role = %q, want %q", msg.Role, chat.RoleAssistant)
	}
	if msg.ConversationID != convID {
		t.Errorf("assistant shell conversationId = %q, want %q", msg.ConversationID, convID)
	}

	if got := collectDeltas(t, events); got != "Hello, nice day!" {
		t.Errorf("assembled deltas = %q, want %q", got, "Hello, nice day!")
	}

	// An untitled conversation gets a summary event after the exchange.
	summaries := eventsOfType(events, "summary")
	if len(summaries) != 1 {
		t.Fatalf("summary events = %d, want 1", len(summaries))
	}
	var title string
	mustUnmarshal(t, summaries[0].Content, &title)
	if title != "Mock Chat Title" {
		t.Errorf("summary title = %q, want %q", title, "Mock Chat Title")
	}

	// The title is persisted on the conversation.
	resp := getURL(t, testEnv.BaseURL()+"/v1/conversations/"+convID)
	var conv struct {
		Name string `json:"name"`
	}
	decodeJSON(t, resp, &conv)
	if conv.Name != "Mock Chat Title" {
		t.Errorf("persisted conversation name = %q, want %q", conv.Name, "Mock Chat Title")
	}
}

func TestStreamingNamedConversationSkipsSummary(t *testing.T) {
	convID := createConversation(t, conversationOpts{Name: "Counting practice"})

	frames := streamChat(t, map[string]any{
		"conversationId": convID,
		"content":        "Please count from 1 to 5",
	})
	events := decodeStreamEvents(t, frames)

	if got := collectDeltas(t, events); got != "1, 2, 3, 4, 5" {
		t.Errorf("assembled deltas = %q, want %q", got, "1, 2, 3, 4, 5")
	}
	if n := len(eventsOfType(events, "summary")); n != 0 {
		t.Errorf("summary events = %d, want 0 for a named conversation", n)
	}
}

func TestStreamingPersistsMessages(t *testing.T) {
	convID := createConversation(t, conversationOpts{Name: "Persistence check"})

	streamChat(t, map[string]any{
		"conversationId": convID,
		"content":        "Hello",
	})

	resp := getURL(t, testEnv.BaseURL()+"/v1/conversations/"+convID+"/messages")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("listing messages: status %d", resp.StatusCode)
	}
	var messages []chat.Message
	decodeJSON(t, resp, &messages)

	if len(messages) != 2 {
		t.Fatalf("persisted messages = %d, want 2", len(messages))
	}
	if messages[0].Role != chat.RoleUser || messages[0].Content != "Hello" {
		t.Errorf("first message = %q/%q, want user/Hello", messages[0].Role, messages[0].Content)
	}
	if messages[1].Role != chat.RoleAssistant || messages[1].Content != "Hello, nice day!" {
		t.Errorf("second message = %q/%q, want assistant reply", messages[1].Role, messages[1].Content)
	}
	if messages[1].Parent != messages[0].ID {
		t.Errorf("assistant parent = %q, want %q", messages[1].Parent, messages[0].ID)
	}
}

func TestStreamingFollowUpKeepsThread(t *testing.T) {
	convID := createConversation(t, conversationOpts{Name: "Threaded"})

	first := decodeStreamEvents(t, streamChat(t, map[string]any{
		"conversationId": convID,
		"content":        "Hello",
	}))
	assistant := decodeMessage(t, eventsOfType(first, "response")[0])

	second := decodeStreamEvents(t, streamChat(t, map[string]any{
		"conversationId": convID,
		"parent":         assistant.ID,
		"content":        "Please count from 1 to 5",
	}))
	if got := collectDeltas(t, second); got != "1, 2, 3, 4, 5" {
		t.Errorf("follow-up deltas = %q, want %q", got, "1, 2, 3, 4, 5")
	}

	resp := getURL(t, testEnv.BaseURL()+"/v1/conversations/"+convID+"/messages")
	var messages []chat.Message
	decodeJSON(t, resp, &messages)
	if len(messages) != 4 {
		t.Fatalf("persisted messages = %d, want 4", len(messages))
	}
	if messages[2].Parent != assistant.ID {
		t.Errorf("follow-up parent = %q, want %q", messages[2].Parent, assistant.ID)
	}
}
