package chat

import "time"

// Role identifies the author of a conversation message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleTool      Role = "tool"
)

// Attachment describes a file uploaded alongside a user message. The engine
// never reads attachment bodies; it only counts them for summarization.
type Attachment struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Mimetype string `json:"mimetype,omitempty"`
	Size     int64  `json:"size,omitempty"`
}

// ToolCall records a tool invocation requested by the assistant. ToolArgs
// holds the parsed JSON arguments; ToolCallID links the eventual result
// message back to this call.
type ToolCall struct {
	ToolCallID string         `json:"toolCallId"`
	ToolName   string         `json:"toolName"`
	ToolArgs   map[string]any `json:"toolArgs"`
}

// ConfirmRequest is a tool invocation frozen on an assistant message until
// the user approves or denies it. The conversation cannot continue past a
// pending confirmation until a ConfirmResponse arrives.
type ConfirmRequest struct {
	ToolCallID string         `json:"toolCallId"`
	ToolName   string         `json:"toolName"`
	ToolArgs   map[string]any `json:"toolArgs"`
}

// ConfirmResponse is the user's verdict on a pending ConfirmRequest.
type ConfirmResponse struct {
	Allow bool `json:"allow"`
}

// Message is a single turn in a conversation. Messages form a tree: Parent
// points at the message this one replies to, and an empty Parent marks a
// conversation root. Branches arise when a user edits an earlier message.
type Message struct {
	ID              string           `json:"id"`
	ConversationID  string           `json:"conversationId"`
	Parent          string           `json:"parent,omitempty"`
	Role            Role             `json:"role"`
	Content         string           `json:"content"`
	Attachments     []Attachment     `json:"attachments,omitempty"`
	SentAt          time.Time        `json:"sentAt"`
	ToolCall        *ToolCall        `json:"toolCall,omitempty"`
	ToolCallID      string           `json:"toolCallId,omitempty"`
	ConfirmRequest  *ConfirmRequest  `json:"confirmRequest,omitempty"`
	ConfirmResponse *ConfirmResponse `json:"confirmResponse,omitempty"`
}

// IsRoot reports whether the message starts a conversation tree.
func (m *Message) IsRoot() bool {
	return m.Parent == ""
}

// NewAssistantMessage creates an empty assistant reply to the given parent
// message. The caller fills in Content as deltas arrive.
func NewAssistantMessage(conversationID, parent string) Message {
	return Message{
		ID:             NewMessageID(),
		ConversationID: conversationID,
		Parent:         parent,
		Role:           RoleAssistant,
		SentAt:         time.Now().UTC(),
	}
}

// NewToolMessage creates a tool result message carrying the output of the
// tool call identified by toolCallID.
func NewToolMessage(conversationID, parent, toolCallID, output string) Message {
	return Message{
		ID:             NewMessageID(),
		ConversationID: conversationID,
		Parent:         parent,
		Role:           RoleTool,
		Content:        output,
		ToolCallID:     toolCallID,
		SentAt:         time.Now().UTC(),
	}
}
