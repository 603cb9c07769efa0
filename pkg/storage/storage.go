package storage

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/parleychat/parley/pkg/chat"
)

// Conversation is the durable record of a chat thread and the assistant
// settings governing it. The assistant settings are denormalized onto the
// conversation so an exchange can run without a second lookup.
type Conversation struct {
	ID          string
	OwnerID     string
	AssistantID string

	// Name is the conversation title. Empty until the summarizer runs.
	Name string

	// SystemPrompt, Model, Temperature and TokenLimit govern inference.
	// TokenLimit 0 means the newest message alone is sent.
	SystemPrompt string
	Model        string
	Temperature  *float64
	TokenLimit   int

	// Tools lists the enabled function names for this conversation.
	Tools []string

	// ProviderKind, Endpoint and APIKey select and authenticate the
	// inference backend.
	ProviderKind string
	Endpoint     string
	APIKey       string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Audit record types.
const (
	AuditTypeUser      = "user"
	AuditTypeAssistant = "assistant"
)

// AuditEntry records one side of a completed exchange for accounting.
type AuditEntry struct {
	ID               uuid.UUID
	MessageID        string
	ConversationID   string
	UserID           string
	AssistantID      string
	Type             string
	Model            string
	PromptTokens     int
	CompletionTokens int
	SentAt           time.Time
	Errors           string
}

// ConversationStore persists conversations.
type ConversationStore interface {
	// CreateConversation stores a new conversation. Returns ErrConflict
	// if the ID already exists.
	CreateConversation(ctx context.Context, conv *Conversation) error

	// GetConversation retrieves a conversation by ID. Returns ErrNotFound
	// if it does not exist.
	GetConversation(ctx context.Context, id string) (*Conversation, error)

	// SetConversationName updates the conversation title. Returns
	// ErrNotFound if the conversation does not exist.
	SetConversationName(ctx context.Context, id, name string) error
}

// MessageStore persists the message tree of each conversation.
type MessageStore interface {
	// SaveMessage stores a new message. Returns ErrConflict if the ID
	// already exists.
	SaveMessage(ctx context.Context, msg *chat.Message) error

	// UpdateMessage replaces a stored message, used to attach a
	// confirmation verdict. Returns ErrNotFound if the ID is unknown.
	UpdateMessage(ctx context.Context, msg *chat.Message) error

	// GetMessage retrieves a message by ID. Returns ErrNotFound if it
	// does not exist.
	GetMessage(ctx context.Context, id string) (*chat.Message, error)

	// ListMessages returns all messages of a conversation ordered by
	// SentAt ascending.
	ListMessages(ctx context.Context, conversationID string) ([]chat.Message, error)
}

// AuditLog records completed exchanges.
type AuditLog interface {
	// RecordInteraction appends an audit entry.
	RecordInteraction(ctx context.Context, entry *AuditEntry) error
}

// Store is the full persistence contract the server operates against.
type Store interface {
	ConversationStore
	MessageStore
	AuditLog

	// Close releases storage resources.
	Close() error
}
