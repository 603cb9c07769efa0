package transport

import (
	"context"

	"github.com/parleychat/parley/pkg/chat"
	"github.com/parleychat/parley/pkg/storage"
)

// StreamWriter abstracts the outward event stream of one exchange. The
// transport layer creates a StreamWriter per request and hands it to the
// exchange handler.
//
// Events are delivered in call order, at most once each. A WriteEvent error
// means the client is gone; the caller must stop emitting but still finish
// its persistence work. WriteError emits a terminal error frame and no
// further events may follow it.
type StreamWriter interface {
	// WriteEvent sends a single streaming event.
	WriteEvent(ctx context.Context, event chat.StreamEvent) error

	// WriteError sends a terminal error frame. After WriteError the
	// writer accepts no further events.
	WriteError(ctx context.Context, chatErr *chat.ChatError) error

	// Flush ensures buffered data is sent to the client.
	Flush() error
}

// Exchanger runs chat exchanges. It is the contract between the HTTP
// handlers and the orchestration engine.
type Exchanger interface {
	// SendMessage runs a full exchange for a new user message: budgeted
	// history, streaming completion, tool loop, persistence and audit.
	SendMessage(ctx context.Context, conv *storage.Conversation, userMsg *chat.Message, w StreamWriter) error

	// ResumeConfirm resumes an exchange suspended on a tool confirmation.
	// The user message carries the allow/deny verdict and references the
	// assistant message holding the pending ConfirmRequest.
	ResumeConfirm(ctx context.Context, conv *storage.Conversation, userMsg *chat.Message, w StreamWriter) error
}
