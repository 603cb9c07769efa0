package tools

import (
	"context"
	"encoding/json"

	"github.com/parleychat/parley/pkg/chat"
)

// Invocation carries the context a function implementation may need beyond
// its arguments.
type Invocation struct {
	// Args holds the parsed JSON arguments from the model.
	Args map[string]any

	// History is the linear conversation history leading to this call,
	// oldest first. Functions that operate on the conversation itself
	// (e.g., retrieval over earlier turns) read it; most ignore it.
	History []chat.Message

	// AssistantMessageID identifies the in-flight assistant message the
	// call originated from.
	AssistantMessageID string
}

// Function is a server-side tool offered to the model.
type Function struct {
	// Name is the function name the model calls.
	Name string

	// Description tells the model what the function does.
	Description string

	// Parameters is the JSON Schema for the function arguments.
	Parameters json.RawMessage

	// RequireConfirm marks functions that must not run without explicit
	// user approval.
	RequireConfirm bool

	// Invoke runs the function and returns its output as text. An error
	// return aborts the exchange; recoverable tool failures should be
	// reported in the output text instead, so the model can react.
	Invoke func(ctx context.Context, inv Invocation) (string, error)
}
