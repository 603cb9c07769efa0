package provider

import "encoding/json"

// CompletionRequest is the backend-facing request. It contains only the
// information the provider needs, stripped of transport and storage concerns.
type CompletionRequest struct {
	Model        string
	SystemPrompt string
	Messages     []Message
	Tools        []ToolDefinition
	Temperature  *float64
	MaxTokens    *int
}

// Message represents a single turn in the provider's conversation format.
// Assistant turns that invoked tools carry ToolCalls; tool result turns
// carry the ToolCallID they answer.
type Message struct {
	Role       string
	Content    string
	ToolCalls  []ToolCall
	ToolCallID string
}

// Conversation roles understood by all adapters.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleTool      = "tool"
)

// ToolCall is a completed tool invocation recorded on an assistant turn.
type ToolCall struct {
	ID        string
	Name      string
	Arguments map[string]any
}

// ToolDefinition describes a tool offered to the model. Parameters holds
// the raw JSON Schema for the tool's arguments.
type ToolDefinition struct {
	Name        string
	Description string
	Parameters  json.RawMessage
}

// Usage reports token consumption for a completed stream.
type Usage struct {
	PromptTokens     int
	CompletionTokens int
}

// ChunkType classifies a streaming event from the backend.
type ChunkType int

const (
	ChunkTextDelta     ChunkType = iota // Incremental text content
	ChunkToolCallBegin                  // Tool call announced (name and call ID)
	ChunkToolArgsDelta                  // Incremental tool argument JSON text
	ChunkToolArgs                       // Complete structured tool arguments
	ChunkDone                           // Stream finished
	ChunkError                          // Stream error
)

// Chunk is a single streaming event from the backend. Exactly one of the
// payload fields is meaningful for a given Type.
type Chunk struct {
	// Type indicates what kind of event this is.
	Type ChunkType

	// Delta contains incremental text or argument data.
	Delta string

	// ToolCallID is the identifier for the tool call.
	ToolCallID string

	// ToolName is the function name (populated on ChunkToolCallBegin).
	ToolName string

	// ToolArgs holds complete structured arguments (ChunkToolArgs only).
	ToolArgs map[string]any

	// Usage is populated on the final ChunkDone event when the backend
	// reports token counts.
	Usage *Usage

	// Err is populated if the stream encountered an error.
	Err error
}
