package provider

import "context"

// Provider abstracts an LLM inference backend. The interface is
// protocol-agnostic: each adapter handles its own backend protocol
// (Chat Completions, Anthropic Messages, etc.) internally and emits
// neutral Chunk values.
//
// Implementations must be safe for concurrent use by multiple goroutines.
type Provider interface {
	// Name returns the provider identifier (e.g., "openai", "anthropic").
	Name() string

	// StreamCompletion performs streaming inference. The returned channel
	// receives Chunk values and is closed by the provider when the stream
	// completes or errors. A terminal ChunkError or ChunkDone always
	// precedes the close.
	StreamCompletion(ctx context.Context, req *CompletionRequest) (<-chan Chunk, error)

	// Close releases provider resources (HTTP clients, connections).
	Close() error
}
