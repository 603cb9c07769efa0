// Package anthropic implements provider.Provider for the Anthropic Messages
// API using the official Go SDK.
//
// The adapter translates neutral CompletionRequest values to Messages API
// parameters, consumes the SDK's event stream, and emits neutral
// provider.Chunk values. Anthropic streams tool arguments as partial JSON
// deltas, which map directly to ChunkToolArgsDelta.
package anthropic
