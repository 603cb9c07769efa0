// Package provider defines the protocol-agnostic interface for LLM inference
// backends. Each adapter implementation (openaicompat, anthropic) handles its
// own backend protocol translation internally. The interface operates on
// Parley's own types (CompletionRequest, Chunk), keeping backend protocol
// details invisible to the engine.
package provider
