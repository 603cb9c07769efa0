// Package openaicompat implements provider.Provider for OpenAI-compatible
// Chat Completions backends (OpenAI, Together AI, Groq, Ollama, LocalAI, and
// any other endpoint speaking the same wire protocol).
//
// The adapter translates neutral CompletionRequest values to the Chat
// Completions format, parses the SSE response stream, and emits neutral
// provider.Chunk values. Tool call deltas are forwarded incrementally so the
// engine can accumulate argument text as it arrives.
package openaicompat
