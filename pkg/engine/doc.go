// Package engine orchestrates streaming chat exchanges. It reconstructs
// the conversation branch leading to a user message, bounds it to the
// conversation's token budget, drives a streaming completion against the
// configured provider, runs the tool loop (including the confirmation
// round trip for confirm-gated tools), and persists and audits the
// resulting assistant message exactly once regardless of how the stream
// terminates.
package engine
