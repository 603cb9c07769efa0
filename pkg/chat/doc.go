// Package chat defines the core conversation types for the Parley chat
// backend.
//
// This package provides the data types shared by the engine, storage, and
// transport layers: messages forming a parent-linked conversation tree,
// tool confirmation requests and responses, streaming events, error types,
// and ID generation.
//
// The package has zero external dependencies (Go standard library only) and
// performs no I/O. All types produce JSON compatible with the wire format
// consumed by Parley clients.
//
// Core types:
//   - [Message]: Unit of conversation (user, assistant, or tool turn) with a
//     parent pointer into the conversation tree
//   - [ConfirmRequest]: Frozen tool invocation awaiting user approval
//   - [StreamEvent]: Server-sent event for streaming responses
//   - [ChatError]: Structured error with type, code, and message
package chat
