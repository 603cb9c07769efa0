// Package transport defines the contracts and middleware between the HTTP
// layer and the chat orchestration engine.
//
// The transport layer deserializes incoming chat triggers into pkg/chat
// messages, dispatches them to an Exchanger, and serializes the resulting
// event stream back to the client as server-sent events.
//
// # Contracts
//
//   - Exchanger runs exchanges: a full send for a new user message, or a
//     confirmation re-entry answering a pending tool approval.
//   - StreamWriter abstracts the ordered, at-most-once outward event
//     stream of one exchange.
//
// # Middleware
//
// Middleware here is plain net/http middleware: panic recovery, request ID
// assignment (X-Request-ID), structured logging via log/slog, and an
// authentication hook that resolves the calling user. Session verification
// itself lives outside this module; the hook only consumes its result.
package transport
