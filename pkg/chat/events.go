package chat

// StreamEventType identifies the type of a streaming event sent to clients.
type StreamEventType string

const (
	// EventResponse carries a complete Message, sent once at stream start
	// for each assistant or tool message the exchange produces.
	EventResponse StreamEventType = "response"
	// EventDelta carries an incremental text fragment of the assistant reply.
	EventDelta StreamEventType = "delta"
	// EventConfirmRequest carries a ConfirmRequest when a tool call needs
	// user approval before execution.
	EventConfirmRequest StreamEventType = "confirmRequest"
	// EventSummary carries an auto-generated conversation title.
	EventSummary StreamEventType = "summary"
)

// StreamEvent is a single server-sent event in a streaming chat exchange.
// Content depends on Type: a Message for "response", a string for "delta"
// and "summary", and a ConfirmRequest for "confirmRequest".
type StreamEvent struct {
	Type    StreamEventType `json:"type"`
	Content any             `json:"content"`
}

// ResponseEvent wraps a complete message as a stream event.
func ResponseEvent(msg Message) StreamEvent {
	return StreamEvent{Type: EventResponse, Content: msg}
}

// DeltaEvent wraps an incremental text fragment as a stream event.
func DeltaEvent(delta string) StreamEvent {
	return StreamEvent{Type: EventDelta, Content: delta}
}

// ConfirmRequestEvent wraps a pending tool confirmation as a stream event.
func ConfirmRequestEvent(req ConfirmRequest) StreamEvent {
	return StreamEvent{Type: EventConfirmRequest, Content: req}
}

// SummaryEvent wraps an auto-generated conversation title as a stream event.
func SummaryEvent(title string) StreamEvent {
	return StreamEvent{Type: EventSummary, Content: title}
}
