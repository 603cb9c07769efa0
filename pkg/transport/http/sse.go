package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"

	"github.com/parleychat/parley/pkg/chat"
	"github.com/parleychat/parley/pkg/transport"
)

// writerState tracks the state of an SSE stream writer.
type writerState int

const (
	writerIdle      writerState = iota // no writes yet
	writerStreaming                    // WriteEvent has been called at least once
	writerCompleted                    // terminal error sent, no further writes
)

// sseStreamWriter implements transport.StreamWriter over an HTTP response.
// Events are framed as server-sent events and flushed individually so the
// client sees deltas as they arrive.
type sseStreamWriter struct {
	w  http.ResponseWriter
	rc *http.ResponseController

	mu    sync.Mutex
	state writerState
}

var _ transport.StreamWriter = (*sseStreamWriter)(nil)

func newSSEStreamWriter(w http.ResponseWriter) *sseStreamWriter {
	return &sseStreamWriter{
		w:  w,
		rc: http.NewResponseController(w),
	}
}

// WriteEvent sends a single SSE frame:
//
//	data: {json}\n
//	\n
func (s *sseStreamWriter) WriteEvent(ctx context.Context, event chat.StreamEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == writerCompleted {
		return errors.New("cannot write event: stream is completed")
	}

	if s.state == writerIdle {
		s.writeStreamHeaders()
	}

	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshaling event: %w", err)
	}
	if _, err := fmt.Fprintf(s.w, "data: %s\n\n", data); err != nil {
		return fmt.Errorf("writing event: %w", err)
	}
	if err := s.rc.Flush(); err != nil {
		return fmt.Errorf("flushing event: %w", err)
	}

	return nil
}

// WriteError sends a terminal error. If no events have been written yet the
// error goes out as a plain JSON response with the matching status code;
// once streaming has started it is framed as a final SSE error event:
//
//	event: error\n
//	data: {"error":{...}}\n
//	\n
func (s *sseStreamWriter) WriteError(ctx context.Context, chatErr *chat.ChatError) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == writerCompleted {
		return errors.New("cannot write error: stream is completed")
	}

	if s.state == writerIdle {
		s.state = writerCompleted
		transport.WriteChatError(s.w, chatErr)
		return nil
	}

	data, err := json.Marshal(chat.ErrorResponse{Error: chatErr})
	if err != nil {
		return fmt.Errorf("marshaling error event: %w", err)
	}
	if _, err := fmt.Fprintf(s.w, "event: error\ndata: %s\n\n", data); err != nil {
		return fmt.Errorf("writing error event: %w", err)
	}
	if err := s.rc.Flush(); err != nil {
		return fmt.Errorf("flushing error event: %w", err)
	}
	s.state = writerCompleted

	return nil
}

// Flush ensures buffered data is sent to the client.
func (s *sseStreamWriter) Flush() error {
	return s.rc.Flush()
}

func (s *sseStreamWriter) writeStreamHeaders() {
	s.w.Header().Set("Content-Type", "text/event-stream")
	s.w.Header().Set("Cache-Control", "no-cache")
	s.w.Header().Set("Connection", "keep-alive")
	s.state = writerStreaming
}
