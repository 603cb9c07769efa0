package http

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/parleychat/parley/pkg/chat"
)

func TestWriteEventSSEFormat(t *testing.T) {
	rec := httptest.NewRecorder()
	sw := newSSEStreamWriter(rec)

	if err := sw.WriteEvent(context.Background(), chat.DeltaEvent("Hello")); err != nil {
		t.Fatalf("WriteEvent: %v", err)
	}
	if err := sw.WriteEvent(context.Background(), chat.DeltaEvent(" world")); err != nil {
		t.Fatalf("WriteEvent: %v", err)
	}

	if ct := rec.Header().Get("Content-Type"); ct != "text/event-stream" {
		t.Errorf("Content-Type = %q, want text/event-stream", ct)
	}
	if cc := rec.Header().Get("Cache-Control"); cc != "no-cache" {
		t.Errorf("Cache-Control = %q, want no-cache", cc)
	}

	frames := strings.Split(strings.TrimSuffix(rec.Body.String(), "\n\n"), "\n\n")
	if len(frames) != 2 {
		t.Fatalf("got %d frames, want 2: %q", len(frames), rec.Body.String())
	}
	for i, frame := range frames {
		if !strings.HasPrefix(frame, "data: ") {
			t.Fatalf("frame %d does not start with data prefix: %q", i, frame)
		}
		var event chat.StreamEvent
		if err := json.Unmarshal([]byte(strings.TrimPrefix(frame, "data: ")), &event); err != nil {
			t.Fatalf("frame %d is not JSON: %v", i, err)
		}
		if event.Type != chat.EventDelta {
			t.Errorf("frame %d type = %q, want delta", i, event.Type)
		}
	}
}

func TestWriteErrorBeforeStreamingIsPlainJSON(t *testing.T) {
	rec := httptest.NewRecorder()
	sw := newSSEStreamWriter(rec)

	if err := sw.WriteError(context.Background(), chat.NewNotFoundError("conversation not found")); err != nil {
		t.Fatalf("WriteError: %v", err)
	}

	if rec.Code != 404 {
		t.Errorf("status = %d, want 404", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q, want application/json", ct)
	}
	var resp chat.ErrorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal body: %v", err)
	}
	if resp.Error == nil || resp.Error.Type != chat.ErrorTypeNotFound {
		t.Errorf("error = %+v, want not_found", resp.Error)
	}
}

func TestWriteErrorMidStreamIsErrorFrame(t *testing.T) {
	rec := httptest.NewRecorder()
	sw := newSSEStreamWriter(rec)

	if err := sw.WriteEvent(context.Background(), chat.DeltaEvent("partial")); err != nil {
		t.Fatalf("WriteEvent: %v", err)
	}
	if err := sw.WriteError(context.Background(), chat.NewModelError("upstream failed")); err != nil {
		t.Fatalf("WriteError: %v", err)
	}

	// Streaming status stays 200; the error travels in-band.
	if rec.Code != 200 {
		t.Errorf("status = %d, want 200", rec.Code)
	}
	body := rec.Body.String()
	if !strings.Contains(body, "event: error\n") {
		t.Errorf("body is missing error frame: %q", body)
	}

	idx := strings.Index(body, "event: error\ndata: ")
	if idx < 0 {
		t.Fatalf("no error data line in %q", body)
	}
	payload := body[idx+len("event: error\ndata: "):]
	payload = strings.TrimSuffix(payload, "\n\n")
	var resp chat.ErrorResponse
	if err := json.Unmarshal([]byte(payload), &resp); err != nil {
		t.Fatalf("error payload is not JSON: %v", err)
	}
	if resp.Error == nil || resp.Error.Type != chat.ErrorTypeModelError {
		t.Errorf("error = %+v, want model_error", resp.Error)
	}
}

func TestWriteAfterErrorFails(t *testing.T) {
	rec := httptest.NewRecorder()
	sw := newSSEStreamWriter(rec)

	if err := sw.WriteEvent(context.Background(), chat.DeltaEvent("x")); err != nil {
		t.Fatalf("WriteEvent: %v", err)
	}
	if err := sw.WriteError(context.Background(), chat.NewServerError("boom")); err != nil {
		t.Fatalf("WriteError: %v", err)
	}

	if err := sw.WriteEvent(context.Background(), chat.DeltaEvent("late")); err == nil {
		t.Error("WriteEvent after WriteError should fail")
	}
	if err := sw.WriteError(context.Background(), chat.NewServerError("again")); err == nil {
		t.Error("second WriteError should fail")
	}
}
