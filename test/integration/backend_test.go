package integration

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
)

// startMockBackend creates an httptest server that mimics a streaming Chat
// Completions API with deterministic, content-keyed responses.
func startMockBackend() *httptest.Server {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /v1/chat/completions", handleMockChatCompletions)
	mux.HandleFunc("GET /v1/models", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"object": "list",
			"data": []map[string]any{
				{"id": "mock-model", "object": "model", "owned_by": "test"},
			},
		})
	})
	return httptest.NewServer(mux)
}

type mockChatRequest struct {
	Model    string `json:"model"`
	Messages []struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	} `json:"messages"`
	Tools  []any `json:"tools"`
	Stream bool  `json:"stream"`
}

func (req *mockChatRequest) lastUser() string {
	for i := len(req.Messages) - 1; i >= 0; i-- {
		if req.Messages[i].Role == "user" {
			return req.Messages[i].Content
		}
	}
	return ""
}

func (req *mockChatRequest) hasToolResult() bool {
	for _, msg := range req.Messages {
		if msg.Role == "tool" {
			return true
		}
	}
	return false
}

// handleMockChatCompletions dispatches on trigger words in the newest user
// message. "explode" fails the request outright; "weather" and "delete"
// produce tool calls when tools are offered; a final user turn containing
// "three words" is the title instruction.
func handleMockChatCompletions(w http.ResponseWriter, r *http.Request) {
	var req mockChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":{"message":"invalid request","type":"invalid_request_error"}}`, http.StatusBadRequest)
		return
	}
	if !req.Stream {
		http.Error(w, `{"error":{"message":"only streaming requests are supported","type":"invalid_request_error"}}`, http.StatusBadRequest)
		return
	}

	last := strings.ToLower(req.lastUser())
	if strings.Contains(last, "explode") {
		http.Error(w, `{"error":{"message":"mock backend exploded","type":"server_error"}}`, http.StatusInternalServerError)
		return
	}

	s := newMockStream(w, req.Model)
	if s == nil {
		return
	}

	switch {
	case strings.Contains(last, "three words"):
		s.text("Mock", " Chat", " Title")
	case req.hasToolResult():
		s.text("The", " tool", " said", " its", " piece", ".")
	case len(req.Tools) > 0 && strings.Contains(last, "weather"):
		s.toolCall("call_weather_1", "get_weather", `{"location":"Berlin"}`)
	case len(req.Tools) > 0 && strings.Contains(last, "delete"):
		s.toolCall("call_delete_1", "delete_file", `{"path":"/tmp/report.txt"}`)
	case strings.Contains(last, "count from 1 to 5"):
		s.text("1", ", ", "2", ", ", "3", ", ", "4", ", ", "5")
	default:
		s.text("Hello", ", ", "nice", " ", "day", "!")
	}
	s.done()
}

// mockStream writes Chat Completions SSE chunks.
type mockStream struct {
	w       http.ResponseWriter
	flusher http.Flusher
	model   string
	tokens  int
}

func newMockStream(w http.ResponseWriter, model string) *mockStream {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming not supported", http.StatusInternalServerError)
		return nil
	}
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	if model == "" {
		model = "mock-model"
	}
	return &mockStream{w: w, flusher: flusher, model: model}
}

func (s *mockStream) text(tokens ...string) {
	s.chunk(map[string]any{"role": "assistant"}, nil)
	for _, token := range tokens {
		s.chunk(map[string]any{"content": token}, nil)
		s.tokens++
	}
	s.finish("stop")
}

func (s *mockStream) toolCall(id, name, args string) {
	s.chunk(map[string]any{"role": "assistant"}, nil)
	s.chunk(map[string]any{
		"tool_calls": []any{map[string]any{
			"index": 0,
			"id":    id,
			"type":  "function",
			"function": map[string]any{
				"name": name,
			},
		}},
	}, nil)
	s.chunk(map[string]any{
		"tool_calls": []any{map[string]any{
			"index": 0,
			"function": map[string]any{
				"arguments": args,
			},
		}},
	}, nil)
	s.tokens += 5
	s.finish("tool_calls")
}

func (s *mockStream) finish(reason string) {
	s.chunk(map[string]any{}, &reason)

	// Usage-only chunk, as sent with stream_options.include_usage.
	usage := map[string]any{
		"id":      "chatcmpl-mock-stream",
		"object":  "chat.completion.chunk",
		"model":   s.model,
		"choices": []any{},
		"usage": map[string]any{
			"prompt_tokens":     10,
			"completion_tokens": s.tokens,
			"total_tokens":      10 + s.tokens,
		},
	}
	data, _ := json.Marshal(usage)
	fmt.Fprintf(s.w, "data: %s\n\n", data)
	s.flusher.Flush()
}

func (s *mockStream) chunk(delta map[string]any, finishReason *string) {
	chunk := map[string]any{
		"id":     "chatcmpl-mock-stream",
		"object": "chat.completion.chunk",
		"model":  s.model,
		"choices": []any{map[string]any{
			"index":         0,
			"delta":         delta,
			"finish_reason": finishReason,
		}},
	}
	data, _ := json.Marshal(chunk)
	fmt.Fprintf(s.w, "data: %s\n\n", data)
	s.flusher.Flush()
}

func (s *mockStream) done() {
	fmt.Fprint(s.w, "data: [DONE]\n\n")
	s.flusher.Flush()
}
