// Command mock-backend runs a deterministic Chat Completions server for
// local development and conformance testing. It streams predictable
// responses based on request content so exchanges, tool calls, and title
// summarization can be exercised without a real inference backend.
//
// Configuration:
//
//	MOCK_PORT - Listen port (default: 9090)
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"
)

func main() {
	port := os.Getenv("MOCK_PORT")
	if port == "" {
		port = "9090"
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /v1/chat/completions", handleChatCompletions)
	mux.HandleFunc("GET /v1/models", handleModels)
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok\n"))
	})

	srv := &http.Server{Addr: ":" + port, Handler: mux}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		slog.Info("mock backend starting", "port", port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("mock backend failed", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	slog.Info("mock backend shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	srv.Shutdown(shutdownCtx)
}

// --- Request types ---

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
	Tools    []any         `json:"tools,omitempty"`
	Stream   bool          `json:"stream"`
}

type chatMessage struct {
	Role       string `json:"role"`
	Content    string `json:"content"`
	ToolCallID string `json:"tool_call_id,omitempty"`
}

// --- Handler ---

func handleChatCompletions(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":{"message":"invalid request","type":"invalid_request_error"}}`, http.StatusBadRequest)
		return
	}

	if !req.Stream {
		http.Error(w, `{"error":{"message":"only streaming requests are supported","type":"invalid_request_error"}}`, http.StatusBadRequest)
		return
	}

	s := newStreamer(w, req.Model)
	if s == nil {
		return
	}

	switch {
	case isTitleRequest(&req):
		s.text("Mock", " Chat", " Title")
	case hasToolResult(&req):
		s.text("The", " tool", " said", " its", " piece", ".")
	case len(req.Tools) > 0 && wantsToolCall(&req):
		s.toolCall("call_mock_1", "get_weather", `{"location":"San Francisco","unit":"celsius"}`)
	case strings.Contains(strings.ToLower(lastUserMessage(&req)), "count from 1 to 5"):
		s.text("1", ", ", "2", ", ", "3", ", ", "4", ", ", "5")
	default:
		s.text("Hello", ", ", "nice", " ", "day", "!")
	}
	s.done()
}

// isTitleRequest detects the summarizer's instruction turn.
func isTitleRequest(req *chatRequest) bool {
	if len(req.Messages) == 0 {
		return false
	}
	last := req.Messages[len(req.Messages)-1]
	return last.Role == "user" && strings.Contains(last.Content, "three words")
}

// hasToolResult reports whether the conversation already contains a tool
// result, meaning the model should produce its final answer.
func hasToolResult(req *chatRequest) bool {
	for _, msg := range req.Messages {
		if msg.Role == "tool" {
			return true
		}
	}
	return false
}

// wantsToolCall triggers a tool call when the user asks about weather or
// time, the scenarios the mock supports.
func wantsToolCall(req *chatRequest) bool {
	last := strings.ToLower(lastUserMessage(req))
	return strings.Contains(last, "weather") || strings.Contains(last, "time")
}

func lastUserMessage(req *chatRequest) string {
	for i := len(req.Messages) - 1; i >= 0; i-- {
		if req.Messages[i].Role == "user" {
			return req.Messages[i].Content
		}
	}
	return ""
}

// --- Streaming ---

// streamer writes Chat Completions SSE chunks.
type streamer struct {
	w       http.ResponseWriter
	flusher http.Flusher
	model   string
	tokens  int
}

func newStreamer(w http.ResponseWriter, model string) *streamer {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming not supported", http.StatusInternalServerError)
		return nil
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	if model == "" {
		model = "mock-model"
	}
	return &streamer{w: w, flusher: flusher, model: model}
}

func (s *streamer) text(tokens ...string) {
	s.chunk(map[string]any{"role": "assistant"}, nil)
	for _, token := range tokens {
		s.chunk(map[string]any{"content": token}, nil)
		s.tokens++
	}
	s.finish("stop")
}

func (s *streamer) toolCall(id, name, args string) {
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

func (s *streamer) finish(reason string) {
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

func (s *streamer) chunk(delta map[string]any, finishReason *string) {
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

func (s *streamer) done() {
	fmt.Fprint(s.w, "data: [DONE]\n\n")
	s.flusher.Flush()
}

// --- Models endpoint ---

func handleModels(w http.ResponseWriter, r *http.Request) {
	resp := map[string]any{
		"object": "list",
		"data": []map[string]any{
			{"id": "mock-model", "object": "model", "owned_by": "parley-mock"},
		},
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}
