package openaicompat

import (
	"bufio"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"strings"

	"github.com/parleychat/parley/pkg/chat"
	"github.com/parleychat/parley/pkg/provider"
)

// toolCallState tracks a tool call being assembled from streaming fragments.
// The backend announces ID and name on the first fragment for an index, then
// sends argument text in pieces.
type toolCallState struct {
	id   string
	name string
}

// parseSSEStream reads Chat Completions SSE chunks from the given reader,
// translates each chunk to Chunk values, and sends them on ch.
// The channel is NOT closed by this function; the caller is responsible
// for closing it.
//
// SSE format expected:
//
//	data: {"id":"...","choices":[...]}\n
//	\n
//	data: [DONE]\n
//	\n
//
// Malformed chunks are logged and skipped. Context cancellation stops
// reading immediately.
func parseSSEStream(ctx context.Context, body io.Reader, ch chan<- provider.Chunk) {
	calls := make(map[int]*toolCallState)
	var usage *provider.Usage

	scanner := bufio.NewScanner(body)
	for scanner.Scan() {
		// Check for context cancellation between lines.
		if ctx.Err() != nil {
			return
		}

		line := scanner.Text()

		// SSE lines that don't start with "data: " are ignored
		// (e.g., empty lines, comments starting with ":").
		if !strings.HasPrefix(line, "data: ") {
			continue
		}

		payload := strings.TrimPrefix(line, "data: ")

		// Handle the [DONE] sentinel. The usage-only chunk arrives after
		// the last choice chunk, so the terminal event is emitted here
		// rather than at finish_reason.
		if payload == "[DONE]" {
			send(ctx, ch, provider.Chunk{Type: provider.ChunkDone, Usage: usage})
			return
		}

		var chunk chatCompletionChunk
		if err := json.Unmarshal([]byte(payload), &chunk); err != nil {
			slog.Warn("skipping malformed SSE chunk",
				"error", err.Error(),
				"data", truncate(payload, 200),
			)
			continue
		}

		// Usage-only final chunk (sent with stream_options.include_usage).
		// Hold it until the terminal event so ChunkDone carries the counts.
		if chunk.Usage != nil {
			usage = &provider.Usage{
				PromptTokens:     chunk.Usage.PromptTokens,
				CompletionTokens: chunk.Usage.CompletionTokens,
			}
		}
		if len(chunk.Choices) == 0 {
			continue
		}

		choice := chunk.Choices[0]

		for _, tc := range choice.Delta.ToolCalls {
			state := calls[tc.Index]
			if state == nil {
				state = &toolCallState{}
				calls[tc.Index] = state
			}
			if tc.ID != "" {
				state.id = tc.ID
			}
			if tc.Function.Name != "" {
				state.name = tc.Function.Name
				if !send(ctx, ch, provider.Chunk{
					Type:       provider.ChunkToolCallBegin,
					ToolCallID: state.id,
					ToolName:   state.name,
				}) {
					return
				}
			}
			if tc.Function.Arguments != "" {
				if !send(ctx, ch, provider.Chunk{
					Type:       provider.ChunkToolArgsDelta,
					ToolCallID: state.id,
					Delta:      tc.Function.Arguments,
				}) {
					return
				}
			}
		}

		if choice.Delta.Content != nil && *choice.Delta.Content != "" {
			if !send(ctx, ch, provider.Chunk{
				Type:  provider.ChunkTextDelta,
				Delta: *choice.Delta.Content,
			}) {
				return
			}
		}
	}

	// Scanner error (e.g., connection dropped).
	if err := scanner.Err(); err != nil {
		// Context cancellation is not an error from our perspective.
		if ctx.Err() != nil {
			return
		}
		send(ctx, ch, provider.Chunk{
			Type: provider.ChunkError,
			Err:  chat.NewServerError("SSE stream read error: " + err.Error()),
		})
		return
	}

	// EOF without a [DONE] sentinel. Some backends just close the stream.
	send(ctx, ch, provider.Chunk{Type: provider.ChunkDone, Usage: usage})
}

// send delivers a chunk unless the context is cancelled first, so an
// abandoned consumer never strands the reader goroutine on a full channel.
// Reports whether the chunk was delivered.
func send(ctx context.Context, ch chan<- provider.Chunk, c provider.Chunk) bool {
	select {
	case ch <- c:
		return true
	case <-ctx.Done():
		return false
	}
}

// truncate limits a string to maxLen characters for log output.
func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
