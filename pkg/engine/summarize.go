package engine

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/parleychat/parley/pkg/chat"
	"github.com/parleychat/parley/pkg/observability"
	"github.com/parleychat/parley/pkg/provider"
	"github.com/parleychat/parley/pkg/transport"
)

const (
	// summaryExcerptLimit caps each side of the two-turn excerpt handed
	// to the title model.
	summaryExcerptLimit = 500

	summaryInstruction = "Summary of this conversation in three words, same language, usable as a title"
)

// maybeSummarize derives a title for untitled conversations after the
// main exchange completes. Failures are logged and swallowed; the
// exchange has already succeeded.
func (e *Engine) maybeSummarize(ctx context.Context, st *exchange, assistantMsg *chat.Message, w transport.StreamWriter) {
	if e.cfg.DisableSummarization || st.conv.Name != "" || st.userMsg == nil {
		return
	}

	title, err := e.summarizeTitle(ctx, st.prov, st.conv.Model, st.userMsg, assistantMsg)
	if err != nil || title == "" {
		slog.Warn("conversation title generation failed", "conversation_id", st.conv.ID, "error", err)
		observability.SummariesTotal.WithLabelValues("error").Inc()
		return
	}
	observability.SummariesTotal.WithLabelValues("success").Inc()

	if err := e.store.SetConversationName(context.WithoutCancel(ctx), st.conv.ID, title); err != nil {
		slog.Warn("storing conversation title", "conversation_id", st.conv.ID, "error", err)
	}

	if err := w.WriteEvent(ctx, chat.SummaryEvent(title)); err != nil {
		slog.Warn("delivering conversation title", "conversation_id", st.conv.ID, "error", err)
	}
}

// summarizeTitle drives a short non-tool completion over a bounded
// excerpt of the exchange and concatenates the text deltas.
func (e *Engine) summarizeTitle(ctx context.Context, prov provider.Provider, model string, userMsg, assistantMsg *chat.Message) (string, error) {
	userExcerpt := truncateRunes(userMsg.Content, summaryExcerptLimit)
	if n := len(userMsg.Attachments); n > 0 {
		userExcerpt += fmt.Sprintf("\nUploaded %d files", n)
	}

	req := &provider.CompletionRequest{
		Model: model,
		Messages: []provider.Message{
			{Role: provider.RoleUser, Content: userExcerpt},
			{Role: provider.RoleAssistant, Content: truncateRunes(assistantMsg.Content, summaryExcerptLimit)},
			{Role: provider.RoleUser, Content: summaryInstruction},
		},
	}

	ch, err := prov.StreamCompletion(ctx, req)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	for chunk := range ch {
		switch chunk.Type {
		case provider.ChunkTextDelta:
			b.WriteString(chunk.Delta)
		case provider.ChunkError:
			return "", chunk.Err
		}
	}

	return strings.TrimSpace(b.String()), nil
}

func truncateRunes(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit])
}
