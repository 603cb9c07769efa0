package engine

import (
	"github.com/parleychat/parley/pkg/chat"
	"github.com/parleychat/parley/pkg/provider"
)

// translateHistory converts a linear, oldest-first conversation branch
// into provider turns.
//
// Assistant messages that invoked a tool (directly or through a resolved
// confirmation) become an assistant turn carrying the tool call, so the
// model sees the call/result pairing on replay. User messages that only
// carry a confirmation verdict are plumbing, not content, and are skipped.
func translateHistory(history []chat.Message) []provider.Message {
	var out []provider.Message

	for _, msg := range history {
		switch msg.Role {
		case chat.RoleUser:
			if msg.ConfirmResponse != nil && msg.Content == "" {
				continue
			}
			out = append(out, provider.Message{
				Role:    provider.RoleUser,
				Content: msg.Content,
			})

		case chat.RoleAssistant:
			pm := provider.Message{
				Role:    provider.RoleAssistant,
				Content: msg.Content,
			}
			if call := assistantToolCall(msg); call != nil {
				pm.ToolCalls = []provider.ToolCall{*call}
			}
			out = append(out, pm)

		case chat.RoleTool:
			out = append(out, provider.Message{
				Role:       provider.RoleTool,
				Content:    msg.Content,
				ToolCallID: msg.ToolCallID,
			})
		}
	}

	return out
}

// assistantToolCall extracts the tool call recorded on an assistant
// message, whether it ran directly or was frozen as a ConfirmRequest.
func assistantToolCall(msg chat.Message) *provider.ToolCall {
	switch {
	case msg.ToolCall != nil:
		return &provider.ToolCall{
			ID:        msg.ToolCall.ToolCallID,
			Name:      msg.ToolCall.ToolName,
			Arguments: msg.ToolCall.ToolArgs,
		}
	case msg.ConfirmRequest != nil:
		return &provider.ToolCall{
			ID:        msg.ConfirmRequest.ToolCallID,
			Name:      msg.ConfirmRequest.ToolName,
			Arguments: msg.ConfirmRequest.ToolArgs,
		}
	}
	return nil
}
