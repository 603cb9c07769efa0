package openaicompat

import (
	"encoding/json"

	"github.com/parleychat/parley/pkg/provider"
)

// translateRequest converts a CompletionRequest into a chatCompletionRequest
// suitable for the /v1/chat/completions endpoint. Streaming is always
// enabled with usage reporting.
func translateRequest(req *provider.CompletionRequest) chatCompletionRequest {
	cr := chatCompletionRequest{
		Model:       req.Model,
		Temperature: req.Temperature,
		MaxTokens:   req.MaxTokens,
		N:           1,
		Stream:      true,
		StreamOptions: &chatStreamOptions{
			IncludeUsage: true,
		},
	}

	// The system prompt travels as the first message in this protocol.
	if req.SystemPrompt != "" {
		cr.Messages = append(cr.Messages, chatMessage{
			Role:    provider.RoleSystem,
			Content: req.SystemPrompt,
		})
	}

	for _, pm := range req.Messages {
		cm := chatMessage{
			Role:       pm.Role,
			Content:    pm.Content,
			ToolCallID: pm.ToolCallID,
		}
		for _, tc := range pm.ToolCalls {
			cm.ToolCalls = append(cm.ToolCalls, chatToolCall{
				ID:   tc.ID,
				Type: "function",
				Function: chatFunctionCall{
					Name:      tc.Name,
					Arguments: marshalArguments(tc.Arguments),
				},
			})
		}
		cr.Messages = append(cr.Messages, cm)
	}

	for _, td := range req.Tools {
		cr.Tools = append(cr.Tools, chatTool{
			Type: "function",
			Function: chatFunctionDef{
				Name:        td.Name,
				Description: td.Description,
				Parameters:  td.Parameters,
			},
		})
	}

	return cr
}

// marshalArguments serializes structured tool arguments back to the JSON
// text form the Chat Completions protocol expects. Arguments that cannot
// be serialized degrade to an empty object rather than failing the request.
func marshalArguments(args map[string]any) string {
	if len(args) == 0 {
		return "{}"
	}
	data, err := json.Marshal(args)
	if err != nil {
		return "{}"
	}
	return string(data)
}
