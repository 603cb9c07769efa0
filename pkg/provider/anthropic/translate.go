package anthropic

import (
	"encoding/json"
	"fmt"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/shared/constant"

	"github.com/parleychat/parley/pkg/provider"
)

// translateRequest converts a CompletionRequest into Messages API parameters.
func translateRequest(req *provider.CompletionRequest) (anthropic.MessageNewParams, error) {
	maxTokens := int64(defaultMaxTokens)
	if req.MaxTokens != nil {
		maxTokens = int64(*req.MaxTokens)
	}

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(req.Model),
		MaxTokens: maxTokens,
		Messages:  buildMessages(req.Messages),
	}
	if req.SystemPrompt != "" {
		params.System = []anthropic.TextBlockParam{{Text: req.SystemPrompt}}
	}
	if req.Temperature != nil {
		params.Temperature = anthropic.Float(*req.Temperature)
	}
	if len(req.Tools) > 0 {
		tools, err := buildTools(req.Tools)
		if err != nil {
			return anthropic.MessageNewParams{}, err
		}
		params.Tools = tools
	}

	return params, nil
}

// buildMessages converts neutral messages to Messages API turns. Tool
// results travel as user turns carrying tool_result blocks, which is how
// the Messages API models them.
func buildMessages(messages []provider.Message) []anthropic.MessageParam {
	var out []anthropic.MessageParam

	for _, msg := range messages {
		switch msg.Role {
		case provider.RoleUser:
			out = append(out, anthropic.NewUserMessage(anthropic.NewTextBlock(msg.Content)))

		case provider.RoleAssistant:
			var blocks []anthropic.ContentBlockParamUnion
			if msg.Content != "" {
				blocks = append(blocks, anthropic.NewTextBlock(msg.Content))
			}
			for _, tc := range msg.ToolCalls {
				blocks = append(blocks, anthropic.NewToolUseBlock(tc.ID, tc.Arguments, tc.Name))
			}
			if len(blocks) > 0 {
				out = append(out, anthropic.NewAssistantMessage(blocks...))
			}

		case provider.RoleTool:
			out = append(out, anthropic.NewUserMessage(toolResultBlock(msg.ToolCallID, msg.Content)))
		}
	}

	return out
}

func toolResultBlock(toolCallID, content string) anthropic.ContentBlockParamUnion {
	block := anthropic.ToolResultBlockParam{
		ToolUseID: toolCallID,
		Content: []anthropic.ToolResultBlockParamContentUnion{
			{OfText: &anthropic.TextBlockParam{Text: content}},
		},
	}
	return anthropic.ContentBlockParamUnion{OfToolResult: &block}
}

// toolSchema is the subset of JSON Schema the Messages API wants split out.
type toolSchema struct {
	Properties map[string]any `json:"properties"`
	Required   []string       `json:"required"`
}

// buildTools converts neutral tool definitions to Messages API tool params.
// The raw JSON Schema is split into the properties/required form the API
// expects.
func buildTools(defs []provider.ToolDefinition) ([]anthropic.ToolUnionParam, error) {
	tools := make([]anthropic.ToolUnionParam, 0, len(defs))
	for _, def := range defs {
		var schema toolSchema
		if len(def.Parameters) > 0 {
			if err := json.Unmarshal(def.Parameters, &schema); err != nil {
				return nil, fmt.Errorf("anthropic: invalid parameter schema for tool %q: %w", def.Name, err)
			}
		}

		inputSchema := anthropic.ToolInputSchemaParam{
			Type:       constant.Object("object"),
			Properties: schema.Properties,
			Required:   schema.Required,
		}
		tool := anthropic.ToolUnionParamOfTool(inputSchema, def.Name)
		if def.Description != "" {
			tool.OfTool.Description = anthropic.String(def.Description)
		}
		tools = append(tools, tool)
	}
	return tools, nil
}
