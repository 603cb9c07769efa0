package anthropic

import (
	"context"
	"fmt"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/parleychat/parley/pkg/chat"
	"github.com/parleychat/parley/pkg/debug"
	"github.com/parleychat/parley/pkg/provider"
)

// defaultMaxTokens bounds the completion when the request does not set one.
// The Messages API requires an explicit max_tokens value.
const defaultMaxTokens = 4096

// Config holds the settings for the Anthropic backend.
type Config struct {
	// APIKey authenticates against the Anthropic API.
	APIKey string

	// BaseURL overrides the API endpoint. Empty means the SDK default.
	BaseURL string
}

// AnthropicProvider implements provider.Provider for the Anthropic
// Messages API.
type AnthropicProvider struct {
	cfg    Config
	client anthropic.Client
}

// Ensure AnthropicProvider implements provider.Provider at compile time.
var _ provider.Provider = (*AnthropicProvider)(nil)

// New creates a new AnthropicProvider with the given configuration.
func New(cfg Config) (*AnthropicProvider, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("anthropic: APIKey is required")
	}

	opts := []option.RequestOption{option.WithAPIKey(cfg.APIKey)}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}

	return &AnthropicProvider{
		cfg:    cfg,
		client: anthropic.NewClient(opts...),
	}, nil
}

// Name returns the provider identifier.
func (p *AnthropicProvider) Name() string {
	return "anthropic"
}

// StreamCompletion performs streaming inference against the Messages API.
// It returns a channel of Chunks. The channel is closed when the stream
// completes, errors, or the context is cancelled.
func (p *AnthropicProvider) StreamCompletion(ctx context.Context, req *provider.CompletionRequest) (<-chan provider.Chunk, error) {
	params, err := translateRequest(req)
	if err != nil {
		return nil, err
	}
	debug.Log("providers", "messages request",
		"backend", "anthropic", "model", req.Model,
		"messages", len(req.Messages), "tools", len(req.Tools))

	ch := make(chan provider.Chunk, 16)

	go func() {
		defer close(ch)

		// Block index to tool call ID, so argument deltas can be
		// attributed when multiple tool calls stream interleaved.
		callIDs := make(map[int64]string)
		var usage provider.Usage

		stream := p.client.Messages.NewStreaming(ctx, params)
		for stream.Next() {
			event := stream.Current()
			switch variant := event.AsAny().(type) {
			case anthropic.MessageStartEvent:
				usage.PromptTokens = int(variant.Message.Usage.InputTokens)

			case anthropic.ContentBlockStartEvent:
				if block, ok := variant.ContentBlock.AsAny().(anthropic.ToolUseBlock); ok {
					callIDs[variant.Index] = block.ID
					if !send(ctx, ch, provider.Chunk{
						Type:       provider.ChunkToolCallBegin,
						ToolCallID: block.ID,
						ToolName:   block.Name,
					}) {
						return
					}
				}

			case anthropic.ContentBlockDeltaEvent:
				switch delta := variant.Delta.AsAny().(type) {
				case anthropic.TextDelta:
					if delta.Text != "" {
						if !send(ctx, ch, provider.Chunk{
							Type:  provider.ChunkTextDelta,
							Delta: delta.Text,
						}) {
							return
						}
					}
				case anthropic.InputJSONDelta:
					if delta.PartialJSON != "" {
						if !send(ctx, ch, provider.Chunk{
							Type:       provider.ChunkToolArgsDelta,
							ToolCallID: callIDs[variant.Index],
							Delta:      delta.PartialJSON,
						}) {
							return
						}
					}
				}

			case anthropic.MessageDeltaEvent:
				if variant.Usage.OutputTokens > 0 {
					usage.CompletionTokens = int(variant.Usage.OutputTokens)
				}
			}
		}

		if err := stream.Err(); err != nil {
			// Context cancellation is not an error from our perspective.
			if ctx.Err() != nil {
				return
			}
			send(ctx, ch, provider.Chunk{
				Type: provider.ChunkError,
				Err:  chat.NewModelError("anthropic streaming error: " + err.Error()),
			})
			return
		}

		send(ctx, ch, provider.Chunk{Type: provider.ChunkDone, Usage: &usage})
	}()

	return ch, nil
}

// send delivers a chunk unless the context is cancelled first, so an
// abandoned consumer never strands the stream goroutine on a full channel.
// Reports whether the chunk was delivered.
func send(ctx context.Context, ch chan<- provider.Chunk, c provider.Chunk) bool {
	select {
	case ch <- c:
		return true
	case <-ctx.Done():
		return false
	}
}

// Close releases provider resources. The SDK client holds no connections
// that need explicit shutdown.
func (p *AnthropicProvider) Close() error {
	return nil
}
