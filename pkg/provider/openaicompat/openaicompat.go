package openaicompat

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/parleychat/parley/pkg/chat"
	"github.com/parleychat/parley/pkg/debug"
	"github.com/parleychat/parley/pkg/provider"
)

// Config holds the settings for an OpenAI-compatible backend.
type Config struct {
	// Name identifies the backend in logs and metrics (e.g., "openai", "groq").
	Name string

	// BaseURL is the backend endpoint without the /v1 suffix
	// (e.g., "https://api.openai.com").
	BaseURL string

	// APIKey is sent as a Bearer token when non-empty.
	APIKey string

	// Timeout bounds non-streaming HTTP requests. Defaults to 120s.
	Timeout time.Duration
}

// OpenAIProvider implements provider.Provider for OpenAI-compatible
// Chat Completions backends.
type OpenAIProvider struct {
	cfg    Config
	client *http.Client
}

// Ensure OpenAIProvider implements provider.Provider at compile time.
var _ provider.Provider = (*OpenAIProvider)(nil)

// New creates a new OpenAIProvider with the given configuration.
// Returns an error if the configuration is invalid.
func New(cfg Config) (*OpenAIProvider, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("openaicompat: BaseURL is required")
	}

	// Normalize: remove trailing slash from base URL.
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")

	if cfg.Name == "" {
		cfg.Name = "openai"
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 120 * time.Second
	}

	return &OpenAIProvider{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.Timeout},
	}, nil
}

// Name returns the provider identifier.
func (p *OpenAIProvider) Name() string {
	return p.cfg.Name
}

// StreamCompletion performs streaming inference against the Chat Completions
// endpoint. It returns a channel of Chunks. The channel is closed when the
// stream completes, errors, or the context is cancelled.
//
// The HTTP client timeout is not applied for streaming requests because a
// stream can legitimately last longer than any fixed timeout. Lifecycle
// control relies on context cancellation instead.
func (p *OpenAIProvider) StreamCompletion(ctx context.Context, req *provider.CompletionRequest) (<-chan provider.Chunk, error) {
	chatReq := translateRequest(req)

	body, err := json.Marshal(chatReq)
	if err != nil {
		return nil, chat.NewServerError(fmt.Sprintf("failed to marshal request: %s", err.Error()))
	}

	url := p.cfg.BaseURL + "/v1/chat/completions"
	debug.Log("providers", "chat completions request",
		"backend", p.cfg.Name, "url", url, "model", req.Model,
		"messages", len(req.Messages), "tools", len(req.Tools))
	debug.Raw("providers", string(body))

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, chat.NewServerError(fmt.Sprintf("failed to create HTTP request: %s", err.Error()))
	}

	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "text/event-stream")
	if p.cfg.APIKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+p.cfg.APIKey)
	}

	// Use a client without timeout for streaming. The context controls
	// the request lifetime instead.
	streamClient := &http.Client{
		Transport: p.client.Transport,
	}

	httpResp, err := streamClient.Do(httpReq)
	if err != nil {
		return nil, mapNetworkError(err)
	}

	// Check for error status codes before starting the stream.
	if httpResp.StatusCode < 200 || httpResp.StatusCode >= 300 {
		defer httpResp.Body.Close()
		return nil, mapHTTPError(httpResp)
	}

	ch := make(chan provider.Chunk, 16)

	go func() {
		defer close(ch)
		defer httpResp.Body.Close()
		parseSSEStream(ctx, httpResp.Body, ch)
	}()

	return ch, nil
}

// Close releases provider resources.
func (p *OpenAIProvider) Close() error {
	p.client.CloseIdleConnections()
	return nil
}
