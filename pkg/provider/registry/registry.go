// Package registry constructs provider adapters from backend configuration.
// It maps a backend kind to the matching adapter and fills in well-known
// endpoint defaults for hosted services.
package registry

import (
	"fmt"

	"github.com/parleychat/parley/pkg/provider"
	"github.com/parleychat/parley/pkg/provider/anthropic"
	"github.com/parleychat/parley/pkg/provider/openaicompat"
)

// Kind identifies a backend family.
type Kind string

const (
	KindOpenAI        Kind = "openai"
	KindAnthropic     Kind = "anthropic"
	KindTogetherAI    Kind = "togetherai"
	KindGroq          Kind = "groq"
	KindOllama        Kind = "ollama"
	KindLocalAI       Kind = "localai"
	KindGenericOpenAI Kind = "generic-openai"
)

// defaultBaseURLs holds the endpoints of hosted OpenAI-compatible services.
var defaultBaseURLs = map[Kind]string{
	KindOpenAI:     "https://api.openai.com",
	KindTogetherAI: "https://api.together.xyz",
	KindGroq:       "https://api.groq.com/openai",
	KindOllama:     "http://localhost:11434",
}

// Backend describes a configured inference backend.
type Backend struct {
	// Kind selects the adapter. Unknown kinds fall back to the
	// OpenAI-compatible adapter, since most backends speak that protocol.
	Kind Kind

	// APIKey authenticates against the backend, where required.
	APIKey string

	// BaseURL overrides the default endpoint for the kind. Required for
	// kinds without a well-known endpoint (localai, generic-openai).
	BaseURL string
}

// New constructs the provider adapter for the given backend.
func New(b Backend) (provider.Provider, error) {
	if b.Kind == KindAnthropic {
		return anthropic.New(anthropic.Config{
			APIKey:  b.APIKey,
			BaseURL: b.BaseURL,
		})
	}

	baseURL := b.BaseURL
	if baseURL == "" {
		baseURL = defaultBaseURLs[b.Kind]
	}
	if baseURL == "" {
		return nil, fmt.Errorf("registry: backend kind %q requires an explicit BaseURL", b.Kind)
	}

	name := string(b.Kind)
	if name == "" {
		name = string(KindOpenAI)
	}
	return openaicompat.New(openaicompat.Config{
		Name:    name,
		BaseURL: baseURL,
		APIKey:  b.APIKey,
	})
}
