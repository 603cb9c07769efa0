package registry

import "testing"

func TestNewKnownKinds(t *testing.T) {
	tests := []struct {
		name     string
		backend  Backend
		wantName string
	}{
		{"openai", Backend{Kind: KindOpenAI, APIKey: "sk-x"}, "openai"},
		{"groq", Backend{Kind: KindGroq, APIKey: "gsk-x"}, "groq"},
		{"togetherai", Backend{Kind: KindTogetherAI, APIKey: "x"}, "togetherai"},
		{"ollama no key", Backend{Kind: KindOllama}, "ollama"},
		{"anthropic", Backend{Kind: KindAnthropic, APIKey: "sk-ant-x"}, "anthropic"},
		{"generic with url", Backend{Kind: KindGenericOpenAI, BaseURL: "http://localhost:8080"}, "generic-openai"},
		{"unknown kind falls back to openai protocol", Backend{Kind: "mystery", BaseURL: "http://localhost:9090"}, "mystery"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := New(tt.backend)
			if err != nil {
				t.Fatalf("New() error = %v", err)
			}
			defer p.Close()
			if p.Name() != tt.wantName {
				t.Errorf("Name() = %q, want %q", p.Name(), tt.wantName)
			}
		})
	}
}

func TestNewRequiresBaseURLForLocalKinds(t *testing.T) {
	for _, kind := range []Kind{KindLocalAI, KindGenericOpenAI} {
		if _, err := New(Backend{Kind: kind}); err == nil {
			t.Errorf("New(%s) error = nil, want BaseURL error", kind)
		}
	}
}

func TestNewAnthropicRequiresAPIKey(t *testing.T) {
	if _, err := New(Backend{Kind: KindAnthropic}); err == nil {
		t.Fatal("New() error = nil, want APIKey error")
	}
}
