package integration

import (
	"net/http"
	"strings"
	"testing"
)

func TestHealthEndpoint(t *testing.T) {
	resp := getURL(t, testEnv.BaseURL()+"/healthz")
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want 200", resp.StatusCode)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	// Run an exchange first so engine metrics have samples.
	convID := createConversation(t, conversationOpts{Name: "Metrics"})
	streamChat(t, map[string]any{
		"conversationId": convID,
		"content":        "Hello",
	})

	resp := getURL(t, testEnv.BaseURL()+"/metrics")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	body := readBody(t, resp)
	if !strings.Contains(body, "parley_exchanges_total") {
		t.Error("metrics output missing parley_exchanges_total")
	}
	if !strings.Contains(body, "parley_provider_tokens_total") {
		t.Error("metrics output missing parley_provider_tokens_total")
	}
}
