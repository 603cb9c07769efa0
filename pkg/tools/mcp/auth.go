package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"
)

// headerSource supplies authentication headers for MCP server requests.
type headerSource interface {
	authHeaders(ctx context.Context) (map[string]string, error)
}

// clientCredentials obtains access tokens via the OAuth 2.0
// client_credentials grant. Tokens are cached and proactively refreshed when
// 80% of the token lifetime has elapsed. If a proactive refresh fails while
// the cached token is still valid, the cached token is used.
type clientCredentials struct {
	tokenURL     string
	clientID     string
	clientSecret string
	scopes       []string

	mu          sync.Mutex
	cachedToken string
	tokenExpiry time.Time
	refreshAt   time.Time
	httpClient  *http.Client
	nowFunc     func() time.Time // for testing; defaults to time.Now
}

// tokenResponse represents the JSON response from an OAuth 2.0 token endpoint.
type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int    `json:"expires_in"`
}

func newClientCredentials(cfg AuthConfig) *clientCredentials {
	return &clientCredentials{
		tokenURL:     cfg.TokenURL,
		clientID:     cfg.ClientID,
		clientSecret: cfg.ClientSecret,
		scopes:       cfg.Scopes,
		httpClient:   &http.Client{Timeout: 10 * time.Second},
		nowFunc:      time.Now,
	}
}

// authHeaders returns an Authorization header with a Bearer token.
func (a *clientCredentials) authHeaders(ctx context.Context) (map[string]string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	now := a.nowFunc()

	// Cached token still fresh: use it.
	if a.cachedToken != "" && now.Before(a.refreshAt) {
		return map[string]string{"Authorization": "Bearer " + a.cachedToken}, nil
	}

	token, expiresIn, err := a.fetchToken(ctx)
	if err != nil {
		// Refresh failed but the cached token has not expired yet.
		if a.cachedToken != "" && now.Before(a.tokenExpiry) {
			return map[string]string{"Authorization": "Bearer " + a.cachedToken}, nil
		}
		return nil, fmt.Errorf("acquiring OAuth token: %w", err)
	}

	a.cachedToken = token
	a.tokenExpiry = now.Add(time.Duration(expiresIn) * time.Second)
	a.refreshAt = now.Add(time.Duration(float64(expiresIn)*0.8) * time.Second)

	return map[string]string{"Authorization": "Bearer " + a.cachedToken}, nil
}

// fetchToken performs the OAuth 2.0 client_credentials grant request.
func (a *clientCredentials) fetchToken(ctx context.Context) (string, int, error) {
	data := url.Values{
		"grant_type":    {"client_credentials"},
		"client_id":     {a.clientID},
		"client_secret": {a.clientSecret},
	}
	if len(a.scopes) > 0 {
		data.Set("scope", strings.Join(a.scopes, " "))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.tokenURL, strings.NewReader(data.Encode()))
	if err != nil {
		return "", 0, fmt.Errorf("creating token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return "", 0, fmt.Errorf("token request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", 0, fmt.Errorf("reading token response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", 0, fmt.Errorf("token endpoint returned status %d: %s", resp.StatusCode, string(body))
	}

	var tokenResp tokenResponse
	if err := json.Unmarshal(body, &tokenResp); err != nil {
		return "", 0, fmt.Errorf("parsing token response: %w", err)
	}

	if tokenResp.AccessToken == "" {
		return "", 0, fmt.Errorf("token response missing access_token")
	}

	return tokenResp.AccessToken, tokenResp.ExpiresIn, nil
}
