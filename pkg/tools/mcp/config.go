package mcp

// Config holds the configuration for all MCP server connections.
type Config struct {
	// Servers is the list of MCP server configurations to connect to.
	Servers []ServerConfig `yaml:"servers"`
}

// ServerConfig describes a single MCP server connection.
type ServerConfig struct {
	// Name is the logical name for this server, used for logging and
	// identification when routing tool calls.
	Name string `yaml:"name" json:"name"`

	// Transport is the transport type to use: "sse" or "streamable-http".
	// If empty, defaults to "streamable-http".
	Transport string `yaml:"transport" json:"transport"`

	// URL is the MCP server endpoint URL.
	URL string `yaml:"url" json:"url"`

	// Headers contains additional HTTP headers to send with requests,
	// typically used for API key authentication.
	Headers map[string]string `yaml:"headers,omitempty" json:"headers,omitempty"`

	// Auth configures dynamic authentication for this server.
	Auth AuthConfig `yaml:"auth,omitempty" json:"auth,omitempty"`

	// RequireConfirm marks every tool from this server as needing user
	// approval before execution.
	RequireConfirm bool `yaml:"requireConfirm,omitempty" json:"requireConfirm,omitempty"`
}

// AuthConfig configures dynamic authentication for an MCP server.
type AuthConfig struct {
	// Type selects the auth mechanism. Supported: "oauth_client_credentials".
	// Empty means no dynamic auth.
	Type string `yaml:"type,omitempty" json:"type,omitempty"`

	// TokenURL is the OAuth 2.0 token endpoint.
	TokenURL string `yaml:"tokenUrl,omitempty" json:"tokenUrl,omitempty"`

	// ClientID and ClientSecret identify the OAuth client.
	ClientID     string `yaml:"clientId,omitempty" json:"clientId,omitempty"`
	ClientSecret string `yaml:"clientSecret,omitempty" json:"clientSecret,omitempty"`

	// Scopes lists the OAuth scopes to request.
	Scopes []string `yaml:"scopes,omitempty" json:"scopes,omitempty"`
}
