// Package config provides unified configuration for the parley server.
//
// Configuration is loaded with a layered approach:
//  1. Built-in defaults
//  2. .env file via godotenv (if present)
//  3. YAML config file (discovered or explicitly specified)
//  4. Environment variable overrides (PARLEY_ prefix)
//  5. File reference resolution (_file suffix fields)
//  6. Validation
package config

import (
	"time"

	"github.com/parleychat/parley/pkg/tools/mcp"
)

// Config holds all configuration for the parley server.
type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Engine  EngineConfig  `yaml:"engine"`
	Storage StorageConfig `yaml:"storage"`
	Auth    AuthConfig    `yaml:"auth"`
	Tools   ToolsConfig   `yaml:"tools"`
	Logging LoggingConfig `yaml:"logging"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Addr            string        `yaml:"addr"`             // default: ":8080"
	MaxBodySize     int64         `yaml:"max_body_size"`    // default: 10 MB
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"` // default: 30s
}

// EngineConfig holds exchange orchestration settings.
type EngineConfig struct {
	// MaxToolTurns caps provider round trips per exchange. 0 disables
	// the cap.
	MaxToolTurns int `yaml:"max_tool_turns"` // default: 10

	// DisableSummarization turns off automatic conversation titles.
	DisableSummarization bool `yaml:"disable_summarization"`
}

// StorageConfig holds persistence settings.
type StorageConfig struct {
	Type     string         `yaml:"type"`     // "memory" or "postgres", default: "memory"
	MaxSize  int            `yaml:"max_size"` // for memory store, default: 10000
	Postgres PostgresConfig `yaml:"postgres"`
}

// PostgresConfig holds PostgreSQL-specific settings.
type PostgresConfig struct {
	DSN            string `yaml:"dsn"`
	DSNFile        string `yaml:"dsn_file"` // _file variant for dsn
	MaxConns       int32  `yaml:"max_conns"`
	MinConns       int32  `yaml:"min_conns"`
	MigrateOnStart bool   `yaml:"migrate_on_start"` // default: true
}

// AuthConfig holds authentication settings.
type AuthConfig struct {
	Type      string          `yaml:"type"`     // "none", "apikey", "jwt", default: "none"
	APIKeys   []APIKeyConfig  `yaml:"api_keys"` // key entries for type=apikey
	JWT       JWTConfig       `yaml:"jwt"`      // settings for type=jwt
	RateLimit RateLimitConfig `yaml:"rate_limit"`
}

// APIKeyConfig describes a single API key entry.
type APIKeyConfig struct {
	Key         string `yaml:"key"`
	KeyFile     string `yaml:"key_file"` // _file variant for key
	Subject     string `yaml:"subject"`
	TenantID    string `yaml:"tenant_id"`
	ServiceTier string `yaml:"service_tier"`
}

// JWTConfig holds JWT/OIDC validation settings.
type JWTConfig struct {
	Issuer   string `yaml:"issuer"`
	Audience string `yaml:"audience"`
	JWKSURL  string `yaml:"jwks_url"`
}

// RateLimitConfig holds per-tier rate limit settings.
type RateLimitConfig struct {
	Enabled    bool           `yaml:"enabled"`
	DefaultRPM int            `yaml:"default_rpm"` // default: 60
	Tiers      map[string]int `yaml:"tiers"`       // tier name -> requests per minute
}

// ToolsConfig holds function calling settings.
type ToolsConfig struct {
	// Builtin lists the built-in functions to register. Default:
	// ["timeofday"].
	Builtin []string `yaml:"builtin"`

	// MCP configures Model Context Protocol server connections whose
	// tools become callable functions.
	MCP mcp.Config `yaml:"mcp"`
}

// LoggingConfig holds structured logging settings.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // "trace", "debug", "info", "warn", "error", default: "info"
	Format string `yaml:"format"` // "text" or "json", default: "text"
	Debug  string `yaml:"debug"`  // comma-separated debug categories, e.g. "providers,mcp"
}

// Defaults returns a Config with all default values filled in.
func Defaults() Config {
	return Config{
		Server: ServerConfig{
			Addr:            ":8080",
			MaxBodySize:     10 << 20,
			ShutdownTimeout: 30 * time.Second,
		},
		Engine: EngineConfig{
			MaxToolTurns: 10,
		},
		Storage: StorageConfig{
			Type:    "memory",
			MaxSize: 10000,
			Postgres: PostgresConfig{
				MaxConns:       25,
				MinConns:       5,
				MigrateOnStart: true,
			},
		},
		Auth: AuthConfig{
			Type: "none",
			RateLimit: RateLimitConfig{
				DefaultRPM: 60,
			},
		},
		Tools: ToolsConfig{
			Builtin: []string{"timeofday"},
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}
