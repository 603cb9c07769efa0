package config

import (
	"errors"
	"fmt"
)

// Validate checks the configuration for required fields and valid values.
// Returns an error with a descriptive field path on failure.
func (c *Config) Validate() error {
	var errs []error

	if c.Server.Addr == "" {
		errs = append(errs, fmt.Errorf("server.addr is required"))
	}
	if c.Server.MaxBodySize <= 0 {
		errs = append(errs, fmt.Errorf("server.max_body_size must be > 0, got %d", c.Server.MaxBodySize))
	}
	if c.Engine.MaxToolTurns < 0 {
		errs = append(errs, fmt.Errorf("engine.max_tool_turns must be >= 0, got %d", c.Engine.MaxToolTurns))
	}

	switch c.Storage.Type {
	case "memory", "postgres":
	default:
		errs = append(errs, fmt.Errorf("storage.type must be \"memory\" or \"postgres\", got %q", c.Storage.Type))
	}

	if c.Storage.Type == "postgres" {
		if c.Storage.Postgres.DSN == "" && c.Storage.Postgres.DSNFile == "" {
			errs = append(errs, fmt.Errorf("storage.postgres.dsn or storage.postgres.dsn_file is required when storage.type is \"postgres\""))
		}
	}

	switch c.Auth.Type {
	case "none", "apikey", "jwt":
	default:
		errs = append(errs, fmt.Errorf("auth.type must be \"none\", \"apikey\", or \"jwt\", got %q", c.Auth.Type))
	}

	if c.Auth.Type == "apikey" && len(c.Auth.APIKeys) == 0 {
		errs = append(errs, fmt.Errorf("auth.api_keys must not be empty when auth.type is \"apikey\""))
	}
	if c.Auth.Type == "jwt" && c.Auth.JWT.JWKSURL == "" {
		errs = append(errs, fmt.Errorf("auth.jwt.jwks_url is required when auth.type is \"jwt\""))
	}

	switch c.Logging.Level {
	case "trace", "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Errorf("logging.level must be \"trace\", \"debug\", \"info\", \"warn\", or \"error\", got %q", c.Logging.Level))
	}

	switch c.Logging.Format {
	case "text", "json":
	default:
		errs = append(errs, fmt.Errorf("logging.format must be \"text\" or \"json\", got %q", c.Logging.Format))
	}

	for i, srv := range c.Tools.MCP.Servers {
		if srv.Name == "" {
			errs = append(errs, fmt.Errorf("tools.mcp.servers[%d].name is required", i))
		}
		if srv.URL == "" {
			errs = append(errs, fmt.Errorf("tools.mcp.servers[%d].url is required", i))
		}
	}

	return errors.Join(errs...)
}
