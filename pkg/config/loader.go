package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/parleychat/parley/pkg/tools/mcp"
)

// Load loads configuration from a layered set of sources.
//
// The loading order is:
//  1. Built-in defaults
//  2. .env file in the working directory (if present)
//  3. YAML config file (explicit path, PARLEY_CONFIG env, ./config.yaml,
//     /etc/parley/config.yaml)
//  4. Environment variable overrides
//  5. File reference resolution (_file suffix)
//  6. Validation
func Load(configPath string) (*Config, error) {
	// Populate the environment from .env before anything reads it.
	// A missing file is not an error.
	godotenv.Load()

	cfg := Defaults()

	filePath := discoverConfigFile(configPath)
	if filePath != "" {
		if err := loadYAMLFile(filePath, &cfg); err != nil {
			return nil, fmt.Errorf("loading config file %s: %w", filePath, err)
		}
	}

	applyEnvOverrides(&cfg)

	if err := resolveFileReferences(&cfg); err != nil {
		return nil, fmt.Errorf("resolving file references: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}

	return &cfg, nil
}

// discoverConfigFile finds the config file path using the discovery order:
// 1. Explicit configPath argument
// 2. PARLEY_CONFIG environment variable
// 3. ./config.yaml in the current directory
// 4. /etc/parley/config.yaml
//
// Returns empty string if no config file is found.
func discoverConfigFile(configPath string) string {
	if configPath != "" {
		return configPath
	}

	if envPath := os.Getenv("PARLEY_CONFIG"); envPath != "" {
		return envPath
	}

	candidates := []string{
		"config.yaml",
		"/etc/parley/config.yaml",
	}
	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}

	return ""
}

// loadYAMLFile reads and parses a YAML file into the Config struct.
// Fields not present in the YAML retain their current (default) values.
func loadYAMLFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, cfg)
}

// applyEnvOverrides maps PARLEY_* environment variables to config fields.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("PARLEY_ADDR"); v != "" {
		cfg.Server.Addr = v
	}
	if v := os.Getenv("PARLEY_STORAGE"); v != "" {
		cfg.Storage.Type = v
	}
	if v := os.Getenv("PARLEY_STORAGE_SIZE"); v != "" {
		if size, err := strconv.Atoi(v); err == nil {
			cfg.Storage.MaxSize = size
		}
	}
	if v := os.Getenv("PARLEY_POSTGRES_DSN"); v != "" {
		cfg.Storage.Postgres.DSN = v
	}
	if v := os.Getenv("PARLEY_MAX_TOOL_TURNS"); v != "" {
		if turns, err := strconv.Atoi(v); err == nil {
			cfg.Engine.MaxToolTurns = turns
		}
	}
	if v := os.Getenv("PARLEY_DISABLE_SUMMARIZATION"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Engine.DisableSummarization = b
		}
	}
	if v := os.Getenv("PARLEY_AUTH_TYPE"); v != "" {
		cfg.Auth.Type = v
	}
	if v := os.Getenv("PARLEY_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("PARLEY_LOG_FORMAT"); v != "" {
		cfg.Logging.Format = v
	}
	if v := os.Getenv("PARLEY_SHUTDOWN_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Server.ShutdownTimeout = d
		}
	}

	// PARLEY_API_KEYS: JSON array of API key configs.
	if v := os.Getenv("PARLEY_API_KEYS"); v != "" {
		var keys []APIKeyConfig
		if err := json.Unmarshal([]byte(v), &keys); err == nil && len(keys) > 0 {
			cfg.Auth.APIKeys = keys
		}
	}

	// PARLEY_MCP_SERVERS: JSON array of MCP server configs.
	if v := os.Getenv("PARLEY_MCP_SERVERS"); v != "" {
		var servers []mcp.ServerConfig
		if err := json.Unmarshal([]byte(v), &servers); err == nil && len(servers) > 0 {
			cfg.Tools.MCP.Servers = servers
		}
	}
}

// resolveFileReferences reads _file fields and populates the corresponding
// value fields. For each field ending in _file, if the value field is empty
// and the file field is set, the file is read, whitespace is trimmed, and
// the value field is populated.
func resolveFileReferences(cfg *Config) error {
	// storage.postgres.dsn_file -> storage.postgres.dsn
	if cfg.Storage.Postgres.DSNFile != "" && cfg.Storage.Postgres.DSN == "" {
		val, err := readSecretFile(cfg.Storage.Postgres.DSNFile)
		if err != nil {
			return fmt.Errorf("storage.postgres.dsn_file: %w", err)
		}
		cfg.Storage.Postgres.DSN = val
	}

	// auth.api_keys[*].key_file -> auth.api_keys[*].key
	for i := range cfg.Auth.APIKeys {
		if cfg.Auth.APIKeys[i].KeyFile != "" && cfg.Auth.APIKeys[i].Key == "" {
			val, err := readSecretFile(cfg.Auth.APIKeys[i].KeyFile)
			if err != nil {
				return fmt.Errorf("auth.api_keys[%d].key_file: %w", i, err)
			}
			cfg.Auth.APIKeys[i].Key = val
		}
	}

	return nil
}

// readSecretFile reads a file and returns its content with surrounding
// whitespace trimmed.
func readSecretFile(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(data)), nil
}
