// Command server runs the parley chat backend.
//
// Configuration is layered: built-in defaults, an optional YAML config
// file (--config, PARLEY_CONFIG, ./config.yaml, /etc/parley/config.yaml),
// and PARLEY_* environment variable overrides.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/parleychat/parley/pkg/auth"
	"github.com/parleychat/parley/pkg/auth/apikey"
	authjwt "github.com/parleychat/parley/pkg/auth/jwt"
	"github.com/parleychat/parley/pkg/auth/noop"
	"github.com/parleychat/parley/pkg/config"
	"github.com/parleychat/parley/pkg/debug"
	"github.com/parleychat/parley/pkg/engine"
	"github.com/parleychat/parley/pkg/storage"
	"github.com/parleychat/parley/pkg/storage/memory"
	"github.com/parleychat/parley/pkg/storage/postgres"
	"github.com/parleychat/parley/pkg/tools"
	"github.com/parleychat/parley/pkg/tools/mcp"
	"github.com/parleychat/parley/pkg/tools/timeofday"
	"github.com/parleychat/parley/pkg/transport"
	transporthttp "github.com/parleychat/parley/pkg/transport/http"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		slog.Error("server failed", "error", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:           "parley",
		Short:         "Multi-provider streaming chat backend",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd.Context(), configPath)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "path to config file")
	return cmd
}

func run(ctx context.Context, configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	logger := newLogger(cfg.Logging)
	slog.SetDefault(logger)

	store, err := newStore(ctx, cfg.Storage)
	if err != nil {
		return fmt.Errorf("creating store: %w", err)
	}
	defer store.Close()

	functions, closeTools, err := newFunctionRegistry(ctx, cfg.Tools)
	if err != nil {
		return fmt.Errorf("building function registry: %w", err)
	}
	defer closeTools()

	eng, err := engine.New(store, functions, engine.Config{
		MaxToolTurns:         cfg.Engine.MaxToolTurns,
		DisableSummarization: cfg.Engine.DisableSummarization,
	})
	if err != nil {
		return fmt.Errorf("creating engine: %w", err)
	}

	opts := []transporthttp.ServerOption{
		transporthttp.WithAddr(cfg.Server.Addr),
		transporthttp.WithMaxBodySize(cfg.Server.MaxBodySize),
		transporthttp.WithShutdownTimeout(cfg.Server.ShutdownTimeout),
		transporthttp.WithLogger(logger),
	}
	if mw := newAuthMiddleware(cfg.Auth); mw != nil {
		opts = append(opts, transporthttp.WithMiddleware(mw))
	}

	srv := transporthttp.NewServer(eng, store, opts...)

	logger.Info("server starting",
		"addr", cfg.Server.Addr,
		"storage", cfg.Storage.Type,
		"auth", cfg.Auth.Type,
		"functions", functions.Len(),
	)
	return srv.ListenAndServe()
}

func newLogger(cfg config.LoggingConfig) *slog.Logger {
	debug.Init(cfg.Debug)

	opts := &slog.HandlerOptions{Level: debug.ParseLevel(cfg.Level)}
	if cfg.Format == "json" {
		return slog.New(slog.NewJSONHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stdout, opts))
}

func newStore(ctx context.Context, cfg config.StorageConfig) (storage.Store, error) {
	switch cfg.Type {
	case "postgres":
		return postgres.New(ctx, postgres.Config{
			DSN:            cfg.Postgres.DSN,
			MaxConns:       cfg.Postgres.MaxConns,
			MinConns:       cfg.Postgres.MinConns,
			MigrateOnStart: cfg.Postgres.MigrateOnStart,
		})
	default:
		return memory.New(cfg.MaxSize), nil
	}
}

// newFunctionRegistry registers the built-in functions along with the tools
// exposed by the configured MCP servers. The returned closer disconnects
// all MCP clients.
func newFunctionRegistry(ctx context.Context, cfg config.ToolsConfig) (*tools.Registry, func(), error) {
	registry := tools.NewRegistry()

	for _, name := range cfg.Builtin {
		switch name {
		case "timeofday":
			if err := registry.Register(timeofday.New(time.Now)); err != nil {
				return nil, nil, err
			}
		default:
			return nil, nil, fmt.Errorf("unknown built-in function %q", name)
		}
	}

	var clients []*mcp.Client
	closeAll := func() {
		for _, c := range clients {
			if err := c.Close(); err != nil {
				slog.Warn("closing MCP client", "error", err)
			}
		}
	}

	for _, srvCfg := range cfg.MCP.Servers {
		client := mcp.NewClient(srvCfg)
		if err := client.Connect(ctx); err != nil {
			closeAll()
			return nil, nil, fmt.Errorf("connecting to MCP server %q: %w", srvCfg.Name, err)
		}
		clients = append(clients, client)

		functions, err := client.Functions(ctx)
		if err != nil {
			closeAll()
			return nil, nil, fmt.Errorf("listing tools of MCP server %q: %w", srvCfg.Name, err)
		}
		for _, fn := range functions {
			if err := registry.Register(fn); err != nil {
				closeAll()
				return nil, nil, err
			}
		}
		slog.Info("MCP server connected", "name", srvCfg.Name, "functions", len(functions))
	}

	return registry, closeAll, nil
}

// newAuthMiddleware builds the auth chain from configuration. Returns nil
// when authentication is disabled.
func newAuthMiddleware(cfg config.AuthConfig) transport.Middleware {
	var authenticators []auth.Authenticator

	switch cfg.Type {
	case "apikey":
		entries := make([]apikey.Entry, 0, len(cfg.APIKeys))
		for _, k := range cfg.APIKeys {
			entries = append(entries, apikey.Entry{
				Key: k.Key,
				Identity: auth.Identity{
					Subject:     k.Subject,
					ServiceTier: k.ServiceTier,
					Metadata:    map[string]string{"tenant_id": k.TenantID},
				},
			})
		}
		authenticators = append(authenticators, apikey.New(entries))
	case "jwt":
		authenticators = append(authenticators, authjwt.New(authjwt.Config{
			Issuer:   cfg.JWT.Issuer,
			Audience: cfg.JWT.Audience,
			JWKSURL:  cfg.JWT.JWKSURL,
		}))
	default:
		// No authentication. Anonymous traffic still goes through the
		// chain when rate limiting is on, so the limiter has a subject.
		if !cfg.RateLimit.Enabled {
			return nil
		}
		authenticators = append(authenticators, &noop.Authenticator{})
	}

	chain := &auth.Chain{
		Authenticators:  authenticators,
		DefaultDecision: auth.No,
	}

	var limiter auth.RateLimiter
	if cfg.RateLimit.Enabled {
		tiers := make(map[string]auth.TierConfig, len(cfg.RateLimit.Tiers))
		for tier, rpm := range cfg.RateLimit.Tiers {
			tiers[tier] = auth.TierConfig{RequestsPerMinute: rpm}
		}
		limiter = auth.NewInProcessLimiter(tiers, cfg.RateLimit.DefaultRPM)
	}

	return auth.Middleware(chain, limiter, auth.DefaultBypassEndpoints)
}
