package auth

import (
	"log/slog"
	"net/http"

	"github.com/parleychat/parley/pkg/chat"
	"github.com/parleychat/parley/pkg/debug"
	"github.com/parleychat/parley/pkg/observability"
	"github.com/parleychat/parley/pkg/storage"
	"github.com/parleychat/parley/pkg/transport"
)

// Middleware creates HTTP middleware from a Chain and optional
// RateLimiter. It checks the bypass list, runs authentication, injects the
// user ID and tenant into the request context, and optionally enforces
// rate limits.
func Middleware(chain *Chain, limiter RateLimiter, bypassEndpoints []string) transport.Middleware {
	bypass := make(map[string]bool, len(bypassEndpoints))
	for _, ep := range bypassEndpoints {
		bypass[ep] = true
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if bypass[r.URL.Path] {
				next.ServeHTTP(w, r)
				return
			}

			result := chain.Authenticate(r.Context(), r)

			if result.Decision == No {
				slog.Warn("authentication failed",
					"path", r.URL.Path,
					"remote_addr", r.RemoteAddr,
					"error", result.Err,
				)
				transport.WriteErrorResponse(w,
					chat.NewInvalidRequestError("", "authentication required"),
					http.StatusUnauthorized)
				return
			}

			if result.Decision != Yes || result.Identity == nil {
				transport.WriteErrorResponse(w,
					chat.NewInvalidRequestError("", "authentication required"),
					http.StatusUnauthorized)
				return
			}

			if result.Identity.Subject == "" {
				slog.Error("authenticator returned identity with empty subject")
				transport.WriteChatError(w, chat.NewServerError("internal authentication error"))
				return
			}

			debug.Log("auth", "authentication succeeded",
				"subject", result.Identity.Subject,
				"tier", result.Identity.ServiceTier,
				"path", r.URL.Path,
			)

			if limiter != nil {
				if err := limiter.Allow(r.Context(), result.Identity); err != nil {
					slog.Warn("rate limit exceeded",
						"subject", result.Identity.Subject,
						"tier", result.Identity.ServiceTier,
					)
					observability.RateLimitRejectedTotal.WithLabelValues(result.Identity.ServiceTier).Inc()
					transport.WriteChatError(w, chat.NewTooManyRequestsError("rate limit exceeded"))
					return
				}
			}

			ctx := SetIdentity(r.Context(), result.Identity)
			ctx = transport.ContextWithUserID(ctx, result.Identity.Subject)
			if tenantID := result.Identity.TenantID(); tenantID != "" {
				ctx = storage.SetTenant(ctx, tenantID)
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// DefaultBypassEndpoints lists endpoints that skip authentication.
var DefaultBypassEndpoints = []string{"/healthz", "/metrics"}
