package transport

import (
	"log/slog"
	"net/http"
	"runtime/debug"

	"github.com/parleychat/parley/pkg/chat"
)

// Recovery returns middleware that recovers from panics in downstream
// handlers, logs the panic with a stack trace, and responds with a
// generic server error if nothing has been written yet.
func Recovery(logger *slog.Logger) Middleware {
	if logger == nil {
		logger = slog.Default()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					logger.Error("panic recovered",
						"panic", rec,
						"method", r.Method,
						"path", r.URL.Path,
						"request_id", RequestIDFromContext(r.Context()),
						"stack", string(debug.Stack()),
					)
					WriteChatError(w, chat.NewServerError("internal server error"))
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}
