package transport

import (
	"context"
	"net/http"

	"github.com/parleychat/parley/pkg/chat"
)

// AuthFunc resolves the authenticated user for a request. It returns the
// user ID, or an error when the request carries no valid credentials.
type AuthFunc func(r *http.Request) (string, error)

type userIDKeyType struct{}

var userIDKey = userIDKeyType{}

// UserIDFromContext extracts the authenticated user ID from the context.
// Returns an empty string if no user is set.
func UserIDFromContext(ctx context.Context) string {
	if id, ok := ctx.Value(userIDKey).(string); ok {
		return id
	}
	return ""
}

// ContextWithUserID returns a new context carrying the authenticated user ID.
func ContextWithUserID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, userIDKey, id)
}

// Authenticate returns middleware that resolves the requesting user via fn
// and stores the user ID in the request context. Requests fn rejects are
// answered with 401.
func Authenticate(fn AuthFunc) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID, err := fn(r)
			if err != nil {
				WriteErrorResponse(w, chat.NewInvalidRequestError("", "authentication required"), http.StatusUnauthorized)
				return
			}
			next.ServeHTTP(w, r.WithContext(ContextWithUserID(r.Context(), userID)))
		})
	}
}
