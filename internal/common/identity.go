package common

import (
	"context"
	"net/http"
	"strings"
)

type userIDKey struct{}

// UserIDHeader carries the caller identity set by the fronting gateway.
// Authentication itself happens upstream.
const UserIDHeader = "X-User-ID"

// WithUserID stores the caller identity on the context.
func WithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, userIDKey{}, userID)
}

// UserID extracts the caller identity from context.
func UserID(ctx context.Context) (string, bool) {
	v, ok := ctx.Value(userIDKey{}).(string)
	if !ok || strings.TrimSpace(v) == "" {
		return "", false
	}
	return v, true
}

// IdentityMiddleware lifts the gateway-provided user header onto the context.
func IdentityMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if id := strings.TrimSpace(r.Header.Get(UserIDHeader)); id != "" {
			r = r.WithContext(WithUserID(r.Context(), id))
		}
		next.ServeHTTP(w, r)
	})
}
