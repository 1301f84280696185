package middleware

import (
	"context"
	"net/http"
	"strings"
)

type contextKey string

const BearerKey contextKey = "bearer"

// BearerPassthrough extracts the operator's session credential from the
// Authorization header and stores it in the request context. The header is
// optional here: actions that need the credential (running a scan) reject
// its absence themselves so the UI can surface an auth error instead of a
// blanket 401.
func BearerPassthrough(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Support both "Bearer <token>" and bare "<token>" formats
		auth := r.Header.Get("Authorization")
		token := strings.TrimSpace(strings.TrimPrefix(auth, "Bearer "))
		if token != "" {
			ctx := context.WithValue(r.Context(), BearerKey, token)
			r = r.WithContext(ctx)
		}
		next.ServeHTTP(w, r)
	})
}

// BearerFromContext returns the session credential, or "" when none was sent.
func BearerFromContext(ctx context.Context) string {
	if token, ok := ctx.Value(BearerKey).(string); ok {
		return token
	}
	return ""
}
