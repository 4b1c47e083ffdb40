package common

import (
	"context"
	"net/http"
	"strings"
)

type ctxKey string

const terminalIDKey ctxKey = "pos/terminal-id"

// TerminalHeader is the request header carrying the terminal identifier.
const TerminalHeader = "X-Terminal-ID"

// WithTerminalID stores the terminal identifier on the provided context.
func WithTerminalID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, terminalIDKey, id)
}

// TerminalID extracts the terminal identifier from the context if present.
func TerminalID(ctx context.Context) (string, bool) {
	v, ok := ctx.Value(terminalIDKey).(string)
	return v, ok && v != ""
}

// TerminalMiddleware requires the terminal header on every request and
// injects its value into the request context. Each register device sends a
// stable identifier so its cart survives reloads without colliding with
// other registers.
func TerminalMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := strings.TrimSpace(r.Header.Get(TerminalHeader))
		if id == "" {
			JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "X-Terminal-ID header is required", nil)
			return
		}
		next.ServeHTTP(w, r.WithContext(WithTerminalID(r.Context(), id)))
	})
}
