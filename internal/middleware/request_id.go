package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/google/uuid"
)

const requestIDHeader = "X-Request-Id"

type requestIDKey struct{}

// RequestID propagates an inbound X-Request-Id or X-Correlation-Id, or
// assigns a fresh one, and echoes it on the response.
func RequestID() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := incomingRequestID(r)
			if id == "" {
				id = uuid.NewString()
			}
			w.Header().Set(requestIDHeader, id)
			ctx := context.WithValue(r.Context(), requestIDKey{}, id)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func RequestIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}

func incomingRequestID(r *http.Request) string {
	for _, key := range []string{requestIDHeader, "X-Correlation-Id"} {
		value := strings.TrimSpace(r.Header.Get(key))
		if value != "" && len(value) <= 128 {
			return value
		}
	}
	return ""
}
