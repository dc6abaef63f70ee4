package middleware

import (
	"encoding/json"
	"net/http"
	"os"
	"strings"

	"opsboard-services/internal/auth"
	"opsboard-services/internal/domain"
)

func writeAuthError(w http.ResponseWriter, status int, code domain.ErrorCode, message string) {
	writeAuthErrorDebug(w, status, code, message, "")
}

func writeAuthErrorDebug(w http.ResponseWriter, status int, code domain.ErrorCode, message string, debug string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	payload := map[string]any{
		"success": false,
		"error":   string(code),
		"message": message,
	}

	if os.Getenv("APP_ENV") == "development" && strings.TrimSpace(debug) != "" {
		payload["debug"] = debug
	}

	_ = json.NewEncoder(w).Encode(payload)
}

// Auth verifies the bearer token and stores the caller's identity in the
// request context.
func Auth(jwtSecret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := auth.ParseBearerToken(r.Header.Get("Authorization"))
			claims, err := auth.VerifyAccessToken(token, jwtSecret)
			if err != nil {
				writeAuthErrorDebug(w, http.StatusUnauthorized, domain.ErrUnauthenticated, "Authentication required", err.Error())
				return
			}

			ctx := auth.WithIdentity(r.Context(), auth.IdentityFromClaims(claims))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// ServiceKey guards machine-to-machine endpoints with the Api-Key header.
// An empty hash leaves the route open, which is only allowed outside
// production.
func ServiceKey(hash string, env string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if hash == "" {
				if env == "production" {
					writeAuthError(w, http.StatusUnauthorized, domain.ErrUnauthenticated, "Service key not configured")
					return
				}
				next.ServeHTTP(w, r)
				return
			}
			if !auth.VerifyServiceKey(hash, strings.TrimSpace(r.Header.Get("Api-Key"))) {
				writeAuthError(w, http.StatusUnauthorized, domain.ErrUnauthenticated, "Invalid API key")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
