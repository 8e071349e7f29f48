package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
)

type contextKey string

const bearerKey contextKey = "bearer"

// RequireBearer rejects requests without a Bearer authorization header and
// stashes the raw token in the request context. Token validation itself is
// the identity platform's job; handlers pass the bearer through when they
// resolve the caller.
func RequireBearer() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				writeAuthError(w, "missing authorization header", "auth_required")
				return
			}
			token := strings.TrimPrefix(authHeader, "Bearer ")
			if token == authHeader || token == "" {
				writeAuthError(w, "invalid authorization scheme", "auth_invalid_scheme")
				return
			}

			ctx := context.WithValue(r.Context(), bearerKey, token)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// BearerToken returns the raw bearer token stored by RequireBearer.
func BearerToken(ctx context.Context) (string, bool) {
	token, ok := ctx.Value(bearerKey).(string)
	return token, ok
}

func writeAuthError(w http.ResponseWriter, msg, code string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	json.NewEncoder(w).Encode(map[string]string{
		"error": msg,
		"code":  code,
	})
}
