package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRequireBearer_StashesToken(t *testing.T) {
	var gotToken string
	wrapped := RequireBearer()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotToken, _ = BearerToken(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest("POST", "/teams/invites", nil)
	req.Header.Set("Authorization", "Bearer session-jwt")
	w := httptest.NewRecorder()
	wrapped.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "session-jwt", gotToken)
}

func TestRequireBearer_Rejects(t *testing.T) {
	tests := []struct {
		name   string
		header string
	}{
		{"missing header", ""},
		{"wrong scheme", "Basic dXNlcjpwYXNz"},
		{"empty token", "Bearer "},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			wrapped := RequireBearer()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				t.Error("handler must not run")
			}))

			req := httptest.NewRequest("POST", "/teams/invites", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			wrapped.ServeHTTP(w, req)

			assert.Equal(t, http.StatusUnauthorized, w.Code)
		})
	}
}
