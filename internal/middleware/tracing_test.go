package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
)

func TestTracing_PassThrough(t *testing.T) {
	wrapped := Tracing()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	}))

	w := httptest.NewRecorder()
	wrapped.ServeHTTP(w, httptest.NewRequest("GET", "/test", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "OK", w.Body.String())
}

func TestTracing_WithChiRoutePattern(t *testing.T) {
	r := chi.NewRouter()
	r.Use(Tracing())
	r.Post("/teams/invites/{token}", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest("POST", "/teams/invites/abc", nil))

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestTracing_PreservesResponseStatus(t *testing.T) {
	for _, status := range []int{http.StatusOK, http.StatusBadRequest, http.StatusInternalServerError} {
		wrapped := Tracing()(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(status)
		}))

		w := httptest.NewRecorder()
		wrapped.ServeHTTP(w, httptest.NewRequest("GET", "/test", nil))
		assert.Equal(t, status, w.Code)
	}
}

func TestTracing_PreservesResponseBody(t *testing.T) {
	expectedBody := `{"message":"test response"}`

	wrapped := Tracing()(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(expectedBody))
	}))

	w := httptest.NewRecorder()
	wrapped.ServeHTTP(w, httptest.NewRequest("GET", "/test", nil))

	assert.Equal(t, expectedBody, w.Body.String())
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
}
