package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orinx/billing/internal/infrastructure/observability"
)

func TestMetrics_RecordsRequests(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := observability.NewMetrics("test", reg)

	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	r := chi.NewRouter()
	r.Use(Metrics(metrics))
	r.Post("/webhook", handler)

	req := httptest.NewRequest("POST", "/webhook", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	metricFamilies, err := reg.Gather()
	require.NoError(t, err)

	var foundRequestsTotal, foundDuration bool
	for _, mf := range metricFamilies {
		if *mf.Name == "test_http_requests_total" {
			foundRequestsTotal = true
			assert.Greater(t, len(mf.Metric), 0)
		}
		if *mf.Name == "test_http_request_duration_seconds" {
			foundDuration = true
		}
	}
	assert.True(t, foundRequestsTotal, "http_requests_total metric should be recorded")
	assert.True(t, foundDuration, "http_request_duration metric should be recorded")
}

func TestMetrics_ErrorStatusCodes(t *testing.T) {
	for _, status := range []int{http.StatusBadRequest, http.StatusUnauthorized, http.StatusInternalServerError} {
		reg := prometheus.NewRegistry()
		metrics := observability.NewMetrics("test", reg)

		r := chi.NewRouter()
		r.Use(Metrics(metrics))
		r.Post("/webhook", func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(status)
		})

		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest("POST", "/webhook", nil))
		assert.Equal(t, status, w.Code)
	}
}

func TestMetrics_NoRoutePattern(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := observability.NewMetrics("test", reg)

	wrapped := Metrics(metrics)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	w := httptest.NewRecorder()
	wrapped.ServeHTTP(w, httptest.NewRequest("GET", "/unknown", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestStatusWriter_WriteHeader(t *testing.T) {
	w := httptest.NewRecorder()
	sw := &statusWriter{ResponseWriter: w, statusCode: http.StatusOK}

	sw.WriteHeader(http.StatusCreated)

	assert.Equal(t, http.StatusCreated, sw.statusCode)
	assert.Equal(t, http.StatusCreated, w.Code)
}
