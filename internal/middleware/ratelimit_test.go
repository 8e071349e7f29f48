package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orinx/billing/internal/interfaces/http/dto"
)

func TestRateLimit_AnswersStructuredError(t *testing.T) {
	handler := RateLimit(1)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	for i := 0; i < 2; i++ {
		req := httptest.NewRequest("POST", "/billing/checkout", nil)
		req.RemoteAddr = "10.0.0.1:1234"
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)

		if i == 0 {
			assert.Equal(t, http.StatusOK, w.Code)
			continue
		}

		assert.Equal(t, http.StatusTooManyRequests, w.Code)
		var body dto.ErrorResponse
		require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
		assert.Equal(t, "rate_limit", body.Code)
		assert.NotEmpty(t, body.Error)
	}
}
