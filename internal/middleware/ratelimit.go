package middleware

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/httprate"

	"github.com/orinx/billing/internal/interfaces/http/dto"
)

// RateLimit throttles by client IP. The webhook route is exempt at the
// router level; this guards the interactive endpoints.
func RateLimit(requestsPerMinute int) func(http.Handler) http.Handler {
	return httprate.Limit(
		requestsPerMinute,
		1*time.Minute,
		httprate.WithKeyFuncs(httprate.KeyByIP),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusTooManyRequests)
			json.NewEncoder(w).Encode(dto.ErrorResponse{
				Error: "rate limit exceeded",
				Code:  "rate_limit",
			})
		}),
	)
}
