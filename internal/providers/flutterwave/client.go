package flutterwave

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/orinx/billing/internal/domain/billing"
	domainErrors "github.com/orinx/billing/internal/domain/errors"
	"github.com/orinx/billing/internal/infrastructure/observability"
	"github.com/sony/gobreaker/v2"
)

// Client talks to the Flutterwave v4 API. All calls carry a bounded timeout
// and run behind a circuit breaker so a provider outage surfaces quickly as
// an error instead of a hung request.
type Client struct {
	baseURL    string
	httpClient *http.Client
	tokens     TokenSource
	metrics    *observability.Metrics
	breaker    *gobreaker.CircuitBreaker[*http.Response]
}

// NewClient builds a provider client. metrics may be nil, in which case
// provider calls are not counted.
func NewClient(baseURL string, tokens TokenSource, timeout time.Duration, metrics *observability.Metrics) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: timeout},
		tokens:     tokens,
		metrics:    metrics,
		breaker: gobreaker.NewCircuitBreaker[*http.Response](gobreaker.Settings{
			Name:        "flutterwave",
			MaxRequests: 10,
			Interval:    60 * time.Second,
			Timeout:     30 * time.Second,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
				return counts.Requests >= 10 && failureRatio >= 0.6
			},
		}),
	}
}

// do issues an authenticated request through the breaker. The caller owns the
// response body.
func (c *Client) do(ctx context.Context, operation, method, path string, body io.Reader) (*http.Response, error) {
	start := time.Now()
	token, err := c.tokens.Token(ctx)
	if err != nil {
		c.observe(operation, "token_error", start)
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.breaker.Execute(func() (*http.Response, error) {
		return c.httpClient.Do(req)
	})
	if err != nil {
		c.observe(operation, "error", start)
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, fmt.Errorf("%w: circuit open", domainErrors.ErrProviderUnavailable)
		}
		var netErr net.Error
		if errors.As(err, &netErr) && netErr.Timeout() {
			return nil, fmt.Errorf("%w: %v", domainErrors.ErrProviderTimeout, err)
		}
		return nil, fmt.Errorf("%w: %v", domainErrors.ErrProviderUnavailable, err)
	}
	c.observe(operation, "success", start)
	return resp, nil
}

func (c *Client) observe(operation, result string, start time.Time) {
	if c.metrics == nil {
		return
	}
	c.metrics.ProviderRequests.WithLabelValues(operation, result).Inc()
	c.metrics.ProviderDuration.WithLabelValues(operation).Observe(time.Since(start).Seconds())
}

type verifyResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	Data    struct {
		ID       json.Number `json:"id"`
		TxRef    string      `json:"tx_ref"`
		Status   string      `json:"status"`
		Amount   float64     `json:"amount"`
		Currency string      `json:"currency"`
		Meta     billing.Meta `json:"meta"`
	} `json:"data"`
}

// VerifyTransaction fetches the authoritative state of a transaction from
// the provider. Nothing beyond the id is taken from the caller; status,
// amount and metadata all come from this response. A provider answer that
// rejects the transaction resolves to ErrVerificationFailed; transport
// faults keep their ErrProviderUnavailable or ErrProviderTimeout chain so
// callers can distinguish an outage from a bad transaction.
func (c *Client) VerifyTransaction(ctx context.Context, id string) (*billing.VerifiedTransaction, error) {
	resp, err := c.do(ctx, "verify", http.MethodGet, "/transactions/"+id+"/verify", nil)
	if err != nil {
		return nil, fmt.Errorf("verify transaction %s: %w", id, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("%w: verify endpoint returned %d", domainErrors.ErrVerificationFailed, resp.StatusCode)
	}

	var body verifyResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("%w: decode verify response: %v", domainErrors.ErrVerificationFailed, err)
	}
	if body.Status != "success" {
		return nil, fmt.Errorf("%w: provider reported %q: %s", domainErrors.ErrVerificationFailed, body.Status, body.Message)
	}

	return &billing.VerifiedTransaction{
		ID:       body.Data.ID.String(),
		TxRef:    body.Data.TxRef,
		Status:   body.Data.Status,
		Amount:   body.Data.Amount,
		Currency: body.Data.Currency,
		Meta:     body.Data.Meta,
	}, nil
}
