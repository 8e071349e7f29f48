package flutterwave

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	retrygo "github.com/avast/retry-go/v4"
	domainErrors "github.com/orinx/billing/internal/domain/errors"
	"github.com/orinx/billing/internal/infrastructure/observability"
	"golang.org/x/sync/singleflight"
)

const tokenCacheKey = "flw:access_token"

// expiryMargin is shaved off the provider TTL so a token never expires
// mid-request.
const expiryMargin = 60 * time.Second

// TokenCache shares access tokens across instances. Implementations may be
// backed by Redis; a nil cache disables sharing.
type TokenCache interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, token string, ttl time.Duration) error
}

// TokenSource yields a bearer token for provider API calls.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
}

// ClientCredentialsSource fetches tokens with the OAuth client_credentials
// grant against the provider IdP. Concurrent refreshes are collapsed through
// singleflight; transient fetch failures are retried with backoff.
type ClientCredentialsSource struct {
	tokenURL     string
	clientID     string
	clientSecret string
	httpClient   *http.Client
	cache        TokenCache
	metrics      *observability.Metrics
	group        singleflight.Group
}

// NewClientCredentialsSource builds a token source. metrics may be nil, in
// which case refreshes are not counted.
func NewClientCredentialsSource(tokenURL, clientID, clientSecret string, httpClient *http.Client, cache TokenCache, metrics *observability.Metrics) *ClientCredentialsSource {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	return &ClientCredentialsSource{
		tokenURL:     tokenURL,
		clientID:     clientID,
		clientSecret: clientSecret,
		httpClient:   httpClient,
		cache:        cache,
		metrics:      metrics,
	}
}

func (s *ClientCredentialsSource) Token(ctx context.Context) (string, error) {
	if s.clientID == "" || s.clientSecret == "" {
		return "", fmt.Errorf("%w: missing client credentials", domainErrors.ErrTokenFetchFailed)
	}

	if s.cache != nil {
		if tok, err := s.cache.Get(ctx, tokenCacheKey); err == nil && tok != "" {
			return tok, nil
		}
	}

	v, err, _ := s.group.Do(tokenCacheKey, func() (any, error) {
		return s.fetch(ctx)
	})
	if err != nil {
		return "", err
	}
	return v.(string), nil
}

func (s *ClientCredentialsSource) fetch(ctx context.Context) (string, error) {
	var token string
	var ttl time.Duration

	err := retrygo.Do(
		func() error {
			var err error
			token, ttl, err = s.requestToken(ctx)
			return err
		},
		retrygo.Context(ctx),
		retrygo.Attempts(3),
		retrygo.Delay(500*time.Millisecond),
		retrygo.DelayType(retrygo.BackOffDelay),
		retrygo.LastErrorOnly(true),
	)
	if err != nil {
		if s.metrics != nil {
			s.metrics.TokenRefreshes.WithLabelValues("error").Inc()
		}
		return "", fmt.Errorf("%w: %v", domainErrors.ErrTokenFetchFailed, err)
	}
	if s.metrics != nil {
		s.metrics.TokenRefreshes.WithLabelValues("success").Inc()
	}

	if s.cache != nil && ttl > 0 {
		// Cache failure only costs an extra fetch next time.
		_ = s.cache.Set(ctx, tokenCacheKey, token, ttl)
	}
	return token, nil
}

func (s *ClientCredentialsSource) requestToken(ctx context.Context) (string, time.Duration, error) {
	form := url.Values{}
	form.Set("grant_type", "client_credentials")
	form.Set("client_id", s.clientID)
	form.Set("client_secret", s.clientSecret)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.tokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return "", 0, fmt.Errorf("build token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return "", 0, fmt.Errorf("token request: %w", err)
	}
	defer resp.Body.Close()

	var body struct {
		AccessToken      string `json:"access_token"`
		ExpiresIn        int    `json:"expires_in"`
		Error            string `json:"error"`
		ErrorDescription string `json:"error_description"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", 0, fmt.Errorf("decode token response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		msg := body.ErrorDescription
		if msg == "" {
			msg = body.Error
		}
		if msg == "" {
			msg = resp.Status
		}
		return "", 0, fmt.Errorf("token endpoint returned %d: %s", resp.StatusCode, msg)
	}
	if body.AccessToken == "" {
		return "", 0, fmt.Errorf("token endpoint returned no access_token")
	}

	ttl := time.Duration(body.ExpiresIn)*time.Second - expiryMargin
	return body.AccessToken, ttl, nil
}

// StaticTokenSource returns a fixed token. Used in tests.
type StaticTokenSource string

func (s StaticTokenSource) Token(context.Context) (string, error) { return string(s), nil }
